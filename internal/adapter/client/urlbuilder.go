package client

import (
	"net/url"
	"strconv"
	"time"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
)

// Query parameter and path names of the external transaction store API.
const (
	paramLimit          = "limit"
	paramAfterID        = "after-id"
	paramAfterTimestamp = "after-timestamp"
	paramAfterUUID      = "after-uuid"
	paramPayer          = "payer"
	paramReceiver       = "receiver"
	paramSender         = "sender"
	paramBeneficiary    = "beneficiary"

	pathCompanies     = "companies"
	pathExchangeRates = "exchange-rates"
	pathTransactions  = "transactions"
)

// maxRequestLimit is the upstream page-size ceiling; requested limits are
// clamped to it.
const maxRequestLimit = 1000

// URLBuilder builds request URLs against the external API base URL.
type URLBuilder struct {
	base *url.URL
}

// NewURLBuilder parses the base URL once. An unparsable base is a
// configuration error surfaced at startup.
func NewURLBuilder(baseURL string) (*URLBuilder, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	return &URLBuilder{base: base}, nil
}

// Company returns the URL of a single directory entry.
func (b *URLBuilder) Company(companyID int) string {
	return b.base.JoinPath(pathCompanies, strconv.Itoa(companyID)).String()
}

// Companies returns the directory listing URL. afterID of 0 is omitted.
func (b *URLBuilder) Companies(limit, afterID int) string {
	u := b.base.JoinPath(pathCompanies)

	q := url.Values{}
	q.Set(paramLimit, strconv.Itoa(effectiveLimit(limit)))
	if afterID > 0 {
		q.Set(paramAfterID, strconv.Itoa(afterID))
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// ExchangeRates returns the rates listing URL.
func (b *URLBuilder) ExchangeRates() string {
	return b.base.JoinPath(pathExchangeRates).String()
}

// Transactions returns a feed page URL. Counterparty filters use the feed's
// own parameter names.
func (b *URLBuilder) Transactions(feed domain.FeedType, params domain.TransactionParams) string {
	u := b.base.JoinPath(pathTransactions, string(feed))

	q := url.Values{}
	q.Set(paramLimit, strconv.Itoa(effectiveLimit(params.Limit)))
	if params.AfterTimestamp != nil {
		// Full precision: the bound is exclusive, so truncating to whole
		// seconds would re-include transactions from the same second.
		q.Set(paramAfterTimestamp, params.AfterTimestamp.UTC().Format(time.RFC3339Nano))
	}
	if params.AfterID != nil {
		q.Set(paramAfterUUID, params.AfterID.String())
	}

	issuerParam, recipientParam := paramPayer, paramReceiver
	if feed == domain.FeedSwift {
		issuerParam, recipientParam = paramSender, paramBeneficiary
	}
	if params.Issuer != "" {
		q.Set(issuerParam, params.Issuer)
	}
	if params.Recipient != "" {
		q.Set(recipientParam, params.Recipient)
	}

	u.RawQuery = q.Encode()

	return u.String()
}

func effectiveLimit(limit int) int {
	if limit <= 0 || limit > maxRequestLimit {
		return maxRequestLimit
	}
	return limit
}
