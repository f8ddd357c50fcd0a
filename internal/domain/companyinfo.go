package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CountryDetail counts how often a currency appeared in a company's
// transactions.
type CountryDetail struct {
	CountryCode          string `json:"countryCode"`
	NumberOfTransactions int    `json:"numberOfTransactions"`
}

// CompanyInfo is the durable per-company ledger record. The balance is
// denominated in EUR; the per-feed markers make transaction application
// idempotent.
type CompanyInfo struct {
	RecordID               string
	CompanyID              int
	BalanceEUR             decimal.Decimal
	LastSepaTransactionID  *uuid.UUID
	LastSepaTransactionAt  *time.Time
	LastSwiftTransactionID *uuid.UUID
	LastSwiftTransactionAt *time.Time
	CountryDetails         []CountryDetail
	UpdatedAt              time.Time
}

// NewCompanyInfo returns a zero-balance ledger record for a company.
func NewCompanyInfo(recordID string, companyID int) *CompanyInfo {
	return &CompanyInfo{
		RecordID:   recordID,
		CompanyID:  companyID,
		BalanceEUR: decimal.Zero,
	}
}

// AlreadyApplied reports whether the transaction was the last one applied
// from its feed. The marker is feed-specific.
func (ci *CompanyInfo) AlreadyApplied(tx *Transaction) bool {
	switch tx.Feed {
	case FeedSepa:
		return ci.LastSepaTransactionID != nil && *ci.LastSepaTransactionID == tx.ID
	case FeedSwift:
		return ci.LastSwiftTransactionID != nil && *ci.LastSwiftTransactionID == tx.ID
	}

	return false
}

// Apply posts an already-converted amount to the balance and advances the
// feed marker. Callers must hold the company's update lock and must have
// checked AlreadyApplied first.
func (ci *CompanyInfo) Apply(tx *Transaction, amountEUR decimal.Decimal, isRecipient bool) {
	if isRecipient {
		ci.BalanceEUR = ci.BalanceEUR.Add(amountEUR)
	} else {
		ci.BalanceEUR = ci.BalanceEUR.Sub(amountEUR)
	}

	id := tx.ID
	ts := tx.Timestamp

	switch tx.Feed {
	case FeedSepa:
		ci.LastSepaTransactionID = &id
		ci.LastSepaTransactionAt = &ts
	case FeedSwift:
		ci.LastSwiftTransactionID = &id
		ci.LastSwiftTransactionAt = &ts
	}

	ci.countCurrency(tx.Currency)
}

func (ci *CompanyInfo) countCurrency(currency string) {
	for i := range ci.CountryDetails {
		if ci.CountryDetails[i].CountryCode == currency {
			ci.CountryDetails[i].NumberOfTransactions++
			return
		}
	}

	ci.CountryDetails = append(ci.CountryDetails, CountryDetail{
		CountryCode:          currency,
		NumberOfTransactions: 1,
	})
}

// SortedCountryDetails returns the currency stats ordered by descending
// transaction count.
func (ci *CompanyInfo) SortedCountryDetails() []CountryDetail {
	details := make([]CountryDetail, len(ci.CountryDetails))
	copy(details, ci.CountryDetails)

	sort.SliceStable(details, func(i, j int) bool {
		return details[i].NumberOfTransactions > details[j].NumberOfTransactions
	})

	return details
}

// MarkerFor returns the last-processed marker for a feed. Either value may
// be nil when no transaction from that feed was applied yet.
func (ci *CompanyInfo) MarkerFor(feed FeedType) (*uuid.UUID, *time.Time) {
	if feed == FeedSepa {
		return ci.LastSepaTransactionID, ci.LastSepaTransactionAt
	}

	return ci.LastSwiftTransactionID, ci.LastSwiftTransactionAt
}
