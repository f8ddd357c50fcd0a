package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
	"github.com/ahemkaric/cashflow-monitoring/internal/usecase"
)

// CompanyResponse represents a directory entry in API responses.
type CompanyResponse struct {
	ID      int      `json:"id"`
	IBANs   []string `json:"ibans"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
}

// CompanyFromDomain converts a domain company to a response.
func CompanyFromDomain(c domain.Company) *CompanyResponse {
	return &CompanyResponse{
		ID:      c.ID,
		IBANs:   c.IBANs,
		Name:    c.Name,
		Address: c.Address,
	}
}

// CompaniesFromDomain converts domain companies to responses.
func CompaniesFromDomain(companies []domain.Company) []*CompanyResponse {
	result := make([]*CompanyResponse, len(companies))
	for i, c := range companies {
		result[i] = CompanyFromDomain(c)
	}
	return result
}

// CompanyInfoResponse represents a ledger record in API responses.
type CompanyInfoResponse struct {
	RecordID               string                 `json:"record_id"`
	CompanyID              int                    `json:"company_id"`
	BalanceEUR             decimal.Decimal        `json:"balance_eur"`
	LastSepaTransactionID  string                 `json:"last_sepa_transaction_id,omitempty"`
	LastSepaTransactionAt  *time.Time             `json:"last_sepa_transaction_at,omitempty"`
	LastSwiftTransactionID string                 `json:"last_swift_transaction_id,omitempty"`
	LastSwiftTransactionAt *time.Time             `json:"last_swift_transaction_at,omitempty"`
	CountryDetails         []domain.CountryDetail `json:"country_details"`
	UpdatedAt              time.Time              `json:"updated_at"`
}

// CompanyInfoFromDomain converts a ledger record to a response.
func CompanyInfoFromDomain(info *domain.CompanyInfo) *CompanyInfoResponse {
	resp := &CompanyInfoResponse{
		RecordID:               info.RecordID,
		CompanyID:              info.CompanyID,
		BalanceEUR:             info.BalanceEUR,
		LastSepaTransactionAt:  info.LastSepaTransactionAt,
		LastSwiftTransactionAt: info.LastSwiftTransactionAt,
		CountryDetails:         info.CountryDetails,
		UpdatedAt:              info.UpdatedAt,
	}

	if info.LastSepaTransactionID != nil {
		resp.LastSepaTransactionID = info.LastSepaTransactionID.String()
	}
	if info.LastSwiftTransactionID != nil {
		resp.LastSwiftTransactionID = info.LastSwiftTransactionID.String()
	}

	return resp
}

// CompanyInfosFromDomain converts ledger records to responses.
func CompanyInfosFromDomain(infos []*domain.CompanyInfo) []*CompanyInfoResponse {
	result := make([]*CompanyInfoResponse, len(infos))
	for i, info := range infos {
		result[i] = CompanyInfoFromDomain(info)
	}
	return result
}

// BalanceResponse carries a company's EUR balance.
type BalanceResponse struct {
	CompanyID  int             `json:"company_id"`
	BalanceEUR decimal.Decimal `json:"balance_eur"`
}

// TransactionResponse represents one transaction in API responses.
type TransactionResponse struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Timestamp time.Time       `json:"timestamp"`
	Issuer    string          `json:"issuer"`
	Recipient string          `json:"recipient"`
}

// CompanyTransactionsResponse splits a company's transactions by feed.
type CompanyTransactionsResponse struct {
	Sepa  []TransactionResponse `json:"sepa_transactions"`
	Swift []TransactionResponse `json:"swift_transactions"`
}

// CompanyTransactionsFromDomain converts the per-feed transaction lists.
func CompanyTransactionsFromDomain(txs *usecase.CompanyTransactions) *CompanyTransactionsResponse {
	return &CompanyTransactionsResponse{
		Sepa:  transactionsFromDomain(txs.Sepa),
		Swift: transactionsFromDomain(txs.Swift),
	}
}

func transactionsFromDomain(txs []domain.Transaction) []TransactionResponse {
	result := make([]TransactionResponse, len(txs))
	for i, tx := range txs {
		result[i] = TransactionResponse{
			ID:        tx.ID.String(),
			Amount:    tx.Amount,
			Currency:  tx.Currency,
			Timestamp: tx.Timestamp,
			Issuer:    tx.Issuer,
			Recipient: tx.Recipient,
		}
	}
	return result
}

// CheckpointResponse reports where an orchestrator run ended.
type CheckpointResponse struct {
	SepaAfterTimestamp  time.Time `json:"sepa-after-timestamp"`
	SepaAfterUUID       string    `json:"sepa-after-uuid"`
	SwiftAfterTimestamp time.Time `json:"swift-after-timestamp"`
	SwiftAfterUUID      string    `json:"swift-after-uuid"`
	Outcome             string    `json:"outcome"`
}

// CheckpointFromDomain converts a checkpoint to a response.
func CheckpointFromDomain(cp domain.Checkpoint) *CheckpointResponse {
	return &CheckpointResponse{
		SepaAfterTimestamp:  cp.SepaTimestamp,
		SepaAfterUUID:       cp.SepaID.String(),
		SwiftAfterTimestamp: cp.SwiftTimestamp,
		SwiftAfterUUID:      cp.SwiftID.String(),
		Outcome:             string(cp.Outcome),
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
