package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ahemkaric/cashflow-monitoring/internal/adapter/http/dto"
	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
	"github.com/ahemkaric/cashflow-monitoring/internal/usecase"
)

// LedgerService defines the ledger behavior needed by CashflowHandler.
type LedgerService interface {
	Balance(ctx context.Context, companyID int) (decimal.Decimal, error)
	CountryDetails(ctx context.Context, companyID int) ([]domain.CountryDetail, error)
	SyncNewCompanies(ctx context.Context, limit int) ([]*domain.CompanyInfo, error)
}

// TransactionService defines the traversal behavior needed by
// CashflowHandler.
type TransactionService interface {
	TransactionsForCompany(ctx context.Context, companyID, limit int, params domain.TransactionParams) (*usecase.CompanyTransactions, error)
}

// OrchestratorService drives reconciliation runs.
type OrchestratorService interface {
	ProcessNewTransactions(ctx context.Context, limit int) (domain.Checkpoint, error)
}

// ResolverInvalidator drops the IBAN resolver memo after directory changes.
type ResolverInvalidator interface {
	Invalidate()
}

// CashflowHandler handles ledger and reconciliation HTTP requests.
type CashflowHandler struct {
	ledger       LedgerService
	transactions TransactionService
	orchestrator OrchestratorService
	resolver     ResolverInvalidator
}

// NewCashflowHandler creates a new CashflowHandler.
func NewCashflowHandler(
	ledger LedgerService,
	transactions TransactionService,
	orchestrator OrchestratorService,
	resolver ResolverInvalidator,
) *CashflowHandler {
	return &CashflowHandler{
		ledger:       ledger,
		transactions: transactions,
		orchestrator: orchestrator,
		resolver:     resolver,
	}
}

// Balance returns a company's EUR balance.
func (h *CashflowHandler) Balance(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyIDParam(w, r)
	if !ok {
		return
	}

	balance, err := h.ledger.Balance(r.Context(), companyID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		CompanyID:  companyID,
		BalanceEUR: balance,
	})
}

// CountryDetails returns a company's per-currency stats, most used first.
func (h *CashflowHandler) CountryDetails(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyIDParam(w, r)
	if !ok {
		return
	}

	details, err := h.ledger.CountryDetails(r.Context(), companyID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get country details", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// Transactions returns the company's transactions within a time range, split
// by feed.
func (h *CashflowHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyIDParam(w, r)
	if !ok {
		return
	}

	params := domain.TransactionParams{}

	if raw := r.URL.Query().Get("after-timestamp"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid after-timestamp", err.Error())
			return
		}
		params.AfterTimestamp = &ts
	}
	if raw := r.URL.Query().Get("before-timestamp"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid before-timestamp", err.Error())
			return
		}
		params.BeforeTimestamp = &ts
	}

	limit := parseIntQuery(r, "limit", 0)

	txs, err := h.transactions.TransactionsForCompany(r.Context(), companyID, limit, params)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CompanyTransactionsFromDomain(txs))
}

// UpdateCompanies pulls new directory entries into the ledger and returns
// the created records.
func (h *CashflowHandler) UpdateCompanies(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 0)

	created, err := h.ledger.SyncNewCompanies(r.Context(), limit)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to sync companies", err.Error())
		return
	}

	if len(created) > 0 && h.resolver != nil {
		h.resolver.Invalidate()
	}

	writeJSON(w, http.StatusOK, dto.CompanyInfosFromDomain(created))
}

// ProcessTransactions runs one reconciliation pass and reports the reached
// checkpoint.
func (h *CashflowHandler) ProcessTransactions(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 0)

	checkpoint, err := h.orchestrator.ProcessNewTransactions(r.Context(), limit)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to process transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CheckpointFromDomain(checkpoint))
}

func companyIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")

	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid company id", raw)
		return 0, false
	}

	return id, true
}
