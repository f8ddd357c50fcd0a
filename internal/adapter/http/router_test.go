package http

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ahemkaric/cashflow-monitoring/internal/adapter/http/dto"
	"github.com/ahemkaric/cashflow-monitoring/internal/adapter/http/handler"
	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
	"github.com/ahemkaric/cashflow-monitoring/internal/usecase"
)

type fakeDirectory struct{}

func (fakeDirectory) ListAll(ctx context.Context, limit, afterID int) ([]domain.Company, error) {
	return []domain.Company{{ID: 1, Name: "Acme", IBANs: []string{"DE01"}}}, nil
}

type fakeLedger struct{}

func (fakeLedger) Balance(ctx context.Context, companyID int) (decimal.Decimal, error) {
	return decimal.NewFromInt(10), nil
}

func (fakeLedger) CountryDetails(ctx context.Context, companyID int) ([]domain.CountryDetail, error) {
	return nil, nil
}

func (fakeLedger) SyncNewCompanies(ctx context.Context, limit int) ([]*domain.CompanyInfo, error) {
	return nil, nil
}

type fakeTransactions struct{}

func (fakeTransactions) TransactionsForCompany(ctx context.Context, companyID, limit int, params domain.TransactionParams) (*usecase.CompanyTransactions, error) {
	return &usecase.CompanyTransactions{}, nil
}

type fakeOrchestrator struct{}

func (fakeOrchestrator) ProcessNewTransactions(ctx context.Context, limit int) (domain.Checkpoint, error) {
	return domain.Checkpoint{Outcome: domain.OutcomeConverged}, nil
}

func newTestRouter() nethttp.Handler {
	return NewRouter(RouterConfig{
		CompanyHandler: handler.NewCompanyHandler(fakeDirectory{}),
		CashflowHandler: handler.NewCashflowHandler(
			fakeLedger{}, fakeTransactions{}, fakeOrchestrator{}, nil),
		HealthHandler: handler.NewHealthHandler(nil, nil),
		Logger:        zerolog.Nop(),
	})
}

func TestRouterRoutes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		method string
		target string
		status int
	}{
		{nethttp.MethodGet, "/health", nethttp.StatusOK},
		{nethttp.MethodGet, "/metrics", nethttp.StatusOK},
		{nethttp.MethodGet, "/api/v1/companies", nethttp.StatusOK},
		{nethttp.MethodGet, "/api/v1/companies/1/balance", nethttp.StatusOK},
		{nethttp.MethodGet, "/api/v1/companies/1/country-details", nethttp.StatusOK},
		{nethttp.MethodGet, "/api/v1/companies/1/transactions", nethttp.StatusOK},
		{nethttp.MethodPost, "/api/v1/companies/update", nethttp.StatusOK},
		{nethttp.MethodPost, "/api/v1/companies/update/transactions", nethttp.StatusOK},
		{nethttp.MethodGet, "/api/v1/unknown", nethttp.StatusNotFound},
		{nethttp.MethodDelete, "/api/v1/companies", nethttp.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

		if rec.Code != tt.status {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.target, tt.status, rec.Code)
		}
	}
}

func TestRouterCompanyList(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/api/v1/companies", nil))

	var companies []*dto.CompanyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &companies); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(companies) != 1 || companies[0].Name != "Acme" {
		t.Fatalf("unexpected companies: %+v", companies)
	}
}
