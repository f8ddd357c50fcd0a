package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, 5*time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	return c, srv
}

func TestCompanyClientList(t *testing.T) {
	var gotQuery url.Values
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/companies" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"ibans":["DE01"],"name":"Acme","address":"Berlin"}]`))
	}))

	companies, err := NewCompanyClient(c).List(context.Background(), 50, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(companies) != 1 || companies[0].Name != "Acme" || companies[0].IBANs[0] != "DE01" {
		t.Fatalf("unexpected companies: %+v", companies)
	}
	if gotQuery.Get("limit") != "50" || gotQuery.Get("after-id") != "10" {
		t.Fatalf("unexpected query: %v", gotQuery)
	}
}

func TestCompanyClientListClampsLimit(t *testing.T) {
	var gotLimit string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`[]`))
	}))

	if _, err := NewCompanyClient(c).List(context.Background(), 5000, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != "1000" {
		t.Fatalf("limit must be clamped to 1000, got %s", gotLimit)
	}
}

func TestCompanyClientGetNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such company", http.StatusNotFound)
	}))

	_, err := NewCompanyClient(c).Get(context.Background(), 404)
	if !errors.Is(err, domain.ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
}

func TestClientMapsServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database on fire", http.StatusInternalServerError)
	}))

	_, err := NewCompanyClient(c).List(context.Background(), 0, 0)

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", upstream.StatusCode)
	}
	if upstream.IsClientError() {
		t.Fatal("a 500 is not a client error")
	}
}

func TestClientMapsClientError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad cursor", http.StatusBadRequest)
	}))

	_, err := NewCompanyClient(c).List(context.Background(), 0, 0)

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if !upstream.IsClientError() {
		t.Fatal("a 400 is a client error")
	}
}

func TestClientWrapsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	c, err := New(srv.URL, time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = NewCompanyClient(c).List(context.Background(), 0, 0)
	if !errors.Is(err, domain.ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable, got %v", err)
	}
}

func TestTransactionClientFetchSepa(t *testing.T) {
	id := uuid.New()
	var gotPath string
	var gotQuery url.Values

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(`[{"id":"` + id.String() +
			`","payer":"DE01","receiver":"FR01","amount":"12.50","currency":"EUR","timestamp":"2024-03-01T10:00:00Z"}]`))
	}))

	after := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	afterID := uuid.New()
	txs, err := NewTransactionClient(c).Fetch(context.Background(), domain.FeedSepa, domain.TransactionParams{
		Limit:          100,
		AfterTimestamp: &after,
		AfterID:        &afterID,
		Issuer:         "DE01",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/transactions/sepa" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotQuery.Get("payer") != "DE01" || gotQuery.Get("sender") != "" {
		t.Fatalf("sepa issuer filter must use the payer parameter, got %v", gotQuery)
	}
	if gotQuery.Get("after-timestamp") != "2024-03-01T00:00:00Z" {
		t.Fatalf("unexpected after-timestamp: %s", gotQuery.Get("after-timestamp"))
	}
	if gotQuery.Get("after-uuid") != afterID.String() {
		t.Fatalf("unexpected after-uuid: %s", gotQuery.Get("after-uuid"))
	}

	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	tx := txs[0]
	if tx.ID != id || tx.Feed != domain.FeedSepa {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if tx.Issuer != "DE01" || tx.Recipient != "FR01" {
		t.Fatalf("counterparties must map onto issuer and recipient, got %+v", tx)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("unexpected amount: %s", tx.Amount)
	}
}

func TestTransactionClientFetchSwift(t *testing.T) {
	var gotPath string
	var gotQuery url.Values

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(`[{"id":"` + uuid.NewString() +
			`","sender":"US01","beneficiary":"DE01","amount":"99","currency":"USD","timestamp":"2024-03-01T10:00:00Z"}]`))
	}))

	txs, err := NewTransactionClient(c).Fetch(context.Background(), domain.FeedSwift, domain.TransactionParams{
		Recipient: "DE01",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/transactions/swift" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotQuery.Get("beneficiary") != "DE01" || gotQuery.Get("receiver") != "" {
		t.Fatalf("swift recipient filter must use the beneficiary parameter, got %v", gotQuery)
	}
	if len(txs) != 1 || txs[0].Feed != domain.FeedSwift || txs[0].Issuer != "US01" {
		t.Fatalf("unexpected transactions: %+v", txs)
	}
}

func TestTransactionClientKeepsFractionalSeconds(t *testing.T) {
	var gotQuery url.Values
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}))

	after := time.Date(2024, 5, 1, 10, 0, 0, 500_000_000, time.UTC)
	_, err := NewTransactionClient(c).Fetch(context.Background(), domain.FeedSepa, domain.TransactionParams{
		AfterTimestamp: &after,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gotQuery.Get("after-timestamp"); got != "2024-05-01T10:00:00.5Z" {
		t.Fatalf("sub-second precision lost in after-timestamp: %s", got)
	}
}

func TestParseTimestampAcceptsFractionalSeconds(t *testing.T) {
	ts, err := parseTimestamp("2024-05-01T10:00:00.5Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.Nanosecond() != 500_000_000 {
		t.Fatalf("expected .5s to survive parsing, got %v", ts)
	}
}

func TestTransactionClientRejectsBadTimestamp(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"` + uuid.NewString() +
			`","payer":"DE01","receiver":"FR01","amount":"1","currency":"EUR","timestamp":"yesterday"}]`))
	}))

	if _, err := NewTransactionClient(c).Fetch(context.Background(), domain.FeedSepa, domain.TransactionParams{}); err == nil {
		t.Fatal("expected timestamp parse error")
	}
}

func TestEndpointLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/companies", "companies"},
		{"/companies/42", "companies/:id"},
		{"/exchange-rates", "exchange-rates"},
		{"/transactions/sepa", "transactions/sepa"},
		{"/transactions/swift", "transactions/swift"},
	}

	for _, tt := range tests {
		if got := endpointLabel(tt.path); got != tt.want {
			t.Fatalf("endpointLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestExchangeRateClientFetch(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exchange-rates" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"currency":"USD","eur_rate":0.92,"usd_rate":1.0}]`))
	}))

	rates, err := NewExchangeRateClient(c).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rates) != 1 || rates[0].Currency != "USD" || rates[0].EURRate != 0.92 {
		t.Fatalf("unexpected rates: %+v", rates)
	}
}
