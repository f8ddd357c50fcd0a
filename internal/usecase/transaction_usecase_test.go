package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
	"github.com/ahemkaric/cashflow-monitoring/internal/usecase"
	"github.com/ahemkaric/cashflow-monitoring/internal/usecase/mocks"
)

func makeTransactions(feed domain.FeedType, n int, start time.Time) []domain.Transaction {
	txs := make([]domain.Transaction, n)
	for i := 0; i < n; i++ {
		txs[i] = domain.Transaction{
			ID:        uuid.New(),
			Amount:    decimal.NewFromInt(1),
			Currency:  "EUR",
			Timestamp: start.Add(time.Duration(i) * time.Second),
			Issuer:    "DE00ISSUER",
			Recipient: "FR00RECIPIENT",
			Feed:      feed,
		}
	}
	return txs
}

func newReconciler(feed usecase.TransactionFeed, store usecase.CompanyInfoStore) *usecase.TransactionUseCase {
	return usecase.NewTransactionUseCase(
		feed,
		store,
		&mocks.MockConverter{},
		usecase.NewCompanyUseCase(&mocks.MockCompanyClient{}, zerolog.Nop()),
		usecase.NewKeyLock(),
		nil,
		zerolog.Nop(),
	)
}

func newStore(repo *mocks.MockCompanyInfoRepository, cache *mocks.MockCompanyInfoCache) *usecase.CompanyInfoUseCase {
	return usecase.NewCompanyInfoUseCase(repo, cache, nil, &mocks.MockIDGenerator{}, nil, zerolog.Nop())
}

func TestFetchAllSingleShortPage(t *testing.T) {
	feed := mocks.NewMockTransactionFeed()
	feed.Script(domain.FeedSepa, makeTransactions(domain.FeedSepa, 3, time.Now().UTC()))

	uc := newReconciler(feed, nil)

	txs, err := uc.FetchAll(context.Background(), domain.FeedSepa, domain.TransactionParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	if feed.Fetches(domain.FeedSepa) != 1 {
		t.Fatalf("short page must end traversal after one fetch, got %d", feed.Fetches(domain.FeedSepa))
	}
}

func TestFetchAllExhaustsFullPages(t *testing.T) {
	start := time.Now().UTC()
	feed := mocks.NewMockTransactionFeed()
	feed.Script(domain.FeedSwift,
		makeTransactions(domain.FeedSwift, usecase.DefaultPageSize, start),
		makeTransactions(domain.FeedSwift, usecase.DefaultPageSize, start.Add(time.Hour)),
		makeTransactions(domain.FeedSwift, 250, start.Add(2*time.Hour)),
	)

	uc := newReconciler(feed, nil)

	txs, err := uc.FetchAll(context.Background(), domain.FeedSwift, domain.TransactionParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 2*usecase.DefaultPageSize + 250; len(txs) != want {
		t.Fatalf("expected %d transactions, got %d", want, len(txs))
	}
	if feed.Fetches(domain.FeedSwift) != 3 {
		t.Fatalf("expected ceil(N/pageSize)=3 fetches, got %d", feed.Fetches(domain.FeedSwift))
	}
}

func TestFetchAllAdvancesCursorFromLastElement(t *testing.T) {
	start := time.Now().UTC()
	firstPage := makeTransactions(domain.FeedSepa, usecase.DefaultPageSize, start)
	last := firstPage[len(firstPage)-1]

	var secondParams domain.TransactionParams
	feed := mocks.NewMockTransactionFeed()
	feed.FetchFunc = func(ctx context.Context, f domain.FeedType, params domain.TransactionParams) ([]domain.Transaction, error) {
		if params.AfterID == nil {
			return firstPage, nil
		}
		secondParams = params
		return nil, nil
	}

	uc := newReconciler(feed, nil)

	if _, err := uc.FetchAll(context.Background(), domain.FeedSepa, domain.TransactionParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if secondParams.AfterID == nil || *secondParams.AfterID != last.ID {
		t.Fatal("continued cursor must carry the last element's id")
	}
	if secondParams.AfterTimestamp == nil || !secondParams.AfterTimestamp.Equal(last.Timestamp) {
		t.Fatal("continued cursor must carry the last element's timestamp")
	}
}

func TestFetchAllBeforeCutoffFiltering(t *testing.T) {
	start := time.Now().UTC()
	page := makeTransactions(domain.FeedSepa, usecase.DefaultPageSize, start)
	// Last 10 elements land at or past the cutoff but the unfiltered page is
	// still full, so traversal continues.
	cutoff := page[usecase.DefaultPageSize-10].Timestamp

	feed := mocks.NewMockTransactionFeed()
	feed.Script(domain.FeedSepa, page)

	uc := newReconciler(feed, nil)

	txs, err := uc.FetchAll(context.Background(), domain.FeedSepa, domain.TransactionParams{
		BeforeTimestamp: &cutoff,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(txs) != usecase.DefaultPageSize-10 {
		t.Fatalf("expected %d filtered transactions, got %d", usecase.DefaultPageSize-10, len(txs))
	}
	for _, tx := range txs {
		if !tx.Timestamp.Before(cutoff) {
			t.Fatalf("transaction at %s not before cutoff %s", tx.Timestamp, cutoff)
		}
	}
	if feed.Fetches(domain.FeedSepa) != 2 {
		t.Fatalf("full unfiltered page must continue traversal, got %d fetches", feed.Fetches(domain.FeedSepa))
	}
}

func TestFetchAllStopsOnEmptyFilteredPage(t *testing.T) {
	start := time.Now().UTC()
	cutoff := start.Add(-time.Hour) // everything is past the cutoff

	feed := mocks.NewMockTransactionFeed()
	feed.Script(domain.FeedSepa, makeTransactions(domain.FeedSepa, 5, start))

	uc := newReconciler(feed, nil)

	txs, err := uc.FetchAll(context.Background(), domain.FeedSepa, domain.TransactionParams{
		BeforeTimestamp: &cutoff,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected empty result, got %d", len(txs))
	}
}

func TestFetchAllDiscardsPrefixOnError(t *testing.T) {
	start := time.Now().UTC()
	calls := 0

	feed := mocks.NewMockTransactionFeed()
	feed.FetchFunc = func(ctx context.Context, f domain.FeedType, params domain.TransactionParams) ([]domain.Transaction, error) {
		calls++
		if calls == 1 {
			return makeTransactions(domain.FeedSwift, usecase.DefaultPageSize, start), nil
		}
		return nil, &domain.UpstreamError{StatusCode: 500, URL: "/transactions/swift", Body: "boom"}
	}

	uc := newReconciler(feed, nil)

	txs, err := uc.FetchAll(context.Background(), domain.FeedSwift, domain.TransactionParams{})
	if err != nil {
		t.Fatalf("traversal errors must be swallowed, got %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("accumulated prefix must be discarded on error, got %d", len(txs))
	}
}

func TestFetchAllValidatesBeforeFetching(t *testing.T) {
	feed := mocks.NewMockTransactionFeed()
	uc := newReconciler(feed, nil)

	_, err := uc.FetchAll(context.Background(), domain.FeedSepa, domain.TransactionParams{
		Issuer:    "DE00ISSUER",
		Recipient: "FR00RECIPIENT",
	})
	if !errors.Is(err, domain.ErrConflictingCounterparties) {
		t.Fatalf("expected ErrConflictingCounterparties, got %v", err)
	}
	if feed.Fetches(domain.FeedSepa) != 0 {
		t.Fatal("validation must fail before any fetch")
	}
}

func TestFetchAllHonorsRequestedLimit(t *testing.T) {
	start := time.Now().UTC()
	feed := mocks.NewMockTransactionFeed()
	feed.Script(domain.FeedSepa,
		makeTransactions(domain.FeedSepa, usecase.DefaultPageSize, start),
		makeTransactions(domain.FeedSepa, usecase.DefaultPageSize, start.Add(time.Hour)),
	)

	uc := newReconciler(feed, nil)

	txs, err := uc.FetchAll(context.Background(), domain.FeedSepa, domain.TransactionParams{
		Limit: usecase.DefaultPageSize,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != usecase.DefaultPageSize {
		t.Fatalf("expected one batch of %d, got %d", usecase.DefaultPageSize, len(txs))
	}
	if feed.Fetches(domain.FeedSepa) != 1 {
		t.Fatalf("requested limit exhausted, expected 1 fetch, got %d", feed.Fetches(domain.FeedSepa))
	}
}

func TestApplyIsIdempotentPerFeed(t *testing.T) {
	repo := mocks.NewMockCompanyInfoRepository()
	repo.Seed(domain.NewCompanyInfo("rec-1", 42))
	store := newStore(repo, mocks.NewMockCompanyInfoCache())

	uc := newReconciler(mocks.NewMockTransactionFeed(), store)

	tx := makeTransactions(domain.FeedSepa, 1, time.Now().UTC())[0]
	tx.Amount = decimal.NewFromInt(100)

	ctx := context.Background()

	first, err := uc.Apply(ctx, 42, &tx, true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.BalanceEUR.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100, got %s", first.BalanceEUR)
	}

	second, err := uc.Apply(ctx, 42, &tx, true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.BalanceEUR.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("second application must be a no-op, got %s", second.BalanceEUR)
	}
	if len(second.CountryDetails) != 1 || second.CountryDetails[0].NumberOfTransactions != 1 {
		t.Fatalf("stats must count the transaction once, got %+v", second.CountryDetails)
	}
}

func TestApplyConvertsNonHomeCurrency(t *testing.T) {
	repo := mocks.NewMockCompanyInfoRepository()
	repo.Seed(domain.NewCompanyInfo("rec-1", 7))
	store := newStore(repo, mocks.NewMockCompanyInfoCache())

	uc := newReconciler(mocks.NewMockTransactionFeed(), store)

	tx := makeTransactions(domain.FeedSwift, 1, time.Now().UTC())[0]
	tx.Amount = decimal.NewFromInt(100)
	tx.Currency = "USD"

	table := domain.RateTable{
		"USD": {Currency: "USD", EURRate: 0.5},
	}

	info, err := uc.Apply(context.Background(), 7, &tx, true, table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.BalanceEUR.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected balance 50, got %s", info.BalanceEUR)
	}
}

func TestApplyFailsOnMissingRate(t *testing.T) {
	repo := mocks.NewMockCompanyInfoRepository()
	repo.Seed(domain.NewCompanyInfo("rec-1", 7))
	store := newStore(repo, mocks.NewMockCompanyInfoCache())

	uc := newReconciler(mocks.NewMockTransactionFeed(), store)

	tx := makeTransactions(domain.FeedSwift, 1, time.Now().UTC())[0]
	tx.Currency = "XXX"

	_, err := uc.Apply(context.Background(), 7, &tx, true, domain.RateTable{})

	var rateErr *domain.ExchangeRateNotFoundError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected ExchangeRateNotFoundError, got %v", err)
	}
	if rateErr.Currency != "XXX" {
		t.Fatalf("expected currency XXX, got %s", rateErr.Currency)
	}
}

func TestApplyCreatesRecordForUnseenCompany(t *testing.T) {
	repo := mocks.NewMockCompanyInfoRepository()
	store := newStore(repo, mocks.NewMockCompanyInfoCache())

	uc := newReconciler(mocks.NewMockTransactionFeed(), store)

	tx := makeTransactions(domain.FeedSepa, 1, time.Now().UTC())[0]
	tx.Amount = decimal.NewFromInt(25)

	info, err := uc.Apply(context.Background(), 99, &tx, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.BalanceEUR.Equal(decimal.NewFromInt(-25)) {
		t.Fatalf("expected balance -25 on fresh record, got %s", info.BalanceEUR)
	}
	if _, err := repo.FindByCompanyID(context.Background(), 99); err != nil {
		t.Fatalf("record must be persisted: %v", err)
	}
}

func TestProcessDoubleEntryUpdatesBothLedgersOnce(t *testing.T) {
	repo := mocks.NewMockCompanyInfoRepository()
	repo.Seed(domain.NewCompanyInfo("rec-1", 1))
	repo.Seed(domain.NewCompanyInfo("rec-2", 2))
	store := newStore(repo, mocks.NewMockCompanyInfoCache())

	uc := newReconciler(mocks.NewMockTransactionFeed(), store)

	txs := makeTransactions(domain.FeedSepa, 1, time.Now().UTC())
	txs[0].Amount = decimal.NewFromInt(30)

	mapping := map[string]int{
		txs[0].Issuer:    1,
		txs[0].Recipient: 2,
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = uc.Process(context.Background(), txs, nil, mapping)
		}()
	}
	wg.Wait()

	issuer, _ := repo.FindByCompanyID(context.Background(), 1)
	recipient, _ := repo.FindByCompanyID(context.Background(), 2)

	if !issuer.BalanceEUR.Equal(decimal.NewFromInt(-30)) {
		t.Fatalf("issuer balance must move exactly once, got %s", issuer.BalanceEUR)
	}
	if !recipient.BalanceEUR.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("recipient balance must move exactly once, got %s", recipient.BalanceEUR)
	}
}

func TestTransactionsForCompanyTraversesEverySide(t *testing.T) {
	directory := usecase.NewCompanyUseCase(&mocks.MockCompanyClient{
		Companies: []domain.Company{
			{ID: 5, IBANs: []string{"DE05A", "DE05B"}},
		},
	}, zerolog.Nop())

	var mu sync.Mutex
	type traversal struct {
		feed      domain.FeedType
		issuer    string
		recipient string
	}
	var seen []traversal

	feed := mocks.NewMockTransactionFeed()
	feed.FetchFunc = func(ctx context.Context, f domain.FeedType, params domain.TransactionParams) ([]domain.Transaction, error) {
		mu.Lock()
		seen = append(seen, traversal{feed: f, issuer: params.Issuer, recipient: params.Recipient})
		mu.Unlock()

		if f == domain.FeedSepa && params.Issuer == "DE05A" {
			return makeTransactions(domain.FeedSepa, 2, time.Now().UTC()), nil
		}
		if f == domain.FeedSwift && params.Recipient == "DE05B" {
			return makeTransactions(domain.FeedSwift, 3, time.Now().UTC()), nil
		}
		return nil, nil
	}

	uc := usecase.NewTransactionUseCase(
		feed, nil, &mocks.MockConverter{}, directory,
		usecase.NewKeyLock(), nil, zerolog.Nop())

	result, err := uc.TransactionsForCompany(context.Background(), 5, 0, domain.TransactionParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Issuer and recipient side on both feeds, per IBAN.
	if len(seen) != 8 {
		t.Fatalf("expected 8 traversals for 2 IBANs, got %d", len(seen))
	}
	for _, tr := range seen {
		if (tr.issuer == "") == (tr.recipient == "") {
			t.Fatalf("each traversal must filter by exactly one side, got %+v", tr)
		}
	}

	if len(result.Sepa) != 2 {
		t.Fatalf("expected 2 sepa transactions, got %d", len(result.Sepa))
	}
	if len(result.Swift) != 3 {
		t.Fatalf("expected 3 swift transactions, got %d", len(result.Swift))
	}
}

func TestTransactionsForCompanyUnknownCompany(t *testing.T) {
	directory := usecase.NewCompanyUseCase(&mocks.MockCompanyClient{}, zerolog.Nop())

	uc := usecase.NewTransactionUseCase(
		mocks.NewMockTransactionFeed(), nil, &mocks.MockConverter{}, directory,
		usecase.NewKeyLock(), nil, zerolog.Nop())

	_, err := uc.TransactionsForCompany(context.Background(), 404, 0, domain.TransactionParams{})
	if !errors.Is(err, domain.ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
}

func TestProcessSkipsUnknownIBANs(t *testing.T) {
	repo := mocks.NewMockCompanyInfoRepository()
	store := newStore(repo, mocks.NewMockCompanyInfoCache())

	uc := newReconciler(mocks.NewMockTransactionFeed(), store)

	txs := makeTransactions(domain.FeedSwift, 2, time.Now().UTC())

	if err := uc.Process(context.Background(), txs, nil, map[string]int{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	infos, _ := repo.FindAll(context.Background())
	if len(infos) != 0 {
		t.Fatalf("no ledger record may be touched for unknown IBANs, got %d", len(infos))
	}
}
