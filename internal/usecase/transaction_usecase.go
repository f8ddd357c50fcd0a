package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
	"github.com/ahemkaric/cashflow-monitoring/internal/infrastructure/metrics"
)

// TransactionUseCase is the reconciler: it drives paginated feed traversal
// and applies fetched transactions to the ledger. One instance serves both
// feeds; every operation takes the feed it works on.
type TransactionUseCase struct {
	feed      TransactionFeed
	store     CompanyInfoStore
	converter Converter
	directory CompanyService
	locks     *KeyLock
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewTransactionUseCase creates a new TransactionUseCase. metrics may be nil.
func NewTransactionUseCase(
	feed TransactionFeed,
	store CompanyInfoStore,
	converter Converter,
	directory CompanyService,
	locks *KeyLock,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		feed:      feed,
		store:     store,
		converter: converter,
		directory: directory,
		locks:     locks,
		metrics:   m,
		logger:    logger,
	}
}

// FetchAll traverses a feed page by page until exhaustion or the requested
// limit. Elements at or past BeforeTimestamp are dropped; an empty filtered
// page ends the traversal. A fetch error mid-traversal discards the
// accumulated prefix and yields an empty result: callers must not rely on
// partial progress surviving a failure.
func (uc *TransactionUseCase) FetchAll(ctx context.Context, feed domain.FeedType, params domain.TransactionParams) ([]domain.Transaction, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var accumulated []domain.Transaction

	for {
		page, err := uc.feed.Fetch(ctx, feed, params)
		if err != nil {
			uc.logger.Warn().Err(err).Str("feed", string(feed)).
				Int("accumulated", len(accumulated)).
				Msg("feed fetch failed, discarding traversal")
			return []domain.Transaction{}, nil
		}

		filtered := filterBefore(page, params)
		if len(filtered) == 0 {
			return accumulated, nil
		}

		accumulated = append(accumulated, filtered...)

		// The unfiltered page size decides continuation; the cursor is
		// derived from the last element that survived the cutoff.
		if len(page) < DefaultPageSize {
			return accumulated, nil
		}

		last := filtered[len(filtered)-1]
		next := params
		next.AfterID = &last.ID
		next.AfterTimestamp = &last.Timestamp

		if params.Limit > 0 {
			next.Limit = params.Limit - DefaultPageSize
			if next.Limit <= 0 {
				return accumulated, nil
			}
		}

		params = next
	}
}

func filterBefore(page []domain.Transaction, params domain.TransactionParams) []domain.Transaction {
	if params.BeforeTimestamp == nil {
		return page
	}

	filtered := make([]domain.Transaction, 0, len(page))
	for _, tx := range page {
		if tx.Timestamp.Before(*params.BeforeTimestamp) {
			filtered = append(filtered, tx)
		}
	}

	return filtered
}

// Apply posts one transaction side to a company's ledger record under the
// company's update lock. Re-applying the feed's last-processed transaction
// is a no-op.
func (uc *TransactionUseCase) Apply(ctx context.Context, companyID int, tx *domain.Transaction, isRecipient bool, table domain.RateTable) (*domain.CompanyInfo, error) {
	unlock := uc.locks.Lock(companyID)
	defer unlock()

	info, err := uc.store.GetCached(ctx, companyID)
	if errors.Is(err, domain.ErrCompanyInfoNotFound) {
		info, err = uc.store.CreateForCompany(ctx, companyID)
	}
	if err != nil {
		return nil, fmt.Errorf("load company info %d: %w", companyID, err)
	}

	if info.AlreadyApplied(tx) {
		if uc.metrics != nil {
			uc.metrics.TransactionsSkipped.WithLabelValues(string(tx.Feed)).Inc()
		}
		return info, nil
	}

	amountEUR, err := uc.converter.Convert(tx, table)
	if err != nil {
		return nil, err
	}

	info.Apply(tx, amountEUR, isRecipient)

	if err := uc.store.Update(ctx, info); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsProcessed.WithLabelValues(string(tx.Feed)).Inc()
	}

	return info, nil
}

// Process applies every transaction in the batch. Issuer and recipient sides
// resolve independently and run concurrently; IBANs outside the resolver map
// are skipped.
func (uc *TransactionUseCase) Process(ctx context.Context, txs []domain.Transaction, table domain.RateTable, ibanToCompany map[string]int) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := range txs {
		tx := &txs[i]

		if issuerID, ok := ibanToCompany[tx.Issuer]; ok {
			g.Go(func() error {
				_, err := uc.Apply(ctx, issuerID, tx, false, table)
				return err
			})
		}

		if recipientID, ok := ibanToCompany[tx.Recipient]; ok {
			g.Go(func() error {
				_, err := uc.Apply(ctx, recipientID, tx, true, table)
				return err
			})
		}
	}

	return g.Wait()
}

// CompanyTransactions holds the transactions touching a company's accounts,
// per feed.
type CompanyTransactions struct {
	Sepa  []domain.Transaction
	Swift []domain.Transaction
}

// TransactionsForCompany fetches all transactions within the time range that
// touch any of the company's IBANs, domestic and international separately.
// Each IBAN needs four traversals: issuer and recipient side on both feeds.
func (uc *TransactionUseCase) TransactionsForCompany(ctx context.Context, companyID, limit int, params domain.TransactionParams) (*CompanyTransactions, error) {
	company, err := uc.directory.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	uc.logger.Info().Int("company_id", companyID).Strs("ibans", company.IBANs).
		Msg("collecting transactions for company")

	result := &CompanyTransactions{}
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	collect := func(feed domain.FeedType, p domain.TransactionParams, sink *[]domain.Transaction) {
		g.Go(func() error {
			txs, err := uc.FetchAll(gctx, feed, p)
			if err != nil {
				return err
			}

			mu.Lock()
			*sink = append(*sink, txs...)
			mu.Unlock()

			return nil
		})
	}

	for _, iban := range company.IBANs {
		base := domain.TransactionParams{
			Limit:           limit,
			AfterTimestamp:  params.AfterTimestamp,
			BeforeTimestamp: params.BeforeTimestamp,
		}

		asIssuer := base
		asIssuer.Issuer = iban
		asRecipient := base
		asRecipient.Recipient = iban

		collect(domain.FeedSepa, asIssuer, &result.Sepa)
		collect(domain.FeedSepa, asRecipient, &result.Sepa)
		collect(domain.FeedSwift, asIssuer, &result.Swift)
		collect(domain.FeedSwift, asRecipient, &result.Swift)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}
