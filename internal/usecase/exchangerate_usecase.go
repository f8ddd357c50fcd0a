package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
)

// ExchangeRateUseCase serves a cached exchange-rate table. The table is
// refreshed as a whole; concurrent callers inside one window share a single
// upstream fetch.
type ExchangeRateUseCase struct {
	source RateSource
	ttl    time.Duration
	logger zerolog.Logger

	group singleflight.Group

	mu        sync.RWMutex
	table     domain.RateTable
	fetchedAt time.Time
}

// NewExchangeRateUseCase creates a new ExchangeRateUseCase.
func NewExchangeRateUseCase(source RateSource, logger zerolog.Logger) *ExchangeRateUseCase {
	return &ExchangeRateUseCase{
		source: source,
		ttl:    RateTableTTL,
		logger: logger,
	}
}

// Rates returns the rate table, fetching it lazily when the cached one is
// older than the TTL.
func (uc *ExchangeRateUseCase) Rates(ctx context.Context) (domain.RateTable, error) {
	uc.mu.RLock()
	if uc.table != nil && time.Since(uc.fetchedAt) < uc.ttl {
		table := uc.table
		uc.mu.RUnlock()
		return table, nil
	}
	uc.mu.RUnlock()

	result, err, _ := uc.group.Do("rates", func() (any, error) {
		// Another caller may have refreshed while we waited for the group.
		uc.mu.RLock()
		if uc.table != nil && time.Since(uc.fetchedAt) < uc.ttl {
			table := uc.table
			uc.mu.RUnlock()
			return table, nil
		}
		uc.mu.RUnlock()

		rates, err := uc.source.Fetch(ctx)
		if err != nil {
			return nil, err
		}

		table := make(domain.RateTable, len(rates))
		for _, rate := range rates {
			table[rate.Currency] = rate
		}

		uc.mu.Lock()
		uc.table = table
		uc.fetchedAt = time.Now()
		uc.mu.Unlock()

		uc.logger.Info().Int("currencies", len(table)).Msg("refreshed exchange-rate table")

		return table, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(domain.RateTable), nil
}

// Convert returns the transaction amount in the home currency. Home-currency
// transactions never trigger a table lookup.
func (uc *ExchangeRateUseCase) Convert(tx *domain.Transaction, table domain.RateTable) (decimal.Decimal, error) {
	if tx.Currency == HomeCurrency {
		return tx.Amount, nil
	}

	rate, ok := table[tx.Currency]
	if !ok {
		return decimal.Zero, &domain.ExchangeRateNotFoundError{Currency: tx.Currency}
	}

	return tx.Amount.Mul(decimal.NewFromFloat(rate.EURRate)), nil
}
