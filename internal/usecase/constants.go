package usecase

import "time"

const (
	// DefaultPageSize is the upstream page-size ceiling. Limits are clamped
	// to it before any request is issued.
	DefaultPageSize = 1000

	// HomeCurrency is the currency all balances are normalized to.
	HomeCurrency = "EUR"

	// CompanyInfoCacheTTL is how long ledger records live in the cache.
	CompanyInfoCacheTTL = 10 * time.Minute

	// RateTableTTL is how long a fetched exchange-rate table stays valid.
	RateTableTTL = time.Hour

	// ResolverTTL is how long the IBAN-to-company map stays valid before
	// it is rebuilt.
	ResolverTTL = time.Hour

	// DefaultAttemptBudget bounds orchestrator rounds when the caller gives
	// no limit.
	DefaultAttemptBudget = 5
)

// SentinelTimestamp seeds a feed checkpoint when no transaction from that
// feed was ever processed.
var SentinelTimestamp = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
