package domain

import (
	"errors"
	"fmt"
)

var (
	// Lookup errors
	ErrCompanyNotFound     = errors.New("company not found")
	ErrCompanyInfoNotFound = errors.New("company info not found")

	// Cursor validation errors
	ErrConflictingCounterparties = errors.New("only one of issuer or recipient can be set")
	ErrAfterIDWithoutTimestamp   = errors.New("after-timestamp is required when after-uuid is set")

	// ErrFeedUnavailable wraps transport-level failures talking to an
	// upstream feed or the company directory.
	ErrFeedUnavailable = errors.New("upstream unavailable")
)

// UpstreamError is a non-2xx response from an upstream service. The body is
// passed through for logging; callers see it as an internal error.
type UpstreamError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

// IsClientError reports whether the upstream rejected the request (4xx).
func (e *UpstreamError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// ExchangeRateNotFoundError is returned when a transaction currency is absent
// from the exchange-rate table.
type ExchangeRateNotFoundError struct {
	Currency string
}

func (e *ExchangeRateNotFoundError) Error() string {
	return fmt.Sprintf("no exchange rate found for currency %s", e.Currency)
}
