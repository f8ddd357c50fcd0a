package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeedType identifies which upstream feed a transaction came from.
type FeedType string

const (
	FeedSepa  FeedType = "sepa"
	FeedSwift FeedType = "swift"
)

// Transaction is a transfer record fetched from one of the feeds. Both feeds
// produce the same shape; Feed tells them apart.
type Transaction struct {
	ID        uuid.UUID
	Amount    decimal.Decimal
	Currency  string
	Timestamp time.Time
	Issuer    string
	Recipient string
	Feed      FeedType
}

// TransactionParams is a page cursor for feed traversal. A zero Limit means
// the default page size. Issuer and Recipient are IBAN filters and are
// mutually exclusive.
type TransactionParams struct {
	Limit           int
	AfterTimestamp  *time.Time
	AfterID         *uuid.UUID
	BeforeTimestamp *time.Time
	Issuer          string
	Recipient       string
}

// Validate checks cursor consistency. It runs before any I/O.
func (p TransactionParams) Validate() error {
	if p.Issuer != "" && p.Recipient != "" {
		return ErrConflictingCounterparties
	}

	if p.AfterID != nil && p.AfterTimestamp == nil {
		return ErrAfterIDWithoutTimestamp
	}

	return nil
}

// CheckpointOutcome is the terminal state of an orchestrator run.
type CheckpointOutcome string

const (
	OutcomeConverged       CheckpointOutcome = "converged"
	OutcomeBudgetExhausted CheckpointOutcome = "budget-exhausted"
)

// Checkpoint marks ingestion progress across both feeds.
type Checkpoint struct {
	SepaTimestamp  time.Time
	SepaID         uuid.UUID
	SwiftTimestamp time.Time
	SwiftID        uuid.UUID
	Outcome        CheckpointOutcome
}

// Equal reports whether both checkpoints point at the same position on all
// four components. Outcome is not part of the position.
func (c Checkpoint) Equal(other Checkpoint) bool {
	return c.SepaTimestamp.Equal(other.SepaTimestamp) &&
		c.SepaID == other.SepaID &&
		c.SwiftTimestamp.Equal(other.SwiftTimestamp) &&
		c.SwiftID == other.SwiftID
}
