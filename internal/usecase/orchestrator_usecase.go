package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ahemkaric/cashflow-monitoring/internal/domain"
	"github.com/ahemkaric/cashflow-monitoring/internal/infrastructure/metrics"
)

// MarkerSource reads the most recent per-feed marker from the ledger.
type MarkerSource interface {
	LatestMarker(ctx context.Context, feed domain.FeedType) (*domain.CompanyInfo, error)
}

// BatchReconciler is the slice of the reconciler the orchestrator drives.
type BatchReconciler interface {
	FetchAll(ctx context.Context, feed domain.FeedType, params domain.TransactionParams) ([]domain.Transaction, error)
	Process(ctx context.Context, txs []domain.Transaction, table domain.RateTable, ibanToCompany map[string]int) error
}

// OrchestratorUseCase drives fetch-and-apply cycles across both feeds until
// the checkpoint stops moving or the attempt budget runs out.
type OrchestratorUseCase struct {
	reconciler BatchReconciler
	converter  Converter
	resolver   Resolver
	markers    MarkerSource
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewOrchestratorUseCase creates a new OrchestratorUseCase. metrics may be
// nil.
func NewOrchestratorUseCase(
	reconciler BatchReconciler,
	converter Converter,
	resolver Resolver,
	markers MarkerSource,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *OrchestratorUseCase {
	return &OrchestratorUseCase{
		reconciler: reconciler,
		converter:  converter,
		resolver:   resolver,
		markers:    markers,
		metrics:    m,
		logger:     logger,
	}
}

// ProcessNewTransactions runs reconciliation batches from the last known
// checkpoint. limit bounds the number of rounds; 0 or anything above the
// default budget falls back to the default. The returned checkpoint is
// whatever position was reached, even when a round fails mid-way.
func (uc *OrchestratorUseCase) ProcessNewTransactions(ctx context.Context, limit int) (domain.Checkpoint, error) {
	budget := DefaultAttemptBudget
	if limit > 0 && limit < budget {
		budget = limit
	}

	checkpoint, err := uc.seedCheckpoint(ctx)
	if err != nil {
		return domain.Checkpoint{}, err
	}

	for attempt := 0; attempt < budget; attempt++ {
		next, err := uc.runBatch(ctx, checkpoint)
		if err != nil {
			uc.logger.Error().Err(err).Int("attempt", attempt).
				Msg("batch failed, returning last checkpoint")
			checkpoint.Outcome = domain.OutcomeBudgetExhausted
			uc.recordOutcome(checkpoint.Outcome)
			return checkpoint, nil
		}

		if next.Equal(checkpoint) {
			next.Outcome = domain.OutcomeConverged
			uc.recordOutcome(next.Outcome)
			return next, nil
		}

		checkpoint = next
	}

	checkpoint.Outcome = domain.OutcomeBudgetExhausted
	uc.recordOutcome(checkpoint.Outcome)
	return checkpoint, nil
}

func (uc *OrchestratorUseCase) recordOutcome(outcome domain.CheckpointOutcome) {
	if uc.metrics != nil {
		uc.metrics.CheckpointOutcomes.WithLabelValues(string(outcome)).Inc()
	}
}

// seedCheckpoint reads each feed's most recent marker. Components default
// independently: a nil marker timestamp becomes the sentinel epoch, a nil
// marker id the zero UUID.
func (uc *OrchestratorUseCase) seedCheckpoint(ctx context.Context) (domain.Checkpoint, error) {
	checkpoint := domain.Checkpoint{
		SepaTimestamp:  SentinelTimestamp,
		SwiftTimestamp: SentinelTimestamp,
	}

	sepa, err := uc.markers.LatestMarker(ctx, domain.FeedSepa)
	if err != nil {
		return domain.Checkpoint{}, err
	}
	if sepa.LastSepaTransactionAt != nil {
		checkpoint.SepaTimestamp = *sepa.LastSepaTransactionAt
	}
	if sepa.LastSepaTransactionID != nil {
		checkpoint.SepaID = *sepa.LastSepaTransactionID
	}

	swift, err := uc.markers.LatestMarker(ctx, domain.FeedSwift)
	if err != nil {
		return domain.Checkpoint{}, err
	}
	if swift.LastSwiftTransactionAt != nil {
		checkpoint.SwiftTimestamp = *swift.LastSwiftTransactionAt
	}
	if swift.LastSwiftTransactionID != nil {
		checkpoint.SwiftID = *swift.LastSwiftTransactionID
	}

	return checkpoint, nil
}

// runBatch fetches one bounded batch per feed from the checkpoint, applies
// everything, and returns the advanced checkpoint. A feed that returned
// nothing leaves its half unchanged.
func (uc *OrchestratorUseCase) runBatch(ctx context.Context, checkpoint domain.Checkpoint) (domain.Checkpoint, error) {
	start := time.Now()
	if uc.metrics != nil {
		uc.metrics.BatchesRun.Inc()
		defer func() {
			uc.metrics.BatchDuration.Observe(time.Since(start).Seconds())
		}()
	}

	table, err := uc.converter.Rates(ctx)
	if err != nil {
		return checkpoint, err
	}

	ibanToCompany, err := uc.resolver.Map(ctx)
	if err != nil {
		return checkpoint, err
	}

	var sepaTxs, swiftTxs []domain.Transaction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sepaTxs, err = uc.reconciler.FetchAll(gctx, domain.FeedSepa,
			batchParams(checkpoint.SepaTimestamp, checkpoint.SepaID))
		return err
	})
	g.Go(func() error {
		var err error
		swiftTxs, err = uc.reconciler.FetchAll(gctx, domain.FeedSwift,
			batchParams(checkpoint.SwiftTimestamp, checkpoint.SwiftID))
		return err
	})
	if err := g.Wait(); err != nil {
		return checkpoint, err
	}

	uc.logger.Info().Int("sepa", len(sepaTxs)).Int("swift", len(swiftTxs)).
		Msg("processing transaction batch")

	apply, actx := errgroup.WithContext(ctx)
	apply.Go(func() error {
		return uc.reconciler.Process(actx, sepaTxs, table, ibanToCompany)
	})
	apply.Go(func() error {
		return uc.reconciler.Process(actx, swiftTxs, table, ibanToCompany)
	})
	if err := apply.Wait(); err != nil {
		return checkpoint, err
	}

	next := checkpoint
	if len(sepaTxs) > 0 {
		last := sepaTxs[len(sepaTxs)-1]
		next.SepaTimestamp = last.Timestamp
		next.SepaID = last.ID
	}
	if len(swiftTxs) > 0 {
		last := swiftTxs[len(swiftTxs)-1]
		next.SwiftTimestamp = last.Timestamp
		next.SwiftID = last.ID
	}

	return next, nil
}

// batchParams builds a one-batch cursor: the page-size ceiling is the batch
// bound, so a full page does not chain into a second fetch.
func batchParams(afterTimestamp time.Time, afterID uuid.UUID) domain.TransactionParams {
	ts := afterTimestamp
	id := afterID

	return domain.TransactionParams{
		Limit:          DefaultPageSize,
		AfterTimestamp: &ts,
		AfterID:        &id,
	}
}
