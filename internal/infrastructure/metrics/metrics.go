package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Reconciliation metrics
	TransactionsProcessed *prometheus.CounterVec
	TransactionsSkipped   *prometheus.CounterVec
	BatchesRun            prometheus.Counter
	BatchDuration         prometheus.Histogram
	CheckpointOutcomes    *prometheus.CounterVec

	// Ledger cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Upstream metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamErrors   *prometheus.CounterVec

	// Directory metrics
	CompaniesSynced prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransactionsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashflow_transactions_processed_total",
				Help: "Total number of transactions applied to the ledger",
			},
			[]string{"feed"},
		),
		TransactionsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashflow_transactions_skipped_total",
				Help: "Total number of transactions skipped as already applied",
			},
			[]string{"feed"},
		),
		BatchesRun: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cashflow_batches_run_total",
			Help: "Total number of reconciliation batches run",
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashflow_batch_duration_seconds",
			Help:    "Duration of reconciliation batches",
			Buckets: prometheus.DefBuckets,
		}),
		CheckpointOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashflow_checkpoint_outcomes_total",
				Help: "Orchestrator run outcomes",
			},
			[]string{"outcome"},
		),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cashflow_ledger_cache_hits_total",
			Help: "Total ledger cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cashflow_ledger_cache_misses_total",
			Help: "Total ledger cache misses",
		}),

		UpstreamRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashflow_upstream_requests_total",
				Help: "Total requests to the external transaction store",
			},
			[]string{"endpoint"},
		),
		UpstreamErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashflow_upstream_errors_total",
				Help: "Total failed requests to the external transaction store",
			},
			[]string{"endpoint", "kind"},
		),

		CompaniesSynced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cashflow_companies_synced_total",
			Help: "Total ledger records created by directory sync",
		}),
	}
}
