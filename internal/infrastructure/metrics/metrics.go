package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Catalog-API Metrics
var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modellens",
			Subsystem: "catalog_api",
			Name:      "sync_runs_total",
			Help:      "Total sync runs by terminal status",
		},
		[]string{"status"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "modellens",
			Subsystem: "catalog_api",
			Name:      "sync_duration_seconds",
			Help:      "Sync run duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modellens",
			Subsystem: "catalog_api",
			Name:      "source_fetch_total",
			Help:      "Total source fetch attempts by outcome",
		},
		[]string{"source", "status"},
	)

	SourceModelsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modellens",
			Subsystem: "catalog_api",
			Name:      "source_models_fetched_total",
			Help:      "Total canonical models fetched per source",
		},
		[]string{"source"},
	)

	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modellens",
			Subsystem: "catalog_api",
			Name:      "filter_evaluations_total",
			Help:      "Total filter evaluation runs",
		},
		[]string{"status"},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "modellens",
			Subsystem: "catalog_api",
			Name:      "filter_evaluation_duration_seconds",
			Help:      "Filter evaluation duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)

	CatalogCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modellens",
			Subsystem: "catalog_api",
			Name:      "catalog_cache_total",
			Help:      "Catalog cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordSyncRun records one terminal sync run.
func RecordSyncRun(status string, durationSec float64) {
	SyncRunsTotal.WithLabelValues(status).Inc()
	SyncDuration.Observe(durationSec)
}

// RecordSourceFetch records one adapter fetch outcome.
func RecordSourceFetch(source, status string, models int) {
	SourceFetchTotal.WithLabelValues(source, status).Inc()
	if models > 0 {
		SourceModelsFetched.WithLabelValues(source).Add(float64(models))
	}
}

// RecordEvaluation records one filter evaluation.
func RecordEvaluation(status string, durationSec float64) {
	EvaluationsTotal.WithLabelValues(status).Inc()
	EvaluationDuration.Observe(durationSec)
}

// RecordCacheLookup records a catalog cache hit or miss.
func RecordCacheLookup(outcome string) {
	CatalogCacheTotal.WithLabelValues(outcome).Inc()
}
