// Package metrics provides Prometheus metrics for the Aster service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionQueriesTotal tracks transaction listing queries by outcome
	TransactionQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "transactions",
			Name:      "queries_total",
			Help:      "Total number of transaction listing queries by status",
		},
		[]string{"endpoint", "status"},
	)

	// TransactionQueryDuration tracks end-to-end listing query duration
	TransactionQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aster",
			Subsystem: "transactions",
			Name:      "query_duration_seconds",
			Help:      "Duration of transaction listing queries in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// DatabaseQueryDuration tracks database query duration by operation
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aster",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	// FilterOptionsCacheHits tracks filter-options cache lookups
	FilterOptionsCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "options",
			Name:      "cache_lookups_total",
			Help:      "Total number of filter-options cache lookups by result",
		},
		[]string{"result"},
	)

	// FilterOptionsFallbacks tracks degraded-mode default substitutions
	FilterOptionsFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "options",
			Name:      "fallbacks_total",
			Help:      "Total number of times default vocabularies were substituted",
		},
		[]string{"field"},
	)

	// FilterFallbacksTotal tracks input normalization fallbacks applied while parsing filters
	FilterFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "filters",
			Name:      "normalization_fallbacks_total",
			Help:      "Total number of filter values coerced to defaults",
		},
	)
)

// RecordQuery records a listing query outcome and duration
func RecordQuery(endpoint, status string, durationSeconds float64) {
	TransactionQueriesTotal.WithLabelValues(endpoint, status).Inc()
	TransactionQueryDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordOptionsCache records a filter-options cache lookup result
func RecordOptionsCache(result string) {
	FilterOptionsCacheHits.WithLabelValues(result).Inc()
}

// RecordOptionsFallback records a default vocabulary substitution for a field
func RecordOptionsFallback(field string) {
	FilterOptionsFallbacks.WithLabelValues(field).Inc()
}
