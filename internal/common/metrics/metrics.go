// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_requests_total",
			Help: "Total number of routed requests by intent and outcome",
		},
		[]string{"intent", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "router_request_duration_seconds",
			Help: "End-to-end duration of request routing in seconds",
		},
		[]string{"intent"},
	)

	ClassifierFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_fallbacks_total",
			Help: "Times intent classification degraded to the rule table",
		},
		[]string{"reason"},
	)

	SourceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetches_total",
			Help: "Data fetch attempts by source and outcome",
		},
		[]string{"source", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "source_fetch_duration_seconds",
			Help: "Duration of data fetches in seconds",
		},
		[]string{"source"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Cache lookups answered from the cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Cache lookups that fell through to a source",
		},
	)

	RecoveryTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recovery_transitions_total",
			Help: "Handler health state transitions by handler and new state",
		},
		[]string{"handler", "state"},
	)

	HandlersActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "handlers_active",
			Help: "Number of handler invocations currently in flight",
		},
		[]string{"handler"},
	)
)
