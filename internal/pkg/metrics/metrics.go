package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PriceUpstreamCalls counts calls to the price API by outcome
	// (success, retryable_error, rejected).
	PriceUpstreamCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_upstream_calls_total",
			Help: "Total number of price API upstream calls by outcome",
		},
		[]string{"outcome"},
	)

	// PriceCacheHits counts price lookups served from cache by kind
	// (fresh, stale).
	PriceCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_hits_total",
			Help: "Total number of price lookups served from cache",
		},
		[]string{"kind"},
	)

	// BalanceFetchErrors counts per-asset balance query failures by
	// network identifier.
	BalanceFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_fetch_errors_total",
			Help: "Total number of per-asset balance query failures",
		},
		[]string{"network"},
	)

	// RefreshDuration observes full refresh cycle durations.
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portfolio_refresh_duration_seconds",
			Help:    "Duration of portfolio refresh cycles in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// RefreshCycles counts completed refresh cycles by result
	// (published, superseded).
	RefreshCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_refresh_cycles_total",
			Help: "Total number of completed refresh cycles by result",
		},
		[]string{"result"},
	)
)
