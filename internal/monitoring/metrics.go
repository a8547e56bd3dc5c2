package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts read-path cache lookups by entity and result (hit/miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "occupeye_cache_lookups_total",
			Help: "Cache lookups performed by the read path",
		},
		[]string{"entity", "result"},
	)

	// UpstreamRequests counts upstream calls by endpoint and outcome.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "occupeye_upstream_requests_total",
			Help: "Requests sent to the occupancy API",
		},
		[]string{"endpoint", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "occupeye_upstream_request_duration_seconds",
			Help:    "Latency of occupancy API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "occupeye_circuit_breaker_state",
			Help: "State of the upstream circuit breaker",
		},
		[]string{"name"},
	)

	RefreshEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "occupeye_refresh_events_total",
			Help: "Cache refresh events by kind",
		},
		[]string{"event"},
	)
)
