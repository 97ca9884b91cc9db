package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream call rate per source (weather, air_quality, news). Watch for: error vs success ratio.
	SourceCallsTotal *prometheus.CounterVec

	// Upstream latency per source. Watch for: p95 > 2s (upstream degradation), p99 near timeout.
	SourceCallDuration *prometheus.HistogramVec

	// Cache hits per source. Hit rate = hits / (hits + sourceCallsTotal).
	CacheHitsTotal *prometheus.CounterVec

	// Pulse requests by variant (place, coordinates, user, refresh). Watch for: traffic mix.
	PulseRequestsTotal *prometheus.CounterVec

	// Responses carrying synthesized fallback highlights. Watch for: feed relevance drift.
	FallbackHighlightsTotal prometheus.Counter

	// Air-quality lookups that resolved to absent. High steady values mean the source is degraded or disabled.
	AirQualityAbsentTotal prometheus.Counter

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Cache warming runs. Compare against cacheWarmingErrorsTotal for failure rate.
	CacheWarmingTotal prometheus.Counter

	// Warming runs that had at least one failed place.
	CacheWarmingErrorsTotal prometheus.Counter

	// Circuit breaker state per component: 0 closed, 1 open, 2 half-open.
	CircuitBreakerState *prometheus.GaugeVec

	// Circuit breaker transitions. Watch for: open flapping.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	SourceCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourceCallsTotal",
			Help: "Total number of upstream calls by source and outcome",
		},
		[]string{"source", "status"},
	)
	SourceCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sourceCallDurationSeconds",
			Help:    "Upstream call latency in seconds by source",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of cache hits by source",
		},
		[]string{"source"},
	)
	PulseRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulseRequestsTotal",
			Help: "Total number of pulse requests by variant",
		},
		[]string{"variant"},
	)
	FallbackHighlightsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fallbackHighlightsTotal",
			Help: "Responses that carried synthesized fallback highlights",
		},
	)
	AirQualityAbsentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "airQualityAbsentTotal",
			Help: "Air-quality lookups that resolved to absent",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	CacheWarmingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingTotal",
			Help: "Total number of cache warming runs",
		},
	)
	CacheWarmingErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingErrorsTotal",
			Help: "Cache warming runs with at least one failed place",
		},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open",
		},
		[]string{"component"},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions by component",
		},
		[]string{"component", "from", "to"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		SourceCallsTotal, SourceCallDuration, CacheHitsTotal,
		PulseRequestsTotal, FallbackHighlightsTotal, AirQualityAbsentTotal,
		RateLimitDeniedTotal, CacheWarmingTotal, CacheWarmingErrorsTotal,
		CircuitBreakerState, CircuitBreakerTransitionsTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
