package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every counter, histogram and gauge the service reports.
type Metrics struct {
	// Latency: time spent per request, by method, endpoint and mode.
	RequestDuration *prometheus.HistogramVec

	// Traffic: total requests handled, by method and endpoint pattern.
	RequestsTotal *prometheus.CounterVec

	// Errors: forwarding failures by cause (timeout, breaker_open, throttled,
	// upstream_unavailable, failover_to_mock).
	ForwardErrors *prometheus.CounterVec

	// Saturation: circuit breaker state (0=closed, 1=half-open, 2=open).
	CircuitBreakerState prometheus.Gauge

	// MockColdStarts counts mock responses synthesized with no learned
	// schema yet (an empty object was returned).
	MockColdStarts prometheus.Counter

	// DriftAlertsTotal counts drift alerts raised, by severity.
	DriftAlertsTotal *prometheus.CounterVec

	// LearningBufferFill is the current occupancy of the learning buffer.
	LearningBufferFill prometheus.Gauge

	// LearningBufferDropped counts transactions dropped from the learning
	// buffer because it was full (oldest-drop).
	LearningBufferDropped prometheus.Counter

	// EndpointHealthScore is the last computed health score per endpoint.
	EndpointHealthScore *prometheus.GaugeVec
}

// NewMetrics registers every metric against reg. A nil reg is replaced with
// a private registry so metric construction never fails in tests that
// don't care about exposing /metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mimicgate_request_duration_seconds",
			Help:    "Histogram of request latencies observed by the dispatch core.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "endpoint", "mode"}),

		RequestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mimicgate_requests_total",
			Help: "Total number of requests handled, by method, endpoint and status class.",
		}, []string{"method", "endpoint", "status_class"}),

		ForwardErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mimicgate_forward_errors_total",
			Help: "Total number of upstream forwarding failures by cause.",
		}, []string{"cause"}),

		CircuitBreakerState: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "mimicgate_circuit_breaker_state",
			Help: "Current state of the upstream circuit breaker (0=closed, 1=half-open, 2=open).",
		}),

		MockColdStarts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mimicgate_mock_cold_starts_total",
			Help: "Total number of mock responses synthesized with no learned schema.",
		}),

		DriftAlertsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mimicgate_drift_alerts_total",
			Help: "Total number of structural drift alerts raised, by severity.",
		}, []string{"severity"}),

		LearningBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "mimicgate_learning_buffer_fill",
			Help: "Current number of transactions queued in the learning buffer.",
		}),

		LearningBufferDropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mimicgate_learning_buffer_dropped_total",
			Help: "Total number of transactions dropped from the learning buffer because it was full.",
		}),

		EndpointHealthScore: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "mimicgate_endpoint_health_score",
			Help: "Last computed health score per endpoint (0-100).",
		}, []string{"endpoint"}),
	}
}
