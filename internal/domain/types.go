// Package domain holds the shared value types that flow between the
// dispatch, behavior, health, drift and storage packages: endpoints, chaos
// profiles, drift alerts and the transaction record the learning buffer
// carries off the hot path.
package domain

import (
	"math"
	"time"

	"github.com/mimicgate/mimicgate/internal/schema"
)

// Mode selects how the dispatch core answers an inbound request.
type Mode string

const (
	ModeProxy Mode = "proxy"
	ModeMock  Mode = "mock"
)

// Endpoint is identified by (Method, PatternKey) where PatternKey is the
// normalized path. It is created on first observation, persisted eagerly,
// and mutated only by the Consolidator.
type Endpoint struct {
	ID         string `json:"id"`
	Method     string `json:"method"`
	PatternKey string `json:"path_pattern"`

	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	SampleCount int64     `json:"sample_count"`

	RequestSchema *schema.Descriptor `json:"request_schema,omitempty"`
	// ResponseSchemas is keyed by status class ("2xx", "4xx", "5xx") since
	// one response descriptor is kept per observed status class.
	ResponseSchemas map[string]*schema.Descriptor `json:"response_schemas,omitempty"`

	LatencyMeanMs float64 `json:"latency_mean_ms"`
	latencyM2     float64 // mean of squares, used to derive sigma

	StatusClassHistogram map[string]int64 `json:"status_class_histogram"` // "2xx" -> count
	StatusCodeHistogram  map[int]int64    `json:"status_code_histogram"`  // 200 -> count

	LastRequestBody  []byte `json:"last_request_body,omitempty"`
	LastResponseBody []byte `json:"last_response_body,omitempty"`
}

// NewEndpoint initializes an endpoint record at first observation.
func NewEndpoint(id, method, patternKey string, now time.Time) *Endpoint {
	return &Endpoint{
		ID:                   id,
		Method:               method,
		PatternKey:           patternKey,
		FirstSeen:            now,
		LastSeen:             now,
		ResponseSchemas:      make(map[string]*schema.Descriptor),
		StatusClassHistogram: make(map[string]int64),
		StatusCodeHistogram:  make(map[int]int64),
	}
}

// StatusClass maps an HTTP status code to its histogram class, e.g. 404 -> "4xx".
func StatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "1xx"
	}
}

// LatencySigma returns the EMA standard deviation derived from the mean and
// mean-square accumulators: sigma = sqrt(max(0, m2 - mean^2)).
func (e *Endpoint) LatencySigma() float64 {
	v := e.latencyM2 - e.LatencyMeanMs*e.LatencyMeanMs
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// LatencyMeanSquareMs exposes the mean-of-squares accumulator so storage
// can persist and later restore the full latency distribution state.
func (e *Endpoint) LatencyMeanSquareMs() float64 {
	return e.latencyM2
}

// RestoreLatencyStats sets the EMA accumulators directly, used when
// rehydrating an endpoint from storage rather than observing live traffic.
func (e *Endpoint) RestoreLatencyStats(meanMs, meanSquareMs float64) {
	e.LatencyMeanMs = meanMs
	e.latencyM2 = meanSquareMs
}

// ObserveLatencyMs folds a new latency sample into the EMA accumulators
// using smoothing factor alpha.
func (e *Endpoint) ObserveLatencyMs(x, alpha float64) {
	if e.SampleCount == 0 {
		e.LatencyMeanMs = x
		e.latencyM2 = x * x
		return
	}
	e.LatencyMeanMs = (1-alpha)*e.LatencyMeanMs + alpha*x
	e.latencyM2 = (1-alpha)*e.latencyM2 + alpha*x*x
}

// ChaosProfile configures synthetic fault injection, either globally or for
// one endpoint. It is swapped atomically; readers never lock (see
// internal/dispatch.ChaosRegistry).
type ChaosProfile struct {
	FailureProbability float64 `json:"failure_probability"`
	ExtraLatencyMs     int     `json:"extra_latency_ms"`
	ForcedStatusCode   int     `json:"forced_status_code"` // 0 means "none"
}

// Severity classifies the impact of a drift Issue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityBreaking Severity = "breaking"
)

// IssueKind classifies what changed between a stored and a new schema.
type IssueKind string

const (
	IssueMissing     IssueKind = "missing"
	IssueAdded       IssueKind = "added"
	IssueTypeChanged IssueKind = "type_changed"
)

// Issue is a single field-level difference found by the drift detector.
type Issue struct {
	Path      string    `json:"path"` // dot-notation
	Kind      IssueKind `json:"kind"`
	Severity  Severity  `json:"severity"`
	Narration string    `json:"narration"`
}

// DriftAlert records a detected structural change in an endpoint's response
// shape. Alerts are append-only; Resolved is the only mutable field.
type DriftAlert struct {
	ID         string    `json:"id"`
	EndpointID string    `json:"endpoint_id"`
	Timestamp  time.Time `json:"detected_at"`
	Score      float64   `json:"drift_score"`
	Issues     []Issue   `json:"drift_details"`
	Resolved   bool      `json:"is_resolved"`
	TraceID    string    `json:"trace_id,omitempty"`
}

// HealthSample is one entry in an endpoint's health ring buffer.
type HealthSample struct {
	LatencyMs     float64   `json:"latency_ms"`
	StatusCode    int       `json:"status_code"`
	BodySizeBytes int       `json:"response_size_bytes"`
	Timestamp     time.Time `json:"recorded_at"`
}

// HealthMetric is the derived, reportable view of an endpoint's recent
// behavior: EMA latency stats plus any currently-flagged anomalies.
type HealthMetric struct {
	EndpointID string  `json:"endpoint_id"`
	Score      float64 `json:"health_score"`
	Band       string  `json:"band"` // healthy | degraded | critical

	LatencyMeanMs float64 `json:"latency_mean_ms"`
	LatencyStdMs  float64 `json:"latency_std_ms"`
	CV            float64 `json:"coefficient_of_variation"`
	ErrorRate     float64 `json:"error_rate"`
	MeanSizeBytes float64 `json:"mean_size_bytes"`

	LatencyAnomaly bool     `json:"latency_anomaly"`
	ErrorSpike     bool     `json:"error_spike"`
	SizeAnomaly    bool     `json:"size_anomaly"`
	AnomalyReasons []string `json:"anomaly_reasons,omitempty"`
}

// GlobalHealth is the aggregate view across all endpoints.
type GlobalHealth struct {
	Score          float64            `json:"health_score"`
	EndpointCount  int                `json:"endpoint_count"`
	EndpointScores map[string]float64 `json:"endpoint_scores"`
}

// Transaction is the unit the hot request path hands to the Learning
// Buffer; everything the Consolidator needs to update the Behavior Store,
// Drift Detector and Health Monitor without touching the transport layer
// again.
type Transaction struct {
	Method      string  `json:"method"`
	Path        string  `json:"path"`
	PatternKey  string  `json:"path_pattern"`
	EndpointKey string  `json:"endpoint_id"` // Method+" "+PatternKey, the Behavior Store's partition key
	Status      int     `json:"status_code"`
	LatencyMs   float64 `json:"latency_ms"`

	ReqHeaders  map[string][]string `json:"-"`
	ReqBody     []byte              `json:"-"`
	RespHeaders map[string][]string `json:"-"`
	RespBody    []byte              `json:"-"`

	Timestamp time.Time `json:"timestamp"`

	Mocked  bool   `json:"mocked"`
	Chaos   bool   `json:"chaos"` // chaos-forced responses are not fed into the learner
	TraceID string `json:"trace_id,omitempty"`
}

// BroadcastEvent is the per-transaction summary published to live
// subscribers after consolidation completes.
type BroadcastEvent struct {
	EndpointKey string  `json:"endpoint_id"`
	Method      string  `json:"method"`
	Status      int     `json:"status_code"`
	LatencyMs   float64 `json:"latency_ms"`
	Mocked      bool    `json:"mocked"`
	Chaos       bool    `json:"chaos"`
	HealthScore float64 `json:"health_score"`
	TraceID     string  `json:"trace_id,omitempty"`
}
