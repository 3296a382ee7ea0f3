package dispatch

import (
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/mimicgate/mimicgate/internal/behavior"
	"github.com/mimicgate/mimicgate/internal/buffer"
	"github.com/mimicgate/mimicgate/internal/domain"
	"github.com/mimicgate/mimicgate/internal/generate"
	"github.com/mimicgate/mimicgate/internal/jsonval"
	"github.com/mimicgate/mimicgate/internal/normalize"
	"github.com/mimicgate/mimicgate/internal/telemetry"
	"go.uber.org/zap"
)

// maxLearnableBody is the largest request/response body the dispatch core
// will read into memory for learning; larger bodies still proxy correctly
// but are recorded as latency/status only.
const maxLearnableBody = 4 * 1024 * 1024

// maxChaosLatency clamps chaos-injected delay so a misconfigured profile
// can never hang a request indefinitely.
const maxChaosLatency = 30 * time.Second

// Core is the per-request dispatch state machine: normalize, load, decide
// mode, apply chaos, forward or synthesize, record, respond.
type Core struct {
	Store     *behavior.Store
	Generator *generate.Generator
	Forwarder *Forwarder
	Chaos     *ChaosRegistry
	Mode      *ModeRegistry
	Queue     *buffer.RingBuffer
	Logger    *zap.Logger
	Metrics   *telemetry.Metrics

	FailoverEnabled bool
}

// ServeHTTP implements the catch-all proxy surface: any method, any path
// not under /admin.
func (c *Core) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// RECEIVE
	reqBody, _ := io.ReadAll(io.LimitReader(r.Body, maxLearnableBody))
	r.Body.Close()

	// NORMALIZE
	patternKey := normalize.Path(r.URL.Path)
	endpointKey := r.Method + " " + patternKey
	traceID := TraceIDFromContext(r.Context())

	switch c.Mode.Get() {
	case domain.ModeMock:
		c.serveMock(w, r, endpointKey, patternKey, reqBody, start, traceID)
	default:
		c.serveProxy(w, r, endpointKey, patternKey, reqBody, start, traceID)
	}
}

func (c *Core) serveMock(w http.ResponseWriter, r *http.Request, endpointKey, patternKey string, reqBody []byte, start time.Time, traceID string) {
	respSchema, ok := c.Store.ResponseSchemaFor(endpointKey, "2xx")

	reqVal, _ := jsonval.Parse(reqBody)
	var body jsonval.Value
	if ok {
		body = c.Generator.Generate(respSchema, reqVal)
	} else {
		body = jsonval.Object(map[string]jsonval.Value{})
	}

	c.simulateDelay(endpointKey)

	payload, _ := body.MarshalJSON()
	status := http.StatusOK

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)

	tx := domain.Transaction{
		Method:      r.Method,
		Path:        r.URL.Path,
		PatternKey:  patternKey,
		EndpointKey: endpointKey,
		Status:      status,
		LatencyMs:   float64(time.Since(start).Milliseconds()),
		ReqBody:     reqBody,
		RespBody:    payload,
		Timestamp:   time.Now(),
		Mocked:      true,
		TraceID:     traceID,
	}
	c.Queue.Enqueue(tx)
	c.observeMetrics(r.Method, endpointKey, "mock", status, time.Since(start))

	if !ok && c.Metrics != nil {
		c.Metrics.MockColdStarts.Inc()
	}
}

func (c *Core) serveProxy(w http.ResponseWriter, r *http.Request, endpointKey, patternKey string, reqBody []byte, start time.Time, traceID string) {
	profile := c.Chaos.For(endpointKey)

	if delay := time.Duration(profile.ExtraLatencyMs) * time.Millisecond; delay > 0 {
		if delay > maxChaosLatency {
			delay = maxChaosLatency
		}
		time.Sleep(delay)
	}

	if profile.ForcedStatusCode != 0 {
		c.respondChaosForced(w, r, endpointKey, patternKey, profile.ForcedStatusCode, reqBody, start, traceID)
		return
	}

	simulateError := profile.FailureProbability > 0 && rand.Float64() < profile.FailureProbability

	var result *ForwardResult
	var forwardErr error
	if !simulateError {
		result, forwardErr = c.Forwarder.Forward(r.Context(), r.Method, r.URL.Path, r.Header, reqBody)
	}

	if forwardErr != nil || simulateError {
		c.handleForwardFailure(w, r, endpointKey, patternKey, reqBody, start, traceID)
		return
	}

	for k, vs := range result.Headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(result.StatusCode)
	w.Write(result.Body)

	tx := domain.Transaction{
		Method:      r.Method,
		Path:        r.URL.Path,
		PatternKey:  patternKey,
		EndpointKey: endpointKey,
		Status:      result.StatusCode,
		LatencyMs:   float64(time.Since(start).Milliseconds()),
		ReqHeaders:  r.Header,
		ReqBody:     reqBody,
		RespHeaders: result.Headers,
		RespBody:    learnableBody(result.Headers, result.Body),
		Timestamp:   time.Now(),
		TraceID:     traceID,
	}
	c.Queue.Enqueue(tx)
	c.observeMetrics(r.Method, endpointKey, "proxy", result.StatusCode, time.Since(start))
}

// observeMetrics records the per-request histogram/counter pair. It is a
// no-op when Metrics is nil, so Core works unwired in tests.
func (c *Core) observeMetrics(method, endpointKey, mode string, status int, elapsed time.Duration) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.RequestDuration.WithLabelValues(method, endpointKey, mode).Observe(elapsed.Seconds())
	c.Metrics.RequestsTotal.WithLabelValues(method, endpointKey, domain.StatusClass(status)).Inc()
}

// learnableBody returns body only when the response declares a JSON
// content type; otherwise learning records latency/status only.
func learnableBody(headers http.Header, body []byte) []byte {
	ct := headers.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") {
		return nil
	}
	return body
}

func (c *Core) respondChaosForced(w http.ResponseWriter, r *http.Request, endpointKey, patternKey string, status int, reqBody []byte, start time.Time, traceID string) {
	w.WriteHeader(status)

	tx := domain.Transaction{
		Method:      r.Method,
		Path:        r.URL.Path,
		PatternKey:  patternKey,
		EndpointKey: endpointKey,
		Status:      status,
		LatencyMs:   float64(time.Since(start).Milliseconds()),
		ReqBody:     reqBody,
		Timestamp:   time.Now(),
		Chaos:       true,
		TraceID:     traceID,
	}
	c.Queue.Enqueue(tx)
	c.observeMetrics(r.Method, endpointKey, "proxy", status, time.Since(start))
}

func (c *Core) handleForwardFailure(w http.ResponseWriter, r *http.Request, endpointKey, patternKey string, reqBody []byte, start time.Time, traceID string) {
	if !c.FailoverEnabled {
		http.Error(w, `{"error":"upstream unavailable","code":"upstream_unavailable"}`, http.StatusBadGateway)
		tx := domain.Transaction{
			Method:      r.Method,
			Path:        r.URL.Path,
			PatternKey:  patternKey,
			EndpointKey: endpointKey,
			Status:      http.StatusBadGateway,
			LatencyMs:   float64(time.Since(start).Milliseconds()),
			ReqBody:     reqBody,
			Timestamp:   time.Now(),
			TraceID:     traceID,
		}
		c.Queue.Enqueue(tx)
		c.observeMetrics(r.Method, endpointKey, "proxy", http.StatusBadGateway, time.Since(start))
		if c.Metrics != nil {
			c.Metrics.ForwardErrors.WithLabelValues("upstream_unavailable").Inc()
		}
		return
	}

	if c.Metrics != nil {
		c.Metrics.ForwardErrors.WithLabelValues("failover_to_mock").Inc()
	}

	respSchema, _ := c.Store.ResponseSchemaFor(endpointKey, "2xx")
	reqVal, _ := jsonval.Parse(reqBody)
	var body jsonval.Value
	if respSchema != nil {
		body = c.Generator.Generate(respSchema, reqVal)
	} else {
		body = jsonval.Object(map[string]jsonval.Value{})
	}
	payload, _ := body.MarshalJSON()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)

	tx := domain.Transaction{
		Method:      r.Method,
		Path:        r.URL.Path,
		PatternKey:  patternKey,
		EndpointKey: endpointKey,
		Status:      http.StatusOK,
		LatencyMs:   float64(time.Since(start).Milliseconds()),
		ReqBody:     reqBody,
		RespBody:    payload,
		Timestamp:   time.Now(),
		Mocked:      true,
		TraceID:     traceID,
	}
	c.Queue.Enqueue(tx)
	c.observeMetrics(r.Method, endpointKey, "proxy", http.StatusOK, time.Since(start))
}

// simulateDelay samples a latency from the endpoint's learned distribution
// so mock mode feels representative of the real upstream, rather than
// responding instantly.
func (c *Core) simulateDelay(endpointKey string) {
	e, ok := c.Store.Get(endpointKey)
	if !ok || e.LatencyMeanMs <= 0 {
		return
	}
	sigma := e.LatencySigma()
	sample := rand.NormFloat64()*sigma + e.LatencyMeanMs
	if sample < 0 {
		sample = e.LatencyMeanMs
	}
	d := time.Duration(sample) * time.Millisecond
	if d > maxChaosLatency {
		d = maxChaosLatency
	}
	time.Sleep(d)
}
