package buffer

import (
	"context"
	"sync"
	"time"

	"github.com/mimicgate/mimicgate/internal/domain"
	"github.com/mimicgate/mimicgate/internal/drift"
	"github.com/mimicgate/mimicgate/internal/jsonval"
	"github.com/mimicgate/mimicgate/internal/schema"
	"github.com/mimicgate/mimicgate/internal/telemetry"
	"go.uber.org/zap"
)

// BehaviorStore is the subset of behavior.Store the Consolidator writes
// through; declared here so this package doesn't import behavior directly
// and pull in its whole surface.
type BehaviorStore interface {
	Record(endpointKey, method, patternKey string, latencyMs float64, status int, reqSchema, respSchema *schema.Descriptor, reqBody, respBody []byte, now time.Time) domain.Endpoint
}

// EndpointPersister is the subset of storage.Store the Consolidator writes
// through to make endpoint state durable across restarts.
type EndpointPersister interface {
	SaveEndpoint(ctx context.Context, e *domain.Endpoint) error
}

// HealthMonitor is the subset of health.Monitor the Consolidator drives.
type HealthMonitor interface {
	Observe(endpointKey string, s domain.HealthSample) domain.HealthMetric
}

// DriftSink receives newly detected drift alerts so the caller can persist
// them and mark the endpoint's health as drift-active.
type DriftSink interface {
	OnDrift(endpointKey string, alert domain.DriftAlert)
}

// EventSink receives one broadcast-ready event per consolidated
// transaction; consolidation must never block on it.
type EventSink interface {
	Publish(evt domain.BroadcastEvent)
}

// SchemaStore is queried to fetch the previously learned response schema
// for drift comparison before it's overwritten by this transaction's
// observation.
type SchemaStore interface {
	ResponseSchemaFor(endpointKey, statusClass string) (*schema.Descriptor, bool)
}

// Consolidator is the single background worker draining the Learning
// Buffer into the Behavior Store, Health Monitor and Drift Detector. It
// gives strict per-endpoint serialization of writes without contending
// with the request path, mirroring a dedicated audit-sink worker draining
// a producer/consumer queue.
type Consolidator struct {
	buf     *RingBuffer
	store   BehaviorStore
	schemas SchemaStore
	health  HealthMonitor
	drift   DriftSink
	events  EventSink
	logger  *zap.Logger

	// Metrics is optional; when set, consolidation observes buffer
	// occupancy/drops, drift alert counts and per-endpoint health scores.
	Metrics *telemetry.Metrics

	// Persister is optional; when set, every consolidated transaction's
	// updated endpoint state is saved eagerly, satisfying the "mutated
	// only by the Consolidator, persisted eagerly" data model rule.
	Persister EndpointPersister

	wg          sync.WaitGroup
	lastDropped float64 // only touched from the single run() goroutine
}

// NewConsolidator wires a Consolidator to its buffer and downstream
// components. Any of schemas/drift/events may be nil to disable that
// stage (useful in tests that only exercise behavior recording).
func NewConsolidator(buf *RingBuffer, store BehaviorStore, schemas SchemaStore, healthMon HealthMonitor, driftSink DriftSink, events EventSink, logger *zap.Logger) *Consolidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consolidator{
		buf:     buf,
		store:   store,
		schemas: schemas,
		health:  healthMon,
		drift:   driftSink,
		events:  events,
		logger:  logger.Named("consolidator"),
	}
}

// Start launches the drain loop in a background goroutine.
func (c *Consolidator) Start() {
	c.wg.Add(1)
	go c.run()
}

// Stop closes the underlying buffer and waits for the drain loop to finish
// processing whatever remained, giving callers a bounded grace period by
// racing this against their own timeout.
func (c *Consolidator) Stop() {
	c.buf.Close()
	c.wg.Wait()
}

func (c *Consolidator) run() {
	defer c.wg.Done()
	for {
		tx, ok := c.buf.Dequeue()
		if !ok {
			c.logger.Info("consolidator drained buffer, exiting")
			return
		}
		c.consolidate(tx)
	}
}

func (c *Consolidator) consolidate(tx domain.Transaction) {
	var reqSchema, respSchema *schema.Descriptor

	if !tx.Chaos {
		if v, err := jsonval.Parse(tx.ReqBody); err == nil {
			reqSchema = schema.Infer(v)
		}
		if v, err := jsonval.Parse(tx.RespBody); err == nil {
			respSchema = schema.Infer(v)
		}
	}

	statusClass := domain.StatusClass(tx.Status)

	var previous *schema.Descriptor
	if c.schemas != nil && respSchema != nil {
		if prev, ok := c.schemas.ResponseSchemaFor(tx.EndpointKey, statusClass); ok {
			previous = prev
		}
	}

	endpoint := c.store.Record(tx.EndpointKey, tx.Method, tx.PatternKey, tx.LatencyMs, tx.Status, reqSchema, respSchema, tx.ReqBody, tx.RespBody, tx.Timestamp)

	if c.Persister != nil {
		if err := c.Persister.SaveEndpoint(context.Background(), &endpoint); err != nil {
			c.logger.Error("failed to persist endpoint", zap.String("endpoint", tx.EndpointKey), zap.Error(err))
		}
	}

	if c.drift != nil && previous != nil && respSchema != nil && drift.Eligible(previous) {
		if issues := drift.Compare(previous, respSchema); len(issues) > 0 {
			alert := domain.DriftAlert{
				EndpointID: tx.EndpointKey,
				Timestamp:  tx.Timestamp,
				Score:      drift.Score(issues),
				Issues:     issues,
				TraceID:    tx.TraceID,
			}
			c.drift.OnDrift(tx.EndpointKey, alert)
			if c.Metrics != nil {
				c.Metrics.DriftAlertsTotal.WithLabelValues(string(worstSeverity(issues))).Inc()
			}
		}
	}

	var metric domain.HealthMetric
	if c.health != nil {
		metric = c.health.Observe(tx.EndpointKey, domain.HealthSample{
			LatencyMs:     tx.LatencyMs,
			StatusCode:    tx.Status,
			BodySizeBytes: len(tx.RespBody),
			Timestamp:     tx.Timestamp,
		})
		if c.Metrics != nil {
			c.Metrics.EndpointHealthScore.WithLabelValues(tx.EndpointKey).Set(metric.Score)
		}
	}

	if c.Metrics != nil {
		c.Metrics.LearningBufferFill.Set(float64(c.buf.Len()))
		c.Metrics.LearningBufferDropped.Add(float64(c.buf.Dropped()) - c.lastDropped)
		c.lastDropped = float64(c.buf.Dropped())
	}

	if c.events != nil {
		c.events.Publish(domain.BroadcastEvent{
			EndpointKey: tx.EndpointKey,
			Method:      tx.Method,
			Status:      tx.Status,
			LatencyMs:   tx.LatencyMs,
			Mocked:      tx.Mocked,
			Chaos:       tx.Chaos,
			HealthScore: metric.Score,
			TraceID:     tx.TraceID,
		})
	}

}

// worstSeverity returns the most severe issue in a drift alert, used to
// label the drift-alerts-total counter.
func worstSeverity(issues []domain.Issue) domain.Severity {
	worst := domain.SeverityInfo
	rank := map[domain.Severity]int{domain.SeverityInfo: 0, domain.SeverityWarning: 1, domain.SeverityBreaking: 2}
	for _, iss := range issues {
		if rank[iss.Severity] > rank[worst] {
			worst = iss.Severity
		}
	}
	return worst
}
