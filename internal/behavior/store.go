// Package behavior implements the Behavior Store: the per-endpoint record
// of latency, status and schema history the Consolidator writes into and
// the admin API and generator read from. Each endpoint is its own lock
// partition so that hot endpoints never contend with cold ones.
package behavior

import (
	"sync"
	"time"

	"github.com/mimicgate/mimicgate/internal/domain"
	"github.com/mimicgate/mimicgate/internal/jsonval"
	"github.com/mimicgate/mimicgate/internal/schema"
)

// alpha is the EMA smoothing factor for latency mean/variance, fixed per
// the data model invariant that a single smoothing factor governs all
// long-horizon statistics.
const alpha = 0.1

// maxPayloadBytes bounds the last-example payload kept per endpoint;
// larger bodies are stored truncated with a marker.
const maxPayloadBytes = 64 * 1024

var truncationMarker = []byte("...[truncated]")

// partition is one endpoint's mutable state plus its own lock.
type partition struct {
	mu       sync.Mutex
	endpoint *domain.Endpoint
}

// Store is the partitioned Behavior Store. Reads and writes for different
// endpoint keys never block each other.
type Store struct {
	mu         sync.RWMutex // guards the partitions map itself, not its contents
	partitions map[string]*partition
}

// New returns an empty Behavior Store.
func New() *Store {
	return &Store{partitions: make(map[string]*partition)}
}

func (s *Store) partitionFor(key, method, patternKey string, now time.Time) *partition {
	s.mu.RLock()
	p, ok := s.partitions[key]
	s.mu.RUnlock()
	if ok {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.partitions[key]; ok {
		return p
	}
	p = &partition{endpoint: domain.NewEndpoint(key, method, patternKey, now)}
	s.partitions[key] = p
	return p
}

// Restore installs a fully-formed endpoint loaded from storage, used at
// startup to rehydrate the in-memory store without replaying traffic.
func (s *Store) Restore(e *domain.Endpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions[e.ID] = &partition{endpoint: e}
}

// Record folds one observed transaction into the endpoint's state and
// returns a snapshot of the endpoint afterward, so a caller can persist it
// without a separate locked lookup. endpointKey (method+pattern) is the
// partition/identity key; patternKey is stored separately on the endpoint
// for display and normalization lookups. Chaos forced responses are
// excluded from schema learning per the design note: callers should not
// invoke Record for chaos-forced transactions beyond what they choose to
// pass as schemas (pass nil to skip schema merge).
func (s *Store) Record(endpointKey, method, patternKey string, latencyMs float64, status int, reqSchema, respSchema *schema.Descriptor, reqBody, respBody []byte, now time.Time) domain.Endpoint {
	p := s.partitionFor(endpointKey, method, patternKey, now)

	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.endpoint
	e.LastSeen = now
	e.ObserveLatencyMs(latencyMs, alpha)
	e.SampleCount++

	class := domain.StatusClass(status)
	e.StatusClassHistogram[class]++
	e.StatusCodeHistogram[status]++

	if reqSchema != nil {
		e.RequestSchema = schema.Merge(e.RequestSchema, reqSchema)
	}
	if respSchema != nil {
		e.ResponseSchemas[class] = schema.Merge(e.ResponseSchemas[class], respSchema)
	}

	e.LastRequestBody = truncate(reqBody)
	e.LastResponseBody = truncate(respBody)

	return *e
}

func truncate(body []byte) []byte {
	if len(body) <= maxPayloadBytes {
		return body
	}
	out := make([]byte, 0, maxPayloadBytes+len(truncationMarker))
	out = append(out, body[:maxPayloadBytes]...)
	out = append(out, truncationMarker...)
	return out
}

// Get returns a snapshot copy of the endpoint's current state, or false if
// it has never been observed.
func (s *Store) Get(endpointKey string) (domain.Endpoint, bool) {
	s.mu.RLock()
	p, ok := s.partitions[endpointKey]
	s.mu.RUnlock()
	if !ok {
		return domain.Endpoint{}, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.endpoint, true
}

// List returns a snapshot of every known endpoint, in no particular order.
func (s *Store) List() []domain.Endpoint {
	s.mu.RLock()
	parts := make([]*partition, 0, len(s.partitions))
	for _, p := range s.partitions {
		parts = append(parts, p)
	}
	s.mu.RUnlock()

	out := make([]domain.Endpoint, 0, len(parts))
	for _, p := range parts {
		p.mu.Lock()
		out = append(out, *p.endpoint)
		p.mu.Unlock()
	}
	return out
}

// ResponseSchemaFor returns the merged response schema descriptor learned
// for the given status class of the endpoint, used for drift comparison and
// by mock mode (which asks for "2xx").
func (s *Store) ResponseSchemaFor(endpointKey, statusClass string) (*schema.Descriptor, bool) {
	s.mu.RLock()
	p, ok := s.partitions[endpointKey]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.endpoint.ResponseSchemas[statusClass]
	return d, ok
}

// LastRequestValue decodes the endpoint's last stored request body, used
// by the generator for the echo rule. Returns a null Value if there is no
// stored request or it isn't valid JSON.
func (s *Store) LastRequestValue(endpointKey string) jsonval.Value {
	s.mu.RLock()
	p, ok := s.partitions[endpointKey]
	s.mu.RUnlock()
	if !ok {
		return jsonval.Null()
	}
	p.mu.Lock()
	body := p.endpoint.LastRequestBody
	p.mu.Unlock()

	v, err := jsonval.Parse(body)
	if err != nil {
		return jsonval.Null()
	}
	return v
}
