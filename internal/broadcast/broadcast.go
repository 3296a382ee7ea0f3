// Package broadcast fans out consolidated transaction events to live
// subscribers (the admin WebSocket stream). It is a redesign of the
// original ConnectionManager's slice-of-sockets-with-try/except broadcast:
// each subscriber gets its own bounded channel, and a subscriber that
// cannot keep up is disconnected rather than allowed to stall the whole
// fan-out.
package broadcast

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mimicgate/mimicgate/internal/domain"
)

// subscriberQueueSize bounds how far a subscriber can fall behind before
// it is dropped.
const subscriberQueueSize = 32

// sendTimeout is how long a background delivery waits on a full
// subscriber queue before that subscriber is disconnected. Publish itself
// never waits.
const sendTimeout = time.Second

// Subscriber is a live consumer of broadcast events, most commonly a
// WebSocket connection's writer goroutine.
type Subscriber struct {
	id     uint64
	events chan domain.BroadcastEvent
	done   chan struct{}
}

// Events returns the channel to range over for delivered events.
func (s *Subscriber) Events() <-chan domain.BroadcastEvent {
	return s.events
}

// Done is closed when the hub drops this subscriber (slow consumer or
// explicit Unsubscribe). Consumers should select on it alongside Events.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Hub is the Live Broadcaster: it accepts consolidated transaction events
// and fans them out to every currently-subscribed observer.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscriber
	logger *zap.Logger
}

// NewHub returns an empty Hub. A nil logger falls back to a no-op logger.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{subs: make(map[uint64]*Subscriber), logger: logger}
}

// Subscribe registers a new subscriber and returns its handle. Callers
// must eventually call Unsubscribe, typically via defer.
func (h *Hub) Subscribe() *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscriber{
		id:     h.nextID,
		events: make(chan domain.BroadcastEvent, subscriberQueueSize),
		done:   make(chan struct{}),
	}
	h.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes a subscriber and signals its Done channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub.id)
}

// removeLocked deletes the subscriber from the map and closes its done
// channel. It never closes events, since a deliverOrDrop goroutine racing
// against removal may still hold a reference and attempt a send; closing
// done is safe to call more than once only if guarded, so removeLocked is
// idempotent via the map membership check.
func (h *Hub) removeLocked(id uint64) {
	if sub, ok := h.subs[id]; ok {
		close(sub.done)
		delete(h.subs, id)
	}
}

// Publish implements the EventSink interface consumed by the Consolidator.
// Delivery is best-effort and asynchronous with respect to the caller: a
// subscriber whose queue is full for longer than sendTimeout is dropped,
// but Publish itself never blocks the consolidation pipeline for longer
// than that same bound, and drops are performed off the caller's
// goroutine so a single slow subscriber cannot stall consolidation.
func (h *Hub) Publish(evt domain.BroadcastEvent) {
	h.mu.Lock()
	targets := make([]*Subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.events <- evt:
		default:
			go h.deliverOrDrop(sub, evt)
		}
	}
}

func (h *Hub) deliverOrDrop(sub *Subscriber, evt domain.BroadcastEvent) {
	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	select {
	case sub.events <- evt:
	case <-timer.C:
		h.logger.Warn("dropping slow broadcast subscriber", zap.Uint64("subscriber_id", sub.id))
		h.mu.Lock()
		h.removeLocked(sub.id)
		h.mu.Unlock()
	}
}

// Count returns the number of currently connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
