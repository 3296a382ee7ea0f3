// Package buffer implements the Learning Buffer: a bounded, non-blocking
// FIFO queue between the hot request path and the Consolidator. Enqueue is
// O(1) and never blocks; when full it drops the oldest entry rather than
// rejecting the newest, since the newest transaction is the one most
// relevant to what's happening right now.
package buffer

import (
	"sync"

	"github.com/mimicgate/mimicgate/internal/domain"
)

// DefaultCapacity is the queue capacity used when none is configured.
const DefaultCapacity = 1024

// RingBuffer is a fixed-capacity, mutex-protected circular queue of
// domain.Transaction. Unlike a plain Go channel (which drops the *newest*
// item under a non-blocking send with select/default), it drops the
// *oldest* item on overflow.
type RingBuffer struct {
	mu   sync.Mutex
	cond *sync.Cond

	items []domain.Transaction
	head  int // index of oldest item
	count int

	closed  bool
	dropped int64
}

// New returns a Learning Buffer with the given capacity (DefaultCapacity if
// capacity <= 0).
func New(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	rb := &RingBuffer{items: make([]domain.Transaction, capacity)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Enqueue adds a transaction. It never blocks: if the buffer is full, the
// oldest entry is dropped and the dropped counter incremented.
func (rb *RingBuffer) Enqueue(tx domain.Transaction) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed {
		rb.dropped++
		return
	}

	capacity := len(rb.items)
	if rb.count == capacity {
		// Drop oldest: advance head, overwrite its slot with the new item.
		rb.items[rb.head] = tx
		rb.head = (rb.head + 1) % capacity
		rb.dropped++
		rb.cond.Signal()
		return
	}

	idx := (rb.head + rb.count) % capacity
	rb.items[idx] = tx
	rb.count++
	rb.cond.Signal()
}

// Dequeue blocks until an item is available or the buffer is closed and
// drained. ok is false only once the buffer is closed and empty; callers
// drive shutdown by calling Close, mirroring a closed-channel drain.
func (rb *RingBuffer) Dequeue() (tx domain.Transaction, ok bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == 0 && !rb.closed {
		rb.cond.Wait()
	}
	if rb.count == 0 {
		return domain.Transaction{}, false
	}

	tx = rb.items[rb.head]
	rb.head = (rb.head + 1) % len(rb.items)
	rb.count--
	return tx, true
}

// Close marks the buffer closed. Subsequent Enqueue calls are dropped.
// Dequeue continues to drain remaining items and then returns ok=false.
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.cond.Broadcast()
	rb.mu.Unlock()
}

// Len returns the current number of buffered transactions.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Dropped returns the total count of transactions dropped due to overflow
// or post-close enqueue attempts.
func (rb *RingBuffer) Dropped() int64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}
