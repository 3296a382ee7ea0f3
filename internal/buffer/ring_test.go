package buffer

import (
	"testing"
	"time"

	"github.com/mimicgate/mimicgate/internal/domain"
)

func TestEnqueueDequeueFIFO(t *testing.T) {
	rb := New(4)
	rb.Enqueue(domain.Transaction{Path: "/a"})
	rb.Enqueue(domain.Transaction{Path: "/b"})

	tx, ok := rb.Dequeue()
	if !ok || tx.Path != "/a" {
		t.Fatalf("expected /a first, got %+v ok=%v", tx, ok)
	}
	tx, ok = rb.Dequeue()
	if !ok || tx.Path != "/b" {
		t.Fatalf("expected /b second, got %+v ok=%v", tx, ok)
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	rb := New(2)
	rb.Enqueue(domain.Transaction{Path: "/1"})
	rb.Enqueue(domain.Transaction{Path: "/2"})
	rb.Enqueue(domain.Transaction{Path: "/3"}) // should drop /1

	tx, ok := rb.Dequeue()
	if !ok || tx.Path != "/2" {
		t.Fatalf("expected /2 to survive, got %+v ok=%v", tx, ok)
	}
	if rb.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", rb.Dropped())
	}
}

func TestCloseDrainsThenStops(t *testing.T) {
	rb := New(4)
	rb.Enqueue(domain.Transaction{Path: "/only"})
	rb.Close()

	tx, ok := rb.Dequeue()
	if !ok || tx.Path != "/only" {
		t.Fatalf("expected drain of remaining item, got %+v ok=%v", tx, ok)
	}
	_, ok = rb.Dequeue()
	if ok {
		t.Error("expected Dequeue to return false once drained and closed")
	}
}

func TestEnqueueAfterCloseIsDropped(t *testing.T) {
	rb := New(4)
	rb.Close()
	rb.Enqueue(domain.Transaction{Path: "/late"})
	if rb.Dropped() != 1 {
		t.Errorf("expected post-close enqueue to count as dropped, got %d", rb.Dropped())
	}
}

func TestDequeueBlocksUntilEnqueue(t *testing.T) {
	rb := New(4)
	resultCh := make(chan domain.Transaction, 1)
	go func() {
		tx, ok := rb.Dequeue()
		if ok {
			resultCh <- tx
		}
	}()

	time.Sleep(20 * time.Millisecond)
	rb.Enqueue(domain.Transaction{Path: "/late-arrival"})

	select {
	case tx := <-resultCh:
		if tx.Path != "/late-arrival" {
			t.Errorf("got %+v", tx)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for blocked dequeue to receive")
	}
}
