// Package queue is the broadcast outbox: a bounded in-memory queue between
// leaderboard recompute and the delivery workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

const defaultCapacity = 1024

// Item is the payload flowing through the outbox.
type Item = model.Broadcast

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an item without blocking. It fails with ErrFull when the
	// queue is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, item Item) error

	// Dequeue returns the channel consumers read from. It is closed once the
	// queue is closed and drained.
	Dequeue() <-chan Item

	Len() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Item
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Item, q.capacity)
	metrics.UpdateOutboxSize(0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, item Item) error { //nolint:gocritic // hugeParam: items travel by value over the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.items <- item:
		metrics.UpdateOutboxSize(len(q.items))
		return nil
	default:
		return ErrFull
	}
}

func (q *InMemoryQueue) Dequeue() <-chan Item {
	return q.items
}

func (q *InMemoryQueue) Len() int {
	n := len(q.items)
	metrics.UpdateOutboxSize(n)
	return n
}

// Close stops accepting items. Items already queued stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
