// Package worker delivers outbox items to the configured broadcast sinks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/podium/internal/adapters/mq/queue"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

const (
	defaultWorkerCount    = 4
	defaultDeliverTimeout = 2 * time.Second
)

// Sink receives leaderboard snapshots.
type Sink interface {
	Name() string
	Broadcast(ctx context.Context, eventID, channel string, snap model.Snapshot) error
}

// Queue defines how workers receive items.
type Queue interface {
	Dequeue() <-chan queue.Item
}

// InMemoryWorker drains the outbox and fans each item out to every sink.
type InMemoryWorker struct {
	queue          Queue
	sinks          []Sink
	name           string
	deliverTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, sinks []Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:          q,
		sinks:          sinks,
		name:           "worker",
		deliverTimeout: defaultDeliverTimeout,
		shutdown:       make(chan struct{}),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes items until the queue is closed and drained, ctx is
// cancelled, or Stop is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case it, ok := <-items:
			if !ok {
				return
			}
			if err := w.deliver(ctx, it); err != nil {
				w.logger.Warn(ctx, "broadcast delivery failed",
					logger.String("eventID", it.EventID),
					logger.Int64("version", it.Snapshot.Version),
					logger.Error(err))
			}
		}
	}
}

// Stop asks the worker to exit without draining.
func (w *InMemoryWorker) Stop() {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// deliver hands one item to every sink. A failing sink does not stop the
// others; their errors are joined.
func (w *InMemoryWorker) deliver(ctx context.Context, it queue.Item) error { //nolint:gocritic // hugeParam: items travel by value
	var errs []error
	for _, s := range w.sinks {
		dctx, cancel := context.WithTimeout(ctx, w.deliverTimeout)
		err := s.Broadcast(dctx, it.EventID, it.Channel, it.Snapshot)
		cancel()
		if err != nil {
			metrics.RecordErrorByComponent("broadcast", s.Name())
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		metrics.RecordBroadcastDelivered(s.Name())
	}
	return errors.Join(errs...)
}

// Pool manages multiple workers reading the same outbox.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. workerCount < 1 uses the default.
func NewPool(workerCount int, q Queue, sinks []Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, sinks, wopts...)
	}
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Shutdown closes the queue and waits for the workers to drain it. When ctx
// expires first the remaining workers are stopped and an error is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	defer metrics.UpdateWorkerCount(0)

	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			for _, rest := range p.workers {
				rest.Stop()
			}
			return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
		}
	}
	return nil
}
