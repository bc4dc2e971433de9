// Package service implements the scoring core: votes, judge scores,
// AutoJudge, leaderboard recompute and live broadcast, plus the supporting
// event/team/submission operations the HTTP API needs.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/podium/internal/adapters/mq/queue"
	"github.com/okian/podium/internal/adapters/mq/worker"
	"github.com/okian/podium/internal/adapters/realtime"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/errs"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

const tracerName = "github.com/okian/podium/internal/app"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service implements the API dependencies for the scoring core.
type Service struct {
	mu sync.RWMutex

	store  repository.Store
	hub    *realtime.Hub
	outbox *queue.InMemoryQueue
	pool   *worker.Pool

	extraSinks       []worker.Sink
	workerCount      int
	outboxSize       int
	dedupeSize       int
	subscriberBuffer int

	started bool

	now    func() time.Time
	tracer trace.Tracer
	logger logger.Logger
}

// New constructs a Service. The store, hub and outbox are usable right
// away; delivery to subscribers begins once Start runs the workers.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU(),
		outboxSize:       10_000,
		dedupeSize:       100_000,
		subscriberBuffer: 16,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.hub = realtime.NewHub(
		realtime.WithMailboxSize(s.subscriberBuffer),
		realtime.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))),
	)
	s.outbox = queue.NewInMemoryQueue(queue.WithCapacity(s.outboxSize))
	return s
}

// Start launches the delivery workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.outbox.IsClosed() {
		return fmt.Errorf("service: %w", queue.ErrClosed)
	}

	sinks := append([]worker.Sink{s.hub}, s.extraSinks...)
	s.pool = worker.NewPool(s.workerCount, s.outbox, sinks)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("outboxSize", s.outboxSize),
		logger.Int("sinks", len(sinks)),
	)
	return nil
}

// Stop drains pending broadcasts, ends live sessions and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping scoring service...")

	var firstErr error
	if err := s.pool.Shutdown(ctx); err != nil {
		firstErr = err
	}
	s.hub.Close()
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close store: %w", err)
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
	return firstErr
}

// Hub exposes the local broadcast hub so a NATS relay can feed it.
func (s *Service) Hub() *realtime.Hub { return s.hub }

// Subscribe opens a live leaderboard session for eventID. The session first
// receives the current persisted leaderboard, then every later version.
func (s *Service) Subscribe(ctx context.Context, eventID string) (*realtime.Session, error) {
	const op = "subscribe"
	sess, err := s.hub.Join(ctx, eventID)
	if err != nil {
		return nil, errs.WrapKind(op, errs.ErrConflict, err)
	}
	// read after joining; a push racing the seed is either newer, so the seed
	// is dropped as stale, or older and followed by the seed
	lb, err := s.store.Leaderboard(ctx, eventID)
	if err != nil {
		s.hub.Leave(ctx, sess.ID)
		return nil, storeErr(op, err)
	}
	sess.Offer(lb.Snapshot(eventID))
	return sess, nil
}

// Unsubscribe ends a live session.
func (s *Service) Unsubscribe(ctx context.Context, sessionID string) {
	s.hub.Leave(ctx, sessionID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := map[string]any{
		"started":         started,
		"workerCount":     s.workerCount,
		"outboxSize":      s.outboxSize,
		"outboxLength":    s.outbox.Len(),
		"liveSubscribers": s.hub.Count(),
	}
	if counts, err := s.store.Counts(ctx); err == nil {
		stats["events"] = counts.Events
		stats["teams"] = counts.Teams
		stats["submissions"] = counts.Submissions
	} else {
		s.logger.Warn(ctx, "stats: store counts unavailable", logger.Error(err))
	}

	metrics.UpdateOutboxSize(s.outbox.Len())
	metrics.UpdateLiveSubscribers(s.hub.Count())
	return stats
}

// loadSubmission fetches a submission and its event.
func (s *Service) loadSubmission(ctx context.Context, op, submissionID string) (*model.Submission, *model.Event, error) {
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, nil, storeErr(op, err)
	}
	ev, err := s.store.GetEvent(ctx, sub.EventID)
	if err != nil {
		return nil, nil, storeErr(op, err)
	}
	return sub, ev, nil
}
