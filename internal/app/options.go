package service

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/okian/podium/internal/adapters/mq/worker"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the authoritative store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of broadcast delivery workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithOutboxSize sets the maximum number of pending broadcasts.
func WithOutboxSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.outboxSize = size
		}
	}
}

// WithDedupeSize sets how many snapshot keys the hub remembers.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSubscriberBuffer bounds each live session's mailbox.
func WithSubscriberBuffer(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.subscriberBuffer = size
		}
	}
}

// WithSinks adds delivery sinks next to the local hub, e.g. a NATS publisher.
func WithSinks(sinks ...worker.Sink) Option {
	return func(s *Service) {
		for _, sink := range sinks {
			if sink != nil {
				s.extraSinks = append(s.extraSinks, sink)
			}
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}
