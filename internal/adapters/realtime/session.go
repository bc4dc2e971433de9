package realtime

import (
	"context"
	"sync"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

// Session is one live leaderboard subscription. Snapshots are delivered in
// strictly increasing version order: anything at or below the last accepted
// version is discarded, and a full mailbox gives up its oldest snapshot.
type Session struct {
	ID      string
	EventID string

	mu      sync.Mutex
	mailbox []model.Snapshot
	size    int
	last    int64
	offered bool
	closed  bool
	notify  chan struct{}
}

func newSession(id, eventID string, size int) *Session {
	if size < 1 {
		size = 1
	}
	return &Session{
		ID:      id,
		EventID: eventID,
		size:    size,
		notify:  make(chan struct{}, 1),
	}
}

// Offer queues snap for delivery. It reports false when the snapshot was
// stale or the session is closed.
func (s *Session) Offer(snap model.Snapshot) bool { //nolint:gocritic // hugeParam: snapshots travel by value
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if s.offered && snap.Version <= s.last {
		metrics.RecordBroadcastDropped("stale")
		return false
	}
	if len(s.mailbox) >= s.size {
		s.mailbox = s.mailbox[1:]
		metrics.RecordBroadcastDropped("mailbox_full")
	}
	s.mailbox = append(s.mailbox, snap)
	s.last = snap.Version
	s.offered = true

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return true
}

// Next blocks until a snapshot is available, ctx is done or the session closes.
func (s *Session) Next(ctx context.Context) (model.Snapshot, error) {
	for {
		s.mu.Lock()
		if len(s.mailbox) > 0 {
			snap := s.mailbox[0]
			s.mailbox[0] = model.Snapshot{}
			s.mailbox = s.mailbox[1:]
			s.mu.Unlock()
			return snap, nil
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return model.Snapshot{}, ErrSessionClosed
		}

		select {
		case <-ctx.Done():
			return model.Snapshot{}, ctx.Err()
		case <-s.notify:
		}
	}
}

// LastVersion returns the newest version accepted so far.
func (s *Session) LastVersion() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Pending returns the number of undelivered snapshots.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mailbox)
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.mailbox = nil
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
