// Package realtime pushes leaderboard snapshots to live subscribers, in
// process through the Hub and across instances through NATS.
package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

const defaultMailboxSize = 16

// Broadcaster pushes a snapshot on an event's leaderboard channel.
type Broadcaster interface {
	Broadcast(ctx context.Context, eventID, channel string, snap model.Snapshot) error
}

// Hub owns the session registry keyed by connection ID.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byEvent  map[string]map[string]*Session
	closed   bool

	mailboxSize int
	deduper     dedupe.Deduper
	logger      logger.Logger
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		sessions:    make(map[string]*Session),
		byEvent:     make(map[string]map[string]*Session),
		mailboxSize: defaultMailboxSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.deduper == nil {
		h.deduper = dedupe.NewInMemoryDeduper()
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("hub")
	}
	return h
}

// Name identifies the hub as a delivery sink.
func (h *Hub) Name() string { return "hub" }

// Join registers a new session for eventID. The caller seeds it with the
// current leaderboard after joining so no push can fall in between.
func (h *Hub) Join(ctx context.Context, eventID string) (*Session, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	s := newSession(uuid.NewString(), eventID, h.mailboxSize)
	h.sessions[s.ID] = s
	if h.byEvent[eventID] == nil {
		h.byEvent[eventID] = make(map[string]*Session)
	}
	h.byEvent[eventID][s.ID] = s
	n := len(h.sessions)
	h.mu.Unlock()

	metrics.UpdateLiveSubscribers(n)
	h.logger.Debug(ctx, "session joined", logger.String("session", s.ID), logger.String("eventID", eventID))
	return s, nil
}

// Leave removes and closes a session. Unknown IDs are ignored.
func (h *Hub) Leave(ctx context.Context, id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
		if subs := h.byEvent[s.EventID]; subs != nil {
			delete(subs, id)
			if len(subs) == 0 {
				delete(h.byEvent, s.EventID)
			}
		}
	}
	n := len(h.sessions)
	h.mu.Unlock()

	if !ok {
		return
	}
	s.close()
	metrics.UpdateLiveSubscribers(n)
	h.logger.Debug(ctx, "session left", logger.String("session", id))
}

// Lookup finds a session by connection ID.
func (h *Hub) Lookup(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast offers snap to every session of eventID. A snapshot already seen
// by this hub is ignored, so a local delivery and its NATS echo fan out once.
func (h *Hub) Broadcast(ctx context.Context, eventID, _ string, snap model.Snapshot) error { //nolint:gocritic // hugeParam: snapshots travel by value
	if h.deduper.SeenAndRecord(ctx, dedupe.SnapshotKey(eventID, snap.Version)) {
		metrics.RecordBroadcastDropped("duplicate")
		return nil
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.byEvent[eventID]))
	for _, s := range h.byEvent[eventID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.Offer(snap)
	}
	return nil
}

// Close drops every session. Later joins fail with ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.byEvent = make(map[string]map[string]*Session)
	h.closed = true
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	metrics.UpdateLiveSubscribers(0)
}

var _ Broadcaster = (*Hub)(nil)
