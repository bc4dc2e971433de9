package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/podium/internal/domain/errs"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scoring"
)

// MemoryStore implements Store in process memory. A single RWMutex
// serialises writers, which gives ReplaceLeaderboard the same all-or-nothing
// behaviour as a database transaction. Values are deep-copied on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu           sync.RWMutex
	closed       bool
	events       map[string]*model.Event
	teams        map[string]*model.Team
	teamsByEvent map[string][]string
	subs         map[string]*model.Submission
	subByTeam    map[teamKey]string
}

type teamKey struct {
	eventID string
	teamID  string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:       make(map[string]*model.Event),
		teams:        make(map[string]*model.Team),
		teamsByEvent: make(map[string][]string),
		subs:         make(map[string]*model.Submission),
		subByTeam:    make(map[teamKey]string),
	}
}

func (s *MemoryStore) CreateEvent(_ context.Context, ev *model.Event) error {
	defer observe("create_event", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.events[ev.ID]; ok {
		return ErrDuplicateID
	}
	stored := ev.Clone()
	stored.Leaderboard = model.Leaderboard{Entries: []model.LeaderboardEntry{}}
	s.events[ev.ID] = stored
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id string) (*model.Event, error) {
	defer observe("get_event", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return ev.Clone(), nil
}

func (s *MemoryStore) UpdateEventStatus(_ context.Context, id string, status model.EventStatus, now time.Time) (*model.Event, error) {
	defer observe("update_event_status", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	ev, ok := s.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	if !ev.Status.CanTransitionTo(status) {
		return nil, errs.ErrInvalidTransition
	}
	ev.Status = status
	ev.UpdatedAt = now
	return ev.Clone(), nil
}

func (s *MemoryStore) CreateTeam(_ context.Context, team *model.Team) error {
	defer observe("create_team", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	ev, ok := s.events[team.EventID]
	if !ok {
		return ErrEventNotFound
	}
	if _, dup := s.teams[team.ID]; dup {
		return ErrDuplicateID
	}
	if ev.MaxTeams > 0 && len(s.teamsByEvent[team.EventID]) >= ev.MaxTeams {
		return errs.ErrTeamLimit
	}
	stored := *team
	stored.Members = slices.Clone(team.Members)
	s.teams[team.ID] = &stored
	s.teamsByEvent[team.EventID] = append(s.teamsByEvent[team.EventID], team.ID)
	return nil
}

func (s *MemoryStore) GetTeam(_ context.Context, id string) (*model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	out := *t
	out.Members = slices.Clone(t.Members)
	return &out, nil
}

func (s *MemoryStore) ListTeams(_ context.Context, eventID string) ([]*model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.events[eventID]; !ok {
		return nil, ErrEventNotFound
	}
	ids := s.teamsByEvent[eventID]
	out := make([]*model.Team, 0, len(ids))
	for _, id := range ids {
		t := *s.teams[id]
		t.Members = slices.Clone(t.Members)
		out = append(out, &t)
	}
	return out, nil
}

func (s *MemoryStore) CreateSubmission(_ context.Context, sub *model.Submission) error {
	defer observe("create_submission", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.events[sub.EventID]; !ok {
		return ErrEventNotFound
	}
	if _, ok := s.teams[sub.TeamID]; !ok {
		return ErrTeamNotFound
	}
	if _, dup := s.subs[sub.ID]; dup {
		return ErrDuplicateID
	}
	key := teamKey{eventID: sub.EventID, teamID: sub.TeamID}
	if _, taken := s.subByTeam[key]; taken {
		return errs.ErrDuplicateSubmission
	}
	stored := sub.Clone()
	scoring.Aggregate(stored)
	s.subs[sub.ID] = stored
	s.subByTeam[key] = sub.ID
	*sub = *stored.Clone()
	return nil
}

func (s *MemoryStore) GetSubmission(_ context.Context, id string) (*model.Submission, error) {
	defer observe("get_submission", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	return sub.Clone(), nil
}

func (s *MemoryStore) ListSubmissions(_ context.Context, eventID string) ([]*model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.events[eventID]; !ok {
		return nil, ErrEventNotFound
	}
	return s.submissionsLocked(eventID), nil
}

// submissionsLocked returns clones of an event's submissions in creation order.
func (s *MemoryStore) submissionsLocked(eventID string) []*model.Submission {
	var out []*model.Submission
	for _, sub := range s.subs {
		if sub.EventID == eventID {
			out = append(out, sub.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *model.Submission) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (s *MemoryStore) UpdateSubmission(_ context.Context, id string, fn MutateFunc) (*model.Submission, error) {
	defer observe("update_submission", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	cur, ok := s.subs[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	// identity fields are fixed
	next.ID, next.EventID, next.TeamID, next.CreatedAt = cur.ID, cur.EventID, cur.TeamID, cur.CreatedAt
	scoring.Aggregate(next)
	s.subs[id] = next
	return next.Clone(), nil
}

func (s *MemoryStore) DeleteSubmission(_ context.Context, id string) (*model.Submission, error) {
	defer observe("delete_submission", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	sub, ok := s.subs[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	delete(s.subs, id)
	delete(s.subByTeam, teamKey{eventID: sub.EventID, teamID: sub.TeamID})
	return sub, nil
}

func (s *MemoryStore) Leaderboard(_ context.Context, eventID string) (model.Leaderboard, error) {
	defer observe("get_leaderboard", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[eventID]
	if !ok {
		return model.Leaderboard{}, ErrEventNotFound
	}
	return ev.Leaderboard.Clone(), nil
}

func (s *MemoryStore) ReplaceLeaderboard(_ context.Context, eventID string, now time.Time, build BuildFunc) (model.Leaderboard, error) {
	defer observe("replace_leaderboard", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Leaderboard{}, ErrClosed
	}
	ev, ok := s.events[eventID]
	if !ok {
		return model.Leaderboard{}, ErrEventNotFound
	}
	entries, err := build(ev.Clone(), s.submissionsLocked(eventID))
	if err != nil {
		return model.Leaderboard{}, err
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	ev.Leaderboard = model.Leaderboard{
		Entries:    entries,
		Version:    ev.Leaderboard.Version + 1,
		ComputedAt: now,
	}
	ev.UpdatedAt = now
	return ev.Leaderboard.Clone(), nil
}

func (s *MemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{Events: len(s.events), Teams: len(s.teams), Submissions: len(s.subs)}, nil
}

// Close marks the store closed; later writes fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Store = (*MemoryStore)(nil)
