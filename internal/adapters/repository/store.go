// Package repository persists events, teams and submissions and owns the
// atomic leaderboard replace.
package repository

import (
	"context"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

// MutateFunc edits a submission inside the store's atomic update. Returning
// an error aborts the update and leaves the stored submission unchanged.
type MutateFunc func(sub *model.Submission) error

// BuildFunc computes a fresh leaderboard from an event (carrying its current
// leaderboard) and every submission of that event, read in one consistent view.
type BuildFunc func(ev *model.Event, subs []*model.Submission) ([]model.LeaderboardEntry, error)

// Counts summarises store contents for stats.
type Counts struct {
	Events      int
	Teams       int
	Submissions int
}

// Store provides read/write access to the scoring state.
//
// Implementations re-run the submission aggregator before every submission
// write, so derived totals are never taken from callers. Only
// ReplaceLeaderboard writes an event's leaderboard.
type Store interface {
	CreateEvent(ctx context.Context, ev *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	// UpdateEventStatus moves an event forward. Backward or unknown moves fail
	// with errs.ErrInvalidTransition.
	UpdateEventStatus(ctx context.Context, id string, status model.EventStatus, now time.Time) (*model.Event, error)

	// CreateTeam fails with errs.ErrTeamLimit once the event's MaxTeams is reached.
	CreateTeam(ctx context.Context, team *model.Team) error
	GetTeam(ctx context.Context, id string) (*model.Team, error)
	ListTeams(ctx context.Context, eventID string) ([]*model.Team, error)

	// CreateSubmission fails with errs.ErrDuplicateSubmission when the team
	// already has a submission for the event.
	CreateSubmission(ctx context.Context, sub *model.Submission) error
	GetSubmission(ctx context.Context, id string) (*model.Submission, error)
	ListSubmissions(ctx context.Context, eventID string) ([]*model.Submission, error)
	// UpdateSubmission applies fn to the current submission under a lock and
	// persists the aggregated result.
	UpdateSubmission(ctx context.Context, id string, fn MutateFunc) (*model.Submission, error)
	// DeleteSubmission removes a submission and returns what was removed.
	DeleteSubmission(ctx context.Context, id string) (*model.Submission, error)

	// Leaderboard returns the persisted leaderboard of an event.
	Leaderboard(ctx context.Context, eventID string) (model.Leaderboard, error)
	// ReplaceLeaderboard runs build over a consistent read of the event and its
	// submissions and stores the result with the version incremented. When
	// build or the write fails the previous leaderboard is kept.
	ReplaceLeaderboard(ctx context.Context, eventID string, now time.Time, build BuildFunc) (model.Leaderboard, error)

	Counts(ctx context.Context) (Counts, error)
	Close() error
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
