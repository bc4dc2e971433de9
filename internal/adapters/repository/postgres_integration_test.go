package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/okian/podium/internal/domain/errs"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scoring"
)

func setupPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("podium_test"),
		postgres.WithUsername("podium"),
		postgres.WithPassword("podium"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewPostgresStore(ctx, dsn, WithMaxOpenConns(8))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresStore_Lifecycle(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.CreateEvent(ctx, &model.Event{
		ID: "e1", Name: "Hack", Status: model.EventActive, OrganizerID: "org", MaxTeams: 2,
		Judging:   model.JudgingConfig{Judges: []string{"j1"}, Criteria: []model.Criterion{{Name: "UX", MaxScore: 100}}},
		CreatedAt: now, UpdatedAt: now,
	}))
	assert.ErrorIs(t, s.CreateEvent(ctx, &model.Event{ID: "e1", Name: "dup", Status: model.EventActive, OrganizerID: "o"}), errs.ErrConflict)

	ev, err := s.GetEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"j1"}, ev.Judging.Judges)
	assert.Equal(t, int64(0), ev.Leaderboard.Version)
	assert.NotNil(t, ev.Leaderboard.Entries)

	require.NoError(t, s.CreateTeam(ctx, &model.Team{ID: "t1", EventID: "e1", Name: "One", Members: []string{"alice"}}))
	require.NoError(t, s.CreateTeam(ctx, &model.Team{ID: "t2", EventID: "e1", Name: "Two", Members: []string{"bob"}}))
	assert.ErrorIs(t, s.CreateTeam(ctx, &model.Team{ID: "t3", EventID: "e1", Name: "Three"}), errs.ErrTeamLimit)
	assert.ErrorIs(t, s.CreateTeam(ctx, &model.Team{ID: "t4", EventID: "missing", Name: "Four"}), errs.ErrNotFound)

	team, err := s.GetTeam(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, team.Members)

	meta := &model.Metadata{Technologies: []string{"go"}, Innovation: model.IntPtr(7)}
	sub := &model.Submission{
		ID: "s1", EventID: "e1", TeamID: "t1", Name: "P1", Metadata: meta,
		Status: model.SubmissionSubmitted, CreatedAt: now, UpdatedAt: now, SubmittedAt: now,
	}
	require.NoError(t, s.CreateSubmission(ctx, sub))
	assert.ErrorIs(t, s.CreateSubmission(ctx, &model.Submission{ID: "s2", EventID: "e1", TeamID: "t1", Name: "P2", Status: model.SubmissionDraft}), errs.ErrDuplicateSubmission)

	got, err := s.UpdateSubmission(ctx, "s1", func(sub *model.Submission) error {
		scoring.ReplaceJudgeScores(sub, "j1", []model.ScoreRecord{{Criterion: "UX", Score: 80}}, []string{"j1"}, now)
		return scoring.UpsertVote(sub, "u1", 4, now)
	})
	require.NoError(t, err)
	assert.Equal(t, 80.0, got.Judging.TotalScore)
	assert.Equal(t, model.JudgingJudged, got.Judging.Status)

	_, err = s.UpdateSubmission(ctx, "s1", func(*model.Submission) error { return errs.ErrInvalidRange })
	assert.ErrorIs(t, err, errs.ErrInvalidRange)

	reloaded, err := s.GetSubmission(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, reloaded.Voting.PublicVotes)
	assert.Equal(t, 7, *reloaded.Metadata.Innovation)

	lb, err := s.ReplaceLeaderboard(ctx, "e1", now, func(ev *model.Event, subs []*model.Submission) ([]model.LeaderboardEntry, error) {
		return scoring.Rank(subs, ev.Leaderboard.Entries, now), nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), lb.Version)
	require.Len(t, lb.Entries, 1)
	assert.Equal(t, 120.0, lb.Entries[0].CombinedScore)

	_, err = s.ReplaceLeaderboard(ctx, "e1", now, func(*model.Event, []*model.Submission) ([]model.LeaderboardEntry, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)
	stored, err := s.Leaderboard(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version, "failed recompute must keep the prior leaderboard")

	removed, err := s.DeleteSubmission(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", removed.ID)
	_, err = s.DeleteSubmission(ctx, "s1")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Events: 1, Teams: 2, Submissions: 0}, counts)

	_, err = s.UpdateEventStatus(ctx, "e1", model.EventJudging, now)
	require.NoError(t, err)
	_, err = s.UpdateEventStatus(ctx, "e1", model.EventActive, now)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestPostgresStore_ConcurrentVotes(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()
	require.NoError(t, s.CreateEvent(ctx, &model.Event{ID: "e1", Name: "Hack", Status: model.EventJudging, OrganizerID: "org"}))
	require.NoError(t, s.CreateTeam(ctx, &model.Team{ID: "t1", EventID: "e1", Name: "One"}))
	require.NoError(t, s.CreateSubmission(ctx, &model.Submission{ID: "s1", EventID: "e1", TeamID: "t1", Name: "P", Status: model.SubmissionSubmitted}))

	const voters = 20
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.UpdateSubmission(ctx, "s1", func(sub *model.Submission) error {
				return scoring.UpsertVote(sub, fmt.Sprintf("u%d", i), 5, time.Now())
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sub, err := s.GetSubmission(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, voters, sub.Voting.Count, "row locks must serialise concurrent upserts")
}
