package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/errs"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scoring"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// tickClock advances one second per call so submission order is deterministic.
func tickClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type fixture struct {
	svc   *service.Service
	ctx   context.Context
	event *model.Event
}

func newFixture(t *testing.T, automated bool, opts ...service.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	svc := service.New(append([]service.Option{service.WithClock(tickClock()), service.WithWorkerCount(2)}, opts...)...)
	So(svc.Start(ctx), ShouldBeNil)
	Reset(func() { _ = svc.Stop(context.Background()) })

	ev, err := svc.CreateEvent(ctx, "org", types.CreateEventRequest{
		Name:      "Spring Hack",
		Automated: automated,
		Judges:    []string{"j2", "j1"},
	})
	So(err, ShouldBeNil)
	return &fixture{svc: svc, ctx: ctx, event: ev}
}

// submission creates a team owned by owner and a submitted submission.
func (f *fixture) submission(owner, name string, meta *model.Metadata) *model.Submission {
	team, err := f.svc.CreateTeam(f.ctx, owner, f.event.ID, types.CreateTeamRequest{Name: name + " team"})
	So(err, ShouldBeNil)
	sub, err := f.svc.CreateSubmission(f.ctx, owner, types.CreateSubmissionRequest{
		EventID: f.event.ID, TeamID: team.ID, Name: name, Metadata: meta,
	})
	So(err, ShouldBeNil)
	sub, err = f.svc.ChangeSubmissionStatus(f.ctx, owner, sub.ID, model.SubmissionSubmitted)
	So(err, ShouldBeNil)
	return sub
}

func (f *fixture) openVoting() {
	_, err := f.svc.SetEventStatus(f.ctx, "org", f.event.ID, model.EventJudging)
	So(err, ShouldBeNil)
}

func TestService_ScoringScenario(t *testing.T) {
	Convey("Given a judging event with one submitted project", t, func() {
		f := newFixture(t, false)
		f.openVoting()
		sub := f.submission("alice", "Rocket", nil)

		Convey("When two judges score 80 and 60 and two users vote 4 and 5", func() {
			total, err := f.svc.SubmitJudgeScores(f.ctx, sub.ID, "j1", []model.ScoreRecord{{Criterion: "Innovation", Score: 80}})
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 80)
			total, err = f.svc.SubmitJudgeScores(f.ctx, sub.ID, "j2", []model.ScoreRecord{{Criterion: "Design", Score: 60}})
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 140)

			pv, err := f.svc.SubmitVote(f.ctx, sub.ID, "u1", 4)
			So(err, ShouldBeNil)
			So(pv, ShouldEqual, 4)
			pv, err = f.svc.SubmitVote(f.ctx, sub.ID, "u2", 5)
			So(err, ShouldBeNil)
			So(pv, ShouldEqual, 4.5)

			Convey("Then the leaderboard shows 140 + 4.5 x 10 = 185 at rank 1", func() {
				lb, err := f.svc.GetLeaderboard(f.ctx, f.event.ID)
				So(err, ShouldBeNil)
				So(lb.Entries, ShouldHaveLength, 1)
				e := lb.Entries[0]
				So(e.Rank, ShouldEqual, 1)
				So(e.TotalScore, ShouldEqual, 140)
				So(e.PublicVotes, ShouldEqual, 4.5)
				So(e.CombinedScore, ShouldEqual, 185)
				So(e.ProjectName, ShouldEqual, "Rocket")
				So(lb.Version, ShouldEqual, 5)
			})

			Convey("And a judge resubmits", func() {
				total, err := f.svc.SubmitJudgeScores(f.ctx, sub.ID, "j1", []model.ScoreRecord{{Criterion: "Innovation", Score: 50}})

				Convey("Then the old set is replaced, not merged", func() {
					So(err, ShouldBeNil)
					So(total, ShouldEqual, 110)
				})
			})

			Convey("And a user votes again", func() {
				pv, err := f.svc.SubmitVote(f.ctx, sub.ID, "u1", 1)

				Convey("Then the earlier vote is overwritten", func() {
					So(err, ShouldBeNil)
					So(pv, ShouldEqual, 3)
				})
			})
		})

		Convey("When only one of two judges has scored", func() {
			_, err := f.svc.SubmitJudgeScores(f.ctx, sub.ID, "j1", []model.ScoreRecord{{Criterion: "Innovation", Score: 10}})
			So(err, ShouldBeNil)

			Convey("Then judging is still in progress", func() {
				lbSub, err := f.svc.ChangeSubmissionStatus(f.ctx, "org", sub.ID, model.SubmissionUnderReview)
				So(err, ShouldBeNil)
				So(lbSub.Judging.Status, ShouldEqual, model.JudgingActive)
			})
		})

		Convey("When an outsider submits judge scores", func() {
			_, err := f.svc.SubmitJudgeScores(f.ctx, sub.ID, "mallory", []model.ScoreRecord{{Criterion: "Innovation", Score: 10}})
			So(errors.Is(err, errs.ErrUnauthorized), ShouldBeTrue)
		})

		Convey("When a score is out of range", func() {
			_, err := f.svc.SubmitJudgeScores(f.ctx, sub.ID, "j1", []model.ScoreRecord{{Criterion: "Innovation", Score: 101}})
			So(errors.Is(err, errs.ErrInvalidRange), ShouldBeTrue)
			So(errs.KindOf(err), ShouldEqual, errs.ErrValidation)
		})

		Convey("When a vote is out of range", func() {
			_, err := f.svc.SubmitVote(f.ctx, sub.ID, "u1", 6)
			So(errors.Is(err, errs.ErrInvalidRange), ShouldBeTrue)
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})

		Convey("When the submission is unknown", func() {
			_, err := f.svc.SubmitVote(f.ctx, "missing", "u1", 3)
			So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given an event that is not judging yet", t, func() {
		f := newFixture(t, false)
		sub := f.submission("alice", "Rocket", nil)

		Convey("When a user votes", func() {
			_, err := f.svc.SubmitVote(f.ctx, sub.ID, "u1", 3)

			Convey("Then voting is closed", func() {
				So(errors.Is(err, errs.ErrVotingClosed), ShouldBeTrue)
				So(errs.KindOf(err), ShouldEqual, errs.ErrConflict)
			})
		})
	})
}

func TestService_AutoJudge(t *testing.T) {
	meta := &model.Metadata{
		Technologies:  []string{"go", "postgres", "nats"},
		LinesOfCode:   model.IntPtr(300),
		Innovation:    model.IntPtr(8),
		Completeness:  model.IntPtr(9),
		Documentation: model.IntPtr(5),
		Presentation:  model.IntPtr(7),
	}

	Convey("Given a submission with full metadata", t, func() {
		f := newFixture(t, false)
		sub := f.submission("alice", "Rocket", meta)
		_, err := f.svc.SubmitJudgeScores(f.ctx, sub.ID, "j1", []model.ScoreRecord{{Criterion: "Design", Score: 99}})
		So(err, ShouldBeNil)

		Convey("When AutoJudge runs", func() {
			records, err := f.svc.RunAutoJudge(f.ctx, sub.ID)

			Convey("Then it scores 80, 33, 90, 50, 70 and replaces the human set", func() {
				So(err, ShouldBeNil)
				scores := make([]float64, len(records))
				for i, r := range records {
					scores[i] = r.Score
					So(r.JudgeID, ShouldEqual, scoring.AutoJudgeID)
				}
				So(scores, ShouldResemble, []float64{80, 33, 90, 50, 70})

				lb, _ := f.svc.GetLeaderboard(f.ctx, f.event.ID)
				So(lb.Entries, ShouldHaveLength, 1)
				So(lb.Entries[0].TotalScore, ShouldEqual, 323)
			})
		})

		Convey("When a non-organizer asks for AutoJudge", func() {
			_, err := f.svc.RunAutoJudgeAs(f.ctx, "alice", sub.ID)
			So(errors.Is(err, errs.ErrUnauthorized), ShouldBeTrue)
		})
	})

	Convey("Given a submission without metadata", t, func() {
		f := newFixture(t, false)
		sub := f.submission("alice", "Rocket", nil)

		Convey("When AutoJudge runs", func() {
			_, err := f.svc.RunAutoJudge(f.ctx, sub.ID)
			So(errors.Is(err, errs.ErrNoMetadata), ShouldBeTrue)
			So(errs.KindOf(err), ShouldEqual, errs.ErrValidation)
		})
	})

	Convey("Given an automated event", t, func() {
		f := newFixture(t, true)

		Convey("When a submission is submitted", func() {
			sub := f.submission("alice", "Rocket", meta)

			Convey("Then it is judged automatically and ranked", func() {
				So(sub.Judging.Status, ShouldEqual, model.JudgingJudged)
				So(sub.Judging.TotalScore, ShouldEqual, 323)
				lb, _ := f.svc.GetLeaderboard(f.ctx, f.event.ID)
				So(lb.Entries, ShouldHaveLength, 1)
				So(lb.Entries[0].CombinedScore, ShouldEqual, 323)
			})
		})
	})
}

func TestService_Ranking(t *testing.T) {
	Convey("Given three submissions scoring 185, 185 and 90", t, func() {
		f := newFixture(t, false)
		f.openVoting()
		a := f.submission("alice", "A", nil)
		b := f.submission("bob", "B", nil)
		c := f.submission("carol", "C", nil)

		score := func(id string, points float64) {
			_, err := f.svc.SubmitJudgeScores(f.ctx, id, "j1", []model.ScoreRecord{
				{Criterion: "Innovation", Score: min(points, 100)},
				{Criterion: "Design", Score: max(points-100, 0)},
			})
			So(err, ShouldBeNil)
		}
		score(a.ID, 135)
		_, err := f.svc.SubmitVote(f.ctx, a.ID, "u1", 5)
		So(err, ShouldBeNil)
		score(b.ID, 135)
		_, err = f.svc.SubmitVote(f.ctx, b.ID, "u1", 5)
		So(err, ShouldBeNil)
		score(c.ID, 90)

		Convey("Then ranks are dense and ties keep their earlier order", func() {
			lb, err := f.svc.GetLeaderboard(f.ctx, f.event.ID)
			So(err, ShouldBeNil)
			So(lb.Entries, ShouldHaveLength, 3)
			So(lb.Entries[0].SubmissionID, ShouldEqual, a.ID)
			So(lb.Entries[1].SubmissionID, ShouldEqual, b.ID)
			So(lb.Entries[2].SubmissionID, ShouldEqual, c.ID)
			for i, e := range lb.Entries {
				So(e.Rank, ShouldEqual, i+1)
			}
			So(lb.Entries[0].CombinedScore, ShouldEqual, lb.Entries[1].CombinedScore)
		})

		Convey("When a ranked submission is deleted", func() {
			So(f.svc.DeleteSubmission(f.ctx, "alice", a.ID), ShouldBeNil)

			Convey("Then it never appears on the leaderboard again", func() {
				lb, _ := f.svc.GetLeaderboard(f.ctx, f.event.ID)
				So(lb.Entries, ShouldHaveLength, 2)
				So(lb.Entries[0].SubmissionID, ShouldEqual, b.ID)
				So(lb.Entries[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When a submission is withdrawn to draft", func() {
			_, err := f.svc.ChangeSubmissionStatus(f.ctx, "carol", c.ID, model.SubmissionDraft)
			So(err, ShouldBeNil)

			Convey("Then it leaves the leaderboard", func() {
				lb, _ := f.svc.GetLeaderboard(f.ctx, f.event.ID)
				So(lb.Entries, ShouldHaveLength, 2)
			})
		})

		Convey("When a submission is renamed", func() {
			name := "B prime"
			_, err := f.svc.UpdateSubmission(f.ctx, "bob", b.ID, types.UpdateSubmissionRequest{Name: &name})
			So(err, ShouldBeNil)

			Convey("Then its entry shows the new name", func() {
				lb, _ := f.svc.GetLeaderboard(f.ctx, f.event.ID)
				So(lb.Entries[1].ProjectName, ShouldEqual, "B prime")
			})
		})

		Convey("When a stranger deletes a submission", func() {
			err := f.svc.DeleteSubmission(f.ctx, "mallory", b.ID)
			So(errors.Is(err, errs.ErrUnauthorized), ShouldBeTrue)
		})
	})
}

func TestService_Leaderboard(t *testing.T) {
	Convey("Given a fresh event", t, func() {
		f := newFixture(t, false)

		Convey("Then its leaderboard is empty at version 0", func() {
			lb, err := f.svc.GetLeaderboard(f.ctx, f.event.ID)
			So(err, ShouldBeNil)
			So(lb.Version, ShouldEqual, 0)
			So(lb.Entries, ShouldNotBeNil)
			So(lb.Entries, ShouldBeEmpty)
		})

		Convey("Then an unknown event is not found", func() {
			_, err := f.svc.GetLeaderboard(f.ctx, "nope")
			So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
		})
	})
}

// flakyStore fails leaderboard replacement on demand.
type flakyStore struct {
	repository.Store
	mu   sync.Mutex
	fail bool
}

func (s *flakyStore) setFail(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

func (s *flakyStore) ReplaceLeaderboard(ctx context.Context, eventID string, now time.Time, build repository.BuildFunc) (model.Leaderboard, error) {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return model.Leaderboard{}, errors.New("connection reset")
	}
	return s.Store.ReplaceLeaderboard(ctx, eventID, now, build)
}

func TestService_FailedRecompute(t *testing.T) {
	Convey("Given a store whose leaderboard writes start failing", t, func() {
		store := &flakyStore{Store: repository.NewMemoryStore()}
		f := newFixture(t, false, service.WithStore(store))
		f.openVoting()
		sub := f.submission("alice", "Rocket", nil)
		_, err := f.svc.SubmitVote(f.ctx, sub.ID, "u1", 5)
		So(err, ShouldBeNil)
		before, _ := f.svc.GetLeaderboard(f.ctx, f.event.ID)
		store.setFail(true)

		Convey("When a vote triggers a recompute", func() {
			_, err := f.svc.SubmitVote(f.ctx, sub.ID, "u2", 1)

			Convey("Then the error is a store error and the prior leaderboard is kept", func() {
				So(errors.Is(err, errs.ErrStore), ShouldBeTrue)
				after, _ := f.svc.GetLeaderboard(f.ctx, f.event.ID)
				So(after.Version, ShouldEqual, before.Version)
				So(after.Entries[0].PublicVotes, ShouldEqual, 5)
			})

			Convey("And the next recompute catches up", func() {
				store.setFail(false)
				_, err := f.svc.SubmitVote(f.ctx, sub.ID, "u3", 3)
				So(err, ShouldBeNil)
				lb, _ := f.svc.GetLeaderboard(f.ctx, f.event.ID)
				So(lb.Version, ShouldEqual, before.Version+1)
				So(lb.Entries[0].PublicVotes, ShouldEqual, 3)
			})
		})
	})
}

func TestService_Subscribe(t *testing.T) {
	Convey("Given a live subscriber", t, func() {
		f := newFixture(t, false)
		f.openVoting()
		sub := f.submission("alice", "Rocket", nil)
		sess, err := f.svc.Subscribe(f.ctx, f.event.ID)
		So(err, ShouldBeNil)
		Reset(func() { f.svc.Unsubscribe(context.Background(), sess.ID) })

		ctx, cancel := context.WithTimeout(f.ctx, 5*time.Second)
		defer cancel()

		Convey("Then it first receives the current leaderboard", func() {
			first, err := sess.Next(ctx)
			So(err, ShouldBeNil)
			So(first.EventID, ShouldEqual, f.event.ID)

			Convey("And later versions arrive in increasing order", func() {
				var final int64
				for i, score := range []int{3, 4, 5, 2} {
					_, err := f.svc.SubmitVote(f.ctx, sub.ID, "u"+string(rune('a'+i)), score)
					So(err, ShouldBeNil)
				}
				lb, _ := f.svc.GetLeaderboard(f.ctx, f.event.ID)
				final = lb.Version

				last := first.Version
				for last < final {
					snap, err := sess.Next(ctx)
					So(err, ShouldBeNil)
					So(snap.Version, ShouldBeGreaterThan, last)
					last = snap.Version
				}
				So(last, ShouldEqual, final)
			})
		})

		Convey("Then an unknown event cannot be subscribed", func() {
			_, err := f.svc.Subscribe(f.ctx, "nope")
			So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
			stats := f.svc.GetStats(f.ctx)
			So(stats["liveSubscribers"], ShouldEqual, 1)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service with a one-slot outbox that is not started", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithOutboxSize(1))
		ev, err := svc.CreateEvent(ctx, "org", types.CreateEventRequest{Name: "Hack"})
		So(err, ShouldBeNil)
		_, err = svc.SetEventStatus(ctx, "org", ev.ID, model.EventJudging)
		So(err, ShouldBeNil)
		team, err := svc.CreateTeam(ctx, "alice", ev.ID, types.CreateTeamRequest{Name: "T"})
		So(err, ShouldBeNil)
		sub, err := svc.CreateSubmission(ctx, "alice", types.CreateSubmissionRequest{EventID: ev.ID, TeamID: team.ID, Name: "P"})
		So(err, ShouldBeNil)

		Convey("When more recomputes happen than the outbox holds", func() {
			_, err := svc.ChangeSubmissionStatus(ctx, "alice", sub.ID, model.SubmissionSubmitted)
			So(err, ShouldBeNil)
			_, err = svc.SubmitVote(ctx, sub.ID, "u1", 5)

			Convey("Then the mutation still succeeds", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats(ctx)
				So(stats["outboxLength"], ShouldEqual, 1)
				So(stats["started"], ShouldEqual, false)
				So(stats["submissions"], ShouldEqual, 1)
			})
		})

		Convey("When started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats(ctx)["started"], ShouldEqual, true)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it reports stopped", func() {
				So(svc.GetStats(ctx)["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_SupportingOperations(t *testing.T) {
	Convey("Given an event with a team limit of one", t, func() {
		ctx := context.Background()
		svc := service.New()
		ev, err := svc.CreateEvent(ctx, "org", types.CreateEventRequest{
			Name: "Tiny", MaxTeams: 1,
			Criteria: []types.CriterionConfig{{Name: "UX"}},
		})
		So(err, ShouldBeNil)
		So(ev.Status, ShouldEqual, model.EventUpcoming)
		So(ev.Judging.Criteria[0].MaxScore, ShouldEqual, scoring.DefaultMaxScore)

		Convey("When a second team registers", func() {
			_, err := svc.CreateTeam(ctx, "alice", ev.ID, types.CreateTeamRequest{Name: "One"})
			So(err, ShouldBeNil)
			_, err = svc.CreateTeam(ctx, "bob", ev.ID, types.CreateTeamRequest{Name: "Two"})
			So(errors.Is(err, errs.ErrTeamLimit), ShouldBeTrue)
		})

		Convey("When a team submits twice", func() {
			team, err := svc.CreateTeam(ctx, "alice", ev.ID, types.CreateTeamRequest{Name: "One"})
			So(err, ShouldBeNil)
			req := types.CreateSubmissionRequest{EventID: ev.ID, TeamID: team.ID, Name: "P"}
			_, err = svc.CreateSubmission(ctx, "alice", req)
			So(err, ShouldBeNil)
			_, err = svc.CreateSubmission(ctx, "alice", req)
			So(errors.Is(err, errs.ErrDuplicateSubmission), ShouldBeTrue)
		})

		Convey("When an outsider creates a submission for a team", func() {
			team, _ := svc.CreateTeam(ctx, "alice", ev.ID, types.CreateTeamRequest{Name: "One"})
			_, err := svc.CreateSubmission(ctx, "bob", types.CreateSubmissionRequest{EventID: ev.ID, TeamID: team.ID, Name: "P"})
			So(errors.Is(err, errs.ErrUnauthorized), ShouldBeTrue)
		})

		Convey("When a judge criterion is not configured", func() {
			team, _ := svc.CreateTeam(ctx, "alice", ev.ID, types.CreateTeamRequest{Name: "One"})
			sub, _ := svc.CreateSubmission(ctx, "alice", types.CreateSubmissionRequest{EventID: ev.ID, TeamID: team.ID, Name: "P"})
			_, err := svc.SubmitJudgeScores(ctx, sub.ID, "org", []model.ScoreRecord{{Criterion: "Speed", Score: 1}})
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})

		Convey("When someone else changes the event status", func() {
			_, err := svc.SetEventStatus(ctx, "alice", ev.ID, model.EventActive)
			So(errors.Is(err, errs.ErrUnauthorized), ShouldBeTrue)
		})

		Convey("When the organizer moves the event backwards", func() {
			_, err := svc.SetEventStatus(ctx, "org", ev.ID, model.EventActive)
			So(err, ShouldBeNil)
			_, err = svc.SetEventStatus(ctx, "org", ev.ID, model.EventUpcoming)
			So(errors.Is(err, errs.ErrInvalidTransition), ShouldBeTrue)
		})

		Convey("When a draft is approved directly", func() {
			team, _ := svc.CreateTeam(ctx, "alice", ev.ID, types.CreateTeamRequest{Name: "One"})
			sub, _ := svc.CreateSubmission(ctx, "alice", types.CreateSubmissionRequest{EventID: ev.ID, TeamID: team.ID, Name: "P"})
			_, err := svc.ChangeSubmissionStatus(ctx, "org", sub.ID, model.SubmissionApproved)
			So(errors.Is(err, errs.ErrInvalidTransition), ShouldBeTrue)
		})

		Convey("When a request fails validation", func() {
			_, err := svc.CreateEvent(ctx, "org", types.CreateEventRequest{})
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestService_ScoreInputValidation(t *testing.T) {
	Convey("Given an event without configured criteria", t, func() {
		store := repository.NewMemoryStore()
		f := newFixture(t, false, service.WithStore(store))
		f.openVoting()
		sub := f.submission("alice", "Rocket", nil)

		Convey("When a judge inflates the max score", func() {
			_, err := f.svc.SubmitJudgeScores(f.ctx, sub.ID, "j1", []model.ScoreRecord{{Criterion: "Innovation", Score: 1e9, MaxScore: 1e9}})

			Convey("Then the set is rejected and nothing is ranked", func() {
				So(errors.Is(err, errs.ErrInvalidRange), ShouldBeTrue)
				So(errs.KindOf(err), ShouldEqual, errs.ErrValidation)
				lb, err := f.svc.GetLeaderboard(f.ctx, f.event.ID)
				So(err, ShouldBeNil)
				So(lb.Entries, ShouldBeEmpty)
			})
		})

		Convey("When a judge uses a smaller max and a padded criterion name", func() {
			_, err := f.svc.SubmitJudgeScores(f.ctx, sub.ID, "j1", []model.ScoreRecord{{Criterion: " Innovation ", Score: 40, MaxScore: 50}})
			So(err, ShouldBeNil)
			_, err = f.svc.SubmitJudgeScores(f.ctx, sub.ID, "j2", []model.ScoreRecord{{Criterion: "Innovation", Score: 60}})
			So(err, ShouldBeNil)

			Convey("Then records are stored trimmed and grouped together", func() {
				stored, err := store.GetSubmission(f.ctx, sub.ID)
				So(err, ShouldBeNil)
				rec := stored.Judging.ScoreSets["j1"].Records[0]
				So(rec.Criterion, ShouldEqual, "Innovation")
				So(rec.MaxScore, ShouldEqual, 50)
				So(stored.Judging.ScoreSets["j2"].Records[0].MaxScore, ShouldEqual, scoring.DefaultMaxScore)

				groups := scoring.Breakdown(stored)
				So(groups, ShouldHaveLength, 1)
				So(groups[0].Total, ShouldEqual, 100)
			})
		})
	})

	Convey("Given an event whose criterion max is 10", t, func() {
		store := repository.NewMemoryStore()
		f := newFixture(t, false, service.WithStore(store))
		ev, err := f.svc.CreateEvent(f.ctx, "org", types.CreateEventRequest{
			Name:     "Scaled",
			Judges:   []string{"j1"},
			Criteria: []types.CriterionConfig{{Name: "Innovation", MaxScore: 10}},
		})
		So(err, ShouldBeNil)
		f.event = ev
		sub := f.submission("alice", "Rocket", nil)

		Convey("When a judge sends a different max", func() {
			_, err := f.svc.SubmitJudgeScores(f.ctx, sub.ID, "j1", []model.ScoreRecord{{Criterion: "Innovation", Score: 8, MaxScore: 1000}})
			So(err, ShouldBeNil)

			Convey("Then the stored record carries the configured max", func() {
				stored, err := store.GetSubmission(f.ctx, sub.ID)
				So(err, ShouldBeNil)
				So(stored.Judging.ScoreSets["j1"].Records[0].MaxScore, ShouldEqual, 10)
			})
		})

		Convey("When the score exceeds the configured max", func() {
			_, err := f.svc.SubmitJudgeScores(f.ctx, sub.ID, "j1", []model.ScoreRecord{{Criterion: "Innovation", Score: 11, MaxScore: 1000}})
			So(errors.Is(err, errs.ErrInvalidRange), ShouldBeTrue)
		})
	})

	Convey("Given a team creating a submission", t, func() {
		f := newFixture(t, false)
		team, err := f.svc.CreateTeam(f.ctx, "alice", f.event.ID, types.CreateTeamRequest{Name: "One"})
		So(err, ShouldBeNil)
		create := func(meta *model.Metadata) (*model.Submission, error) {
			return f.svc.CreateSubmission(f.ctx, "alice", types.CreateSubmissionRequest{
				EventID: f.event.ID, TeamID: team.ID, Name: "P", Metadata: meta,
			})
		}

		Convey("When a rating is below 1 or above 10", func() {
			for _, meta := range []*model.Metadata{
				{Innovation: model.IntPtr(0)},
				{Completeness: model.IntPtr(11)},
				{Documentation: model.IntPtr(-3)},
				{Presentation: model.IntPtr(99)},
				{LinesOfCode: model.IntPtr(-1)},
				{ContributorCount: model.IntPtr(-1)},
			} {
				_, err := create(meta)
				So(errs.KindOf(err), ShouldEqual, errs.ErrValidation)
			}
		})

		Convey("When ratings sit on the bounds", func() {
			sub, err := create(&model.Metadata{Innovation: model.IntPtr(1), Presentation: model.IntPtr(10)})
			So(err, ShouldBeNil)

			Convey("Then an update with an out-of-range rating is rejected", func() {
				_, err := f.svc.UpdateSubmission(f.ctx, "alice", sub.ID, types.UpdateSubmissionRequest{
					Metadata: &model.Metadata{Innovation: model.IntPtr(11)},
				})
				So(errs.KindOf(err), ShouldEqual, errs.ErrValidation)
				records, err := f.svc.RunAutoJudge(f.ctx, sub.ID)
				So(err, ShouldBeNil)
				So(records[0].Score, ShouldEqual, 10)
			})
		})
	})
}
