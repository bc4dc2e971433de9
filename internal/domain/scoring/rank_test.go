package scoring

import (
	"testing"
	"time"

	"github.com/okian/podium/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func submitted(id string, total float64, created time.Time) *model.Submission {
	return &model.Submission{
		ID:          id,
		TeamID:      "team-" + id,
		Name:        "project " + id,
		Status:      model.SubmissionSubmitted,
		Judging:     model.Judging{TotalScore: total},
		CreatedAt:   created,
		SubmittedAt: created,
	}
}

func ids(entries []model.LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.SubmissionID
	}
	return out
}

func TestRank(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := t0.Add(time.Hour)

	Convey("Given submissions with tied scores", t, func() {
		a := submitted("a", 185, t0)
		b := submitted("b", 185, t0.Add(time.Second))
		c := submitted("c", 90, t0.Add(2*time.Second))

		Convey("When ranking without a prior leaderboard", func() {
			board := Rank([]*model.Submission{c, b, a}, nil, now)

			Convey("Then ranks are dense and ties break by submission time", func() {
				So(ids(board), ShouldResemble, []string{"a", "b", "c"})
				for i, e := range board {
					So(e.Rank, ShouldEqual, i+1)
					So(e.UpdatedAt, ShouldEqual, now)
				}
			})
		})

		Convey("When a prior leaderboard had b ahead of a", func() {
			prior := []model.LeaderboardEntry{{SubmissionID: "b", Rank: 1}, {SubmissionID: "a", Rank: 2}}
			board := Rank([]*model.Submission{a, b, c}, prior, now)

			Convey("Then the prior order is kept", func() {
				So(ids(board), ShouldResemble, []string{"b", "a", "c"})
			})
		})

		Convey("When only the later submission was ranked before", func() {
			prior := []model.LeaderboardEntry{{SubmissionID: "b", Rank: 1}}
			board := Rank([]*model.Submission{a, b, c}, prior, now)

			Convey("Then the previously ranked entry stays ahead", func() {
				So(ids(board), ShouldResemble, []string{"b", "a", "c"})
			})
		})

		Convey("When ranking twice with the same input", func() {
			first := Rank([]*model.Submission{a, b, c}, nil, now)
			second := Rank([]*model.Submission{c, a, b}, first, now)

			Convey("Then the order is stable", func() {
				So(ids(second), ShouldResemble, ids(first))
			})
		})
	})

	Convey("Given submissions that are not eligible", t, func() {
		draft := submitted("draft", 100, t0)
		draft.Status = model.SubmissionDraft
		approved := submitted("approved", 100, t0)
		approved.Status = model.SubmissionApproved
		zero := submitted("zero", 0, t0)
		voted := submitted("voted", 0, t0)
		voted.Voting.PublicVotes = 2

		board := Rank([]*model.Submission{draft, approved, zero, voted, nil}, nil, now)

		Convey("Then only submitted entries with a positive combined score appear", func() {
			So(ids(board), ShouldResemble, []string{"voted"})
			So(board[0].CombinedScore, ShouldEqual, 20)
			So(board[0].ProjectName, ShouldEqual, "project voted")
			So(board[0].TeamID, ShouldEqual, "team-voted")
		})
	})

	Convey("Given the scoring scenario", t, func() {
		sub := &model.Submission{ID: "s", Status: model.SubmissionSubmitted}
		ReplaceJudgeScores(sub, "j1", []model.ScoreRecord{{Criterion: "Innovation", Score: 80}}, nil, t0)
		ReplaceJudgeScores(sub, "j2", []model.ScoreRecord{{Criterion: "Innovation", Score: 60}}, nil, t0)
		So(UpsertVote(sub, "u1", 4, t0), ShouldBeNil)
		So(UpsertVote(sub, "u2", 5, t0), ShouldBeNil)

		board := Rank([]*model.Submission{sub}, nil, now)

		So(board, ShouldHaveLength, 1)
		So(board[0].TotalScore, ShouldEqual, 140)
		So(board[0].PublicVotes, ShouldEqual, 4.5)
		So(board[0].CombinedScore, ShouldEqual, 185)
		So(board[0].Criteria, ShouldHaveLength, 1)
		So(board[0].Criteria[0].Average, ShouldEqual, 70)
	})

	Convey("Given no submissions", t, func() {
		So(Rank(nil, nil, now), ShouldBeEmpty)
	})
}
