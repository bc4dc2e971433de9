package types_test

import (
	"testing"

	"github.com/okian/podium/internal/domain/model"
	types "github.com/okian/podium/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestToLeaderboardResponse(t *testing.T) {
	Convey("Given a leaderboard with three entries", t, func() {
		lb := model.Leaderboard{Version: 4, Entries: []model.LeaderboardEntry{
			{Rank: 1, SubmissionID: "a"}, {Rank: 2, SubmissionID: "b"}, {Rank: 3, SubmissionID: "c"},
		}}

		Convey("When a limit is given", func() {
			resp := types.ToLeaderboardResponse("e1", lb, 2)

			Convey("Then only the top entries are returned", func() {
				So(resp.Entries, ShouldHaveLength, 2)
				So(resp.Version, ShouldEqual, 4)
				So(resp.EventID, ShouldEqual, "e1")
			})
		})

		Convey("When the limit is zero or larger than the board", func() {
			So(types.ToLeaderboardResponse("e1", lb, 0).Entries, ShouldHaveLength, 3)
			So(types.ToLeaderboardResponse("e1", lb, 10).Entries, ShouldHaveLength, 3)
		})
	})

	Convey("Given an empty leaderboard", t, func() {
		resp := types.ToLeaderboardResponse("e1", model.Leaderboard{}, 5)

		Convey("Then entries is an empty, non-nil slice", func() {
			So(resp.Entries, ShouldNotBeNil)
			So(resp.Entries, ShouldBeEmpty)
		})
	})
}

func TestToSubmissionResponse(t *testing.T) {
	Convey("Given a scored submission", t, func() {
		sub := &model.Submission{
			ID:      "s1",
			Status:  model.SubmissionSubmitted,
			Judging: model.Judging{Status: model.JudgingJudged, TotalScore: 140, AverageScore: 70},
			Voting:  model.Voting{PublicVotes: 4.5, Count: 2},
		}
		resp := types.ToSubmissionResponse(sub)

		So(resp.Status, ShouldEqual, "submitted")
		So(resp.JudgingStatus, ShouldEqual, "judged")
		So(resp.TotalScore, ShouldEqual, 140)
		So(resp.PublicVotes, ShouldEqual, 4.5)
		So(resp.VoteCount, ShouldEqual, 2)
	})
}
