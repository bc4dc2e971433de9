package loadtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/podium/internal/domain/scoring"
	"github.com/okian/podium/internal/domain/types"
)

const tolerance = 1e-6

// ErrMismatch is returned when the leaderboard disagrees with the scenario.
var ErrMismatch = errors.New("leaderboard mismatch")

// Verify checks lb against what sc must have produced: positional ranks,
// non-increasing combined scores, combined = total + votes x weight, and
// per-submission totals matching the planned scores and votes.
func Verify(lb types.LeaderboardResponse, sc *Scenario, subIDs []string) error {
	expected := sc.Expect()
	bySub := make(map[string]Expected, len(subIDs))
	eligible := 0
	for i, id := range subIDs {
		bySub[id] = expected[i]
		if expected[i].TotalScore+expected[i].PublicVotes*scoring.PublicVoteWeight > 0 {
			eligible++
		}
	}
	if len(lb.Entries) != eligible {
		return fmt.Errorf("%w: %d entries, want %d", ErrMismatch, len(lb.Entries), eligible)
	}

	seen := make(map[string]struct{}, len(lb.Entries))
	for i, e := range lb.Entries {
		if e.Rank != i+1 {
			return fmt.Errorf("%w: entry %d has rank %d", ErrMismatch, i, e.Rank)
		}
		if i > 0 && e.CombinedScore > lb.Entries[i-1].CombinedScore+tolerance {
			return fmt.Errorf("%w: rank %d outscores rank %d", ErrMismatch, e.Rank, e.Rank-1)
		}
		if !near(e.CombinedScore, e.TotalScore+e.PublicVotes*scoring.PublicVoteWeight) {
			return fmt.Errorf("%w: rank %d combined %.3f is not total + weighted votes", ErrMismatch, e.Rank, e.CombinedScore)
		}
		want, ok := bySub[e.SubmissionID]
		if !ok {
			return fmt.Errorf("%w: unknown submission %s", ErrMismatch, e.SubmissionID)
		}
		if _, dup := seen[e.SubmissionID]; dup {
			return fmt.Errorf("%w: submission %s listed twice", ErrMismatch, e.SubmissionID)
		}
		seen[e.SubmissionID] = struct{}{}
		if !near(e.TotalScore, want.TotalScore) || !near(e.PublicVotes, want.PublicVotes) {
			return fmt.Errorf("%w: submission %s has %.3f/%.3f, want %.3f/%.3f", ErrMismatch,
				e.SubmissionID, e.TotalScore, e.PublicVotes, want.TotalScore, want.PublicVotes)
		}
	}
	return nil
}

func near(a, b float64) bool { return math.Abs(a-b) <= tolerance }
