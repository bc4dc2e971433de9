package scoring

import (
	"cmp"
	"slices"
	"time"

	"github.com/okian/podium/internal/domain/model"
)

type candidate struct {
	sub       *model.Submission
	combined  float64
	priorRank int // 0 when not on the previous leaderboard
}

// Rank builds a fresh leaderboard from subs. Only submitted entries with a
// positive combined score are ranked. Equal scores keep the order they had
// on prior; entries that were ranked before stay ahead of newcomers, and
// newcomers fall back to submission time, creation time and ID.
func Rank(subs []*model.Submission, prior []model.LeaderboardEntry, now time.Time) []model.LeaderboardEntry {
	priorRank := make(map[string]int, len(prior))
	for _, e := range prior {
		priorRank[e.SubmissionID] = e.Rank
	}

	cands := make([]candidate, 0, len(subs))
	for _, s := range subs {
		if s == nil || s.Status != model.SubmissionSubmitted {
			continue
		}
		combined := CombinedScore(s)
		if combined <= 0 {
			continue
		}
		cands = append(cands, candidate{sub: s, combined: combined, priorRank: priorRank[s.ID]})
	}

	slices.SortStableFunc(cands, compareCandidates)

	out := make([]model.LeaderboardEntry, len(cands))
	for i, c := range cands {
		out[i] = model.LeaderboardEntry{
			Rank:          i + 1,
			TeamID:        c.sub.TeamID,
			SubmissionID:  c.sub.ID,
			ProjectName:   c.sub.Name,
			TotalScore:    c.sub.Judging.TotalScore,
			PublicVotes:   c.sub.Voting.PublicVotes,
			CombinedScore: c.combined,
			Criteria:      Breakdown(c.sub),
			UpdatedAt:     now,
		}
	}
	return out
}

func compareCandidates(a, b candidate) int {
	if a.combined != b.combined {
		return cmp.Compare(b.combined, a.combined)
	}
	switch {
	case a.priorRank > 0 && b.priorRank > 0:
		return cmp.Compare(a.priorRank, b.priorRank)
	case a.priorRank > 0:
		return -1
	case b.priorRank > 0:
		return 1
	}
	if c := a.sub.SubmittedAt.Compare(b.sub.SubmittedAt); c != 0 {
		return c
	}
	if c := a.sub.CreatedAt.Compare(b.sub.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.sub.ID, b.sub.ID)
}
