package scoring

import (
	"slices"
	"strings"
	"time"

	"github.com/okian/podium/internal/domain/errs"
	"github.com/okian/podium/internal/domain/model"
)

// Aggregate recomputes every derived field of sub from its score sets and
// votes. It is idempotent and is the only place derived fields are written.
func Aggregate(sub *model.Submission) {
	var total float64
	var count int
	for _, judgeID := range sortedJudges(sub.Judging.ScoreSets) {
		for _, r := range sub.Judging.ScoreSets[judgeID].Records {
			total += r.Score
			count++
		}
	}
	sub.Judging.TotalScore = total
	sub.Judging.AverageScore = 0
	if count > 0 {
		sub.Judging.AverageScore = total / float64(count)
	}
	if len(sub.Judging.ScoreSets) == 0 {
		sub.Judging.Status = model.JudgingPending
	}

	var votes float64
	for _, v := range sub.Voting.Votes {
		votes += float64(v.Score)
	}
	sub.Voting.Count = len(sub.Voting.Votes)
	sub.Voting.PublicVotes = 0
	if sub.Voting.Count > 0 {
		sub.Voting.PublicVotes = votes / float64(sub.Voting.Count)
	}
}

// UpsertVote records userID's vote, replacing any earlier one.
func UpsertVote(sub *model.Submission, userID string, score int, now time.Time) error {
	if score < minVote || score > maxVote {
		return errs.ErrInvalidRange
	}
	if sub.Voting.Votes == nil {
		sub.Voting.Votes = make(map[string]model.Vote)
	}
	sub.Voting.Votes[userID] = model.Vote{UserID: userID, Score: score, VotedAt: now}
	Aggregate(sub)
	return nil
}

// ReplaceJudgeScores swaps judgeID's active score set for records. judges is
// the event's configured judge list and drives the judging status.
func ReplaceJudgeScores(sub *model.Submission, judgeID string, records []model.ScoreRecord, judges []string, now time.Time) {
	if sub.Judging.ScoreSets == nil {
		sub.Judging.ScoreSets = make(map[string]model.ScoreSet)
	}
	recs := make([]model.ScoreRecord, len(records))
	for i, r := range records {
		r.JudgeID = judgeID
		if r.MaxScore == 0 {
			r.MaxScore = DefaultMaxScore
		}
		if r.ScoredAt.IsZero() {
			r.ScoredAt = now
		}
		recs[i] = r
	}
	sub.Judging.ScoreSets[judgeID] = model.ScoreSet{JudgeID: judgeID, Records: recs, SubmittedAt: now}
	sub.Judging.Status = judgingStatus(sub.Judging.ScoreSets, judges)
	Aggregate(sub)
}

// ReplaceAllScores drops every score set and installs records as the only
// set. Used for AutoJudge results, which mark the submission judged.
func ReplaceAllScores(sub *model.Submission, judgeID string, records []model.ScoreRecord, now time.Time) {
	recs := slices.Clone(records)
	sub.Judging.ScoreSets = map[string]model.ScoreSet{
		judgeID: {JudgeID: judgeID, Records: recs, SubmittedAt: now},
	}
	sub.Judging.Status = model.JudgingJudged
	Aggregate(sub)
}

// ValidateRecords checks a judge score set against the event's criteria.
// When criteria is empty any non-blank criterion name is accepted and a
// record's own MaxScore may not exceed DefaultMaxScore.
func ValidateRecords(records []model.ScoreRecord, criteria []model.Criterion) error {
	if len(records) == 0 {
		return errs.Sentinel(errs.ErrValidation, "score set is empty")
	}
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		name := strings.TrimSpace(r.Criterion)
		if name == "" {
			return errs.Sentinel(errs.ErrValidation, "criterion must not be blank")
		}
		if _, dup := seen[name]; dup {
			return errs.Sentinel(errs.ErrValidation, "criterion "+name+" scored twice")
		}
		seen[name] = struct{}{}

		maxScore, err := recordMax(name, r.MaxScore, criteria)
		if err != nil {
			return err
		}
		if r.Score < 0 || r.Score > maxScore {
			return errs.ErrInvalidRange
		}
	}
	return nil
}

// NormalizeRecords returns copies of validated records attributed to judgeID,
// with trimmed criterion names and the max each record was validated against.
func NormalizeRecords(records []model.ScoreRecord, criteria []model.Criterion, judgeID string) []model.ScoreRecord {
	out := make([]model.ScoreRecord, len(records))
	for i, r := range records {
		r.Criterion = strings.TrimSpace(r.Criterion)
		if m, err := recordMax(r.Criterion, r.MaxScore, criteria); err == nil {
			r.MaxScore = m
		}
		r.JudgeID = judgeID
		out[i] = r
	}
	return out
}

// recordMax resolves the max a record is scored against. Configured criteria
// win over the client's value.
func recordMax(name string, clientMax float64, criteria []model.Criterion) (float64, error) {
	if len(criteria) > 0 {
		i := slices.IndexFunc(criteria, func(c model.Criterion) bool { return c.Name == name })
		if i < 0 {
			return 0, errs.Sentinel(errs.ErrValidation, "unknown criterion "+name)
		}
		if criteria[i].MaxScore > 0 {
			return criteria[i].MaxScore, nil
		}
		return DefaultMaxScore, nil
	}
	if clientMax < 0 || clientMax > DefaultMaxScore {
		return 0, errs.ErrInvalidRange
	}
	if clientMax == 0 {
		return DefaultMaxScore, nil
	}
	return clientMax, nil
}

// Breakdown summarises every active record per criterion, sorted by name.
func Breakdown(sub *model.Submission) []model.CriterionScore {
	byName := make(map[string]*model.CriterionScore)
	for _, judgeID := range sortedJudges(sub.Judging.ScoreSets) {
		for _, r := range sub.Judging.ScoreSets[judgeID].Records {
			cs, ok := byName[r.Criterion]
			if !ok {
				cs = &model.CriterionScore{Criterion: r.Criterion}
				byName[r.Criterion] = cs
			}
			cs.Total += r.Score
			cs.Count++
		}
	}
	out := make([]model.CriterionScore, 0, len(byName))
	for _, cs := range byName {
		cs.Average = cs.Total / float64(cs.Count)
		out = append(out, *cs)
	}
	slices.SortFunc(out, func(a, b model.CriterionScore) int { return strings.Compare(a.Criterion, b.Criterion) })
	return out
}

// CombinedScore is the ranking key: judge total plus weighted public votes.
func CombinedScore(sub *model.Submission) float64 {
	return sub.Judging.TotalScore + sub.Voting.PublicVotes*PublicVoteWeight
}

func judgingStatus(sets map[string]model.ScoreSet, judges []string) model.JudgingStatus {
	if len(sets) == 0 {
		return model.JudgingPending
	}
	if _, ok := sets[AutoJudgeID]; ok {
		return model.JudgingJudged
	}
	if len(judges) == 0 {
		return model.JudgingActive
	}
	for _, j := range judges {
		if _, ok := sets[j]; !ok {
			return model.JudgingActive
		}
	}
	return model.JudgingJudged
}

func sortedJudges(sets map[string]model.ScoreSet) []string {
	ids := make([]string, 0, len(sets))
	for id := range sets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
