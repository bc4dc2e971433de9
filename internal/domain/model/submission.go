// Package model contains domain models passed between layers.
package model

import "time"

// SubmissionStatus is the lifecycle state of a submission.
type SubmissionStatus string

// Submission statuses.
const (
	SubmissionDraft       SubmissionStatus = "draft"
	SubmissionSubmitted   SubmissionStatus = "submitted"
	SubmissionUnderReview SubmissionStatus = "under-review"
	SubmissionApproved    SubmissionStatus = "approved"
	SubmissionRejected    SubmissionStatus = "rejected"
)

// submissionTransitions lists allowed moves. Anything absent is rejected.
var submissionTransitions = map[SubmissionStatus][]SubmissionStatus{
	SubmissionDraft:       {SubmissionSubmitted},
	SubmissionSubmitted:   {SubmissionDraft, SubmissionUnderReview, SubmissionRejected},
	SubmissionUnderReview: {SubmissionApproved, SubmissionRejected, SubmissionSubmitted},
}

// Valid reports whether s is a known status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionDraft, SubmissionSubmitted, SubmissionUnderReview, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	for _, allowed := range submissionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// JudgingStatus summarises how far judging has progressed for a submission.
type JudgingStatus string

// Judging statuses.
const (
	JudgingPending JudgingStatus = "pending"
	JudgingActive  JudgingStatus = "judging"
	JudgingJudged  JudgingStatus = "judged"
)

// Metadata is the self-reported project information AutoJudge scores from.
// Pointer fields are optional; nil means "not provided".
type Metadata struct {
	Technologies     []string `json:"technologies,omitempty"`
	LinesOfCode      *int     `json:"linesOfCode,omitempty" validate:"omitnil,gte=0"`
	ContributorCount *int     `json:"contributorCount,omitempty" validate:"omitnil,gte=0"`
	Innovation       *int     `json:"innovation,omitempty" validate:"omitnil,min=1,max=10"`
	Completeness     *int     `json:"completeness,omitempty" validate:"omitnil,min=1,max=10"`
	Documentation    *int     `json:"documentation,omitempty" validate:"omitnil,min=1,max=10"`
	Presentation     *int     `json:"presentation,omitempty" validate:"omitnil,min=1,max=10"`
}

// ScoreRecord is one judge's score on one criterion.
type ScoreRecord struct {
	Criterion string    `json:"criterion"`
	Score     float64   `json:"score"`
	MaxScore  float64   `json:"maxScore"`
	JudgeID   string    `json:"judgeId"`
	Feedback  string    `json:"feedback,omitempty"`
	ScoredAt  time.Time `json:"scoredAt"`
}

// ScoreSet is the active set of records submitted by a single judge.
type ScoreSet struct {
	JudgeID     string        `json:"judgeId"`
	Records     []ScoreRecord `json:"records"`
	SubmittedAt time.Time     `json:"submittedAt"`
}

// Judging holds every judge's current score set and the derived totals.
type Judging struct {
	Status       JudgingStatus       `json:"status"`
	ScoreSets    map[string]ScoreSet `json:"scoreSets,omitempty"`
	TotalScore   float64             `json:"totalScore"`
	AverageScore float64             `json:"averageScore"`
}

// Vote is one user's public vote.
type Vote struct {
	UserID  string    `json:"userId"`
	Score   int       `json:"score"`
	VotedAt time.Time `json:"votedAt"`
}

// Voting holds the current vote per user and the derived mean.
type Voting struct {
	Votes       map[string]Vote `json:"votes,omitempty"`
	PublicVotes float64         `json:"publicVotes"`
	Count       int             `json:"count"`
}

// Submission is a team's project entry for an event.
type Submission struct {
	ID          string
	EventID     string
	TeamID      string
	Name        string
	Description string
	Metadata    *Metadata
	Status      SubmissionStatus
	Judging     Judging
	Voting      Voting
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SubmittedAt time.Time
}

// Clone returns a deep copy of s.
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	out := *s
	out.Metadata = s.Metadata.Clone()
	if s.Judging.ScoreSets != nil {
		out.Judging.ScoreSets = make(map[string]ScoreSet, len(s.Judging.ScoreSets))
		for id, set := range s.Judging.ScoreSets {
			set.Records = append([]ScoreRecord(nil), set.Records...)
			out.Judging.ScoreSets[id] = set
		}
	}
	if s.Voting.Votes != nil {
		out.Voting.Votes = make(map[string]Vote, len(s.Voting.Votes))
		for id, v := range s.Voting.Votes {
			out.Voting.Votes[id] = v
		}
	}
	return &out
}

// Clone returns a deep copy of m.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	out := *m
	out.Technologies = append([]string(nil), m.Technologies...)
	out.LinesOfCode = cloneInt(m.LinesOfCode)
	out.ContributorCount = cloneInt(m.ContributorCount)
	out.Innovation = cloneInt(m.Innovation)
	out.Completeness = cloneInt(m.Completeness)
	out.Documentation = cloneInt(m.Documentation)
	out.Presentation = cloneInt(m.Presentation)
	return &out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IntPtr is a small helper for building optional metadata fields.
func IntPtr(v int) *int { return &v }
