// Package types contains the JSON wire types shared by the HTTP API and its clients.
package types

import (
	"time"

	"github.com/okian/podium/internal/domain/model"
)

// CreateEventRequest is the body of POST /api/events.
type CreateEventRequest struct {
	Name      string            `json:"name" validate:"required,max=200"`
	MaxTeams  int               `json:"maxTeams" validate:"gte=0"`
	Automated bool              `json:"automated"`
	Judges    []string          `json:"judges" validate:"dive,required"`
	Criteria  []CriterionConfig `json:"criteria" validate:"dive"`
}

// CriterionConfig is a configured judging criterion on the wire.
type CriterionConfig struct {
	Name     string  `json:"name" validate:"required"`
	Weight   float64 `json:"weight" validate:"gte=0"`
	MaxScore float64 `json:"maxScore" validate:"gte=0"`
}

// SetEventStatusRequest is the body of PATCH /api/events/{id}/status.
type SetEventStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=upcoming active judging completed"`
}

// EventResponse describes an event.
type EventResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Status      string            `json:"status"`
	OrganizerID string            `json:"organizerId"`
	MaxTeams    int               `json:"maxTeams"`
	Automated   bool              `json:"automated"`
	Judges      []string          `json:"judges,omitempty"`
	Criteria    []CriterionConfig `json:"criteria,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// CreateTeamRequest is the body of POST /api/events/{id}/teams.
type CreateTeamRequest struct {
	Name    string   `json:"name" validate:"required,max=200"`
	Members []string `json:"members" validate:"dive,required"`
}

// TeamResponse describes a team.
type TeamResponse struct {
	ID      string   `json:"id"`
	EventID string   `json:"eventId"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// CreateSubmissionRequest is the body of POST /api/submissions.
type CreateSubmissionRequest struct {
	EventID     string          `json:"eventId" validate:"required"`
	TeamID      string          `json:"teamId" validate:"required"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Metadata    *model.Metadata `json:"metadata" validate:"omitnil"`
}

// UpdateSubmissionRequest is the body of PATCH /api/submissions/{id}.
// Nil fields are left unchanged.
type UpdateSubmissionRequest struct {
	Name        *string         `json:"name" validate:"omitnil,min=1,max=200"`
	Description *string         `json:"description" validate:"omitnil,max=5000"`
	Metadata    *model.Metadata `json:"metadata" validate:"omitnil"`
}

// ChangeStatusRequest is the body of POST /api/submissions/{id}/status.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft submitted under-review approved rejected"`
}

// SubmissionResponse describes a submission.
type SubmissionResponse struct {
	ID            string          `json:"id"`
	EventID       string          `json:"eventId"`
	TeamID        string          `json:"teamId"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Metadata      *model.Metadata `json:"metadata,omitempty"`
	Status        string          `json:"status"`
	JudgingStatus string          `json:"judgingStatus"`
	TotalScore    float64         `json:"totalScore"`
	AverageScore  float64         `json:"averageScore"`
	PublicVotes   float64         `json:"publicVotes"`
	VoteCount     int             `json:"voteCount"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// VoteRequest is the body of POST /api/submissions/{id}/votes.
type VoteRequest struct {
	Score int `json:"score"`
}

// VoteResponse reports the new mean public vote.
type VoteResponse struct {
	SubmissionID string  `json:"submissionId"`
	PublicVotes  float64 `json:"publicVotes"`
}

// ScoreInput is one criterion score in a judge submission.
type ScoreInput struct {
	Criterion string  `json:"criterion"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"maxScore,omitempty"`
	Feedback  string  `json:"feedback,omitempty" validate:"max=2000"`
}

// JudgeScoresRequest is the body of POST /api/submissions/{id}/scores.
type JudgeScoresRequest struct {
	Scores []ScoreInput `json:"scores" validate:"dive"`
}

// JudgeScoresResponse reports the submission's new judge total.
type JudgeScoresResponse struct {
	SubmissionID string  `json:"submissionId"`
	TotalScore   float64 `json:"totalScore"`
}

// AutoJudgeResponse lists the records AutoJudge produced.
type AutoJudgeResponse struct {
	SubmissionID string              `json:"submissionId"`
	Records      []model.ScoreRecord `json:"records"`
}

// LeaderboardResponse is the body of GET /api/events/{id}/leaderboard.
type LeaderboardResponse struct {
	EventID    string                   `json:"eventId"`
	Version    int64                    `json:"version"`
	ComputedAt time.Time                `json:"computedAt"`
	Entries    []model.LeaderboardEntry `json:"entries"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToEventResponse converts a domain event.
func ToEventResponse(e *model.Event) EventResponse {
	crit := make([]CriterionConfig, len(e.Judging.Criteria))
	for i, c := range e.Judging.Criteria {
		crit[i] = CriterionConfig{Name: c.Name, Weight: c.Weight, MaxScore: c.MaxScore}
	}
	return EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Status:      string(e.Status),
		OrganizerID: e.OrganizerID,
		MaxTeams:    e.MaxTeams,
		Automated:   e.Judging.Automated,
		Judges:      e.Judging.Judges,
		Criteria:    crit,
		CreatedAt:   e.CreatedAt,
	}
}

// ToTeamResponse converts a domain team.
func ToTeamResponse(t *model.Team) TeamResponse {
	return TeamResponse{ID: t.ID, EventID: t.EventID, Name: t.Name, Members: t.Members}
}

// ToSubmissionResponse converts a domain submission.
func ToSubmissionResponse(s *model.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:            s.ID,
		EventID:       s.EventID,
		TeamID:        s.TeamID,
		Name:          s.Name,
		Description:   s.Description,
		Metadata:      s.Metadata,
		Status:        string(s.Status),
		JudgingStatus: string(s.Judging.Status),
		TotalScore:    s.Judging.TotalScore,
		AverageScore:  s.Judging.AverageScore,
		PublicVotes:   s.Voting.PublicVotes,
		VoteCount:     s.Voting.Count,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// ToLeaderboardResponse converts a leaderboard, keeping at most limit entries when limit > 0.
func ToLeaderboardResponse(eventID string, lb model.Leaderboard, limit int) LeaderboardResponse {
	entries := lb.Entries
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return LeaderboardResponse{EventID: eventID, Version: lb.Version, ComputedAt: lb.ComputedAt, Entries: entries}
}
