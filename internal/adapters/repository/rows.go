package repository

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/okian/podium/internal/domain/model"
)

type eventRow struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID          string              `bun:"id,pk"`
	Name        string              `bun:"name,notnull"`
	Status      string              `bun:"status,notnull"`
	OrganizerID string              `bun:"organizer_id,notnull"`
	MaxTeams    int                 `bun:"max_teams,notnull"`
	Judging     model.JudgingConfig `bun:"judging,type:jsonb,notnull"`
	Leaderboard model.Leaderboard   `bun:"leaderboard,type:jsonb,notnull"`
	CreatedAt   time.Time           `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time           `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newEventRow(ev *model.Event) *eventRow {
	lb := ev.Leaderboard.Clone()
	return &eventRow{
		ID:          ev.ID,
		Name:        ev.Name,
		Status:      string(ev.Status),
		OrganizerID: ev.OrganizerID,
		MaxTeams:    ev.MaxTeams,
		Judging:     ev.Judging,
		Leaderboard: lb,
		CreatedAt:   ev.CreatedAt,
		UpdatedAt:   ev.UpdatedAt,
	}
}

func (r *eventRow) toModel() *model.Event {
	ev := &model.Event{
		ID:          r.ID,
		Name:        r.Name,
		Status:      model.EventStatus(r.Status),
		OrganizerID: r.OrganizerID,
		MaxTeams:    r.MaxTeams,
		Judging:     r.Judging,
		Leaderboard: r.Leaderboard,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if ev.Leaderboard.Entries == nil {
		ev.Leaderboard.Entries = []model.LeaderboardEntry{}
	}
	return ev
}

type teamRow struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID        string    `bun:"id,pk"`
	EventID   string    `bun:"event_id,notnull"`
	Name      string    `bun:"name,notnull"`
	Members   []string  `bun:"members,array"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func newTeamRow(t *model.Team) *teamRow {
	members := t.Members
	if members == nil {
		members = []string{}
	}
	return &teamRow{ID: t.ID, EventID: t.EventID, Name: t.Name, Members: members, CreatedAt: t.CreatedAt}
}

func (r *teamRow) toModel() *model.Team {
	return &model.Team{ID: r.ID, EventID: r.EventID, Name: r.Name, Members: r.Members, CreatedAt: r.CreatedAt}
}

type submissionRow struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID          string          `bun:"id,pk"`
	EventID     string          `bun:"event_id,notnull"`
	TeamID      string          `bun:"team_id,notnull"`
	Name        string          `bun:"name,notnull"`
	Description string          `bun:"description,notnull"`
	Metadata    *model.Metadata `bun:"metadata,type:jsonb"`
	Status      string          `bun:"status,notnull"`
	Judging     model.Judging   `bun:"judging,type:jsonb,notnull"`
	Voting      model.Voting    `bun:"voting,type:jsonb,notnull"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	SubmittedAt time.Time       `bun:"submitted_at,nullzero"`
}

func newSubmissionRow(s *model.Submission) *submissionRow {
	return &submissionRow{
		ID:          s.ID,
		EventID:     s.EventID,
		TeamID:      s.TeamID,
		Name:        s.Name,
		Description: s.Description,
		Metadata:    s.Metadata,
		Status:      string(s.Status),
		Judging:     s.Judging,
		Voting:      s.Voting,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		SubmittedAt: s.SubmittedAt,
	}
}

func (r *submissionRow) toModel() *model.Submission {
	return &model.Submission{
		ID:          r.ID,
		EventID:     r.EventID,
		TeamID:      r.TeamID,
		Name:        r.Name,
		Description: r.Description,
		Metadata:    r.Metadata,
		Status:      model.SubmissionStatus(r.Status),
		Judging:     r.Judging,
		Voting:      r.Voting,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		SubmittedAt: r.SubmittedAt,
	}
}
