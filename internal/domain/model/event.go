package model

import (
	"slices"
	"time"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

// Event statuses, in lifecycle order.
const (
	EventUpcoming  EventStatus = "upcoming"
	EventActive    EventStatus = "active"
	EventJudging   EventStatus = "judging"
	EventCompleted EventStatus = "completed"
)

var eventOrder = map[EventStatus]int{
	EventUpcoming:  0,
	EventActive:    1,
	EventJudging:   2,
	EventCompleted: 3,
}

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	_, ok := eventOrder[s]
	return ok
}

// CanTransitionTo allows only forward moves.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	from, ok1 := eventOrder[s]
	to, ok2 := eventOrder[next]
	return ok1 && ok2 && to > from
}

// VotingOpen reports whether public votes are accepted in this state.
func (s EventStatus) VotingOpen() bool {
	return s == EventJudging || s == EventCompleted
}

// Criterion is a configured judging criterion.
type Criterion struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	MaxScore float64 `json:"maxScore"`
}

// JudgingConfig describes how an event is judged.
type JudgingConfig struct {
	Automated bool        `json:"automated"`
	Judges    []string    `json:"judges,omitempty"`
	Criteria  []Criterion `json:"criteria,omitempty"`
}

// Event is a timed competition.
type Event struct {
	ID          string
	Name        string
	Status      EventStatus
	OrganizerID string
	MaxTeams    int
	Judging     JudgingConfig
	Leaderboard Leaderboard
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsJudge reports whether userID may submit judge scores for this event.
func (e *Event) IsJudge(userID string) bool {
	return userID == e.OrganizerID || slices.Contains(e.Judging.Judges, userID)
}

// Clone returns a deep copy of e.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	out := *e
	out.Judging.Judges = slices.Clone(e.Judging.Judges)
	out.Judging.Criteria = slices.Clone(e.Judging.Criteria)
	out.Leaderboard = e.Leaderboard.Clone()
	return &out
}

// Team is a group of participants in one event.
type Team struct {
	ID        string
	EventID   string
	Name      string
	Members   []string
	CreatedAt time.Time
}

// HasMember reports whether userID belongs to the team.
func (t *Team) HasMember(userID string) bool {
	return slices.Contains(t.Members, userID)
}
