package model

import (
	"slices"
	"time"
)

// CriterionScore is the per-criterion breakdown shown on a leaderboard entry.
type CriterionScore struct {
	Criterion string  `json:"criterion"`
	Total     float64 `json:"total"`
	Average   float64 `json:"average"`
	Count     int     `json:"count"`
}

// LeaderboardEntry is one ranked submission.
type LeaderboardEntry struct {
	Rank          int              `json:"rank"`
	TeamID        string           `json:"teamId"`
	SubmissionID  string           `json:"submissionId"`
	ProjectName   string           `json:"projectName"`
	TotalScore    float64          `json:"totalScore"`
	PublicVotes   float64          `json:"publicVotes"`
	CombinedScore float64          `json:"combinedScore"`
	Criteria      []CriterionScore `json:"criteria,omitempty"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Leaderboard is an event's ranked entries. It is only ever replaced whole.
type Leaderboard struct {
	Entries    []LeaderboardEntry `json:"entries"`
	Version    int64              `json:"version"`
	ComputedAt time.Time          `json:"computedAt"`
}

// Clone returns a deep copy of l.
func (l Leaderboard) Clone() Leaderboard {
	out := l
	out.Entries = make([]LeaderboardEntry, len(l.Entries))
	for i, e := range l.Entries {
		e.Criteria = slices.Clone(e.Criteria)
		out.Entries[i] = e
	}
	return out
}

// Snapshot is the broadcast form of a leaderboard.
type Snapshot struct {
	EventID    string             `json:"eventId"`
	Version    int64              `json:"version"`
	Entries    []LeaderboardEntry `json:"entries"`
	ComputedAt time.Time          `json:"computedAt"`
}

// Snapshot returns the broadcast form of l for eventID.
func (l Leaderboard) Snapshot(eventID string) Snapshot {
	c := l.Clone()
	return Snapshot{EventID: eventID, Version: c.Version, Entries: c.Entries, ComputedAt: c.ComputedAt}
}

// Broadcast is an outbox item: a snapshot addressed to a channel.
type Broadcast struct {
	EventID  string   `json:"eventId"`
	Channel  string   `json:"channel"`
	Snapshot Snapshot `json:"snapshot"`
}

// LeaderboardChannel names the real-time channel for an event's leaderboard.
func LeaderboardChannel(eventID string) string {
	return "leaderboard." + eventID
}
