// Package scoring turns judge scores, public votes and project metadata into
// submission totals and ranked leaderboards.
//
// Everything here is pure: functions mutate only the submission they are
// handed and never touch storage, clocks or the network. Callers supply
// timestamps.
package scoring

// Scoring constants.
const (
	// PublicVoteWeight scales the mean public vote into combined-score points.
	PublicVoteWeight = 10
	// DefaultMaxScore applies to records that do not carry their own max.
	DefaultMaxScore = 100

	minVote = 1
	maxVote = 5
)
