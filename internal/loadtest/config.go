package loadtest

import (
	"sync/atomic"
	"time"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	JWTSecret  string        // HS256 secret shared with the service
	Teams      int           // Teams (one submission each)
	Judges     int           // Judges configured on the event
	Voters     int           // Distinct public voters
	Workers    int           // Concurrent requests in flight
	Timeout    time.Duration // HTTP request timeout
	Seed       int64         // Faker seed; 0 picks one from the clock
	Watch      bool          // Follow the live feed during the run
	OutputFile string        // Scenario dump, skipped when empty
	Verbose    bool          // Enable verbose logging
}

// Stats holds run counters. Counters are updated concurrently.
type Stats struct {
	Requests    atomic.Int64
	Failed      atomic.Int64
	RateLimited atomic.Int64
	Votes       atomic.Int64
	ScoreSets   atomic.Int64
	LiveFrames  atomic.Int64

	StartTime time.Time
	Duration  time.Duration
}
