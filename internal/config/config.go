// Package config defines service configuration and its loading.
//
// Values are layered defaults -> optional YAML file -> environment, see Load.
package config

import (
	"context"
	"runtime"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the backend: memory or postgres.
	Store string `koanf:"store"`

	// PostgresDSN is required when Store is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// NATSURL enables cross-instance broadcast when set.
	NATSURL string `koanf:"nats_url"`

	// NATSSubject is the subject prefix for leaderboard snapshots.
	NATSSubject string `koanf:"nats_subject"`

	// JWTSecret signs and verifies HS256 bearer tokens.
	JWTSecret string `koanf:"jwt_secret"`

	// OutboxSize bounds the broadcast outbox.
	OutboxSize int `koanf:"outbox_size"`

	// WorkerCount sets the number of broadcast delivery workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the snapshot dedupe cache.
	DedupeSize int `koanf:"dedupe_size"`

	// SubscriberBuffer bounds each live session's mailbox.
	SubscriberBuffer int `koanf:"subscriber_buffer"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// VoteRateLimit is the sustained votes/scores per second allowed per user.
	VoteRateLimit float64 `koanf:"vote_rate_limit"`
	VoteRateBurst int     `koanf:"vote_rate_burst"`

	// MetricsIntervalSeconds sets how often system metrics are sampled.
	MetricsIntervalSeconds int `koanf:"metrics_interval_seconds"`
}

// New returns a Config populated with defaults. Context is accepted first to
// follow the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		Store:                  StoreMemory,
		NATSSubject:            "podium.leaderboard",
		JWTSecret:              "podium-dev-secret",
		OutboxSize:             10_000,
		WorkerCount:            runtime.NumCPU(),
		DedupeSize:             100_000,
		SubscriberBuffer:       16,
		MaxLeaderboardLimit:    100,
		VoteRateLimit:          5,
		VoteRateBurst:          10,
		MetricsIntervalSeconds: 15,
	}
}
