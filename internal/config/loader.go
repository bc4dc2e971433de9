package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "PODIUM_"
	envConfig  = "PODIUM_CONFIG"
	envDotfile = "PODIUM_ENV_FILE"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if PODIUM_CONFIG is set
//  3. env (prefix PODIUM_), after a .env file has been merged into the
//     process environment without overriding variables already set
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	dotfile := os.Getenv(envDotfile)
	if dotfile == "" {
		dotfile = ".env"
	}
	if err := godotenv.Load(dotfile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: env file %s: %w", ErrLoadConfig, dotfile, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PODIUM_OUTBOX_SIZE -> outbox_size; keys are flat so underscores stay.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StorePostgres:
		return fmt.Errorf("%w: store must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StorePostgres, c.Store)
	case c.Store == StorePostgres && c.PostgresDSN == "":
		return fmt.Errorf("%w: postgres_dsn is required for the postgres store", ErrInvalidConfig)
	case c.JWTSecret == "":
		return fmt.Errorf("%w: jwt_secret must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	case c.OutboxSize < 1, c.WorkerCount < 1, c.SubscriberBuffer < 1, c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: outbox_size, worker_count, subscriber_buffer and max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.VoteRateLimit <= 0 || c.VoteRateBurst < 1:
		return fmt.Errorf("%w: vote_rate_limit and vote_rate_burst must be positive", ErrInvalidConfig)
	case c.MetricsIntervalSeconds < 1:
		return fmt.Errorf("%w: metrics_interval_seconds must be positive", ErrInvalidConfig)
	}
	return nil
}
