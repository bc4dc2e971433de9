package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS events (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					status TEXT NOT NULL,
					organizer_id TEXT NOT NULL,
					max_teams INTEGER NOT NULL DEFAULT 0,
					judging JSONB NOT NULL DEFAULT '{}'::jsonb,
					leaderboard JSONB NOT NULL DEFAULT '{"entries":[],"version":0}'::jsonb,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create events table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS teams (
					id TEXT PRIMARY KEY,
					event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
					name TEXT NOT NULL,
					members TEXT[] NOT NULL DEFAULT '{}',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_teams_event_id ON teams(event_id);
			`); err != nil {
				return fmt.Errorf("failed to create teams table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS submissions (
					id TEXT PRIMARY KEY,
					event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
					team_id TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					metadata JSONB,
					status TEXT NOT NULL,
					judging JSONB NOT NULL DEFAULT '{}'::jsonb,
					voting JSONB NOT NULL DEFAULT '{}'::jsonb,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					submitted_at TIMESTAMPTZ,
					CONSTRAINT uq_submissions_event_team UNIQUE (event_id, team_id)
				);
				CREATE INDEX IF NOT EXISTS idx_submissions_event_id ON submissions(event_id);
			`); err != nil {
				return fmt.Errorf("failed to create submissions table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS submissions, teams, events;`); err != nil {
				return fmt.Errorf("failed to drop scoring tables: %w", err)
			}
			return nil
		})
	})
}
