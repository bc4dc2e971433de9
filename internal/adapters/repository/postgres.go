package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/okian/podium/internal/adapters/repository/migrations"
	"github.com/okian/podium/internal/domain/errs"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scoring"
)

const (
	defaultMaxOpenConns = 10
	defaultDialTimeout  = 5 * time.Second

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	submissionTeamConstraint = "uq_submissions_event_team"
)

// PostgresStore implements Store on Postgres through bun. Every submission
// update and leaderboard replace runs in a transaction that locks the row it
// rewrites with SELECT ... FOR UPDATE.
type PostgresStore struct {
	DB *bun.DB

	migrate      bool
	maxOpenConns int
	dialTimeout  time.Duration
}

// NewPostgresStore opens a connection pool for dsn and, when enabled, applies
// pending migrations.
func NewPostgresStore(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	s := &PostgresStore{
		migrate:      true,
		maxOpenConns: defaultMaxOpenConns,
		dialTimeout:  defaultDialTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithDialTimeout(s.dialTimeout),
	))
	sqldb.SetMaxOpenConns(s.maxOpenConns)
	s.DB = bun.NewDB(sqldb, pgdialect.New())

	if err := s.DB.PingContext(ctx); err != nil {
		_ = s.DB.Close()
		return nil, errs.WrapKind("repository.NewPostgresStore", errs.ErrStore, fmt.Errorf("ping: %w", err))
	}
	if s.migrate {
		if err := Migrate(ctx, s.DB); err != nil {
			_ = s.DB.Close()
			return nil, err
		}
	}
	return s, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return errs.WrapKind("repository.Migrate", errs.ErrStore, fmt.Errorf("init migration tables: %w", err))
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return errs.WrapKind("repository.Migrate", errs.ErrStore, fmt.Errorf("run migrations: %w", err))
	}
	return nil
}

// storeErr maps driver errors onto repository sentinels. notFound is used for
// sql.ErrNoRows.
func storeErr(op string, err, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		constraint := pgErr.Field('n')
		switch pgErr.Field('C') {
		case pgUniqueViolation:
			if constraint == submissionTeamConstraint {
				return errs.ErrDuplicateSubmission
			}
			return ErrDuplicateID
		case pgForeignKeyViolation:
			if strings.Contains(constraint, "team_id") {
				return ErrTeamNotFound
			}
			return ErrEventNotFound
		}
	}
	return errs.WrapKind(op, errs.ErrStore, err)
}

func (s *PostgresStore) CreateEvent(ctx context.Context, ev *model.Event) error {
	defer observe("create_event", time.Now())
	row := newEventRow(ev)
	row.Leaderboard = model.Leaderboard{Entries: []model.LeaderboardEntry{}}
	_, err := s.DB.NewInsert().Model(row).Exec(ctx)
	return storeErr("repository.CreateEvent", err, ErrEventNotFound)
}

func (s *PostgresStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	defer observe("get_event", time.Now())
	row := new(eventRow)
	if err := s.DB.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, storeErr("repository.GetEvent", err, ErrEventNotFound)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) UpdateEventStatus(ctx context.Context, id string, status model.EventStatus, now time.Time) (*model.Event, error) {
	defer observe("update_event_status", time.Now())
	var out *model.Event
	var ruleErr error
	err := s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(eventRow)
		if err := tx.NewSelect().Model(row).Where("id = ?", id).For("UPDATE").Scan(ctx); err != nil {
			return err
		}
		if !model.EventStatus(row.Status).CanTransitionTo(status) {
			ruleErr = errs.ErrInvalidTransition
			return ruleErr
		}
		row.Status = string(status)
		row.UpdatedAt = now
		if _, err := tx.NewUpdate().Model(row).Column("status", "updated_at").WherePK().Exec(ctx); err != nil {
			return err
		}
		out = row.toModel()
		return nil
	})
	if ruleErr != nil {
		return nil, ruleErr
	}
	if err != nil {
		return nil, storeErr("repository.UpdateEventStatus", err, ErrEventNotFound)
	}
	return out, nil
}

func (s *PostgresStore) CreateTeam(ctx context.Context, team *model.Team) error {
	defer observe("create_team", time.Now())
	var ruleErr error
	err := s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		ev := new(eventRow)
		// the event row lock serialises concurrent team creation for MaxTeams
		if err := tx.NewSelect().Model(ev).Column("id", "max_teams").Where("id = ?", team.EventID).For("UPDATE").Scan(ctx); err != nil {
			return err
		}
		if ev.MaxTeams > 0 {
			n, err := tx.NewSelect().Model((*teamRow)(nil)).Where("event_id = ?", team.EventID).Count(ctx)
			if err != nil {
				return err
			}
			if n >= ev.MaxTeams {
				ruleErr = errs.ErrTeamLimit
				return ruleErr
			}
		}
		_, err := tx.NewInsert().Model(newTeamRow(team)).Exec(ctx)
		return err
	})
	if ruleErr != nil {
		return ruleErr
	}
	return storeErr("repository.CreateTeam", err, ErrEventNotFound)
}

func (s *PostgresStore) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	row := new(teamRow)
	if err := s.DB.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, storeErr("repository.GetTeam", err, ErrTeamNotFound)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) ListTeams(ctx context.Context, eventID string) ([]*model.Team, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	var rows []teamRow
	if err := s.DB.NewSelect().Model(&rows).Where("event_id = ?", eventID).Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, storeErr("repository.ListTeams", err, ErrEventNotFound)
	}
	out := make([]*model.Team, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (s *PostgresStore) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	defer observe("create_submission", time.Now())
	stored := sub.Clone()
	scoring.Aggregate(stored)
	if _, err := s.DB.NewInsert().Model(newSubmissionRow(stored)).Exec(ctx); err != nil {
		return storeErr("repository.CreateSubmission", err, ErrSubmissionNotFound)
	}
	*sub = *stored
	return nil
}

func (s *PostgresStore) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	defer observe("get_submission", time.Now())
	row := new(submissionRow)
	if err := s.DB.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, storeErr("repository.GetSubmission", err, ErrSubmissionNotFound)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) ListSubmissions(ctx context.Context, eventID string) ([]*model.Submission, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return listSubmissions(ctx, s.DB, eventID)
}

func listSubmissions(ctx context.Context, db bun.IDB, eventID string) ([]*model.Submission, error) {
	var rows []submissionRow
	if err := db.NewSelect().Model(&rows).Where("event_id = ?", eventID).Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, storeErr("repository.ListSubmissions", err, ErrEventNotFound)
	}
	out := make([]*model.Submission, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (s *PostgresStore) UpdateSubmission(ctx context.Context, id string, fn MutateFunc) (*model.Submission, error) {
	defer observe("update_submission", time.Now())
	var out *model.Submission
	var fnErr error
	err := s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(submissionRow)
		if err := tx.NewSelect().Model(row).Where("id = ?", id).For("UPDATE").Scan(ctx); err != nil {
			return err
		}
		cur := row.toModel()
		next := cur.Clone()
		if fnErr = fn(next); fnErr != nil {
			return fnErr
		}
		next.ID, next.EventID, next.TeamID, next.CreatedAt = cur.ID, cur.EventID, cur.TeamID, cur.CreatedAt
		scoring.Aggregate(next)
		if _, err := tx.NewUpdate().Model(newSubmissionRow(next)).
			Column("name", "description", "metadata", "status", "judging", "voting", "updated_at", "submitted_at").
			WherePK().Exec(ctx); err != nil {
			return err
		}
		out = next
		return nil
	})
	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, storeErr("repository.UpdateSubmission", err, ErrSubmissionNotFound)
	}
	return out, nil
}

func (s *PostgresStore) DeleteSubmission(ctx context.Context, id string) (*model.Submission, error) {
	defer observe("delete_submission", time.Now())
	row := new(submissionRow)
	if err := s.DB.NewDelete().Model(row).Where("id = ?", id).Returning("*").Scan(ctx); err != nil {
		return nil, storeErr("repository.DeleteSubmission", err, ErrSubmissionNotFound)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context, eventID string) (model.Leaderboard, error) {
	defer observe("get_leaderboard", time.Now())
	row := new(eventRow)
	if err := s.DB.NewSelect().Model(row).Column("id", "leaderboard").Where("id = ?", eventID).Scan(ctx); err != nil {
		return model.Leaderboard{}, storeErr("repository.Leaderboard", err, ErrEventNotFound)
	}
	return row.toModel().Leaderboard, nil
}

func (s *PostgresStore) ReplaceLeaderboard(ctx context.Context, eventID string, now time.Time, build BuildFunc) (model.Leaderboard, error) {
	defer observe("replace_leaderboard", time.Now())
	var out model.Leaderboard
	var buildErr error
	err := s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(eventRow)
		if err := tx.NewSelect().Model(row).Where("id = ?", eventID).For("UPDATE").Scan(ctx); err != nil {
			return err
		}
		subs, err := listSubmissions(ctx, tx, eventID)
		if err != nil {
			return err
		}
		entries, err := build(row.toModel(), subs)
		if err != nil {
			buildErr = err
			return err
		}
		if entries == nil {
			entries = []model.LeaderboardEntry{}
		}
		row.Leaderboard = model.Leaderboard{
			Entries:    entries,
			Version:    row.Leaderboard.Version + 1,
			ComputedAt: now,
		}
		row.UpdatedAt = now
		if _, err := tx.NewUpdate().Model(row).Column("leaderboard", "updated_at").WherePK().Exec(ctx); err != nil {
			return err
		}
		out = row.Leaderboard
		return nil
	})
	if buildErr != nil {
		return model.Leaderboard{}, buildErr
	}
	if err != nil {
		return model.Leaderboard{}, storeErr("repository.ReplaceLeaderboard", err, ErrEventNotFound)
	}
	return out, nil
}

func (s *PostgresStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	var err error
	if c.Events, err = s.DB.NewSelect().Model((*eventRow)(nil)).Count(ctx); err != nil {
		return Counts{}, storeErr("repository.Counts", err, ErrEventNotFound)
	}
	if c.Teams, err = s.DB.NewSelect().Model((*teamRow)(nil)).Count(ctx); err != nil {
		return Counts{}, storeErr("repository.Counts", err, ErrEventNotFound)
	}
	if c.Submissions, err = s.DB.NewSelect().Model((*submissionRow)(nil)).Count(ctx); err != nil {
		return Counts{}, storeErr("repository.Counts", err, ErrEventNotFound)
	}
	return c, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

var _ Store = (*PostgresStore)(nil)
