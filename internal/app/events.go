package service

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/podium/internal/domain/errs"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scoring"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
)

// CreateEvent creates an upcoming event organized by organizerID.
func (s *Service) CreateEvent(ctx context.Context, organizerID string, req types.CreateEventRequest) (*model.Event, error) {
	const op = "create event"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	if err := validate.Struct(req); err != nil {
		return nil, errs.WrapKind(op, errs.ErrValidation, err)
	}
	criteria := make([]model.Criterion, 0, len(req.Criteria))
	for _, c := range req.Criteria {
		name := strings.TrimSpace(c.Name)
		if slices.ContainsFunc(criteria, func(x model.Criterion) bool { return x.Name == name }) {
			return nil, errs.WrapKind(op, errs.ErrValidation, errs.Sentinel(errs.ErrValidation, "duplicate criterion "+name))
		}
		maxScore := c.MaxScore
		if maxScore == 0 {
			maxScore = scoring.DefaultMaxScore
		}
		criteria = append(criteria, model.Criterion{Name: name, Weight: c.Weight, MaxScore: maxScore})
	}

	now := s.now()
	ev := &model.Event{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Status:      model.EventUpcoming,
		OrganizerID: organizerID,
		MaxTeams:    req.MaxTeams,
		Judging: model.JudgingConfig{
			Automated: req.Automated,
			Judges:    slices.Compact(slices.Sorted(slices.Values(req.Judges))),
			Criteria:  criteria,
		},
		Leaderboard: model.Leaderboard{Entries: []model.LeaderboardEntry{}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateEvent(ctx, ev); err != nil {
		return nil, storeErr(op, err)
	}
	span.SetAttributes(attribute.String("event.id", ev.ID))
	s.logger.Info(ctx, "event created", logger.String("eventID", ev.ID), logger.String("organizer", organizerID))
	return ev, nil
}

// SetEventStatus moves an event forward in its lifecycle. Only the organizer
// may do so.
func (s *Service) SetEventStatus(ctx context.Context, userID, eventID string, status model.EventStatus) (*model.Event, error) {
	const op = "set event status"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	if !status.Valid() {
		return nil, errs.WrapKind(op, errs.ErrValidation, errs.ErrInvalidTransition)
	}
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, storeErr(op, err)
	}
	if ev.OrganizerID != userID {
		return nil, errs.NewKind(op, errs.ErrUnauthorized)
	}
	updated, err := s.store.UpdateEventStatus(ctx, eventID, status, s.now())
	if err != nil {
		return nil, storeErr(op, err)
	}
	s.logger.Info(ctx, "event status changed",
		logger.String("eventID", eventID),
		logger.String("from", string(ev.Status)),
		logger.String("to", string(status)))
	return updated, nil
}

// CreateTeam adds a team to an event. The creator is always a member.
func (s *Service) CreateTeam(ctx context.Context, userID, eventID string, req types.CreateTeamRequest) (*model.Team, error) {
	const op = "create team"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	if err := validate.Struct(req); err != nil {
		return nil, errs.WrapKind(op, errs.ErrValidation, err)
	}
	members := slices.Clone(req.Members)
	if !slices.Contains(members, userID) {
		members = append(members, userID)
	}
	team := &model.Team{
		ID:        uuid.NewString(),
		EventID:   eventID,
		Name:      req.Name,
		Members:   members,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateTeam(ctx, team); err != nil {
		return nil, storeErr(op, err)
	}
	return team, nil
}
