package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/podium/internal/domain/errs"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scoring"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// CreateSubmission creates a draft submission for a team. The caller must be
// a team member; each team has at most one submission per event.
func (s *Service) CreateSubmission(ctx context.Context, userID string, req types.CreateSubmissionRequest) (*model.Submission, error) {
	const op = "create submission"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	if err := validate.Struct(req); err != nil {
		return nil, errs.WrapKind(op, errs.ErrValidation, err)
	}
	team, err := s.store.GetTeam(ctx, req.TeamID)
	if err != nil {
		return nil, storeErr(op, err)
	}
	if team.EventID != req.EventID {
		return nil, errs.WrapKind(op, errs.ErrValidation, errs.Sentinel(errs.ErrValidation, "team does not belong to event"))
	}
	if !team.HasMember(userID) {
		return nil, errs.NewKind(op, errs.ErrUnauthorized)
	}

	now := s.now()
	sub := &model.Submission{
		ID:          uuid.NewString(),
		EventID:     req.EventID,
		TeamID:      req.TeamID,
		Name:        req.Name,
		Description: req.Description,
		Metadata:    req.Metadata.Clone(),
		Status:      model.SubmissionDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		return nil, storeErr(op, err)
	}
	span.SetAttributes(attribute.String("submission.id", sub.ID))
	return sub, nil
}

// UpdateSubmission edits name, description or metadata. A submission that is
// on the leaderboard is recomputed so its entry shows the new name.
func (s *Service) UpdateSubmission(ctx context.Context, userID, submissionID string, req types.UpdateSubmissionRequest) (*model.Submission, error) {
	const op = "update submission"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	if err := validate.Struct(req); err != nil {
		return nil, errs.WrapKind(op, errs.ErrValidation, err)
	}
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, storeErr(op, err)
	}
	team, err := s.store.GetTeam(ctx, sub.TeamID)
	if err != nil {
		return nil, storeErr(op, err)
	}
	if !team.HasMember(userID) {
		return nil, errs.NewKind(op, errs.ErrUnauthorized)
	}

	updated, err := s.store.UpdateSubmission(ctx, submissionID, func(sub *model.Submission) error {
		if req.Name != nil {
			sub.Name = *req.Name
		}
		if req.Description != nil {
			sub.Description = *req.Description
		}
		if req.Metadata != nil {
			sub.Metadata = req.Metadata.Clone()
		}
		sub.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, storeErr(op, err)
	}

	if updated.Status == model.SubmissionSubmitted {
		if _, err := s.recompute(ctx, updated.EventID, TriggerSubmissionUpdate); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// ChangeSubmissionStatus applies a status transition. Team members move
// between draft and submitted; the organizer and judges drive review.
// Submitting to an automated event runs AutoJudge in the same update.
func (s *Service) ChangeSubmissionStatus(ctx context.Context, userID, submissionID string, status model.SubmissionStatus) (*model.Submission, error) {
	const op = "change submission status"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("submission.id", submissionID), attribute.String("status", string(status)))

	if !status.Valid() {
		return nil, errs.WrapKind(op, errs.ErrValidation, errs.ErrInvalidTransition)
	}
	current, ev, err := s.loadSubmission(ctx, op, submissionID)
	if err != nil {
		return nil, err
	}
	team, err := s.store.GetTeam(ctx, current.TeamID)
	if err != nil {
		return nil, storeErr(op, err)
	}

	var (
		from      model.SubmissionStatus
		autoJudge bool
	)
	updated, err := s.store.UpdateSubmission(ctx, submissionID, func(sub *model.Submission) error {
		from = sub.Status
		if !sub.Status.CanTransitionTo(status) {
			return errs.ErrInvalidTransition
		}
		if !mayTransition(ev, team, userID, sub.Status, status) {
			return errs.ErrUnauthorized
		}
		now := s.now()
		sub.Status = status
		sub.UpdatedAt = now
		if status == model.SubmissionSubmitted && from == model.SubmissionDraft {
			sub.SubmittedAt = now
			if ev.Judging.Automated {
				records, err := scoring.AutoJudge(sub.Metadata)
				switch {
				case err == nil:
					scoring.ReplaceAllScores(sub, scoring.AutoJudgeID, records, now)
					autoJudge = true
				case errors.Is(err, errs.ErrNoMetadata):
					// no metadata yet; human judges can still score it
				default:
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(op, err)
	}

	s.logger.Info(ctx, "submission status changed",
		logger.String("submissionID", submissionID),
		logger.String("from", string(from)),
		logger.String("to", string(status)),
		logger.Bool("autoJudged", autoJudge))

	trigger := TriggerSubmissionStatus
	if autoJudge {
		metrics.RecordAutoJudge("ok")
		trigger = TriggerAutoJudge
	}
	if from == model.SubmissionSubmitted || status == model.SubmissionSubmitted {
		if _, err := s.recompute(ctx, updated.EventID, trigger); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// mayTransition reports whether userID may move a submission from -> to.
func mayTransition(ev *model.Event, team *model.Team, userID string, from, to model.SubmissionStatus) bool {
	if userID == ev.OrganizerID {
		return true
	}
	authoring := (from == model.SubmissionDraft && to == model.SubmissionSubmitted) ||
		(from == model.SubmissionSubmitted && to == model.SubmissionDraft)
	if authoring {
		return team.HasMember(userID)
	}
	return ev.IsJudge(userID)
}

// DeleteSubmission removes a submission and recomputes its event's
// leaderboard so the entry disappears.
func (s *Service) DeleteSubmission(ctx context.Context, userID, submissionID string) error {
	const op = "delete submission"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	sub, ev, err := s.loadSubmission(ctx, op, submissionID)
	if err != nil {
		return err
	}
	if userID != ev.OrganizerID {
		team, err := s.store.GetTeam(ctx, sub.TeamID)
		if err != nil {
			return storeErr(op, err)
		}
		if !team.HasMember(userID) {
			return errs.NewKind(op, errs.ErrUnauthorized)
		}
	}

	removed, err := s.store.DeleteSubmission(ctx, submissionID)
	if err != nil {
		return storeErr(op, err)
	}
	_, err = s.recompute(ctx, removed.EventID, TriggerSubmissionDelete)
	return err
}
