package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/podium/internal/domain/errs"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scoring"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// SubmitVote records userID's 1-5 vote on a submission, replacing any earlier
// vote by the same user, and returns the new mean public vote.
func (s *Service) SubmitVote(ctx context.Context, submissionID, userID string, score int) (float64, error) {
	const op = "submit vote"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("submission.id", submissionID))

	if score < 1 || score > 5 {
		return 0, errs.WrapKind(op, errs.ErrValidation, errs.ErrInvalidRange)
	}
	_, ev, err := s.loadSubmission(ctx, op, submissionID)
	if err != nil {
		return 0, err
	}
	if !ev.Status.VotingOpen() {
		return 0, errs.Wrap(op, errs.ErrVotingClosed)
	}

	updated, err := s.store.UpdateSubmission(ctx, submissionID, func(sub *model.Submission) error {
		return scoring.UpsertVote(sub, userID, score, s.now())
	})
	if err != nil {
		return 0, storeErr(op, err)
	}
	metrics.RecordVote()

	if _, err := s.recompute(ctx, updated.EventID, TriggerVote); err != nil {
		return 0, err
	}
	return updated.Voting.PublicVotes, nil
}

// SubmitJudgeScores replaces judgeID's score set on a submission and returns
// the submission's new judge total.
func (s *Service) SubmitJudgeScores(ctx context.Context, submissionID, judgeID string, records []model.ScoreRecord) (float64, error) {
	const op = "submit judge scores"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("submission.id", submissionID), attribute.Int("records", len(records)))

	_, ev, err := s.loadSubmission(ctx, op, submissionID)
	if err != nil {
		return 0, err
	}
	if !ev.IsJudge(judgeID) {
		return 0, errs.NewKind(op, errs.ErrUnauthorized)
	}
	if err := scoring.ValidateRecords(records, ev.Judging.Criteria); err != nil {
		return 0, errs.Wrap(op, err)
	}

	set := scoring.NormalizeRecords(records, ev.Judging.Criteria, judgeID)

	updated, err := s.store.UpdateSubmission(ctx, submissionID, func(sub *model.Submission) error {
		scoring.ReplaceJudgeScores(sub, judgeID, set, ev.Judging.Judges, s.now())
		return nil
	})
	if err != nil {
		return 0, storeErr(op, err)
	}
	metrics.RecordJudgeSubmission()

	if _, err := s.recompute(ctx, updated.EventID, TriggerJudgeScores); err != nil {
		return 0, err
	}
	return updated.Judging.TotalScore, nil
}

// RunAutoJudge scores a submission from its metadata. The generated set
// replaces every existing score set and marks the submission judged.
func (s *Service) RunAutoJudge(ctx context.Context, submissionID string) ([]model.ScoreRecord, error) {
	const op = "run auto judge"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("submission.id", submissionID))

	var records []model.ScoreRecord
	updated, err := s.store.UpdateSubmission(ctx, submissionID, func(sub *model.Submission) error {
		out, err := scoring.AutoJudge(sub.Metadata)
		if err != nil {
			return err
		}
		scoring.ReplaceAllScores(sub, scoring.AutoJudgeID, out, s.now())
		records = out
		return nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrNoMetadata) {
			metrics.RecordAutoJudge("no_metadata")
		} else {
			metrics.RecordAutoJudge("error")
		}
		return nil, storeErr(op, err)
	}
	metrics.RecordAutoJudge("ok")
	s.logger.Info(ctx, "auto judge completed",
		logger.String("submissionID", submissionID),
		logger.Int("records", len(records)),
		logger.Float64("total", updated.Judging.TotalScore))

	if _, err := s.recompute(ctx, updated.EventID, TriggerAutoJudge); err != nil {
		return nil, err
	}
	return records, nil
}

// RunAutoJudgeAs runs AutoJudge on behalf of userID, who must organize the
// submission's event.
func (s *Service) RunAutoJudgeAs(ctx context.Context, userID, submissionID string) ([]model.ScoreRecord, error) {
	const op = "run auto judge"
	_, ev, err := s.loadSubmission(ctx, op, submissionID)
	if err != nil {
		return nil, err
	}
	if ev.OrganizerID != userID {
		return nil, errs.NewKind(op, errs.ErrUnauthorized)
	}
	return s.RunAutoJudge(ctx, submissionID)
}

// GetLeaderboard returns the event's persisted leaderboard. An event that was
// never recomputed has an empty leaderboard at version 0.
func (s *Service) GetLeaderboard(ctx context.Context, eventID string) (model.Leaderboard, error) {
	const op = "get leaderboard"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	lb, err := s.store.Leaderboard(ctx, eventID)
	if err != nil {
		return model.Leaderboard{}, storeErr(op, err)
	}
	if lb.Entries == nil {
		lb.Entries = []model.LeaderboardEntry{}
	}
	return lb, nil
}
