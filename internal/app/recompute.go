package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/okian/podium/internal/adapters/mq/queue"
	"github.com/okian/podium/internal/domain/errs"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scoring"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Trigger names the mutation that caused a leaderboard recompute.
type Trigger string

// The complete set of recompute triggers. Every mutation that can change a
// leaderboard entry calls recompute with one of these before returning.
const (
	TriggerVote             Trigger = "vote"
	TriggerJudgeScores      Trigger = "judge_scores"
	TriggerAutoJudge        Trigger = "auto_judge"
	TriggerSubmissionUpdate Trigger = "submission_update"
	TriggerSubmissionStatus Trigger = "submission_status"
	TriggerSubmissionDelete Trigger = "submission_delete"
)

// recompute rebuilds eventID's leaderboard from committed state and hands the
// snapshot to the outbox. A failure leaves the previous leaderboard in place.
func (s *Service) recompute(ctx context.Context, eventID string, trigger Trigger) (model.Leaderboard, error) {
	ctx, span := s.tracer.Start(ctx, "recompute")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", eventID), attribute.String("trigger", string(trigger)))

	start := time.Now()
	now := s.now()
	lb, err := s.store.ReplaceLeaderboard(ctx, eventID, now, func(ev *model.Event, subs []*model.Submission) ([]model.LeaderboardEntry, error) {
		return scoring.Rank(subs, ev.Leaderboard.Entries, now), nil
	})
	if err != nil {
		metrics.RecordRecomputeError(string(trigger))
		span.RecordError(err)
		span.SetStatus(codes.Error, "recompute failed")
		s.logger.Error(ctx, "leaderboard recompute failed",
			logger.String("eventID", eventID),
			logger.String("trigger", string(trigger)),
			logger.Error(err))
		return model.Leaderboard{}, errs.WrapKind("recompute", errs.ErrStore, err)
	}

	metrics.RecordRecompute(string(trigger), float64(time.Since(start).Microseconds())/1000)
	metrics.UpdateLeaderboardSize(len(lb.Entries))
	span.SetAttributes(attribute.Int64("leaderboard.version", lb.Version), attribute.Int("leaderboard.size", len(lb.Entries)))
	s.logger.Debug(ctx, "leaderboard recomputed",
		logger.String("eventID", eventID),
		logger.String("trigger", string(trigger)),
		logger.Int64("version", lb.Version),
		logger.Int("entries", len(lb.Entries)))

	s.publish(ctx, eventID, lb)
	return lb, nil
}

// publish enqueues a snapshot for delivery. A full or closed outbox drops it
// without failing the mutation.
func (s *Service) publish(ctx context.Context, eventID string, lb model.Leaderboard) {
	item := model.Broadcast{
		EventID:  eventID,
		Channel:  model.LeaderboardChannel(eventID),
		Snapshot: lb.Snapshot(eventID),
	}
	if err := s.outbox.Enqueue(ctx, item); err != nil {
		reason := "outbox_closed"
		if errors.Is(err, queue.ErrFull) {
			reason = "outbox_full"
		}
		metrics.RecordBroadcastDropped(reason)
		s.logger.Warn(ctx, "leaderboard broadcast dropped",
			logger.String("eventID", eventID),
			logger.Int64("version", lb.Version),
			logger.Error(err))
		return
	}
	metrics.RecordBroadcastEnqueued()
	metrics.UpdateOutboxSize(s.outbox.Len())
}

// storeErr tags a store failure with op. Errors that already carry a kind
// keep it; anything else is a store failure.
func storeErr(op string, err error) error {
	if errs.KindOf(err) == nil {
		return errs.WrapKind(op, errs.ErrStore, err)
	}
	return errs.Wrap(op, err)
}
