// Package api exposes the scoring service over HTTP and websockets.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/podium/internal/adapters/http/auth"
	"github.com/okian/podium/internal/adapters/http/swagger"
	"github.com/okian/podium/internal/adapters/realtime"
	"github.com/okian/podium/internal/domain/errs"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	CreateEvent(ctx context.Context, organizerID string, req types.CreateEventRequest) (*model.Event, error)
	SetEventStatus(ctx context.Context, userID, eventID string, status model.EventStatus) (*model.Event, error)
	CreateTeam(ctx context.Context, userID, eventID string, req types.CreateTeamRequest) (*model.Team, error)

	CreateSubmission(ctx context.Context, userID string, req types.CreateSubmissionRequest) (*model.Submission, error)
	UpdateSubmission(ctx context.Context, userID, submissionID string, req types.UpdateSubmissionRequest) (*model.Submission, error)
	ChangeSubmissionStatus(ctx context.Context, userID, submissionID string, status model.SubmissionStatus) (*model.Submission, error)
	DeleteSubmission(ctx context.Context, userID, submissionID string) error

	SubmitVote(ctx context.Context, submissionID, userID string, score int) (float64, error)
	SubmitJudgeScores(ctx context.Context, submissionID, judgeID string, records []model.ScoreRecord) (float64, error)
	RunAutoJudgeAs(ctx context.Context, userID, submissionID string) ([]model.ScoreRecord, error)
	GetLeaderboard(ctx context.Context, eventID string) (model.Leaderboard, error)

	Subscribe(ctx context.Context, eventID string) (*realtime.Session, error)
	Unsubscribe(ctx context.Context, sessionID string)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]any
}

// Server wires HTTP routes for the scoring API.
type Server struct {
	deps     Dependencies
	stats    StatsProvider
	verifier auth.Verifier
	limiter  *UserRateLimiter

	maxLimit int
	logger   logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, stats StatsProvider, verifier auth.Verifier, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		stats:    stats,
		verifier: verifier,
		maxLimit: defaultMaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewUserRateLimiter(defaultRate, defaultBurst)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.With(MetricsMiddleware("healthz")).Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	r.With(MetricsMiddleware("stats")).Get("/stats", s.handleStats)
	swagger.Register(r)

	r.Route("/api", func(r chi.Router) {
		// public reads
		r.With(MetricsMiddleware("leaderboard")).Get("/events/{eventID}/leaderboard", s.handleGetLeaderboard)
		r.Get("/events/{eventID}/leaderboard/live", s.handleLive)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.verifier))

			r.With(MetricsMiddleware("events")).Post("/events", s.handleCreateEvent)
			r.With(MetricsMiddleware("event_status")).Patch("/events/{eventID}/status", s.handleSetEventStatus)
			r.With(MetricsMiddleware("teams")).Post("/events/{eventID}/teams", s.handleCreateTeam)

			r.Route("/submissions", func(r chi.Router) {
				r.With(MetricsMiddleware("submissions")).Post("/", s.handleCreateSubmission)
				r.Route("/{submissionID}", func(r chi.Router) {
					r.With(MetricsMiddleware("submission")).Patch("/", s.handleUpdateSubmission)
					r.With(MetricsMiddleware("submission")).Delete("/", s.handleDeleteSubmission)
					r.With(MetricsMiddleware("submission_status")).Post("/status", s.handleChangeStatus)
					r.With(MetricsMiddleware("votes"), RateLimitMiddleware(s.limiter, "votes")).Post("/votes", s.handleVote)
					r.With(MetricsMiddleware("scores"), RateLimitMiddleware(s.limiter, "scores")).Post("/scores", s.handleScores)
					r.With(MetricsMiddleware("autojudge")).Post("/autojudge", s.handleAutoJudge)
				})
			})
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.GetStats(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, types.ErrorResponse{Code: code, Message: msg})
}

// writeServiceError maps an error kind to its HTTP status.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch kind := errs.KindOf(err); {
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case kind == errs.ErrNotFound:
		writeError(w, http.StatusNotFound, "not_found", err)
	case kind == errs.ErrValidation:
		writeError(w, http.StatusBadRequest, "validation", err)
	case kind == errs.ErrUnauthorized:
		writeError(w, http.StatusForbidden, "forbidden", err)
	case kind == errs.ErrConflict:
		writeError(w, http.StatusConflict, "conflict", err)
	case kind == errs.ErrStore:
		s.logger.Error(r.Context(), "store failure", logger.String("path", r.URL.Path), logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		s.logger.Error(r.Context(), "unexpected error", logger.String("path", r.URL.Path), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// userID returns the authenticated caller. Routes behind auth.Middleware
// always have one.
func userID(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}
