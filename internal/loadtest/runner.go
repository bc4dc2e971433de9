package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Result is what a completed run observed.
type Result struct {
	EventID     string
	Leaderboard types.LeaderboardResponse
	LiveFrames  int64
}

// Run executes a generated scenario against the service and verifies the
// final leaderboard.
func Run(ctx context.Context, cfg *Config) (*Result, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("loadtest")

	client, err := NewClient(cfg, stats)
	if err != nil {
		return nil, err
	}
	sc := Generate(cfg)
	log.Info(ctx, "starting podium load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("teams", cfg.Teams),
		logger.Int("judges", cfg.Judges),
		logger.Int("voters", cfg.Voters),
		logger.Int("votes", len(sc.Votes)),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", sc.Seed))

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return nil, err
	}

	// Step 2: Create the event and every team's submission
	eventID, subIDs, err := setup(ctx, client, sc, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}
	log.Info(ctx, "event ready", logger.String("eventID", eventID), logger.Int("submissions", len(subIDs)))

	// Step 3: Follow the live feed while scoring
	var watchDone chan error
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if cfg.Watch {
		watchDone = make(chan error, 1)
		ready := make(chan struct{})
		go func() {
			watchDone <- Watch(watchCtx, cfg.BaseURL, eventID, ready, func(types.LeaderboardResponse) {
				stats.LiveFrames.Add(1)
			})
		}()
		select {
		case <-ready:
		case err := <-watchDone:
			return nil, fmt.Errorf("live feed: %w", err)
		}
	}

	// Step 4: Cast every vote and judge score concurrently
	if err := score(ctx, client, sc, subIDs, cfg.Workers, stats); err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}

	// Step 5: Verify the final leaderboard
	lb, err := client.Leaderboard(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	if err := Verify(lb, sc, subIDs); err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}

	if watchDone != nil {
		stopWatch()
		if err := <-watchDone; err != nil {
			return nil, fmt.Errorf("live feed: %w", err)
		}
	}

	if cfg.OutputFile != "" {
		if err := saveScenario(cfg.OutputFile, sc); err != nil {
			log.Warn(ctx, "failed to save scenario", logger.Error(err))
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	displayFinalStats(ctx, stats, lb)
	return &Result{EventID: eventID, Leaderboard: lb, LiveFrames: stats.LiveFrames.Load()}, nil
}

// setup creates the event, then every team and submission in parallel, then
// opens voting.
func setup(ctx context.Context, c *Client, sc *Scenario, workers int) (string, []string, error) {
	var ev types.EventResponse
	if err := c.do(ctx, http.MethodPost, "/api/events", sc.Organizer, sc.Event, &ev); err != nil {
		return "", nil, fmt.Errorf("create event: %w", err)
	}

	subIDs := make([]string, len(sc.Teams))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, plan := range sc.Teams {
		g.Go(func() error {
			var team types.TeamResponse
			if err := c.do(gctx, http.MethodPost, "/api/events/"+ev.ID+"/teams", plan.Owner, plan.Team, &team); err != nil {
				return fmt.Errorf("create team %d: %w", i, err)
			}
			req := plan.Submission
			req.EventID, req.TeamID = ev.ID, team.ID
			var sub types.SubmissionResponse
			if err := c.do(gctx, http.MethodPost, "/api/submissions", plan.Owner, req, &sub); err != nil {
				return fmt.Errorf("create submission %d: %w", i, err)
			}
			status := types.ChangeStatusRequest{Status: "submitted"}
			if err := c.do(gctx, http.MethodPost, "/api/submissions/"+sub.ID+"/status", plan.Owner, status, nil); err != nil {
				return fmt.Errorf("submit %d: %w", i, err)
			}
			subIDs[i] = sub.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}

	open := types.SetEventStatusRequest{Status: "judging"}
	if err := c.do(ctx, http.MethodPatch, "/api/events/"+ev.ID+"/status", sc.Organizer, open, nil); err != nil {
		return "", nil, fmt.Errorf("open judging: %w", err)
	}
	return ev.ID, subIDs, nil
}

func score(ctx context.Context, c *Client, sc *Scenario, subIDs []string, workers int, stats *Stats) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, v := range sc.Votes {
		g.Go(func() error {
			path := "/api/submissions/" + subIDs[v.Team] + "/votes"
			if err := c.do(gctx, http.MethodPost, path, v.Voter, types.VoteRequest{Score: v.Score}, nil); err != nil {
				return fmt.Errorf("vote by %s: %w", v.Voter, err)
			}
			stats.Votes.Add(1)
			return nil
		})
	}
	for _, s := range sc.Scores {
		g.Go(func() error {
			path := "/api/submissions/" + subIDs[s.Team] + "/scores"
			if err := c.do(gctx, http.MethodPost, path, s.Judge, types.JudgeScoresRequest{Scores: s.Scores}, nil); err != nil {
				return fmt.Errorf("scores by %s: %w", s.Judge, err)
			}
			stats.ScoreSets.Add(1)
			return nil
		})
	}
	return g.Wait()
}

// saveScenario writes sc as indented JSON so a run can be replayed by seed.
func saveScenario(filename string, sc *Scenario) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write scenario: %w", err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats, lb types.LeaderboardResponse) {
	var rps float64
	if stats.Duration > 0 {
		rps = float64(stats.Requests.Load()) / stats.Duration.Seconds()
	}
	fields := []logger.Field{
		logger.Int64("requests", stats.Requests.Load()),
		logger.Int64("failed", stats.Failed.Load()),
		logger.Int64("rateLimited", stats.RateLimited.Load()),
		logger.Int64("votes", stats.Votes.Load()),
		logger.Int64("scoreSets", stats.ScoreSets.Load()),
		logger.Int64("liveFrames", stats.LiveFrames.Load()),
		logger.Int64("leaderboardVersion", lb.Version),
		logger.Int("leaderboardEntries", len(lb.Entries)),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", rps),
	}
	if len(lb.Entries) > 0 {
		top := lb.Entries[0]
		fields = append(fields, logger.String("leader", top.ProjectName), logger.Float64("leaderScore", top.CombinedScore))
	}
	logger.Get().Named("loadtest").Info(ctx, "final statistics", fields...)
}
