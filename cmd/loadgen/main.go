// Command loadgen drives a generated hackathon through a running podium
// service and verifies the resulting leaderboard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/internal/loadtest"
	"github.com/okian/podium/pkg/logger"
)

// Default configuration constants.
const (
	defaultTeams   = 50
	defaultJudges  = 3
	defaultVoters  = 200
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	defaultTimeout = 30 * time.Second
	runTimeout     = 10 * time.Minute
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		os.Stderr.WriteString("loadgen: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	common := []cli.Flag{
		&cli.StringFlag{Name: "url", Value: "http://localhost:9080", Usage: "base URL of the service", EnvVars: []string{"PODIUM_URL"}},
		&cli.StringFlag{Name: "log", Usage: "also append logs to this file"},
		&cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
	}
	return &cli.App{
		Name:  "loadgen",
		Usage: "load and verification tool for podium",
		Before: func(c *cli.Context) error {
			w, closeLog, err := loadtest.LogWriter(c.String("log"))
			if err != nil {
				return err
			}
			c.App.Metadata = map[string]any{"closeLog": closeLog}
			if err := logger.Init(logger.WithWriter(w)); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			if c.Bool("verbose") {
				return logger.SetLevelString("debug")
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if closeLog, ok := c.App.Metadata["closeLog"].(func() error); ok {
				return closeLog()
			}
			return nil
		},
		Flags: common,
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "generate a scenario, drive it through the API and verify the leaderboard",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "secret", Value: "podium-dev-secret", Usage: "JWT secret shared with the service", EnvVars: []string{"PODIUM_JWT_SECRET"}},
					&cli.IntFlag{Name: "teams", Value: defaultTeams, Usage: "number of teams"},
					&cli.IntFlag{Name: "judges", Value: defaultJudges, Usage: "number of judges"},
					&cli.IntFlag{Name: "voters", Value: defaultVoters, Usage: "number of public voters"},
					&cli.IntFlag{Name: "workers", Value: runtime.NumCPU() * defaultWorkers, Usage: "concurrent requests"},
					&cli.DurationFlag{Name: "timeout", Value: defaultTimeout, Usage: "HTTP request timeout"},
					&cli.Int64Flag{Name: "seed", Usage: "faker seed (0 = random)"},
					&cli.BoolFlag{Name: "watch", Value: true, Usage: "follow the live feed during the run"},
					&cli.StringFlag{Name: "output", Usage: "write the generated scenario to this file"},
				},
				Action: runAction,
			},
			{
				Name:      "watch",
				Usage:     "print live leaderboard frames for an event",
				ArgsUsage: "EVENT_ID",
				Action:    watchAction,
			},
		},
	}
}

func runAction(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(c.Context, runTimeout)
	defer cancel()

	cfg := &loadtest.Config{
		BaseURL:    c.String("url"),
		JWTSecret:  c.String("secret"),
		Teams:      c.Int("teams"),
		Judges:     c.Int("judges"),
		Voters:     c.Int("voters"),
		Workers:    c.Int("workers"),
		Timeout:    c.Duration("timeout"),
		Seed:       c.Int64("seed"),
		Watch:      c.Bool("watch"),
		OutputFile: c.String("output"),
		Verbose:    c.Bool("verbose"),
	}
	if cfg.Teams < 1 || cfg.Judges < 1 || cfg.Workers < 1 {
		return cli.Exit("teams, judges and workers must be positive", 2)
	}
	res, err := loadtest.Run(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "run verified",
		logger.String("eventID", res.EventID),
		logger.Int64("version", res.Leaderboard.Version),
		logger.Int64("liveFrames", res.LiveFrames))
	return nil
}

func watchAction(c *cli.Context) error {
	eventID := c.Args().First()
	if eventID == "" {
		return cli.Exit("watch needs an EVENT_ID", 2)
	}
	log := logger.Get().Named("watch")
	return loadtest.Watch(c.Context, c.String("url"), eventID, nil, func(lb types.LeaderboardResponse) {
		fields := []logger.Field{logger.Int64("version", lb.Version), logger.Int("entries", len(lb.Entries))}
		if len(lb.Entries) > 0 {
			fields = append(fields, logger.String("leader", lb.Entries[0].ProjectName), logger.Float64("score", lb.Entries[0].CombinedScore))
		}
		log.Info(c.Context, "leaderboard", fields...)
	})
}
