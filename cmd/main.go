package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/okian/podium/internal/adapters/http/api"
	"github.com/okian/podium/internal/adapters/http/auth"
	"github.com/okian/podium/internal/adapters/mq/worker"
	"github.com/okian/podium/internal/adapters/realtime"
	"github.com/okian/podium/internal/adapters/repository"
	app "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't configured yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "podium exited with error", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the store, service, real-time fan-out and HTTP server, and blocks
// until ctx is cancelled or the server fails.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get().Named("main")

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	// Optional cross-instance fan-out over NATS.
	var (
		nc    *nats.Conn
		sinks []worker.Sink
	)
	if cfg.NATSURL != "" {
		nc, err = realtime.Connect(cfg.NATSURL, "podium")
		if err != nil {
			_ = store.Close()
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()
		pub, err := realtime.NewNATSPublisher(nc, realtime.WithSubject(cfg.NATSSubject))
		if err != nil {
			_ = store.Close()
			return err
		}
		sinks = append(sinks, pub)
	}

	svc := app.New(
		app.WithLogger(logger.Get()),
		app.WithStore(store),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithOutboxSize(cfg.OutboxSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithSubscriberBuffer(cfg.SubscriberBuffer),
		app.WithSinks(sinks...),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("start service: %w", err)
	}

	var relay *realtime.Relay
	if nc != nil {
		relay, err = realtime.NewRelay(nc, svc.Hub(), realtime.WithSubject(cfg.NATSSubject))
		if err == nil {
			err = relay.Start(ctx)
		}
		if err != nil {
			_ = svc.Stop(context.Background())
			return fmt.Errorf("start relay: %w", err)
		}
		log.Info(ctx, "nats fan-out enabled", logger.String("url", cfg.NATSURL), logger.String("subject", cfg.NATSSubject))
	}

	sched, err := scheduleMetrics(cfg, svc)
	if err != nil {
		_ = svc.Stop(context.Background())
		return err
	}

	verifier, err := auth.NewHS256(cfg.JWTSecret)
	if err != nil {
		_ = svc.Stop(context.Background())
		return err
	}
	srv := newHTTPServer(cfg, svc, verifier)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := sched.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
		}
		if relay != nil {
			if err := relay.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("relay stop: %w", err))
			}
		}
		if err := svc.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("service stop: %w", err))
		}
		log.Info(shutdownCtx, "server stopped")
		return errors.Join(errs...)
	})
	return g.Wait()
}

// openStore selects the configured storage backend.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		store, err := repository.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	default:
		return repository.NewMemoryStore(), nil
	}
}

func newHTTPServer(cfg *config.Config, svc *app.Service, verifier auth.Verifier) *http.Server {
	apiServer := api.NewServer(svc, svc, verifier,
		api.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		api.WithRateLimit(cfg.VoteRateLimit, cfg.VoteRateBurst),
		api.WithLogger(logger.Get()),
	)
	// No WriteTimeout: live leaderboard websockets are long-lived.
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Routes(),
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// scheduleMetrics samples runtime and service gauges on a fixed interval.
func scheduleMetrics(cfg *config.Config, svc *app.Service) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	interval := time.Duration(cfg.MetricsIntervalSeconds) * time.Second
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			metrics.SampleSystem()
			// GetStats refreshes the outbox and subscriber gauges
			_ = svc.GetStats(context.Background())
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule metrics job: %w", err)
	}
	sched.Start()
	return sched, nil
}
