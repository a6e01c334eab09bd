package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"github.com/artscout/artscout/internal/consistency"
	"github.com/artscout/artscout/internal/coordinator"
	"github.com/artscout/artscout/internal/core/config"
	"github.com/artscout/artscout/internal/discovery"
	"github.com/artscout/artscout/internal/extract"
	"github.com/artscout/artscout/internal/health"
	redisclient "github.com/artscout/artscout/internal/infra/redis"
	"github.com/artscout/artscout/internal/infra/storage"
	"github.com/artscout/artscout/internal/infra/storage/memory"
	"github.com/artscout/artscout/internal/infra/storage/postgres"
	"github.com/artscout/artscout/internal/retry"
)

// App wires the research pipeline together and manages its lifecycle.
type App struct {
	cfg config.AppConfig

	coord        *coordinator.Coordinator
	pool         *coordinator.Pool
	discoverer   *discovery.Discoverer
	provider     discovery.SearchProvider
	browser      extract.BrowserDriver
	extractor    extract.Extractor
	healthServer *health.Server
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger

	once bool
}

// Option tweaks App construction.
type Option func(*App)

// WithOnce makes the run drain the queue and exit instead of idling for
// more work.
func WithOnce() Option {
	return func(a *App) { a.once = true }
}

// WithCollaborators overrides the search provider, browser driver and
// extractor. Used by tests and by front ends that bring their own
// implementations.
func WithCollaborators(p discovery.SearchProvider, b extract.BrowserDriver, x extract.Extractor) Option {
	return func(a *App) {
		a.provider = p
		a.browser = b
		a.extractor = x
	}
}

// NewApp builds the pipeline from configuration: storage (postgres if a
// URL is configured, memory otherwise), optional redis seen set, the
// consistency layer, coordinator, worker pool and health server.
func NewApp(ctx context.Context, cfg config.AppConfig, opts ...Option) (*App, error) {
	app := &App{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(app)
	}

	// 1. Storage
	var (
		urlRepo  storage.URLRepository
		exhRepo  storage.ExhibitionRepository
		taskRepo storage.TaskRepository
		pinger   storage.Pinger
	)
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate("migrations"); err != nil {
			return nil, err
		}
		app.db = db
		urlRepo = postgres.NewURLRepo(db)
		exhRepo = postgres.NewExhibitionRepo(db)
		taskRepo = postgres.NewTaskRepo(db)
		pinger = db
		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		urlRepo = memory.NewURLRepo(store)
		exhRepo = memory.NewExhibitionRepo(store)
		taskRepo = memory.NewTaskRepo(store)
		pinger = store
		slog.Info("Using Memory storage")
	}

	// 2. Consistency layer and coordinator
	matcher := consistency.NewMatcher(cfg.Dedupe.SimilarityThreshold)
	submitter := consistency.NewSubmitter(urlRepo, exhRepo, matcher)

	policy := &retry.Policy{
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
		Multiplier:  cfg.Retry.Multiplier,
		MaxAttempts: cfg.Retry.MaxAttempts,
	}
	app.coord = coordinator.New(taskRepo, submitter, policy, pinger)
	if err := app.coord.Resume(ctx); err != nil {
		return nil, fmt.Errorf("failed to resume task table: %w", err)
	}

	// 3. Discovery
	var seen discovery.SeenSet = discovery.NopSeenSet{}
	if cfg.Redis.URL != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, seen set disabled", "error", err)
		} else {
			app.redisClient = redisClient
			seen = redisclient.NewSeenSet(redisClient)
		}
	}
	if app.provider == nil {
		app.provider = discovery.NewDuckDuckGoProvider(30 * time.Second)
	}
	app.discoverer = discovery.NewDiscoverer(app.provider, seen, app.coord, cfg.Discovery)

	// 4. Fetch/extract collaborators and the worker pool
	if app.browser == nil {
		app.browser = extract.NewChromeDriver(cfg.Workers.FetchTimeout)
	}
	if app.extractor == nil {
		app.extractor = extract.NewHeuristicExtractor()
	}
	app.pool = coordinator.NewPool(coordinator.PoolConfig{
		Workers:        cfg.Workers.Count,
		FetchTimeout:   cfg.Workers.FetchTimeout,
		ExtractTimeout: cfg.Workers.ExtractTimeout,
		MinDelay:       cfg.Workers.MinDelay,
		MaxDelay:       cfg.Workers.MaxDelay,
		Once:           app.once,
	}, app.coord, app.browser, app.extractor)

	// 5. Health server
	app.healthServer = health.NewServer(pinger, exhRepo, app.coord, cfg.Server.Port)

	return app, nil
}

// Start runs the discovery sweep and the worker pool. It blocks until the
// context is cancelled, or in once mode until the queue drains.
//
// In once mode the sweep runs to completion before the pool starts: the
// pool's drain check is only meaningful over a fully enqueued queue, and
// workers launched against an empty task table would otherwise exit
// before the first search result comes back.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.healthServer.Start(); err != nil {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	if a.once {
		if _, err := a.discoverer.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Error("Discovery sweep failed", "error", err)
		}
	} else {
		go func() {
			if _, err := a.discoverer.Run(ctx); err != nil && ctx.Err() == nil {
				a.log.Error("Discovery sweep failed", "error", err)
			}
		}()
	}

	return a.pool.Run(ctx)
}

// Stop shuts the pipeline down, aggregating close errors.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping...")

	var errs error
	if a.browser != nil {
		errs = multierr.Append(errs, a.browser.Close())
	}
	if a.redisClient != nil {
		errs = multierr.Append(errs, a.redisClient.Close())
	}
	if a.db != nil {
		errs = multierr.Append(errs, a.db.Close())
	}
	errs = multierr.Append(errs, a.healthServer.Stop(ctx))
	return errs
}

// Coordinator exposes the task coordinator for status reporting.
func (a *App) Coordinator() *coordinator.Coordinator { return a.coord }
