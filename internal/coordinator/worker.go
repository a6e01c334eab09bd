package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/artscout/artscout/internal/core/domain"
	"github.com/artscout/artscout/internal/extract"
	"github.com/artscout/artscout/internal/metrics"
)

// PoolConfig sizes and paces the worker pool.
type PoolConfig struct {
	Workers        int
	FetchTimeout   time.Duration
	ExtractTimeout time.Duration

	// Randomized delay between requests, applied per worker. Keeps the
	// pool from hammering source sites.
	MinDelay time.Duration
	MaxDelay time.Duration

	// PollInterval is how long an idle worker sleeps before asking for
	// work again.
	PollInterval time.Duration

	// Once makes Run return as soon as every known task is terminal,
	// instead of waiting for more work.
	Once bool
}

func (c *PoolConfig) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 45 * time.Second
	}
	if c.ExtractTimeout <= 0 {
		c.ExtractTimeout = 15 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.MaxDelay < c.MinDelay {
		c.MaxDelay = c.MinDelay
	}
}

// Pool runs the fetch -> extract -> report loop over the coordinator's
// queue with a fixed number of workers.
type Pool struct {
	cfg       PoolConfig
	coord     *Coordinator
	browser   extract.BrowserDriver
	extractor extract.Extractor
	log       *slog.Logger
}

func NewPool(cfg PoolConfig, coord *Coordinator, browser extract.BrowserDriver, extractor extract.Extractor) *Pool {
	cfg.applyDefaults()
	return &Pool{
		cfg:       cfg,
		coord:     coord,
		browser:   browser,
		extractor: extractor,
		log:       slog.Default().With("component", "worker_pool"),
	}
}

// Run blocks until the context is cancelled, or in Once mode until the
// queue drains. In-flight tasks are released back to the queue on
// cancellation so nothing is half-counted.
func (p *Pool) Run(ctx context.Context) error {
	p.log.Info("Starting workers", "count", p.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.worker(ctx, id)
		}(i)
	}
	wg.Wait()

	p.log.Info("Workers stopped")
	return nil
}

func (p *Pool) worker(ctx context.Context, id int) {
	log := p.log.With("worker", id)
	// Per-worker source to avoid lock contention on the shared one.
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	for {
		if ctx.Err() != nil {
			return
		}

		task, err := p.coord.Next(ctx)
		if err != nil {
			log.Error("Failed to pull next task", "error", err)
			if !sleep(ctx, p.cfg.PollInterval) {
				return
			}
			continue
		}
		if task == nil {
			if p.cfg.Once && p.coord.Drained() && !p.coord.Paused() {
				return
			}
			if !sleep(ctx, p.cfg.PollInterval) {
				return
			}
			continue
		}

		metrics.WorkersBusy.Inc()
		p.process(ctx, log, task)
		metrics.WorkersBusy.Dec()

		if delay := p.requestDelay(rng); delay > 0 {
			if !sleep(ctx, delay) {
				return
			}
		}
	}
}

// process runs one attempt. Cancellation mid-attempt releases the task
// back to Pending rather than counting a failure against it.
func (p *Pool) process(ctx context.Context, log *slog.Logger, task *domain.Task) {
	log.Debug("Processing task", "url", task.URL, "attempt", task.Attempts)

	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	page, err := p.browser.Fetch(fetchCtx, task.URL)
	cancel()
	if err != nil {
		p.settleFailure(ctx, log, task, err)
		return
	}

	extractCtx, cancel := context.WithTimeout(ctx, p.cfg.ExtractTimeout)
	candidate, err := p.extractor.Extract(extractCtx, page)
	cancel()
	if err != nil {
		if !isClassified(err) {
			err = &domain.ExtractionError{URL: task.URL, Err: err}
		}
		p.settleFailure(ctx, log, task, err)
		return
	}
	candidate.URL = task.URL

	if err := p.coord.ReportSuccess(ctx, task.ID, candidate); err != nil {
		log.Error("Failed to report success", "url", task.URL, "error", err)
	}
}

func (p *Pool) settleFailure(ctx context.Context, log *slog.Logger, task *domain.Task, taskErr error) {
	if ctx.Err() != nil {
		// Shutdown, not a page problem.
		if err := p.coord.Release(context.Background(), task.ID); err != nil {
			log.Error("Failed to release task", "url", task.URL, "error", err)
		}
		return
	}
	if err := p.coord.ReportFailure(ctx, task.ID, taskErr); err != nil {
		log.Error("Failed to report failure", "url", task.URL, "error", err)
	}
}

func (p *Pool) requestDelay(rng *rand.Rand) time.Duration {
	if p.cfg.MaxDelay <= 0 {
		return 0
	}
	spread := p.cfg.MaxDelay - p.cfg.MinDelay
	if spread <= 0 {
		return p.cfg.MinDelay
	}
	return p.cfg.MinDelay + time.Duration(rng.Int63n(int64(spread)))
}

func isClassified(err error) bool {
	var fe *domain.FetchError
	var xe *domain.ExtractionError
	var ve *domain.ValidationError
	return errors.As(err, &fe) || errors.As(err, &xe) || errors.As(err, &ve)
}

// sleep waits for d or until ctx is done; reports false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
