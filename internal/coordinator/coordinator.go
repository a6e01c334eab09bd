package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/artscout/artscout/internal/consistency"
	"github.com/artscout/artscout/internal/core/domain"
	"github.com/artscout/artscout/internal/infra/storage"
	"github.com/artscout/artscout/internal/metrics"
	retrypolicy "github.com/artscout/artscout/internal/retry"
)

// Submitter is the consistency layer as seen by the coordinator.
type Submitter interface {
	Submit(ctx context.Context, c *domain.Candidate) (consistency.StoreResult, error)
}

// Coordinator owns the task table: it enqueues URLs, hands eligible tasks
// to workers, applies state transitions, and consults the retry policy on
// failures. All operations on the table are short and run under one lock;
// the blocking work (fetch, extract, store) happens in the workers and the
// consistency layer.
type Coordinator struct {
	mu     sync.Mutex
	tasks  map[string]*domain.Task // by task id
	byURL  map[string]string       // url -> task id
	paused bool

	repo      storage.TaskRepository
	submitter Submitter
	policy    *retrypolicy.Policy
	pinger    storage.Pinger
	log       *slog.Logger

	now func() time.Time // overridable in tests
}

// New creates a coordinator. The pinger is polled while dispatch is paused
// on a store failure.
func New(
	repo storage.TaskRepository,
	submitter Submitter,
	policy *retrypolicy.Policy,
	pinger storage.Pinger,
) *Coordinator {
	return &Coordinator{
		tasks:     make(map[string]*domain.Task),
		byURL:     make(map[string]string),
		repo:      repo,
		submitter: submitter,
		policy:    policy,
		pinger:    pinger,
		log:       slog.Default().With("component", "coordinator"),
		now:       time.Now,
	}
}

// Resume reloads the durable task table. Tasks stuck InProgress from an
// interrupted run revert to Pending so they are retried; terminal tasks
// are not reloaded and never rescheduled.
func (c *Coordinator) Resume(ctx context.Context) error {
	tasks, err := c.repo.LoadResumable(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range tasks {
		if t.State == domain.TaskInProgress {
			t.State = domain.TaskPending
			if err := c.repo.Update(ctx, t); err != nil {
				return err
			}
		}
		c.tasks[t.ID] = t
		c.byURL[t.URL] = t.ID
	}
	c.updateDepthLocked()

	if len(tasks) > 0 {
		c.log.Info("Resumed task table", "tasks", len(tasks))
	}
	return nil
}

// Enqueue creates a Pending task for the URL. A URL that already has a
// task, in any state, is a no-op: queue-level dedup is independent of the
// content-level dedup downstream.
func (c *Coordinator) Enqueue(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byURL[url]; ok {
		return nil
	}
	// The in-memory view is authoritative after Resume, but a task may
	// exist from an earlier completed run.
	if _, err := c.repo.GetByURL(ctx, url); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	t := &domain.Task{
		ID:        uuid.New().String(),
		URL:       url,
		State:     domain.TaskPending,
		CreatedAt: c.now().UTC(),
		UpdatedAt: c.now().UTC(),
	}
	if err := c.repo.Save(ctx, t); err != nil {
		return err
	}
	c.tasks[t.ID] = t
	c.byURL[url] = t.ID
	c.updateDepthLocked()
	return nil
}

// Next hands the next eligible task to a worker, transitioning it to
// InProgress and counting the attempt. Returns nil when nothing is
// eligible or dispatch is paused.
func (c *Coordinator) Next(ctx context.Context) (*domain.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paused {
		return nil, nil
	}

	now := c.now()
	var picked *domain.Task
	for _, t := range c.tasks {
		if !t.Eligible(now) {
			continue
		}
		if picked == nil || t.CreatedAt.Before(picked.CreatedAt) {
			picked = t
		}
	}
	if picked == nil {
		return nil, nil
	}

	picked.State = domain.TaskInProgress
	picked.Attempts++
	picked.UpdatedAt = now.UTC()
	if err := c.repo.Update(ctx, picked); err != nil {
		picked.State = domain.TaskPending
		picked.Attempts--
		return nil, err
	}
	c.updateDepthLocked()

	cp := *picked
	return &cp, nil
}

// ReportSuccess forwards the extracted candidate to the consistency layer
// and settles the task: Stored on success, Failed on rejection (rejections
// are structural, never retried). A store failure pauses dispatch and
// returns the task to the queue without consuming its attempt.
func (c *Coordinator) ReportSuccess(ctx context.Context, taskID string, candidate *domain.Candidate) error {
	res, err := c.submitter.Submit(ctx, candidate)
	if err != nil {
		var se *domain.StoreError
		if errors.As(err, &se) {
			c.pauseDispatch(ctx, taskID)
			return nil
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tasks[taskID]
	if !ok {
		return nil
	}
	if res.Rejected {
		t.State = domain.TaskFailed
		t.LastError = res.Reason
		metrics.TasksTotal.WithLabelValues("failed").Inc()
		c.log.Warn("Candidate rejected, task failed", "url", t.URL, "reason", res.Reason)
	} else {
		t.State = domain.TaskStored
		t.LastError = ""
		metrics.TasksTotal.WithLabelValues("stored").Inc()
		c.log.Debug("Task stored", "url", t.URL, "exhibition_id", res.ExhibitionID)
	}
	t.UpdatedAt = c.now().UTC()
	c.updateDepthLocked()
	return c.repo.Update(ctx, t)
}

// ReportFailure classifies the error and consults the retry policy:
// transient failures go to Retrying with a backoff deadline, exhausted or
// permanent failures go to Abandoned. Store failures pause dispatch.
func (c *Coordinator) ReportFailure(ctx context.Context, taskID string, taskErr error) error {
	class := domain.Classify(taskErr)
	if class == domain.ClassStore {
		c.pauseDispatch(ctx, taskID)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tasks[taskID]
	if !ok {
		return nil
	}

	t.LastError = taskErr.Error()
	decision := c.policy.Decide(t.Attempts, class)
	if decision.Retry {
		t.State = domain.TaskRetrying
		t.NextRetryAt = c.now().Add(decision.Delay)
		metrics.RetriesScheduled.WithLabelValues(class.String()).Inc()
		metrics.BackoffDelay.Observe(decision.Delay.Seconds())
		c.log.Info("Task scheduled for retry",
			"url", t.URL, "attempt", t.Attempts, "delay", decision.Delay, "error", taskErr)
	} else {
		t.State = domain.TaskAbandoned
		metrics.TasksTotal.WithLabelValues("abandoned").Inc()
		c.log.Warn("Task abandoned",
			"url", t.URL, "attempts", t.Attempts, "class", class.String(), "error", taskErr)
	}
	t.UpdatedAt = c.now().UTC()
	c.updateDepthLocked()
	return c.repo.Update(ctx, t)
}

// Release returns an InProgress task to Pending without consuming its
// attempt, used when a worker is cancelled between suspension points.
func (c *Coordinator) Release(ctx context.Context, taskID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releaseLocked(ctx, taskID)
}

func (c *Coordinator) releaseLocked(ctx context.Context, taskID string) error {
	t, ok := c.tasks[taskID]
	if !ok || t.State != domain.TaskInProgress {
		return nil
	}
	t.State = domain.TaskPending
	if t.Attempts > 0 {
		t.Attempts--
	}
	t.UpdatedAt = c.now().UTC()
	c.updateDepthLocked()
	return c.repo.Update(ctx, t)
}

// Drained reports whether every known task has reached a terminal state.
func (c *Coordinator) Drained() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tasks {
		if !t.State.Terminal() {
			return false
		}
	}
	return true
}

// Paused reports whether dispatch is currently halted on a store failure.
func (c *Coordinator) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// pauseDispatch halts Next, returns the failing task to the queue, and
// pings the store until it is reachable again. Queued work is never lost:
// the run stays resumable throughout.
func (c *Coordinator) pauseDispatch(ctx context.Context, taskID string) {
	c.mu.Lock()
	if c.paused {
		// A recovery check is already running; just requeue this task.
		_ = c.releaseLocked(ctx, taskID)
		c.mu.Unlock()
		return
	}
	c.paused = true
	metrics.DispatchPaused.Set(1)
	_ = c.releaseLocked(ctx, taskID)
	c.mu.Unlock()

	c.log.Error("Store unreachable, pausing task dispatch")

	// The recovery check shares the reporting context so shutdown stops it.
	go func() {
		backoff := retry.WithCappedDuration(30*time.Second, retry.NewFibonacci(time.Second))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := c.pinger.Ping(pingCtx); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})

		c.mu.Lock()
		c.paused = false
		metrics.DispatchPaused.Set(0)
		c.mu.Unlock()

		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("Store recovery check stopped by shutdown")
				return
			}
			c.log.Error("Store recovery check gave up", "error", err)
			return
		}
		c.log.Info("Store reachable again, resuming task dispatch")
	}()
}

// Counts returns the durable per-state task counts.
func (c *Coordinator) Counts(ctx context.Context) (map[domain.TaskState]int, error) {
	return c.repo.CountByState(ctx)
}

func (c *Coordinator) updateDepthLocked() {
	depth := 0
	for _, t := range c.tasks {
		if t.State == domain.TaskPending || t.State == domain.TaskRetrying {
			depth++
		}
	}
	metrics.QueueDepth.Set(float64(depth))
}
