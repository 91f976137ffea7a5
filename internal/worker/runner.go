// Package worker drives the daily global ledger projection run.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"condomini/internal/core"
)

// GlobalGenerator is the ledger entry point the daily run invokes.
type GlobalGenerator interface {
	GenerateAll(ctx context.Context) (int, error)
}

// RunnerConfig holds configuration for the daily projection runner.
type RunnerConfig struct {
	// Enabled gates the scheduled loop; manual runs still work when false.
	Enabled bool

	// Interval between scheduled runs (default: 24h).
	Interval time.Duration

	// MaxAttempts per run before logging a terminal failure (default: 3).
	MaxAttempts int

	// RetryDelay between attempts (default: 5s).
	RetryDelay time.Duration
}

// DefaultRunnerConfig returns the production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Enabled:     true,
		Interval:    24 * time.Hour,
		MaxAttempts: 3,
		RetryDelay:  5 * time.Second,
	}
}

// JobStatus is the runner's health snapshot.
type JobStatus struct {
	Enabled   bool
	Running   bool
	Interval  time.Duration
	LastRun   time.Time
	LastError string
}

// Runner invokes the global ledger projection on a schedule, with bounded
// retry. A single running flag guarantees at most one run process-wide.
type Runner struct {
	generator GlobalGenerator
	config    RunnerConfig
	sleep     func(ctx context.Context, d time.Duration) // injectable for tests

	mu      sync.Mutex
	running bool
	lastRun time.Time
	lastErr error
}

func NewRunner(generator GlobalGenerator, config RunnerConfig) *Runner {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}
	return &Runner{
		generator: generator,
		config:    config,
		sleep:     sleepCtx,
	}
}

// Start runs the scheduled loop until ctx is cancelled: one run at startup,
// then one per interval. It returns immediately when the runner is disabled.
func (r *Runner) Start(ctx context.Context) error {
	if !r.config.Enabled {
		slog.InfoContext(ctx, "Scheduled projection runs disabled")
		return nil
	}

	slog.InfoContext(ctx, "Projection runner started", "interval", r.config.Interval)
	r.Trigger(ctx)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Projection runner stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			r.Trigger(ctx)
		}
	}
}

// Trigger starts a run unless one is already in flight, in which case it is
// a logged no-op. Failures are retried up to MaxAttempts with a fixed delay;
// exhaustion is logged as terminal and the process carries on.
func (r *Runner) Trigger(ctx context.Context) {
	if !r.tryAcquire() {
		slog.WarnContext(ctx, "Projection run already in progress, skipping trigger")
		return
	}
	defer r.releaseRun()
	r.runWithRetry(ctx)
}

// RunNow performs a manual full regeneration. It refuses to start while a
// scheduled run is in progress, signalling core.ErrBusy upstream.
func (r *Runner) RunNow(ctx context.Context) (int, error) {
	if !r.tryAcquire() {
		return 0, fmt.Errorf("manual regeneration rejected: %w", core.ErrBusy)
	}
	defer r.releaseRun()

	count, err := r.generator.GenerateAll(ctx)
	r.record(err)
	if err != nil {
		return count, fmt.Errorf("manual regeneration: %w", err)
	}
	return count, nil
}

// Status reports the runner's configuration and last outcome.
func (r *Runner) Status() JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := JobStatus{
		Enabled:  r.config.Enabled,
		Running:  r.running,
		Interval: r.config.Interval,
		LastRun:  r.lastRun,
	}
	if r.lastErr != nil {
		st.LastError = r.lastErr.Error()
	}
	return st
}

func (r *Runner) runWithRetry(ctx context.Context) {
	var err error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		var count int
		count, err = r.generator.GenerateAll(ctx)
		if err == nil {
			r.record(nil)
			slog.InfoContext(ctx, "Scheduled projection run complete",
				"entries_created", count,
				"attempt", attempt)
			return
		}
		slog.ErrorContext(ctx, "Projection run attempt failed",
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"error", err)
		if attempt < r.config.MaxAttempts {
			r.sleep(ctx, r.config.RetryDelay)
			if ctx.Err() != nil {
				break
			}
		}
	}
	r.record(err)
	slog.ErrorContext(ctx, "Projection run failed terminally, awaiting next schedule",
		"attempts", r.config.MaxAttempts,
		"error", err)
}

func (r *Runner) tryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) releaseRun() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *Runner) record(err error) {
	r.mu.Lock()
	r.lastRun = time.Now()
	r.lastErr = err
	r.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
