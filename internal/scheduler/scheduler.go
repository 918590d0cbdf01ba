// Package scheduler drives periodic sync from durable schedule rows. Any
// number of worker processes can run the loop concurrently: the per-event
// sync lease arbitrates who actually executes a due pass.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/comedyloft/boxoffice/internal/domain"
	"github.com/comedyloft/boxoffice/internal/service"
)

// Config carries the worker loop parameters.
type Config struct {
	// PollInterval is how often the worker checks for due schedules.
	PollInterval time.Duration
	// BatchSize caps how many due schedules one poll claims.
	BatchSize int
}

// Worker polls sync_schedules and runs due events through the sync service.
type Worker struct {
	schedules domain.ScheduleStore
	sync      *service.SyncService
	cfg       Config
	logger    *slog.Logger
}

// New creates a Worker.
func New(schedules domain.ScheduleStore, sync *service.SyncService, cfg Config, logger *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	return &Worker{
		schedules: schedules,
		sync:      sync,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "scheduler")),
	}
}

// Run polls until the context is cancelled. The first poll happens
// immediately so a restart picks up overdue work without waiting a tick.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "scheduler started",
		slog.Duration("poll_interval", w.cfg.PollInterval),
		slog.Int("batch_size", w.cfg.BatchSize))

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		w.runDue(ctx)

		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// runDue claims and executes one batch of due schedules. Errors are logged
// per event and never stop the loop.
func (w *Worker) runDue(ctx context.Context) {
	now := time.Now().UTC()
	due, err := w.schedules.ListDue(ctx, now, w.cfg.BatchSize)
	if err != nil {
		w.logger.WarnContext(ctx, "list due schedules failed",
			slog.String("error", err.Error()))
		return
	}

	for _, sched := range due {
		if ctx.Err() != nil {
			return
		}
		if err := w.runOne(ctx, sched); err != nil {
			w.logger.WarnContext(ctx, "scheduled sync failed",
				slog.String("event_id", sched.EventID),
				slog.String("error", err.Error()))
		}
	}
}

// runOne executes a single due schedule and advances next_run_at. A held
// lease means another runner owns this pass right now; the row is left
// untouched so whoever holds the lease (or the next poll) advances it.
func (w *Worker) runOne(ctx context.Context, sched domain.SyncSchedule) error {
	ranAt := time.Now().UTC()

	_, err := w.sync.SyncAllPlatforms(ctx, sched.EventID)
	if errors.Is(err, domain.ErrLockHeld) {
		return nil
	}
	// Advance the schedule on failure too. Retrying every poll until a
	// broken provider recovers would hammer it; the regular cadence is the
	// retry policy.
	if merr := w.schedules.MarkRun(ctx, sched.EventID, ranAt, ranAt.Add(sched.Interval)); merr != nil {
		if err != nil {
			return fmt.Errorf("sync: %w (mark run also failed: %v)", err, merr)
		}
		return fmt.Errorf("mark run: %w", merr)
	}
	return err
}
