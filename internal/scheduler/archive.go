package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// ArchiveConfig carries the cold-storage loop parameters.
type ArchiveConfig struct {
	// Retention is how long rows stay in Postgres before archival.
	Retention time.Duration
	// Interval is the cadence of archival runs.
	Interval time.Duration
}

// ArchiveLoop periodically moves aged webhook logs and completed
// reconciliation reports into the bucket.
type ArchiveLoop struct {
	archiver domain.Archiver
	cfg      ArchiveConfig
	logger   *slog.Logger
}

// NewArchiveLoop creates an ArchiveLoop.
func NewArchiveLoop(archiver domain.Archiver, cfg ArchiveConfig, logger *slog.Logger) *ArchiveLoop {
	if cfg.Retention <= 0 {
		cfg.Retention = 90 * 24 * time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	return &ArchiveLoop{
		archiver: archiver,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "archive")),
	}
}

// Run archives on the configured cadence until the context is cancelled.
// The first run happens immediately so restarts don't delay overdue work.
func (l *ArchiveLoop) Run(ctx context.Context) error {
	l.logger.InfoContext(ctx, "archive loop started",
		slog.Duration("retention", l.cfg.Retention),
		slog.Duration("interval", l.cfg.Interval))

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		l.runOnce(ctx)

		select {
		case <-ctx.Done():
			l.logger.InfoContext(ctx, "archive loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// runOnce archives both kinds. Failures are logged and retried next cycle.
func (l *ArchiveLoop) runOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-l.cfg.Retention)

	logs, err := l.archiver.ArchiveWebhookLogs(ctx, cutoff)
	if err != nil {
		l.logger.WarnContext(ctx, "archive webhook logs failed",
			slog.String("error", err.Error()))
	}

	reports, err := l.archiver.ArchiveReports(ctx, cutoff)
	if err != nil {
		l.logger.WarnContext(ctx, "archive reports failed",
			slog.String("error", err.Error()))
	}

	if logs > 0 || reports > 0 {
		l.logger.InfoContext(ctx, "archive run completed",
			slog.Int64("webhook_logs", logs),
			slog.Int64("reports", reports))
	}
}
