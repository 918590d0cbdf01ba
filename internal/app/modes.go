package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/comedyloft/boxoffice/internal/config"
	"github.com/comedyloft/boxoffice/internal/domain"
	"github.com/comedyloft/boxoffice/internal/scheduler"
	"github.com/comedyloft/boxoffice/internal/server"
	"github.com/comedyloft/boxoffice/internal/server/handler"
	"github.com/comedyloft/boxoffice/internal/service"
)

// services bundles the domain services shared by the operating modes.
type services struct {
	sync      *service.SyncService
	reconcile *service.ReconciliationService
	webhooks  *service.WebhookService
}

// buildServices constructs the domain services from wired dependencies.
func (a *App) buildServices(deps *Dependencies) *services {
	syncSvc := service.NewSyncService(
		deps.Platforms,
		deps.Sales, deps.Links, deps.Events, deps.Schedules, deps.Audit,
		deps.LockManager, deps.RateLimiter,
		service.SyncConfig{
			LeaseTTL:        a.cfg.Sync.LeaseTTL.Duration,
			RateWindow:      a.cfg.Sync.RateWindow.Duration,
			RateLimits:      platformRateLimits(a.cfg),
			DefaultInterval: a.cfg.Sync.DefaultInterval.Duration,
		},
		a.logger,
	)

	reconcileSvc := service.NewReconciliationService(
		deps.Platforms,
		deps.Sales, deps.Links, deps.Events, deps.Reports, deps.Discrepancies, deps.Audit,
		deps.Notifier,
		service.ReconcileConfig{
			MismatchDetectCents:   a.cfg.Reconcile.MismatchDetectCents,
			AutoCorrectMaxCents:   a.cfg.Reconcile.AutoCorrectMaxCents,
			HighSeverityCents:     a.cfg.Reconcile.HighSeverityCents,
			DuplicateWindow:       a.cfg.Reconcile.DuplicateWindow.Duration,
			AlertDiscrepancyCount: a.cfg.Reconcile.AlertDiscrepancyCount,
			AlertRevenueCents:     a.cfg.Reconcile.AlertRevenueCents,
		},
		a.logger,
	)

	webhookSvc := service.NewWebhookService(
		deps.Platforms,
		deps.Sales, deps.Links, deps.WebhookLogs,
		syncSvc,
		a.logger,
	)

	return &services{sync: syncSvc, reconcile: reconcileSvc, webhooks: webhookSvc}
}

// platformRateLimits maps each enabled platform to its configured outbound
// call budget.
func platformRateLimits(cfg *config.Config) map[domain.Platform]int {
	limits := make(map[domain.Platform]int)
	if cfg.Humanitix.Enabled {
		limits[domain.PlatformHumanitix] = cfg.Humanitix.RateLimit
	}
	if cfg.Eventbrite.Enabled {
		limits[domain.PlatformEventbrite] = cfg.Eventbrite.RateLimit
	}
	return limits
}

// ServerMode runs the HTTP API and webhook intake.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, a.buildServices(deps))
	return g.Wait()
}

// WorkerMode runs the durable sync scheduler and, when enabled, the
// cold-storage archiver.
func (a *App) WorkerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting worker mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startWorkers(ctx, g, deps, a.buildServices(deps))
	return g.Wait()
}

// FullMode runs the HTTP API and the workers in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)
	a.startWorkers(ctx, g, deps, svcs)
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, svcs)
	}
	return g.Wait()
}

// startWorkers adds the scheduler loop and the archive loop to the group.
func (a *App) startWorkers(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	worker := scheduler.New(deps.Schedules, svcs.sync, scheduler.Config{
		PollInterval: a.cfg.Sync.PollInterval.Duration,
		BatchSize:    a.cfg.Sync.DueBatchSize,
	}, a.logger)
	g.Go(func() error {
		err := worker.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})

	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		loop := scheduler.NewArchiveLoop(deps.Archiver, scheduler.ArchiveConfig{
			Retention: time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour,
			Interval:  a.cfg.Archive.Interval.Duration,
		}, a.logger)
		g.Go(func() error {
			err := loop.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return err
		})
	}
}

// startHTTPServer adds the HTTP server and its graceful-shutdown watcher to
// the group.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(deps.Health, a.logger),
		Sync:      handler.NewSyncHandler(svcs.sync, a.logger),
		Reconcile: handler.NewReconcileHandler(svcs.reconcile, a.logger),
		Webhooks:  handler.NewWebhookHandler(svcs.webhooks, a.logger),
		Archives:  handler.NewArchiveHandler(deps.BlobReader, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:              a.cfg.Server.Port,
		CORSOrigins:       a.cfg.Server.CORSOrigins,
		APIKey:            a.cfg.Server.ApiKey,
		WebhookRateLimit:  120,
		WebhookRateWindow: time.Minute,
	}, handlers, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
