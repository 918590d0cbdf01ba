package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/comedyloft/boxoffice/internal/domain"
	"github.com/comedyloft/boxoffice/internal/platform"
)

// SyncConfig carries the orchestration parameters the sync service needs.
type SyncConfig struct {
	// LeaseTTL bounds how long one sync pass may hold an event's lease.
	LeaseTTL time.Duration
	// RateWindow is the sliding window for outbound provider rate limits.
	RateWindow time.Duration
	// RateLimits maps each platform to its allowed calls per window.
	RateLimits map[domain.Platform]int
	// DefaultInterval seeds new sync schedules.
	DefaultInterval time.Duration
}

// SyncService mirrors provider sales into the local database and keeps the
// per-platform and per-event aggregates current.
type SyncService struct {
	platforms *platform.Registry
	sales     domain.SaleStore
	links     domain.PlatformStore
	events    domain.EventStore
	schedules domain.ScheduleStore
	audit     domain.AuditStore
	locks     domain.LockManager
	limiter   domain.RateLimiter
	cfg       SyncConfig
	logger    *slog.Logger
}

// NewSyncService creates a SyncService.
func NewSyncService(
	platforms *platform.Registry,
	sales domain.SaleStore,
	links domain.PlatformStore,
	events domain.EventStore,
	schedules domain.ScheduleStore,
	audit domain.AuditStore,
	locks domain.LockManager,
	limiter domain.RateLimiter,
	cfg SyncConfig,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		platforms: platforms,
		sales:     sales,
		links:     links,
		events:    events,
		schedules: schedules,
		audit:     audit,
		locks:     locks,
		limiter:   limiter,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "sync")),
	}
}

// SyncAllPlatforms runs one sync pass for every sync-enabled platform linked
// to the event. Platforms run concurrently; a failure on one platform is
// recorded in its SyncResult and never aborts the others. The whole pass is
// guarded by a per-event lease so concurrent triggers (scheduler, API,
// webhook fallback) cannot overlap.
func (s *SyncService) SyncAllPlatforms(ctx context.Context, eventID string) ([]domain.SyncResult, error) {
	unlock, err := s.locks.Acquire(ctx, "sync:event:"+eventID, s.cfg.LeaseTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			s.logger.InfoContext(ctx, "sync already running, skipping",
				slog.String("event_id", eventID))
			return nil, domain.ErrLockHeld
		}
		return nil, fmt.Errorf("sync: lease event %s: %w", eventID, err)
	}
	defer unlock()

	links, err := s.links.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("sync: list platforms for %s: %w", eventID, err)
	}

	var (
		mu      sync.Mutex
		results []domain.SyncResult
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, link := range links {
		if !link.SyncEnabled {
			continue
		}
		g.Go(func() error {
			res := s.syncLink(gctx, link)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	if err := s.updateEventTotals(ctx, eventID); err != nil {
		s.logger.WarnContext(ctx, "event totals rollup failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()))
	}

	for _, res := range results {
		s.recordResult(ctx, res)
	}

	return results, nil
}

// SyncPlatform runs one sync pass for a single platform link.
func (s *SyncService) SyncPlatform(ctx context.Context, eventID string, p domain.Platform) (domain.SyncResult, error) {
	link, err := s.links.GetByEventPlatform(ctx, eventID, p)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("sync: get platform link %s/%s: %w", eventID, p, err)
	}

	res := s.syncLink(ctx, link)

	if err := s.updateEventTotals(ctx, eventID); err != nil {
		s.logger.WarnContext(ctx, "event totals rollup failed",
			slog.String("event_id", eventID),
			slog.String("error", err.Error()))
	}
	s.recordResult(ctx, res)

	return res, nil
}

// syncLink fetches one platform's event and orders, refreshes the mirror,
// and writes the link aggregates. Errors land in the returned SyncResult.
func (s *SyncService) syncLink(ctx context.Context, link domain.TicketPlatform) domain.SyncResult {
	res := domain.SyncResult{
		Platform:        link.Platform,
		EventID:         link.EventID,
		ExternalEventID: link.ExternalEventID,
		SyncedAt:        time.Now().UTC(),
	}

	fail := func(err error) domain.SyncResult {
		res.Error = err.Error()
		s.logger.WarnContext(ctx, "platform sync failed",
			slog.String("event_id", link.EventID),
			slog.String("platform", string(link.Platform)),
			slog.String("error", err.Error()))
		if serr := s.links.SetSyncStatus(ctx, link.EventID, link.Platform, "error", err.Error(), res.SyncedAt); serr != nil {
			s.logger.WarnContext(ctx, "record sync error failed",
				slog.String("error", serr.Error()))
		}
		return res
	}

	client, err := s.platforms.Get(link.Platform)
	if err != nil {
		return fail(fmt.Errorf("sync: %w", err))
	}

	if err := s.waitAllow(ctx, link.Platform); err != nil {
		return fail(err)
	}
	platEvent, err := client.GetEvent(ctx, link.ExternalEventID)
	if err != nil {
		return fail(err)
	}

	if err := s.waitAllow(ctx, link.Platform); err != nil {
		return fail(err)
	}
	orders, err := client.GetOrders(ctx, link.ExternalEventID)
	if err != nil {
		return fail(err)
	}

	imported, err := s.importOrders(ctx, link, orders)
	if err != nil {
		return fail(err)
	}

	var (
		ticketsSold int
		grossCents  int64
		feesCents   int64
		ordersCount int
	)
	for _, o := range orders {
		if !o.Paid() || o.Refunded {
			continue
		}
		ticketsSold += o.Quantity
		grossCents += o.TotalAmountCents
		feesCents += o.FeesCents
		ordersCount++
	}

	link.TicketsSold = ticketsSold
	link.TicketsAvailable = platEvent.Capacity - ticketsSold
	link.GrossSalesCents = grossCents
	link.FeesCents = feesCents
	link.NetRevenueCents = grossCents - feesCents
	link.OrdersCount = ordersCount

	if err := s.links.UpdateAggregates(ctx, link); err != nil {
		return fail(err)
	}
	if err := s.links.SetSyncStatus(ctx, link.EventID, link.Platform, "ok", "", res.SyncedAt); err != nil {
		return fail(err)
	}

	res.Success = true
	res.TicketsSold = ticketsSold
	res.GrossSalesCents = grossCents
	res.OrdersImported = imported

	s.logger.InfoContext(ctx, "platform sync completed",
		slog.String("event_id", link.EventID),
		slog.String("platform", string(link.Platform)),
		slog.Int("tickets_sold", ticketsSold),
		slog.Int64("gross_cents", grossCents),
		slog.Int("orders_imported", imported))

	return res
}

// importOrders mirrors paid provider orders that are not yet present
// locally. Rows the mirror already holds are left alone: amount drift is
// reconciliation's job, and a blanket rewrite would undo manual
// adjustments. Refunds are applied through the idempotent refund path
// rather than the upsert so a re-sync cannot double-negate.
func (s *SyncService) importOrders(ctx context.Context, link domain.TicketPlatform, orders []domain.PlatformOrder) (int, error) {
	existing, err := s.sales.ListByEventPlatform(ctx, link.EventID, link.Platform)
	if err != nil {
		return 0, fmt.Errorf("sync: list mirrored sales: %w", err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, sale := range existing {
		have[sale.PlatformOrderID] = struct{}{}
	}

	var toInsert []domain.TicketSale
	for _, o := range orders {
		if !o.Paid() || o.Refunded {
			continue
		}
		if _, ok := have[o.OrderID]; ok {
			continue
		}
		toInsert = append(toInsert, saleFromOrder(link.EventID, link.Platform, o))
	}

	if err := s.sales.UpsertBatch(ctx, toInsert); err != nil {
		return 0, fmt.Errorf("sync: import orders: %w", err)
	}

	for _, o := range orders {
		if !o.Refunded {
			continue
		}
		if _, err := s.sales.MarkRefunded(ctx, link.Platform, o.OrderID, o.TotalAmountCents); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return 0, fmt.Errorf("sync: apply refund %s: %w", o.OrderID, err)
		}
	}

	return len(toInsert), nil
}

// saleFromOrder builds the mirror row for a provider order.
func saleFromOrder(eventID string, p domain.Platform, o domain.PlatformOrder) domain.TicketSale {
	return domain.TicketSale{
		ID:               uuid.New().String(),
		EventID:          eventID,
		Platform:         p,
		PlatformOrderID:  o.OrderID,
		CustomerName:     o.CustomerName,
		CustomerEmail:    o.CustomerEmail,
		TicketType:       o.TicketType,
		Quantity:         o.Quantity,
		UnitPriceCents:   o.UnitPriceCents,
		TotalAmountCents: o.TotalAmountCents,
		Currency:         o.Currency,
		Status:           "paid",
		RefundStatus:     domain.RefundStatusNone,
		PurchasedAt:      o.CreatedAt,
	}
}

// updateEventTotals recomputes the denormalized cross-platform rollup.
func (s *SyncService) updateEventTotals(ctx context.Context, eventID string) error {
	links, err := s.links.ListByEvent(ctx, eventID)
	if err != nil {
		return err
	}

	var (
		tickets int
		gross   int64
		orders  int
	)
	for _, l := range links {
		tickets += l.TicketsSold
		gross += l.GrossSalesCents
		orders += l.OrdersCount
	}

	return s.events.UpdateTotals(ctx, eventID, tickets, gross, orders, len(links))
}

// recordResult appends the pass outcome to the audit log; GetSyncHistory
// reads it back.
func (s *SyncService) recordResult(ctx context.Context, res domain.SyncResult) {
	detail := map[string]any{
		"event_id":          res.EventID,
		"platform":          string(res.Platform),
		"external_event_id": res.ExternalEventID,
		"success":           res.Success,
		"tickets_sold":      res.TicketsSold,
		"gross_sales_cents": res.GrossSalesCents,
		"orders_imported":   res.OrdersImported,
		"synced_at":         res.SyncedAt.Format(time.RFC3339),
	}
	if res.Error != "" {
		detail["error"] = res.Error
	}
	if err := s.audit.Log(ctx, "sync_result", detail); err != nil {
		s.logger.WarnContext(ctx, "record sync result failed",
			slog.String("error", err.Error()))
	}
}

// waitAllow blocks until the provider's rate limit admits another call.
func (s *SyncService) waitAllow(ctx context.Context, p domain.Platform) error {
	limit, ok := s.cfg.RateLimits[p]
	if !ok || limit <= 0 {
		return nil
	}
	for {
		allowed, err := s.limiter.Allow(ctx, "platform:"+string(p), limit, s.cfg.RateWindow)
		if err != nil {
			return fmt.Errorf("sync: rate limit %s: %w", p, err)
		}
		if allowed {
			return nil
		}

		timer := time.NewTimer(50 * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("sync: rate limit wait %s: %w", p, ctx.Err())
		case <-timer.C:
		}
	}
}

// AddPlatform links an event to a provider listing and runs the initial
// sync so the mirror is populated immediately.
func (s *SyncService) AddPlatform(ctx context.Context, eventID string, p domain.Platform, externalEventID string) (domain.SyncResult, error) {
	if _, err := s.platforms.Get(p); err != nil {
		return domain.SyncResult{}, fmt.Errorf("sync: add platform %s: %w", p, err)
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return domain.SyncResult{}, fmt.Errorf("sync: add platform for event %s: %w", eventID, err)
	}

	link := domain.TicketPlatform{
		EventID:         eventID,
		Platform:        p,
		ExternalEventID: externalEventID,
		SyncEnabled:     true,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return domain.SyncResult{}, fmt.Errorf("sync: create platform link %s/%s: %w", eventID, p, err)
	}

	return s.SyncPlatform(ctx, eventID, p)
}

// UpdatePlatform rewrites a link's external id or sync flag.
func (s *SyncService) UpdatePlatform(ctx context.Context, eventID string, p domain.Platform, externalEventID string, syncEnabled bool) error {
	link, err := s.links.GetByEventPlatform(ctx, eventID, p)
	if err != nil {
		return fmt.Errorf("sync: update platform %s/%s: %w", eventID, p, err)
	}
	if externalEventID != "" {
		link.ExternalEventID = externalEventID
	}
	link.SyncEnabled = syncEnabled
	if err := s.links.Update(ctx, link); err != nil {
		return fmt.Errorf("sync: update platform %s/%s: %w", eventID, p, err)
	}
	return nil
}

// RemovePlatform unlinks a provider listing and refreshes the event rollup.
func (s *SyncService) RemovePlatform(ctx context.Context, eventID string, p domain.Platform) error {
	if err := s.links.Delete(ctx, eventID, p); err != nil {
		return fmt.Errorf("sync: remove platform %s/%s: %w", eventID, p, err)
	}
	return s.updateEventTotals(ctx, eventID)
}

// GetSyncStatus returns the per-platform link state for one event.
func (s *SyncService) GetSyncStatus(ctx context.Context, eventID string) ([]domain.TicketPlatform, error) {
	links, err := s.links.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("sync: get status %s: %w", eventID, err)
	}
	return links, nil
}

// GetSyncHistory returns recent sync outcomes for one event, newest first.
func (s *SyncService) GetSyncHistory(ctx context.Context, eventID string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	entries, err := s.audit.ListByEventAndType(ctx, eventID, "sync_result", limit)
	if err != nil {
		return nil, fmt.Errorf("sync: get history %s: %w", eventID, err)
	}
	return entries, nil
}

// InitializeEventSync runs the first full sync for an event and enables its
// durable schedule, so a freshly linked event is mirrored immediately and
// kept current from then on.
func (s *SyncService) InitializeEventSync(ctx context.Context, eventID string, interval time.Duration) ([]domain.SyncResult, error) {
	results, err := s.SyncAllPlatforms(ctx, eventID)
	if err != nil && !errors.Is(err, domain.ErrLockHeld) {
		return results, err
	}
	if err := s.StartScheduledSync(ctx, eventID, interval); err != nil {
		return results, err
	}
	return results, nil
}

// StartScheduledSync upserts the durable schedule row for an event. The
// first run is due immediately.
func (s *SyncService) StartScheduledSync(ctx context.Context, eventID string, interval time.Duration) error {
	if interval <= 0 {
		interval = s.cfg.DefaultInterval
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return fmt.Errorf("sync: schedule event %s: %w", eventID, err)
	}

	sched := domain.SyncSchedule{
		EventID:   eventID,
		Interval:  interval,
		Enabled:   true,
		NextRunAt: time.Now().UTC(),
	}
	if err := s.schedules.Upsert(ctx, sched); err != nil {
		return fmt.Errorf("sync: schedule event %s: %w", eventID, err)
	}

	s.logger.InfoContext(ctx, "sync schedule enabled",
		slog.String("event_id", eventID),
		slog.Duration("interval", interval))
	return nil
}

// StopScheduledSync disables the durable schedule row for an event.
func (s *SyncService) StopScheduledSync(ctx context.Context, eventID string) error {
	if err := s.schedules.Disable(ctx, eventID); err != nil {
		return fmt.Errorf("sync: unschedule event %s: %w", eventID, err)
	}
	s.logger.InfoContext(ctx, "sync schedule disabled",
		slog.String("event_id", eventID))
	return nil
}
