package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/comedyloft/boxoffice/internal/domain"
	"github.com/comedyloft/boxoffice/internal/platform"
)

// Alerter is the notification surface the reconciliation engine raises
// operator alerts through.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// ReconcileConfig carries the detection and resolution thresholds. Money
// thresholds are integer cents.
type ReconcileConfig struct {
	// MismatchDetectCents is the smallest absolute amount difference that
	// counts as a discrepancy.
	MismatchDetectCents int64
	// AutoCorrectMaxCents is the largest mismatch corrected automatically;
	// anything above it escalates to manual review.
	AutoCorrectMaxCents int64
	// HighSeverityCents is the mismatch size that upgrades severity to high.
	HighSeverityCents int64
	// DuplicateWindow is how close two same-buyer same-amount purchases
	// must be to look like an accidental double purchase.
	DuplicateWindow time.Duration
	// AlertDiscrepancyCount and AlertRevenueCents trigger operator alerts
	// independently of the health classification.
	AlertDiscrepancyCount int
	AlertRevenueCents     int64
}

// ReconciliationService diffs the local sales mirror against each provider's
// records, applies bounded automatic corrections, and classifies per-pass
// health.
type ReconciliationService struct {
	platforms     *platform.Registry
	sales         domain.SaleStore
	links         domain.PlatformStore
	events        domain.EventStore
	reports       domain.ReportStore
	discrepancies domain.DiscrepancyStore
	audit         domain.AuditStore
	alerter       Alerter
	cfg           ReconcileConfig
	logger        *slog.Logger
}

// NewReconciliationService creates a ReconciliationService.
func NewReconciliationService(
	platforms *platform.Registry,
	sales domain.SaleStore,
	links domain.PlatformStore,
	events domain.EventStore,
	reports domain.ReportStore,
	discrepancies domain.DiscrepancyStore,
	audit domain.AuditStore,
	alerter Alerter,
	cfg ReconcileConfig,
	logger *slog.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		platforms:     platforms,
		sales:         sales,
		links:         links,
		events:        events,
		reports:       reports,
		discrepancies: discrepancies,
		audit:         audit,
		alerter:       alerter,
		cfg:           cfg,
		logger:        logger.With(slog.String("component", "reconcile")),
	}
}

// ReconcileEvent runs a reconciliation pass for every platform linked to the
// event and stamps the event with the worst health observed. A failure on
// one platform yields a failed report for that platform without aborting
// the others.
func (s *ReconciliationService) ReconcileEvent(ctx context.Context, eventID string) ([]domain.Report, error) {
	links, err := s.links.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list platforms for %s: %w", eventID, err)
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("reconcile: event %s has no platforms: %w", eventID, domain.ErrNotFound)
	}

	worst := domain.HealthUnknown
	reports := make([]domain.Report, 0, len(links))
	for _, link := range links {
		report := s.reconcileLink(ctx, link)
		reports = append(reports, report)
		if report.Status == domain.ReportCompleted {
			if worst == domain.HealthUnknown {
				worst = report.Health
			} else {
				worst = worst.Worse(report.Health)
			}
		}
	}

	if worst != domain.HealthUnknown {
		if err := s.events.SetReconciliationStatus(ctx, eventID, worst, time.Now().UTC()); err != nil {
			s.logger.WarnContext(ctx, "stamp reconciliation status failed",
				slog.String("event_id", eventID),
				slog.String("error", err.Error()))
		}
	}

	return reports, nil
}

// ReconcilePlatform runs a single-platform pass.
func (s *ReconciliationService) ReconcilePlatform(ctx context.Context, eventID string, p domain.Platform) (domain.Report, error) {
	link, err := s.links.GetByEventPlatform(ctx, eventID, p)
	if err != nil {
		return domain.Report{}, fmt.Errorf("reconcile: get platform link %s/%s: %w", eventID, p, err)
	}
	report := s.reconcileLink(ctx, link)
	if report.Status == domain.ReportFailed {
		return report, fmt.Errorf("reconcile: %s/%s: %s", eventID, p, report.Error)
	}
	return report, nil
}

// reconcileLink is one (event, platform) pass: fetch both sides, detect,
// resolve what policy allows, persist, alert.
func (s *ReconciliationService) reconcileLink(ctx context.Context, link domain.TicketPlatform) domain.Report {
	now := time.Now().UTC()
	report := domain.Report{
		ID:        uuid.New().String(),
		EventID:   link.EventID,
		Platform:  link.Platform,
		Status:    domain.ReportRunning,
		Health:    domain.HealthUnknown,
		StartedAt: now,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		report.Status = domain.ReportFailed
		report.Error = err.Error()
		return report
	}

	fail := func(err error) domain.Report {
		report.Status = domain.ReportFailed
		report.Error = err.Error()
		completed := time.Now().UTC()
		report.CompletedAt = &completed
		if uerr := s.reports.Update(ctx, report); uerr != nil {
			s.logger.WarnContext(ctx, "persist failed report",
				slog.String("report_id", report.ID),
				slog.String("error", uerr.Error()))
		}
		s.logger.WarnContext(ctx, "reconciliation failed",
			slog.String("event_id", link.EventID),
			slog.String("platform", string(link.Platform)),
			slog.String("error", err.Error()))
		return report
	}

	client, err := s.platforms.Get(link.Platform)
	if err != nil {
		return fail(err)
	}

	orders, err := client.GetOrders(ctx, link.ExternalEventID)
	if err != nil {
		return fail(err)
	}

	locals, err := s.sales.ListByEventPlatform(ctx, link.EventID, link.Platform)
	if err != nil {
		return fail(err)
	}

	found := Detect(report.ID, link.EventID, link.Platform, locals, orders, s.cfg)

	// Health reflects what the pass found, before any automatic
	// resolution. Recovery shows up in the next pass, not this one.
	stats := tally(locals, orders)
	report.LocalSales = stats.localSales
	report.PlatformSales = stats.platformSales
	report.LocalRevenueCents = stats.localRevenueCents
	report.PlatformRevenueCents = stats.platformRevenueCents
	report.DiscrepanciesFound = len(found)
	report.Health = ClassifyHealth(len(found), stats.localSales, stats.localRevenueCents, stats.platformRevenueCents)

	resolved := s.resolve(ctx, link, found, orders)
	report.DiscrepanciesResolved = resolved

	if err := s.discrepancies.InsertBatch(ctx, found); err != nil {
		return fail(err)
	}

	report.Status = domain.ReportCompleted
	completed := time.Now().UTC()
	report.CompletedAt = &completed
	if err := s.reports.Update(ctx, report); err != nil {
		return fail(err)
	}

	s.logger.InfoContext(ctx, "reconciliation completed",
		slog.String("event_id", link.EventID),
		slog.String("platform", string(link.Platform)),
		slog.String("health", string(report.Health)),
		slog.Int("found", report.DiscrepanciesFound),
		slog.Int("resolved", report.DiscrepanciesResolved))

	s.maybeAlert(ctx, report, stats)

	return report
}

// passStats are the pre-resolution tallies feeding health classification.
type passStats struct {
	localSales           int
	platformSales        int
	localRevenueCents    int64
	platformRevenueCents int64
}

// tally counts active (paid, unrefunded) sales and revenue on both sides.
func tally(locals []domain.TicketSale, orders []domain.PlatformOrder) passStats {
	var st passStats
	for _, sale := range locals {
		if !sale.RefundStatus.None() {
			continue
		}
		st.localSales++
		st.localRevenueCents += sale.TotalAmountCents
	}
	for _, o := range orders {
		if !o.Paid() || o.Refunded {
			continue
		}
		st.platformSales++
		st.platformRevenueCents += o.TotalAmountCents
	}
	return st
}

// Detect diffs the local mirror against the provider's orders and returns
// every discrepancy, unresolved. It is a pure function of its inputs.
func Detect(reportID, eventID string, p domain.Platform, locals []domain.TicketSale, orders []domain.PlatformOrder, cfg ReconcileConfig) []domain.Discrepancy {
	now := time.Now().UTC()

	localByOrder := make(map[string]domain.TicketSale, len(locals))
	for _, sale := range locals {
		localByOrder[sale.PlatformOrderID] = sale
	}

	active := make(map[string]domain.PlatformOrder, len(orders))
	for _, o := range orders {
		if !o.Paid() || o.Refunded {
			continue
		}
		active[o.OrderID] = o
	}

	newDisc := func(t domain.DiscrepancyType, sev domain.Severity, orderID, desc string, localCents, platCents *int64) domain.Discrepancy {
		return domain.Discrepancy{
			ID:              uuid.New().String(),
			ReportID:        reportID,
			EventID:         eventID,
			Platform:        p,
			Type:            t,
			Severity:        sev,
			PlatformOrderID: orderID,
			Description:     desc,
			LocalCents:      localCents,
			PlatformCents:   platCents,
			CreatedAt:       now,
		}
	}

	var out []domain.Discrepancy

	// Platform orders missing locally, and amount mismatches. Iterate in a
	// stable order so report output is deterministic.
	orderIDs := make([]string, 0, len(active))
	for id := range active {
		orderIDs = append(orderIDs, id)
	}
	sort.Strings(orderIDs)

	for _, id := range orderIDs {
		o := active[id]
		sale, ok := localByOrder[id]
		if !ok {
			plat := o.TotalAmountCents
			out = append(out, newDisc(domain.DiscrepancyMissingSale, domain.SeverityHigh, id,
				fmt.Sprintf("order %s exists on %s but not locally", id, p),
				nil, &plat))
			continue
		}

		if !sale.RefundStatus.None() {
			continue
		}
		diff := sale.TotalAmountCents - o.TotalAmountCents
		if diff < 0 {
			diff = -diff
		}
		if diff > cfg.MismatchDetectCents {
			sev := domain.SeverityMedium
			if diff > cfg.HighSeverityCents {
				sev = domain.SeverityHigh
			}
			local, plat := sale.TotalAmountCents, o.TotalAmountCents
			out = append(out, newDisc(domain.DiscrepancyAmountMismatch, sev, id,
				fmt.Sprintf("order %s amount differs: local %d cents, %s %d cents", id, local, p, plat),
				&local, &plat))
		}
	}

	// Local sales the provider no longer reports.
	localIDs := make([]string, 0, len(locals))
	for _, sale := range locals {
		localIDs = append(localIDs, sale.PlatformOrderID)
	}
	sort.Strings(localIDs)

	for _, id := range localIDs {
		sale := localByOrder[id]
		if !sale.RefundStatus.None() {
			continue
		}
		if _, ok := active[id]; ok {
			continue
		}
		local := sale.TotalAmountCents
		out = append(out, newDisc(domain.DiscrepancyDataInconsistency, domain.SeverityMedium, id,
			fmt.Sprintf("sale %s exists locally but not on %s", id, p),
			&local, nil))
	}

	// Same buyer, same amount, bought again within the window: likely an
	// accidental double purchase. The later local sale is flagged, so manual
	// entries and not-yet-synced rows are caught too.
	out = append(out, detectDuplicates(newDisc, locals, cfg.DuplicateWindow)...)

	return out
}

type discFactory func(t domain.DiscrepancyType, sev domain.Severity, orderID, desc string, localCents, platCents *int64) domain.Discrepancy

func detectDuplicates(newDisc discFactory, locals []domain.TicketSale, window time.Duration) []domain.Discrepancy {
	type groupKey struct {
		email string
		cents int64
	}
	groups := make(map[groupKey][]domain.TicketSale)
	for _, sale := range locals {
		if sale.CustomerEmail == "" || !sale.RefundStatus.None() {
			continue
		}
		k := groupKey{sale.CustomerEmail, sale.TotalAmountCents}
		groups[k] = append(groups[k], sale)
	}

	var out []domain.Discrepancy
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].PurchasedAt.Equal(group[j].PurchasedAt) {
				return group[i].PlatformOrderID < group[j].PlatformOrderID
			}
			return group[i].PurchasedAt.Before(group[j].PurchasedAt)
		})
		for i := 1; i < len(group); i++ {
			if group[i].PurchasedAt.Sub(group[i-1].PurchasedAt) > window {
				continue
			}
			local := group[i].TotalAmountCents
			out = append(out, newDisc(domain.DiscrepancyDuplicateSale, domain.SeverityMedium, group[i].PlatformOrderID,
				fmt.Sprintf("sale %s duplicates %s (same buyer and amount within %s)",
					group[i].PlatformOrderID, group[i-1].PlatformOrderID, window),
				&local, nil))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PlatformOrderID < out[j].PlatformOrderID })
	return out
}

// ClassifyHealth is the pure health function of pre-resolution counts.
func ClassifyHealth(found, localSales int, localRevenueCents, platformRevenueCents int64) domain.HealthStatus {
	denom := localSales
	if denom < 1 {
		denom = 1
	}
	discrepancyRate := float64(found) / float64(denom)

	revDelta := localRevenueCents - platformRevenueCents
	if revDelta < 0 {
		revDelta = -revDelta
	}
	revDenom := platformRevenueCents
	if revDenom < 1 {
		revDenom = 1
	}
	revenueRate := float64(revDelta) / float64(revDenom)

	switch {
	case discrepancyRate > 0.10 || revenueRate > 0.05:
		return domain.HealthCritical
	case discrepancyRate > 0.05 || revenueRate > 0.02:
		return domain.HealthWarning
	default:
		return domain.HealthHealthy
	}
}

// resolve applies automatic resolution policy in place and returns how many
// discrepancies were auto-resolved.
func (s *ReconciliationService) resolve(ctx context.Context, link domain.TicketPlatform, found []domain.Discrepancy, orders []domain.PlatformOrder) int {
	ordersByID := make(map[string]domain.PlatformOrder, len(orders))
	for _, o := range orders {
		ordersByID[o.OrderID] = o
	}

	resolved := 0
	now := time.Now().UTC()

	for i := range found {
		d := &found[i]
		switch d.Type {
		case domain.DiscrepancyMissingSale:
			o, ok := ordersByID[d.PlatformOrderID]
			if !ok {
				d.Resolution = domain.ResolutionManualReview
				continue
			}
			sale := saleFromOrder(link.EventID, link.Platform, o)
			sale.AutoCorrected = true
			sale.ReconciliationImport = true
			if err := s.sales.Upsert(ctx, sale); err != nil {
				s.logger.WarnContext(ctx, "auto-import failed",
					slog.String("order_id", d.PlatformOrderID),
					slog.String("error", err.Error()))
				d.Resolution = domain.ResolutionManualReview
				d.ResolutionNotes = "auto-import failed: " + err.Error()
				continue
			}
			d.Resolution = domain.ResolutionAutoImported
			d.ResolvedAt = &now
			resolved++

		case domain.DiscrepancyAmountMismatch:
			if d.LocalCents == nil || d.PlatformCents == nil {
				d.Resolution = domain.ResolutionManualReview
				continue
			}
			diff := *d.LocalCents - *d.PlatformCents
			if diff < 0 {
				diff = -diff
			}
			if diff > s.cfg.AutoCorrectMaxCents {
				d.Resolution = domain.ResolutionManualReview
				continue
			}
			if err := s.correctAmount(ctx, link.Platform, d.PlatformOrderID, *d.PlatformCents); err != nil {
				s.logger.WarnContext(ctx, "auto-correct failed",
					slog.String("order_id", d.PlatformOrderID),
					slog.String("error", err.Error()))
				d.Resolution = domain.ResolutionManualReview
				d.ResolutionNotes = "auto-correct failed: " + err.Error()
				continue
			}
			d.Resolution = domain.ResolutionAutoCorrected
			d.ResolvedAt = &now
			resolved++

		default:
			d.Resolution = domain.ResolutionManualReview
		}
	}

	return resolved
}

// correctAmount rewrites a sale's amount to the provider's value. One retry
// on a version conflict; past that the conflict bubbles up and the
// discrepancy escalates to manual review.
func (s *ReconciliationService) correctAmount(ctx context.Context, p domain.Platform, orderID string, platformCents int64) error {
	for attempt := 0; attempt < 2; attempt++ {
		sale, err := s.sales.GetByOrderID(ctx, p, orderID)
		if err != nil {
			return err
		}
		sale.TotalAmountCents = platformCents
		sale.AutoCorrected = true
		err = s.sales.Update(ctx, sale)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
	}
	return domain.ErrVersionConflict
}

// maybeAlert raises an operator alert for critical passes or large absolute
// drift.
func (s *ReconciliationService) maybeAlert(ctx context.Context, report domain.Report, stats passStats) {
	revDelta := stats.localRevenueCents - stats.platformRevenueCents
	if revDelta < 0 {
		revDelta = -revDelta
	}

	if report.Health != domain.HealthCritical &&
		report.DiscrepanciesFound <= s.cfg.AlertDiscrepancyCount &&
		revDelta <= s.cfg.AlertRevenueCents {
		return
	}

	title := fmt.Sprintf("Reconciliation %s: event %s on %s", report.Health, report.EventID, report.Platform)
	message := fmt.Sprintf(
		"%d discrepancies (%d auto-resolved). Local %d sales / %d cents, platform %d sales / %d cents.",
		report.DiscrepanciesFound, report.DiscrepanciesResolved,
		stats.localSales, stats.localRevenueCents,
		stats.platformSales, stats.platformRevenueCents)

	if err := s.alerter.Notify(ctx, "reconciliation_alert", title, message); err != nil {
		s.logger.WarnContext(ctx, "alert dispatch failed",
			slog.String("error", err.Error()))
	}
}

// ResolveDiscrepancy records an operator's terminal disposition for an open
// discrepancy.
func (s *ReconciliationService) ResolveDiscrepancy(ctx context.Context, id string, resolution domain.Resolution, notes string) (domain.Discrepancy, error) {
	if resolution != domain.ResolutionConfirmed && resolution != domain.ResolutionDismissed {
		return domain.Discrepancy{}, fmt.Errorf("reconcile: resolution %q not allowed: %w", resolution, domain.ErrBadPayload)
	}

	d, err := s.discrepancies.GetByID(ctx, id)
	if err != nil {
		return domain.Discrepancy{}, fmt.Errorf("reconcile: resolve discrepancy %s: %w", id, err)
	}
	if !d.Open() {
		return domain.Discrepancy{}, fmt.Errorf("reconcile: discrepancy %s already resolved: %w", id, domain.ErrAlreadyExists)
	}

	now := time.Now().UTC()
	d.Resolution = resolution
	d.ResolutionNotes = notes
	d.ResolvedAt = &now
	if err := s.discrepancies.Update(ctx, d); err != nil {
		return domain.Discrepancy{}, fmt.Errorf("reconcile: resolve discrepancy %s: %w", id, err)
	}

	if err := s.audit.Log(ctx, "discrepancy_resolved", map[string]any{
		"discrepancy_id": id,
		"event_id":       d.EventID,
		"platform":       string(d.Platform),
		"type":           string(d.Type),
		"resolution":     string(resolution),
		"notes":          notes,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit discrepancy resolution failed",
			slog.String("error", err.Error()))
	}

	return d, nil
}

// CreateManualAdjustment applies an operator correction to the mirror. The
// adjustment is audit-logged before it is applied.
func (s *ReconciliationService) CreateManualAdjustment(ctx context.Context, eventID string, p domain.Platform, adj domain.Adjustment) error {
	if adj.Reason == "" {
		return fmt.Errorf("reconcile: adjustment requires a reason: %w", domain.ErrBadPayload)
	}

	if err := s.audit.Log(ctx, "manual_adjustment", map[string]any{
		"event_id":          eventID,
		"platform":          string(p),
		"type":              adj.Type,
		"platform_order_id": adj.PlatformOrderID,
		"data":              adj.Data,
		"reason":            adj.Reason,
	}); err != nil {
		return fmt.Errorf("reconcile: audit adjustment: %w", err)
	}

	switch adj.Type {
	case "add":
		sale, err := saleFromAdjustment(eventID, p, adj)
		if err != nil {
			return err
		}
		if err := s.sales.Upsert(ctx, sale); err != nil {
			return fmt.Errorf("reconcile: apply add adjustment: %w", err)
		}

	case "remove":
		sale, err := s.sales.GetByOrderID(ctx, p, adj.PlatformOrderID)
		if err != nil {
			return fmt.Errorf("reconcile: apply remove adjustment: %w", err)
		}
		if err := s.sales.Delete(ctx, sale.ID); err != nil {
			return fmt.Errorf("reconcile: apply remove adjustment: %w", err)
		}

	case "update_amount":
		cents, ok := adjustmentCents(adj.Data)
		if !ok {
			return fmt.Errorf("reconcile: update_amount adjustment needs amount_cents: %w", domain.ErrBadPayload)
		}
		sale, err := s.sales.GetByOrderID(ctx, p, adj.PlatformOrderID)
		if err != nil {
			return fmt.Errorf("reconcile: apply update_amount adjustment: %w", err)
		}
		sale.TotalAmountCents = cents
		sale.ManualAdjustment = true
		if err := s.sales.Update(ctx, sale); err != nil {
			return fmt.Errorf("reconcile: apply update_amount adjustment: %w", err)
		}

	default:
		return fmt.Errorf("reconcile: unknown adjustment type %q: %w", adj.Type, domain.ErrBadPayload)
	}

	return nil
}

// saleFromAdjustment builds a mirror row from an "add" adjustment payload.
func saleFromAdjustment(eventID string, p domain.Platform, adj domain.Adjustment) (domain.TicketSale, error) {
	cents, ok := adjustmentCents(adj.Data)
	if !ok {
		return domain.TicketSale{}, fmt.Errorf("reconcile: add adjustment needs amount_cents: %w", domain.ErrBadPayload)
	}

	orderID := adj.PlatformOrderID
	if orderID == "" {
		orderID = "manual-" + uuid.New().String()
	}

	str := func(key string) string {
		v, _ := adj.Data[key].(string)
		return v
	}
	quantity := 1
	if q, ok := adj.Data["quantity"].(float64); ok && q > 0 {
		quantity = int(q)
	}

	return domain.TicketSale{
		ID:               uuid.New().String(),
		EventID:          eventID,
		Platform:         p,
		PlatformOrderID:  orderID,
		CustomerName:     str("customer_name"),
		CustomerEmail:    str("customer_email"),
		TicketType:       str("ticket_type"),
		Quantity:         quantity,
		TotalAmountCents: cents,
		Currency:         "AUD",
		Status:           "paid",
		RefundStatus:     domain.RefundStatusNone,
		ManualAdjustment: true,
		PurchasedAt:      time.Now().UTC(),
	}, nil
}

// adjustmentCents pulls an integer cents amount out of a JSON-decoded map.
func adjustmentCents(data map[string]any) (int64, bool) {
	switch v := data["amount_cents"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

// GetReports returns reconciliation reports for one event, newest first.
func (s *ReconciliationService) GetReports(ctx context.Context, eventID string, opts domain.ListOpts) ([]domain.Report, error) {
	reports, err := s.reports.ListByEvent(ctx, eventID, opts)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list reports %s: %w", eventID, err)
	}
	return reports, nil
}

// GetReportDiscrepancies returns every discrepancy one report recorded.
func (s *ReconciliationService) GetReportDiscrepancies(ctx context.Context, reportID string) ([]domain.Discrepancy, error) {
	if _, err := s.reports.GetByID(ctx, reportID); err != nil {
		return nil, fmt.Errorf("reconcile: get report %s: %w", reportID, err)
	}
	ds, err := s.discrepancies.ListByReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list discrepancies for %s: %w", reportID, err)
	}
	return ds, nil
}

// GetOpenDiscrepancies returns discrepancies still awaiting attention.
func (s *ReconciliationService) GetOpenDiscrepancies(ctx context.Context, eventID string) ([]domain.Discrepancy, error) {
	ds, err := s.discrepancies.ListOpenByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list open discrepancies %s: %w", eventID, err)
	}
	return ds, nil
}
