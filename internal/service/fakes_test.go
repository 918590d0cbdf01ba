package service

import (
	"context"
	"sync"
	"time"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// In-memory store fakes shared by the service tests. They implement the same
// contracts the postgres stores do, including optimistic concurrency on sales
// and once-only refunds.

type fakeSales struct {
	mu    sync.Mutex
	byID  map[string]domain.TicketSale
	fails map[string]int // order id -> remaining Update version conflicts
}

func newFakeSales() *fakeSales {
	return &fakeSales{byID: make(map[string]domain.TicketSale), fails: make(map[string]int)}
}

func (f *fakeSales) key(p domain.Platform, orderID string) string {
	return string(p) + "/" + orderID
}

func (f *fakeSales) findLocked(p domain.Platform, orderID string) (domain.TicketSale, bool) {
	for _, s := range f.byID {
		if s.Platform == p && s.PlatformOrderID == orderID {
			return s, true
		}
	}
	return domain.TicketSale{}, false
}

func (f *fakeSales) Upsert(ctx context.Context, sale domain.TicketSale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.findLocked(sale.Platform, sale.PlatformOrderID); ok {
		// Like the SQL upsert: a refunded row is never touched on conflict.
		if existing.RefundStatus == domain.RefundStatusRefunded {
			return nil
		}
		sale.ID = existing.ID
		sale.Version = existing.Version + 1
		sale.RefundStatus = existing.RefundStatus
	} else {
		sale.Version = 1
	}
	f.byID[sale.ID] = sale
	return nil
}

func (f *fakeSales) UpsertBatch(ctx context.Context, sales []domain.TicketSale) error {
	for _, s := range sales {
		if err := f.Upsert(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSales) Update(ctx context.Context, sale domain.TicketSale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := f.fails[sale.PlatformOrderID]; n > 0 {
		f.fails[sale.PlatformOrderID] = n - 1
		return domain.ErrVersionConflict
	}
	existing, ok := f.byID[sale.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Version != sale.Version {
		return domain.ErrVersionConflict
	}
	sale.Version++
	f.byID[sale.ID] = sale
	return nil
}

func (f *fakeSales) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeSales) GetByID(ctx context.Context, id string) (domain.TicketSale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return domain.TicketSale{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeSales) GetByOrderID(ctx context.Context, p domain.Platform, orderID string) (domain.TicketSale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.findLocked(p, orderID)
	if !ok {
		return domain.TicketSale{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeSales) ListByEventPlatform(ctx context.Context, eventID string, p domain.Platform) ([]domain.TicketSale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TicketSale
	for _, s := range f.byID {
		if s.EventID == eventID && s.Platform == p {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSales) MarkRefunded(ctx context.Context, p domain.Platform, orderID string, amountCents int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.findLocked(p, orderID)
	if !ok {
		return false, domain.ErrNotFound
	}
	// Matches the SQL guard: only refund_status = 'refunded' blocks.
	if s.RefundStatus == domain.RefundStatusRefunded {
		return false, nil
	}
	s.RefundStatus = domain.RefundStatusRefunded
	s.RefundAmountCents = amountCents
	s.TotalAmountCents = -amountCents
	s.Version++
	f.byID[s.ID] = s
	return true, nil
}

func (f *fakeSales) MarkCancelled(ctx context.Context, p domain.Platform, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.findLocked(p, orderID)
	if !ok {
		return domain.ErrNotFound
	}
	if !s.RefundStatus.None() {
		return nil
	}
	s.RefundStatus = domain.RefundStatusCancelled
	s.Version++
	f.byID[s.ID] = s
	return nil
}

type fakeLinks struct {
	mu    sync.Mutex
	links []domain.TicketPlatform
}

func (f *fakeLinks) Create(ctx context.Context, tp domain.TicketPlatform) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.EventID == tp.EventID && l.Platform == tp.Platform {
			return domain.ErrAlreadyExists
		}
	}
	f.links = append(f.links, tp)
	return nil
}

func (f *fakeLinks) Update(ctx context.Context, tp domain.TicketPlatform) error {
	return f.replace(tp.EventID, tp.Platform, func(l *domain.TicketPlatform) {
		l.ExternalEventID = tp.ExternalEventID
		l.SyncEnabled = tp.SyncEnabled
	})
}

func (f *fakeLinks) Delete(ctx context.Context, eventID string, p domain.Platform) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.links {
		if l.EventID == eventID && l.Platform == p {
			f.links = append(f.links[:i], f.links[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeLinks) GetByEventPlatform(ctx context.Context, eventID string, p domain.Platform) (domain.TicketPlatform, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.EventID == eventID && l.Platform == p {
			return l, nil
		}
	}
	return domain.TicketPlatform{}, domain.ErrNotFound
}

func (f *fakeLinks) GetByExternalID(ctx context.Context, p domain.Platform, externalEventID string) (domain.TicketPlatform, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.Platform == p && l.ExternalEventID == externalEventID {
			return l, nil
		}
	}
	return domain.TicketPlatform{}, domain.ErrNotFound
}

func (f *fakeLinks) ListByEvent(ctx context.Context, eventID string) ([]domain.TicketPlatform, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TicketPlatform
	for _, l := range f.links {
		if l.EventID == eventID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLinks) UpdateAggregates(ctx context.Context, tp domain.TicketPlatform) error {
	return f.replace(tp.EventID, tp.Platform, func(l *domain.TicketPlatform) {
		l.TicketsSold = tp.TicketsSold
		l.TicketsAvailable = tp.TicketsAvailable
		l.GrossSalesCents = tp.GrossSalesCents
		l.NetRevenueCents = tp.NetRevenueCents
		l.FeesCents = tp.FeesCents
		l.OrdersCount = tp.OrdersCount
	})
}

func (f *fakeLinks) SetSyncStatus(ctx context.Context, eventID string, p domain.Platform, status, errMsg string, at time.Time) error {
	return f.replace(eventID, p, func(l *domain.TicketPlatform) {
		l.LastSyncStatus = status
		l.LastSyncError = errMsg
		l.LastSyncAt = &at
	})
}

func (f *fakeLinks) replace(eventID string, p domain.Platform, apply func(*domain.TicketPlatform)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.links {
		if f.links[i].EventID == eventID && f.links[i].Platform == p {
			apply(&f.links[i])
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeEvents struct {
	mu     sync.Mutex
	events map[string]domain.Event
}

func newFakeEvents(ids ...string) *fakeEvents {
	f := &fakeEvents{events: make(map[string]domain.Event)}
	for _, id := range ids {
		f.events[id] = domain.Event{ID: id, Name: "Event " + id}
	}
	return f
}

func (f *fakeEvents) Create(ctx context.Context, ev domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[ev.ID]; ok {
		return domain.ErrAlreadyExists
	}
	f.events[ev.ID] = ev
	return nil
}

func (f *fakeEvents) GetByID(ctx context.Context, id string) (domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	return ev, nil
}

func (f *fakeEvents) UpdateTotals(ctx context.Context, id string, ticketsSold int, grossCents int64, ordersCount, platforms int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	ev.TotalTicketsSold = ticketsSold
	ev.TotalGrossSalesCents = grossCents
	ev.TotalOrdersCount = ordersCount
	ev.PlatformsCount = platforms
	f.events[id] = ev
	return nil
}

func (f *fakeEvents) SetReconciliationStatus(ctx context.Context, id string, status domain.HealthStatus, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	ev.ReconciliationStatus = status
	ev.LastReconciledAt = &at
	f.events[id] = ev
	return nil
}

type fakeReports struct {
	mu      sync.Mutex
	reports map[string]domain.Report
}

func newFakeReports() *fakeReports {
	return &fakeReports{reports: make(map[string]domain.Report)}
}

func (f *fakeReports) Create(ctx context.Context, r domain.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[r.ID] = r
	return nil
}

func (f *fakeReports) Update(ctx context.Context, r domain.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reports[r.ID]; !ok {
		return domain.ErrNotFound
	}
	f.reports[r.ID] = r
	return nil
}

func (f *fakeReports) GetByID(ctx context.Context, id string) (domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return domain.Report{}, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeReports) ListByEvent(ctx context.Context, eventID string, opts domain.ListOpts) ([]domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Report
	for _, r := range f.reports {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReports) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Report, error) {
	return nil, nil
}

func (f *fakeReports) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeDiscrepancies struct {
	mu  sync.Mutex
	all map[string]domain.Discrepancy
}

func newFakeDiscrepancies() *fakeDiscrepancies {
	return &fakeDiscrepancies{all: make(map[string]domain.Discrepancy)}
}

func (f *fakeDiscrepancies) InsertBatch(ctx context.Context, ds []domain.Discrepancy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range ds {
		f.all[d.ID] = d
	}
	return nil
}

func (f *fakeDiscrepancies) Update(ctx context.Context, d domain.Discrepancy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.all[d.ID]; !ok {
		return domain.ErrNotFound
	}
	f.all[d.ID] = d
	return nil
}

func (f *fakeDiscrepancies) GetByID(ctx context.Context, id string) (domain.Discrepancy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.all[id]
	if !ok {
		return domain.Discrepancy{}, domain.ErrNotFound
	}
	return d, nil
}

func (f *fakeDiscrepancies) ListByReport(ctx context.Context, reportID string) ([]domain.Discrepancy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Discrepancy
	for _, d := range f.all {
		if d.ReportID == reportID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDiscrepancies) ListOpenByEvent(ctx context.Context, eventID string) ([]domain.Discrepancy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Discrepancy
	for _, d := range f.all {
		if d.EventID == eventID && d.Open() {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeSchedules struct {
	mu   sync.Mutex
	rows map[string]domain.SyncSchedule
}

func newFakeSchedules() *fakeSchedules {
	return &fakeSchedules{rows: make(map[string]domain.SyncSchedule)}
}

func (f *fakeSchedules) Upsert(ctx context.Context, s domain.SyncSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[s.EventID] = s
	return nil
}

func (f *fakeSchedules) Get(ctx context.Context, eventID string) (domain.SyncSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[eventID]
	if !ok {
		return domain.SyncSchedule{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeSchedules) Disable(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	s.Enabled = false
	f.rows[eventID] = s
	return nil
}

func (f *fakeSchedules) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.SyncSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SyncSchedule
	for _, s := range f.rows {
		if s.Enabled && !s.NextRunAt.After(now) {
			out = append(out, s)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSchedules) MarkRun(ctx context.Context, eventID string, ranAt, nextRunAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	s.LastRunAt = &ranAt
	s.NextRunAt = nextRunAt
	f.rows[eventID] = s
	return nil
}

type fakeWebhookLogs struct {
	mu   sync.Mutex
	rows []domain.WebhookLog
}

func (f *fakeWebhookLogs) Insert(ctx context.Context, wl domain.WebhookLog) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wl.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, wl)
	return wl.ID, nil
}

func (f *fakeWebhookLogs) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.WebhookLog, error) {
	return nil, nil
}

func (f *fakeWebhookLogs) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (f *fakeAudit) Log(ctx context.Context, event string, detail map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, domain.AuditEntry{
		ID:        int64(len(f.entries) + 1),
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (f *fakeAudit) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Newest first, like the postgres store.
	out := make([]domain.AuditEntry, 0, len(f.entries))
	for i := len(f.entries) - 1; i >= 0; i-- {
		out = append(out, f.entries[i])
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeAudit) ListByEventAndType(ctx context.Context, eventID, event string, limit int) ([]domain.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditEntry
	for i := len(f.entries) - 1; i >= 0; i-- {
		e := f.entries[i]
		if e.Event != event {
			continue
		}
		if id, _ := e.Detail["event_id"].(string); id != eventID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocks() *fakeLocks {
	return &fakeLocks{held: make(map[string]bool)}
}

func (f *fakeLocks) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] {
		return nil, domain.ErrLockHeld
	}
	f.held[key] = true
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, key)
	}, nil
}

type fakeLimiter struct{}

func (fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

func (fakeLimiter) Wait(ctx context.Context, key string) error { return nil }

type fakeAlerter struct {
	mu     sync.Mutex
	events []string
	titles []string
}

func (f *fakeAlerter) Notify(ctx context.Context, event, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	f.titles = append(f.titles, title)
	return nil
}

// fakeClient is a configurable platform adapter.
type fakeClient struct {
	platform   domain.Platform
	event      domain.PlatformEvent
	orders     []domain.PlatformOrder
	ordersErr  error
	eventErr   error
	verifyErr  error
	webhook    domain.WebhookEvent
	parseErr   error
	orderCalls int
}

func (c *fakeClient) Platform() domain.Platform { return c.platform }

func (c *fakeClient) GetEvent(ctx context.Context, externalEventID string) (domain.PlatformEvent, error) {
	if c.eventErr != nil {
		return domain.PlatformEvent{}, c.eventErr
	}
	return c.event, nil
}

func (c *fakeClient) GetOrders(ctx context.Context, externalEventID string) ([]domain.PlatformOrder, error) {
	c.orderCalls++
	if c.ordersErr != nil {
		return nil, c.ordersErr
	}
	return c.orders, nil
}

func (c *fakeClient) VerifyWebhookSignature(body []byte, signature string) error {
	return c.verifyErr
}

func (c *fakeClient) ParseWebhook(body []byte) (domain.WebhookEvent, error) {
	if c.parseErr != nil {
		return domain.WebhookEvent{}, c.parseErr
	}
	return c.webhook, nil
}
