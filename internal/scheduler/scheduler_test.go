package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/comedyloft/boxoffice/internal/domain"
	"github.com/comedyloft/boxoffice/internal/platform"
	"github.com/comedyloft/boxoffice/internal/service"
)

// Minimal stubs for the sync service dependencies the worker tests exercise.

type stubClient struct{}

func (stubClient) Platform() domain.Platform { return domain.PlatformFake }
func (stubClient) GetEvent(ctx context.Context, id string) (domain.PlatformEvent, error) {
	return domain.PlatformEvent{Capacity: 10}, nil
}
func (stubClient) GetOrders(ctx context.Context, id string) ([]domain.PlatformOrder, error) {
	return nil, nil
}
func (stubClient) VerifyWebhookSignature(body []byte, signature string) error { return nil }
func (stubClient) ParseWebhook(body []byte) (domain.WebhookEvent, error) {
	return domain.WebhookEvent{}, nil
}

type stubSales struct{}

func (stubSales) Upsert(ctx context.Context, s domain.TicketSale) error        { return nil }
func (stubSales) UpsertBatch(ctx context.Context, s []domain.TicketSale) error { return nil }
func (stubSales) Update(ctx context.Context, s domain.TicketSale) error        { return nil }
func (stubSales) Delete(ctx context.Context, id string) error                  { return nil }
func (stubSales) GetByID(ctx context.Context, id string) (domain.TicketSale, error) {
	return domain.TicketSale{}, domain.ErrNotFound
}
func (stubSales) GetByOrderID(ctx context.Context, p domain.Platform, id string) (domain.TicketSale, error) {
	return domain.TicketSale{}, domain.ErrNotFound
}
func (stubSales) ListByEventPlatform(ctx context.Context, eventID string, p domain.Platform) ([]domain.TicketSale, error) {
	return nil, nil
}
func (stubSales) MarkRefunded(ctx context.Context, p domain.Platform, id string, cents int64) (bool, error) {
	return false, domain.ErrNotFound
}
func (stubSales) MarkCancelled(ctx context.Context, p domain.Platform, id string) error {
	return domain.ErrNotFound
}

type stubLinks struct {
	listErr error
}

func (s stubLinks) Create(ctx context.Context, tp domain.TicketPlatform) error { return nil }
func (s stubLinks) Update(ctx context.Context, tp domain.TicketPlatform) error { return nil }
func (s stubLinks) Delete(ctx context.Context, eventID string, p domain.Platform) error {
	return nil
}
func (s stubLinks) GetByEventPlatform(ctx context.Context, eventID string, p domain.Platform) (domain.TicketPlatform, error) {
	return domain.TicketPlatform{}, domain.ErrNotFound
}
func (s stubLinks) GetByExternalID(ctx context.Context, p domain.Platform, externalEventID string) (domain.TicketPlatform, error) {
	return domain.TicketPlatform{}, domain.ErrNotFound
}
func (s stubLinks) ListByEvent(ctx context.Context, eventID string) ([]domain.TicketPlatform, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return []domain.TicketPlatform{{
		EventID:         eventID,
		Platform:        domain.PlatformFake,
		ExternalEventID: "ext-1",
		SyncEnabled:     true,
	}}, nil
}
func (s stubLinks) UpdateAggregates(ctx context.Context, tp domain.TicketPlatform) error { return nil }
func (s stubLinks) SetSyncStatus(ctx context.Context, eventID string, p domain.Platform, status, errMsg string, at time.Time) error {
	return nil
}

type stubEvents struct{}

func (stubEvents) Create(ctx context.Context, ev domain.Event) error { return nil }
func (stubEvents) GetByID(ctx context.Context, id string) (domain.Event, error) {
	return domain.Event{ID: id}, nil
}
func (stubEvents) UpdateTotals(ctx context.Context, id string, sold int, gross int64, orders, platforms int) error {
	return nil
}
func (stubEvents) SetReconciliationStatus(ctx context.Context, id string, st domain.HealthStatus, at time.Time) error {
	return nil
}

type stubAudit struct{}

func (stubAudit) Log(ctx context.Context, event string, detail map[string]any) error { return nil }
func (stubAudit) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}
func (stubAudit) ListByEventAndType(ctx context.Context, eventID, event string, limit int) ([]domain.AuditEntry, error) {
	return nil, nil
}

type stubLocks struct {
	held bool
}

func (s stubLocks) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if s.held {
		return nil, domain.ErrLockHeld
	}
	return func() {}, nil
}

type stubLimiter struct{}

func (stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}
func (stubLimiter) Wait(ctx context.Context, key string) error { return nil }

// recordingSchedules captures MarkRun calls and serves one due schedule.
type recordingSchedules struct {
	due      []domain.SyncSchedule
	markRuns []struct {
		eventID string
		next    time.Time
	}
}

func (r *recordingSchedules) Upsert(ctx context.Context, s domain.SyncSchedule) error { return nil }
func (r *recordingSchedules) Get(ctx context.Context, eventID string) (domain.SyncSchedule, error) {
	return domain.SyncSchedule{}, domain.ErrNotFound
}
func (r *recordingSchedules) Disable(ctx context.Context, eventID string) error { return nil }
func (r *recordingSchedules) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.SyncSchedule, error) {
	return r.due, nil
}
func (r *recordingSchedules) MarkRun(ctx context.Context, eventID string, ranAt, nextRunAt time.Time) error {
	r.markRuns = append(r.markRuns, struct {
		eventID string
		next    time.Time
	}{eventID, nextRunAt})
	return nil
}

func newTestWorker(t *testing.T, schedules domain.ScheduleStore, links domain.PlatformStore, locks domain.LockManager) *Worker {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	syncSvc := service.NewSyncService(
		platform.NewRegistry(stubClient{}),
		stubSales{}, links, stubEvents{}, schedules, stubAudit{},
		locks, stubLimiter{},
		service.SyncConfig{LeaseTTL: time.Minute, DefaultInterval: 15 * time.Minute},
		logger,
	)
	return New(schedules, syncSvc, Config{PollInterval: time.Hour, BatchSize: 10}, logger)
}

func TestRunOneAdvancesSchedule(t *testing.T) {
	sched := domain.SyncSchedule{EventID: "ev1", Interval: 20 * time.Minute, Enabled: true}
	schedules := &recordingSchedules{}
	w := newTestWorker(t, schedules, stubLinks{}, stubLocks{})

	if err := w.runOne(context.Background(), sched); err != nil {
		t.Fatalf("runOne: %v", err)
	}
	if len(schedules.markRuns) != 1 {
		t.Fatalf("MarkRun called %d times, want 1", len(schedules.markRuns))
	}
	mr := schedules.markRuns[0]
	if mr.eventID != "ev1" {
		t.Errorf("marked event = %s, want ev1", mr.eventID)
	}
	wantNext := time.Now().UTC().Add(20 * time.Minute)
	if diff := mr.next.Sub(wantNext); diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("next run = %s, want about %s", mr.next, wantNext)
	}
}

func TestRunOneAdvancesScheduleOnSyncFailure(t *testing.T) {
	sched := domain.SyncSchedule{EventID: "ev1", Interval: 20 * time.Minute, Enabled: true}
	schedules := &recordingSchedules{}
	w := newTestWorker(t, schedules, stubLinks{listErr: errors.New("db down")}, stubLocks{})

	err := w.runOne(context.Background(), sched)
	if err == nil {
		t.Fatal("runOne: expected the sync error to surface")
	}
	// The schedule still advances: the regular cadence is the retry policy.
	if len(schedules.markRuns) != 1 {
		t.Fatalf("MarkRun called %d times after failure, want 1", len(schedules.markRuns))
	}
}

func TestRunOneLeavesHeldLeaseAlone(t *testing.T) {
	sched := domain.SyncSchedule{EventID: "ev1", Interval: 20 * time.Minute, Enabled: true}
	schedules := &recordingSchedules{}
	w := newTestWorker(t, schedules, stubLinks{}, stubLocks{held: true})

	if err := w.runOne(context.Background(), sched); err != nil {
		t.Fatalf("runOne with held lease: %v", err)
	}
	if len(schedules.markRuns) != 0 {
		t.Fatalf("MarkRun called %d times for a held lease, want 0", len(schedules.markRuns))
	}
}

func TestRunPollsOnceThenStopsOnCancel(t *testing.T) {
	sched := domain.SyncSchedule{EventID: "ev1", Interval: 20 * time.Minute, Enabled: true}
	schedules := &recordingSchedules{due: []domain.SyncSchedule{sched}}
	w := newTestWorker(t, schedules, stubLinks{}, stubLocks{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
	if len(schedules.markRuns) != 1 {
		t.Fatalf("due schedule ran %d times in one poll, want 1", len(schedules.markRuns))
	}
}
