package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// SaleStore persists the local mirror of platform orders. All writes go
// through this interface; Update enforces optimistic concurrency on the
// sale's Version and returns ErrVersionConflict when the row moved.
type SaleStore interface {
	Upsert(ctx context.Context, sale TicketSale) error
	UpsertBatch(ctx context.Context, sales []TicketSale) error
	Update(ctx context.Context, sale TicketSale) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (TicketSale, error)
	GetByOrderID(ctx context.Context, platform Platform, orderID string) (TicketSale, error)
	ListByEventPlatform(ctx context.Context, eventID string, platform Platform) ([]TicketSale, error)
	// MarkRefunded negates the sale amount and records the refund exactly
	// once; redelivered refund webhooks report applied=false.
	MarkRefunded(ctx context.Context, platform Platform, orderID string, amountCents int64) (applied bool, err error)
	MarkCancelled(ctx context.Context, platform Platform, orderID string) error
}

// PlatformStore persists event-to-platform links and sync aggregates.
type PlatformStore interface {
	Create(ctx context.Context, tp TicketPlatform) error
	Update(ctx context.Context, tp TicketPlatform) error
	Delete(ctx context.Context, eventID string, platform Platform) error
	GetByEventPlatform(ctx context.Context, eventID string, platform Platform) (TicketPlatform, error)
	GetByExternalID(ctx context.Context, platform Platform, externalEventID string) (TicketPlatform, error)
	ListByEvent(ctx context.Context, eventID string) ([]TicketPlatform, error)
	UpdateAggregates(ctx context.Context, tp TicketPlatform) error
	SetSyncStatus(ctx context.Context, eventID string, platform Platform, status, errMsg string, at time.Time) error
}

// EventStore persists the event rows this service owns.
type EventStore interface {
	Create(ctx context.Context, ev Event) error
	GetByID(ctx context.Context, id string) (Event, error)
	UpdateTotals(ctx context.Context, id string, ticketsSold int, grossCents int64, ordersCount, platforms int) error
	SetReconciliationStatus(ctx context.Context, id string, status HealthStatus, at time.Time) error
}

// ReportStore persists reconciliation reports.
type ReportStore interface {
	Create(ctx context.Context, r Report) error
	Update(ctx context.Context, r Report) error
	GetByID(ctx context.Context, id string) (Report, error)
	ListByEvent(ctx context.Context, eventID string, opts ListOpts) ([]Report, error)
	ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]Report, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// DiscrepancyStore persists detected discrepancies.
type DiscrepancyStore interface {
	InsertBatch(ctx context.Context, ds []Discrepancy) error
	Update(ctx context.Context, d Discrepancy) error
	GetByID(ctx context.Context, id string) (Discrepancy, error)
	ListByReport(ctx context.Context, reportID string) ([]Discrepancy, error)
	ListOpenByEvent(ctx context.Context, eventID string) ([]Discrepancy, error)
}

// ScheduleStore persists durable per-event sync schedules.
type ScheduleStore interface {
	Upsert(ctx context.Context, s SyncSchedule) error
	Get(ctx context.Context, eventID string) (SyncSchedule, error)
	Disable(ctx context.Context, eventID string) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]SyncSchedule, error)
	MarkRun(ctx context.Context, eventID string, ranAt, nextRunAt time.Time) error
}

// WebhookLogStore persists the webhook delivery audit trail.
type WebhookLogStore interface {
	Insert(ctx context.Context, wl WebhookLog) (int64, error)
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]WebhookLog, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
	// ListByEventAndType returns entries of one event type scoped to one
	// event id, newest first.
	ListByEventAndType(ctx context.Context, eventID, event string, limit int) ([]AuditEntry, error)
}
