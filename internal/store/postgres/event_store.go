package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// EventStore implements domain.EventStore using PostgreSQL.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Create inserts a new event row.
func (s *EventStore) Create(ctx context.Context, ev domain.Event) error {
	const query = `
		INSERT INTO events (id, name, capacity, starts_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query, ev.ID, ev.Name, ev.Capacity, ev.StartsAt)
	if err != nil {
		return fmt.Errorf("postgres: create event %s: %w", ev.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// GetByID retrieves an event by its primary key.
func (s *EventStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	const query = `
		SELECT id, name, capacity, starts_at,
			total_tickets_sold, total_gross_sales_cents, total_orders_count,
			platforms_count, reconciliation_status, last_reconciled_at,
			created_at, updated_at
		FROM events WHERE id = $1`

	var ev domain.Event
	var status string
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&ev.ID, &ev.Name, &ev.Capacity, &ev.StartsAt,
		&ev.TotalTicketsSold, &ev.TotalGrossSalesCents, &ev.TotalOrdersCount,
		&ev.PlatformsCount, &status, &ev.LastReconciledAt,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrNotFound
		}
		return domain.Event{}, fmt.Errorf("postgres: get event %s: %w", id, err)
	}
	ev.ReconciliationStatus = domain.HealthStatus(status)
	return ev, nil
}

// UpdateTotals writes the denormalized cross-platform rollup.
func (s *EventStore) UpdateTotals(ctx context.Context, id string, ticketsSold int, grossCents int64, ordersCount, platforms int) error {
	const query = `
		UPDATE events SET
			total_tickets_sold      = $2,
			total_gross_sales_cents = $3,
			total_orders_count      = $4,
			platforms_count         = $5,
			updated_at              = NOW()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, ticketsSold, grossCents, ordersCount, platforms)
	if err != nil {
		return fmt.Errorf("postgres: update event totals %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetReconciliationStatus records the worst health across the event's
// platforms after a reconciliation pass.
func (s *EventStore) SetReconciliationStatus(ctx context.Context, id string, status domain.HealthStatus, at time.Time) error {
	const query = `
		UPDATE events SET
			reconciliation_status = $2,
			last_reconciled_at    = $3,
			updated_at            = NOW()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, string(status), at)
	if err != nil {
		return fmt.Errorf("postgres: set reconciliation status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
