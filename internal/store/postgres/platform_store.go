package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// PlatformStore implements domain.PlatformStore using PostgreSQL.
type PlatformStore struct {
	pool *pgxpool.Pool
}

// NewPlatformStore creates a new PlatformStore backed by the given connection pool.
func NewPlatformStore(pool *pgxpool.Pool) *PlatformStore {
	return &PlatformStore{pool: pool}
}

// Create links an event to its listing on one platform.
func (s *PlatformStore) Create(ctx context.Context, tp domain.TicketPlatform) error {
	const query = `
		INSERT INTO ticket_platforms (
			event_id, platform, external_event_id, sync_enabled
		) VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, platform) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query,
		tp.EventID, string(tp.Platform), tp.ExternalEventID, tp.SyncEnabled)
	if err != nil {
		return fmt.Errorf("postgres: create platform link %s/%s: %w", tp.EventID, tp.Platform, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Update rewrites the mutable link fields (external id, sync flag).
func (s *PlatformStore) Update(ctx context.Context, tp domain.TicketPlatform) error {
	const query = `
		UPDATE ticket_platforms SET
			external_event_id = $3,
			sync_enabled      = $4,
			updated_at        = NOW()
		WHERE event_id = $1 AND platform = $2`

	tag, err := s.pool.Exec(ctx, query,
		tp.EventID, string(tp.Platform), tp.ExternalEventID, tp.SyncEnabled)
	if err != nil {
		return fmt.Errorf("postgres: update platform link %s/%s: %w", tp.EventID, tp.Platform, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes an event-to-platform link.
func (s *PlatformStore) Delete(ctx context.Context, eventID string, platform domain.Platform) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM ticket_platforms WHERE event_id = $1 AND platform = $2",
		eventID, string(platform))
	if err != nil {
		return fmt.Errorf("postgres: delete platform link %s/%s: %w", eventID, platform, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const platformCols = `id, event_id, platform, external_event_id,
	tickets_sold, tickets_available, gross_sales_cents, net_revenue_cents,
	fees_cents, orders_count, sync_enabled, last_sync_at,
	last_sync_status, last_sync_error, created_at, updated_at`

// scanPlatform scans a single link row into a domain.TicketPlatform.
func scanPlatform(row pgx.Row) (domain.TicketPlatform, error) {
	var tp domain.TicketPlatform
	var platform string
	err := row.Scan(
		&tp.ID, &tp.EventID, &platform, &tp.ExternalEventID,
		&tp.TicketsSold, &tp.TicketsAvailable, &tp.GrossSalesCents, &tp.NetRevenueCents,
		&tp.FeesCents, &tp.OrdersCount, &tp.SyncEnabled, &tp.LastSyncAt,
		&tp.LastSyncStatus, &tp.LastSyncError, &tp.CreatedAt, &tp.UpdatedAt,
	)
	if err != nil {
		return domain.TicketPlatform{}, err
	}
	tp.Platform = domain.Platform(platform)
	return tp, nil
}

// GetByEventPlatform retrieves the link for one event on one platform.
func (s *PlatformStore) GetByEventPlatform(ctx context.Context, eventID string, platform domain.Platform) (domain.TicketPlatform, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+platformCols+` FROM ticket_platforms WHERE event_id = $1 AND platform = $2`,
		eventID, string(platform))
	tp, err := scanPlatform(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.TicketPlatform{}, domain.ErrNotFound
		}
		return domain.TicketPlatform{}, fmt.Errorf("postgres: get platform link %s/%s: %w", eventID, platform, err)
	}
	return tp, nil
}

// GetByExternalID resolves a provider's event id to the local link. Webhook
// processing uses this to find which local event a delivery belongs to.
func (s *PlatformStore) GetByExternalID(ctx context.Context, platform domain.Platform, externalEventID string) (domain.TicketPlatform, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+platformCols+` FROM ticket_platforms WHERE platform = $1 AND external_event_id = $2`,
		string(platform), externalEventID)
	tp, err := scanPlatform(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.TicketPlatform{}, domain.ErrNotFound
		}
		return domain.TicketPlatform{}, fmt.Errorf("postgres: get platform link by external id %s/%s: %w", platform, externalEventID, err)
	}
	return tp, nil
}

// ListByEvent returns every platform link for one event.
func (s *PlatformStore) ListByEvent(ctx context.Context, eventID string) ([]domain.TicketPlatform, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+platformCols+` FROM ticket_platforms WHERE event_id = $1 ORDER BY platform`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list platform links for %s: %w", eventID, err)
	}
	defer rows.Close()

	var links []domain.TicketPlatform
	for rows.Next() {
		tp, err := scanPlatform(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan platform link: %w", err)
		}
		links = append(links, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list platform links rows: %w", err)
	}
	return links, nil
}

// UpdateAggregates writes the sales aggregates produced by a sync pass.
func (s *PlatformStore) UpdateAggregates(ctx context.Context, tp domain.TicketPlatform) error {
	const query = `
		UPDATE ticket_platforms SET
			tickets_sold      = $3,
			tickets_available = $4,
			gross_sales_cents = $5,
			net_revenue_cents = $6,
			fees_cents        = $7,
			orders_count      = $8,
			updated_at        = NOW()
		WHERE event_id = $1 AND platform = $2`

	tag, err := s.pool.Exec(ctx, query,
		tp.EventID, string(tp.Platform),
		tp.TicketsSold, tp.TicketsAvailable, tp.GrossSalesCents,
		tp.NetRevenueCents, tp.FeesCents, tp.OrdersCount)
	if err != nil {
		return fmt.Errorf("postgres: update aggregates %s/%s: %w", tp.EventID, tp.Platform, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetSyncStatus records the outcome of the latest sync pass.
func (s *PlatformStore) SetSyncStatus(ctx context.Context, eventID string, platform domain.Platform, status, errMsg string, at time.Time) error {
	const query = `
		UPDATE ticket_platforms SET
			last_sync_at     = $3,
			last_sync_status = $4,
			last_sync_error  = $5,
			updated_at       = NOW()
		WHERE event_id = $1 AND platform = $2`

	tag, err := s.pool.Exec(ctx, query,
		eventID, string(platform), at, status, errMsg)
	if err != nil {
		return fmt.Errorf("postgres: set sync status %s/%s: %w", eventID, platform, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
