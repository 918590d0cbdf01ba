package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// SaleStore implements domain.SaleStore using PostgreSQL.
type SaleStore struct {
	pool *pgxpool.Pool
}

// NewSaleStore creates a new SaleStore backed by the given connection pool.
func NewSaleStore(pool *pgxpool.Pool) *SaleStore {
	return &SaleStore{pool: pool}
}

const saleUpsertQuery = `
	INSERT INTO ticket_sales (
		id, event_id, platform, platform_order_id,
		customer_name, customer_email, ticket_type, quantity,
		unit_price_cents, total_amount_cents, currency, status,
		refund_status, refund_amount_cents, purchased_at,
		auto_corrected, reconciliation_import, manual_adjustment,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8,
		$9, $10, $11, $12,
		$13, $14, $15,
		$16, $17, $18,
		NOW(), NOW()
	)
	ON CONFLICT (platform, platform_order_id) DO UPDATE SET
		customer_name      = EXCLUDED.customer_name,
		customer_email     = EXCLUDED.customer_email,
		ticket_type        = EXCLUDED.ticket_type,
		quantity           = EXCLUDED.quantity,
		unit_price_cents   = EXCLUDED.unit_price_cents,
		total_amount_cents = EXCLUDED.total_amount_cents,
		currency           = EXCLUDED.currency,
		status             = EXCLUDED.status,
		purchased_at       = EXCLUDED.purchased_at,
		version            = ticket_sales.version + 1,
		updated_at         = NOW()
	WHERE ticket_sales.refund_status <> 'refunded'`

// Upsert inserts or updates a single sale keyed by (platform, order id).
// A refunded row is never updated on conflict, so a stale delivery or a
// re-sync can never resurrect a refunded sale's original amount.
func (s *SaleStore) Upsert(ctx context.Context, sale domain.TicketSale) error {
	_, err := s.pool.Exec(ctx, saleUpsertQuery, saleUpsertArgs(sale)...)
	if err != nil {
		return fmt.Errorf("postgres: upsert sale %s/%s: %w", sale.Platform, sale.PlatformOrderID, err)
	}
	return nil
}

// UpsertBatch inserts or updates multiple sales in a single batch operation.
func (s *SaleStore) UpsertBatch(ctx context.Context, sales []domain.TicketSale) error {
	if len(sales) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, sale := range sales {
		batch.Queue(saleUpsertQuery, saleUpsertArgs(sale)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range sales {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert sale batch item %d: %w", i, err)
		}
	}
	return nil
}

func saleUpsertArgs(sale domain.TicketSale) []any {
	return []any{
		sale.ID, sale.EventID, string(sale.Platform), sale.PlatformOrderID,
		sale.CustomerName, sale.CustomerEmail, sale.TicketType, sale.Quantity,
		sale.UnitPriceCents, sale.TotalAmountCents, sale.Currency, sale.Status,
		string(sale.RefundStatus), sale.RefundAmountCents, sale.PurchasedAt,
		sale.AutoCorrected, sale.ReconciliationImport, sale.ManualAdjustment,
	}
}

// Update rewrites a sale row guarded by its version. ErrVersionConflict is
// returned when the row has moved since the caller read it.
func (s *SaleStore) Update(ctx context.Context, sale domain.TicketSale) error {
	const query = `
		UPDATE ticket_sales SET
			customer_name      = $1,
			customer_email     = $2,
			ticket_type        = $3,
			quantity           = $4,
			unit_price_cents   = $5,
			total_amount_cents = $6,
			currency           = $7,
			status             = $8,
			refund_status      = $9,
			refund_amount_cents = $10,
			auto_corrected     = $11,
			manual_adjustment  = $12,
			version            = version + 1,
			updated_at         = NOW()
		WHERE id = $13 AND version = $14`

	tag, err := s.pool.Exec(ctx, query,
		sale.CustomerName, sale.CustomerEmail, sale.TicketType, sale.Quantity,
		sale.UnitPriceCents, sale.TotalAmountCents, sale.Currency, sale.Status,
		string(sale.RefundStatus), sale.RefundAmountCents,
		sale.AutoCorrected, sale.ManualAdjustment,
		sale.ID, sale.Version,
	)
	if err != nil {
		return fmt.Errorf("postgres: update sale %s: %w", sale.ID, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a stale version from a missing row.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM ticket_sales WHERE id = $1)", sale.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: update sale %s: %w", sale.ID, err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrVersionConflict
	}
	return nil
}

// Delete removes a sale row.
func (s *SaleStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM ticket_sales WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: delete sale %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const saleCols = `id, event_id, platform, platform_order_id,
	customer_name, customer_email, ticket_type, quantity,
	unit_price_cents, total_amount_cents, currency, status,
	refund_status, refund_amount_cents, purchased_at,
	auto_corrected, reconciliation_import, manual_adjustment, version,
	created_at, updated_at`

// scanSale scans a single sale row into a domain.TicketSale.
func scanSale(row pgx.Row) (domain.TicketSale, error) {
	var sale domain.TicketSale
	var platform, refundStatus string
	err := row.Scan(
		&sale.ID, &sale.EventID, &platform, &sale.PlatformOrderID,
		&sale.CustomerName, &sale.CustomerEmail, &sale.TicketType, &sale.Quantity,
		&sale.UnitPriceCents, &sale.TotalAmountCents, &sale.Currency, &sale.Status,
		&refundStatus, &sale.RefundAmountCents, &sale.PurchasedAt,
		&sale.AutoCorrected, &sale.ReconciliationImport, &sale.ManualAdjustment, &sale.Version,
		&sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		return domain.TicketSale{}, err
	}
	sale.Platform = domain.Platform(platform)
	sale.RefundStatus = domain.RefundStatus(refundStatus)
	return sale, nil
}

// GetByID retrieves a sale by its primary key.
func (s *SaleStore) GetByID(ctx context.Context, id string) (domain.TicketSale, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+saleCols+` FROM ticket_sales WHERE id = $1`, id)
	sale, err := scanSale(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.TicketSale{}, domain.ErrNotFound
		}
		return domain.TicketSale{}, fmt.Errorf("postgres: get sale %s: %w", id, err)
	}
	return sale, nil
}

// GetByOrderID retrieves a sale by its platform order identity.
func (s *SaleStore) GetByOrderID(ctx context.Context, platform domain.Platform, orderID string) (domain.TicketSale, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+saleCols+` FROM ticket_sales WHERE platform = $1 AND platform_order_id = $2`,
		string(platform), orderID)
	sale, err := scanSale(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.TicketSale{}, domain.ErrNotFound
		}
		return domain.TicketSale{}, fmt.Errorf("postgres: get sale %s/%s: %w", platform, orderID, err)
	}
	return sale, nil
}

// ListByEventPlatform returns every sale mirrored for one event on one
// platform, oldest purchase first.
func (s *SaleStore) ListByEventPlatform(ctx context.Context, eventID string, platform domain.Platform) ([]domain.TicketSale, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+saleCols+` FROM ticket_sales
		 WHERE event_id = $1 AND platform = $2
		 ORDER BY purchased_at ASC`,
		eventID, string(platform))
	if err != nil {
		return nil, fmt.Errorf("postgres: list sales for %s/%s: %w", eventID, platform, err)
	}
	defer rows.Close()

	var sales []domain.TicketSale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list sales rows: %w", err)
	}
	return sales, nil
}

// MarkRefunded negates the sale amount and records the refund. The refund
// guard lives in the WHERE clause so a redelivered webhook cannot apply the
// negation twice.
func (s *SaleStore) MarkRefunded(ctx context.Context, platform domain.Platform, orderID string, amountCents int64) (bool, error) {
	const query = `
		UPDATE ticket_sales SET
			refund_status       = 'refunded',
			refund_amount_cents = $3,
			total_amount_cents  = -total_amount_cents,
			version             = version + 1,
			updated_at          = NOW()
		WHERE platform = $1 AND platform_order_id = $2
		  AND refund_status <> 'refunded'`

	tag, err := s.pool.Exec(ctx, query, string(platform), orderID, amountCents)
	if err != nil {
		return false, fmt.Errorf("postgres: refund sale %s/%s: %w", platform, orderID, err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM ticket_sales WHERE platform = $1 AND platform_order_id = $2)",
		string(platform), orderID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres: refund sale %s/%s: %w", platform, orderID, err)
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return false, nil
}

// MarkCancelled flags the sale as cancelled without touching its amount.
func (s *SaleStore) MarkCancelled(ctx context.Context, platform domain.Platform, orderID string) error {
	const query = `
		UPDATE ticket_sales SET
			refund_status = 'cancelled',
			version       = version + 1,
			updated_at    = NOW()
		WHERE platform = $1 AND platform_order_id = $2
		  AND refund_status = 'none'`

	tag, err := s.pool.Exec(ctx, query, string(platform), orderID)
	if err != nil {
		return fmt.Errorf("postgres: cancel sale %s/%s: %w", platform, orderID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM ticket_sales WHERE platform = $1 AND platform_order_id = $2)",
			string(platform), orderID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: cancel sale %s/%s: %w", platform, orderID, err)
		}
		if !exists {
			return domain.ErrNotFound
		}
	}
	return nil
}
