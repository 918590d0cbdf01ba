package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// DiscrepancyStore implements domain.DiscrepancyStore using PostgreSQL.
type DiscrepancyStore struct {
	pool *pgxpool.Pool
}

// NewDiscrepancyStore creates a new DiscrepancyStore backed by the given connection pool.
func NewDiscrepancyStore(pool *pgxpool.Pool) *DiscrepancyStore {
	return &DiscrepancyStore{pool: pool}
}

// InsertBatch writes every discrepancy found by one reconciliation pass.
func (s *DiscrepancyStore) InsertBatch(ctx context.Context, ds []domain.Discrepancy) error {
	if len(ds) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO discrepancies (
			id, report_id, event_id, platform, type, severity,
			platform_order_id, description, local_cents, platform_cents,
			resolution, resolution_notes, resolved_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14
		)`

	for _, d := range ds {
		batch.Queue(query,
			d.ID, d.ReportID, d.EventID, string(d.Platform), string(d.Type), string(d.Severity),
			d.PlatformOrderID, d.Description, d.LocalCents, d.PlatformCents,
			string(d.Resolution), d.ResolutionNotes, d.ResolvedAt, d.CreatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range ds {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert discrepancy batch item %d: %w", i, err)
		}
	}
	return nil
}

// Update rewrites a discrepancy's resolution fields.
func (s *DiscrepancyStore) Update(ctx context.Context, d domain.Discrepancy) error {
	const query = `
		UPDATE discrepancies SET
			resolution       = $2,
			resolution_notes = $3,
			resolved_at      = $4
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		d.ID, string(d.Resolution), d.ResolutionNotes, d.ResolvedAt)
	if err != nil {
		return fmt.Errorf("postgres: update discrepancy %s: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const discrepancyCols = `id, report_id, event_id, platform, type, severity,
	platform_order_id, description, local_cents, platform_cents,
	resolution, resolution_notes, resolved_at, created_at`

// scanDiscrepancy scans a single discrepancy row.
func scanDiscrepancy(row pgx.Row) (domain.Discrepancy, error) {
	var d domain.Discrepancy
	var platform, dtype, severity, resolution string
	err := row.Scan(
		&d.ID, &d.ReportID, &d.EventID, &platform, &dtype, &severity,
		&d.PlatformOrderID, &d.Description, &d.LocalCents, &d.PlatformCents,
		&resolution, &d.ResolutionNotes, &d.ResolvedAt, &d.CreatedAt,
	)
	if err != nil {
		return domain.Discrepancy{}, err
	}
	d.Platform = domain.Platform(platform)
	d.Type = domain.DiscrepancyType(dtype)
	d.Severity = domain.Severity(severity)
	d.Resolution = domain.Resolution(resolution)
	return d, nil
}

// GetByID retrieves a discrepancy by its primary key.
func (s *DiscrepancyStore) GetByID(ctx context.Context, id string) (domain.Discrepancy, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+discrepancyCols+` FROM discrepancies WHERE id = $1`, id)
	d, err := scanDiscrepancy(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Discrepancy{}, domain.ErrNotFound
		}
		return domain.Discrepancy{}, fmt.Errorf("postgres: get discrepancy %s: %w", id, err)
	}
	return d, nil
}

// ListByReport returns every discrepancy recorded by one report.
func (s *DiscrepancyStore) ListByReport(ctx context.Context, reportID string) ([]domain.Discrepancy, error) {
	return s.list(ctx,
		`SELECT `+discrepancyCols+` FROM discrepancies WHERE report_id = $1 ORDER BY created_at ASC`,
		reportID)
}

// ListOpenByEvent returns discrepancies still awaiting attention for one event.
func (s *DiscrepancyStore) ListOpenByEvent(ctx context.Context, eventID string) ([]domain.Discrepancy, error) {
	return s.list(ctx,
		`SELECT `+discrepancyCols+` FROM discrepancies
		 WHERE event_id = $1 AND resolution IN ('', 'manual_review')
		 ORDER BY created_at ASC`,
		eventID)
}

func (s *DiscrepancyStore) list(ctx context.Context, query string, args ...any) ([]domain.Discrepancy, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list discrepancies: %w", err)
	}
	defer rows.Close()

	var ds []domain.Discrepancy
	for rows.Next() {
		d, err := scanDiscrepancy(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan discrepancy: %w", err)
		}
		ds = append(ds, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list discrepancies rows: %w", err)
	}
	return ds, nil
}
