package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// ReportStore implements domain.ReportStore using PostgreSQL.
type ReportStore struct {
	pool *pgxpool.Pool
}

// NewReportStore creates a new ReportStore backed by the given connection pool.
func NewReportStore(pool *pgxpool.Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

// Create inserts a new report in its initial state.
func (s *ReportStore) Create(ctx context.Context, r domain.Report) error {
	const query = `
		INSERT INTO reconciliation_reports (
			id, event_id, platform, status, health, started_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		r.ID, r.EventID, string(r.Platform), string(r.Status), string(r.Health), r.StartedAt)
	if err != nil {
		return fmt.Errorf("postgres: create report %s: %w", r.ID, err)
	}
	return nil
}

// Update rewrites the mutable report fields as a pass progresses and
// terminates.
func (s *ReportStore) Update(ctx context.Context, r domain.Report) error {
	const query = `
		UPDATE reconciliation_reports SET
			status                 = $2,
			health                 = $3,
			local_sales            = $4,
			platform_sales         = $5,
			local_revenue_cents    = $6,
			platform_revenue_cents = $7,
			discrepancies_found    = $8,
			discrepancies_resolved = $9,
			error                  = $10,
			completed_at           = $11
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		r.ID, string(r.Status), string(r.Health),
		r.LocalSales, r.PlatformSales,
		r.LocalRevenueCents, r.PlatformRevenueCents,
		r.DiscrepanciesFound, r.DiscrepanciesResolved,
		r.Error, r.CompletedAt)
	if err != nil {
		return fmt.Errorf("postgres: update report %s: %w", r.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const reportCols = `id, event_id, platform, status, health,
	local_sales, platform_sales, local_revenue_cents, platform_revenue_cents,
	discrepancies_found, discrepancies_resolved, error, started_at, completed_at`

// scanReport scans a single report row into a domain.Report.
func scanReport(row pgx.Row) (domain.Report, error) {
	var r domain.Report
	var platform, status, health string
	err := row.Scan(
		&r.ID, &r.EventID, &platform, &status, &health,
		&r.LocalSales, &r.PlatformSales, &r.LocalRevenueCents, &r.PlatformRevenueCents,
		&r.DiscrepanciesFound, &r.DiscrepanciesResolved, &r.Error, &r.StartedAt, &r.CompletedAt,
	)
	if err != nil {
		return domain.Report{}, err
	}
	r.Platform = domain.Platform(platform)
	r.Status = domain.ReportStatus(status)
	r.Health = domain.HealthStatus(health)
	return r, nil
}

// GetByID retrieves a report by its primary key.
func (s *ReportStore) GetByID(ctx context.Context, id string) (domain.Report, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+reportCols+` FROM reconciliation_reports WHERE id = $1`, id)
	r, err := scanReport(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Report{}, domain.ErrNotFound
		}
		return domain.Report{}, fmt.Errorf("postgres: get report %s: %w", id, err)
	}
	return r, nil
}

// ListByEvent returns reports for one event, newest first.
func (s *ReportStore) ListByEvent(ctx context.Context, eventID string, opts domain.ListOpts) ([]domain.Report, error) {
	query := `SELECT ` + reportCols + ` FROM reconciliation_reports WHERE event_id = $1`
	args := []any{eventID}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND started_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND started_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY started_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list reports for %s: %w", eventID, err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list reports rows: %w", err)
	}
	return reports, nil
}

// ListCompletedBefore returns completed reports older than cutoff, for the
// archiver.
func (s *ReportStore) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Report, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+reportCols+` FROM reconciliation_reports
		 WHERE status = 'completed' AND started_at < $1
		 ORDER BY started_at ASC LIMIT $2`,
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list completed reports before %s: %w", cutoff, err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list completed reports rows: %w", err)
	}
	return reports, nil
}

// DeleteBefore removes completed reports older than cutoff and returns the
// number of rows deleted.
func (s *ReportStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM reconciliation_reports WHERE status = 'completed' AND started_at < $1",
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete reports before %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}
