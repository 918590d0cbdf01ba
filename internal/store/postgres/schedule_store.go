package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// ScheduleStore implements domain.ScheduleStore using PostgreSQL.
type ScheduleStore struct {
	pool *pgxpool.Pool
}

// NewScheduleStore creates a new ScheduleStore backed by the given connection pool.
func NewScheduleStore(pool *pgxpool.Pool) *ScheduleStore {
	return &ScheduleStore{pool: pool}
}

// Upsert creates or re-enables the schedule for one event.
func (s *ScheduleStore) Upsert(ctx context.Context, sched domain.SyncSchedule) error {
	const query = `
		INSERT INTO sync_schedules (
			event_id, interval_seconds, enabled, next_run_at
		) VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO UPDATE SET
			interval_seconds = EXCLUDED.interval_seconds,
			enabled          = EXCLUDED.enabled,
			next_run_at      = EXCLUDED.next_run_at,
			updated_at       = NOW()`

	_, err := s.pool.Exec(ctx, query,
		sched.EventID, int64(sched.Interval.Seconds()), sched.Enabled, sched.NextRunAt)
	if err != nil {
		return fmt.Errorf("postgres: upsert schedule %s: %w", sched.EventID, err)
	}
	return nil
}

const scheduleCols = `event_id, interval_seconds, enabled, next_run_at,
	last_run_at, created_at, updated_at`

// scanSchedule scans a single schedule row.
func scanSchedule(row pgx.Row) (domain.SyncSchedule, error) {
	var sched domain.SyncSchedule
	var intervalSeconds int64
	err := row.Scan(
		&sched.EventID, &intervalSeconds, &sched.Enabled, &sched.NextRunAt,
		&sched.LastRunAt, &sched.CreatedAt, &sched.UpdatedAt,
	)
	if err != nil {
		return domain.SyncSchedule{}, err
	}
	sched.Interval = time.Duration(intervalSeconds) * time.Second
	return sched, nil
}

// Get retrieves the schedule for one event.
func (s *ScheduleStore) Get(ctx context.Context, eventID string) (domain.SyncSchedule, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+scheduleCols+` FROM sync_schedules WHERE event_id = $1`, eventID)
	sched, err := scanSchedule(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.SyncSchedule{}, domain.ErrNotFound
		}
		return domain.SyncSchedule{}, fmt.Errorf("postgres: get schedule %s: %w", eventID, err)
	}
	return sched, nil
}

// Disable stops periodic sync for one event without deleting its history.
func (s *ScheduleStore) Disable(ctx context.Context, eventID string) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE sync_schedules SET enabled = FALSE, updated_at = NOW() WHERE event_id = $1",
		eventID)
	if err != nil {
		return fmt.Errorf("postgres: disable schedule %s: %w", eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDue returns enabled schedules whose next run is at or before now,
// most overdue first.
func (s *ScheduleStore) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.SyncSchedule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+scheduleCols+` FROM sync_schedules
		 WHERE enabled AND next_run_at <= $1
		 ORDER BY next_run_at ASC LIMIT $2`,
		now, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list due schedules: %w", err)
	}
	defer rows.Close()

	var scheds []domain.SyncSchedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan schedule: %w", err)
		}
		scheds = append(scheds, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list due schedules rows: %w", err)
	}
	return scheds, nil
}

// MarkRun advances the schedule after a sync pass.
func (s *ScheduleStore) MarkRun(ctx context.Context, eventID string, ranAt, nextRunAt time.Time) error {
	const query = `
		UPDATE sync_schedules SET
			last_run_at = $2,
			next_run_at = $3,
			updated_at  = NOW()
		WHERE event_id = $1`

	tag, err := s.pool.Exec(ctx, query, eventID, ranAt, nextRunAt)
	if err != nil {
		return fmt.Errorf("postgres: mark schedule run %s: %w", eventID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
