package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// WebhookLogStore implements domain.WebhookLogStore using PostgreSQL.
type WebhookLogStore struct {
	pool *pgxpool.Pool
}

// NewWebhookLogStore creates a new WebhookLogStore backed by the given connection pool.
func NewWebhookLogStore(pool *pgxpool.Pool) *WebhookLogStore {
	return &WebhookLogStore{pool: pool}
}

// Insert records one webhook delivery and returns the new row id.
func (s *WebhookLogStore) Insert(ctx context.Context, wl domain.WebhookLog) (int64, error) {
	const query = `
		INSERT INTO webhook_logs (
			platform, event_type, payload, signature, processed, error_message, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	receivedAt := wl.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	var id int64
	err := s.pool.QueryRow(ctx, query,
		string(wl.Platform), wl.EventType, wl.Payload, wl.Signature,
		wl.Processed, wl.ErrorMessage, receivedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert webhook log: %w", err)
	}
	return id, nil
}

// ListBefore returns webhook logs older than cutoff, for the archiver.
func (s *WebhookLogStore) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.WebhookLog, error) {
	const query = `
		SELECT id, platform, event_type, payload, signature, processed, error_message, received_at
		FROM webhook_logs
		WHERE received_at < $1
		ORDER BY received_at ASC LIMIT $2`

	rows, err := s.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list webhook logs before %s: %w", cutoff, err)
	}
	defer rows.Close()

	var logs []domain.WebhookLog
	for rows.Next() {
		var wl domain.WebhookLog
		var platform string
		if err := rows.Scan(
			&wl.ID, &platform, &wl.EventType, &wl.Payload, &wl.Signature,
			&wl.Processed, &wl.ErrorMessage, &wl.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan webhook log: %w", err)
		}
		wl.Platform = domain.Platform(platform)
		logs = append(logs, wl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list webhook logs rows: %w", err)
	}
	return logs, nil
}

// DeleteBefore removes webhook logs older than cutoff and returns the number
// of rows deleted.
func (s *WebhookLogStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM webhook_logs WHERE received_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete webhook logs before %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}
