package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// archiveBatchLimit caps how many rows one archival run exports. Anything
// left over is picked up by the next run.
const archiveBatchLimit = 10000

// ArchiveImpl implements domain.Archiver: aged rows are serialized to JSONL,
// uploaded to the bucket, and then pruned from Postgres. The prune happens
// only after the upload succeeded.
type ArchiveImpl struct {
	writer  domain.BlobWriter
	logs    domain.WebhookLogStore
	reports domain.ReportStore
	audit   domain.AuditStore
}

// NewArchiver creates an ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, logs domain.WebhookLogStore, reports domain.ReportStore, audit domain.AuditStore) *ArchiveImpl {
	return &ArchiveImpl{
		writer:  writer,
		logs:    logs,
		reports: reports,
		audit:   audit,
	}
}

// ArchiveWebhookLogs exports webhook deliveries received before the cutoff
// to archive/webhook_logs/YYYY-MM.jsonl and prunes the exported rows.
func (a *ArchiveImpl) ArchiveWebhookLogs(ctx context.Context, before time.Time) (int64, error) {
	rows, err := a.logs.ListBefore(ctx, before, archiveBatchLimit)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive webhook logs query: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(rows)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive webhook logs marshal: %w", err)
	}

	path := archivePath("webhook_logs", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive webhook logs upload: %w", err)
	}

	pruned, err := a.logs.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(rows)), fmt.Errorf("s3blob: archive webhook logs prune: %w", err)
	}

	if err := a.audit.Log(ctx, "archive.webhook_logs", map[string]any{
		"path":   path,
		"count":  len(rows),
		"pruned": pruned,
		"before": before.Format(time.RFC3339),
	}); err != nil {
		return int64(len(rows)), fmt.Errorf("s3blob: archive webhook logs audit log: %w", err)
	}

	return int64(len(rows)), nil
}

// ArchiveReports exports completed reconciliation reports finished before
// the cutoff to archive/reports/YYYY-MM.jsonl and prunes the exported rows.
// Discrepancy rows ride along via ON DELETE CASCADE, so a report is archived
// only once its review window is over.
func (a *ArchiveImpl) ArchiveReports(ctx context.Context, before time.Time) (int64, error) {
	rows, err := a.reports.ListCompletedBefore(ctx, before, archiveBatchLimit)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive reports query: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(rows)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive reports marshal: %w", err)
	}

	path := archivePath("reports", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive reports upload: %w", err)
	}

	pruned, err := a.reports.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(rows)), fmt.Errorf("s3blob: archive reports prune: %w", err)
	}

	if err := a.audit.Log(ctx, "archive.reports", map[string]any{
		"path":   path,
		"count":  len(rows),
		"pruned": pruned,
		"before": before.Format(time.RFC3339),
	}); err != nil {
		return int64(len(rows)), fmt.Errorf("s3blob: archive reports audit log: %w", err)
	}

	return int64(len(rows)), nil
}

// archivePath builds the bucket key for an archive file, partitioned by the
// year-month of the cutoff:
//
//	archive/webhook_logs/2025-06.jsonl
//	archive/reports/2025-06.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
