package domain

import "time"

// DiscrepancyType classifies a difference between the local mirror and a
// platform's records.
type DiscrepancyType string

const (
	DiscrepancyMissingSale       DiscrepancyType = "missing_sale"
	DiscrepancyDataInconsistency DiscrepancyType = "data_inconsistency"
	DiscrepancyAmountMismatch    DiscrepancyType = "amount_mismatch"
	DiscrepancyDuplicateSale     DiscrepancyType = "duplicate_sale"
)

// Severity ranks how urgently a discrepancy needs attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Resolution is the terminal disposition of a discrepancy.
type Resolution string

const (
	ResolutionNone          Resolution = ""
	ResolutionAutoImported  Resolution = "auto_imported"
	ResolutionAutoCorrected Resolution = "auto_corrected"
	ResolutionManualReview  Resolution = "manual_review"
	ResolutionConfirmed     Resolution = "confirmed"
	ResolutionDismissed     Resolution = "dismissed"
)

// HealthStatus classifies the outcome of a reconciliation pass.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthWarning  HealthStatus = "warning"
	HealthCritical HealthStatus = "critical"
	HealthUnknown  HealthStatus = "unknown"
)

// Worse returns the more severe of the two statuses.
func (h HealthStatus) Worse(other HealthStatus) HealthStatus {
	if healthRank(other) > healthRank(h) {
		return other
	}
	return h
}

func healthRank(h HealthStatus) int {
	switch h {
	case HealthCritical:
		return 3
	case HealthWarning:
		return 2
	case HealthHealthy:
		return 1
	}
	return 0
}

// ReportStatus is the lifecycle state of a reconciliation report.
type ReportStatus string

const (
	ReportRunning   ReportStatus = "running"
	ReportCompleted ReportStatus = "completed"
	ReportFailed    ReportStatus = "failed"
)

// Discrepancy is one detected difference between the mirror and a platform.
type Discrepancy struct {
	ID              string          `json:"id"`
	ReportID        string          `json:"report_id"`
	EventID         string          `json:"event_id"`
	Platform        Platform        `json:"platform"`
	Type            DiscrepancyType `json:"type"`
	Severity        Severity        `json:"severity"`
	PlatformOrderID string          `json:"platform_order_id"`
	Description     string          `json:"description"`
	LocalCents      *int64          `json:"local_cents,omitempty"`
	PlatformCents   *int64          `json:"platform_cents,omitempty"`
	Resolution      Resolution      `json:"resolution"`
	ResolutionNotes string          `json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Open reports whether the discrepancy still needs attention.
func (d Discrepancy) Open() bool {
	return d.Resolution == ResolutionNone || d.Resolution == ResolutionManualReview
}

// Report records one reconciliation pass over one (event, platform) pair.
// Counts and revenue figures reflect what the pass found, before any
// automatic resolution was applied.
type Report struct {
	ID                    string       `json:"id"`
	EventID               string       `json:"event_id"`
	Platform              Platform     `json:"platform"`
	Status                ReportStatus `json:"status"`
	Health                HealthStatus `json:"health"`
	LocalSales            int          `json:"local_sales"`
	PlatformSales         int          `json:"platform_sales"`
	LocalRevenueCents     int64        `json:"local_revenue_cents"`
	PlatformRevenueCents  int64        `json:"platform_revenue_cents"`
	DiscrepanciesFound    int          `json:"discrepancies_found"`
	DiscrepanciesResolved int          `json:"discrepancies_resolved"`
	Error                 string       `json:"error,omitempty"`
	StartedAt             time.Time    `json:"started_at"`
	CompletedAt           *time.Time   `json:"completed_at,omitempty"`
}

// Adjustment is an operator-initiated manual correction to the mirror.
type Adjustment struct {
	Type            string         `json:"type"` // "add", "remove", "update_amount"
	PlatformOrderID string         `json:"platform_order_id,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
	Reason          string         `json:"reason"`
}
