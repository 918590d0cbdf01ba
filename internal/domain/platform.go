package domain

import "time"

// Platform identifies an external ticketing provider.
type Platform string

const (
	PlatformHumanitix  Platform = "humanitix"
	PlatformEventbrite Platform = "eventbrite"
	PlatformFake       Platform = "fake"
)

// Valid reports whether p is a platform this service knows how to sync.
func (p Platform) Valid() bool {
	switch p {
	case PlatformHumanitix, PlatformEventbrite, PlatformFake:
		return true
	}
	return false
}

// TicketPlatform links a local event to its listing on one provider and
// carries the per-platform sales aggregates written by each sync pass.
type TicketPlatform struct {
	ID               int64      `json:"id"`
	EventID          string     `json:"event_id"`
	Platform         Platform   `json:"platform"`
	ExternalEventID  string     `json:"external_event_id"`
	TicketsSold      int        `json:"tickets_sold"`
	TicketsAvailable int        `json:"tickets_available"`
	GrossSalesCents  int64      `json:"gross_sales_cents"`
	NetRevenueCents  int64      `json:"net_revenue_cents"`
	FeesCents        int64      `json:"fees_cents"`
	OrdersCount      int        `json:"orders_count"`
	SyncEnabled      bool       `json:"sync_enabled"`
	LastSyncAt       *time.Time `json:"last_sync_at,omitempty"`
	LastSyncStatus   string     `json:"last_sync_status"` // "ok", "error", or "" before the first sync
	LastSyncError    string     `json:"last_sync_error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SyncResult summarizes one sync pass against one platform. A failed pass
// carries Error and leaves the aggregate fields zero.
type SyncResult struct {
	Platform        Platform  `json:"platform"`
	EventID         string    `json:"event_id"`
	ExternalEventID string    `json:"external_event_id"`
	Success         bool      `json:"success"`
	TicketsSold     int       `json:"tickets_sold"`
	GrossSalesCents int64     `json:"gross_sales_cents"`
	OrdersImported  int       `json:"orders_imported"`
	Error           string    `json:"error,omitempty"`
	SyncedAt        time.Time `json:"synced_at"`
}
