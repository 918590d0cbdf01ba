package domain

import "time"

// Event is the local booking-platform event row, limited to the fields this
// service owns. Totals are denormalized sums across the event's platforms.
type Event struct {
	ID                   string
	Name                 string
	Capacity             int
	StartsAt             time.Time
	TotalTicketsSold     int
	TotalGrossSalesCents int64
	TotalOrdersCount     int
	PlatformsCount       int
	ReconciliationStatus HealthStatus
	LastReconciledAt     *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
