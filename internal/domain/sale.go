package domain

import "time"

// RefundStatus represents the refund lifecycle of a sale.
type RefundStatus string

const (
	RefundStatusNone      RefundStatus = "none"
	RefundStatusRefunded  RefundStatus = "refunded"
	RefundStatusCancelled RefundStatus = "cancelled"
)

// None reports whether the sale still counts toward tickets and revenue.
// The zero value is treated as none: rows built outside the store layer may
// never set the field.
func (r RefundStatus) None() bool {
	return r == "" || r == RefundStatusNone
}

// TicketSale is the local mirror of one order on an external platform.
// A refunded sale keeps its row but carries a negated TotalAmountCents.
type TicketSale struct {
	ID                string
	EventID           string
	Platform          Platform
	PlatformOrderID   string
	CustomerName      string
	CustomerEmail     string
	TicketType        string
	Quantity          int
	UnitPriceCents    int64
	TotalAmountCents  int64
	Currency          string
	Status            string // "paid" is the only status the mirror imports
	RefundStatus      RefundStatus
	RefundAmountCents int64
	PurchasedAt       time.Time

	// Provenance and arbitration.
	AutoCorrected        bool
	ReconciliationImport bool
	ManualAdjustment     bool
	Version              int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlatformOrder is a provider order normalized by a platform adapter.
// Money is always integer cents in the order's currency.
type PlatformOrder struct {
	OrderID          string
	Status           string
	CustomerName     string
	CustomerEmail    string
	TicketType       string
	Quantity         int
	UnitPriceCents   int64
	TotalAmountCents int64
	FeesCents        int64
	Currency         string
	Refunded         bool
	CreatedAt        time.Time
}

// Paid reports whether the order counts toward sold tickets and revenue.
func (o PlatformOrder) Paid() bool {
	return o.Status == "paid" || o.Status == "complete" || o.Status == "completed"
}

// PlatformEvent is provider event metadata normalized by a platform adapter.
type PlatformEvent struct {
	ExternalID string
	Name       string
	Capacity   int
	StartsAt   time.Time
	Currency   string
}
