package humanitix

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// apiEvent is the wire shape of a Humanitix event.
type apiEvent struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	TotalCapacity int       `json:"totalCapacity"`
	StartDate     time.Time `json:"startDate"`
	Currency      string    `json:"currency"`
}

func (e apiEvent) toDomain() domain.PlatformEvent {
	currency := e.Currency
	if currency == "" {
		currency = "AUD"
	}
	return domain.PlatformEvent{
		ExternalID: e.ID,
		Name:       e.Name,
		Capacity:   e.TotalCapacity,
		StartsAt:   e.StartDate,
		Currency:   currency,
	}
}

// apiOrder is the wire shape of a Humanitix order. Money fields are decimal
// dollar strings in the event currency.
type apiOrder struct {
	ID        string      `json:"_id"`
	Status    string      `json:"status"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Currency  string      `json:"currency"`
	Total     json.Number `json:"total"`
	Fees      json.Number `json:"fees"`
	Refunded  bool        `json:"refunded"`
	Tickets   []apiTicket `json:"tickets"`
	CreatedAt time.Time   `json:"createdAt"`
}

// apiTicket is one ticket line within an order.
type apiTicket struct {
	TicketTypeName string      `json:"ticketTypeName"`
	Quantity       int         `json:"quantity"`
	Price          json.Number `json:"price"`
}

// toDomain normalizes the order. Dollar amounts are converted to integer
// cents with decimal arithmetic so values like 34.10 never pick up float
// drift.
func (o apiOrder) toDomain() (domain.PlatformOrder, error) {
	totalCents, err := dollarsToCents(o.Total)
	if err != nil {
		return domain.PlatformOrder{}, fmt.Errorf("parse total %q: %w", o.Total, err)
	}
	feesCents, err := dollarsToCents(o.Fees)
	if err != nil {
		return domain.PlatformOrder{}, fmt.Errorf("parse fees %q: %w", o.Fees, err)
	}

	quantity := 0
	types := make([]string, 0, len(o.Tickets))
	for _, t := range o.Tickets {
		quantity += t.Quantity
		if t.TicketTypeName != "" {
			types = append(types, t.TicketTypeName)
		}
	}
	if quantity == 0 {
		quantity = 1
	}

	var unitCents int64
	if quantity > 0 {
		unitCents = totalCents / int64(quantity)
	}

	status := o.Status
	if status == "complete" || status == "completed" {
		status = "paid"
	}

	currency := o.Currency
	if currency == "" {
		currency = "AUD"
	}

	return domain.PlatformOrder{
		OrderID:          o.ID,
		Status:           status,
		CustomerName:     strings.TrimSpace(o.FirstName + " " + o.LastName),
		CustomerEmail:    o.Email,
		TicketType:       strings.Join(types, ", "),
		Quantity:         quantity,
		UnitPriceCents:   unitCents,
		TotalAmountCents: totalCents,
		FeesCents:        feesCents,
		Currency:         currency,
		Refunded:         o.Refunded,
		CreatedAt:        o.CreatedAt,
	}, nil
}

// dollarsToCents converts a decimal dollar amount to integer cents. An empty
// value is zero.
func dollarsToCents(n json.Number) (int64, error) {
	s := n.String()
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
