package eventbrite

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// apiEvent is the wire shape of an Eventbrite event.
type apiEvent struct {
	ID   string `json:"id"`
	Name struct {
		Text string `json:"text"`
	} `json:"name"`
	Capacity int    `json:"capacity"`
	Currency string `json:"currency"`
	Start    struct {
		UTC time.Time `json:"utc"`
	} `json:"start"`
}

func (e apiEvent) toDomain() domain.PlatformEvent {
	return domain.PlatformEvent{
		ExternalID: e.ID,
		Name:       e.Name.Text,
		Capacity:   e.Capacity,
		StartsAt:   e.Start.UTC,
		Currency:   e.Currency,
	}
}

// apiMoney is Eventbrite's money shape: a display string plus a decimal
// major-unit value.
type apiMoney struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// apiOrder is the wire shape of an Eventbrite order.
type apiOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Costs  struct {
		Gross         apiMoney `json:"gross"`
		EventbriteFee apiMoney `json:"eventbrite_fee"`
	} `json:"costs"`
	Attendees []apiAttendee `json:"attendees"`
	Created   time.Time     `json:"created"`
}

// apiAttendee is one attendee within an expanded order.
type apiAttendee struct {
	TicketClassName string `json:"ticket_class_name"`
	Cancelled       bool   `json:"cancelled"`
}

// toDomain normalizes the order. Eventbrite reports money in major units
// ("34.10"), converted here to cents with decimal arithmetic.
func (o apiOrder) toDomain() (domain.PlatformOrder, error) {
	totalCents, err := majorUnitsToCents(o.Costs.Gross.Value)
	if err != nil {
		return domain.PlatformOrder{}, fmt.Errorf("parse gross %q: %w", o.Costs.Gross.Value, err)
	}
	feesCents, err := majorUnitsToCents(o.Costs.EventbriteFee.Value)
	if err != nil {
		return domain.PlatformOrder{}, fmt.Errorf("parse fee %q: %w", o.Costs.EventbriteFee.Value, err)
	}

	quantity := 0
	ticketType := ""
	for _, a := range o.Attendees {
		if a.Cancelled {
			continue
		}
		quantity++
		if ticketType == "" {
			ticketType = a.TicketClassName
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
	if status == "placed" || status == "completed" {
		status = "paid"
	}

	return domain.PlatformOrder{
		OrderID:          o.ID,
		Status:           status,
		CustomerName:     o.Name,
		CustomerEmail:    o.Email,
		TicketType:       ticketType,
		Quantity:         quantity,
		UnitPriceCents:   unitCents,
		TotalAmountCents: totalCents,
		FeesCents:        feesCents,
		Currency:         o.Costs.Gross.Currency,
		Refunded:         o.Status == "refunded",
		CreatedAt:        o.Created,
	}, nil
}

// majorUnitsToCents converts a decimal major-unit amount ("34.10") to
// integer cents. An empty value is zero.
func majorUnitsToCents(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
