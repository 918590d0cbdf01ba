// Package fake is a deterministic in-memory platform adapter for development
// and load testing. It is wired in only when explicitly enabled in
// configuration; production builds never select it implicitly.
package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// ticketTier is one synthetic ticket type with a fixed price.
type ticketTier struct {
	name       string
	priceCents int64
}

var tiers = []ticketTier{
	{"General Admission", 3500},
	{"VIP", 6500},
	{"Early Bird", 2500},
}

// feeRate is the synthetic booking fee applied to every order.
var feeRate = decimal.RequireFromString("0.035")

// Client generates a stable set of synthetic orders per external event id.
// The same seed always produces the same orders, so reconciliation runs
// against it are repeatable.
type Client struct {
	seed   int64
	orders int
}

// NewClient creates a fake adapter. orders is the number of synthetic orders
// generated per event.
func NewClient(seed int64, orders int) *Client {
	if orders <= 0 {
		orders = 30
	}
	return &Client{seed: seed, orders: orders}
}

// Platform identifies this adapter.
func (c *Client) Platform() domain.Platform {
	return domain.PlatformFake
}

// GetEvent returns synthetic event metadata.
func (c *Client) GetEvent(ctx context.Context, externalEventID string) (domain.PlatformEvent, error) {
	return domain.PlatformEvent{
		ExternalID: externalEventID,
		Name:       "Fake Event " + externalEventID,
		Capacity:   200,
		StartsAt:   baseTime.Add(30 * 24 * time.Hour),
		Currency:   "AUD",
	}, nil
}

// baseTime anchors every generated timestamp so runs are reproducible.
var baseTime = time.Date(2025, time.March, 1, 19, 0, 0, 0, time.UTC)

// GetOrders generates the synthetic order book for the given event. The
// generator is seeded from the configured seed and the event id, so distinct
// events get distinct but stable orders. Roughly one order in twenty is
// refunded.
func (c *Client) GetOrders(ctx context.Context, externalEventID string) ([]domain.PlatformOrder, error) {
	rng := rand.New(rand.NewSource(c.seed + int64(hashString(externalEventID))))

	orders := make([]domain.PlatformOrder, 0, c.orders)
	for i := 0; i < c.orders; i++ {
		tier := tiers[rng.Intn(len(tiers))]
		quantity := 1 + rng.Intn(4)
		total := tier.priceCents * int64(quantity)

		fee := decimal.NewFromInt(total).Mul(feeRate).Round(0).IntPart()
		refunded := rng.Intn(20) == 0

		orders = append(orders, domain.PlatformOrder{
			OrderID:          fmt.Sprintf("fake-%s-%04d", externalEventID, i),
			Status:           "paid",
			CustomerName:     fmt.Sprintf("Patron %04d", i),
			CustomerEmail:    fmt.Sprintf("patron%04d@example.com", i),
			TicketType:       tier.name,
			Quantity:         quantity,
			UnitPriceCents:   tier.priceCents,
			TotalAmountCents: total,
			FeesCents:        fee,
			Currency:         "AUD",
			Refunded:         refunded,
			CreatedAt:        baseTime.Add(time.Duration(i) * 7 * time.Minute),
		})
	}

	return orders, nil
}

// VerifyWebhookSignature accepts every delivery. The fake adapter exists for
// development environments that have no provider to sign requests.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) error {
	return nil
}

// ParseWebhook decodes the same normalized shape the service's own tests
// post at it.
func (c *Client) ParseWebhook(body []byte) (domain.WebhookEvent, error) {
	var payload struct {
		EventType       string                `json:"event_type"`
		ExternalEventID string                `json:"external_event_id"`
		Order           *domain.PlatformOrder `json:"order"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("fake: decode webhook: %w", domain.ErrBadPayload)
	}
	if payload.ExternalEventID == "" {
		return domain.WebhookEvent{}, fmt.Errorf("fake: webhook missing external_event_id: %w", domain.ErrBadPayload)
	}
	return domain.WebhookEvent{
		Platform:        domain.PlatformFake,
		Type:            domain.WebhookEventType(payload.EventType),
		ExternalEventID: payload.ExternalEventID,
		Order:           payload.Order,
	}, nil
}

// hashString is a small FNV-style fold of the event id into the seed.
func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
