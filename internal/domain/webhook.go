package domain

import "time"

// WebhookEventType is the normalized action carried by a provider webhook.
type WebhookEventType string

const (
	WebhookOrderCreated   WebhookEventType = "order.created"
	WebhookOrderUpdated   WebhookEventType = "order.updated"
	WebhookOrderCancelled WebhookEventType = "order.cancelled"
	WebhookOrderRefunded  WebhookEventType = "order.refunded"
	WebhookEventUpdated   WebhookEventType = "event.updated"
)

// WebhookEvent is a provider webhook normalized by a platform adapter.
// Order is nil for event-level notifications that only identify the
// external event needing a re-sync.
type WebhookEvent struct {
	Platform        Platform
	Type            WebhookEventType
	ExternalEventID string
	Order           *PlatformOrder
}

// WebhookLog is the audit row recorded for every webhook delivery,
// accepted or rejected.
type WebhookLog struct {
	ID           int64     `json:"id"`
	Platform     Platform  `json:"platform"`
	EventType    string    `json:"event_type,omitempty"`
	Payload      []byte    `json:"payload"`
	Signature    string    `json:"signature,omitempty"`
	Processed    bool      `json:"processed"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
}
