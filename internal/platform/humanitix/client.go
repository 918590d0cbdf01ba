// Package humanitix is the REST client and webhook adapter for the Humanitix
// ticketing API.
package humanitix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/comedyloft/boxoffice/internal/crypto"
	"github.com/comedyloft/boxoffice/internal/domain"
)

// Client is the REST client for the Humanitix API.
type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	httpClient    *http.Client
}

// NewClient creates a new Humanitix REST client.
//
// baseURL is the API root, e.g. "https://api.humanitix.com/v1".
func NewClient(baseURL, apiKey, webhookSecret string) *Client {
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Platform identifies this adapter.
func (c *Client) Platform() domain.Platform {
	return domain.PlatformHumanitix
}

// GetEvent fetches event metadata by Humanitix event id.
func (c *Client) GetEvent(ctx context.Context, externalEventID string) (domain.PlatformEvent, error) {
	path := fmt.Sprintf("/events/%s", url.PathEscape(externalEventID))

	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.PlatformEvent{}, fmt.Errorf("humanitix: get event %s: %w", externalEventID, err)
	}

	var ev apiEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return domain.PlatformEvent{}, fmt.Errorf("humanitix: decode event: %w", err)
	}

	return ev.toDomain(), nil
}

// GetOrders fetches every order for the given event, following page-numbered
// pagination until a short page is returned.
func (c *Client) GetOrders(ctx context.Context, externalEventID string) ([]domain.PlatformOrder, error) {
	var all []domain.PlatformOrder

	for page := 1; ; page++ {
		path := fmt.Sprintf("/events/%s/orders?page=%d&pageSize=%d",
			url.PathEscape(externalEventID), page, ordersPageSize)

		body, err := c.doGet(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("humanitix: get orders %s page %d: %w", externalEventID, page, err)
		}

		var resp struct {
			Orders []apiOrder `json:"orders"`
			Total  int        `json:"total"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("humanitix: decode orders: %w", err)
		}

		for _, o := range resp.Orders {
			order, err := o.toDomain()
			if err != nil {
				return nil, fmt.Errorf("humanitix: normalize order %s: %w", o.ID, err)
			}
			all = append(all, order)
		}

		if len(resp.Orders) < ordersPageSize {
			break
		}
	}

	return all, nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 signature Humanitix sends
// in its webhook header. Fail-closed: an unconfigured secret rejects every
// delivery.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) error {
	if !crypto.VerifyHex([]byte(c.webhookSecret), body, signature) {
		return domain.ErrBadSignature
	}
	return nil
}

// ParseWebhook normalizes a Humanitix webhook payload. Deliveries carry the
// full order plus the event it belongs to.
func (c *Client) ParseWebhook(body []byte) (domain.WebhookEvent, error) {
	var payload struct {
		EventType string `json:"event_type"`
		Data      struct {
			Order apiOrder `json:"order"`
			Event struct {
				ID string `json:"_id"`
			} `json:"event"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("humanitix: decode webhook: %w", domain.ErrBadPayload)
	}
	if payload.EventType == "" || payload.Data.Event.ID == "" {
		return domain.WebhookEvent{}, fmt.Errorf("humanitix: webhook missing event_type or event id: %w", domain.ErrBadPayload)
	}

	var eventType domain.WebhookEventType
	switch payload.EventType {
	case "order.created":
		eventType = domain.WebhookOrderCreated
	case "order.updated":
		eventType = domain.WebhookOrderUpdated
	case "order.cancelled":
		eventType = domain.WebhookOrderCancelled
	case "order.refunded":
		eventType = domain.WebhookOrderRefunded
	default:
		return domain.WebhookEvent{}, fmt.Errorf("humanitix: unknown webhook event_type %q: %w", payload.EventType, domain.ErrBadPayload)
	}

	order, err := payload.Data.Order.toDomain()
	if err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("humanitix: normalize webhook order: %w", err)
	}

	return domain.WebhookEvent{
		Platform:        domain.PlatformHumanitix,
		Type:            eventType,
		ExternalEventID: payload.Data.Event.ID,
		Order:           &order,
	}, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

const ordersPageSize = 100

// doGet builds, sends, and reads an authenticated GET request against the
// Humanitix API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkStatus maps non-2xx HTTP status codes to appropriate errors.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("not found: %s: %w", apiErr.Message, domain.ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("unauthorized: %s: %w", apiErr.Message, domain.ErrUnauthorized)
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited: %s: %w", apiErr.Message, domain.ErrRateLimited)
	default:
		return fmt.Errorf("HTTP %d: %s (%s)", statusCode, apiErr.Message, apiErr.Code)
	}
}
