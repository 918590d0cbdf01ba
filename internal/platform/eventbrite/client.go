// Package eventbrite is the REST client and webhook adapter for the
// Eventbrite ticketing API.
package eventbrite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/comedyloft/boxoffice/internal/crypto"
	"github.com/comedyloft/boxoffice/internal/domain"
)

// Client is the REST client for the Eventbrite API.
type Client struct {
	baseURL       string
	token         string
	webhookSecret string
	httpClient    *http.Client
}

// NewClient creates a new Eventbrite REST client.
//
// baseURL is the API root, e.g. "https://www.eventbriteapi.com/v3".
func NewClient(baseURL, token, webhookSecret string) *Client {
	return &Client{
		baseURL:       baseURL,
		token:         token,
		webhookSecret: webhookSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Platform identifies this adapter.
func (c *Client) Platform() domain.Platform {
	return domain.PlatformEventbrite
}

// GetEvent fetches event metadata by Eventbrite event id.
func (c *Client) GetEvent(ctx context.Context, externalEventID string) (domain.PlatformEvent, error) {
	path := fmt.Sprintf("/events/%s/", url.PathEscape(externalEventID))

	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.PlatformEvent{}, fmt.Errorf("eventbrite: get event %s: %w", externalEventID, err)
	}

	var ev apiEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return domain.PlatformEvent{}, fmt.Errorf("eventbrite: decode event: %w", err)
	}

	return ev.toDomain(), nil
}

// GetOrders fetches every order for the given event, following the
// has_more_items pagination cursor. Attendees are expanded so the normalized
// order carries a real ticket quantity.
func (c *Client) GetOrders(ctx context.Context, externalEventID string) ([]domain.PlatformOrder, error) {
	var all []domain.PlatformOrder

	for page := 1; ; page++ {
		path := fmt.Sprintf("/events/%s/orders/?expand=attendees&page=%d",
			url.PathEscape(externalEventID), page)

		body, err := c.doGet(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("eventbrite: get orders %s page %d: %w", externalEventID, page, err)
		}

		var resp struct {
			Orders     []apiOrder `json:"orders"`
			Pagination struct {
				HasMoreItems bool `json:"has_more_items"`
			} `json:"pagination"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("eventbrite: decode orders: %w", err)
		}

		for _, o := range resp.Orders {
			order, err := o.toDomain()
			if err != nil {
				return nil, fmt.Errorf("eventbrite: normalize order %s: %w", o.ID, err)
			}
			all = append(all, order)
		}

		if !resp.Pagination.HasMoreItems {
			break
		}
	}

	return all, nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 signature over the raw
// delivery body. Fail-closed: an unconfigured secret rejects every delivery.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) error {
	if !crypto.VerifyHex([]byte(c.webhookSecret), body, signature) {
		return domain.ErrBadSignature
	}
	return nil
}

// apiURLEventID extracts the numeric event id from an Eventbrite api_url,
// e.g. "https://www.eventbriteapi.com/v3/events/123456789/".
var apiURLEventID = regexp.MustCompile(`/events/(\d+)/`)

// ParseWebhook normalizes an Eventbrite webhook payload. Eventbrite sends
// only an action and an API URL, so deliveries resolve to an event-level
// notification and the processor re-syncs the whole event.
func (c *Client) ParseWebhook(body []byte) (domain.WebhookEvent, error) {
	var payload struct {
		Config struct {
			Action      string `json:"action"`
			EndpointURL string `json:"endpoint_url"`
		} `json:"config"`
		APIURL string `json:"api_url"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("eventbrite: decode webhook: %w", domain.ErrBadPayload)
	}

	m := apiURLEventID.FindStringSubmatch(payload.APIURL)
	if m == nil {
		return domain.WebhookEvent{}, fmt.Errorf("eventbrite: no event id in api_url %q: %w", payload.APIURL, domain.ErrBadPayload)
	}

	eventType := domain.WebhookEventUpdated
	switch payload.Config.Action {
	case "order.placed":
		eventType = domain.WebhookOrderCreated
	case "order.updated":
		eventType = domain.WebhookOrderUpdated
	case "order.refunded":
		eventType = domain.WebhookOrderRefunded
	}

	return domain.WebhookEvent{
		Platform:        domain.PlatformEventbrite,
		Type:            eventType,
		ExternalEventID: m[1],
	}, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet builds, sends, and reads an authenticated GET request against the
// Eventbrite API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
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
		ErrorCode        string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("not found: %s: %w", apiErr.ErrorDescription, domain.ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("unauthorized: %s: %w", apiErr.ErrorDescription, domain.ErrUnauthorized)
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited: %s: %w", apiErr.ErrorDescription, domain.ErrRateLimited)
	default:
		return fmt.Errorf("HTTP %d: %s (%s)", statusCode, apiErr.ErrorDescription, apiErr.ErrorCode)
	}
}
