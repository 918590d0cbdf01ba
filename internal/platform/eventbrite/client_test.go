package eventbrite

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/comedyloft/boxoffice/internal/crypto"
	"github.com/comedyloft/boxoffice/internal/domain"
)

func TestMajorUnitsToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"0.00", 0},
		{"34.10", 3410},
		{"25", 2500},
		{"19.99", 1999},
	}
	for _, tc := range cases {
		got, err := majorUnitsToCents(tc.in)
		if err != nil {
			t.Fatalf("majorUnitsToCents(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("majorUnitsToCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if _, err := majorUnitsToCents("free"); err == nil {
		t.Error("majorUnitsToCents accepted a non-numeric value")
	}
}

func TestOrderToDomain(t *testing.T) {
	o := apiOrder{
		ID:     "eb-1",
		Status: "placed",
		Name:   "Sam Reyes",
		Email:  "sam@x.com",
	}
	o.Costs.Gross = apiMoney{Currency: "AUD", Value: "68.20"}
	o.Costs.EventbriteFee = apiMoney{Currency: "AUD", Value: "3.40"}
	o.Attendees = []apiAttendee{
		{TicketClassName: "Front Row", Cancelled: false},
		{TicketClassName: "Front Row", Cancelled: false},
		{TicketClassName: "Front Row", Cancelled: true},
	}

	got, err := o.toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}
	if got.Status != "paid" {
		t.Errorf("status = %s, want placed normalized to paid", got.Status)
	}
	if got.Quantity != 2 {
		t.Errorf("quantity = %d, cancelled attendees must not count", got.Quantity)
	}
	if got.TotalAmountCents != 6820 || got.FeesCents != 340 || got.UnitPriceCents != 3410 {
		t.Errorf("money = %+v", got)
	}
	if got.TicketType != "Front Row" || got.Currency != "AUD" {
		t.Errorf("order = %+v", got)
	}
}

func TestOrderToDomainRefunded(t *testing.T) {
	o := apiOrder{ID: "eb-2", Status: "refunded"}
	o.Costs.Gross = apiMoney{Value: "50.00"}
	got, err := o.toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}
	if !got.Refunded {
		t.Error("refunded order not marked Refunded")
	}
}

func TestGetOrdersFollowsCursor(t *testing.T) {
	order := func(id string) map[string]any {
		return map[string]any{
			"id":     id,
			"status": "placed",
			"costs":  map[string]any{"gross": map[string]any{"currency": "AUD", "value": "10.00"}},
		}
	}

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Query().Get("page") {
		case "1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"orders":     []any{order("eb-1"), order("eb-2")},
				"pagination": map[string]any{"has_more_items": true},
			})
		case "2":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"orders":     []any{order("eb-3")},
				"pagination": map[string]any{"has_more_items": false},
			})
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok-1", "secret")
	orders, err := c.GetOrders(t.Context(), "123")
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("got %d orders, want 3", len(orders))
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestGetEventErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "NOT_FOUND"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "secret")
	if _, err := c.GetEvent(t.Context(), "123"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestVerifyWebhookSignatureFailClosed(t *testing.T) {
	body := []byte(`{"config":{"action":"order.placed"}}`)

	c := NewClient("http://unused", "tok", "whsec")
	if err := c.VerifyWebhookSignature(body, crypto.SignHex([]byte("whsec"), body)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	open := NewClient("http://unused", "tok", "")
	if err := open.VerifyWebhookSignature(body, ""); !errors.Is(err, domain.ErrBadSignature) {
		t.Fatalf("unconfigured secret err = %v, want ErrBadSignature", err)
	}
}

func TestParseWebhook(t *testing.T) {
	c := NewClient("http://unused", "tok", "secret")

	cases := []struct {
		name   string
		action string
		apiURL string
		want   domain.WebhookEventType
	}{
		{"order placed", "order.placed", "https://www.eventbriteapi.com/v3/events/123456789/orders/1/", domain.WebhookOrderCreated},
		{"order refunded", "order.refunded", "https://www.eventbriteapi.com/v3/events/123456789/", domain.WebhookOrderRefunded},
		{"unmapped action", "attendee.checked_in", "https://www.eventbriteapi.com/v3/events/555/", domain.WebhookEventUpdated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(map[string]any{
				"config":  map[string]any{"action": tc.action},
				"api_url": tc.apiURL,
			})
			ev, err := c.ParseWebhook(body)
			if err != nil {
				t.Fatalf("ParseWebhook: %v", err)
			}
			if ev.Type != tc.want {
				t.Errorf("type = %s, want %s", ev.Type, tc.want)
			}
			if ev.Order != nil {
				t.Errorf("Eventbrite webhooks carry no order payload, got %+v", ev.Order)
			}
		})
	}

	t.Run("api_url without event id", func(t *testing.T) {
		body := []byte(`{"config":{"action":"order.placed"},"api_url":"https://www.eventbriteapi.com/v3/orders/1/"}`)
		if _, err := c.ParseWebhook(body); !errors.Is(err, domain.ErrBadPayload) {
			t.Fatalf("err = %v, want ErrBadPayload", err)
		}
	})
}
