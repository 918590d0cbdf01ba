// Package platform defines the contract every ticketing provider adapter
// implements, plus a registry the services use to look adapters up by name.
package platform

import (
	"context"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// Client is the provider adapter contract. Implementations normalize each
// provider's API shapes into domain types; money always comes back as
// integer cents.
type Client interface {
	// Platform returns the provider this adapter talks to.
	Platform() domain.Platform

	// GetEvent fetches provider metadata for one listed event.
	GetEvent(ctx context.Context, externalEventID string) (domain.PlatformEvent, error)

	// GetOrders fetches every order for one listed event, following
	// provider pagination.
	GetOrders(ctx context.Context, externalEventID string) ([]domain.PlatformOrder, error)

	// VerifyWebhookSignature checks a webhook delivery against the raw
	// request body. Verification is fail-closed: a missing secret or a bad
	// signature returns domain.ErrBadSignature.
	VerifyWebhookSignature(body []byte, signature string) error

	// ParseWebhook normalizes a verified webhook payload.
	ParseWebhook(body []byte) (domain.WebhookEvent, error)
}

// Registry holds the adapters enabled by configuration, keyed by platform.
type Registry struct {
	clients map[domain.Platform]Client
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(clients ...Client) *Registry {
	m := make(map[domain.Platform]Client, len(clients))
	for _, c := range clients {
		m[c.Platform()] = c
	}
	return &Registry{clients: m}
}

// Get returns the adapter for the given platform, or ErrUnknownPlatform when
// no adapter is configured for it.
func (r *Registry) Get(p domain.Platform) (Client, error) {
	c, ok := r.clients[p]
	if !ok {
		return nil, domain.ErrUnknownPlatform
	}
	return c, nil
}

// Platforms returns the configured platform names in registry order.
func (r *Registry) Platforms() []domain.Platform {
	out := make([]domain.Platform, 0, len(r.clients))
	for p := range r.clients {
		out = append(out, p)
	}
	return out
}
