package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/comedyloft/boxoffice/internal/domain"
	"github.com/comedyloft/boxoffice/internal/platform"
)

// WebhookService ingests provider webhook deliveries: verify, audit, apply.
// Every delivery is recorded in webhook_logs whether it was accepted or not.
type WebhookService struct {
	platforms *platform.Registry
	sales     domain.SaleStore
	links     domain.PlatformStore
	logs      domain.WebhookLogStore
	sync      *SyncService
	logger    *slog.Logger
}

// NewWebhookService creates a WebhookService.
func NewWebhookService(
	platforms *platform.Registry,
	sales domain.SaleStore,
	links domain.PlatformStore,
	logs domain.WebhookLogStore,
	sync *SyncService,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		platforms: platforms,
		sales:     sales,
		links:     links,
		logs:      logs,
		sync:      sync,
		logger:    logger.With(slog.String("component", "webhook")),
	}
}

// Process handles one raw webhook delivery. Signature verification is
// fail-closed: a missing or wrong signature, or an unconfigured secret,
// rejects the delivery before the payload is even parsed.
func (s *WebhookService) Process(ctx context.Context, p domain.Platform, body []byte, signature string) error {
	client, err := s.platforms.Get(p)
	if err != nil {
		s.record(ctx, p, "", body, signature, false, err)
		return fmt.Errorf("webhook: %w", err)
	}

	if err := client.VerifyWebhookSignature(body, signature); err != nil {
		s.record(ctx, p, "", body, signature, false, err)
		s.logger.WarnContext(ctx, "webhook signature rejected",
			slog.String("platform", string(p)))
		return fmt.Errorf("webhook: verify %s delivery: %w", p, err)
	}

	ev, err := client.ParseWebhook(body)
	if err != nil {
		s.record(ctx, p, "", body, signature, false, err)
		return fmt.Errorf("webhook: parse %s delivery: %w", p, err)
	}

	link, err := s.links.GetByExternalID(ctx, p, ev.ExternalEventID)
	if err != nil {
		s.record(ctx, p, string(ev.Type), body, signature, false, err)
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "webhook for unlinked event",
				slog.String("platform", string(p)),
				slog.String("external_event_id", ev.ExternalEventID))
		}
		return fmt.Errorf("webhook: resolve event %s/%s: %w", p, ev.ExternalEventID, err)
	}

	if err := s.apply(ctx, link, ev); err != nil {
		s.record(ctx, p, string(ev.Type), body, signature, false, err)
		return fmt.Errorf("webhook: apply %s %s: %w", p, ev.Type, err)
	}

	s.record(ctx, p, string(ev.Type), body, signature, true, nil)

	s.logger.InfoContext(ctx, "webhook processed",
		slog.String("platform", string(p)),
		slog.String("type", string(ev.Type)),
		slog.String("event_id", link.EventID))
	return nil
}

// apply dispatches one verified, parsed webhook. Deliveries that carry no
// order payload identify only the external event, so they go straight to a
// full platform re-sync; order-level deliveries get an incremental write
// and then the same re-sync, which catches aggregate and field drift the
// single-order path doesn't cover.
func (s *WebhookService) apply(ctx context.Context, link domain.TicketPlatform, ev domain.WebhookEvent) error {
	if ev.Order == nil {
		return s.resync(ctx, link)
	}

	o := *ev.Order
	switch ev.Type {
	case domain.WebhookOrderCreated, domain.WebhookOrderUpdated:
		if o.Refunded {
			if err := s.refund(ctx, link, o.OrderID, o.TotalAmountCents); err != nil {
				return err
			}
		} else if o.Paid() {
			if err := s.sales.Upsert(ctx, saleFromOrder(link.EventID, link.Platform, o)); err != nil {
				return err
			}
		}

	case domain.WebhookOrderCancelled:
		if err := s.sales.MarkCancelled(ctx, link.Platform, o.OrderID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

	case domain.WebhookOrderRefunded:
		if err := s.refund(ctx, link, o.OrderID, o.TotalAmountCents); err != nil {
			return err
		}
	}

	return s.resync(ctx, link)
}

// refund applies a refund through the once-only store path. A redelivered
// refund reports applied=false and is a no-op; an order the mirror has
// never seen is left to the trailing re-sync.
func (s *WebhookService) refund(ctx context.Context, link domain.TicketPlatform, orderID string, amountCents int64) error {
	applied, err := s.sales.MarkRefunded(ctx, link.Platform, orderID, amountCents)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if !applied {
		s.logger.InfoContext(ctx, "refund already applied, skipping",
			slog.String("platform", string(link.Platform)),
			slog.String("order_id", orderID))
	}
	return nil
}

// resync refreshes the whole platform link. A concurrently running sync
// already covers the delivery, so a held lease is not an error.
func (s *WebhookService) resync(ctx context.Context, link domain.TicketPlatform) error {
	_, err := s.sync.SyncPlatform(ctx, link.EventID, link.Platform)
	if errors.Is(err, domain.ErrLockHeld) {
		return nil
	}
	return err
}

// record appends the delivery to the webhook audit trail. Logging failures
// are reported but never mask the processing outcome.
func (s *WebhookService) record(ctx context.Context, p domain.Platform, eventType string, body []byte, signature string, processed bool, perr error) {
	wl := domain.WebhookLog{
		Platform:   p,
		EventType:  eventType,
		Payload:    body,
		Signature:  signature,
		Processed:  processed,
		ReceivedAt: time.Now().UTC(),
	}
	if perr != nil {
		wl.ErrorMessage = perr.Error()
	}
	if _, err := s.logs.Insert(ctx, wl); err != nil {
		s.logger.WarnContext(ctx, "webhook log insert failed",
			slog.String("platform", string(p)),
			slog.String("error", err.Error()))
	}
}
