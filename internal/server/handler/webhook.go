package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/comedyloft/boxoffice/internal/domain"
	"github.com/comedyloft/boxoffice/internal/service"
)

// maxWebhookBody caps webhook payload size at 1 MiB.
const maxWebhookBody = 1 << 20

// WebhookHandler is the public, unauthenticated webhook intake. Security is
// per-delivery signature verification, not the API key middleware.
type WebhookHandler struct {
	webhooks *service.WebhookService
	logger   *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(webhooks *service.WebhookService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhooks: webhooks,
		logger:   logHandler(logger, "webhook"),
	}
}

// Receive accepts one provider webhook delivery.
// POST /webhooks/{platform}
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r, "platform")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")
	if signature == "" {
		signature = r.Header.Get("X-Signature")
	}

	if err := h.webhooks.Process(r.Context(), p, body, signature); err != nil {
		// Permanent failures return 4xx so providers stop redelivering;
		// anything transient returns 5xx to invite a retry.
		switch {
		case errors.Is(err, domain.ErrBadSignature):
			writeError(w, http.StatusUnauthorized, "invalid signature")
		case errors.Is(err, domain.ErrBadPayload):
			writeError(w, http.StatusBadRequest, "invalid payload")
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownPlatform):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "processing failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}
