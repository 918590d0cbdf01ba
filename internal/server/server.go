// Package server is the HTTP API: sync and reconciliation control, the
// manual review surface, and the public webhook intake.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/comedyloft/boxoffice/internal/domain"
	"github.com/comedyloft/boxoffice/internal/server/handler"
	"github.com/comedyloft/boxoffice/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// WebhookRateLimit / WebhookRateWindow throttle the public webhook
	// intake per client IP. Zero disables the limiter.
	WebhookRateLimit  int
	WebhookRateWindow time.Duration
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health    *handler.HealthHandler
	Sync      *handler.SyncHandler
	Reconcile *handler.ReconcileHandler
	Webhooks  *handler.WebhookHandler
	Archives  *handler.ArchiveHandler
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and builds the middleware chain
// CORS → logging → auth. The webhook intake bypasses auth: providers cannot
// send an API key, so its security is per-delivery signature verification
// (plus an optional per-IP rate limit).
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	api := http.NewServeMux()

	api.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	api.HandleFunc("POST /api/events/{id}/sync", handlers.Sync.TriggerSync)
	api.HandleFunc("GET /api/events/{id}/sync/status", handlers.Sync.GetStatus)
	api.HandleFunc("GET /api/events/{id}/sync/history", handlers.Sync.GetHistory)

	api.HandleFunc("POST /api/events/{id}/platforms", handlers.Sync.AddPlatform)
	api.HandleFunc("PATCH /api/events/{id}/platforms/{platform}", handlers.Sync.UpdatePlatform)
	api.HandleFunc("DELETE /api/events/{id}/platforms/{platform}", handlers.Sync.RemovePlatform)

	api.HandleFunc("POST /api/events/{id}/schedule", handlers.Sync.StartSchedule)
	api.HandleFunc("DELETE /api/events/{id}/schedule", handlers.Sync.StopSchedule)

	api.HandleFunc("POST /api/events/{id}/reconcile", handlers.Reconcile.Trigger)
	api.HandleFunc("GET /api/events/{id}/reports", handlers.Reconcile.ListReports)
	api.HandleFunc("GET /api/reports/{id}/discrepancies", handlers.Reconcile.ListReportDiscrepancies)
	api.HandleFunc("GET /api/events/{id}/discrepancies", handlers.Reconcile.ListOpenDiscrepancies)
	api.HandleFunc("POST /api/discrepancies/{id}/resolve", handlers.Reconcile.ResolveDiscrepancy)
	api.HandleFunc("POST /api/events/{id}/adjustments", handlers.Reconcile.CreateAdjustment)

	api.HandleFunc("GET /api/archives", handlers.Archives.List)

	var webhook http.Handler = http.HandlerFunc(handlers.Webhooks.Receive)
	if limiter != nil && cfg.WebhookRateLimit > 0 {
		webhook = middleware.RateLimit(limiter, cfg.WebhookRateLimit, cfg.WebhookRateWindow)(webhook)
	}

	root := http.NewServeMux()
	root.Handle("/api/", middleware.Auth(cfg.APIKey)(api))
	root.Handle("POST /webhooks/{platform}", webhook)

	var h http.Handler = root
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
