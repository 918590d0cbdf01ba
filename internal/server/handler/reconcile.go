package handler

import (
	"log/slog"
	"net/http"

	"github.com/comedyloft/boxoffice/internal/domain"
	"github.com/comedyloft/boxoffice/internal/service"
)

// ReconcileHandler serves reconciliation triggers, reports, and the manual
// review surface.
type ReconcileHandler struct {
	reconcile *service.ReconciliationService
	logger    *slog.Logger
}

// NewReconcileHandler creates a ReconcileHandler.
func NewReconcileHandler(reconcile *service.ReconciliationService, logger *slog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		reconcile: reconcile,
		logger:    logHandler(logger, "reconcile"),
	}
}

// Trigger runs a reconciliation pass for the event, either for every linked
// platform or for the single platform named in the query string.
// POST /api/events/{id}/reconcile[?platform=eventbrite]
func (h *ReconcileHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "id")

	if name := r.URL.Query().Get("platform"); name != "" {
		p := domain.Platform(name)
		if !p.Valid() {
			writeDomainError(w, domain.ErrUnknownPlatform)
			return
		}
		report, err := h.reconcile.ReconcilePlatform(r.Context(), eventID, p)
		if err != nil && report.ID == "" {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []domain.Report{report})
		return
	}

	reports, err := h.reconcile.ReconcileEvent(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// ListReports returns reconciliation reports for the event, newest first.
// GET /api/events/{id}/reports
func (h *ReconcileHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reconcile.GetReports(r.Context(), pathParam(r, "id"), parseListOpts(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// ListReportDiscrepancies returns every discrepancy one report recorded.
// GET /api/reports/{id}/discrepancies
func (h *ReconcileHandler) ListReportDiscrepancies(w http.ResponseWriter, r *http.Request) {
	ds, err := h.reconcile.GetReportDiscrepancies(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// ListOpenDiscrepancies returns the event's discrepancies still awaiting
// review.
// GET /api/events/{id}/discrepancies
func (h *ReconcileHandler) ListOpenDiscrepancies(w http.ResponseWriter, r *http.Request) {
	ds, err := h.reconcile.GetOpenDiscrepancies(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// ResolveDiscrepancy records an operator disposition for an open
// discrepancy.
// POST /api/discrepancies/{id}/resolve
func (h *ReconcileHandler) ResolveDiscrepancy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Resolution string `json:"resolution"`
		Notes      string `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	d, err := h.reconcile.ResolveDiscrepancy(r.Context(), pathParam(r, "id"), domain.Resolution(req.Resolution), req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateAdjustment applies an operator correction to the local mirror.
// POST /api/events/{id}/adjustments
func (h *ReconcileHandler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Platform string            `json:"platform"`
		Adj      domain.Adjustment `json:"adjustment"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p := domain.Platform(req.Platform)
	if !p.Valid() {
		writeDomainError(w, domain.ErrUnknownPlatform)
		return
	}

	if err := h.reconcile.CreateManualAdjustment(r.Context(), pathParam(r, "id"), p, req.Adj); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "applied"})
}
