package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/comedyloft/boxoffice/internal/domain"
	"github.com/comedyloft/boxoffice/internal/service"
)

// SyncHandler serves sync triggers, platform link management, and schedule
// control.
type SyncHandler struct {
	sync   *service.SyncService
	logger *slog.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(sync *service.SyncService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		sync:   sync,
		logger: logHandler(logger, "sync"),
	}
}

// TriggerSync runs a sync pass for the event, either for every linked
// platform or for the single platform named in the query string.
// POST /api/events/{id}/sync[?platform=humanitix]
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "id")

	if name := r.URL.Query().Get("platform"); name != "" {
		p := domain.Platform(name)
		if !p.Valid() {
			writeDomainError(w, domain.ErrUnknownPlatform)
			return
		}
		res, err := h.sync.SyncPlatform(r.Context(), eventID, p)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []domain.SyncResult{res})
		return
	}

	results, err := h.sync.SyncAllPlatforms(r.Context(), eventID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// GetStatus returns the per-platform link state for the event.
// GET /api/events/{id}/sync/status
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	links, err := h.sync.GetSyncStatus(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// GetHistory returns recent sync outcomes, newest first.
// GET /api/events/{id}/sync/history?limit=50
func (h *SyncHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	entries, err := h.sync.GetSyncHistory(r.Context(), pathParam(r, "id"), opts.Limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// AddPlatform links the event to a provider listing and runs the initial
// sync.
// POST /api/events/{id}/platforms
func (h *SyncHandler) AddPlatform(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Platform        string `json:"platform"`
		ExternalEventID string `json:"external_event_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p := domain.Platform(req.Platform)
	if !p.Valid() || req.ExternalEventID == "" {
		writeError(w, http.StatusBadRequest, "platform and external_event_id are required")
		return
	}

	res, err := h.sync.AddPlatform(r.Context(), pathParam(r, "id"), p, req.ExternalEventID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// UpdatePlatform rewrites a link's external id or sync flag.
// PATCH /api/events/{id}/platforms/{platform}
func (h *SyncHandler) UpdatePlatform(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r, "platform")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req struct {
		ExternalEventID string `json:"external_event_id"`
		SyncEnabled     bool   `json:"sync_enabled"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.sync.UpdatePlatform(r.Context(), pathParam(r, "id"), p, req.ExternalEventID, req.SyncEnabled); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// RemovePlatform unlinks a provider listing.
// DELETE /api/events/{id}/platforms/{platform}
func (h *SyncHandler) RemovePlatform(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r, "platform")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.sync.RemovePlatform(r.Context(), pathParam(r, "id"), p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// StartSchedule enables the event's durable sync schedule.
// POST /api/events/{id}/schedule
func (h *SyncHandler) StartSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IntervalSeconds int64 `json:"interval_seconds"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	interval := time.Duration(req.IntervalSeconds) * time.Second
	if err := h.sync.StartScheduledSync(r.Context(), pathParam(r, "id"), interval); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "scheduled"})
}

// StopSchedule disables the event's durable sync schedule.
// DELETE /api/events/{id}/schedule
func (h *SyncHandler) StopSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.sync.StopScheduledSync(r.Context(), pathParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unscheduled"})
}
