package handler

import (
	"log/slog"
	"net/http"

	"github.com/comedyloft/boxoffice/internal/domain"
)

// ArchiveHandler lists cold-storage archives in the bucket.
type ArchiveHandler struct {
	reader domain.BlobReader
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler. reader may be nil when the
// archiver is disabled; the endpoint then reports 404.
func NewArchiveHandler(reader domain.BlobReader, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		reader: reader,
		logger: logHandler(logger, "archive"),
	}
}

// List returns metadata for archived JSONL objects, optionally filtered by
// kind ("webhook_logs", "reports").
// GET /api/archives[?kind=reports]
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		writeError(w, http.StatusNotFound, "archiving is not enabled")
		return
	}

	prefix := "archive/"
	if kind := r.URL.Query().Get("kind"); kind != "" {
		prefix += kind + "/"
	}

	infos, err := h.reader.List(r.Context(), prefix)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}
