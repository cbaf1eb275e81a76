package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/projectflow/internal/lifecycle"
	"github.com/yourorg/projectflow/internal/repository"
)

// TrackerHandler serves the public project tracker: anyone holding a
// reference id can look up a sanitized view of their project, no login
// required.
type TrackerHandler struct {
	projects *repository.ProjectRepository
	logger   *slog.Logger
}

func NewTrackerHandler(projects *repository.ProjectRepository, logger *slog.Logger) *TrackerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrackerHandler{projects: projects, logger: logger}
}

// ServeHTTP handles GET /track?ref={referenceId} requests.
func (h *TrackerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(r.URL.Query().Get("ref"))
	if ref == "" {
		writeError(w, http.StatusBadRequest, "reference id required")
		return
	}

	project, ok := h.projects.ByReferenceID(ref)
	if !ok {
		h.logger.Debug("tracker lookup missed", slog.String("reference_id", ref))
		writeError(w, http.StatusNotFound, "no project found for this reference id")
		return
	}

	writeJSON(w, http.StatusOK, lifecycle.PublicView(&project))
}

// RootHandler answers the tracker entry point with usage hints for
// anonymous visitors.
type RootHandler struct{}

// ServeHTTP handles GET / requests.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "projectflow",
		"track":   "/track?ref={referenceId}",
		"login":   "/login",
	})
}
