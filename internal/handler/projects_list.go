package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/projectflow/internal/lifecycle"
	"github.com/yourorg/projectflow/internal/repository"
)

// AllProjectsHandler serves the CTO's full project list from the cache.
type AllProjectsHandler struct {
	projects *repository.ProjectRepository
	logger   *slog.Logger
}

func NewAllProjectsHandler(projects *repository.ProjectRepository, logger *slog.Logger) *AllProjectsHandler {
	return &AllProjectsHandler{projects: projects, logger: logger}
}

// ServeHTTP handles GET /all-projects requests.
func (h *AllProjectsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		if err := h.projects.FetchAll(r.Context()); err != nil {
			h.logger.Warn("refresh failed, serving cached projects", slog.String("error", err.Error()))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projects": summarize(h.projects.Projects(), time.Now()),
	})
}

// ApprovalQueueHandler serves the CTO's queue of unapproved projects.
type ApprovalQueueHandler struct {
	projects *repository.ProjectRepository
	logger   *slog.Logger
}

func NewApprovalQueueHandler(projects *repository.ProjectRepository, logger *slog.Logger) *ApprovalQueueHandler {
	return &ApprovalQueueHandler{projects: projects, logger: logger}
}

// ServeHTTP handles GET /projects/approval requests.
func (h *ApprovalQueueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pending := lifecycle.Unapproved(h.projects.Projects())
	writeJSON(w, http.StatusOK, map[string]any{
		"pending": summarize(pending, time.Now()),
		"count":   len(pending),
	})
}
