package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/projectflow/internal/lifecycle"
	"github.com/yourorg/projectflow/internal/repository"
)

// ProjectDetailHandler serves one project's full record from the cache.
type ProjectDetailHandler struct {
	projects *repository.ProjectRepository
	logger   *slog.Logger
}

func NewProjectDetailHandler(projects *repository.ProjectRepository, logger *slog.Logger) *ProjectDetailHandler {
	return &ProjectDetailHandler{projects: projects, logger: logger}
}

// ServeHTTP handles GET /projects/{id} requests.
func (h *ProjectDetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "project id required")
		return
	}

	project, ok := h.projects.ByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"project":     project,
		"statusLabel": lifecycle.Label(project.Status),
	})
}
