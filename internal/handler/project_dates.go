package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/repository"
	"github.com/yourorg/projectflow/internal/session"
)

// ProjectDatesHandler sets the completion or renewal date on a project.
// Date edits are a CTO and assigned-developer concern.
type ProjectDatesHandler struct {
	sessions *session.Store
	projects *repository.ProjectRepository
	logger   *slog.Logger
}

func NewProjectDatesHandler(sessions *session.Store, projects *repository.ProjectRepository, logger *slog.Logger) *ProjectDatesHandler {
	return &ProjectDatesHandler{sessions: sessions, projects: projects, logger: logger}
}

// ServeHTTP handles PUT /projects/{id}/completion and
// PUT /projects/{id}/renewal requests.
func (h *ProjectDatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.Snapshot()
	if state.User == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id := r.PathValue("id")
	project, ok := h.projects.ByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	allowed := state.User.Role == domain.RoleCTO ||
		(state.User.Role == domain.RoleDeveloper && project.AssignedToID() == state.User.ID)
	if !allowed {
		writeError(w, http.StatusForbidden, "not permitted to edit project dates")
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		// Bare dates come from date pickers; accept those too.
		date, err = time.Parse("2006-01-02", req.Date)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be RFC 3339 or YYYY-MM-DD")
		return
	}

	var apply func(context.Context, string, time.Time) (*domain.Project, error)
	switch r.PathValue("field") {
	case "completion":
		apply = h.projects.SetCompletionDate
	case "renewal":
		apply = h.projects.SetRenewalDate
	default:
		writeError(w, http.StatusNotFound, "unknown date field")
		return
	}

	updated, err := apply(r.Context(), id, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.logger.Info("project date updated",
		slog.String("project_id", id),
		slog.String("field", r.PathValue("field")),
	)
	writeJSON(w, http.StatusOK, updated)
}
