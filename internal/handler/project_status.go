package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/lifecycle"
	"github.com/yourorg/projectflow/internal/repository"
	"github.com/yourorg/projectflow/internal/security/audit"
	"github.com/yourorg/projectflow/internal/session"
)

// StatusUpdateHandler moves a project to a new lifecycle status. The CTO
// may move any project; a developer only the projects assigned to them.
type StatusUpdateHandler struct {
	sessions *session.Store
	projects *repository.ProjectRepository
	auditor  *audit.Logger
	logger   *slog.Logger
}

func NewStatusUpdateHandler(sessions *session.Store, projects *repository.ProjectRepository, auditor *audit.Logger, logger *slog.Logger) *StatusUpdateHandler {
	return &StatusUpdateHandler{
		sessions: sessions,
		projects: projects,
		auditor:  auditor,
		logger:   logger,
	}
}

// ServeHTTP handles PUT /projects/{id}/status requests.
func (h *StatusUpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		Status domain.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	assigned := project.AssignedToID() == state.User.ID
	if !lifecycle.CanTransition(project.Status, req.Status, state.User.Role, assigned) {
		h.auditor.Denied(state.User.Email, r.URL.Path, "status change not permitted")
		writeError(w, http.StatusForbidden, "not permitted to change this project's status")
		return
	}

	updated, err := h.projects.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.auditor.Record(audit.ActionStatusChanged, state.User.Email, updated.ReferenceID,
		slog.String("from", string(project.Status)),
		slog.String("to", string(req.Status)),
	)

	writeJSON(w, http.StatusOK, updated)
}
