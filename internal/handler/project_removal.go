package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/repository"
	"github.com/yourorg/projectflow/internal/security/audit"
	"github.com/yourorg/projectflow/internal/session"
)

// RemovalHandler drives the two-step delete and reject flows. The first
// request only registers intent; the caller must repeat it with
// confirm=true before anything leaves the backend. Both flows are CTO-only.
type RemovalHandler struct {
	sessions *session.Store
	projects *repository.ProjectRepository
	auditor  *audit.Logger
	logger   *slog.Logger
	reject   bool
}

// NewDeleteHandler builds the handler for DELETE /projects/{id}.
func NewDeleteHandler(sessions *session.Store, projects *repository.ProjectRepository, auditor *audit.Logger, logger *slog.Logger) *RemovalHandler {
	return &RemovalHandler{sessions: sessions, projects: projects, auditor: auditor, logger: logger}
}

// NewRejectHandler builds the handler for POST /projects/{id}/reject,
// which removes an unapproved project from the intake queue.
func NewRejectHandler(sessions *session.Store, projects *repository.ProjectRepository, auditor *audit.Logger, logger *slog.Logger) *RemovalHandler {
	return &RemovalHandler{sessions: sessions, projects: projects, auditor: auditor, logger: logger, reject: true}
}

func (h *RemovalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.Snapshot()
	if state.User == nil || state.User.Role != domain.RoleCTO {
		writeError(w, http.StatusForbidden, "removal is restricted to the cto")
		return
	}

	id := r.PathValue("id")
	project, ok := h.projects.ByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	if r.URL.Query().Get("cancel") == "true" {
		h.projects.CancelPending()
		writeJSON(w, http.StatusOK, map[string]any{"cancelled": true})
		return
	}

	if r.URL.Query().Get("confirm") != "true" {
		var err error
		if h.reject {
			err = h.projects.RequestReject(id)
		} else {
			err = h.projects.RequestDelete(id)
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"confirmRequired": true,
			"referenceId":     project.ReferenceID,
		})
		return
	}

	pendingID, pendingReject, pending := h.projects.PendingRemoval()
	if !pending || pendingID != id || pendingReject != h.reject {
		writeError(w, http.StatusConflict, "no matching removal awaiting confirmation")
		return
	}

	if err := h.projects.ConfirmRemoval(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}

	action := audit.ActionProjectDeleted
	if h.reject {
		action = audit.ActionProjectRejected
	}
	h.auditor.Record(action, state.User.Email, project.ReferenceID)
	w.WriteHeader(http.StatusNoContent)
}
