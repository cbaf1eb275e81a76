package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/repository"
	"github.com/yourorg/projectflow/internal/security/audit"
	"github.com/yourorg/projectflow/internal/session"
)

// ApproveHandler approves a pending project: the CTO picks a developer
// and a deadline, and all three changes land together or not at all.
type ApproveHandler struct {
	sessions *session.Store
	projects *repository.ProjectRepository
	auditor  *audit.Logger
	logger   *slog.Logger
}

func NewApproveHandler(sessions *session.Store, projects *repository.ProjectRepository, auditor *audit.Logger, logger *slog.Logger) *ApproveHandler {
	return &ApproveHandler{sessions: sessions, projects: projects, auditor: auditor, logger: logger}
}

// ServeHTTP handles PUT /projects/{id}/approve requests.
func (h *ApproveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.Snapshot()
	if state.User == nil || state.User.Role != domain.RoleCTO {
		writeError(w, http.StatusForbidden, "approval is restricted to the cto")
		return
	}

	id := r.PathValue("id")
	var req struct {
		DeveloperID string `json:"developerId"`
		Deadline    string `json:"deadline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.DeveloperID == "" {
		writeError(w, http.StatusBadRequest, "developer id required")
		return
	}
	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		deadline, err = time.Parse("2006-01-02", req.Deadline)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "deadline must be RFC 3339 or YYYY-MM-DD")
		return
	}

	project, err := h.projects.Approve(r.Context(), id, req.DeveloperID, deadline)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.auditor.Record(audit.ActionProjectApproved, state.User.Email, project.ReferenceID,
		slog.String("developer_id", req.DeveloperID),
		slog.Time("deadline", deadline),
	)
	writeJSON(w, http.StatusOK, project)
}

// ReassignHandler moves an approved project to a different developer,
// keeping the existing deadline.
type ReassignHandler struct {
	sessions *session.Store
	projects *repository.ProjectRepository
	logger   *slog.Logger
}

func NewReassignHandler(sessions *session.Store, projects *repository.ProjectRepository, logger *slog.Logger) *ReassignHandler {
	return &ReassignHandler{sessions: sessions, projects: projects, logger: logger}
}

// ServeHTTP handles PUT /projects/{id}/reassign requests.
func (h *ReassignHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.Snapshot()
	if state.User == nil || state.User.Role != domain.RoleCTO {
		writeError(w, http.StatusForbidden, "reassignment is restricted to the cto")
		return
	}

	id := r.PathValue("id")
	var req struct {
		DeveloperID string `json:"developerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.DeveloperID == "" {
		writeError(w, http.StatusBadRequest, "developer id required")
		return
	}

	project, err := h.projects.Reassign(r.Context(), id, req.DeveloperID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.logger.Info("project reassigned",
		slog.String("project_id", id),
		slog.String("developer_id", req.DeveloperID),
	)
	writeJSON(w, http.StatusOK, project)
}
