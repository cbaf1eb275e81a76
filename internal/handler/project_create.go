package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/repository"
	"github.com/yourorg/projectflow/internal/security/audit"
	"github.com/yourorg/projectflow/internal/session"
)

// CreateProjectRequest is the sales intake form.
type CreateProjectRequest struct {
	ClientName   string `json:"clientName"`
	ClientEmail  string `json:"clientEmail"`
	ClientPhone  string `json:"clientPhone"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
}

// CreateProjectHandler lets a sales user register a new client project.
type CreateProjectHandler struct {
	sessions *session.Store
	projects *repository.ProjectRepository
	auditor  *audit.Logger
	logger   *slog.Logger
}

func NewCreateProjectHandler(sessions *session.Store, projects *repository.ProjectRepository, auditor *audit.Logger, logger *slog.Logger) *CreateProjectHandler {
	return &CreateProjectHandler{
		sessions: sessions,
		projects: projects,
		auditor:  auditor,
		logger:   logger,
	}
}

// ServeHTTP handles POST /projects/new requests.
func (h *CreateProjectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.Snapshot()
	if state.User == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode create request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	project, err := h.projects.Create(r.Context(), domain.ProjectDraft{
		ClientName:   req.ClientName,
		ClientEmail:  req.ClientEmail,
		ClientPhone:  req.ClientPhone,
		Description:  req.Description,
		Requirements: req.Requirements,
		CreatedBy:    state.User.ID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.auditor.Record(audit.ActionProjectCreated, state.User.Email, project.ReferenceID,
		slog.String("client", project.ClientName))

	writeJSON(w, http.StatusCreated, project)
}
