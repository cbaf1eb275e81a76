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

// NoteHandler appends a progress note to a project. The author is always
// the signed-in user; notes flagged public show up on the tracker.
type NoteHandler struct {
	sessions *session.Store
	projects *repository.ProjectRepository
	auditor  *audit.Logger
	logger   *slog.Logger
}

func NewNoteHandler(sessions *session.Store, projects *repository.ProjectRepository, auditor *audit.Logger, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{sessions: sessions, projects: projects, auditor: auditor, logger: logger}
}

// ServeHTTP handles POST /projects/{id}/notes requests.
func (h *NoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.Snapshot()
	if state.User == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id := r.PathValue("id")
	var req struct {
		Content  string `json:"content"`
		IsPublic bool   `json:"isPublic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "note content required")
		return
	}

	note, err := h.projects.AddNote(r.Context(), id, domain.ProjectNote{
		Content:  req.Content,
		Author:   state.User.Name,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.auditor.Record(audit.ActionNoteAdded, state.User.Email, id,
		slog.Bool("public", req.IsPublic))

	writeJSON(w, http.StatusCreated, note)
}

// CredentialHandler attaches an access credential to a project. Only the
// CTO and the assigned developer handle client credentials.
type CredentialHandler struct {
	sessions *session.Store
	projects *repository.ProjectRepository
	auditor  *audit.Logger
	logger   *slog.Logger
}

func NewCredentialHandler(sessions *session.Store, projects *repository.ProjectRepository, auditor *audit.Logger, logger *slog.Logger) *CredentialHandler {
	return &CredentialHandler{sessions: sessions, projects: projects, auditor: auditor, logger: logger}
}

// ServeHTTP handles POST /projects/{id}/credentials requests.
func (h *CredentialHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
		h.auditor.Denied(state.User.Email, r.URL.Path, "credential access not permitted")
		writeError(w, http.StatusForbidden, "not permitted to add credentials")
		return
	}

	var req struct {
		Type  string `json:"type"`
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Name == "" || req.Value == "" {
		writeError(w, http.StatusBadRequest, "credential name and value required")
		return
	}

	updated, err := h.projects.AddCredential(r.Context(), id, domain.Credential{
		Type:  req.Type,
		Name:  req.Name,
		Value: req.Value,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.auditor.Record(audit.ActionCredentialAdded, state.User.Email, updated.ReferenceID,
		slog.String("credential_name", req.Name))

	writeJSON(w, http.StatusCreated, updated)
}
