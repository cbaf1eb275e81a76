package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/projectflow/internal/repository"
	"github.com/yourorg/projectflow/internal/security/audit"
	"github.com/yourorg/projectflow/internal/session"
)

// DevelopersHandler backs the manage-developers view: listing, onboarding,
// password resets, and offboarding of developer accounts. The navigation
// guard restricts /manage-developers and everything under it to the CTO,
// so no per-method role check is repeated here.
type DevelopersHandler struct {
	sessions *session.Store
	users    *repository.UserDirectory
	auditor  *audit.Logger
	logger   *slog.Logger
}

func NewDevelopersHandler(sessions *session.Store, users *repository.UserDirectory, auditor *audit.Logger, logger *slog.Logger) *DevelopersHandler {
	return &DevelopersHandler{sessions: sessions, users: users, auditor: auditor, logger: logger}
}

// List handles GET /manage-developers requests.
func (h *DevelopersHandler) List(w http.ResponseWriter, r *http.Request) {
	developers, err := h.users.Developers(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"developers": developers})
}

// Create handles POST /manage-developers requests.
func (h *DevelopersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.users.CreateDeveloper(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.auditor.Record(audit.ActionDeveloperCreated, h.actor(), user.ID,
		slog.String("email", user.Email))
	writeJSON(w, http.StatusCreated, user)
}

// ResetPassword handles PUT /manage-developers/{id}/password requests.
func (h *DevelopersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password required")
		return
	}

	if err := h.users.ChangePassword(r.Context(), id, req.Password); err != nil {
		writeDomainError(w, err)
		return
	}

	h.logger.Info("developer password reset", slog.String("user_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /manage-developers/{id} requests.
func (h *DevelopersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.users.DeleteDeveloper(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	h.auditor.Record(audit.ActionDeveloperDeleted, h.actor(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *DevelopersHandler) actor() string {
	state := h.sessions.Snapshot()
	if state.User == nil {
		return ""
	}
	return state.User.Email
}
