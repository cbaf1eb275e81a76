package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/security/audit"
	"github.com/yourorg/projectflow/internal/session"
)

// LoginRequest carries the operator's credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse reports the signed-in user and where to go next. The
// "from" query parameter set by a guard redirect wins over the role's
// default landing page.
type LoginResponse struct {
	User     *domain.User `json:"user"`
	Redirect string       `json:"redirect"`
}

// LoginHandler signs the gateway's operator session in against the
// remote API.
type LoginHandler struct {
	sessions *session.Store
	auth     session.Authenticator
	auditor  *audit.Logger
	logger   *slog.Logger
	landing  func(domain.Role) string
}

func NewLoginHandler(sessions *session.Store, auth session.Authenticator, auditor *audit.Logger, logger *slog.Logger, landing func(domain.Role) string) *LoginHandler {
	return &LoginHandler{
		sessions: sessions,
		auth:     auth,
		auditor:  auditor,
		logger:   logger,
		landing:  landing,
	}
}

// ServeHTTP handles POST /login requests.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode login request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.sessions.Login(r.Context(), h.auth, req.Email, req.Password)
	if err != nil {
		h.auditor.Record(audit.ActionLoginFailed, req.Email, "")
		if errors.Is(err, domain.ErrInvalidCredentials) {
			// Generic message to prevent account enumeration.
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeDomainError(w, err)
		return
	}

	h.auditor.Record(audit.ActionLogin, user.Email, user.ID)

	redirect := r.URL.Query().Get("from")
	if redirect == "" {
		redirect = h.landing(user.Role)
	}

	writeJSON(w, http.StatusOK, LoginResponse{User: user, Redirect: redirect})
}

// LogoutHandler drops the operator session.
type LogoutHandler struct {
	sessions *session.Store
	auditor  *audit.Logger
}

func NewLogoutHandler(sessions *session.Store, auditor *audit.Logger) *LogoutHandler {
	return &LogoutHandler{sessions: sessions, auditor: auditor}
}

// ServeHTTP handles POST /logout requests. Only the signed-in operator may
// end the session; anonymous callers get a 401.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.Snapshot()
	if !state.Authenticated || state.User == nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	actor := state.User.Email
	h.sessions.Logout(r.Context())
	h.auditor.Record(audit.ActionLogout, actor, "")
	w.WriteHeader(http.StatusNoContent)
}
