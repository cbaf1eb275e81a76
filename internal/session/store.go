// Package session owns the authenticated identity and token. It is the only
// component that reads or writes session state; the API client consumes it
// through the TokenSource interface, so login state never leaks into a
// process-wide default.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/projectflow/internal/api"
	"github.com/yourorg/projectflow/internal/domain"
)

// AuthState is an immutable snapshot of the session. Authenticated is true
// iff both a non-empty token and a valid user are present.
type AuthState struct {
	User          *domain.User
	Token         string
	Authenticated bool
	Loading       bool
}

// Authenticator performs the credential exchange. *api.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
}

// persistedSession is the wire shape written to the persistence backend.
type persistedSession struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Store holds the current session.
type Store struct {
	mu      sync.RWMutex
	state   AuthState
	persist Persistence
	logger  *slog.Logger
	now     func() time.Time
}

// NewStore creates a session store. The session starts in the loading state
// until Restore has run.
func NewStore(persist Persistence, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		state:   AuthState{Loading: true},
		persist: persist,
		logger:  logger,
		now:     time.Now,
	}
}

// Snapshot returns a copy of the current state. The contained User pointer
// must be treated as read-only.
func (s *Store) Snapshot() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// Restore loads a previously persisted session. It fails closed: any
// missing, malformed, or type-invalid data clears both token and user, and
// the store always leaves the loading state, success or not. The returned
// error reports corruption for logging; the store itself is already in a
// safe logged-out state when it is non-nil.
func (s *Store) Restore(ctx context.Context) error {
	defer s.setLoading(false)

	data, err := s.persist.Load(ctx)
	if err != nil {
		s.clear(ctx)
		return fmt.Errorf("%w: %v", domain.ErrSessionCorrupt, err)
	}
	if len(data) == 0 {
		s.clear(ctx)
		return nil
	}

	var ps persistedSession
	if err := json.Unmarshal(data, &ps); err != nil {
		s.logger.Warn("persisted session is malformed, clearing", slog.String("error", err.Error()))
		s.clear(ctx)
		return fmt.Errorf("%w: %v", domain.ErrSessionCorrupt, err)
	}

	if err := validateSession(&ps, s.now()); err != nil {
		s.logger.Warn("persisted session is invalid, clearing", slog.String("error", err.Error()))
		s.clear(ctx)
		return fmt.Errorf("%w: %v", domain.ErrSessionCorrupt, err)
	}

	user := ps.User
	s.mu.Lock()
	s.state = AuthState{User: &user, Token: ps.Token, Authenticated: true, Loading: s.state.Loading}
	s.mu.Unlock()

	s.logger.Info("session restored",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return nil
}

// validateSession checks the structural invariants of a persisted session.
// Tokens are opaque strings in general, but the backend issues JWTs, so when
// the token parses as one its expiry claim is honored. The client holds no
// signing key; claims are read unverified and the backend remains the
// authority on token validity.
func validateSession(ps *persistedSession, now time.Time) error {
	if ps.Token == "" {
		return errors.New("empty token")
	}
	if ps.User.ID == "" || ps.User.Email == "" {
		return errors.New("incomplete user record")
	}
	if !ps.User.Role.Valid() {
		return fmt.Errorf("unknown role %q", ps.User.Role)
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(ps.Token, &claims); err != nil {
		return fmt.Errorf("token is not a parseable JWT: %w", err)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(now) {
		return errors.New("token expired")
	}
	return nil
}

// Login exchanges credentials with the backend. On success the session is
// persisted and the store's token feeds every subsequent authenticated
// request. On failure the prior session, if any, is left untouched.
func (s *Store) Login(ctx context.Context, auth Authenticator, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	s.setLoading(true)
	defer s.setLoading(false)

	result, err := auth.Login(ctx, email, password)
	if err != nil {
		s.logger.Info("login failed", slog.String("email", email))
		return nil, fmt.Errorf("%w", domain.ErrInvalidCredentials)
	}
	if result.Token == "" || result.User.ID == "" {
		return nil, fmt.Errorf("%w: backend returned incomplete session", domain.ErrRemoteCall)
	}

	data, err := json.Marshal(persistedSession{Token: result.Token, User: result.User})
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.persist.Save(ctx, data); err != nil {
		// The in-memory session still works for this process; persistence
		// failure only costs the next restore.
		s.logger.Warn("failed to persist session", slog.String("error", err.Error()))
	}

	user := result.User
	s.mu.Lock()
	s.state = AuthState{User: &user, Token: result.Token, Authenticated: true, Loading: s.state.Loading}
	s.mu.Unlock()

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return &user, nil
}

// Logout clears in-memory and persisted session state.
func (s *Store) Logout(ctx context.Context) {
	s.clear(ctx)
	s.logger.Info("user logged out")
}

func (s *Store) clear(ctx context.Context) {
	if err := s.persist.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear persisted session", slog.String("error", err.Error()))
	}
	s.mu.Lock()
	s.state = AuthState{Loading: s.state.Loading}
	s.mu.Unlock()
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.state.Loading = loading
	s.mu.Unlock()
}
