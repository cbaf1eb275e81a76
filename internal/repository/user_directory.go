package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/pkg/cache"
)

// UserBackend is the slice of the API client the user directory uses.
type UserBackend interface {
	CreateUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error)
	Users(ctx context.Context) ([]domain.User, error)
	UserByID(ctx context.Context, id string) (*domain.User, error)
	UpdateUserPassword(ctx context.Context, id, password string) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// rosterTTL bounds how stale the cached developer roster can get. Any
// mutation through the directory invalidates it immediately.
const rosterTTL = time.Minute

const rosterKey = "developers"

// UserDirectory handles the developer-management operations. The roster
// is cached briefly so the dashboard and approval views don't re-fetch it
// on every request.
type UserDirectory struct {
	backend UserBackend
	roster  *cache.Cache[[]domain.User]
	logger  *slog.Logger
}

// NewUserDirectory creates the directory.
func NewUserDirectory(backend UserBackend, logger *slog.Logger) *UserDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserDirectory{
		backend: backend,
		roster:  cache.New[[]domain.User](),
		logger:  logger,
	}
}

// CreateDeveloper creates a developer account.
func (d *UserDirectory) CreateDeveloper(ctx context.Context, name, email, password string) (*domain.User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password", domain.ErrEmptyField)
	}

	user, err := d.backend.CreateUser(ctx, name, email, password, domain.RoleDeveloper)
	if err != nil {
		return nil, err
	}

	d.roster.Delete(rosterKey)
	d.logger.Info("developer created",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// Developers lists all developer accounts. The backend returns every user;
// role filtering happens here.
func (d *UserDirectory) Developers(ctx context.Context) ([]domain.User, error) {
	if cached, ok := d.roster.Get(rosterKey); ok {
		return cached, nil
	}

	users, err := d.backend.Users(ctx)
	if err != nil {
		return nil, err
	}

	developers := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.Role == domain.RoleDeveloper {
			developers = append(developers, u)
		}
	}
	d.roster.Set(rosterKey, developers, rosterTTL)
	return developers, nil
}

// DeveloperByID fetches one developer. A user that exists but is not a
// developer is reported as not found, same as a missing id.
func (d *UserDirectory) DeveloperByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := d.backend.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleDeveloper {
		return nil, fmt.Errorf("developer %s: %w", id, domain.ErrNotFound)
	}
	return user, nil
}

// ChangePassword updates a user's password.
func (d *UserDirectory) ChangePassword(ctx context.Context, id, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password", domain.ErrEmptyField)
	}
	_, err := d.backend.UpdateUserPassword(ctx, id, password)
	return err
}

// DeleteDeveloper removes a developer account.
func (d *UserDirectory) DeleteDeveloper(ctx context.Context, id string) error {
	if err := d.backend.DeleteUser(ctx, id); err != nil {
		return err
	}
	d.roster.Delete(rosterKey)
	d.logger.Info("developer deleted", slog.String("user_id", id))
	return nil
}
