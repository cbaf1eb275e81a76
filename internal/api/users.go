package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yourorg/projectflow/internal/domain"
)

// CreateUser creates a user account. The backend historically accepted this
// without an Authorization header; the client sends one anyway so the
// requirement is consistent across every mutation.
func (c *Client) CreateUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	body := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     string(role),
	}
	var out domain.User
	if err := c.call(ctx, "createUser", http.MethodPost, "/users/newUser", body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users lists all users. Role filtering happens client-side.
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	if err := c.call(ctx, "listUsers", http.MethodGet, "/users", nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// UserByID fetches a single user.
func (c *Client) UserByID(ctx context.Context, id string) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, "getUser", http.MethodGet, "/users/"+id, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUserPassword updates a user's password.
func (c *Client) UpdateUserPassword(ctx context.Context, id, password string) (*domain.User, error) {
	body := map[string]string{"password": password}
	var out domain.User
	if err := c.call(ctx, "updateUser", http.MethodPut, "/users/"+id, body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes a user account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	path := fmt.Sprintf("/users/deleteUser/%s", id)
	return c.call(ctx, "deleteUser", http.MethodDelete, path, nil, nil, true)
}
