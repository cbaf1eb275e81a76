package api

import (
	"context"
	"net/http"

	"github.com/yourorg/projectflow/internal/domain"
)

// LoginResult is the payload of a successful credential exchange.
type LoginResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login exchanges credentials for a token and user record. The call itself
// is unauthenticated; a failure never disturbs an existing session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResult
	if err := c.call(ctx, "login", http.MethodPost, "/auth/login", body, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}
