package client

import (
	"context"
	"net/http"

	"github.com/bchakour/tb/internal/models"
)

// LoginResult is the response to a successful login.
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login exchanges credentials for a bearer token and stores it on the
// session, so subsequent calls are authenticated.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &result); err != nil {
		return nil, err
	}
	if err := c.session.SetToken(result.Token); err != nil {
		return nil, err
	}
	return &result, nil
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role,omitempty"`
}

// Register creates a new account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout clears the stored session token. Purely local; the API has no
// logout endpoint.
func (c *Client) Logout() {
	c.session.Clear()
}
