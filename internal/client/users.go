package client

import (
	"context"
	"net/http"

	"github.com/bchakour/tb/internal/models"
)

// ListUsers returns every user known to the service.
func (c *Client) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches a single user by id. The full object is needed when
// embedding an assignee into a task update.
func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/users/"+id, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser returns the user owning the session token.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
