package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bchakour/tb/internal/models"
)

// ListProjectSprints returns all sprints of a project.
func (c *Client) ListProjectSprints(ctx context.Context, projectID string) ([]*models.Sprint, error) {
	var sprints []*models.Sprint
	if err := c.do(ctx, http.MethodGet, "/sprints/project/"+projectID, nil, nil, &sprints); err != nil {
		return nil, err
	}
	return sprints, nil
}

// GetSprint fetches a single sprint by id.
func (c *Client) GetSprint(ctx context.Context, id string) (*models.Sprint, error) {
	var sprint models.Sprint
	if err := c.do(ctx, http.MethodGet, "/sprints/"+id, nil, nil, &sprint); err != nil {
		return nil, err
	}
	return &sprint, nil
}

// CreateSprint creates a sprint in PLANNING state. The sprint must pass
// Validate before calling; the client does not re-check.
func (c *Client) CreateSprint(ctx context.Context, projectID string, sprint *models.Sprint) (*models.Sprint, error) {
	query := url.Values{"projectId": {projectID}}
	var created models.Sprint
	if err := c.do(ctx, http.MethodPost, "/sprints", query, sprint, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// StartSprint transitions a sprint from PLANNING to ACTIVE.
func (c *Client) StartSprint(ctx context.Context, id string) (*models.Sprint, error) {
	var sprint models.Sprint
	if err := c.do(ctx, http.MethodPost, "/sprints/"+id+"/start", nil, nil, &sprint); err != nil {
		return nil, err
	}
	return &sprint, nil
}

// CompleteSprint transitions a sprint from ACTIVE to COMPLETED.
func (c *Client) CompleteSprint(ctx context.Context, id string) (*models.Sprint, error) {
	var sprint models.Sprint
	if err := c.do(ctx, http.MethodPost, "/sprints/"+id+"/complete", nil, nil, &sprint); err != nil {
		return nil, err
	}
	return &sprint, nil
}
