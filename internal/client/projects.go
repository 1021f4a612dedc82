package client

import (
	"context"
	"net/http"

	"github.com/bchakour/tb/internal/models"
)

// ListProjects returns all projects visible to the current user.
func (c *Client) ListProjects(ctx context.Context) ([]*models.Project, error) {
	var projects []*models.Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject fetches a single project by id.
func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+id, nil, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a project. The project must pass Validate first.
func (c *Client) CreateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	var created models.Project
	if err := c.do(ctx, http.MethodPost, "/projects", nil, project, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListProjectMembers returns the members of a project.
func (c *Client) ListProjectMembers(ctx context.Context, projectID string) ([]*models.User, error) {
	var members []*models.User
	if err := c.do(ctx, http.MethodGet, "/projects/"+projectID+"/members", nil, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}
