package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bchakour/tb/internal/models"
)

// ListTaskComments returns all comments on a task, oldest first.
func (c *Client) ListTaskComments(ctx context.Context, taskID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := c.do(ctx, http.MethodGet, "/comments/task/"+taskID, nil, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment adds a comment to a task, authored by the session user.
func (c *Client) CreateComment(ctx context.Context, taskID, text string) (*models.Comment, error) {
	query := url.Values{"taskId": {taskID}}
	body := map[string]string{"text": text, "taskId": taskID}
	var created models.Comment
	if err := c.do(ctx, http.MethodPost, "/comments", query, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteComment removes a comment. The server enforces author-only deletion.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+id, nil, nil, nil)
}
