package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bchakour/tb/internal/models"
)

// ListProjectTasks returns all tasks on a project's board.
func (c *Client) ListProjectTasks(ctx context.Context, projectID string) ([]*models.Task, error) {
	var tasks []*models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/project/"+projectID, nil, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListSprintTasks returns all tasks attached to a sprint.
func (c *Client) ListSprintTasks(ctx context.Context, sprintID string) ([]*models.Task, error) {
	var tasks []*models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/sprint/"+sprintID, nil, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListAssignedTasks returns the tasks assigned to the current session user.
func (c *Client) ListAssignedTasks(ctx context.Context) ([]*models.Task, error) {
	var tasks []*models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/assigned", nil, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask fetches a single task with its embedded assignee, reporter, and sprint.
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+id, nil, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask creates a task on a project board. The server forces status to
// TODO and leaves the sprint unset.
func (c *Client) CreateTask(ctx context.Context, projectID string, task *models.Task) (*models.Task, error) {
	query := url.Values{"projectId": {projectID}}
	var created models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", query, task, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTask replaces a task wholesale (full-object PUT).
func (c *Client) UpdateTask(ctx context.Context, id string, task *models.Task) (*models.Task, error) {
	var updated models.Task
	if err := c.do(ctx, http.MethodPut, "/tasks/"+id, nil, task, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTask permanently removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, nil, nil)
}

// UpdateTaskStatus changes only a task's status.
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	body := map[string]models.TaskStatus{"status": status}
	var updated models.Task
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+id+"/status", nil, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateTaskPriority changes only a task's priority.
func (c *Client) UpdateTaskPriority(ctx context.Context, id string, priority models.TaskPriority) (*models.Task, error) {
	body := map[string]models.TaskPriority{"priority": priority}
	var updated models.Task
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+id+"/priority", nil, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
