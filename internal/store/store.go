package store

import (
	"context"
	"errors"

	"github.com/bchakour/tb/internal/models"
)

// ErrNotFound is returned when a lookup matches no row. The API layer maps
// it to a 404.
var ErrNotFound = errors.New("not found")

// TaskListFilter specifies filters for listing tasks.
type TaskListFilter struct {
	ProjectID  string
	SprintID   string
	AssigneeID string
	Status     models.TaskStatus
}

// Store defines the persistence interface for the tb dev server.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *models.User, passwordHash string) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, string, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	// Projects
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)
	AddProjectMember(ctx context.Context, projectID, userID string) error
	ListProjectMembers(ctx context.Context, projectID string) ([]*models.User, error)

	// Sprints
	CreateSprint(ctx context.Context, sprint *models.Sprint) error
	GetSprint(ctx context.Context, id string) (*models.Sprint, error)
	ListProjectSprints(ctx context.Context, projectID string) ([]*models.Sprint, error)
	UpdateSprint(ctx context.Context, sprint *models.Sprint) error

	// Tasks
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, filter TaskListFilter) ([]*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error

	// Comments
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListTaskComments(ctx context.Context, taskID string) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	// Reports
	CreateReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	ListProjectReports(ctx context.Context, projectID string) ([]*models.Report, error)
	DeleteReport(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
