// Package hydrate assembles the full view model for an opened task: the task
// itself plus its comments, the viewing user, and the candidate-assignee
// list. The three sidecar fetches are independent and the view renders
// partial data as each one lands.
package hydrate

import (
	"context"
	"errors"
	"sync"

	"github.com/bchakour/tb/internal/models"
)

// API is the slice of the remote client the hydrator needs.
type API interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, task *models.Task) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ListTaskComments(ctx context.Context, taskID string) ([]*models.Comment, error)
	CreateComment(ctx context.Context, taskID, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	CurrentUser(ctx context.Context) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// ErrDetailClosed is returned by mutations on a detail view that has been
// closed or whose task was deleted.
var ErrDetailClosed = errors.New("task detail is closed")

// Loading reports which of the detail fetches are still in flight. Each
// fetch carries its own flag; there is no global spinner.
type Loading struct {
	Task      bool
	Comments  bool
	Viewer    bool
	Assignees bool
}

// Detail is the view model for one opened task. All reads return copies;
// mutations go through the API and reconcile the local state on the reply.
type Detail struct {
	mu        sync.Mutex
	api       API
	taskID    string
	task      *models.Task
	comments  []*models.Comment
	viewer    *models.User
	assignees []*models.User
	loading   Loading
	closed    bool
	subs      []func()

	onTaskDeleted func(id string)
}

// Option configures a Detail.
type Option func(*Detail)

// WithOnTaskDeleted registers a callback fired after the task is deleted
// through this view, so the owning board can drop it from its collection.
func WithOnTaskDeleted(fn func(id string)) Option {
	return func(d *Detail) {
		d.onTaskDeleted = fn
	}
}

// Open creates a detail view model for the given task. Nothing is fetched
// until Load is called.
func Open(api API, taskID string, opts ...Option) *Detail {
	d := &Detail{api: api, taskID: taskID}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe registers a callback fired after every state change.
func (d *Detail) Subscribe(fn func()) {
	d.mu.Lock()
	d.subs = append(d.subs, fn)
	d.mu.Unlock()
}

func (d *Detail) notify() {
	d.mu.Lock()
	subs := make([]func(), len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Load runs the four detail fetches concurrently: the task, its comments,
// the current-session user, and the candidate-assignee list. Each fetch
// flips its own loading flag and publishes as soon as it lands, so partial
// data renders without waiting for the rest. A fetch that resolves after
// ctx is cancelled is discarded, never applied. Load returns the task
// fetch's error; sidecar failures leave their section empty.
func (d *Detail) Load(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDetailClosed
	}
	d.loading = Loading{Task: true, Comments: true, Viewer: true, Assignees: true}
	d.mu.Unlock()
	d.notify()

	var wg sync.WaitGroup
	var taskErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		task, err := d.api.GetTask(ctx, d.taskID)
		d.apply(ctx, func() {
			d.loading.Task = false
			if err != nil {
				taskErr = err
				return
			}
			d.task = task
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		comments, err := d.api.ListTaskComments(ctx, d.taskID)
		d.apply(ctx, func() {
			d.loading.Comments = false
			if err == nil {
				d.comments = comments
			}
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		viewer, err := d.api.CurrentUser(ctx)
		d.apply(ctx, func() {
			d.loading.Viewer = false
			if err == nil {
				d.viewer = viewer
			}
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		users, err := d.api.ListUsers(ctx)
		d.apply(ctx, func() {
			d.loading.Assignees = false
			if err != nil {
				return
			}
			var candidates []*models.User
			for _, u := range users {
				// Product owners never appear in the assignee picker.
				if u.Role == models.UserRoleProductOwner {
					continue
				}
				candidates = append(candidates, u)
			}
			d.assignees = candidates
		})
	}()

	wg.Wait()
	return taskErr
}

// apply runs fn under the lock unless the result arrived too late: a closed
// view or a cancelled context discards it.
func (d *Detail) apply(ctx context.Context, fn func()) {
	d.mu.Lock()
	if d.closed || ctx.Err() != nil {
		d.mu.Unlock()
		return
	}
	fn()
	d.mu.Unlock()
	d.notify()
}

// Close marks the view unmounted. Late fetch results and further mutations
// are rejected.
func (d *Detail) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

// Task returns a copy of the hydrated task, or nil before the fetch lands.
func (d *Detail) Task() *models.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.task == nil {
		return nil
	}
	return d.task.Clone()
}

// Comments returns the comment list, oldest first.
func (d *Detail) Comments() []*models.Comment {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*models.Comment, len(d.comments))
	copy(out, d.comments)
	return out
}

// Viewer returns the current-session user, or nil before the fetch lands.
func (d *Detail) Viewer() *models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewer
}

// Assignees returns the candidate-assignee list.
func (d *Detail) Assignees() []*models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*models.User, len(d.assignees))
	copy(out, d.assignees)
	return out
}

// Loading returns a snapshot of the per-fetch loading flags.
func (d *Detail) Loading() Loading {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// CanDeleteComment reports whether the viewer authored the comment. The
// server enforces this too; the flag only drives what the view offers.
func (d *Detail) CanDeleteComment(c *models.Comment) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewer != nil && c != nil && d.viewer.ID == c.AuthorID
}

// SetStatus changes the task's status through a read-modify-write cycle.
func (d *Detail) SetStatus(ctx context.Context, status models.TaskStatus) error {
	return d.mutateTask(ctx, func(t *models.Task) {
		t.Status = status
	})
}

// SetPriority changes the task's priority through a read-modify-write cycle.
func (d *Detail) SetPriority(ctx context.Context, priority models.TaskPriority) error {
	return d.mutateTask(ctx, func(t *models.Task) {
		t.Priority = priority
	})
}

// SetAssignee assigns the task to the given user, or unassigns it when
// userID is empty. The update embeds the full user object, so a secondary
// fetch resolves the id first.
func (d *Detail) SetAssignee(ctx context.Context, userID string) error {
	var assignee *models.User
	if userID != "" {
		user, err := d.api.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		assignee = user
	}
	return d.mutateTask(ctx, func(t *models.Task) {
		t.Assignee = assignee
	})
}

// mutateTask applies one field change with the detail view's write
// discipline: show the change immediately, then re-fetch the authoritative
// task, apply the same change to that fresh copy, and persist it wholesale.
// Any failure puts the view model back to its pre-mutation value; the
// optimistic value is never kept without server confirmation.
func (d *Detail) mutateTask(ctx context.Context, change func(*models.Task)) error {
	d.mu.Lock()
	if d.closed || d.task == nil {
		d.mu.Unlock()
		return ErrDetailClosed
	}
	prev := d.task.Clone()
	optimistic := d.task.Clone()
	change(optimistic)
	d.task = optimistic
	d.mu.Unlock()
	d.notify()

	revert := func() {
		d.mu.Lock()
		d.task = prev
		d.mu.Unlock()
		d.notify()
	}

	current, err := d.api.GetTask(ctx, d.taskID)
	if err != nil {
		revert()
		return err
	}
	merged := current.Clone()
	change(merged)

	persisted, err := d.api.UpdateTask(ctx, d.taskID, merged)
	if err != nil {
		revert()
		return err
	}

	d.mu.Lock()
	if !d.closed {
		d.task = persisted
	}
	d.mu.Unlock()
	d.notify()
	return nil
}

// AddComment posts a comment and appends the server's copy to the list.
func (d *Detail) AddComment(ctx context.Context, text string) (*models.Comment, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrDetailClosed
	}
	d.mu.Unlock()

	created, err := d.api.CreateComment(ctx, d.taskID, text)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	if !d.closed {
		d.comments = append(d.comments, created)
	}
	d.mu.Unlock()
	d.notify()
	return created, nil
}

// DeleteComment issues one delete call and removes the comment from the
// list once the server confirms.
func (d *Detail) DeleteComment(ctx context.Context, commentID string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDetailClosed
	}
	d.mu.Unlock()

	if err := d.api.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	d.mu.Lock()
	for i, c := range d.comments {
		if c.ID == commentID {
			d.comments = append(d.comments[:i], d.comments[i+1:]...)
			break
		}
	}
	d.mu.Unlock()
	d.notify()
	return nil
}

// DeleteTask deletes the task and closes the view. The deletion callback
// fires so the owning board can drop the task from its collection.
func (d *Detail) DeleteTask(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDetailClosed
	}
	d.mu.Unlock()

	if err := d.api.DeleteTask(ctx, d.taskID); err != nil {
		return err
	}
	d.mu.Lock()
	d.closed = true
	onDeleted := d.onTaskDeleted
	d.mu.Unlock()
	if onDeleted != nil {
		onDeleted(d.taskID)
	}
	d.notify()
	return nil
}
