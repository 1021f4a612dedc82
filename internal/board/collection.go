// Package board holds the in-memory task collection for a board view and the
// drag-and-drop transition controller that mutates it optimistically.
package board

import (
	"errors"
	"sync"

	"github.com/bchakour/tb/internal/models"
)

// Collection errors.
var (
	ErrTaskNotFound    = errors.New("task not found in collection")
	ErrIdentityChanged = errors.New("optimistic mutation must not change task id or project")
)

// Collection is the sole in-memory owner of the tasks visible on the current
// board view. Tasks are held in fetch order; status buckets preserve that
// order, which is what gives drag-and-drop its stable index semantics.
type Collection struct {
	mu    sync.Mutex
	tasks []*models.Task
	subs  []func()
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Subscribe registers a callback fired after every state change. This is the
// re-render hook; it carries no payload, observers re-read the collection.
func (c *Collection) Subscribe(fn func()) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

func (c *Collection) notify() {
	c.mu.Lock()
	subs := make([]func(), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Load replaces the collection wholesale. Used after every fetch. The input
// is cloned so the collection never aliases caller-owned tasks.
func (c *Collection) Load(tasks []*models.Task) {
	cloned := cloneTasks(tasks)
	c.mu.Lock()
	c.tasks = cloned
	c.mu.Unlock()
	c.notify()
}

// Len returns the number of tasks held.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

// Tasks returns a deep copy of the collection in fetch order.
func (c *Collection) Tasks() []*models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneTasks(c.tasks)
}

// Get returns a copy of the task with the given id.
func (c *Collection) Get(id string) (*models.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return nil, false
}

// ByStatus returns the tasks whose status equals the given value, preserving
// fetch order. No re-sorting: a task moved into a bucket keeps the position
// it held in the underlying fetch-order sequence.
func (c *Collection) ByStatus(status models.TaskStatus) []*models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*models.Task
	for _, t := range c.tasks {
		if t.Status == status {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Snapshot captures the full collection state for a later Rollback.
type Snapshot struct {
	tasks []*models.Task
}

// Snapshot returns a deep copy of the current state.
func (c *Collection) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{tasks: cloneTasks(c.tasks)}
}

// Rollback restores a prior snapshot exactly. No merging: the collection
// becomes the snapshot, byte for byte.
func (c *Collection) Rollback(snap Snapshot) {
	c.mu.Lock()
	c.tasks = cloneTasks(snap.tasks)
	c.mu.Unlock()
	c.notify()
}

// ApplyOptimistic transforms one task in place without waiting for server
// confirmation. The mutation receives a copy and returns the new value; it
// must not change the task's identity or project affiliation.
func (c *Collection) ApplyOptimistic(id string, mutate func(models.Task) models.Task) error {
	c.mu.Lock()
	idx := -1
	for i, t := range c.tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		c.mu.Unlock()
		return ErrTaskNotFound
	}

	current := c.tasks[idx]
	mutated := mutate(*current.Clone())
	if mutated.ID != current.ID || mutated.ProjectID != current.ProjectID {
		c.mu.Unlock()
		return ErrIdentityChanged
	}
	c.tasks[idx] = &mutated
	c.mu.Unlock()
	c.notify()
	return nil
}

// Replace swaps in a server-confirmed task, keeping its fetch-order position.
func (c *Collection) Replace(task *models.Task) bool {
	c.mu.Lock()
	for i, t := range c.tasks {
		if t.ID == task.ID {
			c.tasks[i] = task.Clone()
			c.mu.Unlock()
			c.notify()
			return true
		}
	}
	c.mu.Unlock()
	return false
}

// Remove drops a task from the collection, e.g. after a confirmed delete.
func (c *Collection) Remove(id string) bool {
	c.mu.Lock()
	for i, t := range c.tasks {
		if t.ID == id {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			c.mu.Unlock()
			c.notify()
			return true
		}
	}
	c.mu.Unlock()
	return false
}

func cloneTasks(tasks []*models.Task) []*models.Task {
	out := make([]*models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
