// Package reconcile moves batches of tasks into a sprint. Each task is
// re-fetched alongside the sprint before the merged object is written back,
// so a stale board view never clobbers edits made by other sessions in the
// fields it does not touch.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bchakour/tb/internal/models"
)

// API is the slice of the remote client the engine needs.
type API interface {
	GetSprint(ctx context.Context, id string) (*models.Sprint, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, task *models.Task) (*models.Task, error)
}

// ItemError records one task whose attach sequence failed.
type ItemError struct {
	TaskID string
	Err    error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("task %s: %v", e.TaskID, e.Err)
}

// Result reports a batch attach. Updated holds the persisted tasks in input
// order; Failed holds per-item errors for the rest. A task never appears in
// both.
type Result struct {
	Updated []*models.Task
	Failed  []ItemError
}

// BatchError is returned when some items of a batch failed. Items that
// succeeded remain persisted server-side; the caller gets both halves and
// must not present the batch as fully applied.
type BatchError struct {
	Failed []ItemError
}

func (e *BatchError) Error() string {
	ids := make([]string, len(e.Failed))
	for i, item := range e.Failed {
		ids[i] = item.TaskID
	}
	return fmt.Sprintf("attach failed for %d of batch: %s", len(e.Failed), strings.Join(ids, ", "))
}

// Engine runs sprint attach batches.
type Engine struct {
	api API
}

// New returns an engine bound to an API client.
func New(api API) *Engine {
	return &Engine{api: api}
}

// AttachTasks attaches every task in taskIDs to the sprint. All tasks are
// processed concurrently and independently: per task it fetches the current
// sprint, fetches the current task, replaces the task's sprint reference
// with the fresh copy, and persists the merged task with a full-object
// update. One task failing does not abort the others.
//
// The returned Result always carries whatever succeeded. When any item
// failed, err is a *BatchError naming the failed ids; the fetch-update pair
// is not atomic and a concurrent edit between the two steps is resolved
// last-write-wins.
func (e *Engine) AttachTasks(ctx context.Context, sprintID string, taskIDs []string) (*Result, error) {
	updated := make([]*models.Task, len(taskIDs))
	failures := make([]*ItemError, len(taskIDs))

	var wg sync.WaitGroup
	for i, taskID := range taskIDs {
		wg.Add(1)
		go func(slot int, taskID string) {
			defer wg.Done()
			task, err := e.attachOne(ctx, sprintID, taskID)
			if err != nil {
				failures[slot] = &ItemError{TaskID: taskID, Err: err}
				return
			}
			updated[slot] = task
		}(i, taskID)
	}
	wg.Wait()

	result := &Result{}
	for i := range taskIDs {
		if failures[i] != nil {
			result.Failed = append(result.Failed, *failures[i])
			continue
		}
		result.Updated = append(result.Updated, updated[i])
	}
	sort.SliceStable(result.Failed, func(i, j int) bool {
		return result.Failed[i].TaskID < result.Failed[j].TaskID
	})

	if len(result.Failed) > 0 {
		return result, &BatchError{Failed: result.Failed}
	}
	return result, nil
}

// attachOne runs the four-step sequence for a single task.
func (e *Engine) attachOne(ctx context.Context, sprintID, taskID string) (*models.Task, error) {
	sprint, err := e.api.GetSprint(ctx, sprintID)
	if err != nil {
		return nil, fmt.Errorf("fetch sprint: %w", err)
	}
	task, err := e.api.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("fetch task: %w", err)
	}

	merged := task.Clone()
	merged.Sprint = sprint

	persisted, err := e.api.UpdateTask(ctx, taskID, merged)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return persisted, nil
}

// DetachTasks removes tasks from whatever sprint they are on, with the same
// fetch-merge-update discipline and failure isolation as AttachTasks.
func (e *Engine) DetachTasks(ctx context.Context, taskIDs []string) (*Result, error) {
	updated := make([]*models.Task, len(taskIDs))
	failures := make([]*ItemError, len(taskIDs))

	var wg sync.WaitGroup
	for i, taskID := range taskIDs {
		wg.Add(1)
		go func(slot int, taskID string) {
			defer wg.Done()
			task, err := e.api.GetTask(ctx, taskID)
			if err != nil {
				failures[slot] = &ItemError{TaskID: taskID, Err: fmt.Errorf("fetch task: %w", err)}
				return
			}
			merged := task.Clone()
			merged.Sprint = nil
			persisted, err := e.api.UpdateTask(ctx, taskID, merged)
			if err != nil {
				failures[slot] = &ItemError{TaskID: taskID, Err: fmt.Errorf("update task: %w", err)}
				return
			}
			updated[slot] = persisted
		}(i, taskID)
	}
	wg.Wait()

	result := &Result{}
	for i := range taskIDs {
		if failures[i] != nil {
			result.Failed = append(result.Failed, *failures[i])
			continue
		}
		result.Updated = append(result.Updated, updated[i])
	}

	if len(result.Failed) > 0 {
		return result, &BatchError{Failed: result.Failed}
	}
	return result, nil
}
