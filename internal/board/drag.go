package board

import (
	"context"

	"github.com/bchakour/tb/internal/models"
)

// StatusUpdater is the one network call a drag gesture can trigger.
type StatusUpdater interface {
	UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error)
}

// Drop describes a finished drag gesture: which task, which bucket and index
// it left, and where it landed. HasDest is false when the task was released
// outside any column.
type Drop struct {
	TaskID      string
	Source      models.TaskStatus
	SourceIndex int
	Dest        models.TaskStatus
	DestIndex   int
	HasDest     bool
}

// Outcome classifies how a drop was handled.
type Outcome int

const (
	// DropInvalid: released outside any column, or the task is unknown.
	// No state change, no network call.
	DropInvalid Outcome = iota
	// DropNoop: same bucket, same position. No state change, no network call.
	DropNoop
	// DropApplied: status changed optimistically and the update persisted.
	DropApplied
	// DropReverted: status changed optimistically but the update failed;
	// the collection was rolled back to its pre-drag state.
	DropReverted
)

func (o Outcome) String() string {
	switch o {
	case DropInvalid:
		return "invalid"
	case DropNoop:
		return "noop"
	case DropApplied:
		return "applied"
	case DropReverted:
		return "reverted"
	}
	return "unknown"
}

// Controller turns drop gestures into optimistic status transitions.
// The board re-renders before the network responds; a failed update rolls
// the collection back and surfaces the error.
type Controller struct {
	coll *Collection
	api  StatusUpdater
}

// NewController wires a controller to its collection and API dependency.
func NewController(coll *Collection, api StatusUpdater) *Controller {
	return &Controller{coll: coll, api: api}
}

// Resolve classifies a drop without applying it.
func (dc *Controller) Resolve(d Drop) Outcome {
	if !d.HasDest {
		return DropInvalid
	}
	if d.Dest == d.Source && d.DestIndex == d.SourceIndex {
		return DropNoop
	}
	if _, ok := dc.coll.Get(d.TaskID); !ok {
		return DropInvalid
	}
	return DropApplied
}

// Move applies a drop. Intra-column position is cosmetic and not persisted;
// only a bucket change issues the status update.
func (dc *Controller) Move(ctx context.Context, d Drop) (Outcome, error) {
	switch dc.Resolve(d) {
	case DropInvalid:
		return DropInvalid, nil
	case DropNoop:
		return DropNoop, nil
	}

	// Same-bucket reorder: position changed but status did not. Nothing to
	// persist, nothing to mutate.
	if d.Dest == d.Source {
		return DropNoop, nil
	}

	snap := dc.coll.Snapshot()
	err := dc.coll.ApplyOptimistic(d.TaskID, func(t models.Task) models.Task {
		t.Status = d.Dest
		return t
	})
	if err != nil {
		return DropInvalid, nil
	}

	if _, err := dc.api.UpdateTaskStatus(ctx, d.TaskID, d.Dest); err != nil {
		dc.coll.Rollback(snap)
		return DropReverted, err
	}
	return DropApplied, nil
}

// MoveToStatus is the programmatic form of a drag: move a task to the given
// bucket wherever it currently sits. Already-there is a noop.
func (dc *Controller) MoveToStatus(ctx context.Context, taskID string, dest models.TaskStatus) (Outcome, error) {
	task, ok := dc.coll.Get(taskID)
	if !ok {
		return DropInvalid, ErrTaskNotFound
	}
	if task.Status == dest {
		return DropNoop, nil
	}
	return dc.Move(ctx, Drop{
		TaskID:  taskID,
		Source:  task.Status,
		Dest:    dest,
		HasDest: true,
	})
}
