package board

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bchakour/tb/internal/models"
)

// fakeUpdater records status update calls and can be told to fail.
type fakeUpdater struct {
	calls []string
	err   error
}

func (f *fakeUpdater) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	f.calls = append(f.calls, id+":"+string(status))
	if f.err != nil {
		return nil, f.err
	}
	return &models.Task{ID: id, Status: status}, nil
}

func newDragFixture(t *testing.T) (*Collection, *fakeUpdater, *Controller) {
	t.Helper()
	coll := NewCollection()
	coll.Load(boardTasks())
	api := &fakeUpdater{}
	return coll, api, NewController(coll, api)
}

func TestMove_NoDest_NoNetworkNoChange(t *testing.T) {
	coll, api, ctrl := newDragFixture(t)
	before := ids(coll.Tasks())

	outcome, err := ctrl.Move(context.Background(), Drop{
		TaskID: "t1", Source: models.TaskStatusTodo, HasDest: false,
	})

	require.NoError(t, err)
	assert.Equal(t, DropInvalid, outcome)
	assert.Empty(t, api.calls)
	assert.Equal(t, before, ids(coll.Tasks()))
}

func TestMove_SamePosition_Noop(t *testing.T) {
	_, api, ctrl := newDragFixture(t)

	outcome, err := ctrl.Move(context.Background(), Drop{
		TaskID: "t1",
		Source: models.TaskStatusTodo, SourceIndex: 0,
		Dest: models.TaskStatusTodo, DestIndex: 0,
		HasDest: true,
	})

	require.NoError(t, err)
	assert.Equal(t, DropNoop, outcome)
	assert.Empty(t, api.calls)
}

func TestMove_SameBucketReorder_NotPersisted(t *testing.T) {
	_, api, ctrl := newDragFixture(t)

	outcome, err := ctrl.Move(context.Background(), Drop{
		TaskID: "t1",
		Source: models.TaskStatusTodo, SourceIndex: 0,
		Dest: models.TaskStatusTodo, DestIndex: 1,
		HasDest: true,
	})

	require.NoError(t, err)
	assert.Equal(t, DropNoop, outcome)
	assert.Empty(t, api.calls)
}

func TestMove_CrossBucket_ExactlyOneUpdate(t *testing.T) {
	coll, api, ctrl := newDragFixture(t)

	outcome, err := ctrl.Move(context.Background(), Drop{
		TaskID: "t1",
		Source: models.TaskStatusTodo, SourceIndex: 0,
		Dest: models.TaskStatusInProgress, DestIndex: 1,
		HasDest: true,
	})

	require.NoError(t, err)
	assert.Equal(t, DropApplied, outcome)
	assert.Equal(t, []string{"t1:IN_PROGRESS"}, api.calls)

	got, _ := coll.Get("t1")
	assert.Equal(t, models.TaskStatusInProgress, got.Status)
}

func TestMove_ServerRejects_RollsBack(t *testing.T) {
	coll, api, ctrl := newDragFixture(t)
	api.err = errors.New("500 server error")

	outcome, err := ctrl.Move(context.Background(), Drop{
		TaskID: "t1",
		Source: models.TaskStatusTodo,
		Dest:   models.TaskStatusDone,
		HasDest: true,
	})

	assert.Equal(t, DropReverted, outcome)
	assert.Error(t, err)
	assert.Len(t, api.calls, 1)

	// Board is back to its pre-drag state.
	got, _ := coll.Get("t1")
	assert.Equal(t, models.TaskStatusTodo, got.Status)
	assert.Equal(t, []string{"t1", "t3"}, ids(coll.ByStatus(models.TaskStatusTodo)))
}

func TestMove_UnknownTask_Invalid(t *testing.T) {
	_, api, ctrl := newDragFixture(t)

	outcome, err := ctrl.Move(context.Background(), Drop{
		TaskID: "ghost",
		Source: models.TaskStatusTodo,
		Dest:   models.TaskStatusDone,
		HasDest: true,
	})

	require.NoError(t, err)
	assert.Equal(t, DropInvalid, outcome)
	assert.Empty(t, api.calls)
}

func TestMoveToStatus(t *testing.T) {
	t.Run("already there is a noop", func(t *testing.T) {
		_, api, ctrl := newDragFixture(t)
		outcome, err := ctrl.MoveToStatus(context.Background(), "t1", models.TaskStatusTodo)
		require.NoError(t, err)
		assert.Equal(t, DropNoop, outcome)
		assert.Empty(t, api.calls)
	})

	t.Run("moves across buckets", func(t *testing.T) {
		coll, api, ctrl := newDragFixture(t)
		outcome, err := ctrl.MoveToStatus(context.Background(), "t2", models.TaskStatusDone)
		require.NoError(t, err)
		assert.Equal(t, DropApplied, outcome)
		assert.Equal(t, []string{"t2:DONE"}, api.calls)
		assert.Equal(t, []string{"t2", "t4"}, ids(coll.ByStatus(models.TaskStatusDone)))
	})

	t.Run("unknown task", func(t *testing.T) {
		_, _, ctrl := newDragFixture(t)
		outcome, err := ctrl.MoveToStatus(context.Background(), "ghost", models.TaskStatusDone)
		assert.Equal(t, DropInvalid, outcome)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "invalid", DropInvalid.String())
	assert.Equal(t, "noop", DropNoop.String())
	assert.Equal(t, "applied", DropApplied.String())
	assert.Equal(t, "reverted", DropReverted.String())
}
