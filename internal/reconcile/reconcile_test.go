package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bchakour/tb/internal/models"
)

// fakeAPI serves canned sprints and tasks and records update calls.
type fakeAPI struct {
	mu          sync.Mutex
	sprint      *models.Sprint
	tasks       map[string]*models.Task
	failGet     map[string]error
	failUpdate  map[string]error
	updateCalls []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		sprint: &models.Sprint{ID: "s1", Name: "Sprint 1", Status: models.SprintStatusActive},
		tasks: map[string]*models.Task{
			"t1": {ID: "t1", TaskKey: "TRK-1", Title: "one", Status: models.TaskStatusTodo},
			"t2": {ID: "t2", TaskKey: "TRK-2", Title: "two", Status: models.TaskStatusInProgress},
			"t3": {ID: "t3", TaskKey: "TRK-3", Title: "three", Status: models.TaskStatusTodo},
		},
		failGet:    map[string]error{},
		failUpdate: map[string]error{},
	}
}

func (f *fakeAPI) GetSprint(ctx context.Context, id string) (*models.Sprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.sprint.ID {
		return nil, errors.New("sprint not found")
	}
	s := *f.sprint
	return &s, nil
}

func (f *fakeAPI) GetTask(ctx context.Context, id string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failGet[id]; err != nil {
		return nil, err
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, errors.New("task not found")
	}
	return t.Clone(), nil
}

func (f *fakeAPI) UpdateTask(ctx context.Context, id string, task *models.Task) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, id)
	if err := f.failUpdate[id]; err != nil {
		return nil, err
	}
	f.tasks[id] = task.Clone()
	return task.Clone(), nil
}

func TestAttachTasks_AllSucceed(t *testing.T) {
	api := newFakeAPI()
	eng := New(api)

	result, err := eng.AttachTasks(context.Background(), "s1", []string{"t1", "t2", "t3"})
	require.NoError(t, err)

	require.Len(t, result.Updated, 3)
	assert.Empty(t, result.Failed)

	// Updated preserves input order.
	assert.Equal(t, "t1", result.Updated[0].ID)
	assert.Equal(t, "t2", result.Updated[1].ID)
	assert.Equal(t, "t3", result.Updated[2].ID)

	for _, task := range result.Updated {
		require.NotNil(t, task.Sprint)
		assert.Equal(t, "s1", task.Sprint.ID)
	}
}

func TestAttachTasks_PartialFailureIsolated(t *testing.T) {
	api := newFakeAPI()
	api.failUpdate["t2"] = errors.New("409 conflict")
	eng := New(api)

	result, err := eng.AttachTasks(context.Background(), "s1", []string{"t1", "t2", "t3"})

	// Successes are kept and reported.
	require.Len(t, result.Updated, 2)
	assert.Equal(t, "t1", result.Updated[0].ID)
	assert.Equal(t, "t3", result.Updated[1].ID)

	// The failed id is excluded from Updated and named in the error.
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "t2", result.Failed[0].TaskID)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Contains(t, batchErr.Error(), "t2")
	assert.Contains(t, batchErr.Error(), "1 of batch")

	// The persisted successes really are attached.
	assert.Equal(t, "s1", api.tasks["t1"].Sprint.ID)
	assert.Nil(t, api.tasks["t2"].Sprint)
}

func TestAttachTasks_FetchFailureSkipsUpdate(t *testing.T) {
	api := newFakeAPI()
	api.failGet["t1"] = errors.New("404 not found")
	eng := New(api)

	result, err := eng.AttachTasks(context.Background(), "s1", []string{"t1", "t2"})
	require.Error(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "t1", result.Failed[0].TaskID)
	assert.Contains(t, result.Failed[0].Err.Error(), "fetch task")

	// No update was attempted for the task whose fetch failed.
	assert.Equal(t, []string{"t2"}, api.updateCalls)
}

func TestAttachTasks_UnknownSprint_AllFail(t *testing.T) {
	api := newFakeAPI()
	eng := New(api)

	result, err := eng.AttachTasks(context.Background(), "ghost", []string{"t1", "t2"})
	require.Error(t, err)

	assert.Empty(t, result.Updated)
	assert.Len(t, result.Failed, 2)
	assert.Empty(t, api.updateCalls)
}

func TestAttachTasks_MergePreservesOtherFields(t *testing.T) {
	api := newFakeAPI()
	api.tasks["t1"].Description = "keep me"
	api.tasks["t1"].Priority = models.TaskPriorityHigh
	eng := New(api)

	_, err := eng.AttachTasks(context.Background(), "s1", []string{"t1"})
	require.NoError(t, err)

	assert.Equal(t, "keep me", api.tasks["t1"].Description)
	assert.Equal(t, models.TaskPriorityHigh, api.tasks["t1"].Priority)
	assert.Equal(t, "s1", api.tasks["t1"].Sprint.ID)
}

func TestAttachTasks_EmptyBatch(t *testing.T) {
	api := newFakeAPI()
	eng := New(api)

	result, err := eng.AttachTasks(context.Background(), "s1", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Updated)
	assert.Empty(t, result.Failed)
}

func TestDetachTasks(t *testing.T) {
	api := newFakeAPI()
	api.tasks["t1"].Sprint = &models.Sprint{ID: "s1"}
	api.tasks["t2"].Sprint = &models.Sprint{ID: "s1"}
	api.failUpdate["t2"] = errors.New("500 server error")
	eng := New(api)

	result, err := eng.DetachTasks(context.Background(), []string{"t1", "t2"})

	require.Len(t, result.Updated, 1)
	assert.Equal(t, "t1", result.Updated[0].ID)
	assert.Nil(t, result.Updated[0].Sprint)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "t2", result.Failed[0].TaskID)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)

	assert.Nil(t, api.tasks["t1"].Sprint)
	assert.NotNil(t, api.tasks["t2"].Sprint)
}

func TestItemErrorMessage(t *testing.T) {
	e := ItemError{TaskID: "t9", Err: errors.New("boom")}
	assert.Equal(t, "task t9: boom", e.Error())
}
