package hydrate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bchakour/tb/internal/models"
)

// fakeAPI is an in-memory stand-in for the remote client. Individual calls
// can be made to fail or block.
type fakeAPI struct {
	mu sync.Mutex

	task     *models.Task
	comments []*models.Comment
	viewer   *models.User
	users    []*models.User

	taskErr     error
	commentsErr error
	viewerErr   error
	usersErr    error
	updateErr   error
	deleteErr   error

	getTaskCalls int
	updateCalls  int

	// blockTask, when non-nil, is closed to release a pending GetTask.
	blockTask chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		task: &models.Task{ID: "t1", TaskKey: "TRK-1", Title: "one", Status: models.TaskStatusTodo, Priority: models.TaskPriorityMedium},
		comments: []*models.Comment{
			{ID: "c1", TaskID: "t1", AuthorID: "u1", Text: "first"},
			{ID: "c2", TaskID: "t1", AuthorID: "u2", Text: "second"},
		},
		viewer: &models.User{ID: "u1", Name: "Dana", Role: models.UserRoleMember},
		users: []*models.User{
			{ID: "u1", Name: "Dana", Role: models.UserRoleMember},
			{ID: "u2", Name: "Piet", Role: models.UserRoleScrumMaster},
			{ID: "u3", Name: "Owner", Role: models.UserRoleProductOwner},
		},
	}
}

func (f *fakeAPI) GetTask(ctx context.Context, id string) (*models.Task, error) {
	f.mu.Lock()
	block := f.blockTask
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getTaskCalls++
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	return f.task.Clone(), nil
}

func (f *fakeAPI) UpdateTask(ctx context.Context, id string, task *models.Task) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.task = task.Clone()
	return task.Clone(), nil
}

func (f *fakeAPI) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeAPI) ListTaskComments(ctx context.Context, taskID string) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commentsErr != nil {
		return nil, f.commentsErr
	}
	return append([]*models.Comment(nil), f.comments...), nil
}

func (f *fakeAPI) CreateComment(ctx context.Context, taskID, text string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Comment{ID: "c-new", TaskID: taskID, AuthorID: f.viewer.ID, Text: text}, nil
}

func (f *fakeAPI) DeleteComment(ctx context.Context, id string) error {
	return nil
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.viewerErr != nil {
		return nil, f.viewerErr
	}
	u := *f.viewer
	return &u, nil
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return append([]*models.User(nil), f.users...), nil
}

func (f *fakeAPI) GetUser(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			found := *u
			return &found, nil
		}
	}
	return nil, errors.New("user not found")
}

func loadedDetail(t *testing.T, api *fakeAPI, opts ...Option) *Detail {
	t.Helper()
	d := Open(api, "t1", opts...)
	require.NoError(t, d.Load(context.Background()))
	return d
}

func TestLoad_HydratesAllSections(t *testing.T) {
	api := newFakeAPI()
	d := loadedDetail(t, api)

	require.NotNil(t, d.Task())
	assert.Equal(t, "TRK-1", d.Task().TaskKey)
	assert.Len(t, d.Comments(), 2)
	assert.Equal(t, "u1", d.Viewer().ID)
	assert.Equal(t, Loading{}, d.Loading())
}

func TestLoad_AssigneesExcludeProductOwners(t *testing.T) {
	api := newFakeAPI()
	d := loadedDetail(t, api)

	assignees := d.Assignees()
	require.Len(t, assignees, 2)
	for _, u := range assignees {
		assert.NotEqual(t, models.UserRoleProductOwner, u.Role)
	}
}

func TestLoad_SidecarFailureLeavesSectionEmpty(t *testing.T) {
	api := newFakeAPI()
	api.commentsErr = errors.New("500 server error")
	api.usersErr = errors.New("500 server error")

	d := Open(api, "t1")
	require.NoError(t, d.Load(context.Background()))

	assert.NotNil(t, d.Task(), "task fetch is independent of sidecars")
	assert.Empty(t, d.Comments())
	assert.Empty(t, d.Assignees())
	assert.Equal(t, Loading{}, d.Loading(), "flags clear even on failure")
}

func TestLoad_TaskFetchFailureIsReturned(t *testing.T) {
	api := newFakeAPI()
	api.taskErr = errors.New("404 not found")

	d := Open(api, "t1")
	err := d.Load(context.Background())
	assert.Error(t, err)
	assert.Nil(t, d.Task())
	assert.Len(t, d.Comments(), 2, "comments still hydrate")
}

func TestLoad_CancelledContextDiscardsResults(t *testing.T) {
	api := newFakeAPI()
	api.blockTask = make(chan struct{})

	d := Open(api, "t1")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		_ = d.Load(ctx)
		close(done)
	}()

	cancel()
	close(api.blockTask)
	<-done

	assert.Nil(t, d.Task(), "late result must not be applied")
}

func TestLoad_AfterCloseRejected(t *testing.T) {
	api := newFakeAPI()
	d := Open(api, "t1")
	d.Close()
	assert.ErrorIs(t, d.Load(context.Background()), ErrDetailClosed)
}

func TestSetStatus_ReadModifyWrite(t *testing.T) {
	api := newFakeAPI()
	// A concurrent edit changed the title on the server after hydration.
	d := loadedDetail(t, api)
	api.mu.Lock()
	api.task.Title = "renamed elsewhere"
	api.mu.Unlock()

	require.NoError(t, d.SetStatus(context.Background(), models.TaskStatusInProgress))

	assert.Equal(t, models.TaskStatusInProgress, d.Task().Status)
	assert.Equal(t, "renamed elsewhere", d.Task().Title, "merge starts from the fresh server copy")
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, models.TaskStatusInProgress, api.task.Status)
}

func TestSetStatus_UpdateFailureReverts(t *testing.T) {
	api := newFakeAPI()
	d := loadedDetail(t, api)
	api.updateErr = errors.New("409 conflict")

	err := d.SetStatus(context.Background(), models.TaskStatusDone)
	assert.Error(t, err)
	assert.Equal(t, models.TaskStatusTodo, d.Task().Status, "optimistic value rolled back")
}

func TestSetPriority_RefetchFailureReverts(t *testing.T) {
	api := newFakeAPI()
	d := loadedDetail(t, api)
	api.mu.Lock()
	api.taskErr = errors.New("502 bad gateway")
	api.mu.Unlock()

	err := d.SetPriority(context.Background(), models.TaskPriorityHighest)
	assert.Error(t, err)
	assert.Equal(t, models.TaskPriorityMedium, d.Task().Priority)
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Zero(t, api.updateCalls, "no write after a failed re-fetch")
}

func TestSetAssignee(t *testing.T) {
	t.Run("resolves the user first", func(t *testing.T) {
		api := newFakeAPI()
		d := loadedDetail(t, api)

		require.NoError(t, d.SetAssignee(context.Background(), "u2"))
		require.NotNil(t, d.Task().Assignee)
		assert.Equal(t, "Piet", d.Task().Assignee.Name)
	})

	t.Run("unknown user aborts before any task write", func(t *testing.T) {
		api := newFakeAPI()
		d := loadedDetail(t, api)
		api.mu.Lock()
		api.getTaskCalls = 0
		api.mu.Unlock()

		err := d.SetAssignee(context.Background(), "ghost")
		assert.Error(t, err)
		api.mu.Lock()
		defer api.mu.Unlock()
		assert.Zero(t, api.getTaskCalls)
		assert.Zero(t, api.updateCalls)
	})

	t.Run("empty id unassigns", func(t *testing.T) {
		api := newFakeAPI()
		api.task.Assignee = &models.User{ID: "u2", Name: "Piet"}
		d := loadedDetail(t, api)

		require.NoError(t, d.SetAssignee(context.Background(), ""))
		assert.Nil(t, d.Task().Assignee)
	})
}

func TestMutation_AfterCloseRejected(t *testing.T) {
	api := newFakeAPI()
	d := loadedDetail(t, api)
	d.Close()

	assert.ErrorIs(t, d.SetStatus(context.Background(), models.TaskStatusDone), ErrDetailClosed)
	_, err := d.AddComment(context.Background(), "late")
	assert.ErrorIs(t, err, ErrDetailClosed)
	assert.ErrorIs(t, d.DeleteTask(context.Background()), ErrDetailClosed)
}

func TestAddComment_AppendsServerCopy(t *testing.T) {
	api := newFakeAPI()
	d := loadedDetail(t, api)

	created, err := d.AddComment(context.Background(), "a thought")
	require.NoError(t, err)
	assert.Equal(t, "c-new", created.ID)

	comments := d.Comments()
	require.Len(t, comments, 3)
	assert.Equal(t, "c-new", comments[2].ID, "appended at the end")
}

func TestDeleteComment_RemovesOnConfirm(t *testing.T) {
	api := newFakeAPI()
	d := loadedDetail(t, api)

	require.NoError(t, d.DeleteComment(context.Background(), "c1"))
	comments := d.Comments()
	require.Len(t, comments, 1)
	assert.Equal(t, "c2", comments[0].ID)
}

func TestCanDeleteComment_ViewerIsAuthor(t *testing.T) {
	api := newFakeAPI()
	d := loadedDetail(t, api)

	assert.True(t, d.CanDeleteComment(&models.Comment{AuthorID: "u1"}))
	assert.False(t, d.CanDeleteComment(&models.Comment{AuthorID: "u2"}))
	assert.False(t, d.CanDeleteComment(nil))
}

func TestDeleteTask_ClosesAndNotifies(t *testing.T) {
	api := newFakeAPI()
	var deletedID string
	d := loadedDetail(t, api, WithOnTaskDeleted(func(id string) { deletedID = id }))

	require.NoError(t, d.DeleteTask(context.Background()))
	assert.Equal(t, "t1", deletedID)

	assert.ErrorIs(t, d.SetStatus(context.Background(), models.TaskStatusDone), ErrDetailClosed)
}

func TestDeleteTask_FailureKeepsViewOpen(t *testing.T) {
	api := newFakeAPI()
	api.deleteErr = errors.New("403 forbidden")
	fired := false
	d := loadedDetail(t, api, WithOnTaskDeleted(func(string) { fired = true }))

	assert.Error(t, d.DeleteTask(context.Background()))
	assert.False(t, fired)
	assert.NoError(t, d.SetStatus(context.Background(), models.TaskStatusInReview))
}

func TestSubscribe_FiresOnMutations(t *testing.T) {
	api := newFakeAPI()
	d := loadedDetail(t, api)

	fired := 0
	d.Subscribe(func() { fired++ })

	require.NoError(t, d.SetStatus(context.Background(), models.TaskStatusInProgress))
	assert.GreaterOrEqual(t, fired, 2, "optimistic apply and confirmation both publish")
}
