package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bchakour/tb/internal/models"
	"github.com/bchakour/tb/internal/session"
)

func TestDo_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(&models.Task{ID: "t1"})
	}))
	defer srv.Close()

	c := New(srv.URL, session.InMemory("tok-123"))
	_, err := c.GetTask(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	var hadHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadHeader = r.Header["Authorization"]
		json.NewEncoder(w).Encode([]*models.Project{})
	}))
	defer srv.Close()

	c := New(srv.URL, session.InMemory(""))
	_, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	assert.False(t, hadHeader)
}

func TestDo_DecodesErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "sprint is not in PLANNING"})
	}))
	defer srv.Close()

	c := New(srv.URL, session.InMemory("tok"))
	_, err := c.StartSprint(context.Background(), "s1")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "sprint is not in PLANNING", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "sprint is not in PLANNING")
}

func TestDo_NotFoundHelper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "task not found"})
	}))
	defer srv.Close()

	c := New(srv.URL, session.InMemory("tok"))
	_, err := c.GetTask(context.Background(), "ghost")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))
}

func TestDo_UnauthorizedClearsSessionAndFiresHookOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid token"})
	}))
	defer srv.Close()

	sess := session.InMemory("stale-token")
	var fired int32
	c := New(srv.URL, sess, WithOnUnauthorized(func() {
		atomic.AddInt32(&fired, 1)
	}))

	// Several concurrent calls all hit the 401; the hook fires exactly once.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.CurrentUser(context.Background())
			assert.True(t, IsUnauthorized(err))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
	assert.Empty(t, sess.Token(), "token cleared")
}

func TestLogin_StoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "dana@example.test", body["email"])

		json.NewEncoder(w).Encode(LoginResult{
			Token: "fresh-token",
			User:  &models.User{ID: "u1", Name: "Dana", Email: "dana@example.test"},
		})
	}))
	defer srv.Close()

	sess := session.InMemory("")
	c := New(srv.URL, sess)

	result, err := c.Login(context.Background(), "dana@example.test", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "Dana", result.User.Name)
	assert.Equal(t, "fresh-token", sess.Token())
}

func TestLogout_ClearsToken(t *testing.T) {
	sess := session.InMemory("tok")
	c := New("http://unused.test", sess)

	c.Logout()
	assert.Empty(t, sess.Token())
}

func TestUpdateTaskStatus_SendsPatchBody(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(&models.Task{ID: "t1", Status: models.TaskStatusDone})
	}))
	defer srv.Close()

	c := New(srv.URL, session.InMemory("tok"))
	task, err := c.UpdateTaskStatus(context.Background(), "t1", models.TaskStatusDone)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/tasks/t1/status", gotPath)
	assert.Equal(t, "DONE", gotBody["status"])
	assert.Equal(t, models.TaskStatusDone, task.Status)
}

func TestGenerateReport_PostsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reports/generate", r.URL.Path)
		var req GenerateReportRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, models.ReportTypeSprintSummary, req.Type)

		json.NewEncoder(w).Encode(&models.Report{ID: "r1", Title: "Sprint summary"})
	}))
	defer srv.Close()

	c := New(srv.URL, session.InMemory("tok"))
	report, err := c.GenerateReport(context.Background(), GenerateReportRequest{
		ProjectID: "p1",
		Type:      models.ReportTypeSprintSummary,
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", report.ID)
}

func TestDo_TrailingSlashBaseURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]*models.User{})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", session.InMemory("tok"))
	_, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/users", gotPath)
}
