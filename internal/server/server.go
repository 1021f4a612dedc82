// Package server implements the REST API the tb client talks to. It exists
// so the CLI is usable against a local SQLite-backed instance (`tb serve`)
// without a separately hosted backend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/bchakour/tb/internal/llm"
	"github.com/bchakour/tb/internal/models"
	"github.com/bchakour/tb/internal/store"
)

// Server provides the REST API handlers.
type Server struct {
	store  store.Store
	llm    *llm.Client
	tokens *tokenTable
}

// NewServer creates a new API server.
// The llmClient may be nil if no API key is configured.
func NewServer(s store.Store, llmClient *llm.Client) *Server {
	return &Server{
		store:  s,
		llm:    llmClient,
		tokens: newTokenTable(),
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/register", s.register)

	mux.HandleFunc("GET /tasks/project/{projectId}", s.listProjectTasks)
	mux.HandleFunc("GET /tasks/sprint/{sprintId}", s.listSprintTasks)
	mux.HandleFunc("GET /tasks/assigned", s.listAssignedTasks)
	mux.HandleFunc("GET /tasks/{id}", s.getTask)
	mux.HandleFunc("POST /tasks", s.createTask)
	mux.HandleFunc("PUT /tasks/{id}", s.updateTask)
	mux.HandleFunc("DELETE /tasks/{id}", s.deleteTask)
	mux.HandleFunc("PATCH /tasks/{id}/status", s.updateTaskStatus)
	mux.HandleFunc("PATCH /tasks/{id}/priority", s.updateTaskPriority)

	mux.HandleFunc("GET /sprints/project/{projectId}", s.listProjectSprints)
	mux.HandleFunc("GET /sprints/{id}", s.getSprint)
	mux.HandleFunc("POST /sprints", s.createSprint)
	mux.HandleFunc("POST /sprints/{id}/start", s.startSprint)
	mux.HandleFunc("POST /sprints/{id}/complete", s.completeSprint)

	mux.HandleFunc("GET /comments/task/{taskId}", s.listTaskComments)
	mux.HandleFunc("POST /comments", s.createComment)
	mux.HandleFunc("DELETE /comments/{id}", s.deleteComment)

	mux.HandleFunc("GET /users", s.listUsers)
	mux.HandleFunc("GET /users/me", s.currentUser)
	mux.HandleFunc("GET /users/{id}", s.getUser)

	mux.HandleFunc("GET /projects", s.listProjects)
	mux.HandleFunc("POST /projects", s.createProject)
	mux.HandleFunc("GET /projects/{id}", s.getProject)
	mux.HandleFunc("GET /projects/{id}/members", s.listProjectMembers)

	mux.HandleFunc("POST /reports/generate", s.generateReport)
	mux.HandleFunc("GET /reports/project/{projectId}", s.listProjectReports)
	mux.HandleFunc("GET /reports/{id}", s.getReport)
	mux.HandleFunc("DELETE /reports/{id}", s.deleteReport)

	return corsMiddleware(s.authMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey int

const userIDKey ctxKey = 0

// authMiddleware resolves the bearer token to a user id for every route
// outside /auth/.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/auth/") {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, ok := s.tokens.Lookup(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		slog.Debug("authenticated request", "method", r.Method, "path", r.URL.Path, "user", userID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// sessionUser loads the user the request token was issued for.
func (s *Server) sessionUser(r *http.Request) (*models.User, error) {
	userID, _ := r.Context().Value(userIDKey).(string)
	if userID == "" {
		return nil, fmt.Errorf("no session user")
	}
	return s.store.GetUser(r.Context(), userID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeStoreError maps a store failure to 404 or 500.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// --- Auth ---

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	user, hash, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	token := s.tokens.Issue(user.ID)
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string          `json:"name"`
		Email    string          `json:"email"`
		Password string          `json:"password"`
		Role     models.UserRole `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email, and password are required")
		return
	}
	if _, _, err := s.store.GetUserByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	user := &models.User{Name: req.Name, Email: req.Email, Role: req.Role}
	if err := s.store.CreateUser(r.Context(), user, string(hash)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// --- Tasks ---

func (s *Server) listProjectTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context(), store.TaskListFilter{ProjectID: r.PathValue("projectId")})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) listSprintTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context(), store.TaskListFilter{SprintID: r.PathValue("sprintId")})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) listAssignedTasks(w http.ResponseWriter, r *http.Request) {
	user, err := s.sessionUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	tasks, err := s.store.ListTasks(r.Context(), store.TaskListFilter{AssigneeID: user.ID})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "projectId query parameter is required")
		return
	}
	var task models.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if task.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	user, err := s.sessionUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	// New tasks always land in the TODO column with no sprint.
	task.ProjectID = projectID
	task.Status = models.TaskStatusTodo
	task.Sprint = nil
	task.Reporter = user

	if err := s.store.CreateTask(r.Context(), &task); err != nil {
		writeStoreError(w, err)
		return
	}
	created, err := s.store.GetTask(r.Context(), task.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var task models.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	task.ID = id
	if err := s.store.UpdateTask(r.Context(), &task); err != nil {
		writeStoreError(w, err)
		return
	}
	updated, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status: %s", req.Status))
		return
	}
	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	task.Status = req.Status
	if err := s.store.UpdateTask(r.Context(), task); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) updateTaskPriority(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Priority models.TaskPriority `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Priority.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid priority: %s", req.Priority))
		return
	}
	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	task.Priority = req.Priority
	if err := s.store.UpdateTask(r.Context(), task); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// --- Sprints ---

func (s *Server) listProjectSprints(w http.ResponseWriter, r *http.Request) {
	sprints, err := s.store.ListProjectSprints(r.Context(), r.PathValue("projectId"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sprints)
}

func (s *Server) getSprint(w http.ResponseWriter, r *http.Request) {
	sprint, err := s.store.GetSprint(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sprint)
}

func (s *Server) createSprint(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "projectId query parameter is required")
		return
	}
	var sprint models.Sprint
	if err := json.NewDecoder(r.Body).Decode(&sprint); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := sprint.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		writeStoreError(w, err)
		return
	}
	sprint.ProjectID = projectID
	sprint.Status = models.SprintStatusPlanning
	if err := s.store.CreateSprint(r.Context(), &sprint); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sprint)
}

func (s *Server) startSprint(w http.ResponseWriter, r *http.Request) {
	s.transitionSprint(w, r, models.SprintStatusPlanning, models.SprintStatusActive)
}

func (s *Server) completeSprint(w http.ResponseWriter, r *http.Request) {
	s.transitionSprint(w, r, models.SprintStatusActive, models.SprintStatusCompleted)
}

// transitionSprint enforces the monotonic PLANNING -> ACTIVE -> COMPLETED
// lifecycle.
func (s *Server) transitionSprint(w http.ResponseWriter, r *http.Request, from, to models.SprintStatus) {
	sprint, err := s.store.GetSprint(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if sprint.Status != from {
		writeError(w, http.StatusConflict, fmt.Sprintf("sprint is %s, expected %s", sprint.Status, from))
		return
	}
	sprint.Status = to
	if err := s.store.UpdateSprint(r.Context(), sprint); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sprint)
}

// --- Comments ---

func (s *Server) listTaskComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.store.ListTaskComments(r.Context(), r.PathValue("taskId"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("taskId")
	var req struct {
		Text   string `json:"text"`
		TaskID string `json:"taskId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if taskID == "" {
		taskID = req.TaskID
	}
	if taskID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "taskId and text are required")
		return
	}
	user, err := s.sessionUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if _, err := s.store.GetTask(r.Context(), taskID); err != nil {
		writeStoreError(w, err)
		return
	}
	comment := &models.Comment{Text: req.Text, TaskID: taskID, AuthorID: user.ID}
	if err := s.store.CreateComment(r.Context(), comment); err != nil {
		writeStoreError(w, err)
		return
	}
	comment.AuthorName = user.Name
	comment.AuthorEmail = user.Email
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	comment, err := s.store.GetComment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	user, err := s.sessionUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	// Only the author may delete a comment.
	if comment.AuthorID != user.ID {
		writeError(w, http.StatusForbidden, "only the comment author can delete it")
		return
	}
	if err := s.store.DeleteComment(r.Context(), comment.ID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Users ---

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.sessionUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// --- Projects ---

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := project.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.sessionUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	project.Lead = user
	if err := s.store.CreateProject(r.Context(), &project); err != nil {
		writeStoreError(w, err)
		return
	}
	created, err := s.store.GetProject(r.Context(), project.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listProjectMembers(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		writeStoreError(w, err)
		return
	}
	members, err := s.store.ListProjectMembers(r.Context(), projectID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// --- Reports ---

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil {
		writeError(w, http.StatusServiceUnavailable, "LLM not configured (set ANTHROPIC_API_KEY)")
		return
	}
	var req struct {
		ProjectID string            `json:"projectId"`
		Prompt    string            `json:"prompt"`
		Type      models.ReportType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Type == "" {
		req.Type = models.ReportTypeCustom
	}
	project, err := s.store.GetProject(r.Context(), req.ProjectID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	sprints, err := s.store.ListProjectSprints(r.Context(), project.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	tasks, err := s.store.ListTasks(r.Context(), store.TaskListFilter{ProjectID: project.ID})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	generated, err := s.llm.GenerateReport(r.Context(), llm.ReportInput{
		Project: project,
		Sprints: sprints,
		Tasks:   tasks,
		Type:    req.Type,
		Prompt:  req.Prompt,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	report := &models.Report{
		Title:       generated.Title,
		Content:     generated.Content,
		Prompt:      req.Prompt,
		Type:        req.Type,
		ProjectID:   project.ID,
		ProjectName: project.Name,
	}
	if user, err := s.sessionUser(r); err == nil {
		report.AuthorName = user.Name
	}
	if err := s.store.CreateReport(r.Context(), report); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) listProjectReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.ListProjectReports(r.Context(), r.PathValue("projectId"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteReport(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
