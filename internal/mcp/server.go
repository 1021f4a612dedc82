// Package mcp exposes the task board as MCP tools over stdio, so agent
// clients can read and move work the same way the CLI does.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bchakour/tb/internal/board"
	"github.com/bchakour/tb/internal/client"
	"github.com/bchakour/tb/internal/models"
	"github.com/bchakour/tb/internal/reconcile"
)

// API is the slice of the remote client the MCP tools need.
type API interface {
	ListProjects(ctx context.Context) ([]*models.Project, error)
	ListProjectTasks(ctx context.Context, projectID string) ([]*models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	CreateTask(ctx context.Context, projectID string, task *models.Task) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, task *models.Task) (*models.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error)
	GetSprint(ctx context.Context, id string) (*models.Sprint, error)
	ListTaskComments(ctx context.Context, taskID string) ([]*models.Comment, error)
	GenerateReport(ctx context.Context, req client.GenerateReportRequest) (*models.Report, error)
}

// Server wraps the remote client and exposes it as MCP tools.
type Server struct {
	api API
}

// NewServer creates the MCP server wrapper.
func NewServer(api API) *Server {
	return &Server{api: api}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("tb", "1.0.0", server.WithToolCapabilities(true))

	// Register all tools
	srv.AddTool(s.listProjectsTool())
	srv.AddTool(s.boardTool())
	srv.AddTool(s.taskDetailTool())
	srv.AddTool(s.createTaskTool())
	srv.AddTool(s.moveTaskTool())
	srv.AddTool(s.attachSprintTool())
	srv.AddTool(s.generateReportTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// resolveProject matches a project by id, key, or name.
func (s *Server) resolveProject(ctx context.Context, ref string) (*models.Project, error) {
	projects, err := s.api.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.ID == ref || strings.EqualFold(p.Key, ref) || strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("project not found: %s", ref)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// tb_list_projects
func (s *Server) listProjectsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tb_list_projects",
		mcp.WithDescription("List all projects. Returns a JSON array with id, key, name, description, and lead."),
	)
	return tool, s.handleListProjects
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.api.ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	type projectOut struct {
		ID          string `json:"id"`
		Key         string `json:"key"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Lead        string `json:"lead,omitempty"`
	}

	out := make([]projectOut, len(projects))
	for i, p := range projects {
		out[i] = projectOut{
			ID:          p.ID,
			Key:         p.Key,
			Name:        p.Name,
			Description: p.Description,
		}
		if p.Lead != nil {
			out[i].Lead = p.Lead.Name
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal projects: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// taskOut is the tool-facing shape of a task.
type taskOut struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Assignee string `json:"assignee,omitempty"`
	Sprint   string `json:"sprint,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
}

func toTaskOut(t *models.Task) taskOut {
	out := taskOut{
		ID:       t.ID,
		Key:      t.TaskKey,
		Title:    t.Title,
		Type:     string(t.Type),
		Status:   string(t.Status),
		Priority: string(t.Priority),
	}
	if t.Assignee != nil {
		out.Assignee = t.Assignee.Name
	}
	if t.Sprint != nil {
		out.Sprint = t.Sprint.Name
	}
	if t.DueDate != nil && !t.DueDate.IsZero() {
		out.DueDate = t.DueDate.String()
	}
	return out
}

// tb_board
func (s *Server) boardTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tb_board",
		mcp.WithDescription("Show a project's board: tasks grouped into TODO, IN_PROGRESS, IN_REVIEW, and DONE columns, preserving board order. Returns a JSON object keyed by status."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project id, key, or name")),
	)
	return tool, s.handleBoard
}

func (s *Server) handleBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRef, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project"), nil
	}
	p, err := s.resolveProject(ctx, projectRef)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tasks, err := s.api.ListProjectTasks(ctx, p.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tasks: %v", err)), nil
	}

	coll := board.NewCollection()
	coll.Load(tasks)

	columns := make(map[string][]taskOut)
	for _, status := range models.TaskStatuses {
		bucket := coll.ByStatus(status)
		out := make([]taskOut, len(bucket))
		for i, t := range bucket {
			out[i] = toTaskOut(t)
		}
		columns[string(status)] = out
	}

	data, err := json.Marshal(columns)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal board: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// tb_task_detail
func (s *Server) taskDetailTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tb_task_detail",
		mcp.WithDescription("Get a task's full detail: fields, embedded assignee/reporter/sprint, and comments. Returns JSON."),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task id")),
	)
	return tool, s.handleTaskDetail
}

func (s *Server) handleTaskDetail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: task_id"), nil
	}
	task, err := s.api.GetTask(ctx, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("task not found: %s", taskID)), nil
	}
	comments, err := s.api.ListTaskComments(ctx, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list comments: %v", err)), nil
	}

	type commentOut struct {
		ID        string `json:"id"`
		Author    string `json:"author"`
		Text      string `json:"text"`
		CreatedAt string `json:"created_at"`
	}
	commentsOut := make([]commentOut, len(comments))
	for i, c := range comments {
		commentsOut[i] = commentOut{
			ID:        c.ID,
			Author:    c.AuthorName,
			Text:      c.Text,
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		}
	}

	result := map[string]any{
		"task":        toTaskOut(task),
		"description": task.Description,
		"comments":    commentsOut,
	}
	if task.Reporter != nil {
		result["reporter"] = task.Reporter.Name
	}

	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal task: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// tb_create_task
func (s *Server) createTaskTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tb_create_task",
		mcp.WithDescription("Create a task on a project board. New tasks start in TODO. Returns the created task as JSON."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project id, key, or name")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("type", mcp.Description("Task type: TASK, BUG, STORY, EPIC (default: TASK)")),
		mcp.WithString("priority", mcp.Description("Priority: HIGHEST, HIGH, MEDIUM, LOW, LOWEST (default: MEDIUM)")),
	)
	return tool, s.handleCreateTask
}

func (s *Server) handleCreateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRef, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project"), nil
	}
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: title"), nil
	}
	p, err := s.resolveProject(ctx, projectRef)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task := &models.Task{
		Title:       title,
		Description: request.GetString("description", ""),
		Type:        models.TaskType(request.GetString("type", string(models.TaskTypeTask))),
		Priority:    models.TaskPriority(request.GetString("priority", string(models.TaskPriorityMedium))),
	}
	if !task.Type.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid type: %s", task.Type)), nil
	}
	if !task.Priority.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid priority: %s", task.Priority)), nil
	}

	created, err := s.api.CreateTask(ctx, p.ID, task)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create task: %v", err)), nil
	}

	data, err := json.Marshal(toTaskOut(created))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal task: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// tb_move_task
func (s *Server) moveTaskTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tb_move_task",
		mcp.WithDescription("Move a task to another board column (status). Applies the change optimistically and rolls back if the server rejects it. Returns the outcome and the task."),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task id")),
		mcp.WithString("status", mcp.Required(), mcp.Description("Destination status: TODO, IN_PROGRESS, IN_REVIEW, DONE")),
	)
	return tool, s.handleMoveTask
}

func (s *Server) handleMoveTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: task_id"), nil
	}
	statusStr, err := request.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: status"), nil
	}
	status := models.TaskStatus(statusStr)
	if !status.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid status: %s", statusStr)), nil
	}

	task, err := s.api.GetTask(ctx, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("task not found: %s", taskID)), nil
	}

	coll := board.NewCollection()
	coll.Load([]*models.Task{task})
	ctrl := board.NewController(coll, s.api)

	outcome, err := ctrl.MoveToStatus(ctx, taskID, status)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("move failed (%s): %v", outcome, err)), nil
	}

	moved, _ := coll.Get(taskID)
	result := map[string]any{
		"outcome": outcome.String(),
		"task":    toTaskOut(moved),
	}
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// tb_attach_sprint
func (s *Server) attachSprintTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tb_attach_sprint",
		mcp.WithDescription("Attach tasks to a sprint. Tasks are processed independently; the result lists updated tasks and per-task failures."),
		mcp.WithString("sprint_id", mcp.Required(), mcp.Description("Sprint id")),
		mcp.WithString("task_ids", mcp.Required(), mcp.Description("Comma-separated task ids")),
	)
	return tool, s.handleAttachSprint
}

func (s *Server) handleAttachSprint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sprintID, err := request.RequireString("sprint_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: sprint_id"), nil
	}
	idsStr, err := request.RequireString("task_ids")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: task_ids"), nil
	}
	var taskIDs []string
	for _, id := range strings.Split(idsStr, ",") {
		if id = strings.TrimSpace(id); id != "" {
			taskIDs = append(taskIDs, id)
		}
	}
	if len(taskIDs) == 0 {
		return mcp.NewToolResultError("task_ids must name at least one task"), nil
	}

	engine := reconcile.New(s.api)
	result, attachErr := engine.AttachTasks(ctx, sprintID, taskIDs)

	updated := make([]taskOut, len(result.Updated))
	for i, t := range result.Updated {
		updated[i] = toTaskOut(t)
	}
	failed := make([]map[string]string, len(result.Failed))
	for i, f := range result.Failed {
		failed[i] = map[string]string{"task_id": f.TaskID, "error": f.Err.Error()}
	}

	out := map[string]any{
		"updated": updated,
		"failed":  failed,
	}
	if attachErr != nil {
		out["error"] = attachErr.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// tb_generate_report
func (s *Server) generateReportTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tb_generate_report",
		mcp.WithDescription("Generate a markdown report for a project. Type is SPRINT_SUMMARY, PROGRESS, or CUSTOM; CUSTOM reports follow the prompt."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project id, key, or name")),
		mcp.WithString("type", mcp.Description("Report type (default: PROGRESS)")),
		mcp.WithString("prompt", mcp.Description("Extra instructions for CUSTOM reports")),
	)
	return tool, s.handleGenerateReport
}

func (s *Server) handleGenerateReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRef, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project"), nil
	}
	p, err := s.resolveProject(ctx, projectRef)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reportType := models.ReportType(request.GetString("type", string(models.ReportTypeProgress)))
	prompt := request.GetString("prompt", "")

	report, err := s.api.GenerateReport(ctx, client.GenerateReportRequest{
		ProjectID: p.ID,
		Prompt:    prompt,
		Type:      reportType,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to generate report: %v", err)), nil
	}

	result := map[string]any{
		"id":      report.ID,
		"title":   report.Title,
		"type":    string(report.Type),
		"content": report.Content,
	}
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
