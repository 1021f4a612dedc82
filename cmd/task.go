package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bchakour/tb/internal/client"
	"github.com/bchakour/tb/internal/hydrate"
	"github.com/bchakour/tb/internal/models"
	"github.com/bchakour/tb/internal/output"
)

var (
	taskListProject string
	taskListSprint  string
	taskListMine    bool

	taskCreateProject  string
	taskCreateType     string
	taskCreatePriority string
	taskCreateDesc     string
	taskCreateDue      string

	taskUpdateTitle    string
	taskUpdateDesc     string
	taskUpdateStatus   string
	taskUpdatePriority string
	taskUpdateAssignee string
	taskUpdateDue      string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  "List, create, inspect, and update tasks.",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks by project, sprint, or assignee",
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskListRun()
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show task details with comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskShowRun(args[0])
	},
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskCreateRun(args[0])
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Update task fields",
	Long: `Update one or more fields of a task.

Status, priority, and assignee changes are applied optimistically and
confirmed against the server; a rejected change is rolled back.`,
	Args: cobra.ExactArgs(1),
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskDeleteRun(args[0])
	},
}

func init() {
	taskUpdateCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return taskUpdateRun(args[0])
	}

	taskListCmd.Flags().StringVar(&taskListProject, "project", "", "List tasks for a project")
	taskListCmd.Flags().StringVar(&taskListSprint, "sprint", "", "List tasks for a sprint id")
	taskListCmd.Flags().BoolVar(&taskListMine, "mine", false, "List tasks assigned to you")

	taskCreateCmd.Flags().StringVar(&taskCreateProject, "project", "", "Project the task belongs to")
	taskCreateCmd.Flags().StringVar(&taskCreateType, "type", "TASK", "Type: TASK, BUG, STORY, EPIC")
	taskCreateCmd.Flags().StringVar(&taskCreatePriority, "priority", "MEDIUM", "Priority: HIGHEST, HIGH, MEDIUM, LOW, LOWEST")
	taskCreateCmd.Flags().StringVar(&taskCreateDesc, "description", "", "Task description")
	taskCreateCmd.Flags().StringVar(&taskCreateDue, "due", "", "Due date (YYYY-MM-DD)")
	_ = taskCreateCmd.MarkFlagRequired("project")

	taskUpdateCmd.Flags().StringVar(&taskUpdateTitle, "title", "", "New title")
	taskUpdateCmd.Flags().StringVar(&taskUpdateDesc, "description", "", "New description")
	taskUpdateCmd.Flags().StringVar(&taskUpdateStatus, "status", "", "New status")
	taskUpdateCmd.Flags().StringVar(&taskUpdatePriority, "priority", "", "New priority")
	taskUpdateCmd.Flags().StringVar(&taskUpdateAssignee, "assignee", "", "Assignee id or email ('' to unassign)")
	taskUpdateCmd.Flags().StringVar(&taskUpdateDue, "due", "", "New due date (YYYY-MM-DD)")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}

func taskListRun() error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	var tasks []*models.Task
	switch {
	case taskListMine:
		tasks, err = c.ListAssignedTasks(ctx)
	case taskListSprint != "":
		tasks, err = c.ListSprintTasks(ctx, taskListSprint)
	case taskListProject != "":
		var p *models.Project
		if p, err = resolveProject(ctx, c, taskListProject); err != nil {
			return err
		}
		tasks, err = c.ListProjectTasks(ctx, p.ID)
	default:
		return fmt.Errorf("specify --project, --sprint, or --mine")
	}
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		ui.Info("No tasks found.")
		return nil
	}

	table := ui.Table([]string{"Key", "Title", "Type", "Status", "Priority", "Assignee"})
	for _, t := range tasks {
		assignee := ""
		if t.Assignee != nil {
			assignee = t.Assignee.Name
		}
		table.Append([]string{
			output.Cyan(t.TaskKey),
			t.Title,
			string(t.Type),
			output.StatusColor(t.Status),
			output.PriorityColor(t.Priority),
			assignee,
		})
	}
	table.Render()
	return nil
}

func taskShowRun(id string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	detail := hydrate.Open(c, id)
	defer detail.Close()
	if err := detail.Load(ctx); err != nil {
		return err
	}

	task := detail.Task()
	fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan(task.TaskKey), task.Title)
	fmt.Fprintf(ui.Out, "  Type:     %s\n", task.Type)
	fmt.Fprintf(ui.Out, "  Status:   %s\n", output.StatusColor(task.Status))
	fmt.Fprintf(ui.Out, "  Priority: %s\n", output.PriorityColor(task.Priority))
	if task.Assignee != nil {
		fmt.Fprintf(ui.Out, "  Assignee: %s\n", task.Assignee.Name)
	}
	if task.Reporter != nil {
		fmt.Fprintf(ui.Out, "  Reporter: %s\n", task.Reporter.Name)
	}
	if task.Sprint != nil {
		fmt.Fprintf(ui.Out, "  Sprint:   %s (%s)\n", task.Sprint.Name, output.SprintColor(task.Sprint.Status))
	}
	if task.DueDate != nil {
		fmt.Fprintf(ui.Out, "  Due:      %s\n", task.DueDate.String())
	}
	if task.Description != "" {
		fmt.Fprintf(ui.Out, "\n%s\n", task.Description)
	}

	comments := detail.Comments()
	if len(comments) > 0 {
		fmt.Fprintf(ui.Out, "\nComments (%d):\n", len(comments))
		for _, cm := range comments {
			fmt.Fprintf(ui.Out, "  [%s] %s: %s\n", cm.CreatedAt.Format("2006-01-02 15:04"), cm.AuthorName, cm.Text)
		}
	}
	return nil
}

func taskCreateRun(title string) error {
	taskType := models.TaskType(strings.ToUpper(taskCreateType))
	if !taskType.Valid() {
		return fmt.Errorf("unknown type: %s (use: TASK, BUG, STORY, EPIC)", taskCreateType)
	}
	priority := models.TaskPriority(strings.ToUpper(taskCreatePriority))
	if !priority.Valid() {
		return fmt.Errorf("unknown priority: %s (use: HIGHEST, HIGH, MEDIUM, LOW, LOWEST)", taskCreatePriority)
	}

	task := &models.Task{
		Title:       title,
		Description: taskCreateDesc,
		Type:        taskType,
		Priority:    priority,
	}
	if taskCreateDue != "" {
		due, err := models.ParseDate(taskCreateDue)
		if err != nil {
			return err
		}
		task.DueDate = &due
	}

	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, c, taskCreateProject)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would create %s task %q in %s", taskType, title, p.Key)
		return nil
	}

	created, err := c.CreateTask(ctx, p.ID, task)
	if err != nil {
		return err
	}

	ui.Success("Created %s: %s", created.TaskKey, created.Title)
	return nil
}

func taskUpdateRun(id string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	detail := hydrate.Open(c, id)
	defer detail.Close()
	if err := detail.Load(ctx); err != nil {
		return err
	}
	task := detail.Task()

	if dryRun {
		ui.DryRunMsg("Would update %s", task.TaskKey)
		return nil
	}

	changed := false

	if taskUpdateStatus != "" {
		status, err := parseStatus(taskUpdateStatus)
		if err != nil {
			return err
		}
		if err := detail.SetStatus(ctx, status); err != nil {
			return fmt.Errorf("set status: %w", err)
		}
		changed = true
	}

	if taskUpdatePriority != "" {
		priority := models.TaskPriority(strings.ToUpper(taskUpdatePriority))
		if !priority.Valid() {
			return fmt.Errorf("unknown priority: %s", taskUpdatePriority)
		}
		if err := detail.SetPriority(ctx, priority); err != nil {
			return fmt.Errorf("set priority: %w", err)
		}
		changed = true
	}

	if cmdFlagChanged(taskUpdateCmd, "assignee") {
		userID := ""
		if taskUpdateAssignee != "" {
			u, err := resolveUser(ctx, c, taskUpdateAssignee)
			if err != nil {
				return err
			}
			userID = u.ID
		}
		if err := detail.SetAssignee(ctx, userID); err != nil {
			return fmt.Errorf("set assignee: %w", err)
		}
		changed = true
	}

	if taskUpdateTitle != "" || taskUpdateDesc != "" || taskUpdateDue != "" {
		fresh, err := c.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if taskUpdateTitle != "" {
			fresh.Title = taskUpdateTitle
		}
		if taskUpdateDesc != "" {
			fresh.Description = taskUpdateDesc
		}
		if taskUpdateDue != "" {
			due, err := models.ParseDate(taskUpdateDue)
			if err != nil {
				return err
			}
			fresh.DueDate = &due
		}
		if _, err := c.UpdateTask(ctx, id, fresh); err != nil {
			return err
		}
		changed = true
	}

	if !changed {
		ui.Info("Nothing to update. See 'tb task update --help' for fields.")
		return nil
	}

	ui.Success("Updated %s", task.TaskKey)
	return nil
}

func taskDeleteRun(id string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	task, err := c.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete %s: %s", task.TaskKey, task.Title)
		return nil
	}

	if err := c.DeleteTask(ctx, id); err != nil {
		return err
	}

	ui.Success("Deleted %s", task.TaskKey)
	return nil
}

// resolveUser finds a user by id, email, or name.
func resolveUser(ctx context.Context, c *client.Client, ref string) (*models.User, error) {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == ref || strings.EqualFold(u.Email, ref) || strings.EqualFold(u.Name, ref) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user not found: %s", ref)
}

// cmdFlagChanged reports whether the flag was set on the command line,
// distinguishing an explicit empty value (unassign) from an absent flag.
func cmdFlagChanged(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Changed(name)
}
