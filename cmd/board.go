package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bchakour/tb/internal/board"
	"github.com/bchakour/tb/internal/client"
	"github.com/bchakour/tb/internal/models"
	"github.com/bchakour/tb/internal/output"
)

var boardMoveProject string

var boardCmd = &cobra.Command{
	Use:   "board <project>",
	Short: "Show the kanban board for a project",
	Long: `Show the kanban board for a project, one column per status.

Tasks appear in the order the server returns them; moving a task between
columns does not reshuffle the rest of the board.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return boardShowRun(args[0])
	},
}

var boardMoveCmd = &cobra.Command{
	Use:   "move <task> <status>",
	Short: "Move a task to another column",
	Long: `Move a task to another status column.

The move is applied locally first and confirmed against the server; if
the server rejects it, the board state is rolled back. The task may be
given by id, or by key (e.g. TRK-42) together with --project.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return boardMoveRun(args[0], args[1])
	},
}

func init() {
	boardMoveCmd.Flags().StringVar(&boardMoveProject, "project", "", "Project to resolve a task key against")

	boardCmd.AddCommand(boardMoveCmd)
	rootCmd.AddCommand(boardCmd)
}

// parseStatus normalizes user input like "in-progress" to a board status.
func parseStatus(s string) (models.TaskStatus, error) {
	status := models.TaskStatus(strings.ReplaceAll(strings.ToUpper(s), "-", "_"))
	if !status.Valid() {
		return "", fmt.Errorf("unknown status: %s (use: TODO, IN_PROGRESS, IN_REVIEW, DONE)", s)
	}
	return status, nil
}

var boardColumnTitles = map[models.TaskStatus]string{
	models.TaskStatusTodo:       "To Do",
	models.TaskStatusInProgress: "In Progress",
	models.TaskStatusInReview:   "In Review",
	models.TaskStatusDone:       "Done",
}

func boardShowRun(ref string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, c, ref)
	if err != nil {
		return err
	}

	tasks, err := c.ListProjectTasks(ctx, p.ID)
	if err != nil {
		return err
	}

	coll := board.NewCollection()
	coll.Load(tasks)

	fmt.Fprintf(ui.Out, "%s %s\n\n", output.Cyan(p.Key), p.Name)

	headers := make([]string, 0, len(models.TaskStatuses))
	columns := make([][]*models.Task, 0, len(models.TaskStatuses))
	rows := 0
	for _, status := range models.TaskStatuses {
		col := coll.ByStatus(status)
		headers = append(headers, fmt.Sprintf("%s (%d)", boardColumnTitles[status], len(col)))
		columns = append(columns, col)
		if len(col) > rows {
			rows = len(col)
		}
	}

	if rows == 0 {
		ui.Info("Board is empty. Use 'tb task create' to add a task.")
		return nil
	}

	table := ui.Table(headers)
	for i := 0; i < rows; i++ {
		row := make([]string, len(columns))
		for j, col := range columns {
			if i < len(col) {
				row[j] = formatBoardCell(col[i])
			}
		}
		table.Append(row)
	}
	table.Render()
	return nil
}

func formatBoardCell(t *models.Task) string {
	cell := fmt.Sprintf("%s %s", output.Cyan(t.TaskKey), t.Title)
	if t.Assignee != nil {
		cell += fmt.Sprintf(" (%s)", t.Assignee.Name)
	}
	return cell
}

func boardMoveRun(taskRef, statusArg string) error {
	dest, err := parseStatus(statusArg)
	if err != nil {
		return err
	}

	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	coll := board.NewCollection()
	task, err := loadBoardFor(ctx, c, coll, taskRef)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would move %s from %s to %s", task.TaskKey, task.Status, dest)
		return nil
	}

	ctrl := board.NewController(coll, c)
	outcome, err := ctrl.MoveToStatus(ctx, task.ID, dest)

	switch outcome {
	case board.DropApplied:
		ui.Success("Moved %s to %s", task.TaskKey, dest)
		return nil
	case board.DropNoop:
		ui.Info("%s is already in %s", task.TaskKey, dest)
		return nil
	case board.DropReverted:
		ui.Error("Move rejected by server; board unchanged")
		return err
	default:
		if err == nil {
			err = fmt.Errorf("invalid move for %s", task.TaskKey)
		}
		return err
	}
}

// loadBoardFor fills coll with the tasks the move is resolved against and
// returns the referenced task. With --project the whole board is loaded and
// the task may be referenced by key; otherwise the id is fetched directly.
func loadBoardFor(ctx context.Context, c *client.Client, coll *board.Collection, taskRef string) (*models.Task, error) {
	if boardMoveProject != "" {
		p, err := resolveProject(ctx, c, boardMoveProject)
		if err != nil {
			return nil, err
		}
		tasks, err := c.ListProjectTasks(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		coll.Load(tasks)

		for _, t := range tasks {
			if t.ID == taskRef || strings.EqualFold(t.TaskKey, taskRef) {
				return t, nil
			}
		}
		return nil, fmt.Errorf("task not found on board: %s", taskRef)
	}

	task, err := c.GetTask(ctx, taskRef)
	if err != nil {
		return nil, err
	}
	coll.Load([]*models.Task{task})
	return task, nil
}
