package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bchakour/tb/internal/client"
	"github.com/bchakour/tb/internal/models"
	"github.com/bchakour/tb/internal/output"
	"github.com/bchakour/tb/internal/progress"
	"github.com/bchakour/tb/internal/reconcile"
)

var (
	sprintProject string

	sprintCreateGoal  string
	sprintCreateStart string
	sprintCreateEnd   string
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Manage sprints",
	Long:  "List, create, and run sprints, and move tasks in and out of them.",
}

var sprintListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sprints for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sprintListRun()
	},
}

var sprintCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a sprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sprintCreateRun(args[0])
	},
}

var sprintStartCmd = &cobra.Command{
	Use:   "start <sprint>",
	Short: "Start a planned sprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sprintTransitionRun(args[0], "start")
	},
}

var sprintCompleteCmd = &cobra.Command{
	Use:   "complete <sprint>",
	Short: "Complete an active sprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sprintTransitionRun(args[0], "complete")
	},
}

var sprintAddCmd = &cobra.Command{
	Use:   "add <sprint> <task-id>...",
	Short: "Add tasks to a sprint",
	Long: `Add one or more tasks to a sprint.

Each task is reconciled independently; a failing task does not block the
rest of the batch, and the successes are kept.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sprintAddRun(args[0], args[1:])
	},
}

var sprintRemoveCmd = &cobra.Command{
	Use:   "remove <task-id>...",
	Short: "Remove tasks from their sprint (back to backlog)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sprintRemoveRun(args)
	},
}

var sprintStatusCmd = &cobra.Command{
	Use:   "status <sprint>",
	Short: "Show sprint progress score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sprintStatusRun(args[0])
	},
}

func init() {
	sprintCmd.PersistentFlags().StringVar(&sprintProject, "project", "", "Project to resolve sprint names against")

	sprintCreateCmd.Flags().StringVar(&sprintCreateGoal, "goal", "", "Sprint goal")
	sprintCreateCmd.Flags().StringVar(&sprintCreateStart, "start", "", "Start date (YYYY-MM-DD)")
	sprintCreateCmd.Flags().StringVar(&sprintCreateEnd, "end", "", "End date (YYYY-MM-DD)")
	_ = sprintCreateCmd.MarkFlagRequired("start")
	_ = sprintCreateCmd.MarkFlagRequired("end")

	sprintCmd.AddCommand(sprintListCmd)
	sprintCmd.AddCommand(sprintCreateCmd)
	sprintCmd.AddCommand(sprintStartCmd)
	sprintCmd.AddCommand(sprintCompleteCmd)
	sprintCmd.AddCommand(sprintAddCmd)
	sprintCmd.AddCommand(sprintRemoveCmd)
	sprintCmd.AddCommand(sprintStatusCmd)
	rootCmd.AddCommand(sprintCmd)
}

// resolveSprint finds a sprint by id, or by name within --project.
func resolveSprint(ctx context.Context, c *client.Client, ref string) (*models.Sprint, error) {
	if sprintProject != "" {
		p, err := resolveProject(ctx, c, sprintProject)
		if err != nil {
			return nil, err
		}
		sprints, err := c.ListProjectSprints(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, sp := range sprints {
			if sp.ID == ref || strings.EqualFold(sp.Name, ref) {
				return sp, nil
			}
		}
		return nil, fmt.Errorf("sprint not found in %s: %s", p.Key, ref)
	}
	return c.GetSprint(ctx, ref)
}

func sprintListRun() error {
	if sprintProject == "" {
		return fmt.Errorf("--project is required")
	}

	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, c, sprintProject)
	if err != nil {
		return err
	}

	sprints, err := c.ListProjectSprints(ctx, p.ID)
	if err != nil {
		return err
	}

	if len(sprints) == 0 {
		ui.Info("No sprints in %s.", p.Key)
		return nil
	}

	table := ui.Table([]string{"Name", "Status", "Start", "End", "Goal"})
	for _, sp := range sprints {
		table.Append([]string{
			sp.Name,
			output.SprintColor(sp.Status),
			sp.StartDate.String(),
			sp.EndDate.String(),
			sp.Goal,
		})
	}
	table.Render()
	return nil
}

func sprintCreateRun(name string) error {
	if sprintProject == "" {
		return fmt.Errorf("--project is required")
	}

	start, err := models.ParseDate(sprintCreateStart)
	if err != nil {
		return err
	}
	end, err := models.ParseDate(sprintCreateEnd)
	if err != nil {
		return err
	}

	sprint := &models.Sprint{
		Name:      name,
		Goal:      sprintCreateGoal,
		StartDate: start,
		EndDate:   end,
	}
	if err := sprint.Validate(); err != nil {
		return err
	}

	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, c, sprintProject)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would create sprint %q in %s (%s to %s)", name, p.Key, start, end)
		return nil
	}

	created, err := c.CreateSprint(ctx, p.ID, sprint)
	if err != nil {
		return err
	}

	ui.Success("Created sprint %s (%s to %s)", created.Name, created.StartDate, created.EndDate)
	return nil
}

func sprintTransitionRun(ref, action string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	sprint, err := resolveSprint(ctx, c, ref)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would %s sprint %s", action, sprint.Name)
		return nil
	}

	var updated *models.Sprint
	switch action {
	case "start":
		updated, err = c.StartSprint(ctx, sprint.ID)
	case "complete":
		updated, err = c.CompleteSprint(ctx, sprint.ID)
	}
	if err != nil {
		return err
	}

	ui.Success("Sprint %s is now %s", updated.Name, updated.Status)
	return nil
}

func sprintAddRun(ref string, taskIDs []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	sprint, err := resolveSprint(ctx, c, ref)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would add %d task(s) to sprint %s", len(taskIDs), sprint.Name)
		return nil
	}

	result, err := reconcile.New(c).AttachTasks(ctx, sprint.ID, taskIDs)
	for _, t := range result.Updated {
		ui.Success("Added %s to %s", t.TaskKey, sprint.Name)
	}
	for _, f := range result.Failed {
		ui.Warning("Skipped %s: %v", f.TaskID, f.Err)
	}
	return err
}

func sprintRemoveRun(taskIDs []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if dryRun {
		ui.DryRunMsg("Would move %d task(s) back to the backlog", len(taskIDs))
		return nil
	}

	result, err := reconcile.New(c).DetachTasks(ctx, taskIDs)
	for _, t := range result.Updated {
		ui.Success("Moved %s to the backlog", t.TaskKey)
	}
	for _, f := range result.Failed {
		ui.Warning("Skipped %s: %v", f.TaskID, f.Err)
	}
	return err
}

func sprintStatusRun(ref string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	sprint, err := resolveSprint(ctx, c, ref)
	if err != nil {
		return err
	}

	tasks, err := c.ListSprintTasks(ctx, sprint.ID)
	if err != nil {
		return err
	}

	score := progress.NewScorer().Score(sprint, tasks)

	fmt.Fprintf(ui.Out, "%s (%s)  %s to %s\n", sprint.Name, output.SprintColor(sprint.Status), sprint.StartDate, sprint.EndDate)
	if sprint.Goal != "" {
		fmt.Fprintf(ui.Out, "  Goal: %s\n", sprint.Goal)
	}
	fmt.Fprintln(ui.Out)

	fmt.Fprintf(ui.Out, "  Progress score: %s\n\n", output.ScoreColor(score.Total))
	fmt.Fprintf(ui.Out, "    Completion:      %d\n", score.Completion)
	fmt.Fprintf(ui.Out, "    Review pipeline: %d\n", score.ReviewPipeline)
	fmt.Fprintf(ui.Out, "    Timeliness:      %d\n", score.Timeliness)
	fmt.Fprintf(ui.Out, "    Staleness:       %d\n", score.Staleness)
	fmt.Fprintln(ui.Out)
	fmt.Fprintf(ui.Out, "    Done: %d  In review: %d  In progress: %d  To do: %d  Overdue: %d\n",
		score.Done, score.InReview, score.InProgress, score.Todo, score.Overdue)
	return nil
}
