package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bchakour/tb/internal/client"
	"github.com/bchakour/tb/internal/models"
	"github.com/bchakour/tb/internal/output"
)

var (
	projectCreateKey  string
	projectCreateDesc string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  "List, create, and inspect projects.",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectListRun()
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectCreateRun(args[0])
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Show project details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectShowRun(args[0])
	},
}

var projectMembersCmd = &cobra.Command{
	Use:   "members <project>",
	Short: "List project members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectMembersRun(args[0])
	},
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectCreateKey, "key", "", "Project key, 2-5 uppercase letters (e.g. TRK)")
	projectCreateCmd.Flags().StringVar(&projectCreateDesc, "description", "", "Project description")
	_ = projectCreateCmd.MarkFlagRequired("key")

	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectMembersCmd)
	rootCmd.AddCommand(projectCmd)
}

// resolveProject finds a project by id, key, or name.
func resolveProject(ctx context.Context, c *client.Client, ref string) (*models.Project, error) {
	projects, err := c.ListProjects(ctx)
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

func projectListRun() error {
	c, err := getClient()
	if err != nil {
		return err
	}

	projects, err := c.ListProjects(context.Background())
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		ui.Info("No projects. Use 'tb project create <name> --key <KEY>' to create one.")
		return nil
	}

	table := ui.Table([]string{"Key", "Name", "Lead", "Created"})
	for _, p := range projects {
		lead := ""
		if p.Lead != nil {
			lead = p.Lead.Name
		}
		table.Append([]string{
			output.Cyan(p.Key),
			p.Name,
			lead,
			p.CreatedAt.Format("2006-01-02"),
		})
	}
	table.Render()
	return nil
}

func projectCreateRun(name string) error {
	project := &models.Project{
		Name:        name,
		Key:         strings.ToUpper(projectCreateKey),
		Description: projectCreateDesc,
	}
	if err := project.Validate(); err != nil {
		return err
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would create project %s (%s)", name, project.Key)
		return nil
	}

	created, err := c.CreateProject(context.Background(), project)
	if err != nil {
		return err
	}

	ui.Success("Created project %s (%s)", created.Name, created.Key)
	return nil
}

func projectShowRun(ref string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, c, ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan(p.Key), p.Name)
	if p.Description != "" {
		fmt.Fprintf(ui.Out, "  %s\n", p.Description)
	}
	if p.Lead != nil {
		fmt.Fprintf(ui.Out, "  Lead: %s\n", p.Lead.Name)
	}
	fmt.Fprintln(ui.Out)

	sprints, err := c.ListProjectSprints(ctx, p.ID)
	if err != nil {
		return err
	}
	tasks, err := c.ListProjectTasks(ctx, p.ID)
	if err != nil {
		return err
	}

	active := 0
	for _, sp := range sprints {
		if sp.Status == models.SprintStatusActive {
			active++
		}
	}
	done := 0
	for _, t := range tasks {
		if t.Status == models.TaskStatusDone {
			done++
		}
	}

	fmt.Fprintf(ui.Out, "  Sprints: %d (%d active)\n", len(sprints), active)
	fmt.Fprintf(ui.Out, "  Tasks:   %d (%d done)\n", len(tasks), done)
	return nil
}

func projectMembersRun(ref string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, c, ref)
	if err != nil {
		return err
	}

	members, err := c.ListProjectMembers(ctx, p.ID)
	if err != nil {
		return err
	}

	if len(members) == 0 {
		ui.Info("No members on %s.", p.Key)
		return nil
	}

	table := ui.Table([]string{"Name", "Email", "Role"})
	for _, m := range members {
		table.Append([]string{m.Name, m.Email, string(m.Role)})
	}
	table.Render()
	return nil
}
