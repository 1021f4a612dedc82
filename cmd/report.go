package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bchakour/tb/internal/client"
	"github.com/bchakour/tb/internal/models"
	"github.com/bchakour/tb/internal/output"
)

var (
	reportProject string
	reportType    string
	reportPrompt  string

	exportFormat  string
	exportType    string
	exportProject string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and browse AI project reports",
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a report for a project",
	Long: `Generate a report for a project. The server summarizes the project's
sprints and tasks with an LLM; generation takes a few seconds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportGenerateRun()
	},
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportListRun()
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Print a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportShowRun(args[0])
	},
}

var reportDeleteCmd = &cobra.Command{
	Use:   "delete <report-id>",
	Short: "Delete a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportDeleteRun(args[0])
	},
}

func init() {
	reportCmd.PersistentFlags().StringVar(&reportProject, "project", "", "Project the report covers")
	reportGenerateCmd.Flags().StringVar(&reportType, "type", "SPRINT_SUMMARY", "Report type: SPRINT_SUMMARY, PROGRESS, CUSTOM")
	reportGenerateCmd.Flags().StringVar(&reportPrompt, "prompt", "", "Extra instructions for the report")

	reportCmd.AddCommand(reportGenerateCmd)
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportDeleteCmd)
	rootCmd.AddCommand(reportCmd)
}

func reportGenerateRun() error {
	if reportProject == "" {
		return fmt.Errorf("--project is required")
	}

	rt := models.ReportType(strings.ToUpper(reportType))
	if !rt.Valid() {
		return fmt.Errorf("unknown report type: %s (use: SPRINT_SUMMARY, PROGRESS, CUSTOM)", reportType)
	}

	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, c, reportProject)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would generate a %s report for %s", rt, p.Key)
		return nil
	}

	ui.Info("Generating %s report for %s...", rt, p.Key)
	report, err := c.GenerateReport(ctx, client.GenerateReportRequest{
		ProjectID: p.ID,
		Prompt:    reportPrompt,
		Type:      rt,
	})
	if err != nil {
		return err
	}

	ui.Success("Report generated: %s (%s)", report.Title, report.ID)
	fmt.Fprintln(ui.Out)
	fmt.Fprintln(ui.Out, report.Content)
	return nil
}

func reportListRun() error {
	if reportProject == "" {
		return fmt.Errorf("--project is required")
	}

	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, c, reportProject)
	if err != nil {
		return err
	}

	reports, err := c.ListProjectReports(ctx, p.ID)
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		ui.Info("No reports for %s. Use 'tb report generate' to create one.", p.Key)
		return nil
	}

	table := ui.Table([]string{"ID", "Title", "Type", "Author", "Created"})
	for _, r := range reports {
		table.Append([]string{
			r.ID,
			output.Cyan(r.Title),
			string(r.Type),
			r.AuthorName,
			r.CreatedAt.Format("2006-01-02"),
		})
	}
	table.Render()
	return nil
}

func reportShowRun(id string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	report, err := c.GetReport(context.Background(), id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "# %s\n\n", report.Title)
	fmt.Fprintf(ui.Out, "%s | %s | %s\n\n", report.ProjectName, report.Type, report.CreatedAt.Format("2006-01-02"))
	fmt.Fprintln(ui.Out, report.Content)
	return nil
}

func reportDeleteRun(id string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete report %s", id)
		return nil
	}

	if err := c.DeleteReport(context.Background(), id); err != nil {
		return err
	}

	ui.Success("Report deleted")
	return nil
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data as JSON, CSV, or Markdown",
	Long:  "Export projects, tasks, or sprints in various formats.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun()
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json, csv, markdown")
	exportCmd.Flags().StringVar(&exportType, "type", "projects", "Data type: projects, tasks, sprints")
	exportCmd.Flags().StringVar(&exportProject, "project", "", "Project (required for tasks and sprints)")
	rootCmd.AddCommand(exportCmd)
}

func exportRun() error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch exportType {
	case "projects":
		return exportProjects(ctx, c)
	case "tasks":
		return exportTasks(ctx, c)
	case "sprints":
		return exportSprints(ctx, c)
	default:
		return fmt.Errorf("unknown export type: %s (use: projects, tasks, sprints)", exportType)
	}
}

func exportProjects(ctx context.Context, c *client.Client) error {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return err
	}

	switch exportFormat {
	case "json":
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(projects)
	case "csv":
		w := csv.NewWriter(ui.Out)
		w.Write([]string{"ID", "Key", "Name", "Description", "Created"})
		for _, p := range projects {
			w.Write([]string{p.ID, p.Key, p.Name, p.Description, p.CreatedAt.Format("2006-01-02")})
		}
		w.Flush()
		return w.Error()
	case "markdown":
		fmt.Fprintln(ui.Out, "# Projects")
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, "| Key | Name | Description |")
		fmt.Fprintln(ui.Out, "|-----|------|-------------|")
		for _, p := range projects {
			fmt.Fprintf(ui.Out, "| %s | %s | %s |\n", p.Key, p.Name, p.Description)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", exportFormat)
	}
}

func exportTasks(ctx context.Context, c *client.Client) error {
	if exportProject == "" {
		return fmt.Errorf("--project is required for task export")
	}
	p, err := resolveProject(ctx, c, exportProject)
	if err != nil {
		return err
	}
	tasks, err := c.ListProjectTasks(ctx, p.ID)
	if err != nil {
		return err
	}

	switch exportFormat {
	case "json":
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case "csv":
		w := csv.NewWriter(ui.Out)
		w.Write([]string{"Key", "Title", "Type", "Status", "Priority", "Assignee", "Due"})
		for _, t := range tasks {
			assignee := ""
			if t.Assignee != nil {
				assignee = t.Assignee.Email
			}
			due := ""
			if t.DueDate != nil {
				due = t.DueDate.String()
			}
			w.Write([]string{t.TaskKey, t.Title, string(t.Type), string(t.Status), string(t.Priority), assignee, due})
		}
		w.Flush()
		return w.Error()
	case "markdown":
		fmt.Fprintf(ui.Out, "# Tasks: %s\n", p.Name)
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, "| Key | Title | Status | Priority |")
		fmt.Fprintln(ui.Out, "|-----|-------|--------|----------|")
		for _, t := range tasks {
			fmt.Fprintf(ui.Out, "| %s | %s | %s | %s |\n", t.TaskKey, t.Title, t.Status, t.Priority)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", exportFormat)
	}
}

func exportSprints(ctx context.Context, c *client.Client) error {
	if exportProject == "" {
		return fmt.Errorf("--project is required for sprint export")
	}
	p, err := resolveProject(ctx, c, exportProject)
	if err != nil {
		return err
	}
	sprints, err := c.ListProjectSprints(ctx, p.ID)
	if err != nil {
		return err
	}

	switch exportFormat {
	case "json":
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(sprints)
	case "csv":
		w := csv.NewWriter(ui.Out)
		w.Write([]string{"ID", "Name", "Status", "Start", "End", "Goal"})
		for _, sp := range sprints {
			w.Write([]string{sp.ID, sp.Name, string(sp.Status), sp.StartDate.String(), sp.EndDate.String(), sp.Goal})
		}
		w.Flush()
		return w.Error()
	case "markdown":
		fmt.Fprintf(ui.Out, "# Sprints: %s\n", p.Name)
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, "| Name | Status | Start | End |")
		fmt.Fprintln(ui.Out, "|------|--------|-------|-----|")
		for _, sp := range sprints {
			fmt.Fprintf(ui.Out, "| %s | %s | %s | %s |\n", sp.Name, sp.Status, sp.StartDate, sp.EndDate)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", exportFormat)
	}
}
