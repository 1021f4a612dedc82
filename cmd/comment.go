package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Manage task comments",
}

var commentListCmd = &cobra.Command{
	Use:   "list <task-id>",
	Short: "List comments on a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentListRun(args[0])
	},
}

var commentAddCmd = &cobra.Command{
	Use:   "add <task-id> <text>",
	Short: "Add a comment to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentAddRun(args[0], args[1])
	},
}

var commentDeleteCmd = &cobra.Command{
	Use:   "delete <comment-id>",
	Short: "Delete your own comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentDeleteRun(args[0])
	},
}

func init() {
	commentCmd.AddCommand(commentListCmd)
	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentDeleteCmd)
	rootCmd.AddCommand(commentCmd)
}

func commentListRun(taskID string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	comments, err := c.ListTaskComments(context.Background(), taskID)
	if err != nil {
		return err
	}

	if len(comments) == 0 {
		ui.Info("No comments.")
		return nil
	}

	for _, cm := range comments {
		fmt.Fprintf(ui.Out, "[%s] %s (%s)\n", cm.CreatedAt.Format("2006-01-02 15:04"), cm.AuthorName, cm.ID)
		fmt.Fprintf(ui.Out, "  %s\n", cm.Text)
	}
	return nil
}

func commentAddRun(taskID, text string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would comment on task %s", taskID)
		return nil
	}

	created, err := c.CreateComment(context.Background(), taskID, text)
	if err != nil {
		return err
	}

	ui.Success("Comment added (%s)", created.ID)
	return nil
}

func commentDeleteRun(id string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete comment %s", id)
		return nil
	}

	if err := c.DeleteComment(context.Background(), id); err != nil {
		return err
	}

	ui.Success("Comment deleted")
	return nil
}
