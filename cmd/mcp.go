package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bchakour/tb/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets coding agents query and drive the board natively. Configure
with:

  {
    "mcpServers": {
      "tb": { "command": "tb", "args": ["mcp"] }
    }
  }

Available tools: tb_list_projects, tb_board, tb_task_detail,
tb_create_task, tb_move_task, tb_attach_sprint, tb_generate_report.
Tools act through the configured API server with your session token,
so run 'tb login' first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getClient()
		if err != nil {
			return err
		}
		return mcp.NewServer(c).ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
