// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for AI assistant integration.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/harperreed/exist/internal/logging"
	"github.com/harperreed/exist/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout; logs go to stderr.

CONFIGURATION:

  {
    "mcpServers": {
      "exist": { "command": "exist", "args": ["mcp"] }
    }
  }

AVAILABLE TOOLS:

  list_users        List all users
  list_attributes   List attribute definitions
  get_dashboard     A user's grouped attributes, current values and score
  record_value      Record a day's value for a tracked attribute
  set_tracking      Start/stop tracking an attribute or change its privacy
  log_activity      Record a page action in the activity log

AVAILABLE RESOURCES:

  exist://users        Users with tracked counts and scores
  exist://attributes   Attribute definitions by group`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mcp.Version = version
		server, err := mcp.NewServer(repo, logging.Component(logger, "mcp"))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
