package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/chorus/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets MCP clients query past review runs and validate manifests.
Configure in a client with:

  {
    "mcpServers": {
      "chorus": { "command": "chorus", "args": ["mcp"] }
    }
  }

Available tools: chorus_list_runs, chorus_get_run, chorus_validate_manifest`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		_, registered, err := buildRegistry()
		if err != nil {
			return err
		}

		srv := mcp.NewServer(s, registered)
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
