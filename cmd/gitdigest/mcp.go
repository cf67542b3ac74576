package main

import (
	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitdigest/internal/digest"
	"github.com/rohankatakam/gitdigest/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the activity report as an MCP tool over stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing the
activity_report tool. Repository selection comes from the usual config,
environment and flags; each call may override days, mode, author and filter.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := &digest.Digest{Config: cfg, Logger: component("digest")}
		server := mcp.NewServer(d, Version, component("mcp"))

		component("mcp").Debug("serving MCP on stdio")
		return server.Run(cmd.Context())
	},
}
