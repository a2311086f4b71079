package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/apiscout/apiscout/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the assistant and catalog search as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline()
		if err != nil {
			return err
		}
		defer p.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "apiscout MCP server started on stdio (provider=%s, model=%s)\n",
			p.cfg.Provider, p.cfg.Model)

		return mcpserver.NewServer(p.orchestrator, p.catalog, p.settings).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
