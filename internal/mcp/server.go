// Package mcp exposes the assistant over the Model Context Protocol so
// editors and agents can ask questions and search the function catalog.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/apiscout/apiscout/internal/catalog"
	"github.com/apiscout/apiscout/internal/orchestrator"
	"github.com/apiscout/apiscout/internal/ranking"
	"github.com/apiscout/apiscout/internal/settings"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes assistant tools.
type Server struct {
	orch    *orchestrator.Orchestrator
	catalog catalog.Fetcher
	ranker  *ranking.Ranker
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(orch *orchestrator.Orchestrator, fetcher catalog.Fetcher, cfg *settings.Settings) *Server {
	s := &Server{
		orch:    orch,
		catalog: fetcher,
		ranker:  ranking.NewRanker(cfg),
	}

	s.mcp = server.NewMCPServer(
		"apiscout",
		Version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(askAssistantTool, s.handleAskAssistant)
	s.mcp.AddTool(searchFunctionsTool, s.handleSearchFunctions)

	return s
}

// Serve starts the MCP server on stdio. Stdout carries protocol messages;
// all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
