package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/apiscout/apiscout/internal/catalog"
	"github.com/apiscout/apiscout/internal/orchestrator"
	"github.com/apiscout/apiscout/internal/prompt"
	"github.com/apiscout/apiscout/internal/ranking"
)

// handleAskAssistant runs a question through the completion pipeline.
func (s *Server) handleAskAssistant(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	userID := request.GetString("userId", "mcp")

	result, err := s.orch.Answer(ctx, orchestrator.Request{
		UserID:      userID,
		WorkspaceID: request.GetString("workspaceId", ""),
		Tenant:      request.GetString("tenant", ""),
		Environment: request.GetString("environment", ""),
		Question:    question,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("completion failed: %v", err)), nil
	}

	return mcp.NewToolResultText(result.Answer), nil
}

// handleSearchFunctions ranks the catalog against the query without a model call.
func (s *Server) handleSearchFunctions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	specs, err := s.catalog.Specs(ctx, request.GetString("tenant", ""), request.GetString("environment", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("catalog fetch failed: %v", err)), nil
	}

	matches, stats := s.ranker.Rank(ctx, specs, query)
	if len(matches) == 0 {
		return mcp.NewToolResultText("No matching functions found. Try different keywords."), nil
	}

	return mcp.NewToolResultText(formatMatches(matches, stats)), nil
}

// formatMatches renders ranked matches as text for agent consumption.
func formatMatches(matches []catalog.Spec, stats ranking.Stats) string {
	scores := make(map[string]int, len(stats.FunctionScores)+len(stats.VariableScores))
	for _, sc := range stats.FunctionScores {
		scores[sc.Path] = sc.Score
	}
	for _, sc := range stats.VariableScores {
		scores[sc.Path] = sc.Score
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d match(es) out of %d functions and %d variables:\n",
		len(matches), stats.TotalFunctions, stats.TotalVariables))

	for i, m := range matches {
		sb.WriteString(fmt.Sprintf("\n--- Match %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Path: %s\n", m.Path()))
		sb.WriteString(fmt.Sprintf("Type: %s\n", m.Kind))
		if m.Description != "" {
			sb.WriteString(fmt.Sprintf("Description: %s\n", m.Description))
		}
		if m.Method != "" {
			sb.WriteString(fmt.Sprintf("Method: %s\n", m.Method))
		}
		if score, ok := scores[m.Path()]; ok && score >= 0 {
			sb.WriteString(fmt.Sprintf("Score: %d\n", score))
		}
		if m.Kind.FunctionLike() && m.Function != nil {
			sb.WriteString("\n")
			sb.WriteString(prompt.RenderSignature(m))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
