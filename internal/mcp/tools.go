package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askAssistantTool defines the ask_assistant MCP tool.
var askAssistantTool = mcp.NewTool("ask_assistant",
	mcp.WithDescription("Ask the API assistant a question. Routes the question through the full completion pipeline: slash commands select a route, otherwise the catalog is searched for a matching function and a usage example is generated."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question, optionally prefixed with a slash command (/f, /g, /d, /h)"),
	),
	mcp.WithString("userId",
		mcp.Description("User id owning the conversation (default \"mcp\")"),
	),
	mcp.WithString("workspaceId",
		mcp.Description("Workspace id isolating the conversation"),
	),
	mcp.WithString("tenant",
		mcp.Description("Tenant whose catalog should be searched"),
	),
	mcp.WithString("environment",
		mcp.Description("Environment whose catalog should be searched"),
	),
)

// searchFunctionsTool defines the search_functions MCP tool.
var searchFunctionsTool = mcp.NewTool("search_functions",
	mcp.WithDescription("Search the function catalog by keywords. Returns the best-matching functions and variables with their similarity scores, without calling the model."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Space-separated keywords to match against function names and descriptions"),
	),
	mcp.WithString("tenant",
		mcp.Description("Tenant whose catalog should be searched"),
	),
	mcp.WithString("environment",
		mcp.Description("Environment whose catalog should be searched"),
	),
)
