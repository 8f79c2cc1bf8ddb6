// Package mcp exposes validation to AI agents as Model Context Protocol
// tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// NewServer creates an MCP server with the mcpstd tools registered. A nil
// logger discards output.
func NewServer(version string, log *zap.Logger) *server.MCPServer {
	h := &Handlers{Log: log}
	s := server.NewMCPServer(
		"mcpstd",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("mcpstd/validate",
			mcp.WithDescription("Validate a configuration standard tree and return the Markdown report. The report file is not written."),
			mcp.WithString("path", mcp.Required(), mcp.Description("Root directory holding schemas/, contexts/ and tests/")),
			mcp.WithString("config", mcp.Description("Config file overriding the standard (optional)")),
			mcp.WithString("format", mcp.Description("Report format: markdown (default) or json")),
		),
		h.HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("mcpstd/schema",
			mcp.WithDescription("Export the JSON Schema of a document kind"),
			mcp.WithString("type", mcp.Required(), mcp.Description("Document kind: 'schema' or 'context'")),
		),
		h.HandleSchema,
	)

	s.AddTool(
		mcp.NewTool("mcpstd/graph",
			mcp.WithDescription("Draw the context reference graph of a tree"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Root directory holding contexts/")),
			mcp.WithString("format", mcp.Description("Diagram format: mermaid (default) or ascii")),
		),
		h.HandleGraph,
	)

	s.AddTool(
		mcp.NewTool("mcpstd/test",
			mcp.WithDescription("Run regression scenarios: each subdirectory is a tree with an expect.yaml"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Directory holding scenario directories")),
			mcp.WithString("scenario", mcp.Description("Run only the named scenario (optional)")),
		),
		h.HandleTest,
	)

	return s
}
