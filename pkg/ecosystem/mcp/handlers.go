package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ormasoftchile/mcpstd/pkg/diagram"
	"github.com/ormasoftchile/mcpstd/pkg/document"
	"github.com/ormasoftchile/mcpstd/pkg/manager"
	"github.com/ormasoftchile/mcpstd/pkg/report"
	"github.com/ormasoftchile/mcpstd/pkg/scenario"
	"github.com/ormasoftchile/mcpstd/pkg/standard"
)

// Handlers implements the MCP tools. Each call builds its own manager, so
// calls may run concurrently.
type Handlers struct {
	Log *zap.Logger
}

func (h *Handlers) logger() *zap.Logger {
	if h == nil || h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// HandleValidate implements the mcpstd/validate MCP tool.
func (h *Handlers) HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	cfg, _ := args["config"].(string)
	format, err := report.ParseFormat(stringArg(args, "format"))
	if err != nil {
		return errorResult(err.Error()), nil
	}

	std, _, err := standard.Resolve(path, cfg)
	if err != nil {
		return errorResult(fmt.Sprintf("config: %s", err)), nil
	}
	// Tool calls only read the tree.
	std.NormalizeEncoding = false
	rep, err := manager.New(path, std, h.logger()).Run(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("validation interrupted: %s", err)), nil
	}

	data, err := report.Render(rep, format)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: !rep.Success(),
	}, nil
}

// HandleSchema implements the mcpstd/schema MCP tool.
func (h *Handlers) HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := document.ParseKind(stringArg(req.GetArguments(), "type"))
	if err != nil {
		return errorResult(err.Error()), nil
	}
	data, err := document.GenerateJSONSchema(kind)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// HandleGraph implements the mcpstd/graph MCP tool.
func (h *Handlers) HandleGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	format, err := diagram.ParseFormat(stringArg(args, "format"))
	if err != nil {
		return errorResult(err.Error()), nil
	}

	std, _, err := standard.Resolve(path, "")
	if err != nil {
		return errorResult(fmt.Sprintf("config: %s", err)), nil
	}
	skip := func(name string) bool { return std.Ignored(standard.DirContexts + "/" + name) }
	g, err := diagram.Build(filepath.Join(path, standard.DirContexts), document.NewLoader(false, h.logger()), skip)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	out, err := diagram.Generate(g, format)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(out), nil
}

// HandleTest implements the mcpstd/test MCP tool.
func (h *Handlers) HandleTest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	name, _ := args["scenario"].(string)

	runner := &scenario.Runner{Timeout: 30 * time.Second, Log: h.logger()}

	var output *scenario.Output
	if name != "" {
		result, err := runner.RunScenario(ctx, path, name)
		if err != nil {
			return errorResult(fmt.Sprintf("run scenario: %s", err)), nil
		}
		output = &scenario.Output{Dir: path, Scenarios: []scenario.Result{*result}}
		output.Summary.Add(*result)
	} else {
		var err error
		output, err = runner.RunAll(ctx, path, false)
		if err != nil {
			return errorResult(fmt.Sprintf("run scenarios: %s", err)), nil
		}
	}

	data, _ := json.MarshalIndent(output, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: !output.Summary.OK(),
	}, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
