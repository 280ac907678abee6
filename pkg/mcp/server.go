package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/remap/internal/engine"
	"github.com/rendis/remap/internal/logging"
)

// RemapServerDeps holds the dependencies for creating a RemapServer.
type RemapServerDeps struct {
	Executor engine.Executor
	Logger   *slog.Logger
	Version  string
}

// RemapServer wraps an MCP server with remapper tool handlers.
type RemapServer struct {
	executor  engine.Executor
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewRemapServer creates a new RemapServer with all 3 tools registered.
func NewRemapServer(deps RemapServerDeps) *RemapServer {
	logger := deps.Logger
	if logger == nil {
		logger = logging.New(os.Stderr, slog.LevelInfo, false)
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &RemapServer{
		executor: deps.Executor,
		logger:   logger,
	}

	mcpSrv := server.NewMCPServer(
		"remap",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Remap evaluates declarative remapper documents (JSON or YAML) against input data. Use remap.operators to discover operators, remap.validate to check a document, and remap.evaluate to run it."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *RemapServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(logging.WithSurface(ctx, "mcp"), os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *RemapServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *RemapServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: evaluateTool(), Handler: s.handleEvaluate},
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: operatorsTool(), Handler: s.handleOperators},
	}
}

// --- Tool definitions ---

func evaluateTool() mcp.Tool {
	return mcp.NewTool("remap.evaluate",
		mcp.WithDescription("Evaluate a remapper document against input data"),
		mcp.WithString("remapper", mcp.Required(), mcp.Description("Remapper document as JSON or YAML")),
		mcp.WithString("input", mcp.Description("Input value as JSON or YAML (default: null)")),
		mcp.WithString("inputs", mcp.Description("JSON or YAML list of inputs; the remapper is applied to each and one result per input is returned")),
		mcp.WithObject("context", mcp.Description("Evaluation context: appId, appUrl, url, locale, pageName, pageData, member, group, context, history, variables, step, tab, timeZone")),
		mcp.WithString("locale", mcp.Description("Locale for messages and number formatting (overrides context.locale)")),
		mcp.WithObject("messages", mcp.Description("Message templates by id, used by string.format and translate in this call")),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("remap.validate",
		mcp.WithDescription("Validate a remapper document without evaluating it"),
		mcp.WithString("remapper", mcp.Required(), mcp.Description("Remapper document as JSON or YAML")),
	)
}

func operatorsTool() mcp.Tool {
	return mcp.NewTool("remap.operators",
		mcp.WithDescription("List the available remapper operators"),
		mcp.WithString("family", mcp.Description("Only list operators of this family (navigation, logic, array, object, string, date, random, generator, expression)")),
	)
}
