// Package mcp exposes the rules core to AI agents over the Model Context
// Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/data-alchemist/internal/assistant"
	"github.com/ziadkadry99/data-alchemist/internal/workspace"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server whose tools read from a workspace.
type Server struct {
	ws     *workspace.Workspace
	parser *assistant.Parser
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server. parser may be nil, in which case only
// the heuristic rule parser is used.
func NewServer(ws *workspace.Workspace, parser *assistant.Parser) *Server {
	if parser == nil {
		parser = assistant.NewParser(nil, "", 0)
	}
	s := &Server{
		ws:     ws,
		parser: parser,
	}

	s.mcp = server.NewMCPServer(
		"alchemist",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(detectConflictsTool, s.handleDetectConflicts)
	s.mcp.AddTool(scoreRuleTool, s.handleScoreRule)
	s.mcp.AddTool(parseRuleTool, s.handleParseRule)
	s.mcp.AddTool(deriveAHPTool, s.handleDeriveAHP)
	s.mcp.AddTool(rankWeightsTool, s.handleRankWeights)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
