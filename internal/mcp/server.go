// Package mcp exposes pymove over the Model Context Protocol so agents
// can plan and apply Python moves without shelling out to the CLI.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/Sumatoshi-tech/pymove/internal/config"
	"github.com/Sumatoshi-tech/pymove/pkg/version"
)

// A Server is one MCP server bound to a project root. Every tool call
// builds a fresh mover so concurrent calls never share staged state.
type Server struct {
	root string
	cfg  *config.Config
	mcp  *server.MCPServer
}

// NewServer returns a Server for the project at root, seeded with cfg.
func NewServer(root string, cfg *config.Config) *Server {
	s := &Server{
		root: root,
		cfg:  cfg,
		mcp: server.NewMCPServer(
			"pymove",
			version.Version,
			server.WithToolCapabilities(true),
			server.WithLogging(),
			server.WithRecovery(),
		),
	}

	s.mcp.AddTool(moveSymbolTool(), s.handleMove)
	s.mcp.AddTool(previewMoveTool(), s.handlePreview)

	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}
