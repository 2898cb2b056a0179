// Package mcpserver exposes repository analysis as Model Context Protocol
// tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qalab/qametrics/internal/service/analysis"
)

const (
	serverName        = "qametrics"
	serverTitle       = "qametrics structural code metrics"
	serverDescription = "Structural code metrics for Java: complexity, cohesion, inheritance and comment density"
	repositoryOwner   = "qalab"
)

// Server wraps the MCP server and registers the analysis tools.
type Server struct {
	server *mcp.Server
	svc    *analysis.Service
}

// NewServer creates a new MCP server backed by svc. A nil svc uses the
// configuration found in the working directory.
func NewServer(version string, svc *analysis.Service) *Server {
	if version == "" {
		version = "dev"
	}
	if svc == nil {
		svc = analysis.New()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Title:   serverTitle,
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, svc: svc}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over transport t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_repository",
		Description: describeAnalyzeRepository(),
	}, s.handleAnalyzeRepository)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_file",
		Description: describeAnalyzeFile(),
	}, s.handleAnalyzeFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_classes",
		Description: describeListClasses(),
	}, s.handleListClasses)
}
