// ABOUTME: MCP server setup for the exist attribute store.
// ABOUTME: Wraps the MCP server with a storage Repository and a logger.
package mcp

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/harperreed/exist/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients during initialization.
var Version = "dev"

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	logger    *log.Logger
}

// NewServer creates a new MCP server with the given storage.
func NewServer(repo storage.Repository, logger *log.Logger) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "exist",
			Version: Version,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		logger:    logger,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve runs the MCP server on stdio until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving mcp on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
