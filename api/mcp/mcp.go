// Package mcp exposes the editing pipeline as MCP (Model Context Protocol)
// tools so agents can patch, validate and inspect UI-DSL sessions.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/uidsl/pkg/studio"
	"github.com/papercomputeco/uidsl/pkg/utils"
)

type Config struct {
	// Studio runs every tool.
	Studio *studio.Studio

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the editing tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "uidsl",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Studio == nil {
			return nil, errors.New("studio is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        applyPatchToolName,
			Description: applyPatchDescription,
		}, s.handleApplyPatch)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        validateToolName,
			Description: validateDescription,
		}, s.handleValidate)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        sessionStateToolName,
			Description: sessionStateDescription,
		}, s.handleSessionState)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
