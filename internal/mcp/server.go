// Package mcp exposes the control surface as MCP tools over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"live2mcp/internal/bridge"
)

const (
	ServerName    = "live2mcp"
	ServerVersion = "0.4.0"
)

// Server wraps an MCP stdio server around a surface session.
type Server struct {
	mcpServer *mcpsdk.Server
	session   *bridge.Session
	logger    *slog.Logger
}

// NewServer builds the tool server. The logger may be nil.
func NewServer(session *bridge.Session, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		session: session,
		logger:  logger,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdio, blocking until the transport closes.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close drops the surface connection.
func (s *Server) Close() error {
	return s.session.Close()
}
