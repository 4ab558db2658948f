package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"agentforge/internal/config"
	"agentforge/pkg/logging"

	"github.com/mark3labs/mcp-go/server"
)

// Server exposes the orchestrator and pipeline as MCP tools so LLM chat
// clients can drive extractions directly.
type Server struct {
	mu sync.Mutex

	cfg     config.MCPConfig
	version string

	mcpServer            *server.MCPServer
	streamableHTTPServer *server.StreamableHTTPServer

	ctx        context.Context
	cancelFunc context.CancelFunc
}

// NewServer creates an MCP server with the given transport configuration.
func NewServer(cfg config.MCPConfig, version string) *Server {
	return &Server{cfg: cfg, version: version}
}

// Start registers the tool set and serves on the configured transport.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.mcpServer != nil {
		s.mu.Unlock()
		return fmt.Errorf("mcp server already started")
	}

	s.ctx, s.cancelFunc = context.WithCancel(ctx)

	mcpServer := server.NewMCPServer(
		"agentforge",
		s.version,
		server.WithToolCapabilities(true),
	)
	s.mcpServer = mcpServer
	registerTools(mcpServer)
	s.mu.Unlock()

	switch s.cfg.Transport {
	case config.MCPTransportStdio:
		logging.Info("MCPServer", "Starting MCP server with stdio transport")
		stdioServer := server.NewStdioServer(mcpServer)
		go func() {
			if err := stdioServer.Listen(s.ctx, os.Stdin, os.Stdout); err != nil {
				logging.Error("MCPServer", err, "Stdio server error")
			}
		}()

	case config.MCPTransportStreamableHTTP:
		fallthrough
	default:
		addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
		logging.Info("MCPServer", "Starting MCP server with streamable-http transport on %s", addr)
		s.streamableHTTPServer = server.NewStreamableHTTPServer(mcpServer)
		streamableServer := s.streamableHTTPServer
		go func() {
			if err := streamableServer.Start(addr); err != nil && err != http.ErrServerClosed {
				logging.Error("MCPServer", err, "Streamable HTTP server error")
			}
		}()
	}

	return nil
}

// Stop shuts the transport down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	if s.streamableHTTPServer != nil {
		if err := s.streamableHTTPServer.Shutdown(ctx); err != nil {
			return err
		}
		s.streamableHTTPServer = nil
	}
	s.mcpServer = nil
	logging.Info("MCPServer", "MCP server stopped")
	return nil
}
