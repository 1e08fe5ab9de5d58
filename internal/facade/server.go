package facade

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
)

// toolEnv carries the shared dependencies every tool registration closes
// over: just the logger used by protect, today, but kept as a struct so a
// tool needing a second shared dependency doesn't force a signature change
// across every add*Tool function.
type toolEnv struct {
	logger *slog.Logger
}

func (e *toolEnv) protect(name string, fn toolHandler) toolHandler {
	return protect(e.logger, name, fn)
}

// Server exposes the six deepwiki tools over mark3labs/mcp-go on stdio.
type Server struct {
	mcp *server.MCPServer
	reg *Registry
}

// NewServer builds the MCP server and registers every tool against reg.
// logger is used by every tool's panic/error-classification wrapper.
func NewServer(reg *Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	env := &toolEnv{logger: logger}

	mcpServer := server.NewMCPServer(
		"deepwiki",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	addIndexRepositoryTool(mcpServer, reg, env)
	addAskQuestionTool(mcpServer, reg, env)
	addDeepResearchTool(mcpServer, reg, env)
	addReadWikiStructureTool(mcpServer, reg, env)
	addReadWikiPageTool(mcpServer, reg, env)
	addSearchCodeTool(mcpServer, reg, env)

	return &Server{mcp: mcpServer, reg: reg}
}

// Serve runs the MCP server on stdio until ctx is cancelled or a shutdown
// signal (SIGINT/SIGTERM) arrives, then returns.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("mcp server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-sigCh:
		cancel()
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases every cached repository's resources.
func (s *Server) Close() error {
	return s.reg.Close()
}
