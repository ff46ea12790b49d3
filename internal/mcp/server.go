package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/monosplit/internal/materialize"
	"github.com/dshills/monosplit/internal/orchestrator"
	"github.com/dshills/monosplit/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "monosplit"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// ErrOrchestratorRequired is returned by NewServer without an orchestrator
var ErrOrchestratorRequired = errors.New("orchestrator is required")

// Options carries the server's collaborators
type Options struct {
	Orchestrator *orchestrator.Orchestrator
	Storage      storage.Storage  // optional; get_job and list_jobs need it
	Sink         materialize.Sink // optional; without it every run is a dry run
	Logger       *slog.Logger
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	orch    *orchestrator.Orchestrator
	storage storage.Storage
	sink    materialize.Sink
	lock    orchestrator.JobLock // one refactor job at a time
	logger  *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(opts Options) (*Server, error) {
	if opts.Orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:     mcpServer,
		orch:    opts.Orchestrator,
		storage: opts.Storage,
		sink:    opts.Sink,
		logger:  logger,
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio", slog.String("version", ServerVersion))
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(refactorFileTool(), s.handleRefactorFile)
	s.mcp.AddTool(getJobTool(), s.handleGetJob)
	s.mcp.AddTool(listJobsTool(), s.handleListJobs)
}
