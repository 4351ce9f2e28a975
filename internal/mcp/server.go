package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mkrause/codegraph-mcp/internal/embedder"
	"github.com/mkrause/codegraph-mcp/internal/extractor"
	"github.com/mkrause/codegraph-mcp/internal/graph"
	"github.com/mkrause/codegraph-mcp/internal/indexer"
	"github.com/mkrause/codegraph-mcp/internal/searcher"
	"github.com/mkrause/codegraph-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "codegraph-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database directory
	DefaultDBPath = "~/.codegraph"
	// dbFileName is the SQLite database file inside the database directory
	dbFileName = "codegraph.db"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp         *server.MCPServer
	storage     storage.Storage
	coordinator *indexer.Coordinator
	searcher    *searcher.Searcher
	graph       *graph.Engine
	embedder    embedder.Embedder
}

// NewServer creates a new MCP server instance. dbPath is a directory;
// the database file is created inside it.
func NewServer(dbPath string) (*Server, error) {
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".codegraph")
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(dbPath, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return newServer(store, emb), nil
}

// newServer wires the application components around an open store.
// Split from NewServer so tests can inject in-memory storage.
func newServer(store storage.Storage, emb embedder.Embedder) *Server {
	registry := extractor.NewDefaultRegistry()

	s := &Server{
		mcp:         server.NewMCPServer(ServerName, ServerVersion),
		storage:     store,
		coordinator: indexer.New(store, registry, emb),
		searcher:    searcher.NewSearcher(store, emb),
		graph:       graph.New(store),
		embedder:    emb,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)
	s.mcp.AddTool(forceFullRescanTool(), s.handleForceFullRescan)

	s.mcp.AddTool(searchSymbolByNameTool(), s.handleSearchSymbolByName)
	s.mcp.AddTool(searchSymbolSemanticTool(), s.handleSearchSymbolSemantic)

	s.mcp.AddTool(listProjectsTool(), s.handleListProjects)
	s.mcp.AddTool(getProjectInfoTool(), s.handleGetProjectInfo)
	s.mcp.AddTool(getStatsTool(), s.handleGetStats)
	s.mcp.AddTool(deleteProjectTool(), s.handleDeleteProject)

	s.mcp.AddTool(findFunctionCallersTool(), s.handleFindFunctionCallers)
	s.mcp.AddTool(findInterfaceImplementationsTool(), s.handleFindInterfaceImplementations)
	s.mcp.AddTool(getSymbolRelationshipsTool(), s.handleGetSymbolRelationships)
	s.mcp.AddTool(getDependencyGraphTool(), s.handleGetDependencyGraph)
	s.mcp.AddTool(analyzeCallHierarchyTool(), s.handleAnalyzeCallHierarchy)

	s.mcp.AddTool(healthCheckTool(), s.handleHealthCheck)
}
