package storage

import (
	"context"
	"time"

	"github.com/mkrause/codegraph-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying the symbol index
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, projectID string) (*Project, error)
	GetProjectByRoot(ctx context.Context, rootPath string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	UpdateProject(ctx context.Context, project *Project) error
	DeleteProject(ctx context.Context, projectID string) error

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, projectID, filePath string) (*File, error)
	ListFiles(ctx context.Context, projectID string) ([]*File, error)
	DeleteFile(ctx context.Context, projectID, filePath string) error

	// Symbol operations. For the list and find methods an empty
	// projectID means all projects.
	InsertSymbol(ctx context.Context, symbol *types.Symbol) error
	GetSymbol(ctx context.Context, symbolID int64) (*types.Symbol, error)
	ListSymbols(ctx context.Context, projectID string) ([]*types.Symbol, error)
	ListSymbolsByFile(ctx context.Context, projectID, filePath string) ([]*types.Symbol, error)
	DeleteSymbolsByFile(ctx context.Context, projectID, filePath string) error
	FindSymbolsByName(ctx context.Context, projectID, name string) ([]*types.Symbol, error)
	SearchSymbolsByName(ctx context.Context, projectID, pattern, language string, limit int) ([]*types.Symbol, error)

	// Relationship operations
	InsertRelationship(ctx context.Context, rel *types.Relationship) error
	ListRelationships(ctx context.Context, projectID string) ([]*types.Relationship, error)
	ListRelationshipsBySymbol(ctx context.Context, symbolID int64, direction types.Direction) ([]*types.Relationship, error)

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *SymbolEmbedding) error
	GetEmbedding(ctx context.Context, symbolID int64) (*SymbolEmbedding, error)
	SearchVector(ctx context.Context, projectID string, vector []float32, limit int) ([]VectorResult, error)

	// Stats operations
	GetStats(ctx context.Context, projectID string) (*Stats, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Project represents an indexed codebase
type Project struct {
	ProjectID string
	Name      string
	RootPath  string

	// Revision marker from the last completed scan
	IsGitRepo      bool
	LastCommitHash string
	LastBranch     string
	LastScanAt     time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// File represents a tracked source file
type File struct {
	ID          int64
	ProjectID   string
	FilePath    string // Relative to project root
	Language    string
	ContentHash string // hex-encoded SHA-256 of file content
	ModTime     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SymbolEmbedding represents a vector embedding for a symbol snippet
type SymbolEmbedding struct {
	SymbolID  int64
	Vector    []byte // Serialized float32 array
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// VectorResult represents a result from vector similarity search
type VectorResult struct {
	SymbolID        int64
	SimilarityScore float64
}

// Stats contains index statistics, either per-project or global
type Stats struct {
	Projects      int
	Files         int
	Symbols       int
	Relationships int
	Embeddings    int

	SymbolsByLanguage   map[string]int
	SymbolsByKind       map[string]int
	RelationshipsByKind map[string]int
}
