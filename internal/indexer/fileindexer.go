package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkrause/codegraph-mcp/internal/embedder"
	"github.com/mkrause/codegraph-mcp/internal/extractor"
	"github.com/mkrause/codegraph-mcp/internal/storage"
	"github.com/mkrause/codegraph-mcp/pkg/types"
)

// FileIndexer re-indexes one file as a single transaction: either the
// file's old symbols are fully replaced by the new extraction, or the
// stored state is untouched.
type FileIndexer struct {
	storage  storage.Storage
	registry *extractor.Registry
	embedder embedder.Embedder // nil disables embedding generation
}

// NewFileIndexer creates a file indexer. embed may be nil.
func NewFileIndexer(store storage.Storage, registry *extractor.Registry, embed embedder.Embedder) *FileIndexer {
	return &FileIndexer{storage: store, registry: registry, embedder: embed}
}

// IndexFile processes one file unit. relPath is project-relative with
// forward slashes. Returns the extraction result for relationship
// resolution, or skipped=true when the stored hash already matches.
func (fi *FileIndexer) IndexFile(ctx context.Context, projectID, root, relPath string) (result *types.ExtractResult, skipped bool, err error) {
	absPath := filepath.Join(root, filepath.FromSlash(relPath))

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", relPath, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, false, err
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	ext := fi.registry.ForFile(relPath)
	if ext == nil {
		// Discovery only hands us files with extractors; a missing one here
		// means the registry changed mid-scan
		return nil, true, nil
	}

	// Extract before touching the database: a failed extraction must leave
	// the previous symbols in place
	result, err = ext.Extract(relPath, content)
	if err != nil {
		return nil, false, fmt.Errorf("extract %s: %w", relPath, err)
	}
	for i := range result.Symbols {
		result.Symbols[i].ProjectID = projectID
		result.Symbols[i].FileHash = hash
	}

	tx, err := fi.storage.BeginTx(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Hash check inside the transaction so a concurrent writer can't race
	// the compare with the replace
	existing, err := tx.GetFile(ctx, projectID, relPath)
	if err == nil && existing.ContentHash == hash {
		return result, true, nil
	}
	if err != nil && err != storage.ErrNotFound {
		return nil, false, err
	}

	if err := tx.DeleteSymbolsByFile(ctx, projectID, relPath); err != nil {
		return nil, false, fmt.Errorf("delete old symbols: %w", err)
	}
	for _, sym := range result.Symbols {
		if err := tx.InsertSymbol(ctx, sym); err != nil {
			return nil, false, fmt.Errorf("insert symbol %s: %w", sym.Name, err)
		}
	}

	file := &storage.File{
		ProjectID:   projectID,
		FilePath:    relPath,
		Language:    result.Language,
		ContentHash: hash,
		ModTime:     info.ModTime(),
	}
	if err := tx.UpsertFile(ctx, file); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit file unit: %w", err)
	}

	// Embeddings are best-effort and sit outside the file transaction:
	// a provider outage must not fail the scan
	if fi.embedder != nil {
		fi.embedSymbols(ctx, result)
	}

	return result, false, nil
}

// DeleteFile removes a vanished file's row and symbols in one transaction.
// Relationship edges incident on the symbols cascade away with them.
func (fi *FileIndexer) DeleteFile(ctx context.Context, projectID, relPath string) error {
	tx, err := fi.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.DeleteSymbolsByFile(ctx, projectID, relPath); err != nil {
		return err
	}
	if err := tx.DeleteFile(ctx, projectID, relPath); err != nil {
		return err
	}
	return tx.Commit()
}

// embedSymbols generates and stores embeddings for a file's symbols,
// recording failures as diagnostics rather than errors
func (fi *FileIndexer) embedSymbols(ctx context.Context, result *types.ExtractResult) {
	for _, sym := range result.Symbols {
		if sym.Snippet == "" {
			continue
		}
		embedding, err := fi.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
			Text: sym.Name + " " + sym.Snippet,
		})
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, types.Diagnostic{
				FilePath: result.FilePath,
				Line:     sym.LineStart,
				Message:  fmt.Sprintf("embedding failed for %s: %v", sym.Name, err),
			})
			continue
		}
		emb := &storage.SymbolEmbedding{
			SymbolID:  sym.ID,
			Vector:    storage.SerializeVector(embedding.Vector),
			Dimension: embedding.Dimension,
			Provider:  embedding.Provider,
			Model:     embedding.Model,
		}
		if err := fi.storage.UpsertEmbedding(ctx, emb); err != nil {
			result.Diagnostics = append(result.Diagnostics, types.Diagnostic{
				FilePath: result.FilePath,
				Line:     sym.LineStart,
				Message:  fmt.Sprintf("embedding store failed for %s: %v", sym.Name, err),
			})
		}
	}
}
