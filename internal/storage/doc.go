// Package storage provides SQLite-based persistence for the symbol index.
//
// The storage layer manages:
//   - Project metadata and revision markers
//   - File information and content hashes
//   - Extracted symbols
//   - Resolved relationships between symbols
//   - Vector embeddings for symbol snippets
//
// # Database Schema
//
// Tables:
//   - projects: Project metadata (project ID, root path, last scan marker)
//   - files: File paths, language tags, and SHA-256 hashes
//   - symbols: Extracted symbols (functions, classes, interfaces, ...)
//   - relationships: Directed edges between symbols (calls, implements, ...)
//   - symbol_embeddings: Vector embeddings for semantic search
//
// All child tables declare ON DELETE CASCADE foreign keys, so deleting a
// project removes its files, symbols, edges, and embeddings in one
// statement, and deleting a file's symbols removes every edge incident
// on them.
//
// # Transactions
//
// Use transactions for atomic per-file replacement:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	tx.DeleteSymbolsByFile(ctx, projectID, path)
//	for _, sym := range symbols {
//	    tx.InsertSymbol(ctx, sym)
//	}
//	tx.UpsertFile(ctx, file)
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Vector Operations
//
// Vector search uses cosine similarity via the sqlite-vec extension (CGO
// build) or a pure Go implementation (purego build).
//
// # Build Tags
//
// CGO Build (sqlite_vec tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Includes sqlite-vec extension for fast vector operations
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "sqlite_vec"
//
// Pure Go Build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - Pure Go vector operations (slower)
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build
package storage
