package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkrause/codegraph-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Project operations

const projectColumns = `project_id, name, root_path, is_git_repo, last_commit_hash,
       last_branch, last_scan_at, created_at, updated_at`

// createProjectWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		INSERT INTO projects (project_id, name, root_path, is_git_repo, last_commit_hash, last_branch, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		project.ProjectID, project.Name, project.RootPath, project.IsGitRepo,
		project.LastCommitHash, project.LastBranch, now, now)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	project.CreatedAt = now
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateProject(ctx context.Context, project *Project) error {
	return s.createProjectWithQuerier(ctx, s.querier(), project)
}

func scanProject(row *sql.Row) (*Project, error) {
	var project Project
	var commitHash, branch sql.NullString
	var lastScanAt sql.NullTime
	err := row.Scan(
		&project.ProjectID, &project.Name, &project.RootPath, &project.IsGitRepo,
		&commitHash, &branch, &lastScanAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	project.LastCommitHash = commitHash.String
	project.LastBranch = branch.String
	if lastScanAt.Valid {
		project.LastScanAt = lastScanAt.Time
	}
	return &project, nil
}

// getProjectWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getProjectWithQuerier(ctx context.Context, q querier, projectID string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE project_id = ?`
	return scanProject(q.QueryRowContext(ctx, query, projectID))
}

func (s *SQLiteStorage) GetProject(ctx context.Context, projectID string) (*Project, error) {
	return s.getProjectWithQuerier(ctx, s.querier(), projectID)
}

// getProjectByRootWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getProjectByRootWithQuerier(ctx context.Context, q querier, rootPath string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE root_path = ?`
	return scanProject(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetProjectByRoot(ctx context.Context, rootPath string) (*Project, error) {
	return s.getProjectByRootWithQuerier(ctx, s.querier(), rootPath)
}

// listProjectsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listProjectsWithQuerier(ctx context.Context, q querier) ([]*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY name`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	projects := make([]*Project, 0)
	for rows.Next() {
		var project Project
		var commitHash, branch sql.NullString
		var lastScanAt sql.NullTime
		err := rows.Scan(
			&project.ProjectID, &project.Name, &project.RootPath, &project.IsGitRepo,
			&commitHash, &branch, &lastScanAt, &project.CreatedAt, &project.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		project.LastCommitHash = commitHash.String
		project.LastBranch = branch.String
		if lastScanAt.Valid {
			project.LastScanAt = lastScanAt.Time
		}
		projects = append(projects, &project)
	}
	return projects, rows.Err()
}

func (s *SQLiteStorage) ListProjects(ctx context.Context) ([]*Project, error) {
	return s.listProjectsWithQuerier(ctx, s.querier())
}

// updateProjectWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) updateProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		UPDATE projects
		SET name = ?, root_path = ?, is_git_repo = ?, last_commit_hash = ?,
		    last_branch = ?, last_scan_at = ?, updated_at = ?
		WHERE project_id = ?
	`
	now := time.Now()
	var lastScanAt interface{}
	if !project.LastScanAt.IsZero() {
		lastScanAt = project.LastScanAt
	}
	_, err := q.ExecContext(ctx, query,
		project.Name, project.RootPath, project.IsGitRepo, project.LastCommitHash,
		project.LastBranch, lastScanAt, now, project.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateProject(ctx context.Context, project *Project) error {
	return s.updateProjectWithQuerier(ctx, s.querier(), project)
}

// deleteProjectWithQuerier is the internal implementation that uses a querier.
// Files, symbols, relationships, and embeddings go with it via cascade.
func (s *SQLiteStorage) deleteProjectWithQuerier(ctx context.Context, q querier, projectID string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM projects WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteProject(ctx context.Context, projectID string) error {
	return s.deleteProjectWithQuerier(ctx, s.querier(), projectID)
}

// File operations

// upsertFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertFileWithQuerier(ctx context.Context, q querier, file *File) error {
	query := `
		INSERT INTO files (project_id, file_path, language, content_hash, mod_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, file_path) DO UPDATE SET
			language = excluded.language,
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.ProjectID, file.FilePath, file.Language, file.ContentHash,
		file.ModTime, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	file.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	return s.upsertFileWithQuerier(ctx, s.querier(), file)
}

// getFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getFileWithQuerier(ctx context.Context, q querier, projectID, filePath string) (*File, error) {
	query := `
		SELECT id, project_id, file_path, language, content_hash, mod_time, created_at, updated_at
		FROM files
		WHERE project_id = ? AND file_path = ?
	`
	var file File
	var modTime sql.NullTime
	err := q.QueryRowContext(ctx, query, projectID, filePath).Scan(
		&file.ID, &file.ProjectID, &file.FilePath, &file.Language,
		&file.ContentHash, &modTime, &file.CreatedAt, &file.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if modTime.Valid {
		file.ModTime = modTime.Time
	}
	return &file, nil
}

func (s *SQLiteStorage) GetFile(ctx context.Context, projectID, filePath string) (*File, error) {
	return s.getFileWithQuerier(ctx, s.querier(), projectID, filePath)
}

// listFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listFilesWithQuerier(ctx context.Context, q querier, projectID string) ([]*File, error) {
	query := `
		SELECT id, project_id, file_path, language, content_hash, mod_time, created_at, updated_at
		FROM files
		WHERE project_id = ?
		ORDER BY file_path
	`
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*File, 0)
	for rows.Next() {
		var file File
		var modTime sql.NullTime
		err := rows.Scan(
			&file.ID, &file.ProjectID, &file.FilePath, &file.Language,
			&file.ContentHash, &modTime, &file.CreatedAt, &file.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if modTime.Valid {
			file.ModTime = modTime.Time
		}
		files = append(files, &file)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListFiles(ctx context.Context, projectID string) ([]*File, error) {
	return s.listFilesWithQuerier(ctx, s.querier(), projectID)
}

// deleteFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteFileWithQuerier(ctx context.Context, q querier, projectID, filePath string) error {
	query := `DELETE FROM files WHERE project_id = ? AND file_path = ?`
	_, err := q.ExecContext(ctx, query, projectID, filePath)
	return err
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, projectID, filePath string) error {
	return s.deleteFileWithQuerier(ctx, s.querier(), projectID, filePath)
}

// Symbol operations

const symbolColumns = `id, project_id, language, kind, name, file_path, line_start, line_end, code_snippet, file_hash`

func scanSymbolRows(rows *sql.Rows) ([]*types.Symbol, error) {
	symbols := make([]*types.Symbol, 0)
	for rows.Next() {
		var symbol types.Symbol
		var kind string
		var snippet, fileHash sql.NullString
		err := rows.Scan(
			&symbol.ID, &symbol.ProjectID, &symbol.Language, &kind, &symbol.Name,
			&symbol.FilePath, &symbol.LineStart, &symbol.LineEnd, &snippet, &fileHash,
		)
		if err != nil {
			return nil, err
		}
		symbol.Kind = types.SymbolKind(kind)
		symbol.Snippet = snippet.String
		symbol.FileHash = fileHash.String
		symbols = append(symbols, &symbol)
	}
	return symbols, rows.Err()
}

// insertSymbolWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertSymbolWithQuerier(ctx context.Context, q querier, symbol *types.Symbol) error {
	// Atomic INSERT ... ON CONFLICT keeps the per-file replace idempotent
	query := `
		INSERT INTO symbols (project_id, language, kind, name, file_path, line_start, line_end, code_snippet, file_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, language, name, file_path, line_start)
		DO UPDATE SET
			kind = excluded.kind,
			line_end = excluded.line_end,
			code_snippet = excluded.code_snippet,
			file_hash = excluded.file_hash
		RETURNING id
	`
	err := q.QueryRowContext(ctx, query,
		symbol.ProjectID, symbol.Language, string(symbol.Kind), symbol.Name,
		symbol.FilePath, symbol.LineStart, symbol.LineEnd, symbol.Snippet,
		symbol.FileHash, time.Now(),
	).Scan(&symbol.ID)
	if err != nil {
		return fmt.Errorf("failed to insert symbol: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) InsertSymbol(ctx context.Context, symbol *types.Symbol) error {
	return s.insertSymbolWithQuerier(ctx, s.querier(), symbol)
}

// getSymbolWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getSymbolWithQuerier(ctx context.Context, q querier, symbolID int64) (*types.Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols WHERE id = ?`
	var symbol types.Symbol
	var kind string
	var snippet, fileHash sql.NullString
	err := q.QueryRowContext(ctx, query, symbolID).Scan(
		&symbol.ID, &symbol.ProjectID, &symbol.Language, &kind, &symbol.Name,
		&symbol.FilePath, &symbol.LineStart, &symbol.LineEnd, &snippet, &fileHash,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	symbol.Kind = types.SymbolKind(kind)
	symbol.Snippet = snippet.String
	symbol.FileHash = fileHash.String
	return &symbol, nil
}

func (s *SQLiteStorage) GetSymbol(ctx context.Context, symbolID int64) (*types.Symbol, error) {
	return s.getSymbolWithQuerier(ctx, s.querier(), symbolID)
}

// listSymbolsWithQuerier is the internal implementation that uses a querier.
// An empty projectID lists symbols across all projects, matching the
// convention of FindSymbolsByName and ListRelationships.
func (s *SQLiteStorage) listSymbolsWithQuerier(ctx context.Context, q querier, projectID string) ([]*types.Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols`
	args := []interface{}{}
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY file_path, line_start`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanSymbolRows(rows)
}

func (s *SQLiteStorage) ListSymbols(ctx context.Context, projectID string) ([]*types.Symbol, error) {
	return s.listSymbolsWithQuerier(ctx, s.querier(), projectID)
}

// listSymbolsByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listSymbolsByFileWithQuerier(ctx context.Context, q querier, projectID, filePath string) ([]*types.Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols WHERE project_id = ? AND file_path = ? ORDER BY line_start`
	rows, err := q.QueryContext(ctx, query, projectID, filePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanSymbolRows(rows)
}

func (s *SQLiteStorage) ListSymbolsByFile(ctx context.Context, projectID, filePath string) ([]*types.Symbol, error) {
	return s.listSymbolsByFileWithQuerier(ctx, s.querier(), projectID, filePath)
}

// deleteSymbolsByFileWithQuerier is the internal implementation that uses a querier.
// Relationship edges incident on deleted symbols cascade away with them.
func (s *SQLiteStorage) deleteSymbolsByFileWithQuerier(ctx context.Context, q querier, projectID, filePath string) error {
	query := `DELETE FROM symbols WHERE project_id = ? AND file_path = ?`
	_, err := q.ExecContext(ctx, query, projectID, filePath)
	return err
}

func (s *SQLiteStorage) DeleteSymbolsByFile(ctx context.Context, projectID, filePath string) error {
	return s.deleteSymbolsByFileWithQuerier(ctx, s.querier(), projectID, filePath)
}

// findSymbolsByNameWithQuerier is the internal implementation that uses a querier.
// An empty projectID searches across all projects.
func (s *SQLiteStorage) findSymbolsByNameWithQuerier(ctx context.Context, q querier, projectID, name string) ([]*types.Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols WHERE name = ?`
	args := []interface{}{name}
	if projectID != "" {
		query += ` AND project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY file_path, line_start`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanSymbolRows(rows)
}

func (s *SQLiteStorage) FindSymbolsByName(ctx context.Context, projectID, name string) ([]*types.Symbol, error) {
	return s.findSymbolsByNameWithQuerier(ctx, s.querier(), projectID, name)
}

// searchSymbolsByNameWithQuerier is the internal implementation that uses a querier.
// Pattern matching is case-insensitive substring via LIKE.
func (s *SQLiteStorage) searchSymbolsByNameWithQuerier(ctx context.Context, q querier, projectID, pattern, language string, limit int) ([]*types.Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols WHERE name LIKE ? ESCAPE '\'`
	args := []interface{}{"%" + escapeLike(pattern) + "%"}
	if projectID != "" {
		query += ` AND project_id = ?`
		args = append(args, projectID)
	}
	if language != "" {
		query += ` AND language = ?`
		args = append(args, language)
	}
	// Exact matches first, then shorter names
	query += ` ORDER BY (name = ?) DESC, length(name), name LIMIT ?`
	args = append(args, pattern, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanSymbolRows(rows)
}

func (s *SQLiteStorage) SearchSymbolsByName(ctx context.Context, projectID, pattern, language string, limit int) ([]*types.Symbol, error) {
	return s.searchSymbolsByNameWithQuerier(ctx, s.querier(), projectID, pattern, language, limit)
}

// Relationship operations

const relationshipColumns = `id, project_id, source_symbol_id, target_symbol_id, kind, payload, line`

func scanRelationshipRows(rows *sql.Rows) ([]*types.Relationship, error) {
	rels := make([]*types.Relationship, 0)
	for rows.Next() {
		var rel types.Relationship
		var kind string
		var payload sql.NullString
		err := rows.Scan(
			&rel.ID, &rel.ProjectID, &rel.SourceID, &rel.TargetID,
			&kind, &payload, &rel.Line,
		)
		if err != nil {
			return nil, err
		}
		rel.Kind = types.RelationshipKind(kind)
		rel.Payload = payload.String
		rels = append(rels, &rel)
	}
	return rels, rows.Err()
}

// insertRelationshipWithQuerier is the internal implementation that uses a querier.
// Re-inserting an existing edge is a no-op, which keeps resolution idempotent.
func (s *SQLiteStorage) insertRelationshipWithQuerier(ctx context.Context, q querier, rel *types.Relationship) error {
	query := `
		INSERT INTO relationships (project_id, source_symbol_id, target_symbol_id, kind, payload, line, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, source_symbol_id, target_symbol_id, kind, line) DO NOTHING
	`
	result, err := q.ExecContext(ctx, query,
		rel.ProjectID, rel.SourceID, rel.TargetID, string(rel.Kind),
		rel.Payload, rel.Line, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert relationship: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil && rel.ID == 0 {
		rel.ID = id
	}
	return nil
}

func (s *SQLiteStorage) InsertRelationship(ctx context.Context, rel *types.Relationship) error {
	return s.insertRelationshipWithQuerier(ctx, s.querier(), rel)
}

// listRelationshipsWithQuerier is the internal implementation that uses a querier.
// An empty projectID lists edges across all projects.
func (s *SQLiteStorage) listRelationshipsWithQuerier(ctx context.Context, q querier, projectID string) ([]*types.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships`
	args := []interface{}{}
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRelationshipRows(rows)
}

func (s *SQLiteStorage) ListRelationships(ctx context.Context, projectID string) ([]*types.Relationship, error) {
	return s.listRelationshipsWithQuerier(ctx, s.querier(), projectID)
}

// listRelationshipsBySymbolWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listRelationshipsBySymbolWithQuerier(ctx context.Context, q querier, symbolID int64, direction types.Direction) ([]*types.Relationship, error) {
	var query string
	var args []interface{}
	switch direction {
	case types.DirOutgoing:
		query = `SELECT ` + relationshipColumns + ` FROM relationships WHERE source_symbol_id = ?`
		args = []interface{}{symbolID}
	case types.DirIncoming:
		query = `SELECT ` + relationshipColumns + ` FROM relationships WHERE target_symbol_id = ?`
		args = []interface{}{symbolID}
	default:
		query = `SELECT ` + relationshipColumns + ` FROM relationships WHERE source_symbol_id = ? OR target_symbol_id = ?`
		args = []interface{}{symbolID, symbolID}
	}
	query += ` ORDER BY id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRelationshipRows(rows)
}

func (s *SQLiteStorage) ListRelationshipsBySymbol(ctx context.Context, symbolID int64, direction types.Direction) ([]*types.Relationship, error) {
	return s.listRelationshipsBySymbolWithQuerier(ctx, s.querier(), symbolID, direction)
}

// Embedding operations

// upsertEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertEmbeddingWithQuerier(ctx context.Context, q querier, embedding *SymbolEmbedding) error {
	query := `
		INSERT INTO symbol_embeddings (symbol_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		embedding.SymbolID, embedding.Vector, embedding.Dimension,
		embedding.Provider, embedding.Model, now)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	embedding.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertEmbedding(ctx context.Context, embedding *SymbolEmbedding) error {
	return s.upsertEmbeddingWithQuerier(ctx, s.querier(), embedding)
}

// getEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getEmbeddingWithQuerier(ctx context.Context, q querier, symbolID int64) (*SymbolEmbedding, error) {
	query := `
		SELECT symbol_id, vector, dimension, provider, model, created_at
		FROM symbol_embeddings
		WHERE symbol_id = ?
	`
	var embedding SymbolEmbedding
	err := q.QueryRowContext(ctx, query, symbolID).Scan(
		&embedding.SymbolID, &embedding.Vector, &embedding.Dimension,
		&embedding.Provider, &embedding.Model, &embedding.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &embedding, nil
}

func (s *SQLiteStorage) GetEmbedding(ctx context.Context, symbolID int64) (*SymbolEmbedding, error) {
	return s.getEmbeddingWithQuerier(ctx, s.querier(), symbolID)
}

// Search operations

func (s *SQLiteStorage) SearchVector(ctx context.Context, projectID string, queryVector []float32, limit int) ([]VectorResult, error) {
	// Implementation moved to separate file for clarity
	return searchVector(ctx, s.db, projectID, queryVector, limit)
}

// Stats operations

// getStatsWithQuerier is the internal implementation that uses a querier.
// An empty projectID produces global statistics.
func (s *SQLiteStorage) getStatsWithQuerier(ctx context.Context, q querier, projectID string) (*Stats, error) {
	stats := &Stats{
		SymbolsByLanguage:   make(map[string]int),
		SymbolsByKind:       make(map[string]int),
		RelationshipsByKind: make(map[string]int),
	}

	filter := ""
	args := []interface{}{}
	if projectID != "" {
		filter = " WHERE project_id = ?"
		args = []interface{}{projectID}
	}

	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects"+filter, args...).Scan(&stats.Projects); err != nil {
		return nil, err
	}
	if projectID != "" && stats.Projects == 0 {
		return nil, ErrNotFound
	}
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM files"+filter, args...).Scan(&stats.Files); err != nil {
		return nil, err
	}
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM symbols"+filter, args...).Scan(&stats.Symbols); err != nil {
		return nil, err
	}
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM relationships"+filter, args...).Scan(&stats.Relationships); err != nil {
		return nil, err
	}

	embQuery := `SELECT COUNT(*) FROM symbol_embeddings e JOIN symbols s ON e.symbol_id = s.id`
	if projectID != "" {
		embQuery += ` WHERE s.project_id = ?`
	}
	if err := q.QueryRowContext(ctx, embQuery, args...).Scan(&stats.Embeddings); err != nil {
		return nil, err
	}

	if err := countByColumn(ctx, q, "symbols", "language", filter, args, stats.SymbolsByLanguage); err != nil {
		return nil, err
	}
	if err := countByColumn(ctx, q, "symbols", "kind", filter, args, stats.SymbolsByKind); err != nil {
		return nil, err
	}
	if err := countByColumn(ctx, q, "relationships", "kind", filter, args, stats.RelationshipsByKind); err != nil {
		return nil, err
	}

	return stats, nil
}

func countByColumn(ctx context.Context, q querier, table, column, filter string, args []interface{}, out map[string]int) error {
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s%s GROUP BY %s", column, table, filter, column)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		out[key] = count
	}
	return rows.Err()
}

func (s *SQLiteStorage) GetStats(ctx context.Context, projectID string) (*Stats, error) {
	return s.getStatsWithQuerier(ctx, s.querier(), projectID)
}

// escapeLike escapes LIKE wildcards in user-supplied patterns
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Transaction implementations

func (t *sqliteTx) CreateProject(ctx context.Context, project *Project) error {
	return t.storage.createProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) GetProject(ctx context.Context, projectID string) (*Project, error) {
	return t.storage.getProjectWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) GetProjectByRoot(ctx context.Context, rootPath string) (*Project, error) {
	return t.storage.getProjectByRootWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) ListProjects(ctx context.Context) ([]*Project, error) {
	return t.storage.listProjectsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpdateProject(ctx context.Context, project *Project) error {
	return t.storage.updateProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) DeleteProject(ctx context.Context, projectID string) error {
	return t.storage.deleteProjectWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return t.storage.upsertFileWithQuerier(ctx, t.querier(), file)
}

func (t *sqliteTx) GetFile(ctx context.Context, projectID, filePath string) (*File, error) {
	return t.storage.getFileWithQuerier(ctx, t.querier(), projectID, filePath)
}

func (t *sqliteTx) ListFiles(ctx context.Context, projectID string) ([]*File, error) {
	return t.storage.listFilesWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) DeleteFile(ctx context.Context, projectID, filePath string) error {
	return t.storage.deleteFileWithQuerier(ctx, t.querier(), projectID, filePath)
}

func (t *sqliteTx) InsertSymbol(ctx context.Context, symbol *types.Symbol) error {
	return t.storage.insertSymbolWithQuerier(ctx, t.querier(), symbol)
}

func (t *sqliteTx) GetSymbol(ctx context.Context, symbolID int64) (*types.Symbol, error) {
	return t.storage.getSymbolWithQuerier(ctx, t.querier(), symbolID)
}

func (t *sqliteTx) ListSymbols(ctx context.Context, projectID string) ([]*types.Symbol, error) {
	return t.storage.listSymbolsWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) ListSymbolsByFile(ctx context.Context, projectID, filePath string) ([]*types.Symbol, error) {
	return t.storage.listSymbolsByFileWithQuerier(ctx, t.querier(), projectID, filePath)
}

func (t *sqliteTx) DeleteSymbolsByFile(ctx context.Context, projectID, filePath string) error {
	return t.storage.deleteSymbolsByFileWithQuerier(ctx, t.querier(), projectID, filePath)
}

func (t *sqliteTx) FindSymbolsByName(ctx context.Context, projectID, name string) ([]*types.Symbol, error) {
	return t.storage.findSymbolsByNameWithQuerier(ctx, t.querier(), projectID, name)
}

func (t *sqliteTx) SearchSymbolsByName(ctx context.Context, projectID, pattern, language string, limit int) ([]*types.Symbol, error) {
	return t.storage.searchSymbolsByNameWithQuerier(ctx, t.querier(), projectID, pattern, language, limit)
}

func (t *sqliteTx) InsertRelationship(ctx context.Context, rel *types.Relationship) error {
	return t.storage.insertRelationshipWithQuerier(ctx, t.querier(), rel)
}

func (t *sqliteTx) ListRelationships(ctx context.Context, projectID string) ([]*types.Relationship, error) {
	return t.storage.listRelationshipsWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) ListRelationshipsBySymbol(ctx context.Context, symbolID int64, direction types.Direction) ([]*types.Relationship, error) {
	return t.storage.listRelationshipsBySymbolWithQuerier(ctx, t.querier(), symbolID, direction)
}

func (t *sqliteTx) UpsertEmbedding(ctx context.Context, embedding *SymbolEmbedding) error {
	return t.storage.upsertEmbeddingWithQuerier(ctx, t.querier(), embedding)
}

func (t *sqliteTx) GetEmbedding(ctx context.Context, symbolID int64) (*SymbolEmbedding, error) {
	return t.storage.getEmbeddingWithQuerier(ctx, t.querier(), symbolID)
}

func (t *sqliteTx) SearchVector(ctx context.Context, projectID string, vector []float32, limit int) ([]VectorResult, error) {
	return t.storage.SearchVector(ctx, projectID, vector, limit)
}

func (t *sqliteTx) GetStats(ctx context.Context, projectID string) (*Stats, error) {
	return t.storage.getStatsWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	// We return an error to prevent accidental misuse
	// If savepoints are needed in the future, implement here
	return nil, errors.New("nested transactions not supported")
}
