package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrause/codegraph-mcp/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	return storage
}

func createTestProject(t *testing.T, s *SQLiteStorage, projectID string) *Project {
	project := &Project{
		ProjectID: projectID,
		Name:      projectID,
		RootPath:  "/src/" + projectID,
	}
	require.NoError(t, s.CreateProject(context.Background(), project))
	return project
}

func insertTestSymbol(t *testing.T, s Storage, projectID, name, filePath string, kind types.SymbolKind, line int) *types.Symbol {
	sym := &types.Symbol{
		ProjectID: projectID,
		Language:  "go",
		Kind:      kind,
		Name:      name,
		FilePath:  filePath,
		LineStart: line,
		LineEnd:   line + 5,
		Snippet:   "func " + name + "() {",
	}
	require.NoError(t, s.InsertSymbol(context.Background(), sym))
	return sym
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	assert.NotNil(t, storage)
	assert.NotNil(t, storage.db)
}

func TestCreateProject(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	project := &Project{
		ProjectID: "proj-1",
		Name:      "demo",
		RootPath:  "/src/demo",
		IsGitRepo: true,
	}

	err := storage.CreateProject(ctx, project)
	require.NoError(t, err)
	assert.False(t, project.CreatedAt.IsZero())

	// Same primary key - should fail
	duplicate := &Project{
		ProjectID: "proj-1",
		Name:      "other",
		RootPath:  "/src/other",
	}
	err = storage.CreateProject(ctx, duplicate)
	assert.Error(t, err) // Primary key violation
}

func TestGetProject(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")

	got, err := storage.GetProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "proj-1", got.ProjectID)
	assert.Equal(t, "/src/proj-1", got.RootPath)

	_, err = storage.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetProjectByRoot(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")

	got, err := storage.GetProjectByRoot(ctx, "/src/proj-1")
	require.NoError(t, err)
	assert.Equal(t, "proj-1", got.ProjectID)

	_, err = storage.GetProjectByRoot(ctx, "/src/nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProjectScanMarker(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	project := createTestProject(t, storage, "proj-1")

	project.IsGitRepo = true
	project.LastCommitHash = "abc123"
	project.LastBranch = "main"
	project.LastScanAt = time.Now()
	require.NoError(t, storage.UpdateProject(ctx, project))

	got, err := storage.GetProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.True(t, got.IsGitRepo)
	assert.Equal(t, "abc123", got.LastCommitHash)
	assert.Equal(t, "main", got.LastBranch)
	assert.False(t, got.LastScanAt.IsZero())
}

func TestListProjects(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	createTestProject(t, storage, "alpha")
	createTestProject(t, storage, "beta")

	projects, err := storage.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "alpha", projects[0].ProjectID)
	assert.Equal(t, "beta", projects[1].ProjectID)
}

func TestUpsertFile(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")

	file := &File{
		ProjectID:   "proj-1",
		FilePath:    "main.go",
		Language:    "go",
		ContentHash: "aaa",
		ModTime:     time.Now(),
	}
	require.NoError(t, storage.UpsertFile(ctx, file))
	assert.Greater(t, file.ID, int64(0))

	// Upsert with new hash keeps the same row
	firstID := file.ID
	file.ContentHash = "bbb"
	require.NoError(t, storage.UpsertFile(ctx, file))
	assert.Equal(t, firstID, file.ID)

	got, err := storage.GetFile(ctx, "proj-1", "main.go")
	require.NoError(t, err)
	assert.Equal(t, "bbb", got.ContentHash)
}

func TestSymbolUniqueness(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")

	first := insertTestSymbol(t, storage, "proj-1", "Foo", "a.go", types.KindFunction, 10)

	// Re-inserting the same identity updates in place instead of duplicating
	second := insertTestSymbol(t, storage, "proj-1", "Foo", "a.go", types.KindFunction, 10)
	assert.Equal(t, first.ID, second.ID)

	symbols, err := storage.ListSymbolsByFile(ctx, "proj-1", "a.go")
	require.NoError(t, err)
	assert.Len(t, symbols, 1)

	// Same name at a different line is a distinct symbol
	insertTestSymbol(t, storage, "proj-1", "Foo", "a.go", types.KindFunction, 50)
	symbols, err = storage.ListSymbolsByFile(ctx, "proj-1", "a.go")
	require.NoError(t, err)
	assert.Len(t, symbols, 2)
}

func TestRelationshipInsertIdempotent(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")
	src := insertTestSymbol(t, storage, "proj-1", "caller", "a.go", types.KindFunction, 1)
	dst := insertTestSymbol(t, storage, "proj-1", "callee", "b.go", types.KindFunction, 1)

	rel := &types.Relationship{
		ProjectID: "proj-1",
		SourceID:  src.ID,
		TargetID:  dst.ID,
		Kind:      types.RelCalls,
		Line:      3,
	}
	require.NoError(t, storage.InsertRelationship(ctx, rel))
	require.NoError(t, storage.InsertRelationship(ctx, rel))

	rels, err := storage.ListRelationships(ctx, "proj-1")
	require.NoError(t, err)
	assert.Len(t, rels, 1)
}

func TestRelationshipCascadeOnSymbolDelete(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")
	src := insertTestSymbol(t, storage, "proj-1", "caller", "a.go", types.KindFunction, 1)
	dst := insertTestSymbol(t, storage, "proj-1", "callee", "b.go", types.KindFunction, 1)

	rel := &types.Relationship{
		ProjectID: "proj-1",
		SourceID:  src.ID,
		TargetID:  dst.ID,
		Kind:      types.RelCalls,
	}
	require.NoError(t, storage.InsertRelationship(ctx, rel))

	// Deleting the target file's symbols must remove the incident edge
	require.NoError(t, storage.DeleteSymbolsByFile(ctx, "proj-1", "b.go"))

	rels, err := storage.ListRelationships(ctx, "proj-1")
	require.NoError(t, err)
	assert.Empty(t, rels)

	// Source symbol survives
	_, err = storage.GetSymbol(ctx, src.ID)
	assert.NoError(t, err)
}

func TestDeleteProjectCascades(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")

	file := &File{ProjectID: "proj-1", FilePath: "a.go", Language: "go", ContentHash: "x"}
	require.NoError(t, storage.UpsertFile(ctx, file))
	sym := insertTestSymbol(t, storage, "proj-1", "Foo", "a.go", types.KindFunction, 1)
	emb := &SymbolEmbedding{
		SymbolID:  sym.ID,
		Vector:    SerializeVector([]float32{1, 0, 0}),
		Dimension: 3,
		Provider:  "local",
		Model:     "test",
	}
	require.NoError(t, storage.UpsertEmbedding(ctx, emb))

	require.NoError(t, storage.DeleteProject(ctx, "proj-1"))

	_, err := storage.GetProject(ctx, "proj-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = storage.GetFile(ctx, "proj-1", "a.go")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = storage.GetSymbol(ctx, sym.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = storage.GetEmbedding(ctx, sym.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = storage.DeleteProject(ctx, "proj-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectIsolation(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-a")
	createTestProject(t, storage, "proj-b")

	insertTestSymbol(t, storage, "proj-a", "Shared", "x.go", types.KindFunction, 1)
	insertTestSymbol(t, storage, "proj-b", "Shared", "x.go", types.KindFunction, 1)

	// Identical identity in two projects does not collide
	a, err := storage.FindSymbolsByName(ctx, "proj-a", "Shared")
	require.NoError(t, err)
	assert.Len(t, a, 1)

	all, err := storage.FindSymbolsByName(ctx, "", "Shared")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Deleting one project leaves the other untouched
	require.NoError(t, storage.DeleteProject(ctx, "proj-a"))
	b, err := storage.FindSymbolsByName(ctx, "proj-b", "Shared")
	require.NoError(t, err)
	assert.Len(t, b, 1)
}

func TestListSymbolsAcrossProjects(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-a")
	createTestProject(t, storage, "proj-b")

	insertTestSymbol(t, storage, "proj-a", "Alpha", "a.go", types.KindFunction, 1)
	insertTestSymbol(t, storage, "proj-b", "Beta", "b.go", types.KindFunction, 1)

	scoped, err := storage.ListSymbols(ctx, "proj-a")
	require.NoError(t, err)
	assert.Len(t, scoped, 1)

	// Empty project ID means all projects, same as FindSymbolsByName
	// and ListRelationships
	all, err := storage.ListSymbols(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSearchSymbolsByName(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")
	insertTestSymbol(t, storage, "proj-1", "ParseFile", "p.go", types.KindFunction, 1)
	insertTestSymbol(t, storage, "proj-1", "Parse", "p.go", types.KindFunction, 10)
	insertTestSymbol(t, storage, "proj-1", "Render", "r.go", types.KindFunction, 1)

	results, err := storage.SearchSymbolsByName(ctx, "proj-1", "Parse", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Exact match ranks first
	assert.Equal(t, "Parse", results[0].Name)

	results, err = storage.SearchSymbolsByName(ctx, "proj-1", "Parse", "python", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	// LIKE wildcards in the pattern are treated literally
	results, err = storage.SearchSymbolsByName(ctx, "proj-1", "%", "", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestListRelationshipsBySymbol(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")
	a := insertTestSymbol(t, storage, "proj-1", "a", "a.go", types.KindFunction, 1)
	b := insertTestSymbol(t, storage, "proj-1", "b", "b.go", types.KindFunction, 1)
	c := insertTestSymbol(t, storage, "proj-1", "c", "c.go", types.KindFunction, 1)

	require.NoError(t, storage.InsertRelationship(ctx, &types.Relationship{
		ProjectID: "proj-1", SourceID: a.ID, TargetID: b.ID, Kind: types.RelCalls,
	}))
	require.NoError(t, storage.InsertRelationship(ctx, &types.Relationship{
		ProjectID: "proj-1", SourceID: b.ID, TargetID: c.ID, Kind: types.RelCalls,
	}))

	out, err := storage.ListRelationshipsBySymbol(ctx, b.ID, types.DirOutgoing)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, c.ID, out[0].TargetID)

	in, err := storage.ListRelationshipsBySymbol(ctx, b.ID, types.DirIncoming)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, a.ID, in[0].SourceID)

	both, err := storage.ListRelationshipsBySymbol(ctx, b.ID, types.DirBoth)
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

func TestTransactionRollback(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")
	insertTestSymbol(t, storage, "proj-1", "Old", "a.go", types.KindFunction, 1)

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.DeleteSymbolsByFile(ctx, "proj-1", "a.go"))
	insertTestSymbol(t, tx, "proj-1", "New", "a.go", types.KindFunction, 1)
	require.NoError(t, tx.Rollback())

	// Rollback restores the pre-transaction state
	symbols, err := storage.ListSymbolsByFile(ctx, "proj-1", "a.go")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "Old", symbols[0].Name)
}

func TestTransactionCommit(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")
	insertTestSymbol(t, storage, "proj-1", "Old", "a.go", types.KindFunction, 1)

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.DeleteSymbolsByFile(ctx, "proj-1", "a.go"))
	sym := &types.Symbol{
		ProjectID: "proj-1", Language: "go", Kind: types.KindFunction,
		Name: "New", FilePath: "a.go", LineStart: 1, LineEnd: 3,
	}
	require.NoError(t, tx.InsertSymbol(ctx, sym))
	require.NoError(t, tx.Commit())

	symbols, err := storage.ListSymbolsByFile(ctx, "proj-1", "a.go")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "New", symbols[0].Name)
}

func TestNestedTransactionRejected(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	tx, err := storage.BeginTx(context.Background())
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.BeginTx(context.Background())
	assert.Error(t, err)
}

func TestGetStats(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")
	createTestProject(t, storage, "proj-2")

	file := &File{ProjectID: "proj-1", FilePath: "a.go", Language: "go", ContentHash: "x"}
	require.NoError(t, storage.UpsertFile(ctx, file))

	a := insertTestSymbol(t, storage, "proj-1", "a", "a.go", types.KindFunction, 1)
	b := insertTestSymbol(t, storage, "proj-1", "B", "a.go", types.KindClass, 10)
	insertTestSymbol(t, storage, "proj-2", "c", "c.go", types.KindFunction, 1)

	require.NoError(t, storage.InsertRelationship(ctx, &types.Relationship{
		ProjectID: "proj-1", SourceID: a.ID, TargetID: b.ID, Kind: types.RelReferences,
	}))

	stats, err := storage.GetStats(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Projects)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 2, stats.Symbols)
	assert.Equal(t, 1, stats.Relationships)
	assert.Equal(t, 2, stats.SymbolsByLanguage["go"])
	assert.Equal(t, 1, stats.SymbolsByKind["function"])
	assert.Equal(t, 1, stats.SymbolsByKind["class"])
	assert.Equal(t, 1, stats.RelationshipsByKind["references"])

	global, err := storage.GetStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, global.Projects)
	assert.Equal(t, 3, global.Symbols)

	_, err = storage.GetStats(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")
	sym := insertTestSymbol(t, storage, "proj-1", "Foo", "a.go", types.KindFunction, 1)

	vec := []float32{0.1, 0.2, 0.3}
	emb := &SymbolEmbedding{
		SymbolID:  sym.ID,
		Vector:    SerializeVector(vec),
		Dimension: 3,
		Provider:  "local",
		Model:     "test-model",
	}
	require.NoError(t, storage.UpsertEmbedding(ctx, emb))

	got, err := storage.GetEmbedding(ctx, sym.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Dimension)
	assert.InDeltaSlice(t, vec, DeserializeVector(got.Vector), 1e-6)
}
