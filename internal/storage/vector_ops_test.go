package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrause/codegraph-mcp/pkg/types"
)

func TestSerializeDeserializeVector(t *testing.T) {
	tests := []struct {
		name   string
		vector []float32
	}{
		{"empty", []float32{}},
		{"single", []float32{1.5}},
		{"typical", []float32{0.1, -0.2, 0.3, -0.4}},
		{"zeros", []float32{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := SerializeVector(tt.vector)
			assert.Len(t, blob, len(tt.vector)*4)
			got := DeserializeVector(blob)
			assert.InDeltaSlice(t, tt.vector, got, 1e-6)
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"dimension mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestSearchVectorFallback(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")
	createTestProject(t, storage, "proj-2")

	vectors := map[string][]float32{
		"north": {0, 1, 0},
		"east":  {1, 0, 0},
		"mixed": {0.7, 0.7, 0},
	}
	for name, vec := range vectors {
		sym := insertTestSymbol(t, storage, "proj-1", name, name+".go", types.KindFunction, 1)
		require.NoError(t, storage.UpsertEmbedding(ctx, &SymbolEmbedding{
			SymbolID:  sym.ID,
			Vector:    SerializeVector(vec),
			Dimension: len(vec),
			Provider:  "local",
			Model:     "test",
		}))
	}

	// An embedding in another project must never appear in project-scoped search
	other := insertTestSymbol(t, storage, "proj-2", "north", "n.go", types.KindFunction, 1)
	require.NoError(t, storage.UpsertEmbedding(ctx, &SymbolEmbedding{
		SymbolID:  other.ID,
		Vector:    SerializeVector([]float32{0, 1, 0}),
		Dimension: 3,
		Provider:  "local",
		Model:     "test",
	}))

	results, err := storage.SearchVector(ctx, "proj-1", []float32{0, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Best match is the identical vector
	best, err := storage.GetSymbol(ctx, results[0].SymbolID)
	require.NoError(t, err)
	assert.Equal(t, "north", best.Name)
	assert.InDelta(t, 1.0, results[0].SimilarityScore, 1e-6)
	assert.Greater(t, results[0].SimilarityScore, results[1].SimilarityScore)

	for _, r := range results {
		assert.NotEqual(t, other.ID, r.SymbolID)
	}

	// Zero limit returns nothing
	results, err = storage.SearchVector(ctx, "proj-1", []float32{0, 1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchVectorDimensionMismatchSkipped(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	createTestProject(t, storage, "proj-1")

	sym := insertTestSymbol(t, storage, "proj-1", "short", "s.go", types.KindFunction, 1)
	require.NoError(t, storage.UpsertEmbedding(ctx, &SymbolEmbedding{
		SymbolID:  sym.ID,
		Vector:    SerializeVector([]float32{1, 0}),
		Dimension: 2,
		Provider:  "local",
		Model:     "test",
	}))

	results, err := storage.SearchVector(ctx, "proj-1", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
