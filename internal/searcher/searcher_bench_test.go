package searcher

import (
	"context"
	"fmt"
	"testing"

	"github.com/mkrause/codegraph-mcp/internal/embedder"
	"github.com/mkrause/codegraph-mcp/internal/storage"
	"github.com/mkrause/codegraph-mcp/pkg/types"
)

func benchSearcher(b *testing.B, symbols int) *Searcher {
	b.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if err := store.CreateProject(ctx, &storage.Project{
		ProjectID: "bench", Name: "bench", RootPath: "/tmp/bench",
	}); err != nil {
		b.Fatal(err)
	}

	embed, err := embedder.NewLocalProvider(embedder.NewCache(symbols))
	if err != nil {
		b.Fatal(err)
	}

	for i := 0; i < symbols; i++ {
		sym := &types.Symbol{
			ProjectID: "bench",
			Name:      fmt.Sprintf("Handler%d", i),
			Kind:      types.KindFunction,
			Language:  "go",
			FilePath:  fmt.Sprintf("h%d.go", i),
			LineStart: 1,
			LineEnd:   5,
			Snippet:   fmt.Sprintf("func Handler%d(w http.ResponseWriter, r *http.Request)", i),
		}
		if err := store.InsertSymbol(ctx, sym); err != nil {
			b.Fatal(err)
		}
		emb, err := embed.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: sym.Snippet})
		if err != nil {
			b.Fatal(err)
		}
		if err := store.UpsertEmbedding(ctx, &storage.SymbolEmbedding{
			SymbolID:  sym.ID,
			Vector:    storage.SerializeVector(emb.Vector),
			Dimension: emb.Dimension,
			Provider:  emb.Provider,
			Model:     emb.Model,
		}); err != nil {
			b.Fatal(err)
		}
	}

	return NewSearcher(store, embed)
}

func BenchmarkSearchByName(b *testing.B) {
	for _, size := range []int{100, 1000} {
		b.Run(fmt.Sprintf("symbols=%d", size), func(b *testing.B) {
			s := benchSearcher(b, size)
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := s.SearchByName(ctx, NameRequest{Name: "Handler", ProjectID: "bench", Limit: 10}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSearchSemantic(b *testing.B) {
	s := benchSearcher(b, 500)
	ctx := context.Background()

	b.Run("uncached", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			req := SemanticRequest{Query: fmt.Sprintf("http request handler %d", i), ProjectID: "bench", TopK: 10}
			if _, err := s.SearchSemantic(ctx, req); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("cached", func(b *testing.B) {
		req := SemanticRequest{Query: "http request handler", ProjectID: "bench", TopK: 10, UseCache: true}
		if _, err := s.SearchSemantic(ctx, req); err != nil {
			b.Fatal(err)
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := s.SearchSemantic(ctx, req); err != nil {
				b.Fatal(err)
			}
		}
	})
}
