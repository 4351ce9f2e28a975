// Package searcher answers symbol queries over the index store.
//
// Two query styles are supported:
//   - Name search: case-insensitive substring match over symbol names,
//     exact matches ranked first
//   - Semantic search: the query is embedded and ranked against stored
//     symbol embeddings by cosine similarity
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, embed)
//
//	resp, err := s.SearchByName(ctx, searcher.NameRequest{
//	    Name:      "ParseFile",
//	    ProjectID: "myproject",
//	    Limit:     10,
//	})
//
//	for _, result := range resp.Results {
//	    fmt.Printf("[%d] %s (score: %.2f)\n",
//	        result.Rank, result.Symbol.Name, result.RelevanceScore)
//	}
//
// Semantic search needs an embedding provider; name search works with a
// nil embedder.
//
//	resp, err = s.SearchSemantic(ctx, searcher.SemanticRequest{
//	    Query:     "open a database connection",
//	    ProjectID: "myproject",
//	    TopK:      5,
//	})
//
// # Caching
//
// Responses can be cached in an LRU with per-request TTL (default one
// hour). Cached responses are deep-copied on both store and load, so
// callers can mutate results freely. InvalidateCache drops everything;
// the MCP layer calls it after each scan.
//
// # Scoping
//
// An empty ProjectID searches across all projects; a non-empty one
// restricts results to that project.
package searcher
