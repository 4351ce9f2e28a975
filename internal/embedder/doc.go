// Package embedder generates vector embeddings for code symbols.
//
// Two providers are built in: an Ollama HTTP provider for real model
// embeddings, and an offline deterministic provider that hashes tokens
// into a fixed-size vector. Both sit behind the Embedder interface with
// batching, LRU caching, and retry handling.
//
// # Basic Usage
//
//	// Create embedder (selects provider from environment)
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "func ParseFile(path string) error { ... }",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// # Provider Selection
//
//  1. If CODEGRAPH_EMBEDDING_PROVIDER is set ("ollama" or "local") →
//     use the specified provider
//  2. Else if OLLAMA_HOST is set → use Ollama
//  3. Else → the offline local provider
//
// CODEGRAPH_EMBEDDING_MODEL overrides the default Ollama model
// (nomic-embed-text).
//
// # Batch Processing
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: []string{sym1.Snippet, sym2.Snippet},
//	})
//
// The Ollama provider sends the whole batch in one request.
//
// # Caching
//
// Embeddings are cached by SHA-256 content hash in an LRU cache; a
// rescan of unchanged symbols never re-calls the provider. Get returns
// a deep copy so callers cannot mutate cached vectors.
//
// # Error Handling
//
// Transient provider failures retry with exponential backoff; after
// MaxRetries the error wraps ErrProviderFailed. The local provider
// cannot fail except on empty input (ErrEmptyText).
package embedder
