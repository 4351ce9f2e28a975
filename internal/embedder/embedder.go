package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultCacheSize bounds the embedding cache when the caller passes no size
const defaultCacheSize = 10000

// Sentinel errors shared by all providers
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrUnsupportedModel  = errors.New("unsupported model")
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrBatchTooLarge     = errors.New("batch size exceeds limit")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
)

// Embedding is a vector plus the provenance needed to decide whether a
// stored vector is comparable to a fresh one.
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string // SHA-256 of the source text, the cache key
}

// EmbeddingRequest asks for one embedding
type EmbeddingRequest struct {
	Text  string
	Model string // overrides the provider's default model when set
}

// BatchEmbeddingRequest asks for embeddings of several texts in one call
type BatchEmbeddingRequest struct {
	Texts []string
	Model string // overrides the provider's default model when set
}

// BatchEmbeddingResponse carries the embeddings in request order
type BatchEmbeddingResponse struct {
	Embeddings []*Embedding
	Provider   string
	Model      string
}

// Embedder generates vector embeddings for symbol text. Implementations
// must be safe for concurrent use; the indexer calls them from worker
// goroutines.
type Embedder interface {
	// GenerateEmbedding embeds a single text
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)

	// GenerateBatch embeds several texts, preserving input order
	GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error)

	// Dimension returns the vector length this provider produces
	Dimension() int

	// Provider returns the provider name
	Provider() string

	// Model returns the model name
	Model() string

	// Close releases any resources held by the embedder
	Close() error
}

// Cache is an LRU of embeddings keyed by content hash. Re-indexing an
// unchanged symbol hits the cache instead of the provider.
type Cache struct {
	cache *lru.Cache[string, *Embedding]
}

// NewCache creates a cache holding at most maxLen embeddings. Sizes at
// or below zero fall back to the default.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = defaultCacheSize
	}
	cache, err := lru.New[string, *Embedding](maxLen)
	if err != nil {
		// lru.New only fails on non-positive sizes, which the guard
		// above rules out
		cache, _ = lru.New[string, *Embedding](defaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get returns the cached embedding for a hash. The vector is copied so
// a caller mutating its slice cannot corrupt the cached entry.
func (c *Cache) Get(hash string) (*Embedding, bool) {
	emb, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}

	vector := make([]float32, len(emb.Vector))
	copy(vector, emb.Vector)

	return &Embedding{
		Vector:    vector,
		Dimension: emb.Dimension,
		Provider:  emb.Provider,
		Model:     emb.Model,
		Hash:      emb.Hash,
	}, true
}

// Set stores an embedding, evicting the least recently used entry when full
func (c *Cache) Set(hash string, emb *Embedding) {
	c.cache.Add(hash, emb)
}

// Size returns the number of cached embeddings
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear drops every cached embedding
func (c *Cache) Clear() {
	c.cache.Purge()
}

// ComputeHash returns the hex SHA-256 of text, the cache and storage key
// for its embedding
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// ValidateRequest rejects requests no provider could serve
func ValidateRequest(req EmbeddingRequest) error {
	if req.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// ValidateBatchRequest rejects empty batches and batches containing
// empty texts, naming the offending index.
func ValidateBatchRequest(req BatchEmbeddingRequest) error {
	if len(req.Texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrInvalidInput)
	}
	for i, text := range req.Texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}
