package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mkrause/codegraph-mcp/internal/embedder"
	"github.com/mkrause/codegraph-mcp/internal/storage"
	"github.com/mkrause/codegraph-mcp/pkg/types"
)

const (
	defaultLimit = 10
	maxLimit     = 100
	cacheEntries = 1000
)

// NameRequest is a substring lookup over symbol names
type NameRequest struct {
	Name      string
	Language  string // optional filter
	ProjectID string // "" searches all projects
	Limit     int
	UseCache  bool
	CacheTTL  time.Duration
}

// SemanticRequest is an embedding-similarity search over symbol snippets
type SemanticRequest struct {
	Query     string
	ProjectID string // "" searches all projects
	TopK      int
	UseCache  bool
	CacheTTL  time.Duration
}

// Response contains search results and metadata
type Response struct {
	Results      []types.SearchResult
	TotalResults int
	Duration     time.Duration
	CacheHit     bool
}

// cacheEntry is a cached response with its expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Searcher answers name and semantic queries over the symbol store.
// Semantic search requires an embedder; name search works without one.
type Searcher struct {
	storage  storage.Storage
	embedder embedder.Embedder
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// NewSearcher creates a Searcher. embed may be nil to disable semantic
// search.
func NewSearcher(store storage.Storage, embed embedder.Embedder) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](cacheEntries)
	if err != nil {
		// Only reachable with a non-positive size
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		storage:  store,
		embedder: embed,
		cache:    cache,
	}
}

// SearchByName finds symbols whose name contains the requested string,
// exact matches first.
func (s *Searcher) SearchByName(ctx context.Context, req NameRequest) (*Response, error) {
	startTime := time.Now()

	if req.Name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	req.Limit = clampLimit(req.Limit)
	if req.CacheTTL == 0 {
		req.CacheTTL = time.Hour
	}

	hash := hashQuery("name", req.ProjectID, req.Name, req.Language, req.Limit)
	if req.UseCache {
		if cached := s.checkCache(hash); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	symbols, err := s.storage.SearchSymbolsByName(ctx, req.ProjectID, req.Name, req.Language, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("name search: %w", err)
	}

	results := make([]types.SearchResult, len(symbols))
	for i, sym := range symbols {
		score := 0.5
		if sym.Name == req.Name {
			score = 1.0
		}
		results[i] = types.SearchResult{
			SymbolID:       sym.ID,
			Rank:           i + 1,
			RelevanceScore: score,
			Symbol:         sym,
		}
	}

	response := &Response{
		Results:      results,
		TotalResults: len(results),
		Duration:     time.Since(startTime),
	}
	if req.UseCache && len(results) > 0 {
		s.storeInCache(hash, response, req.CacheTTL)
	}
	return response, nil
}

// SearchSemantic embeds the query and ranks symbols by cosine
// similarity of their stored snippet embeddings.
func (s *Searcher) SearchSemantic(ctx context.Context, req SemanticRequest) (*Response, error) {
	startTime := time.Now()

	if s.embedder == nil {
		return nil, fmt.Errorf("semantic search requires an embedding provider")
	}
	if req.Query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	req.TopK = clampLimit(req.TopK)
	if req.CacheTTL == 0 {
		req.CacheTTL = time.Hour
	}

	hash := hashQuery("semantic", req.ProjectID, req.Query, s.embedder.Model(), req.TopK)
	if req.UseCache {
		if cached := s.checkCache(hash); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: req.Query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.storage.SearchVector(ctx, req.ProjectID, embedding.Vector, req.TopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]types.SearchResult, 0, len(matches))
	for _, match := range matches {
		sym, err := s.storage.GetSymbol(ctx, match.SymbolID)
		if err != nil {
			// Symbol deleted between ranking and fetch
			continue
		}
		results = append(results, types.SearchResult{
			SymbolID:       match.SymbolID,
			Rank:           len(results) + 1,
			RelevanceScore: match.SimilarityScore,
			Symbol:         sym,
		})
	}

	response := &Response{
		Results:      results,
		TotalResults: len(results),
		Duration:     time.Since(startTime),
	}
	if req.UseCache && len(results) > 0 {
		s.storeInCache(hash, response, req.CacheTTL)
	}
	return response, nil
}

// InvalidateCache drops all cached responses. Called after a scan so
// stale results never outlive a re-index.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// checkCache returns a copied response for the hash, or nil on miss or
// expiry
func (s *Searcher) checkCache(hash [32]byte) *Response {
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	// Copy under the read lock so the entry can't change mid-copy
	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

func (s *Searcher) storeInCache(hash [32]byte, response *Response, ttl time.Duration) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(ttl),
	}

	s.cacheMu.Lock()
	s.cache.Add(hash, entry)
	s.cacheMu.Unlock()
}

// copyResponse deep-copies a response so callers can't mutate cached
// state through the returned slices and pointers
func copyResponse(src *Response) *Response {
	if src == nil {
		return nil
	}

	dst := &Response{
		TotalResults: src.TotalResults,
		Duration:     src.Duration,
		CacheHit:     src.CacheHit,
		Results:      make([]types.SearchResult, len(src.Results)),
	}
	for i, result := range src.Results {
		dst.Results[i] = result
		if result.Symbol != nil {
			symbolCopy := *result.Symbol
			dst.Results[i].Symbol = &symbolCopy
		}
	}
	return dst
}

// hashQuery builds a deterministic cache key from the query parameters
func hashQuery(kind, projectID, query, variant string, limit int) [32]byte {
	var data strings.Builder
	data.WriteString(kind)
	data.WriteString("|")
	data.WriteString(projectID)
	data.WriteString("|")
	data.WriteString(query)
	data.WriteString("|")
	data.WriteString(variant)
	data.WriteString("|")
	fmt.Fprintf(&data, "%d", limit)
	return sha256.Sum256([]byte(data.String()))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
