package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consumed by the factory
const (
	EnvProvider = "CODEGRAPH_EMBEDDING_PROVIDER"
	EnvModel    = "CODEGRAPH_EMBEDDING_MODEL"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	Host      string // Ollama server address
	Model     string
	CacheSize int
}

// NewFromEnv creates an embedder based on environment variables.
// Priority:
//  1. CODEGRAPH_EMBEDDING_PROVIDER (ollama, local)
//  2. OLLAMA_HOST set -> ollama
//  3. Default to the offline local provider
func NewFromEnv() (Embedder, error) {
	provider := os.Getenv(EnvProvider)
	model := os.Getenv(EnvModel)

	cache := NewCache(10000) // Default cache size

	// Explicit provider selection
	if provider != "" {
		provider = strings.ToLower(provider)
		switch provider {
		case ProviderOllama:
			return NewOllamaProvider("", model, cache)
		case ProviderLocal:
			return NewLocalProvider(cache)
		default:
			return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, provider)
		}
	}

	// Auto-detect: a configured Ollama host opts in to real embeddings
	if os.Getenv(EnvOllamaHost) != "" {
		return NewOllamaProvider("", model, cache)
	}

	// Fallback to local provider
	return NewLocalProvider(cache)
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderOllama:
		return NewOllamaProvider(cfg.Host, cfg.Model, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on the
// current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvOllamaHost) != "" {
		return ProviderOllama
	}

	return ProviderLocal
}
