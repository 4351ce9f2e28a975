// Package extractor turns source files into symbols and raw references.
//
// Each language is handled by an Extractor registered in a Registry.
// Extractors are heuristic: they never fail on malformed input, returning
// whatever symbols they could recognize plus diagnostics for anything
// they had to skip.
package extractor

import (
	"sort"
	"sync"

	"github.com/mkrause/codegraph-mcp/pkg/types"
)

// Extractor extracts symbols and raw references from a single source file.
// Implementations must tolerate malformed input: partial results plus
// diagnostics, never an error for bad syntax.
type Extractor interface {
	// Language returns the language tag this extractor handles
	Language() string

	// Extract parses content and returns symbols and unresolved references.
	// path is the project-relative file path, used for diagnostics and
	// symbol locations.
	Extract(path string, content []byte) (*types.ExtractResult, error)
}

// Registry maps language tags to extractors
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// NewDefaultRegistry creates a registry with the built-in extractors
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewGoExtractor())
	r.Register(NewPythonExtractor())
	return r
}

// Register adds an extractor, replacing any existing one for the same language
func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[e.Language()] = e
}

// Get returns the extractor for a language tag, or nil if none is registered
func (r *Registry) Get(language string) Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.extractors[language]
}

// Languages returns the registered language tags in sorted order
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]string, 0, len(r.extractors))
	for lang := range r.extractors {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// ForFile detects the file's language and returns the matching extractor.
// Returns nil if the language is unknown or has no registered extractor.
func (r *Registry) ForFile(path string) Extractor {
	lang := DetectLanguage(path)
	if lang == "" {
		return nil
	}
	return r.Get(lang)
}
