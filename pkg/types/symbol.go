package types

import "errors"

// SymbolKind classifies an extracted symbol. The set is open: extractors
// for new languages may report kinds not listed here, and unrecognized
// kinds normalize to KindUnknown rather than failing the scan.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindClass     SymbolKind = "class"
	KindStruct    SymbolKind = "struct"
	KindInterface SymbolKind = "interface"
	KindProtocol  SymbolKind = "protocol"
	KindTrait     SymbolKind = "trait"
	KindEnum      SymbolKind = "enum"
	KindType      SymbolKind = "type"
	KindConst     SymbolKind = "const"
	KindVar       SymbolKind = "var"
	KindField     SymbolKind = "field"
	KindModule    SymbolKind = "module"
	KindUnknown   SymbolKind = "unknown"
)

var knownKinds = map[SymbolKind]bool{
	KindFunction:  true,
	KindMethod:    true,
	KindClass:     true,
	KindStruct:    true,
	KindInterface: true,
	KindProtocol:  true,
	KindTrait:     true,
	KindEnum:      true,
	KindType:      true,
	KindConst:     true,
	KindVar:       true,
	KindField:     true,
	KindModule:    true,
	KindUnknown:   true,
}

// NormalizeKind maps arbitrary extractor output onto the known kind set,
// falling back to KindUnknown for anything unrecognized.
func NormalizeKind(s string) SymbolKind {
	k := SymbolKind(s)
	if knownKinds[k] {
		return k
	}
	return KindUnknown
}

// Callable reports whether symbols of this kind can appear as the target
// of a call edge.
func (k SymbolKind) Callable() bool {
	return k == KindFunction || k == KindMethod
}

// Implementable reports whether symbols of this kind can be implemented,
// extended, or inherited from.
func (k SymbolKind) Implementable() bool {
	return k == KindInterface || k == KindProtocol || k == KindClass || k == KindTrait
}

// Symbol is a named code entity extracted from a single source file.
type Symbol struct {
	ID        int64
	ProjectID string

	Name     string
	Kind     SymbolKind
	Language string

	FilePath  string // relative to the project root
	LineStart int
	LineEnd   int

	Snippet  string // declaration line(s), used for display and embedding
	FileHash string // content hash of the file this symbol came from
}

// Validate checks the structural invariants of a symbol before storage.
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return errors.New("symbol name is required")
	}
	if s.ProjectID == "" {
		return errors.New("project ID is required")
	}
	if s.Language == "" {
		return errors.New("language is required")
	}
	if s.FilePath == "" {
		return errors.New("file path is required")
	}
	if s.LineStart <= 0 || s.LineEnd <= 0 {
		return errors.New("invalid position: line numbers must be positive")
	}
	if s.LineStart > s.LineEnd {
		return errors.New("invalid position: start line must be before or equal to end line")
	}
	if !knownKinds[s.Kind] {
		return errors.New("invalid symbol kind")
	}
	return nil
}
