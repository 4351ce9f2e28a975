package types

// RawReference is an unresolved mention of another symbol, recorded by an
// extractor during the per-file pass. Resolution to a concrete target
// symbol happens later, once the whole scan's symbols are committed.
type RawReference struct {
	SourceName string     // name of the referencing symbol
	SourceKind SymbolKind // kind of the referencing symbol
	TargetName string     // referenced name, as written in source
	Kind       RelationshipKind
	Line       int
}

// Diagnostic describes a non-fatal problem encountered while extracting a
// file. Extractors report diagnostics instead of failing on malformed
// input.
type Diagnostic struct {
	FilePath string
	Line     int
	Message  string
}

// ExtractResult is the complete output of extracting one source file.
type ExtractResult struct {
	FilePath string
	Language string

	Symbols     []*Symbol
	References  []RawReference
	Diagnostics []Diagnostic
}
