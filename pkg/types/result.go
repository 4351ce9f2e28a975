package types

// SearchResult represents a single search hit with relevance information.
type SearchResult struct {
	// Identification
	SymbolID int64
	Rank     int // Position in result set (1-based)

	// Scoring
	RelevanceScore float64 // Name-match score or cosine similarity

	// Metadata
	Symbol *Symbol
}

// Validate checks if the search result is valid.
func (sr *SearchResult) Validate() error {
	if sr.SymbolID == 0 {
		return ErrInvalidSymbolID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.RelevanceScore < 0 || sr.RelevanceScore > 1 {
		return ErrInvalidRelevanceScore
	}

	if sr.Symbol == nil {
		return ErrMissingSymbol
	}

	return nil
}
