package indexer

import (
	"context"
	"fmt"
	"path"

	"github.com/mkrause/codegraph-mcp/internal/storage"
	"github.com/mkrause/codegraph-mcp/pkg/types"
)

// fileRefs pairs a file's extraction output with its path so the
// resolver can anchor source-symbol lookups.
type fileRefs struct {
	FilePath string
	Symbols  []*types.Symbol
	Refs     []types.RawReference
}

// ResolveStats summarizes a resolution pass
type ResolveStats struct {
	EdgesCreated int
	Unresolved   int
}

// RelationshipResolver turns the raw name references collected during
// extraction into relationship edges between stored symbols. It runs as
// a second pass after all file units commit, so references to symbols
// defined in files processed later still resolve.
type RelationshipResolver struct {
	storage storage.Storage
}

// NewRelationshipResolver creates a resolver
func NewRelationshipResolver(store storage.Storage) *RelationshipResolver {
	return &RelationshipResolver{storage: store}
}

// Resolve matches raw references against the project's symbol table and
// inserts the resulting edges in one transaction. Unresolved references
// are counted, never errors: a call to an external library simply has
// no target in the index.
func (r *RelationshipResolver) Resolve(ctx context.Context, projectID string, files []fileRefs) (*ResolveStats, error) {
	stats := &ResolveStats{}

	symbols, err := r.storage.ListSymbols(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load symbol table: %w", err)
	}

	byName := make(map[string][]*types.Symbol)
	for _, sym := range symbols {
		byName[sym.Name] = append(byName[sym.Name], sym)
	}

	tx, err := r.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, file := range files {
		for _, ref := range file.Refs {
			source := findSource(file, ref)
			if source == nil {
				stats.Unresolved++
				continue
			}
			targets := r.candidates(byName[ref.TargetName], ref.Kind, source)
			if len(targets) == 0 {
				stats.Unresolved++
				continue
			}
			for _, target := range targets {
				rel := &types.Relationship{
					ProjectID: projectID,
					SourceID:  source.ID,
					TargetID:  target.ID,
					Kind:      ref.Kind,
					Line:      ref.Line,
				}
				if err := tx.InsertRelationship(ctx, rel); err != nil {
					return nil, fmt.Errorf("insert edge %s -> %s: %w", source.Name, target.Name, err)
				}
				stats.EdgesCreated++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit edges: %w", err)
	}
	return stats, nil
}

// findSource locates the reference's enclosing symbol among the file's
// own symbols, preferring one whose line range contains the reference.
func findSource(file fileRefs, ref types.RawReference) *types.Symbol {
	var fallback *types.Symbol
	for _, sym := range file.Symbols {
		if sym.Name != ref.SourceName {
			continue
		}
		if ref.SourceKind != "" && sym.Kind != ref.SourceKind {
			continue
		}
		if ref.Line >= sym.LineStart && ref.Line <= sym.LineEnd {
			return sym
		}
		if fallback == nil {
			fallback = sym
		}
	}
	return fallback
}

// candidates filters and ranks target symbols for a reference kind.
// Ranking is locality based: same file beats same directory beats the
// rest of the project. All targets at the best rank are kept, so an
// ambiguous name produces one edge per plausible target rather than a
// silent guess.
func (r *RelationshipResolver) candidates(matches []*types.Symbol, kind types.RelationshipKind, source *types.Symbol) []*types.Symbol {
	var eligible []*types.Symbol
	for _, sym := range matches {
		if sym.ID == source.ID {
			continue
		}
		switch kind {
		case types.RelCalls:
			if !sym.Kind.Callable() {
				continue
			}
		case types.RelImplements, types.RelExtends, types.RelInherits:
			if !sym.Kind.Implementable() {
				continue
			}
		}
		eligible = append(eligible, sym)
	}
	if len(eligible) <= 1 {
		return eligible
	}

	best := 3
	ranked := make(map[int][]*types.Symbol)
	srcDir := path.Dir(source.FilePath)
	for _, sym := range eligible {
		rank := 2
		switch {
		case sym.FilePath == source.FilePath:
			rank = 0
		case path.Dir(sym.FilePath) == srcDir:
			rank = 1
		}
		ranked[rank] = append(ranked[rank], sym)
		if rank < best {
			best = rank
		}
	}
	return ranked[best]
}
