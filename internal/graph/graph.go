// Package graph answers relationship queries over the symbol store:
// callers of a function, implementations of an interface, dependency
// graphs, and call hierarchies. It is a pure read side; all traversals
// carry visited sets so cyclic code (mutual recursion, circular
// imports) terminates.
package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mkrause/codegraph-mcp/internal/storage"
	"github.com/mkrause/codegraph-mcp/pkg/types"
)

// ErrSymbolNotFound is returned when a query names a symbol the index
// does not contain.
var ErrSymbolNotFound = errors.New("symbol not found")

// MaxDepth is the hard ceiling on traversal depth. Requests above it
// are clamped, never rejected.
const MaxDepth = 100

// DefaultDepth applies when a request leaves the depth unset
const DefaultDepth = 5

// Edge is a resolved relationship with both endpoint symbols loaded
type Edge struct {
	Source *types.Symbol
	Target *types.Symbol
	Kind   types.RelationshipKind
	Line   int
}

// Node is a symbol reached during a traversal, tagged with its
// distance from the traversal origin.
type Node struct {
	Symbol *types.Symbol
	Depth  int
}

// DependencyGraph is the BFS expansion of a project's relationship
// edges, deduplicated by symbol.
type DependencyGraph struct {
	Nodes []Node
	Edges []Edge

	// Truncated is set when maxDepth cut the expansion short
	Truncated bool
}

// Hierarchy is the two-directional call expansion around a function:
// who transitively calls it, and what it transitively calls.
type Hierarchy struct {
	Roots   []*types.Symbol
	Callers []Node
	Callees []Node
}

// Engine executes graph queries against a Storage
type Engine struct {
	storage storage.Storage
}

// New creates a graph query engine
func New(store storage.Storage) *Engine {
	return &Engine{storage: store}
}

// FindCallers returns the call edges into every function or method
// with the given name.
func (e *Engine) FindCallers(ctx context.Context, projectID, functionName string) ([]Edge, error) {
	targets, err := e.namedSymbols(ctx, projectID, functionName, func(s *types.Symbol) bool {
		return s.Kind.Callable()
	})
	if err != nil {
		return nil, err
	}

	var edges []Edge
	for _, target := range targets {
		rels, err := e.storage.ListRelationshipsBySymbol(ctx, target.ID, types.DirIncoming)
		if err != nil {
			return nil, err
		}
		for _, rel := range rels {
			if rel.Kind != types.RelCalls {
				continue
			}
			source, err := e.storage.GetSymbol(ctx, rel.SourceID)
			if err != nil {
				return nil, err
			}
			edges = append(edges, Edge{Source: source, Target: target, Kind: rel.Kind, Line: rel.Line})
		}
	}
	sortEdges(edges)
	return edges, nil
}

// FindImplementations returns the symbols connected to the named
// interface-like symbol by an implementation-flavored edge.
func (e *Engine) FindImplementations(ctx context.Context, projectID, interfaceName string) ([]Edge, error) {
	targets, err := e.namedSymbols(ctx, projectID, interfaceName, func(s *types.Symbol) bool {
		return s.Kind.Implementable()
	})
	if err != nil {
		return nil, err
	}

	implKinds := make(map[types.RelationshipKind]bool)
	for _, kind := range types.ImplementationKinds {
		implKinds[kind] = true
	}

	var edges []Edge
	for _, target := range targets {
		rels, err := e.storage.ListRelationshipsBySymbol(ctx, target.ID, types.DirIncoming)
		if err != nil {
			return nil, err
		}
		for _, rel := range rels {
			if !implKinds[rel.Kind] {
				continue
			}
			source, err := e.storage.GetSymbol(ctx, rel.SourceID)
			if err != nil {
				return nil, err
			}
			edges = append(edges, Edge{Source: source, Target: target, Kind: rel.Kind, Line: rel.Line})
		}
	}
	sortEdges(edges)
	return edges, nil
}

// Relationships returns the edges touching the named symbol, filtered
// by direction and optionally by kind ("" matches all kinds).
func (e *Engine) Relationships(ctx context.Context, projectID, symbolName string, direction types.Direction, kind types.RelationshipKind) ([]Edge, error) {
	symbols, err := e.namedSymbols(ctx, projectID, symbolName, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var edges []Edge
	for _, sym := range symbols {
		rels, err := e.storage.ListRelationshipsBySymbol(ctx, sym.ID, direction)
		if err != nil {
			return nil, err
		}
		for _, rel := range rels {
			if kind != "" && rel.Kind != kind {
				continue
			}
			if seen[rel.ID] {
				continue
			}
			seen[rel.ID] = true

			source, err := e.storage.GetSymbol(ctx, rel.SourceID)
			if err != nil {
				return nil, err
			}
			target, err := e.storage.GetSymbol(ctx, rel.TargetID)
			if err != nil {
				return nil, err
			}
			edges = append(edges, Edge{Source: source, Target: target, Kind: rel.Kind, Line: rel.Line})
		}
	}
	sortEdges(edges)
	return edges, nil
}

// DependencyGraph expands the project's relationship graph breadth
// first from its roots (symbols nothing points at). Symbols only
// reachable through cycles are picked up as secondary roots so every
// connected symbol appears exactly once.
func (e *Engine) DependencyGraph(ctx context.Context, projectID string, maxDepth int) (*DependencyGraph, error) {
	maxDepth = clampDepth(maxDepth)

	adj, err := e.loadAdjacency(ctx, projectID)
	if err != nil {
		return nil, err
	}

	graph := &DependencyGraph{}
	visited := make(map[int64]bool)
	cut := make(map[int64]bool)

	// Stable root order: ID ascending
	ids := make([]int64, 0, len(adj.symbols))
	for id := range adj.symbols {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	expand := func(rootID int64) {
		queue := []Node{{Symbol: adj.symbols[rootID], Depth: 0}}
		visited[rootID] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			graph.Nodes = append(graph.Nodes, node)

			for _, rel := range adj.outgoing[node.Symbol.ID] {
				target, ok := adj.symbols[rel.TargetID]
				if !ok {
					continue
				}
				if visited[rel.TargetID] {
					graph.Edges = append(graph.Edges, Edge{
						Source: node.Symbol, Target: target, Kind: rel.Kind, Line: rel.Line,
					})
					continue
				}
				// Edges into the truncated frontier are dropped with their nodes
				if node.Depth+1 > maxDepth {
					graph.Truncated = true
					cut[rel.TargetID] = true
					continue
				}
				visited[rel.TargetID] = true
				queue = append(queue, Node{Symbol: target, Depth: node.Depth + 1})
				graph.Edges = append(graph.Edges, Edge{
					Source: node.Symbol, Target: target, Kind: rel.Kind, Line: rel.Line,
				})
			}
		}
	}

	for _, id := range ids {
		if !visited[id] && len(adj.incoming[id]) == 0 {
			expand(id)
		}
	}
	// Leftovers fall into two camps: symbols only reachable through
	// cycles, which get expanded as secondary roots, and symbols beyond
	// the depth cap, which stay excluded
	for _, id := range ids {
		if !visited[id] && !cut[id] {
			expand(id)
		}
	}

	return graph, nil
}

// CallHierarchy walks call edges both ways from the named function:
// transitive callers upward, transitive callees downward. Each
// direction is an independent bounded BFS with its own visited set, so
// recursion and call cycles terminate.
func (e *Engine) CallHierarchy(ctx context.Context, projectID, functionName string, maxDepth int) (*Hierarchy, error) {
	maxDepth = clampDepth(maxDepth)

	roots, err := e.namedSymbols(ctx, projectID, functionName, func(s *types.Symbol) bool {
		return s.Kind.Callable()
	})
	if err != nil {
		return nil, err
	}

	adj, err := e.loadAdjacency(ctx, projectID)
	if err != nil {
		return nil, err
	}

	hierarchy := &Hierarchy{Roots: roots}
	hierarchy.Callers = adj.walkCalls(roots, maxDepth, func(id int64) []*types.Relationship {
		return adj.incoming[id]
	}, func(rel *types.Relationship) int64 {
		return rel.SourceID
	})
	hierarchy.Callees = adj.walkCalls(roots, maxDepth, func(id int64) []*types.Relationship {
		return adj.outgoing[id]
	}, func(rel *types.Relationship) int64 {
		return rel.TargetID
	})
	return hierarchy, nil
}

// adjacency is a project's symbols and edges loaded into memory for
// traversal without per-step queries
type adjacency struct {
	symbols  map[int64]*types.Symbol
	outgoing map[int64][]*types.Relationship
	incoming map[int64][]*types.Relationship
}

func (e *Engine) loadAdjacency(ctx context.Context, projectID string) (*adjacency, error) {
	symbols, err := e.storage.ListSymbols(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load symbols: %w", err)
	}
	rels, err := e.storage.ListRelationships(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}

	adj := &adjacency{
		symbols:  make(map[int64]*types.Symbol, len(symbols)),
		outgoing: make(map[int64][]*types.Relationship),
		incoming: make(map[int64][]*types.Relationship),
	}
	for _, sym := range symbols {
		adj.symbols[sym.ID] = sym
	}
	for _, rel := range rels {
		adj.outgoing[rel.SourceID] = append(adj.outgoing[rel.SourceID], rel)
		adj.incoming[rel.TargetID] = append(adj.incoming[rel.TargetID], rel)
	}
	return adj, nil
}

// walkCalls runs a bounded BFS over call edges in one direction,
// returning the reached symbols tagged with their distance from the
// nearest root.
func (a *adjacency) walkCalls(roots []*types.Symbol, maxDepth int, edges func(int64) []*types.Relationship, next func(*types.Relationship) int64) []Node {
	visited := make(map[int64]bool, len(roots))
	var queue []Node
	for _, root := range roots {
		visited[root.ID] = true
		queue = append(queue, Node{Symbol: root, Depth: 0})
	}

	var reached []Node
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node.Depth > 0 {
			reached = append(reached, node)
		}
		if node.Depth >= maxDepth {
			continue
		}
		for _, rel := range edges(node.Symbol.ID) {
			if rel.Kind != types.RelCalls {
				continue
			}
			id := next(rel)
			if visited[id] {
				continue
			}
			sym, ok := a.symbols[id]
			if !ok {
				continue
			}
			visited[id] = true
			queue = append(queue, Node{Symbol: sym, Depth: node.Depth + 1})
		}
	}
	return reached
}

// namedSymbols looks up symbols by exact name, optionally filtered by a
// kind predicate. An empty result is ErrSymbolNotFound so callers can
// distinguish "unknown name" from "known but unconnected".
func (e *Engine) namedSymbols(ctx context.Context, projectID, name string, keep func(*types.Symbol) bool) ([]*types.Symbol, error) {
	symbols, err := e.storage.FindSymbolsByName(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	if keep != nil {
		filtered := symbols[:0]
		for _, sym := range symbols {
			if keep(sym) {
				filtered = append(filtered, sym)
			}
		}
		symbols = filtered
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return symbols, nil
}

func clampDepth(depth int) int {
	if depth <= 0 {
		return DefaultDepth
	}
	if depth > MaxDepth {
		return MaxDepth
	}
	return depth
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source.FilePath != edges[j].Source.FilePath {
			return edges[i].Source.FilePath < edges[j].Source.FilePath
		}
		return edges[i].Line < edges[j].Line
	})
}
