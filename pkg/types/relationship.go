package types

import "errors"

// RelationshipKind classifies a directed edge between two symbols.
type RelationshipKind string

const (
	RelCalls      RelationshipKind = "calls"
	RelInherits   RelationshipKind = "inherits"
	RelImplements RelationshipKind = "implements"
	RelExtends    RelationshipKind = "extends"
	RelReferences RelationshipKind = "references"
	RelImports    RelationshipKind = "imports"
	RelContains   RelationshipKind = "contains"
)

var knownRelKinds = map[RelationshipKind]bool{
	RelCalls:      true,
	RelInherits:   true,
	RelImplements: true,
	RelExtends:    true,
	RelReferences: true,
	RelImports:    true,
	RelContains:   true,
}

// ValidRelationshipKind reports whether s names a known edge kind.
func ValidRelationshipKind(s string) bool {
	return knownRelKinds[RelationshipKind(s)]
}

// ImplementationKinds are the edge kinds that count as "implements" for
// interface implementation queries.
var ImplementationKinds = []RelationshipKind{RelImplements, RelExtends, RelInherits}

// Direction selects which edges a relationship query follows relative to
// the anchor symbol.
type Direction string

const (
	DirIncoming Direction = "incoming"
	DirOutgoing Direction = "outgoing"
	DirBoth     Direction = "both"
)

// ParseDirection normalizes a direction argument, defaulting to DirBoth.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirIncoming, DirOutgoing, DirBoth:
		return Direction(s), nil
	case "":
		return DirBoth, nil
	default:
		return "", errors.New("direction must be incoming, outgoing, or both")
	}
}

// Relationship is a resolved, directed edge between two stored symbols.
type Relationship struct {
	ID        int64
	ProjectID string

	SourceID int64
	TargetID int64
	Kind     RelationshipKind

	Line    int    // line in the source symbol's file where the reference occurs
	Payload string // optional JSON detail (argument count, receiver expression, ...)
}

// Validate checks the structural invariants of an edge before storage.
func (r *Relationship) Validate() error {
	if r.ProjectID == "" {
		return errors.New("project ID is required")
	}
	if r.SourceID == 0 || r.TargetID == 0 {
		return errors.New("source and target symbol IDs are required")
	}
	if !knownRelKinds[r.Kind] {
		return errors.New("invalid relationship kind")
	}
	return nil
}
