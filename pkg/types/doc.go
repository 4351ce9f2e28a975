// Package types provides shared type definitions for the CodeGraph MCP server.
//
// This package defines domain types used across multiple components of
// CodeGraph, including symbols, relationships, extraction results, and
// search results.
//
// # Core Types
//
// Symbol represents a named code entity (function, class, interface, ...)
// extracted from a single source file:
//
//	symbol := &types.Symbol{
//	    Name:     "ParseFile",
//	    Kind:     types.KindFunction,
//	    Language: "go",
//	    FilePath: "internal/parser/parser.go",
//	}
//
// Relationship represents a resolved, directed edge between two stored
// symbols:
//
//	rel := &types.Relationship{
//	    SourceID: caller.ID,
//	    TargetID: callee.ID,
//	    Kind:     types.RelCalls,
//	}
//
// RawReference is the unresolved form an extractor emits; the resolver
// turns raw references into relationships once the scan's symbols are
// committed.
//
// # Validation
//
// Domain types implement validation methods to ensure data integrity:
//
//	if err := symbol.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Search Results
//
// SearchResult combines symbol metadata with relevance scoring. Relevance
// scores are normalized to [0, 1] range, with higher values indicating
// better matches.
package types
