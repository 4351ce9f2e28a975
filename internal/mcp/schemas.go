package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// projectIDProperty is the shared schema fragment for optional project
// scoping. An omitted project_id queries across all projects.
func projectIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Project identifier. Omit to search across all indexed projects",
	}
}

func maxDepthProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Maximum traversal depth (1-100, default 5)",
		"default":     5,
		"minimum":     1,
		"maximum":     100,
	}
}

// indexCodebaseTool returns the tool definition for index_codebase
func indexCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_codebase",
		Description: "Index a codebase: detect changed files, extract symbols, and resolve relationships. Incremental on re-runs",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root directory",
				},
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project identifier. Defaults to the base name of the root directory",
				},
				"force_full": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, ignore the stored revision marker and rescan every file",
					"default":     false,
				},
				"workers": map[string]interface{}{
					"type":        "integer",
					"description": "Number of concurrent file workers. Defaults to the CPU count",
				},
			},
			Required: []string{"path"},
		},
	}
}

// forceFullRescanTool returns the tool definition for force_full_rescan
func forceFullRescanTool() mcp.Tool {
	return mcp.Tool{
		Name:        "force_full_rescan",
		Description: "Clear a project's stored revision marker so the next index_codebase run re-indexes every file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project identifier",
				},
			},
			Required: []string{"project_id"},
		},
	}
}

// searchSymbolByNameTool returns the tool definition for search_symbol_by_name
func searchSymbolByNameTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_symbol_by_name",
		Description: "Find symbols by name (case-insensitive substring match, exact matches first)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Symbol name or name fragment to search for",
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to one language (e.g. go, python, typescript)",
				},
				"project_id": projectIDProperty(),
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"name"},
		},
	}
}

// searchSymbolSemanticTool returns the tool definition for search_symbol_semantic
func searchSymbolSemanticTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_symbol_semantic",
		Description: "Find symbols by meaning: the query is embedded and ranked against symbol embeddings by cosine similarity",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language description of the code to find",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"project_id": projectIDProperty(),
			},
			Required: []string{"query"},
		},
	}
}

// listProjectsTool returns the tool definition for list_projects
func listProjectsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_projects",
		Description: "List all indexed projects with their revision markers",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// getProjectInfoTool returns the tool definition for get_project_info
func getProjectInfoTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_project_info",
		Description: "Get details for one project: index statistics plus the current git state of its working tree",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project identifier",
				},
			},
			Required: []string{"project_id"},
		},
	}
}

// getStatsTool returns the tool definition for get_stats
func getStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_stats",
		Description: "Get index statistics, per project or aggregated across all projects",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project identifier. Omit for global statistics",
				},
			},
		},
	}
}

// findFunctionCallersTool returns the tool definition for find_function_callers
func findFunctionCallersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_function_callers",
		Description: "Find every call site of a function or method by name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"function_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the function or method being called",
				},
				"project_id": projectIDProperty(),
			},
			Required: []string{"function_name"},
		},
	}
}

// findInterfaceImplementationsTool returns the tool definition for find_interface_implementations
func findInterfaceImplementationsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_interface_implementations",
		Description: "Find the types that implement, extend, or inherit from a named interface or class",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"interface_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the interface or base class",
				},
				"project_id": projectIDProperty(),
			},
			Required: []string{"interface_name"},
		},
	}
}

// getSymbolRelationshipsTool returns the tool definition for get_symbol_relationships
func getSymbolRelationshipsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_symbol_relationships",
		Description: "List the direct relationship edges of a named symbol, filtered by direction and kind",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbol_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the symbol",
				},
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "Which edges to follow relative to the symbol",
					"enum":        []string{"incoming", "outgoing", "both"},
					"default":     "both",
				},
				"relationship_type": map[string]interface{}{
					"type":        "string",
					"description": "Restrict to one edge kind. Omit for all kinds",
					"enum":        []string{"calls", "inherits", "implements", "extends", "references", "imports", "contains"},
				},
				"project_id": projectIDProperty(),
			},
			Required: []string{"symbol_name"},
		},
	}
}

// getDependencyGraphTool returns the tool definition for get_dependency_graph
func getDependencyGraphTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_dependency_graph",
		Description: "Expand a project's symbol relationship graph breadth-first from its root symbols",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project identifier",
				},
				"max_depth": maxDepthProperty(),
			},
			Required: []string{"project_id"},
		},
	}
}

// analyzeCallHierarchyTool returns the tool definition for analyze_call_hierarchy
func analyzeCallHierarchyTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_call_hierarchy",
		Description: "Expand the transitive callers and callees of a function, cycle-safe, up to a depth bound",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"function_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the function or method to analyze",
				},
				"max_depth":  maxDepthProperty(),
				"project_id": projectIDProperty(),
			},
			Required: []string{"function_name"},
		},
	}
}

// deleteProjectTool returns the tool definition for delete_project
func deleteProjectTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_project",
		Description: "Delete a project and all of its indexed files, symbols, relationships, and embeddings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project_id": map[string]interface{}{
					"type":        "string",
					"description": "Project identifier",
				},
			},
			Required: []string{"project_id"},
		},
	}
}

// healthCheckTool returns the tool definition for health_check
func healthCheckTool() mcp.Tool {
	return mcp.Tool{
		Name:        "health_check",
		Description: "Report server health: storage reachability, build mode, and the active embedding provider",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
