package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mkrause/codegraph-mcp/internal/graph"
	"github.com/mkrause/codegraph-mcp/pkg/types"
)

// handleFindFunctionCallers handles the find_function_callers tool invocation
func (s *Server) handleFindFunctionCallers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	functionName, err := requireString(args, "function_name")
	if err != nil {
		return nil, err
	}
	projectID := getStringDefault(args, "project_id", "")

	edges, err := s.graph.FindCallers(ctx, projectID, functionName)
	if err != nil {
		return nil, graphError(err, functionName)
	}

	response := map[string]interface{}{
		"function":      functionName,
		"total_callers": len(edges),
		"callers":       edgesJSON(edges),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleFindInterfaceImplementations handles the find_interface_implementations tool invocation
func (s *Server) handleFindInterfaceImplementations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	interfaceName, err := requireString(args, "interface_name")
	if err != nil {
		return nil, err
	}
	projectID := getStringDefault(args, "project_id", "")

	edges, err := s.graph.FindImplementations(ctx, projectID, interfaceName)
	if err != nil {
		return nil, graphError(err, interfaceName)
	}

	response := map[string]interface{}{
		"interface":             interfaceName,
		"total_implementations": len(edges),
		"implementations":       edgesJSON(edges),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetSymbolRelationships handles the get_symbol_relationships tool invocation
func (s *Server) handleGetSymbolRelationships(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	symbolName, err := requireString(args, "symbol_name")
	if err != nil {
		return nil, err
	}
	projectID := getStringDefault(args, "project_id", "")

	direction, err := types.ParseDirection(getStringDefault(args, "direction", ""))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid direction", map[string]interface{}{
			"param":   "direction",
			"allowed": []string{"incoming", "outgoing", "both"},
		})
	}

	var kind types.RelationshipKind
	if rt := getStringDefault(args, "relationship_type", ""); rt != "" {
		if !types.ValidRelationshipKind(rt) {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid relationship_type", map[string]interface{}{
				"param": "relationship_type",
				"value": rt,
			})
		}
		kind = types.RelationshipKind(rt)
	}

	edges, err := s.graph.Relationships(ctx, projectID, symbolName, direction, kind)
	if err != nil {
		return nil, graphError(err, symbolName)
	}

	response := map[string]interface{}{
		"symbol":              symbolName,
		"direction":           string(direction),
		"total_relationships": len(edges),
		"relationships":       edgesJSON(edges),
	}
	if kind != "" {
		response["relationship_type"] = string(kind)
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetDependencyGraph handles the get_dependency_graph tool invocation
func (s *Server) handleGetDependencyGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	projectID, err := requireString(args, "project_id")
	if err != nil {
		return nil, err
	}
	if _, err := s.getProject(ctx, projectID); err != nil {
		return nil, err
	}

	maxDepth := getIntDefault(args, "max_depth", 0)

	g, err := s.graph.DependencyGraph(ctx, projectID, maxDepth)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "graph expansion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"project_id":  projectID,
		"total_nodes": len(g.Nodes),
		"total_edges": len(g.Edges),
		"truncated":   g.Truncated,
		"nodes":       nodesJSON(g.Nodes),
		"edges":       edgesJSON(g.Edges),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAnalyzeCallHierarchy handles the analyze_call_hierarchy tool invocation
func (s *Server) handleAnalyzeCallHierarchy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	functionName, err := requireString(args, "function_name")
	if err != nil {
		return nil, err
	}
	projectID := getStringDefault(args, "project_id", "")
	maxDepth := getIntDefault(args, "max_depth", 0)

	hierarchy, err := s.graph.CallHierarchy(ctx, projectID, functionName, maxDepth)
	if err != nil {
		return nil, graphError(err, functionName)
	}

	roots := make([]map[string]interface{}, len(hierarchy.Roots))
	for i, sym := range hierarchy.Roots {
		roots[i] = symbolJSON(sym)
	}

	response := map[string]interface{}{
		"function": functionName,
		"roots":    roots,
		"callers":  nodesJSON(hierarchy.Callers),
		"callees":  nodesJSON(hierarchy.Callees),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// graphError maps graph engine failures to MCP errors
func graphError(err error, symbolName string) error {
	if errors.Is(err, graph.ErrSymbolNotFound) {
		return newMCPError(ErrorCodeSymbolNotFound, "symbol not found", map[string]interface{}{
			"symbol": symbolName,
		})
	}
	return newMCPError(ErrorCodeInternalError, "graph query failed", map[string]interface{}{
		"error": err.Error(),
	})
}

// edgesJSON formats resolved edges for tool output
func edgesJSON(edges []graph.Edge) []map[string]interface{} {
	out := make([]map[string]interface{}, len(edges))
	for i, e := range edges {
		out[i] = map[string]interface{}{
			"kind":   string(e.Kind),
			"line":   e.Line,
			"source": symbolJSON(e.Source),
			"target": symbolJSON(e.Target),
		}
	}
	return out
}

// nodesJSON formats traversal nodes for tool output
func nodesJSON(nodes []graph.Node) []map[string]interface{} {
	out := make([]map[string]interface{}, len(nodes))
	for i, n := range nodes {
		out[i] = map[string]interface{}{
			"depth":  n.Depth,
			"symbol": symbolJSON(n.Symbol),
		}
	}
	return out
}
