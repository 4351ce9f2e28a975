// Package mcp exposes the index over the Model Context Protocol.
//
// The server speaks MCP over stdio and registers one tool per
// operation: indexing (index_codebase, force_full_rescan), search
// (search_symbol_by_name, search_symbol_semantic), project management
// (list_projects, get_project_info, get_stats, delete_project), graph
// queries (find_function_callers, find_interface_implementations,
// get_symbol_relationships, get_dependency_graph,
// analyze_call_hierarchy), and health_check.
//
// # Usage
//
//	srv, err := mcp.NewServer("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Serve(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Tool handlers validate their arguments, dispatch to the indexer,
// searcher, or graph engine, and return indented JSON. Failures are
// reported as MCPError values carrying JSON-RPC error codes; the
// transport layer handles encoding.
//
// All components share one storage handle and one embedding provider,
// so embeddings cached while indexing are reused by semantic search.
// Search caches are invalidated after every scan and delete.
package mcp
