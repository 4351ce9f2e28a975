package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mkrause/codegraph-mcp/internal/gitrepo"
	"github.com/mkrause/codegraph-mcp/internal/indexer"
	"github.com/mkrause/codegraph-mcp/internal/searcher"
	"github.com/mkrause/codegraph-mcp/internal/storage"
	"github.com/mkrause/codegraph-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeProjectNotFound    = -32001 // No project with the given identifier
	ErrorCodeIndexingInProgress = -32002 // Another scan is already running for the project
	ErrorCodeSymbolNotFound     = -32003 // No symbol with the given name
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// handleIndexCodebase handles the index_codebase tool invocation
func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	config := &indexer.Config{
		ProjectID: getStringDefault(args, "project_id", ""),
		Workers:   getIntDefault(args, "workers", 0),
		ForceFull: getBoolDefault(args, "force_full", false),
	}

	return s.runScan(ctx, path, config)
}

// handleForceFullRescan handles the force_full_rescan tool invocation.
// It only clears the project's stored revision marker; the actual
// rescan happens on the next index_codebase call, which then sees no
// marker and enumerates every file.
func (s *Server) handleForceFullRescan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	projectID, err := requireString(args, "project_id")
	if err != nil {
		return nil, err
	}

	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	project.LastCommitHash = ""
	project.LastBranch = ""
	if err := s.storage.UpdateProject(ctx, project); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to clear revision marker", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"project_id":     project.ProjectID,
		"marker_cleared": true,
		"message":        "revision marker cleared; the next scan will re-index every file",
	})), nil
}

// runScan executes a scan and formats its statistics. Cached search
// results are dropped afterwards so they can't serve stale symbols.
func (s *Server) runScan(ctx context.Context, rootPath string, config *indexer.Config) (*mcp.CallToolResult, error) {
	stats, err := s.coordinator.Scan(ctx, rootPath, config, nil)
	if err != nil {
		if errors.Is(err, indexer.ErrScanInProgress) {
			return nil, newMCPError(ErrorCodeIndexingInProgress, "a scan is already running for this project", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.searcher.InvalidateCache()

	response := map[string]interface{}{
		"scan_id":           stats.ScanID,
		"project_id":        stats.ProjectID,
		"full_rescan":       stats.FullRescan,
		"files_indexed":     stats.FilesIndexed,
		"files_skipped":     stats.FilesSkipped,
		"files_deleted":     stats.FilesDeleted,
		"files_failed":      stats.FilesFailed,
		"symbols_extracted": stats.SymbolsExtracted,
		"edges_created":     stats.EdgesCreated,
		"unresolved_refs":   stats.UnresolvedRefs,
		"duration_ms":       stats.Duration.Milliseconds(),
	}
	if len(stats.ErrorMessages) > 0 {
		response["error_count"] = len(stats.ErrorMessages)
		if len(stats.ErrorMessages) > 5 {
			response["errors"] = stats.ErrorMessages[:5]
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchSymbolByName handles the search_symbol_by_name tool invocation
func (s *Server) handleSearchSymbolByName(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	resp, err := s.searcher.SearchByName(ctx, searcher.NameRequest{
		Name:      name,
		Language:  getStringDefault(args, "language", ""),
		ProjectID: getStringDefault(args, "project_id", ""),
		Limit:     limit,
		UseCache:  true,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(searchResponseJSON(name, resp))), nil
}

// handleSearchSymbolSemantic handles the search_symbol_semantic tool invocation
func (s *Server) handleSearchSymbolSemantic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	topK := getIntDefault(args, "top_k", 10)
	if topK < 1 || topK > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "top_k must be between 1 and 100", map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}

	resp, err := s.searcher.SearchSemantic(ctx, searcher.SemanticRequest{
		Query:     query,
		ProjectID: getStringDefault(args, "project_id", ""),
		TopK:      topK,
		UseCache:  true,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "semantic search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(searchResponseJSON(query, resp))), nil
}

// handleListProjects handles the list_projects tool invocation
func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.storage.ListProjects(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list projects", map[string]interface{}{
			"error": err.Error(),
		})
	}

	list := make([]map[string]interface{}, len(projects))
	for i, p := range projects {
		list[i] = projectJSON(p)
	}

	response := map[string]interface{}{
		"total_projects": len(projects),
		"projects":       list,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetProjectInfo handles the get_project_info tool invocation
func (s *Server) handleGetProjectInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	projectID, err := requireString(args, "project_id")
	if err != nil {
		return nil, err
	}

	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	stats, err := s.storage.GetStats(ctx, projectID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get statistics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"project":    projectJSON(project),
		"statistics": statsJSON(stats),
		"git":        s.gitStateJSON(ctx, project),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// gitStateJSON inspects the project's working tree and compares its
// current HEAD against the revision marker from the last scan.
func (s *Server) gitStateJSON(ctx context.Context, project *storage.Project) map[string]interface{} {
	state := map[string]interface{}{
		"indexed_as_git_repo": project.IsGitRepo,
		"last_indexed_commit": project.LastCommitHash,
		"last_indexed_branch": project.LastBranch,
	}

	repo := gitrepo.Open(project.RootPath)
	if !repo.IsRepo(ctx) {
		state["is_git_repo"] = false
		return state
	}
	state["is_git_repo"] = true

	commit, branch, err := repo.Head(ctx)
	if err != nil {
		state["head_error"] = err.Error()
		return state
	}
	state["head_commit"] = commit
	state["head_branch"] = branch
	state["index_up_to_date"] = commit == project.LastCommitHash
	return state
}

// handleGetStats handles the get_stats tool invocation
func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	projectID := getStringDefault(args, "project_id", "")
	if projectID != "" {
		if _, err := s.getProject(ctx, projectID); err != nil {
			return nil, err
		}
	}

	stats, err := s.storage.GetStats(ctx, projectID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get statistics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := statsJSON(stats)
	if projectID != "" {
		response["project_id"] = projectID
	} else {
		response["scope"] = "global"
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDeleteProject handles the delete_project tool invocation
func (s *Server) handleDeleteProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	if err := s.coordinator.DeleteProject(ctx, projectID); err != nil {
		if errors.Is(err, indexer.ErrScanInProgress) {
			return nil, newMCPError(ErrorCodeIndexingInProgress, "a scan is running for this project, try again later", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to delete project", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.searcher.InvalidateCache()

	response := map[string]interface{}{
		"deleted":    true,
		"project_id": projectID,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleHealthCheck handles the health_check tool invocation
func (s *Server) handleHealthCheck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := "ok"

	storageInfo := map[string]interface{}{
		"driver":           storage.DriverName,
		"build_mode":       storage.BuildMode,
		"vector_extension": storage.VectorExtensionAvailable,
	}
	if _, err := s.storage.GetStats(ctx, ""); err != nil {
		status = "degraded"
		storageInfo["reachable"] = false
		storageInfo["error"] = err.Error()
	} else {
		storageInfo["reachable"] = true
	}

	embeddingInfo := map[string]interface{}{
		"available": s.embedder != nil,
	}
	if s.embedder != nil {
		embeddingInfo["provider"] = s.embedder.Provider()
		embeddingInfo["model"] = s.embedder.Model()
		embeddingInfo["dimension"] = s.embedder.Dimension()
	}

	response := map[string]interface{}{
		"status": status,
		"server": map[string]interface{}{
			"name":    ServerName,
			"version": ServerVersion,
		},
		"storage":   storageInfo,
		"embedding": embeddingInfo,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// getProject loads a project, mapping a missing one to the MCP
// project-not-found error
func (s *Server) getProject(ctx context.Context, projectID string) (*storage.Project, error) {
	project, err := s.storage.GetProject(ctx, projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeProjectNotFound, "project not found", map[string]interface{}{
			"project_id": projectID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load project", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return project, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// requireString extracts a mandatory string parameter
func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// validatePath checks if a path exists and is a readable directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// symbolJSON formats a symbol for tool output
func symbolJSON(sym *types.Symbol) map[string]interface{} {
	if sym == nil {
		return nil
	}
	return map[string]interface{}{
		"id":         sym.ID,
		"project_id": sym.ProjectID,
		"name":       sym.Name,
		"kind":       string(sym.Kind),
		"language":   sym.Language,
		"file_path":  sym.FilePath,
		"line_start": sym.LineStart,
		"line_end":   sym.LineEnd,
		"snippet":    sym.Snippet,
	}
}

// projectJSON formats a project record for tool output
func projectJSON(p *storage.Project) map[string]interface{} {
	out := map[string]interface{}{
		"project_id":  p.ProjectID,
		"name":        p.Name,
		"root_path":   p.RootPath,
		"is_git_repo": p.IsGitRepo,
	}
	if p.IsGitRepo {
		out["last_commit_hash"] = p.LastCommitHash
		out["last_branch"] = p.LastBranch
	}
	if !p.LastScanAt.IsZero() {
		out["last_scan_at"] = p.LastScanAt.Format(time.RFC3339)
	}
	if !p.CreatedAt.IsZero() {
		out["created_at"] = p.CreatedAt.Format(time.RFC3339)
	}
	return out
}

// statsJSON formats index statistics for tool output
func statsJSON(stats *storage.Stats) map[string]interface{} {
	return map[string]interface{}{
		"projects":              stats.Projects,
		"files":                 stats.Files,
		"symbols":               stats.Symbols,
		"relationships":         stats.Relationships,
		"embeddings":            stats.Embeddings,
		"symbols_by_language":   stats.SymbolsByLanguage,
		"symbols_by_kind":       stats.SymbolsByKind,
		"relationships_by_kind": stats.RelationshipsByKind,
	}
}

// searchResponseJSON formats a search response for tool output
func searchResponseJSON(query string, resp *searcher.Response) map[string]interface{} {
	results := make([]map[string]interface{}, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = map[string]interface{}{
			"rank":            r.Rank,
			"relevance_score": r.RelevanceScore,
			"symbol":          symbolJSON(r.Symbol),
		}
	}
	return map[string]interface{}{
		"query":         query,
		"total_results": resp.TotalResults,
		"duration_ms":   resp.Duration.Milliseconds(),
		"cache_hit":     resp.CacheHit,
		"results":       results,
	}
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
