package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mkrause/codegraph-mcp/internal/embedder"
	"github.com/mkrause/codegraph-mcp/internal/extractor"
	"github.com/mkrause/codegraph-mcp/internal/storage"
)

// ErrScanInProgress is returned when a scan is requested for a project
// that already has one running.
var ErrScanInProgress = errors.New("scan already in progress for project")

// Coordinator drives the indexing pipeline: detect changes, re-index
// each changed file as its own transaction, then resolve relationships
// in a second pass.
type Coordinator struct {
	storage  storage.Storage
	registry *extractor.Registry
	detector *ChangeDetector
	files    *FileIndexer
	resolver *RelationshipResolver
	locks    *lockTable

	workers int
}

// Config contains configuration for a scan
type Config struct {
	ProjectID string // defaults to the base name of the root path
	Workers   int    // concurrent file units (default: runtime.NumCPU())
	ForceFull bool   // ignore the stored revision marker
}

// ProgressFn receives (processed, total) after each completed file unit
type ProgressFn func(processed, total int)

// Statistics contains the outcome of a scan
type Statistics struct {
	ScanID           string // unique handle for this scan run
	ProjectID        string
	FilesIndexed     int
	FilesSkipped     int
	FilesDeleted     int
	FilesFailed      int
	SymbolsExtracted int
	EdgesCreated     int
	UnresolvedRefs   int
	FullRescan       bool
	Duration         time.Duration
	ErrorMessages    []string
}

// New creates a Coordinator. embed may be nil to disable embeddings.
func New(store storage.Storage, registry *extractor.Registry, embed embedder.Embedder) *Coordinator {
	return &Coordinator{
		storage:  store,
		registry: registry,
		detector: NewChangeDetector(store, registry),
		files:    NewFileIndexer(store, registry, embed),
		resolver: NewRelationshipResolver(store),
		locks:    newLockTable(),
		workers:  runtime.NumCPU(),
	}
}

// Scan indexes the project rooted at rootPath. Only one scan per
// project runs at a time; a second concurrent request fails fast with
// ErrScanInProgress rather than queueing.
func (c *Coordinator) Scan(ctx context.Context, rootPath string, config *Config, progress ProgressFn) (*Statistics, error) {
	if config == nil {
		config = &Config{}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = c.workers
	}

	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}

	project, err := c.getOrCreateProject(ctx, config.ProjectID, rootPath)
	if err != nil {
		return nil, fmt.Errorf("get or create project: %w", err)
	}

	lock := c.locks.get(project.ProjectID)
	if !lock.TryAcquire() {
		return nil, fmt.Errorf("%w: %s", ErrScanInProgress, project.ProjectID)
	}
	defer lock.Release()

	startTime := time.Now()
	stats := &Statistics{
		ScanID:        uuid.NewString(),
		ProjectID:     project.ProjectID,
		ErrorMessages: make([]string, 0),
	}

	detectFrom := project
	if config.ForceFull {
		forced := *project
		forced.LastCommitHash = ""
		detectFrom = &forced
	}
	plan, err := c.detector.Detect(ctx, detectFrom, rootPath)
	if err != nil {
		return nil, fmt.Errorf("detect changes: %w", err)
	}
	stats.FullRescan = plan.FullRescan

	// Deletions first so a rename never briefly holds both old and new
	// symbols for the same content
	for _, path := range plan.Deleted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.files.DeleteFile(ctx, project.ProjectID, path); err != nil {
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", path, err))
			stats.FilesFailed++
			continue
		}
		stats.FilesDeleted++
	}

	refs, err := c.indexFiles(ctx, project.ProjectID, rootPath, plan, workers, stats, progress)
	if err != nil {
		return nil, err
	}

	resolved, err := c.resolveProject(ctx, project.ProjectID, refs)
	if err != nil {
		return nil, fmt.Errorf("resolve relationships: %w", err)
	}
	stats.EdgesCreated = resolved.EdgesCreated
	stats.UnresolvedRefs = resolved.Unresolved

	project.IsGitRepo = plan.Marker.IsGitRepo
	project.LastCommitHash = plan.Marker.CommitHash
	project.LastBranch = plan.Marker.Branch
	project.LastScanAt = time.Now()
	if err := c.storage.UpdateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("store revision marker: %w", err)
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// DeleteProject removes a project and everything under it
func (c *Coordinator) DeleteProject(ctx context.Context, projectID string) error {
	lock := c.locks.get(projectID)
	if !lock.TryAcquire() {
		return fmt.Errorf("%w: %s", ErrScanInProgress, projectID)
	}
	defer lock.Release()
	return c.storage.DeleteProject(ctx, projectID)
}

// getOrCreateProject resolves the project row for a scan, matching on
// explicit ID first and root path second
func (c *Coordinator) getOrCreateProject(ctx context.Context, projectID, rootPath string) (*storage.Project, error) {
	if projectID == "" {
		projectID = filepath.Base(rootPath)
	}

	project, err := c.storage.GetProject(ctx, projectID)
	if err == nil {
		if project.RootPath != rootPath {
			return nil, fmt.Errorf("project %s is bound to %s, not %s", projectID, project.RootPath, rootPath)
		}
		return project, nil
	}
	if err != storage.ErrNotFound {
		return nil, err
	}

	project = &storage.Project{
		ProjectID: projectID,
		Name:      filepath.Base(rootPath),
		RootPath:  rootPath,
	}
	if err := c.storage.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// indexFiles fans the plan's added and modified files out over a worker
// pool. Each file is its own transaction inside FileIndexer, so a
// failed file never poisons its neighbors.
func (c *Coordinator) indexFiles(ctx context.Context, projectID, rootPath string, plan *Plan, workers int, stats *Statistics, progress ProgressFn) ([]fileRefs, error) {
	paths := make([]string, 0, len(plan.Added)+len(plan.Modified))
	paths = append(paths, plan.Added...)
	paths = append(paths, plan.Modified...)

	var (
		indexed   int32
		skipped   int32
		failed    int32
		symbols   int32
		processed int32
	)
	total := plan.Total()

	var mu sync.Mutex
	refs := make([]fileRefs, 0, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	semaphore := make(chan struct{}, workers)

	for _, path := range paths {
		select {
		case <-gctx.Done():
			return nil, gctx.Err()
		case semaphore <- struct{}{}:
		}

		g.Go(func() error {
			defer func() { <-semaphore }()

			result, wasSkipped, err := c.files.IndexFile(gctx, projectID, rootPath, path)
			done := int(atomic.AddInt32(&processed, 1)) + stats.FilesDeleted
			if progress != nil {
				progress(done, total)
			}

			if err != nil {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
				return nil
			}
			if wasSkipped {
				atomic.AddInt32(&skipped, 1)
				return nil
			}

			atomic.AddInt32(&indexed, 1)
			atomic.AddInt32(&symbols, int32(len(result.Symbols)))
			mu.Lock()
			refs = append(refs, fileRefs{
				FilePath: path,
				Symbols:  result.Symbols,
				Refs:     result.References,
			})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.FilesIndexed = int(indexed)
	stats.FilesSkipped = int(skipped)
	stats.FilesFailed += int(failed)
	stats.SymbolsExtracted = int(symbols)
	return refs, nil
}

// resolveProject re-resolves references for re-indexed files. Files
// whose content hash matched keep their existing edges: symbol deletion
// already cascaded away any edge a change could have invalidated.
func (c *Coordinator) resolveProject(ctx context.Context, projectID string, refs []fileRefs) (*ResolveStats, error) {
	if len(refs) == 0 {
		return &ResolveStats{}, nil
	}
	return c.resolver.Resolve(ctx, projectID, refs)
}
