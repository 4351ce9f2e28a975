package indexer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkrause/codegraph-mcp/internal/extractor"
	"github.com/mkrause/codegraph-mcp/internal/gitrepo"
	"github.com/mkrause/codegraph-mcp/internal/storage"
)

// RevisionMarker captures where a scan happened so the next scan can ask
// "what changed since here" instead of re-reading the whole tree.
type RevisionMarker struct {
	IsGitRepo  bool
	CommitHash string
	Branch     string
}

// Plan is the output of change detection: the file sets a scan must
// process, plus the marker to store once the scan completes.
type Plan struct {
	Added    []string // on disk, not in the index
	Modified []string // on disk and in the index; content may differ
	Deleted  []string // in the index, no longer on disk

	// FullRescan is set when git state was unavailable and every indexable
	// file had to be treated as a candidate.
	FullRescan bool

	Marker RevisionMarker
}

// Total returns the number of file units the plan will process
func (p *Plan) Total() int {
	return len(p.Added) + len(p.Modified) + len(p.Deleted)
}

// skipDirs are directory names never descended into during discovery
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"__pycache__":  true,
	"venv":         true,
	"dist":         true,
	"build":        true,
	"target":       true,
}

// ChangeDetector computes the minimal file set a scan must re-process,
// preferring git diff state and degrading to a full filesystem walk.
type ChangeDetector struct {
	storage  storage.Storage
	registry *extractor.Registry
}

// NewChangeDetector creates a change detector
func NewChangeDetector(store storage.Storage, registry *extractor.Registry) *ChangeDetector {
	return &ChangeDetector{storage: store, registry: registry}
}

// Detect builds the change plan for a project rooted at root.
// A nil stored project (first scan) always produces a full rescan.
func (d *ChangeDetector) Detect(ctx context.Context, project *storage.Project, root string) (*Plan, error) {
	onDisk, err := d.discoverFiles(root)
	if err != nil {
		return nil, err
	}

	stored := make(map[string]bool)
	if project != nil {
		files, err := d.storage.ListFiles(ctx, project.ProjectID)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			stored[f.FilePath] = true
		}
	}

	plan := &Plan{}

	repo := gitrepo.Open(root)
	if repo.IsRepo(ctx) {
		commit, branch, err := repo.Head(ctx)
		if err == nil {
			plan.Marker = RevisionMarker{IsGitRepo: true, CommitHash: commit, Branch: branch}
		}
	}

	// Incremental path: previous marker exists and git can diff against it
	if plan.Marker.IsGitRepo && project != nil && project.LastCommitHash != "" {
		changed, err := repo.ChangedSince(ctx, project.LastCommitHash)
		if err == nil {
			d.planFromGit(plan, changed, onDisk, stored)
			return plan, nil
		}
		// Marker no longer resolvable (rebase, gc, history rewrite):
		// fall through to full rescan
	}

	d.planFull(plan, onDisk, stored)
	return plan, nil
}

// planFromGit classifies the git-reported change set
func (d *ChangeDetector) planFromGit(plan *Plan, changed []string, onDisk, stored map[string]bool) {
	for _, path := range changed {
		switch {
		case onDisk[path] && stored[path]:
			plan.Modified = append(plan.Modified, path)
		case onDisk[path]:
			plan.Added = append(plan.Added, path)
		case stored[path]:
			plan.Deleted = append(plan.Deleted, path)
		}
		// Changed but neither indexable nor indexed: not our concern
	}
	sortPlan(plan)
}

// planFull treats every indexable file as a candidate. Unchanged files
// are still skipped later by content hash, so a full rescan converges to
// the same state as an incremental one.
func (d *ChangeDetector) planFull(plan *Plan, onDisk, stored map[string]bool) {
	plan.FullRescan = true
	for path := range onDisk {
		if stored[path] {
			plan.Modified = append(plan.Modified, path)
		} else {
			plan.Added = append(plan.Added, path)
		}
	}
	for path := range stored {
		if !onDisk[path] {
			plan.Deleted = append(plan.Deleted, path)
		}
	}
	sortPlan(plan)
}

func sortPlan(plan *Plan) {
	sort.Strings(plan.Added)
	sort.Strings(plan.Modified)
	sort.Strings(plan.Deleted)
}

// discoverFiles walks the tree and returns project-relative paths of
// files with a registered extractor
func (d *ChangeDetector) discoverFiles(root string) (map[string]bool, error) {
	files := make(map[string]bool)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.registry.ForFile(path) == nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
