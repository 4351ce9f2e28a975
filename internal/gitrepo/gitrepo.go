// Package gitrepo reads revision state from a project's git checkout by
// shelling out to the git CLI. Callers treat any git failure as "not
// tracked" and fall back to filesystem-based change detection.
package gitrepo

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// Repo wraps git operations for a single working tree
type Repo struct {
	root string
}

// Open creates a Repo rooted at the given directory. It does not verify
// that the directory is a git checkout; use IsRepo for that.
func Open(root string) *Repo {
	return &Repo{root: root}
}

// Root returns the working tree root
func (r *Repo) Root() string {
	return r.root
}

// git runs a git subcommand in the repo root and returns stdout with
// trailing newlines removed. Leading whitespace is kept: porcelain
// status output is positional, so the first line's XY columns may start
// with a significant space.
func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// IsRepo reports whether the root is inside a git working tree
func (r *Repo) IsRepo(ctx context.Context) bool {
	out, err := r.git(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Head returns the current commit hash and branch name. The branch is
// "HEAD" for a detached checkout. An empty repository (no commits yet)
// returns an error.
func (r *Repo) Head(ctx context.Context) (commit, branch string, err error) {
	commit, err = r.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", "", err
	}
	branch, err = r.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", "", err
	}
	return commit, branch, nil
}

// ChangedSince returns working-tree-relative paths of files that differ
// from the given commit, including uncommitted modifications and
// untracked files. Deleted files are included; the caller distinguishes
// them by checking the filesystem.
func (r *Repo) ChangedSince(ctx context.Context, commit string) ([]string, error) {
	seen := make(map[string]bool)

	// Committed changes since the marker
	diff, err := r.git(ctx, "diff", "--name-only", commit, "HEAD")
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(diff, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			seen[line] = true
		}
	}

	// Uncommitted modifications and untracked files
	status, err := r.git(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(status, "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		// Renames are reported as "old -> new"; index both sides
		if idx := strings.Index(path, " -> "); idx >= 0 {
			seen[strings.TrimSpace(path[:idx])] = true
			path = strings.TrimSpace(path[idx+4:])
		}
		path = strings.Trim(path, `"`)
		if path != "" {
			seen[path] = true
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
