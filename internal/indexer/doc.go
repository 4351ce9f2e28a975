// Package indexer coordinates the end-to-end indexing pipeline for
// multi-language codebases.
//
// The Coordinator drives change detection, per-file re-indexing, and
// relationship resolution, managing concurrency and per-project scan
// locks.
//
// # Basic Usage
//
//	coord := indexer.New(store, extractor.NewDefaultRegistry(), nil)
//
//	stats, err := coord.Scan(ctx, "/path/to/project", &indexer.Config{
//	    ProjectID: "myproject",
//	}, nil)
//
//	fmt.Printf("Indexed %d files in %v\n", stats.FilesIndexed, stats.Duration)
//
// # Scan Pipeline
//
// A scan executes three stages:
//
//  1. Change Detection: Ask git what changed since the last stored
//     revision marker, or walk the tree when no marker is usable
//  2. File Units: Re-index each added or modified file as its own
//     transaction (parallel), delete vanished files
//  3. Resolution: Match the raw references collected during extraction
//     against the project's symbol table and insert relationship edges
//
// # Incremental Scanning
//
// A project scanned from a git checkout stores the HEAD commit as a
// revision marker. The next scan diffs against the marker and touches
// only the changed files, plus uncommitted and untracked ones. When the
// marker is missing or no longer resolvable (history rewrite, non-git
// directory), the scan degrades to a full walk. Unchanged files are
// still skipped by SHA-256 content hash, so a full rescan of an
// unchanged tree is a no-op and converges to the same stored state as
// an incremental one.
//
//	// Drop the marker and re-examine everything
//	stats, err := coord.Scan(ctx, root, &indexer.Config{ForceFull: true}, nil)
//
// # Failure Isolation
//
// Each file unit is one transaction: either the file's old symbols are
// fully replaced or the stored state is untouched. A file that fails to
// read or extract is reported in Statistics.ErrorMessages and the scan
// continues; only storage-level failures abort the scan.
//
// # Concurrency
//
// File units run on an errgroup-backed worker pool bounded by a
// semaphore (default runtime.NumCPU() workers). One scan per project
// runs at a time; a concurrent request for the same project fails fast
// with ErrScanInProgress while scans of other projects proceed.
//
// # Progress Tracking
//
//	stats, err := coord.Scan(ctx, root, nil, func(processed, total int) {
//	    fmt.Printf("%d/%d file units\n", processed, total)
//	})
package indexer
