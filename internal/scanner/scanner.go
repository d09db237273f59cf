// Package scanner discovers and reads regular files under one or more repo
// roots, using the same concurrent fan-out/fan-in architecture as the
// teacher this engine descends from:
//
//  1. WALKER GOROUTINES (fan-out) — one goroutine per directory, spawned
//     recursively, concurrency bounded by a semaphore.
//  2. COLLECTOR (fan-in, single-threaded) — the calling goroutine itself
//     drains the candidate channel, performs the TOCTOU-safe read, and
//     invokes the caller's FileFunc serially, satisfying §5's requirement
//     that every user callback see serialized calls.
//  3. ORCHESTRATOR — ScanRoot decides git-fast-path vs. walker, wires the
//     channel, and owns the budget checks and cooperative cancellation.
//
// Only directory enumeration is internally concurrent; everything a caller
// observes (the FileFunc invocations, the stats mutations they trigger) is
// single-threaded.
package scanner

import (
	"context"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/ivoronin/clonewatch/internal/progress"
	"github.com/ivoronin/clonewatch/internal/types"
)

// candChanBuffer smooths producer/consumer rate differences, the same
// trade-off the teacher's scanner makes with its 1000-buffer resultCh.
const candChanBuffer = 1000

// ScanRoot walks repo.Root once, invoking fn for every regular file that
// survives policy filtering and the TOCTOU-safe read. It returns when the
// walk completes, fn signals a break, or a cumulative budget is exceeded;
// in every case the scan of this root terminates cleanly and any
// in-flight git subprocess is killed and reaped.
func ScanRoot(
	parent context.Context,
	repo types.Repo,
	opts types.ScanOptions,
	stats *types.ScanStats,
	bar *progress.Bar,
	fn FileFunc,
) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	candCh := make(chan candidate, candChanBuffer)
	var walkerWg sync.WaitGroup
	sem := types.NewSemaphore(opts.Workers)

	var gi *ignore.GitIgnore
	if opts.RespectGitignore {
		gi = loadGitignore(repo.Root)
	}

	visited := make(map[string]bool)
	var visitedMu sync.Mutex
	useGit := opts.RespectGitignore && !opts.FollowSymlinks && hasGitDir(repo.Root)

	walkerWg.Add(1)
	go func() {
		defer walkerWg.Done()

		if useGit {
			fellBack := gitFastPath(ctx, repo, opts, stats, candCh, visited)
			if !fellBack {
				return
			}
			stats.GitFastPathFallbacks.Add(1)
		}

		walkerWg.Add(1)
		go walkDir(ctx, repo.Root, repo.Root, opts, gi, visited, &visitedMu, sem, candCh, stats, &walkerWg)
	}()

	go func() {
		walkerWg.Wait()
		close(candCh)
	}()

	collect(cancel, opts, stats, bar, candCh, fn)
}

// collect is the single serialized consumer: it reads candidates, applies
// the file-size and cumulative-byte/file budgets, performs the TOCTOU-safe
// read, and hands surviving files to fn one at a time. Once aborted it
// keeps draining candCh (discarding) so producer goroutines never block
// forever on a full channel.
func collect(
	cancel context.CancelFunc,
	opts types.ScanOptions,
	stats *types.ScanStats,
	bar *progress.Bar,
	candCh <-chan candidate,
	fn FileFunc,
) {
	aborted := false

	for cand := range candCh {
		if aborted {
			continue
		}

		stats.CandidateFiles.Add(1)

		if opts.MaxFiles > 0 && stats.ScannedFiles.Load() >= opts.MaxFiles {
			stats.SkippedBudgetMaxFiles.Add(1)
			aborted = true
			cancel()
			continue
		}

		data, err := readFile(cand.absPath, opts.MaxFileSize)
		if err != nil {
			if !classifySkip(err, stats) {
				stats.SkippedWalkErrors.Add(1)
			}
			continue
		}

		if opts.MaxTotalBytes > 0 && stats.ScannedBytes.Load()+int64(len(data)) > opts.MaxTotalBytes {
			stats.SkippedBudgetMaxBytes.Add(1)
			aborted = true
			cancel()
			continue
		}

		stats.ScannedFiles.Add(1)
		stats.ScannedBytes.Add(int64(len(data)))
		bar.Describe(stats)

		if !fn(ScannedFile{RelPath: cand.relPath, Data: data}) {
			aborted = true
			cancel()
		}
	}
}
