package scanner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/ivoronin/clonewatch/internal/types"
)

// loadGitignore loads the root's own .gitignore file, if present. Nested
// .gitignore files are not consulted: parent-directory inheritance is
// intentionally disabled, so only the root's rules apply to the whole tree.
func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}

// isIgnoredDir reports whether name matches one of the configured
// ignore-dir names, case-insensitively on Windows.
func isIgnoredDir(name string, ignoreDirs []string) bool {
	for _, ig := range ignoreDirs {
		if name == ig {
			return true
		}
		if runtime.GOOS == "windows" && strings.EqualFold(name, ig) {
			return true
		}
	}
	return false
}

// canonicalizeSymlink resolves abs through os.Readlink/filepath.EvalSymlinks
// and reports whether the result remains a descendant of root. On success
// it returns the resolved absolute path and the relative path used for
// reporting (which mirrors the symlink's own location, not its target's).
func canonicalizeSymlink(root, abs string) (resolved string, rel string, ok bool) {
	target, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", "", false
	}
	canonicalRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		canonicalRoot = root
	}
	relToRoot, err := filepath.Rel(canonicalRoot, target)
	if err != nil || strings.HasPrefix(relToRoot, "..") {
		return "", "", false
	}
	origRel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", "", false
	}
	return target, origRel, true
}

// walkDir recursively enumerates one directory, fanning out a goroutine per
// subdirectory under sem's concurrency limit, in the same breadth-controlled
// depth-first shape as the teacher's scanner.walkDirectory. Every regular
// file not already in visited (yielded by a prior git-fast-path partial
// run) is sent to candCh.
func walkDir(
	ctx context.Context,
	root, dir string,
	opts types.ScanOptions,
	gi *ignore.GitIgnore,
	visited map[string]bool,
	visitedMu *sync.Mutex,
	sem types.Semaphore,
	candCh chan<- candidate,
	stats *types.ScanStats,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	if ctx.Err() != nil {
		return
	}

	sem.Acquire()
	entries, err := readDirEntries(dir)
	sem.Release()
	if err != nil {
		if os.IsPermission(err) {
			stats.SkippedPermissionDenied.Add(1)
		} else {
			stats.SkippedWalkErrors.Add(1)
		}
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}

		name := entry.Name()
		full := filepath.Join(dir, name)
		rel, relErr := filepath.Rel(root, full)
		if relErr != nil {
			stats.SkippedRelativizeFailed.Add(1)
			continue
		}
		relSlash := filepath.ToSlash(rel)

		if entry.IsDir() {
			if isIgnoredDir(name, opts.IgnoreDirs) {
				continue
			}
			if gi != nil && gi.MatchesPath(relSlash) {
				continue
			}
			wg.Add(1)
			go walkDir(ctx, root, full, opts, gi, visited, visitedMu, sem, candCh, stats, wg)
			continue
		}

		if entry.Type()&os.ModeSymlink != 0 {
			if !opts.FollowSymlinks {
				continue
			}
			resolved, _, ok := canonicalizeSymlink(root, full)
			if !ok {
				stats.SkippedOutsideRoot.Add(1)
				continue
			}
			full = resolved
		} else if !entry.Type().IsRegular() {
			continue
		}

		if gi != nil && gi.MatchesPath(relSlash) {
			continue
		}

		visitedMu.Lock()
		alreadySeen := visited[relSlash]
		if !alreadySeen {
			visited[relSlash] = true
		}
		visitedMu.Unlock()
		if alreadySeen {
			continue
		}

		candCh <- candidate{absPath: full, relPath: relSlash}
	}
}

// readDirEntries lists dir in batches, the same bounded-memory pattern the
// teacher's listDirectory uses for directories with very large fan-out.
func readDirEntries(dir string) ([]os.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	const batchSize = 1000
	var all []os.DirEntry
	for {
		batch, err := f.ReadDir(batchSize)
		all = append(all, batch...)
		if err != nil {
			if err == io.EOF {
				break
			}
			return all, err
		}
		if len(batch) == 0 {
			break
		}
	}
	return all, nil
}
