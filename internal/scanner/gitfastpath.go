package scanner

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ivoronin/clonewatch/internal/types"
)

// gitFastPathBatchSize bounds how many paths are validated and lstat'd
// together before being handed to the collector, mirroring the teacher's
// batched directory reads.
const gitFastPathBatchSize = 256

// hasGitDir reports whether root looks like a git working tree, the
// precondition for attempting the fast path (spec.md §4.3).
func hasGitDir(root string) bool {
	_, err := os.Lstat(filepath.Join(root, ".git"))
	return err == nil
}

// resolveGitBinary returns the git executable to invoke: the unqualified
// name on PATH, unless the caller opted into an override that passes the
// security checks in spec.md §6 (absolute, not a symlink, owner-executable,
// not group/world-writable).
func resolveGitBinary(opts types.ScanOptions) (string, error) {
	if !opts.GitOverrideEnabled {
		return "git", nil
	}
	bin := opts.GitOverrideBinary
	if !filepath.IsAbs(bin) {
		return "", errors.New("git override binary must be an absolute path")
	}
	info, err := os.Lstat(bin)
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", errors.New("git override binary must not be a symlink")
	}
	perm := info.Mode().Perm()
	if perm&0o022 != 0 {
		return "", errors.New("git override binary must not be group- or world-writable")
	}
	if perm&0o100 == 0 {
		return "", errors.New("git override binary must be owner-executable")
	}
	return bin, nil
}

// isValidGitPath rejects relative paths that try to escape the root:
// absolute paths, and any "." or ".." path segment.
func isValidGitPath(p string) bool {
	if p == "" || filepath.IsAbs(p) {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == "." || seg == ".." || seg == "" {
			return false
		}
	}
	return true
}

// gitFastPath streams `git ls-files -z --cached --others --exclude-standard`
// output for repo.Root, validating and lstat-ing each path before sending a
// candidate to candCh. It records every relative path it yields into
// visited so a subsequent walker fallback does not double-count it.
//
// Returns true if the caller must fall back to the walker path: the git
// binary could not be resolved, the process failed to start or exited
// non-zero, or it produced a non-UTF-8 or invalid path. When that bad path
// comes after at least one yielded file, a walk error is also recorded.
func gitFastPath(
	ctx context.Context,
	repo types.Repo,
	opts types.ScanOptions,
	stats *types.ScanStats,
	candCh chan<- candidate,
	visited map[string]bool,
) bool {
	bin, err := resolveGitBinary(opts)
	if err != nil {
		return true
	}

	cmd := exec.CommandContext(ctx, bin, "-C", repo.Root, "ls-files", "-z",
		"--cached", "--others", "--exclude-standard")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return true
	}
	if err := cmd.Start(); err != nil {
		return true
	}

	reader := bufio.NewReaderSize(stdout, 64*1024)
	yielded := 0
	fellBack := false

batches:
	for {
		batch := make([]string, 0, gitFastPathBatchSize)
		for len(batch) < gitFastPathBatchSize {
			rel, err := reader.ReadString(0)
			if err != nil {
				rel = strings.TrimSuffix(rel, "\x00")
				if rel != "" {
					batch = append(batch, rel)
				}
				break
			}
			rel = strings.TrimSuffix(rel, "\x00")
			if rel != "" {
				batch = append(batch, rel)
			}
		}
		if len(batch) == 0 {
			break
		}

		for _, rel := range batch {
			if ctx.Err() != nil {
				break batches
			}
			if !utf8.ValidString(rel) || !isValidGitPath(rel) {
				fellBack = true
				break batches
			}
			if anyAncestorIgnored(rel, opts.IgnoreDirs) {
				continue
			}

			abs := filepath.Join(repo.Root, filepath.FromSlash(rel))
			info, err := os.Lstat(abs)
			if err != nil {
				if os.IsNotExist(err) {
					stats.SkippedNotFound.Add(1)
				} else if os.IsPermission(err) {
					stats.SkippedPermissionDenied.Add(1)
				}
				continue
			}
			if info.Mode()&os.ModeSymlink != 0 {
				if !opts.FollowSymlinks {
					continue
				}
				resolved, target, ok := canonicalizeSymlink(repo.Root, abs)
				if !ok {
					stats.SkippedOutsideRoot.Add(1)
					continue
				}
				abs = resolved
				rel = target
			}
			if !info.Mode().IsRegular() && info.Mode()&os.ModeSymlink == 0 {
				continue
			}

			visited[rel] = true
			candCh <- candidate{absPath: abs, relPath: filepath.ToSlash(rel)}
			yielded++
		}
	}

	waitErr := cmd.Wait()
	if waitErr != nil {
		return true
	}
	if fellBack && yielded > 0 {
		stats.SkippedWalkErrors.Add(1)
	}
	return fellBack
}

// anyAncestorIgnored reports whether any path component of rel matches an
// ignored directory name.
func anyAncestorIgnored(rel string, ignoreDirs []string) bool {
	segs := strings.Split(filepath.ToSlash(rel), "/")
	if len(segs) <= 1 {
		return false
	}
	for _, seg := range segs[:len(segs)-1] {
		for _, ig := range ignoreDirs {
			if seg == ig {
				return true
			}
		}
	}
	return false
}
