package scanner

import (
	"bytes"
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/ivoronin/clonewatch/internal/types"
)

// errSkipBinary signals that a file's content contains a NUL byte and must
// be counted in SkippedBinary rather than passed to the caller.
var errSkipBinary = errors.New("binary content")

// readFile performs the TOCTOU-safe read sequence of spec.md §4.3: lstat
// the resolved path, refuse if it turned into a symlink, re-check
// max_file_size, then open and fstat the opened handle and, where the
// platform exposes it, verify device/inode equality against the pre-open
// stat. Binary content (any NUL byte) is rejected with errSkipBinary.
func readFile(path string, maxSize int64) ([]byte, error) {
	preStat, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if preStat.Mode()&os.ModeSymlink != 0 {
		return nil, errSkipSymlinkRace
	}
	if preStat.Size() > maxSize {
		return nil, errSkipTooLarge
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	postStat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if preSys, ok := preStat.Sys().(*syscall.Stat_t); ok {
		if postSys, ok := postStat.Sys().(*syscall.Stat_t); ok {
			if preSys.Dev != postSys.Dev || preSys.Ino != postSys.Ino {
				return nil, errSkipSymlinkRace
			}
		}
	}
	if postStat.Size() > maxSize {
		return nil, errSkipTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, errSkipTooLarge
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, errSkipBinary
	}

	return data, nil
}

var (
	errSkipSymlinkRace = errors.New("path raced to a symlink or changed identity")
	errSkipTooLarge    = errors.New("exceeds max file size")
)

// classifySkip updates stats for a readFile error that is not a hard fatal
// error, returning true if the error was a recognized, countable skip.
func classifySkip(err error, stats *types.ScanStats) bool {
	switch {
	case errors.Is(err, errSkipBinary):
		stats.SkippedBinary.Add(1)
	case errors.Is(err, errSkipTooLarge):
		stats.SkippedTooLarge.Add(1)
	case errors.Is(err, errSkipSymlinkRace):
		stats.SkippedWalkErrors.Add(1)
	case os.IsNotExist(err):
		stats.SkippedNotFound.Add(1)
	case os.IsPermission(err):
		stats.SkippedPermissionDenied.Add(1)
	default:
		return false
	}
	return true
}
