package types

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// ScanStats holds monotonically non-decreasing counters accumulated across a
// whole find/report call. Safe for concurrent use by scanner walker
// goroutines; the single-threaded detectors that run afterward only read it
// or add to the counters they own (spec.md §5).
type ScanStats struct {
	CandidateFiles atomic.Int64
	ScannedFiles   atomic.Int64
	ScannedBytes   atomic.Int64

	SkippedNotFound         atomic.Int64
	SkippedPermissionDenied atomic.Int64
	SkippedTooLarge         atomic.Int64
	SkippedBinary           atomic.Int64
	SkippedOutsideRoot      atomic.Int64
	SkippedRelativizeFailed atomic.Int64
	SkippedWalkErrors       atomic.Int64
	SkippedBudgetMaxFiles   atomic.Int64
	SkippedBudgetMaxBytes   atomic.Int64
	SkippedBudgetMaxChars   atomic.Int64
	SkippedBudgetMaxTokens  atomic.Int64
	SkippedBucketTruncated  atomic.Int64
	GitFastPathFallbacks    atomic.Int64

	StartTime time.Time
}

// NewScanStats returns a fresh, zeroed ScanStats with the start time recorded.
func NewScanStats() *ScanStats {
	return &ScanStats{StartTime: time.Now()}
}

// String renders a human-readable progress line, in the teacher's idiom of
// reporting counts alongside humanized byte sizes and elapsed time.
func (s *ScanStats) String() string {
	return fmt.Sprintf("scanned %d files (%s), %d candidates in %.1fs",
		s.ScannedFiles.Load(), humanize.IBytes(uint64(s.ScannedBytes.Load())),
		s.CandidateFiles.Load(), time.Since(s.StartTime).Seconds())
}

// HasFatalSkips reports whether any skip counter that --strict treats as
// fatal (spec.md §6) is non-zero.
func (s *ScanStats) HasFatalSkips() bool {
	return s.SkippedPermissionDenied.Load() > 0 ||
		s.SkippedWalkErrors.Load() > 0 ||
		s.SkippedBudgetMaxFiles.Load() > 0 ||
		s.SkippedBudgetMaxBytes.Load() > 0 ||
		s.SkippedBudgetMaxChars.Load() > 0 ||
		s.SkippedBudgetMaxTokens.Load() > 0 ||
		s.SkippedBucketTruncated.Load() > 0 ||
		s.SkippedRelativizeFailed.Load() > 0
}
