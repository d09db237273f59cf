package types

import "runtime"

// DefaultIgnoreDirs lists directory names excluded at any depth by default.
var DefaultIgnoreDirs = []string{
	".git", ".hg", ".svn", "node_modules", "target", "dist", "build", "out",
	".next", ".turbo", ".cache",
}

// ScanOptions configures a scan across one or more roots. Every field has an
// enumerated effect on the scanner or one of the detectors; see spec.md §3.
type ScanOptions struct {
	IgnoreDirs []string // directory-name set excluded at any depth

	MaxFileSize      int64 // per-file byte ceiling; exceeding files skipped and counted
	MaxFiles         int64 // cumulative budget; exceeding aborts further scanning of that root
	MaxTotalBytes    int64 // cumulative byte budget across the whole call
	MaxNormalizedChars int64 // cumulative code-char budget
	MaxTokens        int64 // cumulative token budget

	MinMatchLen int // minimum normalized-character length for an exact code-span match
	MinTokenLen int // minimum token count for token-span/block/subtree/similarity detectors

	SimilarityThreshold float64 // MinHash Jaccard estimate floor, in [0,1]
	SimHashMaxDistance  int     // SimHash Hamming ceiling, in [0,64]

	MaxReportItems int // per-section item cap applied after sorting

	RespectGitignore bool
	CrossRepoOnly    bool
	FollowSymlinks   bool

	// Workers bounds scanner directory-read concurrency. [EXPANSION, ambient]
	Workers int
	// ShowProgress enables the progress bar. [EXPANSION, ambient]
	ShowProgress bool

	// GitOverrideBinary, when GitOverrideEnabled is true, replaces the
	// unqualified "git" lookup on PATH. Per spec.md §6 it must be an
	// absolute, non-symlink, owner-executable, not group/world-writable
	// path, and is only consulted when the dedicated opt-in environment
	// variable is exactly "1". [EXPANSION]
	GitOverrideBinary  string
	GitOverrideEnabled bool
}

// DefaultScanOptions returns the documented default configuration.
func DefaultScanOptions() ScanOptions {
	ignoreDirs := make([]string, len(DefaultIgnoreDirs))
	copy(ignoreDirs, DefaultIgnoreDirs)
	return ScanOptions{
		IgnoreDirs:          ignoreDirs,
		MaxFileSize:         10 << 20, // 10 MiB
		MaxFiles:            0,        // 0 = unbounded
		MaxTotalBytes:       0,        // resolved to 256 MiB by the report pipeline if unset
		MaxNormalizedChars:  0,        // resolved from MaxTotalBytes if unset
		MaxTokens:           0,        // resolved from MaxTotalBytes/4 if unset
		MinMatchLen:         50,
		MinTokenLen:         50,
		SimilarityThreshold: 0.85,
		SimHashMaxDistance:  3,
		MaxReportItems:      200,
		RespectGitignore:    true,
		CrossRepoOnly:       false,
		FollowSymlinks:      false,
		Workers:             runtime.NumCPU(),
		ShowProgress:        false,
	}
}

// Validate checks ScanOptions against the rules in spec.md §6.
func (o ScanOptions) Validate() error {
	switch {
	case o.SimilarityThreshold != o.SimilarityThreshold: // NaN
		return ErrInvalidOption("similarity_threshold must be finite")
	case o.SimilarityThreshold < 0 || o.SimilarityThreshold > 1:
		return ErrInvalidOption("similarity_threshold must be in [0,1]")
	case o.SimHashMaxDistance < 0 || o.SimHashMaxDistance > 64:
		return ErrInvalidOption("simhash_max_distance must be in [0,64]")
	case o.MinMatchLen < 1:
		return ErrInvalidOption("min_match_len must be >= 1")
	case o.MinTokenLen < 1:
		return ErrInvalidOption("min_token_len must be >= 1")
	}
	return nil
}
