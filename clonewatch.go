// Package clonewatch finds duplicate files and near-duplicate code spans
// across one or more repository roots, and assembles the findings into a
// consolidated duplication report. See internal/report for the scan-and-
// detect pipeline; see internal/types for the shared option/result types.
package clonewatch

import (
	"os"

	"github.com/ivoronin/clonewatch/internal/progress"
	"github.com/ivoronin/clonewatch/internal/report"
	"github.com/ivoronin/clonewatch/internal/types"
)

// resolveRepos validates roots per spec.md §6 and assigns each a stable,
// order-derived ID. An empty roots list is valid and yields an empty slice.
func resolveRepos(roots []string, opts types.ScanOptions) ([]types.Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.CrossRepoOnly && len(roots) < 2 {
		return nil, types.ErrCrossRepoNeedsTwo
	}

	repos := make([]types.Repo, 0, len(roots))
	for i, root := range roots {
		info, err := os.Stat(root)
		if os.IsNotExist(err) {
			return nil, types.ErrRootNotExist
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, types.ErrRootNotDirectory
		}
		repos = append(repos, types.NewRepo(i, root))
	}
	return repos, nil
}

// FindDuplicateFiles returns whole-file, whitespace-insensitive duplicate
// groups across roots.
func FindDuplicateFiles(roots []string, opts types.ScanOptions) ([]types.DuplicateGroup, error) {
	groups, _, err := FindDuplicateFilesWithStats(roots, opts)
	return groups, err
}

// FindDuplicateFilesWithStats is FindDuplicateFiles plus the scan's
// accumulated statistics.
func FindDuplicateFilesWithStats(roots []string, opts types.ScanOptions) ([]types.DuplicateGroup, types.ScanStats, error) {
	repos, err := resolveRepos(roots, opts)
	if err != nil {
		return nil, types.ScanStats{}, err
	}
	if len(repos) == 0 {
		return nil, types.ScanStats{}, nil
	}

	bar := progress.New(opts.ShowProgress, -1)
	groups, stats := report.Files(repos, opts, bar)
	return groups, *stats, nil
}

// FindDuplicateCodeSpans returns near-duplicate code span groups found by
// exact winnowed matching across roots.
func FindDuplicateCodeSpans(roots []string, opts types.ScanOptions) ([]types.DuplicateSpanGroup, error) {
	groups, _, err := FindDuplicateCodeSpansWithStats(roots, opts)
	return groups, err
}

// FindDuplicateCodeSpansWithStats is FindDuplicateCodeSpans plus the scan's
// accumulated statistics.
func FindDuplicateCodeSpansWithStats(roots []string, opts types.ScanOptions) ([]types.DuplicateSpanGroup, types.ScanStats, error) {
	repos, err := resolveRepos(roots, opts)
	if err != nil {
		return nil, types.ScanStats{}, err
	}
	if len(repos) == 0 {
		return nil, types.ScanStats{}, nil
	}

	bar := progress.New(opts.ShowProgress, -1)
	groups, stats := report.CodeSpans(repos, opts, bar)
	return groups, *stats, nil
}

// GenerateDuplicationReport runs every detector (file, line/exact/token
// span, block, subtree, MinHash, SimHash) and assembles the composite report.
// max_report_items = 0 short-circuits to an empty report without scanning.
func GenerateDuplicationReport(roots []string, opts types.ScanOptions) (types.DuplicationReport, error) {
	rep, _, err := GenerateDuplicationReportWithStats(roots, opts)
	return rep, err
}

// GenerateDuplicationReportWithStats is GenerateDuplicationReport plus the
// scan's accumulated statistics.
func GenerateDuplicationReportWithStats(roots []string, opts types.ScanOptions) (types.DuplicationReport, types.ScanStats, error) {
	repos, err := resolveRepos(roots, opts)
	if err != nil {
		return types.DuplicationReport{}, types.ScanStats{}, err
	}
	if len(repos) == 0 || opts.MaxReportItems == 0 {
		return types.DuplicationReport{}, types.ScanStats{}, nil
	}

	bar := progress.New(opts.ShowProgress, -1)
	rep, stats := report.Generate(repos, opts, bar)
	return rep, *stats, nil
}
