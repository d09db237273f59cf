package types

import "sort"

// FinalizeSpanGroups implements spec.md §4.7: drop any group with <2
// occurrences (or <2 distinct repos under crossRepoOnly), sort each group's
// occurrences by (repo_id, repo_label, path, start_line, end_line), and sort
// groups by (content_hash, normalized_len, len(occurrences)) ascending.
func FinalizeSpanGroups(groups []DuplicateSpanGroup, crossRepoOnly bool) []DuplicateSpanGroup {
	out := make([]DuplicateSpanGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Occurrences) < 2 {
			continue
		}
		if crossRepoOnly && distinctRepoCountSpans(g.Occurrences) < 2 {
			continue
		}
		sort.Slice(g.Occurrences, func(i, j int) bool {
			return lessSpanOccurrence(g.Occurrences[i], g.Occurrences[j])
		})
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ContentHash != b.ContentHash {
			return a.ContentHash < b.ContentHash
		}
		if a.NormalizedLen != b.NormalizedLen {
			return a.NormalizedLen < b.NormalizedLen
		}
		return len(a.Occurrences) < len(b.Occurrences)
	})
	return out
}

// FinalizeFileGroups applies the same drop/sort rules as FinalizeSpanGroups
// to whole-file duplicate groups.
func FinalizeFileGroups(groups []DuplicateGroup, crossRepoOnly bool) []DuplicateGroup {
	out := make([]DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Occurrences) < 2 {
			continue
		}
		if crossRepoOnly && distinctRepoCountFiles(g.Occurrences) < 2 {
			continue
		}
		sort.Slice(g.Occurrences, func(i, j int) bool {
			return lessFileOccurrence(g.Occurrences[i], g.Occurrences[j])
		})
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ContentHash != b.ContentHash {
			return a.ContentHash < b.ContentHash
		}
		if a.NormalizedLen != b.NormalizedLen {
			return a.NormalizedLen < b.NormalizedLen
		}
		return len(a.Occurrences) < len(b.Occurrences)
	})
	return out
}

// SortAndCapSpanGroups applies the report pipeline's section-level ordering
// (spec.md §4.7): descending (len(occurrences), normalized_len), ascending
// content_hash, truncated to maxItems (0 means "no cap" is not honored here —
// callers must pass the resolved per-section cap).
func SortAndCapSpanGroups(groups []DuplicateSpanGroup, maxItems int) []DuplicateSpanGroup {
	sorted := make([]DuplicateSpanGroup, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if len(a.Occurrences) != len(b.Occurrences) {
			return len(a.Occurrences) > len(b.Occurrences)
		}
		if a.NormalizedLen != b.NormalizedLen {
			return a.NormalizedLen > b.NormalizedLen
		}
		return a.ContentHash < b.ContentHash
	})
	if maxItems >= 0 && len(sorted) > maxItems {
		sorted = sorted[:maxItems]
	}
	return sorted
}

// SortAndCapFileGroups applies the same report-level ordering to whole-file
// duplicate groups.
func SortAndCapFileGroups(groups []DuplicateGroup, maxItems int) []DuplicateGroup {
	sorted := make([]DuplicateGroup, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if len(a.Occurrences) != len(b.Occurrences) {
			return len(a.Occurrences) > len(b.Occurrences)
		}
		if a.NormalizedLen != b.NormalizedLen {
			return a.NormalizedLen > b.NormalizedLen
		}
		return a.ContentHash < b.ContentHash
	})
	if maxItems >= 0 && len(sorted) > maxItems {
		sorted = sorted[:maxItems]
	}
	return sorted
}

// SortAndCapPairs sorts similarity pairs by descending score and truncates
// to maxItems (spec.md §4.8: "tie-break pair ordering ... by descending
// score; truncate to max_report_items").
func SortAndCapPairs(pairs []SimilarityPair, maxItems int) []SimilarityPair {
	sorted := make([]SimilarityPair, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return lessSpanOccurrence(sorted[i].A, sorted[j].A)
	})
	if maxItems >= 0 && len(sorted) > maxItems {
		sorted = sorted[:maxItems]
	}
	return sorted
}

func lessSpanOccurrence(a, b DuplicateSpanOccurrence) bool {
	if a.RepoID != b.RepoID {
		return a.RepoID < b.RepoID
	}
	if a.RepoLabel != b.RepoLabel {
		return a.RepoLabel < b.RepoLabel
	}
	if a.RelPath != b.RelPath {
		return a.RelPath < b.RelPath
	}
	if a.StartLine != b.StartLine {
		return a.StartLine < b.StartLine
	}
	return a.EndLine < b.EndLine
}

func lessFileOccurrence(a, b DuplicateFile) bool {
	if a.RepoID != b.RepoID {
		return a.RepoID < b.RepoID
	}
	return a.RelPath < b.RelPath
}

func distinctRepoCountSpans(occs []DuplicateSpanOccurrence) int {
	seen := make(map[int]struct{}, len(occs))
	for _, o := range occs {
		seen[o.RepoID] = struct{}{}
	}
	return len(seen)
}

func distinctRepoCountFiles(occs []DuplicateFile) int {
	seen := make(map[int]struct{}, len(occs))
	for _, o := range occs {
		seen[o.RepoID] = struct{}{}
	}
	return len(seen)
}
