// Package winnow implements the winnowing match engine of spec.md §4.4: a
// two-phase algorithm that finds every maximal matching span of length at
// least min_len between any two normalized views, across one or many files.
// It runs single-threaded, in keeping with §5 — this stage is pure CPU work
// over in-memory slices, unlike the teacher's I/O-bound scanner.
package winnow

import (
	"sort"
	"strconv"

	"github.com/ivoronin/clonewatch/internal/hashutil"
	"github.com/ivoronin/clonewatch/internal/types"
)

// MaxBucket bounds the pairwise-extension cost of any single fingerprint
// bucket (spec.md §4.4), guaranteeing O(MaxBucket²) per fingerprint
// regardless of input skew.
const MaxBucket = 512

// View is one file's normalized symbol stream: either a code-char codepoint
// stream or a token stream, both represented as 32-bit symbols, plus the
// line map needed to render 1-based line numbers in the report.
type View struct {
	FileID    int
	RepoID    int
	RepoLabel string
	RelPath   string
	Symbols   []uint32
	LineMap   []int // LineMap[i] is the 1-based source line of Symbols[i]
}

// AcceptMatchFunc lets a caller reject an otherwise-valid match given the
// file and start position on one side of it, e.g. the line-span detector's
// minimum total character count (summed from per-line character counts
// starting at that file's matched position). Called once per side; both
// must accept.
type AcceptMatchFunc func(fileID, start, length int) bool

// PreviewFunc renders a human-readable preview for the first occurrence
// inserted into a new group.
type PreviewFunc func(v *View, start, length int) string

type occurrence struct {
	fileID int
	pos    int
}

type matchKey struct {
	fileA, startA, fileB, startB, length int
}

func toRunes(symbols []uint32) []rune {
	out := make([]rune, len(symbols))
	for i, s := range symbols {
		out[i] = rune(s)
	}
	return out
}

// Match runs Phase 1 (indexing) and Phase 2 (pairwise extension) over views
// and returns finalized span-duplicate groups (spec.md §4.4, §4.7).
func Match(
	views []View,
	minLen, fingerprintLen, windowSize int,
	crossRepoOnly bool,
	accept AcceptMatchFunc,
	preview PreviewFunc,
	stats *types.ScanStats,
) []types.DuplicateSpanGroup {
	byID := make(map[int]*View, len(views))
	index := make(map[uint64][]occurrence)

	for i := range views {
		v := &views[i]
		byID[v.FileID] = v
		if len(v.Symbols) < minLen {
			continue
		}
		for _, fp := range hashutil.Winnow(toRunes(v.Symbols), fingerprintLen, windowSize) {
			index[fp.Hash] = append(index[fp.Hash], occurrence{fileID: v.FileID, pos: fp.Pos})
		}
	}

	groups := make(map[uint64]*types.DuplicateSpanGroup) // key: content hash folded with length
	within := make(map[uint64]map[string]bool)           // per-bucket-key dedup of (fileID,start)
	seenKeys := make(map[matchKey]bool)

	for _, occs := range index {
		if len(occs) < 2 {
			continue
		}
		if len(occs) > MaxBucket {
			discarded := len(occs) - MaxBucket
			occs = roundRobinTruncate(occs, byID, MaxBucket)
			if stats != nil {
				stats.SkippedBucketTruncated.Add(int64(discarded))
			}
		}

		for i := 0; i < len(occs); i++ {
			for j := i + 1; j < len(occs); j++ {
				a, b := occs[i], occs[j]
				if a.fileID == b.fileID && a.pos == b.pos {
					continue
				}
				va, vb := byID[a.fileID], byID[b.fileID]
				if va == nil || vb == nil {
					continue
				}
				if crossRepoOnly && va.RepoID == vb.RepoID {
					continue
				}

				startA, startB, length, ok := maximalMatch(va, vb, a.pos, b.pos, fingerprintLen)
				if !ok || length < minLen {
					continue
				}
				if accept != nil && (!accept(a.fileID, startA, length) || !accept(b.fileID, startB, length)) {
					continue
				}
				if a.fileID == b.fileID && intervalsOverlap(startA, startB, length) {
					continue
				}

				fa, sa, fb, sb := a.fileID, startA, b.fileID, startB
				if fa > fb || (fa == fb && sa > sb) {
					fa, fb = fb, fa
					sa, sb = sb, sa
				}
				key := matchKey{fa, sa, fb, sb, length}
				if seenKeys[key] {
					continue
				}
				seenKeys[key] = true

				addOccurrences(groups, within, byID, fa, sa, fb, sb, length, preview)
			}
		}
	}

	out := make([]types.DuplicateSpanGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return types.FinalizeSpanGroups(out, crossRepoOnly)
}

// addOccurrences computes the matched sample's content hash, finds or
// creates the group builder keyed by (hash, length), and inserts both
// occurrences, deduplicating by (fileID, start) within that builder
// (spec.md §4.4 point 7).
func addOccurrences(
	groups map[uint64]*types.DuplicateSpanGroup,
	within map[uint64]map[string]bool,
	byID map[int]*View,
	fileA, startA, fileB, startB, length int,
	preview PreviewFunc,
) {
	va := byID[fileA]
	sample := va.Symbols[startA : startA+length]
	hash := hashutil.FNV1a64U32s(sample)
	bucketKey := hash ^ (uint64(length) * 0x9E3779B97F4A7C15)

	g, ok := groups[bucketKey]
	if !ok {
		g = &types.DuplicateSpanGroup{ContentHash: hash, NormalizedLen: length}
		groups[bucketKey] = g
		within[bucketKey] = make(map[string]bool)
	}

	seen := within[bucketKey]
	for _, occ := range []occurrence{{fileA, startA}, {fileB, startB}} {
		v := byID[occ.fileID]
		dedupKey := dedupKeyFor(occ.fileID, occ.pos)
		if seen[dedupKey] {
			continue
		}
		seen[dedupKey] = true

		startLine, endLine := lineRange(v, occ.pos, length)
		prev := ""
		if preview != nil && len(g.Occurrences) == 0 {
			prev = preview(v, occ.pos, length)
		}
		g.Occurrences = append(g.Occurrences, types.DuplicateSpanOccurrence{
			RepoID:    v.RepoID,
			RepoLabel: v.RepoLabel,
			RelPath:   v.RelPath,
			StartLine: startLine,
			EndLine:   endLine,
			Preview:   prev,
		})
	}
}

func dedupKeyFor(fileID, pos int) string {
	return strconv.Itoa(fileID) + ":" + strconv.Itoa(pos)
}

func lineRange(v *View, start, length int) (startLine, endLine int) {
	if len(v.LineMap) == 0 {
		return 0, 0
	}
	end := start + length - 1
	if end >= len(v.LineMap) {
		end = len(v.LineMap) - 1
	}
	return v.LineMap[start], v.LineMap[end]
}

// maximalMatch verifies the fingerprint_len window is identical, then
// expands left and right while the symbol streams agree (spec.md §4.4
// point 3).
func maximalMatch(va, vb *View, posA, posB, fingerprintLen int) (startA, startB, length int, ok bool) {
	as, bs := va.Symbols, vb.Symbols
	if posA+fingerprintLen > len(as) || posB+fingerprintLen > len(bs) {
		return 0, 0, 0, false
	}
	for k := 0; k < fingerprintLen; k++ {
		if as[posA+k] != bs[posB+k] {
			return 0, 0, 0, false
		}
	}

	left := 0
	for posA-left-1 >= 0 && posB-left-1 >= 0 && as[posA-left-1] == bs[posB-left-1] {
		left++
	}
	right := fingerprintLen
	for posA+right < len(as) && posB+right < len(bs) && as[posA+right] == bs[posB+right] {
		right++
	}

	return posA - left, posB - left, left + right, true
}

// intervalsOverlap reports whether [startA, startA+length) and
// [startB, startB+length) overlap, used to reject same-file self-matches
// whose spans intersect.
func intervalsOverlap(startA, startB, length int) bool {
	aEnd := startA + length
	bEnd := startB + length
	return startA < bEnd && startB < aEnd
}

// roundRobinTruncate sorts a bucket's occurrences by repo and interleaves
// across repos, keeping only the first max entries (spec.md §4.4 point 2:
// "round-robin-by-repo policy").
func roundRobinTruncate(occs []occurrence, byID map[int]*View, max int) []occurrence {
	byRepo := make(map[int][]occurrence)
	var repoIDs []int
	for _, o := range occs {
		repoID := 0
		if v := byID[o.fileID]; v != nil {
			repoID = v.RepoID
		}
		if _, ok := byRepo[repoID]; !ok {
			repoIDs = append(repoIDs, repoID)
		}
		byRepo[repoID] = append(byRepo[repoID], o)
	}
	sort.Ints(repoIDs)

	out := make([]occurrence, 0, max)
	for len(out) < max {
		progressed := false
		for _, repoID := range repoIDs {
			bucket := byRepo[repoID]
			if len(bucket) == 0 {
				continue
			}
			out = append(out, bucket[0])
			byRepo[repoID] = bucket[1:]
			progressed = true
			if len(out) == max {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return out
}
