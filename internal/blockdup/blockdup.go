// Package blockdup finds duplicate brace-delimited blocks and their
// AST-subtree approximations (spec.md §4.6), grounded on the teacher
// pack's ingo-eichhorst-agent-readyness/internal/analyzer/c1_code_quality/
// duplication_common.go: the same bucket-by-hash, dedupe-by-position shape
// that file applies to tree-sitter statement windows, here applied to the
// brace-block tree produced by internal/normalize instead.
package blockdup

import (
	"sort"

	"github.com/ivoronin/clonewatch/internal/hashutil"
	"github.com/ivoronin/clonewatch/internal/types"
)

// subtreeTokenMarker is the first token of the synthetic pair emitted at
// every child block boundary when building a subtree representation
// (spec.md §4.6):
// value 50000 never collides with a real token code, since punctuation
// codes top out at 10000+0xFF and keyword/ident/num/str codes stay below
// 130.
const subtreeTokenMarker = 50000

// View is one file's token stream and block tree, the unit both detectors
// in this package operate over.
type View struct {
	FileID     int
	RepoID     int
	RepoLabel  string
	RelPath    string
	Tokens     []uint32
	TokenLines []int
	Blocks     []types.Block
}

// PreviewFunc renders a human-readable preview for the first occurrence
// inserted into a new group.
type PreviewFunc func(v *View, startLine, endLine int) string

type occurrence struct {
	fileID     int
	blockID    int
	startToken int
}

// blockRef identifies one block within one view, used as the bottom-up
// evaluation's map key so a parent can look up a child's already-computed
// hash.
type blockRef struct {
	fileID  int
	blockID int
}

// FindBlockDuplicates implements spec.md §4.6's "Block duplicates": every
// block whose inner token slice (exclusive of the braces themselves) has
// length >= minTokenLen is bucketed by (content_hash, len); buckets with
// >= 2 distinct (file_id, block.start_token) occurrences become groups.
func FindBlockDuplicates(views []View, minTokenLen int, crossRepoOnly bool, preview PreviewFunc) []types.DuplicateSpanGroup {
	byID := make(map[int]*View, len(views))
	for i := range views {
		byID[views[i].FileID] = &views[i]
	}

	buckets := make(map[bucketKey][]occurrence)
	for i := range views {
		v := &views[i]
		for _, b := range v.Blocks {
			slice := innerTokens(v, b)
			if len(slice) < minTokenLen {
				continue
			}
			hash := hashutil.FNV1a64U32s(slice)
			key := bucketKey{hash: hash, length: len(slice)}
			buckets[key] = append(buckets[key], occurrence{fileID: v.FileID, blockID: b.ID, startToken: b.StartToken})
		}
	}

	return buildGroups(buckets, byID, crossRepoOnly, preview)
}

// FindSubtreeDuplicates implements spec.md §4.6's AST-subtree
// approximation: blocks are visited in decreasing depth (deepest first) so
// that, for each block, every descendant's representation hash is already
// known. A block's representation is its inner tokens, with each
// descendant block's token span replaced by a synthetic
// (subtreeTokenMarker, fold_u64_to_u32(child_hash)) pair. The
// representation's FNV-1a hash and length feed the same bucketing and
// dedup rules as FindBlockDuplicates.
func FindSubtreeDuplicates(views []View, minTokenLen int, crossRepoOnly bool, preview PreviewFunc) []types.DuplicateSpanGroup {
	byID := make(map[int]*View, len(views))
	for i := range views {
		byID[views[i].FileID] = &views[i]
	}

	childHash := make(map[blockRef]uint64)
	buckets := make(map[bucketKey][]occurrence)

	for i := range views {
		v := &views[i]
		order := make([]int, len(v.Blocks))
		for idx := range v.Blocks {
			order[idx] = idx
		}
		sort.Slice(order, func(a, b int) bool {
			return v.Blocks[order[a]].Depth > v.Blocks[order[b]].Depth
		})

		for _, idx := range order {
			b := v.Blocks[idx]
			repr := subtreeRepresentation(v, b, childHash)
			hash := hashutil.FNV1a64U32s(repr)
			childHash[blockRef{fileID: v.FileID, blockID: b.ID}] = hash

			if len(repr) < minTokenLen {
				continue
			}
			key := bucketKey{hash: hash, length: len(repr)}
			buckets[key] = append(buckets[key], occurrence{fileID: v.FileID, blockID: b.ID, startToken: b.StartToken})
		}
	}

	return buildGroups(buckets, byID, crossRepoOnly, preview)
}

type bucketKey struct {
	hash   uint64
	length int
}

// innerTokens returns the tokens strictly between a block's opening and
// closing brace tokens (the braces themselves carry no information beyond
// nesting, already captured by which block this is).
func innerTokens(v *View, b types.Block) []uint32 {
	start, end := b.StartToken+1, b.EndToken
	if start >= end || end > len(v.Tokens) {
		return nil
	}
	return v.Tokens[start:end]
}

// subtreeRepresentation walks a block's inner tokens in order, splicing in
// a synthetic (subtreeTokenMarker, fold(childHash)) pair at every direct
// child's token span instead of the child's own tokens, per spec.md §4.6.
func subtreeRepresentation(v *View, b types.Block, childHash map[blockRef]uint64) []uint32 {
	start, end := b.StartToken+1, b.EndToken
	if start >= end || end > len(v.Tokens) {
		return nil
	}

	childByStart := make(map[int]types.Block, len(b.Children))
	for _, cid := range b.Children {
		child := v.Blocks[cid]
		childByStart[child.StartToken] = child
	}

	repr := make([]uint32, 0, end-start)
	i := start
	for i < end {
		if child, ok := childByStart[i]; ok {
			h := childHash[blockRef{fileID: v.FileID, blockID: child.ID}]
			repr = append(repr, subtreeTokenMarker, hashutil.FoldU64ToU32(h))
			if child.EndToken > i {
				i = child.EndToken + 1
			} else {
				i++
			}
			continue
		}
		repr = append(repr, v.Tokens[i])
		i++
	}
	return repr
}

// buildGroups turns populated buckets into finalized span groups, applying
// the (file_id, block.start_token) dedup rule shared by both detectors
// before handing off to FinalizeSpanGroups (spec.md §4.7).
func buildGroups(buckets map[bucketKey][]occurrence, byID map[int]*View, crossRepoOnly bool, preview PreviewFunc) []types.DuplicateSpanGroup {
	var out []types.DuplicateSpanGroup

	for key, occs := range buckets {
		if len(occs) < 2 {
			continue
		}

		seen := make(map[occurrence]bool, len(occs))
		var dedup []occurrence
		for _, o := range occs {
			if seen[o] {
				continue
			}
			seen[o] = true
			dedup = append(dedup, o)
		}
		if len(dedup) < 2 {
			continue
		}

		g := types.DuplicateSpanGroup{ContentHash: key.hash, NormalizedLen: key.length}
		for _, o := range dedup {
			v := byID[o.fileID]
			if v == nil {
				continue
			}
			block := v.Blocks[o.blockID]

			prev := ""
			if preview != nil && len(g.Occurrences) == 0 {
				prev = preview(v, block.StartLine, block.EndLine)
			}
			g.Occurrences = append(g.Occurrences, types.DuplicateSpanOccurrence{
				RepoID:    v.RepoID,
				RepoLabel: v.RepoLabel,
				RelPath:   v.RelPath,
				StartLine: block.StartLine,
				EndLine:   block.EndLine,
				Preview:   prev,
			})
		}
		out = append(out, g)
	}

	return types.FinalizeSpanGroups(out, crossRepoOnly)
}
