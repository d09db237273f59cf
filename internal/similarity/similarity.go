// Package similarity implements the two near-duplicate detectors of
// spec.md §4.8: MinHash/LSH Jaccard-estimate matching and SimHash/LSH
// Hamming-distance matching. Both share the same block-selection and
// shingling preprocessing, and both follow the banding shape seen in the
// jinterlante1206-AleutianLocal pack's streaming.LSH (bucket candidates by
// a per-band hash, then verify pairwise) — re-derived here to spec.md's
// concrete constants rather than that package's generic, configurable
// bands/rows.
package similarity

import (
	"sort"

	"github.com/ivoronin/clonewatch/internal/hashutil"
	"github.com/ivoronin/clonewatch/internal/types"
)

const (
	shingleLen       = 5
	minHashSigSize   = 32
	minHashBands     = 8
	minHashBandWidth = minHashSigSize / minHashBands
	simHashBands     = 4
	simHashBandWidth = 16
)

// View is one file's token stream and block tree, the unit both detectors
// select candidate blocks from.
type View struct {
	FileID    int
	RepoID    int
	RepoLabel string
	RelPath   string
	Tokens    []uint32
	Blocks    []types.Block
}

// candidateBlock is one depth<=2 block whose shingle set was computed, the
// common preprocessing step shared by MinHash and SimHash (spec.md §4.8).
type candidateBlock struct {
	fileID    int
	repoID    int
	repoLabel string
	relPath   string
	startLine int
	endLine   int
	shingles  []uint64
}

func innerTokens(v *View, b types.Block) []uint32 {
	start, end := b.StartToken+1, b.EndToken
	if start >= end || end > len(v.Tokens) {
		return nil
	}
	return v.Tokens[start:end]
}

// shingleHashes computes FNV1a64_u32(window) for every length-shingleLen
// window of tokens, in order.
func shingleHashes(tokens []uint32) []uint64 {
	if len(tokens) < shingleLen {
		return nil
	}
	out := make([]uint64, 0, len(tokens)-shingleLen+1)
	for i := 0; i+shingleLen <= len(tokens); i++ {
		out = append(out, hashutil.FNV1a64U32s(tokens[i:i+shingleLen]))
	}
	return out
}

// collectCandidateBlocks gathers every block of depth<=2 across views whose
// inner token length is at least max(minTokenLen, shingleLen), per the
// common preprocessing of spec.md §4.8.
func collectCandidateBlocks(views []View, minTokenLen int) []candidateBlock {
	threshold := minTokenLen
	if threshold < shingleLen {
		threshold = shingleLen
	}

	var out []candidateBlock
	for i := range views {
		v := &views[i]
		for _, b := range v.Blocks {
			if b.Depth > 2 {
				continue
			}
			toks := innerTokens(v, b)
			if len(toks) < threshold {
				continue
			}
			sh := shingleHashes(toks)
			if len(sh) == 0 {
				continue
			}
			out = append(out, candidateBlock{
				fileID:    v.FileID,
				repoID:    v.RepoID,
				repoLabel: v.RepoLabel,
				relPath:   v.RelPath,
				startLine: b.StartLine,
				endLine:   b.EndLine,
				shingles:  sh,
			})
		}
	}
	return out
}

func (c *candidateBlock) occurrence() types.DuplicateSpanOccurrence {
	return types.DuplicateSpanOccurrence{
		RepoID:    c.repoID,
		RepoLabel: c.repoLabel,
		RelPath:   c.relPath,
		StartLine: c.startLine,
		EndLine:   c.endLine,
	}
}

func pairKey(i, j int) [2]int {
	if i < j {
		return [2]int{i, j}
	}
	return [2]int{j, i}
}

// minHashSignature computes the 32-value signature of spec.md §4.8: for
// each of 32 independent seeds, the minimum over every shingle hash of
// SplitMix64(shingle_hash XOR seed) truncated to 32 bits.
func minHashSignature(shingles []uint64, seeds []uint64) []uint32 {
	sig := make([]uint32, len(seeds))
	for i, seed := range seeds {
		min := uint32(0xFFFFFFFF)
		for _, sh := range shingles {
			v := uint32(hashutil.SplitMix64(sh ^ seed))
			if v < min {
				min = v
			}
		}
		sig[i] = min
	}
	return sig
}

func minHashBandKey(sig []uint32, band int) uint64 {
	start := band * minHashBandWidth
	return hashutil.FNV1a64U32s(sig[start : start+minHashBandWidth])
}

// FindMinHashSimilar implements spec.md §4.8's MinHash/LSH detector: blocks
// are grouped into 8 bands of 4 signature values each; any band bucket
// with >= 2 blocks yields candidate pairs, deduplicated by unordered
// (block index) pair, then verified by exact Jaccard estimate over the
// full 32-value signature.
func FindMinHashSimilar(views []View, minTokenLen int, similarityThreshold float64, crossRepoOnly bool) []types.SimilarityPair {
	blocks := collectCandidateBlocks(views, minTokenLen)
	if len(blocks) < 2 {
		return nil
	}

	seeds := hashutil.MinHashSeeds(minHashSigSize)
	sigs := make([][]uint32, len(blocks))
	for i, b := range blocks {
		sigs[i] = minHashSignature(b.shingles, seeds)
	}

	seenPairs := make(map[[2]int]bool)
	var out []types.SimilarityPair

	for band := 0; band < minHashBands; band++ {
		buckets := make(map[uint64][]int)
		for i, sig := range sigs {
			key := minHashBandKey(sig, band)
			buckets[key] = append(buckets[key], i)
		}

		for _, idxs := range buckets {
			if len(idxs) < 2 {
				continue
			}
			for x := 0; x < len(idxs); x++ {
				for y := x + 1; y < len(idxs); y++ {
					i, j := idxs[x], idxs[y]
					key := pairKey(i, j)
					if seenPairs[key] {
						continue
					}
					seenPairs[key] = true

					a, b := blocks[i], blocks[j]
					if crossRepoOnly && a.repoID == b.repoID {
						continue
					}

					matches := 0
					for k := 0; k < minHashSigSize; k++ {
						if sigs[i][k] == sigs[j][k] {
							matches++
						}
					}
					score := float64(matches) / float64(minHashSigSize)
					if score < similarityThreshold {
						continue
					}

					out = append(out, types.SimilarityPair{
						A:        a.occurrence(),
						B:        b.occurrence(),
						Score:    score,
						Distance: -1,
					})
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// simHashSignature accumulates the 64-element signed tally of spec.md
// §4.8: each shingle contributes +1/-1 per bit of its SplitMix64-mixed
// hash, and bit i of the final signature is set when tally[i] > 0.
func simHashSignature(shingles []uint64) uint64 {
	var tally [64]int
	for _, sh := range shingles {
		mixed := hashutil.SplitMix64(sh)
		for i := 0; i < 64; i++ {
			if mixed&(1<<uint(i)) != 0 {
				tally[i]++
			} else {
				tally[i]--
			}
		}
	}
	var sig uint64
	for i := 0; i < 64; i++ {
		if tally[i] > 0 {
			sig |= 1 << uint(i)
		}
	}
	return sig
}

func simHashBandKey(sig uint64, band int) uint64 {
	shift := uint(band * simHashBandWidth)
	mask := uint64(1<<simHashBandWidth) - 1
	return (sig >> shift) & mask
}

// FindSimHashSimilar implements spec.md §4.8's SimHash/LSH detector: blocks
// are grouped into 4 bands of 16 contiguous signature bits each; any band
// bucket with >= 2 blocks yields candidate pairs, deduplicated by unordered
// (block index) pair, then verified by Hamming distance over the full
// 64-bit signature.
func FindSimHashSimilar(views []View, minTokenLen int, maxDistance int, crossRepoOnly bool) []types.SimilarityPair {
	blocks := collectCandidateBlocks(views, minTokenLen)
	if len(blocks) < 2 {
		return nil
	}

	sigs := make([]uint64, len(blocks))
	for i, b := range blocks {
		sigs[i] = simHashSignature(b.shingles)
	}

	seenPairs := make(map[[2]int]bool)
	var out []types.SimilarityPair

	for band := 0; band < simHashBands; band++ {
		buckets := make(map[uint64][]int)
		for i, sig := range sigs {
			key := simHashBandKey(sig, band)
			buckets[key] = append(buckets[key], i)
		}

		for _, idxs := range buckets {
			if len(idxs) < 2 {
				continue
			}
			for x := 0; x < len(idxs); x++ {
				for y := x + 1; y < len(idxs); y++ {
					i, j := idxs[x], idxs[y]
					key := pairKey(i, j)
					if seenPairs[key] {
						continue
					}
					seenPairs[key] = true

					a, b := blocks[i], blocks[j]
					if crossRepoOnly && a.repoID == b.repoID {
						continue
					}

					dist := popcount(sigs[i] ^ sigs[j])
					if dist > maxDistance {
						continue
					}

					out = append(out, types.SimilarityPair{
						A:        a.occurrence(),
						B:        b.occurrence(),
						Score:    1 - float64(dist)/64,
						Distance: dist,
					})
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func popcount(x uint64) int {
	count := 0
	for x != 0 {
		x &= x - 1
		count++
	}
	return count
}
