// Package dupefiles groups whole files by byte-identical (whitespace-
// insensitive) content, using the teacher's two-phase screener/verifier
// shape: a cheap composite-key indexing phase followed by a re-read
// verification phase that tolerates files changing between the two
// (spec.md §4.5).
package dupefiles

import (
	"bytes"

	"github.com/ivoronin/clonewatch/internal/hashutil"
	"github.com/ivoronin/clonewatch/internal/normalize"
	"github.com/ivoronin/clonewatch/internal/types"
)

// FileCandidate identifies one file seen during the indexing phase, enough
// information to re-read and re-locate it during verification.
type FileCandidate struct {
	RepoID    int
	RepoLabel string
	RelPath   string // re-read through ReadBytesFunc
}

// ReadBytesFunc re-reads a file's current bytes during the verification
// phase; callers typically read straight from disk rather than from the
// scan-time buffer, so changes since indexing are caught.
type ReadBytesFunc func(repoID int, relPath string) ([]byte, error)

// indexKey is the composite key of spec.md §4.5's indexing phase: two
// differently-mixed content hashes plus the normalized length and
// prefix/suffix bytes, chosen so that two non-identical files are
// overwhelmingly unlikely to collide even before the expensive
// re-read-and-compare verification phase runs.
type indexKey struct {
	contentHash   uint64
	contentHash2  uint64
	normalizedLen int
	prefix        [16]byte
	suffix        [16]byte
}

func computeIndexKey(data []byte) indexKey {
	stripped := normalize.StripWhitespace(data)

	var prefix, suffix [16]byte
	copy(prefix[:], stripped)
	if len(stripped) > 16 {
		copy(suffix[:], stripped[len(stripped)-16:])
	} else {
		copy(suffix[:], stripped)
	}

	return indexKey{
		contentHash:   hashutil.FNV1a64(stripped),
		contentHash2:  hashutil.FNV1a64Seed(hashutil.MinHashSeed, stripped),
		normalizedLen: len(stripped),
		prefix:        prefix,
		suffix:        suffix,
	}
}

// IndexEntry pairs a candidate with the bytes read for it during scanning.
type IndexEntry struct {
	Candidate FileCandidate
	Data      []byte
}

// Index builds the indexing-phase multi-map: composite key -> candidates.
func Index(entries []IndexEntry) map[indexKey][]FileCandidate {
	index := make(map[indexKey][]FileCandidate)
	for _, e := range entries {
		key := computeIndexKey(e.Data)
		index[key] = append(index[key], e.Candidate)
	}
	return index
}

// Verify runs the verification phase over an indexing-phase result: for
// every candidate group of at least two members (and, under
// crossRepoOnly, at least two distinct repos), re-read every member's
// current bytes, strip whitespace again, bucket by the normalized byte
// sequence, and emit a DuplicateGroup per bucket that still retains at
// least two files (spec.md §4.5).
func Verify(index map[indexKey][]FileCandidate, crossRepoOnly bool, readBytes ReadBytesFunc) []types.DuplicateGroup {
	var out []types.DuplicateGroup

	for _, candidates := range index {
		if len(candidates) < 2 {
			continue
		}
		if crossRepoOnly && distinctRepoCount(candidates) < 2 {
			continue
		}

		type bucketEntry struct {
			normalized []byte
			candidate  FileCandidate
		}
		var verified []bucketEntry
		for _, c := range candidates {
			data, err := readBytes(c.RepoID, c.RelPath)
			if err != nil {
				continue
			}
			if bytes.IndexByte(data, 0) >= 0 {
				continue
			}
			verified = append(verified, bucketEntry{normalized: normalize.StripWhitespace(data), candidate: c})
		}

		// Linear scan per outer group: groups are small by construction
		// (they already collided on the composite key), so this avoids a
		// second hash map per group.
		used := make([]bool, len(verified))
		for i := range verified {
			if used[i] {
				continue
			}
			bucket := []bucketEntry{verified[i]}
			used[i] = true
			for j := i + 1; j < len(verified); j++ {
				if used[j] {
					continue
				}
				if bytes.Equal(verified[i].normalized, verified[j].normalized) {
					bucket = append(bucket, verified[j])
					used[j] = true
				}
			}
			if len(bucket) < 2 {
				continue
			}
			if crossRepoOnly {
				repos := make(map[int]struct{})
				for _, b := range bucket {
					repos[b.candidate.RepoID] = struct{}{}
				}
				if len(repos) < 2 {
					continue
				}
			}

			occ := make([]types.DuplicateFile, 0, len(bucket))
			for _, b := range bucket {
				occ = append(occ, types.DuplicateFile{
					RepoID:    b.candidate.RepoID,
					RepoLabel: b.candidate.RepoLabel,
					RelPath:   b.candidate.RelPath,
				})
			}
			out = append(out, types.DuplicateGroup{
				ContentHash:   hashutil.FNV1a64(bucket[0].normalized),
				NormalizedLen: len(bucket[0].normalized),
				Occurrences:   occ,
			})
		}
	}

	return types.FinalizeFileGroups(out, crossRepoOnly)
}

func distinctRepoCount(candidates []FileCandidate) int {
	seen := make(map[int]struct{}, len(candidates))
	for _, c := range candidates {
		seen[c.RepoID] = struct{}{}
	}
	return len(seen)
}
