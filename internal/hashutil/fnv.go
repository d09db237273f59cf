// Package hashutil provides the hashing and fingerprint primitives shared by
// every detector: FNV-1a over bytes and codepoint sequences, the 64→32 bit
// fold, SplitMix64, and rolling-polynomial winnowing (spec.md §4.1). These
// are bit-for-bit reproducible by construction — every caller that needs
// the same content hash (the file-duplicate grouper, the winnowing match
// engine, the block/subtree detectors) goes through exactly these
// functions so that hashes agree across the whole engine.
package hashutil

const (
	fnvOffsetBasis64 uint64 = 14695981039346656037
	fnvPrime64       uint64 = 1099511628211
)

// FNV1a64 computes the standard 64-bit FNV-1a hash over bytes.
func FNV1a64(data []byte) uint64 {
	h := fnvOffsetBasis64
	for _, b := range data {
		h ^= uint64(b)
		h *= fnvPrime64
	}
	return h
}

// FNV1a64Seed is FNV1a64 starting from an arbitrary running hash, letting
// callers fold multiple chunks (e.g. a sequence of AST-subtree
// representation tokens) into one hash without allocating an intermediate
// byte slice.
func FNV1a64Seed(h uint64, data []byte) uint64 {
	for _, b := range data {
		h ^= uint64(b)
		h *= fnvPrime64
	}
	return h
}

// FNV1a64Codepoints hashes a codepoint sequence by folding each 32-bit
// codepoint as its four little-endian bytes (spec.md §4.1, §9: "hash
// computations over 32-bit codepoints explicitly use little-endian byte
// order to be reproducible across hosts"). This guarantees hash stability
// independent of host endianness.
func FNV1a64Codepoints(cps []rune) uint64 {
	h := fnvOffsetBasis64
	var buf [4]byte
	for _, cp := range cps {
		v := uint32(cp) //nolint:gosec // codepoints are <= 0x10FFFF
		buf[0] = byte(v)
		buf[1] = byte(v >> 8)
		buf[2] = byte(v >> 16)
		buf[3] = byte(v >> 24)
		for _, b := range buf {
			h ^= uint64(b)
			h *= fnvPrime64
		}
	}
	return h
}

// FNV1a64U32s hashes a sequence of 32-bit token codes the same
// little-endian-folded way as FNV1a64Codepoints. Used for token-sequence
// hashing (block duplicates, AST-subtree representations).
func FNV1a64U32s(vals []uint32) uint64 {
	h := fnvOffsetBasis64
	var buf [4]byte
	for _, v := range vals {
		buf[0] = byte(v)
		buf[1] = byte(v >> 8)
		buf[2] = byte(v >> 16)
		buf[3] = byte(v >> 24)
		for _, b := range buf {
			h ^= uint64(b)
			h *= fnvPrime64
		}
	}
	return h
}

// FoldU64ToU32 narrows a 64-bit hash to 32 bits by XOR-folding the high and
// low halves, used wherever a wider hash must become a token code.
func FoldU64ToU32(x uint64) uint32 {
	return uint32(x) ^ uint32(x>>32)
}
