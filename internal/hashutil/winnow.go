package hashutil

// WinnowBase is the rolling-polynomial base spec.md §4.1 mandates:
// 911,382,323, computed over unsigned 64-bit arithmetic with wrap.
const WinnowBase uint64 = 911382323

// Fingerprint is one fingerprint selected by winnowing: the rolling hash of
// a fingerprintLen-codepoint window, and the position (index into the
// codepoint stream) at which that window starts.
type Fingerprint struct {
	Hash uint64
	Pos  int
}

// RollingHashes computes the fingerprintLen-window rolling polynomial hash
// at every position where a full window fits: hashes[i] is the hash of
// cps[i : i+fingerprintLen]. Each codepoint contributes cp+1 so that a run
// of codepoint zero never collapses the hash to zero (spec.md §4.1).
func RollingHashes(cps []rune, fingerprintLen int) []uint64 {
	n := len(cps)
	if fingerprintLen < 1 || n < fingerprintLen {
		return nil
	}

	var power uint64 = 1
	for i := 0; i < fingerprintLen-1; i++ {
		power *= WinnowBase
	}

	hashes := make([]uint64, n-fingerprintLen+1)

	var h uint64
	for i := 0; i < fingerprintLen; i++ {
		h = h*WinnowBase + (uint64(cps[i]) + 1)
	}
	hashes[0] = h

	for i := 1; i <= n-fingerprintLen; i++ {
		outgoing := uint64(cps[i-1]) + 1
		incoming := uint64(cps[i+fingerprintLen-1]) + 1
		h = (h-outgoing*power)*WinnowBase + incoming
		hashes[i] = h
	}

	return hashes
}

// Winnow selects, from every sliding window of windowSize rolling hashes, the
// minimum — breaking ties toward the rightmost index — and emits a
// Fingerprint only when the argmin position advances from the previous
// window (one fingerprint per monotone "ridge", spec.md §4.1). The monotonic
// deque keeps this O(len(cps)) regardless of windowSize.
//
// Guarantee: every substring of length windowSize+fingerprintLen-1 contains
// at least one selected fingerprint.
func Winnow(cps []rune, fingerprintLen, windowSize int) []Fingerprint {
	if fingerprintLen < 1 {
		fingerprintLen = 1
	}
	if windowSize < 1 {
		windowSize = 1
	}

	hashes := RollingHashes(cps, fingerprintLen)
	if len(hashes) == 0 {
		return nil
	}

	var out []Fingerprint
	deque := make([]int, 0, windowSize)
	lastEmitted := -1

	for i := 0; i < len(hashes); i++ {
		for len(deque) > 0 && hashes[deque[len(deque)-1]] >= hashes[i] {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)

		for deque[0] <= i-windowSize {
			deque = deque[1:]
		}

		if i >= windowSize-1 {
			minIdx := deque[0]
			if minIdx != lastEmitted {
				out = append(out, Fingerprint{Hash: hashes[minIdx], Pos: minIdx})
				lastEmitted = minIdx
			}
		}
	}

	return out
}
