package normalize

import "github.com/ivoronin/clonewatch/internal/hashutil"

// LineTokenStream is one 32-bit token per non-empty line of a file,
// computed as fold_u64_to_u32(FNV1a64(codepoints of [A-Za-z0-9_] characters
// in that line)) (spec.md §4.2). Lines all of whose characters fall outside
// that set contribute no token. LineNumbers and CharCounts are parallel to
// Tokens: the 1-based source line and the count of surviving characters
// used later for length filtering.
type LineTokenStream struct {
	Tokens      []uint32
	LineNumbers []int
	CharCounts  []int
}

func isLineTokenChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_'
}

// LineTokens computes the line-token stream for data.
func LineTokens(data []byte) LineTokenStream {
	var out LineTokenStream

	emit := func(line []byte, lineNum int) {
		filtered := make([]rune, 0, len(line))
		for _, b := range line {
			if isLineTokenChar(b) {
				filtered = append(filtered, rune(b))
			}
		}
		if len(filtered) == 0 {
			return
		}
		tok := hashutil.FoldU64ToU32(hashutil.FNV1a64Codepoints(filtered))
		out.Tokens = append(out.Tokens, tok)
		out.LineNumbers = append(out.LineNumbers, lineNum)
		out.CharCounts = append(out.CharCounts, len(filtered))
	}

	lineNum := 0
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			lineNum++
			emit(data[start:i], lineNum)
			start = i + 1
		}
	}
	lineNum++
	emit(data[start:], lineNum)

	return out
}
