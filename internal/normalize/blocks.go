package normalize

import "github.com/ivoronin/clonewatch/internal/types"

// punctOpenBrace and punctCloseBrace are the token codes Tokenize assigns to
// '{' and '}' respectively.
const (
	punctOpenBrace  = punctCodeBase + uint32('{')
	punctCloseBrace = punctCodeBase + uint32('}')
)

// ParseBlocks consumes a token stream and pushes a block node at each '{'
// token, closing it at the matching '}' (spec.md §4.2). Each block records
// its start/end token index, start/end line, 1-based depth, and the ids of
// its children in the order their opening braces were seen. Unmatched
// closes are silently skipped; an unmatched open leaves end_token equal to
// start_token.
func ParseBlocks(tokens []uint32, lines []int) []types.Block {
	var blocks []types.Block
	var stack []int // indices into blocks, innermost last

	for i, tok := range tokens {
		switch tok {
		case punctOpenBrace:
			id := len(blocks)
			depth := len(stack) + 1
			blocks = append(blocks, types.Block{
				ID:         id,
				StartToken: i,
				EndToken:   i,
				StartLine:  lines[i],
				EndLine:    lines[i],
				Depth:      depth,
			})
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				blocks[parent].Children = append(blocks[parent].Children, id)
			}
			stack = append(stack, id)

		case punctCloseBrace:
			if len(stack) == 0 {
				continue // unmatched close: silently skipped
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			blocks[top].EndToken = i
			blocks[top].EndLine = lines[i]
		}
	}

	return blocks
}
