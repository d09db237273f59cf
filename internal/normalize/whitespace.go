// Package normalize implements the text normalization and tokenization
// pipeline shared by every detector (spec.md §4.2): whitespace-insensitive
// byte comparison, the code-char codepoint stream with its line map, the
// line-token stream, the language-agnostic tokenizer, and the brace-block
// parser.
package normalize

// isASCIIWhitespace reports whether b is one of the ASCII whitespace bytes
// this engine strips: space, tab, LF, CR, vertical tab, form feed.
func isASCIIWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// StripWhitespace returns the concatenation of every byte in data whose
// value is not ASCII whitespace (spec.md §4.2). Used as the key input to
// the whole-file duplicate grouper.
func StripWhitespace(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if !isASCIIWhitespace(b) {
			out = append(out, b)
		}
	}
	return out
}
