// Package tokenizer splits plain text into the token stream of a document.
//
// A token is either a word (a run of letters, digits, marks, '_' and '-')
// or a single punctuation or symbol character. Whitespace only delimits.
// Each token is indexed under its surface form on the s layer and its
// lowercased form on the i layer.
package tokenizer

import "unicode"

// Layer prefixes of the terms produced for a token.
const (
	SurfaceLayer = "s:"
	FoldedLayer  = "i:"
)

// isWordRune returns true if r continues a word token.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_' || r == '-'
}
