package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is one token of a text. Start and End are byte offsets into the
// text, End exclusive.
type Token struct {
	Surface string
	Start   int
	End     int
}

// Terms returns the indexed terms of the token: its surface and folded
// forms.
func (t Token) Terms() []string {
	return []string{SurfaceLayer + t.Surface, FoldedLayer + strings.ToLower(t.Surface)}
}

// IterTokens calls fn for each token of text in order. If fn returns false,
// iteration stops early.
func IterTokens(text string, fn func(Token) bool) {
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if !fn(Token{Surface: text[start:i], Start: start, End: i}) {
				return
			}
			start = -1
		}
		if unicode.IsSpace(r) || r == utf8.RuneError {
			continue
		}
		end := i + utf8.RuneLen(r)
		if !fn(Token{Surface: text[i:end], Start: i, End: end}) {
			return
		}
	}
	if start >= 0 {
		fn(Token{Surface: text[start:], Start: start, End: len(text)})
	}
}

// Tokens returns all tokens of text.
func Tokens(text string) []Token {
	var tokens []Token
	IterTokens(text, func(t Token) bool {
		tokens = append(tokens, t)
		return true
	})
	return tokens
}
