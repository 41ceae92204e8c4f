package spans

import (
	"errors"
	"regexp"
	"strings"

	"spansearch/internal/index"
)

var ErrInvalidPattern = errors.New("invalid term pattern")

// compileRegex anchors a term regex so it has to match the whole term.
func compileRegex(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, errors.Join(ErrInvalidPattern, err)
	}
	return re, nil
}

// compileWildcard converts a wildcard pattern to an anchored regex.
// Supported metacharacters: * (any run), ? (single character). A backslash
// escapes the following character.
func compileWildcard(pattern string) (*regexp.Regexp, error) {
	s, err := wildcardToRegex(pattern)
	if err != nil {
		return nil, err
	}
	return regexp.Compile(s)
}

func wildcardToRegex(pattern string) (string, error) {
	var b strings.Builder
	b.WriteByte('^')

	for i := 0; i < len(pattern); i++ {
		switch ch := pattern[i]; ch {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		case '\\':
			i++
			if i >= len(pattern) {
				return "", ErrInvalidPattern
			}
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}

	b.WriteByte('$')
	return b.String(), nil
}

// wildcardPrefix returns the literal prefix of a wildcard pattern, the
// characters before the first metacharacter.
func wildcardPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?\`); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

// matchingTerms lists the terms of field that re matches. Terms are visited
// in lexical order, so the scan stops once it leaves the literal prefix.
func matchingTerms(seg index.Segment, field string, re *regexp.Regexp, prefix string) ([]string, error) {
	var terms []string
	err := seg.Terms(field, func(term string) bool {
		if prefix != "" && !strings.HasPrefix(term, prefix) {
			return term < prefix
		}
		if re.MatchString(term) {
			terms = append(terms, term)
		}
		return true
	})
	return terms, err
}

// patternSpans merges the occurrences of every term matching a regex or
// wildcard pattern.
func patternSpans(seg index.Segment, field, pattern string, wildcard bool) (Spans, error) {
	var re *regexp.Regexp
	var prefix string
	var err error
	if wildcard {
		re, err = compileWildcard(pattern)
		prefix = wildcardPrefix(pattern)
	} else {
		re, err = compileRegex(pattern)
		if err == nil {
			prefix, _ = re.LiteralPrefix()
		}
	}
	if err != nil {
		return nil, err
	}

	terms, err := matchingTerms(seg, field, re, prefix)
	if err != nil {
		return nil, err
	}
	children := make([]Spans, 0, len(terms))
	for _, term := range terms {
		p, err := seg.Postings(field, term)
		if err != nil {
			return nil, err
		}
		children = append(children, newTermSpans(p))
	}
	return orSpans(children), nil
}
