package spans

import "spansearch/internal/payload"

// segmentSpans matches intervals every required child matches exactly and
// no excluded child matches.
func segmentSpans(required, excluded []Spans) Spans {
	if len(required) == 1 && len(excluded) == 0 {
		return required[0]
	}
	return conjunction(required, excluded, func(req, excl [][]Match) ([]Match, error) {
		var out []Match
	candidates:
		for _, m := range req[0] {
			lists := [][][]byte{m.Payloads}
			for _, other := range req[1:] {
				o, ok := findInterval(other, m.Start, m.End)
				if !ok {
					continue candidates
				}
				lists = append(lists, o.Payloads)
			}
			for _, x := range excl {
				if _, ok := findInterval(x, m.Start, m.End); ok {
					continue candidates
				}
			}
			m.Payloads = payload.Concat(lists...)
			out = append(out, m)
		}
		return out, nil
	})
}

// findInterval returns the first match in ms spanning exactly [start, end).
func findInterval(ms []Match, start, end int) (Match, bool) {
	for _, m := range ms {
		if m.Start == start && m.End == end {
			return m, true
		}
		if m.Start > start {
			break
		}
	}
	return Match{}, false
}
