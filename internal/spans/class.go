package spans

import "spansearch/internal/payload"

// classSpans marks every match of child with a class payload covering the
// match itself.
func classSpans(child Spans, class uint8) Spans {
	return unary(child, func(ms []Match) []Match {
		out := make([]Match, len(ms))
		for i, m := range ms {
			m.Payloads = payload.Concat(m.Payloads, [][]byte{classPayload(m.Start, m.End, class)})
			out[i] = m
		}
		return out
	})
}

// referenceSpans moves every match of child to the range its class payload
// records. Matches without such a payload, with payloads of the class
// disagreeing on the range, or whose range is empty are dropped. The first payload of the class and
// all other payloads are kept.
func referenceSpans(child Spans, class uint8) Spans {
	return unary(child, func(ms []Match) []Match {
		var out []Match
		for _, m := range ms {
			if r, ok := focus(m, class); ok {
				out = append(out, r)
			}
		}
		return out
	})
}

func focus(m Match, class uint8) (Match, bool) {
	var (
		rec   payload.ClassRecord
		found bool
		kept  = make([][]byte, 0, len(m.Payloads))
	)
	for _, p := range m.Payloads {
		if !payload.IsClass(p, class) {
			kept = append(kept, p)
			continue
		}
		r, _ := payload.Decode(p)
		if found {
			if r.Start != rec.Start || r.End != rec.End {
				return Match{}, false
			}
			continue
		}
		rec, found = r, true
		kept = append(kept, p)
	}
	if !found || rec.Start >= rec.End {
		return Match{}, false
	}
	return Match{Doc: m.Doc, Start: int(rec.Start), End: int(rec.End), Payloads: kept}, true
}

// subSpans cuts [offset, offset+length) out of every match of child. A
// negative offset counts from the end of the match and a zero length keeps
// the rest of it. Cuts are clamped to the match; empty cuts are dropped.
func subSpans(child Spans, offset, length int) Spans {
	return unary(child, func(ms []Match) []Match {
		var out []Match
		for _, m := range ms {
			start := m.Start + offset
			if offset < 0 {
				start = m.End + offset
			}
			start = min(max(start, m.Start), m.End)
			end := m.End
			if length > 0 {
				end = min(start+length, m.End)
			}
			if start >= end {
				continue
			}
			m.Start, m.End = start, end
			out = append(out, m)
		}
		return out
	})
}
