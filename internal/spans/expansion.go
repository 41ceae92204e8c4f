package spans

import (
	"spansearch/internal/algebra"
	"spansearch/internal/index"
	"spansearch/internal/payload"
)

// expandedSpans extends every match of child by k tokens in dir, for each k
// in [lo, hi], staying inside the document. With a class, the added tokens
// are marked by a class payload; the unexpanded candidate gets an empty one.
//
// Candidates of overlapping base matches interleave, so a document's
// candidates are generated completely and emitted in (start, end) order;
// candidates of the same base keep increasing k order.
func expandedSpans(child Spans, seg index.Segment, dir algebra.Direction, lo, hi int, class uint8) Spans {
	lo = max(lo, 0)
	hi = max(hi, lo)

	return conjunction([]Spans{child}, nil, func(req, _ [][]Match) ([]Match, error) {
		ms := req[0]
		d, err := seg.Document(ms[0].Doc)
		if err != nil {
			return nil, err
		}
		var out []Match
		for _, m := range ms {
			for k := lo; k <= hi; k++ {
				c, ok := expand(m, dir, k, d.Length)
				if !ok {
					break
				}
				if class > 0 {
					gs, ge := c.Start, m.Start
					if dir == algebra.Right {
						gs, ge = m.End, c.End
					}
					c.Payloads = payload.Concat(c.Payloads, [][]byte{classPayload(gs, ge, class)})
				}
				out = append(out, c)
			}
		}
		return out, nil
	})
}

func expand(m Match, dir algebra.Direction, k, length int) (Match, bool) {
	if dir == algebra.Left {
		if m.Start-k < 0 {
			return m, false
		}
		m.Start -= k
		return m, true
	}
	if m.End+k > length {
		return m, false
	}
	m.End += k
	return m, true
}
