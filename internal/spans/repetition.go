package spans

import "spansearch/internal/payload"

// repetitionSpans matches chains of lo to hi directly consecutive matches of
// child. A lower bound of zero is treated as one.
func repetitionSpans(child Spans, lo, hi int) Spans {
	lo = max1(lo)
	if hi < lo {
		return emptySpans{}
	}
	return unary(child, func(ms []Match) []Match {
		var out []Match
		var extend func(chain Match, k int)
		extend = func(chain Match, k int) {
			if k >= lo {
				out = append(out, chain)
			}
			if k == hi {
				return
			}
			for _, y := range ms {
				if y.Start > chain.End {
					break
				}
				if y.Start == chain.End && y.End > y.Start {
					extend(Match{
						Doc:      chain.Doc,
						Start:    chain.Start,
						End:      y.End,
						Payloads: payload.Concat(chain.Payloads, y.Payloads),
					}, k+1)
				}
			}
		}
		for _, m := range ms {
			extend(m, 1)
		}
		return out
	})
}
