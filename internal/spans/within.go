package spans

import (
	"spansearch/internal/algebra"
	"spansearch/internal/payload"
)

// withinSpans matches outer occurrences standing in rel to an inner
// occurrence. Each admitted (outer, inner) pair is a separate match at the
// outer interval, so an outer occurrence is repeated once per inner
// occurrence it admits. Payloads are outer followed by inner.
func withinSpans(outer, inner Spans, rel algebra.Relation) Spans {
	return conjunction([]Spans{outer, inner}, nil, func(req, _ [][]Match) ([]Match, error) {
		var out []Match
		for _, o := range req[0] {
			for _, i := range req[1] {
				if !rel.Holds(o.Start, o.End, i.Start, i.End) {
					continue
				}
				out = append(out, Match{
					Doc:      o.Doc,
					Start:    o.Start,
					End:      o.End,
					Payloads: payload.Concat(o.Payloads, i.Payloads),
					id:       o.id,
				})
			}
		}
		return out, nil
	})
}
