package spans

import (
	"cmp"
	"slices"
)

// orSpans merges the matches of its children. Identical matches from
// different children are all kept.
func orSpans(children []Spans) Spans {
	switch len(children) {
	case 0:
		return emptySpans{}
	case 1:
		return children[0]
	}

	// Cheapest children are primed first.
	children = slices.Clone(children)
	slices.SortStableFunc(children, func(a, b Spans) int {
		return cmp.Compare(a.Cost(), b.Cost())
	})
	cs := make([]*cursor, len(children))
	var cost int64
	for i, s := range children {
		cs[i] = newCursor(s)
		cost += s.Cost()
	}

	load := func(target int) ([]Match, error) {
		doc := -1
		for _, c := range cs {
			ok, err := c.advanceTo(target)
			if err != nil {
				return nil, err
			}
			if ok && (doc < 0 || c.s.Doc() < doc) {
				doc = c.s.Doc()
			}
		}
		if doc < 0 {
			return nil, nil
		}
		var out []Match
		for _, c := range cs {
			if c.doc() != doc {
				continue
			}
			ms, err := c.collect()
			if err != nil {
				return nil, err
			}
			out = append(out, ms...)
		}
		sortMatches(out)
		return out, nil
	}
	return newBuffered(load, cost)
}
