package spans

import (
	"spansearch/internal/algebra"
	"spansearch/internal/payload"
)

// nextSpans matches a directly followed by b.
func nextSpans(a, b Spans) Spans {
	return conjunction([]Spans{a, b}, nil, func(req, _ [][]Match) ([]Match, error) {
		var out []Match
		for _, x := range req[0] {
			for _, y := range req[1] {
				if y.Start > x.End {
					break
				}
				if y.Start == x.End {
					out = append(out, joined(x, y))
				}
			}
		}
		return out, nil
	})
}

// joined returns the match covering both x and y with their payloads in
// order.
func joined(x, y Match) Match {
	return Match{
		Doc:      x.Doc,
		Start:    min(x.Start, y.Start),
		End:      max(x.End, y.End),
		Payloads: payload.Concat(x.Payloads, y.Payloads),
	}
}

// distanceSpans pairs a with b under every constraint. Element-unit
// constraints measure distances with the unit element occurrences in units,
// one iterator per distinct unit name.
//
// When any constraint excludes, the result is every a for which no b
// satisfies the constraints, and b is no longer required in the document.
type distanceSpans struct {
	constraints []algebra.DistanceConstraint
	unitNames   []string
	exclusion   bool
}

func newDistanceSpans(a, b Spans, constraints []algebra.DistanceConstraint, units map[string]Spans) Spans {
	d := &distanceSpans{constraints: constraints}
	for _, c := range constraints {
		d.exclusion = d.exclusion || c.Exclusion
	}

	var optional []Spans
	for name, s := range units {
		d.unitNames = append(d.unitNames, name)
		optional = append(optional, s)
	}

	if d.exclusion {
		optional = append([]Spans{b}, optional...)
		return conjunction([]Spans{a}, optional, func(req, opt [][]Match) ([]Match, error) {
			return d.exclude(req[0], opt[0], d.unitLists(opt[1:])), nil
		})
	}
	return conjunction([]Spans{a, b}, optional, func(req, opt [][]Match) ([]Match, error) {
		return d.pairs(req[0], req[1], d.unitLists(opt)), nil
	})
}

func (d *distanceSpans) unitLists(lists [][]Match) map[string][]Match {
	if len(lists) == 0 {
		return nil
	}
	m := make(map[string][]Match, len(lists))
	for i, name := range d.unitNames {
		m[name] = lists[i]
	}
	return m
}

func (d *distanceSpans) pairs(as, bs []Match, units map[string][]Match) []Match {
	var out []Match
	for _, x := range as {
		for _, y := range bs {
			if d.admits(x, y, units) {
				out = append(out, joined(x, y))
			}
		}
	}
	return out
}

func (d *distanceSpans) exclude(as, bs []Match, units map[string][]Match) []Match {
	var out []Match
next:
	for _, x := range as {
		for _, y := range bs {
			if d.admits(x, y, units) {
				continue next
			}
		}
		out = append(out, x)
	}
	return out
}

func (d *distanceSpans) admits(x, y Match, units map[string][]Match) bool {
	for _, c := range d.constraints {
		if !admitsOne(c, x, y, units) {
			return false
		}
	}
	return true
}

// admitsOne reports whether y follows x (or, unordered, precedes it) at an
// admitted distance. Overlapping occurrences never qualify.
func admitsOne(c algebra.DistanceConstraint, x, y Match, units map[string][]Match) bool {
	if c.IsWordUnit() {
		if y.Start >= x.End && c.Admits(y.Start-x.End+1) {
			return true
		}
		return !c.InOrder && x.Start >= y.End && c.Admits(x.Start-y.End+1)
	}

	elems := units[c.Unit]
	ix, iy := unitIndex(elems, x), unitIndex(elems, y)
	if ix < 0 || iy < 0 {
		return false
	}
	if y.Start >= x.End && c.Admits(iy-ix) {
		return true
	}
	return !c.InOrder && x.Start >= y.End && c.Admits(ix-iy)
}

// unitIndex returns the index of the first unit element containing m, or -1.
func unitIndex(elems []Match, m Match) int {
	for i, e := range elems {
		if e.Start > m.Start {
			break
		}
		if e.End >= m.End {
			return i
		}
	}
	return -1
}
