package spans

// attributeSpans matches element occurrences carrying every positive
// attribute and none of the negative ones. Attribute occurrences are tied to
// their element by id. Without an element iterator the first positive
// attribute drives the match.
func attributeSpans(element Spans, positive, negative []Spans) Spans {
	required := positive
	if element != nil {
		required = append([]Spans{element}, positive...)
	}
	if len(required) == 0 {
		return emptySpans{}
	}
	return conjunction(required, negative, func(req, neg [][]Match) ([]Match, error) {
		var out []Match
	elements:
		for _, m := range req[0] {
			for _, attrs := range req[1:] {
				if !hasID(attrs, m) {
					continue elements
				}
			}
			for _, attrs := range neg {
				if hasID(attrs, m) {
					continue elements
				}
			}
			out = append(out, m)
		}
		return out, nil
	})
}

// hasID reports whether ms holds an occurrence of the same element as m.
func hasID(ms []Match, m Match) bool {
	for _, a := range ms {
		if a.id == m.id && a.Start == m.Start && a.End == m.End {
			return true
		}
	}
	return false
}
