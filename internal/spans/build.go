package spans

import (
	"fmt"

	"spansearch/internal/algebra"
	"spansearch/internal/index"
)

// Build returns the iterator evaluating n over seg. Null nodes never match.
func Build(n *algebra.Node, seg index.Segment) (Spans, error) {
	if n.IsNull() {
		return emptySpans{}, nil
	}
	field := n.Field
	if field == "" {
		field = seg.Field()
	}

	switch n.Kind {
	case algebra.KindEmpty:
		return anySpans(seg, n.Min, n.Max, n.Class), nil

	case algebra.KindTerm:
		return termIterator(seg, field, n.Term)

	case algebra.KindElement:
		return termIterator(seg, field, index.ElementTerm(n.Term))

	case algebra.KindAttribute:
		return termIterator(seg, field, index.AttributeTerm(n.Term))

	case algebra.KindRegex, algebra.KindWildcard:
		return patternSpans(seg, field, n.Term, n.Kind == algebra.KindWildcard)

	case algebra.KindWithAttribute:
		var element Spans
		if len(n.Operands) > 0 {
			s, err := Build(n.Operands[0], seg)
			if err != nil {
				return nil, err
			}
			element = s
		}
		var positive, negative []Spans
		for _, a := range n.Attributes {
			s, err := Build(a, seg)
			if err != nil {
				return nil, err
			}
			if a.IsNegative() {
				negative = append(negative, s)
			} else {
				positive = append(positive, s)
			}
		}
		return attributeSpans(element, positive, negative), nil

	case algebra.KindSegment:
		required, err := buildAll(n.Operands, seg)
		if err != nil {
			return nil, err
		}
		if len(required) == 0 {
			required = []Spans{anySpans(seg, 1, 1, 0)}
		}
		excluded, err := buildAll(n.Excluded, seg)
		if err != nil {
			return nil, err
		}
		return segmentSpans(required, excluded), nil

	case algebra.KindSequence:
		return buildSequence(n, field, seg)

	case algebra.KindAlternation:
		children, err := buildAll(n.Operands, seg)
		if err != nil {
			return nil, err
		}
		return orSpans(children), nil

	case algebra.KindPosition:
		children, err := buildAll(n.Operands, seg)
		if err != nil {
			return nil, err
		}
		if len(children) != 2 {
			return nil, fmt.Errorf("position needs 2 operands, got %d", len(children))
		}
		return withinSpans(children[0], children[1], n.Relation), nil
	}

	// Unary operators.
	if len(n.Operands) != 1 {
		return nil, fmt.Errorf("%s needs 1 operand, got %d", n.Kind, len(n.Operands))
	}
	child, err := Build(n.Operands[0], seg)
	if err != nil {
		return nil, err
	}
	switch n.Kind {
	case algebra.KindClass:
		return classSpans(child, n.Class), nil
	case algebra.KindRepetition:
		return repetitionSpans(child, n.Min, n.Max), nil
	case algebra.KindReference:
		return referenceSpans(child, n.Class), nil
	case algebra.KindSubSpan:
		return subSpans(child, n.Offset, n.Length), nil
	case algebra.KindExpansion:
		return expandedSpans(child, seg, n.Direction, n.Min, n.Max, n.Class), nil
	}
	return nil, fmt.Errorf("unsupported node kind %s", n.Kind)
}

func termIterator(seg index.Segment, field, term string) (Spans, error) {
	p, err := seg.Postings(field, term)
	if err != nil {
		return nil, err
	}
	return newTermSpans(p), nil
}

func buildAll(nodes []*algebra.Node, seg index.Segment) ([]Spans, error) {
	out := make([]Spans, 0, len(nodes))
	for _, n := range nodes {
		if n.IsNull() {
			continue
		}
		s, err := Build(n, seg)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// buildSequence folds the operands left to right: ((a b) c) d.
func buildSequence(n *algebra.Node, field string, seg index.Segment) (Spans, error) {
	children, err := buildAll(n.Operands, seg)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return emptySpans{}, nil
	}

	constraints := n.Constraints
	if len(constraints) == 0 && !n.InOrder {
		constraints = []algebra.DistanceConstraint{{Min: 1, Max: 1, Unit: algebra.WordUnit}}
	}

	acc := children[0]
	for _, next := range children[1:] {
		if len(constraints) == 0 {
			acc = nextSpans(acc, next)
			continue
		}
		units, err := unitIterators(constraints, field, seg)
		if err != nil {
			return nil, err
		}
		acc = newDistanceSpans(acc, next, constraints, units)
	}
	return acc, nil
}

// unitIterators opens one element iterator per distinct element unit.
func unitIterators(constraints []algebra.DistanceConstraint, field string, seg index.Segment) (map[string]Spans, error) {
	var units map[string]Spans
	for _, c := range constraints {
		if c.IsWordUnit() {
			continue
		}
		if _, ok := units[c.Unit]; ok {
			continue
		}
		s, err := termIterator(seg, field, index.ElementTerm(c.Unit))
		if err != nil {
			return nil, err
		}
		if units == nil {
			units = make(map[string]Spans)
		}
		units[c.Unit] = s
	}
	return units, nil
}
