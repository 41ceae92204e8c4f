package koral

import (
	"strings"

	"spansearch/internal/algebra"
)

// layers maps layer names to the abbreviations used in indexed terms.
var layers = map[string]string{
	"lemma":  "l",
	"pos":    "p",
	"orth":   "s",
	"struct": "s",
	"const":  "c",
}

// token compiles the wrapped content of a koral:token.
func (s *compilation) token(n jsonNode) (*algebra.Node, error) {
	if !n.has("@type") {
		return nil, missingType()
	}

	switch typeOf(n) {
	case "koral:term":
		return s.term(n)

	case "koral:termGroup":
		if !n.has("operands") {
			return nil, newQueryError(StatusMissingTermOperands, "Term group needs operand list")
		}
		ops := n.get("operands").elements()
		if !n.has("relation") {
			return nil, newQueryError(StatusMissingTermRelation, "Term group expects a relation")
		}

		switch n.get("relation").text() {
		case "relation:and":
			seg := algebra.NewSegment(s.field)
			for _, o := range ops {
				part, err := s.token(o)
				if err != nil {
					return nil, err
				}
				switch part.Kind {
				case algebra.KindNull, algebra.KindTerm, algebra.KindSegment, algebra.KindAlternation,
					algebra.KindRegex, algebra.KindWildcard:
					seg.With(part)
				default:
					return nil, newQueryError(StatusUnsupportedOperand, "Operand not supported in term group")
				}
			}
			return seg.Node(), nil

		case "relation:or":
			alt := algebra.NewAlternation(s.field)
			for _, o := range ops {
				part, err := s.token(o)
				if err != nil {
					return nil, err
				}
				alt.Or(part)
			}
			return alt.Node(), nil
		}
	}
	return nil, newQueryError(StatusUnsupportedTokenType, "Token type is not supported")
}

// termValue builds the indexed form of a term: [foundry/]layer:key[:value].
// The surface layers s and i ignore the foundry.
func (s *compilation) termValue(n jsonNode, isTerm, caseInsensitive bool) string {
	var b strings.Builder

	if foundry := n.get("foundry").text(); foundry != "" {
		b.WriteString(foundry)
		b.WriteByte('/')
	}

	if layer := n.get("layer").text(); layer != "" {
		if short, ok := layers[layer]; ok {
			layer = short
		}
		if caseInsensitive && isTerm {
			if layer == "s" {
				layer = "i"
			} else {
				s.notes.addWarning(StatusUnsupportedCaseFolding,
					"Case insensitivity is currently not supported for this layer")
			}
		}
		if layer == "s" || layer == "i" {
			b.Reset()
		}
		b.WriteString(layer)
		b.WriteByte(':')
	}

	if key := n.get("key").text(); key != "" {
		if caseInsensitive {
			key = strings.ToLower(key)
		}
		b.WriteString(key)
	}

	if value := n.get("value").text(); value != "" {
		b.WriteByte(':')
		b.WriteString(value)
	}
	return b.String()
}

// term compiles koral:term and koral:span objects.
func (s *compilation) term(n jsonNode) (*algebra.Node, error) {
	if n.get("key").text() == "" && !n.has("attr") {
		return nil, newQueryError(StatusMissingKey, "Key definition is missing in term or span")
	}
	if !n.has("@type") {
		return nil, missingType()
	}

	isTerm := typeOf(n) == "koral:term"
	ci := n.get("caseInsensitive").boolean()
	value := s.termValue(n, isTerm, ci)

	if isTerm && n.has("type") {
		switch n.get("type").text() {
		case "type:regex":
			return algebra.Regex(s.field, value, ci), nil
		case "type:wildcard":
			return algebra.Wildcard(s.field, value, ci), nil
		case "type:string":
		default:
			s.notes.addWarning(StatusUnsupportedTermType, "Term type is not supported - treated as a string")
		}
	}

	if isTerm {
		negative, err := matchNegated(n)
		if err != nil {
			return nil, err
		}
		if negative {
			return algebra.NewSegment(s.field).WithoutTerm(value).Node(), nil
		}
		return algebra.Term(s.field, value), nil
	}

	if n.has("attr") {
		attr := n.get("attr")
		if !attr.has("@type") {
			return nil, missingType()
		}
		var element *algebra.Node
		if value != "" {
			element = algebra.Element(s.field, value)
		}
		return s.elementAttributes(element, attr)
	}
	return algebra.Element(s.field, value), nil
}

// matchNegated reads the match relation of a term.
func matchNegated(n jsonNode) (bool, error) {
	match := "match:eq"
	if n.has("match") {
		match = n.get("match").text()
	}
	switch match {
	case "match:eq":
		return false, nil
	case "match:ne":
		return true, nil
	}
	return false, newQueryError(StatusUnknownMatchRelation, "Match relation unknown")
}

func nullAttribute() error {
	return newQueryError(StatusNullAttribute, "Attribute is null")
}

// elementAttributes restricts element, or any element when nil, by the
// attribute predicate attr.
func (s *compilation) elementAttributes(element *algebra.Node, attr jsonNode) (*algebra.Node, error) {
	switch typeOf(attr) {
	case "koral:term":
		a, err := s.attribute(attr)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, nullAttribute()
		}
		return algebra.WithAttribute(element, a), nil

	case "koral:termGroup":
		return s.attributeGroup(element, attr)
	}

	s.notes.addWarning(StatusUnsupportedAttributeType, "Attribute type is not supported")
	if element == nil {
		return algebra.Null(), nil
	}
	return element, nil
}

// attribute compiles one attribute predicate. It returns nil for
// predicates that cannot be evaluated.
func (s *compilation) attribute(n jsonNode) (*algebra.Node, error) {
	switch {
	case n.has("key"):
		if n.get("key").text() == "" {
			return nil, newQueryError(StatusMissingKey, "Key definition is missing in term or span")
		}
		ci := n.get("caseInsensitive").boolean()
		value := s.termValue(n, true, ci)
		negative, err := matchNegated(n)
		if err != nil {
			return nil, err
		}
		return algebra.Attribute(s.field, value, negative), nil

	case n.has("tokenarity") || n.has("arity"):
		s.notes.addWarning(StatusUnsupportedArity,
			"Arity attributes are currently not supported - results may not be correct")

	case n.has("root"):
		switch n.get("root").text() {
		case "true":
			return algebra.Attribute(s.field, RootAttribute, false), nil
		case "false":
			return algebra.Attribute(s.field, RootAttribute, true), nil
		}
	}
	return nil, nil
}

// RootAttribute is the attribute marking root elements.
const RootAttribute = "@root"

func (s *compilation) attributeGroup(element *algebra.Node, n jsonNode) (*algebra.Node, error) {
	if !n.has("relation") {
		return nil, newQueryError(StatusMissingTermRelation, "Term group expects a relation")
	}
	if !n.has("operands") {
		return nil, newQueryError(StatusMissingTermOperands, "Term group needs operand list")
	}

	var attrs []*algebra.Node
	for _, o := range n.get("operands").elements() {
		a, err := s.attribute(o)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, nullAttribute()
		}
		attrs = append(attrs, a)
	}

	switch n.get("relation").text() {
	case "relation:and":
		return algebra.WithAttribute(element, attrs...), nil
	case "relation:or":
		alt := algebra.NewAlternation(s.field)
		for _, a := range attrs {
			alt.Or(algebra.WithAttribute(element, a))
		}
		return alt.Node(), nil
	}
	return nil, newQueryError(StatusUnknownRelation, "Unknown relation")
}
