// Package algebra defines the compiled form of a query: a tree of span
// operations evaluated by the spans package.
//
// Nodes are built once per compiled query, either directly through the
// constructors in this package or incrementally through the builders
// (SequenceBuilder, AlternationBuilder, SegmentBuilder), and are not mutated
// afterwards. Each node carries three flags:
//
//   - null: the node matches nothing and never contributes to a composition
//   - optional: the node may match a zero-width gap
//   - negative: the node is logically inverted and only usable under an
//     enclosing exclusion
package algebra

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the node variants.
type Kind int

const (
	KindNull Kind = iota
	KindEmpty
	KindTerm
	KindElement
	KindRegex
	KindWildcard
	KindAttribute
	KindWithAttribute
	KindSegment
	KindSequence
	KindAlternation
	KindPosition
	KindClass
	KindRepetition
	KindReference
	KindSubSpan
	KindExpansion
)

var kindNames = map[Kind]string{
	KindNull:          "null",
	KindEmpty:         "empty",
	KindTerm:          "term",
	KindElement:       "element",
	KindRegex:         "regex",
	KindWildcard:      "wildcard",
	KindAttribute:     "attribute",
	KindWithAttribute: "withAttribute",
	KindSegment:       "segment",
	KindSequence:      "sequence",
	KindAlternation:   "alternation",
	KindPosition:      "position",
	KindClass:         "class",
	KindRepetition:    "repetition",
	KindReference:     "reference",
	KindSubSpan:       "subspan",
	KindExpansion:     "expansion",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Relation is a positional relation between an outer (frame) span and an
// inner span.
type Relation int

const (
	Within Relation = iota
	RealWithin
	StartsWith
	EndsWith
	Match
	Overlap
	RealOverlap
)

var relationNames = [...]string{
	Within:      "spanContain",
	RealWithin:  "spanRealContain",
	StartsWith:  "spanStartsWith",
	EndsWith:    "spanEndsWith",
	Match:       "spanMatch",
	Overlap:     "spanOverlap",
	RealOverlap: "spanRealOverlap",
}

func (r Relation) String() string {
	if r >= 0 && int(r) < len(relationNames) {
		return relationNames[r]
	}
	return "relation(" + strconv.Itoa(int(r)) + ")"
}

// Holds reports whether the inner interval [is, ie) stands in relation r to
// the outer interval [os, oe). Overlap admits intervals that only touch;
// RealOverlap requires at least one shared position.
func (r Relation) Holds(os, oe, is, ie int) bool {
	switch r {
	case Within:
		return os <= is && ie <= oe
	case RealWithin:
		return os < is && ie < oe
	case StartsWith:
		return is == os && ie <= oe
	case EndsWith:
		return ie == oe && is >= os
	case Match:
		return is == os && ie == oe
	case Overlap:
		return is <= oe && os <= ie && !contains(os, oe, is, ie)
	case RealOverlap:
		return is < oe && os < ie && !contains(os, oe, is, ie)
	}
	return false
}

// contains reports whether either interval contains the other.
func contains(os, oe, is, ie int) bool {
	return (os <= is && ie <= oe) || (is <= os && oe <= ie)
}

// Direction of an expansion.
type Direction int

const (
	Left  Direction = -1
	Right Direction = 1
)

func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

// Node is one operation in a compiled query.
type Node struct {
	Kind  Kind
	Field string

	// Term is the indexed term text for term, element and attribute nodes,
	// and the pattern for regex and wildcard nodes.
	Term string

	// Operands holds child nodes. Sequences and alternations are n-ary,
	// positions hold (outer, inner), unary operators hold one child.
	// A WithAttribute node without an element has no operands.
	Operands []*Node

	// Excluded holds the exclusions of a segment.
	Excluded []*Node

	// Attributes holds the attribute predicates of a WithAttribute node.
	Attributes []*Node

	Relation    Relation
	Class       uint8
	Min, Max    int
	Direction   Direction
	Offset      int
	Length      int
	Constraints []DistanceConstraint
	InOrder     bool

	optional bool
	negative bool
}

// Null returns a node that matches nothing.
func Null() *Node { return &Node{Kind: KindNull} }

// Empty returns the any-token node []. It is extensible: bounds and a class
// can be grafted onto it instead of wrapping it.
func Empty() *Node { return &Node{Kind: KindEmpty, Min: 1, Max: 1} }

// Term returns a node matching a single token term.
func Term(field, term string) *Node {
	return &Node{Kind: KindTerm, Field: field, Term: term}
}

// Element returns a node matching a structural element span.
func Element(field, name string) *Node {
	return &Node{Kind: KindElement, Field: field, Term: name}
}

// Regex returns a node matching every token term that fully matches pattern.
// Case-insensitive patterns on the surface layer are moved to the folded
// layer and lowercased.
func Regex(field, pattern string, caseInsensitive bool) *Node {
	return &Node{Kind: KindRegex, Field: field, Term: foldPattern(pattern, caseInsensitive)}
}

// Wildcard returns a node matching every token term that matches the
// wildcard pattern ('*' any run, '?' any single character).
func Wildcard(field, pattern string, caseInsensitive bool) *Node {
	return &Node{Kind: KindWildcard, Field: field, Term: foldPattern(pattern, caseInsensitive)}
}

func foldPattern(pattern string, caseInsensitive bool) string {
	if !caseInsensitive {
		return pattern
	}
	if rest, ok := strings.CutPrefix(pattern, "s:"); ok {
		pattern = "i:" + rest
	}
	return strings.ToLower(pattern)
}

// Attribute returns an attribute predicate. Negative attributes require the
// element to lack the attribute.
func Attribute(field, name string, negative bool) *Node {
	return &Node{Kind: KindAttribute, Field: field, Term: name, negative: negative}
}

// WithAttribute returns a node matching occurrences of element (which may be
// nil for any element) carrying every positive attribute and none of the
// negative ones.
func WithAttribute(element *Node, attrs ...*Node) *Node {
	n := &Node{Kind: KindWithAttribute, Attributes: attrs}
	if element != nil {
		if element.IsNull() {
			return Null()
		}
		n.Field = element.Field
		n.Operands = []*Node{element}
	} else if len(attrs) > 0 {
		n.Field = attrs[0].Field
	}
	return n
}

// Alternation returns the disjunction of the non-null nodes. See
// AlternationBuilder for the flag rules.
func Alternation(nodes ...*Node) *Node {
	var b AlternationBuilder
	for _, n := range nodes {
		b.Or(n)
	}
	return b.Node()
}

// Position returns a node matching outer occurrences that stand in rel to an
// inner occurrence. Either side being null makes the whole node null.
func Position(rel Relation, outer, inner *Node) *Node {
	if outer.IsNull() || inner.IsNull() {
		return Null()
	}
	return &Node{
		Kind:     KindPosition,
		Field:    outer.Field,
		Relation: rel,
		Operands: []*Node{outer, inner},
		negative: outer.negative || inner.negative,
	}
}

// Class tags every occurrence of n with a class payload.
// An extensible node takes the class directly.
func Class(class uint8, n *Node) *Node {
	if n.IsNull() {
		return n
	}
	if n.Extensible() {
		c := *n
		c.Class = class
		return &c
	}
	return &Node{
		Kind:     KindClass,
		Field:    n.Field,
		Class:    class,
		Operands: []*Node{n},
		optional: n.optional,
		negative: n.negative,
	}
}

// Repetition matches min to max directly consecutive occurrences of n.
// An extensible node takes the bounds directly. A maximum of zero can never
// match anything and yields a null node.
func Repetition(n *Node, min, max int) *Node {
	if n.IsNull() {
		return n
	}
	if n.Extensible() {
		return n.WithBounds(min, max)
	}
	if max == 0 {
		return Null()
	}
	return &Node{
		Kind:     KindRepetition,
		Field:    n.Field,
		Min:      min,
		Max:      max,
		Operands: []*Node{n},
		optional: min == 0 || n.optional,
		negative: n.negative,
	}
}

// Reference moves each occurrence of n to the sub-span marked with class.
func Reference(class uint8, n *Node) *Node {
	if n.IsNull() {
		return n
	}
	return &Node{
		Kind:     KindReference,
		Field:    n.Field,
		Class:    class,
		Operands: []*Node{n},
		negative: n.negative,
	}
}

// SubSpan cuts a sub-span out of every occurrence of n. A negative offset
// counts from the end of the occurrence; a length of zero keeps the rest of
// the occurrence.
func SubSpan(n *Node, offset, length int) *Node {
	if n.IsNull() {
		return n
	}
	return &Node{
		Kind:     KindSubSpan,
		Field:    n.Field,
		Offset:   offset,
		Length:   length,
		Operands: []*Node{n},
		negative: n.negative,
	}
}

// Expansion extends every occurrence of n by min to max arbitrary tokens in
// the given direction. A non-zero class marks the added tokens.
func Expansion(n *Node, dir Direction, min, max int, class uint8) *Node {
	if n.IsNull() {
		return n
	}
	return &Node{
		Kind:      KindExpansion,
		Field:     n.Field,
		Direction: dir,
		Min:       min,
		Max:       max,
		Class:     class,
		Operands:  []*Node{n},
		negative:  n.negative,
	}
}

// IsNull reports whether the node matches nothing.
func (n *Node) IsNull() bool { return n == nil || n.Kind == KindNull }

// IsOptional reports whether the node may match a zero-width gap.
func (n *Node) IsOptional() bool {
	if n.IsNull() {
		return false
	}
	if n.Kind == KindEmpty {
		return n.Min == 0
	}
	return n.optional
}

// IsNegative reports whether the node is logically inverted.
func (n *Node) IsNegative() bool { return !n.IsNull() && n.negative }

// IsEmpty reports whether the node is the any-token node.
func (n *Node) IsEmpty() bool { return n != nil && n.Kind == KindEmpty }

// Extensible reports whether bounds and classes are grafted onto this node
// rather than wrapping it.
func (n *Node) Extensible() bool { return n.IsEmpty() }

// WithBounds returns a copy of an extensible node with new bounds.
// It panics for other nodes.
func (n *Node) WithBounds(min, max int) *Node {
	if !n.Extensible() {
		panic("algebra: WithBounds on non-extensible " + n.Kind.String())
	}
	c := *n
	c.Min, c.Max = min, max
	return &c
}

// Required returns a copy of n with the optional flag cleared.
func (n *Node) Required() *Node {
	if !n.IsOptional() {
		return n
	}
	c := *n
	c.optional = false
	if c.Kind == KindEmpty && c.Min == 0 {
		c.Min = 1
	}
	return &c
}

// Optional returns a copy of n marked optional.
func (n *Node) Optional() *Node {
	if n.IsNull() || n.IsOptional() {
		return n
	}
	c := *n
	c.optional = true
	if c.Kind == KindEmpty {
		c.Min = 0
	}
	return &c
}

// String renders the node in a compact, stable debug form.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n.IsNull() {
		sb.WriteString("NULL")
		return
	}
	switch n.Kind {
	case KindEmpty:
		fmt.Fprintf(sb, "[]{%d,%d}", n.Min, n.Max)
		if n.Class > 0 {
			fmt.Fprintf(sb, "#%d", n.Class)
		}
	case KindTerm:
		sb.WriteString(n.Field)
		sb.WriteByte(':')
		sb.WriteString(n.Term)
	case KindElement:
		fmt.Fprintf(sb, "<%s:%s />", n.Field, n.Term)
	case KindRegex:
		fmt.Fprintf(sb, "SpanMultiTermQueryWrapper(%s:/%s/)", n.Field, n.Term)
	case KindWildcard:
		fmt.Fprintf(sb, "SpanMultiTermQueryWrapper(%s:%s)", n.Field, n.Term)
	case KindAttribute:
		sb.WriteString("spanAttribute(")
		if n.negative {
			sb.WriteByte('!')
		}
		sb.WriteString(n.Field)
		sb.WriteByte(':')
		sb.WriteString(n.Term)
		sb.WriteByte(')')
	case KindWithAttribute:
		sb.WriteString("spanElementWithAttribute(")
		if len(n.Operands) > 0 {
			n.Operands[0].write(sb)
		} else {
			sb.WriteString("*")
		}
		for _, a := range n.Attributes {
			sb.WriteString(", ")
			a.write(sb)
		}
		sb.WriteByte(')')
	case KindSegment:
		if len(n.Operands) == 0 {
			sb.WriteString("spanNot(")
			sb.WriteString("[]")
		} else if len(n.Excluded) > 0 {
			sb.WriteString("spanNot(")
			writeSegment(sb, n.Operands)
		} else {
			writeSegment(sb, n.Operands)
			return
		}
		for _, x := range n.Excluded {
			sb.WriteString(", ")
			x.write(sb)
		}
		sb.WriteString(", 0, 0)")
	case KindSequence:
		n.writeSequence(sb)
	case KindAlternation:
		sb.WriteString("spanOr([")
		writeList(sb, n.Operands)
		sb.WriteString("])")
	case KindPosition:
		sb.WriteString(n.Relation.String())
		sb.WriteByte('(')
		writeList(sb, n.Operands)
		sb.WriteByte(')')
	case KindClass:
		fmt.Fprintf(sb, "{%d: ", n.Class)
		n.Operands[0].write(sb)
		sb.WriteByte('}')
	case KindRepetition:
		sb.WriteString("spanRepetition(")
		n.Operands[0].write(sb)
		fmt.Fprintf(sb, "{%d,%d})", n.Min, n.Max)
	case KindReference:
		fmt.Fprintf(sb, "focus(%d: ", n.Class)
		n.Operands[0].write(sb)
		sb.WriteByte(')')
	case KindSubSpan:
		sb.WriteString("subspan(")
		n.Operands[0].write(sb)
		fmt.Fprintf(sb, ", %d, %d)", n.Offset, n.Length)
	case KindExpansion:
		sb.WriteString("spanExpansion(")
		n.Operands[0].write(sb)
		fmt.Fprintf(sb, ", []{%d, %d}, %s", n.Min, n.Max, n.Direction)
		if n.Class > 0 {
			fmt.Fprintf(sb, ", class:%d", n.Class)
		}
		sb.WriteByte(')')
	default:
		sb.WriteString(n.Kind.String())
	}
}

func (n *Node) writeSequence(sb *strings.Builder) {
	name := "spanNext"
	switch {
	case len(n.Constraints) == 1:
		name = "spanDistance"
		if !n.Constraints[0].IsWordUnit() {
			name = "spanElementDistance"
		}
	case len(n.Constraints) > 1:
		name = "spanMultipleDistance"
	}

	// Render left-nested pairs, the way the sequence is evaluated.
	var render func(i int)
	render = func(i int) {
		if i == 0 {
			n.Operands[0].write(sb)
			return
		}
		sb.WriteString(name)
		sb.WriteByte('(')
		render(i - 1)
		sb.WriteString(", ")
		n.Operands[i].write(sb)
		for _, c := range n.Constraints {
			sb.WriteString(", ")
			sb.WriteString(c.String())
		}
		sb.WriteByte(')')
	}
	render(len(n.Operands) - 1)
}

func writeSegment(sb *strings.Builder, ops []*Node) {
	if len(ops) == 1 {
		ops[0].write(sb)
		return
	}
	sb.WriteString("spanSegment(")
	writeList(sb, ops)
	sb.WriteByte(')')
}

func writeList(sb *strings.Builder, ops []*Node) {
	for i, o := range ops {
		if i > 0 {
			sb.WriteString(", ")
		}
		o.write(sb)
	}
}
