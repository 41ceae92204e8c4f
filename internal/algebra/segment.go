package algebra

// SegmentBuilder builds a conjunction of predicates on the same interval,
// typically the annotations of one token: [orth=Baum & pos!=NN].
//
// A segment with exclusions only is negative: it matches tokens lacking all
// excluded terms and is flagged so callers can warn about it.
type SegmentBuilder struct {
	field    string
	with     []*Node
	without  []*Node
	negative bool
}

// NewSegment returns an empty segment builder for field.
func NewSegment(field string) *SegmentBuilder {
	return &SegmentBuilder{field: field}
}

// WithTerm requires a term at the segment.
func (b *SegmentBuilder) WithTerm(term string) *SegmentBuilder {
	return b.With(Term(b.field, term))
}

// WithoutTerm excludes a term at the segment.
func (b *SegmentBuilder) WithoutTerm(term string) *SegmentBuilder {
	return b.Without(Term(b.field, term))
}

// With requires n to match the same interval. Nested segments are flattened.
func (b *SegmentBuilder) With(n *Node) *SegmentBuilder {
	if n.IsNull() {
		return b
	}
	if n.Kind == KindSegment {
		b.with = append(b.with, n.Operands...)
		b.without = append(b.without, n.Excluded...)
		return b
	}
	if n.IsNegative() {
		b.negative = true
	}
	b.with = append(b.with, n)
	return b
}

// Without excludes intervals where n matches. A positive nested segment adds
// all of its operands as exclusions.
func (b *SegmentBuilder) Without(n *Node) *SegmentBuilder {
	if n.IsNull() {
		return b
	}
	if n.Kind == KindSegment && len(n.Excluded) == 0 {
		b.without = append(b.without, n.Operands...)
		return b
	}
	b.without = append(b.without, n)
	return b
}

// IsNull reports whether nothing was added.
func (b *SegmentBuilder) IsNull() bool { return len(b.with) == 0 && len(b.without) == 0 }

// Node builds the segment. A single required operand without exclusions is
// returned as is.
func (b *SegmentBuilder) Node() *Node {
	if b.IsNull() {
		return Null()
	}
	if len(b.with) == 1 && len(b.without) == 0 {
		return b.with[0]
	}
	return &Node{
		Kind:     KindSegment,
		Field:    b.field,
		Operands: append([]*Node(nil), b.with...),
		Excluded: append([]*Node(nil), b.without...),
		negative: b.negative || len(b.with) == 0,
	}
}
