package algebra

// AlternationBuilder collects the operands of a disjunction.
//
// Null operands are skipped. The alternation is optional when any operand is
// optional and negative when any operand is negative.
type AlternationBuilder struct {
	field    string
	operands []*Node
	optional bool
	negative bool
}

// NewAlternation returns an empty alternation builder for field.
func NewAlternation(field string) *AlternationBuilder {
	return &AlternationBuilder{field: field}
}

// OrTerm adds a term alternative in the builder's field.
func (b *AlternationBuilder) OrTerm(term string) *AlternationBuilder {
	return b.Or(Term(b.field, term))
}

// Or adds an alternative.
func (b *AlternationBuilder) Or(n *Node) *AlternationBuilder {
	if n.IsNull() {
		return b
	}
	if n.IsOptional() {
		b.optional = true
	}
	if n.IsNegative() {
		b.negative = true
	}
	if b.field == "" {
		b.field = n.Field
	}
	b.operands = append(b.operands, n)
	return b
}

// Len returns the number of non-null alternatives.
func (b *AlternationBuilder) Len() int { return len(b.operands) }

// IsNull reports whether no alternative was added.
func (b *AlternationBuilder) IsNull() bool { return len(b.operands) == 0 }

// Node builds the alternation. A single alternative is returned as is.
func (b *AlternationBuilder) Node() *Node {
	switch len(b.operands) {
	case 0:
		return Null()
	case 1:
		return b.operands[0]
	}
	return &Node{
		Kind:     KindAlternation,
		Field:    b.field,
		Operands: append([]*Node(nil), b.operands...),
		optional: b.optional,
		negative: b.negative,
	}
}
