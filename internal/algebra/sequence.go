package algebra

// SequenceBuilder incrementally builds a sequence while keeping optional
// and negative operands compositional.
//
// Appending a required operand x after an optional last operand l replaces l
// with (x | l x); appending an optional x after l replaces l with (l | l x),
// and additionally with the bare x when l is optional itself. Prepend mirrors
// this on the first operand. Any negative operand marks the whole sequence
// negative.
//
// Distance constraints must be added before operands: they capture the
// builder's order flag at the time they are added.
type SequenceBuilder struct {
	field       string
	segments    []*Node
	constraints []DistanceConstraint

	inOrder       bool
	null          bool
	optional      bool
	firstOptional bool
	lastOptional  bool
	negative      bool
}

// NewSequence returns an empty, ordered sequence builder.
func NewSequence(field string) *SequenceBuilder {
	return &SequenceBuilder{
		field:    field,
		inOrder:  true,
		null:     true,
		optional: true,
	}
}

// Field returns the field every term of the sequence is matched in.
func (b *SequenceBuilder) Field() string { return b.field }

// Len returns the number of top-level operands.
func (b *SequenceBuilder) Len() int { return len(b.segments) }

// IsNull reports whether no operand has been added.
func (b *SequenceBuilder) IsNull() bool { return b.null }

// IsOptional reports whether the sequence may match a zero-width gap.
func (b *SequenceBuilder) IsOptional() bool { return !b.null && b.optional }

// IsNegative reports whether any operand was negative.
func (b *SequenceBuilder) IsNegative() bool { return b.negative }

// SetInOrder sets whether operands have to appear in order.
func (b *SequenceBuilder) SetInOrder(inOrder bool) *SequenceBuilder {
	b.inOrder = inOrder
	return b
}

// InOrder reports whether operands have to appear in order.
func (b *SequenceBuilder) InOrder() bool { return b.inOrder }

// HasConstraints reports whether any distance constraint was added.
func (b *SequenceBuilder) HasConstraints() bool { return len(b.constraints) > 0 }

// Constraints returns the distance constraints in insertion order.
func (b *SequenceBuilder) Constraints() []DistanceConstraint { return b.constraints }

// WithConstraint adds a distance constraint. An empty unit means words.
func (b *SequenceBuilder) WithConstraint(min, max int, unit string, exclusion bool) *SequenceBuilder {
	if unit == "" {
		unit = WordUnit
	}
	b.constraints = append(b.constraints, DistanceConstraint{
		Min:       min,
		Max:       max,
		Unit:      unit,
		InOrder:   b.inOrder,
		Exclusion: exclusion,
	})
	return b
}

// AppendTerm appends a term in the builder's field.
func (b *SequenceBuilder) AppendTerm(term string) *SequenceBuilder {
	return b.Append(Term(b.field, term))
}

// PrependTerm prepends a term in the builder's field.
func (b *SequenceBuilder) PrependTerm(term string) *SequenceBuilder {
	return b.Prepend(Term(b.field, term))
}

// Append adds x at the end of the sequence. Null operands are ignored.
func (b *SequenceBuilder) Append(x *Node) *SequenceBuilder {
	if x.IsNull() {
		return b
	}
	if x.IsNegative() {
		b.negative = true
	}
	if x.IsEmpty() || b.lastIsEmpty() {
		b.pushPlain(x, true)
		return b
	}
	if !x.IsOptional() {
		b.appendRequired(x)
		return b
	}

	b.null = false
	if len(b.segments) == 0 {
		// Situation is b?
		b.segments = append(b.segments, x)
		b.firstOptional = true
		b.lastOptional = true
		b.optional = true
		return b
	}

	// Situation is a b? or a? b?
	last := b.pop()
	alt := &AlternationBuilder{}
	alt.Or(last)
	if b.lastOptional {
		alt.Or(x)
	}
	alt.Or(b.pair(last, x))
	b.segments = append(b.segments, alt.Node().Required())
	return b
}

func (b *SequenceBuilder) appendRequired(x *Node) {
	b.null = false
	b.optional = false
	if !b.lastOptional {
		b.segments = append(b.segments, x)
		return
	}

	last := b.pop()
	alt := &AlternationBuilder{}
	alt.Or(x)
	alt.Or(b.pair(last, x))
	if b.firstOptional && len(b.segments) == 0 {
		b.firstOptional = false
	}
	b.lastOptional = false
	b.segments = append(b.segments, alt.Node())
}

// Prepend adds x at the start of the sequence. Null operands are ignored.
func (b *SequenceBuilder) Prepend(x *Node) *SequenceBuilder {
	if x.IsNull() {
		return b
	}
	if x.IsNegative() {
		b.negative = true
	}
	if x.IsEmpty() || b.firstIsEmpty() {
		b.pushPlain(x, false)
		return b
	}
	if !x.IsOptional() {
		b.prependRequired(x)
		return b
	}

	b.null = false
	if len(b.segments) == 0 {
		b.segments = append(b.segments, x)
		b.firstOptional = true
		b.lastOptional = true
		b.optional = true
		return b
	}

	// Situation is b? a or b? a?
	first := b.shift()
	alt := &AlternationBuilder{}
	alt.Or(first)
	if b.firstOptional {
		alt.Or(x)
	}
	alt.Or(b.pair(x, first))
	b.segments = append([]*Node{alt.Node().Required()}, b.segments...)
	return b
}

func (b *SequenceBuilder) prependRequired(x *Node) {
	b.null = false
	b.optional = false
	if !b.firstOptional {
		b.segments = append([]*Node{x}, b.segments...)
		return
	}

	first := b.shift()
	alt := &AlternationBuilder{}
	alt.Or(x)
	alt.Or(b.pair(x, first))
	if b.lastOptional && len(b.segments) == 0 {
		b.lastOptional = false
	}
	b.firstOptional = false
	b.segments = append([]*Node{alt.Node()}, b.segments...)
}

// pushPlain adds an operand without optional distribution. Any-token
// operands become expansions of their neighbours when the sequence is built,
// so their optionality is carried by the expansion bounds.
func (b *SequenceBuilder) pushPlain(x *Node, atEnd bool) {
	b.optional = (b.null || b.optional) && x.IsOptional()
	b.null = false
	b.firstOptional = false
	b.lastOptional = false
	if atEnd {
		b.segments = append(b.segments, x)
	} else {
		b.segments = append([]*Node{x}, b.segments...)
	}
}

func (b *SequenceBuilder) lastIsEmpty() bool {
	return len(b.segments) > 0 && b.segments[len(b.segments)-1].IsEmpty()
}

func (b *SequenceBuilder) firstIsEmpty() bool {
	return len(b.segments) > 0 && b.segments[0].IsEmpty()
}

func (b *SequenceBuilder) pop() *Node {
	last := b.segments[len(b.segments)-1]
	b.segments = b.segments[:len(b.segments)-1]
	return last
}

func (b *SequenceBuilder) shift() *Node {
	first := b.segments[0]
	b.segments = b.segments[1:]
	return first
}

// pair builds the plain concatenation of two operands, dropping optionality
// at this level.
func (b *SequenceBuilder) pair(first, second *Node) *Node {
	return &Node{
		Kind:     KindSequence,
		Field:    b.field,
		Operands: []*Node{first.Required(), second.Required()},
		InOrder:  true,
		negative: first.negative || second.negative,
	}
}

// plain reports whether the sequence builds to a plain concatenation.
func (b *SequenceBuilder) plain() bool {
	switch len(b.constraints) {
	case 0:
		return true
	case 1:
		return b.constraints[0].IsTrivial()
	}
	return false
}

// Node builds the sequence.
//
// Without constraints, or with a single ordered [1,1] word constraint, the
// result is a plain concatenation. A single constraint yields a pairwise
// distance composition, several constraints a joint multi-distance
// composition. A sequence of a single operand is that operand.
func (b *SequenceBuilder) Node() *Node {
	if b.null || len(b.segments) == 0 {
		return Null()
	}

	segs := b.segments
	if b.plain() {
		segs = attachEmpties(segs)
	} else {
		segs = mergeEmpties(segs)
	}

	var n *Node
	if len(segs) == 1 {
		c := *segs[0]
		n = &c
	} else {
		n = &Node{
			Kind:     KindSequence,
			Field:    b.field,
			Operands: segs,
			InOrder:  b.inOrder,
		}
		if !b.plain() {
			n.Constraints = append([]DistanceConstraint(nil), b.constraints...)
		}
	}
	if n.Field == "" {
		n.Field = b.field
	}
	if b.optional {
		n = n.Optional()
	} else if n.Kind != KindEmpty {
		n.optional = false
	}
	if b.negative {
		n.negative = true
	}
	return n
}

// mergeEmpties collapses runs of any-token operands into one operand with
// summed bounds.
func mergeEmpties(segs []*Node) []*Node {
	out := make([]*Node, 0, len(segs))
	for _, s := range segs {
		if s.IsEmpty() && len(out) > 0 && out[len(out)-1].IsEmpty() {
			prev := out[len(out)-1]
			merged := prev.WithBounds(prev.Min+s.Min, prev.Max+s.Max)
			if merged.Class == 0 {
				merged.Class = s.Class
			}
			out[len(out)-1] = merged
			continue
		}
		out = append(out, s)
	}
	return out
}

// attachEmpties turns any-token operands into expansions: a run after an
// operand extends it to the right, a leading run extends the following
// operand to the left.
func attachEmpties(segs []*Node) []*Node {
	segs = mergeEmpties(segs)
	if len(segs) == 1 {
		return segs
	}
	out := make([]*Node, 0, len(segs))
	var leading *Node
	for _, s := range segs {
		switch {
		case s.IsEmpty() && len(out) > 0:
			last := out[len(out)-1]
			out[len(out)-1] = Expansion(last, Right, s.Min, s.Max, s.Class)
		case s.IsEmpty():
			leading = s
		case leading != nil:
			out = append(out, Expansion(s, Left, leading.Min, leading.Max, leading.Class))
			leading = nil
		default:
			out = append(out, s)
		}
	}
	return out
}
