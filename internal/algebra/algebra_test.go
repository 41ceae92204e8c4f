package algebra

import "testing"

const field = "tokens"

func term(t string) *Node { return Term(field, t) }

func opt(t string) *Node { return Repetition(term(t), 0, 1) }

func TestSequenceBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *SequenceBuilder
		want     string
		optional bool
	}{
		{
			name: "single term",
			build: func() *SequenceBuilder {
				return NewSequence(field).AppendTerm("s:a")
			},
			want: "tokens:s:a",
		},
		{
			name: "plain concatenation",
			build: func() *SequenceBuilder {
				return NewSequence(field).AppendTerm("s:a").AppendTerm("s:b").AppendTerm("s:c")
			},
			want: "spanNext(spanNext(tokens:s:a, tokens:s:b), tokens:s:c)",
		},
		{
			name: "prepend",
			build: func() *SequenceBuilder {
				return NewSequence(field).AppendTerm("s:b").PrependTerm("s:a")
			},
			want: "spanNext(tokens:s:a, tokens:s:b)",
		},
		{
			name: "required after optional",
			build: func() *SequenceBuilder {
				return NewSequence(field).Append(opt("s:a")).AppendTerm("s:b")
			},
			want: "spanOr([tokens:s:b, spanNext(spanRepetition(tokens:s:a{0,1}), tokens:s:b)])",
		},
		{
			name: "optional after required",
			build: func() *SequenceBuilder {
				return NewSequence(field).AppendTerm("s:a").Append(opt("s:b"))
			},
			want: "spanOr([tokens:s:a, spanNext(tokens:s:a, spanRepetition(tokens:s:b{0,1}))])",
		},
		{
			name: "optional after optional",
			build: func() *SequenceBuilder {
				return NewSequence(field).Append(opt("s:a")).Append(opt("s:b"))
			},
			want: "spanOr([spanRepetition(tokens:s:a{0,1}), spanRepetition(tokens:s:b{0,1}), " +
				"spanNext(spanRepetition(tokens:s:a{0,1}), spanRepetition(tokens:s:b{0,1}))])",
			optional: true,
		},
		{
			name: "optional prepended to required",
			build: func() *SequenceBuilder {
				return NewSequence(field).AppendTerm("s:b").Prepend(opt("s:a"))
			},
			want: "spanOr([tokens:s:b, spanNext(spanRepetition(tokens:s:a{0,1}), tokens:s:b)])",
		},
		{
			name: "required prepended to optional",
			build: func() *SequenceBuilder {
				return NewSequence(field).Append(opt("s:b")).PrependTerm("s:a")
			},
			want: "spanOr([tokens:s:a, spanNext(tokens:s:a, spanRepetition(tokens:s:b{0,1}))])",
		},
		{
			name: "null operands ignored",
			build: func() *SequenceBuilder {
				return NewSequence(field).Append(Null()).AppendTerm("s:a").Append(Null())
			},
			want: "tokens:s:a",
		},
		{
			name: "word distance",
			build: func() *SequenceBuilder {
				return NewSequence(field).WithConstraint(2, 3, "w", false).AppendTerm("s:a").AppendTerm("s:b")
			},
			want: "spanDistance(tokens:s:a, tokens:s:b, [(w[2:3], ordered, notExcluded)])",
		},
		{
			name: "element distance",
			build: func() *SequenceBuilder {
				return NewSequence(field).WithConstraint(0, 1, "s", false).AppendTerm("s:a").AppendTerm("s:b")
			},
			want: "spanElementDistance(tokens:s:a, tokens:s:b, [(s[0:1], ordered, notExcluded)])",
		},
		{
			name: "trivial constraint",
			build: func() *SequenceBuilder {
				return NewSequence(field).WithConstraint(1, 1, "w", false).AppendTerm("s:a").AppendTerm("s:b")
			},
			want: "spanNext(tokens:s:a, tokens:s:b)",
		},
		{
			name: "unordered adjacency",
			build: func() *SequenceBuilder {
				return NewSequence(field).SetInOrder(false).WithConstraint(1, 1, "w", false).
					AppendTerm("s:a").AppendTerm("s:b")
			},
			want: "spanDistance(tokens:s:a, tokens:s:b, [(w[1:1], notOrdered, notExcluded)])",
		},
		{
			name: "multiple constraints",
			build: func() *SequenceBuilder {
				return NewSequence(field).
					WithConstraint(0, 0, "s", false).
					WithConstraint(2, 4, "w", false).
					AppendTerm("s:a").AppendTerm("s:b")
			},
			want: "spanMultipleDistance(tokens:s:a, tokens:s:b, " +
				"[(s[0:0], ordered, notExcluded)], [(w[2:4], ordered, notExcluded)])",
		},
		{
			name: "trailing any-token",
			build: func() *SequenceBuilder {
				return NewSequence(field).AppendTerm("s:a").Append(Empty()).AppendTerm("s:b")
			},
			want: "spanNext(spanExpansion(tokens:s:a, []{1, 1}, right), tokens:s:b)",
		},
		{
			name: "leading any-token run",
			build: func() *SequenceBuilder {
				return NewSequence(field).Append(Empty()).Append(Empty().WithBounds(0, 2)).AppendTerm("s:a")
			},
			want: "spanExpansion(tokens:s:a, []{1, 3}, left)",
		},
		{
			name: "classed any-token",
			build: func() *SequenceBuilder {
				return NewSequence(field).AppendTerm("s:a").Append(Class(2, Empty().WithBounds(0, 2)))
			},
			want: "spanExpansion(tokens:s:a, []{0, 2}, right, class:2)",
		},
		{
			name: "any-token only",
			build: func() *SequenceBuilder {
				return NewSequence(field).Append(Empty()).Append(Empty())
			},
			want: "[]{2,2}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.build()
			n := b.Node()
			if got := n.String(); got != tt.want {
				t.Errorf("Node() =\n  %s\nwant\n  %s", got, tt.want)
			}
			if n.IsOptional() != tt.optional {
				t.Errorf("IsOptional() = %v, want %v", n.IsOptional(), tt.optional)
			}
		})
	}
}

func TestSequenceBuilderEmpty(t *testing.T) {
	b := NewSequence(field)
	if !b.IsNull() {
		t.Error("new builder should be null")
	}
	if !b.Node().IsNull() {
		t.Error("empty builder should build a null node")
	}
	if b.HasConstraints() {
		t.Error("new builder should have no constraints")
	}
}

func TestSequenceBuilderNegative(t *testing.T) {
	neg := NewSegment(field).WithoutTerm("s:x").Node()
	if !neg.IsNegative() {
		t.Fatal("exclusion-only segment should be negative")
	}
	b := NewSequence(field).AppendTerm("s:a").Append(neg)
	if !b.IsNegative() {
		t.Error("builder should be negative")
	}
	if !b.Node().IsNegative() {
		t.Error("sequence node should be negative")
	}
}

func TestSequenceBuilderConstraintOrder(t *testing.T) {
	b := NewSequence(field).WithConstraint(1, 2, "", false).SetInOrder(false).WithConstraint(0, 0, "p", true)
	cs := b.Constraints()
	if len(cs) != 2 {
		t.Fatalf("expected 2 constraints, got %d", len(cs))
	}
	if !cs[0].InOrder || cs[0].Unit != WordUnit {
		t.Errorf("first constraint = %+v", cs[0])
	}
	if cs[1].InOrder || !cs[1].Exclusion || cs[1].Unit != "p" {
		t.Errorf("second constraint = %+v", cs[1])
	}
}

func TestAlternationBuilder(t *testing.T) {
	if !NewAlternation(field).Node().IsNull() {
		t.Error("empty alternation should be null")
	}

	single := NewAlternation(field).Or(Null()).OrTerm("s:a").Node()
	if single.String() != "tokens:s:a" {
		t.Errorf("single alternative = %s", single)
	}

	n := NewAlternation(field).OrTerm("s:a").Or(opt("s:b")).Node()
	if n.String() != "spanOr([tokens:s:a, spanRepetition(tokens:s:b{0,1})])" {
		t.Errorf("alternation = %s", n)
	}
	if !n.IsOptional() {
		t.Error("alternation with optional operand should be optional")
	}
}

func TestSegmentBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *SegmentBuilder
		want     string
		negative bool
	}{
		{
			name:  "single term",
			build: func() *SegmentBuilder { return NewSegment(field).WithTerm("s:a") },
			want:  "tokens:s:a",
		},
		{
			name:  "conjunction",
			build: func() *SegmentBuilder { return NewSegment(field).WithTerm("s:a").WithTerm("p:NN") },
			want:  "spanSegment(tokens:s:a, tokens:p:NN)",
		},
		{
			name:  "with exclusion",
			build: func() *SegmentBuilder { return NewSegment(field).WithTerm("s:a").WithoutTerm("p:NN") },
			want:  "spanNot(tokens:s:a, tokens:p:NN, 0, 0)",
		},
		{
			name:     "exclusion only",
			build:    func() *SegmentBuilder { return NewSegment(field).WithoutTerm("p:NN") },
			want:     "spanNot([], tokens:p:NN, 0, 0)",
			negative: true,
		},
		{
			name: "nested segments flatten",
			build: func() *SegmentBuilder {
				inner := NewSegment(field).WithoutTerm("p:NN").Node()
				return NewSegment(field).WithTerm("s:a").With(inner)
			},
			want: "spanNot(tokens:s:a, tokens:p:NN, 0, 0)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.build().Node()
			if got := n.String(); got != tt.want {
				t.Errorf("Node() = %s, want %s", got, tt.want)
			}
			if n.IsNegative() != tt.negative {
				t.Errorf("IsNegative() = %v, want %v", n.IsNegative(), tt.negative)
			}
		})
	}
}

func TestExtensibleGrafting(t *testing.T) {
	e := Repetition(Empty(), 2, 4)
	if e.Kind != KindEmpty || e.Min != 2 || e.Max != 4 {
		t.Errorf("bounds not grafted: %s", e)
	}
	c := Class(3, e)
	if c.Kind != KindEmpty || c.Class != 3 {
		t.Errorf("class not grafted: %s", c)
	}
	if e.Class != 0 {
		t.Error("grafting must not modify the original node")
	}

	r := Repetition(term("s:a"), 2, 4)
	if r.Kind != KindRepetition || r.String() != "spanRepetition(tokens:s:a{2,4})" {
		t.Errorf("repetition = %s", r)
	}
	if !Repetition(term("s:a"), 0, 0).IsNull() {
		t.Error("repetition with max 0 should be null")
	}
}

func TestNullPropagation(t *testing.T) {
	a := term("s:a")
	for name, n := range map[string]*Node{
		"position outer": Position(Within, Null(), a),
		"position inner": Position(Within, a, Null()),
		"class":          Class(1, Null()),
		"repetition":     Repetition(Null(), 1, 2),
		"reference":      Reference(1, Null()),
		"subspan":        SubSpan(Null(), 0, 1),
		"expansion":      Expansion(Null(), Right, 0, 1, 0),
		"attribute":      WithAttribute(Null(), Attribute(field, "@:x", false)),
	} {
		if !n.IsNull() {
			t.Errorf("%s: expected null, got %s", name, n)
		}
	}
}

func TestCaseInsensitivePatterns(t *testing.T) {
	if got := Regex(field, "s:Ba.*", true).Term; got != "i:ba.*" {
		t.Errorf("regex = %q", got)
	}
	if got := Wildcard(field, "s:Ba*", false).Term; got != "s:Ba*" {
		t.Errorf("wildcard = %q", got)
	}
}

func TestRelationHolds(t *testing.T) {
	tests := []struct {
		rel            Relation
		os, oe, is, ie int
		want           bool
	}{
		{Within, 0, 12, 3, 4, true},
		{Within, 0, 12, 0, 12, true},
		{Within, 2, 6, 6, 7, false},
		{RealWithin, 0, 12, 0, 4, false},
		{RealWithin, 0, 12, 1, 4, true},
		{StartsWith, 2, 6, 2, 3, true},
		{StartsWith, 2, 6, 3, 4, false},
		{EndsWith, 2, 6, 5, 6, true},
		{EndsWith, 2, 6, 4, 5, false},
		{Match, 2, 6, 2, 6, true},
		{Match, 2, 6, 2, 5, false},
		{Overlap, 2, 6, 4, 8, true},
		{Overlap, 2, 6, 6, 8, true},
		{Overlap, 2, 6, 3, 4, false},
		{Overlap, 2, 6, 7, 8, false},
		{RealOverlap, 2, 6, 4, 8, true},
		{RealOverlap, 2, 6, 6, 8, false},
		{RealOverlap, 4, 8, 2, 6, true},
	}
	for _, tt := range tests {
		if got := tt.rel.Holds(tt.os, tt.oe, tt.is, tt.ie); got != tt.want {
			t.Errorf("%s([%d,%d), [%d,%d)) = %v, want %v", tt.rel, tt.os, tt.oe, tt.is, tt.ie, got, tt.want)
		}
	}
}
