package spans

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"spansearch/internal/algebra"
	"spansearch/internal/index"
	"spansearch/internal/index/memory"
	"spansearch/internal/payload"
)

const field = "tokens"

func term(t string) *algebra.Node { return algebra.Term(field, t) }

// render formats matches as "doc:start-end" separated by spaces.
func render(ms []Match) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = fmt.Sprintf("%d:%d-%d", m.Doc, m.Start, m.End)
	}
	return strings.Join(parts, " ")
}

func run(t *testing.T, n *algebra.Node, seg index.Segment) []Match {
	t.Helper()
	s, err := Build(n, seg)
	if err != nil {
		t.Fatalf("Build(%s): %v", n, err)
	}
	ms, err := Collect(s)
	if err != nil {
		t.Fatalf("Collect(%s): %v", n, err)
	}
	return ms
}

// tokens builds a segment with one document per argument; each document is a
// space separated list of tokens, each token a '|' separated list of terms.
func tokens(docs ...string) *memory.Segment {
	b := memory.NewBuilder(field)
	for i, d := range docs {
		b.NewDocument("c", fmt.Sprintf("d%d", i))
		b.AddTokens(strings.Fields(d)...)
	}
	return b.Build()
}

// nested builds documents holding element a at [0,12), [1,9) and [2,6) at
// depths 0, 1 and 2, and the term h at positions 3, 6 and 9.
func nested(docs int) *memory.Segment {
	b := memory.NewBuilder(field)
	for i := range docs {
		b.NewDocument("c", fmt.Sprintf("d%d", i))
		b.AddElement("a", 0, 12, 0)
		b.AddElement("a", 1, 9, 1)
		b.AddElement("a", 2, 6, 2)
		for _, p := range []int{3, 6, 9} {
			b.AddToken(p, "s:h")
		}
		b.SetLength(12)
	}
	return b.Build()
}

func TestWithinNestedElements(t *testing.T) {
	seg := nested(2)
	n := algebra.Position(algebra.Within, algebra.Element(field, "a"), term("s:h"))

	got := render(run(t, n, seg))
	want := "0:0-12 0:0-12 0:0-12 0:1-9 0:1-9 0:2-6 " +
		"1:0-12 1:0-12 1:0-12 1:1-9 1:1-9 1:2-6"
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestPositionRelations(t *testing.T) {
	b := memory.NewBuilder(field)
	b.NewDocument("c", "d")
	b.AddTokens("s:a", "s:b", "s:c", "s:d", "s:e")
	b.AddElement("x", 0, 3, 0)
	b.AddElement("y", 0, 2, 0)
	b.AddElement("y", 1, 3, 0)
	b.AddElement("y", 2, 5, 0)
	b.AddElement("y", 3, 5, 0)
	seg := b.Build()

	x := algebra.Element(field, "x")
	y := algebra.Element(field, "y")

	tests := []struct {
		rel  algebra.Relation
		want string
	}{
		{algebra.Within, "0:0-3 0:0-3"},
		{algebra.RealWithin, ""},
		{algebra.StartsWith, "0:0-3"},
		{algebra.EndsWith, "0:0-3"},
		{algebra.Match, ""},
		{algebra.Overlap, "0:0-3 0:0-3"},
		{algebra.RealOverlap, "0:0-3"},
	}
	for _, tt := range tests {
		t.Run(tt.rel.String(), func(t *testing.T) {
			got := render(run(t, algebra.Position(tt.rel, x, y), seg))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpansion(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		dir  algebra.Direction
		min  int
		max  int
		want string
	}{
		{"right from zero", "s:a s:x s:a s:a s:a", algebra.Right, 0, 2, "0:1-2 0:1-3 0:1-4"},
		{"left from zero", "s:a s:a s:x s:a", algebra.Left, 0, 2, "0:0-3 0:1-3 0:2-3"},
		{"right clamped", "s:a s:a s:a s:a s:x", algebra.Right, 0, 2, "0:4-5"},
		{"left clamped", "s:x s:a", algebra.Left, 1, 3, ""},
		{"right overlapping bases", "s:a s:x s:x s:a s:a s:a", algebra.Right, 1, 2, "0:1-3 0:1-4 0:2-4 0:2-5"},
		{"left overlapping bases", "s:a s:a s:x s:x", algebra.Left, 1, 2, "0:0-3 0:1-3 0:1-4 0:2-4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := algebra.Expansion(term("s:x"), tt.dir, tt.min, tt.max, 0)
			got := render(run(t, n, tokens(tt.doc)))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpansionClass(t *testing.T) {
	n := algebra.Expansion(term("s:x"), algebra.Right, 1, 1, 2)
	ms := run(t, n, tokens("s:a s:x s:b"))
	if len(ms) != 1 {
		t.Fatalf("got %d matches, want 1", len(ms))
	}
	recs := payload.Classes(ms[0].Payloads)
	want := []payload.ClassRecord{{Start: 2, End: 3, Class: 2}}
	if fmt.Sprint(recs) != fmt.Sprint(want) {
		t.Errorf("class records = %v, want %v", recs, want)
	}
}

func TestExpansionClassFromZero(t *testing.T) {
	n := algebra.Expansion(term("s:x"), algebra.Right, 0, 2, 1)
	ms := run(t, n, tokens("s:a s:x s:b s:a"))
	want := []string{"[{2 2 1}]", "[{2 3 1}]", "[{2 4 1}]"}
	if len(ms) != len(want) {
		t.Fatalf("got %d matches, want %d", len(ms), len(want))
	}
	for i, m := range ms {
		if got := fmt.Sprint(payload.Classes(m.Payloads)); got != want[i] {
			t.Errorf("match %d: class records = %s, want %s", i, got, want[i])
		}
	}

	// Focus on the added tokens skips the unexpanded base.
	if got, want := render(run(t, algebra.Reference(1, n), tokens("s:a s:x s:b s:a"))), "0:2-3 0:2-4"; got != want {
		t.Errorf("focus: got %q, want %q", got, want)
	}
}

func TestFocusResolution(t *testing.T) {
	c1 := func(s, e int) []byte { return classPayload(s, e, 1) }
	other := classPayload(0, 1, 2)

	tests := []struct {
		name     string
		payloads [][]byte
		ok       bool
		start    int
		end      int
		kept     int
	}{
		{"none", [][]byte{other}, false, 0, 0, 0},
		{"single", [][]byte{c1(2, 3), other}, true, 2, 3, 2},
		{"agreeing", [][]byte{c1(2, 3), c1(2, 3), other}, true, 2, 3, 2},
		{"ambiguous", [][]byte{c1(2, 3), c1(4, 5)}, false, 0, 0, 0},
		{"opaque ignored", [][]byte{{1, 2, 3}, c1(1, 4)}, true, 1, 4, 2},
		{"empty range", [][]byte{c1(3, 3), other}, false, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := focus(Match{Doc: 0, Start: 0, End: 6, Payloads: tt.payloads}, 1)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if m.Start != tt.start || m.End != tt.end {
				t.Errorf("range = %d-%d, want %d-%d", m.Start, m.End, tt.start, tt.end)
			}
			if len(m.Payloads) != tt.kept {
				t.Errorf("kept %d payloads, want %d", len(m.Payloads), tt.kept)
			}
		})
	}
}

func TestReference(t *testing.T) {
	seq := &algebra.Node{
		Kind:     algebra.KindSequence,
		Field:    field,
		Operands: []*algebra.Node{term("s:a"), algebra.Class(1, term("s:b"))},
		InOrder:  true,
	}
	seg := tokens("s:a s:b s:c s:a s:b")

	if got, want := render(run(t, seq, seg)), "0:0-2 0:3-5"; got != want {
		t.Errorf("sequence: got %q, want %q", got, want)
	}
	if got, want := render(run(t, algebra.Reference(1, seq), seg)), "0:1-2 0:4-5"; got != want {
		t.Errorf("focus: got %q, want %q", got, want)
	}
	if got := render(run(t, algebra.Reference(2, seq), seg)); got != "" {
		t.Errorf("focus on missing class: got %q", got)
	}
}

func TestClass(t *testing.T) {
	ms := run(t, algebra.Class(3, term("s:a")), tokens("s:b s:a"))
	if len(ms) != 1 {
		t.Fatalf("got %d matches, want 1", len(ms))
	}
	recs := payload.Classes(ms[0].Payloads)
	if len(recs) != 1 || recs[0] != (payload.ClassRecord{Start: 1, End: 2, Class: 3}) {
		t.Errorf("class records = %v", recs)
	}
}

func TestSequenceAssociativity(t *testing.T) {
	seg := tokens("s:a s:c s:d s:a s:b s:c s:d s:a s:b s:b s:c s:d")

	flat := algebra.NewSequence(field).
		AppendTerm("s:a").
		Append(term("s:b").Optional()).
		AppendTerm("s:c").
		AppendTerm("s:d").
		Node()

	inner := algebra.NewSequence(field).
		AppendTerm("s:a").
		Append(term("s:b").Optional()).
		AppendTerm("s:c").
		Node()
	nested := algebra.NewSequence(field).Append(inner).AppendTerm("s:d").Node()

	want := "0:0-3 0:3-7"
	if got := render(run(t, flat, seg)); got != want {
		t.Errorf("flat: got %q, want %q", got, want)
	}
	if got := render(run(t, nested, seg)); got != want {
		t.Errorf("nested: got %q, want %q", got, want)
	}
}

func TestSequenceWithEmptyToken(t *testing.T) {
	seg := tokens("s:a s:b s:c")
	n := algebra.NewSequence(field).AppendTerm("s:a").Append(algebra.Empty()).AppendTerm("s:c").Node()
	if got, want := render(run(t, n, seg)), "0:0-3"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDistance(t *testing.T) {
	withUnits := func() *memory.Segment {
		b := memory.NewBuilder(field)
		b.NewDocument("c", "d")
		b.AddTokens("s:a", "s:x", "s:c", "s:x")
		b.AddElement("s", 0, 2, 0)
		b.AddElement("s", 2, 4, 0)
		return b.Build()
	}

	tests := []struct {
		name        string
		seg         *memory.Segment
		first       string
		second      string
		constraints []algebra.DistanceConstraint
		inOrder     bool
		want        string
	}{
		{
			name:  "word ordered",
			seg:   tokens("s:a s:x s:b s:x s:x s:b"),
			first: "s:a", second: "s:b",
			constraints: []algebra.DistanceConstraint{{Min: 2, Max: 3, Unit: "w", InOrder: true}},
			inOrder:     true,
			want:        "0:0-3",
		},
		{
			name:  "word ordered rejects reversed",
			seg:   tokens("s:b s:a"),
			first: "s:a", second: "s:b",
			constraints: []algebra.DistanceConstraint{{Min: 1, Max: 1, Unit: "w", InOrder: true}},
			inOrder:     true,
			want:        "",
		},
		{
			name:  "word unordered",
			seg:   tokens("s:b s:a"),
			first: "s:a", second: "s:b",
			constraints: []algebra.DistanceConstraint{{Min: 1, Max: 1, Unit: "w"}},
			want:        "0:0-2",
		},
		{
			name:  "word exclusion",
			seg:   tokens("s:a s:x s:b s:a s:x s:x", "s:a"),
			first: "s:a", second: "s:b",
			constraints: []algebra.DistanceConstraint{{Min: 2, Max: 3, Unit: "w", InOrder: true, Exclusion: true}},
			inOrder:     true,
			want:        "0:3-4 1:0-1",
		},
		{
			name:  "element next unit",
			seg:   withUnits(),
			first: "s:a", second: "s:x",
			constraints: []algebra.DistanceConstraint{{Min: 1, Max: 1, Unit: "s", InOrder: true}},
			inOrder:     true,
			want:        "0:0-4",
		},
		{
			name:  "element same unit",
			seg:   withUnits(),
			first: "s:a", second: "s:x",
			constraints: []algebra.DistanceConstraint{{Min: 0, Max: 0, Unit: "s", InOrder: true}},
			inOrder:     true,
			want:        "0:0-2",
		},
		{
			name:  "multiple constraints",
			seg:   withUnits(),
			first: "s:a", second: "s:x",
			constraints: []algebra.DistanceConstraint{
				{Min: 1, Max: 3, Unit: "w", InOrder: true},
				{Min: 0, Max: 0, Unit: "s", InOrder: true},
			},
			inOrder: true,
			want:    "0:0-2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &algebra.Node{
				Kind:        algebra.KindSequence,
				Field:       field,
				Operands:    []*algebra.Node{term(tt.first), term(tt.second)},
				Constraints: tt.constraints,
				InOrder:     tt.inOrder,
			}
			got := render(run(t, n, tt.seg))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSegment(t *testing.T) {
	seg := tokens("s:a|p:X s:a|p:Y s:b|p:X")

	tests := []struct {
		name string
		node *algebra.Node
		want string
	}{
		{"conjunction", algebra.NewSegment(field).WithTerm("s:a").WithTerm("p:X").Node(), "0:0-1"},
		{"exclusion", algebra.NewSegment(field).WithTerm("s:a").WithoutTerm("p:X").Node(), "0:1-2"},
		{"negative", algebra.NewSegment(field).WithoutTerm("s:a").Node(), "0:2-3"},
		{"single", algebra.NewSegment(field).WithTerm("p:X").Node(), "0:0-1 0:2-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(run(t, tt.node, seg)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAlternation(t *testing.T) {
	seg := tokens("s:b s:a", "s:c", "s:a s:a")
	n := algebra.Alternation(term("s:a"), term("s:b"))
	if got, want := render(run(t, n, seg)), "0:0-1 0:1-2 2:0-1 2:1-2"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRepetition(t *testing.T) {
	seg := tokens("s:a s:a s:a s:b s:a")

	tests := []struct {
		min, max int
		want     string
	}{
		{2, 3, "0:0-2 0:0-3 0:1-3"},
		{0, 1, "0:0-1 0:1-2 0:2-3 0:4-5"},
		{3, 3, "0:0-3"},
		{4, 5, ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-%d", tt.min, tt.max), func(t *testing.T) {
			n := algebra.Repetition(term("s:a"), tt.min, tt.max)
			if got := render(run(t, n, seg)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnyTokenRepetition(t *testing.T) {
	n := algebra.Repetition(algebra.Empty(), 2, 3)
	if got, want := render(run(t, n, tokens("s:a s:b s:c"))), "0:0-2 0:0-3 0:1-3"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSubSpan(t *testing.T) {
	b := memory.NewBuilder(field)
	b.NewDocument("c", "d")
	b.AddTokens("s:a", "s:b", "s:c", "s:d")
	b.AddElement("s", 0, 4, 0)
	seg := b.Build()
	el := algebra.Element(field, "s")

	tests := []struct {
		offset, length int
		want           string
	}{
		{1, 2, "0:1-3"},
		{-1, 0, "0:3-4"},
		{0, 0, "0:0-4"},
		{2, 10, "0:2-4"},
		{5, 0, ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d,%d", tt.offset, tt.length), func(t *testing.T) {
			if got := render(run(t, algebra.SubSpan(el, tt.offset, tt.length), seg)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestElementAttributes(t *testing.T) {
	b := memory.NewBuilder(field)
	b.NewDocument("c", "d")
	b.AddTokens("s:a", "s:b", "s:c", "s:d")
	b.AddElement("s", 0, 2, 0, "type:top")
	b.AddElement("s", 2, 4, 0, "type:sub")
	seg := b.Build()
	el := algebra.Element(field, "s")

	tests := []struct {
		name string
		node *algebra.Node
		want string
	}{
		{"positive", algebra.WithAttribute(el, algebra.Attribute(field, "type:top", false)), "0:0-2"},
		{"negative", algebra.WithAttribute(el, algebra.Attribute(field, "type:top", true)), "0:2-4"},
		{"any element", algebra.WithAttribute(nil, algebra.Attribute(field, "type:sub", false)), "0:2-4"},
		{"conflicting", algebra.WithAttribute(el,
			algebra.Attribute(field, "type:top", false),
			algebra.Attribute(field, "type:sub", false)), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(run(t, tt.node, seg)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPatterns(t *testing.T) {
	seg := tokens("s:Baum s:Haus s:Bauer")

	tests := []struct {
		name string
		node *algebra.Node
		want string
	}{
		{"regex", algebra.Regex(field, "s:Bau.*", false), "0:0-1 0:2-3"},
		{"regex anchored", algebra.Regex(field, "s:au", false), ""},
		{"wildcard", algebra.Wildcard(field, "s:Ba?m", false), "0:0-1"},
		{"wildcard inner", algebra.Wildcard(field, "s:*a*", false), "0:0-1 0:1-2 0:2-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(run(t, tt.node, seg)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := Build(algebra.Regex(field, "s:(", false), seg); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("invalid regex: err = %v, want ErrInvalidPattern", err)
	}
}

func TestWildcardToRegex(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"s:Ba*", `^s:Ba.*$`},
		{"a?c", `^a.c$`},
		{`a\*b`, `^a\*b$`},
		{"a.b", `^a\.b$`},
	}
	for _, tt := range tests {
		got, err := wildcardToRegex(tt.in)
		if err != nil {
			t.Fatalf("wildcardToRegex(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("wildcardToRegex(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := wildcardToRegex(`a\`); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("trailing escape: err = %v", err)
	}
	if got := wildcardPrefix("s:Ba*m"); got != "s:Ba" {
		t.Errorf("wildcardPrefix = %q", got)
	}
}

func TestSkipTo(t *testing.T) {
	s, err := Build(algebra.Position(algebra.Within, algebra.Element(field, "a"), term("s:h")), nested(3))
	if err != nil {
		t.Fatal(err)
	}

	step := func(ok bool, err error, doc, start, end int) {
		t.Helper()
		if err != nil || !ok {
			t.Fatalf("ok=%v err=%v", ok, err)
		}
		if s.Doc() != doc || s.Start() != start || s.End() != end {
			t.Fatalf("at %d:%d-%d, want %d:%d-%d", s.Doc(), s.Start(), s.End(), doc, start, end)
		}
	}

	ok, err := s.SkipTo(1)
	step(ok, err, 1, 0, 12)
	// A satisfied target still moves by one match.
	ok, err = s.SkipTo(1)
	step(ok, err, 1, 0, 12)
	ok, err = s.SkipTo(2)
	step(ok, err, 2, 0, 12)
	ok, err = s.Next()
	step(ok, err, 2, 0, 12)
	if ok, err = s.SkipTo(3); ok || err != nil {
		t.Errorf("SkipTo past end: ok=%v err=%v", ok, err)
	}
	if ok, _ = s.Next(); ok {
		t.Error("Next after exhaustion returned true")
	}
}

func TestTermSkipTo(t *testing.T) {
	s, err := Build(term("s:a"), tokens("s:a s:a", "s:b", "s:a"))
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Next(); !ok || s.Doc() != 0 || s.Start() != 0 {
		t.Fatalf("Next -> %d:%d", s.Doc(), s.Start())
	}
	if ok, _ := s.SkipTo(0); !ok || s.Doc() != 0 || s.Start() != 1 {
		t.Fatalf("SkipTo(0) -> %d:%d", s.Doc(), s.Start())
	}
	if ok, _ := s.SkipTo(1); !ok || s.Doc() != 2 {
		t.Fatalf("SkipTo(1) -> %d", s.Doc())
	}
	if ok, _ := s.Next(); ok {
		t.Error("expected exhaustion")
	}
}

var errBoom = errors.New("boom")

type failingPostings struct{}

func (failingPostings) NextDoc() (bool, error)          { return false, errBoom }
func (failingPostings) Advance(int) (bool, error)       { return false, errBoom }
func (failingPostings) Doc() int                        { return -1 }
func (failingPostings) Occurrences() []index.Occurrence { return nil }
func (failingPostings) Cost() int64                     { return 1 }

// failingSegment fails reading the postings of one term.
type failingSegment struct {
	*memory.Segment
	term string
}

func (s failingSegment) Postings(field, term string) (index.Postings, error) {
	if term == s.term {
		return failingPostings{}, nil
	}
	return s.Segment.Postings(field, term)
}

func TestPostingErrorsPropagate(t *testing.T) {
	seg := failingSegment{Segment: nested(2), term: "s:h"}

	nodes := []*algebra.Node{
		term("s:h"),
		algebra.Position(algebra.Within, algebra.Element(field, "a"), term("s:h")),
		algebra.Alternation(algebra.Element(field, "a"), term("s:h")),
		algebra.Expansion(term("s:h"), algebra.Right, 0, 1, 0),
		algebra.Reference(1, algebra.Class(1, term("s:h"))),
	}
	for _, n := range nodes {
		t.Run(n.String(), func(t *testing.T) {
			s, err := Build(n, seg)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := Collect(s); !errors.Is(err, errBoom) {
				t.Errorf("err = %v, want %v", err, errBoom)
			}
		})
	}
}

func TestNullNeverMatches(t *testing.T) {
	if got := run(t, algebra.Null(), tokens("s:a")); len(got) != 0 {
		t.Errorf("got %d matches", len(got))
	}
	if got := run(t, term("s:missing"), tokens("s:a")); len(got) != 0 {
		t.Errorf("unknown term: got %d matches", len(got))
	}
}
