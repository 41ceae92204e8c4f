// Package spans executes compiled queries against an index segment.
//
// Every algebra node is evaluated by a pull iterator implementing Spans.
// Iterators visit documents in increasing order. Composite iterators compute
// all matches of one document before returning the first of them, and emit
// the matches of a document in non-decreasing (start, end) order.
//
// Iterators are not safe for concurrent use; segments are evaluated by
// independent iterator trees.
package spans

import (
	"cmp"
	"slices"
)

// Spans enumerates the matches of one query node.
type Spans interface {
	// Next moves to the next match.
	Next() (bool, error)

	// SkipTo moves to the first match in a document >= target. It always
	// moves forward by at least one match.
	SkipTo(target int) (bool, error)

	Doc() int
	Start() int
	End() int

	// Payloads returns the payloads of the current match. The returned
	// slice and its buffers must not be modified.
	Payloads() [][]byte

	// Cost estimates the number of documents the iterator visits.
	Cost() int64
}

// Match is one materialized match.
type Match struct {
	Doc      int
	Start    int
	End      int
	Payloads [][]byte

	// id links element occurrences to their attributes.
	id uint32
}

func compareMatch(a, b Match) int {
	if c := cmp.Compare(a.Doc, b.Doc); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.End, b.End)
}

func sortMatches(ms []Match) {
	slices.SortStableFunc(ms, compareMatch)
}

// Collect drains s into a slice.
func Collect(s Spans) ([]Match, error) {
	var out []Match
	for {
		ok, err := s.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, current(s))
	}
}

// idSpans is implemented by iterators whose matches carry element ids.
type idSpans interface {
	id() uint32
}

func current(s Spans) Match {
	m := Match{Doc: s.Doc(), Start: s.Start(), End: s.End(), Payloads: s.Payloads()}
	if is, ok := s.(idSpans); ok {
		m.id = is.id()
	}
	return m
}

// cursor wraps a child iterator for composites that consume a document at
// a time.
type cursor struct {
	s         Spans
	started   bool
	exhausted bool
}

func newCursor(s Spans) *cursor { return &cursor{s: s} }

// doc returns the current document, or -1 before the first advance.
func (c *cursor) doc() int {
	if !c.started || c.exhausted {
		return -1
	}
	return c.s.Doc()
}

// advanceTo positions the cursor on the first match in a document >= target.
// It does not move when the current match already satisfies target.
func (c *cursor) advanceTo(target int) (bool, error) {
	if c.exhausted {
		return false, nil
	}
	if c.started && c.s.Doc() >= target {
		return true, nil
	}
	var ok bool
	var err error
	if !c.started && target <= 0 {
		ok, err = c.s.Next()
	} else {
		ok, err = c.s.SkipTo(target)
	}
	c.started = true
	if err != nil || !ok {
		c.exhausted = true
	}
	return ok, err
}

// next moves to the next match.
func (c *cursor) next() (bool, error) {
	if c.exhausted {
		return false, nil
	}
	c.started = true
	ok, err := c.s.Next()
	if err != nil || !ok {
		c.exhausted = true
	}
	return ok, err
}

// collect returns every match of the current document and leaves the cursor
// on the first match of a later document.
func (c *cursor) collect() ([]Match, error) {
	doc := c.s.Doc()
	var out []Match
	for {
		out = append(out, current(c.s))
		ok, err := c.next()
		if err != nil {
			return nil, err
		}
		if !ok || c.s.Doc() != doc {
			return out, nil
		}
	}
}

// collectDoc returns the matches in doc, or nil when the child has none.
func (c *cursor) collectDoc(doc int) ([]Match, error) {
	ok, err := c.advanceTo(doc)
	if err != nil || !ok || c.s.Doc() != doc {
		return nil, err
	}
	return c.collect()
}

// align advances all cursors to the first document >= target they share.
func align(target int, cs []*cursor) (int, bool, error) {
	doc := target
	for {
		agreed := true
		for _, c := range cs {
			ok, err := c.advanceTo(doc)
			if err != nil || !ok {
				return 0, false, err
			}
			if d := c.s.Doc(); d > doc {
				doc = d
				agreed = false
			}
		}
		if agreed {
			return doc, true, nil
		}
	}
}

// loader computes the matches of the next document >= target that has any.
// It returns nil when no such document exists.
type loader func(target int) ([]Match, error)

// buffered implements Spans on top of a per-document loader.
type buffered struct {
	load loader
	buf  []Match
	pos  int
	done bool
	cost int64
}

func newBuffered(load loader, cost int64) *buffered {
	return &buffered{load: load, pos: -1, cost: cost}
}

func (b *buffered) Next() (bool, error) { return b.advance(-1) }

func (b *buffered) SkipTo(target int) (bool, error) { return b.advance(target) }

func (b *buffered) advance(target int) (bool, error) {
	if b.done {
		return false, nil
	}
	if b.pos+1 < len(b.buf) && b.buf[b.pos+1].Doc >= target {
		b.pos++
		return true, nil
	}
	ms, err := b.load(target)
	if err != nil {
		b.done = true
		b.buf = nil
		return false, err
	}
	if len(ms) == 0 {
		b.done = true
		b.buf = nil
		return false, nil
	}
	b.buf = ms
	b.pos = 0
	return true, nil
}

func (b *buffered) cur() Match {
	if b.pos < 0 || b.pos >= len(b.buf) {
		return Match{Doc: -1}
	}
	return b.buf[b.pos]
}

func (b *buffered) Doc() int           { return b.cur().Doc }
func (b *buffered) Start() int         { return b.cur().Start }
func (b *buffered) End() int           { return b.cur().End }
func (b *buffered) Payloads() [][]byte { return b.cur().Payloads }
func (b *buffered) Cost() int64        { return b.cost }
func (b *buffered) id() uint32         { return b.cur().id }

// conjunction builds a loader over required and optional children: a
// document is considered when every required child matches in it, and
// compute turns the per-child match lists into results.
func conjunction(required, optional []Spans, compute func(required, optional [][]Match) ([]Match, error)) *buffered {
	req := make([]*cursor, len(required))
	var cost int64 = -1
	for i, s := range required {
		req[i] = newCursor(s)
		if c := s.Cost(); cost < 0 || c < cost {
			cost = c
		}
	}
	opt := make([]*cursor, len(optional))
	for i, s := range optional {
		opt[i] = newCursor(s)
	}

	load := func(target int) ([]Match, error) {
		for {
			doc, ok, err := align(target, req)
			if err != nil || !ok {
				return nil, err
			}
			reqLists := make([][]Match, len(req))
			for i, c := range req {
				if reqLists[i], err = c.collect(); err != nil {
					return nil, err
				}
			}
			optLists := make([][]Match, len(opt))
			for i, c := range opt {
				if optLists[i], err = c.collectDoc(doc); err != nil {
					return nil, err
				}
			}
			out, err := compute(reqLists, optLists)
			if err != nil {
				return nil, err
			}
			if len(out) > 0 {
				sortMatches(out)
				return out, nil
			}
			target = doc + 1
		}
	}
	return newBuffered(load, max(cost, 0))
}

// unary builds a per-document loader over a single child.
func unary(child Spans, compute func(ms []Match) []Match) *buffered {
	return conjunction([]Spans{child}, nil, func(req, _ [][]Match) ([]Match, error) {
		return compute(req[0]), nil
	})
}

// emptySpans never matches.
type emptySpans struct{}

func (emptySpans) Next() (bool, error)      { return false, nil }
func (emptySpans) SkipTo(int) (bool, error) { return false, nil }
func (emptySpans) Doc() int                 { return -1 }
func (emptySpans) Start() int               { return -1 }
func (emptySpans) End() int                 { return -1 }
func (emptySpans) Payloads() [][]byte       { return nil }
func (emptySpans) Cost() int64              { return 0 }
