// Package index defines the read interface span iterators use to retrieve
// term postings from an index segment.
//
// A segment holds a fixed set of documents numbered 0..NumDocs-1. Every
// indexed term (token annotation, element or attribute) has a posting list
// ordered by document; within a document, occurrences are ordered by
// (start, end, depth).
//
// Term naming:
//
//	s:Baum, tt/p:NN    token annotations, one position wide
//	<>:s, <>:dgd/para  element spans, see ElementTerm
//	@:type:top         attribute of an element, see AttributeTerm
package index

import (
	"cmp"
	"errors"
	"slices"

	"github.com/google/uuid"
)

var (
	ErrDocOutOfRange = errors.New("document out of range")
	ErrSegmentClosed = errors.New("segment closed")
)

const (
	elementPrefix   = "<>:"
	attributePrefix = "@:"
)

// ElementTerm returns the indexed term of an element name.
func ElementTerm(name string) string { return elementPrefix + name }

// AttributeTerm returns the indexed term of an attribute.
func AttributeTerm(name string) string { return attributePrefix + name }

// Occurrence is one posting of a term inside a document.
type Occurrence struct {
	Start int
	End   int

	// Depth is the nesting depth of an element occurrence, zero for tokens.
	Depth int

	// ID links an element to its attributes. Attribute occurrences carry
	// the ID of the element they belong to.
	ID uint32

	Payload []byte
}

// Compare orders occurrences by (start, end, depth).
func (o Occurrence) Compare(other Occurrence) int {
	if c := cmp.Compare(o.Start, other.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(o.End, other.End); c != 0 {
		return c
	}
	return cmp.Compare(o.Depth, other.Depth)
}

// DocPostings holds the occurrences of one term in one document.
type DocPostings struct {
	Doc         int
	Occurrences []Occurrence
}

// Document describes one indexed document.
type Document struct {
	Name   string
	Corpus string
	Length int
}

// Postings is a forward-only cursor over the posting list of one term.
// It starts before the first document.
type Postings interface {
	// NextDoc moves to the next document containing the term.
	NextDoc() (bool, error)

	// Advance moves to the first document >= target. It never moves
	// backwards; if the current document already satisfies target it
	// still advances by one document.
	Advance(target int) (bool, error)

	// Doc returns the current document.
	Doc() int

	// Occurrences returns the occurrences in the current document, ordered
	// by (start, end, depth). The slice must not be modified.
	Occurrences() []Occurrence

	// Cost returns the number of documents in the posting list.
	Cost() int64
}

// Segment is a read-only set of indexed documents.
type Segment interface {
	ID() uuid.UUID

	// Field returns the name of the indexed token stream.
	Field() string

	// Postings returns a cursor over term in field. Unknown terms yield an
	// empty cursor rather than an error.
	Postings(field, term string) (Postings, error)

	// Terms calls fn for every term of field in lexical order until fn
	// returns false.
	Terms(field string, fn func(term string) bool) error

	NumDocs() int

	// Document returns the metadata of doc.
	Document(doc int) (Document, error)
}

// SlicePostings iterates a materialized posting list.
type SlicePostings struct {
	list []DocPostings
	pos  int
}

// NewSlicePostings returns a cursor over list, which must be ordered by
// document.
func NewSlicePostings(list []DocPostings) *SlicePostings {
	return &SlicePostings{list: list, pos: -1}
}

// EmptyPostings returns a cursor without documents.
func EmptyPostings() *SlicePostings { return NewSlicePostings(nil) }

func (p *SlicePostings) NextDoc() (bool, error) {
	if p.pos < len(p.list) {
		p.pos++
	}
	return p.pos < len(p.list), nil
}

func (p *SlicePostings) Advance(target int) (bool, error) {
	from := p.pos + 1
	if from >= len(p.list) {
		p.pos = len(p.list)
		return false, nil
	}
	i, _ := slices.BinarySearchFunc(p.list[from:], target, func(d DocPostings, t int) int {
		return cmp.Compare(d.Doc, t)
	})
	p.pos = from + i
	return p.pos < len(p.list), nil
}

func (p *SlicePostings) Doc() int {
	if p.pos < 0 || p.pos >= len(p.list) {
		return -1
	}
	return p.list[p.pos].Doc
}

func (p *SlicePostings) Occurrences() []Occurrence {
	if p.pos < 0 || p.pos >= len(p.list) {
		return nil
	}
	return p.list[p.pos].Occurrences
}

func (p *SlicePostings) Cost() int64 { return int64(len(p.list)) }

// SortOccurrences orders occurrences by (start, end, depth).
func SortOccurrences(occs []Occurrence) {
	slices.SortStableFunc(occs, Occurrence.Compare)
}
