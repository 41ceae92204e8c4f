// Package memory provides an in-memory index segment and its builder.
package memory

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"spansearch/internal/index"

	"github.com/google/uuid"
)

// Segment is an immutable in-memory index segment.
type Segment struct {
	id       uuid.UUID
	field    string
	docs     []index.Document
	postings map[string][]index.DocPostings
	terms    []string
}

var _ index.Segment = (*Segment)(nil)

// NewSegment assembles a segment from prepared postings. Posting lists must be
// ordered by document and occurrences by (start, end, depth).
func NewSegment(id uuid.UUID, field string, docs []index.Document, postings map[string][]index.DocPostings) *Segment {
	terms := make([]string, 0, len(postings))
	for t := range postings {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return &Segment{
		id:       id,
		field:    field,
		docs:     docs,
		postings: postings,
		terms:    terms,
	}
}

func (s *Segment) ID() uuid.UUID { return s.id }
func (s *Segment) Field() string { return s.field }
func (s *Segment) NumDocs() int  { return len(s.docs) }

func (s *Segment) Document(doc int) (index.Document, error) {
	if doc < 0 || doc >= len(s.docs) {
		return index.Document{}, fmt.Errorf("%w: %d", index.ErrDocOutOfRange, doc)
	}
	return s.docs[doc], nil
}

func (s *Segment) Postings(field, term string) (index.Postings, error) {
	if field != s.field {
		return index.EmptyPostings(), nil
	}
	return index.NewSlicePostings(s.postings[term]), nil
}

func (s *Segment) Terms(field string, fn func(term string) bool) error {
	if field != s.field {
		return nil
	}
	for _, t := range s.terms {
		if !fn(t) {
			return nil
		}
	}
	return nil
}

// Builder accumulates documents into a Segment.
//
// Documents are added one at a time: NewDocument starts a document and all
// following AddToken/AddElement calls annotate it.
type Builder struct {
	field    string
	docs     []index.Document
	postings map[string]map[int][]index.Occurrence
	nextID   uint32
}

// NewBuilder returns a builder for the token stream field.
func NewBuilder(field string) *Builder {
	return &Builder{
		field:    field,
		postings: make(map[string]map[int][]index.Occurrence),
	}
}

// NewDocument starts a new document and returns its number.
func (b *Builder) NewDocument(corpus, name string) int {
	b.docs = append(b.docs, index.Document{Name: name, Corpus: corpus})
	b.nextID = 0
	return len(b.docs) - 1
}

func (b *Builder) current() int {
	if len(b.docs) == 0 {
		b.NewDocument("", "")
	}
	return len(b.docs) - 1
}

// AddToken annotates the token at pos with terms. The document grows to
// cover pos.
func (b *Builder) AddToken(pos int, terms ...string) {
	doc := b.current()
	if pos+1 > b.docs[doc].Length {
		b.docs[doc].Length = pos + 1
	}
	for _, t := range terms {
		b.add(t, doc, index.Occurrence{Start: pos, End: pos + 1})
	}
}

// AddTokens annotates consecutive tokens starting at position 0; each entry
// holds the terms of one token separated by '|', e.g. "s:Baum|p:NN".
func (b *Builder) AddTokens(tokens ...string) {
	for i, tok := range tokens {
		b.AddToken(i, strings.Split(tok, "|")...)
	}
}

// AddElement records an element span [start, end) at the given nesting
// depth, together with its attributes. It returns the element id that links
// the attributes to the element.
func (b *Builder) AddElement(name string, start, end, depth int, attrs ...string) uint32 {
	doc := b.current()
	b.nextID++
	id := b.nextID
	if end > b.docs[doc].Length {
		b.docs[doc].Length = end
	}
	occ := index.Occurrence{Start: start, End: end, Depth: depth, ID: id}
	b.add(index.ElementTerm(name), doc, occ)
	for _, a := range attrs {
		b.add(index.AttributeTerm(a), doc, occ)
	}
	return id
}

// SetLength overrides the token length of the current document.
func (b *Builder) SetLength(n int) {
	b.docs[b.current()].Length = n
}

func (b *Builder) add(term string, doc int, occ index.Occurrence) {
	byDoc, ok := b.postings[term]
	if !ok {
		byDoc = make(map[int][]index.Occurrence)
		b.postings[term] = byDoc
	}
	byDoc[doc] = append(byDoc[doc], occ)
}

// Build freezes the accumulated documents into a segment with a fresh id.
func (b *Builder) Build() *Segment {
	postings := make(map[string][]index.DocPostings, len(b.postings))
	for term, byDoc := range b.postings {
		docs := make([]int, 0, len(byDoc))
		for d := range byDoc {
			docs = append(docs, d)
		}
		slices.Sort(docs)
		list := make([]index.DocPostings, 0, len(docs))
		for _, d := range docs {
			occs := slices.Clone(byDoc[d])
			index.SortOccurrences(occs)
			list = append(list, index.DocPostings{Doc: d, Occurrences: occs})
		}
		postings[term] = list
	}
	return NewSegment(uuid.New(), b.field, slices.Clone(b.docs), postings)
}
