// Package matchid encodes and decodes match identifiers.
//
// A match identifier is a printable string naming one match:
//
//	match-[<corpus>!]<doc>-p<start>-<end>[(<class>)<start>-<end>]...
//
// An optional trailing "c..." section (character offsets) is accepted on
// decode and ignored.
package matchid

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	idRegex = regexp.MustCompile(
		`^match-(?:([^!]+?)!)?` +
			`([^!]+)-p([0-9]+)-([0-9]+)` +
			`((?:\(-?[0-9]+\)-?[0-9]+--?[0-9]+)*)` +
			`(?:c.+?)?$`)
	posRegex = regexp.MustCompile(`\(([0-9]+)\)([0-9]+)-([0-9]+)`)
)

// Position is a class-marked sub-span of a match.
type Position struct {
	Class int
	Start int
	End   int
}

// ID identifies a single match within a document.
type ID struct {
	corpusID  string
	docID     string
	start     int
	end       int
	positions []Position
}

// Decode parses a match identifier. It reports false when s does not match
// the identifier grammar. Sub-span entries carrying negative numbers are
// accepted by the grammar but dropped.
func Decode(s string) (ID, bool) {
	m := idRegex.FindStringSubmatch(s)
	if m == nil {
		return ID{}, false
	}
	var id ID
	id.SetCorpusID(m[1])
	id.SetDocID(m[2])
	id.SetStart(atoi(m[3]))
	id.SetEnd(atoi(m[4]))
	for _, p := range posRegex.FindAllStringSubmatch(m[5], -1) {
		id.AddPosition(atoi(p[2]), atoi(p[3]), atoi(p[1]))
	}
	return id, true
}

// New returns an identifier for the match [start, end) in doc.
// Invalid components are ignored the same way the setters ignore them.
func New(corpusID, docID string, start, end int) ID {
	var id ID
	id.SetCorpusID(corpusID)
	id.SetDocID(docID)
	id.SetStart(start)
	id.SetEnd(end)
	return id
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		// Only reachable on overflow; the grammar guarantees digits.
		return -1
	}
	return n
}

func (id ID) CorpusID() string      { return id.corpusID }
func (id ID) DocID() string         { return id.docID }
func (id ID) Start() int            { return id.start }
func (id ID) End() int              { return id.end }
func (id ID) Positions() []Position { return id.positions }
func (id ID) HasPositions() bool    { return len(id.positions) > 0 }
func (id ID) Valid() bool           { return id.docID != "" }

// SetCorpusID sets the corpus id. Ids containing '!' are ignored.
func (id *ID) SetCorpusID(s string) {
	if !strings.Contains(s, "!") {
		id.corpusID = s
	}
}

// SetDocID sets the document id. Ids containing '!' are ignored.
func (id *ID) SetDocID(s string) {
	if !strings.Contains(s, "!") {
		id.docID = s
	}
}

// SetStart sets the start position. Negative values are ignored.
func (id *ID) SetStart(pos int) {
	if pos >= 0 {
		id.start = pos
	}
}

// SetEnd sets the end position. Negative values are ignored.
func (id *ID) SetEnd(pos int) {
	if pos >= 0 {
		id.end = pos
	}
}

// AddPosition appends a class-marked sub-span. Entries with any negative
// component are ignored.
func (id *ID) AddPosition(start, end, class int) {
	if start < 0 || end < 0 || class < 0 {
		return
	}
	id.positions = append(id.positions, Position{Class: class, Start: start, End: end})
}

// String encodes the identifier. An identifier without a document id is not
// encodable and yields the empty string.
func (id ID) String() string {
	if id.docID == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("match-")
	if id.corpusID != "" {
		sb.WriteString(id.corpusID)
		sb.WriteByte('!')
	}
	sb.WriteString(id.docID)
	sb.WriteString("-p")
	sb.WriteString(strconv.Itoa(id.start))
	sb.WriteByte('-')
	sb.WriteString(strconv.Itoa(id.end))
	for _, p := range id.positions {
		sb.WriteByte('(')
		sb.WriteString(strconv.Itoa(p.Class))
		sb.WriteByte(')')
		sb.WriteString(strconv.Itoa(p.Start))
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(p.End))
	}
	return sb.String()
}
