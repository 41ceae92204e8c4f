// Package inverted provides encode/decode for the term dictionary and the
// occurrence posting lists of a segment.
//
// A segment is stored as two byte sequences. The dictionary is:
//
//	[entry_count:u32][string_table]
//
// String table entry, ordered by term:
//
//	[term_len:u16][term_bytes][posting_offset:u32][posting_size:u32][doc_count:u32]
//
// The posting blob concatenates one posting list per term. A posting list is
// doc_count document records:
//
//	[doc:u32][occurrence_count:u32][occurrences]
//
// and each occurrence is:
//
//	[start:u32][end:u32][depth:u16][id:u32][payload_len:u16][payload_bytes]
//
// Posting lists are decoded on demand from (offset, size) references, so a
// reader only touches the parts of the blob a query asks for.
package inverted

import (
	"encoding/binary"
	"errors"
	"math"
	"slices"
	"strings"

	"spansearch/internal/index"
)

// Size constants for binary format.
const (
	StringLenSize     = 2
	PostingOffsetSize = 4
	PostingSizeSize   = 4
	DocCountSize      = 4
	EntryCountSize    = 4

	DocSize             = 4
	OccurrenceCountSize = 4
	PositionSize        = 4
	DepthSize           = 2
	IDSize              = 4
	PayloadLenSize      = 2
)

var (
	ErrIndexTooSmall       = errors.New("index too small")
	ErrStringSizeMismatch  = errors.New("string table size mismatch")
	ErrPostingSizeMismatch = errors.New("posting list size mismatch")
	ErrTermTooLong         = errors.New("term too long")
	ErrPayloadTooLong      = errors.New("payload too long")
	ErrUnsorted            = errors.New("entries not ordered by term")
)

// Entry is one term with its posting list.
type Entry struct {
	Term     string
	Postings []index.DocPostings
}

// Ref locates the posting list of a term inside the posting blob.
type Ref struct {
	Offset   uint32
	Size     uint32
	DocCount uint32
}

// Encode encodes entries, which must be ordered by term, into a dictionary
// and a posting blob.
func Encode(entries []Entry) (dict, blob []byte, err error) {
	tableSize := 0
	for i, e := range entries {
		if len(e.Term) > math.MaxUint16 {
			return nil, nil, ErrTermTooLong
		}
		if i > 0 && entries[i-1].Term >= e.Term {
			return nil, nil, ErrUnsorted
		}
		tableSize += StringLenSize + len(e.Term) + PostingOffsetSize + PostingSizeSize + DocCountSize
	}

	dict = make([]byte, EntryCountSize, EntryCountSize+tableSize)
	binary.LittleEndian.PutUint32(dict, uint32(len(entries)))

	for _, e := range entries {
		offset := len(blob)
		if blob, err = AppendPostings(blob, e.Postings); err != nil {
			return nil, nil, err
		}

		dict = binary.LittleEndian.AppendUint16(dict, uint16(len(e.Term)))
		dict = append(dict, e.Term...)
		dict = binary.LittleEndian.AppendUint32(dict, uint32(offset))
		dict = binary.LittleEndian.AppendUint32(dict, uint32(len(blob)-offset))
		dict = binary.LittleEndian.AppendUint32(dict, uint32(len(e.Postings)))
	}
	return dict, blob, nil
}

// AppendPostings appends the encoding of one posting list to buf.
func AppendPostings(buf []byte, list []index.DocPostings) ([]byte, error) {
	for _, dp := range list {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(dp.Doc))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(dp.Occurrences)))
		for _, o := range dp.Occurrences {
			if len(o.Payload) > math.MaxUint16 {
				return nil, ErrPayloadTooLong
			}
			buf = binary.LittleEndian.AppendUint32(buf, uint32(o.Start))
			buf = binary.LittleEndian.AppendUint32(buf, uint32(o.End))
			buf = binary.LittleEndian.AppendUint16(buf, uint16(o.Depth))
			buf = binary.LittleEndian.AppendUint32(buf, o.ID)
			buf = binary.LittleEndian.AppendUint16(buf, uint16(len(o.Payload)))
			buf = append(buf, o.Payload...)
		}
	}
	return buf, nil
}

// DecodePostings decodes a posting list of docCount documents.
func DecodePostings(data []byte, docCount int) ([]index.DocPostings, error) {
	const occFixed = PositionSize + PositionSize + DepthSize + IDSize + PayloadLenSize

	list := make([]index.DocPostings, 0, docCount)
	cursor := 0
	for range docCount {
		if cursor+DocSize+OccurrenceCountSize > len(data) {
			return nil, ErrPostingSizeMismatch
		}
		doc := int(binary.LittleEndian.Uint32(data[cursor:]))
		cursor += DocSize
		n := int(binary.LittleEndian.Uint32(data[cursor:]))
		cursor += OccurrenceCountSize

		occs := make([]index.Occurrence, n)
		for i := range occs {
			if cursor+occFixed > len(data) {
				return nil, ErrPostingSizeMismatch
			}
			o := &occs[i]
			o.Start = int(binary.LittleEndian.Uint32(data[cursor:]))
			cursor += PositionSize
			o.End = int(binary.LittleEndian.Uint32(data[cursor:]))
			cursor += PositionSize
			o.Depth = int(binary.LittleEndian.Uint16(data[cursor:]))
			cursor += DepthSize
			o.ID = binary.LittleEndian.Uint32(data[cursor:])
			cursor += IDSize
			plen := int(binary.LittleEndian.Uint16(data[cursor:]))
			cursor += PayloadLenSize
			if plen > 0 {
				if cursor+plen > len(data) {
					return nil, ErrPostingSizeMismatch
				}
				o.Payload = slices.Clone(data[cursor : cursor+plen])
				cursor += plen
			}
		}
		list = append(list, index.DocPostings{Doc: doc, Occurrences: occs})
	}
	if cursor != len(data) {
		return nil, ErrPostingSizeMismatch
	}
	return list, nil
}

// Dictionary is a decoded term dictionary.
type Dictionary struct {
	terms []string
	refs  []Ref
}

// DecodeDictionary decodes a dictionary produced by Encode. blobSize is the
// size of the matching posting blob; references beyond it are rejected.
func DecodeDictionary(data []byte, blobSize int) (*Dictionary, error) {
	if len(data) < EntryCountSize {
		return nil, ErrIndexTooSmall
	}
	entryCount := int(binary.LittleEndian.Uint32(data))

	d := &Dictionary{
		terms: make([]string, 0, entryCount),
		refs:  make([]Ref, 0, entryCount),
	}
	cursor := EntryCountSize
	for range entryCount {
		if cursor+StringLenSize > len(data) {
			return nil, ErrStringSizeMismatch
		}
		termLen := int(binary.LittleEndian.Uint16(data[cursor:]))
		cursor += StringLenSize
		if cursor+termLen+PostingOffsetSize+PostingSizeSize+DocCountSize > len(data) {
			return nil, ErrStringSizeMismatch
		}
		term := string(data[cursor : cursor+termLen])
		cursor += termLen

		var r Ref
		r.Offset = binary.LittleEndian.Uint32(data[cursor:])
		cursor += PostingOffsetSize
		r.Size = binary.LittleEndian.Uint32(data[cursor:])
		cursor += PostingSizeSize
		r.DocCount = binary.LittleEndian.Uint32(data[cursor:])
		cursor += DocCountSize

		if int(r.Offset)+int(r.Size) > blobSize {
			return nil, ErrPostingSizeMismatch
		}
		d.terms = append(d.terms, term)
		d.refs = append(d.refs, r)
	}
	if cursor != len(data) {
		return nil, ErrStringSizeMismatch
	}
	return d, nil
}

// Len returns the number of terms.
func (d *Dictionary) Len() int { return len(d.terms) }

// Lookup returns the posting reference of term.
func (d *Dictionary) Lookup(term string) (Ref, bool) {
	i, ok := slices.BinarySearch(d.terms, term)
	if !ok {
		return Ref{}, false
	}
	return d.refs[i], true
}

// Terms calls fn for every term with the given prefix in lexical order
// until fn returns false.
func (d *Dictionary) Terms(prefix string, fn func(term string) bool) {
	i, _ := slices.BinarySearch(d.terms, prefix)
	for ; i < len(d.terms); i++ {
		if !strings.HasPrefix(d.terms[i], prefix) || !fn(d.terms[i]) {
			return
		}
	}
}
