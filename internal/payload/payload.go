// Package payload encodes the fixed-size class payload records that span
// iterators attach to matches.
//
// Layout (10 bytes, big-endian):
//
//	marker (1 byte, always 0)
//	start  (4 bytes, signed)
//	end    (4 bytes, signed)
//	class  (1 byte)
//
// The trailing class byte is how focus operations find the sub-span a class
// operator marked. Payloads of other lengths are opaque and passed through.
package payload

import "encoding/binary"

// Size is the encoded length of a class record.
const Size = 10

const (
	markerOffset = 0
	startOffset  = 1
	endOffset    = 5
	classOffset  = 9
)

// ClassRecord marks the sub-span [Start, End) as belonging to Class.
type ClassRecord struct {
	Start int32
	End   int32
	Class uint8
}

// Encode returns the 10-byte wire form of the record.
func (c ClassRecord) Encode() []byte {
	buf := make([]byte, Size)
	buf[markerOffset] = 0
	binary.BigEndian.PutUint32(buf[startOffset:], uint32(c.Start))
	binary.BigEndian.PutUint32(buf[endOffset:], uint32(c.End))
	buf[classOffset] = c.Class
	return buf
}

// Decode parses a class record. It reports false for buffers that are not
// exactly Size bytes long.
func Decode(b []byte) (ClassRecord, bool) {
	if len(b) != Size {
		return ClassRecord{}, false
	}
	return ClassRecord{
		Start: int32(binary.BigEndian.Uint32(b[startOffset:])),
		End:   int32(binary.BigEndian.Uint32(b[endOffset:])),
		Class: b[classOffset],
	}, true
}

// IsClass reports whether b is a class record for the given class number.
func IsClass(b []byte, class uint8) bool {
	return len(b) == Size && b[classOffset] == class
}

// Classes decodes every class record in list, skipping opaque payloads.
func Classes(list [][]byte) []ClassRecord {
	var out []ClassRecord
	for _, b := range list {
		if rec, ok := Decode(b); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Concat returns a fresh list holding the payloads of every argument in order.
// The byte slices themselves are shared; callers never mutate payload bytes.
func Concat(lists ...[][]byte) [][]byte {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	if n == 0 {
		return nil
	}
	out := make([][]byte, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
