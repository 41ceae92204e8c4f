// Package format provides the binary file header shared by segment files.
package format

import "errors"

// Header layout (4 bytes):
//
//	signature (1 byte, 's' = 0x73)
//	type (1 byte, identifies the file)
//	version (1 byte)
//	flags (1 byte)
//
// Type codes:
//
//	'T' = term dictionary
//	'P' = posting blob
//	'D' = document table
const (
	Signature  = 's'
	HeaderSize = 4

	TypeDictionary = 'T'
	TypePostings   = 'P'
	TypeDocuments  = 'D'

	// FlagComplete marks a file that was fully written.
	FlagComplete = 0x01
	// FlagCompressed marks a body stored as seekable zstd frames.
	FlagCompressed = 0x02
)

var (
	ErrHeaderTooSmall    = errors.New("header too small")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrVersionMismatch   = errors.New("version mismatch")
	ErrIncomplete        = errors.New("incomplete file")
)

// Header represents the common 4-byte header.
type Header struct {
	Type    byte
	Version byte
	Flags   byte
}

// Encode writes the header to a 4-byte array.
func (h Header) Encode() [HeaderSize]byte {
	return [HeaderSize]byte{Signature, h.Type, h.Version, h.Flags}
}

// EncodeInto writes the header into buf at offset 0 and returns HeaderSize.
func (h Header) EncodeInto(buf []byte) int {
	buf[0] = Signature
	buf[1] = h.Type
	buf[2] = h.Version
	buf[3] = h.Flags
	return HeaderSize
}

// Compressed reports whether FlagCompressed is set.
func (h Header) Compressed() bool { return h.Flags&FlagCompressed != 0 }

// Decode reads a header from buf.
func Decode(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrHeaderTooSmall
	}
	if buf[0] != Signature {
		return Header{}, ErrSignatureMismatch
	}
	return Header{
		Type:    buf[1],
		Version: buf[2],
		Flags:   buf[3],
	}, nil
}

// DecodeAndValidate reads a header and checks its type, its version and
// the completion flag.
func DecodeAndValidate(buf []byte, expectedType, expectedVersion byte) (Header, error) {
	h, err := Decode(buf)
	if err != nil {
		return Header{}, err
	}
	if h.Type != expectedType {
		return Header{}, ErrTypeMismatch
	}
	if h.Version != expectedVersion {
		return Header{}, ErrVersionMismatch
	}
	if h.Flags&FlagComplete == 0 {
		return Header{}, ErrIncomplete
	}
	return h, nil
}
