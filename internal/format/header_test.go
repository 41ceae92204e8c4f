package format

import (
	"errors"
	"testing"
)

func TestHeaderEncode(t *testing.T) {
	h := Header{Type: TypePostings, Version: 1, Flags: FlagComplete}
	buf := h.Encode()

	want := [HeaderSize]byte{'s', 'P', 1, FlagComplete}
	if buf != want {
		t.Errorf("expected %v, got %v", want, buf)
	}

	into := make([]byte, 10)
	if n := h.EncodeInto(into); n != HeaderSize {
		t.Errorf("expected %d bytes written, got %d", HeaderSize, n)
	}
	if [HeaderSize]byte(into[:HeaderSize]) != want {
		t.Errorf("EncodeInto wrote %v", into[:HeaderSize])
	}
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		typ     byte
		version byte
		wantErr error
	}{
		{"valid", []byte{Signature, TypeDocuments, 1, FlagComplete}, TypeDocuments, 1, nil},
		{"valid compressed", []byte{Signature, TypePostings, 1, FlagComplete | FlagCompressed}, TypePostings, 1, nil},
		{"too small", []byte{Signature, TypeDocuments, 1}, TypeDocuments, 1, ErrHeaderTooSmall},
		{"signature", []byte{'i', TypeDocuments, 1, FlagComplete}, TypeDocuments, 1, ErrSignatureMismatch},
		{"type", []byte{Signature, TypeDictionary, 1, FlagComplete}, TypeDocuments, 1, ErrTypeMismatch},
		{"version", []byte{Signature, TypeDocuments, 1, FlagComplete}, TypeDocuments, 2, ErrVersionMismatch},
		{"incomplete", []byte{Signature, TypeDocuments, 1, 0}, TypeDocuments, 1, ErrIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := DecodeAndValidate(tt.buf, tt.typ, tt.version)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if err == nil && h.Type != tt.typ {
				t.Errorf("expected type 0x%02x, got 0x%02x", tt.typ, h.Type)
			}
		})
	}
}

func TestCompressed(t *testing.T) {
	if (Header{Flags: FlagComplete}).Compressed() {
		t.Error("plain header reported as compressed")
	}
	if !(Header{Flags: FlagComplete | FlagCompressed}).Compressed() {
		t.Error("compressed header not reported")
	}
}

func TestRoundTrip(t *testing.T) {
	original := Header{Type: TypeDictionary, Version: 5, Flags: 0xAB}
	buf := original.Encode()
	decoded, err := Decode(buf[:])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip failed: expected %+v, got %+v", original, decoded)
	}
}
