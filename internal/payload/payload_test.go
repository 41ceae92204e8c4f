package payload

import (
	"bytes"
	"testing"
)

func TestClassRecordLayout(t *testing.T) {
	rec := ClassRecord{Start: 3, End: 7, Class: 2}
	got := rec.Encode()
	want := []byte{0, 0, 0, 0, 3, 0, 0, 0, 7, 2}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode() = %v, want %v", got, want)
	}

	back, ok := Decode(got)
	if !ok {
		t.Fatal("Decode rejected a 10-byte record")
	}
	if back != rec {
		t.Errorf("Decode() = %+v, want %+v", back, rec)
	}
}

func TestDecodeRejectsOtherLengths(t *testing.T) {
	for _, n := range []int{0, 4, 9, 11} {
		if _, ok := Decode(make([]byte, n)); ok {
			t.Errorf("Decode accepted %d bytes", n)
		}
	}
}

func TestIsClass(t *testing.T) {
	rec := ClassRecord{Start: 1, End: 2, Class: 5}.Encode()
	if !IsClass(rec, 5) {
		t.Error("expected class 5")
	}
	if IsClass(rec, 4) {
		t.Error("unexpected class 4")
	}
	if IsClass([]byte{5}, 5) {
		t.Error("short payload must not count as a class record")
	}
}

func TestClassesSkipsOpaque(t *testing.T) {
	list := [][]byte{
		{1, 2, 3},
		ClassRecord{Start: 0, End: 1, Class: 1}.Encode(),
		ClassRecord{Start: 2, End: 4, Class: 3}.Encode(),
	}
	got := Classes(list)
	if len(got) != 2 {
		t.Fatalf("expected 2 class records, got %d", len(got))
	}
	if got[1].Class != 3 || got[1].Start != 2 || got[1].End != 4 {
		t.Errorf("unexpected record %+v", got[1])
	}
}

func TestConcat(t *testing.T) {
	a := [][]byte{{1}}
	b := [][]byte{{2}, {3}}
	got := Concat(a, nil, b)
	if len(got) != 3 || got[2][0] != 3 {
		t.Fatalf("Concat() = %v", got)
	}
	got[0] = []byte{9}
	if a[0][0] != 1 {
		t.Error("Concat must not alias the input list")
	}
	if Concat(nil, nil) != nil {
		t.Error("Concat of empty lists should be nil")
	}
}
