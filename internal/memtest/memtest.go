// Package memtest provides shared test helpers for building memory-backed
// index segments. It eliminates the builder boilerplate that is otherwise
// duplicated across search, file segment and command tests.
package memtest

import (
	"strings"
	"testing"

	"spansearch/internal/corpus"
	"spansearch/internal/index/memory"
)

// Doc describes one document. Each entry of Tokens holds the terms of one
// position separated by '|', e.g. "s:Baum|p:NN".
type Doc struct {
	Corpus string
	Name   string
	Tokens []string
}

// Segment builds a memory segment holding docs in order.
func Segment(field string, docs ...Doc) *memory.Segment {
	b := memory.NewBuilder(field)
	for _, d := range docs {
		b.NewDocument(d.Corpus, d.Name)
		b.AddTokens(d.Tokens...)
		b.SetLength(len(d.Tokens))
	}
	return b.Build()
}

// MustCorpus builds a memory segment from corpus JSON documents, see
// package corpus. It calls t.Fatal on error.
func MustCorpus(t *testing.T, field, documents string) *memory.Segment {
	t.Helper()
	docs, err := corpus.Load(strings.NewReader(documents))
	if err != nil {
		t.Fatalf("memtest: load corpus: %v", err)
	}
	seg, err := corpus.Build(docs, field)
	if err != nil {
		t.Fatalf("memtest: build corpus: %v", err)
	}
	return seg
}
