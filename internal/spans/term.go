package spans

import (
	"spansearch/internal/index"
	"spansearch/internal/payload"
)

// termSpans enumerates the occurrences of one indexed term.
type termSpans struct {
	postings index.Postings
	occs     []index.Occurrence
	idx      int
	doc      int
	done     bool
}

func newTermSpans(p index.Postings) *termSpans {
	return &termSpans{postings: p, idx: -1, doc: -1}
}

func (t *termSpans) Next() (bool, error) {
	if t.done {
		return false, nil
	}
	if t.idx+1 < len(t.occs) {
		t.idx++
		return true, nil
	}
	ok, err := t.postings.NextDoc()
	return t.enter(ok, err)
}

func (t *termSpans) SkipTo(target int) (bool, error) {
	if t.done {
		return false, nil
	}
	if t.idx+1 < len(t.occs) && t.doc >= target {
		t.idx++
		return true, nil
	}
	ok, err := t.postings.Advance(target)
	return t.enter(ok, err)
}

// enter positions on the first occurrence of the posting cursor's document.
func (t *termSpans) enter(ok bool, err error) (bool, error) {
	for ok && err == nil {
		t.occs = t.postings.Occurrences()
		t.doc = t.postings.Doc()
		t.idx = 0
		if len(t.occs) > 0 {
			return true, nil
		}
		ok, err = t.postings.NextDoc()
	}
	t.done = true
	t.occs = nil
	t.doc = -1
	return false, err
}

func (t *termSpans) occ() index.Occurrence {
	if t.idx < 0 || t.idx >= len(t.occs) {
		return index.Occurrence{Start: -1, End: -1}
	}
	return t.occs[t.idx]
}

func (t *termSpans) Doc() int   { return t.doc }
func (t *termSpans) Start() int { return t.occ().Start }
func (t *termSpans) End() int   { return t.occ().End }
func (t *termSpans) id() uint32 { return t.occ().ID }

func (t *termSpans) Payloads() [][]byte {
	if p := t.occ().Payload; len(p) > 0 {
		return [][]byte{p}
	}
	return nil
}

func (t *termSpans) Cost() int64 { return t.postings.Cost() }

// anySpans enumerates every run of lo to hi tokens in every document.
// A non-zero class tags each run with its own range. An inverted range
// never matches.
func anySpans(seg index.Segment, lo, hi int, class uint8) Spans {
	lo = max1(lo)
	if hi < lo {
		return emptySpans{}
	}
	n := seg.NumDocs()
	next := 0
	load := func(target int) ([]Match, error) {
		for doc := max(target, next); doc < n; doc++ {
			next = doc + 1
			d, err := seg.Document(doc)
			if err != nil {
				return nil, err
			}
			var out []Match
			for start := 0; start+lo <= d.Length; start++ {
				for w := lo; w <= hi && start+w <= d.Length; w++ {
					m := Match{Doc: doc, Start: start, End: start + w}
					if class > 0 {
						m.Payloads = [][]byte{classPayload(start, start+w, class)}
					}
					out = append(out, m)
				}
			}
			if len(out) > 0 {
				return out, nil
			}
		}
		next = n
		return nil, nil
	}
	return newBuffered(load, int64(n))
}

func classPayload(start, end int, class uint8) []byte {
	return payload.ClassRecord{Start: int32(start), End: int32(end), Class: class}.Encode()
}

// max1 treats a zero lower bound as one: zero-width matches are never
// enumerated.
func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
