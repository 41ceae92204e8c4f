// Package corpus loads annotated documents and builds index segments from
// them.
//
// Documents are JSON objects, read either as one array or as a stream of
// concatenated objects:
//
//	{
//	  "corpus": "WPD",
//	  "id": "AAA.00001",
//	  "tokens": [{"terms": ["s:Der", "i:der", "tt/p:ART"]}, ...],
//	  "elements": [{"name": "s", "start": 0, "end": 5, "attributes": ["type:main"]}]
//	}
//
// A document may give plain "text" instead of "tokens"; it is then split
// by the tokenizer and every token indexed on the s and i layers.
// Every document is checked against an embedded JSON schema before it is
// decoded.
package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"spansearch/internal/index/memory"
	"spansearch/internal/tokenizer"

	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrInvalidElement = errors.New("invalid element")
	ErrNoDocuments    = errors.New("no documents")
)

// Document is one annotated text.
type Document struct {
	Corpus   string    `json:"corpus"`
	ID       string    `json:"id"`
	Text     string    `json:"text,omitempty"`
	Tokens   []Token   `json:"tokens,omitempty"`
	Elements []Element `json:"elements,omitempty"`
}

// Token holds the terms indexed at one position.
type Token struct {
	Terms []string `json:"terms"`
}

// Element is a structural span over token positions [Start, End).
type Element struct {
	Name       string   `json:"name"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Depth      int      `json:"depth,omitempty"`
	Attributes []string `json:"attributes,omitempty"`
}

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id"],
  "properties": {
    "corpus": {"type": "string"},
    "id": {"type": "string", "minLength": 1},
    "text": {"type": "string"},
    "tokens": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["terms"],
        "properties": {
          "terms": {"type": "array", "items": {"type": "string", "minLength": 1}}
        }
      }
    },
    "elements": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "start", "end"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "start": {"type": "integer", "minimum": 0},
          "end": {"type": "integer", "minimum": 0},
          "depth": {"type": "integer", "minimum": 0},
          "attributes": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  },
  "anyOf": [{"required": ["tokens"]}, {"required": ["text"]}]
}`

var schema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		panic("corpus: invalid document schema: " + err.Error())
	}
	return s
}()

// ValidationError lists every schema violation of a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "document invalid against schema: " + strings.Join(e.Problems, "; ")
}

// Validate checks one JSON document against the document schema.
func Validate(data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	ve := &ValidationError{}
	for _, desc := range result.Errors() {
		ve.Problems = append(ve.Problems, desc.String())
	}
	return ve
}

// Load reads documents from r. Every document is validated before it is
// decoded; the first invalid one aborts loading.
func Load(r io.Reader) ([]Document, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoDocuments
		}
		return nil, err
	}

	dec := json.NewDecoder(br)
	var raws []json.RawMessage
	if first == '[' {
		if err := dec.Decode(&raws); err != nil {
			return nil, fmt.Errorf("decode documents: %w", err)
		}
	} else {
		for {
			var raw json.RawMessage
			err := dec.Decode(&raw)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("document %d: %w", len(raws), err)
			}
			raws = append(raws, raw)
		}
	}
	if len(raws) == 0 {
		return nil, ErrNoDocuments
	}

	docs := make([]Document, 0, len(raws))
	for i, raw := range raws {
		if err := Validate(raw); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		var d Document
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// TokenTerms returns the terms of every token of d, tokenizing Text when
// no tokens are given.
func (d *Document) TokenTerms() [][]string {
	if len(d.Tokens) > 0 || d.Text == "" {
		out := make([][]string, len(d.Tokens))
		for i, t := range d.Tokens {
			out[i] = t.Terms
		}
		return out
	}
	var out [][]string
	tokenizer.IterTokens(d.Text, func(t tokenizer.Token) bool {
		out = append(out, t.Terms())
		return true
	})
	return out
}

// Build indexes docs into an in-memory segment for field.
func Build(docs []Document, field string) (*memory.Segment, error) {
	b := memory.NewBuilder(field)
	for _, d := range docs {
		if err := Add(b, d); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Add appends one document to b.
func Add(b *memory.Builder, d Document) error {
	tokens := d.TokenTerms()
	for _, e := range d.Elements {
		if e.Start < 0 || e.End <= e.Start || e.End > len(tokens) {
			return fmt.Errorf("%w: %s/%s <%s> [%d, %d) outside [0, %d)",
				ErrInvalidElement, d.Corpus, d.ID, e.Name, e.Start, e.End, len(tokens))
		}
	}

	b.NewDocument(d.Corpus, d.ID)
	for pos, terms := range tokens {
		b.AddToken(pos, terms...)
	}
	b.SetLength(len(tokens))
	for _, e := range d.Elements {
		b.AddElement(e.Name, e.Start, e.End, e.Depth, e.Attributes...)
	}
	return nil
}
