package koral

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// jsonNode is a read-only view on decoded JSON. Missing members yield a
// zero node, so lookups can be chained.
type jsonNode struct {
	v       any
	present bool
}

func decodeJSON(data []byte) (jsonNode, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return jsonNode{}, err
	}
	return wrap(v), nil
}

func wrap(v any) jsonNode { return jsonNode{v: v, present: true} }

// has reports whether the object node has the member key.
func (n jsonNode) has(key string) bool {
	m, ok := n.v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[key]
	return ok
}

func (n jsonNode) get(key string) jsonNode {
	m, ok := n.v.(map[string]any)
	if !ok {
		return jsonNode{}
	}
	v, ok := m[key]
	if !ok {
		return jsonNode{}
	}
	return wrap(v)
}

func (n jsonNode) index(i int) jsonNode {
	a, ok := n.v.([]any)
	if !ok || i < 0 || i >= len(a) {
		return jsonNode{}
	}
	return wrap(a[i])
}

func (n jsonNode) isArray() bool {
	_, ok := n.v.([]any)
	return ok
}

func (n jsonNode) size() int {
	switch v := n.v.(type) {
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	}
	return 0
}

func (n jsonNode) elements() []jsonNode {
	a, _ := n.v.([]any)
	out := make([]jsonNode, len(a))
	for i, v := range a {
		out[i] = wrap(v)
	}
	return out
}

// isValue reports whether the node is a scalar.
func (n jsonNode) isValue() bool {
	if !n.present {
		return false
	}
	switch n.v.(type) {
	case []any, map[string]any:
		return false
	}
	return true
}

// text returns the scalar as text. Containers and null yield "".
func (n jsonNode) text() string {
	switch v := n.v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// integer returns the node as an int, def when it has no integer reading.
// Fractions are truncated and numeric strings are parsed.
func (n jsonNode) integer(def int) int {
	var s string
	switch v := n.v.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = v
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return def
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return def
	}
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// boolean returns true for true, "true" and non-zero numbers.
func (n jsonNode) boolean() bool {
	switch v := n.v.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	}
	return false
}
