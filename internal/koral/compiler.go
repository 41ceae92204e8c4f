// Package koral compiles KoralQuery JSON documents into span algebra trees.
//
// Compilation is strict about structure and lenient about legacy forms:
// structural problems abort with a *QueryError carrying a status code, while
// deprecated shapes (korap: types, frame, class, top-level min/max,
// operation:submatch) are accepted and reported as messages with code 0.
// Unsupported but harmless features produce warnings.
package koral

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"spansearch/internal/algebra"
	"spansearch/internal/logging"
)

// MaxClass is the highest class number a query may use.
const MaxClass = 255

// Bounds of repetitions and distances.
const (
	minBound = 0
	maxBound = 100
)

// Compiler translates KoralQuery documents for one index field.
// A Compiler is safe for concurrent use.
type Compiler struct {
	field  string
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger; compilation logs one record per query.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// New returns a compiler for queries against field.
func New(field string, opts ...Option) *Compiler {
	c := &Compiler{field: field}
	for _, o := range opts {
		o(c)
	}
	c.logger = logging.Default(c.logger).With("component", "koral-compiler")
	return c
}

// Field returns the index field queries are compiled for.
func (c *Compiler) Field() string { return c.field }

// Result is a compiled query with the notifications raised on the way.
type Result struct {
	Node          *algebra.Node
	Notifications Notifications
}

// Compile compiles a KoralQuery document, either bare or wrapped in
// {"query": ...}.
//
// On failure the error is a *QueryError and the returned Result, which is
// never nil, holds the notifications including the error itself.
func (c *Compiler) Compile(data []byte) (*Result, error) {
	root, err := decodeJSON(data)
	if err != nil {
		c.logger.Debug("unparseable query", "error", err)
		return c.fail(nil, newQueryError(StatusUnableToParseJSON, "Unable to parse JSON"))
	}
	if !root.has("@type") && root.has("query") {
		root = root.get("query")
	}

	start := time.Now()
	st := &compilation{field: c.field}
	n, err := st.fromJSON(root)
	if err == nil {
		n, err = st.finalize(n)
	}
	if err != nil {
		return c.fail(st.notes, err)
	}

	c.logger.Debug("query compiled",
		"query", n.String(),
		"warnings", len(st.notes.Warnings()),
		"duration", time.Since(start))
	return &Result{Node: n, Notifications: st.notes}, nil
}

// CompileValue compiles an already decoded JSON value.
func (c *Compiler) CompileValue(v any) (*Result, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return c.fail(nil, newQueryError(StatusUnableToParseJSON, "Unable to parse JSON"))
	}
	return c.Compile(data)
}

func (c *Compiler) fail(notes Notifications, err error) (*Result, error) {
	var qe *QueryError
	if errors.As(err, &qe) {
		notes.add(SeverityError, qe.Code, qe.Message)
		c.logger.Debug("query rejected", "code", qe.Code, "error", qe.Message)
	}
	return &Result{Node: algebra.Null(), Notifications: notes}, err
}

// compilation holds the state of one Compile call.
type compilation struct {
	field string
	notes Notifications
}

// finalize checks the root of the tree.
func (s *compilation) finalize(n *algebra.Node) (*algebra.Node, error) {
	switch {
	case n.IsNull():
		return nil, newQueryError(StatusMatchesNowhere, "This query can't match anywhere")
	case n.IsEmpty():
		return nil, newQueryError(StatusMatchesEverywhere, "This query matches everywhere")
	}
	if n.IsOptional() {
		s.notes.addWarning(StatusIgnoredOptionality, "Optionality of query is ignored")
		n = n.Required()
	}
	if n.IsNegative() {
		s.notes.addWarning(StatusIgnoredExclusivity, "Exclusivity of query is ignored")
	}
	return n, nil
}

// typeOf returns the @type of n with the legacy korap: prefix mapped to
// koral:.
func typeOf(n jsonNode) string {
	t := n.get("@type").text()
	if rest, ok := strings.CutPrefix(t, "korap:"); ok {
		return "koral:" + rest
	}
	return t
}

func missingType() error {
	return newQueryError(StatusMissingType, "JSON-LD group has no @type attribute")
}

func (s *compilation) fromJSON(n jsonNode) (*algebra.Node, error) {
	if !n.has("@type") {
		return nil, missingType()
	}

	switch typeOf(n) {
	case "koral:group":
		return s.group(n)
	case "koral:reference":
		return s.reference(n)
	case "koral:token":
		// A token without a wrapped term is [].
		if !n.has("wrap") {
			return algebra.Empty(), nil
		}
		return s.token(n.get("wrap"))
	case "koral:span":
		return s.term(n)
	}
	return nil, newQueryError(StatusUnsupportedQuery, "Query type is not supported")
}

func (s *compilation) reference(n jsonNode) (*algebra.Node, error) {
	if n.has("operation") && n.get("operation").text() != "operation:focus" {
		return nil, newQueryError(StatusUnknownReferenceOp, "Unknown reference operation")
	}
	if !n.has("operands") {
		return nil, newQueryError(StatusPeripheralReference, "Peripheral references are currently not supported")
	}
	ops := n.get("operands")
	if !ops.isArray() || ops.size() == 0 {
		return nil, newQueryError(StatusMissingOperands, "Operation needs operand list")
	}
	if ops.size() != 1 {
		return nil, operandCount()
	}

	class := 1
	switch {
	case n.has("classRef"):
		if n.has("classRefOp") {
			return nil, newQueryError(StatusUnsupportedClassRefOp, "Class reference operators are currently not supported")
		}
		class = n.get("classRef").index(0).integer(0)
		if class < 0 || class > MaxClass {
			return nil, classExceeded()
		}

	case n.has("spanRef"):
		ref := n.get("spanRef")
		if !ref.isArray() || ref.size() == 0 {
			return nil, newQueryError(StatusInvalidSpanReference,
				"Span references expect a start position and a length parameter")
		}
		length := 0
		if ref.size() > 1 {
			length = ref.index(1).integer(0)
		}
		offset := ref.index(0).integer(0)
		op, err := s.fromJSON(ops.index(0))
		if err != nil {
			return nil, err
		}
		return algebra.SubSpan(op, offset, length), nil
	}

	op, err := s.fromJSON(ops.index(0))
	if err != nil {
		return nil, err
	}
	return algebra.Reference(uint8(class), op), nil
}

func operandCount() error {
	return newQueryError(StatusOperandCount, "Number of operands is not acceptable")
}

func classExceeded() error {
	return newQueryError(StatusClassNumberExceeded, "Valid class numbers exceeded")
}

func (s *compilation) group(n jsonNode) (*algebra.Node, error) {
	if !n.has("operation") {
		return nil, newQueryError(StatusMissingOperation, "Group expects operation")
	}
	op := n.get("operation").text()

	ops := n.get("operands")
	if !ops.isArray() {
		return nil, newQueryError(StatusMissingOperands, "Operation needs operand list")
	}

	switch op {
	case "operation:junction", "operation:or":
		return s.junction(ops)
	case "operation:position":
		return s.position(n, ops)
	case "operation:sequence":
		return s.sequence(n, ops)
	case "operation:class":
		return s.class(n, ops)
	case "operation:repetition":
		return s.repetition(n, ops)
	case "operation:submatch":
		return s.submatch(n, ops)
	case "operation:relation":
		return nil, newQueryError(StatusUnsupportedRelations, "Relations are currently not supported")
	}
	return nil, newQueryError(StatusUnknownGroupOperation, "Unknown group operation")
}

func (s *compilation) junction(ops jsonNode) (*algebra.Node, error) {
	alt := algebra.NewAlternation(s.field)
	for _, o := range ops.elements() {
		n, err := s.fromJSON(o)
		if err != nil {
			return nil, err
		}
		alt.Or(n)
	}
	return alt.Node(), nil
}

// frames maps lowercased frame keywords to relations.
var frames = map[string]algebra.Relation{
	"isaround":         algebra.Within,
	"iswithin":         algebra.Within,
	"strictlycontains": algebra.RealWithin,
	"startswith":       algebra.StartsWith,
	"endswith":         algebra.EndsWith,
	"matches":          algebra.Match,
	"overlaps":         algebra.Overlap,
	"overlapsleft":     algebra.Overlap,
	"overlapsright":    algebra.Overlap,
	"strictlyoverlaps": algebra.RealOverlap,
}

// frameKeyword strips the namespace of a frame value: frames:isAround.
func frameKeyword(v string) string {
	if i := strings.IndexByte(v, ':'); i >= 0 {
		v = v[i+1:]
	}
	return strings.ToLower(v)
}

func (s *compilation) position(n, ops jsonNode) (*algebra.Node, error) {
	if ops.size() != 2 {
		return nil, operandCount()
	}

	frame := "isaround"
	if n.has("frames") {
		if f := n.get("frames"); f.isArray() {
			if first := f.index(0); first.isValue() {
				frame = frameKeyword(first.text())
			}
		}
	} else if n.has("frame") {
		s.notes.addMessage(0, "Frame is deprecated")
		if f := n.get("frame"); f.isValue() {
			frame = frameKeyword(f.text())
		}
	}

	rel, ok := frames[frame]
	if !ok {
		return nil, newQueryError(StatusUnknownFrame, "Frame type is unknown")
	}
	if strings.HasPrefix(frame, "overlaps") {
		// The overlap variants share one relation for now.
		s.notes.addWarning(StatusOverlapVariant, "Overlap variant currently interpreted as overlap")
	}

	if n.get("exclude").boolean() {
		return nil, newQueryError(StatusUnsupportedExclusion,
			"Exclusion is currently not supported in position operations")
	}

	outer, err := s.fromJSON(ops.index(0))
	if err != nil {
		return nil, err
	}
	inner, err := s.fromJSON(ops.index(1))
	if err != nil {
		return nil, err
	}
	return algebra.Position(rel, outer, inner), nil
}

// boundary reads a koral:boundary object.
func boundary(n jsonNode, defLo, defHi int) (int, int, error) {
	if !n.has("@type") {
		return 0, 0, missingType()
	}
	if typeOf(n) != "koral:boundary" {
		return 0, 0, newQueryError(StatusInvalidBoundary, "Boundary definition is invalid")
	}
	lo, hi := defLo, defHi
	if n.has("min") {
		lo = n.get("min").integer(defLo)
	}
	if n.has("max") {
		hi = n.get("max").integer(defHi)
	}
	return lo, hi, nil
}

// legacyBounds reads min and max members set directly on n.
func legacyBounds(n jsonNode, lo, hi int) (int, int) {
	if n.has("min") {
		lo = n.get("min").integer(lo)
	}
	if n.has("max") {
		hi = n.get("max").integer(hi)
	}
	return lo, hi
}

func (s *compilation) repetition(n, ops jsonNode) (*algebra.Node, error) {
	if ops.size() != 1 {
		return nil, operandCount()
	}

	lo, hi := minBound, maxBound
	if n.has("boundary") {
		var err error
		if lo, hi, err = boundary(n.get("boundary"), minBound, maxBound); err != nil {
			return nil, err
		}
	} else if n.has("min") || n.has("max") {
		s.notes.addMessage(0, "Setting boundary by min and max is deprecated")
		lo, hi = legacyBounds(n, lo, hi)
	}

	// An out of range maximum falls back to the default rather than the
	// nearest bound. A minimum above the maximum is kept as is.
	if hi < minBound || hi > maxBound {
		hi = maxBound
	}
	lo = clamp(lo)

	op, err := s.fromJSON(ops.index(0))
	if err != nil {
		return nil, err
	}
	return algebra.Repetition(op, lo, hi), nil
}

func clamp(v int) int { return min(max(v, minBound), maxBound) }

func (s *compilation) class(n, ops jsonNode) (*algebra.Node, error) {
	if ops.size() != 1 {
		return nil, operandCount()
	}

	class := 1
	if n.has("classOut") {
		class = n.get("classOut").integer(0)
	} else if n.has("class") {
		s.notes.addMessage(0, "Class is deprecated")
		class = n.get("class").integer(0)
	}

	if n.has("classRefCheck") {
		s.notes.addWarning(StatusUnsupportedClassRefCheck,
			"Class reference checks are currently not supported - results may not be correct")
	}
	if n.has("classRefOp") {
		return nil, newQueryError(StatusUnsupportedClassRefOp, "Class reference operators are currently not supported")
	}
	if class <= 0 {
		return nil, newQueryError(StatusMissingClass, "Class attribute missing")
	}
	if class > MaxClass {
		return nil, classExceeded()
	}

	op, err := s.fromJSON(ops.index(0))
	if err != nil {
		return nil, err
	}
	return algebra.Class(uint8(class), op), nil
}

// submatch is the predecessor of koral:reference.
func (s *compilation) submatch(n, ops jsonNode) (*algebra.Node, error) {
	s.notes.addMessage(0, "operation:submatch is deprecated")
	if ops.size() != 1 {
		return nil, operandCount()
	}

	class := 1
	if n.has("classRef") {
		if n.has("classRefOp") {
			return nil, newQueryError(StatusUnsupportedClassRefOp, "Class reference operators are currently not supported")
		}
		class = n.get("classRef").index(0).integer(0)
		if class < 0 || class > MaxClass {
			return nil, classExceeded()
		}
	} else if n.has("spanRef") {
		return nil, newQueryError(StatusUnsupportedSpanRef, "Span references are currently not supported")
	}

	op, err := s.fromJSON(ops.index(0))
	if err != nil {
		return nil, err
	}
	return algebra.Reference(uint8(class), op), nil
}

func (s *compilation) sequence(n, ops jsonNode) (*algebra.Node, error) {
	if ops.size() == 1 {
		return s.fromJSON(ops.index(0))
	}

	seq := algebra.NewSequence(s.field)
	if n.has("inOrder") {
		seq.SetInOrder(n.get("inOrder").boolean())
	}

	// Constraints capture the order flag, so they go in before operands.
	if n.has("distances") {
		if err := s.distances(n, seq); err != nil {
			return nil, err
		}
	}

	for _, o := range ops.elements() {
		op, err := s.fromJSON(o)
		if err != nil {
			return nil, err
		}
		seq.Append(op)
	}

	// Unordered adjacency.
	if !seq.InOrder() && !seq.HasConstraints() {
		seq.WithConstraint(1, 1, algebra.WordUnit, false)
	}
	return seq.Node(), nil
}

func (s *compilation) distances(n jsonNode, seq *algebra.SequenceBuilder) error {
	if n.get("exclude").boolean() {
		return newQueryError(StatusUnsupportedDistanceExcl, "Excluding distance constraints are currently not supported")
	}

	list := n.get("distances")
	if !list.isArray() {
		return newQueryError(StatusInvalidDistances, "Distance Constraints have to be defined as arrays")
	}
	first := list.index(0)
	if first.present && !first.has("@type") {
		return missingType()
	}

	switch typeOf(first) {
	case "koral:group":
		ops := first.get("operands")
		if !ops.isArray() {
			return newQueryError(StatusMissingOperands, "Operation needs operand list")
		}
		list = ops
	case "koral:distance", "cosmas:distance":
	default:
		return newQueryError(StatusMissingDistance, "No valid distances defined")
	}

	for _, d := range list.elements() {
		unit := algebra.WordUnit
		if d.has("key") {
			unit = d.get("key").text()
		}

		lo, hi := minBound, maxBound
		if d.has("boundary") {
			var err error
			if lo, hi, err = boundary(d.get("boundary"), minBound, maxBound); err != nil {
				return err
			}
		} else {
			lo, hi = legacyBounds(d, lo, hi)
		}

		// Element units of annotated indexes carry foundry and layer.
		foundry, layer := d.get("foundry").text(), d.get("layer").text()
		if foundry != "" && layer != "" {
			unit = foundry + "/" + layer + ":" + unit
		}

		lo, hi = clamp(lo), clamp(hi)
		if hi < lo {
			hi = lo
		}
		seq.WithConstraint(lo, hi, unit, d.get("exclude").boolean())
	}
	return nil
}
