// Package search runs KoralQuery documents against a set of index segments.
//
// A Searcher compiles the query once, evaluates every segment in its own
// goroutine and merges the matches in segment order. Matches of one segment
// keep the order the span engine emits them in: by document, then by
// (start, end).
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spansearch/internal/algebra"
	"spansearch/internal/config"
	"spansearch/internal/index"
	"spansearch/internal/koral"
	"spansearch/internal/logging"
	"spansearch/internal/matchid"
	"spansearch/internal/payload"
	"spansearch/internal/spans"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var ErrNoSegments = errors.New("no segments to search")

// Match is one rendered match.
type Match struct {
	// ID is the match identifier, see package matchid.
	ID string

	Segment uuid.UUID
	Doc     int
	DocName string
	Corpus  string
	Start   int
	End     int

	// Classes are the sub-spans marked by class operators, in payload
	// order.
	Classes []matchid.Position
}

// Response is the result of one search.
type Response struct {
	// Query is the compiled span query.
	Query         string
	Matches       []Match
	Notifications koral.Notifications

	// TotalResults counts every match, including those cut by the limit.
	TotalResults int
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger. If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) { s.logger = l }
}

// WithRegisterer registers the search metrics on reg instead of a private
// registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Searcher) { s.registerer = reg }
}

// Searcher evaluates queries against a fixed list of segments. It is safe
// for concurrent use.
//
// Logging:
//   - component="searcher"
//   - one debug record per query, none per match
type Searcher struct {
	cfg        config.Config
	segments   []index.Segment
	compiler   *koral.Compiler
	cache      *lru.Cache[string, *koral.Result]
	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    *metrics
}

// New returns a searcher over segments. Settings not used by the searcher
// are ignored; a non-positive parallelism is treated as 1.
func New(cfg config.Config, segments []index.Segment, opts ...Option) *Searcher {
	s := &Searcher{cfg: cfg, segments: segments}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.Parallelism < 1 {
		s.cfg.Parallelism = 1
	}
	if s.registerer == nil {
		s.registerer = prometheus.NewRegistry()
	}
	base := logging.Default(s.logger)
	s.logger = base.With("component", "searcher")
	s.compiler = koral.New(cfg.Field, koral.WithLogger(base))
	s.metrics = newMetrics(s.registerer)
	if cfg.CacheSize > 0 {
		// Only fails on a non-positive size.
		s.cache, _ = lru.New[string, *koral.Result](cfg.CacheSize)
	}
	return s
}

// WithSegments returns a searcher over segs sharing the compile cache and
// metrics of s.
func (s *Searcher) WithSegments(segs []index.Segment) *Searcher {
	c := *s
	c.segments = segs
	return &c
}

// Compile compiles query, serving repeated queries from the cache. Failed
// compilations are not cached.
func (s *Searcher) Compile(query []byte) (*koral.Result, error) {
	key := string(query)
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			s.metrics.cacheHits.Inc()
			return res, nil
		}
		s.metrics.cacheMisses.Inc()
	}
	res, err := s.compiler.Compile(query)
	if err != nil {
		return res, err
	}
	if s.cache != nil {
		s.cache.Add(key, res)
	}
	return res, nil
}

// Search runs query against every segment and returns at most limit
// matches; a non-positive limit selects the configured default, and a
// default of zero returns every match.
//
// Compilation failures return a *koral.QueryError together with a
// response holding the notifications. Cancelling ctx stops the search at
// the next document boundary.
func (s *Searcher) Search(ctx context.Context, query []byte, limit int) (*Response, error) {
	start := time.Now()
	defer func() { s.metrics.duration.Observe(time.Since(start).Seconds()) }()

	res, err := s.Compile(query)
	if err != nil {
		s.metrics.queries.WithLabelValues(statusInvalid).Inc()
		return &Response{Notifications: res.Notifications}, err
	}
	if len(s.segments) == 0 {
		s.metrics.queries.WithLabelValues(statusError).Inc()
		return nil, ErrNoSegments
	}
	if limit <= 0 {
		limit = s.cfg.Limit
	}

	results := make([]segmentResult, len(s.segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for i, seg := range s.segments {
		g.Go(func() error {
			r, err := searchSegment(gctx, res.Node, seg, limit)
			if err != nil {
				return fmt.Errorf("segment %s: %w", seg.ID(), err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		status := statusError
		if ctx.Err() != nil {
			status = statusCancelled
		}
		s.metrics.queries.WithLabelValues(status).Inc()
		return nil, err
	}

	resp := &Response{Query: res.Node.String(), Notifications: res.Notifications}
	for _, r := range results {
		resp.TotalResults += r.total
		for _, m := range r.matches {
			if limit > 0 && len(resp.Matches) >= limit {
				break
			}
			resp.Matches = append(resp.Matches, m)
		}
	}

	s.metrics.queries.WithLabelValues(statusOK).Inc()
	s.metrics.matches.Add(float64(resp.TotalResults))
	s.logger.Debug("query executed",
		"query", resp.Query,
		"segments", len(s.segments),
		"total", resp.TotalResults,
		"returned", len(resp.Matches),
		"duration", time.Since(start))
	return resp, nil
}

type segmentResult struct {
	matches []Match
	total   int
}

// searchSegment counts every match of n in seg and renders the first limit
// of them.
func searchSegment(ctx context.Context, n *algebra.Node, seg index.Segment, limit int) (segmentResult, error) {
	var r segmentResult
	sp, err := spans.Build(n, seg)
	if err != nil {
		return r, err
	}
	doc := -1
	var meta index.Document
	for {
		ok, err := sp.Next()
		if err != nil {
			return r, err
		}
		if !ok {
			return r, nil
		}
		if sp.Doc() != doc {
			if err := ctx.Err(); err != nil {
				return r, err
			}
			doc = sp.Doc()
			if meta, err = seg.Document(doc); err != nil {
				return r, err
			}
		}
		r.total++
		if limit <= 0 || len(r.matches) < limit {
			r.matches = append(r.matches, render(seg.ID(), doc, meta, sp))
		}
	}
}

func render(segID uuid.UUID, doc int, meta index.Document, sp spans.Spans) Match {
	m := Match{
		Segment: segID,
		Doc:     doc,
		DocName: meta.Name,
		Corpus:  meta.Corpus,
		Start:   sp.Start(),
		End:     sp.End(),
	}
	id := matchid.New(meta.Corpus, meta.Name, m.Start, m.End)
	for _, rec := range payload.Classes(sp.Payloads()) {
		if rec.Start >= rec.End {
			continue
		}
		id.AddPosition(int(rec.Start), int(rec.End), int(rec.Class))
	}
	m.Classes = id.Positions()
	m.ID = id.String()
	return m
}
