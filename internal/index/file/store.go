package file

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"spansearch/internal/callgroup"
	"spansearch/internal/logging"

	"github.com/bmatcuk/doublestar/v4"
)

// Store keeps opened segments by directory. Concurrent opens of the same
// directory share one Open call.
type Store struct {
	logger *slog.Logger
	opts   []OpenOption

	group callgroup.Group[string]

	mu       sync.Mutex
	segments map[string]*Segment
}

// NewStore returns an empty store. opts apply to every opened segment.
func NewStore(logger *slog.Logger, opts ...OpenOption) *Store {
	return &Store{
		logger:   logging.Default(logger).With("component", "segment-store"),
		opts:     opts,
		segments: make(map[string]*Segment),
	}
}

func (s *Store) lookup(dir string) (*Segment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seg, ok := s.segments[dir]
	return seg, ok
}

// Open returns the segment in dir, opening it on first use.
func (s *Store) Open(ctx context.Context, dir string) (*Segment, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if seg, ok := s.lookup(dir); ok {
		return seg, nil
	}

	err = s.group.Do(ctx, dir, func() error {
		if _, ok := s.lookup(dir); ok {
			return nil
		}
		seg, err := Open(dir, s.opts...)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.segments[dir] = seg
		s.mu.Unlock()
		s.logger.Debug("segment opened", "dir", dir, "id", seg.ID(), "docs", seg.NumDocs())
		return nil
	})
	if err != nil {
		return nil, err
	}
	seg, ok := s.lookup(dir)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSegment, dir)
	}
	return seg, nil
}

// Glob opens every segment matched by the doublestar patterns. A pattern
// may name segment directories or directories holding segments. Segments
// are returned ordered by directory.
func (s *Store) Glob(ctx context.Context, patterns ...string) ([]*Segment, error) {
	dirs, err := discoverSegments(patterns)
	if err != nil {
		return nil, err
	}

	segs := make([]*Segment, 0, len(dirs))
	for _, dir := range dirs {
		seg, err := s.Open(ctx, dir)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	s.logger.Info("segments loaded", "patterns", patterns, "segments", len(segs))
	return segs, nil
}

// discoverSegments returns the deduplicated absolute segment directories
// matching any of patterns, in lexical order.
func discoverSegments(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			result = append(result, dir)
		}
	}

	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			wd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			pattern = filepath.Join(wd, pattern)
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.IsDir() {
				continue
			}
			if IsSegment(m) {
				add(m)
				continue
			}
			children, err := os.ReadDir(m)
			if err != nil {
				continue
			}
			for _, c := range children {
				if c.IsDir() && IsSegment(filepath.Join(m, c.Name())) {
					add(filepath.Join(m, c.Name()))
				}
			}
		}
	}

	slices.Sort(result)
	return result, nil
}

// Segments returns the opened segments ordered by directory.
func (s *Store) Segments() []*Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Segment, 0, len(s.segments))
	for _, seg := range s.segments {
		out = append(out, seg)
	}
	slices.SortFunc(out, func(a, b *Segment) int { return cmp.Compare(a.dir, b.dir) })
	return out
}

// Close closes every opened segment.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for dir, seg := range s.segments {
		if err := seg.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dir, err))
		}
		delete(s.segments, dir)
	}
	return errors.Join(errs...)
}
