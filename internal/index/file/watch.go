package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn for every segment below root, first for the segments
// already there, then for each segment written while Watch runs. It
// returns when ctx is done or fn fails. Segments appear atomically (see
// Write), so a created directory is either complete or not a segment.
func (s *Store) Watch(ctx context.Context, root string, fn func(*Segment) error) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(root); err != nil {
		return fmt.Errorf("watch %q: %w", root, err)
	}

	seen := make(map[string]bool)
	visit := func(dir string) error {
		if seen[dir] || !IsSegment(dir) {
			return nil
		}
		seen[dir] = true
		seg, err := s.Open(ctx, dir)
		if err != nil {
			return err
		}
		return fn(seg)
	}

	// Listed after Add so a segment written in between is not missed.
	existing, err := discoverSegments([]string{root})
	if err != nil {
		return err
	}
	for _, dir := range existing {
		if err := visit(dir); err != nil {
			return err
		}
	}
	s.logger.Info("watching for segments", "dir", root, "existing", len(existing))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) || strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			if err := visit(ev.Name); err != nil {
				return err
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("segment watch error", "dir", root, "error", err)
		}
	}
}
