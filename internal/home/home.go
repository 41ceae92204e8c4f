// Package home manages the spansearch home directory layout.
//
// Layout:
//
//	<root>/
//	  spansearch.yaml   (optional config file)
//	  segments/
//	    <segment-id>/   (one index segment, see package index/file)
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir represents a spansearch home directory.
type Dir struct {
	root string
}

// New creates a Dir with an explicit root path.
func New(root string) Dir {
	return Dir{root: root}
}

// Default returns a Dir using the platform-appropriate default location:
//   - Linux:   ~/.config/spansearch
//   - macOS:   ~/Library/Application Support/spansearch
//   - Windows: %APPDATA%/spansearch
func Default() (Dir, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return Dir{}, fmt.Errorf("determine config directory: %w", err)
	}
	return Dir{root: filepath.Join(base, "spansearch")}, nil
}

// Root returns the home directory path.
func (d Dir) Root() string {
	return d.root
}

// ConfigPath returns the path of the config file.
func (d Dir) ConfigPath() string {
	return filepath.Join(d.root, "spansearch.yaml")
}

// SegmentsDir returns the directory new segments are written to and
// searched in by default.
func (d Dir) SegmentsDir() string {
	return filepath.Join(d.root, "segments")
}

// EnsureSegmentsDir creates the segments directory (and parents) if it
// doesn't exist.
func (d Dir) EnsureSegmentsDir() error {
	if err := os.MkdirAll(d.SegmentsDir(), 0o750); err != nil {
		return fmt.Errorf("create segments directory %s: %w", d.SegmentsDir(), err)
	}
	return nil
}
