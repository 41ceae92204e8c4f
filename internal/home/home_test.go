package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	d := New("/tmp/spansearch-test")
	if d.Root() != "/tmp/spansearch-test" {
		t.Errorf("expected root /tmp/spansearch-test, got %s", d.Root())
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	d, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if d.Root() == "" {
		t.Fatal("expected non-empty root")
	}
	if filepath.Base(d.Root()) != "spansearch" {
		t.Errorf("expected root to end with 'spansearch', got %s", d.Root())
	}
}

func TestPaths(t *testing.T) {
	d := New("/data")
	if got := d.ConfigPath(); got != "/data/spansearch.yaml" {
		t.Errorf("got %s", got)
	}
	if got := d.SegmentsDir(); got != "/data/segments" {
		t.Errorf("got %s", got)
	}
}

func TestEnsureSegmentsDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "spansearch")
	d := New(root)
	if err := d.EnsureSegmentsDir(); err != nil {
		t.Fatalf("EnsureSegmentsDir: %v", err)
	}
	info, err := os.Stat(d.SegmentsDir())
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory")
	}

	// Calling again should be idempotent.
	if err := d.EnsureSegmentsDir(); err != nil {
		t.Fatalf("EnsureSegmentsDir (idempotent): %v", err)
	}
}
