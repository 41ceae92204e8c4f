package file

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStoreWatch(t *testing.T) {
	root := t.TempDir()
	first, err := Write(root, buildSegment(t))
	if err != nil {
		t.Fatal(err)
	}

	store := NewStore(nil)
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	found := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, root, func(seg *Segment) error {
			found <- seg.Dir()
			return nil
		})
	}()

	wait := func() string {
		t.Helper()
		select {
		case dir := <-found:
			return dir
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for segment")
			return ""
		}
	}

	if got := wait(); got != first {
		t.Errorf("existing segment: got %s, want %s", got, first)
	}

	second, err := Write(root, buildSegment(t))
	if err != nil {
		t.Fatal(err)
	}
	if got := wait(); got != second {
		t.Errorf("new segment: got %s, want %s", got, second)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch returned %v, want context.Canceled", err)
	}
	if n := len(store.Segments()); n != 2 {
		t.Errorf("store holds %d segments, want 2", n)
	}
}

func TestStoreWatchCallbackError(t *testing.T) {
	root := t.TempDir()
	if _, err := Write(root, buildSegment(t)); err != nil {
		t.Fatal(err)
	}
	store := NewStore(nil)
	defer func() { _ = store.Close() }()

	errStop := errors.New("stop")
	err := store.Watch(context.Background(), root, func(*Segment) error { return errStop })
	if !errors.Is(err, errStop) {
		t.Errorf("Watch returned %v, want %v", err, errStop)
	}
}

func TestStoreWatchMissingRoot(t *testing.T) {
	store := NewStore(nil)
	if err := store.Watch(context.Background(), t.TempDir()+"/none", func(*Segment) error { return nil }); err == nil {
		t.Error("expected error for missing root")
	}
}
