package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	calls := make(chan []string, 10)

	w, err := NewWatcher(Dir{Path: dir}, 100*time.Millisecond, func(_ context.Context, paths []string) {
		calls <- paths
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	for i := range 3 {
		writeFile(t, filepath.Join(dir, "a.json"), `{"name":"a","version":"1.0.`+string(rune('0'+i))+`"}`)
	}
	writeFile(t, filepath.Join(dir, "b.json"), `{"name":"b","version":"1.0.0"}`)
	writeFile(t, filepath.Join(dir, "ignored.txt"), `x`)

	select {
	case paths := <-calls:
		want := []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")}
		if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
			t.Errorf("paths = %v, want %v", paths, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	select {
	case paths := <-calls:
		t.Errorf("unexpected second call with %v", paths)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherMissingDir(t *testing.T) {
	w, err := NewWatcher(Dir{Path: filepath.Join(t.TempDir(), "nope")}, 0, func(context.Context, []string) {})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()
	if err := w.Start(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(Dir{Path: t.TempDir()}, 0, func(context.Context, []string) {})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
	if _, err := os.Stat(w.dir.Path); err != nil {
		t.Fatal(err)
	}
}
