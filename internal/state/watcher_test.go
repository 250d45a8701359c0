package state

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestProjectWatcherBatchesChanges(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "pkg"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	w, err := NewProjectWatcher(root, nil, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewProjectWatcher returned error: %v", err)
	}
	defer w.Close()

	var reported []string
	w.OnChange(func(paths []string) { reported = paths })

	type result struct {
		paths []string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		paths, err := w.Next()
		done <- result{paths, err}
	}()

	for _, name := range []string{"a.go", filepath.Join("pkg", "b.go")} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("package x\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Next returned error: %v", r.err)
		}
		if !slices.Contains(r.paths, "a.go") {
			t.Fatalf("batch %v missing a.go", r.paths)
		}
		if !slices.Equal(reported, r.paths) {
			t.Fatalf("OnChange got %v, Next returned %v", reported, r.paths)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no change reported")
	}
}

func TestProjectWatcherSkipsIgnoredFolders(t *testing.T) {
	root := t.TempDir()
	w, err := NewProjectWatcher(root, []string{"node_modules"}, time.Millisecond)
	if err != nil {
		t.Fatalf("NewProjectWatcher returned error: %v", err)
	}
	defer w.Close()

	if !w.isIgnored(filepath.Join(root, "node_modules", "x", "index.js")) {
		t.Fatalf("path under node_modules should be ignored")
	}
	if w.isIgnored(filepath.Join(root, "src", "index.js")) {
		t.Fatalf("path under src should not be ignored")
	}
	if w.isIgnored(root) {
		t.Fatalf("root itself should not be ignored")
	}
}

func TestProjectWatcherCloseStopsNext(t *testing.T) {
	w, err := NewProjectWatcher(t.TempDir(), nil, time.Millisecond)
	if err != nil {
		t.Fatalf("NewProjectWatcher returned error: %v", err)
	}

	closed := 0
	w.OnClose(func() { closed++ })

	done := make(chan []string, 1)
	go func() {
		paths, _ := w.Next()
		done <- paths
	}()

	if err := w.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	w.Close()

	select {
	case paths := <-done:
		if paths != nil {
			t.Fatalf("Next after Close returned %v", paths)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Next did not return after Close")
	}
	if closed != 1 {
		t.Fatalf("OnClose called %d times, want 1", closed)
	}
}

func TestNewProjectWatcherRejectsEmptyRoot(t *testing.T) {
	if _, err := NewProjectWatcher("", nil, time.Millisecond); err == nil {
		t.Fatalf("expected an error for an empty root")
	}
}
