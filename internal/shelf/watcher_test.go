package shelf

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_MarkdownCreateTriggersChange(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan struct{}, 1)

	w, err := NewWatcher(NewScanner(nil), 50*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "new.md"), []byte("# new"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected change notification for markdown create")
	}
}

func TestWatcher_DottedDirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan struct{}, 1)

	w, err := NewWatcher(NewScanner(nil), 50*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	// A directory whose name contains a dot must still be picked up and
	// watched, so markdown created inside it triggers a rescan.
	sub := filepath.Join(dir, "python3.12")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected change notification for directory create")
	}

	if err := os.WriteFile(filepath.Join(sub, "venv.md"), []byte("# venv"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected change notification for markdown inside dotted directory")
	}
}

func TestWatcher_RemovedDirectoryTriggersChange(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "guides.v2")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	changed := make(chan struct{}, 1)
	w, err := NewWatcher(NewScanner(nil), 50*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.RemoveAll(sub); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected change notification for directory removal")
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan struct{}, 1)

	w, err := NewWatcher(NewScanner(nil), 50*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "noise.tmp"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	select {
	case <-changed:
		t.Error("Unexpected change notification for non-markdown file")
	case <-time.After(300 * time.Millisecond):
	}
}
