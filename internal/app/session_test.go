package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mdshelf/mdshelf/internal/config"
	"github.com/mdshelf/mdshelf/internal/state"
)

func testSettings(t *testing.T, root string) *config.Settings {
	t.Helper()
	return &config.Settings{
		Root:       root,
		Extensions: []string{"md"},
		StateDir:   t.TempDir(),
		ContentSearch: config.ContentSearchSettings{
			Enabled: false,
		},
		Watch: config.WatchSettings{
			Enabled:  false,
			Debounce: 250 * time.Millisecond,
		},
		Serve: config.ServeSettings{
			Host: "127.0.0.1",
			Port: 0,
		},
	}
}

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func newTestSession(t *testing.T, settings *config.Settings) *Session {
	t.Helper()
	session, cleanup, err := NewSession(settings)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	t.Cleanup(cleanup)
	return session
}

func TestNewSession_SecondInstanceRejected(t *testing.T) {
	root := t.TempDir()
	settings := testSettings(t, root)

	_ = newTestSession(t, settings)

	_, _, err := NewSession(settings)
	if !errors.Is(err, state.ErrAlreadyRunning) {
		t.Errorf("NewSession error = %v, want ErrAlreadyRunning", err)
	}
}

func TestSession_RescanBuildsTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "guides/intro.md", "# Intro\n")
	writeFile(t, root, "notes.md", "# Notes\n")

	session := newTestSession(t, testSettings(t, root))

	tree, err := session.Rescan(context.Background())
	if err != nil {
		t.Fatalf("Rescan failed: %v", err)
	}
	if tree.ItemCount != 2 {
		t.Errorf("ItemCount = %d, want 2", tree.ItemCount)
	}
	if session.Tree() != tree {
		t.Error("Tree() did not return the last scan result")
	}
}

func TestSession_RescanCompactsStaleExpansion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "guides/intro.md", "# Intro\n")

	session := newTestSession(t, testSettings(t, root))

	if err := session.Store.Set("guides", false); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := session.Store.Set("gone", false); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := session.Rescan(context.Background()); err != nil {
		t.Fatalf("Rescan failed: %v", err)
	}

	snapshot, err := session.Store.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if _, ok := snapshot["guides"]; !ok {
		t.Error("Live folder entry was dropped by compaction")
	}
	if _, ok := snapshot["gone"]; ok {
		t.Error("Stale folder entry survived compaction")
	}
}

func TestSession_LoadDocument(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "guides/intro.md", "# Getting Started\n\nSome text.\n\n## Install\n")

	session := newTestSession(t, testSettings(t, root))

	doc, err := session.LoadDocument("guides/intro.md")
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if doc.Title != "Getting Started" {
		t.Errorf("Title = %q, want %q", doc.Title, "Getting Started")
	}
	if !strings.Contains(doc.HTML, "<h1 id=\"getting-started\">") {
		t.Errorf("HTML missing anchored heading: %q", doc.HTML)
	}
	if len(doc.Outline) != 2 {
		t.Fatalf("Outline length = %d, want 2", len(doc.Outline))
	}
	if doc.Outline[1].AnchorID != "install" {
		t.Errorf("Outline[1].AnchorID = %q, want %q", doc.Outline[1].AnchorID, "install")
	}

	if got := session.Store.LastOpened(); got != "guides/intro.md" {
		t.Errorf("LastOpened = %q, want %q", got, "guides/intro.md")
	}
}

func TestSession_LoadDocumentTitleFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "scratch.md", "plain text, no headings\n")

	session := newTestSession(t, testSettings(t, root))

	doc, err := session.LoadDocument("scratch.md")
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if doc.Title != "scratch" {
		t.Errorf("Title = %q, want %q", doc.Title, "scratch")
	}
	if len(doc.Outline) != 0 {
		t.Errorf("Outline = %v, want empty", doc.Outline)
	}
}

func TestSession_LoadDocumentRejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()
	session := newTestSession(t, testSettings(t, root))

	tests := []struct {
		name string
		path string
	}{
		{name: "empty", path: ""},
		{name: "absolute", path: "/etc/passwd"},
		{name: "parent traversal", path: "../secrets.md"},
		{name: "nested traversal", path: "guides/../../secrets.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := session.LoadDocument(tt.path); !errors.Is(err, ErrPathOutsideRoot) {
				t.Errorf("LoadDocument(%q) error = %v, want ErrPathOutsideRoot", tt.path, err)
			}
		})
	}
}

func TestSession_LoadDocumentRejectsNonMarkdown(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "binary.png", "\x00\x01")

	session := newTestSession(t, testSettings(t, root))

	if _, err := session.LoadDocument("binary.png"); err == nil {
		t.Error("LoadDocument accepted a non-markdown file")
	}
}

func TestSession_SearchContentDisabled(t *testing.T) {
	root := t.TempDir()
	session := newTestSession(t, testSettings(t, root))

	_, _, err := session.SearchContent(context.Background(), "query", "")
	if err == nil {
		t.Error("SearchContent succeeded with search disabled")
	}
}

func TestSession_ContentSearchEnabled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "guides/docker.md", "# Docker\n\nContainers and images.\n")

	settings := testSettings(t, root)
	settings.ContentSearch = config.ContentSearchSettings{
		Enabled:     true,
		MaxFileSize: 1024 * 1024,
		MaxResults:  10,
	}
	session := newTestSession(t, settings)

	if session.Search == nil {
		t.Fatal("Search service was not initialized")
	}

	hits, total, err := session.SearchContent(context.Background(), "containers", "")
	if err != nil {
		t.Fatalf("SearchContent failed: %v", err)
	}
	if total != 1 || len(hits) != 1 {
		t.Fatalf("SearchContent returned %d hits (total %d), want 1", len(hits), total)
	}
	if hits[0].Path != "guides/docker.md" {
		t.Errorf("Hit path = %q, want %q", hits[0].Path, "guides/docker.md")
	}

	if history := session.Store.SearchHistory(); len(history) != 1 || history[0] != "containers" {
		t.Errorf("SearchHistory = %v, want [containers]", history)
	}
}
