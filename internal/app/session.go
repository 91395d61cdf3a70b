package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mdshelf/mdshelf/internal/config"
	"github.com/mdshelf/mdshelf/internal/domain"
	"github.com/mdshelf/mdshelf/internal/outline"
	"github.com/mdshelf/mdshelf/internal/search"
	"github.com/mdshelf/mdshelf/internal/shelf"
	"github.com/mdshelf/mdshelf/internal/state"
)

// ErrPathOutsideRoot is returned when a document path escapes the shelf root.
var ErrPathOutsideRoot = fmt.Errorf("path is outside the shelf root")

// Session holds the long-lived services behind one running instance: the
// scanner, the markdown parser, the persisted state store, and optionally
// the content search service. Both the terminal UI and the HTTP server run
// on top of a Session.
type Session struct {
	Settings *config.Settings
	Scanner  *shelf.Scanner
	Parser   *outline.Parser
	Store    *state.Store
	Search   *search.Service // nil when disabled or unavailable

	mu   sync.RWMutex
	tree *domain.TreeNode
}

// Document is a loaded markdown file, rendered and outlined.
type Document struct {
	Path    string               `json:"path"`
	Title   string               `json:"title"`
	HTML    string               `json:"html"`
	Outline []domain.HeadingNode `json:"outline"`
	Source  string               `json:"-"`
}

// NewSession creates the application session: acquires the state directory
// lock, opens the state store, and builds the content index when enabled.
// The returned cleanup releases everything; it is non-nil on success.
func NewSession(settings *config.Settings) (*Session, func(), error) {
	if err := os.MkdirAll(settings.StateDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	lock := state.NewDirLock(settings.StateDir)
	if err := lock.TryLock(); err != nil {
		return nil, nil, err
	}

	store, err := state.Open(settings.StateDir)
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, fmt.Errorf("failed to open state store: %w", err)
	}

	scanner := shelf.NewScanner(settings.Extensions)
	session := &Session{
		Settings: settings,
		Scanner:  scanner,
		Parser:   outline.NewParser(),
		Store:    store,
	}

	// Content search failures are not fatal: browsing works without the
	// index, so log and continue.
	if settings.ContentSearch.Enabled {
		svc := search.NewService(&settings.ContentSearch, settings.StateDir, scanner)
		if err := svc.Initialize(context.Background(), settings.Root); err != nil {
			slog.Error("Content search initialization failed", "error", err)
			if closeErr := svc.Close(); closeErr != nil {
				slog.Error("Failed to close content search service", "error", closeErr)
			}
		} else {
			session.Search = svc
		}
	}

	cleanup := func() {
		if session.Search != nil {
			if err := session.Search.Close(); err != nil {
				slog.Error("Failed to close content search service", "error", err)
			}
		}
		if err := store.Close(); err != nil {
			slog.Error("Failed to close state store", "error", err)
		}
		if err := lock.Unlock(); err != nil {
			slog.Error("Failed to release state dir lock", "error", err)
		}
	}

	return session, cleanup, nil
}

// Tree returns the last completed scan result, or nil before the first scan.
func (s *Session) Tree() *domain.TreeNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// SetTree replaces the current tree. Used as the refresher's deliver target.
func (s *Session) SetTree(tree *domain.TreeNode) {
	s.mu.Lock()
	s.tree = tree
	s.mu.Unlock()
}

// Rescan walks the shelf root, replaces the current tree, and compacts the
// persisted expansion state against the folders that still exist.
func (s *Session) Rescan(ctx context.Context) (*domain.TreeNode, error) {
	tree, err := s.Scanner.Scan(ctx, s.Settings.Root)
	if err != nil {
		return nil, err
	}
	s.SetTree(tree)

	live := make(map[string]struct{})
	tree.Walk(func(node, parent *domain.TreeNode) bool {
		if node.IsFolder() {
			live[node.ID] = struct{}{}
		}
		return true
	})
	if err := s.Store.Compact(live); err != nil {
		slog.Warn("Expansion state compaction failed", "error", err)
	}

	return tree, nil
}

// LoadDocument reads, renders, and outlines the markdown file at the given
// shelf-relative path. Paths that escape the root or name a non-markdown
// file are rejected.
func (s *Session) LoadDocument(relPath string) (*Document, error) {
	absPath, err := s.resolveDocumentPath(relPath)
	if err != nil {
		return nil, err
	}

	source, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	blocks := s.Parser.Blocks(source)
	html, err := s.Parser.Render(source)
	if err != nil {
		return nil, err
	}

	title := outline.Title(blocks)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	}

	if err := s.Store.SetLastOpened(relPath); err != nil {
		slog.Warn("Failed to persist last opened document", "error", err)
	}

	return &Document{
		Path:    relPath,
		Title:   title,
		HTML:    string(html),
		Outline: outline.Extract(blocks),
		Source:  string(source),
	}, nil
}

func (s *Session) resolveDocumentPath(relPath string) (string, error) {
	if relPath == "" || filepath.IsAbs(relPath) {
		return "", ErrPathOutsideRoot
	}
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrPathOutsideRoot
	}
	if !s.Scanner.IsMarkdown(filepath.Base(clean)) {
		return "", fmt.Errorf("not a markdown document: %s", relPath)
	}
	return filepath.Join(s.Settings.Root, clean), nil
}

// SearchContent runs a full-text query against the content index, records
// the query in the search history, and returns ranked hits.
func (s *Session) SearchContent(ctx context.Context, query, folder string) ([]search.Hit, uint64, error) {
	if s.Search == nil {
		return nil, 0, search.ErrNotReady
	}
	hits, total, err := s.Search.Search(ctx, query, folder)
	if err != nil {
		return nil, 0, err
	}
	if err := s.Store.PushSearchHistory(query); err != nil {
		slog.Warn("Failed to record search history", "error", err)
	}
	return hits, total, nil
}
