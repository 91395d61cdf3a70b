package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/mdshelf/mdshelf/internal/config"
	"github.com/mdshelf/mdshelf/internal/domain"
	"github.com/mdshelf/mdshelf/internal/shelf"
)

// ErrNotReady indicates the content index is not available yet.
var ErrNotReady = errors.New("content index not ready")

// Hit is one full-text search result.
type Hit struct {
	Path      string   `json:"path"`
	Folder    string   `json:"folder"`
	Title     string   `json:"title"`
	Score     float64  `json:"score"`
	Fragments []string `json:"fragments,omitempty"`
}

// Service coordinates content index builds and queries. It mirrors the tree
// lifecycle: a rebuild replaces the index wholesale, and searches run against
// the last completed build.
type Service struct {
	settings *config.ContentSearchSettings
	indexer  *ContentIndexer

	mu    sync.RWMutex
	index bleve.Index
	ready bool
}

// NewService creates a content search service storing its index under
// stateDir.
func NewService(settings *config.ContentSearchSettings, stateDir string, scanner *shelf.Scanner) *Service {
	return &Service{
		settings: settings,
		indexer:  NewContentIndexer(stateDir, scanner, settings.MaxFileSize),
	}
}

// Initialize builds the index from rootPath and opens it for searching.
func (s *Service) Initialize(ctx context.Context, rootPath string) error {
	count, err := s.indexer.Rebuild(ctx, rootPath)
	if err != nil {
		return fmt.Errorf("content index build failed: %w", err)
	}

	index, err := s.indexer.Open()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.index != nil {
		_ = s.index.Close()
	}
	s.index = index
	s.ready = true
	s.mu.Unlock()

	slog.Info("Content index ready", "documents", count)
	return nil
}

// Ready reports whether searches can be served.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Search runs a full-text query, optionally restricted to one folder
// (relative path). Results are scored with heading and title matches boosted
// over body matches.
func (s *Service) Search(ctx context.Context, queryStr, folder string) ([]Hit, uint64, error) {
	s.mu.RLock()
	index := s.index
	ready := s.ready
	s.mu.RUnlock()

	if !ready || index == nil {
		return nil, 0, ErrNotReady
	}
	if strings.TrimSpace(queryStr) == "" {
		return nil, 0, errors.New("query cannot be empty")
	}

	req := bleve.NewSearchRequest(s.buildQuery(queryStr, folder))
	req.Size = s.settings.MaxResults
	req.Fields = []string{domain.DocFieldPath, domain.DocFieldFolder, domain.DocFieldTitle}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField(domain.DocFieldContent)

	results, err := index.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		h := Hit{Score: hit.Score}
		if v, ok := hit.Fields[domain.DocFieldPath].(string); ok {
			h.Path = v
		}
		if v, ok := hit.Fields[domain.DocFieldFolder].(string); ok {
			h.Folder = v
		}
		if v, ok := hit.Fields[domain.DocFieldTitle].(string); ok {
			h.Title = v
		}
		if fragments, ok := hit.Fragments[domain.DocFieldContent]; ok {
			h.Fragments = fragments
		}
		hits = append(hits, h)
	}

	return hits, results.Total, nil
}

// buildQuery constructs the bleve query: body, heading, and title matches
// OR-ed together with boosts, AND-ed with the folder filter when present.
func (s *Service) buildQuery(queryStr, folder string) query.Query {
	contentQuery := bleve.NewMatchQuery(queryStr)
	contentQuery.SetField(domain.DocFieldContent)

	headingsQuery := bleve.NewMatchQuery(queryStr)
	headingsQuery.SetField(domain.DocFieldHeadings)
	headingsQuery.SetBoost(5.0)

	titleQuery := bleve.NewMatchQuery(queryStr)
	titleQuery.SetField(domain.DocFieldTitle)
	titleQuery.SetBoost(3.0)

	searchQuery := bleve.NewDisjunctionQuery(contentQuery, headingsQuery, titleQuery)

	if folder == "" {
		return searchQuery
	}

	folderQuery := bleve.NewTermQuery(folder)
	folderQuery.SetField(domain.DocFieldFolder)
	return bleve.NewConjunctionQuery(searchQuery, folderQuery)
}

// Close releases the open index.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready = false
	if s.index != nil {
		err := s.index.Close()
		s.index = nil
		if err != nil {
			return fmt.Errorf("failed to close index: %w", err)
		}
	}
	return nil
}
