package search

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/mdshelf/mdshelf/internal/domain"
	"github.com/mdshelf/mdshelf/internal/outline"
	"github.com/mdshelf/mdshelf/internal/shelf"
)

const (
	// IndexDirname is the bleve index directory inside the state dir.
	IndexDirname = "index.bleve"

	// MaxBatchSize is the maximum number of documents per index batch.
	MaxBatchSize = 100

	// MaxBatchBytes is the maximum content bytes per index batch (10MB).
	MaxBatchBytes = 10 * 1024 * 1024
)

// ContentIndexer builds the full-text index over a shelf's markdown
// documents.
type ContentIndexer struct {
	indexPath   string
	scanner     *shelf.Scanner
	parser      *outline.Parser
	maxFileSize int64
}

// NewContentIndexer creates an indexer writing under stateDir and using the
// scanner's markdown extension set.
func NewContentIndexer(stateDir string, scanner *shelf.Scanner, maxFileSize int64) *ContentIndexer {
	return &ContentIndexer{
		indexPath:   filepath.Join(stateDir, IndexDirname),
		scanner:     scanner,
		parser:      outline.NewParser(),
		maxFileSize: maxFileSize,
	}
}

// IndexPath returns the on-disk location of the index.
func (i *ContentIndexer) IndexPath() string {
	return i.indexPath
}

// CreateIndexMapping creates the bleve mapping for shelf documents. Content,
// title, and headings are analyzed for full-text search; path and folder are
// keyword fields for exact filtering.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = true
	contentField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.DocFieldContent, contentField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = standard.Name
	titleField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldTitle, titleField)

	headingsField := bleve.NewTextFieldMapping()
	headingsField.Analyzer = standard.Name
	headingsField.Store = false
	docMapping.AddFieldMappingsAt(domain.DocFieldHeadings, headingsField)

	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldPath, pathField)

	folderField := bleve.NewTextFieldMapping()
	folderField.Analyzer = keyword.Name
	folderField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldFolder, folderField)

	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.DocFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Rebuild replaces the index with a fresh one built from rootPath.
// Returns the number of documents indexed.
func (i *ContentIndexer) Rebuild(ctx context.Context, rootPath string) (count int, err error) {
	if err := os.RemoveAll(i.indexPath); err != nil {
		return 0, fmt.Errorf("failed to remove old index: %w", err)
	}

	index, err := bleve.New(i.indexPath, CreateIndexMapping())
	if err != nil {
		return 0, fmt.Errorf("failed to create index: %w", err)
	}
	defer func() {
		if cerr := index.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	batch := index.NewBatch()
	batchSize := 0
	batchBytes := 0
	total := 0

	err = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() || !i.scanner.IsMarkdown(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > i.maxFileSize {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if IsBinary(content) {
			return nil
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return nil
		}
		doc := i.buildDocument(filepath.ToSlash(relPath), content)

		if err := batch.Index(doc.ID, doc); err != nil {
			return nil
		}
		batchSize++
		batchBytes += len(content)

		if batchSize >= MaxBatchSize || batchBytes >= MaxBatchBytes {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("batch index failed: %w", err)
			}
			total += batchSize
			batch = index.NewBatch()
			batchSize = 0
			batchBytes = 0
		}
		return nil
	})
	if err != nil {
		return total, err
	}

	if batchSize > 0 {
		if err := index.Batch(batch); err != nil {
			return total, fmt.Errorf("final batch index failed: %w", err)
		}
		total += batchSize
	}

	return total, nil
}

// buildDocument assembles the indexable document for one markdown file,
// extracting title and heading text through the outline parser.
func (i *ContentIndexer) buildDocument(relPath string, content []byte) domain.ShelfDocument {
	blocks := i.parser.Blocks(content)

	title := outline.Title(blocks)
	if title == "" {
		base := filepath.Base(relPath)
		title = base[:len(base)-len(filepath.Ext(base))]
	}

	headings := ""
	for _, b := range blocks {
		if b.Kind == domain.BlockHeading {
			if headings != "" {
				headings += "\n"
			}
			headings += b.Text
		}
	}

	folder := filepath.ToSlash(filepath.Dir(relPath))
	if folder == "." {
		folder = ""
	}

	return domain.ShelfDocument{
		ID:       relPath,
		Path:     relPath,
		Folder:   folder,
		Title:    title,
		Headings: headings,
		Content:  string(content),
	}
}

// Open opens the existing index for reading.
func (i *ContentIndexer) Open() (bleve.Index, error) {
	index, err := bleve.Open(i.indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return index, nil
}

// Exists reports whether an index has been built.
func (i *ContentIndexer) Exists() bool {
	_, err := os.Stat(i.indexPath)
	return err == nil
}

// IsBinary checks if the content appears to be binary by looking for null
// bytes in the first 512 bytes. This is the heuristic git uses.
func IsBinary(content []byte) bool {
	checkLen := min(len(content), 512)
	for i := range checkLen {
		if content[i] == 0 {
			return true
		}
	}
	return false
}
