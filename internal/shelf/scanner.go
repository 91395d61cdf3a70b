package shelf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mdshelf/mdshelf/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	// ErrRootNotFound indicates the scan root does not exist or is not a
	// directory.
	ErrRootNotFound = errors.New("shelf root not found")

	// ErrScanCanceled indicates the scan was canceled before completion.
	ErrScanCanceled = errors.New("scan canceled")
)

// DefaultExtensions are the markdown file extensions recognized by default,
// without the leading dot.
var DefaultExtensions = []string{"md", "markdown", "mdown"}

// Scanner builds the navigation tree from a directory of markdown files.
//
// Scans are full rebuilds: the resulting tree is immutable and replaces any
// previous one. Node IDs are the slash-separated paths relative to the root,
// so IDs for unchanged paths are stable across rescans.
type Scanner struct {
	extensions map[string]struct{}
	collator   *collate.Collator
	logger     *slog.Logger
}

// NewScanner creates a scanner recognizing the given markdown extensions
// (leading dots and case are ignored). An empty list falls back to
// DefaultExtensions.
func NewScanner(extensions []string) *Scanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	return &Scanner{
		extensions: set,
		collator:   collate.New(language.Und, collate.IgnoreCase),
		logger:     slog.Default(),
	}
}

// SetLogger replaces the scanner's logger.
func (s *Scanner) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// IsMarkdown reports whether the file name carries a recognized markdown
// extension.
func (s *Scanner) IsMarkdown(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	_, ok := s.extensions[ext]
	return ok
}

// frame is one directory being processed on the explicit walk stack.
// An explicit stack bounds memory by tree depth without relying on the
// goroutine stack for pathological hierarchies.
type frame struct {
	node    *domain.TreeNode
	absPath string
	subdirs []string
	next    int
	folders []*domain.TreeNode
	files   []*domain.TreeNode
}

// Scan walks rootPath and returns the navigation tree.
//
// Folders with no markdown descendants are pruned. Unreadable subdirectories
// are skipped with a logged warning; only a missing or unreadable root fails
// the scan. Cancelling the context aborts the walk with ErrScanCanceled.
func (s *Scanner) Scan(ctx context.Context, rootPath string) (*domain.TreeNode, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRootNotFound, rootPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, rootPath)
	}

	root := &domain.TreeNode{
		ID:   domain.RootID,
		Kind: domain.KindFolder,
		Name: filepath.Base(filepath.Clean(rootPath)),
		Path: "",
	}

	rootFrame, err := s.openDir(root, rootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootNotFound, err)
	}

	stack := []*frame{rootFrame}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanCanceled, err)
		}

		top := stack[len(stack)-1]
		if top.next < len(top.subdirs) {
			name := top.subdirs[top.next]
			top.next++

			child := &domain.TreeNode{
				ID:   childPath(top.node.Path, name),
				Kind: domain.KindFolder,
				Name: name,
				Path: childPath(top.node.Path, name),
			}
			childFrame, err := s.openDir(child, filepath.Join(top.absPath, name))
			if err != nil {
				s.logger.Warn("Skipping unreadable directory", "path", child.Path, "error", err)
				continue
			}
			stack = append(stack, childFrame)
			continue
		}

		// Directory fully enumerated: order children, compute counts,
		// and hand the finished node to the parent frame.
		stack = stack[:len(stack)-1]
		s.finalize(top)
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			if top.node.ItemCount > 0 {
				parent.folders = append(parent.folders, top.node)
			}
		}
	}

	return root, nil
}

// openDir enumerates one directory into a walk frame, creating file leaves
// immediately and queueing subdirectories for traversal.
func (s *Scanner) openDir(node *domain.TreeNode, absPath string) (*frame, error) {
	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, err
	}

	f := &frame{node: node, absPath: absPath}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			f.subdirs = append(f.subdirs, name)
			continue
		}
		if !entry.Type().IsRegular() || !s.IsMarkdown(name) {
			continue
		}
		f.files = append(f.files, &domain.TreeNode{
			ID:        childPath(node.Path, name),
			Kind:      domain.KindFile,
			Name:      strings.TrimSuffix(name, filepath.Ext(name)),
			Path:      childPath(node.Path, name),
			ItemCount: 1,
		})
	}
	return f, nil
}

// finalize sorts a frame's children and computes the folder's item count.
func (s *Scanner) finalize(f *frame) {
	s.sortNodes(f.folders)
	s.sortNodes(f.files)

	count := 0
	children := make([]*domain.TreeNode, 0, len(f.folders)+len(f.files))
	for _, folder := range f.folders {
		children = append(children, folder)
		count += folder.ItemCount
	}
	for _, file := range f.files {
		children = append(children, file)
		count++
	}
	if len(children) == 0 {
		children = nil
	}
	f.node.Children = children
	f.node.ItemCount = count
}

// sortNodes orders nodes by locale-aware case-insensitive name comparison.
// The sort is stable so equal names keep filesystem enumeration order.
func (s *Scanner) sortNodes(nodes []*domain.TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return s.collator.CompareString(nodes[i].Name, nodes[j].Name) < 0
	})
}

// childPath joins a parent path with a child name using slash separators.
func childPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return path.Join(parent, name)
}
