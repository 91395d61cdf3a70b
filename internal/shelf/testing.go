package shelf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mdshelf/mdshelf/internal/domain"
)

// WriteCorpus materializes a markdown corpus under dir. Keys are
// slash-separated relative paths; a key ending in "/" creates an empty
// directory. This is exported for use in integration tests.
func WriteCorpus(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		abs := filepath.Join(dir, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			if err := os.MkdirAll(abs, 0755); err != nil {
				t.Fatalf("Failed to create directory %s: %v", rel, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			t.Fatalf("Failed to create parent of %s: %v", rel, err)
		}
		if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
}

// TreePaths flattens a tree into the ordered list of node paths (root
// excluded), for asserting structure and ordering in one comparison.
func TreePaths(root *domain.TreeNode) []string {
	var paths []string
	root.Walk(func(node, parent *domain.TreeNode) bool {
		if parent != nil {
			paths = append(paths, node.Path)
		}
		return true
	})
	return paths
}
