package domain

// NodeKind distinguishes folders from file leaves in the navigation tree.
type NodeKind int

const (
	// KindFolder is a directory containing at least one markdown descendant.
	KindFolder NodeKind = iota
	// KindFile is a markdown document leaf.
	KindFile
)

// RootID is the identifier of the synthetic root node.
const RootID = ""

// TreeNode is one entry in the navigation tree built by a filesystem scan.
// Nodes are immutable after construction; a rescan replaces the tree
// wholesale. Expansion state lives outside the tree, keyed by ID.
type TreeNode struct {
	// ID is a stable identifier derived from the slash-separated path
	// relative to the scan root. Identical paths across rescans yield
	// identical IDs.
	ID string `json:"id"`

	// Kind is the node variant.
	Kind NodeKind `json:"kind"`

	// Name is the display name: the basename with the markdown extension
	// stripped for files, the directory basename for folders.
	Name string `json:"name"`

	// Path is the slash-separated path relative to the scan root. Empty
	// for the root node. Unique within one scan.
	Path string `json:"path"`

	// Children holds child nodes in display order: folders before files,
	// case-insensitive alphabetical within each group. Nil for files.
	Children []*TreeNode `json:"children,omitempty"`

	// ItemCount is the number of file descendants of a folder. 1 for files.
	ItemCount int `json:"item_count"`
}

// IsFolder reports whether the node is a folder.
func (n *TreeNode) IsFolder() bool {
	return n.Kind == KindFolder
}

// Walk visits the node and all descendants in depth-first display order.
// The visitor returns false to skip a node's children.
func (n *TreeNode) Walk(visit func(node *TreeNode, parent *TreeNode) bool) {
	type frame struct {
		node   *TreeNode
		parent *TreeNode
	}
	stack := []frame{{node: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(f.node, f.parent) {
			continue
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], parent: f.node})
		}
	}
}

// Find returns the descendant with the given ID, or nil.
func (n *TreeNode) Find(id string) *TreeNode {
	var found *TreeNode
	n.Walk(func(node, _ *TreeNode) bool {
		if found != nil {
			return false
		}
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// VisibleNode is one row of the flattened tree projection used for a single
// render pass. It is recomputed on every expansion toggle or query change
// and never persisted.
type VisibleNode struct {
	Node *TreeNode
	// Depth is the indentation level; direct children of the root are 0.
	Depth int
	// Matched reports whether the node itself matched the active query,
	// as opposed to being shown to reveal a matching descendant.
	Matched bool
}

// HeadingNode is one heading extracted from an open document. Headings are
// kept as a flat sequence in document order; consumers indent by Level.
type HeadingNode struct {
	// Level is the heading level, 1 through 6.
	Level int `json:"level"`

	// Text is the heading content with inline markup stripped.
	Text string `json:"text"`

	// AnchorID is the URL-fragment slug for the heading, unique within the
	// document and identical to the id the HTML renderer emits.
	AnchorID string `json:"anchor_id"`
}

// BlockKind distinguishes heading blocks from everything else in a parsed
// document. The outline extractor only inspects headings.
type BlockKind int

const (
	// BlockHeading is an ATX or setext heading.
	BlockHeading BlockKind = iota
	// BlockOther is any non-heading block.
	BlockOther
)

// Block is one top-level block of a parsed markdown document.
type Block struct {
	Kind BlockKind
	// Level is the heading level for BlockHeading, 0 otherwise.
	Level int
	// Text is the plain-text content for BlockHeading, empty otherwise.
	Text string
}

// ShelfDocument is a markdown document as stored in the full-text search
// index.
type ShelfDocument struct {
	// ID is the document's tree node ID (its relative path).
	ID string `json:"id"`

	// Path is the slash-separated path relative to the shelf root.
	Path string `json:"path"`

	// Folder is the relative path of the containing folder, "" at the root.
	Folder string `json:"folder"`

	// Title is the first level-1 heading, or the file's display name when
	// the document has none.
	Title string `json:"title"`

	// Headings is the document's heading text joined for boosted matching.
	Headings string `json:"headings"`

	// Content is the full document text used for indexing and snippets.
	Content string `json:"content"`
}

// Bleve field name constants for consistent field references in queries and
// mappings.
const (
	DocFieldID       = "id"
	DocFieldPath     = "path"
	DocFieldFolder   = "folder"
	DocFieldTitle    = "title"
	DocFieldHeadings = "headings"
	DocFieldContent  = "content"
)
