package nav

import (
	"github.com/mdshelf/mdshelf/internal/domain"
)

// NoSelection is the selected index when nothing is selected.
const NoSelection = -1

// Hooks are the side effects the controller delegates to its owner. The
// owner recomputes the projection after a toggle and feeds it back through
// SetVisible.
type Hooks struct {
	// OpenFile is called when a file node is activated.
	OpenFile func(node *domain.TreeNode)
	// ToggleFolder is called to flip a folder's expansion state.
	ToggleFolder func(nodeID string)
	// IsExpanded answers a folder's current expansion state.
	IsExpanded func(nodeID string) bool
}

// Controller maintains the single selection over the current visible-node
// sequence and translates navigation intents into moves and side effects.
// It holds no toolkit state: a UI binds key events to these methods.
//
// Invariant: selected is NoSelection or a valid index into visible. The
// selection is re-bound by node ID whenever the sequence changes; if the
// selected node disappears the controller drops to NoSelection rather than
// holding a dangling index.
type Controller struct {
	hooks    Hooks
	visible  []domain.VisibleNode
	parents  map[string]string
	selected int
}

// NewController creates a controller with no tree and no selection.
func NewController(hooks Hooks) *Controller {
	return &Controller{hooks: hooks, selected: NoSelection}
}

// SetTree indexes parent relationships for CollapseOrExit jumps. Call it
// after every rescan, before SetVisible.
func (c *Controller) SetTree(root *domain.TreeNode) {
	parents := make(map[string]string)
	if root != nil {
		root.Walk(func(node, parent *domain.TreeNode) bool {
			if parent != nil {
				parents[node.ID] = parent.ID
			}
			return true
		})
	}
	c.parents = parents
}

// SetVisible replaces the visible-node sequence, re-binding the selection by
// node ID. A vanished selection becomes NoSelection.
func (c *Controller) SetVisible(visible []domain.VisibleNode) {
	prevID := ""
	if c.selected != NoSelection && c.selected < len(c.visible) {
		prevID = c.visible[c.selected].Node.ID
	}

	c.visible = visible
	c.selected = c.indexOf(prevID)
}

// Visible returns the current visible-node sequence.
func (c *Controller) Visible() []domain.VisibleNode {
	return c.visible
}

// SelectedIndex returns the selected index, or NoSelection.
func (c *Controller) SelectedIndex() int {
	return c.selected
}

// Selected returns the selected visible node, if any.
func (c *Controller) Selected() (domain.VisibleNode, bool) {
	if c.selected == NoSelection {
		return domain.VisibleNode{}, false
	}
	return c.visible[c.selected], true
}

// Select moves the selection to the node with the given ID, if visible.
func (c *Controller) Select(nodeID string) {
	if idx := c.indexOf(nodeID); idx != NoSelection {
		c.selected = idx
	}
}

// MoveNext moves the selection down one row, clamped to the last row.
// With no selection it selects the first row.
func (c *Controller) MoveNext() {
	if len(c.visible) == 0 {
		return
	}
	if c.selected == NoSelection {
		c.selected = 0
		return
	}
	c.selected = min(c.selected+1, len(c.visible)-1)
}

// MovePrevious moves the selection up one row, clamped to the first row.
// With no selection it selects the first row.
func (c *Controller) MovePrevious() {
	if len(c.visible) == 0 {
		return
	}
	if c.selected == NoSelection {
		c.selected = 0
		return
	}
	c.selected = max(c.selected-1, 0)
}

// ExpandOrEnter expands a collapsed folder, or steps into the first child of
// an already expanded one. On files it is a no-op.
func (c *Controller) ExpandOrEnter() {
	cur, ok := c.Selected()
	if !ok {
		return
	}
	if cur.Node.IsFolder() && !c.expanded(cur.Node.ID) {
		c.toggle(cur.Node.ID)
		return
	}
	// First child, when visible, is the next row one level deeper.
	next := c.selected + 1
	if next < len(c.visible) && c.visible[next].Depth == cur.Depth+1 {
		c.selected = next
	}
}

// CollapseOrExit collapses an expanded folder, or jumps to the parent of a
// file or collapsed folder. At the top level it is a no-op.
func (c *Controller) CollapseOrExit() {
	cur, ok := c.Selected()
	if !ok {
		return
	}
	if cur.Node.IsFolder() && c.expanded(cur.Node.ID) {
		c.toggle(cur.Node.ID)
		return
	}
	parentID, ok := c.parents[cur.Node.ID]
	if !ok || parentID == domain.RootID {
		return
	}
	if idx := c.indexOf(parentID); idx != NoSelection {
		c.selected = idx
	}
}

// Activate opens the selected file or toggles the selected folder.
func (c *Controller) Activate() {
	cur, ok := c.Selected()
	if !ok {
		return
	}
	if cur.Node.IsFolder() {
		c.toggle(cur.Node.ID)
		return
	}
	if c.hooks.OpenFile != nil {
		c.hooks.OpenFile(cur.Node)
	}
}

func (c *Controller) indexOf(nodeID string) int {
	if nodeID == "" {
		return NoSelection
	}
	for i, vn := range c.visible {
		if vn.Node.ID == nodeID {
			return i
		}
	}
	return NoSelection
}

func (c *Controller) expanded(nodeID string) bool {
	return c.hooks.IsExpanded != nil && c.hooks.IsExpanded(nodeID)
}

func (c *Controller) toggle(nodeID string) {
	if c.hooks.ToggleFolder != nil {
		c.hooks.ToggleFolder(nodeID)
	}
}
