package nav

import (
	"github.com/mdshelf/mdshelf/internal/domain"
	"github.com/mdshelf/mdshelf/internal/search"
)

// ExpansionFunc answers whether a folder node is expanded.
type ExpansionFunc func(nodeID string) bool

// Flatten projects the tree into the ordered visible-node list for one
// render pass. The root itself is not emitted; its children start at depth 0.
//
// Without a filter, a folder's children are visible only while the folder is
// expanded. With an active filter the projection switches entirely to the
// filter's visible set, with every included folder shown open so matches are
// revealed regardless of saved expansion state.
func Flatten(root *domain.TreeNode, expanded ExpansionFunc, filter *search.Result) []domain.VisibleNode {
	if root == nil {
		return nil
	}

	var visible []domain.VisibleNode

	type frame struct {
		node  *domain.TreeNode
		depth int
	}
	stack := make([]frame, 0, len(root.Children))
	for i := len(root.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: root.Children[i], depth: 0})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if filter != nil {
			if !filter.Visible(f.node.ID) {
				continue
			}
			visible = append(visible, domain.VisibleNode{
				Node:    f.node,
				Depth:   f.depth,
				Matched: filter.Matched(f.node.ID),
			})
			for i := len(f.node.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: f.node.Children[i], depth: f.depth + 1})
			}
			continue
		}

		visible = append(visible, domain.VisibleNode{Node: f.node, Depth: f.depth})
		if f.node.IsFolder() && expanded != nil && expanded(f.node.ID) {
			for i := len(f.node.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: f.node.Children[i], depth: f.depth + 1})
			}
		}
	}

	return visible
}
