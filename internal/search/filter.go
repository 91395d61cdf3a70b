package search

import (
	"strings"

	"github.com/mdshelf/mdshelf/internal/domain"
)

// Result is the outcome of one tree filter pass: the set of nodes to show
// and, within those, the nodes that matched the query themselves. A nil
// *Result means no filter is active and visibility is purely
// expansion-driven.
type Result struct {
	visible map[string]struct{}
	matched map[string]struct{}
}

// Visible reports whether the node is included under the active filter.
func (r *Result) Visible(nodeID string) bool {
	if r == nil {
		return true
	}
	_, ok := r.visible[nodeID]
	return ok
}

// Matched reports whether the node itself matched the query, as opposed to
// being shown as an ancestor or descendant of a match.
func (r *Result) Matched(nodeID string) bool {
	if r == nil {
		return false
	}
	_, ok := r.matched[nodeID]
	return ok
}

// Size returns the number of visible nodes.
func (r *Result) Size() int {
	if r == nil {
		return 0
	}
	return len(r.visible)
}

// Filter computes the visible-node set for a query over the tree.
//
// A node matches when the query appears as a case-insensitive contiguous
// substring of its name or path. The result contains every match, every
// ancestor folder of a match (so deep matches stay reachable), and every
// descendant of a matching folder (matching a folder name reveals its
// contents). Filtering never reorders nodes.
//
// An empty or whitespace-only query returns nil: no filtering.
func Filter(root *domain.TreeNode, query string) *Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || root == nil {
		return nil
	}

	r := &Result{
		visible: make(map[string]struct{}),
		matched: make(map[string]struct{}),
	}

	type frame struct {
		node      *domain.TreeNode
		ancestors []string
		revealed  bool
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		matched := f.node.ID != domain.RootID && matches(f.node, q)
		if matched {
			r.matched[f.node.ID] = struct{}{}
		}
		if matched || f.revealed {
			r.visible[f.node.ID] = struct{}{}
			for _, id := range f.ancestors {
				r.visible[id] = struct{}{}
			}
		}

		ancestors := f.ancestors
		if f.node.ID != domain.RootID {
			ancestors = append(append([]string(nil), f.ancestors...), f.node.ID)
		}
		reveal := f.revealed || (matched && f.node.IsFolder())
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				node:      f.node.Children[i],
				ancestors: ancestors,
				revealed:  reveal,
			})
		}
	}

	return r
}

// matches reports a case-insensitive substring match on name or path.
func matches(node *domain.TreeNode, loweredQuery string) bool {
	if strings.Contains(strings.ToLower(node.Name), loweredQuery) {
		return true
	}
	return strings.Contains(strings.ToLower(node.Path), loweredQuery)
}
