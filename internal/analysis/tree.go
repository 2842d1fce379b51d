package analysis

import (
	"sort"

	"github.com/complymap/complymap-cli/internal/domain/catalog"
)

// ControlNode is one node of a framework's control forest.
type ControlNode struct {
	Control  catalog.Control `json:"control"`
	Children []*ControlNode  `json:"children,omitempty"`
}

// BuildControlTree assembles the flat control list of one framework into an
// ordered forest. Children are grouped by parent ID once, then emitted
// recursively, so cost stays near-linear in control count.
//
// Anomalous parentage never aborts the build: a control whose parent is
// itself or does not exist is promoted to a root, and any cycle is cut by a
// visited guard so each control appears in the forest exactly once.
func BuildControlTree(controls []catalog.Control) ([]*ControlNode, []Warning) {
	known := make(map[string]bool, len(controls))
	for _, c := range controls {
		known[c.ID] = true
	}

	var warnings []Warning
	var roots []catalog.Control
	byParent := make(map[string][]catalog.Control)
	for _, c := range controls {
		switch {
		case c.IsRoot():
			roots = append(roots, c)
		case c.ParentID == c.ID:
			warnings = append(warnings, warnf(WarnControlCycle,
				"control %s (%s) is its own parent, treating as root", c.ID, c.Code))
			roots = append(roots, c)
		case !known[c.ParentID]:
			warnings = append(warnings, warnf(WarnDanglingParent,
				"control %s (%s) references missing parent %s, treating as root", c.ID, c.Code, c.ParentID))
			roots = append(roots, c)
		default:
			byParent[c.ParentID] = append(byParent[c.ParentID], c)
		}
	}

	sortSiblings(roots)
	for _, siblings := range byParent {
		sortSiblings(siblings)
	}

	visited := make(map[string]bool, len(controls))
	var build func(c catalog.Control) *ControlNode
	build = func(c catalog.Control) *ControlNode {
		visited[c.ID] = true
		node := &ControlNode{Control: c}
		for _, child := range byParent[c.ID] {
			if visited[child.ID] {
				warnings = append(warnings, warnf(WarnControlCycle,
					"cycle at control %s (%s), cutting recursion", child.ID, child.Code))
				continue
			}
			node.Children = append(node.Children, build(child))
		}
		return node
	}

	forest := make([]*ControlNode, 0, len(roots))
	for _, r := range roots {
		if visited[r.ID] {
			continue
		}
		forest = append(forest, build(r))
	}

	// Controls trapped in a cycle are unreachable from any root. Promote
	// the first unvisited member so every control still appears once.
	for _, c := range controls {
		if !visited[c.ID] {
			warnings = append(warnings, warnf(WarnControlCycle,
				"control %s (%s) unreachable from any root, promoting to root", c.ID, c.Code))
			forest = append(forest, build(c))
		}
	}

	return forest, warnings
}

// CountNodes returns the total node count of a forest.
func CountNodes(forest []*ControlNode) int {
	n := 0
	for _, node := range forest {
		n += 1 + CountNodes(node.Children)
	}
	return n
}

func sortSiblings(siblings []catalog.Control) {
	sort.SliceStable(siblings, func(i, j int) bool {
		if siblings[i].SortOrder != siblings[j].SortOrder {
			return siblings[i].SortOrder < siblings[j].SortOrder
		}
		return siblings[i].Code < siblings[j].Code
	})
}
