package sim

import (
	"errors"
	"fmt"
	"sort"
)

// ErrStructuralInvariant is wrapped by every world-tree validation failure.
// A violation is fatal: the run must not commit any tick on top of a
// malformed tree.
var ErrStructuralInvariant = errors.New("world tree structural invariant violated")

// NodeKind classifies a world node.
type NodeKind string

const (
	NodeArea   NodeKind = "area"
	NodeObject NodeKind = "object"
	NodeAgent  NodeKind = "agent"
)

// Node is one entry in the world containment tree. Parent/child references
// are id lookups into the owning tree's arena, never pointers.
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     NodeKind `json:"kind"`
	ParentID string   `json:"parent_id,omitempty"` // empty only for the root
	Children []string `json:"children,omitempty"`  // ordered
}

// clone returns a deep copy of the node.
func (n *Node) clone() *Node {
	c := *n
	c.Children = append([]string(nil), n.Children...)
	return &c
}

// WorldTree is the canonical containment hierarchy of areas, objects and
// agents: an arena of nodes indexed by id with a single root.
type WorldTree struct {
	RootID string           `json:"root_id"`
	Nodes  map[string]*Node `json:"nodes"`
}

// NewWorldTree creates a tree holding only the given root area node.
func NewWorldTree(rootID, rootName string) *WorldTree {
	return &WorldTree{
		RootID: rootID,
		Nodes: map[string]*Node{
			rootID: {ID: rootID, Name: rootName, Kind: NodeArea},
		},
	}
}

// Node returns the node with the given id, or nil.
func (w *WorldTree) Node(id string) *Node {
	return w.Nodes[id]
}

// AddNode inserts a node under the given parent. The parent must exist.
func (w *WorldTree) AddNode(n *Node, parentID string) error {
	parent := w.Nodes[parentID]
	if parent == nil {
		return fmt.Errorf("%w: parent %q not found for node %q", ErrStructuralInvariant, parentID, n.ID)
	}
	if _, exists := w.Nodes[n.ID]; exists {
		return fmt.Errorf("%w: duplicate node id %q", ErrStructuralInvariant, n.ID)
	}
	n.ParentID = parentID
	w.Nodes[n.ID] = n
	parent.Children = append(parent.Children, n.ID)
	return nil
}

// Reparent moves a node under a new parent, preserving the relative order of
// the remaining siblings. Used by the transit machine when an agent crosses
// an edge.
func (w *WorldTree) Reparent(id, newParentID string) error {
	node := w.Nodes[id]
	if node == nil {
		return fmt.Errorf("%w: node %q not found", ErrStructuralInvariant, id)
	}
	newParent := w.Nodes[newParentID]
	if newParent == nil {
		return fmt.Errorf("%w: parent %q not found", ErrStructuralInvariant, newParentID)
	}
	if old := w.Nodes[node.ParentID]; old != nil {
		old.Children = removeID(old.Children, id)
	}
	if !containsID(newParent.Children, id) {
		newParent.Children = append(newParent.Children, id)
	}
	node.ParentID = newParentID
	return nil
}

// ChildrenOfKind returns the ids of a node's immediate children of the given
// kind, in child order.
func (w *WorldTree) ChildrenOfKind(id string, kind NodeKind) []string {
	node := w.Nodes[id]
	if node == nil {
		return nil
	}
	var out []string
	for _, childID := range node.Children {
		if child := w.Nodes[childID]; child != nil && child.Kind == kind {
			out = append(out, childID)
		}
	}
	return out
}

// SortedIDs returns every node id in lexicographic order. Iteration over the
// arena map is never used directly where ordering matters.
func (w *WorldTree) SortedIDs() []string {
	ids := make([]string, 0, len(w.Nodes))
	for id := range w.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks the single-rooted-tree invariant: the root exists and has
// no parent, ids match arena keys, parent/child references are symmetric,
// and every node is reachable from the root exactly once (no cycles, no
// orphans). All failures wrap ErrStructuralInvariant.
func (w *WorldTree) Validate() error {
	root := w.Nodes[w.RootID]
	if root == nil {
		return fmt.Errorf("%w: root %q not in node set", ErrStructuralInvariant, w.RootID)
	}
	if root.ParentID != "" {
		return fmt.Errorf("%w: root %q has parent %q", ErrStructuralInvariant, w.RootID, root.ParentID)
	}
	for id, node := range w.Nodes {
		if node.ID != id {
			return fmt.Errorf("%w: node keyed %q carries id %q", ErrStructuralInvariant, id, node.ID)
		}
		if id != w.RootID {
			parent := w.Nodes[node.ParentID]
			if parent == nil {
				return fmt.Errorf("%w: node %q has dangling parent %q", ErrStructuralInvariant, id, node.ParentID)
			}
			if !containsID(parent.Children, id) {
				return fmt.Errorf("%w: node %q missing from children of parent %q", ErrStructuralInvariant, id, node.ParentID)
			}
		}
		for _, childID := range node.Children {
			child := w.Nodes[childID]
			if child == nil {
				return fmt.Errorf("%w: node %q lists unknown child %q", ErrStructuralInvariant, id, childID)
			}
			if child.ParentID != id {
				return fmt.Errorf("%w: child %q of %q claims parent %q", ErrStructuralInvariant, childID, id, child.ParentID)
			}
		}
	}
	// Reachability walk. Counting visits catches both cycles and detached
	// subtrees: a tree is valid iff every node is visited exactly once.
	visited := make(map[string]bool, len(w.Nodes))
	stack := []string{w.RootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			return fmt.Errorf("%w: node %q reachable twice (cycle)", ErrStructuralInvariant, id)
		}
		visited[id] = true
		stack = append(stack, w.Nodes[id].Children...)
	}
	if len(visited) != len(w.Nodes) {
		return fmt.Errorf("%w: %d of %d nodes unreachable from root", ErrStructuralInvariant, len(w.Nodes)-len(visited), len(w.Nodes))
	}
	return nil
}

// Clone returns a deep copy of the tree. Snapshots handed to the decide
// phase are built from clones so agent reads never alias scheduler writes.
func (w *WorldTree) Clone() *WorldTree {
	nodes := make(map[string]*Node, len(w.Nodes))
	for id, node := range w.Nodes {
		nodes[id] = node.clone()
	}
	return &WorldTree{RootID: w.RootID, Nodes: nodes}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
