// Package tree provides the n-ary labeled tree shared by every tree-shaped
// structure of the navigation engine.
//
// A tree is built once from a recursive Node description and then frozen into
// an arena: nodes live in a flat slice and refer to each other by NodeID, so
// the values stored in the tree never carry parent pointers of their own.
// Values are looked up by identity (they must be comparable), which is what
// lets the same value, for example a live route, appear in the trees of two
// successive navigations without either tree owning it.
package tree

// NodeID addresses a node inside a Tree.
type NodeID int

// NoNode is returned where a node has no parent or a lookup fails.
const NoNode NodeID = -1

// Node is the build form of a tree: a value and its ordered children.
type Node[T comparable] struct {
	Value    T
	Children []*Node[T]
}

// NewNode creates a build node.
func NewNode[T comparable](value T, children ...*Node[T]) *Node[T] {
	return &Node[T]{Value: value, Children: children}
}

// entry is one arena slot.
type entry[T comparable] struct {
	value    T
	parent   NodeID
	children []NodeID
}

// Tree is an immutable arena of labeled nodes.
type Tree[T comparable] struct {
	nodes []entry[T]
	index map[T]NodeID
}

// New freezes a build tree into an arena. Nodes are stored in pre-order, so
// the root is always NodeID 0. If a value occurs more than once, lookups by
// value resolve to its first occurrence.
func New[T comparable](root *Node[T]) *Tree[T] {
	t := &Tree[T]{index: make(map[T]NodeID)}
	if root != nil {
		t.add(root, NoNode)
	}
	return t
}

func (t *Tree[T]) add(n *Node[T], parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, entry[T]{value: n.Value, parent: parent})
	if _, exists := t.index[n.Value]; !exists {
		t.index[n.Value] = id
	}
	children := make([]NodeID, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, t.add(c, id))
	}
	t.nodes[id].children = children
	return id
}

// Len returns the number of nodes.
func (t *Tree[T]) Len() int {
	return len(t.nodes)
}

// RootID returns the id of the root node, or NoNode for an empty tree.
func (t *Tree[T]) RootID() NodeID {
	if len(t.nodes) == 0 {
		return NoNode
	}
	return 0
}

// Root returns the root value.
func (t *Tree[T]) Root() T {
	var zero T
	if len(t.nodes) == 0 {
		return zero
	}
	return t.nodes[0].value
}

// ID returns the node id holding v.
func (t *Tree[T]) ID(v T) (NodeID, bool) {
	id, ok := t.index[v]
	return id, ok
}

// Value returns the value stored at id.
func (t *Tree[T]) Value(id NodeID) T {
	return t.nodes[id].value
}

// ParentID returns the parent of id, or NoNode for the root.
func (t *Tree[T]) ParentID(id NodeID) NodeID {
	return t.nodes[id].parent
}

// ChildIDs returns the ordered children of id.
func (t *Tree[T]) ChildIDs(id NodeID) []NodeID {
	return t.nodes[id].children
}

// Parent returns the parent value of v.
func (t *Tree[T]) Parent(v T) (T, bool) {
	var zero T
	id, ok := t.index[v]
	if !ok {
		return zero, false
	}
	p := t.nodes[id].parent
	if p == NoNode {
		return zero, false
	}
	return t.nodes[p].value, true
}

// Children returns the ordered child values of v.
func (t *Tree[T]) Children(v T) []T {
	id, ok := t.index[v]
	if !ok {
		return nil
	}
	return t.values(t.nodes[id].children)
}

// FirstChild returns the first child value of v.
func (t *Tree[T]) FirstChild(v T) (T, bool) {
	var zero T
	id, ok := t.index[v]
	if !ok || len(t.nodes[id].children) == 0 {
		return zero, false
	}
	return t.nodes[t.nodes[id].children[0]].value, true
}

// Siblings returns the other children of v's parent, in order.
func (t *Tree[T]) Siblings(v T) []T {
	id, ok := t.index[v]
	if !ok {
		return nil
	}
	p := t.nodes[id].parent
	if p == NoNode {
		return nil
	}
	var out []T
	for _, c := range t.nodes[p].children {
		if c != id {
			out = append(out, t.nodes[c].value)
		}
	}
	return out
}

// PathFromRoot returns the values from the root down to and including v.
func (t *Tree[T]) PathFromRoot(v T) []T {
	id, ok := t.index[v]
	if !ok {
		return nil
	}
	var rev []T
	for cur := id; cur != NoNode; cur = t.nodes[cur].parent {
		rev = append(rev, t.nodes[cur].value)
	}
	out := make([]T, len(rev))
	for i, val := range rev {
		out[len(rev)-1-i] = val
	}
	return out
}

// Subtree rebuilds the build form of the subtree rooted at v. The result
// shares values with t but no structure.
func (t *Tree[T]) Subtree(v T) *Node[T] {
	id, ok := t.index[v]
	if !ok {
		return nil
	}
	return t.NodeAt(id)
}

// NodeAt rebuilds the build form of the subtree rooted at id.
func (t *Tree[T]) NodeAt(id NodeID) *Node[T] {
	e := t.nodes[id]
	n := &Node[T]{Value: e.value}
	for _, c := range e.children {
		n.Children = append(n.Children, t.NodeAt(c))
	}
	return n
}

// Walk visits every node in pre-order until fn returns false.
func (t *Tree[T]) Walk(fn func(id NodeID, v T) bool) {
	for i := range t.nodes {
		if !fn(NodeID(i), t.nodes[i].value) {
			return
		}
	}
}

func (t *Tree[T]) values(ids []NodeID) []T {
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = t.nodes[id].value
	}
	return out
}
