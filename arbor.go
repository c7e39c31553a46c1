package arbor

/*
BSD 3-Clause License

Copyright (c) 2020–21, Norbert Pillmayer

Please refer to the License file in the repository root.

*/

import (
	"fmt"
	"iter"
)

// Tree is an n-ary tree owning its nodes, with a configurable self-balancing
// policy.
//
// A tree created by
//
//	Tree[int]{}
//
// is a valid object and behaves like an empty tree with balancing switched
// off; trees with an active balancing policy are created by New or
// NewWithRoot.
//
// The tree caches its node count, so Size is O(1). Structural mutation goes
// through the tree (AppendChild, RemoveChild, RemoveSubtree, SetRoot, Clear);
// nodes themselves only expose navigation and payload access. Every mutation
// keeps the cached count equal to the number of nodes reachable from the
// root.
//
// With AutoRebalance configured, mutations run a depth heuristic and may
// rebuild the tree on the spot. A rebuild invalidates all node references
// obtained earlier; AppendChild compensates by re-resolving the added node by
// payload before returning it.
type Tree[T comparable] struct {
	root       *Node[T]
	size       int
	cfg        Config
	mutations  uint64
	rebalances uint64
}

// New creates an empty tree with the given balancing configuration.
func New[T comparable](cfg Config) (*Tree[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Tree[T]{cfg: cfg.normalized()}, nil
}

// NewWithRoot creates a tree holding a single root node.
func NewWithRoot[T comparable](payload T, cfg Config) (*Tree[T], error) {
	t, err := New[T](cfg)
	if err != nil {
		return nil, err
	}
	t.SetRoot(payload)
	return t, nil
}

// IsEmpty reports whether the tree has no nodes.
func (t *Tree[T]) IsEmpty() bool {
	return t.root == nil
}

// Size returns the number of nodes in the tree.
func (t *Tree[T]) Size() int {
	return t.size
}

// Depth returns the depth of the tree. The empty tree has depth 0, a single
// root node depth 1.
func (t *Tree[T]) Depth() int {
	return t.root.Depth()
}

// Root returns the root node, if any.
func (t *Tree[T]) Root() (*Node[T], bool) {
	if t.root == nil {
		return nil, false
	}
	return t.root, true
}

// SetRoot replaces the whole tree by a single root node and returns it.
func (t *Tree[T]) SetRoot(payload T) *Node[T] {
	t.root = &Node[T]{payload: payload}
	t.size = 1
	t.mutations = 0
	return t.root
}

// Clear removes all nodes.
func (t *Tree[T]) Clear() {
	t.root = nil
	t.size = 0
	t.mutations = 0
}

// contains reports whether n is a node of this tree. Cost is proportional to
// the node's distance from the root.
func (t *Tree[T]) contains(n *Node[T]) bool {
	return n != nil && t.root != nil && n.root() == t.root
}

// AppendChild appends a new node holding payload at the end of parent's
// child list and returns it.
//
// The operation counts as a structural mutation: with AutoRebalance
// configured it may trigger a rebuild of the tree. In that case the returned
// node is re-resolved by payload (first match in preorder), since the
// rebuild invalidated the node created initially.
func (t *Tree[T]) AppendChild(parent *Node[T], payload T) (*Node[T], error) {
	if !t.contains(parent) {
		return nil, fmt.Errorf("%w: parent is not part of this tree", ErrInvalidReference)
	}
	child := parent.addChild(payload)
	t.size++
	if t.maybeRebalance() {
		child = t.FindPayload(payload)
		assert(child != nil, "rebalanced tree lost a payload")
	}
	return child, nil
}

// RemoveChild removes child, together with its subtree, from parent's child
// list. Children are identified by pointer identity; removing a node that is
// not a direct child of parent reports false without error.
func (t *Tree[T]) RemoveChild(parent, child *Node[T]) (bool, error) {
	if !t.contains(parent) {
		return false, fmt.Errorf("%w: parent is not part of this tree", ErrInvalidReference)
	}
	if child == nil {
		return false, nil
	}
	removed := child.TotalNodes()
	if !parent.removeChild(child) {
		return false, nil
	}
	t.size -= removed
	t.maybeRebalance()
	return true, nil
}

// RemoveSubtree detaches n and its subtree from the tree. Removing the root
// clears the tree.
func (t *Tree[T]) RemoveSubtree(n *Node[T]) error {
	if !t.contains(n) {
		return fmt.Errorf("%w: node is not part of this tree", ErrInvalidReference)
	}
	if n == t.root {
		t.Clear()
		return nil
	}
	removed := n.TotalNodes()
	ok := n.parent.removeChild(n)
	assert(ok, "node not linked to its parent")
	t.size -= removed
	t.maybeRebalance()
	return nil
}

// RemoveAllChildren detaches all direct children of n, together with their
// subtrees.
func (t *Tree[T]) RemoveAllChildren(n *Node[T]) error {
	if !t.contains(n) {
		return fmt.Errorf("%w: node is not part of this tree", ErrInvalidReference)
	}
	removed := 0
	for _, child := range n.children {
		removed += child.TotalNodes()
	}
	n.removeAllChildren()
	t.size -= removed
	t.maybeRebalance()
	return nil
}

// Payload returns the payload of a node of this tree.
func (t *Tree[T]) Payload(n *Node[T]) (T, error) {
	if !t.contains(n) {
		var none T
		return none, fmt.Errorf("%w: node is not part of this tree", ErrInvalidReference)
	}
	return n.payload, nil
}

// Children returns the direct children of a node of this tree.
func (t *Tree[T]) Children(n *Node[T]) ([]*Node[T], error) {
	if !t.contains(n) {
		return nil, fmt.Errorf("%w: node is not part of this tree", ErrInvalidReference)
	}
	return n.Children(), nil
}

// Parent returns the parent of a node of this tree. For the root it reports
// ok = false.
func (t *Tree[T]) Parent(n *Node[T]) (*Node[T], bool, error) {
	if !t.contains(n) {
		return nil, false, fmt.Errorf("%w: node is not part of this tree", ErrInvalidReference)
	}
	if n.parent == nil {
		return nil, false, nil
	}
	return n.parent, true, nil
}

// Nodes returns an iterator over all nodes of the tree in preorder.
func (t *Tree[T]) Nodes() iter.Seq[*Node[T]] {
	return t.root.Preorder()
}

// Find returns the first node, in preorder, for which pred returns true, or
// nil if there is no match.
func (t *Tree[T]) Find(pred func(*Node[T]) bool) *Node[T] {
	if t.root == nil {
		return nil
	}
	return t.root.Find(pred)
}

// FindPayload returns the first node, in preorder, holding the given
// payload, or nil if there is no match.
func (t *Tree[T]) FindPayload(payload T) *Node[T] {
	return t.Find(func(n *Node[T]) bool {
		return n.payload == payload
	})
}
