package arbor

/*
BSD 3-Clause License

Copyright (c) 2020–21, Norbert Pillmayer

Please refer to the License file in the repository root.

*/

import "fmt"

// Node is a single tree node: one payload plus an ordered list of children.
//
// Nodes expose navigation and payload access. Structural mutation goes
// through the owning Tree, which keeps the cached node count exact and runs
// the auto-rebalance policy. The parent link is non-owning and used for
// navigation only.
//
// A node reference stays valid until a rebalancing pass rebuilds the tree;
// see Tree.Balance.
type Node[T comparable] struct {
	payload  T
	children []*Node[T]
	parent   *Node[T]
}

// Payload returns the node's payload. Payloads are opaque to the engine.
func (n *Node[T]) Payload() T {
	return n.payload
}

// SetPayload overwrites the node's payload in place. Payload updates are not
// structural mutations and never trigger rebalancing.
func (n *Node[T]) SetPayload(payload T) {
	n.payload = payload
}

// ChildCount returns the number of direct children.
func (n *Node[T]) ChildCount() int {
	return len(n.children)
}

// Child returns the i-th child, in insertion order.
func (n *Node[T]) Child(i int) (*Node[T], error) {
	if i < 0 || i >= len(n.children) {
		return nil, fmt.Errorf("%w: child %d of %d", ErrIndexOutOfRange, i, len(n.children))
	}
	return n.children[i], nil
}

// Children returns a copy of the child list. Mutating the returned slice
// does not affect the tree.
func (n *Node[T]) Children() []*Node[T] {
	if len(n.children) == 0 {
		return nil
	}
	children := make([]*Node[T], len(n.children))
	copy(children, n.children)
	return children
}

// Parent returns the parent node, or nil for a root.
func (n *Node[T]) Parent() *Node[T] {
	return n.parent
}

// IsLeaf reports whether the node has no children.
func (n *Node[T]) IsLeaf() bool {
	return len(n.children) == 0
}

// IsRoot reports whether the node has no parent.
func (n *Node[T]) IsRoot() bool {
	return n.parent == nil
}

// Depth returns the depth of the subtree rooted at n. A single node has
// depth 1.
func (n *Node[T]) Depth() int {
	if n == nil {
		return 0
	}
	depth := 0
	for _, child := range n.children {
		if d := child.Depth(); d > depth {
			depth = d
		}
	}
	return depth + 1
}

// HeightFromRoot returns the number of parent hops from the tree's root to
// n. A root reports 0.
func (n *Node[T]) HeightFromRoot() int {
	h := 0
	for p := n.parent; p != nil; p = p.parent {
		h++
	}
	return h
}

// TotalNodes returns the node count of the subtree rooted at n, including n.
func (n *Node[T]) TotalNodes() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, child := range n.children {
		total += child.TotalNodes()
	}
	return total
}

// root walks the parent chain up to the subtree's root node.
func (n *Node[T]) root() *Node[T] {
	node := n
	for node.parent != nil {
		node = node.parent
	}
	return node
}

// --- Structural mutation (package-internal) --------------------------------

// Tree operations and the balancer mutate node structure through these
// helpers. They do not maintain any Tree bookkeeping.

func (n *Node[T]) addChild(payload T) *Node[T] {
	child := &Node[T]{payload: payload, parent: n}
	n.children = append(n.children, child)
	return child
}

func (n *Node[T]) appendSubtree(child *Node[T]) {
	assert(child != nil, "attempt to append nil subtree")
	assert(child.parent == nil, "attempt to append an attached subtree")
	child.parent = n
	n.children = append(n.children, child)
}

// removeChild detaches the direct child identified by pointer identity,
// reporting whether it was present.
func (n *Node[T]) removeChild(child *Node[T]) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

func (n *Node[T]) removeAllChildren() {
	for _, child := range n.children {
		child.parent = nil
	}
	n.children = nil
}
