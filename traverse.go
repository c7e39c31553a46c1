package arbor

import "iter"

// Preorder returns an iterator over the subtree rooted at n, visiting each
// node before its children. Children are visited in insertion order.
func (n *Node[T]) Preorder() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		if n == nil {
			return
		}
		n.preorder(yield)
	}
}

func (n *Node[T]) preorder(yield func(*Node[T]) bool) bool {
	if !yield(n) {
		return false
	}
	for _, child := range n.children {
		if !child.preorder(yield) {
			return false
		}
	}
	return true
}

// Postorder returns an iterator over the subtree rooted at n, visiting each
// node after its children.
func (n *Node[T]) Postorder() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		if n == nil {
			return
		}
		n.postorder(yield)
	}
}

func (n *Node[T]) postorder(yield func(*Node[T]) bool) bool {
	for _, child := range n.children {
		if !child.postorder(yield) {
			return false
		}
	}
	return yield(n)
}

// LevelOrder returns an iterator over the subtree rooted at n in BFS order:
// n first, then its children, then grandchildren, and so on. Siblings keep
// their insertion order.
func (n *Node[T]) LevelOrder() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		if n == nil {
			return
		}
		queue := []*Node[T]{n}
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			if !yield(node) {
				return
			}
			queue = append(queue, node.children...)
		}
	}
}

// Find returns the first node of the subtree, in preorder, for which pred
// returns true, or nil if there is no match.
func (n *Node[T]) Find(pred func(*Node[T]) bool) *Node[T] {
	for node := range n.Preorder() {
		if pred(node) {
			return node
		}
	}
	return nil
}
