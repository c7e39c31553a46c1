package succinct

import "fmt"

// NodeView is an epoch-stamped handle on one node of a Store. Every
// method re-validates the stamp first: after a renumbering pass (a
// removal or a re-layout) all older views fail with ErrStaleReference
// instead of silently addressing a renumbered node.
type NodeView[T comparable] struct {
	store *Store[T]
	idx   int
	epoch uint64
}

// View mints a view of the node at i.
func (s *Store[T]) View(i int) (NodeView[T], error) {
	if err := s.checkIndex(i); err != nil {
		return NodeView[T]{}, err
	}
	return NodeView[T]{store: s, idx: i, epoch: s.epoch}, nil
}

func (v NodeView[T]) check() error {
	if v.store == nil {
		return fmt.Errorf("%w: zero view", ErrStaleReference)
	}
	if v.epoch != v.store.epoch {
		return fmt.Errorf("%w: view minted in epoch %d, store is at %d",
			ErrStaleReference, v.epoch, v.store.epoch)
	}
	return nil
}

// Index returns the node index the view was minted for. It is only
// trustworthy while the view's epoch is current.
func (v NodeView[T]) Index() int { return v.idx }

// Payload returns the payload of the viewed node.
func (v NodeView[T]) Payload() (T, error) {
	if err := v.check(); err != nil {
		var none T
		return none, err
	}
	return v.store.Payload(v.idx)
}

// SetPayload overwrites the payload of the viewed node.
func (v NodeView[T]) SetPayload(payload T) error {
	if err := v.check(); err != nil {
		return err
	}
	return v.store.SetPayload(v.idx, payload)
}

// ChildCount returns the number of children of the viewed node.
func (v NodeView[T]) ChildCount() (int, error) {
	if err := v.check(); err != nil {
		return 0, err
	}
	return v.store.ChildCount(v.idx)
}

// Child returns a view of the child at ordinal j.
func (v NodeView[T]) Child(j int) (NodeView[T], error) {
	if err := v.check(); err != nil {
		return NodeView[T]{}, err
	}
	idx, err := v.store.ChildIndex(v.idx, j)
	if err != nil {
		return NodeView[T]{}, err
	}
	return NodeView[T]{store: v.store, idx: idx, epoch: v.epoch}, nil
}

// Parent returns a view of the parent node. ok is false for the root.
func (v NodeView[T]) Parent() (NodeView[T], bool, error) {
	if err := v.check(); err != nil {
		return NodeView[T]{}, false, err
	}
	parent, ok, err := v.store.Parent(v.idx)
	if err != nil || !ok {
		return NodeView[T]{}, false, err
	}
	return NodeView[T]{store: v.store, idx: parent, epoch: v.epoch}, true, nil
}

// IsRoot reports whether the viewed node is the root.
func (v NodeView[T]) IsRoot() (bool, error) {
	if err := v.check(); err != nil {
		return false, err
	}
	return v.idx == 0, nil
}

// IsLeaf reports whether the viewed node has no children.
func (v NodeView[T]) IsLeaf() (bool, error) {
	n, err := v.ChildCount()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// AppendChild appends a new last child under the viewed node and returns
// its view. If the append triggers a lazy re-layout, the returned view
// is already stale and says so on first use.
func (v NodeView[T]) AppendChild(payload T) (NodeView[T], error) {
	if err := v.check(); err != nil {
		return NodeView[T]{}, err
	}
	epoch := v.store.epoch
	idx, err := v.store.AppendChild(v.idx, payload)
	if err != nil {
		return NodeView[T]{}, err
	}
	return NodeView[T]{store: v.store, idx: idx, epoch: epoch}, nil
}

// RemoveChild removes the child at ordinal j together with its subtree.
// The removal renumbers the store, so the view itself is stale
// afterwards, like every other outstanding view.
func (v NodeView[T]) RemoveChild(j int) error {
	if err := v.check(); err != nil {
		return err
	}
	return v.store.RemoveChild(v.idx, j)
}
