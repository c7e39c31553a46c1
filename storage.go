package arbor

import "fmt"

// Storage is the narrow capability surface a tree layout exposes to the
// shared engine parts: balancing, statistics and shape copying. The owned
// Tree implements Storage[T, *Node[T]]; index-addressed layouts implement
// Storage[T, int].
//
// R identifies a node within the layout. References are stable between
// structural passes only; a layout that renumbers is expected to reject
// stale references with an error rather than resolve them silently.
type Storage[T comparable, R any] interface {
	// Size returns the number of nodes.
	Size() int
	// Root returns the root reference; ok is false for empty storage.
	Root() (ref R, ok bool)
	// Payload returns the payload of a node.
	Payload(n R) (T, error)
	// Children returns the direct children of a node, in order.
	Children(n R) ([]R, error)
	// Parent returns the parent of a node; ok is false for the root.
	Parent(n R) (parent R, ok bool, err error)
	// AppendChild appends a new node at the end of n's child list.
	AppendChild(n R, payload T) (R, error)
	// RemoveSubtree removes a node together with its subtree.
	RemoveSubtree(n R) error
	// SetRoot replaces the whole content by a single root node.
	SetRoot(payload T) R
}

// Collect flattens a storage into a payload slice in level order: root
// first, then its children in order, and so on. It is the storage-agnostic
// counterpart of Tree.CollectPayloads.
func Collect[T comparable, R any](s Storage[T, R]) ([]T, error) {
	root, ok := s.Root()
	if !ok {
		return nil, nil
	}
	data := make([]T, 0, s.Size())
	queue := []R{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		payload, err := s.Payload(n)
		if err != nil {
			return nil, err
		}
		data = append(data, payload)
		children, err := s.Children(n)
		if err != nil {
			return nil, err
		}
		queue = append(queue, children...)
	}
	return data, nil
}

// Rebuild replaces the content of s by a balanced tree over data, bounded by
// maxFanout and preserving the order of data. It is the storage-agnostic
// counterpart of Tree.Balance: Rebuild(s, data, k) after data, _ :=
// Collect(s) rebalances s in place.
//
// Nodes are appended in level order, so index-addressed layouts end up in
// their canonical contiguous layout. Automatic policies of s should be
// switched off during a rebuild; a storage that renumbers mid-build rejects
// the build's stale references and Rebuild passes the error through.
func Rebuild[T comparable, R any](s Storage[T, R], data []T, maxFanout int) error {
	if maxFanout < 1 {
		return fmt.Errorf("%w: max fanout must be at least 1", ErrInvalidConfig)
	}
	if len(data) == 0 {
		if root, ok := s.Root(); ok {
			return s.RemoveSubtree(root)
		}
		return nil
	}
	type span struct {
		parent     R
		start, end int
	}
	queue := []span{{parent: s.SetRoot(data[0]), start: 1, end: len(data)}}
	for len(queue) > 0 {
		sp := queue[0]
		queue = queue[1:]
		remaining := sp.end - sp.start
		if remaining <= 0 {
			continue
		}
		count := min(remaining, maxFanout)
		base := remaining / count
		extra := remaining % count
		pos := sp.start
		for i := 0; i < count; i++ {
			size := base
			if i < extra {
				size++
			}
			child, err := s.AppendChild(sp.parent, data[pos])
			if err != nil {
				return err
			}
			queue = append(queue, span{parent: child, start: pos + 1, end: pos + size})
			pos += size
		}
		assert(pos == sp.end, "balanced rebuild did not consume its range")
	}
	return nil
}

// Transfer copies the shape and payload sequence of src into dst, replacing
// dst's content. Nodes are copied in level order; child order is preserved
// exactly, so the copy is shape-identical regardless of the layouts
// involved.
func Transfer[T comparable, R1, R2 any](dst Storage[T, R2], src Storage[T, R1]) error {
	srcRoot, ok := src.Root()
	if !ok {
		if dstRoot, ok := dst.Root(); ok {
			return dst.RemoveSubtree(dstRoot)
		}
		return nil
	}
	payload, err := src.Payload(srcRoot)
	if err != nil {
		return err
	}
	type pair struct {
		from R1
		to   R2
	}
	queue := []pair{{from: srcRoot, to: dst.SetRoot(payload)}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		children, err := src.Children(p.from)
		if err != nil {
			return err
		}
		for _, c := range children {
			payload, err := src.Payload(c)
			if err != nil {
				return err
			}
			to, err := dst.AppendChild(p.to, payload)
			if err != nil {
				return err
			}
			queue = append(queue, pair{from: c, to: to})
		}
	}
	return nil
}
