package arbor

import (
	"fmt"
	"math"
)

// CollectPayloads flattens the tree into a payload slice in level order:
// root first, then its children in insertion order, and so on. This is the
// sequence a balancing pass redistributes.
func (t *Tree[T]) CollectPayloads() []T {
	if t.root == nil {
		return nil
	}
	data := make([]T, 0, t.size)
	for node := range t.root.LevelOrder() {
		data = append(data, node.payload)
	}
	return data
}

// buildBalanced builds a subtree from the half-open range data[start:end).
// data[start] becomes the subtree root; the remaining payloads are split
// over up to maxFanout children of near-equal weight. Earlier children
// receive the surplus, and ranges are assigned left to right, so the
// relative payload order is preserved.
func buildBalanced[T comparable](data []T, start, end, maxFanout int) *Node[T] {
	if start >= end {
		return nil
	}
	node := &Node[T]{payload: data[start]}
	remaining := end - start - 1
	if remaining == 0 {
		return node
	}
	count := min(remaining, maxFanout)
	base := remaining / count
	extra := remaining % count
	pos := start + 1
	for i := 0; i < count; i++ {
		size := base
		if i < extra {
			size++
		}
		child := buildBalanced(data, pos, pos+size, maxFanout)
		assert(child != nil, "balanced rebuild produced an empty range")
		node.appendSubtree(child)
		pos += size
	}
	assert(pos == end, "balanced rebuild did not consume its range")
	return node
}

// Balance rebuilds the tree into a balanced shape bounded by the configured
// maximum fan-out. The node count and the level-order payload sequence
// feeding the rebuild are preserved.
//
// Balancing replaces the node graph: every node reference obtained before
// the call is invalid afterwards. Clients re-resolve by payload or by a new
// traversal; a configured Feed broadcasts the invalidation.
func (t *Tree[T]) Balance() {
	if t.root == nil {
		return
	}
	data := t.CollectPayloads()
	fanout := t.cfg.MaxFanout
	if fanout == 0 {
		fanout = DefaultMaxFanout
	}
	t.root = buildBalanced[T](data, 0, len(data), fanout)
	t.rebalances++
	tracer().Debugf("arbor: rebalanced %d nodes to depth %d", t.size, t.Depth())
	if t.cfg.Feed != nil {
		t.cfg.Feed.Publish(Invalidation{
			Source: "tree",
			Epoch:  t.rebalances,
			Size:   t.size,
			Reason: ReasonRebalance,
		})
	}
}

// optimalDepth returns the depth of a balanced tree of the given size and
// fan-out: floor(log_fanout(size)) + 1. A fan-out of 1 describes a chain.
func optimalDepth(size, fanout int) int {
	if size <= 0 {
		return 0
	}
	if fanout < 2 {
		return size
	}
	return int(math.Log(float64(size))/math.Log(float64(fanout))) + 1
}

// NeedsRebalancing evaluates the depth heuristic: a tree counts as
// degenerate when its depth exceeds the optimal depth of a balanced tree of
// equal size by a configured factor. Trees with 3 nodes or fewer never need
// rebalancing.
//
// With AutoRebalance active the tighter SoftDepthFactor applies, otherwise
// the HardDepthFactor.
func (t *Tree[T]) NeedsRebalancing() bool {
	factor := t.cfg.HardDepthFactor
	if t.cfg.AutoRebalance {
		factor = t.cfg.SoftDepthFactor
	}
	if factor == 0 {
		factor = DefaultHardDepthFactor
	}
	return t.needsRebalancing(factor)
}

func (t *Tree[T]) needsRebalancing(factor float64) bool {
	if t.size <= 3 {
		return false
	}
	fanout := t.cfg.MaxFanout
	if fanout == 0 {
		fanout = DefaultMaxFanout
	}
	optimal := optimalDepth(t.size, fanout)
	return float64(t.Depth()) > float64(optimal)*factor
}

// AutoBalanceIfNeeded rebalances iff the depth heuristic fires, reporting
// whether a rebuild ran.
func (t *Tree[T]) AutoBalanceIfNeeded() bool {
	if !t.NeedsRebalancing() {
		return false
	}
	t.Balance()
	return true
}

// maybeRebalance counts a structural mutation and applies the automatic
// balancing policy. It reports whether a rebuild ran and thereby invalidated
// node references.
//
// The soft check runs on every CheckInterval-th mutation; the hard check
// catches seriously degenerated trees above HardMinSize on every mutation.
func (t *Tree[T]) maybeRebalance() bool {
	t.mutations++
	if !t.cfg.AutoRebalance || t.root == nil {
		return false
	}
	should := false
	if t.size > 3 && t.mutations%uint64(t.cfg.CheckInterval) == 0 {
		should = t.needsRebalancing(t.cfg.SoftDepthFactor)
	}
	if !should && t.size > t.cfg.HardMinSize {
		should = t.needsRebalancing(t.cfg.HardDepthFactor)
	}
	if !should {
		return false
	}
	tracer().Infof("arbor: auto-rebalance after %d mutations (size %d, depth %d)",
		t.mutations, t.size, t.Depth())
	t.Balance()
	return true
}

// SetAutoRebalance switches the automatic balancing policy on or off.
func (t *Tree[T]) SetAutoRebalance(enabled bool) {
	t.cfg.AutoRebalance = enabled
}

// AutoRebalance reports whether the automatic balancing policy is active.
func (t *Tree[T]) AutoRebalance() bool {
	return t.cfg.AutoRebalance
}

// SetMaxFanout changes the child-count bound used by balancing passes. It
// does not restructure the tree by itself.
func (t *Tree[T]) SetMaxFanout(k int) error {
	if k < 1 {
		return fmt.Errorf("%w: max fanout must be at least 1", ErrInvalidConfig)
	}
	t.cfg.MaxFanout = k
	return nil
}

// Rebalances returns the number of rebalancing passes run so far.
func (t *Tree[T]) Rebalances() uint64 {
	return t.rebalances
}
