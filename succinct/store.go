package succinct

// A living tree in succinct form: parallel arrays with O(1) appends,
// renumbering removals and lazy locality re-layout.
//
// _________________________________________________________________________
//
// BSD 3-Clause License
//
// Copyright (c) 2020–21, Norbert Pillmayer
//
// Please refer to the LICENSE file for details.

import (
	"fmt"
	"reflect"

	"github.com/npillmayer/arbor"
)

// Defaults for StoreConfig fields left at their zero value.
const (
	// DefaultRelayoutThreshold is the number of mutations after which the
	// store checks its locality score.
	DefaultRelayoutThreshold = 100

	// DefaultLocalityFloor is the locality score below which a checked
	// store is re-laid out.
	DefaultLocalityFloor = 0.7
)

// StoreConfig bundles the tuning knobs of a Store. The zero value is
// valid and selects the defaults. Lazy re-layout is inherent to this
// store; there is no switch for it.
type StoreConfig struct {
	// RelayoutThreshold is the mutation count after which a re-layout is
	// considered. 0 selects DefaultRelayoutThreshold.
	RelayoutThreshold int

	// LocalityFloor is the score below which a considered re-layout
	// actually runs. 0 selects DefaultLocalityFloor.
	LocalityFloor float64

	// Feed, if non-nil, receives an Invalidation whenever node indices
	// are renumbered or dropped wholesale.
	Feed *arbor.Feed
}

func (c StoreConfig) normalized() StoreConfig {
	if c.RelayoutThreshold == 0 {
		c.RelayoutThreshold = DefaultRelayoutThreshold
	}
	if c.LocalityFloor == 0 {
		c.LocalityFloor = DefaultLocalityFloor
	}
	return c
}

func (c StoreConfig) validate() error {
	if c.RelayoutThreshold < 0 {
		return fmt.Errorf("%w: re-layout threshold %d is negative", ErrInvalidConfig, c.RelayoutThreshold)
	}
	if c.LocalityFloor < 0 || c.LocalityFloor > 1 {
		return fmt.Errorf("%w: locality floor %g outside [0,1]", ErrInvalidConfig, c.LocalityFloor)
	}
	return nil
}

// Store keeps a tree in three parallel arrays (payloads, parent indices,
// child counts) plus advisory structure bits. Appending a child is
// O(1): the node goes to the end of the arrays and its index is the size
// before the append. Children always sit at higher indices than their
// parent; structural queries scan the parent array relying on that.
//
// Removals compact the arrays and renumber the survivors, and re-layout
// passes renumber everything into breadth-first order. Both bump the
// epoch; clients holding indices across mutations should use NodeViews,
// which fail fast once their epoch is stale.
//
// Store implements arbor.Storage[T, int], so the generic Collect, Rebuild
// and Transfer operations apply to it.
type Store[T comparable] struct {
	bits        Bits
	payloads    []T
	parents     []int32
	childCounts []int32
	size        int
	ops         int // mutations since the last re-layout
	epoch       uint64
	relayouts   uint64
	cfg         StoreConfig
}

var _ arbor.Storage[int, int] = &Store[int]{}

// NewStore creates an empty store with the given configuration. A zero
// StoreConfig selects the defaults.
func NewStore[T comparable](cfg StoreConfig) (*Store[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Store[T]{cfg: cfg.normalized()}, nil
}

// StoreFromTree copies a pointer-linked tree into a fresh store in level
// order, which is also the layout a re-layout pass would produce. The
// source tree is not modified.
func StoreFromTree[T comparable](t *arbor.Tree[T], cfg StoreConfig) (*Store[T], error) {
	s, err := NewStore[T](cfg)
	if err != nil {
		return nil, err
	}
	if err := arbor.Transfer[T, *arbor.Node[T], int](s, t); err != nil {
		return nil, err
	}
	s.ops = 0
	return s, nil
}

// StoreFromEncoding decodes an Encoding and loads it into a fresh store,
// validating exactly like Decode. The store lays the nodes out in level
// order regardless of the encoding's preorder.
func StoreFromEncoding[T comparable](enc Encoding[T], cfg StoreConfig) (*Store[T], error) {
	t, err := Decode(enc, arbor.Config{})
	if err != nil {
		return nil, err
	}
	return StoreFromTree(t, cfg)
}

// Size returns the number of nodes in the store.
func (s *Store[T]) Size() int {
	if s == nil {
		return 0
	}
	return s.size
}

// Root returns the root index. ok is false for an empty store.
func (s *Store[T]) Root() (int, bool) {
	if s.Size() == 0 {
		return 0, false
	}
	return 0, true
}

func (s *Store[T]) checkIndex(i int) error {
	if i < 0 || i >= s.size {
		return fmt.Errorf("%w: node %d of %d", ErrIndexOutOfRange, i, s.size)
	}
	return nil
}

// Payload returns the payload of node i.
func (s *Store[T]) Payload(i int) (T, error) {
	if err := s.checkIndex(i); err != nil {
		var none T
		return none, err
	}
	return s.payloads[i], nil
}

// SetPayload overwrites the payload of node i in place.
func (s *Store[T]) SetPayload(i int, payload T) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.payloads[i] = payload
	return nil
}

// Parent returns the parent index of node i. ok is false for the root.
func (s *Store[T]) Parent(i int) (int, bool, error) {
	if err := s.checkIndex(i); err != nil {
		return 0, false, err
	}
	if s.parents[i] < 0 {
		return 0, false, nil
	}
	return int(s.parents[i]), true, nil
}

// ChildCount returns the number of children of node i.
func (s *Store[T]) ChildCount(i int) (int, error) {
	if err := s.checkIndex(i); err != nil {
		return 0, err
	}
	return int(s.childCounts[i]), nil
}

// Children returns the indices of the children of node i, in child
// order. The scan starts right of i, since children always sit at higher
// indices than their parent, and stops once the child count is reached.
func (s *Store[T]) Children(i int) ([]int, error) {
	if err := s.checkIndex(i); err != nil {
		return nil, err
	}
	n := int(s.childCounts[i])
	if n == 0 {
		return nil, nil
	}
	children := make([]int, 0, n)
	for j := i + 1; j < s.size && len(children) < n; j++ {
		if s.parents[j] == int32(i) {
			children = append(children, j)
		}
	}
	assert(len(children) == n, "child count must match the parent scan")
	return children, nil
}

// ChildIndex returns the index of the child of parent at the given
// ordinal. An ordinal outside [0, ChildCount(parent)) yields
// ErrIndexOutOfRange.
func (s *Store[T]) ChildIndex(parent, ordinal int) (int, error) {
	if err := s.checkIndex(parent); err != nil {
		return 0, err
	}
	if ordinal < 0 || ordinal >= int(s.childCounts[parent]) {
		return 0, fmt.Errorf("%w: child %d of %d", ErrIndexOutOfRange, ordinal, s.childCounts[parent])
	}
	seen := 0
	for j := parent + 1; j < s.size; j++ {
		if s.parents[j] == int32(parent) {
			if seen == ordinal {
				return j, nil
			}
			seen++
		}
	}
	assert(false, "child count out of sync with parent links")
	return 0, nil
}

// SetRoot resets the store to a single root node at index 0, dropping
// all existing nodes. Every previously handed-out index and NodeView
// becomes invalid, so the epoch is bumped.
func (s *Store[T]) SetRoot(payload T) int {
	s.payloads = append(s.payloads[:0], payload)
	s.parents = append(s.parents[:0], -1)
	s.childCounts = append(s.childCounts[:0], 0)
	s.bits = Bits{}
	s.bits.AppendBit(true)
	s.bits.AppendBit(false)
	s.size = 1
	s.ops = 0
	s.epoch++
	return 0
}

// AppendChild appends a new last child under the node at parent and
// returns its index, which is always Size() before the append. The
// parallel arrays grow by one entry each and the structure bits get an
// advisory placeholder pair; Encoding recomputes faithful bits on
// demand.
func (s *Store[T]) AppendChild(parent int, payload T) (int, error) {
	if err := s.checkIndex(parent); err != nil {
		return 0, err
	}
	idx := s.size
	s.payloads = append(s.payloads, payload)
	s.parents = append(s.parents, int32(parent))
	s.childCounts = append(s.childCounts, 0)
	s.childCounts[parent]++
	s.bits.AppendBit(true)
	s.bits.AppendBit(false)
	s.size++
	s.mutated()
	return idx, nil
}

// RemoveChild removes the child of parent at the given ordinal, together
// with its whole subtree.
func (s *Store[T]) RemoveChild(parent, ordinal int) error {
	idx, err := s.ChildIndex(parent, ordinal)
	if err != nil {
		return err
	}
	return s.RemoveSubtree(idx)
}

// RemoveSubtree removes the node at i together with all its descendants.
// The surviving entries are compacted and renumbered, preserving their
// relative order so that children keep sitting at higher indices than
// their parents, and the epoch is bumped. Removing the root clears the
// store.
func (s *Store[T]) RemoveSubtree(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if i == 0 {
		s.clear()
		s.publish(arbor.ReasonRemoval)
		return nil
	}
	doomed := s.collectSubtree(i)
	gone := make([]bool, s.size)
	for _, d := range doomed {
		gone[d] = true
	}
	s.childCounts[s.parents[i]]--
	oldToNew := make([]int32, s.size)
	next := int32(0)
	for j := 0; j < s.size; j++ {
		if gone[j] {
			oldToNew[j] = -1
			continue
		}
		oldToNew[j] = next
		next++
	}
	newSize := int(next)
	payloads := make([]T, 0, newSize)
	parents := make([]int32, 0, newSize)
	childCounts := make([]int32, 0, newSize)
	for j := 0; j < s.size; j++ {
		if gone[j] {
			continue
		}
		payloads = append(payloads, s.payloads[j])
		p := s.parents[j]
		if p >= 0 {
			p = oldToNew[p]
			assert(p >= 0, "a survivor's parent must survive")
		}
		parents = append(parents, p)
		childCounts = append(childCounts, s.childCounts[j])
	}
	s.payloads, s.parents, s.childCounts = payloads, parents, childCounts
	s.size = newSize
	s.rebuildAdvisoryBits()
	s.epoch++
	tracer().Debugf("succinct: removed %d nodes, %d remain, epoch now %d", len(doomed), s.size, s.epoch)
	s.publish(arbor.ReasonRemoval)
	s.mutated()
	return nil
}

// collectSubtree gathers i and all its transitive descendants by parent
// scans. Descendants always sit right of their ancestor, so each scan
// starts past the current node.
func (s *Store[T]) collectSubtree(i int) []int {
	doomed := []int{i}
	for k := 0; k < len(doomed); k++ {
		cur := int32(doomed[k])
		for j := int(cur) + 1; j < s.size; j++ {
			if s.parents[j] == cur {
				doomed = append(doomed, j)
			}
		}
	}
	return doomed
}

func (s *Store[T]) clear() {
	s.bits = Bits{}
	s.payloads = nil
	s.parents = nil
	s.childCounts = nil
	s.size = 0
	s.ops = 0
	s.epoch++
}

// rebuildAdvisoryBits resets the structure bits to one placeholder pair
// per node, keeping two bits per node without recomputing the preorder
// shape.
func (s *Store[T]) rebuildAdvisoryBits() {
	s.bits = Bits{}
	for j := 0; j < s.size; j++ {
		s.bits.AppendBit(true)
		s.bits.AppendBit(false)
	}
}

func (s *Store[T]) publish(reason arbor.InvalidationReason) {
	if s.cfg.Feed == nil {
		return
	}
	s.cfg.Feed.Publish(arbor.Invalidation{
		Source: "succinct",
		Epoch:  s.epoch,
		Size:   s.size,
		Reason: reason,
	})
}

// LocalityScore rates the layout as the mean of 1/(1+d/10) over all
// parent-child pairs, where d is the index distance between child and
// parent. Stores of up to one node score 1.0.
func (s *Store[T]) LocalityScore() float64 {
	if s.size <= 1 {
		return 1.0
	}
	total := 0.0
	for j := 1; j < s.size; j++ {
		d := j - int(s.parents[j])
		total += 1.0 / (1.0 + float64(d)/10.0)
	}
	return total / float64(s.size-1)
}

// Relayout renumbers the arrays into breadth-first order: every child
// group ends up contiguous and close to its parent. The structure bits
// are rebuilt to the faithful preorder shape. All indices are
// renumbered, so the epoch is bumped and a configured Feed broadcasts
// the invalidation.
func (s *Store[T]) Relayout() {
	if s.size == 0 {
		return
	}
	order := make([]int, 0, s.size)
	oldToNew := make([]int32, s.size)
	for j := range oldToNew {
		oldToNew[j] = -1
	}
	order = append(order, 0)
	oldToNew[0] = 0
	for k := 0; k < len(order); k++ {
		cur := order[k]
		children, err := s.Children(cur)
		assert(err == nil, "re-layout walks live nodes only")
		for _, c := range children {
			oldToNew[c] = int32(len(order))
			order = append(order, c)
		}
	}
	assert(len(order) == s.size, "re-layout must visit every node")
	payloads := make([]T, s.size)
	parents := make([]int32, s.size)
	childCounts := make([]int32, s.size)
	for newIdx, oldIdx := range order {
		payloads[newIdx] = s.payloads[oldIdx]
		p := s.parents[oldIdx]
		if p >= 0 {
			p = oldToNew[p]
		}
		parents[newIdx] = p
		childCounts[newIdx] = s.childCounts[oldIdx]
	}
	s.payloads, s.parents, s.childCounts = payloads, parents, childCounts
	s.bits = s.Encoding().bits
	s.ops = 0
	s.epoch++
	s.relayouts++
	tracer().Debugf("succinct: re-laid out %d nodes, epoch now %d", s.size, s.epoch)
	s.publish(arbor.ReasonRelayout)
}

// mutated counts a mutation and runs the lazy re-layout check: after
// RelayoutThreshold mutations a store of more than 3 nodes whose score
// has fallen below the floor is re-laid out.
func (s *Store[T]) mutated() {
	s.ops++
	if s.ops < s.cfg.RelayoutThreshold || s.size <= 3 {
		return
	}
	score := s.LocalityScore()
	if score >= s.cfg.LocalityFloor {
		return
	}
	tracer().Infof("succinct: locality %.3f below floor %.3f after %d ops, re-laying out",
		score, s.cfg.LocalityFloor, s.ops)
	s.Relayout()
}

// Encoding recomputes a faithful preorder encoding of the current shape.
// The store's own bits are advisory between re-layouts; the returned
// encoding is always well-formed, so Decode round-trips it.
func (s *Store[T]) Encoding() Encoding[T] {
	var enc Encoding[T]
	if s.size == 0 {
		return enc
	}
	var walk func(i int)
	walk = func(i int) {
		enc.bits.AppendBit(true)
		enc.payloads = append(enc.payloads, s.payloads[i])
		children, err := s.Children(i)
		assert(err == nil, "encoding walks live nodes only")
		for _, c := range children {
			walk(c)
		}
		enc.bits.AppendBit(false)
	}
	walk(0)
	return enc
}

// Epoch returns the renumbering generation of the store. It changes
// whenever node indices are renumbered or dropped wholesale.
func (s *Store[T]) Epoch() uint64 { return s.epoch }

// Ops returns the number of mutations since the last re-layout.
func (s *Store[T]) Ops() int { return s.ops }

// Relayouts returns how many re-layout passes the store has run.
func (s *Store[T]) Relayouts() uint64 { return s.relayouts }

// MemoryUsage estimates the bytes held by the store: structure words,
// payload storage and the two index arrays.
func (s *Store[T]) MemoryUsage() int {
	payloadSize := int(reflect.TypeFor[T]().Size())
	return len(s.bits.words)*8 + s.size*payloadSize + s.size*8
}

// CompressionRatio estimates MemoryUsage against a conventional pointer
// tree of the same size. Purely informational.
func (s *Store[T]) CompressionRatio() float64 {
	if s.size == 0 {
		return 1.0
	}
	payloadSize := int(reflect.TypeFor[T]().Size())
	pointerTree := s.size * (payloadSize + pointerNodeOverhead)
	return float64(s.MemoryUsage()) / float64(pointerTree)
}
