package arena

// This file implements the slot store proper: construction, navigation,
// appending and tombstoning removal. Locality scoring and re-layout live
// in layout.go.
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

	"github.com/npillmayer/arbor"
)

// nilIndex marks an absent parent or first-child link.
const nilIndex int32 = -1

// slot is one entry of the flat node array. Links are indices into the
// same array. A cleared valid flag marks a tombstone left behind by a
// removal; tombstones are skipped by navigation and compacted away by
// the next re-layout.
type slot[T comparable] struct {
	payload    T
	parent     int32
	firstChild int32
	childCount int32
	valid      bool
}

// Store is a tree kept in a single contiguous slot slice. The root, when
// present, always occupies slot 0. Appending a child is O(1); finding the
// children of a slot scans the slice, which is cheap for the array sizes
// the store is built for and touches memory linearly.
//
// Store implements arbor.Storage[T, int], so the generic Collect, Rebuild
// and Transfer operations apply to it.
type Store[T comparable] struct {
	slots     []slot[T]
	size      int // live slots; len(slots)-size are tombstones
	epoch     uint64
	ops       int // mutations since the last re-layout
	relayouts uint64
	cfg       Config
}

var _ arbor.Storage[int, int] = &Store[int]{}

// New creates an empty store with the given configuration. A zero Config
// selects the defaults.
func New[T comparable](cfg Config) (*Store[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Store[T]{cfg: cfg.normalized()}, nil
}

// FromTree copies a pointer-linked tree into a fresh store. Slots are
// filled in breadth-first order and immediately re-laid out, so the
// resulting layout has every child group contiguous and the locality
// score starts out maximal. The source tree is not modified.
func FromTree[T comparable](t *arbor.Tree[T], cfg Config) (*Store[T], error) {
	s, err := New[T](cfg)
	if err != nil {
		return nil, err
	}
	if err := arbor.Transfer[T, *arbor.Node[T], int](s, t); err != nil {
		return nil, err
	}
	s.Relayout()
	return s, nil
}

// Tree copies the store back into a pointer-linked tree built with the
// given configuration. Automatic rebalancing is suspended while the copy
// is under construction and restored afterwards.
func (s *Store[T]) Tree(cfg arbor.Config) (*arbor.Tree[T], error) {
	t, err := arbor.New[T](cfg)
	if err != nil {
		return nil, err
	}
	auto := t.AutoRebalance()
	t.SetAutoRebalance(false)
	if err := arbor.Transfer[T, int, *arbor.Node[T]](t, s); err != nil {
		return nil, err
	}
	t.SetAutoRebalance(auto)
	return t, nil
}

// Size returns the number of live nodes in the store.
func (s *Store[T]) Size() int {
	if s == nil {
		return 0
	}
	return s.size
}

// Slots returns the length of the backing slot slice, including
// tombstones. Slots() - Size() is the number of tombstoned entries a
// re-layout would reclaim.
func (s *Store[T]) Slots() int {
	if s == nil {
		return 0
	}
	return len(s.slots)
}

// Root returns the root slot index. ok is false for an empty store.
func (s *Store[T]) Root() (int, bool) {
	if s.Size() == 0 {
		return 0, false
	}
	assert(s.slots[0].valid, "non-empty store must have its root in slot 0")
	return 0, true
}

// checkIndex validates that i addresses a live slot.
func (s *Store[T]) checkIndex(i int) error {
	if i < 0 || i >= len(s.slots) || !s.slots[i].valid {
		return fmt.Errorf("%w: slot %d of %d", ErrIndexOutOfRange, i, len(s.slots))
	}
	return nil
}

// Payload returns the payload stored in slot i.
func (s *Store[T]) Payload(i int) (T, error) {
	if err := s.checkIndex(i); err != nil {
		var none T
		return none, err
	}
	return s.slots[i].payload, nil
}

// SetPayload overwrites the payload of slot i in place.
func (s *Store[T]) SetPayload(i int, payload T) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.slots[i].payload = payload
	return nil
}

// Children returns the slot indices of the children of slot i, in child
// order. Children are found by scanning the slot slice for entries whose
// parent link is i; scan order equals insertion order, which is child
// order.
func (s *Store[T]) Children(i int) ([]int, error) {
	if err := s.checkIndex(i); err != nil {
		return nil, err
	}
	n := int(s.slots[i].childCount)
	if n == 0 {
		return nil, nil
	}
	children := make([]int, 0, n)
	for j := range s.slots {
		if s.slots[j].valid && s.slots[j].parent == int32(i) {
			children = append(children, j)
		}
	}
	assert(len(children) == n, "child count must match child scan")
	return children, nil
}

// Parent returns the parent slot index of slot i. ok is false for the
// root.
func (s *Store[T]) Parent(i int) (int, bool, error) {
	if err := s.checkIndex(i); err != nil {
		return 0, false, err
	}
	if s.slots[i].parent == nilIndex {
		return 0, false, nil
	}
	return int(s.slots[i].parent), true, nil
}

// SetRoot resets the store to a single root node in slot 0, dropping all
// existing slots. Every previously handed-out index and Ref becomes
// invalid, so the epoch is bumped.
func (s *Store[T]) SetRoot(payload T) int {
	s.slots = append(s.slots[:0], slot[T]{
		payload:    payload,
		parent:     nilIndex,
		firstChild: nilIndex,
		valid:      true,
	})
	s.size = 1
	s.ops = 0
	s.epoch++
	return 0
}

// AppendChild appends a new last child under the slot at parent and
// returns its index. The new slot always goes to the end of the slice,
// making appends O(1); locality is restored lazily by Relayout.
func (s *Store[T]) AppendChild(parent int, payload T) (int, error) {
	if err := s.checkIndex(parent); err != nil {
		return 0, err
	}
	idx := len(s.slots)
	s.slots = append(s.slots, slot[T]{
		payload:    payload,
		parent:     int32(parent),
		firstChild: nilIndex,
		valid:      true,
	})
	p := &s.slots[parent]
	if p.childCount == 0 {
		p.firstChild = int32(idx)
	}
	p.childCount++
	s.size++
	s.mutated()
	return idx, nil
}

// RemoveSubtree removes the slot at i together with all its descendants.
// The doomed slots are tombstoned in place, so the indices of surviving
// slots do not move and outstanding Refs to them stay resolvable. The
// parent's child bookkeeping is fixed up exactly. Removing the root
// clears the store.
func (s *Store[T]) RemoveSubtree(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if i == 0 {
		s.clear()
		if s.cfg.Feed != nil {
			s.cfg.Feed.Publish(arbor.Invalidation{
				Source: "arena",
				Epoch:  s.epoch,
				Size:   0,
				Reason: arbor.ReasonRemoval,
			})
		}
		return nil
	}
	doomed := s.collectSubtree(i)
	parent := int(s.slots[i].parent)
	var none T
	for _, d := range doomed {
		s.slots[d] = slot[T]{payload: none, parent: nilIndex, firstChild: nilIndex}
	}
	s.size -= len(doomed)
	p := &s.slots[parent]
	p.childCount--
	if p.childCount == 0 {
		p.firstChild = nilIndex
	} else if int(p.firstChild) == i {
		p.firstChild = nilIndex
		for j := range s.slots {
			if s.slots[j].valid && int(s.slots[j].parent) == parent {
				p.firstChild = int32(j)
				break
			}
		}
		assert(p.firstChild != nilIndex, "parent with children must have a first child")
	}
	tracer().Debugf("arena: tombstoned %d slots under slot %d", len(doomed), i)
	s.mutated()
	return nil
}

// collectSubtree gathers i and all its transitive descendants by
// repeated parent scans, in breadth-first order.
func (s *Store[T]) collectSubtree(i int) []int {
	doomed := []int{i}
	for k := 0; k < len(doomed); k++ {
		cur := int32(doomed[k])
		for j := range s.slots {
			if s.slots[j].valid && s.slots[j].parent == cur {
				doomed = append(doomed, j)
			}
		}
	}
	return doomed
}

// clear drops all slots. Indices die wholesale, so the epoch is bumped.
func (s *Store[T]) clear() {
	s.slots = nil
	s.size = 0
	s.ops = 0
	s.epoch++
}

// Slot is a read-only view of one live slot's bookkeeping.
type Slot[T comparable] struct {
	Payload    T
	Parent     int // nilIndex for the root
	FirstChild int // nilIndex for a leaf
	ChildCount int
}

// Slot returns a snapshot of the slot at i. The snapshot does not track
// later mutations.
func (s *Store[T]) Slot(i int) (Slot[T], error) {
	if err := s.checkIndex(i); err != nil {
		return Slot[T]{}, err
	}
	sl := s.slots[i]
	return Slot[T]{
		Payload:    sl.payload,
		Parent:     int(sl.parent),
		FirstChild: int(sl.firstChild),
		ChildCount: int(sl.childCount),
	}, nil
}

// Ref pins a slot index to the epoch it was minted in. Refs survive
// appends and tombstoning removals of other slots, but not renumbering
// passes.
type Ref struct {
	index int
	epoch uint64
}

// Index returns the slot index the Ref was minted for. The index is only
// trustworthy after a successful Resolve.
func (r Ref) Index() int { return r.index }

// Ref mints a reference to the live slot at i.
func (s *Store[T]) Ref(i int) (Ref, error) {
	if err := s.checkIndex(i); err != nil {
		return Ref{}, err
	}
	return Ref{index: i, epoch: s.epoch}, nil
}

// Resolve checks a Ref against the current epoch and returns its slot
// index. Refs minted before a renumbering pass, and Refs to slots
// tombstoned since, fail with ErrStaleReference.
func (s *Store[T]) Resolve(r Ref) (int, error) {
	if r.epoch != s.epoch {
		return 0, fmt.Errorf("%w: minted in epoch %d, store is at %d", ErrStaleReference, r.epoch, s.epoch)
	}
	if r.index < 0 || r.index >= len(s.slots) || !s.slots[r.index].valid {
		return 0, fmt.Errorf("%w: slot %d is gone", ErrStaleReference, r.index)
	}
	return r.index, nil
}

// Epoch returns the renumbering generation of the store. It changes
// whenever slot indices are renumbered or dropped wholesale.
func (s *Store[T]) Epoch() uint64 { return s.epoch }

// Ops returns the number of mutations since the last re-layout.
func (s *Store[T]) Ops() int { return s.ops }

// Relayouts returns how many re-layout passes the store has run.
func (s *Store[T]) Relayouts() uint64 { return s.relayouts }
