package arena

// Locality scoring and breadth-first re-layout.

import "github.com/npillmayer/arbor"

// LocalityScore rates how cache-friendly the current slot layout is, as a
// value in [0,1]. For every slot with children it scores the distance
// between the slot and its first child as 1/(1+d/10), and every further
// expected child position firstChild+j as 1.0 when that slot is live and
// 0.5 when it is not (fanned-out child or tombstone). The result is the
// mean over all scored positions.
//
// An empty store scores 0.5, a store whose layout gives nothing to score
// (no slot has more than its position to judge) scores 1.0. A freshly
// re-laid-out store scores close to 1.0; interleaved appends under many
// parents drive the score down.
func (s *Store[T]) LocalityScore() float64 {
	if s.size == 0 {
		return 0.5
	}
	score := 0.0
	comparisons := 0
	for i := range s.slots {
		sl := &s.slots[i]
		if !sl.valid || sl.childCount == 0 {
			continue
		}
		first := int(sl.firstChild)
		distance := first - i
		if distance < 0 {
			distance = -distance
		}
		score += 1.0 / (1.0 + float64(distance)/10.0)
		comparisons++
		for j := 1; j < int(sl.childCount); j++ {
			if first+j < len(s.slots) && s.slots[first+j].valid {
				score += 1.0
			} else {
				score += 0.5
			}
			comparisons++
		}
	}
	if comparisons == 0 {
		return 1.0
	}
	return score / float64(comparisons)
}

// NeedsRelayout reports whether the locality score has fallen below the
// configured floor. Stores of up to 3 nodes never need a re-layout.
func (s *Store[T]) NeedsRelayout() bool {
	if s.size <= 3 {
		return false
	}
	return s.LocalityScore() < s.cfg.LocalityFloor
}

// Relayout rewrites the slot slice in breadth-first order: the root stays
// in slot 0 and every child group sits contiguously, ordered left to
// right. Tombstones are compacted away. All slot indices are renumbered,
// so the epoch is bumped even when the renumbering happens to be the
// identity, and a configured Feed broadcasts the invalidation.
func (s *Store[T]) Relayout() {
	if s.size == 0 {
		return
	}
	newSlots := make([]slot[T], 0, s.size)
	oldToNew := make([]int32, len(s.slots))
	for i := range oldToNew {
		oldToNew[i] = nilIndex
	}
	root := s.slots[0]
	root.parent = nilIndex
	root.firstChild = nilIndex
	root.childCount = 0
	newSlots = append(newSlots, root)
	oldToNew[0] = 0
	next := int32(1)
	queue := []int{0}
	for len(queue) > 0 {
		oldIdx := queue[0]
		queue = queue[1:]
		newIdx := oldToNew[oldIdx]
		var children []int
		for j := range s.slots {
			if s.slots[j].valid && s.slots[j].parent == int32(oldIdx) {
				children = append(children, j)
			}
		}
		if len(children) == 0 {
			continue
		}
		newSlots[newIdx].firstChild = next
		newSlots[newIdx].childCount = int32(len(children))
		for _, childOld := range children {
			child := s.slots[childOld]
			child.parent = newIdx
			child.firstChild = nilIndex
			child.childCount = 0
			newSlots = append(newSlots, child)
			oldToNew[childOld] = next
			queue = append(queue, childOld)
			next++
		}
	}
	assert(len(newSlots) == s.size, "re-layout must keep every live slot")
	s.slots = newSlots
	s.ops = 0
	s.epoch++
	s.relayouts++
	tracer().Debugf("arena: re-laid out %d slots, epoch now %d", s.size, s.epoch)
	if s.cfg.Feed != nil {
		s.cfg.Feed.Publish(arbor.Invalidation{
			Source: "arena",
			Epoch:  s.epoch,
			Size:   s.size,
			Reason: arbor.ReasonRelayout,
		})
	}
}

// mutated counts a mutation and, with AutoRelayout set, runs the lazy
// re-layout check: after RelayoutThreshold mutations a store whose score
// has fallen below the floor is re-laid out.
func (s *Store[T]) mutated() {
	s.ops++
	if !s.cfg.AutoRelayout || s.ops < s.cfg.RelayoutThreshold {
		return
	}
	if !s.NeedsRelayout() {
		return
	}
	tracer().Infof("arena: locality %.3f below floor %.3f after %d ops, re-laying out",
		s.LocalityScore(), s.cfg.LocalityFloor, s.ops)
	s.Relayout()
}
