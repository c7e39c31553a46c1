package arbor

import (
	"context"

	"github.com/guiguan/caster"
)

// InvalidationReason classifies the structural pass behind an Invalidation.
type InvalidationReason int

const (
	// ReasonRebalance marks a balancing rebuild.
	ReasonRebalance InvalidationReason = iota
	// ReasonRelayout marks a locality re-layout pass that renumbered slots.
	ReasonRelayout
	// ReasonRemoval marks a removal pass that renumbered the survivors.
	ReasonRemoval
)

func (r InvalidationReason) String() string {
	switch r {
	case ReasonRebalance:
		return "rebalance"
	case ReasonRelayout:
		return "relayout"
	case ReasonRemoval:
		return "removal"
	}
	return "unknown"
}

// Invalidation describes one structural pass that invalidated node
// references or slot indices en masse. Subscribers use it to drop cached
// handles into the affected structure.
type Invalidation struct {
	// Source names the component that ran the pass.
	Source string
	// Epoch is the component's epoch after the pass.
	Epoch uint64
	// Size is the node count after the pass.
	Size int
	// Reason classifies the pass.
	Reason InvalidationReason
}

// Feed broadcasts Invalidation events to any number of subscribers.
//
// A structural pass never waits for subscribers: fan-out is asynchronous,
// and subscribers that do not keep up miss events rather than stall the
// publisher.
type Feed struct {
	cast *caster.Caster
}

// NewFeed creates a feed ready for publishing and subscribing.
func NewFeed() *Feed {
	return &Feed{cast: caster.New(nil)}
}

// Publish broadcasts ev to all current subscribers.
func (f *Feed) Publish(ev Invalidation) {
	if f == nil {
		return
	}
	f.cast.Pub(ev)
}

// Subscribe registers a subscriber. The returned channel carries all
// invalidations published after the call, until cancel is called, ctx ends,
// or the feed is closed; it is closed afterwards.
func (f *Feed) Subscribe(ctx context.Context) (events <-chan Invalidation, cancel func()) {
	out := make(chan Invalidation, 16)
	ch, ok := f.cast.Sub(ctx, 16)
	if !ok {
		close(out)
		return out, func() {}
	}
	go func() {
		defer close(out)
		for m := range ch {
			if ev, ok := m.(Invalidation); ok {
				out <- ev
			}
		}
	}()
	return out, func() { f.cast.Unsub(ch) }
}

// Close shuts the feed down and closes all subscriber channels.
func (f *Feed) Close() {
	f.cast.Close()
}
