package succinct

import (
	"context"
	"testing"
	"time"

	"github.com/npillmayer/arbor"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"
)

// buildSampleStore appends the fixture of codec_test directly, giving
// the level-order layout A=0 B=1 C=2 D=3 E=4 F=5 G=6.
func buildSampleStore(t *testing.T, cfg StoreConfig) *Store[string] {
	t.Helper()
	s, err := NewStore[string](cfg)
	require.NoError(t, err)
	a := s.SetRoot("A")
	b, err := s.AppendChild(a, "B")
	require.NoError(t, err)
	_, err = s.AppendChild(a, "C")
	require.NoError(t, err)
	d, err := s.AppendChild(a, "D")
	require.NoError(t, err)
	_, err = s.AppendChild(b, "E")
	require.NoError(t, err)
	_, err = s.AppendChild(b, "F")
	require.NoError(t, err)
	_, err = s.AppendChild(d, "G")
	require.NoError(t, err)
	return s
}

func TestStoreConfigValidation(t *testing.T) {
	_, err := NewStore[int](StoreConfig{RelayoutThreshold: -1})
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewStore[int](StoreConfig{LocalityFloor: 2})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStoreAppendIsIndexStable(t *testing.T) {
	s, err := NewStore[int](StoreConfig{})
	require.NoError(t, err)
	require.Equal(t, 0, s.SetRoot(0))
	for want := 1; want <= 20; want++ {
		require.Equal(t, want, s.Size())
		idx, err := s.AppendChild(0, want)
		require.NoError(t, err)
		require.Equal(t, want, idx, "appended index must equal the size before the append")
	}
}

func TestStoreNavigation(t *testing.T) {
	s := buildSampleStore(t, StoreConfig{})
	children, err := s.Children(0)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, children)
	children, err = s.Children(1)
	require.NoError(t, err)
	require.Equal(t, []int{4, 5}, children)

	idx, err := s.ChildIndex(0, 2)
	require.NoError(t, err)
	require.Equal(t, 3, idx)
	idx, err = s.ChildIndex(3, 0)
	require.NoError(t, err)
	require.Equal(t, 6, idx)
	_, err = s.ChildIndex(0, 3)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = s.ChildIndex(42, 0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	parent, ok, err := s.Parent(6)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, parent)
	_, ok, err = s.Parent(0)
	require.NoError(t, err)
	require.False(t, ok)

	n, err := s.ChildCount(1)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	payload, err := s.Payload(4)
	require.NoError(t, err)
	require.Equal(t, "E", payload)
	require.NoError(t, s.SetPayload(4, "e"))
	payload, _ = s.Payload(4)
	require.Equal(t, "e", payload)
}

func TestStoreRemovalRenumbers(t *testing.T) {
	gtrace.CoreTracer = gotestingadapter.New()
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	gtrace.CoreTracer.SetTraceLevel(tracing.LevelDebug)
	//
	s := buildSampleStore(t, StoreConfig{})
	epoch := s.Epoch()
	// removing B takes E and F with it: 3 of 7 nodes
	require.NoError(t, s.RemoveChild(0, 0))
	require.Equal(t, 4, s.Size())
	require.NotEqual(t, epoch, s.Epoch(), "renumbering must bump the epoch")

	wantPayloads := []string{"A", "C", "D", "G"}
	for i, w := range wantPayloads {
		payload, err := s.Payload(i)
		require.NoError(t, err)
		require.Equal(t, w, payload)
	}
	children, err := s.Children(0)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, children)
	// every survivor's parent index points at a live entry
	for i := 1; i < s.Size(); i++ {
		parent, ok, err := s.Parent(i)
		require.NoError(t, err)
		require.True(t, ok)
		require.Less(t, parent, i, "a child must sit right of its parent")
		_, err = s.Payload(parent)
		require.NoError(t, err)
	}
	n, err := s.ChildCount(0)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestStoreRemoveSubtreeOfRootClears(t *testing.T) {
	s := buildSampleStore(t, StoreConfig{})
	epoch := s.Epoch()
	require.NoError(t, s.RemoveSubtree(0))
	require.Equal(t, 0, s.Size())
	_, ok := s.Root()
	require.False(t, ok)
	require.NotEqual(t, epoch, s.Epoch())
}

func TestStoreEncodingRoundTrip(t *testing.T) {
	s := buildSampleStore(t, StoreConfig{})
	enc := s.Encoding()
	require.Equal(t, "11101001011000", enc.String())
	require.Equal(t, []string{"A", "B", "E", "F", "C", "D", "G"}, enc.Payloads())
	tree, err := Decode(enc, arbor.Config{})
	require.NoError(t, err)
	require.Equal(t, 7, tree.Size())

	// after a removal the advisory bits are meaningless, but the
	// recomputed encoding still round-trips
	require.NoError(t, s.RemoveChild(0, 0))
	enc = s.Encoding()
	require.Equal(t, 4, enc.NodeCount())
	tree, err = Decode(enc, arbor.Config{})
	require.NoError(t, err)
	require.Equal(t, 4, tree.Size())
	data, err := arbor.Collect[string, *arbor.Node[string]](tree)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "C", "D", "G"}, data)
}

func TestStoreFromTreeAndBack(t *testing.T) {
	tree := buildSampleTree(t)
	s, err := StoreFromTree(tree, StoreConfig{})
	require.NoError(t, err)
	require.Equal(t, 7, s.Size())
	data, err := arbor.Collect[string, int](s)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G"}, data)
}

func TestStoreFromEncoding(t *testing.T) {
	enc := Encode(buildSampleTree(t))
	s, err := StoreFromEncoding(enc, StoreConfig{})
	require.NoError(t, err)
	require.Equal(t, 7, s.Size())
	data, err := arbor.Collect[string, int](s)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G"}, data)

	bad := Encoding[string]{bits: bitsOf(t, "1010"), payloads: []string{"A", "B"}}
	_, err = StoreFromEncoding(bad, StoreConfig{})
	require.ErrorIs(t, err, ErrMalformedEncoding)
}

func TestStoreStorageConformance(t *testing.T) {
	s, err := NewStore[string](StoreConfig{})
	require.NoError(t, err)
	cursor := s.SetRoot("n0")
	for _, payload := range []string{"n1", "n2", "n3", "n4", "n5", "n6"} {
		cursor, err = s.AppendChild(cursor, payload)
		require.NoError(t, err)
	}
	stats, err := arbor.GatherStats[string, int](s)
	require.NoError(t, err)
	require.Equal(t, 7, stats.TotalNodes)
	require.Equal(t, 7, stats.MaxDepth)

	data, err := arbor.Collect[string, int](s)
	require.NoError(t, err)
	require.NoError(t, arbor.Rebuild[string, int](s, data, 2))
	stats, err = arbor.GatherStats[string, int](s)
	require.NoError(t, err)
	require.Equal(t, 7, stats.TotalNodes)
	require.Equal(t, 3, stats.MaxDepth)
	require.Equal(t, 2, stats.MaxChildren)
	after, err := arbor.Collect[string, int](s)
	require.NoError(t, err)
	require.Equal(t, data, after)
}

func TestStoreLocalityScore(t *testing.T) {
	s, err := NewStore[int](StoreConfig{})
	require.NoError(t, err)
	require.Equal(t, 1.0, s.LocalityScore(), "empty store")
	s.SetRoot(0)
	require.Equal(t, 1.0, s.LocalityScore(), "single node")
	s.AppendChild(0, 1)
	require.InDelta(t, 1.0/1.1, s.LocalityScore(), 1e-9)
	s.AppendChild(0, 2)
	require.InDelta(t, (1.0/1.1+1.0/1.2)/2, s.LocalityScore(), 1e-9)
}

func TestLazyRelayoutUnderAppendPressure(t *testing.T) {
	gtrace.CoreTracer = gotestingadapter.New()
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	gtrace.CoreTracer.SetTraceLevel(tracing.LevelDebug)
	//
	s, err := NewStore[int](StoreConfig{})
	require.NoError(t, err)
	root := s.SetRoot(0)
	var staleView NodeView[int]
	for i := 1; i < 200; i++ {
		if i == 50 {
			staleView, err = s.View(5)
			require.NoError(t, err)
		}
		_, err := s.AppendChild(root, i)
		require.NoError(t, err)
	}
	require.Equal(t, 200, s.Size())
	// a star flattens the score as children drift away from the root;
	// the 100th mutation is past the threshold and re-lays out
	require.Equal(t, uint64(1), s.Relayouts())
	require.Equal(t, 99, s.Ops())
	_, err = staleView.Payload()
	require.ErrorIs(t, err, ErrStaleReference)
}

func TestViewSurface(t *testing.T) {
	s := buildSampleStore(t, StoreConfig{})
	root, err := s.View(0)
	require.NoError(t, err)
	isRoot, err := root.IsRoot()
	require.NoError(t, err)
	require.True(t, isRoot)
	isLeaf, err := root.IsLeaf()
	require.NoError(t, err)
	require.False(t, isLeaf)
	require.Equal(t, 0, root.Index())

	b, err := root.Child(0)
	require.NoError(t, err)
	payload, err := b.Payload()
	require.NoError(t, err)
	require.Equal(t, "B", payload)
	parent, ok, err := b.Parent()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, parent.Index())
	_, ok, err = root.Parent()
	require.NoError(t, err)
	require.False(t, ok)

	leaf, err := b.Child(1)
	require.NoError(t, err)
	isLeaf, err = leaf.IsLeaf()
	require.NoError(t, err)
	require.True(t, isLeaf)

	grand, err := leaf.AppendChild("H")
	require.NoError(t, err)
	payload, err = grand.Payload()
	require.NoError(t, err)
	require.Equal(t, "H", payload)
	require.NoError(t, grand.SetPayload("h"))

	_, err = root.Child(5)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestViewsGoStaleOnRenumbering(t *testing.T) {
	s := buildSampleStore(t, StoreConfig{})
	c, err := s.View(2)
	require.NoError(t, err)
	root, err := s.View(0)
	require.NoError(t, err)
	require.NoError(t, root.RemoveChild(0))
	_, err = c.Payload()
	require.ErrorIs(t, err, ErrStaleReference)
	err = c.SetPayload("x")
	require.ErrorIs(t, err, ErrStaleReference)
	_, err = c.ChildCount()
	require.ErrorIs(t, err, ErrStaleReference)
	_, err = c.Child(0)
	require.ErrorIs(t, err, ErrStaleReference)
	_, _, err = c.Parent()
	require.ErrorIs(t, err, ErrStaleReference)
	_, err = c.AppendChild("x")
	require.ErrorIs(t, err, ErrStaleReference)

	var zero NodeView[string]
	_, err = zero.Payload()
	require.ErrorIs(t, err, ErrStaleReference)
}

func TestStoreFeedEvents(t *testing.T) {
	feed := arbor.NewFeed()
	defer feed.Close()
	s := buildSampleStore(t, StoreConfig{Feed: feed})
	events, cancel := feed.Subscribe(context.Background())
	defer cancel()

	require.NoError(t, s.RemoveChild(0, 0))
	select {
	case ev := <-events:
		require.Equal(t, "succinct", ev.Source)
		require.Equal(t, arbor.ReasonRemoval, ev.Reason)
		require.Equal(t, 4, ev.Size)
	case <-time.After(2 * time.Second):
		t.Fatal("no invalidation arrived for the removal")
	}

	s.Relayout()
	select {
	case ev := <-events:
		require.Equal(t, arbor.ReasonRelayout, ev.Reason)
		require.Equal(t, s.Epoch(), ev.Epoch)
	case <-time.After(2 * time.Second):
		t.Fatal("no invalidation arrived for the re-layout")
	}
}

func TestStoreCompression(t *testing.T) {
	s, err := NewStore[int](StoreConfig{})
	require.NoError(t, err)
	s.SetRoot(0)
	for i := 1; i <= 50; i++ {
		_, err := s.AppendChild((i-1)/3, i)
		require.NoError(t, err)
	}
	require.Positive(t, s.MemoryUsage())
	require.Less(t, s.CompressionRatio(), 1.0)
	require.Positive(t, s.CompressionRatio())
}
