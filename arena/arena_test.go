package arena

import (
	"errors"
	"testing"

	"github.com/npillmayer/arbor"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// buildSampleTree yields the owned-tree fixture
//
//	        A
//	      / | \
//	     B  C  D
//	    / \     \
//	   E   F     G
func buildSampleTree(t *testing.T) *arbor.Tree[string] {
	t.Helper()
	tree, err := arbor.New[string](arbor.Config{})
	if err != nil {
		t.Fatalf("cannot create tree: %v", err)
	}
	a := tree.SetRoot("A")
	b, _ := tree.AppendChild(a, "B")
	tree.AppendChild(a, "C")
	d, _ := tree.AppendChild(a, "D")
	tree.AppendChild(b, "E")
	tree.AppendChild(b, "F")
	tree.AppendChild(d, "G")
	return tree
}

// buildFanStore yields a store with 10 children appended under the root,
// occupying slots 1 through 10 in append order.
func buildFanStore(t *testing.T, cfg Config) *Store[string] {
	t.Helper()
	s, err := New[string](cfg)
	if err != nil {
		t.Fatalf("cannot create store: %v", err)
	}
	root := s.SetRoot("root")
	for _, payload := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9", "c10"} {
		if _, err := s.AppendChild(root, payload); err != nil {
			t.Fatalf("cannot append %q: %v", payload, err)
		}
	}
	return s
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New[int](Config{RelayoutThreshold: -1}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("negative threshold: got %v, want ErrInvalidConfig", err)
	}
	if _, err := New[int](Config{LocalityFloor: 1.5}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("floor above 1: got %v, want ErrInvalidConfig", err)
	}
}

func TestEmptyStore(t *testing.T) {
	s, err := New[string](Config{})
	if err != nil {
		t.Fatalf("cannot create store: %v", err)
	}
	if s.Size() != 0 || s.Slots() != 0 {
		t.Errorf("empty store has size %d over %d slots", s.Size(), s.Slots())
	}
	if _, ok := s.Root(); ok {
		t.Error("empty store reports a root")
	}
	if s.NeedsRelayout() {
		t.Error("empty store wants a re-layout")
	}
}

func TestSetRootAndAppend(t *testing.T) {
	gtrace.CoreTracer = gotestingadapter.New()
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	gtrace.CoreTracer.SetTraceLevel(tracing.LevelDebug)
	//
	s, _ := New[string](Config{})
	root := s.SetRoot("A")
	if root != 0 {
		t.Fatalf("root landed in slot %d, want 0", root)
	}
	b, err := s.AppendChild(root, "B")
	if err != nil || b != 1 {
		t.Fatalf("first append gave slot %d, err %v", b, err)
	}
	c, _ := s.AppendChild(root, "C")
	d, _ := s.AppendChild(b, "D")
	if c != 2 || d != 3 {
		t.Fatalf("appends landed in slots %d and %d, want 2 and 3", c, d)
	}
	if s.Size() != 4 {
		t.Errorf("size is %d, want 4", s.Size())
	}
	children, err := s.Children(root)
	if err != nil || len(children) != 2 || children[0] != 1 || children[1] != 2 {
		t.Errorf("root children are %v (err %v), want [1 2]", children, err)
	}
	if parent, ok, _ := s.Parent(d); !ok || parent != b {
		t.Errorf("parent of D is %d (ok=%v), want %d", parent, ok, b)
	}
	if _, ok, err := s.Parent(root); ok || err != nil {
		t.Error("root must have no parent")
	}
	view, err := s.Slot(root)
	if err != nil || view.ChildCount != 2 || view.FirstChild != 1 {
		t.Errorf("root slot view is %+v (err %v)", view, err)
	}
	if payload, _ := s.Payload(d); payload != "D" {
		t.Errorf("slot %d carries %q, want D", d, payload)
	}
}

func TestIndexValidation(t *testing.T) {
	s, _ := New[string](Config{})
	s.SetRoot("A")
	if _, err := s.Payload(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("negative index: got %v", err)
	}
	if _, err := s.Payload(7); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("index past end: got %v", err)
	}
	if _, err := s.AppendChild(7, "X"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("append under bad parent: got %v", err)
	}
	if err := s.SetPayload(7, "X"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("set payload of bad slot: got %v", err)
	}
}

func TestSetPayloadInPlace(t *testing.T) {
	s, _ := New[string](Config{})
	root := s.SetRoot("old")
	if err := s.SetPayload(root, "new"); err != nil {
		t.Fatalf("cannot set payload: %v", err)
	}
	if payload, _ := s.Payload(root); payload != "new" {
		t.Errorf("payload is %q, want new", payload)
	}
	if s.Size() != 1 {
		t.Errorf("size changed to %d", s.Size())
	}
}

func TestFromTreeLaysOutBreadthFirst(t *testing.T) {
	gtrace.CoreTracer = gotestingadapter.New()
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	gtrace.CoreTracer.SetTraceLevel(tracing.LevelDebug)
	//
	tree := buildSampleTree(t)
	s, err := FromTree(tree, Config{})
	if err != nil {
		t.Fatalf("cannot convert tree: %v", err)
	}
	if s.Size() != 7 || s.Slots() != 7 {
		t.Fatalf("store has size %d over %d slots, want 7 over 7", s.Size(), s.Slots())
	}
	want := []string{"A", "B", "C", "D", "E", "F", "G"}
	for i, w := range want {
		if payload, err := s.Payload(i); err != nil || payload != w {
			t.Errorf("slot %d carries %q (err %v), want %q", i, payload, err, w)
		}
	}
	rootView, _ := s.Slot(0)
	if rootView.FirstChild != 1 || rootView.ChildCount != 3 {
		t.Errorf("root slot view is %+v, want first child 1 and 3 children", rootView)
	}
	bView, _ := s.Slot(1)
	if bView.FirstChild != 4 || bView.ChildCount != 2 {
		t.Errorf("slot of B is %+v, want first child 4 and 2 children", bView)
	}
	if s.Relayouts() != 1 {
		t.Errorf("conversion ran %d re-layouts, want 1", s.Relayouts())
	}
	if score := s.LocalityScore(); score < 0.85 || score > 1.0 {
		t.Errorf("fresh layout scores %.4f, want close to 1", score)
	}
	if s.NeedsRelayout() {
		t.Error("fresh layout wants a re-layout")
	}
}

func TestTombstoneRemovalKeepsSurvivorIndices(t *testing.T) {
	gtrace.CoreTracer = gotestingadapter.New()
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	gtrace.CoreTracer.SetTraceLevel(tracing.LevelDebug)
	//
	tree := buildSampleTree(t)
	s, err := FromTree(tree, Config{})
	if err != nil {
		t.Fatalf("cannot convert tree: %v", err)
	}
	refC, err := s.Ref(2)
	if err != nil {
		t.Fatalf("cannot mint ref: %v", err)
	}
	// removing B drops E and F with it: 3 of 7 nodes
	if err := s.RemoveSubtree(1); err != nil {
		t.Fatalf("cannot remove subtree: %v", err)
	}
	if s.Size() != 4 {
		t.Errorf("size is %d after removal, want 4", s.Size())
	}
	if s.Slots() != 7 {
		t.Errorf("slot slice shrunk to %d, tombstoning must keep it at 7", s.Slots())
	}
	if _, err := s.Payload(1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("tombstoned slot is still addressable: %v", err)
	}
	children, _ := s.Children(0)
	if len(children) != 2 || children[0] != 2 || children[1] != 3 {
		t.Errorf("root children are %v, want [2 3]", children)
	}
	rootView, _ := s.Slot(0)
	if rootView.ChildCount != 2 || rootView.FirstChild != 2 {
		t.Errorf("root slot view is %+v, want 2 children starting at 2", rootView)
	}
	// every surviving slot still points at a live parent
	for _, i := range []int{2, 3, 6} {
		if parent, ok, err := s.Parent(i); err != nil || (ok && s.checkIndex(parent) != nil) {
			t.Errorf("slot %d has a dangling parent (%d, ok=%v, err %v)", i, parent, ok, err)
		}
	}
	// survivor indices did not move, so the ref is still good
	if idx, err := s.Resolve(refC); err != nil || idx != 2 {
		t.Errorf("ref to C resolves to %d (err %v), want 2", idx, err)
	}
	// the next re-layout compacts the tombstones away
	s.Relayout()
	if s.Size() != 4 || s.Slots() != 4 {
		t.Errorf("after re-layout: size %d over %d slots, want 4 over 4", s.Size(), s.Slots())
	}
	want := []string{"A", "C", "D", "G"}
	for i, w := range want {
		if payload, _ := s.Payload(i); payload != w {
			t.Errorf("slot %d carries %q, want %q", i, payload, w)
		}
	}
	if _, err := s.Resolve(refC); !errors.Is(err, ErrStaleReference) {
		t.Errorf("ref survived a re-layout: %v", err)
	}
}

func TestRemoveRootClearsStore(t *testing.T) {
	tree := buildSampleTree(t)
	s, _ := FromTree(tree, Config{})
	epoch := s.Epoch()
	if err := s.RemoveSubtree(0); err != nil {
		t.Fatalf("cannot remove root: %v", err)
	}
	if s.Size() != 0 || s.Slots() != 0 {
		t.Errorf("store still holds %d of %d slots", s.Size(), s.Slots())
	}
	if _, ok := s.Root(); ok {
		t.Error("cleared store reports a root")
	}
	if s.Epoch() == epoch {
		t.Error("clearing the store must bump the epoch")
	}
}

func TestRefStaleness(t *testing.T) {
	s, _ := New[string](Config{})
	root := s.SetRoot("A")
	b, _ := s.AppendChild(root, "B")
	refB, err := s.Ref(b)
	if err != nil {
		t.Fatalf("cannot mint ref: %v", err)
	}
	s.Relayout()
	if _, err := s.Resolve(refB); !errors.Is(err, ErrStaleReference) {
		t.Errorf("ref survived a re-layout: %v", err)
	}
	// a fresh ref to a slot tombstoned afterwards is stale as well
	refB2, _ := s.Ref(1)
	if err := s.RemoveSubtree(1); err != nil {
		t.Fatalf("cannot remove: %v", err)
	}
	if _, err := s.Resolve(refB2); !errors.Is(err, ErrStaleReference) {
		t.Errorf("ref to a tombstoned slot resolves: %v", err)
	}
	if _, err := s.Ref(99); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("minting a ref to a bad slot: %v", err)
	}
}

func TestStorageConformance(t *testing.T) {
	tree := buildSampleTree(t)
	s, _ := FromTree(tree, Config{})
	data, err := arbor.Collect[string, int](s)
	if err != nil {
		t.Fatalf("cannot collect: %v", err)
	}
	want := []string{"A", "B", "C", "D", "E", "F", "G"}
	if len(data) != len(want) {
		t.Fatalf("collected %d payloads, want %d", len(data), len(want))
	}
	for i, w := range want {
		if data[i] != w {
			t.Errorf("payload %d is %q, want %q", i, data[i], w)
		}
	}
	stats, err := arbor.GatherStats[string, int](s)
	if err != nil {
		t.Fatalf("cannot gather stats: %v", err)
	}
	if stats.TotalNodes != 7 || stats.LeafNodes != 4 || stats.InternalNodes != 3 {
		t.Errorf("stats are %+v, want 7 nodes, 4 leaves, 3 internal", stats)
	}
	if stats.MaxDepth != 3 || stats.MaxChildren != 3 {
		t.Errorf("stats are %+v, want depth 3 and max fanout 3", stats)
	}
}

func TestRebuildBalancesStoreInPlace(t *testing.T) {
	s, _ := New[string](Config{})
	root := s.SetRoot("n00")
	cursor := root
	for _, payload := range []string{"n01", "n02", "n03", "n04", "n05", "n06"} {
		next, err := s.AppendChild(cursor, payload)
		if err != nil {
			t.Fatalf("cannot append %q: %v", payload, err)
		}
		cursor = next
	}
	data, err := arbor.Collect[string, int](s)
	if err != nil {
		t.Fatalf("cannot collect: %v", err)
	}
	if err := arbor.Rebuild[string, int](s, data, 2); err != nil {
		t.Fatalf("cannot rebuild: %v", err)
	}
	stats, _ := arbor.GatherStats[string, int](s)
	if stats.TotalNodes != 7 || stats.MaxDepth != 3 || stats.MaxChildren != 2 {
		t.Errorf("rebuilt stats are %+v, want 7 nodes at depth 3 with fanout 2", stats)
	}
	after, _ := arbor.Collect[string, int](s)
	for i := range data {
		if after[i] != data[i] {
			t.Errorf("payload sequence changed at %d: %q versus %q", i, after[i], data[i])
		}
	}
}

func TestTreeRoundTrip(t *testing.T) {
	tree := buildSampleTree(t)
	s, err := FromTree(tree, Config{})
	if err != nil {
		t.Fatalf("cannot convert tree: %v", err)
	}
	back, err := s.Tree(arbor.Config{})
	if err != nil {
		t.Fatalf("cannot convert back: %v", err)
	}
	wantStats := tree.Statistics()
	gotStats := back.Statistics()
	wantStats.Rebalances = 0
	gotStats.Rebalances = 0
	if gotStats != wantStats {
		t.Errorf("round trip changed the shape: %+v versus %+v", gotStats, wantStats)
	}
	want, _ := arbor.Collect[string, *arbor.Node[string]](tree)
	got, _ := arbor.Collect[string, *arbor.Node[string]](back)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("payload %d is %q after round trip, want %q", i, got[i], want[i])
		}
	}
}
