package arbor

import "testing"

func TestStatisticsOfSampleTree(t *testing.T) {
	tree, _ := buildSampleTree(t)
	stats := tree.Statistics()
	if stats.TotalNodes != 7 {
		t.Errorf("TotalNodes = %d, want 7", stats.TotalNodes)
	}
	if stats.LeafNodes != 4 || stats.InternalNodes != 3 {
		t.Errorf("leaf/internal = %d/%d, want 4/3", stats.LeafNodes, stats.InternalNodes)
	}
	if stats.LeafNodes+stats.InternalNodes != stats.TotalNodes {
		t.Error("leaf and internal nodes must add up to the total")
	}
	if stats.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", stats.MaxDepth)
	}
	if stats.MaxChildren != 3 || stats.MinChildren != 1 {
		t.Errorf("max/min children = %d/%d, want 3/1", stats.MaxChildren, stats.MinChildren)
	}
	// 6 child links over 3 internal nodes
	if stats.AvgChildren != 2.0 {
		t.Errorf("AvgChildren = %f, want 2.0", stats.AvgChildren)
	}
	if stats.Rebalances != 0 {
		t.Errorf("Rebalances = %d, want 0", stats.Rebalances)
	}
}

func TestStatisticsOfEmptyAndSingleTree(t *testing.T) {
	empty, err := New[string](Config{})
	if err != nil {
		t.Fatal(err)
	}
	if stats := empty.Statistics(); stats != (Stats{}) {
		t.Errorf("empty tree stats = %+v, want zero value", stats)
	}
	single, err := NewWithRoot("x", Config{})
	if err != nil {
		t.Fatal(err)
	}
	stats := single.Statistics()
	if stats.TotalNodes != 1 || stats.LeafNodes != 1 || stats.InternalNodes != 0 {
		t.Errorf("single node stats = %+v", stats)
	}
	if stats.MaxDepth != 1 || stats.AvgChildren != 0 {
		t.Errorf("single node depth/avg = %d/%f, want 1/0", stats.MaxDepth, stats.AvgChildren)
	}
}

func TestStatisticsCountRebalances(t *testing.T) {
	tree := buildChain(t, []string{"a", "b", "c", "d", "e"}, Config{MaxFanout: 2})
	tree.Balance()
	tree.Balance()
	if stats := tree.Statistics(); stats.Rebalances != 2 {
		t.Errorf("Rebalances = %d, want 2", stats.Rebalances)
	}
}
