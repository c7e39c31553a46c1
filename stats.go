package arbor

// Stats aggregates structural metrics of a tree.
//
// LeafNodes and InternalNodes always add up to TotalNodes. MinChildren and
// AvgChildren describe internal nodes only and are 0 for trees without
// internal nodes.
type Stats struct {
	TotalNodes    int
	LeafNodes     int
	InternalNodes int
	MaxDepth      int
	MaxChildren   int
	MinChildren   int
	AvgChildren   float64
	Rebalances    uint64
}

// GatherStats collects structural metrics of any storage in a single
// level-order traversal. The Rebalances field is left to the storage owner;
// see Tree.Statistics.
func GatherStats[T comparable, R any](s Storage[T, R]) (Stats, error) {
	var stats Stats
	root, ok := s.Root()
	if !ok {
		return stats, nil
	}
	type visit struct {
		n     R
		depth int
	}
	queue := []visit{{n: root, depth: 1}}
	totalChildren := 0
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		stats.TotalNodes++
		if v.depth > stats.MaxDepth {
			stats.MaxDepth = v.depth
		}
		children, err := s.Children(v.n)
		if err != nil {
			return Stats{}, err
		}
		if len(children) == 0 {
			stats.LeafNodes++
		} else {
			stats.InternalNodes++
			totalChildren += len(children)
			if len(children) > stats.MaxChildren {
				stats.MaxChildren = len(children)
			}
			if stats.MinChildren == 0 || len(children) < stats.MinChildren {
				stats.MinChildren = len(children)
			}
		}
		for _, c := range children {
			queue = append(queue, visit{n: c, depth: v.depth + 1})
		}
	}
	if stats.InternalNodes > 0 {
		stats.AvgChildren = float64(totalChildren) / float64(stats.InternalNodes)
	}
	return stats, nil
}

// Statistics collects structural metrics of the tree, including the number
// of rebalancing passes run so far.
func (t *Tree[T]) Statistics() Stats {
	stats, err := GatherStats[T, *Node[T]](t)
	assert(err == nil, "stats traversal over an owned tree cannot fail")
	stats.Rebalances = t.rebalances
	return stats
}
