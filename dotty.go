package arbor

import (
	"fmt"
	"io"
)

type nodeids[T comparable] struct {
	idTable map[*Node[T]]int
	max     int
}

func newtable[T comparable]() nodeids[T] {
	return nodeids[T]{
		idTable: make(map[*Node[T]]int),
		max:     1,
	}
}

func (ids nodeids[T]) find(node *Node[T]) int {
	return ids.idTable[node]
}

func (ids *nodeids[T]) alloc(node *Node[T]) int {
	if id := ids.find(node); id > 0 {
		return id
	}
	ids.idTable[node] = ids.max
	ids.max++
	return ids.max - 1
}

// ToDot outputs the structure of a tree in Graphviz DOT format
// (for debugging purposes).
//
// label renders a payload into a node label; nil falls back to fmt.Sprint.
func ToDot[T comparable](w io.Writer, t *Tree[T], label func(T) string) {
	if label == nil {
		label = func(payload T) string { return fmt.Sprint(payload) }
	}
	io.WriteString(w, "strict digraph {\n")
	io.WriteString(w, "\tnode [fontname=Arial,fontsize=12];\n")
	ids := newtable[T]()
	nodelist, edgelist := "", ""
	for node := range t.Nodes() {
		ID := ids.alloc(node)
		styles := nodeDotStyles(node.IsLeaf())
		nodelist += fmt.Sprintf("\"%d\" [label=\"%s\" %s];\n", ID, label(node.payload), styles)
		for _, child := range node.children {
			edgelist += fmt.Sprintf("\"%d\" -> \"%d\";\n", ID, ids.alloc(child))
		}
	}
	io.WriteString(w, nodelist)
	io.WriteString(w, edgelist)
	io.WriteString(w, "}\n")
}

func nodeDotStyles(isleaf bool) string {
	s := ",style=filled"
	if isleaf {
		s += ",shape=box"
	} else {
		s += ",color=black,fillcolor=\"#a3d7e4\""
		s += ",shape=circle"
	}
	return s
}
