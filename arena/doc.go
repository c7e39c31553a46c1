/*
Package arena provides a flat, cache-friendly slot storage for trees.

Nodes live in a single contiguous slice of slots. Every slot records its
payload together with the indices of its parent and first child and its
child count, so traversal needs no pointer chasing at all. A locality
score in [0,1] measures how close children sit to their parents; when the
score degrades, Relayout rewrites the slots in breadth-first order, which
places every child group contiguously right of its parent.

Slot indices are only stable between renumbering passes. Clients that
hold on to indices across mutations should mint a Ref and Resolve it
later; resolving after a re-layout fails with ErrStaleReference instead
of silently addressing the wrong node.

_________________________________________________________________________

# BSD 3-Clause License

# Copyright (c) 2020–21, Norbert Pillmayer

Please refer to the LICENSE file for details.
*/
package arena

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'arbor.arena'
func tracer() tracing.Trace {
	return tracing.Select("arbor.arena")
}

// assert with formatted panic. Use for asserting on conditions which
// are considered a core assumption of slot bookkeeping.
func assert(condition bool, msg string) {
	if !condition {
		panic("arena: assertion failed: " + msg)
	}
}
