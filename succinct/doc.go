/*
Package succinct provides a compact bit-vector encoding for trees, a wire
format around it, and a store that keeps a living tree in succinct form.

The encoding is the classical balanced-parentheses scheme: a preorder walk
emits a 1-bit when it enters a node and a 0-bit when it leaves, giving
exactly 2n structure bits for n nodes, plus the payloads in preorder. The
codec validates strictly: truncated or inconsistent input yields
ErrMalformedEncoding, never a panic.

The store trades the pointer tree for parallel arrays (payloads, parent
indices, child counts) with O(1) appends. Structural queries scan the
parent array, relying on the invariant that a child's index is always
greater than its parent's. Removals and lazy re-layout passes renumber
the arrays; epoch-stamped NodeViews fail fast with ErrStaleReference
instead of resolving against a renumbered store.

_________________________________________________________________________

# BSD 3-Clause License

# Copyright (c) 2020–21, Norbert Pillmayer

Please refer to the LICENSE file for details.
*/
package succinct

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'arbor.succinct'
func tracer() tracing.Trace {
	return tracing.Select("arbor.succinct")
}

// assert with formatted panic. Use for asserting on conditions which
// are considered a core assumption of array bookkeeping.
func assert(condition bool, msg string) {
	if !condition {
		panic("succinct: assertion failed: " + msg)
	}
}
