/*
Package arbor implements a generic n-ary tree engine with interchangeable
storage layouts.

Trees

An arbor tree stores one payload per node and an ordered list of children of
arbitrary width. The engine never interprets payloads; they travel through
balancing, re-layout and encoding passes untouched. Three layouts share one
set of algorithms:

  - an owned pointer tree (this package), convenient for construction and
    mutation-heavy phases,
  - a flat arena of index-addressed slots (package arena), tuned for cache
    locality and index-based bindings,
  - a succinct bit-vector form (package succinct), tuned for memory footprint
    and serialization.

The layouts are bridged by a narrow capability interface, Storage, so that
the balancer, the statistics collector and the shape-copying Transfer run
unchanged against any of them.

Balancing

Trees degrade into chains when callers append along a single path. The
balancer flattens the payloads in level order and redistributes them into
subtrees of near-equal weight, bounded by a configurable fan-out. Trees can
rebalance on demand or automatically: a depth heuristic compares the actual
depth against the optimal depth of a tree with the configured fan-out, and a
mutation counter throttles how often the heuristic runs. All thresholds are
Config fields; the zero Config selects the defaults.

Rebalancing rebuilds the node graph, so node references obtained before a
rebalance are invalid afterwards. Components that renumber or rebuild
broadcast the fact on an optional Feed, and the index-based layouts
additionally stamp handles with an epoch so that stale references fail fast
instead of dereferencing a moved node.

_________________________________________________________________________

BSD 3-Clause License

Copyright (c) 2020–21, Norbert Pillmayer

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions are met:

1. Redistributions of source code must retain the above copyright notice, this
list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright notice,
this list of conditions and the following disclaimer in the documentation
and/or other materials provided with the distribution.

3. Neither the name of the copyright holder nor the names of its
contributors may be used to endorse or promote products derived from
this software without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

*/
package arbor

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'arbor'
func tracer() tracing.Trace {
	return tracing.Select("arbor")
}

func assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
