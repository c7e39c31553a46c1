package succinct

// Balanced-parentheses codec for owned trees.
//
// _________________________________________________________________________
//
// BSD 3-Clause License
//
// Copyright (c) 2020–21, Norbert Pillmayer
//
// Please refer to the LICENSE file for details.

import (
	"fmt"
	"reflect"

	"github.com/npillmayer/arbor"
)

// Encoding is a succinct tree representation: 2n structure bits plus the
// n payloads in preorder. The zero value encodes the empty tree.
type Encoding[T comparable] struct {
	bits     Bits
	payloads []T
}

// Encode walks the tree in preorder and emits a 1-bit and the payload
// when it enters a node, and a 0-bit when it leaves it. An empty tree
// yields the zero Encoding.
func Encode[T comparable](t *arbor.Tree[T]) Encoding[T] {
	var enc Encoding[T]
	root, ok := t.Root()
	if !ok {
		return enc
	}
	encodeNode(root, &enc)
	assert(enc.bits.Len() == 2*len(enc.payloads), "encoding must hold two bits per node")
	return enc
}

func encodeNode[T comparable](n *arbor.Node[T], enc *Encoding[T]) {
	enc.bits.AppendBit(true)
	enc.payloads = append(enc.payloads, n.Payload())
	for _, child := range n.Children() {
		encodeNode(child, enc)
	}
	enc.bits.AppendBit(false)
}

// Decode rebuilds the exact tree an Encoding describes, preserving shape,
// child order and payloads. The tree is created with cfg, but automatic
// rebalancing is suspended while the shape is under reconstruction and
// restored afterwards, so the decoded shape is bit-exact.
//
// Validation is strict: the payload count must match the 1-bits, the bit
// length must be twice the payload count, and the structure walk must
// describe exactly one tree. Violations yield ErrMalformedEncoding with
// detail; truncated input never panics. Empty bits with no payloads
// decode to the empty tree.
func Decode[T comparable](enc Encoding[T], cfg arbor.Config) (*arbor.Tree[T], error) {
	if err := enc.validate(); err != nil {
		return nil, err
	}
	t, err := arbor.New[T](cfg)
	if err != nil {
		return nil, err
	}
	if len(enc.payloads) == 0 {
		return t, nil
	}
	auto := t.AutoRebalance()
	t.SetAutoRebalance(false)
	if !enc.bits.Bit(0) {
		return nil, fmt.Errorf("%w: first bit does not open the root", ErrMalformedEncoding)
	}
	root := t.SetRoot(enc.payloads[0])
	payloadIdx := 1
	stack := []*arbor.Node[T]{root}
	for bitIdx := 1; bitIdx < enc.bits.Len(); bitIdx++ {
		if enc.bits.Bit(bitIdx) {
			assert(payloadIdx < len(enc.payloads), "validated encoding ran out of payloads")
			child, err := t.AppendChild(stack[len(stack)-1], enc.payloads[payloadIdx])
			assert(err == nil, "append under a live decode frame cannot fail")
			payloadIdx++
			stack = append(stack, child)
		} else {
			stack = stack[:len(stack)-1]
			if len(stack) == 0 && bitIdx != enc.bits.Len()-1 {
				return nil, fmt.Errorf("%w: root closes at bit %d of %d",
					ErrMalformedEncoding, bitIdx, enc.bits.Len())
			}
		}
	}
	assert(len(stack) == 0, "validated encoding left open nodes")
	assert(payloadIdx == len(enc.payloads), "validated encoding left unused payloads")
	t.SetAutoRebalance(auto)
	return t, nil
}

// validate cross-checks the counting invariants of the encoding. The
// structural walk itself is validated during decoding.
func (enc Encoding[T]) validate() error {
	n := len(enc.payloads)
	if enc.bits.Len() != 2*n {
		return fmt.Errorf("%w: %d structure bits for %d payloads, want %d",
			ErrMalformedEncoding, enc.bits.Len(), n, 2*n)
	}
	if ones := enc.bits.Ones(); ones != n {
		return fmt.Errorf("%w: %d open bits for %d payloads", ErrMalformedEncoding, ones, n)
	}
	return nil
}

// NodeCount returns the number of nodes the encoding describes.
func (enc Encoding[T]) NodeCount() int { return len(enc.payloads) }

// Bits returns an independent copy of the structure bits.
func (enc Encoding[T]) Bits() Bits { return enc.bits.clone() }

// Payloads returns a copy of the payloads in preorder.
func (enc Encoding[T]) Payloads() []T {
	return append([]T(nil), enc.payloads...)
}

// String renders the structure bits, e.g. "11110000" for a chain of four
// nodes.
func (enc Encoding[T]) String() string { return enc.bits.String() }

// Estimated per-node cost of a conventional pointer tree: parent pointer,
// children slice header, one child pointer amortized.
const pointerNodeOverhead = 8 + 24 + 8

// MemoryUsage estimates the bytes held by the encoding: structure words
// plus payload storage.
func (enc Encoding[T]) MemoryUsage() int {
	payloadSize := int(reflect.TypeFor[T]().Size())
	return len(enc.bits.words)*8 + len(enc.payloads)*payloadSize
}

// CompressionRatio estimates MemoryUsage against a conventional pointer
// tree of the same size. Values below 1 mean the encoding is smaller.
// Purely informational.
func (enc Encoding[T]) CompressionRatio() float64 {
	n := len(enc.payloads)
	if n == 0 {
		return 1.0
	}
	payloadSize := int(reflect.TypeFor[T]().Size())
	pointerTree := n * (payloadSize + pointerNodeOverhead)
	return float64(enc.MemoryUsage()) / float64(pointerTree)
}
