package succinct

// Bit vector for the balanced-parentheses structure.
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
	mathbits "math/bits"
	"strings"
)

// Bits is an append-oriented bit vector backed by 64-bit words, least
// significant bit first within each word. The zero value is an empty
// vector ready for use.
type Bits struct {
	words []uint64
	n     int
}

// AppendBit appends one bit at position Len().
func (b *Bits) AppendBit(set bool) {
	word, off := b.n/64, uint(b.n%64)
	if word == len(b.words) {
		b.words = append(b.words, 0)
	}
	if set {
		b.words[word] |= 1 << off
	}
	b.n++
}

// Bit returns the bit at position i, which must be in [0, Len()).
func (b Bits) Bit(i int) bool {
	assert(i >= 0 && i < b.n, "bit position out of range")
	return b.words[i/64]&(1<<uint(i%64)) != 0
}

// Len returns the number of bits appended so far.
func (b Bits) Len() int { return b.n }

// Ones returns the number of set bits.
func (b Bits) Ones() int {
	total := 0
	for _, w := range b.words {
		total += mathbits.OnesCount64(w)
	}
	return total
}

// clone returns an independent copy. Sharing the word slice would let an
// AppendBit on one copy write through to the other.
func (b Bits) clone() Bits {
	return Bits{words: append([]uint64(nil), b.words...), n: b.n}
}

// Pack serializes the vector into ceil(Len()/8) bytes: bit i goes to
// byte i/8 at in-byte position i%8. Unused bits of the last byte are
// zero.
func (b Bits) Pack() []byte {
	packed := make([]byte, (b.n+7)/8)
	for j := range packed {
		packed[j] = byte(b.words[j/8] >> (8 * uint(j%8)))
	}
	return packed
}

// Unpack reads a vector of nbits bits from its Pack serialization. The
// data length must match exactly and padding bits must be zero;
// violations yield ErrMalformedEncoding.
func Unpack(data []byte, nbits int) (Bits, error) {
	if nbits < 0 {
		return Bits{}, fmt.Errorf("%w: negative bit count %d", ErrMalformedEncoding, nbits)
	}
	if len(data) != (nbits+7)/8 {
		return Bits{}, fmt.Errorf("%w: %d structure bytes for %d bits, want %d",
			ErrMalformedEncoding, len(data), nbits, (nbits+7)/8)
	}
	for i := nbits; i < len(data)*8; i++ {
		if data[i/8]&(1<<uint(i%8)) != 0 {
			return Bits{}, fmt.Errorf("%w: padding bit %d is set", ErrMalformedEncoding, i)
		}
	}
	b := Bits{n: nbits}
	if nbits == 0 {
		return b, nil
	}
	b.words = make([]uint64, (nbits+63)/64)
	for j, by := range data {
		b.words[j/8] |= uint64(by) << (8 * uint(j%8))
	}
	return b, nil
}

// String renders the vector as a string of '1' and '0' runes, first bit
// leftmost.
func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(b.n)
	for i := 0; i < b.n; i++ {
		if b.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
