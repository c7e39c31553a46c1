package succinct

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"lukechampine.com/blake3"
)

// Envelope layout, little-endian:
//
//	magic uint32 | version uint16 | flags uint16
//	node count uvarint | packed structure bits
//	payload count uvarint | per payload: length uvarint + bytes
//	BLAKE3-256 digest over everything before it
const (
	wireMagic   uint32 = 0x53425241 // "ARBS"
	wireVersion uint16 = 1
	digestSize         = 32
	headerSize         = 8
)

// PayloadCodec serializes payloads for the wire envelope.
type PayloadCodec[T any] interface {
	EncodePayload(T) ([]byte, error)
	DecodePayload([]byte) (T, error)
}

// StringCodec passes string payloads through as raw bytes.
type StringCodec struct{}

func (StringCodec) EncodePayload(s string) ([]byte, error) { return []byte(s), nil }

func (StringCodec) DecodePayload(data []byte) (string, error) { return string(data), nil }

// IntCodec serializes int payloads as zig-zag varints.
type IntCodec struct{}

func (IntCodec) EncodePayload(i int) ([]byte, error) {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutVarint(buf, int64(i))
	return buf[:n], nil
}

func (IntCodec) DecodePayload(data []byte) (int, error) {
	v, n := binary.Varint(data)
	if n <= 0 || n != len(data) {
		return 0, fmt.Errorf("%w: bad varint payload", ErrMalformedEncoding)
	}
	return int(v), nil
}

// PackedStructure serializes the structure bits alone, ceil(2n/8) bytes
// as specified by Bits.Pack. Payloads travel separately.
func (enc Encoding[T]) PackedStructure() []byte {
	return enc.bits.Pack()
}

// DecodePacked rebuilds an Encoding from a packed structure and its
// payload slice. The byte count must match the payload count exactly and
// the counting invariants must hold.
func DecodePacked[T comparable](structure []byte, payloads []T) (Encoding[T], error) {
	bits, err := Unpack(structure, 2*len(payloads))
	if err != nil {
		return Encoding[T]{}, err
	}
	enc := Encoding[T]{bits: bits, payloads: append([]T(nil), payloads...)}
	if err := enc.validate(); err != nil {
		return Encoding[T]{}, err
	}
	return enc, nil
}

// Marshal writes the encoding to w as a self-describing envelope,
// serializing payloads through codec and sealing the body with a
// BLAKE3-256 digest.
func Marshal[T comparable](w io.Writer, enc Encoding[T], codec PayloadCodec[T]) error {
	if err := enc.validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	var scratch [binary.MaxVarintLen64]byte
	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:], wireMagic)
	binary.LittleEndian.PutUint16(header[4:], wireVersion)
	binary.LittleEndian.PutUint16(header[6:], 0)
	buf.Write(header[:])
	n := binary.PutUvarint(scratch[:], uint64(enc.NodeCount()))
	buf.Write(scratch[:n])
	buf.Write(enc.bits.Pack())
	n = binary.PutUvarint(scratch[:], uint64(len(enc.payloads)))
	buf.Write(scratch[:n])
	for i, payload := range enc.payloads {
		data, err := codec.EncodePayload(payload)
		if err != nil {
			return fmt.Errorf("cannot encode payload %d: %w", i, err)
		}
		n = binary.PutUvarint(scratch[:], uint64(len(data)))
		buf.Write(scratch[:n])
		buf.Write(data)
	}
	digest := blake3.Sum256(buf.Bytes())
	buf.Write(digest[:])
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("cannot write envelope: %w", err)
	}
	return nil
}

// Unmarshal reads an envelope written by Marshal. Corrupt magic, an
// unsupported version, a truncated body, trailing bytes, or a digest
// mismatch all yield ErrMalformedEncoding with detail.
func Unmarshal[T comparable](r io.Reader, codec PayloadCodec[T]) (Encoding[T], error) {
	var none Encoding[T]
	raw, err := io.ReadAll(r)
	if err != nil {
		return none, fmt.Errorf("cannot read envelope: %w", err)
	}
	if len(raw) < headerSize+digestSize {
		return none, fmt.Errorf("%w: envelope of %d bytes is too short", ErrMalformedEncoding, len(raw))
	}
	body, digest := raw[:len(raw)-digestSize], raw[len(raw)-digestSize:]
	if sum := blake3.Sum256(body); !bytes.Equal(sum[:], digest) {
		return none, fmt.Errorf("%w: digest mismatch", ErrMalformedEncoding)
	}
	if magic := binary.LittleEndian.Uint32(body[0:4]); magic != wireMagic {
		return none, fmt.Errorf("%w: bad magic %#08x", ErrMalformedEncoding, magic)
	}
	if version := binary.LittleEndian.Uint16(body[4:6]); version != wireVersion {
		return none, fmt.Errorf("%w: unsupported version %d", ErrMalformedEncoding, version)
	}
	if flags := binary.LittleEndian.Uint16(body[6:8]); flags != 0 {
		return none, fmt.Errorf("%w: unsupported flags %#04x", ErrMalformedEncoding, flags)
	}
	rest := body[headerSize:]
	nodeCount, k := binary.Uvarint(rest)
	if k <= 0 {
		return none, fmt.Errorf("%w: bad node count", ErrMalformedEncoding)
	}
	rest = rest[k:]
	if nodeCount > uint64(len(rest))*8 {
		return none, fmt.Errorf("%w: node count %d exceeds the body", ErrMalformedEncoding, nodeCount)
	}
	structBytes := (2*int(nodeCount) + 7) / 8
	if len(rest) < structBytes {
		return none, fmt.Errorf("%w: truncated structure bits", ErrMalformedEncoding)
	}
	bits, err := Unpack(rest[:structBytes], 2*int(nodeCount))
	if err != nil {
		return none, err
	}
	rest = rest[structBytes:]
	payloadCount, k := binary.Uvarint(rest)
	if k <= 0 {
		return none, fmt.Errorf("%w: bad payload count", ErrMalformedEncoding)
	}
	if payloadCount != nodeCount {
		return none, fmt.Errorf("%w: payload count %d does not match node count %d",
			ErrMalformedEncoding, payloadCount, nodeCount)
	}
	rest = rest[k:]
	payloads := make([]T, 0, payloadCount)
	for i := 0; i < int(payloadCount); i++ {
		plen, k := binary.Uvarint(rest)
		if k <= 0 {
			return none, fmt.Errorf("%w: bad length of payload %d", ErrMalformedEncoding, i)
		}
		rest = rest[k:]
		if uint64(len(rest)) < plen {
			return none, fmt.Errorf("%w: truncated payload %d", ErrMalformedEncoding, i)
		}
		payload, err := codec.DecodePayload(rest[:plen])
		if err != nil {
			return none, fmt.Errorf("cannot decode payload %d: %w", i, err)
		}
		payloads = append(payloads, payload)
		rest = rest[plen:]
	}
	if len(rest) != 0 {
		return none, fmt.Errorf("%w: %d trailing bytes", ErrMalformedEncoding, len(rest))
	}
	enc := Encoding[T]{bits: bits, payloads: payloads}
	if err := enc.validate(); err != nil {
		return none, err
	}
	return enc, nil
}
