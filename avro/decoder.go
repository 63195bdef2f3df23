// Package avro implements schema-driven decoding of the Avro binary format
// into the rowdata value and row model. A tree of [ValueReader]s mirroring
// the resolved schema shape is built once per schema and invoked once per
// record; each invocation pulls values from a forward-only [Decoder] and
// materializes them into native values and rows.
package avro

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// A Decoder reads primitive values and container boundaries of a
// schema-driven binary encoding from an underlying stream. All operations
// are forward-only and stateful on the stream; callers must invoke them in
// exactly the sequence implied by the schema shape.
type Decoder interface {
	// ReadNull consumes a null value. Nulls occupy zero bytes on the wire.
	ReadNull() error

	// ReadBoolean reads a single boolean value.
	ReadBoolean() (bool, error)

	// ReadInt reads a 32-bit zigzag varint.
	ReadInt() (int32, error)

	// ReadLong reads a 64-bit zigzag varint.
	ReadLong() (int64, error)

	// ReadFloat reads a 32-bit little-endian IEEE 754 float.
	ReadFloat() (float32, error)

	// ReadDouble reads a 64-bit little-endian IEEE 754 float.
	ReadDouble() (float64, error)

	// ReadBytes reads a length-prefixed byte sequence. If reuse has
	// sufficient capacity it is used as the destination buffer; the returned
	// slice holds exactly the decoded bytes.
	ReadBytes(reuse []byte) ([]byte, error)

	// ReadString reads a length-prefixed UTF-8 byte sequence, with the same
	// reuse semantics as ReadBytes.
	ReadString(reuse []byte) ([]byte, error)

	// ReadFixed fills p with exactly len(p) bytes from the stream.
	ReadFixed(p []byte) error

	// ReadEnum reads an enum discriminant.
	ReadEnum() (int, error)

	// ReadArrayStart returns the element count of the first chunk of an
	// array. A count of zero means the array is empty.
	ReadArrayStart() (int64, error)

	// ArrayNext returns the element count of the next chunk of the current
	// array. A count of zero terminates the array.
	ArrayNext() (int64, error)

	// ReadMapStart returns the entry count of the first chunk of a map.
	ReadMapStart() (int64, error)

	// MapNext returns the entry count of the next chunk of the current map.
	MapNext() (int64, error)

	// ReadIndex reads a union discriminant: an index into the full member
	// list of the union, including the null member if present.
	ReadIndex() (int, error)
}

// BinaryDecoder reads the Avro binary encoding from an io.Reader.
// BinaryDecoder is not safe for concurrent use.
type BinaryDecoder struct {
	br *bufio.Reader

	// scratch for fixed-width primitives.
	buf [8]byte
}

var _ Decoder = (*BinaryDecoder)(nil)

// NewBinaryDecoder returns a BinaryDecoder reading from r.
func NewBinaryDecoder(r io.Reader) *BinaryDecoder {
	return &BinaryDecoder{br: bufio.NewReader(r)}
}

// Reset discards any buffered state and switches the decoder to read from r.
func (d *BinaryDecoder) Reset(r io.Reader) {
	d.br.Reset(r)
}

// ReadNull implements [Decoder]. Nulls occupy zero bytes.
func (d *BinaryDecoder) ReadNull() error { return nil }

// ReadBoolean implements [Decoder].
func (d *BinaryDecoder) ReadBoolean() (bool, error) {
	b, err := d.br.ReadByte()
	if err != nil {
		return false, fmt.Errorf("read boolean: %w", err)
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("read boolean: invalid byte 0x%02x", b)
	}
}

// ReadInt implements [Decoder].
func (d *BinaryDecoder) ReadInt() (int32, error) {
	v, err := d.ReadLong()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("read int: value %d overflows int32", v)
	}
	return int32(v), nil
}

// ReadLong implements [Decoder].
func (d *BinaryDecoder) ReadLong() (int64, error) {
	u, err := binary.ReadUvarint(d.br)
	if err != nil {
		return 0, fmt.Errorf("read long: %w", err)
	}
	// zigzag decode
	return int64(u>>1) ^ -int64(u&1), nil
}

// ReadFloat implements [Decoder].
func (d *BinaryDecoder) ReadFloat() (float32, error) {
	if _, err := io.ReadFull(d.br, d.buf[:4]); err != nil {
		return 0, fmt.Errorf("read float: %w", err)
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(d.buf[:4])), nil
}

// ReadDouble implements [Decoder].
func (d *BinaryDecoder) ReadDouble() (float64, error) {
	if _, err := io.ReadFull(d.br, d.buf[:8]); err != nil {
		return 0, fmt.Errorf("read double: %w", err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(d.buf[:8])), nil
}

// ReadBytes implements [Decoder].
func (d *BinaryDecoder) ReadBytes(reuse []byte) ([]byte, error) {
	n, err := d.ReadLong()
	if err != nil {
		return nil, fmt.Errorf("read bytes length: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("read bytes: negative length %d", n)
	}

	var buf []byte
	if int64(cap(reuse)) >= n {
		buf = reuse[:n]
	} else {
		buf = make([]byte, n)
	}
	if _, err := io.ReadFull(d.br, buf); err != nil {
		return nil, fmt.Errorf("read bytes: %w", err)
	}
	return buf, nil
}

// ReadString implements [Decoder].
func (d *BinaryDecoder) ReadString(reuse []byte) ([]byte, error) {
	return d.ReadBytes(reuse)
}

// ReadFixed implements [Decoder].
func (d *BinaryDecoder) ReadFixed(p []byte) error {
	if _, err := io.ReadFull(d.br, p); err != nil {
		return fmt.Errorf("read fixed[%d]: %w", len(p), err)
	}
	return nil
}

// ReadEnum implements [Decoder].
func (d *BinaryDecoder) ReadEnum() (int, error) {
	v, err := d.ReadInt()
	if err != nil {
		return 0, fmt.Errorf("read enum: %w", err)
	}
	return int(v), nil
}

// ReadArrayStart implements [Decoder].
func (d *BinaryDecoder) ReadArrayStart() (int64, error) { return d.readBlockCount() }

// ArrayNext implements [Decoder].
func (d *BinaryDecoder) ArrayNext() (int64, error) { return d.readBlockCount() }

// ReadMapStart implements [Decoder].
func (d *BinaryDecoder) ReadMapStart() (int64, error) { return d.readBlockCount() }

// MapNext implements [Decoder].
func (d *BinaryDecoder) MapNext() (int64, error) { return d.readBlockCount() }

// readBlockCount reads one container chunk header. The binary format allows
// a negative count, in which case the chunk's byte size follows and the
// element count is the absolute value. The byte size is consumed and
// discarded; the normalized non-negative count is returned.
func (d *BinaryDecoder) readBlockCount() (int64, error) {
	n, err := d.ReadLong()
	if err != nil {
		return 0, fmt.Errorf("read block count: %w", err)
	}
	if n < 0 {
		if _, err := d.ReadLong(); err != nil {
			return 0, fmt.Errorf("read block size: %w", err)
		}
		n = -n
	}
	return n, nil
}

// ReadIndex implements [Decoder].
func (d *BinaryDecoder) ReadIndex() (int, error) {
	v, err := d.ReadInt()
	if err != nil {
		return 0, fmt.Errorf("read union index: %w", err)
	}
	return int(v), nil
}
