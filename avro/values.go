package avro

import (
	"fmt"
	"math/big"
	"unsafe"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grafana/avrobj/rowdata"
)

// Nulls returns a reader for the null type. It consumes nothing from the
// stream and always produces the null value.
func Nulls() ValueReader { return nullReader{} }

type nullReader struct{}

func (nullReader) Read(dec Decoder, _ rowdata.Value) (rowdata.Value, error) {
	if err := dec.ReadNull(); err != nil {
		return rowdata.Value{}, err
	}
	return rowdata.Value{}, nil
}

// Booleans returns a reader for boolean values.
func Booleans() ValueReader { return booleanReader{} }

type booleanReader struct{}

func (booleanReader) Read(dec Decoder, _ rowdata.Value) (rowdata.Value, error) {
	v, err := dec.ReadBoolean()
	if err != nil {
		return rowdata.Value{}, err
	}
	return rowdata.BoolValue(v), nil
}

// Ints returns a reader for 32-bit integer values, widened to int64.
func Ints() ValueReader { return intReader{} }

type intReader struct{}

func (intReader) Read(dec Decoder, _ rowdata.Value) (rowdata.Value, error) {
	v, err := dec.ReadInt()
	if err != nil {
		return rowdata.Value{}, err
	}
	return rowdata.Int64Value(int64(v)), nil
}

// Longs returns a reader for 64-bit integer values.
func Longs() ValueReader { return longReader{} }

type longReader struct{}

func (longReader) Read(dec Decoder, _ rowdata.Value) (rowdata.Value, error) {
	v, err := dec.ReadLong()
	if err != nil {
		return rowdata.Value{}, err
	}
	return rowdata.Int64Value(v), nil
}

// Floats returns a reader for 32-bit float values, widened to float64.
func Floats() ValueReader { return floatReader{} }

type floatReader struct{}

func (floatReader) Read(dec Decoder, _ rowdata.Value) (rowdata.Value, error) {
	v, err := dec.ReadFloat()
	if err != nil {
		return rowdata.Value{}, err
	}
	return rowdata.Float64Value(float64(v)), nil
}

// Doubles returns a reader for 64-bit float values.
func Doubles() ValueReader { return doubleReader{} }

type doubleReader struct{}

func (doubleReader) Read(dec Decoder, _ rowdata.Value) (rowdata.Value, error) {
	v, err := dec.ReadDouble()
	if err != nil {
		return rowdata.Value{}, err
	}
	return rowdata.Float64Value(v), nil
}

// Strings returns a reader for string values. The produced value references
// exactly the decoded bytes; when a byte-array reuse hint is supplied its
// buffer is passed through to the decoder to avoid reallocation, so callers
// opting into reuse give up the previous call's value.
func Strings() ValueReader { return stringReader{} }

type stringReader struct{}

func (stringReader) Read(dec Decoder, reuse rowdata.Value) (rowdata.Value, error) {
	var buf []byte
	if reuse.Type() == rowdata.TypeByteArray {
		buf = reuse.ByteArray()
	}

	b, err := dec.ReadString(buf)
	if err != nil {
		return rowdata.Value{}, err
	}
	return rowdata.StringValue(yoloString(b)), nil
}

// Bytes returns a reader for byte-sequence values, with the same reuse
// semantics as [Strings].
func Bytes() ValueReader { return bytesReader{} }

type bytesReader struct{}

func (bytesReader) Read(dec Decoder, reuse rowdata.Value) (rowdata.Value, error) {
	var buf []byte
	if reuse.Type() == rowdata.TypeByteArray {
		buf = reuse.ByteArray()
	}

	b, err := dec.ReadBytes(buf)
	if err != nil {
		return rowdata.Value{}, err
	}
	return rowdata.ByteArrayValue(b), nil
}

// Fixed returns a reader for fixed-size byte sequences of the given width.
func Fixed(size int) ValueReader { return &fixedReader{size: size} }

type fixedReader struct {
	size int
}

func (r *fixedReader) Read(dec Decoder, reuse rowdata.Value) (rowdata.Value, error) {
	var buf []byte
	if reuse.Type() == rowdata.TypeByteArray && cap(reuse.ByteArray()) >= r.size {
		buf = reuse.ByteArray()[:r.size]
	} else {
		buf = make([]byte, r.size)
	}

	if err := dec.ReadFixed(buf); err != nil {
		return rowdata.Value{}, err
	}
	return rowdata.ByteArrayValue(buf), nil
}

// Enums returns a reader for enumerated symbols. Symbol values are
// materialized once at construction and indexed by the wire discriminant.
func Enums(symbols []string) ValueReader {
	r := &enumReader{symbols: make([]rowdata.Value, len(symbols))}
	for i, s := range symbols {
		r.symbols[i] = rowdata.StringValue(s)
	}
	return r
}

type enumReader struct {
	symbols []rowdata.Value
}

func (r *enumReader) Read(dec Decoder, _ rowdata.Value) (rowdata.Value, error) {
	index, err := dec.ReadEnum()
	if err != nil {
		return rowdata.Value{}, err
	}
	if index < 0 || index >= len(r.symbols) {
		return rowdata.Value{}, fmt.Errorf("enum index %d with %d symbols: %w", index, len(r.symbols), ErrEnumRange)
	}
	return r.symbols[index], nil
}

// UUIDs returns a reader for 16-byte big-endian identifiers, produced in
// canonical textual form. The 16-byte scratch buffer is owned by the reader
// instance, not shared thread-locally, so each goroutine needs its own
// reader tree.
func UUIDs() ValueReader { return &uuidReader{} }

type uuidReader struct {
	buf [16]byte
}

func (r *uuidReader) Read(dec Decoder, _ rowdata.Value) (rowdata.Value, error) {
	if err := dec.ReadFixed(r.buf[:]); err != nil {
		return rowdata.Value{}, err
	}
	return rowdata.StringValue(uuid.UUID(r.buf).String()), nil
}

// Decimals returns a reader for arbitrary-precision decimals. The unscaled
// magnitude is decoded by unscaledReader as a big-endian two's-complement
// integer and combined with the statically known scale.
func Decimals(unscaledReader ValueReader, scale int) ValueReader {
	return &decimalReader{unscaled: unscaledReader, scale: scale}
}

type decimalReader struct {
	unscaled ValueReader
	scale    int
}

func (r *decimalReader) Read(dec Decoder, _ rowdata.Value) (rowdata.Value, error) {
	v, err := r.unscaled.Read(dec, rowdata.Value{})
	if err != nil {
		return rowdata.Value{}, err
	}

	b := v.ByteArray()
	mag := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		// two's complement: subtract 2^(8*len) from the unsigned magnitude.
		mag.Sub(mag, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return rowdata.DecimalValue(decimal.NewFromBigInt(mag, -int32(r.scale))), nil
}

func yoloString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}
