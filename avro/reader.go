package avro

import (
	"errors"

	"github.com/grafana/avrobj/rowdata"
)

var (
	// ErrEnumRange is returned when a decoded enum discriminant is outside
	// the symbol table. This signals that the writer's schema and the
	// reader's schema disagree on the enum's symbols.
	ErrEnumRange = errors.New("enum index out of range")

	// ErrUnionRange is returned when a decoded union discriminant is outside
	// the member list. The stream position is unrecoverable after this.
	ErrUnionRange = errors.New("union index out of range")
)

// A ValueReader converts one decoded schema-typed value into a native value
// or row. Readers form a tree mirroring the schema; a composite reader
// exclusively owns its child readers.
//
// reuse is an optional hint carrying a previously produced value that the
// reader may recycle: struct readers reuse a row of matching width in place,
// and string readers reuse a byte-array value's buffer. Readers ignore reuse
// hints they cannot apply.
//
// ValueReaders are stateless across calls except for instance-owned scratch
// buffers that are cleared and refilled on each call, so a reader tree must
// not be shared between goroutines. Use one tree per goroutine for
// concurrent decoding.
type ValueReader interface {
	Read(dec Decoder, reuse rowdata.Value) (rowdata.Value, error)
}
