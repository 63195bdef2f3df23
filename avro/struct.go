package avro

import (
	"fmt"

	"github.com/grafana/avrobj/rowdata"
)

// Struct returns a reader that decodes a fixed, ordered list of fields into
// a row of exactly len(fields) positions.
//
// idToConstant maps field ids to plan-time constant values (for example,
// partition-derived columns): positions whose field id is present are set
// from the constant and never read from the wire, so their reader slot may
// be nil. Every other position is decoded by its field's reader, with the
// position explicitly marked null when the decoded value is null.
//
// Rows are allocated from sink, unless the caller supplies a reuse row of
// matching width, which is overwritten in place.
func Struct(readers []ValueReader, fields []Field, idToConstant map[int]rowdata.Value, sink rowdata.Sink) (ValueReader, error) {
	if len(readers) != len(fields) {
		return nil, fmt.Errorf("struct: %d readers for %d fields", len(readers), len(fields))
	}

	r := &structReader{
		readers:   readers,
		constants: make([]rowdata.Value, len(fields)),
		hasConst:  make([]bool, len(fields)),
		sink:      sink,
	}
	for i, f := range fields {
		c, ok := idToConstant[f.ID]
		if !ok {
			if readers[i] == nil {
				return nil, fmt.Errorf("struct: field %q has no reader and no constant", f.Name)
			}
			continue
		}
		r.constants[i] = c
		r.hasConst[i] = true
	}
	return r, nil
}

type structReader struct {
	readers   []ValueReader
	constants []rowdata.Value
	hasConst  []bool
	sink      rowdata.Sink
}

func (r *structReader) Read(dec Decoder, reuse rowdata.Value) (rowdata.Value, error) {
	row := r.reuseOrCreate(reuse)

	for i := range r.readers {
		if r.hasConst[i] {
			r.set(row, i, r.constants[i])
			continue
		}

		v, err := r.readers[i].Read(dec, rowdata.Value{})
		if err != nil {
			return rowdata.Value{}, fmt.Errorf("struct field %d: %w", i, err)
		}
		r.set(row, i, v)
	}

	return rowdata.RowValue(row), nil
}

func (r *structReader) reuseOrCreate(reuse rowdata.Value) rowdata.Row {
	if reuse.Type() == rowdata.TypeRow {
		if row := reuse.Row(); row.NumFields() == len(r.readers) {
			return row
		}
	}
	return r.sink.NewRow(len(r.readers))
}

func (r *structReader) set(row rowdata.Row, pos int, v rowdata.Value) {
	if v.IsNil() {
		row.SetNull(pos)
		return
	}
	row.Set(pos, v)
}
