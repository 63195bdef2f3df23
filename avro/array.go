package avro

import (
	"fmt"

	"github.com/grafana/avrobj/rowdata"
)

// Array returns a reader that merges one or more wire-level chunks of
// homogeneous elements into a single ordered list. A first chunk count of
// zero yields an empty, non-null list.
func Array(elementReader ValueReader) ValueReader {
	return &arrayReader{element: elementReader}
}

type arrayReader struct {
	element ValueReader

	// reused accumulates elements across chunks and is cleared, not
	// reallocated, between Read calls.
	reused []rowdata.Value
}

func (r *arrayReader) Read(dec Decoder, _ rowdata.Value) (rowdata.Value, error) {
	r.reused = r.reused[:0]

	chunkLength, err := dec.ReadArrayStart()
	if err != nil {
		return rowdata.Value{}, fmt.Errorf("array start: %w", err)
	}

	for chunkLength > 0 {
		for i := int64(0); i < chunkLength; i++ {
			v, err := r.element.Read(dec, rowdata.Value{})
			if err != nil {
				return rowdata.Value{}, fmt.Errorf("array element %d: %w", len(r.reused), err)
			}
			r.reused = append(r.reused, v)
		}

		chunkLength, err = dec.ArrayNext()
		if err != nil {
			return rowdata.Value{}, fmt.Errorf("array next chunk: %w", err)
		}
	}

	// Copying into a fresh slice makes it safe to keep reusing the
	// accumulator on the next call.
	out := make([]rowdata.Value, len(r.reused))
	copy(out, r.reused)
	return rowdata.ListValue(&rowdata.List{Values: out}), nil
}
