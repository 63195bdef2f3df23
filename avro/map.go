package avro

import (
	"fmt"

	"github.com/grafana/avrobj/rowdata"
)

// Two wire encodings exist for key/value pairs: "array of pairs" chunking
// (arrayNext-style) and native map chunking (mapNext-style). [ArrayMap] and
// [Map] decode one each; both produce the same mapping abstraction and share
// the same accumulation strategy.

// ArrayMap returns a reader for key/value pairs carried in array chunking.
func ArrayMap(keyReader, valueReader ValueReader) ValueReader {
	return &arrayMapReader{pairAccumulator{key: keyReader, value: valueReader}}
}

type arrayMapReader struct {
	pairAccumulator
}

func (r *arrayMapReader) Read(dec Decoder, _ rowdata.Value) (rowdata.Value, error) {
	return r.accumulate(dec, dec.ReadArrayStart, dec.ArrayNext)
}

// Map returns a reader for key/value pairs carried in native map chunking.
func Map(keyReader, valueReader ValueReader) ValueReader {
	return &mapReader{pairAccumulator{key: keyReader, value: valueReader}}
}

type mapReader struct {
	pairAccumulator
}

func (r *mapReader) Read(dec Decoder, _ rowdata.Value) (rowdata.Value, error) {
	return r.accumulate(dec, dec.ReadMapStart, dec.MapNext)
}

// pairAccumulator decodes chunked key/value pairs, key then value per slot,
// into reused key and value buffers. The buffers are cleared, not
// reallocated, between reads.
type pairAccumulator struct {
	key   ValueReader
	value ValueReader

	reusedKeys   []rowdata.Value
	reusedValues []rowdata.Value
}

func (a *pairAccumulator) accumulate(dec Decoder, start, next func() (int64, error)) (rowdata.Value, error) {
	a.reusedKeys = a.reusedKeys[:0]
	a.reusedValues = a.reusedValues[:0]

	chunkLength, err := start()
	if err != nil {
		return rowdata.Value{}, fmt.Errorf("map start: %w", err)
	}

	for chunkLength > 0 {
		for i := int64(0); i < chunkLength; i++ {
			k, err := a.key.Read(dec, rowdata.Value{})
			if err != nil {
				return rowdata.Value{}, fmt.Errorf("map key %d: %w", len(a.reusedKeys), err)
			}
			v, err := a.value.Read(dec, rowdata.Value{})
			if err != nil {
				return rowdata.Value{}, fmt.Errorf("map value %d: %w", len(a.reusedValues), err)
			}
			a.reusedKeys = append(a.reusedKeys, k)
			a.reusedValues = append(a.reusedValues, v)
		}

		chunkLength, err = next()
		if err != nil {
			return rowdata.Value{}, fmt.Errorf("map next chunk: %w", err)
		}
	}

	keys := make([]rowdata.Value, len(a.reusedKeys))
	copy(keys, a.reusedKeys)
	values := make([]rowdata.Value, len(a.reusedValues))
	copy(values, a.reusedValues)
	return rowdata.MapValue(&rowdata.Map{Keys: keys, Values: values}), nil
}
