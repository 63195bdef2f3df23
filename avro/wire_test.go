package avro_test

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/grafana/avrobj/avro"
)

// Helpers to hand-build Avro binary streams for tests.

func appendLong(b []byte, v int64) []byte {
	return binary.AppendUvarint(b, uint64((v<<1)^(v>>63)))
}

func appendInt(b []byte, v int32) []byte {
	return appendLong(b, int64(v))
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

func appendFloat(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}

func appendDouble(b []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

func appendBytes(b []byte, v []byte) []byte {
	b = appendLong(b, int64(len(v)))
	return append(b, v...)
}

func appendString(b []byte, v string) []byte {
	return appendBytes(b, []byte(v))
}

func newDecoder(b []byte) avro.Decoder {
	return avro.NewBinaryDecoder(bytes.NewReader(b))
}
