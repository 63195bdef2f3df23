package avro_test

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"

	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/grafana/avrobj/avro"
	"github.com/grafana/avrobj/rowdata"
)

const testSchemaJSON = `{
	"type": "record",
	"name": "event",
	"fields": [
		{"name": "id", "type": "long"},
		{"name": "name", "type": "string"}
	]
}`

var testSync = [16]byte{
	0xde, 0xad, 0xbe, 0xef, 0x00, 0x01, 0x02, 0x03,
	0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b,
}

func encodeEvent(id int64, name string) []byte {
	var buf []byte
	buf = appendLong(buf, id)
	buf = appendString(buf, name)
	return buf
}

// buildContainer assembles an object container file with the given codec and
// record payloads, one inner slice per data block.
func buildContainer(t *testing.T, codec string, blocks ...[][]byte) []byte {
	t.Helper()

	var buf []byte
	buf = append(buf, "Obj\x01"...)
	buf = appendLong(buf, 2)
	buf = appendString(buf, "avro.schema")
	buf = appendBytes(buf, []byte(testSchemaJSON))
	buf = appendString(buf, "avro.codec")
	buf = appendBytes(buf, []byte(codec))
	buf = appendLong(buf, 0)
	buf = append(buf, testSync[:]...)

	for _, block := range blocks {
		var data []byte
		for _, rec := range block {
			data = append(data, rec...)
		}

		var enc []byte
		switch codec {
		case avro.CodecNull:
			enc = data
		case avro.CodecDeflate:
			var b bytes.Buffer
			w, err := flate.NewWriter(&b, flate.DefaultCompression)
			require.NoError(t, err)
			_, err = w.Write(data)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			enc = b.Bytes()
		case avro.CodecSnappy:
			enc = snappy.Encode(nil, data)
			enc = binary.BigEndian.AppendUint32(enc, crc32.ChecksumIEEE(data))
		default:
			t.Fatalf("unknown codec %q", codec)
		}

		buf = appendLong(buf, int64(len(block)))
		buf = appendLong(buf, int64(len(enc)))
		buf = append(buf, enc...)
		buf = append(buf, testSync[:]...)
	}
	return buf
}

func TestContainerReader(t *testing.T) {
	for _, codec := range []string{avro.CodecNull, avro.CodecDeflate, avro.CodecSnappy} {
		t.Run(codec, func(t *testing.T) {
			file := buildContainer(t, codec,
				[][]byte{encodeEvent(1, "one"), encodeEvent(2, "two")},
				[][]byte{encodeEvent(3, "three")},
			)

			cr, err := avro.NewContainerReader(bytes.NewReader(file))
			require.NoError(t, err)
			defer func() { require.NoError(t, cr.Close()) }()

			require.Equal(t, codec, cr.Codec())
			require.Equal(t, avro.KindRecord, cr.Schema().Kind)

			want := []struct {
				id   int64
				name string
			}{{1, "one"}, {2, "two"}, {3, "three"}}

			for _, w := range want {
				v, err := cr.Read()
				require.NoError(t, err)

				row := v.Row().(*rowdata.MemoryRow)
				require.Equal(t, w.id, row.Field(0).Int64())
				require.Equal(t, w.name, row.Field(1).String())
			}

			_, err = cr.Read()
			require.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestContainerReader_EmptyFile(t *testing.T) {
	file := buildContainer(t, avro.CodecNull)

	cr, err := avro.NewContainerReader(bytes.NewReader(file))
	require.NoError(t, err)
	defer func() { _ = cr.Close() }()

	_, err = cr.Read()
	require.ErrorIs(t, err, io.EOF)
}

func TestContainerReader_BadMagic(t *testing.T) {
	_, err := avro.NewContainerReader(bytes.NewReader([]byte("NOPE....")))
	require.ErrorIs(t, err, avro.ErrBadMagic)
}

func TestContainerReader_BadSync(t *testing.T) {
	file := buildContainer(t, avro.CodecNull, [][]byte{encodeEvent(1, "one")})
	// Corrupt the trailing block sync marker.
	file[len(file)-1] ^= 0xff

	cr, err := avro.NewContainerReader(bytes.NewReader(file))
	require.NoError(t, err)
	defer func() { _ = cr.Close() }()

	_, err = cr.Read()
	require.ErrorIs(t, err, avro.ErrBadSync)
}

func TestContainerReader_UnknownCodec(t *testing.T) {
	file := buildContainer(t, avro.CodecNull)
	file = bytes.Replace(file, []byte("null"), []byte("zstd"), 1)

	_, err := avro.NewContainerReader(bytes.NewReader(file))
	require.ErrorIs(t, err, avro.ErrUnknownCodec)
}

func TestContainerReader_SnappyChecksum(t *testing.T) {
	file := buildContainer(t, avro.CodecSnappy, [][]byte{encodeEvent(1, "one")})
	// Flip a bit in the block checksum, which sits just before the final
	// sync marker.
	file[len(file)-17] ^= 0xff

	cr, err := avro.NewContainerReader(bytes.NewReader(file))
	require.NoError(t, err)
	defer func() { _ = cr.Close() }()

	_, err = cr.Read()
	require.Error(t, err)
}

func TestContainerReader_Registerer(t *testing.T) {
	file := buildContainer(t, avro.CodecNull, [][]byte{encodeEvent(1, "one")})

	reg := prometheus.NewRegistry()
	cr, err := avro.NewContainerReader(bytes.NewReader(file), avro.WithRegisterer(reg))
	require.NoError(t, err)
	defer func() { _ = cr.Close() }()

	_, err = cr.Read()
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
