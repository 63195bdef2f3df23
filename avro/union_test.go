package avro_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/avrobj/avro"
	"github.com/grafana/avrobj/rowdata"
)

func nullIntStringUnion() ([]*avro.Schema, []avro.ValueReader) {
	members := []*avro.Schema{
		{Kind: avro.KindNull},
		{Kind: avro.KindInt},
		{Kind: avro.KindString},
	}
	readers := []avro.ValueReader{avro.Nulls(), avro.Ints(), avro.Strings()}
	return members, readers
}

func TestUnion_ProjectedSubset(t *testing.T) {
	members, readers := nullIntStringUnion()

	// Project only the tag and the int member (non-null index 0). The row
	// has width 2: tag at position 0, int at position 1.
	r, err := avro.Union(members, readers, &avro.UnionProjection{Tag: true, Members: []int{0}}, rowdata.MemorySink{})
	require.NoError(t, err)

	var buf []byte
	buf = appendInt(buf, 2) // string branch, not projected
	buf = appendString(buf, "discarded")
	buf = appendInt(buf, 1) // int branch
	buf = appendInt(buf, 5)

	dec := newDecoder(buf)

	// First record selects the unprojected string member: its bytes must
	// still be consumed, the tag must carry the shifted index 1, and the int
	// position stays null.
	v, err := r.Read(dec, rowdata.Value{})
	require.NoError(t, err)
	row := v.Row().(*rowdata.MemoryRow)
	require.Equal(t, 2, row.NumFields())
	require.Equal(t, int64(1), row.Field(0).Int64())
	require.True(t, row.Field(1).IsNil())

	// Decoding the following record succeeds only if the discarded string
	// was consumed correctly.
	v, err = r.Read(dec, rowdata.Value{})
	require.NoError(t, err)
	row = v.Row().(*rowdata.MemoryRow)
	require.Equal(t, int64(0), row.Field(0).Int64())
	require.Equal(t, int64(5), row.Field(1).Int64())
}

func TestUnion_NullMember(t *testing.T) {
	members, readers := nullIntStringUnion()

	r, err := avro.Union(members, readers, &avro.UnionProjection{Tag: true}, rowdata.MemorySink{})
	require.NoError(t, err)

	var buf []byte
	buf = appendInt(buf, 0) // null branch

	// The null member's result is the entire union result, not a row with a
	// null tag.
	v, err := r.Read(newDecoder(buf), rowdata.Value{})
	require.NoError(t, err)
	require.True(t, v.IsNil())
	require.NotEqual(t, rowdata.TypeRow, v.Type())
}

func TestUnion_DefaultProjection(t *testing.T) {
	// No null member: wire indexes equal non-null indexes, and a nil
	// projection materializes the tag and every member.
	members := []*avro.Schema{{Kind: avro.KindInt}, {Kind: avro.KindString}}
	readers := []avro.ValueReader{avro.Ints(), avro.Strings()}

	r, err := avro.Union(members, readers, nil, rowdata.MemorySink{})
	require.NoError(t, err)

	var buf []byte
	buf = appendInt(buf, 1)
	buf = appendString(buf, "chosen")

	v, err := r.Read(newDecoder(buf), rowdata.Value{})
	require.NoError(t, err)
	row := v.Row().(*rowdata.MemoryRow)
	require.Equal(t, 3, row.NumFields())
	require.Equal(t, int64(1), row.Field(0).Int64())
	require.True(t, row.Field(1).IsNil())
	require.Equal(t, "chosen", row.Field(2).String())
}

func TestUnion_IndexOutOfRange(t *testing.T) {
	members, readers := nullIntStringUnion()

	r, err := avro.Union(members, readers, nil, rowdata.MemorySink{})
	require.NoError(t, err)

	var buf []byte
	buf = appendInt(buf, 5)

	_, err = r.Read(newDecoder(buf), rowdata.Value{})
	require.ErrorIs(t, err, avro.ErrUnionRange)
}

func TestUnion_ConstructionErrors(t *testing.T) {
	t.Run("Second null member", func(t *testing.T) {
		members := []*avro.Schema{
			{Kind: avro.KindNull},
			{Kind: avro.KindInt},
			{Kind: avro.KindNull},
		}
		readers := []avro.ValueReader{avro.Nulls(), avro.Ints(), avro.Nulls()}

		_, err := avro.Union(members, readers, nil, rowdata.MemorySink{})
		require.Error(t, err)
	})

	t.Run("Projected member out of range", func(t *testing.T) {
		members, readers := nullIntStringUnion()
		_, err := avro.Union(members, readers, &avro.UnionProjection{Members: []int{2}}, rowdata.MemorySink{})
		require.Error(t, err)
	})

	t.Run("Member projected twice", func(t *testing.T) {
		members, readers := nullIntStringUnion()
		_, err := avro.Union(members, readers, &avro.UnionProjection{Members: []int{0, 0}}, rowdata.MemorySink{})
		require.Error(t, err)
	})
}

func TestParseUnionProjection(t *testing.T) {
	t.Run("Tag and members", func(t *testing.T) {
		p, err := avro.ParseUnionProjection([]string{"tag", "field0", "field2"})
		require.NoError(t, err)
		require.True(t, p.Tag)
		require.Equal(t, []int{0, 2}, p.Members)
	})

	t.Run("Unrecognized field", func(t *testing.T) {
		_, err := avro.ParseUnionProjection([]string{"tag", "bogus"})
		require.Error(t, err)
	})
}

func TestSelect(t *testing.T) {
	r := avro.Select([]avro.ValueReader{avro.Nulls(), avro.Longs()})

	var buf []byte
	buf = appendInt(buf, 1)
	buf = appendLong(buf, 10)
	buf = appendInt(buf, 0)

	dec := newDecoder(buf)

	v, err := r.Read(dec, rowdata.Value{})
	require.NoError(t, err)
	require.Equal(t, int64(10), v.Int64())

	v, err = r.Read(dec, rowdata.Value{})
	require.NoError(t, err)
	require.True(t, v.IsNil())

	var bad []byte
	bad = appendInt(bad, 7)
	_, err = r.Read(newDecoder(bad), rowdata.Value{})
	require.ErrorIs(t, err, avro.ErrUnionRange)
}
