package avro_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/avrobj/avro"
)

func TestParseSchema(t *testing.T) {
	doc := `{
		"type": "record",
		"name": "event",
		"fields": [
			{"name": "id", "type": "long", "field-id": 1},
			{"name": "kind", "type": {"type": "enum", "name": "kind", "symbols": ["CREATE", "DELETE"]}},
			{"name": "amount", "type": {"type": "bytes", "logicalType": "decimal", "precision": 9, "scale": 2}},
			{"name": "trace", "type": {"type": "fixed", "name": "trace", "size": 16, "logicalType": "uuid"}},
			{"name": "labels", "type": {"type": "map", "values": "string"}},
			{"name": "samples", "type": {"type": "array", "items": "double"}},
			{"name": "note", "type": ["null", "string"]}
		]
	}`

	s, err := avro.ParseSchema([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, avro.KindRecord, s.Kind)
	require.Equal(t, "event", s.Name)
	require.Len(t, s.Fields, 7)

	require.Equal(t, avro.KindLong, s.Fields[0].Schema.Kind)
	require.Equal(t, 1, s.Fields[0].ID)
	require.Equal(t, -1, s.Fields[1].ID)

	require.Equal(t, []string{"CREATE", "DELETE"}, s.Fields[1].Schema.Symbols)

	amount := s.Fields[2].Schema
	require.Equal(t, avro.KindBytes, amount.Kind)
	require.Equal(t, avro.LogicalDecimal, amount.LogicalType)
	require.Equal(t, 2, amount.Scale)

	trace := s.Fields[3].Schema
	require.Equal(t, avro.KindFixed, trace.Kind)
	require.Equal(t, avro.LogicalUUID, trace.LogicalType)
	require.Equal(t, 16, trace.Size)

	require.Equal(t, avro.KindMap, s.Fields[4].Schema.Kind)
	require.Equal(t, avro.KindString, s.Fields[4].Schema.Values.Kind)

	require.Equal(t, avro.KindArray, s.Fields[5].Schema.Kind)
	require.Equal(t, avro.KindDouble, s.Fields[5].Schema.Items.Kind)

	note := s.Fields[6].Schema
	require.Equal(t, avro.KindUnion, note.Kind)
	require.Len(t, note.Members, 2)
	require.Equal(t, avro.KindNull, note.Members[0].Kind)
}

func TestParseSchema_ArrayMap(t *testing.T) {
	doc := `{
		"type": "array",
		"logicalType": "map",
		"items": {
			"type": "record",
			"name": "entry",
			"fields": [
				{"name": "key", "type": "long"},
				{"name": "value", "type": "string"}
			]
		}
	}`

	s, err := avro.ParseSchema([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, avro.KindArray, s.Kind)
	require.Equal(t, avro.LogicalMap, s.LogicalType)
}

func TestParseSchema_Errors(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
	}{
		{"Unsupported primitive", `"varchar"`},
		{"Missing type", `{"name": "x"}`},
		{"Invalid fixed size", `{"type": "fixed", "name": "f", "size": 0}`},
		{"Decimal on string", `{"type": "string", "logicalType": "decimal"}`},
		{"Malformed JSON", `{`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := avro.ParseSchema([]byte(tc.doc))
			require.Error(t, err)
		})
	}
}
