package avro

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Kind identifies the shape of a resolved schema node.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindString
	KindFixed
	KindEnum
	KindRecord
	KindArray
	KindMap
	KindUnion
)

var kindNames = map[Kind]string{
	KindNull:    "null",
	KindBoolean: "boolean",
	KindInt:     "int",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindBytes:   "bytes",
	KindString:  "string",
	KindFixed:   "fixed",
	KindEnum:    "enum",
	KindRecord:  "record",
	KindArray:   "array",
	KindMap:     "map",
	KindUnion:   "union",
}

// String returns the Avro type name of k.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Logical type names recognized on top of physical kinds.
const (
	LogicalDecimal = "decimal"
	LogicalUUID    = "uuid"
	LogicalMap     = "map"
)

// A Schema is a resolved type descriptor. Schemas form a tree mirroring the
// wire shape of each record; the reader factory walks this tree to build a
// matching [ValueReader] tree.
type Schema struct {
	Kind Kind

	// Name is set for named kinds (record, enum, fixed).
	Name string

	// Fields is set for KindRecord. Field order defines both the wire order
	// and the row position order.
	Fields []Field

	// Symbols is set for KindEnum and defines the discriminant index space.
	Symbols []string

	// Size is set for KindFixed.
	Size int

	// Items and Values are set for KindArray and KindMap respectively.
	Items  *Schema
	Values *Schema

	// Members is set for KindUnion. Member order is fixed and defines the
	// wire discriminant index space.
	Members []*Schema

	// Projection optionally restricts which union members are materialized.
	// A nil Projection materializes the tag and every member.
	Projection *UnionProjection

	// LogicalType refines the physical kind ("decimal" on bytes or fixed,
	// "uuid" on string or fixed).
	LogicalType string

	// Precision and Scale are set when LogicalType is "decimal".
	Precision int
	Scale     int
}

// A Field describes one named, ordered field of a record schema.
type Field struct {
	Name string

	// ID is the engine-assigned field id used to look up plan-time constant
	// values, or -1 when the schema carries none.
	ID int

	Schema *Schema
}

// ParseSchema parses an Avro JSON schema document into a resolved [Schema]
// tree. Named-type references and schema resolution against a separate
// reader schema are not supported; the document must be self-contained.
func ParseSchema(data []byte) (*Schema, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return parseSchemaValue(raw)
}

func parseSchemaValue(raw any) (*Schema, error) {
	switch v := raw.(type) {
	case string:
		return parsePrimitive(v)
	case []any:
		members := make([]*Schema, 0, len(v))
		for _, m := range v {
			ms, err := parseSchemaValue(m)
			if err != nil {
				return nil, err
			}
			members = append(members, ms)
		}
		return &Schema{Kind: KindUnion, Members: members}, nil
	case map[string]any:
		return parseComplex(v)
	default:
		return nil, fmt.Errorf("parse schema: unexpected %T", raw)
	}
}

func parsePrimitive(name string) (*Schema, error) {
	switch name {
	case "null":
		return &Schema{Kind: KindNull}, nil
	case "boolean":
		return &Schema{Kind: KindBoolean}, nil
	case "int":
		return &Schema{Kind: KindInt}, nil
	case "long":
		return &Schema{Kind: KindLong}, nil
	case "float":
		return &Schema{Kind: KindFloat}, nil
	case "double":
		return &Schema{Kind: KindDouble}, nil
	case "bytes":
		return &Schema{Kind: KindBytes}, nil
	case "string":
		return &Schema{Kind: KindString}, nil
	default:
		return nil, fmt.Errorf("parse schema: unsupported type %q", name)
	}
}

func parseComplex(obj map[string]any) (*Schema, error) {
	typ, ok := obj["type"].(string)
	if !ok {
		return nil, fmt.Errorf("parse schema: object missing type")
	}

	var s *Schema
	switch typ {
	case "record":
		s = &Schema{Kind: KindRecord, Name: stringAttr(obj, "name")}
		rawFields, _ := obj["fields"].([]any)
		for _, rf := range rawFields {
			fobj, ok := rf.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("parse schema: record %q has malformed field", s.Name)
			}
			fs, err := parseSchemaValue(fobj["type"])
			if err != nil {
				return nil, err
			}
			s.Fields = append(s.Fields, Field{
				Name:   stringAttr(fobj, "name"),
				ID:     intAttr(fobj, "field-id", -1),
				Schema: fs,
			})
		}
	case "enum":
		s = &Schema{Kind: KindEnum, Name: stringAttr(obj, "name")}
		rawSymbols, _ := obj["symbols"].([]any)
		for _, rs := range rawSymbols {
			sym, ok := rs.(string)
			if !ok {
				return nil, fmt.Errorf("parse schema: enum %q has non-string symbol", s.Name)
			}
			s.Symbols = append(s.Symbols, sym)
		}
	case "fixed":
		s = &Schema{Kind: KindFixed, Name: stringAttr(obj, "name"), Size: intAttr(obj, "size", 0)}
		if s.Size <= 0 {
			return nil, fmt.Errorf("parse schema: fixed %q has invalid size", s.Name)
		}
	case "array":
		items, err := parseSchemaValue(obj["items"])
		if err != nil {
			return nil, err
		}
		s = &Schema{Kind: KindArray, Items: items}
	case "map":
		values, err := parseSchemaValue(obj["values"])
		if err != nil {
			return nil, err
		}
		s = &Schema{Kind: KindMap, Values: values}
	default:
		prim, err := parsePrimitive(typ)
		if err != nil {
			return nil, err
		}
		s = prim
	}

	if lt := stringAttr(obj, "logicalType"); lt != "" {
		switch lt {
		case LogicalDecimal:
			if s.Kind != KindBytes && s.Kind != KindFixed {
				return nil, fmt.Errorf("parse schema: decimal requires bytes or fixed, got %s", s.Kind)
			}
			s.LogicalType = LogicalDecimal
			s.Precision = intAttr(obj, "precision", 0)
			s.Scale = intAttr(obj, "scale", 0)
		case LogicalUUID:
			if s.Kind != KindString && s.Kind != KindFixed {
				return nil, fmt.Errorf("parse schema: uuid requires string or fixed, got %s", s.Kind)
			}
			s.LogicalType = LogicalUUID
		case LogicalMap:
			// Non-string-keyed maps are carried as arrays of key/value
			// records.
			if s.Kind != KindArray {
				return nil, fmt.Errorf("parse schema: map logical type requires array, got %s", s.Kind)
			}
			s.LogicalType = LogicalMap
		default:
			// Unrecognized logical types fall back to their physical kind.
		}
	}

	return s, nil
}

func stringAttr(obj map[string]any, key string) string {
	v, _ := obj[key].(string)
	return v
}

func intAttr(obj map[string]any, key string, fallback int) int {
	v, ok := obj[key].(float64)
	if !ok {
		return fallback
	}
	return int(v)
}
