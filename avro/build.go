package avro

import (
	"fmt"

	"github.com/grafana/avrobj/rowdata"
)

type readerOptions struct {
	sink      rowdata.Sink
	constants map[int]rowdata.Value
}

// A ReaderOption customizes reader construction.
type ReaderOption func(*readerOptions)

// WithSink sets the sink composite readers allocate rows from. The default
// is [rowdata.MemorySink].
func WithSink(sink rowdata.Sink) ReaderOption {
	return func(o *readerOptions) { o.sink = sink }
}

// WithConstants supplies plan-time constant values by field id. Record
// fields whose id appears here are populated from the constant instead of
// being read from the wire.
func WithConstants(idToConstant map[int]rowdata.Value) ReaderOption {
	return func(o *readerOptions) { o.constants = idToConstant }
}

// NewReader builds the tree of value readers matching the shape of s. The
// returned reader decodes one record per Read call.
func NewReader(s *Schema, opts ...ReaderOption) (ValueReader, error) {
	options := readerOptions{sink: rowdata.MemorySink{}}
	for _, opt := range opts {
		opt(&options)
	}
	return buildReader(s, &options)
}

func buildReader(s *Schema, options *readerOptions) (ValueReader, error) {
	switch s.Kind {
	case KindNull:
		return Nulls(), nil
	case KindBoolean:
		return Booleans(), nil
	case KindInt:
		return Ints(), nil
	case KindLong:
		return Longs(), nil
	case KindFloat:
		return Floats(), nil
	case KindDouble:
		return Doubles(), nil
	case KindBytes:
		if s.LogicalType == LogicalDecimal {
			return Decimals(Bytes(), s.Scale), nil
		}
		return Bytes(), nil
	case KindString:
		// uuid-on-string is already canonical text.
		return Strings(), nil
	case KindFixed:
		switch s.LogicalType {
		case LogicalUUID:
			if s.Size != 16 {
				return nil, fmt.Errorf("build %q: uuid fixed must have size 16, got %d", s.Name, s.Size)
			}
			return UUIDs(), nil
		case LogicalDecimal:
			return Decimals(Fixed(s.Size), s.Scale), nil
		default:
			return Fixed(s.Size), nil
		}
	case KindEnum:
		return Enums(s.Symbols), nil
	case KindArray:
		if s.LogicalType == LogicalMap {
			return buildArrayMap(s, options)
		}
		element, err := buildReader(s.Items, options)
		if err != nil {
			return nil, err
		}
		return Array(element), nil
	case KindMap:
		value, err := buildReader(s.Values, options)
		if err != nil {
			return nil, err
		}
		return Map(Strings(), value), nil
	case KindRecord:
		return buildStruct(s, options)
	case KindUnion:
		return buildUnion(s, options)
	default:
		return nil, fmt.Errorf("build: unsupported kind %s", s.Kind)
	}
}

// buildArrayMap handles maps carried as arrays of key/value records, used
// when map keys are not strings.
func buildArrayMap(s *Schema, options *readerOptions) (ValueReader, error) {
	entry := s.Items
	if entry == nil || entry.Kind != KindRecord || len(entry.Fields) != 2 {
		return nil, fmt.Errorf("build: array-map entries must be key/value records")
	}
	key, err := buildReader(entry.Fields[0].Schema, options)
	if err != nil {
		return nil, err
	}
	value, err := buildReader(entry.Fields[1].Schema, options)
	if err != nil {
		return nil, err
	}
	return ArrayMap(key, value), nil
}

func buildStruct(s *Schema, options *readerOptions) (ValueReader, error) {
	readers := make([]ValueReader, len(s.Fields))
	for i, f := range s.Fields {
		if _, ok := options.constants[f.ID]; ok {
			// Constant fields are injected, never read from the wire.
			continue
		}
		r, err := buildReader(f.Schema, options)
		if err != nil {
			return nil, fmt.Errorf("build record %q field %q: %w", s.Name, f.Name, err)
		}
		readers[i] = r
	}
	return Struct(readers, s.Fields, options.constants, options.sink)
}

func buildUnion(s *Schema, options *readerOptions) (ValueReader, error) {
	readers := make([]ValueReader, len(s.Members))
	for i, m := range s.Members {
		r, err := buildReader(m, options)
		if err != nil {
			return nil, fmt.Errorf("build union member %d: %w", i, err)
		}
		readers[i] = r
	}

	// Two-member unions of null and one value type are plain nullable
	// values and dispatch directly; all other unions project into rows.
	if s.Projection == nil && isOption(s) {
		return Select(readers), nil
	}
	return Union(s.Members, readers, s.Projection, options.sink)
}

func isOption(s *Schema) bool {
	if len(s.Members) != 2 {
		return false
	}
	return s.Members[0].Kind == KindNull || s.Members[1].Kind == KindNull
}
