// Package rowdata provides the in-memory value and row model that decoded
// records are materialized into: a fixed-width, position-addressed [Row] of
// [Value]s, where each position holds a value or is explicitly null.
package rowdata

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/shopspring/decimal"
)

// Helper types
type (
	stringptr *byte
	bytearray *byte
)

// A Value represents a single materialized value. Unlike [any], scalar Values
// can be constructed without allocations. The zero Value is null.
type Value struct {
	// The internal representation of Value is based on log/slog.Value, which
	// is also designed to avoid allocations.
	//
	// * Go will avoid allocating integer values that can be stored in a
	//   single byte, which applies to ValueType.
	//
	// * If any refers to a pointer, wrapping the pointer in an any does not
	//   cause an allocation. This is why strings are held as a stringptr
	//   rather than a string.

	_ [0]func() // Disallow equality checking of two Values

	// num holds the value for numeric types, or the length for string types.
	num uint64

	// If any is of type [ValueType], the value is in num as described above.
	//
	// If any is of type stringptr or bytearray, the value is a string or byte
	// array whose length is in num and whose data pointer is in any.
	//
	// Composite values (*List, *Map, Row, *decimal.Decimal) are held in any
	// directly.
	any any
}

// BoolValue returns a [Value] for a bool.
func BoolValue(v bool) Value {
	var num uint64
	if v {
		num = 1
	}
	return Value{num: num, any: TypeBool}
}

// Int64Value returns a [Value] for an int64.
func Int64Value(v int64) Value {
	return Value{num: uint64(v), any: TypeInt64}
}

// Float64Value returns a [Value] for a float64.
func Float64Value(v float64) Value {
	return Value{num: math.Float64bits(v), any: TypeFloat64}
}

// StringValue returns a [Value] for a string.
func StringValue(v string) Value {
	return Value{num: uint64(len(v)), any: (stringptr)(unsafe.StringData(v))}
}

// ByteArrayValue returns a [Value] for a byte slice.
func ByteArrayValue(v []byte) Value {
	return Value{num: uint64(len(v)), any: (bytearray)(unsafe.SliceData(v))}
}

// DecimalValue returns a [Value] for an arbitrary-precision decimal.
func DecimalValue(v decimal.Decimal) Value {
	return Value{any: &v}
}

// ListValue returns a [Value] holding l. The list is referenced, not copied.
func ListValue(l *List) Value {
	return Value{any: l}
}

// MapValue returns a [Value] holding m. The map is referenced, not copied.
func MapValue(m *Map) Value {
	return Value{any: m}
}

// RowValue returns a [Value] holding a nested row.
func RowValue(r Row) Value {
	return Value{any: r}
}

// IsNil returns whether v is null.
func (v Value) IsNil() bool {
	return v.any == nil
}

// Type returns the [ValueType] of v. If v is null, Type returns [TypeNull].
func (v Value) Type() ValueType {
	if v.IsNil() {
		return TypeNull
	}

	switch v := v.any.(type) {
	case ValueType:
		return v
	case stringptr:
		return TypeString
	case bytearray:
		return TypeByteArray
	case *decimal.Decimal:
		return TypeDecimal
	case *List:
		return TypeList
	case *Map:
		return TypeMap
	case Row:
		return TypeRow
	default:
		panic(fmt.Sprintf("rowdata.Value has unexpected type %T", v))
	}
}

// Bool returns v's value as a bool. It panics if v is not a [TypeBool].
func (v Value) Bool() bool {
	v.check(TypeBool)
	return v.num != 0
}

// Int64 returns v's value as an int64. It panics if v is not a [TypeInt64].
func (v Value) Int64() int64 {
	v.check(TypeInt64)
	return int64(v.num)
}

// Float64 returns v's value as a float64. It panics if v is not a
// [TypeFloat64].
func (v Value) Float64() float64 {
	v.check(TypeFloat64)
	return math.Float64frombits(v.num)
}

// String returns v's value as a string. Because of Go's String method
// convention, if v is not a string, String returns a string of the form
// "ValueType(T)", where T is the underlying type of v.
func (v Value) String() string {
	if sp, ok := v.any.(stringptr); ok {
		return unsafe.String(sp, v.num)
	}
	return v.Type().String()
}

// ByteArray returns v's value as a byte slice. It panics if v is not a
// [TypeByteArray].
func (v Value) ByteArray() []byte {
	ba, ok := v.any.(bytearray)
	if !ok {
		panic(fmt.Sprintf("rowdata.Value type is %s, not %s", v.Type(), TypeByteArray))
	}
	return unsafe.Slice(ba, v.num)
}

// Decimal returns v's value as a decimal. It panics if v is not a
// [TypeDecimal].
func (v Value) Decimal() decimal.Decimal {
	d, ok := v.any.(*decimal.Decimal)
	if !ok {
		panic(fmt.Sprintf("rowdata.Value type is %s, not %s", v.Type(), TypeDecimal))
	}
	return *d
}

// List returns v's value as a [*List]. It panics if v is not a [TypeList].
func (v Value) List() *List {
	l, ok := v.any.(*List)
	if !ok {
		panic(fmt.Sprintf("rowdata.Value type is %s, not %s", v.Type(), TypeList))
	}
	return l
}

// Map returns v's value as a [*Map]. It panics if v is not a [TypeMap].
func (v Value) Map() *Map {
	m, ok := v.any.(*Map)
	if !ok {
		panic(fmt.Sprintf("rowdata.Value type is %s, not %s", v.Type(), TypeMap))
	}
	return m
}

// Row returns v's value as a [Row]. It panics if v is not a [TypeRow].
func (v Value) Row() Row {
	r, ok := v.any.(Row)
	if !ok {
		panic(fmt.Sprintf("rowdata.Value type is %s, not %s", v.Type(), TypeRow))
	}
	return r
}

func (v Value) check(expect ValueType) {
	if actual := v.Type(); actual != expect {
		panic(fmt.Sprintf("rowdata.Value type is %s, not %s", actual, expect))
	}
}
