package rowdata

import "fmt"

// ValueType identifies the native type held by a [Value].
type ValueType int

const (
	TypeNull ValueType = iota // TypeNull is the type of the zero Value.
	TypeBool
	TypeInt64
	TypeFloat64
	TypeString
	TypeByteArray
	TypeDecimal
	TypeList
	TypeMap
	TypeRow
)

var valueTypeNames = map[ValueType]string{
	TypeNull:      "null",
	TypeBool:      "bool",
	TypeInt64:     "int64",
	TypeFloat64:   "float64",
	TypeString:    "string",
	TypeByteArray: "byte_array",
	TypeDecimal:   "decimal",
	TypeList:      "list",
	TypeMap:       "map",
	TypeRow:       "row",
}

// String returns the name of t.
func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}
