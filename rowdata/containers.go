package rowdata

// A List is an ordered sequence of values. Lists are never null; an empty
// List is a valid, empty sequence.
type List struct {
	Values []Value
}

// Len returns the number of elements in l.
func (l *List) Len() int { return len(l.Values) }

// A Map is a mapping of keys to values, ordered by insertion. Keys and Values
// are parallel slices of equal length. Maps are never null; an empty Map is a
// valid, empty mapping.
type Map struct {
	Keys   []Value
	Values []Value
}

// Len returns the number of entries in m.
func (m *Map) Len() int { return len(m.Keys) }
