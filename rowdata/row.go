package rowdata

// A Row is a fixed-width, position-addressed mutable record. Each position
// holds a value or is explicitly null. Rows are produced by a [Sink] and
// mutated in place by readers; after a read call returns, ownership of the
// row transfers to the caller.
type Row interface {
	// NumFields returns the fixed width of the row.
	NumFields() int

	// Set stores v at position pos.
	Set(pos int, v Value)

	// SetNull marks position pos as null.
	SetNull(pos int)
}

// A Sink allocates rows for composite readers. Implementations bridge decoded
// records into an engine's native row representation.
type Sink interface {
	// NewRow returns a fresh row of the given width. All positions of the
	// returned row are null.
	NewRow(width int) Row
}

// MemoryRow is the in-memory [Row] implementation backed by a value slice.
type MemoryRow struct {
	Values []Value
}

var _ Row = (*MemoryRow)(nil)

// NewMemoryRow returns a MemoryRow of the given width with all positions
// null.
func NewMemoryRow(width int) *MemoryRow {
	return &MemoryRow{Values: make([]Value, width)}
}

// NumFields returns the width of r.
func (r *MemoryRow) NumFields() int { return len(r.Values) }

// Set stores v at position pos.
func (r *MemoryRow) Set(pos int, v Value) { r.Values[pos] = v }

// SetNull marks position pos as null.
func (r *MemoryRow) SetNull(pos int) { r.Values[pos] = Value{} }

// Field returns the value at position pos.
func (r *MemoryRow) Field(pos int) Value { return r.Values[pos] }

// MemorySink is a [Sink] producing [MemoryRow]s.
type MemorySink struct{}

var _ Sink = (MemorySink{})

// NewRow returns a fresh [*MemoryRow] of the given width.
func (MemorySink) NewRow(width int) Row { return NewMemoryRow(width) }
