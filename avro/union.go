package avro

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grafana/avrobj/rowdata"
)

// Union projected-field naming convention: the reserved tag field selects
// the discriminant output, and member fields are named with a fixed prefix
// followed by the decimal non-null member index they project.
const (
	UnionTagField    = "tag"
	UnionFieldPrefix = "field"
)

// UnionProjection selects which parts of a union survive into the output
// row: the synthetic tag (the shifted non-null member index) and/or a subset
// of members. When the tag is requested it occupies row position 0 and the
// projected members occupy consecutive positions after it, in Members order.
//
// Member indexes are in the non-null index space: the union's member list
// with the null member, if any, removed.
type UnionProjection struct {
	Tag     bool
	Members []int
}

// ProjectAll returns a projection materializing the tag and every one of
// memberCount non-null members.
func ProjectAll(memberCount int) *UnionProjection {
	p := &UnionProjection{Tag: true, Members: make([]int, memberCount)}
	for i := range p.Members {
		p.Members[i] = i
	}
	return p
}

// ParseUnionProjection converts the legacy field-name convention into an
// explicit projection: "tag" selects the discriminant, and "field<N>"
// selects non-null member N. Field order determines row position order.
func ParseUnionProjection(fieldNames []string) (*UnionProjection, error) {
	var p UnionProjection
	for _, name := range fieldNames {
		if name == UnionTagField {
			p.Tag = true
			continue
		}

		suffix, ok := strings.CutPrefix(name, UnionFieldPrefix)
		if !ok {
			return nil, fmt.Errorf("union projection: unrecognized field %q", name)
		}
		index, err := strconv.Atoi(suffix)
		if err != nil {
			return nil, fmt.Errorf("union projection: field %q: %w", name, err)
		}
		p.Members = append(p.Members, index)
	}
	return &p, nil
}

// Select returns a reader that decodes a union discriminant and dispatches
// to the selected member's reader, returning its result directly. It is the
// reader for plain nullable values (two-member unions of null and one value
// type), where no projected row is involved.
func Select(readers []ValueReader) ValueReader {
	return &selectReader{readers: readers}
}

type selectReader struct {
	readers []ValueReader
}

func (r *selectReader) Read(dec Decoder, reuse rowdata.Value) (rowdata.Value, error) {
	index, err := dec.ReadIndex()
	if err != nil {
		return rowdata.Value{}, err
	}
	if index < 0 || index >= len(r.readers) {
		return rowdata.Value{}, fmt.Errorf("union index %d with %d members: %w", index, len(r.readers), ErrUnionRange)
	}
	return r.readers[index].Read(dec, reuse)
}

// Union returns a reader that decodes a tagged union into a projected row
// whose shape is fixed at construction from proj. readers are indexed by the
// full wire discriminant space, including the null member if present; a nil
// proj materializes the tag and every member.
//
// Every call decodes exactly the member the wire selected, regardless of
// projection, because a forward-only stream cannot skip a member's bytes;
// projection only controls what survives into the output row. Unprojected
// members are decoded and discarded.
//
// The one result that is not a row: when the discriminant selects the null
// member, the null member reader's own result is returned directly.
func Union(members []*Schema, readers []ValueReader, proj *UnionProjection, sink rowdata.Sink) (ValueReader, error) {
	if len(members) != len(readers) {
		return nil, fmt.Errorf("union: %d readers for %d members", len(readers), len(members))
	}

	r := &unionReader{
		readers:   readers,
		nullIndex: -1,
		sink:      sink,
	}
	for i, m := range members {
		if m.Kind != KindNull {
			continue
		}
		if r.nullIndex != -1 {
			return nil, fmt.Errorf("union: second null member at index %d", i)
		}
		r.nullIndex = i
	}

	memberCount := len(members)
	if r.nullIndex != -1 {
		memberCount--
	}
	if proj == nil {
		proj = ProjectAll(memberCount)
	}

	// positions maps each non-null member index to its row position, or -1
	// for members that are decoded but not stored.
	r.positions = make([]int, memberCount)
	for i := range r.positions {
		r.positions[i] = -1
	}

	if proj.Tag {
		r.tagProjected = true
		r.rowWidth++
	}
	for _, m := range proj.Members {
		if m < 0 || m >= memberCount {
			return nil, fmt.Errorf("union: projected member %d outside %d members", m, memberCount)
		}
		if r.positions[m] != -1 {
			return nil, fmt.Errorf("union: member %d projected twice", m)
		}
		r.positions[m] = r.rowWidth
		r.rowWidth++
	}

	return r, nil
}

type unionReader struct {
	readers      []ValueReader
	nullIndex    int
	positions    []int
	tagProjected bool
	rowWidth     int
	sink         rowdata.Sink
}

func (r *unionReader) Read(dec Decoder, reuse rowdata.Value) (rowdata.Value, error) {
	index, err := dec.ReadIndex()
	if err != nil {
		return rowdata.Value{}, err
	}
	if index < 0 || index >= len(r.readers) {
		return rowdata.Value{}, fmt.Errorf("union index %d with %d members: %w", index, len(r.readers), ErrUnionRange)
	}

	if index == r.nullIndex {
		// A null record is the entire union result, not wrapped in a row.
		return r.readers[index].Read(dec, reuse)
	}

	row := r.sink.NewRow(r.rowWidth)
	for i := 0; i < r.rowWidth; i++ {
		row.SetNull(i)
	}

	// The null member occupies a slot in the wire index space but not in the
	// projection's index space.
	fieldIndex := index
	if r.nullIndex >= 0 && index > r.nullIndex {
		fieldIndex = index - 1
	}

	if r.tagProjected {
		row.Set(0, rowdata.Int64Value(int64(fieldIndex)))
	}

	v, err := r.readers[index].Read(dec, rowdata.Value{})
	if err != nil {
		return rowdata.Value{}, fmt.Errorf("union member %d: %w", index, err)
	}

	if pos := r.positions[fieldIndex]; pos != -1 && !v.IsNil() {
		row.Set(pos, v)
	}

	return rowdata.RowValue(row), nil
}
