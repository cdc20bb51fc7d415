package types

import (
	"encoding/binary"
	"fmt"
)

/*
Row is one table row: an optional RowID (present once the row has been
persisted) and an ordered sequence of Values, one per column, order fixed by
the owning table's schema. Schema itself is a collaborator's concern — the
codec is schema-aware only in the sense that column order is significant and
no collection headers beyond the value count are written.

Wire form (little-endian):

	Byte    Field
	──────────────────────────────────────────
	0       has_row_id flag (0 or 1)
	1..8    row id u64         — only when flag is 1
	next 4  value count u32
	...     values, each in Value compact form
*/

type Row struct {
	RowID    RowID
	HasRowID bool
	Values   []Value
}

// NewRow builds an in-memory row awaiting a row id.
func NewRow(values ...Value) *Row {
	return &Row{Values: values}
}

// NewRowWithID builds a row that already carries its persistent id.
func NewRowWithID(id RowID, values ...Value) *Row {
	return &Row{RowID: id, HasRowID: true, Values: values}
}

// Value returns the value at column index, or Null when out of range.
func (r *Row) Value(column int) Value {
	if column < 0 || column >= len(r.Values) {
		return Null()
	}
	return r.Values[column]
}

// Key returns the row's B+tree key: the first column's value.
func (r *Row) Key() Value {
	return r.Value(0)
}

// Size returns the exact encoded byte count. Bytes() always produces exactly
// this many bytes.
func (r *Row) Size() int {
	size := 1 // has_row_id flag
	if r.HasRowID {
		size += 8
	}
	size += 4 // value count
	for _, v := range r.Values {
		size += v.Size()
	}
	return size
}

// Bytes encodes the row into its compact binary form.
func (r *Row) Bytes() []byte {
	buf := make([]byte, 0, r.Size())
	if r.HasRowID {
		buf = append(buf, 1)
		buf = binary.LittleEndian.AppendUint64(buf, r.RowID)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(r.Values)))
	for _, v := range r.Values {
		buf = v.AppendTo(buf)
	}
	return buf
}

// RowFromBytes decodes a row previously produced by Bytes. The whole input
// must be consumed; trailing bytes indicate a corrupted cell.
func RowFromBytes(data []byte) (*Row, error) {
	if len(data) == 0 {
		return nil, NewSerializationError("empty row bytes")
	}
	row := &Row{}
	cursor := 1
	switch data[0] {
	case 0:
	case 1:
		if len(data) < 1+8 {
			return nil, NewSerializationError("truncated row id")
		}
		row.RowID = binary.LittleEndian.Uint64(data[1:])
		row.HasRowID = true
		cursor += 8
	default:
		return nil, NewSerializationError("invalid has_row_id flag")
	}
	if len(data) < cursor+4 {
		return nil, NewSerializationError("truncated value count")
	}
	count := int(binary.LittleEndian.Uint32(data[cursor:]))
	cursor += 4
	row.Values = make([]Value, 0, count)
	for i := 0; i < count; i++ {
		v, n, err := DecodeValue(data[cursor:])
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		row.Values = append(row.Values, v)
		cursor += n
	}
	if cursor != len(data) {
		return nil, NewSerializationError("trailing bytes after row")
	}
	return row, nil
}

// Equal reports deep equality of two rows, row id included.
func (r *Row) Equal(other *Row) bool {
	if r.HasRowID != other.HasRowID || (r.HasRowID && r.RowID != other.RowID) {
		return false
	}
	if len(r.Values) != len(other.Values) {
		return false
	}
	for i := range r.Values {
		if r.Values[i].Type() != other.Values[i].Type() || !r.Values[i].Equal(other.Values[i]) {
			return false
		}
	}
	return true
}
