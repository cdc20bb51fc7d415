package types

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

/*
Value is the primitive value domain of the engine: a closed tagged union over
{Null, Integer, Real, Text, Blob, Boolean, Timestamp}. Values are immutable
once constructed; every consumption site switches exhaustively on Type().

Compact wire form (all integers little-endian):

	Byte    Field
	─────────────────────────────────────────────
	0       discriminant (0..6, see ValueType)
	1..     payload:
	          Null       — none
	          Integer    — int64 (8)
	          Real       — float64 bits (8)
	          Text       — u32 length + UTF-8 bytes
	          Blob       — u32 length + raw bytes
	          Boolean    — 1 byte, 0 or 1
	          Timestamp  — int64 unix seconds (8)

No padding, no duplicated type tags. Size() reproduces the exact byte count
AppendTo will write — "calculated size" and "actual size" are always equal.
*/

// ValueType discriminates the Value variants. The numeric values are part of
// the on-disk row format.
type ValueType uint8

const (
	TypeNull ValueType = iota
	TypeInteger
	TypeReal
	TypeText
	TypeBlob
	TypeBoolean
	TypeTimestamp
)

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "NULL"
	case TypeInteger:
		return "INTEGER"
	case TypeReal:
		return "REAL"
	case TypeText:
		return "TEXT"
	case TypeBlob:
		return "BLOB"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeTimestamp:
		return "TIMESTAMP"
	}
	return fmt.Sprintf("ValueType(%d)", uint8(t))
}

// Value is one primitive value. The zero Value is Null.
type Value struct {
	typ ValueType
	i   int64 // Integer, Timestamp; Boolean stored as 0/1
	f   float64
	s   string
	b   []byte
}

func Null() Value                  { return Value{typ: TypeNull} }
func Integer(v int64) Value        { return Value{typ: TypeInteger, i: v} }
func Real(v float64) Value         { return Value{typ: TypeReal, f: v} }
func Text(v string) Value          { return Value{typ: TypeText, s: v} }
func Blob(v []byte) Value          { return Value{typ: TypeBlob, b: v} }
func Timestamp(unixSec int64) Value { return Value{typ: TypeTimestamp, i: unixSec} }

func Boolean(v bool) Value {
	var i int64
	if v {
		i = 1
	}
	return Value{typ: TypeBoolean, i: i}
}

// Now returns the current time as a Timestamp value.
func Now() Value { return Timestamp(time.Now().Unix()) }

func (v Value) Type() ValueType { return v.typ }
func (v Value) IsNull() bool    { return v.typ == TypeNull }

// Int returns the int64 payload of Integer and Timestamp values.
func (v Value) Int() int64 { return v.i }

// Float returns the float64 payload of a Real value.
func (v Value) Float() float64 { return v.f }

// Str returns the string payload of a Text value.
func (v Value) Str() string { return v.s }

// Bytes returns the raw payload of a Blob value. Callers must not mutate it.
func (v Value) Bytes() []byte { return v.b }

// Bool returns the payload of a Boolean value.
func (v Value) Bool() bool { return v.i != 0 }

// Time returns a Timestamp value as time.Time in UTC.
func (v Value) Time() time.Time { return time.Unix(v.i, 0).UTC() }

// Size returns the exact encoded byte count, discriminant included.
func (v Value) Size() int {
	switch v.typ {
	case TypeNull:
		return 1
	case TypeInteger, TypeReal, TypeTimestamp:
		return 1 + 8
	case TypeText:
		return 1 + 4 + len(v.s)
	case TypeBlob:
		return 1 + 4 + len(v.b)
	case TypeBoolean:
		return 1 + 1
	}
	return 1
}

// AppendTo appends the compact encoding of v to buf and returns the
// extended slice.
func (v Value) AppendTo(buf []byte) []byte {
	buf = append(buf, byte(v.typ))
	switch v.typ {
	case TypeNull:
	case TypeInteger, TypeTimestamp:
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v.i))
	case TypeReal:
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.f))
	case TypeText:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.s)))
		buf = append(buf, v.s...)
	case TypeBlob:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.b)))
		buf = append(buf, v.b...)
	case TypeBoolean:
		if v.i != 0 {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

// DecodeValue reads one value from the front of data and returns it together
// with the number of bytes consumed.
func DecodeValue(data []byte) (Value, int, error) {
	if len(data) == 0 {
		return Value{}, 0, NewSerializationError("empty value bytes")
	}
	typ := ValueType(data[0])
	rest := data[1:]
	switch typ {
	case TypeNull:
		return Null(), 1, nil
	case TypeInteger, TypeTimestamp:
		if len(rest) < 8 {
			return Value{}, 0, NewSerializationError("truncated integer payload")
		}
		i := int64(binary.LittleEndian.Uint64(rest))
		if typ == TypeTimestamp {
			return Timestamp(i), 9, nil
		}
		return Integer(i), 9, nil
	case TypeReal:
		if len(rest) < 8 {
			return Value{}, 0, NewSerializationError("truncated real payload")
		}
		return Real(math.Float64frombits(binary.LittleEndian.Uint64(rest))), 9, nil
	case TypeText:
		if len(rest) < 4 {
			return Value{}, 0, NewSerializationError("truncated text length")
		}
		n := int(binary.LittleEndian.Uint32(rest))
		if len(rest) < 4+n {
			return Value{}, 0, NewSerializationError("truncated text payload")
		}
		raw := rest[4 : 4+n]
		if !utf8.Valid(raw) {
			return Value{}, 0, NewSerializationError("invalid UTF-8 in text value")
		}
		return Text(string(raw)), 1 + 4 + n, nil
	case TypeBlob:
		if len(rest) < 4 {
			return Value{}, 0, NewSerializationError("truncated blob length")
		}
		n := int(binary.LittleEndian.Uint32(rest))
		if len(rest) < 4+n {
			return Value{}, 0, NewSerializationError("truncated blob payload")
		}
		blob := make([]byte, n)
		copy(blob, rest[4:4+n])
		return Blob(blob), 1 + 4 + n, nil
	case TypeBoolean:
		if len(rest) < 1 {
			return Value{}, 0, NewSerializationError("truncated boolean payload")
		}
		return Boolean(rest[0] != 0), 2, nil
	}
	return Value{}, 0, NewSerializationError(fmt.Sprintf("unknown discriminant %d", data[0]))
}

// Compare orders two values. ok is false when the pair has no defined order
// (for example Text against Blob). Null sorts before everything; Integer and
// Real compare numerically across types.
func (v Value) Compare(other Value) (cmp int, ok bool) {
	if v.typ == TypeNull || other.typ == TypeNull {
		switch {
		case v.typ == TypeNull && other.typ == TypeNull:
			return 0, true
		case v.typ == TypeNull:
			return -1, true
		default:
			return 1, true
		}
	}
	if v.typ == other.typ {
		switch v.typ {
		case TypeInteger, TypeTimestamp:
			return cmpInt64(v.i, other.i), true
		case TypeReal:
			return cmpFloat64(v.f, other.f), true
		case TypeText:
			switch {
			case v.s < other.s:
				return -1, true
			case v.s > other.s:
				return 1, true
			}
			return 0, true
		case TypeBlob:
			return bytesCompare(v.b, other.b), true
		case TypeBoolean:
			return cmpInt64(v.i, other.i), true
		}
	}
	// Cross-type numeric comparison.
	if a, aok := v.asNumber(); aok {
		if b, bok := other.asNumber(); bok {
			return cmpFloat64(a, b), true
		}
	}
	return 0, false
}

// Equal reports value equality under the same cross-type numeric rules as
// Compare.
func (v Value) Equal(other Value) bool {
	cmp, ok := v.Compare(other)
	return ok && cmp == 0
}

func (v Value) asNumber() (float64, bool) {
	switch v.typ {
	case TypeInteger, TypeTimestamp:
		return float64(v.i), true
	case TypeReal:
		return v.f, true
	case TypeBoolean:
		return float64(v.i), true
	case TypeNull, TypeText, TypeBlob:
		return 0, false
	}
	return 0, false
}

func (v Value) String() string {
	switch v.typ {
	case TypeNull:
		return "NULL"
	case TypeInteger:
		return fmt.Sprintf("%d", v.i)
	case TypeReal:
		return fmt.Sprintf("%g", v.f)
	case TypeText:
		return v.s
	case TypeBlob:
		return fmt.Sprintf("BLOB(%d bytes)", len(v.b))
	case TypeBoolean:
		if v.i != 0 {
			return "TRUE"
		}
		return "FALSE"
	case TypeTimestamp:
		return v.Time().Format("2006-01-02 15:04:05 UTC")
	}
	return "?"
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func bytesCompare(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
