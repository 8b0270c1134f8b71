package sqlite

// #include <sqlite3.h>
// #include <stdlib.h>
import "C"

import (
	"fmt"
	"unsafe"
)

// ColumnType are codes for each of the SQLite fundamental data types:
// https://www.sqlite.org/c3ref/c_blob.html
//
// kept from the teacher's value.go almost verbatim; SQLITE_NULL doubles as
// the tag for Value's zero value.
type ColumnType int

//noinspection GoSnakeCaseUsage
const (
	SQLITE_INTEGER = ColumnType(C.SQLITE_INTEGER)
	SQLITE_FLOAT   = ColumnType(C.SQLITE_FLOAT)
	SQLITE_TEXT    = ColumnType(C.SQLITE3_TEXT)
	SQLITE_BLOB    = ColumnType(C.SQLITE_BLOB)
	SQLITE_NULL    = ColumnType(C.SQLITE_NULL)
)

func (t ColumnType) String() string {
	switch t {
	case SQLITE_INTEGER:
		return "INTEGER"
	case SQLITE_FLOAT:
		return "FLOAT"
	case SQLITE_TEXT:
		return "TEXT"
	case SQLITE_BLOB:
		return "BLOB"
	case SQLITE_NULL:
		return "NULL"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Value is an owned SQL scalar: the tagged union {Null, Integer, Real, Text,
// Blob} from spec.md §3. Unlike ValueRef, a Value owns its text/blob payload
// and has no lifetime tied to a statement step.
type Value struct {
	typ ColumnType
	i   int64
	f   float64
	s   string
	b   []byte
}

// NullValue returns the Value representing SQL NULL.
func NullValue() Value { return Value{typ: SQLITE_NULL} }

// IntegerValue returns an owned 64-bit signed integer Value.
func IntegerValue(i int64) Value { return Value{typ: SQLITE_INTEGER, i: i} }

// RealValue returns an owned floating point Value.
func RealValue(f float64) Value { return Value{typ: SQLITE_FLOAT, f: f} }

// TextValue returns an owned UTF-8 text Value.
func TextValue(s string) Value { return Value{typ: SQLITE_TEXT, s: s} }

// BlobValue returns an owned byte-slice Value. The slice is retained, not copied.
func BlobValue(b []byte) Value { return Value{typ: SQLITE_BLOB, b: b} }

// Type reports the value's fundamental SQL type.
func (v Value) Type() ColumnType { return v.typ }

// IsNull reports whether v is SQL NULL.
func (v Value) IsNull() bool { return v.typ == SQLITE_NULL }

// Integer returns the integer payload; only meaningful when Type()==SQLITE_INTEGER.
func (v Value) Integer() int64 { return v.i }

// Real returns the float payload; only meaningful when Type()==SQLITE_FLOAT.
func (v Value) Real() float64 { return v.f }

// Text returns the text payload; only meaningful when Type()==SQLITE_TEXT.
func (v Value) Text() string { return v.s }

// Blob returns the blob payload; only meaningful when Type()==SQLITE_BLOB.
func (v Value) Blob() []byte { return v.b }

// Equal implements the round-trip identity property from spec.md §8: two
// Values compare equal iff their tag and payload match exactly.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case SQLITE_INTEGER:
		return v.i == other.i
	case SQLITE_FLOAT:
		return v.f == other.f
	case SQLITE_TEXT:
		return v.s == other.s
	case SQLITE_BLOB:
		if len(v.b) != len(other.b) {
			return false
		}
		for i := range v.b {
			if v.b[i] != other.b[i] {
				return false
			}
		}
		return true
	default: // SQLITE_NULL
		return true
	}
}

func (v Value) String() string {
	switch v.typ {
	case SQLITE_INTEGER:
		return fmt.Sprintf("%d", v.i)
	case SQLITE_FLOAT:
		return fmt.Sprintf("%v", v.f)
	case SQLITE_TEXT:
		return v.s
	case SQLITE_BLOB:
		return fmt.Sprintf("x'%x'", v.b)
	default:
		return "NULL"
	}
}

// ValueRef is a borrowed SQL scalar (spec.md §3): the same tag set as Value,
// but backed directly by a *C.sqlite3_value owned by the engine. Accessors
// read through the pointer on every call, so the ValueRef itself must not
// be used past the next Step or the value's context; Text and Blob return
// copies that are safe to retain.
//
// adapted from the teacher's value.go/func.go Value type.
type ValueRef struct{ ptr *C.sqlite3_value }

func (v ValueRef) IsNil() bool      { return v.ptr == nil }
func (v ValueRef) Int() int         { return int(C.sqlite3_value_int(v.ptr)) }
func (v ValueRef) Int64() int64     { return int64(C.sqlite3_value_int64(v.ptr)) }
func (v ValueRef) Float() float64   { return float64(C.sqlite3_value_double(v.ptr)) }
func (v ValueRef) Len() int         { return int(C.sqlite3_value_bytes(v.ptr)) }
func (v ValueRef) Type() ColumnType { return ColumnType(C.sqlite3_value_type(v.ptr)) }
func (v ValueRef) Changed() bool    { return int(C.sqlite3_value_nochange(v.ptr)) != 0 }
func (v ValueRef) SubType() uint    { return uint(C.sqlite3_value_subtype(v.ptr)) }

// Text returns a copy of the value's text payload (copied out of the
// C-owned buffer, so it is safe to retain past the next step).
func (v ValueRef) Text() string {
	ptr := unsafe.Pointer(C.sqlite3_value_text(v.ptr))
	n := v.Len()
	return C.GoStringN((*C.char)(ptr), C.int(n))
}

// Blob returns a copy of the value's blob payload.
func (v ValueRef) Blob() []byte {
	ptr := unsafe.Pointer(C.sqlite3_value_blob(v.ptr))
	n := v.Len()
	return C.GoBytes(ptr, C.int(n))
}

// Value copies the borrowed value into an owned Value.
func (v ValueRef) Value() Value {
	switch v.Type() {
	case SQLITE_INTEGER:
		return IntegerValue(v.Int64())
	case SQLITE_FLOAT:
		return RealValue(v.Float())
	case SQLITE_TEXT:
		return TextValue(v.Text())
	case SQLITE_BLOB:
		return BlobValue(v.Blob())
	default:
		return NullValue()
	}
}
