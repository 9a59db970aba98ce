// Package record decodes the record format: a varint header of serial type
// codes followed by the column bodies those codes describe.
package record

import (
	"fmt"
	"strconv"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// ValueType is the discriminant of a Value
type ValueType int

const (
	TypeNull ValueType = iota
	TypeInteger
	TypeFloat
	TypeText
	TypeBlob
)

// String returns the storage class name
func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "real"
	case TypeText:
		return "text"
	case TypeBlob:
		return "blob"
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// Value is one decoded column. Only the field matching Type is meaningful.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Text  string
	Blob  []byte
}

// Null returns the NULL value
func Null() Value { return Value{Type: TypeNull} }

// Integer returns an integer value
func Integer(i int64) Value { return Value{Type: TypeInteger, Int: i} }

// Float returns a floating point value
func Float(f float64) Value { return Value{Type: TypeFloat, Float: f} }

// Text returns a text value
func Text(s string) Value { return Value{Type: TypeText, Text: s} }

// Blob returns a blob value holding its own copy of b
func Blob(b []byte) Value {
	owned := make([]byte, len(b))
	copy(owned, b)
	return Value{Type: TypeBlob, Blob: owned}
}

// IsNull reports whether v is NULL
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// RowID returns an integer value's 64 bits as a row id. Negative row ids
// come back with the same bits a table cell's row id varint carries.
func (v Value) RowID() (uint64, error) {
	if v.Type != TypeInteger {
		return 0, errors.Wrapf(errors.ErrMalformedRecord, "row id is %s, not integer", v.Type)
	}
	return uint64(v.Int), nil
}

// String renders the value the way query output and WHERE matching see it:
// integers in decimal, floats in shortest round-trip form without an
// exponent, text and blob bytes verbatim, NULL as the empty string.
func (v Value) String() string {
	switch v.Type {
	case TypeInteger:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case TypeText:
		return v.Text
	case TypeBlob:
		return string(v.Blob)
	}
	return ""
}

// Equal reports whether two values have the same type and content
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeInteger:
		return v.Int == o.Int
	case TypeFloat:
		return v.Float == o.Float
	case TypeText:
		return v.Text == o.Text
	case TypeBlob:
		return string(v.Blob) == string(o.Blob)
	}
	return true
}
