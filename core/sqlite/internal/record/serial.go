package record

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/reader"
)

// Serial type codes:
//   0: NULL
//   1: 8-bit signed integer
//   2: 16-bit big-endian signed integer
//   3: 24-bit big-endian signed integer
//   4: 32-bit big-endian signed integer
//   5: 48-bit big-endian signed integer
//   6: 64-bit big-endian signed integer
//   7: IEEE 754 float64 (big-endian)
//   8: integer constant 0 (no data stored)
//   9: integer constant 1 (no data stored)
//   10,11: Reserved for internal use
//   N>=12 (even): BLOB of (N-12)/2 bytes
//   N>=13 (odd): TEXT of (N-13)/2 bytes

// SerialType represents a serial type code from a record header
type SerialType uint64

const (
	SerialTypeNull    SerialType = 0
	SerialTypeInt8    SerialType = 1
	SerialTypeInt16   SerialType = 2
	SerialTypeInt24   SerialType = 3
	SerialTypeInt32   SerialType = 4
	SerialTypeInt48   SerialType = 5
	SerialTypeInt64   SerialType = 6
	SerialTypeFloat64 SerialType = 7
	SerialTypeZero    SerialType = 8
	SerialTypeOne     SerialType = 9
	SerialTypeBlob    SerialType = 12 // smallest blob code, zero-length
	SerialTypeText    SerialType = 13 // smallest text code, zero-length
)

// IsReserved reports whether the code is one of the reserved internal codes
func (st SerialType) IsReserved() bool {
	return st == 10 || st == 11
}

func (st SerialType) String() string {
	switch {
	case st == SerialTypeNull:
		return "null"
	case st <= SerialTypeInt64:
		return fmt.Sprintf("int%d", 8*SerialTypeLen(st))
	case st == SerialTypeFloat64:
		return "float64"
	case st == SerialTypeZero:
		return "zero"
	case st == SerialTypeOne:
		return "one"
	case st.IsReserved():
		return fmt.Sprintf("reserved(%d)", uint64(st))
	case st%2 == 0:
		return fmt.Sprintf("blob(%d)", SerialTypeLen(st))
	}
	return fmt.Sprintf("text(%d)", SerialTypeLen(st))
}

// SerialTypeLen returns the number of body bytes a value of the given serial type occupies
func SerialTypeLen(st SerialType) int {
	switch st {
	case SerialTypeNull, SerialTypeZero, SerialTypeOne:
		return 0
	case SerialTypeInt8:
		return 1
	case SerialTypeInt16:
		return 2
	case SerialTypeInt24:
		return 3
	case SerialTypeInt32:
		return 4
	case SerialTypeInt48:
		return 6
	case SerialTypeInt64, SerialTypeFloat64:
		return 8
	}
	if st >= SerialTypeBlob {
		return int(st-SerialTypeBlob) / 2
	}
	return 0
}

// DecodeValue reads the body of one value of serial type st from c.
// It consumes exactly SerialTypeLen(st) bytes on success.
func DecodeValue(c *reader.Cursor, st SerialType) (Value, error) {
	if st.IsReserved() {
		return Value{}, errors.Wrapf(errors.ErrUnsupportedSerialType, "serial type %d", uint64(st))
	}

	switch st {
	case SerialTypeNull:
		return Null(), nil
	case SerialTypeZero:
		return Integer(0), nil
	case SerialTypeOne:
		return Integer(1), nil
	}

	body, err := c.ReadBytes(SerialTypeLen(st))
	if err != nil {
		return Value{}, err
	}

	switch {
	case st <= SerialTypeInt64:
		return Integer(signExtend(body)), nil
	case st == SerialTypeFloat64:
		return Float(math.Float64frombits(binary.BigEndian.Uint64(body))), nil
	case st%2 == 0:
		return Blob(body), nil
	}

	if !utf8.Valid(body) {
		return Value{}, errors.NewDecode("text value", c.Pos()-len(body), errors.ErrInvalidUTF8)
	}
	return Text(string(body)), nil
}

// signExtend interprets 1 to 8 big-endian bytes as a two's complement integer.
func signExtend(b []byte) int64 {
	var u uint64
	for _, x := range b {
		u = u<<8 | uint64(x)
	}
	shift := uint(64 - 8*len(b))
	return int64(u<<shift) >> shift
}
