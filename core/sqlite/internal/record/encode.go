package record

import (
	"encoding/binary"
	"math"

	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/reader"
)

// SerialTypeFor determines the narrowest serial type that holds val
func SerialTypeFor(val Value) SerialType {
	switch val.Type {
	case TypeInteger:
		i := val.Int
		switch {
		case i == 0:
			return SerialTypeZero
		case i == 1:
			return SerialTypeOne
		case i >= -128 && i <= 127:
			return SerialTypeInt8
		case i >= -32768 && i <= 32767:
			return SerialTypeInt16
		case i >= -8388608 && i <= 8388607:
			return SerialTypeInt24
		case i >= -2147483648 && i <= 2147483647:
			return SerialTypeInt32
		case i >= -140737488355328 && i <= 140737488355327:
			return SerialTypeInt48
		}
		return SerialTypeInt64
	case TypeFloat:
		return SerialTypeFloat64
	case TypeText:
		return SerialType(13 + 2*len(val.Text))
	case TypeBlob:
		return SerialType(12 + 2*len(val.Blob))
	}
	return SerialTypeNull
}

// Encode builds a record payload holding values. It is the inverse of Decode
// and is used to assemble in-memory fixtures; nothing writes to a database file.
func Encode(values []Value) []byte {
	types := make([]SerialType, len(values))
	typesSize, bodySize := 0, 0
	for i, v := range values {
		types[i] = SerialTypeFor(v)
		typesSize += reader.VarintLen(uint64(types[i]))
		bodySize += SerialTypeLen(types[i])
	}

	// The header size counts its own varint, so iterate until stable
	headerSize := typesSize + 1
	for {
		n := reader.VarintLen(uint64(headerSize)) + typesSize
		if n == headerSize {
			break
		}
		headerSize = n
	}

	buf := make([]byte, 0, headerSize+bodySize)
	buf = reader.AppendVarint(buf, uint64(headerSize))
	for _, st := range types {
		buf = reader.AppendVarint(buf, uint64(st))
	}
	for i, v := range values {
		buf = appendBody(buf, types[i], v)
	}
	return buf
}

func appendBody(buf []byte, st SerialType, v Value) []byte {
	switch {
	case st == SerialTypeFloat64:
		return binary.BigEndian.AppendUint64(buf, math.Float64bits(v.Float))
	case st >= SerialTypeInt8 && st <= SerialTypeInt64:
		n := SerialTypeLen(st)
		for i := n - 1; i >= 0; i-- {
			buf = append(buf, byte(uint64(v.Int)>>(8*uint(i))))
		}
		return buf
	case st >= SerialTypeText && st%2 == 1:
		return append(buf, v.Text...)
	case st >= SerialTypeBlob:
		return append(buf, v.Blob...)
	}
	return buf
}
