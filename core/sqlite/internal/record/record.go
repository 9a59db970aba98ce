package record

import (
	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/reader"
)

// Decode decodes a complete record payload into its column values, in the
// order their serial types appear in the header. No partial record is
// returned on failure.
func Decode(payload []byte) ([]Value, error) {
	types, bodyStart, err := DecodeHeader(payload)
	if err != nil {
		return nil, err
	}

	c := reader.NewCursor(payload)
	if err := c.Seek(bodyStart); err != nil {
		return nil, errors.Wrap(err, "reading record body")
	}

	values := make([]Value, 0, len(types))
	for i, st := range types {
		v, err := DecodeValue(c, st)
		if err != nil {
			return nil, errors.Wrapf(err, "reading value %d (serial type %d)", i, uint64(st))
		}
		values = append(values, v)
	}
	return values, nil
}

// DecodeHeader reads the record header and returns the serial types it
// declares and the offset where the value bodies begin.
func DecodeHeader(payload []byte) ([]SerialType, int, error) {
	c := reader.NewCursor(payload)
	headerSize, err := c.ReadVarint()
	if err != nil {
		return nil, 0, errors.Wrap(err, "reading record header size")
	}
	if headerSize < uint64(c.Pos()) || headerSize > uint64(len(payload)) {
		return nil, 0, errors.NewDecode("record header size", 0,
			errors.Wrapf(errors.ErrMalformedRecord, "header size %d outside payload of %d bytes", headerSize, len(payload)))
	}

	end := int(headerSize)
	var types []SerialType
	for c.Pos() < end {
		st, err := c.ReadVarint()
		if err != nil {
			return nil, 0, errors.Wrap(err, "reading serial type")
		}
		types = append(types, SerialType(st))
	}
	if c.Pos() != end {
		return nil, 0, errors.NewDecode("serial type", c.Pos(),
			errors.Wrapf(errors.ErrMalformedRecord, "header overruns declared size %d", end))
	}
	return types, end, nil
}
