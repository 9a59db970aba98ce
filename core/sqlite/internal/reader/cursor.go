// Package reader decodes the fixed-width big-endian integers and variable-length
// integers that every on-disk structure of the database file is built from.
package reader

import (
	"encoding/binary"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// Cursor is a read position over an immutable byte slice.
// A failed read leaves the position unchanged.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current offset.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the length of the underlying buffer.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Seek moves the cursor to an absolute offset within the buffer.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return errors.NewDecode("seek", pos, errors.ErrTruncated)
	}
	c.pos = pos
	return nil
}

// ReadByte consumes one byte.
func (c *Cursor) ReadByte() (byte, error) {
	if c.Remaining() < 1 {
		return 0, errors.NewDecode("byte", c.pos, errors.ErrTruncated)
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// ReadU16 consumes a big-endian 16-bit integer.
func (c *Cursor) ReadU16() (uint16, error) {
	if c.Remaining() < 2 {
		return 0, errors.NewDecode("u16", c.pos, errors.ErrTruncated)
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU32 consumes a big-endian 32-bit integer.
func (c *Cursor) ReadU32() (uint32, error) {
	if c.Remaining() < 4 {
		return 0, errors.NewDecode("u32", c.pos, errors.ErrTruncated)
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadBytes consumes n bytes and returns them without copying.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, errors.NewDecode("bytes", c.pos, errors.ErrTruncated)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadVarint consumes one variable-length integer of at most 9 bytes.
// The first eight bytes carry 7 bits each with the high bit as continuation
// flag; a ninth byte contributes all 8 bits.
func (c *Cursor) ReadVarint() (uint64, error) {
	v, n := GetVarint(c.buf[c.pos:])
	if n == 0 {
		return 0, errors.NewDecode("varint", c.pos, errors.ErrTruncated)
	}
	c.pos += n
	return v, nil
}
