package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/reader"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/record"
)

// Cell is one of TableLeafCell, TableInteriorCell, IndexLeafCell or
// IndexInteriorCell. Callers switch on the concrete type.
type Cell interface {
	cellType() PageType
}

// TableLeafCell is a row stored on a leaf table page.
type TableLeafCell struct {
	RowID        uint64         // Integer key of the row
	Values       []record.Value // Decoded record columns
	PayloadSize  uint64         // Total payload bytes including overflow
	OverflowPage uint32         // First overflow page number (0 if none)
}

// TableInteriorCell is a divider on an interior table page. Every row id in
// the LeftChild subtree is less than or equal to RowID.
type TableInteriorCell struct {
	LeftChild uint32
	RowID     uint64
}

// IndexLeafCell is an index entry on a leaf index page. The trailing row id
// column of the record is split off into RowID.
type IndexLeafCell struct {
	Values       []record.Value // Key columns without the row id
	RowID        uint64         // Row id of the referenced table row
	PayloadSize  uint64
	OverflowPage uint32
}

// IndexInteriorCell is an index entry on an interior index page.
type IndexInteriorCell struct {
	LeftChild    uint32
	Values       []record.Value
	RowID        uint64
	PayloadSize  uint64
	OverflowPage uint32
}

func (TableLeafCell) cellType() PageType     { return PageTypeLeafTable }
func (TableInteriorCell) cellType() PageType { return PageTypeInteriorTable }
func (IndexLeafCell) cellType() PageType     { return PageTypeLeafIndex }
func (IndexInteriorCell) cellType() PageType { return PageTypeInteriorIndex }

// Key returns the first n key columns of the index entry. For a
// single-column index n is 1.
func (c IndexLeafCell) Key(n int) []record.Value {
	return keyPrefix(c.Values, n)
}

// Key returns the first n key columns of the index entry.
func (c IndexInteriorCell) Key(n int) []record.Value {
	return keyPrefix(c.Values, n)
}

func keyPrefix(values []record.Value, n int) []record.Value {
	if n < 0 {
		n = 0
	}
	if n > len(values) {
		n = len(values)
	}
	return values[:n]
}

// ParseTableLeafCell parses a table leaf cell.
// Format: varint(payload size), varint(rowid), payload[, u32 first overflow page]
func ParseTableLeafCell(data []byte, usable int, src PageSource) (TableLeafCell, error) {
	c := reader.NewCursor(data)
	size, err := c.ReadVarint()
	if err != nil {
		return TableLeafCell{}, errors.Wrap(err, "reading payload size")
	}
	rowid, err := c.ReadVarint()
	if err != nil {
		return TableLeafCell{}, errors.Wrap(err, "reading row id")
	}
	payload, ovfl, err := readPayload(c, PageTypeLeafTable, size, usable, src)
	if err != nil {
		return TableLeafCell{}, err
	}
	values, err := record.Decode(payload)
	if err != nil {
		return TableLeafCell{}, errors.Wrapf(err, "row %d", rowid)
	}
	return TableLeafCell{RowID: rowid, Values: values, PayloadSize: size, OverflowPage: ovfl}, nil
}

// ParseTableInteriorCell parses a table interior cell.
// Format: u32(left child), varint(rowid)
func ParseTableInteriorCell(data []byte) (TableInteriorCell, error) {
	c := reader.NewCursor(data)
	left, err := c.ReadU32()
	if err != nil {
		return TableInteriorCell{}, errors.Wrap(err, "reading left child")
	}
	rowid, err := c.ReadVarint()
	if err != nil {
		return TableInteriorCell{}, errors.Wrap(err, "reading row id")
	}
	return TableInteriorCell{LeftChild: left, RowID: rowid}, nil
}

// ParseIndexLeafCell parses an index leaf cell.
// Format: varint(payload size), payload[, u32 first overflow page]
func ParseIndexLeafCell(data []byte, usable int, src PageSource) (IndexLeafCell, error) {
	c := reader.NewCursor(data)
	size, err := c.ReadVarint()
	if err != nil {
		return IndexLeafCell{}, errors.Wrap(err, "reading payload size")
	}
	values, rowid, ovfl, err := readIndexPayload(c, PageTypeLeafIndex, size, usable, src)
	if err != nil {
		return IndexLeafCell{}, err
	}
	return IndexLeafCell{Values: values, RowID: rowid, PayloadSize: size, OverflowPage: ovfl}, nil
}

// ParseIndexInteriorCell parses an index interior cell.
// Format: u32(left child), varint(payload size), payload[, u32 first overflow page]
func ParseIndexInteriorCell(data []byte, usable int, src PageSource) (IndexInteriorCell, error) {
	c := reader.NewCursor(data)
	left, err := c.ReadU32()
	if err != nil {
		return IndexInteriorCell{}, errors.Wrap(err, "reading left child")
	}
	size, err := c.ReadVarint()
	if err != nil {
		return IndexInteriorCell{}, errors.Wrap(err, "reading payload size")
	}
	values, rowid, ovfl, err := readIndexPayload(c, PageTypeInteriorIndex, size, usable, src)
	if err != nil {
		return IndexInteriorCell{}, err
	}
	return IndexInteriorCell{LeftChild: left, Values: values, RowID: rowid, PayloadSize: size, OverflowPage: ovfl}, nil
}

// readIndexPayload decodes an index record and pops its trailing row id.
func readIndexPayload(c *reader.Cursor, pt PageType, size uint64, usable int, src PageSource) ([]record.Value, uint64, uint32, error) {
	payload, ovfl, err := readPayload(c, pt, size, usable, src)
	if err != nil {
		return nil, 0, 0, err
	}
	values, err := record.Decode(payload)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(values) == 0 {
		return nil, 0, 0, errors.NewDecode("index row id", -1,
			errors.Wrap(errors.ErrMalformedRecord, "record has no columns"))
	}
	rowid, err := values[len(values)-1].RowID()
	if err != nil {
		return nil, 0, 0, errors.NewDecode("index row id", -1, err)
	}
	return values[:len(values)-1], rowid, ovfl, nil
}

// MaxLocal returns the largest payload stored entirely on a page of type pt.
func MaxLocal(pt PageType, usable int) int {
	if pt == PageTypeLeafTable {
		return usable - 35
	}
	return (usable-12)*64/255 - 23
}

// MinLocal returns the smallest local share of a payload that spills.
func MinLocal(usable int) int {
	return (usable-12)*32/255 - 23
}

// LocalPayload returns how many of size payload bytes a cell on a page of
// type pt keeps on the page; the rest lives in the overflow chain.
func LocalPayload(pt PageType, size uint64, usable int) int {
	maxLocal := MaxLocal(pt, usable)
	if size <= uint64(maxLocal) {
		return int(size)
	}
	minLocal := MinLocal(usable)
	k := minLocal + int((size-uint64(minLocal))%uint64(usable-4))
	if k <= maxLocal {
		return k
	}
	return minLocal
}

// readPayload reads the local part of a payload and, when it spills, the
// first overflow page number followed by the rest of the chain.
func readPayload(c *reader.Cursor, pt PageType, size uint64, usable int, src PageSource) ([]byte, uint32, error) {
	local := LocalPayload(pt, size, usable)
	head, err := c.ReadBytes(local)
	if err != nil {
		return nil, 0, errors.Wrap(err, "reading payload")
	}
	if uint64(local) == size {
		return head, 0, nil
	}

	first, err := c.ReadU32()
	if err != nil {
		return nil, 0, errors.Wrap(err, "reading overflow page")
	}
	if pc, ok := src.(pageCounter); ok {
		limit := uint64(local) + uint64(pc.PageCount())*uint64(usable-4)
		if size > limit {
			return nil, 0, errors.NewDecode("payload size", -1,
				errors.Wrapf(errors.ErrCorruptTree, "%d bytes exceed the %d the file can hold", size, limit))
		}
	}
	payload := append([]byte(nil), head...)
	payload, err = readOverflow(src, first, payload, size, usable)
	if err != nil {
		return nil, 0, err
	}
	return payload, first, nil
}

// pageCounter is implemented by page sources that know their page count.
type pageCounter interface {
	PageCount() uint32
}

// readOverflow follows an overflow chain starting at page n, appending to
// payload until it holds size bytes. Each overflow page starts with the next
// page number and carries usable-4 content bytes.
func readOverflow(src PageSource, n uint32, payload []byte, size uint64, usable int) ([]byte, error) {
	if src == nil {
		return nil, errors.NewDecode("overflow page", -1,
			errors.Wrapf(errors.ErrTruncated, "payload of %d bytes spills but no page source was given", size))
	}
	seen := make(map[uint32]bool)
	for uint64(len(payload)) < size {
		if n == 0 {
			return nil, errors.NewDecode("overflow page", -1,
				errors.Wrapf(errors.ErrTruncated, "chain ends with %d of %d payload bytes", len(payload), size))
		}
		if seen[n] {
			return nil, errors.NewDecode(fmt.Sprintf("overflow page %d", n), -1,
				errors.Wrap(errors.ErrCorruptTree, "page repeats in overflow chain"))
		}
		seen[n] = true
		raw, err := src.ReadPage(n)
		if err != nil {
			return nil, errors.Wrapf(err, "reading overflow page %d", n)
		}
		if len(raw) < 4 || len(raw) < usable {
			return nil, errors.NewDecode(fmt.Sprintf("overflow page %d", n), 0, errors.ErrTruncated)
		}
		chunk := uint64(usable - 4)
		if remaining := size - uint64(len(payload)); remaining < chunk {
			chunk = remaining
		}
		payload = append(payload, raw[4:4+chunk]...)
		n = binary.BigEndian.Uint32(raw)
	}
	return payload, nil
}
