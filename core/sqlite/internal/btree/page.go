package btree

import (
	"fmt"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/reader"
)

// PageType is the first byte of a b-tree page header.
type PageType byte

// Page type constants (first byte of page header)
const (
	PageTypeInteriorIndex PageType = 0x02 // Interior index b-tree page
	PageTypeInteriorTable PageType = 0x05 // Interior table b-tree page
	PageTypeLeafIndex     PageType = 0x0a // Leaf index b-tree page
	PageTypeLeafTable     PageType = 0x0d // Leaf table b-tree page
)

// Header sizes
const (
	PageHeaderSizeLeaf     = 8  // Leaf pages: 8 bytes
	PageHeaderSizeInterior = 12 // Interior pages: 12 bytes (includes right child pointer)
)

func (t PageType) String() string {
	switch t {
	case PageTypeInteriorIndex:
		return "interior index"
	case PageTypeInteriorTable:
		return "interior table"
	case PageTypeLeafIndex:
		return "leaf index"
	case PageTypeLeafTable:
		return "leaf table"
	}
	return fmt.Sprintf("unknown(0x%02x)", byte(t))
}

// Valid reports whether t is one of the four b-tree page kinds.
func (t PageType) Valid() bool {
	switch t {
	case PageTypeInteriorIndex, PageTypeInteriorTable, PageTypeLeafIndex, PageTypeLeafTable:
		return true
	}
	return false
}

// IsLeaf reports whether pages of this type hold no child pointers.
func (t PageType) IsLeaf() bool {
	return t == PageTypeLeafIndex || t == PageTypeLeafTable
}

// IsTable reports whether pages of this type belong to a table (integer key) b-tree.
func (t PageType) IsTable() bool {
	return t == PageTypeInteriorTable || t == PageTypeLeafTable
}

// HeaderSize returns the length of the page header for this type.
func (t PageType) HeaderSize() int {
	if t.IsLeaf() {
		return PageHeaderSizeLeaf
	}
	return PageHeaderSizeInterior
}

// Page is one parsed b-tree page. It owns a copy of the raw page bytes;
// cells decoded from it copy whatever they keep.
type Page struct {
	Number           uint32   // 1-based page number
	Type             PageType // Page type byte
	FirstFreeblock   uint16   // Offset to first freeblock (0 if none)
	NumCells         uint16   // Number of cells on this page
	CellContentStart uint16   // Start of cell content area
	FragmentedBytes  byte     // Number of fragmented free bytes
	RightChild       uint32   // Right-most child page number (interior pages only)
	CellPointers     []uint16 // Cell offsets relative to the start of the page

	data   []byte
	usable int
}

// ParsePage parses the header and cell pointer array of page num.
// usable is the page size minus the reserved bytes at the end of each page;
// cell bodies never extend past it.
func ParsePage(num uint32, raw []byte, usable int) (*Page, error) {
	if usable <= 0 || usable > len(raw) {
		usable = len(raw)
	}
	data := make([]byte, len(raw))
	copy(data, raw)

	start := 0
	if num == 1 {
		start = format.HeaderSize
	}

	c := reader.NewCursor(data[:usable])
	if err := c.Seek(start); err != nil {
		return nil, errors.Wrapf(err, "page %d header", num)
	}

	typ, err := c.ReadByte()
	if err != nil {
		return nil, errors.Wrapf(err, "page %d: reading page type", num)
	}
	p := &Page{Number: num, Type: PageType(typ), data: data, usable: usable}
	if !p.Type.Valid() {
		return nil, errors.NewDecode(fmt.Sprintf("page %d type", num), start,
			errors.Wrapf(errors.ErrUnsupportedPageType, "type byte 0x%02x", typ))
	}

	if p.FirstFreeblock, err = c.ReadU16(); err != nil {
		return nil, errors.Wrapf(err, "page %d: reading first freeblock", num)
	}
	if p.NumCells, err = c.ReadU16(); err != nil {
		return nil, errors.Wrapf(err, "page %d: reading cell count", num)
	}
	if p.CellContentStart, err = c.ReadU16(); err != nil {
		return nil, errors.Wrapf(err, "page %d: reading cell content start", num)
	}
	if p.FragmentedBytes, err = c.ReadByte(); err != nil {
		return nil, errors.Wrapf(err, "page %d: reading fragmented bytes", num)
	}
	if !p.Type.IsLeaf() {
		if p.RightChild, err = c.ReadU32(); err != nil {
			return nil, errors.Wrapf(err, "page %d: reading right child", num)
		}
	}

	headerEnd := start + p.Type.HeaderSize()
	if headerEnd+2*int(p.NumCells) > usable {
		return nil, errors.NewDecode(fmt.Sprintf("page %d cell pointer array", num), headerEnd,
			errors.Wrapf(errors.ErrTruncated, "%d cells do not fit in %d bytes", p.NumCells, usable))
	}
	p.CellPointers = make([]uint16, p.NumCells)
	for i := range p.CellPointers {
		ptr, err := c.ReadU16()
		if err != nil {
			return nil, errors.Wrapf(err, "page %d: reading cell pointer %d", num, i)
		}
		if int(ptr) < headerEnd+2*int(p.NumCells) || int(ptr) >= usable {
			return nil, errors.NewDecode(fmt.Sprintf("page %d cell pointer %d", num, i), c.Pos()-2,
				errors.Wrapf(errors.ErrCorruptTree, "offset %d outside cell content area", ptr))
		}
		p.CellPointers[i] = ptr
	}
	return p, nil
}

// Data returns the raw page bytes.
func (p *Page) Data() []byte {
	return p.data
}

// UsableSize returns the number of bytes at the start of the page that b-tree
// content may occupy.
func (p *Page) UsableSize() int {
	return p.usable
}

// CellBytes returns the bytes from cell i's pointer to the end of the usable
// area. Pointers are not ordered by position, so each cell parser computes its
// own extent from the bytes it reads.
func (p *Page) CellBytes(i int) ([]byte, error) {
	if i < 0 || i >= len(p.CellPointers) {
		return nil, errors.NewNotFound("cell", fmt.Sprintf("%d on page %d", i, p.Number))
	}
	return p.data[p.CellPointers[i]:p.usable], nil
}

// Cell decodes cell i according to the page type. src supplies overflow
// pages and may be nil when no payload spills.
func (p *Page) Cell(i int, src PageSource) (Cell, error) {
	data, err := p.CellBytes(i)
	if err != nil {
		return nil, err
	}

	var cell Cell
	switch p.Type {
	case PageTypeLeafTable:
		cell, err = ParseTableLeafCell(data, p.usable, src)
	case PageTypeInteriorTable:
		cell, err = ParseTableInteriorCell(data)
	case PageTypeLeafIndex:
		cell, err = ParseIndexLeafCell(data, p.usable, src)
	case PageTypeInteriorIndex:
		cell, err = ParseIndexInteriorCell(data, p.usable, src)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "page %d cell %d", p.Number, i)
	}
	return cell, nil
}

// Cells decodes every cell on the page in pointer order.
func (p *Page) Cells(src PageSource) ([]Cell, error) {
	cells := make([]Cell, 0, len(p.CellPointers))
	for i := range p.CellPointers {
		cell, err := p.Cell(i, src)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

// Children returns the child page numbers of an interior page: each cell's
// left child in pointer order, then the right-most child. Leaf pages have none.
func (p *Page) Children() ([]uint32, error) {
	if p.Type.IsLeaf() {
		return nil, nil
	}
	children := make([]uint32, 0, len(p.CellPointers)+1)
	for i := range p.CellPointers {
		data, err := p.CellBytes(i)
		if err != nil {
			return nil, err
		}
		c := reader.NewCursor(data)
		left, err := c.ReadU32()
		if err != nil {
			return nil, errors.Wrapf(err, "page %d cell %d: reading left child", p.Number, i)
		}
		children = append(children, left)
	}
	return append(children, p.RightChild), nil
}
