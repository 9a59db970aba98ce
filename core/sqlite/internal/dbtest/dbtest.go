// Package dbtest builds synthetic database images for tests: records, cells,
// pages and whole files laid out the way the reader expects to find them.
package dbtest

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/reader"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/record"
)

// Page type bytes
const (
	InteriorIndex byte = 0x02
	InteriorTable byte = 0x05
	LeafIndex     byte = 0x0a
	LeafTable     byte = 0x0d
)

// Record encodes values as a record payload.
func Record(values ...record.Value) []byte {
	return record.Encode(values)
}

// TableLeafCell encodes a table leaf cell whose payload fits on the page.
func TableLeafCell(rowid uint64, payload []byte) []byte {
	buf := reader.AppendVarint(nil, uint64(len(payload)))
	buf = reader.AppendVarint(buf, rowid)
	return append(buf, payload...)
}

// SpilledTableLeafCell encodes a table leaf cell that keeps local bytes of
// payload on the page and continues in the overflow chain starting at first.
func SpilledTableLeafCell(rowid uint64, payload []byte, local int, first uint32) []byte {
	buf := reader.AppendVarint(nil, uint64(len(payload)))
	buf = reader.AppendVarint(buf, rowid)
	buf = append(buf, payload[:local]...)
	return binary.BigEndian.AppendUint32(buf, first)
}

// TableInteriorCell encodes a table interior cell.
func TableInteriorCell(left uint32, rowid uint64) []byte {
	buf := binary.BigEndian.AppendUint32(nil, left)
	return reader.AppendVarint(buf, rowid)
}

// IndexLeafCell encodes an index leaf cell whose payload fits on the page.
func IndexLeafCell(payload []byte) []byte {
	buf := reader.AppendVarint(nil, uint64(len(payload)))
	return append(buf, payload...)
}

// SpilledIndexLeafCell encodes an index leaf cell with an overflow chain.
func SpilledIndexLeafCell(payload []byte, local int, first uint32) []byte {
	buf := reader.AppendVarint(nil, uint64(len(payload)))
	buf = append(buf, payload[:local]...)
	return binary.BigEndian.AppendUint32(buf, first)
}

// IndexInteriorCell encodes an index interior cell.
func IndexInteriorCell(left uint32, payload []byte) []byte {
	buf := binary.BigEndian.AppendUint32(nil, left)
	buf = reader.AppendVarint(buf, uint64(len(payload)))
	return append(buf, payload...)
}

// SchemaRow encodes one schema table record. A zero root is stored as 0, the
// way views and triggers are stored.
func SchemaRow(kind, name, table string, root uint32, sql string) []byte {
	return Record(
		record.Text(kind),
		record.Text(name),
		record.Text(table),
		record.Integer(int64(root)),
		record.Text(sql),
	)
}

// PageSpec describes the contents of one b-tree page.
type PageSpec struct {
	Type       byte
	Cells      [][]byte
	RightChild uint32 // interior pages only
}

// Page lays out a page image. Cells are packed from the end of the usable
// area toward the pointer array, in reverse so cell 0 sits highest. Page 1
// leaves its first 100 bytes for the file header. It panics if the cells do
// not fit.
func Page(num uint32, size, usable int, spec PageSpec) []byte {
	data := make([]byte, size)
	start := 0
	if num == 1 {
		start = format.HeaderSize
	}
	headerSize := 8
	if spec.Type == InteriorIndex || spec.Type == InteriorTable {
		headerSize = 12
	}

	data[start] = spec.Type
	binary.BigEndian.PutUint16(data[start+3:], uint16(len(spec.Cells)))
	if headerSize == 12 {
		binary.BigEndian.PutUint32(data[start+8:], spec.RightChild)
	}

	ptrs := start + headerSize
	content := usable
	for i, cell := range spec.Cells {
		content -= len(cell)
		if content < ptrs+2*len(spec.Cells) {
			panic(fmt.Sprintf("dbtest: %d cells do not fit on page %d", len(spec.Cells), num))
		}
		copy(data[content:], cell)
		binary.BigEndian.PutUint16(data[ptrs+2*i:], uint16(content))
	}
	binary.BigEndian.PutUint16(data[start+5:], uint16(content))
	return data
}

// FileHeader returns a 100-byte UTF-8 file header.
func FileHeader(pageSize, reserved int, pages uint32) []byte {
	h := make([]byte, format.HeaderSize)
	copy(h, format.MagicString)
	stored := pageSize
	if pageSize == format.MaxPageSize {
		stored = 1
	}
	binary.BigEndian.PutUint16(h[format.OffsetPageSize:], uint16(stored))
	h[format.OffsetWriteVersion] = 1
	h[format.OffsetReadVersion] = 1
	h[format.OffsetReservedSpace] = byte(reserved)
	h[21], h[22], h[23] = 64, 32, 32 // payload fractions
	binary.BigEndian.PutUint32(h[format.OffsetDatabaseSize:], pages)
	binary.BigEndian.PutUint32(h[format.OffsetSchemaFormat:], 4)
	binary.BigEndian.PutUint32(h[format.OffsetTextEncoding:], format.EncodingUTF8)
	binary.BigEndian.PutUint32(h[format.OffsetSQLiteVersion:], 3045001)
	return h
}

// File is an in-memory database image assembled page by page. It implements
// the page source interface the b-tree walker reads from.
type File struct {
	PageSize int
	Reserved int
	pages    [][]byte
}

// NewFile returns an image with an empty schema leaf as page 1.
func NewFile(pageSize int) *File {
	f := &File{PageSize: pageSize}
	f.pages = append(f.pages, nil)
	f.Set(1, PageSpec{Type: LeafTable})
	return f
}

// UsableSize returns the page size minus reserved bytes.
func (f *File) UsableSize() int {
	return f.PageSize - f.Reserved
}

// PageCount returns the number of pages in the image.
func (f *File) PageCount() uint32 {
	return uint32(len(f.pages))
}

// Alloc appends a zero page and returns its number.
func (f *File) Alloc() uint32 {
	f.pages = append(f.pages, make([]byte, f.PageSize))
	return uint32(len(f.pages))
}

// Add appends a page built from spec and returns its number.
func (f *File) Add(spec PageSpec) uint32 {
	n := f.Alloc()
	f.Set(n, spec)
	return n
}

// Set replaces page n with a page built from spec.
func (f *File) Set(n uint32, spec PageSpec) {
	f.SetRaw(n, Page(n, f.PageSize, f.UsableSize(), spec))
}

// SetRaw replaces page n with raw, which must be one page long.
func (f *File) SetRaw(n uint32, raw []byte) {
	for uint32(len(f.pages)) < n {
		f.Alloc()
	}
	f.pages[n-1] = raw
}

// Schema replaces page 1 with a schema leaf holding rows, with row ids from 1.
func (f *File) Schema(rows ...[]byte) {
	cells := make([][]byte, len(rows))
	for i, row := range rows {
		cells[i] = TableLeafCell(uint64(i+1), row)
	}
	f.Set(1, PageSpec{Type: LeafTable, Cells: cells})
}

// Overflow stores data in a chain of new overflow pages and returns the
// first page number.
func (f *File) Overflow(data []byte) uint32 {
	chunk := f.UsableSize() - 4
	var first, prev uint32
	for len(data) > 0 {
		n := f.Alloc()
		if prev == 0 {
			first = n
		} else {
			binary.BigEndian.PutUint32(f.pages[prev-1], n)
		}
		size := min(chunk, len(data))
		copy(f.pages[n-1][4:], data[:size])
		data = data[size:]
		prev = n
	}
	return first
}

// ReadPage returns page n, with the file header in place for page 1.
func (f *File) ReadPage(n uint32) ([]byte, error) {
	if n == 0 || n > uint32(len(f.pages)) {
		return nil, fmt.Errorf("page %d out of range 1..%d", n, len(f.pages))
	}
	page := f.pages[n-1]
	if n == 1 {
		page = append([]byte(nil), page...)
		copy(page, FileHeader(f.PageSize, f.Reserved, f.PageCount()))
	}
	return page, nil
}

// Bytes returns the complete file image.
func (f *File) Bytes() []byte {
	out := make([]byte, 0, len(f.pages)*f.PageSize)
	for i := range f.pages {
		page, _ := f.ReadPage(uint32(i + 1))
		out = append(out, page...)
	}
	return out
}

// Write stores the image in a temporary directory and returns its path.
func (f *File) Write(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	if err := os.WriteFile(path, f.Bytes(), 0o600); err != nil {
		t.Fatalf("writing database image: %v", err)
	}
	return path
}
