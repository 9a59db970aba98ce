package format

import (
	"encoding/binary"
	"fmt"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// File format constants
const (
	// HeaderSize is the database header size in bytes (first 100 bytes of the database file).
	HeaderSize = 100

	// MagicString is the magic header string, exactly 16 bytes including the null terminator.
	MagicString = "SQLite format 3\000"

	// MinPageSize is the minimum allowed page size (512 bytes).
	MinPageSize = 512

	// MaxPageSize is the maximum allowed page size (65536 bytes).
	MaxPageSize = 65536
)

// Header offsets - byte positions in the 100-byte database header
const (
	OffsetMagic             = 0  // 16 bytes
	OffsetPageSize          = 16 // 2 bytes big-endian, 1 means 65536
	OffsetWriteVersion      = 18 // 1 byte
	OffsetReadVersion       = 19 // 1 byte
	OffsetReservedSpace     = 20 // 1 byte
	OffsetFileChangeCounter = 24 // 4 bytes big-endian
	OffsetDatabaseSize      = 28 // 4 bytes big-endian, in pages
	OffsetFreelistCount     = 36 // 4 bytes big-endian
	OffsetSchemaCookie      = 40 // 4 bytes big-endian
	OffsetSchemaFormat      = 44 // 4 bytes big-endian
	OffsetTextEncoding      = 56 // 4 bytes big-endian
	OffsetUserVersion       = 60 // 4 bytes big-endian
	OffsetSQLiteVersion     = 96 // 4 bytes big-endian
)

// Text encodings - values for the OffsetTextEncoding field
const (
	EncodingUTF8    = 1
	EncodingUTF16LE = 2
	EncodingUTF16BE = 3
)

// Header holds the decoded fields of the database file header.
type Header struct {
	RawPageSize       uint16 // Page size as stored; 1 represents 65536
	WriteVersion      uint8
	ReadVersion       uint8
	ReservedSpace     uint8 // Unused bytes at the end of every page
	FileChangeCounter uint32
	DatabaseSize      uint32 // Size of the database in pages, 0 if never recorded
	FreelistCount     uint32
	SchemaCookie      uint32
	SchemaFormat      uint32
	TextEncoding      uint32 // 0 in a freshly created file, treated as UTF-8
	UserVersion       uint32
	SQLiteVersion     uint32 // Version number of the library that last wrote the file
}

// ParseHeader decodes and validates the first HeaderSize bytes of data.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, errors.NewDecode("file header", 0,
			errors.Wrapf(errors.ErrTruncated, "got %d bytes, want %d", len(data), HeaderSize))
	}
	if string(data[OffsetMagic:OffsetMagic+16]) != MagicString {
		return nil, errors.NewParse("file header", "", fmt.Sprintf("invalid magic header %q", data[OffsetMagic:OffsetMagic+16]))
	}

	h := &Header{
		RawPageSize:       binary.BigEndian.Uint16(data[OffsetPageSize:]),
		WriteVersion:      data[OffsetWriteVersion],
		ReadVersion:       data[OffsetReadVersion],
		ReservedSpace:     data[OffsetReservedSpace],
		FileChangeCounter: binary.BigEndian.Uint32(data[OffsetFileChangeCounter:]),
		DatabaseSize:      binary.BigEndian.Uint32(data[OffsetDatabaseSize:]),
		FreelistCount:     binary.BigEndian.Uint32(data[OffsetFreelistCount:]),
		SchemaCookie:      binary.BigEndian.Uint32(data[OffsetSchemaCookie:]),
		SchemaFormat:      binary.BigEndian.Uint32(data[OffsetSchemaFormat:]),
		TextEncoding:      binary.BigEndian.Uint32(data[OffsetTextEncoding:]),
		UserVersion:       binary.BigEndian.Uint32(data[OffsetUserVersion:]),
		SQLiteVersion:     binary.BigEndian.Uint32(data[OffsetSQLiteVersion:]),
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks the fields the reader depends on.
func (h *Header) Validate() error {
	if !IsValidPageSize(h.PageSize()) {
		return errors.NewParse("file header", "", fmt.Sprintf("invalid page size %d", h.PageSize()))
	}
	if h.UsableSize() < 480 {
		return errors.NewParse("file header", "", fmt.Sprintf("reserved space %d leaves %d usable bytes", h.ReservedSpace, h.UsableSize()))
	}
	switch h.TextEncoding {
	case 0, EncodingUTF8:
	case EncodingUTF16LE, EncodingUTF16BE:
		return errors.NewUnsupported("text encoding", EncodingName(h.TextEncoding))
	default:
		return errors.NewParse("file header", "", fmt.Sprintf("invalid text encoding %d", h.TextEncoding))
	}
	return nil
}

// PageSize returns the actual page size, handling the special case where
// a stored value of 1 means 65536.
func (h *Header) PageSize() int {
	if h.RawPageSize == 1 {
		return MaxPageSize
	}
	return int(h.RawPageSize)
}

// UsableSize returns the number of bytes of each page available to b-tree content.
func (h *Header) UsableSize() int {
	return h.PageSize() - int(h.ReservedSpace)
}

// IsValidPageSize checks if a page size is valid.
// Valid page sizes are powers of 2 between 512 and 65536 inclusive.
func IsValidPageSize(size int) bool {
	if size < MinPageSize || size > MaxPageSize {
		return false
	}
	return size&(size-1) == 0
}

// EncodingName returns a printable name for a text encoding value.
func EncodingName(enc uint32) string {
	switch enc {
	case 0, EncodingUTF8:
		return "utf-8"
	case EncodingUTF16LE:
		return "utf-16le"
	case EncodingUTF16BE:
		return "utf-16be"
	}
	return fmt.Sprintf("unknown(%d)", enc)
}
