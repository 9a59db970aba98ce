// Package validation checks user-supplied database paths and identifies
// database images by their leading bytes.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
)

// Limits on user input.
const (
	// MaxImageSize is the largest decompressed database image read into
	// memory (1 GB).
	MaxImageSize = 1 << 30
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrImageTooLarge    = errors.New("decompressed image too large")
)

// ValidatePath checks a path for length limits and characters no file
// name should contain.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	// Check length
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	// Check for null bytes
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	// Check for control characters
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// FileType is a kind of input file identified by its magic bytes.
type FileType string

const (
	// FileTypeSQLite is an uncompressed database file.
	FileTypeSQLite FileType = "sqlite"
	// FileTypeXZ is an xz stream, expected to hold a database image.
	FileTypeXZ FileType = "xz"
	// FileTypeUnknown is anything else.
	FileTypeUnknown FileType = "unknown"
)

// MagicXZ is the first six bytes of an xz stream.
var MagicXZ = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}

// MagicSQLite is the first sixteen bytes of a database file.
var MagicSQLite = []byte("SQLite format 3\x00")

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeSQLite, MagicSQLite},
	{FileTypeXZ, MagicXZ},
}

// DetectFileType reads the leading bytes of r and reports what they are.
func DetectFileType(r io.Reader) (FileType, error) {
	buf := make([]byte, len(MagicSQLite))
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	return DetectFileTypeBytes(buf[:n]), nil
}

// DetectFileTypeBytes reports what the leading bytes buf are.
func DetectFileTypeBytes(buf []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType
		}
	}
	return FileTypeUnknown
}

// ExpectedFileType guesses a file's type from its name.
func ExpectedFileType(filename string) FileType {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xz") {
		return FileTypeXZ
	}
	switch filepath.Ext(lower) {
	case ".sqlite", ".sqlite3", ".db", ".db3":
		return FileTypeSQLite
	}
	return FileTypeUnknown
}

// LimitedReadAll reads r to the end, failing once more than limit bytes
// arrive.
func LimitedReadAll(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, limit)
	}
	return data, nil
}
