package pager

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlitescan/internal/logging"
	"github.com/FocuswithJustin/sqlitescan/internal/validation"
)

// Pager serves the pages of one database image.
type Pager struct {
	path       string
	r          io.ReaderAt
	closer     io.Closer
	size       int64
	header     *format.Header
	pageSize   int
	usable     int
	pageCount  uint32
	compressed bool
	logger     *slog.Logger
}

// Open opens a database file for reading, decompressing it first if it is
// an xz stream.
func Open(path string) (*Pager, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.NewIO("stat", path, err)
	}

	magic := make([]byte, len(validation.MagicXZ))
	n, err := f.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, errors.NewIO("read", path, err)
	}
	if validation.DetectFileTypeBytes(magic[:n]) == validation.FileTypeXZ {
		defer f.Close()
		data, err := decompress(f)
		if err != nil {
			return nil, errors.NewIO("decompress", path, err)
		}
		p, err := newPager(path, bytes.NewReader(data), int64(len(data)), nil)
		if err != nil {
			return nil, err
		}
		p.compressed = true
		return p, nil
	}

	p, err := newPager(path, f, info.Size(), f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return p, nil
}

// New serves pages from an in-memory or caller-owned image of size bytes.
// Close does not close r.
func New(r io.ReaderAt, size int64) (*Pager, error) {
	return newPager("", r, size, nil)
}

func decompress(r io.Reader) ([]byte, error) {
	zr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz reader: %w", err)
	}
	return validation.LimitedReadAll(zr, validation.MaxImageSize)
}

func newPager(path string, r io.ReaderAt, size int64, closer io.Closer) (*Pager, error) {
	buf := make([]byte, format.HeaderSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.NewDecode("file header", 0,
				errors.Wrapf(errors.ErrTruncated, "file is %d bytes", size))
		}
		return nil, errors.NewIO("read header of", path, err)
	}
	h, err := format.ParseHeader(buf)
	if err != nil {
		return nil, err
	}

	p := &Pager{
		path:     path,
		r:        r,
		closer:   closer,
		size:     size,
		header:   h,
		pageSize: h.PageSize(),
		usable:   h.UsableSize(),
		logger:   logging.GetLogger(),
	}
	p.pageCount = uint32((size + int64(p.pageSize) - 1) / int64(p.pageSize))
	return p, nil
}

// ReadPage reads page n (1-based) into a new buffer of PageSize bytes.
func (p *Pager) ReadPage(n uint32) ([]byte, error) {
	if n == 0 || n > p.pageCount {
		return nil, errors.NewNotFound("page", fmt.Sprintf("%d (file has %d pages)", n, p.pageCount))
	}
	buf := make([]byte, p.pageSize)
	offset := int64(n-1) * int64(p.pageSize)
	read, err := p.r.ReadAt(buf, offset)
	if err != nil && !(err == io.EOF && read > 0) {
		return nil, errors.NewIO(fmt.Sprintf("read page %d of", n), p.path, err)
	}
	if read < p.pageSize {
		return nil, errors.NewDecode(fmt.Sprintf("page %d", n), int(offset),
			errors.Wrapf(errors.ErrTruncated, "read %d of %d bytes", read, p.pageSize))
	}
	return buf, nil
}

// PageSize returns the page size in bytes.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// UsableSize returns the bytes of each page available to b-tree content.
func (p *Pager) UsableSize() int {
	return p.usable
}

// PageCount returns the number of pages in the image.
func (p *Pager) PageCount() uint32 {
	return p.pageCount
}

// Header returns the parsed file header.
func (p *Pager) Header() *format.Header {
	return p.header
}

// Compressed reports whether the image was decompressed from xz.
func (p *Pager) Compressed() bool {
	return p.compressed
}

// Path returns the file the pager was opened from, empty for New.
func (p *Pager) Path() string {
	return p.path
}

// Logger returns the logger b-tree walks over this pager report to.
func (p *Pager) Logger() *slog.Logger {
	return p.logger
}

// SetLogger replaces the logger returned by Logger.
func (p *Pager) SetLogger(l *slog.Logger) {
	if l != nil {
		p.logger = l
	}
}

// Close releases the underlying file.
func (p *Pager) Close() error {
	if p.closer == nil {
		return nil
	}
	err := p.closer.Close()
	p.closer = nil
	if err != nil {
		return errors.NewIO("close", p.path, err)
	}
	return nil
}
