// Package sqlite reads database files without an SQL engine: it decodes the
// file header, walks the table b-trees page by page and answers simple
// single-table SELECT queries.
//
// Open a file and scan a table:
//
//	db, err := sqlite.Open("apples.db")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	rows, err := db.GetTableRows("apples", &sqlite.Predicate{Column: "color", Value: "Yellow"})
//
// Or run a query:
//
//	res, err := db.Query("SELECT name, color FROM apples WHERE color = 'Yellow'")
//
// A DB never writes to its file. Every page access is a positioned read, so
// a DB may be shared by concurrent readers; concurrent writers to the file
// are not detected.
package sqlite

import (
	"bytes"
	"context"
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/record"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/schema"
	"github.com/FocuswithJustin/sqlitescan/internal/logging"
)

// Types re-exported from the decoder packages
type (
	// Value is one decoded column value.
	Value = record.Value
	// ValueType discriminates Value.
	ValueType = record.ValueType
	// Entry is one schema catalog object.
	Entry = schema.Entry
	// Page is one parsed b-tree page.
	Page = btree.Page
	// Cell is one decoded cell of a page.
	Cell = btree.Cell
	// PageType is the kind of a b-tree page.
	PageType = btree.PageType
	// Header is the decoded file header.
	Header = format.Header
)

// Value types
const (
	TypeNull    = record.TypeNull
	TypeInteger = record.TypeInteger
	TypeFloat   = record.TypeFloat
	TypeText    = record.TypeText
	TypeBlob    = record.TypeBlob
)

// Schema object kinds
const (
	KindTable   = schema.KindTable
	KindIndex   = schema.KindIndex
	KindView    = schema.KindView
	KindTrigger = schema.KindTrigger
)

// Page types
const (
	PageTypeInteriorIndex = btree.PageTypeInteriorIndex
	PageTypeInteriorTable = btree.PageTypeInteriorTable
	PageTypeLeafIndex     = btree.PageTypeLeafIndex
	PageTypeLeafTable     = btree.PageTypeLeafTable
)

// Options configures a DB.
type Options struct {
	// Logger receives debug records for every page read and traversal
	// step. Nil uses the package-wide logger.
	Logger *slog.Logger
}

// DB is an open, read-only database file.
type DB struct {
	id      string
	pager   *pager.Pager
	catalog *schema.Catalog
	logger  *slog.Logger
}

// Open opens the database file at path with default options.
func Open(path string) (*DB, error) {
	return OpenWith(path, Options{})
}

// OpenWith opens the database file at path. Files compressed with xz are
// decompressed into memory first.
func OpenWith(path string, opts Options) (*DB, error) {
	p, err := pager.Open(path)
	if err != nil {
		return nil, err
	}
	db, err := newDB(p, opts)
	if err != nil {
		p.Close()
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return db, nil
}

// OpenBytes reads a database image held in memory.
func OpenBytes(data []byte, opts Options) (*DB, error) {
	p, err := pager.New(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return newDB(p, opts)
}

func newDB(p *pager.Pager, opts Options) (*DB, error) {
	id := uuid.New().String()
	logger := opts.Logger
	if logger == nil {
		logger = logging.LoggerFromContext(logging.WithSessionID(context.Background(), id))
	} else {
		logger = logger.With("session_id", id)
	}
	p.SetLogger(logger)

	catalog, err := schema.Load(p)
	if err != nil {
		return nil, err
	}
	logging.SchemaLoaded(logger, len(catalog.Tables()), len(catalog.Indexes()),
		"page_size", p.PageSize(), "pages", p.PageCount(), "path", p.Path())

	return &DB{id: id, pager: p, catalog: catalog, logger: logger}, nil
}

// Close releases the underlying file.
func (db *DB) Close() error {
	return db.pager.Close()
}

// ID returns the session id attached to this handle's log records.
func (db *DB) ID() string {
	return db.id
}

// Logger returns the handle's logger.
func (db *DB) Logger() *slog.Logger {
	return db.logger
}

// PageSize returns the page size in bytes.
func (db *DB) PageSize() int {
	return db.pager.PageSize()
}

// UsableSize returns the bytes of each page available to b-tree content.
func (db *DB) UsableSize() int {
	return db.pager.UsableSize()
}

// PageCount returns the number of pages in the file.
func (db *DB) PageCount() uint32 {
	return db.pager.PageCount()
}

// Header returns the decoded file header.
func (db *DB) Header() *Header {
	return db.pager.Header()
}

// Compressed reports whether the file was an xz image.
func (db *DB) Compressed() bool {
	return db.pager.Compressed()
}

// Entries returns every schema object in schema table order.
func (db *DB) Entries() []*Entry {
	return db.catalog.Entries()
}

// Tables returns the table entries in schema table order, including
// internal tables such as sqlite_sequence.
func (db *DB) Tables() []*Entry {
	return db.catalog.Tables()
}

// TableIndexes returns every index on the named table, matched without
// regard to case.
func (db *DB) TableIndexes(table string) []*Entry {
	return db.catalog.TableIndexes(table)
}

// GetTable returns the named table, matched without regard to case.
func (db *DB) GetTable(name string) (*Entry, bool) {
	return db.catalog.GetTable(name)
}

// GetIndex returns an index on table whose leading key column is column.
func (db *DB) GetIndex(table, column string) (*Entry, bool) {
	return db.catalog.GetIndex(table, column)
}

// GetPage reads and parses page n.
func (db *DB) GetPage(n uint32) (*Page, error) {
	page, err := btree.LoadPage(db.pager, n)
	if err != nil {
		return nil, err
	}
	logging.PageRead(db.logger, n, page.Type.String(), int(page.NumCells))
	return page, nil
}

// PageCells decodes every cell of page, following overflow chains.
func (db *DB) PageCells(page *Page) ([]Cell, error) {
	return page.Cells(db.pager)
}

// Encoding returns the name of the file's text encoding.
func (db *DB) Encoding() string {
	return format.EncodingName(db.pager.Header().TextEncoding)
}

// PageDigest returns the hex BLAKE3-256 digest of the raw bytes of page n.
func (db *DB) PageDigest(n uint32) (string, error) {
	raw, err := db.pager.ReadPage(n)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
