package schema

import (
	"strings"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitescan/core/sqlparser"
)

// Object kinds stored in the type column of the schema table
const (
	KindTable   = "table"
	KindIndex   = "index"
	KindView    = "view"
	KindTrigger = "trigger"
)

// Entry is one schema object with its SQL resolved.
type Entry struct {
	Kind      string
	Name      string
	TableName string
	RootPage  uint32 // 0 when the object has no b-tree
	SQL       string

	// Columns holds a table's column names in declaration order, or an
	// index's key columns in key order.
	Columns    []string
	Affinities []Affinity // per table column

	// RowIDAlias is the position of the INTEGER PRIMARY KEY column whose
	// value is the row id, or -1.
	RowIDAlias   int
	WithoutRowID bool
	Unique       bool // UNIQUE index

	// Err records why SQL could not be resolved. Such entries stay in the
	// catalog but cannot be scanned.
	Err error
}

// NewEntry resolves a schema table row into an Entry.
func NewEntry(row MasterRow) *Entry {
	e := &Entry{
		Kind:       row.Type,
		Name:       row.Name,
		TableName:  row.TblName,
		RootPage:   row.RootPage,
		SQL:        row.SQL,
		RowIDAlias: -1,
	}
	if row.SQL == "" {
		return e
	}

	switch row.Type {
	case KindTable:
		t, err := sqlparser.ParseCreateTable(row.SQL)
		if err != nil {
			e.Err = errors.Wrapf(err, "table %s", row.Name)
			return e
		}
		e.Columns = t.ColumnNames()
		e.Affinities = make([]Affinity, len(t.Columns))
		for i, c := range t.Columns {
			e.Affinities[i] = DetermineAffinity(c.Type)
		}
		e.RowIDAlias = t.RowIDAlias()
		e.WithoutRowID = t.WithoutRowID
	case KindIndex:
		idx, err := sqlparser.ParseCreateIndex(row.SQL)
		if err != nil {
			e.Err = errors.Wrapf(err, "index %s", row.Name)
			return e
		}
		e.Columns = idx.Columns
		e.Unique = idx.Unique
	}
	return e
}

// HasRootPage reports whether the entry owns a b-tree.
func (e *Entry) HasRootPage() bool {
	return e.RootPage != 0
}

// IsInternal reports whether the object is one the library creates for
// itself, such as sqlite_sequence or sqlite_autoindex_*.
func (e *Entry) IsInternal() bool {
	return strings.HasPrefix(strings.ToLower(e.Name), "sqlite_")
}

// ColumnIndex returns the position of the named column, matched without
// regard to case, or -1.
func (e *Entry) ColumnIndex(name string) int {
	for i, c := range e.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// ScanRoot returns the root page of a table that can be walked as a table
// b-tree.
func (e *Entry) ScanRoot() (uint32, error) {
	if e.Kind != KindTable {
		return 0, errors.NewValidation("table", e.Name+" is a "+e.Kind+", not a table")
	}
	if e.Err != nil {
		return 0, e.Err
	}
	if e.WithoutRowID {
		return 0, errors.NewUnsupported("table scan", e.Name+" is a WITHOUT ROWID table")
	}
	if !e.HasRootPage() {
		return 0, &errors.NotFoundError{Resource: "root page", ID: e.Name, Err: errors.ErrMissingRootPage}
	}
	return e.RootPage, nil
}

// Catalog holds every entry of the schema table in row order.
type Catalog struct {
	entries []*Entry
}

// NewCatalog builds a catalog from decoded schema rows.
func NewCatalog(rows []MasterRow) *Catalog {
	c := &Catalog{entries: make([]*Entry, 0, len(rows))}
	for _, row := range rows {
		c.entries = append(c.entries, NewEntry(row))
	}
	return c
}

// Load reads the schema table from src and builds the catalog.
func Load(src btree.PageSource) (*Catalog, error) {
	rows, err := ReadMaster(src)
	if err != nil {
		return nil, err
	}
	return NewCatalog(rows), nil
}

// Entries returns every entry in schema table order.
func (c *Catalog) Entries() []*Entry {
	return c.entries
}

// Tables returns the table entries in schema table order.
func (c *Catalog) Tables() []*Entry {
	return c.byKind(KindTable)
}

// Indexes returns the index entries in schema table order.
func (c *Catalog) Indexes() []*Entry {
	return c.byKind(KindIndex)
}

func (c *Catalog) byKind(kind string) []*Entry {
	var out []*Entry
	for _, e := range c.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// GetTable retrieves a table by name, matched without regard to case.
func (c *Catalog) GetTable(name string) (*Entry, bool) {
	for _, e := range c.entries {
		if e.Kind == KindTable && strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return nil, false
}

// GetIndex returns an index on table whose first key column is column.
func (c *Catalog) GetIndex(table, column string) (*Entry, bool) {
	for _, e := range c.entries {
		if e.Kind != KindIndex || !strings.EqualFold(e.TableName, table) || len(e.Columns) == 0 {
			continue
		}
		if strings.EqualFold(e.Columns[0], column) {
			return e, true
		}
	}
	return nil, false
}

// TableIndexes returns every index on table.
func (c *Catalog) TableIndexes(table string) []*Entry {
	var out []*Entry
	for _, e := range c.entries {
		if e.Kind == KindIndex && strings.EqualFold(e.TableName, table) {
			out = append(out, e)
		}
	}
	return out
}
