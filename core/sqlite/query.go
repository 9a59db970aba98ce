package sqlite

import (
	"strings"
	"time"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/record"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/schema"
	"github.com/FocuswithJustin/sqlitescan/core/sqlparser"
	"github.com/FocuswithJustin/sqlitescan/internal/logging"
)

// rowIDNames are the implicit names of the row id. A real column of the
// same name shadows them.
var rowIDNames = []string{"rowid", "oid", "_rowid_"}

// Predicate keeps rows whose Column renders, as Value.String does, exactly
// as Value. Integers, floats and text are therefore compared as strings: a
// stored 1 or an integral REAL 1.0 both render as "1", so they match '1'
// but not '1.0'.
type Predicate struct {
	Column string
	Value  string
}

// Row is one decoded table row. Columns follow the table's declaration
// order, with the row id substituted into an INTEGER PRIMARY KEY column and
// NULL appended for columns the stored record predates.
type Row struct {
	RowID   uint64
	Columns []Value
}

// Result is the output of Query.
type Result struct {
	Columns []string
	Rows    [][]Value
}

// column resolves a name against a table: a position in Row.Columns, or -1
// for the row id.
type column struct {
	name  string
	index int
}

func resolveColumn(t *Entry, field, name string) (column, error) {
	if i := t.ColumnIndex(name); i >= 0 {
		return column{name: t.Columns[i], index: i}, nil
	}
	for _, alias := range rowIDNames {
		if strings.EqualFold(alias, name) {
			return column{name: name, index: -1}, nil
		}
	}
	return column{}, &errors.ValidationError{
		Field:   field,
		Message: "no such column " + name + " in table " + t.Name,
		Err:     errors.ErrUnresolvedColumn,
	}
}

func (c column) value(r Row) Value {
	if c.index < 0 {
		return record.Integer(int64(r.RowID))
	}
	return r.Columns[c.index]
}

// scanTable resolves name and where and returns a walk root and filter.
func (db *DB) scanTable(name string, where *Predicate) (*Entry, uint32, func(Row) bool, error) {
	t, ok := db.catalog.GetTable(name)
	if !ok {
		return nil, 0, nil, errors.NewNotFound("table", name)
	}
	root, err := t.ScanRoot()
	if err != nil {
		return nil, 0, nil, err
	}
	keep := func(Row) bool { return true }
	if where != nil {
		col, err := resolveColumn(t, "where", where.Column)
		if err != nil {
			return nil, 0, nil, err
		}
		want := where.Value
		keep = func(r Row) bool { return col.value(r).String() == want }
	}
	return t, root, keep, nil
}

// GetTableRows walks the named table and returns the rows matching where,
// or every row when where is nil, in breadth-first page order.
func (db *DB) GetTableRows(table string, where *Predicate) ([]Row, error) {
	start := time.Now()
	t, root, keep, err := db.scanTable(table, where)
	if err != nil {
		return nil, err
	}

	var rows []Row
	err = btree.WalkFunc(db.pager, root, func(cell btree.TableLeafCell) error {
		r := newRow(t, cell)
		if keep(r) {
			rows = append(rows, r)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scanning table %s", t.Name)
	}
	logging.QueryExecuted(db.logger, t.Name, len(rows), time.Since(start))
	return rows, nil
}

// CountRows returns the number of rows GetTableRows would return.
func (db *DB) CountRows(table string, where *Predicate) (int, error) {
	t, root, keep, err := db.scanTable(table, where)
	if err != nil {
		return 0, err
	}
	n, err := btree.Count(db.pager, root, func(cell btree.TableLeafCell) bool {
		return keep(newRow(t, cell))
	})
	if err != nil {
		return 0, errors.Wrapf(err, "counting table %s", t.Name)
	}
	return n, nil
}

func newRow(t *schema.Entry, cell btree.TableLeafCell) Row {
	cols := make([]Value, len(t.Columns))
	copy(cols, cell.Values)
	for i := len(cell.Values); i < len(cols); i++ {
		cols[i] = record.Null()
	}
	if t.RowIDAlias >= 0 && t.RowIDAlias < len(cols) && cols[t.RowIDAlias].IsNull() {
		cols[t.RowIDAlias] = record.Integer(int64(cell.RowID))
	}
	return Row{RowID: cell.RowID, Columns: cols}
}

// Query runs a single-table SELECT: a list of columns, *, or COUNT(*),
// with an optional column = literal filter.
func (db *DB) Query(sql string) (*Result, error) {
	sel, err := sqlparser.ParseSelect(sql)
	if err != nil {
		return nil, err
	}
	t, ok := db.catalog.GetTable(sel.Table)
	if !ok {
		return nil, errors.NewNotFound("table", sel.Table)
	}

	var where *Predicate
	if sel.Where != nil {
		where = &Predicate{Column: sel.Where.Column, Value: sel.Where.Value}
	}

	counts, cols, err := resolveResults(t, sel.Results)
	if err != nil {
		return nil, err
	}

	if counts > 0 {
		n, err := db.CountRows(t.Name, where)
		if err != nil {
			return nil, err
		}
		res := &Result{}
		row := make([]Value, counts)
		for i := range row {
			res.Columns = append(res.Columns, "count(*)")
			row[i] = record.Integer(int64(n))
		}
		res.Rows = [][]Value{row}
		return res, nil
	}

	rows, err := db.GetTableRows(t.Name, where)
	if err != nil {
		return nil, err
	}
	res := &Result{Columns: make([]string, len(cols)), Rows: make([][]Value, 0, len(rows))}
	for i, c := range cols {
		res.Columns[i] = c.name
	}
	for _, r := range rows {
		out := make([]Value, len(cols))
		for i, c := range cols {
			out[i] = c.value(r)
		}
		res.Rows = append(res.Rows, out)
	}
	return res, nil
}

// resolveResults returns the number of COUNT(*) entries, or the resolved
// projection when there are none.
func resolveResults(t *Entry, results []sqlparser.Result) (int, []column, error) {
	counts := 0
	var cols []column
	for _, r := range results {
		switch r.Kind {
		case sqlparser.ResultCount:
			counts++
		case sqlparser.ResultStar:
			for i, name := range t.Columns {
				cols = append(cols, column{name: name, index: i})
			}
		case sqlparser.ResultColumn:
			c, err := resolveColumn(t, "select", r.Name)
			if err != nil {
				return 0, nil, err
			}
			cols = append(cols, c)
		}
	}
	if counts > 0 && len(cols) > 0 {
		return 0, nil, errors.NewValidation("select", "cannot mix COUNT(*) with columns")
	}
	return counts, cols, nil
}

// Strings renders every row of r with Value.String.
func (r *Result) Strings() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = v.String()
		}
	}
	return out
}
