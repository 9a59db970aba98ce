package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// DriverName returns the database/sql driver name of the reference engine.
// Returns "sqlite" for the pure Go driver, "sqlite3" for the CGO driver.
func DriverName() string {
	return driverName
}

// DriverType returns "purego" or "cgo".
func DriverType() string {
	return driverType
}

// IsCGO reports whether the reference engine is the CGO driver.
func IsCGO() bool {
	return driverType == "cgo"
}

// DriverInfo describes the reference engine compiled into the binary.
type DriverInfo struct {
	Name    string
	Type    string
	Package string
}

// GetDriverInfo returns the reference engine description.
func GetDriverInfo() DriverInfo {
	return DriverInfo{
		Name:    driverName,
		Type:    driverType,
		Package: driverPackage,
	}
}

// OpenReference opens path read-only with the reference SQL engine.
func OpenReference(path string) (*sql.DB, error) {
	dsn := "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.NewIO("open reference engine", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewIO("open reference engine", path, err)
	}
	return db, nil
}

// Mismatch is a disagreement found by Verify.
type Mismatch struct {
	Query   string
	Missing []string // rows the reference engine returned and the decoder did not
	Extra   []string // rows the decoder returned and the reference engine did not
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %d missing, %d extra", m.Query, len(m.Missing), len(m.Extra))
}

// Verify runs each query through both the decoder and the reference
// engine and compares the results as unordered sets of rendered rows.
// With no queries it selects every column of every scannable user table.
func (db *DB) Verify(ref *sql.DB, queries ...string) ([]Mismatch, error) {
	if len(queries) == 0 {
		for _, t := range db.Tables() {
			if _, err := t.ScanRoot(); err != nil || t.IsInternal() {
				continue
			}
			queries = append(queries, "SELECT * FROM "+quoteIdent(t.Name))
		}
	}

	var mismatches []Mismatch
	for _, q := range queries {
		res, err := db.Query(q)
		if err != nil {
			return mismatches, errors.Wrapf(err, "decoder query %q", q)
		}
		want, err := referenceRows(ref, q)
		if err != nil {
			return mismatches, errors.Wrapf(err, "reference query %q", q)
		}
		got := make([]string, 0, len(res.Rows))
		for _, row := range res.Strings() {
			got = append(got, strings.Join(row, "|"))
		}
		if m := diffRows(q, want, got); m != nil {
			db.logger.Warn("verify_mismatch", "query", q, "missing", len(m.Missing), "extra", len(m.Extra))
			mismatches = append(mismatches, *m)
		}
	}
	return mismatches, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func referenceRows(ref *sql.DB, query string) ([]string, error) {
	rows, err := ref.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []string
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		fields := make([]string, len(vals))
		for i, v := range vals {
			fields[i] = renderReference(v)
		}
		out = append(out, strings.Join(fields, "|"))
	}
	return out, rows.Err()
}

// renderReference formats a database/sql value the way Value.String does.
func renderReference(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []byte:
		return string(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

func diffRows(query string, want, got []string) *Mismatch {
	counts := make(map[string]int, len(want))
	for _, r := range want {
		counts[r]++
	}
	m := &Mismatch{Query: query}
	for _, r := range got {
		if counts[r] > 0 {
			counts[r]--
			continue
		}
		m.Extra = append(m.Extra, r)
	}
	for r, n := range counts {
		for ; n > 0; n-- {
			m.Missing = append(m.Missing, r)
		}
	}
	if len(m.Missing) == 0 && len(m.Extra) == 0 {
		return nil
	}
	sort.Strings(m.Missing)
	sort.Strings(m.Extra)
	return m
}
