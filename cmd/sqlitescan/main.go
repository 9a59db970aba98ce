// Command sqlitescan reads database files without an SQL engine.
// It prints file and schema details, dumps b-tree pages and runs simple
// single-table SELECT queries.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite"
	"github.com/FocuswithJustin/sqlitescan/core/sqlparser"
	"github.com/FocuswithJustin/sqlitescan/internal/logging"
	"github.com/FocuswithJustin/sqlitescan/internal/validation"
)

const version = "0.1.0"

// CLI defines the command-line interface for sqlitescan.
var CLI struct {
	Globals

	Dbinfo  DBInfoCmd  `cmd:"" help:"Print page size, table count and header fields"`
	Tables  TablesCmd  `cmd:"" help:"List user tables"`
	Schema  SchemaCmd  `cmd:"" help:"List every schema object"`
	Page    PageCmd    `cmd:"" help:"Describe one b-tree page"`
	Query   QueryCmd   `cmd:"" help:"Run a SELECT statement"`
	Exec    ExecCmd    `cmd:"" help:"Run .dbinfo, .tables or a SELECT statement"`
	Verify  VerifyCmd  `cmd:"" help:"Compare query results with the reference SQL engine"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// Globals are flags shared by every command.
type Globals struct {
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn" env:"SQLITESCAN_LOG_LEVEL" enum:"debug,info,warn,error"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text" env:"SQLITESCAN_LOG_FORMAT" enum:"text,json"`
}

// initLogging installs the logger selected by the flags.
func (g *Globals) initLogging() error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	f, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, f)
	return nil
}

// Output is where commands write their results.
type Output struct {
	io.Writer
}

func openDB(path string) (*sqlite.DB, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}
	if err := checkFileType(path); err != nil {
		return nil, err
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// checkFileType rejects files that are neither database files nor xz
// images, and warns when the name suggests another type.
func checkFileType(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer f.Close()

	got, err := validation.DetectFileType(f)
	if err != nil {
		return err
	}
	if got == validation.FileTypeUnknown {
		return errors.NewParse("database file", path, "not a database file or xz image")
	}
	if want := validation.ExpectedFileType(path); want != validation.FileTypeUnknown && want != got {
		logging.Warn("file_type_mismatch", "path", path, "extension", want, "content", got)
	}
	return nil
}

// DBInfoCmd prints file header details.
type DBInfoCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
}

func (c *DBInfoCmd) Run(out *Output) error {
	db, err := openDB(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	printDBInfo(out, db)
	return nil
}

func printDBInfo(w io.Writer, db *sqlite.DB) {
	h := db.Header()
	fmt.Fprintf(w, "database page size: %d\n", db.PageSize())
	fmt.Fprintf(w, "number of tables: %d\n", len(db.Tables()))
	fmt.Fprintf(w, "number of pages: %d\n", db.PageCount())
	fmt.Fprintf(w, "reserved bytes: %d\n", h.ReservedSpace)
	fmt.Fprintf(w, "text encoding: %s\n", db.Encoding())
	fmt.Fprintf(w, "schema format: %d\n", h.SchemaFormat)
	fmt.Fprintf(w, "sqlite version: %d\n", h.SQLiteVersion)
	if db.Compressed() {
		fmt.Fprintln(w, "compressed: xz")
	}
}

// TablesCmd lists user tables.
type TablesCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
}

func (c *TablesCmd) Run(out *Output) error {
	db, err := openDB(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	printTables(out, db)
	return nil
}

func printTables(w io.Writer, db *sqlite.DB) {
	var names []string
	for _, t := range db.Tables() {
		if !t.IsInternal() {
			names = append(names, t.Name)
		}
	}
	fmt.Fprintln(w, strings.Join(names, " "))
}

// SchemaCmd lists every schema object.
type SchemaCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
	SQL  bool   `help:"Include the CREATE statement"`
}

func (c *SchemaCmd) Run(out *Output) error {
	db, err := openDB(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, e := range db.Entries() {
		fmt.Fprintf(out, "%s %s %s %d", e.Kind, e.Name, e.TableName, e.RootPage)
		if len(e.Columns) > 0 {
			fmt.Fprintf(out, " (%s)", strings.Join(columnList(e), ", "))
		}
		if e.Unique {
			fmt.Fprint(out, " UNIQUE")
		}
		if e.Kind == sqlite.KindTable && e.Err == nil {
			if idx := db.TableIndexes(e.Name); len(idx) > 0 {
				names := make([]string, len(idx))
				for i, x := range idx {
					names[i] = x.Name
				}
				fmt.Fprintf(out, " indexes: %s", strings.Join(names, ", "))
			}
		}
		if e.Err != nil {
			fmt.Fprintf(out, " [unresolved: %v]", e.Err)
		}
		fmt.Fprintln(out)
		if c.SQL && e.SQL != "" {
			fmt.Fprintf(out, "  %s\n", e.SQL)
		}
	}
	return nil
}

// columnList renders table columns with their affinity and index columns
// as they are.
func columnList(e *sqlite.Entry) []string {
	if len(e.Affinities) != len(e.Columns) {
		return e.Columns
	}
	cols := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		cols[i] = c + ":" + e.Affinities[i].String()
	}
	return cols
}

// PageCmd describes one page.
type PageCmd struct {
	Path   string `arg:"" help:"Database file" type:"existingfile"`
	Number uint32 `arg:"" help:"Page number, starting at 1"`
	Cells  bool   `help:"Print every cell"`
}

func (c *PageCmd) Run(out *Output) error {
	db, err := openDB(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	page, err := db.GetPage(c.Number)
	if err != nil {
		return err
	}
	digest, err := db.PageDigest(c.Number)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "page: %d\n", page.Number)
	fmt.Fprintf(out, "type: %s\n", page.Type)
	fmt.Fprintf(out, "cells: %d\n", page.NumCells)
	fmt.Fprintf(out, "cell content start: %d\n", page.CellContentStart)
	if !page.Type.IsLeaf() {
		fmt.Fprintf(out, "right child: %d\n", page.RightChild)
	}
	fmt.Fprintf(out, "blake3: %s\n", digest)

	if !c.Cells {
		return nil
	}
	cells, err := db.PageCells(page)
	if err != nil {
		return err
	}
	for i, cell := range cells {
		fmt.Fprintf(out, "  %d: %+v\n", i, cell)
	}
	return nil
}

// QueryCmd runs a SELECT statement.
type QueryCmd struct {
	Path   string `arg:"" help:"Database file" type:"existingfile"`
	SQL    string `arg:"" help:"SELECT statement"`
	Header bool   `help:"Print column names first"`
}

func (c *QueryCmd) Run(out *Output) error {
	db, err := openDB(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	return runQuery(out, db, c.SQL, c.Header)
}

func runQuery(w io.Writer, db *sqlite.DB, sql string, header bool) error {
	res, err := db.Query(sql)
	if err != nil {
		return err
	}
	if header {
		fmt.Fprintln(w, strings.Join(res.Columns, "|"))
	}
	for _, row := range res.Strings() {
		fmt.Fprintln(w, strings.Join(row, "|"))
	}
	return nil
}

// ExecCmd accepts a dot command or a SELECT statement.
type ExecCmd struct {
	Path    string `arg:"" help:"Database file" type:"existingfile"`
	Command string `arg:"" help:".dbinfo, .tables or a SELECT statement"`
}

func (c *ExecCmd) Run(out *Output) error {
	db, err := openDB(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	switch c.Command {
	case ".dbinfo":
		printDBInfo(out, db)
		return nil
	case ".tables":
		printTables(out, db)
		return nil
	}

	stmt, err := sqlparser.Parse(c.Command)
	if err != nil {
		return err
	}
	if _, ok := stmt.(*sqlparser.Select); !ok {
		return errors.NewUnsupported("statement", "only SELECT statements can be executed")
	}
	return runQuery(out, db, c.Command, false)
}

// VerifyCmd compares the decoder with the reference engine.
type VerifyCmd struct {
	Path    string   `arg:"" help:"Database file" type:"existingfile"`
	Queries []string `arg:"" optional:"" help:"SELECT statements (default: every column of every table)"`
}

func (c *VerifyCmd) Run(out *Output) error {
	db, err := openDB(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if db.Compressed() {
		return errors.NewUnsupported("verify", "the reference engine cannot read xz images")
	}

	ref, err := sqlite.OpenReference(c.Path)
	if err != nil {
		return err
	}
	defer ref.Close()

	mismatches, err := db.Verify(ref, c.Queries...)
	if err != nil {
		return err
	}
	for _, m := range mismatches {
		fmt.Fprintln(out, m)
		for _, r := range m.Missing {
			fmt.Fprintf(out, "  - %s\n", r)
		}
		for _, r := range m.Extra {
			fmt.Fprintf(out, "  + %s\n", r)
		}
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%d queries disagree with %s", len(mismatches), sqlite.DriverName())
	}
	fmt.Fprintf(out, "ok (%s %s)\n", sqlite.DriverType(), sqlite.DriverName())
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(out *Output) error {
	info := sqlite.GetDriverInfo()
	fmt.Fprintf(out, "sqlitescan version %s\n", version)
	fmt.Fprintf(out, "reference engine: %s (%s, %s)\n", info.Name, info.Type, info.Package)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("sqlitescan"),
		kong.Description("Read database files without an SQL engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Bind(&Output{Writer: os.Stdout}),
	)
	ctx.FatalIfErrorf(CLI.initLogging())
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
