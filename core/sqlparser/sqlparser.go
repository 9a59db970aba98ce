// Package sqlparser parses the statements a read-only database reader meets:
// the CREATE TABLE and CREATE INDEX text stored in the schema table, and
// single-table SELECT queries with an optional equality filter.
package sqlparser

import (
	"strings"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// Statement is one of *Select, *CreateTable or *CreateIndex.
type Statement interface {
	statement()
}

// ResultKind distinguishes the entries of a SELECT list.
type ResultKind int

const (
	// ResultColumn selects a named column.
	ResultColumn ResultKind = iota
	// ResultCount is COUNT(*).
	ResultCount
	// ResultStar is *, every column of the table.
	ResultStar
)

// Result is one entry of a SELECT list.
type Result struct {
	Kind ResultKind
	Name string // column name for ResultColumn
}

// Where is an equality filter: Column = Value. Value is the literal with
// its quotes removed.
type Where struct {
	Column string
	Value  string
}

// Select is a single-table query.
type Select struct {
	Table   string
	Results []Result
	Where   *Where
}

// Column is one column definition of a CREATE TABLE statement.
type Column struct {
	Name          string
	Type          string // declared type, empty if none
	PrimaryKey    bool
	Descending    bool // PRIMARY KEY DESC
	Autoincrement bool
	NotNull       bool
	Unique        bool
	Collation     string
}

// CreateTable is a parsed CREATE TABLE statement.
type CreateTable struct {
	Schema       string // "main" in main.t, usually empty
	Name         string
	Columns      []Column
	PrimaryKey   []string // from a table-level PRIMARY KEY constraint
	WithoutRowID bool
	Strict       bool
	Temp         bool
	IfNotExists  bool
}

// CreateIndex is a parsed CREATE INDEX statement.
type CreateIndex struct {
	Schema      string
	Name        string
	Table       string
	Columns     []string // key columns in index order
	Unique      bool
	Partial     bool // has a WHERE clause
	IfNotExists bool
}

func (*Select) statement()      {}
func (*CreateTable) statement() {}
func (*CreateIndex) statement() {}

// ColumnNames returns the column names in declaration order.
func (t *CreateTable) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// RowIDAlias returns the position of the column that aliases the row id, or
// -1. A column is an alias when it is the table's only primary key column and
// its declared type is exactly INTEGER. A column-level PRIMARY KEY DESC is not
// an alias; WITHOUT ROWID tables have none.
func (t *CreateTable) RowIDAlias() int {
	if t.WithoutRowID {
		return -1
	}
	pk := -1
	count := 0
	for i, c := range t.Columns {
		if c.PrimaryKey {
			pk = i
			count++
		}
	}
	if count == 0 && len(t.PrimaryKey) == 1 {
		for i, c := range t.Columns {
			if strings.EqualFold(c.Name, t.PrimaryKey[0]) {
				pk = i
				count = 1
			}
		}
	} else if count == 1 && t.Columns[pk].Descending {
		return -1
	}
	if count != 1 || len(t.PrimaryKey) > 1 || !strings.EqualFold(t.Columns[pk].Type, "INTEGER") {
		return -1
	}
	return pk
}

// Parse parses one statement.
func Parse(sql string) (Statement, error) {
	g, err := sqlParser.ParseString("", sql)
	if err != nil {
		return nil, parseError(sql, err.Error())
	}
	if g.Select != nil {
		return buildSelect(g.Select), nil
	}
	if g.Create.Table != nil {
		t := buildCreateTable(g.Create.Table)
		t.Temp = g.Create.Temp
		return t, nil
	}
	return buildCreateIndex(g.Create.Index), nil
}

// ParseSelect parses a SELECT statement.
func ParseSelect(sql string) (*Select, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	s, ok := stmt.(*Select)
	if !ok {
		return nil, parseError(sql, "not a SELECT statement")
	}
	return s, nil
}

// ParseCreateTable parses a CREATE TABLE statement.
func ParseCreateTable(sql string) (*CreateTable, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	t, ok := stmt.(*CreateTable)
	if !ok {
		return nil, parseError(sql, "not a CREATE TABLE statement")
	}
	return t, nil
}

// ParseCreateIndex parses a CREATE INDEX statement.
func ParseCreateIndex(sql string) (*CreateIndex, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	idx, ok := stmt.(*CreateIndex)
	if !ok {
		return nil, parseError(sql, "not a CREATE INDEX statement")
	}
	return idx, nil
}

const maxErrorInput = 60

func parseError(sql, message string) error {
	input := strings.Join(strings.Fields(sql), " ")
	if len(input) > maxErrorInput {
		input = input[:maxErrorInput] + "..."
	}
	return errors.NewParse("SQL", input, message)
}

func buildSelect(g *selectGrammar) *Select {
	s := &Select{Table: unquote(g.From)}
	for _, r := range g.Results {
		switch {
		case r.CountAll:
			s.Results = append(s.Results, Result{Kind: ResultCount})
		case r.Star:
			s.Results = append(s.Results, Result{Kind: ResultStar})
		default:
			s.Results = append(s.Results, Result{Kind: ResultColumn, Name: unquote(r.Column)})
		}
	}
	if g.Where != nil {
		s.Where = &Where{Column: unquote(g.Where.Column), Value: unquote(g.Where.Value)}
	}
	return s
}

func splitName(parts []string) (schema, name string) {
	if len(parts) == 2 {
		return unquote(parts[0]), unquote(parts[1])
	}
	return "", unquote(parts[0])
}

func buildCreateTable(g *createTableGrammar) *CreateTable {
	t := &CreateTable{IfNotExists: g.IfNotExists}
	t.Schema, t.Name = splitName(g.Name)
	for _, el := range g.Elements {
		if el.Column != nil {
			t.Columns = append(t.Columns, buildColumn(el.Column))
			continue
		}
		c := el.Constraint
		if !strings.EqualFold(c.Kind, "PRIMARY") {
			continue
		}
		for _, term := range c.Terms {
			if term.Word == nil {
				t.PrimaryKey = groupNames(term.Group)
				break
			}
		}
	}
	for i := 0; i < len(g.Options); i++ {
		switch strings.ToUpper(g.Options[i]) {
		case "WITHOUT":
			if i+1 < len(g.Options) && strings.EqualFold(g.Options[i+1], "ROWID") {
				t.WithoutRowID = true
				i++
			}
		case "STRICT":
			t.Strict = true
		}
	}
	return t
}

// columnKeywords start the constraint part of a column definition.
var columnKeywords = map[string]bool{
	"CONSTRAINT": true, "PRIMARY": true, "NOT": true, "NULL": true, "UNIQUE": true,
	"CHECK": true, "DEFAULT": true, "COLLATE": true, "REFERENCES": true,
	"GENERATED": true, "AS": true,
}

func buildColumn(g *columnGrammar) Column {
	col := Column{Name: unquote(g.Name)}

	// The declared type runs until the first constraint keyword and may
	// end in a size group such as VARCHAR(20) or DECIMAL(10,2).
	var typeParts []string
	i := 0
	for ; i < len(g.Terms); i++ {
		term := g.Terms[i]
		if term.Word == nil {
			if len(typeParts) > 0 {
				typeParts[len(typeParts)-1] += term.render()
				i++
			}
			break
		}
		if columnKeywords[strings.ToUpper(*term.Word)] {
			break
		}
		typeParts = append(typeParts, unquote(*term.Word))
	}
	col.Type = strings.Join(typeParts, " ")

	words := make([]string, 0, len(g.Terms)-i)
	for _, term := range g.Terms[i:] {
		if term.Word != nil {
			words = append(words, strings.ToUpper(*term.Word))
		} else {
			words = append(words, term.render())
		}
	}
	for j, w := range words {
		next := ""
		if j+1 < len(words) {
			next = words[j+1]
		}
		switch {
		case w == "PRIMARY" && next == "KEY":
			col.PrimaryKey = true
			if j+2 < len(words) && words[j+2] == "DESC" {
				col.Descending = true
			}
		case w == "AUTOINCREMENT":
			col.Autoincrement = true
		case w == "NOT" && next == "NULL":
			col.NotNull = true
		case w == "UNIQUE":
			col.Unique = true
		case w == "COLLATE" && next != "" && g.Terms[i+j+1].Word != nil:
			col.Collation = unquote(*g.Terms[i+j+1].Word)
		}
	}
	return col
}

func buildCreateIndex(g *createIndexGrammar) *CreateIndex {
	idx := &CreateIndex{
		Table:       unquote(g.Table),
		Unique:      g.Unique,
		Partial:     len(g.Where) > 0,
		IfNotExists: g.IfNotExists,
	}
	idx.Schema, idx.Name = splitName(g.Name)
	for _, c := range g.Columns {
		idx.Columns = append(idx.Columns, unquote(c.Name))
	}
	return idx
}
