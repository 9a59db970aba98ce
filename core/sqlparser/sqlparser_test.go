package sqlparser

import (
	"reflect"
	"testing"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

func TestParseSelect(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want *Select
	}{
		{
			name: "columns",
			sql:  "SELECT name, color FROM apples",
			want: &Select{Table: "apples", Results: []Result{
				{Kind: ResultColumn, Name: "name"},
				{Kind: ResultColumn, Name: "color"},
			}},
		},
		{
			name: "count",
			sql:  "select count(*) from apples",
			want: &Select{Table: "apples", Results: []Result{{Kind: ResultCount}}},
		},
		{
			name: "star with quoted table",
			sql:  `SELECT * FROM "my table"`,
			want: &Select{Table: "my table", Results: []Result{{Kind: ResultStar}}},
		},
		{
			name: "where string",
			sql:  "SELECT name FROM apples WHERE color = 'Light Green'",
			want: &Select{
				Table:   "apples",
				Results: []Result{{Kind: ResultColumn, Name: "name"}},
				Where:   &Where{Column: "color", Value: "Light Green"},
			},
		},
		{
			name: "where escaped quote",
			sql:  "SELECT id FROM people WHERE name = 'O''Brien';",
			want: &Select{
				Table:   "people",
				Results: []Result{{Kind: ResultColumn, Name: "id"}},
				Where:   &Where{Column: "name", Value: "O'Brien"},
			},
		},
		{
			name: "where number",
			sql:  "SELECT id, name FROM superheroes WHERE id = 42",
			want: &Select{
				Table: "superheroes",
				Results: []Result{
					{Kind: ResultColumn, Name: "id"},
					{Kind: ResultColumn, Name: "name"},
				},
				Where: &Where{Column: "id", Value: "42"},
			},
		},
		{
			name: "column named count",
			sql:  "SELECT count FROM tallies",
			want: &Select{Table: "tallies", Results: []Result{{Kind: ResultColumn, Name: "count"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelect(tt.sql)
			if err != nil {
				t.Fatalf("ParseSelect(%q) error = %v", tt.sql, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSelect(%q) = %+v, want %+v", tt.sql, got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"misspelled keyword", "SELEC name FROM apples"},
		{"empty select list", "SELECT FROM apples"},
		{"missing table", "SELECT name FROM"},
		{"non-equality filter", "SELECT name FROM apples WHERE id > 1"},
		{"two statements", "SELECT a FROM t; SELECT b FROM t"},
		{"unsupported statement", "DELETE FROM apples"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sql)
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidInput", tt.sql, err)
			}
			var pe *errors.ParseError
			if !errors.As(err, &pe) || pe.Format != "SQL" {
				t.Errorf("Parse(%q) error = %T, want *errors.ParseError", tt.sql, err)
			}
		})
	}
}

func TestParse_WrongStatementKind(t *testing.T) {
	if _, err := ParseSelect("CREATE TABLE t (a)"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("ParseSelect(CREATE) error = %v", err)
	}
	if _, err := ParseCreateTable("CREATE INDEX i ON t (a)"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("ParseCreateTable(CREATE INDEX) error = %v", err)
	}
	if _, err := ParseCreateIndex("SELECT a FROM t"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("ParseCreateIndex(SELECT) error = %v", err)
	}
}

func TestParseCreateTable(t *testing.T) {
	tests := []struct {
		name         string
		sql          string
		table        string
		columns      []string
		types        []string
		alias        int
		withoutRowID bool
	}{
		{
			name:    "autoincrement key",
			sql:     "CREATE TABLE apples\n(\n\tid integer primary key autoincrement,\n\tname text,\n\tcolor text\n)",
			table:   "apples",
			columns: []string{"id", "name", "color"},
			types:   []string{"integer", "text", "text"},
			alias:   0,
		},
		{
			name:    "quoted names",
			sql:     `CREATE TABLE "superheroes" ("id" integer primary key autoincrement, "name" text not null, "eye_color" text, [hair color] text, ` + "`first appearance`" + ` text)`,
			table:   "superheroes",
			columns: []string{"id", "name", "eye_color", "hair color", "first appearance"},
			types:   []string{"integer", "text", "text", "text", "text"},
			alias:   0,
		},
		{
			name:    "untyped columns",
			sql:     "CREATE TABLE sqlite_sequence(name,seq)",
			table:   "sqlite_sequence",
			columns: []string{"name", "seq"},
			types:   []string{"", ""},
			alias:   -1,
		},
		{
			name:         "table constraint without rowid",
			sql:          "CREATE TABLE IF NOT EXISTS main.prices (sku TEXT, amount DECIMAL(10, 2) NOT NULL DEFAULT 0, PRIMARY KEY (sku)) WITHOUT ROWID",
			table:        "prices",
			columns:      []string{"sku", "amount"},
			types:        []string{"TEXT", "DECIMAL(10,2)"},
			alias:        -1,
			withoutRowID: true,
		},
		{
			name:    "table-level integer key",
			sql:     "CREATE TABLE t (a INTEGER, b TEXT, CONSTRAINT pk PRIMARY KEY(a))",
			table:   "t",
			columns: []string{"a", "b"},
			types:   []string{"INTEGER", "TEXT"},
			alias:   0,
		},
		{
			name:    "descending key is not an alias",
			sql:     "CREATE TABLE t (a INTEGER PRIMARY KEY DESC, b)",
			table:   "t",
			columns: []string{"a", "b"},
			types:   []string{"INTEGER", ""},
			alias:   -1,
		},
		{
			name:    "int key is not an alias",
			sql:     "CREATE TABLE t (a INT PRIMARY KEY, b)",
			table:   "t",
			columns: []string{"a", "b"},
			types:   []string{"INT", ""},
			alias:   -1,
		},
		{
			name:    "composite key",
			sql:     "CREATE TABLE t (a INTEGER, b INTEGER, PRIMARY KEY (a, b))",
			table:   "t",
			columns: []string{"a", "b"},
			types:   []string{"INTEGER", "INTEGER"},
			alias:   -1,
		},
		{
			name: "comments and checks",
			sql: "CREATE TABLE docs ( -- the key\n id INTEGER PRIMARY KEY, /* payload */ body BLOB CHECK (length(body) > 0), " +
				"owner INTEGER REFERENCES users(id) ON DELETE CASCADE, FOREIGN KEY (owner) REFERENCES users (id)) STRICT",
			table:   "docs",
			columns: []string{"id", "body", "owner"},
			types:   []string{"INTEGER", "BLOB", "INTEGER"},
			alias:   0,
		},
		{
			name:    "multi-word type",
			sql:     "CREATE TABLE t (price double precision, label varying character(20) collate nocase)",
			table:   "t",
			columns: []string{"price", "label"},
			types:   []string{"double precision", "varying character(20)"},
			alias:   -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCreateTable(tt.sql)
			if err != nil {
				t.Fatalf("ParseCreateTable() error = %v", err)
			}
			if got.Name != tt.table {
				t.Errorf("Name = %q, want %q", got.Name, tt.table)
			}
			if !reflect.DeepEqual(got.ColumnNames(), tt.columns) {
				t.Errorf("ColumnNames() = %q, want %q", got.ColumnNames(), tt.columns)
			}
			for i, c := range got.Columns {
				if i < len(tt.types) && c.Type != tt.types[i] {
					t.Errorf("column %s type = %q, want %q", c.Name, c.Type, tt.types[i])
				}
			}
			if alias := got.RowIDAlias(); alias != tt.alias {
				t.Errorf("RowIDAlias() = %d, want %d", alias, tt.alias)
			}
			if got.WithoutRowID != tt.withoutRowID {
				t.Errorf("WithoutRowID = %v, want %v", got.WithoutRowID, tt.withoutRowID)
			}
		})
	}
}

func TestParseCreateTable_Details(t *testing.T) {
	got, err := ParseCreateTable("CREATE TEMP TABLE IF NOT EXISTS main.t (id integer primary key autoincrement, name text not null unique collate nocase) strict")
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}
	if !got.Temp || !got.IfNotExists || !got.Strict || got.Schema != "main" {
		t.Errorf("flags = %+v", got)
	}
	id, name := got.Columns[0], got.Columns[1]
	if !id.PrimaryKey || !id.Autoincrement {
		t.Errorf("id = %+v, want primary key autoincrement", id)
	}
	if !name.NotNull || !name.Unique || name.Collation != "nocase" {
		t.Errorf("name = %+v, want not null unique collate nocase", name)
	}
}

func TestParseCreateIndex(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want *CreateIndex
	}{
		{
			name: "single column",
			sql:  "CREATE INDEX idx_companies_country\n\ton companies (country)",
			want: &CreateIndex{Name: "idx_companies_country", Table: "companies", Columns: []string{"country"}},
		},
		{
			name: "unique partial multi-column",
			sql:  `CREATE UNIQUE INDEX IF NOT EXISTS "ix" ON t (a COLLATE NOCASE DESC, b) WHERE b IS NOT NULL`,
			want: &CreateIndex{Name: "ix", Table: "t", Columns: []string{"a", "b"}, Unique: true, Partial: true, IfNotExists: true},
		},
		{
			name: "schema qualified",
			sql:  "create index main.by_name on people(last, first);",
			want: &CreateIndex{Schema: "main", Name: "by_name", Table: "people", Columns: []string{"last", "first"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCreateIndex(tt.sql)
			if err != nil {
				t.Fatalf("ParseCreateIndex() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCreateIndex() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		`"a""b"`:   `a"b`,
		`'it''s'`:  `it's`,
		"`tick`":   "tick",
		"[square]": "square",
		"plain":    "plain",
		`"`:        `"`,
	}
	for in, want := range tests {
		if got := unquote(in); got != want {
			t.Errorf("unquote(%q) = %q, want %q", in, got, want)
		}
	}
}

func BenchmarkParseCreateTable(b *testing.B) {
	sql := `CREATE TABLE "superheroes" ("id" integer primary key autoincrement, "name" text not null, "eye_color" text, "hair_color" text, "appearance_count" integer, "first_appearance" text, "first_appearance_year" text)`
	for i := 0; i < b.N; i++ {
		if _, err := ParseCreateTable(sql); err != nil {
			b.Fatal(err)
		}
	}
}
