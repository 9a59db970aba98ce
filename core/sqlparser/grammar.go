package sqlparser

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// sqlLexer tokenizes the subset of SQL found in schema text and queries.
// Keywords are ordinary identifiers matched case-insensitively.
var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*|/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: "\"(?:[^\"]|\"\")*\"|\\[[^\\]]*\\]|`(?:[^`]|``)*`"},
	{Name: "Number", Pattern: `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Punct", Pattern: `[-+*/%=<>!~&|.;:?@$#^]`},
})

// sqlParser is the participle parser for a single statement.
var sqlParser = participle.MustBuild[statementGrammar](
	participle.Lexer(sqlLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(4),
)

//nolint:govet // participle grammar tags are not standard struct tags
type statementGrammar struct {
	Select *selectGrammar `(  "SELECT" @@`
	Create *createGrammar ` | "CREATE" @@ ) ";"?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type selectGrammar struct {
	Results []*resultGrammar `@@ ( "," @@ )*`
	From    string           `"FROM" @(Ident | QuotedIdent | String)`
	Where   *whereGrammar    `( "WHERE" @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type resultGrammar struct {
	CountAll bool   `  @( "COUNT" "(" "*" ")" )`
	Star     bool   `| @"*"`
	Column   string `| @(Ident | QuotedIdent)`
}

//nolint:govet // participle grammar tags are not standard struct tags
type whereGrammar struct {
	Column string `@(Ident | QuotedIdent)`
	Value  string `"=" @(String | Number)`
}

//nolint:govet // participle grammar tags are not standard struct tags
type createGrammar struct {
	Temp  bool                `@("TEMP" | "TEMPORARY")?`
	Table *createTableGrammar `(  @@`
	Index *createIndexGrammar ` | @@ )`
}

//nolint:govet // participle grammar tags are not standard struct tags
type createTableGrammar struct {
	IfNotExists bool                   `"TABLE" @( "IF" "NOT" "EXISTS" )?`
	Name        []string               `@(Ident | QuotedIdent | String) ( "." @(Ident | QuotedIdent | String) )?`
	Elements    []*tableElementGrammar `"(" @@ ( "," @@ )* ")"`
	Options     []string               `( @Ident | "," )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type tableElementGrammar struct {
	Constraint *tableConstraintGrammar `  @@`
	Column     *columnGrammar          `| @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type tableConstraintGrammar struct {
	Name  string         `( "CONSTRAINT" @(Ident | QuotedIdent | String) )?`
	Kind  string         `@( "PRIMARY" | "UNIQUE" | "CHECK" | "FOREIGN" )`
	Terms []*termGrammar `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type columnGrammar struct {
	Name  string         `@(Ident | QuotedIdent | String)`
	Terms []*termGrammar `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type createIndexGrammar struct {
	Unique      bool                   `@"UNIQUE"?`
	IfNotExists bool                   `"INDEX" @( "IF" "NOT" "EXISTS" )?`
	Name        []string               `@(Ident | QuotedIdent | String) ( "." @(Ident | QuotedIdent | String) )?`
	Table       string                 `"ON" @(Ident | QuotedIdent | String)`
	Columns     []*indexColumnGrammar `"(" @@ ( "," @@ )* ")"`
	Where       []*termGrammar         `( "WHERE" @@+ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type indexColumnGrammar struct {
	Name  string         `@(Ident | QuotedIdent | String)`
	Terms []*termGrammar `@@*`
}

// termGrammar is one token of a column definition or constraint, or a
// parenthesized group that may contain commas.
//
//nolint:govet // participle grammar tags are not standard struct tags
type termGrammar struct {
	Word  *string           `  @(Ident | QuotedIdent | String | Number | Punct)`
	Group []*groupItemGrammar `| "(" @@* ")"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type groupItemGrammar struct {
	Word  *string           `  @(Ident | QuotedIdent | String | Number | Punct | Comma)`
	Group []*groupItemGrammar `| "(" @@* ")"`
}

// render reassembles a term the way it was written, minus whitespace
// inside groups.
func (t *termGrammar) render() string {
	if t.Word != nil {
		return *t.Word
	}
	return renderGroup(t.Group)
}

func renderGroup(items []*groupItemGrammar) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, item := range items {
		if item.Word != nil {
			sb.WriteString(*item.Word)
		} else {
			sb.WriteString(renderGroup(item.Group))
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// groupNames returns the leading identifier of each comma-separated part of
// a group, as in "(a, b DESC, c COLLATE nocase)".
func groupNames(items []*groupItemGrammar) []string {
	var names []string
	start := true
	for _, item := range items {
		if item.Word == nil {
			start = false
			continue
		}
		if *item.Word == "," {
			start = true
			continue
		}
		if start {
			names = append(names, unquote(*item.Word))
			start = false
		}
	}
	return names
}

// unquote strips SQL identifier or string quoting.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	switch first, last := s[0], s[len(s)-1]; {
	case first == '\'' && last == '\'':
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	case first == '"' && last == '"':
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	case first == '`' && last == '`':
		return strings.ReplaceAll(s[1:len(s)-1], "``", "`")
	case first == '[' && last == ']':
		return s[1 : len(s)-1]
	}
	return s
}
