// Package schema builds the read-only catalog of a database file from its
// schema table.
//
// The schema table is the table b-tree rooted at page 1. Every row describes
// one object:
//
//	CREATE TABLE sqlite_schema (
//	  type TEXT,      -- "table", "index", "view" or "trigger"
//	  name TEXT,      -- object name
//	  tbl_name TEXT,  -- table the object belongs to
//	  rootpage INT,   -- root b-tree page, 0 for views and triggers
//	  sql TEXT        -- CREATE statement, NULL for automatic indexes
//	);
//
// Load walks that b-tree, decodes each row into an Entry and resolves the
// CREATE TABLE and CREATE INDEX text into column lists with the sqlparser
// package:
//
//	cat, err := schema.Load(src)
//	if err != nil {
//	    return err
//	}
//	apples, ok := cat.GetTable("apples")
//
// # Type Affinity
//
// Declared column types map to one of five affinities using the rules from
// https://sqlite.org/datatype3.html:
//
//	schema.DetermineAffinity("VARCHAR(100)")  // AffinityText
//	schema.DetermineAffinity("INTEGER")       // AffinityInteger
//	schema.DetermineAffinity("DECIMAL(10,2)") // AffinityNumeric
//
// The catalog is built once and never modified, so it is safe for
// concurrent readers.
package schema
