package schema

import (
	"strings"
)

// Affinity is the type affinity a column's declared type implies.
type Affinity int

// Affinity constants
const (
	AffinityBlob Affinity = iota
	AffinityText
	AffinityNumeric
	AffinityInteger
	AffinityReal
)

// DetermineAffinity determines the type affinity from a column type name.
//
// Rules, applied in order:
// 1. If the type contains "INT" -> INTEGER affinity
// 2. If the type contains "CHAR", "CLOB", or "TEXT" -> TEXT affinity
// 3. If the type contains "BLOB" or no type specified -> BLOB affinity
// 4. If the type contains "REAL", "FLOA", or "DOUB" -> REAL affinity
// 5. Otherwise -> NUMERIC affinity
func DetermineAffinity(typeName string) Affinity {
	if typeName == "" {
		return AffinityBlob
	}

	upper := strings.ToUpper(typeName)
	switch {
	case strings.Contains(upper, "INT"):
		return AffinityInteger
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "CLOB"), strings.Contains(upper, "TEXT"):
		return AffinityText
	case strings.Contains(upper, "BLOB"):
		return AffinityBlob
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"), strings.Contains(upper, "DOUB"):
		return AffinityReal
	}
	return AffinityNumeric
}

// IsNumeric reports whether the affinity is NUMERIC, INTEGER or REAL.
func (a Affinity) IsNumeric() bool {
	return a == AffinityNumeric || a == AffinityInteger || a == AffinityReal
}

func (a Affinity) String() string {
	switch a {
	case AffinityText:
		return "TEXT"
	case AffinityNumeric:
		return "NUMERIC"
	case AffinityInteger:
		return "INTEGER"
	case AffinityReal:
		return "REAL"
	case AffinityBlob:
		return "BLOB"
	}
	return "UNKNOWN"
}
