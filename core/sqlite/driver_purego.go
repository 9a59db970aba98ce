//go:build !cgo_sqlite

package sqlite

import (
	_ "modernc.org/sqlite" // pure Go reference engine
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)
