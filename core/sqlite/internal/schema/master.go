package schema

import (
	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/record"
)

// RootPage is the page number of the schema table's b-tree.
const RootPage = 1

// masterColumns is the number of columns in a schema table row.
const masterColumns = 5

// MasterRow is one decoded row of the schema table.
type MasterRow struct {
	RowID    uint64
	Type     string // "table", "index", "view" or "trigger"
	Name     string
	TblName  string
	RootPage uint32 // 0 when the object has no b-tree
	SQL      string // empty when stored as NULL
}

// DecodeMasterRow converts a schema table row into a MasterRow.
func DecodeMasterRow(cell btree.TableLeafCell) (MasterRow, error) {
	if len(cell.Values) < masterColumns {
		return MasterRow{}, errors.NewDecode("schema row", -1,
			errors.Wrapf(errors.ErrMalformedRecord, "row %d has %d columns, want %d", cell.RowID, len(cell.Values), masterColumns))
	}

	row := MasterRow{RowID: cell.RowID}
	fields := []struct {
		name string
		dst  *string
		v    record.Value
	}{
		{"type", &row.Type, cell.Values[0]},
		{"name", &row.Name, cell.Values[1]},
		{"tbl_name", &row.TblName, cell.Values[2]},
		{"sql", &row.SQL, cell.Values[4]},
	}
	for _, f := range fields {
		switch f.v.Type {
		case record.TypeText:
			*f.dst = f.v.Text
		case record.TypeNull:
		default:
			return MasterRow{}, errors.NewDecode("schema row "+f.name, -1,
				errors.Wrapf(errors.ErrMalformedRecord, "row %d: %s is %s, want text", cell.RowID, f.name, f.v.Type))
		}
	}

	switch root := cell.Values[3]; root.Type {
	case record.TypeNull:
	case record.TypeInteger:
		if root.Int < 0 || root.Int > int64(^uint32(0)) {
			return MasterRow{}, errors.NewDecode("schema row rootpage", -1,
				errors.Wrapf(errors.ErrMalformedRecord, "row %d: root page %d out of range", cell.RowID, root.Int))
		}
		row.RootPage = uint32(root.Int)
	default:
		return MasterRow{}, errors.NewDecode("schema row rootpage", -1,
			errors.Wrapf(errors.ErrMalformedRecord, "row %d: rootpage is %s, want integer", cell.RowID, root.Type))
	}
	return row, nil
}

// ReadMaster walks the schema table b-tree and decodes every row.
func ReadMaster(src btree.PageSource) ([]MasterRow, error) {
	var rows []MasterRow
	err := btree.WalkFunc(src, RootPage, func(cell btree.TableLeafCell) error {
		row, err := DecodeMasterRow(cell)
		if err != nil {
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading schema table")
	}
	return rows, nil
}
