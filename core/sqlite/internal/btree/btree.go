// Package btree parses b-tree pages and their cells and walks table b-trees.
package btree

import (
	"fmt"
	"log/slog"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/internal/logging"
)

// PageSource supplies raw pages by 1-based page number.
type PageSource interface {
	ReadPage(n uint32) ([]byte, error)
	UsableSize() int
}

// loggingSource is implemented by page sources that carry their own logger.
type loggingSource interface {
	Logger() *slog.Logger
}

// RowFilter decides whether a table row is kept. A nil filter keeps every row.
type RowFilter func(TableLeafCell) bool

// LoadPage reads page n from src and parses it.
func LoadPage(src PageSource, n uint32) (*Page, error) {
	raw, err := src.ReadPage(n)
	if err != nil {
		return nil, err
	}
	return ParsePage(n, raw, src.UsableSize())
}

// Walk returns the rows of the table b-tree rooted at root that pass keep,
// in leaf visitation order.
func Walk(src PageSource, root uint32, keep RowFilter) ([]TableLeafCell, error) {
	var rows []TableLeafCell
	err := WalkFunc(src, root, func(row TableLeafCell) error {
		if keep == nil || keep(row) {
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WalkFunc visits the table b-tree rooted at root level by level. Interior
// pages contribute their left children then their right-most child to the
// next level; fn is called for every row of each leaf page in pointer order.
// Reaching an index page is a catalog bug and panics.
func WalkFunc(src PageSource, root uint32, fn func(TableLeafCell) error) error {
	logger := logging.GetLogger()
	if ls, ok := src.(loggingSource); ok {
		logger = ls.Logger()
	}

	seen := map[uint32]bool{root: true}
	frontier := []uint32{root}
	for level := 0; len(frontier) > 0; level++ {
		logging.TraversalStep(logger, root, level, len(frontier))

		var next []uint32
		for _, n := range frontier {
			page, err := LoadPage(src, n)
			if err != nil {
				return errors.Wrapf(err, "walking table root %d", root)
			}
			logging.PageRead(logger, n, page.Type.String(), int(page.NumCells))

			switch page.Type {
			case PageTypeInteriorTable:
				children, err := page.Children()
				if err != nil {
					return err
				}
				for _, child := range children {
					if child == 0 || seen[child] {
						return errors.NewDecode(fmt.Sprintf("page %d child pointer", n), -1,
							errors.Wrapf(errors.ErrCorruptTree, "child page %d", child))
					}
					seen[child] = true
					next = append(next, child)
				}
			case PageTypeLeafTable:
				for i := range page.CellPointers {
					data, err := page.CellBytes(i)
					if err != nil {
						return err
					}
					row, err := ParseTableLeafCell(data, page.usable, src)
					if err != nil {
						return errors.Wrapf(err, "page %d cell %d", n, i)
					}
					if err := fn(row); err != nil {
						return err
					}
				}
			case PageTypeInteriorIndex, PageTypeLeafIndex:
				panic(fmt.Sprintf("btree: %s page %d reached while walking table root %d", page.Type, n, root))
			}
		}
		frontier = next
	}
	return nil
}

// Count returns the number of rows in the table b-tree rooted at root that pass keep.
func Count(src PageSource, root uint32, keep RowFilter) (int, error) {
	count := 0
	err := WalkFunc(src, root, func(row TableLeafCell) error {
		if keep == nil || keep(row) {
			count++
		}
		return nil
	})
	return count, err
}
