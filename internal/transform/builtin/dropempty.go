// Package builtin contains the reusable per-sheet cleaning steps composed by
// the transform chain.
package builtin

import (
	"budgetetl/internal/sheet"
	"budgetetl/pkg/records"
)

// DropEmpty removes rows in which every cell is empty, then columns in which
// every cell is empty. Empty means nil or a blank string.
type DropEmpty struct{}

// Apply returns a table without all-empty rows and columns. Column order is
// preserved for the survivors.
func (DropEmpty) Apply(t sheet.Table) (sheet.Table, error) {
	kept := sheet.New(t.Name, t.Columns)
	for _, r := range t.Rows {
		if rowEmpty(r, t.Columns) {
			continue
		}
		kept.Rows = append(kept.Rows, r.Clone())
	}

	var cols []string
	for _, c := range kept.Columns {
		if !columnEmpty(kept.Rows, c) {
			cols = append(cols, c)
		}
	}
	out := sheet.New(t.Name, cols)
	for _, r := range kept.Rows {
		row := make(records.Record, len(cols))
		for _, c := range cols {
			row[c] = r[c]
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func rowEmpty(r records.Record, cols []string) bool {
	for _, c := range cols {
		if !r.Empty(c) {
			return false
		}
	}
	return true
}

func columnEmpty(rows []records.Record, col string) bool {
	if len(rows) == 0 {
		// Headers with no data rows carry no information either way; keep them.
		return false
	}
	for _, r := range rows {
		if !r.Empty(col) {
			return false
		}
	}
	return true
}
