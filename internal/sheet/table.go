// Package sheet defines the tabular model passed between pipeline stages and
// the CSV codec used for inter-stage artifacts.
package sheet

import "budgetetl/pkg/records"

// Canonical metadata columns stamped onto every normalized sheet. They are
// carried to the database but excluded from unpivoting and aggregation.
const (
	ColSheetSource   = "sheet_source"
	ColProcessedDate = "processed_date"
	ColFiscalYear    = "fiscal_year"
)

// MetaColumns lists the stamped metadata columns in stamp order.
var MetaColumns = []string{ColSheetSource, ColProcessedDate, ColFiscalYear}

// Table is one tabular unit: a named, column-ordered set of rows. Cell values
// are nil, string, or float64. Stages treat tables as immutable and return
// new ones.
type Table struct {
	Name    string
	Columns []string
	Rows    []records.Record
}

// New returns an empty table with the given name and column order.
func New(name string, columns []string) Table {
	return Table{Name: name, Columns: columns}
}

// NumRows returns the row count.
func (t Table) NumRows() int { return len(t.Rows) }

// NumColumns returns the column count.
func (t Table) NumColumns() int { return len(t.Columns) }

// HasColumn reports whether name is one of the table's columns.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// IsNumeric reports whether every cell in the column is a float64. Empty
// tables and unknown columns are not numeric.
func (t Table) IsNumeric(col string) bool {
	if len(t.Rows) == 0 || !t.HasColumn(col) {
		return false
	}
	for _, r := range t.Rows {
		if _, ok := r[col].(float64); !ok {
			return false
		}
	}
	return true
}

// NumericColumns returns the numeric columns in column order, skipping any
// listed in exclude.
func (t Table) NumericColumns(exclude ...string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, c := range exclude {
		skip[c] = struct{}{}
	}
	var out []string
	for _, c := range t.Columns {
		if _, ok := skip[c]; ok {
			continue
		}
		if t.IsNumeric(c) {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy (per-row shallow copies of immutable cells).
func (t Table) Clone() Table {
	out := Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([]records.Record, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}
