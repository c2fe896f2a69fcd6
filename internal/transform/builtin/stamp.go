package builtin

import (
	"time"

	"budgetetl/internal/sheet"
	"budgetetl/pkg/records"
)

// DateLayout is the artifact and database form of processed_date.
const DateLayout = "2006-01-02"

// StampMeta appends the run metadata columns to every row: sheet_source (the
// sheet name), processed_date (the run date), and fiscal_year. fiscal_year is
// stored as float64 so the column stays numeric across artifact round trips.
type StampMeta struct {
	ProcessedDate time.Time
	FiscalYear    int
}

// Apply returns a table with the three metadata columns appended.
func (s StampMeta) Apply(t sheet.Table) (sheet.Table, error) {
	cols := append(append([]string(nil), t.Columns...), sheet.MetaColumns...)
	out := sheet.New(t.Name, cols)
	date := s.ProcessedDate.Format(DateLayout)
	for _, r := range t.Rows {
		row := make(records.Record, len(cols))
		for _, c := range t.Columns {
			row[c] = r[c]
		}
		row[sheet.ColSheetSource] = t.Name
		row[sheet.ColProcessedDate] = date
		row[sheet.ColFiscalYear] = float64(s.FiscalYear)
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
