// Package aggregate computes per-sheet summary statistics over the wide
// normalized form, before unpivoting. Zeros count here even though the fact
// grain skips them, so the summary reflects the sheet as extracted.
package aggregate

import (
	"time"

	"budgetetl/internal/sheet"
)

// SheetSummary is one sheet's entry in the run's summary report and the
// budget_summary table. NumericColumnsCount appears only in the JSON report;
// the table has no column for it.
type SheetSummary struct {
	SheetName           string    `json:"sheet_name"`
	FiscalYear          int       `json:"fiscal_year"`
	TotalRecords        int       `json:"total_records"`
	NumericColumnsCount int       `json:"numeric_columns_count"`
	TotalBudgetAmount   float64   `json:"total_budget_amount"`
	MaxBudgetItem       float64   `json:"max_budget_item"`
	MinBudgetItem       float64   `json:"min_budget_item"`
	AverageBudgetItem   float64   `json:"average_budget_item"`
	ProcessingDate      time.Time `json:"processing_date"`
}

// Columns is the budget_summary insert column order.
var Columns = []string{
	"sheet_name",
	"fiscal_year",
	"total_records",
	"total_budget_amount",
	"max_budget_item",
	"min_budget_item",
	"average_budget_item",
	"processing_date",
}

// Values returns the summary in Columns order for insertion.
func (s SheetSummary) Values() []any {
	return []any{
		s.SheetName,
		s.FiscalYear,
		s.TotalRecords,
		s.TotalBudgetAmount,
		s.MaxBudgetItem,
		s.MinBudgetItem,
		s.AverageBudgetItem,
		s.ProcessingDate,
	}
}

// Summarize flattens every numeric cell of the sheet (metadata columns
// excluded) into one population and computes total, max, min, and mean over
// it. TotalRecords is always the row count, even for sheets with no numeric
// columns, where the four statistics stay zero.
func Summarize(t sheet.Table, fiscalYear int, processingDate time.Time) SheetSummary {
	s := SheetSummary{
		SheetName:      t.Name,
		FiscalYear:     fiscalYear,
		TotalRecords:   t.NumRows(),
		ProcessingDate: processingDate,
	}

	numeric := t.NumericColumns(sheet.MetaColumns...)
	s.NumericColumnsCount = len(numeric)
	var count int
	for _, col := range numeric {
		for _, row := range t.Rows {
			v, ok := row.Float(col)
			if !ok {
				continue
			}
			if count == 0 {
				s.MaxBudgetItem = v
				s.MinBudgetItem = v
			} else {
				if v > s.MaxBudgetItem {
					s.MaxBudgetItem = v
				}
				if v < s.MinBudgetItem {
					s.MinBudgetItem = v
				}
			}
			s.TotalBudgetAmount += v
			count++
		}
	}
	if count > 0 {
		s.AverageBudgetItem = s.TotalBudgetAmount / float64(count)
	}
	return s
}
