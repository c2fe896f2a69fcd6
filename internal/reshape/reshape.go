// Package reshape unpivots normalized wide sheets into the canonical fact
// schema: one fact row per (row, numeric column) pair with a present,
// non-zero value. Column semantics are traded for a uniform schema queryable
// by category, department, and account across heterogeneous source sheets.
package reshape

import (
	"fmt"
	"time"

	"budgetetl/internal/sheet"
)

// Meta carries the run metadata stamped onto every fact row. ProcessedDate is
// a real time so pgx can encode it into the DATE column.
type Meta struct {
	FiscalYear    int
	ProcessedDate time.Time
}

// FactRow is the canonical persisted unit.
type FactRow struct {
	SheetSource       string
	FiscalYear        int
	ProcessedDate     time.Time
	BudgetCategory    string
	BudgetItem        string
	BudgetAmount      float64
	BudgetDescription string
	Department        string
	AccountCode       string
}

// FactColumns is the budget_data insert column order.
var FactColumns = []string{
	"sheet_source",
	"fiscal_year",
	"processed_date",
	"budget_category",
	"budget_item",
	"budget_amount",
	"budget_description",
	"department",
	"account_code",
}

// Values returns the row in FactColumns order for bulk insertion.
func (f FactRow) Values() []any {
	return []any{
		f.SheetSource,
		f.FiscalYear,
		f.ProcessedDate,
		f.BudgetCategory,
		f.BudgetItem,
		f.BudgetAmount,
		f.BudgetDescription,
		f.Department,
		f.AccountCode,
	}
}

// defaultCategory and defaultDepartment fill roles no column mapped onto.
const (
	defaultCategory   = "General"
	defaultDepartment = "Municipal"
)

// Unpivot expands a normalized sheet into fact rows. Metadata columns are
// never fact sources. Zero and missing values are skipped: they carry no
// budget information at the fact grain (the aggregator still sees them in the
// wide form). A sheet with no numeric columns yields exactly one placeholder
// row so the sheet remains visible downstream.
func Unpivot(t sheet.Table, meta Meta) []FactRow {
	numeric := t.NumericColumns(sheet.MetaColumns...)
	if len(numeric) == 0 {
		return []FactRow{placeholder(t.Name, meta)}
	}

	mapping := MapColumns(numeric)
	var facts []FactRow
	for idx, row := range t.Rows {
		for _, col := range numeric {
			v, ok := row.Float(col)
			if !ok || v == 0 {
				continue
			}
			role, mapped := mapping[col]
			category := defaultCategory
			item := col
			if mapped {
				category = string(role)
				item = fmt.Sprintf("%s_%d", col, idx)
			}
			facts = append(facts, FactRow{
				SheetSource:       t.Name,
				FiscalYear:        meta.FiscalYear,
				ProcessedDate:     meta.ProcessedDate,
				BudgetCategory:    category,
				BudgetItem:        item,
				BudgetAmount:      v,
				BudgetDescription: fmt.Sprintf("Budget item from %s", col),
				Department:        defaultDepartment,
				AccountCode:       fmt.Sprintf("ACC_%d_%s", idx, truncate(col, 10)),
			})
		}
	}
	return facts
}

// placeholder is the single fact row emitted for sheets that contribute no
// numeric columns at all.
func placeholder(sheetName string, meta Meta) FactRow {
	return FactRow{
		SheetSource:       sheetName,
		FiscalYear:        meta.FiscalYear,
		ProcessedDate:     meta.ProcessedDate,
		BudgetCategory:    defaultCategory,
		BudgetItem:        fmt.Sprintf("Item from %s", sheetName),
		BudgetAmount:      0,
		BudgetDescription: fmt.Sprintf("Non-numeric data from sheet %s", sheetName),
		Department:        defaultDepartment,
		AccountCode:       "GENERAL",
	}
}

// truncate shortens a column name to at most n runes for account codes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
