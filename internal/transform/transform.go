// Package transform implements per-sheet normalization as an ordered chain of
// builtin steps: empty-row/column removal, header canonicalization, currency
// coercion, missing-value fill, and metadata stamping.
//
// After Normalize, every column is homogeneously typed (all-float64 or
// all-string) and no cell is nil or blank.
package transform

import (
	"fmt"
	"time"

	"budgetetl/internal/sheet"
	"budgetetl/internal/transform/builtin"
)

// Step is a single whole-table transformation. Steps never mutate their
// input; they return a derived table.
type Step interface {
	Apply(sheet.Table) (sheet.Table, error)
}

// Chain is an ordered list of steps.
type Chain []Step

// Apply runs each step in order, stopping at the first error.
func (c Chain) Apply(t sheet.Table) (sheet.Table, error) {
	out := t
	var err error
	for _, s := range c {
		if out, err = s.Apply(out); err != nil {
			return sheet.Table{}, err
		}
	}
	return out, nil
}

// Options carries run-scoped normalization settings.
type Options struct {
	// FiscalYear stamps every row; zero selects Now's year.
	FiscalYear int

	// Now is the run timestamp used for processed_date (and the fiscal year
	// fallback).
	Now time.Time
}

// EffectiveFiscalYear resolves the fiscal year with its wall-clock fallback.
func (o Options) EffectiveFiscalYear() int {
	if o.FiscalYear != 0 {
		return o.FiscalYear
	}
	return o.Now.Year()
}

// Normalize runs the full cleaning chain over one raw sheet.
func Normalize(t sheet.Table, opt Options) (sheet.Table, error) {
	if len(t.Columns) == 0 {
		return sheet.Table{}, fmt.Errorf("sheet %q: not tabular (no columns)", t.Name)
	}
	chain := Chain{
		builtin.DropEmpty{},
		builtin.CanonicalizeHeaders{},
		builtin.CoerceNumeric{},
		builtin.FillMissing{TextExclude: sheet.MetaColumns},
		builtin.StampMeta{
			ProcessedDate: opt.Now,
			FiscalYear:    opt.EffectiveFiscalYear(),
		},
	}
	out, err := chain.Apply(t)
	if err != nil {
		return sheet.Table{}, fmt.Errorf("normalize sheet %q: %w", t.Name, err)
	}
	return out, nil
}

// Retype restores column typing on a table read back from a CSV artifact,
// where every cell is a string. Columns that were numeric before the write
// parse cleanly and convert back to float64; text columns are left alone.
func Retype(t sheet.Table) (sheet.Table, error) {
	return builtin.CoerceNumeric{}.Apply(t)
}
