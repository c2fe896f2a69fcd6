package builtin

import (
	"strconv"
	"strings"

	"budgetetl/internal/sheet"
)

// currencyStripper removes the currency symbols, thousands separators, and
// whitespace seen in municipal budget exports before numeric parsing.
var currencyStripper = strings.NewReplacer(
	"\u20ac", "",
	"$", "",
	"\u00a3", "",
	",", "",
	" ", "",
	"\u00a0", "", // NBSP shows up in European exports
	"\t", "",
)

// CoerceNumeric converts text columns to float64 where the whole column
// parses. Conversion is all-or-nothing per column: one unparseable non-empty
// cell leaves the entire column as text, so a column is never mixed-typed.
// Empty cells do not veto conversion; they stay nil for the fill step.
type CoerceNumeric struct{}

// Apply returns a table with parseable text columns replaced by numeric ones.
func (CoerceNumeric) Apply(t sheet.Table) (sheet.Table, error) {
	out := t.Clone()
	for _, col := range out.Columns {
		coerceColumn(&out, col)
	}
	return out, nil
}

// coerceColumn converts one column in place when every non-empty cell parses.
func coerceColumn(t *sheet.Table, col string) {
	parsed := make([]any, len(t.Rows))
	hasValue := false
	for i, r := range t.Rows {
		v, ok := r[col]
		if !ok || v == nil {
			parsed[i] = nil
			continue
		}
		switch cell := v.(type) {
		case float64:
			parsed[i] = cell
			hasValue = true
		case string:
			if strings.TrimSpace(cell) == "" {
				parsed[i] = nil
				continue
			}
			f, ok := ParseAmount(cell)
			if !ok {
				return
			}
			parsed[i] = f
			hasValue = true
		default:
			return
		}
	}
	if !hasValue {
		return
	}
	for i, r := range t.Rows {
		r[col] = parsed[i]
	}
}

// ParseAmount parses one currency-like cell: surrounding whitespace, currency
// symbols, and thousands separators are stripped before the float parse.
func ParseAmount(s string) (float64, bool) {
	s = currencyStripper.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
