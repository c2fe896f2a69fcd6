package builtin

import (
	"budgetetl/internal/sheet"
)

// TextFillValue replaces missing cells in text columns.
const TextFillValue = "Unknown"

// FillMissing replaces missing cells by column type: numeric columns get 0,
// text columns get "Unknown". A column counts as numeric here when every
// present cell is a float64 (budget amounts after coercion); everything else
// is text. Columns listed in TextExclude are left untouched.
type FillMissing struct {
	TextExclude []string
}

// Apply returns a table with no nil or blank cells outside excluded columns.
func (f FillMissing) Apply(t sheet.Table) (sheet.Table, error) {
	skip := make(map[string]struct{}, len(f.TextExclude))
	for _, c := range f.TextExclude {
		skip[c] = struct{}{}
	}

	out := t.Clone()
	for _, col := range out.Columns {
		if _, ok := skip[col]; ok {
			continue
		}
		if numericWithGaps(out, col) {
			for _, r := range out.Rows {
				if r[col] == nil {
					r[col] = 0.0
				}
			}
			continue
		}
		for _, r := range out.Rows {
			if r.Empty(col) {
				r[col] = TextFillValue
			}
		}
	}
	return out, nil
}

// numericWithGaps reports whether a column is numeric apart from missing
// cells: at least one float64 and no non-nil non-float cells.
func numericWithGaps(t sheet.Table, col string) bool {
	seen := false
	for _, r := range t.Rows {
		v, ok := r[col]
		if !ok || v == nil {
			continue
		}
		if _, isNum := v.(float64); !isNum {
			return false
		}
		seen = true
	}
	return seen
}
