package builtin

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"budgetetl/internal/sheet"
	"budgetetl/pkg/records"
)

var (
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CanonicalizeHeaders rewrites column labels into identifier form: Unicode
// NFC normalization, trimmed whitespace, non-word characters replaced by
// underscores, whitespace runs collapsed to a single underscore. Labels that
// collide after canonicalization get a numeric suffix so row keys stay
// unambiguous.
type CanonicalizeHeaders struct{}

// Apply returns a table with canonical column labels and re-keyed rows.
func (CanonicalizeHeaders) Apply(t sheet.Table) (sheet.Table, error) {
	seen := make(map[string]int, len(t.Columns))
	canon := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		name := CanonicalName(c)
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		canon[i] = name
	}

	out := sheet.New(t.Name, canon)
	for _, r := range t.Rows {
		row := make(records.Record, len(canon))
		for i, c := range t.Columns {
			row[canon[i]] = r[c]
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// CanonicalName converts one header label into canonical form. Visually
// identical labels in decomposed and composed Unicode forms canonicalize to
// the same name.
func CanonicalName(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	s = nonWordRe.ReplaceAllString(s, "_")
	s = whitespaceRe.ReplaceAllString(s, "_")
	if s == "" {
		return "col"
	}
	return s
}
