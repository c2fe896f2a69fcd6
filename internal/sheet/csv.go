package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"budgetetl/pkg/records"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// WriteCSV persists a table as a UTF-8 CSV artifact at path: one header row
// followed by one row per record in column order. nil cells become empty
// fields; numeric cells use the shortest exact decimal form.
func WriteCSV(t Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		f.Close()
		return fmt.Errorf("write header %s: %w", path, err)
	}
	row := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, c := range t.Columns {
			row[i] = records.AsString(r[c])
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write row %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV loads a CSV artifact back into a table named name. Every cell comes
// back as a string; empty fields become nil so downstream fill logic sees
// them as missing. Rows wider or narrower than the header are fitted to the
// header width. A file without a usable header row is a fatal error: the
// artifact is not tabular.
func ReadCSV(name, path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF || (err == nil && len(header) == 0) {
		return Table{}, fmt.Errorf("%s: no header row", path)
	}
	if err != nil {
		return Table{}, fmt.Errorf("read header %s: %w", path, err)
	}
	header = stripHeaderBOM(header)
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}

	t := New(name, cols)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read row %s: %w", path, err)
		}
		rec = fitRowToWidth(rec, len(cols))
		row := make(records.Record, len(cols))
		for i, c := range cols {
			if rec[i] == "" {
				row[c] = nil
			} else {
				row[c] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// stripHeaderBOM removes a UTF-8 BOM from the first header cell if present.
func stripHeaderBOM(headers []string) []string {
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	return headers
}

// fitRowToWidth truncates or pads a CSV record to exactly n fields.
func fitRowToWidth(row []string, n int) []string {
	if len(row) == n {
		return row
	}
	cp := make([]string, n)
	copy(cp, row)
	return cp
}
