// Package extract reads the multi-sheet input workbook and materializes one
// raw CSV artifact per sheet for the transform stage.
package extract

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"budgetetl/internal/sheet"
	"budgetetl/pkg/records"
)

// SheetInfo describes one extracted sheet.
type SheetInfo struct {
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnsList []string `json:"columns_list"`
	RawPath     string   `json:"raw_path"`
	Checksum    string   `json:"checksum"`
}

// Result is the extract stage's handoff artifact: which sheets exist, their
// shapes, and where their raw CSVs were written.
type Result struct {
	ExtractionTimestamp time.Time            `json:"extraction_timestamp"`
	Sheets              []string             `json:"sheets"`
	Info                map[string]SheetInfo `json:"info"`
}

// RawArtifactName returns the raw CSV file name for a sheet.
func RawArtifactName(sheetName string) string {
	return "raw_" + sheetName + ".csv"
}

// Workbook opens the workbook at path, converts every sheet into a table
// (first row is the header), and writes raw_<sheet>.csv per sheet into
// outputDir. A missing or unreadable workbook is fatal.
func Workbook(path, outputDir string) (map[string]sheet.Table, *Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}

	res := &Result{
		ExtractionTimestamp: time.Now(),
		Info:                map[string]SheetInfo{},
	}
	tables := map[string]sheet.Table{}

	names := f.GetSheetList()
	log.Printf("extract: workbook=%s sheets=%d", path, len(names))

	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		t := tableFromRows(name, rows)

		rawPath := filepath.Join(outputDir, RawArtifactName(name))
		if err := sheet.WriteCSV(t, rawPath); err != nil {
			return nil, nil, fmt.Errorf("write raw artifact for %q: %w", name, err)
		}
		sum, err := sheet.Fingerprint(rawPath)
		if err != nil {
			return nil, nil, err
		}

		res.Sheets = append(res.Sheets, name)
		res.Info[name] = SheetInfo{
			Rows:        t.NumRows(),
			Columns:     t.NumColumns(),
			ColumnsList: t.Columns,
			RawPath:     rawPath,
			Checksum:    sum,
		}
		tables[name] = t
		log.Printf("extract: sheet=%q rows=%d columns=%d artifact=%s checksum=%s",
			name, t.NumRows(), t.NumColumns(), rawPath, sum)
	}
	return tables, res, nil
}

// tableFromRows converts raw cell rows into a table. The first row supplies
// headers; blank header cells get positional names. Data rows are fitted to
// the header width and blank cells become nil.
func tableFromRows(name string, rows [][]string) sheet.Table {
	if len(rows) == 0 {
		return sheet.New(name, nil)
	}
	header := rows[0]
	cols := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("unnamed_%d", i)
		}
		cols[i] = h
	}

	t := sheet.New(name, cols)
	for _, raw := range rows[1:] {
		row := make(records.Record, len(cols))
		for i, c := range cols {
			if i < len(raw) && strings.TrimSpace(raw[i]) != "" {
				row[c] = raw[i]
			} else {
				row[c] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
