package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"budgetetl/internal/extract"
	"budgetetl/internal/metrics"
	"budgetetl/internal/sheet"
	"budgetetl/internal/transform"
)

// Extract reads the configured workbook, writes one raw_<sheet>.csv per
// sheet, and records the sheet inventory in extract_result.json.
func (r *Runner) Extract(ctx context.Context) error {
	if err := os.MkdirAll(r.cfg.Artifacts.ProcessedDir, 0o755); err != nil {
		return fmt.Errorf("create processed dir: %w", err)
	}

	_, res, err := extract.Workbook(r.cfg.Source.Workbook, r.cfg.Artifacts.OutputDir)
	if err != nil {
		return err
	}

	var extracted int64
	for _, info := range res.Info {
		extracted += int64(info.Rows)
	}
	metrics.RecordRows(r.cfg.Job, "extracted", extracted)

	return writeJSON(filepath.Join(r.cfg.Artifacts.OutputDir, ExtractResultName), res)
}

// Transform normalizes every extracted sheet: reads raw_<sheet>.csv, runs
// the cleaning chain, and writes transformed_<sheet>.csv plus the
// transform_result.json handoff.
func (r *Runner) Transform(ctx context.Context) error {
	var res extract.Result
	if err := readJSON(filepath.Join(r.cfg.Artifacts.OutputDir, ExtractResultName), &res); err != nil {
		return err
	}
	if err := os.MkdirAll(r.cfg.Artifacts.ProcessedDir, 0o755); err != nil {
		return fmt.Errorf("create processed dir: %w", err)
	}

	opt := transform.Options{
		FiscalYear: r.cfg.Transform.FiscalYear,
		Now:        r.now(),
	}

	out := TransformResult{Sheets: make(map[string]SheetTransform, len(res.Sheets))}
	var cleaned int64
	for _, name := range res.Sheets {
		info := res.Info[name]

		raw, err := sheet.ReadCSV(name, info.RawPath)
		if err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
		norm, err := transform.Normalize(raw, opt)
		if err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}

		path := filepath.Join(r.cfg.Artifacts.ProcessedDir, TransformedArtifactName(name))
		if err := sheet.WriteCSV(norm, path); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}

		out.Sheets[name] = SheetTransform{
			OriginalRows:   info.Rows,
			CleanedRows:    norm.NumRows(),
			NumericColumns: norm.NumericColumns(sheet.MetaColumns...),
			TotalColumns:   norm.NumColumns(),
			FilePath:       path,
		}
		cleaned += int64(norm.NumRows())
		log.Printf("transform: sheet=%q rows=%d columns=%d artifact=%s",
			name, norm.NumRows(), norm.NumColumns(), path)
	}
	metrics.RecordRows(r.cfg.Job, "cleaned", cleaned)

	return writeJSON(filepath.Join(r.cfg.Artifacts.ProcessedDir, TransformResultName), out)
}
