package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"time"

	"budgetetl/internal/aggregate"
	"budgetetl/internal/metrics"
	"budgetetl/internal/reshape"
	"budgetetl/internal/sheet"
	"budgetetl/internal/storage"
	"budgetetl/internal/transform"
	"budgetetl/internal/transform/builtin"
	"budgetetl/pkg/records"
)

/*
Load is the persistence stage. Per sheet, in name order: read the transformed
CSV back, restore numeric typing, unpivot into fact rows, COPY the facts into
budget.budget_data in batches, and insert one budget_summary row. Afterwards
it writes combined_municipal_budget.csv (when more than one sheet) and the
budget_summary_report.json run report, then records a SUCCESS audit row.

On any persistence failure a FAILED audit row carrying the original error is
attempted; if even that write fails it is logged and swallowed so the primary
error is what the caller sees. Load is not idempotent on its own: re-running
it without init-schema appends the same facts again.
*/
func (r *Runner) Load(ctx context.Context) error {
	var res TransformResult
	if err := readJSON(filepath.Join(r.cfg.Artifacts.ProcessedDir, TransformResultName), &res); err != nil {
		return err
	}

	repo, err := r.openRepo(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	total, err := r.load(ctx, repo, res)
	if err != nil {
		r.writeAudit(ctx, repo, storage.AuditRecord{
			RunID:         r.runID,
			TaskID:        "load_data",
			ExecutionDate: r.now(),
			Status:        storage.StatusFailed,
			ErrorMessage:  err.Error(),
		})
		return err
	}

	r.writeAudit(ctx, repo, storage.AuditRecord{
		RunID:            r.runID,
		TaskID:           "load_data",
		ExecutionDate:    r.now(),
		Status:           storage.StatusSuccess,
		RecordsProcessed: int(total),
	})
	log.Printf("load: total_records_loaded=%d", total)
	return nil
}

func (r *Runner) load(ctx context.Context, repo storage.Repository, res TransformResult) (int64, error) {
	names := make([]string, 0, len(res.Sheets))
	for name := range res.Sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	now := r.now()
	report := RunReport{
		ProcessingDate:       now,
		TotalSheetsProcessed: len(names),
		SheetsSummary:        make(map[string]aggregate.SheetSummary, len(names)),
	}

	batchSize := r.cfg.Runtime.EffectiveBatchSize()
	var combined []sheet.Table
	var total int64

	for _, name := range names {
		info := res.Sheets[name]

		loaded, err := sheet.ReadCSV(name, info.FilePath)
		if err != nil {
			return total, fmt.Errorf("sheet %q: %w", name, err)
		}
		t, err := transform.Retype(loaded)
		if err != nil {
			return total, fmt.Errorf("sheet %q: %w", name, err)
		}
		combined = append(combined, t)
		report.TotalRecordsProcessed += info.CleanedRows

		meta := r.factMeta(t, now)
		facts := reshape.Unpivot(t, meta)
		rows := make([][]any, len(facts))
		for i, f := range facts {
			rows[i] = f.Values()
		}

		n, err := storage.LoadBatches(ctx, rows, batchSize, func(ctx context.Context, batch [][]any) (int64, error) {
			return repo.CopyFrom(ctx, storage.FactTable, reshape.FactColumns, batch)
		})
		total += n
		if err != nil {
			return total, fmt.Errorf("sheet %q: %w", name, err)
		}
		metrics.RecordRows(r.cfg.Job, "facts", int64(len(facts)))
		metrics.RecordRows(r.cfg.Job, "inserted", n)
		metrics.RecordBatches(r.cfg.Job, int64((len(rows)+batchSize-1)/batchSize))

		// Facts and the summary row must agree on the fiscal year, including
		// a configured override.
		summary := aggregate.Summarize(t, meta.FiscalYear, now)
		if _, err := repo.CopyFrom(ctx, storage.SummaryTable, aggregate.Columns, [][]any{summary.Values()}); err != nil {
			return total, fmt.Errorf("summary for %q: %w", name, err)
		}
		report.SheetsSummary[name] = summary

		log.Printf("load: sheet=%q facts=%d inserted=%d", name, len(facts), n)
	}
	report.TotalRecordsLoaded = total

	if len(combined) > 1 {
		path := filepath.Join(r.cfg.Artifacts.ProcessedDir, CombinedArtifactName)
		if err := sheet.WriteCSV(combineTables(combined), path); err != nil {
			return total, err
		}
		log.Printf("load: combined dataset saved to %s", path)
	}

	if err := writeJSON(filepath.Join(r.cfg.Artifacts.ProcessedDir, SummaryReportName), report); err != nil {
		return total, err
	}
	return total, nil
}

// writeAudit logs and swallows audit failures; an unreachable audit table
// must never mask the run's real outcome.
func (r *Runner) writeAudit(ctx context.Context, repo storage.Repository, rec storage.AuditRecord) {
	if err := storage.WriteAudit(ctx, repo, rec); err != nil {
		log.Printf("audit: could not insert %s row: %v", rec.Status, err)
	}
}

// factMeta prefers the metadata stamped onto the sheet's rows; an empty sheet
// falls back to the run values.
func (r *Runner) factMeta(t sheet.Table, now time.Time) reshape.Meta {
	opt := transform.Options{FiscalYear: r.cfg.Transform.FiscalYear, Now: now}
	m := reshape.Meta{
		FiscalYear:    opt.EffectiveFiscalYear(),
		ProcessedDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
	if t.NumRows() == 0 {
		return m
	}
	row := t.Rows[0]
	if fy, ok := row.Float(sheet.ColFiscalYear); ok {
		m.FiscalYear = int(fy)
	}
	if s := row.String(sheet.ColProcessedDate); s != "" {
		if d, err := time.Parse(builtin.DateLayout, s); err == nil {
			m.ProcessedDate = d
		}
	}
	return m
}

// combineTables concatenates sheets into one table, unioning columns in
// first-seen order. Cells absent from a source sheet stay empty.
func combineTables(tables []sheet.Table) sheet.Table {
	var cols []string
	seen := map[string]bool{}
	for _, t := range tables {
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}

	out := sheet.New("combined", cols)
	for _, t := range tables {
		for _, row := range t.Rows {
			merged := make(records.Record, len(cols))
			for _, c := range cols {
				merged[c] = row[c]
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}
