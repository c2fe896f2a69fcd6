package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"budgetetl/internal/config"
	"budgetetl/internal/extract"
	"budgetetl/internal/sheet"
	"budgetetl/internal/storage"
	"budgetetl/pkg/records"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeRepo captures every Exec and CopyFrom for assertions.
type fakeRepo struct {
	execSQL  []string
	execArgs [][]any
	execErr  error

	copies  map[string][][]any
	copyErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{copies: map[string][][]any{}}
}

func (f *fakeRepo) Exec(_ context.Context, sql string, args ...any) error {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return f.execErr
}

func (f *fakeRepo) CopyFrom(_ context.Context, table string, _ []string, rows [][]any) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.copies[table] = append(f.copies[table], rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Close() {}

// auditStatuses extracts the status argument of every audit insert.
func (f *fakeRepo) auditStatuses() []string {
	var out []string
	for i, sql := range f.execSQL {
		if strings.Contains(sql, "etl_audit") {
			out = append(out, f.execArgs[i][3].(string))
		}
	}
	return out
}

/*
newTestRunner seeds a workspace the way the extract stage would: two raw CSV
artifacts plus extract_result.json. The Operating sheet is the canonical
3-row scenario (amounts 100, 0, 50); the Notes sheet has no numeric data.
The runner's clock and repository are pinned.
*/
func newTestRunner(t *testing.T, repo storage.Repository) *Runner {
	t.Helper()

	dir := t.TempDir()
	var cfg config.Pipeline
	cfg.Job = "budget-test"
	cfg.Source.Workbook = filepath.Join(dir, "Budget_municipal.xlsx")
	cfg.Artifacts.OutputDir = filepath.Join(dir, "output")
	cfg.Artifacts.ProcessedDir = filepath.Join(dir, "processed")
	cfg.Transform.FiscalYear = 2025
	cfg.Storage.Kind = "postgres"
	cfg.Runtime.BatchSize = 2

	for _, d := range []string{cfg.Artifacts.OutputDir, cfg.Artifacts.ProcessedDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	operating := sheet.Table{
		Name:    "Operating",
		Columns: []string{"Amount", "Category"},
		Rows: []records.Record{
			{"Amount": "100", "Category": "A"},
			{"Amount": "0", "Category": "Unknown"},
			{"Amount": "50", "Category": "C"},
		},
	}
	notes := sheet.Table{
		Name:    "Notes",
		Columns: []string{"comment"},
		Rows: []records.Record{
			{"comment": "draft"},
			{"comment": "final"},
		},
	}

	res := extract.Result{
		ExtractionTimestamp: fixedNow,
		Info:                map[string]extract.SheetInfo{},
	}
	for _, tbl := range []sheet.Table{operating, notes} {
		raw := filepath.Join(cfg.Artifacts.OutputDir, extract.RawArtifactName(tbl.Name))
		if err := sheet.WriteCSV(tbl, raw); err != nil {
			t.Fatal(err)
		}
		res.Sheets = append(res.Sheets, tbl.Name)
		res.Info[tbl.Name] = extract.SheetInfo{
			Rows:        tbl.NumRows(),
			Columns:     tbl.NumColumns(),
			ColumnsList: tbl.Columns,
			RawPath:     raw,
		}
	}
	if err := writeJSON(filepath.Join(cfg.Artifacts.OutputDir, ExtractResultName), res); err != nil {
		t.Fatal(err)
	}

	r := New(cfg, "manual__2025-06-01T12:00:00Z")
	r.now = func() time.Time { return fixedNow }
	r.openRepo = func(context.Context) (storage.Repository, error) { return repo, nil }
	return r
}

/*
TestTransformLoadValidate drives the three artifact-coupled stages end to end
against a fake repository and checks:

  - the Operating sheet contributes exactly two facts (zero amount skipped),
  - the Notes sheet contributes exactly one placeholder fact,
  - one summary row per sheet is inserted,
  - a SUCCESS audit row carries the loaded count,
  - the run report and validation report land on disk with SUCCESS status.
*/
func TestTransformLoadValidate(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := newTestRunner(t, repo)
	ctx := context.Background()

	if err := r.Transform(ctx); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if err := r.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	facts := repo.copies[storage.FactTable]
	if len(facts) != 3 {
		t.Fatalf("fact rows = %d, want 3 (2 Operating + 1 Notes placeholder)", len(facts))
	}

	// Fact column order: sheet_source, fiscal_year, processed_date,
	// budget_category, budget_item, budget_amount, ...
	var amounts []float64
	var placeholders int
	for _, row := range facts {
		if row[1] != 2025 {
			t.Fatalf("fiscal_year = %v, want 2025", row[1])
		}
		amounts = append(amounts, row[5].(float64))
		if row[8] == "GENERAL" {
			placeholders++
			if row[4] != "Item from Notes" {
				t.Fatalf("placeholder item = %v", row[4])
			}
		}
	}
	if placeholders != 1 {
		t.Fatalf("placeholders = %d, want 1", placeholders)
	}
	var sum float64
	for _, a := range amounts {
		sum += a
	}
	if sum != 150.0 {
		t.Fatalf("fact amount sum = %v, want 150 (100+50+0)", sum)
	}

	if n := len(repo.copies[storage.SummaryTable]); n != 2 {
		t.Fatalf("summary rows = %d, want 2", n)
	}

	statuses := repo.auditStatuses()
	if len(statuses) != 1 || statuses[0] != storage.StatusSuccess {
		t.Fatalf("audit statuses = %v, want [SUCCESS]", statuses)
	}

	var report RunReport
	if err := readJSON(filepath.Join(r.cfg.Artifacts.ProcessedDir, SummaryReportName), &report); err != nil {
		t.Fatalf("run report: %v", err)
	}
	if report.TotalSheetsProcessed != 2 || report.TotalRecordsLoaded != 3 {
		t.Fatalf("report totals = %+v", report)
	}
	if report.TotalRecordsProcessed != 5 {
		t.Fatalf("TotalRecordsProcessed = %d, want 5 (3+2 cleaned rows)", report.TotalRecordsProcessed)
	}
	if report.SheetsSummary["Operating"].TotalBudgetAmount != 150.0 {
		t.Fatalf("Operating summary = %+v", report.SheetsSummary["Operating"])
	}

	// Two sheets: the combined dataset must exist.
	if _, err := os.Stat(filepath.Join(r.cfg.Artifacts.ProcessedDir, CombinedArtifactName)); err != nil {
		t.Fatalf("combined artifact: %v", err)
	}

	if err := r.Validate(ctx); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	var vr ValidationReport
	if err := readJSON(filepath.Join(r.cfg.Artifacts.ProcessedDir, ValidationReportName), &vr); err != nil {
		t.Fatalf("validation report: %v", err)
	}
	if vr.Status != ValidationSuccess {
		t.Fatalf("validation status = %s, issues = %v", vr.Status, vr.IssuesFound)
	}
	if len(vr.IssuesFound) != 0 {
		t.Fatalf("issues = %v", vr.IssuesFound)
	}
}

/*
TestLoadFailureAudit forces the COPY to fail and checks the contract: the
original error is returned, a FAILED audit row carrying that message was
attempted, and an audit insert failure on top of it is swallowed.
*/
func TestLoadFailureAudit(t *testing.T) {
	t.Parallel()

	copyErr := errors.New("copy into budget_data: boom")

	repo := newFakeRepo()
	repo.copyErr = copyErr
	repo.execErr = errors.New("audit table missing")

	r := newTestRunner(t, repo)
	ctx := context.Background()

	if err := r.Transform(ctx); err != nil {
		t.Fatalf("Transform: %v", err)
	}

	err := r.Load(ctx)
	if !errors.Is(err, copyErr) {
		t.Fatalf("Load error = %v, want the original copy error", err)
	}

	statuses := repo.auditStatuses()
	if len(statuses) != 1 || statuses[0] != storage.StatusFailed {
		t.Fatalf("audit statuses = %v, want [FAILED]", statuses)
	}
	// The FAILED row must carry the original message.
	if msg, ok := repo.execArgs[0][5].(string); !ok || !strings.Contains(msg, "boom") {
		t.Fatalf("audit error message = %v", repo.execArgs[0][5])
	}
}

/*
TestLoadFiscalYearOverride sets a fiscal year different from the run clock's
and checks that facts and summary rows agree on it: both tables must carry
the override so they stay correlated through fiscal_year.
*/
func TestLoadFiscalYearOverride(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := newTestRunner(t, repo)
	r.cfg.Transform.FiscalYear = 2030 // run clock stays pinned to 2025
	ctx := context.Background()

	if err := r.Transform(ctx); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if err := r.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, row := range repo.copies[storage.FactTable] {
		if row[1] != 2030 {
			t.Fatalf("fact fiscal_year = %v, want 2030", row[1])
		}
	}
	summaries := repo.copies[storage.SummaryTable]
	if len(summaries) != 2 {
		t.Fatalf("summary rows = %d, want 2", len(summaries))
	}
	for _, row := range summaries {
		if row[1] != 2030 {
			t.Fatalf("summary fiscal_year = %v, want 2030", row[1])
		}
	}
}

// TestValidateWithoutExtractResult checks that a missing extract handoff
// leaves the run clock, not the zero time, as the report's start time.
func TestValidateWithoutExtractResult(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := newTestRunner(t, repo)
	ctx := context.Background()

	if err := r.Transform(ctx); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if err := r.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := os.Remove(filepath.Join(r.cfg.Artifacts.OutputDir, ExtractResultName)); err != nil {
		t.Fatal(err)
	}

	if err := r.Validate(ctx); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	var vr ValidationReport
	if err := readJSON(filepath.Join(r.cfg.Artifacts.ProcessedDir, ValidationReportName), &vr); err != nil {
		t.Fatal(err)
	}
	if !vr.ETLStartTime.Equal(fixedNow) {
		t.Fatalf("ETLStartTime = %v, want the run clock %v", vr.ETLStartTime, fixedNow)
	}
}

// TestLoadNotIdempotent documents that re-running load without init-schema
// appends the same facts again.
func TestLoadNotIdempotent(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := newTestRunner(t, repo)
	ctx := context.Background()

	if err := r.Transform(ctx); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if err := r.Load(ctx); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if err := r.Load(ctx); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if n := len(repo.copies[storage.FactTable]); n != 6 {
		t.Fatalf("fact rows after double load = %d, want 6", n)
	}
}

// TestValidateDegradesStatus removes an artifact and zeroes the processed
// count, expecting WARNING and then ERROR.
func TestValidateDegradesStatus(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := newTestRunner(t, repo)
	ctx := context.Background()

	if err := r.Transform(ctx); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if err := r.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Remove one expected artifact: status degrades to WARNING.
	if err := os.Remove(filepath.Join(r.cfg.Artifacts.OutputDir, extract.RawArtifactName("Notes"))); err != nil {
		t.Fatal(err)
	}
	if err := r.Validate(ctx); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	var vr ValidationReport
	if err := readJSON(filepath.Join(r.cfg.Artifacts.ProcessedDir, ValidationReportName), &vr); err != nil {
		t.Fatal(err)
	}
	if vr.Status != ValidationWarning {
		t.Fatalf("status = %s, want WARNING", vr.Status)
	}

	// Remove the run report: zero records processed escalates to ERROR.
	if err := os.Remove(filepath.Join(r.cfg.Artifacts.ProcessedDir, SummaryReportName)); err != nil {
		t.Fatal(err)
	}
	if err := r.Validate(ctx); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := readJSON(filepath.Join(r.cfg.Artifacts.ProcessedDir, ValidationReportName), &vr); err != nil {
		t.Fatal(err)
	}
	if vr.Status != ValidationError {
		t.Fatalf("status = %s, want ERROR", vr.Status)
	}
}

// TestRunStageUnknown rejects stage names outside the fixed set.
func TestRunStageUnknown(t *testing.T) {
	t.Parallel()

	r := newTestRunner(t, newFakeRepo())
	if err := r.RunStage(context.Background(), "reticulate"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

// TestInitSchemaUsesRegistry confirms init-schema resolves the bootstrapper
// through the storage registry for the configured kind.
func TestInitSchemaUsesRegistry(t *testing.T) {
	repo := newFakeRepo()
	r := newTestRunner(t, repo)
	r.cfg.Storage.Kind = "pipelinetest"

	called := false
	storage.RegisterDDL("pipelinetest", func(_ context.Context, got storage.Repository) error {
		called = true
		if got != storage.Repository(repo) {
			t.Fatal("bootstrapper received a different repository")
		}
		return nil
	})

	if err := r.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	if !called {
		t.Fatal("bootstrapper was not invoked")
	}
}
