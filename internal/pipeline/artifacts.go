package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"budgetetl/internal/aggregate"
)

// Artifact file names. Stage handoff happens through these files so each
// stage can be invoked standalone by an external scheduler.
const (
	ExtractResultName    = "extract_result.json"
	TransformResultName  = "transform_result.json"
	SummaryReportName    = "budget_summary_report.json"
	ValidationReportName = "etl_validation_report.json"
	CombinedArtifactName = "combined_municipal_budget.csv"
)

// TransformedArtifactName returns the cleaned CSV file name for a sheet.
func TransformedArtifactName(sheetName string) string {
	return "transformed_" + sheetName + ".csv"
}

// SheetTransform summarizes one sheet's normalization for the load stage.
type SheetTransform struct {
	OriginalRows   int      `json:"original_rows"`
	CleanedRows    int      `json:"cleaned_rows"`
	NumericColumns []string `json:"numeric_columns"`
	TotalColumns   int      `json:"total_columns"`
	FilePath       string   `json:"file_path"`
}

// TransformResult is the transform stage's handoff artifact.
type TransformResult struct {
	Sheets map[string]SheetTransform `json:"sheets"`
}

// RunReport is the overall summary persisted as budget_summary_report.json.
type RunReport struct {
	ProcessingDate        time.Time                         `json:"processing_date"`
	TotalSheetsProcessed  int                               `json:"total_sheets_processed"`
	TotalRecordsProcessed int                               `json:"total_records_processed"`
	TotalRecordsLoaded    int64                             `json:"total_records_loaded_to_db"`
	SheetsSummary         map[string]aggregate.SheetSummary `json:"sheets_summary"`
}

// Validation statuses, ordered by severity.
const (
	ValidationSuccess = "SUCCESS"
	ValidationWarning = "WARNING"
	ValidationError   = "ERROR"
)

// ValidationReport is the terminal stage's output. It reports, never aborts.
type ValidationReport struct {
	ETLStartTime    time.Time `json:"etl_start_time"`
	ETLEndTime      time.Time `json:"etl_end_time"`
	Status          string    `json:"status"`
	ChecksPerformed []string  `json:"checks_performed"`
	IssuesFound     []string  `json:"issues_found"`
}

// writeJSON marshals v with indentation so the artifacts stay diffable.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
