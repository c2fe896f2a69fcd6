// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind"). Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and audit correlation",
		})
	}

	if strings.TrimSpace(p.Source.Workbook) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.workbook",
			Message:  "source requires a non-empty workbook path",
		})
	}

	if strings.TrimSpace(p.Artifacts.OutputDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "artifacts.output_dir",
			Message:  "output_dir must not be empty",
		})
	}
	if strings.TrimSpace(p.Artifacts.ProcessedDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "artifacts.processed_dir",
			Message:  "processed_dir must not be empty",
		})
	}

	if fy := p.Transform.FiscalYear; fy != 0 && (fy < 1900 || fy > 2200) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform.fiscal_year",
			Message:  fmt.Sprintf("fiscal year %d looks implausible; 0 selects the current year", fy),
		})
	}

	issues = append(issues, validateStorage(p.Storage)...)

	if p.Runtime.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must be >= 0 (0 selects the default)",
		})
	}

	return issues
}

// validateStorage validates storage configuration.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	// Known storage kinds. Unknown kinds are warnings (for forward
	// compatibility with additional registered backends).
	known := map[string]struct{}{
		"postgres": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage requires a non-empty dsn",
		})
	}

	return issues
}
