// Package config defines the canonical, JSON-serializable configuration model
// for the budget ETL pipeline. It is intentionally small, explicit, and
// dependency-free so that pipeline files can be loaded from disk and passed
// through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the JSON structure used in pipeline
//     files under configs/*.json.
//  3. Minimalism: no third-party config libraries; decoding is performed by
//     the standard library.
//
// Example (trimmed):
//
//	{
//	  "job":       "budget_municipal_etl",
//	  "source":    { "workbook": "data/Budget_municipal.xlsx" },
//	  "artifacts": { "output_dir": "output", "processed_dir": "processed" },
//	  "transform": { "fiscal_year": 0 },
//	  "storage":   { "kind": "postgres", "db": { "dsn": "postgres://..." } },
//	  "runtime":   { "batch_size": 500 }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pipeline describes one full ETL run in JSON. It is the top-level object
// decoded from a pipeline file.
type Pipeline struct {
	// Job names the pipeline for metrics labeling and audit correlation.
	Job string `json:"job"`

	// Source describes where the input workbook comes from.
	Source Source `json:"source"`

	// Artifacts configures where intermediate and report artifacts are written.
	Artifacts Artifacts `json:"artifacts"`

	// Transform carries normalization settings.
	Transform Transform `json:"transform"`

	// Storage describes the destination relational store.
	Storage Storage `json:"storage"`

	// Runtime controls batching.
	Runtime Runtime `json:"runtime"`
}

// Source identifies the input artifact.
type Source struct {
	// Workbook is the local filesystem path to the multi-sheet workbook.
	Workbook string `json:"workbook"`
}

// Artifacts holds the directories for inter-stage handoff files.
type Artifacts struct {
	// OutputDir receives per-sheet raw CSV extracts (raw_<sheet>.csv).
	OutputDir string `json:"output_dir"`

	// ProcessedDir receives transformed CSVs, the combined dataset, and the
	// JSON run/validation reports.
	ProcessedDir string `json:"processed_dir"`
}

// Transform carries normalization settings.
type Transform struct {
	// FiscalYear stamps every normalized row. Zero means "use the wall-clock
	// year at run time".
	FiscalYear int `json:"fiscal_year"`
}

// Storage selects the sink used to persist facts, summaries, and audit rows.
type Storage struct {
	// Kind selects the storage implementation. Current value: "postgres".
	Kind string `json:"kind"`

	// DB configures the database sink.
	DB DBConfig `json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the connection string for pgx/pgxpool (e.g., postgresql://...).
	DSN string `json:"dsn"`
}

// Runtime controls batching for the fact loader.
type Runtime struct {
	// BatchSize is the number of fact rows per COPY batch. Zero selects the
	// default of 500.
	BatchSize int `json:"batch_size"`
}

// DefaultBatchSize is used when runtime.batch_size is unset.
const DefaultBatchSize = 500

// EffectiveBatchSize resolves the configured batch size with its default.
func (r Runtime) EffectiveBatchSize() int {
	if r.BatchSize > 0 {
		return r.BatchSize
	}
	return DefaultBatchSize
}

// Load reads and decodes a pipeline file from disk.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p Pipeline
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}
