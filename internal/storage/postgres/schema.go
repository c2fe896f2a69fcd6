package postgres

import (
	"context"
	"fmt"
	"log"

	"budgetetl/internal/storage"
)

/*
schemaStatements is the warehouse DDL, applied in order on every run. The
drop-and-recreate shape is intentional: each run rebuilds the budget schema
from scratch, so reruns start clean rather than accumulating rows.

The three tables:

  - budget_data: one row per fact emitted by the reshape stage,
  - budget_summary: one row per sheet per run,
  - etl_audit: run outcomes, success and failure alike.
*/
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS budget`,

	`DROP TABLE IF EXISTS budget.budget_summary CASCADE`,
	`DROP TABLE IF EXISTS budget.budget_data CASCADE`,
	`DROP TABLE IF EXISTS budget.etl_audit CASCADE`,

	`CREATE TABLE budget.budget_data (
    id SERIAL PRIMARY KEY,
    sheet_source VARCHAR(255),
    fiscal_year INTEGER,
    processed_date DATE,
    budget_category VARCHAR(255),
    budget_item VARCHAR(255),
    budget_amount DECIMAL(15,2),
    budget_description TEXT,
    department VARCHAR(255),
    account_code VARCHAR(100),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,

	`CREATE TABLE budget.budget_summary (
    id SERIAL PRIMARY KEY,
    sheet_name VARCHAR(255),
    fiscal_year INTEGER,
    total_records INTEGER,
    total_budget_amount DECIMAL(15,2),
    max_budget_item DECIMAL(15,2),
    min_budget_item DECIMAL(15,2),
    average_budget_item DECIMAL(15,2),
    processing_date TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,

	`CREATE TABLE budget.etl_audit (
    id SERIAL PRIMARY KEY,
    dag_run_id VARCHAR(255),
    task_id VARCHAR(255),
    execution_date TIMESTAMP,
    status VARCHAR(50),
    records_processed INTEGER,
    error_message TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,

	`CREATE INDEX idx_budget_data_sheet_source ON budget.budget_data(sheet_source)`,
	`CREATE INDEX idx_budget_data_fiscal_year ON budget.budget_data(fiscal_year)`,
	`CREATE INDEX idx_budget_data_processed_date ON budget.budget_data(processed_date)`,
	`CREATE INDEX idx_budget_summary_fiscal_year ON budget.budget_summary(fiscal_year)`,
}

// Bootstrap recreates the budget schema through repo.Exec.
func Bootstrap(ctx context.Context, repo storage.Repository) error {
	for _, stmt := range schemaStatements {
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap: %w", err)
		}
	}
	log.Printf("schema: budget schema recreated, statements=%d", len(schemaStatements))
	return nil
}
