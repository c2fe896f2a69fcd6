package storage

import (
	"context"
	"time"
)

// Audit row statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// AuditRecord is one row of the etl_audit trail. A success row carries the
// processed count; a failure row carries the error message.
type AuditRecord struct {
	RunID            string
	TaskID           string
	ExecutionDate    time.Time
	Status           string
	RecordsProcessed int
	ErrorMessage     string
}

const auditInsertSQL = `INSERT INTO ` + AuditTable +
	` (dag_run_id, task_id, execution_date, status, records_processed, error_message)
 VALUES ($1, $2, $3, $4, $5, $6)`

// WriteAudit appends one audit row. Callers decide whether a write failure is
// fatal; the load stage deliberately logs and continues so an unreachable
// audit table cannot mask the run's real outcome.
func WriteAudit(ctx context.Context, repo Repository, rec AuditRecord) error {
	var errMsg any
	if rec.ErrorMessage != "" {
		errMsg = rec.ErrorMessage
	}
	// A failed run has no meaningful count; NULL keeps it distinguishable
	// from a run that genuinely processed zero records.
	var processed any
	if rec.Status != StatusFailed {
		processed = rec.RecordsProcessed
	}
	return repo.Exec(ctx, auditInsertSQL,
		rec.RunID, rec.TaskID, rec.ExecutionDate, rec.Status, processed, errMsg)
}
