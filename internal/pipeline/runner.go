// Package pipeline sequences the budget ETL stages: init-schema, extract,
// transform, load, validate. Stages hand off through filesystem artifacts and
// the database, never through memory, so an external scheduler can invoke any
// single stage. The pipeline assumes a single writer per target schema; two
// concurrent runs race on the drop-and-recreate DDL.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"budgetetl/internal/config"
	"budgetetl/internal/metrics"
	"budgetetl/internal/storage"
)

// Stage names accepted by RunStage.
const (
	StageInitSchema = "init-schema"
	StageExtract    = "extract"
	StageTransform  = "transform"
	StageLoad       = "load"
	StageValidate   = "validate"
	StageAll        = "all"
)

// Runner executes pipeline stages for one configured job.
type Runner struct {
	cfg   config.Pipeline
	runID string

	// injected for tests
	now      func() time.Time
	openRepo func(context.Context) (storage.Repository, error)
}

// New constructs a Runner. runID correlates the audit rows of one invocation.
func New(cfg config.Pipeline, runID string) *Runner {
	return &Runner{
		cfg:   cfg,
		runID: runID,
		now:   time.Now,
		openRepo: func(ctx context.Context) (storage.Repository, error) {
			return storage.Open(ctx, storage.Config{
				Kind: cfg.Storage.Kind,
				DSN:  cfg.Storage.DB.DSN,
			})
		},
	}
}

// Run executes all stages in order, stopping at the first failure.
func (r *Runner) Run(ctx context.Context) error {
	for _, stage := range []string{
		StageInitSchema, StageExtract, StageTransform, StageLoad, StageValidate,
	} {
		if err := r.RunStage(ctx, stage); err != nil {
			return err
		}
	}
	return nil
}

// RunStage executes one named stage (or "all").
func (r *Runner) RunStage(ctx context.Context, stage string) error {
	switch stage {
	case StageAll:
		return r.Run(ctx)
	case StageInitSchema:
		return r.instrument(ctx, stage, r.InitSchema)
	case StageExtract:
		return r.instrument(ctx, stage, r.Extract)
	case StageTransform:
		return r.instrument(ctx, stage, r.Transform)
	case StageLoad:
		return r.instrument(ctx, stage, r.Load)
	case StageValidate:
		return r.instrument(ctx, stage, r.Validate)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

// instrument wraps a stage with start/end logs and metrics.
func (r *Runner) instrument(ctx context.Context, name string, fn func(context.Context) error) error {
	log.Printf("stage=%s run_id=%s start", name, r.runID)
	start := time.Now()
	err := fn(ctx)
	metrics.RecordStage(r.cfg.Job, name, err, time.Since(start))
	if err != nil {
		log.Printf("stage=%s run_id=%s failed after=%s err=%v", name, r.runID, time.Since(start).Truncate(time.Millisecond), err)
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Printf("stage=%s run_id=%s done elapsed=%s", name, r.runID, time.Since(start).Truncate(time.Millisecond))
	return nil
}

// InitSchema recreates the budget schema. Destructive: all three tables are
// dropped and rebuilt.
func (r *Runner) InitSchema(ctx context.Context) error {
	repo, err := r.openRepo(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()
	return storage.EnsureSchema(ctx, r.cfg.Storage.Kind, repo)
}
