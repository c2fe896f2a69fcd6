// Package storage contains storage-agnostic contracts for the pipeline's
// relational backend: the Repository interface, a kind registry so callers
// stay backend-neutral, the batched loader, and the audit trail helpers.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Fully qualified destination tables.
const (
	FactTable    = "budget.budget_data"
	SummaryTable = "budget.budget_summary"
	AuditTable   = "budget.etl_audit"
)

// Repository is the minimal surface the pipeline needs from a backend:
// statement execution for DDL and audit rows, and a bulk-copy primitive for
// fact and summary loads.
type Repository interface {
	Exec(ctx context.Context, sql string, args ...any) error
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

// Factory constructs a Repository for one storage kind. Backends register
// their factory from init().
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
	ddlFns    = map[string]Bootstrapper{}
)

// Register installs (or replaces) the factory for a storage kind.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// Open constructs a Repository for cfg.Kind. Unknown kinds list the
// registered alternatives in the error.
func Open(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no storage backend registered for kind=%q (have %v)", cfg.Kind, Kinds())
	}
	return fn(ctx, cfg)
}

// Kinds returns the registered storage kinds, sorted.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Bootstrapper applies a backend's schema DDL through repo.Exec. The budget
// schema is recreated from scratch on every run, so bootstrappers must be
// safe to call repeatedly.
type Bootstrapper func(ctx context.Context, repo Repository) error

// RegisterDDL installs the schema bootstrapper for a storage kind.
func RegisterDDL(kind string, fn Bootstrapper) {
	regMu.Lock()
	defer regMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureSchema locates the bootstrapper for kind and invokes it.
func EnsureSchema(ctx context.Context, kind string, repo Repository) error {
	regMu.RLock()
	fn, ok := ddlFns[kind]
	regMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo)
}
