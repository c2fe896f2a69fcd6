package storage

import (
	"context"
	"strings"
	"testing"
	"time"
)

// fakeRepo records Exec calls for assertions.
type fakeRepo struct {
	execSQL  []string
	execArgs [][]any
	execErr  error
}

func (f *fakeRepo) Exec(_ context.Context, sql string, args ...any) error {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return f.execErr
}

func (f *fakeRepo) CopyFrom(context.Context, string, []string, [][]any) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) Close() {}

// TestOpenUnknownKind lists the registered kinds in the error so a config
// typo is diagnosable from the log line alone.
func TestOpenUnknownKind(t *testing.T) {
	if _, err := Open(context.Background(), Config{Kind: "oracle"}); err == nil {
		t.Fatal("expected error for unregistered kind")
	} else if !strings.Contains(err.Error(), `kind="oracle"`) {
		t.Fatalf("error should name the kind: %v", err)
	}
}

// TestRegisterAndOpen exercises the factory round trip.
func TestRegisterAndOpen(t *testing.T) {
	want := &fakeRepo{}
	Register("fake", func(context.Context, Config) (Repository, error) {
		return want, nil
	})

	got, err := Open(context.Background(), Config{Kind: "fake"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got != Repository(want) {
		t.Fatal("Open returned a different repository")
	}

	kinds := Kinds()
	found := false
	for _, k := range kinds {
		if k == "fake" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Kinds() = %v, missing fake", kinds)
	}
}

// TestEnsureSchemaUnregistered confirms a missing bootstrapper is an error,
// and a registered one is invoked with the repo.
func TestEnsureSchemaUnregistered(t *testing.T) {
	repo := &fakeRepo{}
	if err := EnsureSchema(context.Background(), "missing", repo); err == nil {
		t.Fatal("expected error for unregistered bootstrapper")
	}

	called := false
	RegisterDDL("fake", func(_ context.Context, r Repository) error {
		called = true
		if r != Repository(repo) {
			t.Fatal("bootstrapper received a different repository")
		}
		return nil
	})
	if err := EnsureSchema(context.Background(), "fake", repo); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if !called {
		t.Fatal("bootstrapper was not invoked")
	}
}

/*
TestWriteAudit pins the audit insert shape: parametrized statement against
budget.etl_audit with the run identity, outcome, and count. An empty error
message must surface as NULL, not as an empty string.
*/
func TestWriteAudit(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	when := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rec := AuditRecord{
		RunID:            "manual__2025-06-01T12:00:00Z",
		TaskID:           "load_data",
		ExecutionDate:    when,
		Status:           StatusSuccess,
		RecordsProcessed: 42,
	}
	if err := WriteAudit(context.Background(), repo, rec); err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}
	if len(repo.execSQL) != 1 {
		t.Fatalf("Exec calls = %d, want 1", len(repo.execSQL))
	}
	sql := repo.execSQL[0]
	if !strings.Contains(sql, "budget.etl_audit") || !strings.Contains(sql, "$6") {
		t.Fatalf("unexpected audit SQL: %s", sql)
	}
	args := repo.execArgs[0]
	if len(args) != 6 {
		t.Fatalf("args = %d, want 6", len(args))
	}
	if args[3] != StatusSuccess || args[4] != 42 {
		t.Fatalf("status/count args = %v, %v", args[3], args[4])
	}
	if args[5] != nil {
		t.Fatalf("empty error message should bind NULL, got %v", args[5])
	}

	failed := AuditRecord{
		RunID:         rec.RunID,
		TaskID:        "load_data",
		ExecutionDate: when,
		Status:        StatusFailed,
		ErrorMessage:  "copy into budget_data: boom",
	}
	if err := WriteAudit(context.Background(), repo, failed); err != nil {
		t.Fatalf("WriteAudit failed row: %v", err)
	}
	if got := repo.execArgs[1][5]; got != "copy into budget_data: boom" {
		t.Fatalf("error message arg = %v", got)
	}
	// No meaningful count on failure: the column binds NULL, not 0.
	if got := repo.execArgs[1][4]; got != nil {
		t.Fatalf("failed row records_processed = %v, want NULL", got)
	}
}
