package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"budgetetl/internal/metrics"
)

// TestNewBackend validates defaults and required inputs.
func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("job", ""); err == nil {
		t.Fatal("expected error for missing gateway URL")
	}

	b, err := NewBackend("", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.jobName != "budgetetl" {
		t.Fatalf("default jobName = %q", b.jobName)
	}

	b, err = NewBackend("budget-monthly", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.jobName != "budget-monthly" {
		t.Fatalf("jobName = %q", b.jobName)
	}
}

// TestIncCounterRouting checks that counter updates land on the right
// collectors and that unknown metric names are ignored.
func TestIncCounterRouting(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("budget", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter("budget_etl_stage_total", 3, metrics.Labels{"stage": "extract", "status": "success"})
	b.IncCounter("budget_etl_records_total", 5, metrics.Labels{"kind": "facts"})
	b.IncCounter("budget_etl_batches_total", 2, metrics.Labels{})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	if got := testutil.ToFloat64(b.stageCounter.WithLabelValues("extract", "success")); got != 3 {
		t.Fatalf("stage counter = %v, want 3", got)
	}
	if got := testutil.ToFloat64(b.recordCounter.WithLabelValues("facts")); got != 5 {
		t.Fatalf("record counter = %v, want 5", got)
	}
	if got := testutil.ToFloat64(b.batchCounter); got != 2 {
		t.Fatalf("batch counter = %v, want 2", got)
	}
}

// TestFlush verifies that Flush pushes the registry to the configured
// Pushgateway URL.
func TestFlush(t *testing.T) {
	t.Parallel()

	type pushInfo struct {
		method  string
		path    string
		bodyLen int
	}
	reqCh := make(chan pushInfo, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushInfo{method: r.Method, path: r.URL.Path, bodyLen: len(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("budget", server.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter("budget_etl_stage_total", 1, metrics.Labels{"stage": "extract", "status": "success"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	select {
	case got := <-reqCh:
		if got.bodyLen == 0 {
			t.Fatal("push body is empty")
		}
		if got.path == "" || got.method == "" {
			t.Fatalf("push request incomplete: %+v", got)
		}
	default:
		t.Fatal("Flush did not reach the Pushgateway")
	}
}
