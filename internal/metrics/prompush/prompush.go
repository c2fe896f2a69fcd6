// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A short-lived batch pipeline has nothing for Prometheus to scrape, so
// metrics are collected into a private registry and pushed to a Pushgateway
// once, when the run flushes. All Prometheus-specific dependencies live here;
// the rest of the project depends only on metrics.Backend.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"budgetetl/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec // budget_etl_stage_total
	stageDuration *prometheus.SummaryVec // budget_etl_stage_duration_seconds
	recordCounter *prometheus.CounterVec // budget_etl_records_total
	batchCounter  prometheus.Counter     // budget_etl_batches_total
}

// NewBackend constructs a Pushgateway backend. jobName doubles as the
// Pushgateway grouping key.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "budgetetl"
	}

	reg := prometheus.NewRegistry()

	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budget_etl_stage_total",
			Help: "Total stage executions, partitioned by stage and status.",
		},
		[]string{"stage", "status"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "budget_etl_stage_duration_seconds",
			Help:       "Stage duration in seconds, partitioned by stage and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"stage", "status"},
	)
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budget_etl_records_total",
			Help: "Record-level counts per kind (extracted, cleaned, facts, inserted).",
		},
		[]string{"kind"},
	)
	batchCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "budget_etl_batches_total",
			Help: "Total COPY batches flushed for this run.",
		},
	)

	for name, c := range map[string]prometheus.Collector{
		"stage counter":  stageCounter,
		"stage summary":  stageDuration,
		"record counter": recordCounter,
		"batch counter":  batchCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stageCounter:  stageCounter,
		stageDuration: stageDuration,
		recordCounter: recordCounter,
		batchCounter:  batchCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "budget_etl_stage_total":
		b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)

	case "budget_etl_records_total":
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)

	case "budget_etl_batches_total":
		b.batchCounter.Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveDuration(name string, value float64, labels metrics.Labels) {
	if name != "budget_etl_stage_duration_seconds" {
		return
	}
	b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
