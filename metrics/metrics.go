// Package metrics exposes Prometheus instrumentation for the collection
// and reporting pipeline. Collectors are registered on the default
// registry and served by the web layer's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CollectionRuns counts inventory collection attempts by outcome:
	// ok, skipped or error.
	CollectionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zbxspy_collection_runs_total",
		Help: "Inventory collection attempts by outcome.",
	}, []string{"outcome"})

	// HostsCollected tracks the host count of the most recent snapshot.
	HostsCollected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zbxspy_hosts_collected",
		Help: "Host count of the most recently stored snapshot.",
	})

	// JobRuns counts scheduled job executions by job name and outcome.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zbxspy_scheduled_job_runs_total",
		Help: "Scheduled job executions by job and outcome.",
	}, []string{"job", "outcome"})

	// JobDuration observes wall-clock job durations by job name.
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zbxspy_scheduled_job_duration_seconds",
		Help:    "Wall-clock duration of scheduled jobs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	// ReportsGenerated counts report files written by format.
	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zbxspy_reports_generated_total",
		Help: "Report files written by format.",
	}, []string{"format"})

	// EmailsSent counts report email deliveries by outcome.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zbxspy_report_emails_total",
		Help: "Report email deliveries by outcome.",
	}, []string{"outcome"})
)
