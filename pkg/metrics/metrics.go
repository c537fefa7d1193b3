// Package metrics holds the Prometheus collectors shared by the schema tooling.
// The CLI pushes them to a Pushgateway; the reconciler serves them on /metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	MigrationsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prompterly_migrations_applied_total",
		Help: "Migrations applied, by direction.",
	}, []string{"direction"})

	MigrationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prompterly_migration_duration_seconds",
		Help:    "Time spent running a single migration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"direction"})

	SeedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prompterly_seed_rows_total",
		Help: "Seed rows processed, by table and outcome (inserted or skipped).",
	}, []string{"table", "outcome"})

	ConsistencyFindings = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "prompterly_consistency_findings",
		Help: "Findings reported by the last consistency check, by kind.",
	}, []string{"kind"})
)

// Push sends the default registry to a Pushgateway. An empty url is a no-op.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx)
}
