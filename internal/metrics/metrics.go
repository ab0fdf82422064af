/**
 * @description
 * Prometheus instrumentation for the sync jobs. Counters follow the jobs'
 * success/total tally model: every unit and every write increments exactly
 * one of the ok/failed pairs, so dashboards can alert on the failure ratio.
 */
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters shared by the sync jobs.
type Metrics struct {
	SyncUnitsTotal  *prometheus.CounterVec
	SyncWritesTotal *prometheus.CounterVec
	JobRunsTotal    *prometheus.CounterVec
}

// New registers the job counters on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SyncUnitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_units_total",
			Help: "Sync units processed, labeled by job and outcome.",
		}, []string{"job", "outcome"}),
		SyncWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_writes_total",
			Help: "Document writes attempted by sync jobs, labeled by job and outcome.",
		}, []string{"job", "outcome"}),
		JobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_job_runs_total",
			Help: "Scheduled job executions, labeled by job.",
		}, []string{"job"}),
	}
}

// Outcome labels.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Job labels.
const (
	JobTransactions = "transactions"
	JobCatalogs     = "catalogs"
	JobEnqueue      = "enqueue"
)
