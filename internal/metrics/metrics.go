// Package metrics exposes Prometheus counters and gauges for the
// orchestrator core, mirroring the collector shape of
// ChuLiYu-raft-recovery's internal/metrics package generalized from a
// job queue to scenario/task orchestration.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the core records.
type Collector struct {
	scenariosSubmitted prometheus.Counter
	scenariosFailed    prometheus.Counter
	tasksQueued        prometheus.Counter
	tasksClaimed       prometheus.Counter
	tasksSucceeded     prometheus.Counter
	tasksFailed        prometheus.Counter
	taskLatency        prometheus.Histogram
	janitorReclaims    prometheus.Counter
}

// NewCollector builds and registers a Collector against the default
// Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{
		scenariosSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tempo_scenarios_submitted_total",
			Help: "Total number of scenarios successfully published",
		}),
		scenariosFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tempo_scenarios_submit_failed_total",
			Help: "Total number of scenario submissions that failed expansion or publication",
		}),
		tasksQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tempo_tasks_queued_total",
			Help: "Total number of tasks that transitioned PENDING -> QUEUED",
		}),
		tasksClaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tempo_tasks_claimed_total",
			Help: "Total number of tasks claimed by a worker",
		}),
		tasksSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tempo_tasks_succeeded_total",
			Help: "Total number of tasks that reached SUCCESS",
		}),
		tasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tempo_tasks_failed_total",
			Help: "Total number of tasks that reached FAILED",
		}),
		taskLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tempo_task_latency_seconds",
			Help:    "Time from claim to terminal status",
			Buckets: prometheus.DefBuckets,
		}),
		janitorReclaims: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tempo_janitor_reclaims_total",
			Help: "Total number of tasks the janitor failed: PROCESSING tasks past the horizon and skip-hinted PENDING tasks",
		}),
	}

	prometheus.MustRegister(
		c.scenariosSubmitted,
		c.scenariosFailed,
		c.tasksQueued,
		c.tasksClaimed,
		c.tasksSucceeded,
		c.tasksFailed,
		c.taskLatency,
		c.janitorReclaims,
	)

	return c
}

func (c *Collector) RecordScenarioSubmitted() { c.scenariosSubmitted.Inc() }
func (c *Collector) RecordScenarioFailed()    { c.scenariosFailed.Inc() }
func (c *Collector) RecordTaskQueued()        { c.tasksQueued.Inc() }
func (c *Collector) RecordTaskClaimed()       { c.tasksClaimed.Inc() }
func (c *Collector) RecordTaskSucceeded()     { c.tasksSucceeded.Inc() }
func (c *Collector) RecordTaskFailed()        { c.tasksFailed.Inc() }
func (c *Collector) RecordJanitorReclaim()    { c.janitorReclaims.Inc() }

func (c *Collector) ObserveTaskLatency(seconds float64) {
	c.taskLatency.Observe(seconds)
}

// Handler returns the HTTP handler to mount at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
