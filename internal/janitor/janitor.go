// Package janitor periodically fails PROCESSING tasks that have sat
// past a configured horizon — the worker-crash recovery path spec.md 5
// and 8 (scenario F) describe as optional but expected.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"go-tempo/internal/dispatcher"
	"go-tempo/internal/domain"
	"go-tempo/internal/metrics"
	"go-tempo/internal/store"
)

// Janitor sweeps every known service's queue depth is irrelevant to it;
// it walks scenarios instead, since PROCESSING tasks are not queued.
type Janitor struct {
	store    store.Interface
	disp     *dispatcher.Dispatcher
	horizon  time.Duration
	interval time.Duration
	log      *slog.Logger
	metrics  *metrics.Collector

	// scenarios lists the scenario ids to sweep. The core has no global
	// scenario index beyond each scenario's own key, so the janitor is
	// handed the ids it should watch (the submission surface appends to
	// this list as scenarios are created).
	scenarios func() []string
}

// New constructs a Janitor. scenarios is called on every sweep to get
// the current set of scenario ids to inspect. mc may be nil.
func New(st store.Interface, disp *dispatcher.Dispatcher, horizon, interval time.Duration, scenarios func() []string, mc *metrics.Collector, log *slog.Logger) *Janitor {
	if log == nil {
		log = slog.Default()
	}
	return &Janitor{store: st, disp: disp, horizon: horizon, interval: interval, scenarios: scenarios, metrics: mc, log: log}
}

// Run sweeps on Interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweepOnce(ctx)
		}
	}
}

func (j *Janitor) sweepOnce(ctx context.Context) {
	now := time.Now()
	for _, scenarioID := range j.scenarios() {
		sc, err := j.store.GetScenario(ctx, scenarioID)
		if err != nil {
			continue
		}
		tasks, err := j.store.GetTasks(ctx, sc.TaskIDs)
		if err != nil {
			continue
		}
		for _, t := range tasks {
			j.maybeFailStale(ctx, t, now)
			j.maybeResolveSkipped(ctx, t)
		}
	}
}

func (j *Janitor) maybeFailStale(ctx context.Context, t *domain.Task, now time.Time) {
	if t.Status != domain.StatusProcessing {
		return
	}
	if now.Sub(t.UpdatedAt) < j.horizon {
		return
	}
	j.log.WarnContext(ctx, "janitor reclaiming stale task", "task_id", t.ID, "processing_since", t.UpdatedAt)
	if err := j.disp.Fail(ctx, t.ID, "janitor: processing horizon exceeded"); err != nil {
		j.log.ErrorContext(ctx, "janitor failed to reclaim task", "task_id", t.ID, "error", err)
		return
	}
	if j.metrics != nil {
		j.metrics.RecordJanitorReclaim()
	}
}

// maybeResolveSkipped fails a PENDING task that cascade-fail has marked
// with a skip hint, so it does not sit PENDING forever once its upstream
// has already failed (SPEC_FULL.md "Supplemented features", skip-hint
// propagation). Unlike a stale PROCESSING reclaim this runs immediately:
// the task was never dispatched and no worker is going to touch it.
func (j *Janitor) maybeResolveSkipped(ctx context.Context, t *domain.Task) {
	if t.Status != domain.StatusPending || !t.SkipHint {
		return
	}
	ok, err := j.disp.ResolveSkipped(ctx, t.ID)
	if err != nil {
		j.log.ErrorContext(ctx, "janitor failed to resolve skipped task", "task_id", t.ID, "error", err)
		return
	}
	if ok {
		if j.metrics != nil {
			j.metrics.RecordJanitorReclaim()
		}
	}
}
