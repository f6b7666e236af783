// Package dispatcher implements the worker-facing protocol of spec.md
// 4.5: claim, succeed, fail, each a short operation against the store's
// atomic primitives.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go-tempo/internal/domain"
	orcherrors "go-tempo/internal/errors"
	"go-tempo/internal/metrics"
	"go-tempo/internal/store"
)

// Options configures optional Dispatcher behaviour.
type Options struct {
	// CascadeFail, when true, marks every transitive consumer of a
	// failed task with SkipHint so a worker or the janitor can resolve
	// it to FAILED instead of leaving it pending forever. Default
	// false (spec.md 4.5, 9).
	CascadeFail bool

	// ClaimTimeout is the default long-poll timeout Claim uses when the
	// caller passes a zero timeout. New sets it to 30s when left zero.
	ClaimTimeout time.Duration

	// Metrics, if set, records claim/succeed/fail counters. May be nil.
	Metrics *metrics.Collector

	// OnTerminated, if set, is called whenever a task leaves the graph
	// without succeeding (Fail, or a janitor-resolved skip). Unlike the
	// teacher's Redis pub/sub event bus, nothing downstream depends on
	// this callback firing — fan-out itself happens synchronously inside
	// the store's succeed script (spec.md 4.5) — so it exists purely for
	// callers that want to log or meter terminations. May be nil.
	OnTerminated func(domain.TerminatedEvent)
}

// Dispatcher mediates between workers and the store.
type Dispatcher struct {
	store store.Interface
	opts  Options
	log   *slog.Logger
}

// New constructs a Dispatcher.
func New(st store.Interface, opts Options, log *slog.Logger) *Dispatcher {
	if opts.ClaimTimeout == 0 {
		opts.ClaimTimeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{store: st, opts: opts, log: log}
}

// Claim blocks (up to timeout, or the Dispatcher's default) until a task
// id is available on service's queue, then atomically transitions it
// QUEUED -> PROCESSING. If the popped task is a stale re-enqueue (status
// no longer QUEUED by the time the script runs) Claim retries the pop
// itself — the worker-visible contract is "come back with a live task or
// nothing", never a task the worker must itself discard.
func (d *Dispatcher) Claim(ctx context.Context, service string, timeout time.Duration) (*domain.Task, error) {
	if timeout == 0 {
		timeout = d.opts.ClaimTimeout
	}

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if timeout > 0 && remaining <= 0 {
			return nil, nil
		}

		popTimeout := timeout
		if timeout > 0 {
			popTimeout = remaining
		}

		taskID, err := d.store.Pop(ctx, service, popTimeout)
		if err != nil {
			return nil, err
		}
		if taskID == "" {
			return nil, nil
		}

		ok, err := d.store.Claim(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if !ok {
			d.log.WarnContext(ctx, "dropping stale claim", "task_id", taskID, "service", service)
			continue
		}

		task, err := d.store.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if d.opts.Metrics != nil {
			d.opts.Metrics.RecordTaskClaimed()
		}
		return task, nil
	}
}

// Succeed runs the central fan-out operation (spec.md 4.5): marks the
// task SUCCESS and enqueues any consumer whose pending_count reaches
// zero as a result. It is idempotent by construction — a second call
// observes a non-PROCESSING status and fails INVALID_TRANSITION without
// re-triggering fan-out (spec.md 8, idempotence law).
func (d *Dispatcher) Succeed(ctx context.Context, taskID, resultRef string) error {
	var claimedAt time.Time
	if d.opts.Metrics != nil {
		if task, err := d.store.GetTask(ctx, taskID); err == nil {
			claimedAt = task.UpdatedAt
		}
	}

	queued, err := d.store.Succeed(ctx, taskID, resultRef)
	if err != nil {
		return err
	}
	d.log.InfoContext(ctx, "task succeeded", "task_id", taskID, "unblocked", queued)
	if d.opts.Metrics != nil {
		d.opts.Metrics.RecordTaskSucceeded()
		for range queued {
			d.opts.Metrics.RecordTaskQueued()
		}
		if !claimedAt.IsZero() {
			d.opts.Metrics.ObserveTaskLatency(time.Since(claimedAt).Seconds())
		}
	}
	return nil
}

// Fail marks a task FAILED. Downstream tasks are not automatically
// failed (spec.md 4.5) unless CascadeFail is enabled, in which case every
// transitive consumer is marked with a skip hint for later resolution.
func (d *Dispatcher) Fail(ctx context.Context, taskID, errMsg string) error {
	if err := d.store.Fail(ctx, taskID, errMsg); err != nil {
		return err
	}
	d.log.WarnContext(ctx, "task failed", "task_id", taskID, "error", errMsg)
	if d.opts.Metrics != nil {
		d.opts.Metrics.RecordTaskFailed()
	}
	d.emitTerminated(ctx, taskID, domain.TerminationFailed, errMsg)

	if !d.opts.CascadeFail {
		return nil
	}
	return d.propagateSkip(ctx, taskID)
}

// ResolveSkipped fails a PENDING task carrying a cascade-fail skip hint,
// used by the janitor so skip resolution goes through the same
// metrics/event path as a direct Fail rather than touching the store on
// its own.
func (d *Dispatcher) ResolveSkipped(ctx context.Context, taskID string) (bool, error) {
	ok, err := d.store.ResolveSkipped(ctx, taskID)
	if err != nil || !ok {
		return ok, err
	}
	d.log.InfoContext(ctx, "resolved skipped task", "task_id", taskID)
	if d.opts.Metrics != nil {
		d.opts.Metrics.RecordTaskFailed()
	}
	d.emitTerminated(ctx, taskID, domain.TerminationSkipped, "skipped: upstream failure")
	return true, nil
}

// emitTerminated looks up the task's scenario/service so OnTerminated
// gets a complete event, swallowing a lookup failure since the
// termination itself already succeeded.
func (d *Dispatcher) emitTerminated(ctx context.Context, taskID string, kind domain.TerminationKind, errMsg string) {
	if d.opts.OnTerminated == nil {
		return
	}
	event := domain.TerminatedEvent{TaskID: taskID, Kind: kind, Error: errMsg}
	if task, err := d.store.GetTask(ctx, taskID); err == nil {
		event.ScenarioID = task.ScenarioID
		event.Service = task.Service
	}
	d.opts.OnTerminated(event)
}

// propagateSkip walks the consumer graph breadth-first from a failed
// task, marking every descendant with SkipHint. It never changes status:
// those tasks remain PENDING with their pending_count frozen at whatever
// it was (spec.md invariant: pending_count is only mutated by Succeed),
// so the core's own invariants are untouched — the hint exists purely
// for an external worker or the janitor to resolve visibility faster.
func (d *Dispatcher) propagateSkip(ctx context.Context, failedTaskID string) error {
	seen := map[string]bool{failedTaskID: true}
	queue := []string{failedTaskID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		task, err := d.store.GetTask(ctx, id)
		if err != nil {
			if errors.Is(err, orcherrors.ErrUnknownTask) {
				continue
			}
			return err
		}

		for _, c := range task.Consumers {
			if seen[c] {
				continue
			}
			seen[c] = true
			if err := d.store.SetSkipHint(ctx, c); err != nil {
				return err
			}
			queue = append(queue, c)
		}
	}
	return nil
}
