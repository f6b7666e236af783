// Package storetest provides an in-memory store.Interface double for
// exercising the dispatcher, publisher, query, and janitor packages
// without a live Redis, following the teacher pack's in-memory-store
// pattern (ignatij-goflow's pkg/storage mockStore) generalized to
// replicate the store's Lua-script transition semantics in plain Go.
package storetest

import (
	"context"
	"sync"
	"time"

	"go-tempo/internal/domain"
	orcherrors "go-tempo/internal/errors"
	"go-tempo/internal/store"
)

// Fake is a single-process, mutex-guarded stand-in for *store.Store. It
// reimplements Claim/Succeed/Fail's check-then-transition logic directly
// in Go rather than via Lua, since there is no concurrent script
// execution to race against within one process holding the lock for the
// whole operation.
type Fake struct {
	mu        sync.Mutex
	tasks     map[string]*domain.Task
	scenarios map[string]*domain.Scenario
	queues    map[string][]string
}

// New constructs an empty Fake.
func New() *Fake {
	return &Fake{
		tasks:     make(map[string]*domain.Task),
		scenarios: make(map[string]*domain.Scenario),
		queues:    make(map[string][]string),
	}
}

var _ store.Interface = (*Fake)(nil)

func clone(t *domain.Task) *domain.Task {
	cp := *t
	cp.Consumers = append([]string(nil), t.Consumers...)
	cp.InputRefs.SlideIDs = append([]string(nil), t.InputRefs.SlideIDs...)
	return &cp
}

// GetTask returns a copy of a task's current record.
func (f *Fake) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, orcherrors.Wrap(orcherrors.ErrUnknownTask, id)
	}
	return clone(t), nil
}

// GetTasks returns copies of every task id present, skipping unknown ids
// to mirror Store.GetTasks.
func (f *Fake) GetTasks(ctx context.Context, ids []string) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := f.tasks[id]; ok {
			out = append(out, clone(t))
		}
	}
	return out, nil
}

// GetScenario returns a copy of a scenario record.
func (f *Fake) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.scenarios[id]
	if !ok {
		return nil, orcherrors.Wrap(orcherrors.ErrUnknownScenario, id)
	}
	cp := *sc
	cp.TaskIDs = append([]string(nil), sc.TaskIDs...)
	return &cp, nil
}

// SetSkipHint marks a task's SkipHint flag.
func (f *Fake) SetSkipHint(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return orcherrors.Wrap(orcherrors.ErrUnknownTask, id)
	}
	t.SkipHint = true
	return nil
}

// QueueDepth returns a service queue's current length.
func (f *Fake) QueueDepth(ctx context.Context, service string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.queues[service])), nil
}

// Pop removes and returns the head of a service queue, or ("", nil) if
// empty. timeout is ignored: tests drive the fake synchronously.
func (f *Fake) Pop(ctx context.Context, service string, timeout time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.queues[service]
	if len(q) == 0 {
		return "", nil
	}
	id := q[0]
	f.queues[service] = q[1:]
	return id, nil
}

// Publish writes a scenario's tasks, the scenario's task-id index, and
// the initial queue pushes for every eligible task, mirroring
// Store.Publish.
func (f *Fake) Publish(ctx context.Context, sc *domain.Scenario, tasks []*domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range tasks {
		cp := clone(t)
		if cp.Eligible() {
			cp.Status = domain.StatusQueued
			f.queues[cp.Service] = append(f.queues[cp.Service], cp.ID)
		}
		f.tasks[cp.ID] = cp
	}

	scCopy := *sc
	scCopy.TaskIDs = append([]string(nil), sc.TaskIDs...)
	f.scenarios[sc.ScenarioID] = &scCopy
	return nil
}

// Claim transitions a task QUEUED -> PROCESSING, returning false for any
// other observed status (the caller's stale-claim retry path).
func (f *Fake) Claim(ctx context.Context, taskID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return false, orcherrors.Wrap(orcherrors.ErrUnknownTask, taskID)
	}
	if t.Status != domain.StatusQueued {
		return false, nil
	}
	t.Status = domain.StatusProcessing
	t.UpdatedAt = time.Now()
	return true, nil
}

// Succeed transitions a task PROCESSING -> SUCCESS, decrements every
// consumer's pending_count, and enqueues any consumer that reaches zero,
// replicating succeedScript's atomic fan-out.
func (f *Fake) Succeed(ctx context.Context, taskID, resultRef string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tasks[taskID]
	if !ok {
		return nil, orcherrors.Wrap(orcherrors.ErrUnknownTask, taskID)
	}
	if t.Status != domain.StatusProcessing {
		return nil, orcherrors.Wrap(orcherrors.ErrInvalidTransition, taskID)
	}

	t.Status = domain.StatusSuccess
	t.ResultRef = resultRef
	t.UpdatedAt = time.Now()

	var queued []string
	for _, consumerID := range t.Consumers {
		c, ok := f.tasks[consumerID]
		if !ok || c.Status != domain.StatusPending {
			continue
		}
		c.PendingCount--
		if c.PendingCount <= 0 {
			c.Status = domain.StatusQueued
			c.UpdatedAt = time.Now()
			f.queues[c.Service] = append(f.queues[c.Service], c.ID)
			queued = append(queued, c.ID)
		}
	}
	return queued, nil
}

// Fail transitions a task PROCESSING -> FAILED.
func (f *Fake) Fail(ctx context.Context, taskID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return orcherrors.Wrap(orcherrors.ErrUnknownTask, taskID)
	}
	if t.Status != domain.StatusProcessing {
		return orcherrors.Wrap(orcherrors.ErrInvalidTransition, taskID)
	}
	t.Status = domain.StatusFailed
	t.Error = errMsg
	t.UpdatedAt = time.Now()
	return nil
}

// ResolveSkipped fails taskID if, and only if, it is still PENDING with
// its skip hint set, mirroring resolveSkippedScript.
func (f *Fake) ResolveSkipped(ctx context.Context, taskID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return false, orcherrors.Wrap(orcherrors.ErrUnknownTask, taskID)
	}
	if t.Status != domain.StatusPending || !t.SkipHint {
		return false, nil
	}
	t.Status = domain.StatusFailed
	t.Error = "skipped: upstream failure"
	t.UpdatedAt = time.Now()
	return true, nil
}
