// Package query implements the read-only Query API of spec.md 4.7.
package query

import (
	"context"

	"go-tempo/internal/domain"
	"go-tempo/internal/store"
)

// API is the read-side over the store. Reads are not linearised against
// ongoing transitions; a slightly stale view is acceptable (spec.md 4.7).
type API struct {
	store store.Interface
}

// New constructs a Query API over a store.
func New(st store.Interface) *API {
	return &API{store: st}
}

// GetTask returns a task's full record.
func (a *API) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return a.store.GetTask(ctx, id)
}

// GetScenario returns the scenario record plus a per-status count over
// its tasks.
func (a *API) GetScenario(ctx context.Context, id string) (*domain.ScenarioSummary, error) {
	sc, err := a.store.GetScenario(ctx, id)
	if err != nil {
		return nil, err
	}

	tasks, err := a.store.GetTasks(ctx, sc.TaskIDs)
	if err != nil {
		return nil, err
	}

	counts := make(domain.StatusCounts)
	for _, t := range tasks {
		counts[t.Status]++
	}

	return &domain.ScenarioSummary{Scenario: *sc, Counts: counts}, nil
}

// QueueDepth returns the current length of a service's ready queue.
func (a *API) QueueDepth(ctx context.Context, service string) (int64, error) {
	return a.store.QueueDepth(ctx, service)
}
