package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-tempo/internal/domain"
	"go-tempo/internal/storetest"
)

func TestQueryGetScenarioTalliesStatusCounts(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()
	now := time.Now()

	sc := &domain.Scenario{ScenarioID: "sc-1", TemplateName: "demo", TaskIDs: []string{"a", "b", "c"}, CreatedAt: now}
	tasks := []*domain.Task{
		{ID: "a", Service: "text-service", Status: domain.StatusPending, PendingCount: 1, CreatedAt: now, UpdatedAt: now},
		{ID: "b", Service: "text-service", Status: domain.StatusSuccess, CreatedAt: now, UpdatedAt: now},
		{ID: "c", Service: "text-service", Status: domain.StatusFailed, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, fake.Publish(ctx, sc, tasks))

	q := New(fake)
	summary, err := q.GetScenario(ctx, "sc-1")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Counts[domain.StatusPending])
	assert.Equal(t, 1, summary.Counts[domain.StatusSuccess])
	assert.Equal(t, 1, summary.Counts[domain.StatusFailed])
	assert.True(t, summary.Stuck(), "a failed task with nothing queued or processing is stuck")
	assert.False(t, summary.Done(), "a still-pending task means the scenario is not done")
}

func TestQueryGetScenarioUnknownIDFails(t *testing.T) {
	fake := storetest.New()
	q := New(fake)

	_, err := q.GetScenario(context.Background(), "missing")
	assert.Error(t, err)
}

func TestQueryQueueDepthReflectsPublishedEligibleTasks(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()
	now := time.Now()

	sc := &domain.Scenario{ScenarioID: "sc-2", TaskIDs: []string{"a", "b"}, CreatedAt: now}
	tasks := []*domain.Task{
		{ID: "a", Service: "text-service", Status: domain.StatusPending, CreatedAt: now, UpdatedAt: now},
		{ID: "b", Service: "text-service", Status: domain.StatusPending, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, fake.Publish(ctx, sc, tasks))

	q := New(fake)
	depth, err := q.QueueDepth(ctx, "text-service")
	require.NoError(t, err)
	assert.Equal(t, int64(2), depth)
}
