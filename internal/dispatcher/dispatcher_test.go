package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-tempo/internal/domain"
	orcherrors "go-tempo/internal/errors"
	"go-tempo/internal/storetest"
)

func seedDiamond(t *testing.T, fake *storetest.Fake) (root, left, right, sink string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	root, left, right, sink = "root", "left", "right", "sink"
	tasks := []*domain.Task{
		{ID: root, Service: "text-service", Status: domain.StatusPending, Consumers: []string{left, right}, CreatedAt: now, UpdatedAt: now},
		{ID: left, Service: "image-service", Status: domain.StatusPending, PendingCount: 1, Consumers: []string{sink}, CreatedAt: now, UpdatedAt: now},
		{ID: right, Service: "image-service", Status: domain.StatusPending, PendingCount: 1, Consumers: []string{sink}, CreatedAt: now, UpdatedAt: now},
		{ID: sink, Service: "video-service", Status: domain.StatusPending, PendingCount: 2, CreatedAt: now, UpdatedAt: now},
	}
	sc := &domain.Scenario{ScenarioID: "scenario-diamond", TaskIDs: []string{root, left, right, sink}, CreatedAt: now}
	require.NoError(t, fake.Publish(ctx, sc, tasks))
	return
}

// claimTask moves a QUEUED task to PROCESSING directly against the fake,
// the state Succeed and Fail require.
func claimTask(t *testing.T, fake *storetest.Fake, id string) {
	t.Helper()
	ok, err := fake.Claim(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDispatcherClaimTransitionsQueuedToProcessing(t *testing.T) {
	fake := storetest.New()
	_, _, _, _ = seedDiamond(t, fake)
	d := New(fake, Options{}, nil)

	task, err := d.Claim(context.Background(), "text-service", time.Second)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, domain.StatusProcessing, task.Status)
}

func TestDispatcherClaimReturnsNilOnEmptyQueue(t *testing.T) {
	fake := storetest.New()
	d := New(fake, Options{}, nil)

	task, err := d.Claim(context.Background(), "nothing-here", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestDispatcherSucceedFansOutOnlyWhenAllUpstreamDone(t *testing.T) {
	fake := storetest.New()
	root, left, right, sink := seedDiamond(t, fake)
	d := New(fake, Options{}, nil)
	ctx := context.Background()

	claimTask(t, fake, root)
	require.NoError(t, d.Succeed(ctx, root, "result://root"))

	leftTask, err := fake.GetTask(ctx, left)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, leftTask.Status)

	rightTask, err := fake.GetTask(ctx, right)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, rightTask.Status)

	sinkTask, err := fake.GetTask(ctx, sink)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, sinkTask.Status, "sink must wait for both left and right")

	_, err = fake.Claim(ctx, left)
	require.NoError(t, err)
	require.NoError(t, d.Succeed(ctx, left, "result://left"))

	sinkTask, err = fake.GetTask(ctx, sink)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, sinkTask.Status, "sink must still wait for right")

	_, err = fake.Claim(ctx, right)
	require.NoError(t, err)
	require.NoError(t, d.Succeed(ctx, right, "result://right"))

	sinkTask, err = fake.GetTask(ctx, sink)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, sinkTask.Status, "sink becomes ready once both upstream succeed")
}

func TestDispatcherSucceedIsIdempotent(t *testing.T) {
	fake := storetest.New()
	root, _, _, _ := seedDiamond(t, fake)
	d := New(fake, Options{}, nil)
	ctx := context.Background()

	claimTask(t, fake, root)
	require.NoError(t, d.Succeed(ctx, root, "result://root"))

	err := d.Succeed(ctx, root, "result://root-again")
	require.Error(t, err)
	assert.ErrorIs(t, err, orcherrors.ErrInvalidTransition)
}

func TestDispatcherFailDoesNotCascadeByDefault(t *testing.T) {
	fake := storetest.New()
	root, left, _, _ := seedDiamond(t, fake)
	d := New(fake, Options{}, nil)
	ctx := context.Background()

	claimTask(t, fake, root)
	require.NoError(t, d.Succeed(ctx, root, "result://root"))
	_, err := fake.Claim(ctx, left)
	require.NoError(t, err)
	require.NoError(t, d.Fail(ctx, left, "boom"))

	leftTask, err := fake.GetTask(ctx, left)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, leftTask.Status)
	assert.False(t, leftTask.SkipHint)
}

func TestDispatcherFailCascadesSkipHintWhenEnabled(t *testing.T) {
	fake := storetest.New()
	root, left, right, sink := seedDiamond(t, fake)
	d := New(fake, Options{CascadeFail: true}, nil)
	ctx := context.Background()

	claimTask(t, fake, root)
	require.NoError(t, d.Succeed(ctx, root, "result://root"))
	_, err := fake.Claim(ctx, left)
	require.NoError(t, err)
	require.NoError(t, d.Fail(ctx, left, "boom"))

	sinkTask, err := fake.GetTask(ctx, sink)
	require.NoError(t, err)
	assert.True(t, sinkTask.SkipHint)
	assert.Equal(t, domain.StatusPending, sinkTask.Status, "skip hint never mutates status or pending_count")
	assert.Equal(t, 2, sinkTask.PendingCount)

	rightTask, err := fake.GetTask(ctx, right)
	require.NoError(t, err)
	assert.False(t, rightTask.SkipHint, "skip hint only propagates downstream of the failed task")
}

func TestDispatcherFailEmitsTerminatedEvent(t *testing.T) {
	fake := storetest.New()
	root, left, _, _ := seedDiamond(t, fake)
	ctx := context.Background()

	var events []domain.TerminatedEvent
	d := New(fake, Options{OnTerminated: func(e domain.TerminatedEvent) { events = append(events, e) }}, nil)

	claimTask(t, fake, root)
	require.NoError(t, d.Succeed(ctx, root, "result://root"))
	_, err := fake.Claim(ctx, left)
	require.NoError(t, err)
	require.NoError(t, d.Fail(ctx, left, "boom"))

	require.Len(t, events, 1)
	assert.Equal(t, left, events[0].TaskID)
	assert.Equal(t, domain.TerminationFailed, events[0].Kind)
	assert.Equal(t, "boom", events[0].Error)
	assert.Equal(t, "image-service", events[0].Service)
}

func TestDispatcherResolveSkippedFailsHintedPendingTask(t *testing.T) {
	fake := storetest.New()
	root, left, _, sink := seedDiamond(t, fake)
	ctx := context.Background()

	var events []domain.TerminatedEvent
	d := New(fake, Options{CascadeFail: true, OnTerminated: func(e domain.TerminatedEvent) { events = append(events, e) }}, nil)

	claimTask(t, fake, root)
	require.NoError(t, d.Succeed(ctx, root, "result://root"))
	_, err := fake.Claim(ctx, left)
	require.NoError(t, err)
	require.NoError(t, d.Fail(ctx, left, "boom"))

	ok, err := d.ResolveSkipped(ctx, sink)
	require.NoError(t, err)
	assert.True(t, ok)

	sinkTask, err := fake.GetTask(ctx, sink)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, sinkTask.Status)
	assert.Equal(t, "skipped: upstream failure", sinkTask.Error)

	require.Len(t, events, 2, "one for the direct fail, one for the resolved skip")
	assert.Equal(t, domain.TerminationSkipped, events[1].Kind)
}

func TestDispatcherResolveSkippedNoOpWithoutHint(t *testing.T) {
	fake := storetest.New()
	_, _, _, sink := seedDiamond(t, fake)
	d := New(fake, Options{}, nil)

	ok, err := d.ResolveSkipped(context.Background(), sink)
	require.NoError(t, err)
	assert.False(t, ok)
}
