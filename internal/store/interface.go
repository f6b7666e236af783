package store

import (
	"context"
	"time"

	"go-tempo/internal/domain"
)

// Interface is the subset of Store every orchestrator component depends
// on, following the teacher pack's Store-interface-plus-fake pattern
// (ignatij-goflow's pkg/storage.Store) generalized from an in-process
// mock to either a live Redis *Store or a test double.
type Interface interface {
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	GetTasks(ctx context.Context, ids []string) ([]*domain.Task, error)
	GetScenario(ctx context.Context, id string) (*domain.Scenario, error)
	SetSkipHint(ctx context.Context, id string) error
	QueueDepth(ctx context.Context, service string) (int64, error)
	Pop(ctx context.Context, service string, timeout time.Duration) (string, error)
	Publish(ctx context.Context, sc *domain.Scenario, tasks []*domain.Task) error
	Claim(ctx context.Context, taskID string) (bool, error)
	Succeed(ctx context.Context, taskID, resultRef string) ([]string, error)
	Fail(ctx context.Context, taskID, errMsg string) error
	ResolveSkipped(ctx context.Context, taskID string) (bool, error)
}

var _ Interface = (*Store)(nil)
