// Package store wraps a Redis deployment with the hash+list KV
// abstraction required by spec.md 4.1: per-key hash maps, blocking and
// non-blocking list operations, and atomic multi-key scripts.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-tempo/internal/domain"
	orcherrors "go-tempo/internal/errors"
)

// Store is the orchestrator's only shared resource (spec.md 5). It is
// safe for concurrent use by any number of stateless processes.
type Store struct {
	client *redis.Client
}

// New dials a Redis instance at addr (host:port, passed unchanged from
// STORE_URL; a redis:// URL is not parsed) and verifies connectivity.
func New(ctx context.Context, addr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 100,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an already-configured client, used by tests that
// point at a local or fake Redis.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// taskFields encodes a Task into the flat string map a Redis hash
// stores. List and structured values round-trip as JSON text blobs
// (spec.md 6, "persisted task layout").
func taskFields(t *domain.Task) (map[string]any, error) {
	consumers, err := json.Marshal(t.Consumers)
	if err != nil {
		return nil, err
	}
	inputRefs, err := json.Marshal(t.InputRefs)
	if err != nil {
		return nil, err
	}
	params, err := json.Marshal(t.Params)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		"id":            t.ID,
		"scenario_id":   t.ScenarioID,
		"service":       t.Service,
		"name":          t.Name,
		"pending_count": t.PendingCount,
		"status":        string(t.Status),
		"consumers":     string(consumers),
		"prompt":        t.Prompt,
		"params":        string(params),
		"input_refs":    string(inputRefs),
		"result_ref":    t.ResultRef,
		"error":         t.Error,
		"skip_hint":     t.SkipHint,
		"created_at":    t.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":    t.UpdatedAt.Format(time.RFC3339Nano),
	}
	return fields, nil
}

func decodeTask(id string, raw map[string]string) (*domain.Task, error) {
	if len(raw) == 0 {
		return nil, orcherrors.Wrap(orcherrors.ErrUnknownTask, id)
	}

	t := &domain.Task{
		ID:         id,
		ScenarioID: raw["scenario_id"],
		Service:    raw["service"],
		Name:       raw["name"],
		Status:     domain.TaskStatus(raw["status"]),
		Prompt:     raw["prompt"],
		ResultRef:  raw["result_ref"],
		Error:      raw["error"],
		SkipHint:   raw["skip_hint"] == "1" || raw["skip_hint"] == "true",
	}

	if v, ok := raw["pending_count"]; ok && v != "" {
		fmt.Sscanf(v, "%d", &t.PendingCount)
	}
	if v := raw["consumers"]; v != "" {
		if err := json.Unmarshal([]byte(v), &t.Consumers); err != nil {
			return nil, err
		}
	}
	if v := raw["input_refs"]; v != "" {
		if err := json.Unmarshal([]byte(v), &t.InputRefs); err != nil {
			return nil, err
		}
	}
	if v := raw["params"]; v != "" {
		if err := json.Unmarshal([]byte(v), &t.Params); err != nil {
			return nil, err
		}
	}
	if v := raw["created_at"]; v != "" {
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	if v := raw["updated_at"]; v != "" {
		t.UpdatedAt, _ = time.Parse(time.RFC3339Nano, v)
	}

	return t, nil
}

// GetTask reads a task's full record. Reads are not linearised against
// ongoing transitions (spec.md 4.7): a slightly stale view is acceptable.
func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	raw, err := s.client.HGetAll(ctx, taskKey(id)).Result()
	if err != nil {
		return nil, orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}
	return decodeTask(id, raw)
}

// GetTasks reads several tasks in one pipelined round-trip, preserving
// the order of ids. Missing tasks are skipped rather than erroring,
// since callers (the Query API's progress summary) scan a scenario's own
// task-id list and every id there is expected to exist.
func (s *Store) GetTasks(ctx context.Context, ids []string) ([]*domain.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, taskKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}

	tasks := make([]*domain.Task, 0, len(ids))
	for i, cmd := range cmds {
		raw, err := cmd.Result()
		if err != nil && err != redis.Nil {
			return nil, orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
		}
		if len(raw) == 0 {
			continue
		}
		t, err := decodeTask(ids[i], raw)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// GetScenario reads a scenario's record and the ordered list of its task
// ids.
func (s *Store) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	raw, err := s.client.HGetAll(ctx, scenarioKey(id)).Result()
	if err != nil {
		return nil, orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}
	if len(raw) == 0 {
		return nil, orcherrors.Wrap(orcherrors.ErrUnknownScenario, id)
	}

	taskIDs, err := s.client.LRange(ctx, scenarioTasksKey(id), 0, -1).Result()
	if err != nil {
		return nil, orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}

	sc := &domain.Scenario{
		ScenarioID:      id,
		TemplateName:    raw["template_name"],
		TemplateVersion: raw["template_version"],
		TaskIDs:         taskIDs,
	}
	if v := raw["created_at"]; v != "" {
		sc.CreatedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	return sc, nil
}

// SetSkipHint marks a task for skip resolution by a worker or the
// janitor (cascade-fail mode, SPEC_FULL.md "Supplemented features").
func (s *Store) SetSkipHint(ctx context.Context, id string) error {
	if err := s.client.HSet(ctx, taskKey(id), "skip_hint", true).Err(); err != nil {
		return orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}
	return nil
}

// QueueDepth returns the current length of a service's ready queue.
func (s *Store) QueueDepth(ctx context.Context, service string) (int64, error) {
	n, err := s.client.LLen(ctx, queueKey(service)).Result()
	if err != nil {
		return 0, orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}
	return n, nil
}

// Pop performs a blocking pop from the head of a service queue. timeout
// of 0 blocks forever; it returns ("", nil) if the context is cancelled
// or the timeout elapses without an item.
func (s *Store) Pop(ctx context.Context, service string, timeout time.Duration) (string, error) {
	result, err := s.client.BLPop(ctx, timeout, queueKey(service)).Result()
	if err == redis.Nil || ctx.Err() != nil {
		return "", nil
	}
	if err != nil {
		return "", orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}
	// BLPop returns [queueName, element].
	return result[1], nil
}

// Client exposes the underlying redis client for callers that need to
// build a pipeline or run a script directly. Nothing in this module calls
// it; the store's own methods use the client field.
func (s *Store) Client() *redis.Client {
	return s.client
}

// Publish writes a scenario's tasks, the scenario index, and the initial
// queue pushes in one pipelined round-trip (spec.md 4.4). The scenario
// key is queued last so that, even without true multi-key atomicity, a
// reader who finds task hashes but no scenario key knows the scenario is
// not yet (or never) published.
func (s *Store) Publish(ctx context.Context, sc *domain.Scenario, tasks []*domain.Task) error {
	pipe := s.client.TxPipeline()

	for _, t := range tasks {
		fields, err := taskFields(t)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, taskKey(t.ID), fields)
		if t.Eligible() {
			pipe.HSet(ctx, taskKey(t.ID), "status", string(domain.StatusQueued))
			pipe.RPush(ctx, queueKey(t.Service), t.ID)
		}
	}

	for _, id := range sc.TaskIDs {
		pipe.RPush(ctx, scenarioTasksKey(sc.ScenarioID), id)
	}
	pipe.HSet(ctx, scenarioKey(sc.ScenarioID), map[string]any{
		"scenario_id":      sc.ScenarioID,
		"template_name":    sc.TemplateName,
		"template_version": sc.TemplateVersion,
		"created_at":       sc.CreatedAt.Format(time.RFC3339Nano),
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}
	return nil
}
