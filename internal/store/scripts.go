package store

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	orcherrors "go-tempo/internal/errors"
)

// claimScript transitions QUEUED -> PROCESSING. It returns 1 on success
// and 0 if the task's stored status was not QUEUED — the "late artefact
// from a crashed re-enqueue" case the worker must tolerate (spec.md 4.5).
var claimScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if status ~= 'QUEUED' then
	return 0
end
redis.call('HSET', KEYS[1], 'status', 'PROCESSING', 'updated_at', ARGV[1])
return 1
`)

// succeedScript is the central fan-out operation of spec.md 4.5. It
// validates PROCESSING, marks SUCCESS, and atomically decrements every
// consumer's pending_count, enqueueing any consumer that reaches zero.
// Running the whole thing as one script is what closes the lost-wakeup
// race between siblings of the same downstream task (spec.md property
// 6 / the diamond-graph concurrency property).
var succeedScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if status ~= 'PROCESSING' then
	return redis.error_reply('INVALID_TRANSITION')
end

redis.call('HSET', KEYS[1], 'status', 'SUCCESS', 'result_ref', ARGV[1], 'updated_at', ARGV[2])

local consumers_json = redis.call('HGET', KEYS[1], 'consumers')
local consumers = {}
if consumers_json and consumers_json ~= '' then
	consumers = cjson.decode(consumers_json)
end

local queued = {}
for _, cid in ipairs(consumers) do
	local ckey = 'task:' .. cid
	local cstatus = redis.call('HGET', ckey, 'status')
	if cstatus == 'PENDING' then
		local newCount = redis.call('HINCRBY', ckey, 'pending_count', -1)
		if newCount <= 0 then
			redis.call('HSET', ckey, 'status', 'QUEUED')
			local service = redis.call('HGET', ckey, 'service')
			if service and service ~= '' then
				redis.call('RPUSH', 'queue:' .. service, cid)
				table.insert(queued, cid)
			end
		end
	end
end

return queued
`)

// failScript transitions PROCESSING -> FAILED. Downstream tasks are left
// untouched (no cascade by default, spec.md 4.5).
var failScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if status ~= 'PROCESSING' then
	return redis.error_reply('INVALID_TRANSITION')
end
redis.call('HSET', KEYS[1], 'status', 'FAILED', 'error', ARGV[1], 'updated_at', ARGV[2])
return 1
`)

// Claim runs claimScript against a task popped from a queue. ok is false
// when the task had already moved past QUEUED (stale re-enqueue); the
// caller must pop again.
func (s *Store) Claim(ctx context.Context, taskID string) (ok bool, err error) {
	res, err := claimScript.Run(ctx, s.client, []string{taskKey(taskID)}, time.Now().Format(time.RFC3339Nano)).Result()
	if err != nil {
		return false, orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}
	n, _ := res.(int64)
	return n == 1, nil
}

// Succeed runs succeedScript and returns the ids enqueued as a result of
// this task's completion (siblings racing on a shared downstream task
// will split this list between them — each enqueue happens exactly
// once).
func (s *Store) Succeed(ctx context.Context, taskID, resultRef string) ([]string, error) {
	res, err := succeedScript.Run(ctx, s.client, []string{taskKey(taskID)}, resultRef, time.Now().Format(time.RFC3339Nano)).Result()
	if err != nil {
		if isInvalidTransition(err) {
			return nil, orcherrors.Wrap(orcherrors.ErrInvalidTransition, taskID)
		}
		return nil, orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}

	raw, _ := res.([]interface{})
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

// Fail runs failScript, marking the task FAILED with errMsg.
func (s *Store) Fail(ctx context.Context, taskID, errMsg string) error {
	_, err := failScript.Run(ctx, s.client, []string{taskKey(taskID)}, errMsg, time.Now().Format(time.RFC3339Nano)).Result()
	if err != nil {
		if isInvalidTransition(err) {
			return orcherrors.Wrap(orcherrors.ErrInvalidTransition, taskID)
		}
		return orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}
	return nil
}

// resolveSkippedScript transitions a PENDING task carrying a skip hint
// straight to FAILED, used by the janitor to resolve cascade-fail
// descendants that would otherwise sit PENDING forever (SPEC_FULL.md
// "Supplemented features", skip-hint propagation). It is a no-op (returns
// 0) for any task that is not PENDING or does not carry the hint, so
// callers can apply it speculatively without a prior read.
var resolveSkippedScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
local hint = redis.call('HGET', KEYS[1], 'skip_hint')
if status ~= 'PENDING' or (hint ~= 'true' and hint ~= '1') then
	return 0
end
redis.call('HSET', KEYS[1], 'status', 'FAILED', 'error', ARGV[1], 'updated_at', ARGV[2])
return 1
`)

// ResolveSkipped fails taskID if, and only if, it is still PENDING with
// its skip hint set. It returns false without error when the task has
// already moved on (claimed by a worker racing the janitor, or already
// resolved).
func (s *Store) ResolveSkipped(ctx context.Context, taskID string) (bool, error) {
	res, err := resolveSkippedScript.Run(ctx, s.client, []string{taskKey(taskID)}, "skipped: upstream failure", time.Now().Format(time.RFC3339Nano)).Result()
	if err != nil {
		return false, orcherrors.Wrap(orcherrors.ErrStoreUnavailable, err.Error())
	}
	n, _ := res.(int64)
	return n == 1, nil
}

func isInvalidTransition(err error) bool {
	return err != nil && strings.Contains(err.Error(), "INVALID_TRANSITION")
}
