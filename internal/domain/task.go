package domain

import "time"

// TaskStatus is the state a task occupies in the
// PENDING -> QUEUED -> PROCESSING -> {SUCCESS, FAILED} lifecycle.
type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusQueued     TaskStatus = "QUEUED"
	StatusProcessing TaskStatus = "PROCESSING"
	StatusSuccess    TaskStatus = "SUCCESS"
	StatusFailed     TaskStatus = "FAILED"
)

// Terminal reports whether a status accepts no further transitions.
func (s TaskStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// InputRefs names the upstream tasks a task consumes. Scalar fields
// resolve to a single task id; SlideIDs is the one list-valued reference
// field the templates exercise (fan-in over a multiplied label).
type InputRefs struct {
	TextTaskID    string   `json:"text_task_id,omitempty"`
	SlidePromptID string   `json:"slide_prompt_id,omitempty"`
	VoiceTrackID  string   `json:"voice_track_id,omitempty"`
	SlideIDs      []string `json:"slide_ids,omitempty"`
}

// Refs returns every upstream task id named by the input refs, in a
// stable order: the scalar fields first, then SlideIDs. Used by the
// expander to compute pending_count and the cycle-check edges.
func (r InputRefs) Refs() []string {
	var out []string
	if r.TextTaskID != "" {
		out = append(out, r.TextTaskID)
	}
	if r.SlidePromptID != "" {
		out = append(out, r.SlidePromptID)
	}
	if r.VoiceTrackID != "" {
		out = append(out, r.VoiceTrackID)
	}
	out = append(out, r.SlideIDs...)
	return out
}

// Task is the unit of work dispatched to exactly one worker service.
type Task struct {
	ID           string
	ScenarioID   string
	Service      string
	Name         string
	PendingCount int
	Status       TaskStatus
	Consumers    []string
	Prompt       string
	Params       map[string]any
	InputRefs    InputRefs
	ResultRef    string
	Error        string
	SkipHint     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Eligible reports whether a task is ripe for the PENDING -> QUEUED
// transition.
func (t *Task) Eligible() bool {
	return t.Status == StatusPending && t.PendingCount == 0
}

// CanRetry is unused by the core (workers own retry policy); it is kept
// as a helper mirroring the teacher's CanRetry convention.
func (t *Task) CanRetry(maxRetries, retryCount int) bool {
	return retryCount < maxRetries
}
