package dto

import (
	"time"

	"go-tempo/internal/domain"
)

// TaskResponse renders a domain.Task for the query API.
type TaskResponse struct {
	ID           string            `json:"id"`
	ScenarioID   string            `json:"scenario_id"`
	Service      string            `json:"service"`
	Name         string            `json:"name"`
	Status       domain.TaskStatus `json:"status"`
	PendingCount int               `json:"pending_count"`
	Consumers    []string          `json:"consumers"`
	ResultRef    string            `json:"result_ref,omitempty"`
	Error        string            `json:"error,omitempty"`
	SkipHint     bool              `json:"skip_hint"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// FromTask adapts a domain.Task into its wire representation.
func FromTask(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:           t.ID,
		ScenarioID:   t.ScenarioID,
		Service:      t.Service,
		Name:         t.Name,
		Status:       t.Status,
		PendingCount: t.PendingCount,
		Consumers:    t.Consumers,
		ResultRef:    t.ResultRef,
		Error:        t.Error,
		SkipHint:     t.SkipHint,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// ScenarioResponse renders a domain.ScenarioSummary for the query API.
type ScenarioResponse struct {
	ScenarioID string         `json:"scenario_id"`
	Template   string         `json:"template_name"`
	Version    string         `json:"template_version"`
	TaskIDs    []string       `json:"task_ids"`
	Counts     map[string]int `json:"counts"`
	Stuck      bool           `json:"stuck"`
	Done       bool           `json:"done"`
	CreatedAt  time.Time      `json:"created_at"`
}

// FromScenarioSummary adapts a domain.ScenarioSummary into its wire
// representation, flattening the status-keyed count map to strings for
// stable JSON output.
func FromScenarioSummary(s *domain.ScenarioSummary) ScenarioResponse {
	counts := make(map[string]int, len(s.Counts))
	for status, n := range s.Counts {
		counts[string(status)] = n
	}
	return ScenarioResponse{
		ScenarioID: s.Scenario.ScenarioID,
		Template:   s.Scenario.TemplateName,
		Version:    s.Scenario.TemplateVersion,
		TaskIDs:    s.Scenario.TaskIDs,
		Counts:     counts,
		Stuck:      s.Stuck(),
		Done:       s.Done(),
		CreatedAt:  s.Scenario.CreatedAt,
	}
}

// QueueDepthResponse is returned by GET /api/v1/queues/:service/depth.
type QueueDepthResponse struct {
	Service string `json:"service"`
	Depth   int64  `json:"depth"`
}
