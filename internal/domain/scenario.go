package domain

import "time"

// Scenario is the umbrella record grouping the tasks materialised from
// one template expansion.
type Scenario struct {
	ScenarioID      string
	TemplateName    string
	TemplateVersion string
	TaskIDs         []string
	CreatedAt       time.Time
}

// StatusCounts is a per-status tally over a scenario's tasks, used by the
// Query API's scenario-progress summary.
type StatusCounts map[TaskStatus]int

// ScenarioSummary is the read-side view returned by GetScenario: the
// scenario record plus how many of its tasks sit in each status.
type ScenarioSummary struct {
	Scenario Scenario
	Counts   StatusCounts
}

// Stuck reports whether the scenario is blocked: at least one task has
// failed and nothing is still queued or processing behind it (spec.md
// 4.5, no-cascade failure policy).
func (s ScenarioSummary) Stuck() bool {
	if s.Counts[StatusFailed] == 0 {
		return false
	}
	return s.Counts[StatusQueued] == 0 && s.Counts[StatusProcessing] == 0
}

// Done reports whether every task in the scenario reached a terminal
// status.
func (s ScenarioSummary) Done() bool {
	return s.Counts[StatusPending] == 0 &&
		s.Counts[StatusQueued] == 0 &&
		s.Counts[StatusProcessing] == 0
}
