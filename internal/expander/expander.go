// Package expander materialises a rendered scenario template into a
// concrete task graph: count multiplication, reference rewriting, edge
// computation, and the expansion-time cycle check (spec.md 4.3).
package expander

import (
	"fmt"
	"strconv"
	"time"

	"go-tempo/internal/domain"
	orcherrors "go-tempo/internal/errors"
	"go-tempo/internal/template"
)

const maxCollisionRetries = 3

// replica is one materialised copy of a template task, tagged with the
// template label and replica index it came from so reference rewriting
// can apply the scalar index-matching rule.
type replica struct {
	label string
	index int // 1-based; 0 means "not multiplied" (count absent or 1)
	tmpl  template.TaskTemplate
	task  *domain.Task
}

// Result is the output of one expansion: a scenario record plus its
// tasks in expansion order (the order tasks were appended, which is also
// the deterministic enqueue order for tasks published ready, spec.md 3).
type Result struct {
	Scenario *domain.Scenario
	Tasks    []*domain.Task
}

// Expand runs the seven-step algorithm of spec.md 4.3 against an
// already-rendered Document (see template.Expand for the substitution
// step).
func Expand(doc *template.Document, engine *template.Engine, scenarioID string) (*Result, error) {
	now := time.Now()

	replicas, err := materialize(doc, engine, now)
	if err != nil {
		return nil, err
	}

	alias := buildAliasTable(replicas)

	taskMap := make(map[string]*domain.Task, len(replicas))
	for _, r := range replicas {
		r.task.ScenarioID = scenarioID
		taskMap[r.task.ID] = r.task
	}

	if err := rewriteReferences(replicas, alias); err != nil {
		return nil, err
	}

	if err := validateReferences(replicas, alias); err != nil {
		return nil, err
	}

	computeEdges(replicas, taskMap)

	if err := checkAcyclic(replicas); err != nil {
		return nil, err
	}

	tasks := make([]*domain.Task, 0, len(replicas))
	taskIDs := make([]string, 0, len(replicas))
	for _, r := range replicas {
		tasks = append(tasks, r.task)
		taskIDs = append(taskIDs, r.task.ID)
	}

	sc := &domain.Scenario{
		ScenarioID:      scenarioID,
		TemplateName:    doc.Name,
		TemplateVersion: doc.Version,
		TaskIDs:         taskIDs,
		CreatedAt:       now,
	}

	return &Result{Scenario: sc, Tasks: tasks}, nil
}

// materialize runs steps 1-2: resolves each task template's count and
// produces one domain.Task per replica, with ids minted by the engine's
// identifier generators.
func materialize(doc *template.Document, engine *template.Engine, now time.Time) ([]*replica, error) {
	var out []*replica
	assigned := make(map[string]bool)

	for _, tt := range doc.Tasks {
		if tt.ID == "" {
			return nil, orcherrors.Wrap(orcherrors.ErrInvalidTemplate, "task missing id/label")
		}

		count, err := parseCount(tt.Count)
		if err != nil {
			return nil, orcherrors.Wrap(orcherrors.ErrInvalidTemplate, err.Error())
		}

		if count == 0 {
			// No replicas, so the label gets no alias table entry and
			// any reference to it fails DANGLING_REFERENCE.
			continue
		}

		for i := 1; i <= count; i++ {
			label := tt.ID
			genKey := label
			idx := 0
			prompt := tt.Prompt
			if count > 1 {
				genKey = fmt.Sprintf("%s.%d", label, i)
				idx = i
				prompt = fmt.Sprintf("%s %d", tt.Prompt, i)
			}

			id, err := mintID(engine, genKey, assigned)
			if err != nil {
				return nil, err
			}
			assigned[id] = true

			task := &domain.Task{
				ID:           id,
				Service:      tt.Service,
				Name:         tt.Name,
				Status:       domain.StatusPending,
				Prompt:       prompt,
				Params:       tt.Params,
				CreatedAt:    now,
				UpdatedAt:    now,
			}

			out = append(out, &replica{label: label, index: idx, tmpl: tt, task: task})
		}
	}

	return out, nil
}

// mintID asks the engine for genKey's id, retrying with a salted variant
// (spec.md 4.3, ID_COLLISION) if the id is already assigned to another
// task in this expansion.
func mintID(engine *template.Engine, genKey string, assigned map[string]bool) (string, error) {
	id := engine.UUID(genKey)
	if !assigned[id] {
		return id, nil
	}
	for attempt := 1; attempt <= maxCollisionRetries; attempt++ {
		salted := engine.UUID(fmt.Sprintf("%s#retry%d", genKey, attempt))
		if !assigned[salted] {
			return salted, nil
		}
	}
	return "", orcherrors.Wrap(orcherrors.ErrIDCollision, genKey)
}

func parseCount(raw any) (int, error) {
	switch v := raw.(type) {
	case nil:
		return 1, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		if v == "" {
			return 1, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid count %q: %w", v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported count type %T", raw)
	}
}
