// Package publisher turns a submitted (template_name, parameters) pair
// into a persisted scenario: render, expand, then write tasks, the
// scenario index, and the initial queue pushes in one atomic pass
// (spec.md 4.4).
package publisher

import (
	"context"

	"github.com/google/uuid"

	"go-tempo/internal/expander"
	"go-tempo/internal/metrics"
	"go-tempo/internal/store"
	"go-tempo/internal/template"
)

// Publisher submits scenario templates against a registry and a store.
type Publisher struct {
	registry *template.Registry
	store    store.Interface
	metrics  *metrics.Collector
}

// New constructs a Publisher over a loaded template registry and store.
// metrics may be nil.
func New(registry *template.Registry, st store.Interface, mc *metrics.Collector) *Publisher {
	return &Publisher{registry: registry, store: st, metrics: mc}
}

// Submit renders templateName@version, expands it with params, and
// publishes the resulting task graph. It returns the new scenario id or
// a structured expansion/store error; on any error nothing is persisted
// (spec.md 7, "expansion-time errors surface synchronously... no state
// is persisted").
func (p *Publisher) Submit(ctx context.Context, templateName, version string, params map[string]any) (string, error) {
	rt, err := p.registry.Lookup(templateName, version)
	if err != nil {
		p.recordFailure()
		return "", err
	}

	scenarioID := uuid.New().String()
	salt := uuid.New().String()

	doc, engine, err := template.Expand(rt, salt, params)
	if err != nil {
		p.recordFailure()
		return "", err
	}

	result, err := expander.Expand(doc, engine, scenarioID)
	if err != nil {
		p.recordFailure()
		return "", err
	}

	if err := p.store.Publish(ctx, result.Scenario, result.Tasks); err != nil {
		p.recordFailure()
		return "", err
	}

	if p.metrics != nil {
		p.metrics.RecordScenarioSubmitted()
		for _, t := range result.Tasks {
			if t.Eligible() {
				p.metrics.RecordTaskQueued()
			}
		}
	}

	return scenarioID, nil
}

func (p *Publisher) recordFailure() {
	if p.metrics != nil {
		p.metrics.RecordScenarioFailed()
	}
}
