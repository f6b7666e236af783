// Package template renders a scenario template document: variable
// substitution, identifier generators, and simple arithmetic, all
// evaluated before the Scenario Expander ever sees a concrete task list
// (spec.md 4.2).
package template

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"text/template"
	"time"

	orcherrors "go-tempo/internal/errors"
)

// Engine renders one scenario template for one expansion. It is not
// reusable across scenarios: each Engine carries its own salt, so two
// Engines constructed for different scenarios never agree on a label's
// generated id even when the label strings collide (spec.md 4.2).
type Engine struct {
	salt  string
	idMap map[string]string
}

// New creates an Engine scoped to a single scenario expansion. salt must
// be unique per scenario (the publisher feeds it a fresh uuid.New()).
func New(salt string) *Engine {
	return &Engine{salt: salt, idMap: make(map[string]string)}
}

// UUID returns the scenario-scoped id for label, minting one on first
// use and returning the same value on every subsequent call within this
// Engine (spec.md 4.2: "two invocations of UUID(label) within the same
// scenario expansion must return the same value").
func (e *Engine) UUID(label string) string {
	if id, ok := e.idMap[label]; ok {
		return id
	}
	id := e.derive(label)
	e.idMap[label] = id
	return id
}

// ShortUUID is UUID truncated to a compact 8-character form, matching
// original_source/processing_service/scenario_generator.py:short_uuid.
func (e *Engine) ShortUUID(label string) string {
	full := e.UUID(label)
	if len(full) > 8 {
		return full[:8]
	}
	return full
}

// derive computes a deterministic id from (salt, label) via SHA-1, the
// same construction uuid.NewSHA1 uses internally, rendered as hex so the
// result reads like a compact identifier rather than a formatted UUID.
func (e *Engine) derive(label string) string {
	h := sha1.New()
	h.Write([]byte(e.salt))
	h.Write([]byte{'.'})
	h.Write([]byte(label))
	return hex.EncodeToString(h.Sum(nil))
}

// Render substitutes variables, identifier generators and arithmetic
// helpers inside doc and returns the rendered document, ready for YAML
// parsing. Variables are referenced as {{ .Name }}; generators as
// {{ UUID "label" }} / {{ SHORT_UUID "label" }}; arithmetic via the
// registered add/sub/mul/div funcs, e.g. {{ mul .N_SLIDES 2 }}.
func (e *Engine) Render(doc string, variables map[string]any) (string, error) {
	funcs := template.FuncMap{
		"UUID":       e.UUID,
		"SHORT_UUID": e.ShortUUID,
		"NOW":        func() string { return time.Now().Format(time.RFC3339) },
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"mul":        func(a, b int) int { return a * b },
		"div":        func(a, b int) int { return a / b },
	}

	tmpl, err := template.New("scenario").Funcs(funcs).Parse(doc)
	if err != nil {
		return "", orcherrors.Wrap(orcherrors.ErrInvalidTemplate, err.Error())
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, variables); err != nil {
		return "", orcherrors.Wrap(orcherrors.ErrInvalidTemplate, err.Error())
	}
	return buf.String(), nil
}

// MergeVariables overlays caller-supplied parameters onto a template's
// declared defaults, returning a fresh map (defaults are never mutated).
func MergeVariables(defaults map[string]any, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
