package template

import (
	"gopkg.in/yaml.v3"

	orcherrors "go-tempo/internal/errors"
)

// Expand renders a registered template with the given scenario-scoped
// salt and caller parameters, then parses the result into a Document.
// The returned Engine is handed back so the expander can keep minting
// ids for count-multiplied replicas with the same memoized salt.
func Expand(rt rawTemplate, salt string, params map[string]any) (*Document, *Engine, error) {
	engine := New(salt)
	variables := MergeVariables(rt.defaults, params)

	rendered, err := engine.Render(rt.source, variables)
	if err != nil {
		return nil, nil, err
	}

	var doc Document
	if err := yaml.Unmarshal([]byte(rendered), &doc); err != nil {
		return nil, nil, orcherrors.Wrap(orcherrors.ErrInvalidTemplate, err.Error())
	}
	if doc.Version == "" {
		doc.Version = rt.version
	}
	return &doc, engine, nil
}
