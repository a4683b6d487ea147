package rules

import (
	"fmt"
	"maps"

	m "docmig.dev/pkg/docmig/internal/model"
)

// opAction returns the rule's operation verbatim as a raw change; its kind is
// recognised from its "type" field when the result is normalized.
func opAction(rule Rule) (nodeAction, error) {
	if rule.On == OnDocument {
		return nil, fmt.Errorf("op rules cannot run on documents, use patch")
	}

	name, _ := rule.Op["type"].(string)
	if !m.IsOperationType(name) {
		return nil, fmt.Errorf("op has unknown type %q", name)
	}

	return func(m.Value, m.Path) (m.Change, error) {
		return m.RawChange(maps.Clone(rule.Op)), nil
	}, nil
}
