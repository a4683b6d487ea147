package rules

import (
	"fmt"
	"maps"

	m "docmig.dev/pkg/docmig/internal/model"
)

// patchDocumentAction returns the rule's node patch ({path, op}) as a raw
// change for every matching document.
func patchDocumentAction(rule Rule) (documentAction, error) {
	if rule.On != OnDocument {
		return nil, fmt.Errorf("patch rules run on documents, not %q", rule.On)
	}

	if _, ok := rule.Patch["path"]; !ok {
		return nil, fmt.Errorf("patch needs a path")
	}

	op, ok := rule.Patch["op"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("patch needs an op")
	}

	if name, _ := op["type"].(string); !m.IsOperationType(name) {
		return nil, fmt.Errorf("patch op has unknown type %q", name)
	}

	return func(m.Document) (m.Change, error) {
		return m.RawChange(maps.Clone(rule.Patch)), nil
	}, nil
}

// deleteDocumentAction deletes every matching document.
func deleteDocumentAction(rule Rule) (documentAction, error) {
	if rule.On != OnDocument {
		return nil, fmt.Errorf("delete rules run on documents, not %q", rule.On)
	}

	return func(doc m.Document) (m.Change, error) {
		return m.RawChange{"type": string(m.MutationDelete), "id": doc.ID()}, nil
	}, nil
}
