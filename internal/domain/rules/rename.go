package rules

import (
	"fmt"

	m "docmig.dev/pkg/docmig/internal/model"
)

// renameAction moves an object member to a new key unless the target key is
// already present.
func renameAction(rule Rule) (nodeAction, error) {
	if rule.On != OnObject {
		return nil, fmt.Errorf("rename rules run on objects, not %q", rule.On)
	}

	from, to := rule.Rename.From, rule.Rename.To
	if from == "" || to == "" || from == to {
		return nil, fmt.Errorf("rename needs distinct from and to keys")
	}

	return func(value m.Value, path m.Path) (m.Change, error) {
		obj, ok := value.(m.Object)
		if !ok {
			return nil, nil
		}

		moved, ok := obj.Get(from)
		if !ok {
			return nil, nil
		}

		if _, exists := obj.Get(to); exists {
			return nil, nil
		}

		return m.Changes{
			m.At(path.Append(m.Key(to)), m.Set(moved)),
			m.Unassign(from),
		}, nil
	}, nil
}
