package rules

import (
	"fmt"
	"regexp"

	m "docmig.dev/pkg/docmig/internal/model"
)

// replaceAction rewrites string values with a regular expression and sets the
// result when it differs from the original.
func replaceAction(rule Rule) (nodeAction, error) {
	if rule.On != OnString && rule.On != OnNode {
		return nil, fmt.Errorf("replace rules run on strings, not %q", rule.On)
	}

	re, err := regexp.Compile(rule.Replace.Pattern)
	if err != nil {
		return nil, fmt.Errorf("replace pattern: %w", err)
	}

	with := rule.Replace.With

	return func(value m.Value, _ m.Path) (m.Change, error) {
		s, ok := value.(string)
		if !ok {
			return nil, nil
		}

		replaced := re.ReplaceAllString(s, with)
		if replaced == s {
			return nil, nil
		}

		return m.RawChange{"type": string(m.OpSet), "value": replaced}, nil
	}, nil
}
