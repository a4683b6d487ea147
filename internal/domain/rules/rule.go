package rules

import (
	"fmt"
	"reflect"
	"regexp"

	"docmig.dev/pkg/docmig/internal/domain"
	m "docmig.dev/pkg/docmig/internal/model"
)

// Hook names a rule may run in.
const (
	OnDocument = "document"
	OnNode     = "node"
	OnString   = string(m.KindString)
	OnNumber   = string(m.KindNumber)
	OnBoolean  = string(m.KindBoolean)
	OnObject   = string(m.KindObject)
	OnArray    = string(m.KindArray)
	OnNull     = string(m.KindNull)
)

var validHooks = map[string]struct{}{
	OnDocument: {}, OnNode: {}, OnString: {}, OnNumber: {},
	OnBoolean: {}, OnObject: {}, OnArray: {}, OnNull: {},
}

type nodeAction func(value m.Value, path m.Path) (m.Change, error)

type documentAction func(doc m.Document) (m.Change, error)

type compiledRule struct {
	index     int
	on        string
	pattern   PathPattern
	equals    m.Value
	hasEquals bool
	match     *regexp.Regexp

	node     nodeAction
	document documentAction
}

// Migration compiles def into a node-oriented migration.
func (def Definition) Migration() (domain.Migration, error) {
	compiled := make([]compiledRule, 0, len(def.Rules))

	for i, rule := range def.Rules {
		cr, err := compileRule(i, rule)
		if err != nil {
			return domain.Migration{}, fmt.Errorf("%w: rule %d: %v", ErrInvalidDefinition, i, err)
		}

		compiled = append(compiled, cr)
	}

	return domain.Migration{
		ID:            def.ID,
		Title:         def.Title,
		Description:   def.Description,
		DocumentTypes: def.DocumentTypes,
		Filter:        def.Filter,
		Node:          newRuleMigration(compiled),
	}, nil
}

func compileRule(index int, rule Rule) (compiledRule, error) {
	if _, ok := validHooks[rule.On]; !ok {
		return compiledRule{}, fmt.Errorf("unknown hook %q", rule.On)
	}

	if err := checkSingleAction(rule); err != nil {
		return compiledRule{}, err
	}

	pattern, err := ParsePathPattern(rule.Path)
	if err != nil {
		return compiledRule{}, err
	}

	cr := compiledRule{index: index, on: rule.On, pattern: pattern}

	if rule.Equals.Kind != 0 {
		var raw any
		if err := rule.Equals.Decode(&raw); err != nil {
			return compiledRule{}, fmt.Errorf("equals: %w", err)
		}

		if cr.equals, err = m.FromAny(raw); err != nil {
			return compiledRule{}, fmt.Errorf("equals: %w", err)
		}

		cr.hasEquals = true
	}

	if rule.Match != "" {
		if cr.match, err = regexp.Compile(rule.Match); err != nil {
			return compiledRule{}, fmt.Errorf("match: %w", err)
		}
	}

	switch {
	case rule.Op != nil:
		cr.node, err = opAction(rule)
	case rule.Replace != nil:
		cr.node, err = replaceAction(rule)
	case rule.Rename != nil:
		cr.node, err = renameAction(rule)
	case rule.Patch != nil:
		cr.document, err = patchDocumentAction(rule)
	case rule.Delete:
		cr.document, err = deleteDocumentAction(rule)
	}

	return cr, err
}

func checkSingleAction(rule Rule) error {
	count := 0

	for _, set := range []bool{rule.Op != nil, rule.Replace != nil, rule.Rename != nil, rule.Patch != nil, rule.Delete} {
		if set {
			count++
		}
	}

	switch count {
	case 0:
		return fmt.Errorf("rule has no action")
	case 1:
		return nil
	default:
		return fmt.Errorf("rule has %d actions, expected one", count)
	}
}

// applies reports whether the rule's conditions hold for value at path.
func (cr compiledRule) applies(value m.Value, path m.Path) bool {
	if !cr.pattern.Match(path) {
		return false
	}

	if cr.hasEquals && !reflect.DeepEqual(normalizeNumber(value), cr.equals) {
		return false
	}

	if cr.match != nil {
		s, ok := value.(string)
		if !ok || !cr.match.MatchString(s) {
			return false
		}
	}

	return true
}

func normalizeNumber(v m.Value) m.Value {
	if n, err := m.FromAny(v); err == nil {
		return n
	}

	return v
}

// ruleMigration runs compiled rules from the hook each one is registered on.
type ruleMigration struct {
	byHook map[string][]compiledRule
}

var _ domain.NodeMigration = (*ruleMigration)(nil)

func newRuleMigration(compiled []compiledRule) *ruleMigration {
	byHook := make(map[string][]compiledRule)
	for _, cr := range compiled {
		byHook[cr.on] = append(byHook[cr.on], cr)
	}

	return &ruleMigration{byHook: byHook}
}

func (rm *ruleMigration) apply(hook string, value m.Value, path m.Path) (m.Change, error) {
	var changes m.Changes

	for _, cr := range rm.byHook[hook] {
		if !cr.applies(value, path) {
			continue
		}

		change, err := cr.node(value, path)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", cr.index, err)
		}

		if change != nil {
			changes = append(changes, change)
		}
	}

	if len(changes) == 0 {
		return nil, nil
	}

	return changes, nil
}

// Document implements domain.NodeMigration.
func (rm *ruleMigration) Document(doc m.Document, _ m.MigrationContext) (m.Change, error) {
	var changes m.Changes

	for _, cr := range rm.byHook[OnDocument] {
		change, err := cr.document(doc)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", cr.index, err)
		}

		changes = append(changes, change)
	}

	if len(changes) == 0 {
		return nil, nil
	}

	return changes, nil
}

// Node implements domain.NodeMigration.
func (rm *ruleMigration) Node(value m.Value, path m.Path, _ m.MigrationContext) (m.Change, error) {
	return rm.apply(OnNode, value, path)
}

// String implements domain.NodeMigration.
func (rm *ruleMigration) String(value string, path m.Path, _ m.MigrationContext) (m.Change, error) {
	return rm.apply(OnString, value, path)
}

// Number implements domain.NodeMigration.
func (rm *ruleMigration) Number(value float64, path m.Path, _ m.MigrationContext) (m.Change, error) {
	return rm.apply(OnNumber, value, path)
}

// Boolean implements domain.NodeMigration.
func (rm *ruleMigration) Boolean(value bool, path m.Path, _ m.MigrationContext) (m.Change, error) {
	return rm.apply(OnBoolean, value, path)
}

// Object implements domain.NodeMigration.
func (rm *ruleMigration) Object(value m.Object, path m.Path, _ m.MigrationContext) (m.Change, error) {
	return rm.apply(OnObject, value, path)
}

// Array implements domain.NodeMigration.
func (rm *ruleMigration) Array(value m.Array, path m.Path, _ m.MigrationContext) (m.Change, error) {
	return rm.apply(OnArray, value, path)
}

// Null implements domain.NodeMigration.
func (rm *ruleMigration) Null(path m.Path, _ m.MigrationContext) (m.Change, error) {
	return rm.apply(OnNull, nil, path)
}
