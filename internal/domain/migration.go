package domain

import (
	"iter"

	m "docmig.dev/pkg/docmig/internal/model"
)

// StreamingMigration turns a document stream into a stream of mutation
// batches. It is the single contract every migration compiles to.
type StreamingMigration func(docs iter.Seq2[m.Document, error], mctx m.MigrationContext) iter.Seq2[m.MutationBatch, error]

// Migration is a migration definition. Exactly one of Stream or Node is used:
// a Stream is taken as is, Node hooks are compiled into a StreamingMigration.
type Migration struct {
	ID          string
	Title       string
	Description string

	// DocumentTypes is the allowlist of document types the node hooks apply
	// to. An empty allowlist matches no document.
	DocumentTypes []string

	// Filter is a query-side filter expression forwarded to document sources
	// that support it; it is not evaluated here.
	Filter string

	// Predicate is an optional in-process filter, checked after the type allowlist.
	Predicate func(doc m.Document) bool

	Stream StreamingMigration
	Node   NodeMigration
}

// NodeMigration receives a document and then every node of it. Each method
// may return nil, a single change or a (nested) Changes list.
type NodeMigration interface {
	Document(doc m.Document, mctx m.MigrationContext) (m.Change, error)
	Node(value m.Value, path m.Path, mctx m.MigrationContext) (m.Change, error)
	String(value string, path m.Path, mctx m.MigrationContext) (m.Change, error)
	Number(value float64, path m.Path, mctx m.MigrationContext) (m.Change, error)
	Boolean(value bool, path m.Path, mctx m.MigrationContext) (m.Change, error)
	Object(value m.Object, path m.Path, mctx m.MigrationContext) (m.Change, error)
	Array(value m.Array, path m.Path, mctx m.MigrationContext) (m.Change, error)
	Null(path m.Path, mctx m.MigrationContext) (m.Change, error)
}

// NopNodeMigration returns no changes for every hook. Embed it to implement
// only the hooks you need.
type NopNodeMigration struct{}

var _ NodeMigration = NopNodeMigration{}

// Document implements NodeMigration.
func (NopNodeMigration) Document(m.Document, m.MigrationContext) (m.Change, error) { return nil, nil }

// Node implements NodeMigration.
func (NopNodeMigration) Node(m.Value, m.Path, m.MigrationContext) (m.Change, error) { return nil, nil }

// String implements NodeMigration.
func (NopNodeMigration) String(string, m.Path, m.MigrationContext) (m.Change, error) { return nil, nil }

// Number implements NodeMigration.
func (NopNodeMigration) Number(float64, m.Path, m.MigrationContext) (m.Change, error) { return nil, nil }

// Boolean implements NodeMigration.
func (NopNodeMigration) Boolean(bool, m.Path, m.MigrationContext) (m.Change, error) { return nil, nil }

// Object implements NodeMigration.
func (NopNodeMigration) Object(m.Object, m.Path, m.MigrationContext) (m.Change, error) { return nil, nil }

// Array implements NodeMigration.
func (NopNodeMigration) Array(m.Array, m.Path, m.MigrationContext) (m.Change, error) { return nil, nil }

// Null implements NodeMigration.
func (NopNodeMigration) Null(m.Path, m.MigrationContext) (m.Change, error) { return nil, nil }

// NodeFuncs adapts optional functions to NodeMigration. Unset functions
// return no changes.
type NodeFuncs struct {
	OnDocument func(doc m.Document, mctx m.MigrationContext) (m.Change, error)
	OnNode     func(value m.Value, path m.Path, mctx m.MigrationContext) (m.Change, error)
	OnString   func(value string, path m.Path, mctx m.MigrationContext) (m.Change, error)
	OnNumber   func(value float64, path m.Path, mctx m.MigrationContext) (m.Change, error)
	OnBoolean  func(value bool, path m.Path, mctx m.MigrationContext) (m.Change, error)
	OnObject   func(value m.Object, path m.Path, mctx m.MigrationContext) (m.Change, error)
	OnArray    func(value m.Array, path m.Path, mctx m.MigrationContext) (m.Change, error)
	OnNull     func(path m.Path, mctx m.MigrationContext) (m.Change, error)
}

var _ NodeMigration = NodeFuncs{}

// Document implements NodeMigration.
func (f NodeFuncs) Document(doc m.Document, mctx m.MigrationContext) (m.Change, error) {
	if f.OnDocument == nil {
		return nil, nil
	}

	return f.OnDocument(doc, mctx)
}

// Node implements NodeMigration.
func (f NodeFuncs) Node(value m.Value, path m.Path, mctx m.MigrationContext) (m.Change, error) {
	if f.OnNode == nil {
		return nil, nil
	}

	return f.OnNode(value, path, mctx)
}

// String implements NodeMigration.
func (f NodeFuncs) String(value string, path m.Path, mctx m.MigrationContext) (m.Change, error) {
	if f.OnString == nil {
		return nil, nil
	}

	return f.OnString(value, path, mctx)
}

// Number implements NodeMigration.
func (f NodeFuncs) Number(value float64, path m.Path, mctx m.MigrationContext) (m.Change, error) {
	if f.OnNumber == nil {
		return nil, nil
	}

	return f.OnNumber(value, path, mctx)
}

// Boolean implements NodeMigration.
func (f NodeFuncs) Boolean(value bool, path m.Path, mctx m.MigrationContext) (m.Change, error) {
	if f.OnBoolean == nil {
		return nil, nil
	}

	return f.OnBoolean(value, path, mctx)
}

// Object implements NodeMigration.
func (f NodeFuncs) Object(value m.Object, path m.Path, mctx m.MigrationContext) (m.Change, error) {
	if f.OnObject == nil {
		return nil, nil
	}

	return f.OnObject(value, path, mctx)
}

// Array implements NodeMigration.
func (f NodeFuncs) Array(value m.Array, path m.Path, mctx m.MigrationContext) (m.Change, error) {
	if f.OnArray == nil {
		return nil, nil
	}

	return f.OnArray(value, path, mctx)
}

// Null implements NodeMigration.
func (f NodeFuncs) Null(path m.Path, mctx m.MigrationContext) (m.Change, error) {
	if f.OnNull == nil {
		return nil, nil
	}

	return f.OnNull(path, mctx)
}
