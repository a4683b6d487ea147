package domain

import (
	"errors"
	"fmt"
	"log/slog"

	m "docmig.dev/pkg/docmig/internal/model"
)

// Compile turns a migration definition into a StreamingMigration. A Stream
// definition is returned unchanged; Node hooks are wrapped in a producer that
// filters documents and emits one non-empty batch per matching document.
func Compile(migration Migration) (StreamingMigration, error) {
	if migration.Stream != nil {
		slog.Debug("Using streaming migration as is", "migration", migration.ID)
		return migration.Stream, nil
	}

	if migration.Node == nil {
		return nil, fmt.Errorf("compile migration %q: %w", migration.ID, ErrEmptyMigration)
	}

	if len(migration.DocumentTypes) == 0 {
		slog.Warn("Migration has no document types; no document will match", "migration", migration.ID)
	}

	return newBatchEmitter(migration.Node, newDocumentFilter(migration.DocumentTypes, migration.Predicate)), nil
}

// collectDocumentMutations runs the document hook and then every node hook for
// doc, returning document-hook mutations first and node mutations in
// traversal order.
func collectDocumentMutations(nm NodeMigration, doc m.Document, mctx m.MigrationContext) (m.MutationBatch, error) {
	documentID := doc.ID()
	batch := m.MutationBatch{}

	docChange, err := nm.Document(doc, mctx)
	if err != nil {
		return nil, &HookError{DocumentID: documentID, Path: m.Path{}, Hook: hookDocument, Err: err}
	}

	for _, change := range m.Flatten(docChange) {
		mutation, err := NormalizeDocument(documentID, change)
		if err != nil {
			return nil, attribute(err, documentID, m.Path{}, hookDocument)
		}

		batch = append(batch, mutation)
	}

	nodeChanges := FlatMapDeep(doc.Root(), func(value m.Value, path m.Path) (m.Change, error) {
		return collectNodeChanges(nm, documentID, value, path, mctx)
	})

	for change, err := range nodeChanges {
		if err != nil {
			return nil, err
		}

		mutation, err := NormalizeDocument(documentID, change)
		if err != nil {
			return nil, attribute(err, documentID, nil, hookNode)
		}

		batch = append(batch, mutation)
	}

	return batch, nil
}

const (
	hookDocument = "document"
	hookNode     = "node"
)

// collectNodeChanges invokes the kind-agnostic hook and then the hook for the
// value's kind, normalizing each result against path.
func collectNodeChanges(nm NodeMigration, documentID string, value m.Value, path m.Path, mctx m.MigrationContext) (m.Change, error) {
	nodeChange, err := nm.Node(value, path, mctx)
	if err != nil {
		return nil, &HookError{DocumentID: documentID, Path: path, Hook: hookNode, Err: err}
	}

	kind, err := ClassifyValue(value)
	if err != nil {
		return nil, fmt.Errorf("document %q at %q: %w", documentID, path.String(), err)
	}

	kindChange, err := migrateNodeType(nm, kind, value, path, mctx)
	if err != nil {
		return nil, &HookError{DocumentID: documentID, Path: path, Hook: string(kind), Err: err}
	}

	normalized := make(m.Changes, 0)

	for _, hooked := range []struct {
		hook   string
		change m.Change
	}{{hookNode, nodeChange}, {string(kind), kindChange}} {
		for _, change := range m.Flatten(hooked.change) {
			n, err := NormalizeNode(path, change)
			if err != nil {
				return nil, attribute(err, documentID, path, hooked.hook)
			}

			normalized = append(normalized, n)
		}
	}

	return normalized, nil
}

func migrateNodeType(nm NodeMigration, kind m.Kind, value m.Value, path m.Path, mctx m.MigrationContext) (m.Change, error) {
	switch kind {
	case m.KindString:
		return nm.String(value.(string), path, mctx)
	case m.KindNumber:
		return nm.Number(toFloat(value), path, mctx)
	case m.KindBoolean:
		return nm.Boolean(value.(bool), path, mctx)
	case m.KindObject:
		if doc, ok := value.(m.Document); ok {
			return nm.Object(m.Object(doc), path, mctx)
		}

		return nm.Object(value.(m.Object), path, mctx)
	case m.KindArray:
		return nm.Array(value.(m.Array), path, mctx)
	case m.KindNull:
		return nm.Null(path, mctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrClassificationFailure, kind)
	}
}

func toFloat(v m.Value) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return 0
	}
}

// attribute fills in the origin of a malformed output error.
func attribute(err error, documentID string, path m.Path, hook string) error {
	var malformed *MalformedOutputError
	if !errors.As(err, &malformed) {
		return err
	}

	malformed.DocumentID = documentID
	malformed.Hook = hook

	if path != nil {
		malformed.Path = path
	}

	return malformed
}
