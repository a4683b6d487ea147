package domain

import (
	"fmt"

	m "docmig.dev/pkg/docmig/internal/model"
)

// NormalizeNode promotes a bare Operation to a NodePatch bound to path.
// Mutations and NodePatches pass through unchanged. RawChange values are
// classified by shape first.
func NormalizeNode(path m.Path, change m.Change) (m.Change, error) {
	typed, err := resolveChange(change)
	if err != nil {
		return nil, &MalformedOutputError{Path: path, Value: change, Reason: err.Error()}
	}

	if op, ok := typed.(m.Operation); ok {
		return m.At(path, op), nil
	}

	return typed, nil
}

// NormalizeDocument promotes a NodePatch to a patch Mutation on documentID.
// Mutations pass through unchanged. An Operation has no node to bind to at
// this level and is rejected.
func NormalizeDocument(documentID string, change m.Change) (m.Mutation, error) {
	typed, err := resolveChange(change)
	if err != nil {
		return nil, &MalformedOutputError{DocumentID: documentID, Value: change, Reason: err.Error()}
	}

	switch c := typed.(type) {
	case m.Mutation:
		return c, nil
	case m.NodePatch:
		return m.Patch(documentID, c), nil
	default:
		return nil, &MalformedOutputError{
			DocumentID: documentID,
			Value:      change,
			Reason:     "operation is not bound to a path",
		}
	}
}

// resolveChange turns change into one of Operation, NodePatch or Mutation.
func resolveChange(change m.Change) (m.Change, error) {
	switch c := change.(type) {
	case m.Operation, m.NodePatch, m.Mutation:
		return c, nil
	case m.RawChange:
		return sniffRaw(c)
	case m.Changes:
		return nil, fmt.Errorf("nested change list must be flattened first")
	case nil:
		return nil, fmt.Errorf("nil change")
	default:
		return nil, fmt.Errorf("unsupported change %T", change)
	}
}

// sniffRaw classifies an untyped change by shape: a "type" naming an
// operation kind is an Operation, any other "type" is a Mutation, and a
// "path" with an "op" is a NodePatch.
func sniffRaw(raw m.RawChange) (m.Change, error) {
	value, err := m.FromAny(map[string]any(raw))
	if err != nil {
		return nil, err
	}

	fields, ok := value.(m.Object)
	if !ok {
		return nil, fmt.Errorf("raw change is not an object")
	}

	if discriminant, has := fields.Get("type"); has {
		name, isString := discriminant.(string)
		if !isString {
			return nil, fmt.Errorf("type field must be a string")
		}

		if m.IsOperationType(name) {
			return m.DecodeOperation(fields)
		}

		return m.DecodeMutation(fields)
	}

	_, hasPath := fields.Get("path")
	_, hasOp := fields.Get("op")

	if hasPath && hasOp {
		return m.DecodeNodePatch(fields)
	}

	return nil, fmt.Errorf("value is neither a mutation, a node patch nor an operation")
}
