package model

import (
	"encoding/json"
	"fmt"
)

// MutationType names a top-level document mutation kind.
type MutationType string

// Mutation kinds known to this package. Any other kind is carried as a RawMutation.
const (
	MutationPatch             MutationType = "patch"
	MutationCreate            MutationType = "create"
	MutationCreateIfNotExists MutationType = "createIfNotExists"
	MutationCreateOrReplace   MutationType = "createOrReplace"
	MutationDelete            MutationType = "delete"
)

// Mutation is a document-scoped change, the canonical unit produced by a migration.
type Mutation interface {
	Change
	MutationType() MutationType
	// DocumentID returns the id of the document the mutation targets, when known.
	DocumentID() string
}

// NodePatch is an Operation bound to a path within one document.
type NodePatch struct {
	Path Path      `json:"path"`
	Op   Operation `json:"op"`
}

func (NodePatch) isChange() {}

// At binds op to path.
func At(path Path, op Operation) NodePatch {
	return NodePatch{Path: path, Op: op}
}

// PatchMutation applies node patches to the document with ID.
type PatchMutation struct {
	ID         string      `json:"id"`
	Patches    []NodePatch `json:"patches"`
	IfRevision string      `json:"ifRevisionID,omitempty"`
}

// CreateMutation creates Document; it fails in the store if the id exists.
type CreateMutation struct {
	Document Object `json:"document"`
}

// CreateIfNotExistsMutation creates Document unless its id exists.
type CreateIfNotExistsMutation struct {
	Document Object `json:"document"`
}

// CreateOrReplaceMutation creates Document or replaces the existing one.
type CreateOrReplaceMutation struct {
	Document Object `json:"document"`
}

// DeleteMutation deletes the document with ID.
type DeleteMutation struct {
	ID string `json:"id"`
}

// RawMutation is any other mutation kind, passed through without interpretation.
type RawMutation struct {
	Type MutationType
	Body Object
}

func (PatchMutation) isChange()             {}
func (CreateMutation) isChange()            {}
func (CreateIfNotExistsMutation) isChange() {}
func (CreateOrReplaceMutation) isChange()   {}
func (DeleteMutation) isChange()            {}
func (RawMutation) isChange()               {}

// MutationType implements Mutation.
func (PatchMutation) MutationType() MutationType { return MutationPatch }

// MutationType implements Mutation.
func (CreateMutation) MutationType() MutationType { return MutationCreate }

// MutationType implements Mutation.
func (CreateIfNotExistsMutation) MutationType() MutationType { return MutationCreateIfNotExists }

// MutationType implements Mutation.
func (CreateOrReplaceMutation) MutationType() MutationType { return MutationCreateOrReplace }

// MutationType implements Mutation.
func (DeleteMutation) MutationType() MutationType { return MutationDelete }

// MutationType implements Mutation.
func (r RawMutation) MutationType() MutationType { return r.Type }

// DocumentID implements Mutation.
func (p PatchMutation) DocumentID() string { return p.ID }

// DocumentID implements Mutation.
func (c CreateMutation) DocumentID() string { return c.Document.String("_id") }

// DocumentID implements Mutation.
func (c CreateIfNotExistsMutation) DocumentID() string { return c.Document.String("_id") }

// DocumentID implements Mutation.
func (c CreateOrReplaceMutation) DocumentID() string { return c.Document.String("_id") }

// DocumentID implements Mutation.
func (d DeleteMutation) DocumentID() string { return d.ID }

// DocumentID implements Mutation.
func (r RawMutation) DocumentID() string { return r.Body.String("id") }

// Patch builds a patch mutation for documentID.
func Patch(documentID string, patches ...NodePatch) PatchMutation {
	return PatchMutation{ID: documentID, Patches: patches}
}

// Create builds a create mutation.
func Create(document Object) CreateMutation { return CreateMutation{Document: document} }

// CreateIfNotExists builds a createIfNotExists mutation.
func CreateIfNotExists(document Object) CreateIfNotExistsMutation {
	return CreateIfNotExistsMutation{Document: document}
}

// CreateOrReplace builds a createOrReplace mutation.
func CreateOrReplace(document Object) CreateOrReplaceMutation {
	return CreateOrReplaceMutation{Document: document}
}

// Delete builds a delete mutation.
func Delete(documentID string) DeleteMutation { return DeleteMutation{ID: documentID} }

// MutationBatch is the ordered set of mutations produced for one source document.
type MutationBatch []Mutation

// MarshalJSON implements json.Marshaler.
func (p PatchMutation) MarshalJSON() ([]byte, error) {
	type alias PatchMutation

	return marshalTyped(MutationPatch, alias(p))
}

// MarshalJSON implements json.Marshaler.
func (c CreateMutation) MarshalJSON() ([]byte, error) {
	type alias CreateMutation

	return marshalTyped(MutationCreate, alias(c))
}

// MarshalJSON implements json.Marshaler.
func (c CreateIfNotExistsMutation) MarshalJSON() ([]byte, error) {
	type alias CreateIfNotExistsMutation

	return marshalTyped(MutationCreateIfNotExists, alias(c))
}

// MarshalJSON implements json.Marshaler.
func (c CreateOrReplaceMutation) MarshalJSON() ([]byte, error) {
	type alias CreateOrReplaceMutation

	return marshalTyped(MutationCreateOrReplace, alias(c))
}

// MarshalJSON implements json.Marshaler.
func (d DeleteMutation) MarshalJSON() ([]byte, error) {
	type alias DeleteMutation

	return marshalTyped(MutationDelete, alias(d))
}

// MarshalJSON implements json.Marshaler.
func (r RawMutation) MarshalJSON() ([]byte, error) {
	obj := Object{{Key: "type", Value: string(r.Type)}}
	for _, member := range r.Body {
		if member.Key != "type" {
			obj = append(obj, member)
		}
	}

	return json.Marshal(obj)
}

func marshalTyped(kind MutationType, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	fields, err := ParseObject(data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(append(Object{{Key: "type", Value: string(kind)}}, fields...))
}

// DecodeMutation builds a Mutation from its canonical object form. Kinds
// other than the known ones are returned as RawMutation.
func DecodeMutation(fields Object) (Mutation, error) {
	kind := MutationType(fields.String("type"))

	switch kind {
	case MutationPatch:
		return decodePatchMutation(fields)
	case MutationCreate, MutationCreateIfNotExists, MutationCreateOrReplace:
		raw, _ := fields.Get("document")

		doc, ok := raw.(Object)
		if !ok {
			return nil, fmt.Errorf("%s mutation requires a document object", kind)
		}

		switch kind {
		case MutationCreate:
			return Create(doc), nil
		case MutationCreateIfNotExists:
			return CreateIfNotExists(doc), nil
		default:
			return CreateOrReplace(doc), nil
		}
	case MutationDelete:
		id := fields.String("id")
		if id == "" {
			return nil, fmt.Errorf("delete mutation requires an id")
		}

		return Delete(id), nil
	case "":
		return nil, fmt.Errorf("mutation is missing its type")
	default:
		return RawMutation{Type: kind, Body: fields}, nil
	}
}

func decodePatchMutation(fields Object) (Mutation, error) {
	id := fields.String("id")
	if id == "" {
		return nil, fmt.Errorf("patch mutation requires an id")
	}

	raw, _ := fields.Get("patches")

	items, ok := raw.(Array)
	if !ok && raw != nil {
		return nil, fmt.Errorf("patch mutation patches must be an array")
	}

	patches := make([]NodePatch, 0, len(items))

	for i, item := range items {
		obj, ok := item.(Object)
		if !ok {
			return nil, fmt.Errorf("patch %d must be an object", i)
		}

		patch, err := DecodeNodePatch(obj)
		if err != nil {
			return nil, fmt.Errorf("patch %d: %w", i, err)
		}

		patches = append(patches, patch)
	}

	return PatchMutation{ID: id, Patches: patches, IfRevision: fields.String("ifRevisionID")}, nil
}

// DecodeNodePatch builds a NodePatch from {"path": [...], "op": {...}}.
func DecodeNodePatch(fields Object) (NodePatch, error) {
	rawPath, _ := fields.Get("path")

	path, err := PathFromValue(rawPath)
	if err != nil {
		return NodePatch{}, err
	}

	rawOp, _ := fields.Get("op")

	opFields, ok := rawOp.(Object)
	if !ok {
		return NodePatch{}, fmt.Errorf("node patch op must be an object")
	}

	op, err := DecodeOperation(opFields)
	if err != nil {
		return NodePatch{}, err
	}

	return NodePatch{Path: path, Op: op}, nil
}

// UnmarshalMutation decodes canonical JSON produced by a Mutation's MarshalJSON.
func UnmarshalMutation(data []byte) (Mutation, error) {
	fields, err := ParseObject(data)
	if err != nil {
		return nil, err
	}

	return DecodeMutation(fields)
}
