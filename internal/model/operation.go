package model

import (
	"encoding/json"
	"fmt"
)

// OperationType is the discriminant of an Operation.
type OperationType string

// The closed set of operation kinds.
const (
	OpSet            OperationType = "set"
	OpUnset          OperationType = "unset"
	OpInsert         OperationType = "insert"
	OpDiffMatchPatch OperationType = "diffMatchPatch"
	OpDec            OperationType = "dec"
	OpInc            OperationType = "inc"
	OpUpsert         OperationType = "upsert"
	OpUnassign       OperationType = "unassign"
	OpTruncate       OperationType = "truncate"
	OpSetIfMissing   OperationType = "setIfMissing"
)

var operationTypes = map[OperationType]struct{}{
	OpSet: {}, OpUnset: {}, OpInsert: {}, OpDiffMatchPatch: {}, OpDec: {},
	OpInc: {}, OpUpsert: {}, OpUnassign: {}, OpTruncate: {}, OpSetIfMissing: {},
}

// IsOperationType reports whether name is one of the operation kinds.
func IsOperationType(name string) bool {
	_, ok := operationTypes[OperationType(name)]
	return ok
}

// Operation is a path-relative change. It carries no path until bound by At.
type Operation interface {
	Change
	OperationType() OperationType
}

// InsertPosition places inserted items relative to a reference element.
type InsertPosition string

// Insert positions.
const (
	Before  InsertPosition = "before"
	After   InsertPosition = "after"
	Replace InsertPosition = "replace"
)

// SetOp replaces the node value.
type SetOp struct{ Value Value }

// UnsetOp removes the node.
type UnsetOp struct{}

// SetIfMissingOp sets the node value only when the node is absent.
type SetIfMissingOp struct{ Value Value }

// IncOp increments a number node.
type IncOp struct{ Amount float64 }

// DecOp decrements a number node.
type DecOp struct{ Amount float64 }

// InsertOp inserts items into an array node relative to Reference.
type InsertOp struct {
	Position  InsertPosition
	Reference PathSegment
	Items     Array
}

// UpsertOp inserts keyed items, replacing elements that share a _key.
type UpsertOp struct {
	Position  InsertPosition
	Reference PathSegment
	Items     Array
}

// DiffMatchPatchOp applies a diff-match-patch text patch to a string node.
type DiffMatchPatchOp struct{ Patch string }

// UnassignOp removes keys from an object node.
type UnassignOp struct{ Keys []string }

// TruncateOp removes array elements from StartIndex up to EndIndex (exclusive).
// A nil EndIndex truncates to the end of the array.
type TruncateOp struct {
	StartIndex int
	EndIndex   *int
}

func (SetOp) isChange()            {}
func (UnsetOp) isChange()          {}
func (SetIfMissingOp) isChange()   {}
func (IncOp) isChange()            {}
func (DecOp) isChange()            {}
func (InsertOp) isChange()         {}
func (UpsertOp) isChange()         {}
func (DiffMatchPatchOp) isChange() {}
func (UnassignOp) isChange()       {}
func (TruncateOp) isChange()       {}

// OperationType implements Operation.
func (SetOp) OperationType() OperationType { return OpSet }

// OperationType implements Operation.
func (UnsetOp) OperationType() OperationType { return OpUnset }

// OperationType implements Operation.
func (SetIfMissingOp) OperationType() OperationType { return OpSetIfMissing }

// OperationType implements Operation.
func (IncOp) OperationType() OperationType { return OpInc }

// OperationType implements Operation.
func (DecOp) OperationType() OperationType { return OpDec }

// OperationType implements Operation.
func (InsertOp) OperationType() OperationType { return OpInsert }

// OperationType implements Operation.
func (UpsertOp) OperationType() OperationType { return OpUpsert }

// OperationType implements Operation.
func (DiffMatchPatchOp) OperationType() OperationType { return OpDiffMatchPatch }

// OperationType implements Operation.
func (UnassignOp) OperationType() OperationType { return OpUnassign }

// OperationType implements Operation.
func (TruncateOp) OperationType() OperationType { return OpTruncate }

// Set builds a set operation.
func Set(value Value) SetOp { return SetOp{Value: value} }

// Unset builds an unset operation.
func Unset() UnsetOp { return UnsetOp{} }

// SetIfMissing builds a setIfMissing operation.
func SetIfMissing(value Value) SetIfMissingOp { return SetIfMissingOp{Value: value} }

// Inc builds an inc operation.
func Inc(amount float64) IncOp { return IncOp{Amount: amount} }

// Dec builds a dec operation.
func Dec(amount float64) DecOp { return DecOp{Amount: amount} }

// Insert builds an insert operation.
func Insert(position InsertPosition, reference PathSegment, items ...Value) InsertOp {
	return InsertOp{Position: position, Reference: reference, Items: Array(items)}
}

// Upsert builds an upsert operation.
func Upsert(position InsertPosition, reference PathSegment, items ...Value) UpsertOp {
	return UpsertOp{Position: position, Reference: reference, Items: Array(items)}
}

// DiffMatchPatch builds a diffMatchPatch operation.
func DiffMatchPatch(patch string) DiffMatchPatchOp { return DiffMatchPatchOp{Patch: patch} }

// Unassign builds an unassign operation.
func Unassign(keys ...string) UnassignOp { return UnassignOp{Keys: keys} }

// Truncate builds a truncate operation. An optional end index bounds the range.
func Truncate(start int, end ...int) TruncateOp {
	op := TruncateOp{StartIndex: start}
	if len(end) > 0 {
		e := end[0]
		op.EndIndex = &e
	}

	return op
}

// EncodeOperation renders op in its canonical object form, type first.
func EncodeOperation(op Operation) (Object, error) {
	obj := Object{{Key: "type", Value: string(op.OperationType())}}

	switch o := op.(type) {
	case SetOp:
		obj = append(obj, Member{"value", o.Value})
	case SetIfMissingOp:
		obj = append(obj, Member{"value", o.Value})
	case UnsetOp:
	case IncOp:
		obj = append(obj, Member{"amount", o.Amount})
	case DecOp:
		obj = append(obj, Member{"amount", o.Amount})
	case InsertOp:
		ref, err := encodeSegment(o.Reference)
		if err != nil {
			return nil, err
		}

		obj = append(obj, Member{"position", string(o.Position)}, Member{"referenceItem", ref}, Member{"items", o.Items})
	case UpsertOp:
		ref, err := encodeSegment(o.Reference)
		if err != nil {
			return nil, err
		}

		obj = append(obj, Member{"position", string(o.Position)}, Member{"referenceItem", ref}, Member{"items", o.Items})
	case DiffMatchPatchOp:
		obj = append(obj, Member{"value", o.Patch})
	case UnassignOp:
		keys := make(Array, 0, len(o.Keys))
		for _, k := range o.Keys {
			keys = append(keys, k)
		}

		obj = append(obj, Member{"keys", keys})
	case TruncateOp:
		obj = append(obj, Member{"startIndex", float64(o.StartIndex)})
		if o.EndIndex != nil {
			obj = append(obj, Member{"endIndex", float64(*o.EndIndex)})
		}
	default:
		return nil, fmt.Errorf("unknown operation %T", op)
	}

	return obj, nil
}

func encodeSegment(seg PathSegment) (Value, error) {
	switch s := seg.(type) {
	case Index:
		return float64(s), nil
	case KeyedSegment:
		return Object{{Key: "_key", Value: s.Key}}, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("reference item must be an index or keyed segment, got %T", seg)
	}
}

// DecodeOperation builds a typed Operation from its object form. The "type"
// field must name one of the operation kinds.
func DecodeOperation(fields Object) (Operation, error) {
	name := fields.String("type")

	switch OperationType(name) {
	case OpSet:
		v, _ := fields.Get("value")
		return SetOp{Value: v}, nil
	case OpSetIfMissing:
		v, _ := fields.Get("value")
		return SetIfMissingOp{Value: v}, nil
	case OpUnset:
		return UnsetOp{}, nil
	case OpInc:
		amount, err := numberField(fields, "amount", 1)
		return IncOp{Amount: amount}, err
	case OpDec:
		amount, err := numberField(fields, "amount", 1)
		return DecOp{Amount: amount}, err
	case OpInsert:
		position, ref, items, err := decodeInsertFields(fields)
		return InsertOp{Position: position, Reference: ref, Items: items}, err
	case OpUpsert:
		position, ref, items, err := decodeInsertFields(fields)
		return UpsertOp{Position: position, Reference: ref, Items: items}, err
	case OpDiffMatchPatch:
		return DiffMatchPatchOp{Patch: fields.String("value")}, nil
	case OpUnassign:
		keys, err := stringsField(fields, "keys")
		return UnassignOp{Keys: keys}, err
	case OpTruncate:
		return decodeTruncate(fields)
	default:
		return nil, fmt.Errorf("unknown operation type %q", name)
	}
}

func decodeInsertFields(fields Object) (InsertPosition, PathSegment, Array, error) {
	position := InsertPosition(fields.String("position"))
	switch position {
	case Before, After, Replace:
	case "":
		position = After
	default:
		return "", nil, nil, fmt.Errorf("invalid insert position %q", position)
	}

	var ref PathSegment

	if raw, ok := fields.Get("referenceItem"); ok && raw != nil {
		seg, err := segmentFromValue(raw)
		if err != nil {
			return "", nil, nil, err
		}

		if _, isKey := seg.(Key); isKey {
			return "", nil, nil, fmt.Errorf("reference item must be an index or keyed segment")
		}

		ref = seg
	}

	raw, _ := fields.Get("items")

	items, ok := raw.(Array)
	if !ok && raw != nil {
		return "", nil, nil, fmt.Errorf("insert items must be an array")
	}

	return position, ref, items, nil
}

func decodeTruncate(fields Object) (Operation, error) {
	start, err := numberField(fields, "startIndex", 0)
	if err != nil {
		return nil, err
	}

	op := TruncateOp{StartIndex: int(start)}

	if _, ok := fields.Get("endIndex"); ok {
		end, err := numberField(fields, "endIndex", 0)
		if err != nil {
			return nil, err
		}

		e := int(end)
		op.EndIndex = &e
	}

	return op, nil
}

func numberField(fields Object, key string, fallback float64) (float64, error) {
	v, ok := fields.Get(key)
	if !ok || v == nil {
		return fallback, nil
	}

	n, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("field %q must be a number", key)
	}

	return n, nil
}

func stringsField(fields Object, key string) ([]string, error) {
	v, _ := fields.Get(key)

	arr, ok := v.(Array)
	if !ok {
		return nil, fmt.Errorf("field %q must be an array of strings", key)
	}

	out := make([]string, 0, len(arr))

	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("field %q must be an array of strings", key)
		}

		out = append(out, s)
	}

	return out, nil
}

func marshalOperation(op Operation) ([]byte, error) {
	obj, err := EncodeOperation(op)
	if err != nil {
		return nil, err
	}

	return json.Marshal(obj)
}

// MarshalJSON implements json.Marshaler.
func (o SetOp) MarshalJSON() ([]byte, error) { return marshalOperation(o) }

// MarshalJSON implements json.Marshaler.
func (o UnsetOp) MarshalJSON() ([]byte, error) { return marshalOperation(o) }

// MarshalJSON implements json.Marshaler.
func (o SetIfMissingOp) MarshalJSON() ([]byte, error) { return marshalOperation(o) }

// MarshalJSON implements json.Marshaler.
func (o IncOp) MarshalJSON() ([]byte, error) { return marshalOperation(o) }

// MarshalJSON implements json.Marshaler.
func (o DecOp) MarshalJSON() ([]byte, error) { return marshalOperation(o) }

// MarshalJSON implements json.Marshaler.
func (o InsertOp) MarshalJSON() ([]byte, error) { return marshalOperation(o) }

// MarshalJSON implements json.Marshaler.
func (o UpsertOp) MarshalJSON() ([]byte, error) { return marshalOperation(o) }

// MarshalJSON implements json.Marshaler.
func (o DiffMatchPatchOp) MarshalJSON() ([]byte, error) { return marshalOperation(o) }

// MarshalJSON implements json.Marshaler.
func (o UnassignOp) MarshalJSON() ([]byte, error) { return marshalOperation(o) }

// MarshalJSON implements json.Marshaler.
func (o TruncateOp) MarshalJSON() ([]byte, error) { return marshalOperation(o) }
