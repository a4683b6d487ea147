package model

import (
	"fmt"
	"sort"
)

// Change is what a migration hook may return: an Operation, a NodePatch, a
// Mutation, a nested Changes list, or a RawChange to be sniffed structurally.
type Change interface {
	isChange()
}

// Changes is a list of changes; lists nest to any depth.
type Changes []Change

func (Changes) isChange() {}

// RawChange is an untyped, JSON-shaped change authored outside Go (decoded
// YAML/JSON). Its kind is determined by its shape, not its type.
type RawChange map[string]any

func (RawChange) isChange() {}

// Flatten expands nested Changes depth-first, dropping nil entries.
func Flatten(change Change) []Change {
	if change == nil {
		return nil
	}

	list, ok := change.(Changes)
	if !ok {
		return []Change{change}
	}

	out := make([]Change, 0, len(list))
	for _, item := range list {
		out = append(out, Flatten(item)...)
	}

	return out
}

// FromAny converts decoded JSON/YAML data (maps, slices, ints) into a Value.
// Map keys are sorted so the result is deterministic.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil, bool, string, float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case float32:
		return float64(t), nil
	case Object:
		return t, nil
	case Array:
		return t, nil
	case []any:
		arr := make(Array, 0, len(t))

		for _, item := range t {
			converted, err := FromAny(item)
			if err != nil {
				return nil, err
			}

			arr = append(arr, converted)
		}

		return arr, nil
	case map[string]any:
		return objectFromMap(t)
	case RawChange:
		return objectFromMap(t)
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

func objectFromMap(m map[string]any) (Object, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	obj := make(Object, 0, len(keys))

	for _, k := range keys {
		converted, err := FromAny(m[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}

		obj = append(obj, Member{Key: k, Value: converted})
	}

	return obj, nil
}
