package domain

import (
	"fmt"

	m "docmig.dev/pkg/docmig/internal/model"
)

// ClassifyValue returns the runtime kind of v. Values that are not JSON-shaped
// yield an error wrapping ErrClassificationFailure.
func ClassifyValue(v m.Value) (m.Kind, error) {
	switch v.(type) {
	case nil:
		return m.KindNull, nil
	case bool:
		return m.KindBoolean, nil
	case float64, float32, int, int64, int32, uint, uint64, uint32:
		return m.KindNumber, nil
	case string:
		return m.KindString, nil
	case m.Array:
		return m.KindArray, nil
	case m.Object:
		return m.KindObject, nil
	case m.Document:
		return m.KindObject, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrClassificationFailure, v)
	}
}
