package domain

import (
	"iter"

	m "docmig.dev/pkg/docmig/internal/model"
)

// Visitor is invoked for every node of a tree together with its path.
type Visitor[T any] func(value m.Value, path m.Path) ([]T, error)

// Walk visits root and every node below it depth-first, the node itself before
// its children, object members in insertion order and array elements in index
// order. The results of every visit are yielded in visitation order. A visitor
// error is yielded once and ends the sequence.
func Walk[T any](root m.Value, visit Visitor[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		walkNode(root, m.Path{}, visit, yield)
	}
}

// FlatMapDeep walks root like Walk and flattens nested Changes returned by fn
// into one flat sequence.
func FlatMapDeep(root m.Value, fn func(value m.Value, path m.Path) (m.Change, error)) iter.Seq2[m.Change, error] {
	return Walk(root, func(value m.Value, path m.Path) ([]m.Change, error) {
		change, err := fn(value, path)
		if err != nil {
			return nil, err
		}

		return m.Flatten(change), nil
	})
}

func walkNode[T any](value m.Value, path m.Path, visit Visitor[T], yield func(T, error) bool) bool {
	results, err := visit(value, path)
	if err != nil {
		var zero T

		yield(zero, err)

		return false
	}

	for _, result := range results {
		if !yield(result, nil) {
			return false
		}
	}

	switch v := value.(type) {
	case m.Document:
		return walkObject(m.Object(v), path, visit, yield)
	case m.Object:
		return walkObject(v, path, visit, yield)
	case m.Array:
		for i, item := range v {
			if !walkNode(item, path.Append(elementSegment(item, i)), visit, yield) {
				return false
			}
		}
	}

	return true
}

func walkObject[T any](obj m.Object, path m.Path, visit Visitor[T], yield func(T, error) bool) bool {
	for _, member := range obj {
		if !walkNode(member.Value, path.Append(m.Key(member.Key)), visit, yield) {
			return false
		}
	}

	return true
}

// elementSegment addresses array elements carrying a non-empty string _key by
// that key and everything else by index. Keys are not checked for uniqueness:
// elements sharing a _key get the same path, which resolves to the first of
// them.
func elementSegment(item m.Value, index int) m.PathSegment {
	if obj, ok := item.(m.Object); ok {
		if key, ok := obj.Get("_key"); ok {
			if s, ok := key.(string); ok && s != "" {
				return m.KeyedSegment{Key: s}
			}
		}
	}

	return m.Index(index)
}
