package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PathSegment addresses one step into a value: an object Key, an array Index,
// or a KeyedSegment selecting an array element by its _key.
type PathSegment interface {
	segment()
}

// Key selects an object member.
type Key string

// Index selects an array element by position.
type Index int

// KeyedSegment selects an array element by its _key field.
type KeyedSegment struct {
	Key string `json:"_key"`
}

func (Key) segment()          {}
func (Index) segment()        {}
func (KeyedSegment) segment() {}

// Path is the address of a node relative to its document root.
// The empty path denotes the root.
type Path []PathSegment

// Append returns a new path with seg added; p is never modified.
func (p Path) Append(seg PathSegment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)

	return append(out, seg)
}

// Equal reports whether both paths address the same node.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}

	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}

	return true
}

// String renders the path in store syntax, e.g. body[_key=="a"].children[0].
func (p Path) String() string {
	var b strings.Builder

	for i, seg := range p {
		switch s := seg.(type) {
		case Key:
			if i > 0 {
				b.WriteByte('.')
			}

			b.WriteString(string(s))
		case Index:
			fmt.Fprintf(&b, "[%d]", int(s))
		case KeyedSegment:
			fmt.Fprintf(&b, "[_key==%s]", strconv.Quote(s.Key))
		}
	}

	return b.String()
}

// MarshalJSON encodes the path as an array of keys, indexes and {_key} objects.
func (p Path) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(p))

	for _, seg := range p {
		switch s := seg.(type) {
		case Key:
			out = append(out, string(s))
		case Index:
			out = append(out, int(s))
		case KeyedSegment:
			out = append(out, s)
		default:
			return nil, fmt.Errorf("unknown path segment %T", seg)
		}
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes the array form produced by MarshalJSON.
func (p *Path) UnmarshalJSON(data []byte) error {
	v, err := ParseValue(data)
	if err != nil {
		return err
	}

	path, err := PathFromValue(v)
	if err != nil {
		return err
	}

	*p = path

	return nil
}

// PathFromValue converts a decoded JSON array (or a path string) into a Path.
func PathFromValue(v Value) (Path, error) {
	switch t := v.(type) {
	case string:
		return ParsePath(t)
	case Array:
		return pathFromSegments(t)
	case []any:
		return pathFromSegments(Array(t))
	case nil:
		return Path{}, nil
	default:
		return nil, fmt.Errorf("path must be an array or string, got %T", v)
	}
}

func pathFromSegments(items Array) (Path, error) {
	path := make(Path, 0, len(items))

	for _, item := range items {
		seg, err := segmentFromValue(item)
		if err != nil {
			return nil, err
		}

		path = append(path, seg)
	}

	return path, nil
}

func segmentFromValue(v Value) (PathSegment, error) {
	switch t := v.(type) {
	case string:
		return Key(t), nil
	case float64:
		return Index(int(t)), nil
	case int:
		return Index(t), nil
	case Object:
		if key := t.String("_key"); key != "" {
			return KeyedSegment{Key: key}, nil
		}
	case map[string]any:
		if key, ok := t["_key"].(string); ok && key != "" {
			return KeyedSegment{Key: key}, nil
		}
	}

	return nil, fmt.Errorf("invalid path segment %v", v)
}

var errEmptySegment = errors.New("empty path segment")

// ParsePath parses store path syntax: a.b[0].c[_key=="x"].
func ParsePath(s string) (Path, error) {
	path := Path{}

	for len(s) > 0 {
		switch s[0] {
		case '.':
			s = s[1:]
		case '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated bracket in path %q", s)
			}

			seg, err := parseBracket(s[1:end])
			if err != nil {
				return nil, err
			}

			path = append(path, seg)
			s = s[end+1:]
		default:
			end := strings.IndexAny(s, ".[")
			if end < 0 {
				end = len(s)
			}

			path = append(path, Key(s[:end]))
			s = s[end:]
		}
	}

	return path, nil
}

func parseBracket(inner string) (PathSegment, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil, errEmptySegment
	}

	if rest, ok := strings.CutPrefix(inner, "_key=="); ok {
		key, err := strconv.Unquote(strings.TrimSpace(rest))
		if err != nil {
			return nil, fmt.Errorf("invalid keyed segment %q: %w", inner, err)
		}

		return KeyedSegment{Key: key}, nil
	}

	n, err := strconv.Atoi(inner)
	if err != nil {
		return nil, fmt.Errorf("invalid index segment %q: %w", inner, err)
	}

	return Index(n), nil
}

// Lookup resolves path against root.
func Lookup(root Value, path Path) (Value, bool) {
	current := root

	for _, seg := range path {
		switch s := seg.(type) {
		case Key:
			obj, ok := current.(Object)
			if !ok {
				return nil, false
			}

			if current, ok = obj.Get(string(s)); !ok {
				return nil, false
			}
		case Index:
			arr, ok := current.(Array)
			if !ok || int(s) < 0 || int(s) >= len(arr) {
				return nil, false
			}

			current = arr[s]
		case KeyedSegment:
			arr, ok := current.(Array)
			if !ok {
				return nil, false
			}

			found := false

			for _, item := range arr {
				if obj, isObj := item.(Object); isObj && obj.String("_key") == s.Key {
					current, found = obj, true
					break
				}
			}

			if !found {
				return nil, false
			}
		}
	}

	return current, true
}
