// Package model defines the data structures for document migrations.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Value is any JSON-shaped value: nil, bool, float64, string, Array or Object.
type Value = any

// Array is an ordered sequence of values.
type Array []Value

// Member is a single key/value entry of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is an ordered mapping of unique string keys to values. Members keep
// the order they were decoded or appended in.
type Object []Member

// Kind is the runtime kind of a Value.
type Kind string

// Known value kinds.
const (
	KindNull    Kind = "null"
	KindBoolean Kind = "boolean"
	KindNumber  Kind = "number"
	KindString  Kind = "string"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	for _, member := range o {
		if member.Key == key {
			return member.Value, true
		}
	}

	return nil, false
}

// String returns the string stored under key, or "" when absent or not a string.
func (o Object) String(key string) string {
	v, ok := o.Get(key)
	if !ok {
		return ""
	}

	s, _ := v.(string)

	return s
}

// Keys returns the member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for _, member := range o {
		keys = append(keys, member.Key)
	}

	return keys
}

// Set replaces the value under key or appends a new member.
func (o Object) Set(key string, value Value) Object {
	for i, member := range o {
		if member.Key == key {
			out := make(Object, len(o))
			copy(out, o)
			out[i].Value = value

			return out
		}
	}

	return append(o[:len(o):len(o)], Member{Key: key, Value: value})
}

// MarshalJSON encodes the object with members in order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, member := range o {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(member.Key)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')

		value, err := json.Marshal(member.Value)
		if err != nil {
			return nil, fmt.Errorf("encode member %q: %w", member.Key, err)
		}

		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keeping member order.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := ParseValue(data)
	if err != nil {
		return err
	}

	obj, ok := v.(Object)
	if !ok {
		return fmt.Errorf("expected JSON object, got %s", describe(v))
	}

	*o = obj

	return nil
}

// ParseValue decodes a single JSON value, preserving object member order.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}

	return v, nil
}

// ParseObject decodes data that must hold a JSON object.
func ParseObject(data []byte) (Object, error) {
	var obj Object
	if err := obj.UnmarshalJSON(data); err != nil {
		return nil, err
	}

	return obj, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return t, nil
	}
}

func decodeObject(dec *json.Decoder) (Object, error) {
	obj := Object{}
	seen := make(map[string]int)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}

		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}

		// Later duplicates win, like encoding/json, but keep the first position.
		if idx, dup := seen[key]; dup {
			obj[idx].Value = value
			continue
		}

		seen[key] = len(obj)
		obj = append(obj, Member{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return obj, nil
}

func decodeArray(dec *json.Decoder) (Array, error) {
	arr := Array{}

	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}

		arr = append(arr, value)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return arr, nil
}

func describe(v Value) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case Array:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
