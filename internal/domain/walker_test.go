package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docmig.dev/pkg/docmig/internal/domain"
	m "docmig.dev/pkg/docmig/internal/model"
)

func TestWalk_PreOrderWithPaths(t *testing.T) {
	// Arrange
	root, err := m.ParseValue([]byte(`{"a":{"b":1},"list":[{"_key":"k1","v":true},"plain"]}`))
	require.NoError(t, err)

	// Act
	var paths []string

	for path, err := range domain.Walk(root, func(_ m.Value, path m.Path) ([]string, error) {
		return []string{path.String()}, nil
	}) {
		require.NoError(t, err)

		paths = append(paths, path)
	}

	// Assert
	assert.Equal(t, []string{
		"",
		"a",
		"a.b",
		"list",
		`list[_key=="k1"]`,
		`list[_key=="k1"]._key`,
		`list[_key=="k1"].v`,
		"list[1]",
	}, paths)
}

func TestWalk_PathsResolveToVisitedValue(t *testing.T) {
	root, err := m.ParseValue([]byte(`{"x":[1,{"_key":"q","y":[null,"s"]}],"z":false}`))
	require.NoError(t, err)

	count := 0

	for ok, err := range domain.Walk(root, func(value m.Value, path m.Path) ([]bool, error) {
		found, exists := m.Lookup(root, path)
		return []bool{exists && assert.ObjectsAreEqual(value, found)}, nil
	}) {
		require.NoError(t, err)
		assert.True(t, ok)

		count++
	}

	assert.Equal(t, 9, count)
}

func walkPaths(t *testing.T, doc string) []m.Path {
	t.Helper()

	root, err := m.ParseValue([]byte(doc))
	require.NoError(t, err)

	var paths []m.Path

	for path, err := range domain.Walk(root, func(_ m.Value, path m.Path) ([]m.Path, error) {
		return []m.Path{path}, nil
	}) {
		require.NoError(t, err)

		paths = append(paths, path)
	}

	return paths
}

func TestWalk_ElementSegments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want m.PathSegment
	}{
		{name: "string key", doc: `[{"_key":"k"}]`, want: m.KeyedSegment{Key: "k"}},
		{name: "empty key", doc: `[{"_key":""}]`, want: m.Index(0)},
		{name: "numeric key", doc: `[{"_key":7}]`, want: m.Index(0)},
		{name: "no key", doc: `[{"v":1}]`, want: m.Index(0)},
		{name: "scalar", doc: `["s"]`, want: m.Index(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := walkPaths(t, tt.doc)

			require.GreaterOrEqual(t, len(paths), 2)
			assert.Equal(t, m.Path{tt.want}, paths[1])
		})
	}
}

func TestWalk_PathsSurviveJSONRoundTrip(t *testing.T) {
	paths := walkPaths(t, `{"list":[{"_key":"","v":1},{"_key":"k","v":2}]}`)

	for _, path := range paths {
		data, err := json.Marshal(path)
		require.NoError(t, err)

		var decoded m.Path
		require.NoError(t, json.Unmarshal(data, &decoded), string(data))
		assert.True(t, path.Equal(decoded), string(data))
	}
}

func TestWalk_DuplicateKeysShareAPath(t *testing.T) {
	doc := `{"list":[{"_key":"k","v":1},{"_key":"k","v":2}]}`
	root, err := m.ParseValue([]byte(doc))
	require.NoError(t, err)

	paths := walkPaths(t, doc)

	keyed := m.Path{m.Key("list"), m.KeyedSegment{Key: "k"}}
	assert.Equal(t, []m.Path{
		{},
		{m.Key("list")},
		keyed,
		keyed.Append(m.Key("_key")),
		keyed.Append(m.Key("v")),
		keyed,
		keyed.Append(m.Key("_key")),
		keyed.Append(m.Key("v")),
	}, paths)

	first, ok := m.Lookup(root, keyed.Append(m.Key("v")))
	require.True(t, ok)
	assert.Equal(t, float64(1), first)
}

func TestWalk_StopsWhenConsumerStops(t *testing.T) {
	root, err := m.ParseValue([]byte(`{"a":1,"b":2,"c":3}`))
	require.NoError(t, err)

	visited := 0

	for range domain.Walk(root, func(_ m.Value, _ m.Path) ([]int, error) {
		visited++
		return []int{visited}, nil
	}) {
		if visited == 2 {
			break
		}
	}

	assert.Equal(t, 2, visited)
}

func TestWalk_VisitorErrorEndsSequence(t *testing.T) {
	root, err := m.ParseValue([]byte(`{"a":1,"b":2}`))
	require.NoError(t, err)

	boom := errors.New("boom")

	var errs []error

	for _, err := range domain.Walk(root, func(_ m.Value, path m.Path) ([]int, error) {
		if path.Equal(m.Path{m.Key("a")}) {
			return nil, boom
		}

		return []int{1}, nil
	}) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
}

func TestFlatMapDeep_FlattensNestedChanges(t *testing.T) {
	root, err := m.ParseValue([]byte(`{"a":"x"}`))
	require.NoError(t, err)

	var got []m.Change

	for change, err := range domain.FlatMapDeep(root, func(value m.Value, _ m.Path) (m.Change, error) {
		if _, ok := value.(string); !ok {
			return nil, nil
		}

		return m.Changes{m.Set("1"), m.Changes{m.Changes{m.Unset()}}}, nil
	}) {
		require.NoError(t, err)

		got = append(got, change)
	}

	assert.Equal(t, []m.Change{m.Set("1"), m.Unset()}, got)
}
