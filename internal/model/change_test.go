package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "docmig.dev/pkg/docmig/internal/model"
)

func TestFlatten(t *testing.T) {
	set := m.Set("x")
	del := m.Delete("p1")

	flat := m.Flatten(m.Changes{set, nil, m.Changes{m.Changes{del}}, m.Changes{}})

	assert.Equal(t, []m.Change{set, del}, flat)
	assert.Nil(t, m.Flatten(nil))
	assert.Equal(t, []m.Change{set}, m.Flatten(set))
}

func TestFromAny(t *testing.T) {
	v, err := m.FromAny(map[string]any{"b": 1, "a": []any{"x", 2.5, nil}})
	require.NoError(t, err)

	obj, ok := v.(m.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, obj.Keys())

	b, _ := obj.Get("b")
	assert.Equal(t, float64(1), b)

	a, _ := obj.Get("a")
	assert.Equal(t, m.Array{"x", 2.5, nil}, a)

	_, err = m.FromAny(struct{}{})
	assert.Error(t, err)
}

func TestNewBatchReport(t *testing.T) {
	doc := m.Document{{Key: "_id", Value: "p1"}, {Key: "_type", Value: "post"}}
	batch := m.MutationBatch{
		m.Patch("p1", m.At(m.Path{m.Key("a")}, m.Set(1.0)), m.At(m.Path{m.Key("b")}, m.Unset())),
		m.Patch("p1", m.At(m.Path{m.Key("c")}, m.Set(2.0))),
		m.Delete("p1"),
	}

	report := m.NewBatchReport(4, doc, batch)

	assert.Equal(t, 4, report.Sequence)
	assert.Equal(t, "p1", report.DocumentID)
	assert.Equal(t, "post", report.DocumentType)
	assert.Equal(t, 3, report.Mutations)
	assert.Equal(t, map[m.OperationType]int{m.OpSet: 2, m.OpUnset: 1}, report.Operations)
	assert.Equal(t, map[m.MutationType]int{m.MutationPatch: 2, m.MutationDelete: 1}, report.Kinds)
}
