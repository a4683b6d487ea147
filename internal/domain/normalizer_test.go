package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docmig.dev/pkg/docmig/internal/domain"
	m "docmig.dev/pkg/docmig/internal/model"
)

func TestNormalizeNode(t *testing.T) {
	path := m.Path{m.Key("body"), m.KeyedSegment{Key: "b1"}, m.Key("text")}

	tests := []struct {
		name   string
		change m.Change
		want   m.Change
	}{
		{
			name:   "operation is bound to the node path",
			change: m.Set("hi"),
			want:   m.At(path, m.Set("hi")),
		},
		{
			name:   "node patch passes through",
			change: m.At(m.Path{m.Key("other")}, m.Unset()),
			want:   m.At(m.Path{m.Key("other")}, m.Unset()),
		},
		{
			name:   "mutation passes through",
			change: m.Delete("x"),
			want:   m.Delete("x"),
		},
		{
			name:   "raw operation",
			change: m.RawChange{"type": "dec"},
			want:   m.At(path, m.Dec(1)),
		},
		{
			name:   "raw mutation",
			change: m.RawChange{"type": "delete", "id": "gone"},
			want:   m.Delete("gone"),
		},
		{
			name:   "raw node patch",
			change: m.RawChange{"path": []any{"a", 0}, "op": map[string]any{"type": "inc", "amount": 2}},
			want:   m.At(m.Path{m.Key("a"), m.Index(0)}, m.Inc(2)),
		},
		{
			name:   "raw unknown mutation kind is kept opaque",
			change: m.RawChange{"type": "publish", "id": "d"},
			want: m.RawMutation{Type: "publish", Body: m.Object{
				{Key: "id", Value: "d"},
				{Key: "type", Value: "publish"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.NormalizeNode(path, tt.change)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeNode_Malformed(t *testing.T) {
	path := m.Path{m.Key("title")}

	tests := []struct {
		name   string
		change m.Change
	}{
		{name: "no discriminant", change: m.RawChange{"value": 1}},
		{name: "path without op", change: m.RawChange{"path": []any{"a"}}},
		{name: "non string type", change: m.RawChange{"type": 3}},
		{name: "unflattened list", change: m.Changes{m.Unset()}},
		{name: "nil", change: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NormalizeNode(path, tt.change)

			require.ErrorIs(t, err, domain.ErrMalformedMigrationOutput)

			var malformed *domain.MalformedOutputError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, path, malformed.Path)
		})
	}
}

func TestNormalizeDocument(t *testing.T) {
	t.Run("node patch becomes a patch mutation", func(t *testing.T) {
		got, err := domain.NormalizeDocument("doc", m.At(m.Path{m.Key("n")}, m.Inc(1)))

		require.NoError(t, err)
		assert.Equal(t, m.Patch("doc", m.At(m.Path{m.Key("n")}, m.Inc(1))), got)
	})

	t.Run("mutation is kept", func(t *testing.T) {
		create := m.Create(m.Object{{Key: "_id", Value: "new"}, {Key: "_type", Value: "post"}})

		got, err := domain.NormalizeDocument("doc", create)

		require.NoError(t, err)
		assert.Equal(t, create, got)
		assert.Equal(t, "new", got.DocumentID())
	})

	t.Run("bare operation is rejected", func(t *testing.T) {
		_, err := domain.NormalizeDocument("doc", m.Unset())

		var malformed *domain.MalformedOutputError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "doc", malformed.DocumentID)
		assert.Contains(t, err.Error(), "not bound to a path")
	})

	t.Run("raw operation is rejected", func(t *testing.T) {
		_, err := domain.NormalizeDocument("doc", m.RawChange{"type": "set", "value": 1})

		assert.ErrorIs(t, err, domain.ErrMalformedMigrationOutput)
	})
}
