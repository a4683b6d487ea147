package adapter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "docmig.dev/pkg/docmig/internal/model"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readAll(t *testing.T, source DocumentSource) ([]m.Document, error) {
	t.Helper()

	var docs []m.Document

	for doc, err := range source.Documents(context.Background()) {
		if err != nil {
			return docs, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func TestNDJSONSource_Documents(t *testing.T) {
	t.Run("reads documents in file order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export.ndjson")
		writeTestFile(t, path, "{\"_id\":\"a\",\"_type\":\"post\"}\n\n  \n{\"_id\":\"b\",\"_type\":\"page\",\"n\":1}")

		docs, err := readAll(t, NewNDJSONSource(path))

		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "a", docs[0].ID())
		assert.Equal(t, "page", docs[1].Type())
	})

	t.Run("reports the failing line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.ndjson")
		writeTestFile(t, path, "{\"_id\":\"a\",\"_type\":\"post\"}\n{\"_id\":\n")

		docs, err := readAll(t, NewNDJSONSource(path))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken.ndjson:2")
		assert.Len(t, docs, 1)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readAll(t, NewNDJSONSource(filepath.Join(t.TempDir(), "nope.ndjson")))

		assert.ErrorContains(t, err, "open export")
	})

	t.Run("reader source", func(t *testing.T) {
		source := NewNDJSONReaderSource(strings.NewReader("{\"_id\":\"x\",\"_type\":\"t\"}\n"))

		docs, err := readAll(t, source)

		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "x", docs[0].ID())
	})

	t.Run("stops when the consumer stops", func(t *testing.T) {
		input := strings.Repeat("{\"_id\":\"a\",\"_type\":\"post\"}\n", 5) + "not json\n"
		source := NewNDJSONReaderSource(strings.NewReader(input))
		pulled := 0

		for _, err := range source.Documents(context.Background()) {
			require.NoError(t, err)

			pulled++
			if pulled == 2 {
				break
			}
		}

		assert.Equal(t, 2, pulled)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		source := NewNDJSONReaderSource(strings.NewReader("{\"_id\":\"a\",\"_type\":\"post\"}\n"))

		var errs []error
		for _, err := range source.Documents(ctx) {
			errs = append(errs, err)
		}

		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], context.Canceled)
	})
}
