package domain_test

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/require"

	m "docmig.dev/pkg/docmig/internal/model"
)

func parseDoc(t *testing.T, raw string) m.Document {
	t.Helper()

	doc, err := m.ParseDocument([]byte(raw))
	require.NoError(t, err)

	return doc
}

// docStream yields docs in order and records how many were pulled.
type docStream struct {
	docs   []m.Document
	pulled int
	err    error
	closed bool
}

func (s *docStream) Seq() iter.Seq2[m.Document, error] {
	return func(yield func(m.Document, error) bool) {
		defer func() { s.closed = true }()

		for _, doc := range s.docs {
			s.pulled++

			if !yield(doc, nil) {
				return
			}
		}

		if s.err != nil {
			yield(nil, s.err)
		}
	}
}

func collect(t *testing.T, seq iter.Seq2[m.MutationBatch, error]) ([]m.MutationBatch, error) {
	t.Helper()

	var batches []m.MutationBatch

	for batch, err := range seq {
		if err != nil {
			return batches, err
		}

		batches = append(batches, batch)
	}

	return batches, nil
}
