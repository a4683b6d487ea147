// Package adapter contains the document sources and mutation sinks that feed
// and drain migrations.
package adapter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	m "docmig.dev/pkg/docmig/internal/model"
)

// DocumentSource yields documents one at a time. Iteration is pull-driven:
// when the consumer stops, the source releases whatever it holds (files,
// rows, response bodies) before its iterator returns.
type DocumentSource interface {
	Documents(ctx context.Context) iter.Seq2[m.Document, error]
}

// decodeNDJSON reads one JSON document per line from r, skipping blank lines.
// It returns false when the consumer stopped or an error was yielded.
func decodeNDJSON(ctx context.Context, r io.Reader, name string, yield func(m.Document, error) bool) bool {
	reader := bufio.NewReader(r)
	line := 0

	for {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return false
		}

		raw, readErr := reader.ReadBytes('\n')
		line++

		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 {
			doc, err := m.ParseDocument(trimmed)
			if err != nil {
				yield(nil, fmt.Errorf("%s:%d: decode document: %w", name, line, err))
				return false
			}

			if !yield(doc, nil) {
				return false
			}
		}

		if errors.Is(readErr, io.EOF) {
			return true
		}

		if readErr != nil {
			yield(nil, fmt.Errorf("%s:%d: read: %w", name, line, readErr))
			return false
		}
	}
}
