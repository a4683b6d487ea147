package adapter

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"

	m "docmig.dev/pkg/docmig/internal/model"
)

// NDJSONSource reads documents from an export file holding one JSON document
// per line. The path "-" reads from the configured stdin reader.
type NDJSONSource struct {
	path  string
	stdin io.Reader
}

// NewNDJSONSource constructs an NDJSONSource for path.
func NewNDJSONSource(path string) *NDJSONSource {
	return &NDJSONSource{path: path, stdin: os.Stdin}
}

// NewNDJSONReaderSource constructs an NDJSONSource reading from r.
func NewNDJSONReaderSource(r io.Reader) *NDJSONSource {
	return &NDJSONSource{path: "-", stdin: r}
}

// Documents implements DocumentSource. The file is opened when iteration
// starts and closed when it ends, including when the consumer stops early.
func (s *NDJSONSource) Documents(ctx context.Context) iter.Seq2[m.Document, error] {
	return func(yield func(m.Document, error) bool) {
		if s.path == "-" || s.path == "" {
			decodeNDJSON(ctx, s.stdin, "stdin", yield)
			return
		}

		// #nosec G304 - path is the export file the user asked to migrate
		f, err := os.Open(s.path)
		if err != nil {
			yield(nil, fmt.Errorf("open export: %w", err))
			return
		}

		defer func() {
			if err := f.Close(); err != nil {
				slog.Error("failed to close export", "path", s.path, "error", err)
			}

			slog.Debug("Closed export", "path", s.path)
		}()

		decodeNDJSON(ctx, f, s.path, yield)
	}
}
