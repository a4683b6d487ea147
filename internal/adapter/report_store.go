package adapter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	m "docmig.dev/pkg/docmig/internal/model"
)

// MutationSink consumes mutation batches, either applying or recording them.
type MutationSink interface {
	Submit(ctx context.Context, batch m.MutationBatch) error
	Close() error
}

// NDJSONSink writes every mutation in canonical JSON, one per line.
type NDJSONSink struct {
	writer *bufio.Writer
	closer io.Closer
}

// NewNDJSONSink writes to w; w is not closed by Close.
func NewNDJSONSink(w io.Writer) *NDJSONSink {
	return &NDJSONSink{writer: bufio.NewWriter(w)}
}

// CreateNDJSONSink creates (or truncates) the plan file at path.
func CreateNDJSONSink(path string) (*NDJSONSink, error) {
	// #nosec G304 - path is the plan file the user asked for
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create plan file: %w", err)
	}

	return &NDJSONSink{writer: bufio.NewWriter(f), closer: f}, nil
}

// Submit implements MutationSink.
func (s *NDJSONSink) Submit(ctx context.Context, batch m.MutationBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, mutation := range batch {
		line, err := json.Marshal(mutation)
		if err != nil {
			return fmt.Errorf("encode mutation for %q: %w", mutation.DocumentID(), err)
		}

		if _, err := s.writer.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write mutation: %w", err)
		}
	}

	return nil
}

// Close flushes buffered output and closes the file when the sink owns it.
func (s *NDJSONSink) Close() error {
	if err := s.writer.Flush(); err != nil {
		slog.Error("failed to flush plan", "error", err)
		return err
	}

	if s.closer != nil {
		return s.closer.Close()
	}

	return nil
}

// ReadPlan decodes the mutations of a plan written by NDJSONSink.
func ReadPlan(r io.Reader) ([]m.Mutation, error) {
	var mutations []m.Mutation

	reader := bufio.NewReader(r)
	line := 0

	for {
		raw, err := reader.ReadBytes('\n')
		line++

		if len(raw) > 0 && string(raw) != "\n" {
			mutation, decodeErr := m.UnmarshalMutation(raw)
			if decodeErr != nil {
				return nil, fmt.Errorf("plan line %d: %w", line, decodeErr)
			}

			mutations = append(mutations, mutation)
		}

		if err == io.EOF {
			return mutations, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read plan: %w", err)
		}
	}
}
