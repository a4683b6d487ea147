// Package pkg provides utilities shared by docmig commands.
package pkg

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileSpill keeps an append-only sequence of T on disk so long runs can be
// summarised without holding every record in memory. The backing file is
// scratch space and is removed on Close.
type FileSpill[T any] interface {
	Append(item T) error
	Len() int
	Path() string
	All() iter.Seq2[T, error]
	Close() error
}

// ErrSpillClosed is returned when a closed spill is written to or read.
var ErrSpillClosed = errors.New("spill is closed")

// DefaultSpillDir is used when NewFileSpill is given an empty directory.
var DefaultSpillDir = filepath.Join(os.TempDir(), "docmig-spill")

type gobSpill[T any] struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	enc    *gob.Encoder
	count  int
	closed bool
}

// NewFileSpill creates a gob-encoded spill under dir.
func NewFileSpill[T any](dir string) (FileSpill[T], error) {
	if dir == "" {
		dir = DefaultSpillDir
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create spill dir: %w", err)
	}

	file, err := os.CreateTemp(dir, "reports-*.gob")
	if err != nil {
		return nil, fmt.Errorf("create spill file: %w", err)
	}

	slog.Debug("Opened spill", "path", file.Name())

	return &gobSpill[T]{
		path: file.Name(),
		file: file,
		enc:  gob.NewEncoder(file),
	}, nil
}

func (s *gobSpill[T]) Append(item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSpillClosed
	}

	if err := s.enc.Encode(item); err != nil {
		return fmt.Errorf("encode item %d: %w", s.count, err)
	}

	s.count++

	return nil
}

func (s *gobSpill[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.count
}

func (s *gobSpill[T]) Path() string { return s.path }

// All replays the items in append order. Appends made while iterating are
// not visited.
func (s *gobSpill[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		s.mu.Lock()
		closed, count := s.closed, s.count
		s.mu.Unlock()

		if closed {
			yield(zero, ErrSpillClosed)
			return
		}

		// #nosec G304 - path was created by NewFileSpill
		file, err := os.Open(s.path)
		if err != nil {
			yield(zero, fmt.Errorf("open spill: %w", err))
			return
		}

		defer func() {
			if err := file.Close(); err != nil {
				slog.Error("Failed to close spill reader", "path", s.path, "error", err)
			}
		}()

		dec := gob.NewDecoder(file)

		for i := range count {
			// gob merges into existing maps, so each item is decoded into a fresh value
			var item T

			if err := dec.Decode(&item); err != nil {
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}

				yield(zero, fmt.Errorf("decode item %d: %w", i, err))

				return
			}

			if !yield(item, nil) {
				return
			}
		}
	}
}

func (s *gobSpill[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	err := s.file.Close()
	if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) {
		err = errors.Join(err, rmErr)
	}

	slog.Debug("Closed spill", "path", s.path, "items", s.count)

	return err
}
