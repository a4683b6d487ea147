package domain

import (
	"errors"
	"fmt"

	m "docmig.dev/pkg/docmig/internal/model"
)

var (
	// ErrClassificationFailure is returned when a value is not one of the known kinds.
	ErrClassificationFailure = errors.New("unknown value type")
	// ErrMalformedMigrationOutput is returned when a hook result is neither a
	// mutation, a node patch nor an operation.
	ErrMalformedMigrationOutput = errors.New("malformed migration output")
	// ErrEmptyMigration is returned when a migration defines neither a stream nor node hooks.
	ErrEmptyMigration = errors.New("migration defines no migrate function")
)

// MalformedOutputError attributes a malformed hook result to its origin.
type MalformedOutputError struct {
	DocumentID string
	Path       m.Path
	Hook       string
	Value      any
	Reason     string
}

func (e *MalformedOutputError) Error() string {
	msg := fmt.Sprintf("%s: hook %q on document %q at %q returned %T", ErrMalformedMigrationOutput, e.Hook, e.DocumentID, e.Path.String(), e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (e *MalformedOutputError) Unwrap() error {
	return ErrMalformedMigrationOutput
}

// HookError wraps an error returned by a migration hook.
type HookError struct {
	DocumentID string
	Path       m.Path
	Hook       string
	Err        error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook %q failed on document %q at %q: %v", e.Hook, e.DocumentID, e.Path.String(), e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}
