// Package controller provides output adapters for displaying migration progress and results.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "docmig.dev/pkg/docmig/internal/model"
)

// RunInfo describes a migration run before it starts.
type RunInfo struct {
	MigrationID   string
	Title         string
	DocumentTypes []string
	Source        string
	Target        string
	DryRun        bool
}

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	previews  bool
	interrupt context.CancelFunc
}

// WithPreviews makes the UI print a before/after preview for every batch.
func WithPreviews() StartOption {
	return func(c *StartConfig) {
		c.previews = true
	}
}

// WithInterrupt registers cancel to be called when the user aborts an interactive UI.
func WithInterrupt(cancel context.CancelFunc) StartOption {
	return func(c *StartConfig) {
		c.interrupt = cancel
	}
}

func newStartConfig(options []StartOption) StartConfig {
	var config StartConfig
	for _, option := range options {
		option(&config)
	}

	return config
}

// UI defines the interface for displaying migration progress.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish rendering
	DisplayRunInfo(ctx context.Context, info RunInfo)
	DisplayBatch(ctx context.Context, report m.BatchReport)
	DisplaySummary(ctx context.Context, summary m.RunSummary) error
}

// NewUI returns an interactive UI when output is a terminal and a plain one otherwise.
func NewUI(cmd *cobra.Command, isTTY bool) UI {
	if isTTY {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
