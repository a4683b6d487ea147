package domain

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"docmig.dev/pkg/docmig/internal/adapter"
	"docmig.dev/pkg/docmig/internal/controller"
	m "docmig.dev/pkg/docmig/internal/model"
	"docmig.dev/pkg/docmig/pkg"
)

// RunArgs contains the arguments for running a migration.
type RunArgs struct {
	Migration Migration
	Source    adapter.DocumentSource
	Sink      adapter.MutationSink
	Context   m.MigrationContext
	// SourceName and TargetName label the run for display only.
	SourceName string
	TargetName string
	Previews   bool
	// Buffer is how many batches may wait for the sink; values below 1 mean 1.
	Buffer   int
	SpillDir string
}

// Workflow runs migrations from a document source into a mutation sink.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) (m.RunSummary, error)
}

type workflow struct {
	controller.UI
}

// NewWorkflow creates a new Workflow instance reporting to ui.
func NewWorkflow(ui controller.UI) Workflow {
	return &workflow{UI: ui}
}

// emitted is one batch together with the document it was produced from.
type emitted struct {
	sequence int
	document m.Document
	batch    m.MutationBatch
}

// Run compiles args.Migration, streams the source through it and submits
// every batch to the sink in emission order. The first error from the
// migration, the source or the sink ends the run.
func (w *workflow) Run(ctx context.Context, args RunArgs) (m.RunSummary, error) {
	stream, err := Compile(args.Migration)
	if err != nil {
		return m.RunSummary{}, fmt.Errorf("compile migration %q: %w", args.Migration.ID, err)
	}

	spill, err := pkg.NewFileSpill[m.BatchReport](args.SpillDir)
	if err != nil {
		return m.RunSummary{}, fmt.Errorf("create report spill: %w", err)
	}

	defer func() {
		if err := spill.Close(); err != nil {
			slog.Error("Failed to close report spill", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	options := []controller.StartOption{controller.WithInterrupt(cancel)}
	if args.Previews {
		options = append(options, controller.WithPreviews())
	}

	if err := w.Start(ctx, options...); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return m.RunSummary{}, err
	}

	w.DisplayRunInfo(ctx, controller.RunInfo{
		MigrationID:   args.Migration.ID,
		Title:         args.Migration.Title,
		DocumentTypes: args.Migration.DocumentTypes,
		Source:        args.SourceName,
		Target:        args.TargetName,
		DryRun:        args.Context.DryRun,
	})

	counter := &documentCounter{}
	runErr := w.pipeline(ctx, stream, args, counter, spill)

	summary, err := summarize(spill, counter.read)
	if err != nil {
		runErr = errors.Join(runErr, err)
	}

	summary.Err = runErr

	// The summary is rendered on a fresh context so an aborted run still reports.
	displayCtx := context.WithoutCancel(ctx)
	if err := w.DisplaySummary(displayCtx, summary); err != nil {
		slog.Debug("Summary reported failure", "error", err)
	}

	w.Wait(displayCtx)
	w.Close(displayCtx)

	if runErr != nil {
		slog.Error("Migration failed", "migration", args.Migration.ID, "error", runErr)
		return summary, runErr
	}

	slog.Info("Migration finished", "migration", args.Migration.ID, "documents", summary.DocumentsRead, "mutations", summary.Mutations)

	return summary, nil
}

// pipeline pulls batches in one goroutine and drains them into the sink in another.
func (w *workflow) pipeline(
	ctx context.Context,
	stream StreamingMigration,
	args RunArgs,
	counter *documentCounter,
	spill pkg.FileSpill[m.BatchReport],
) error {
	buffer := args.Buffer
	if buffer < 1 {
		buffer = 1
	}

	batches := make(chan emitted, buffer)
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(batches)

		docs := counter.track(args.Source.Documents(groupCtx))
		sequence := 0

		for batch, err := range stream(docs, args.Context) {
			if err != nil {
				return err
			}

			sequence++

			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case batches <- emitted{sequence: sequence, document: counter.current, batch: batch}:
			}
		}

		return nil
	})

	group.Go(func() error {
		for item := range batches {
			if err := args.Sink.Submit(groupCtx, item.batch); err != nil {
				return fmt.Errorf("submit batch for %q: %w", item.document.ID(), err)
			}

			report := m.NewBatchReport(item.sequence, item.document, item.batch)
			report.Preview = BuildPreview(item.document, item.batch)

			if err := spill.Append(report); err != nil {
				return fmt.Errorf("spill report: %w", err)
			}

			w.DisplayBatch(groupCtx, report)
		}

		return nil
	})

	err := group.Wait()

	if closeErr := args.Sink.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close sink: %w", closeErr))
	}

	if err == nil && ctx.Err() != nil {
		return ctx.Err()
	}

	return err
}

// documentCounter remembers the latest document pulled from a source. A
// batch is always emitted before the next document is pulled, so current
// is the document the batch belongs to.
type documentCounter struct {
	read    int
	current m.Document
}

func (c *documentCounter) track(docs iter.Seq2[m.Document, error]) iter.Seq2[m.Document, error] {
	return func(yield func(m.Document, error) bool) {
		for doc, err := range docs {
			if err == nil {
				c.read++
				c.current = doc
			}

			if !yield(doc, err) {
				return
			}
		}
	}
}

func summarize(spill pkg.FileSpill[m.BatchReport], documentsRead int) (m.RunSummary, error) {
	summary := m.RunSummary{
		DocumentsRead: documentsRead,
		ByType:        map[string]m.TypeSummary{},
	}

	for report, err := range spill.All() {
		if err != nil {
			return summary, err
		}

		summary.Batches++
		summary.Mutations += report.Mutations

		stat := summary.ByType[report.DocumentType]
		stat.Documents++
		stat.Mutations += report.Mutations

		if stat.Operations == nil {
			stat.Operations = map[m.OperationType]int{}
		}

		for op, count := range report.Operations {
			stat.Operations[op] += count
		}

		summary.ByType[report.DocumentType] = stat
	}

	return summary, nil
}
