package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "docmig.dev/pkg/docmig/internal/model"
)

// SimpleUI implements UI with plain text lines.
type SimpleUI struct {
	cmd    *cobra.Command
	out    io.Writer
	config StartConfig
}

// NewSimpleUI creates a SimpleUI printing to the command's output.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// NewSimpleUIWriter creates a SimpleUI printing to w.
func NewSimpleUIWriter(w io.Writer) *SimpleUI {
	return &SimpleUI{out: w}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.config = newStartConfig(options)

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	// SimpleUI doesn't block - it just prints and continues
}

// DisplayRunInfo prints what is about to run.
func (s *SimpleUI) DisplayRunInfo(ctx context.Context, info RunInfo) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s\n", formatRunInfo(info))
}

// DisplayBatch prints a one-line report for a batch, plus its preview when enabled.
func (s *SimpleUI) DisplayBatch(ctx context.Context, report m.BatchReport) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s\n", formatBatch(report))

	if s.config.previews && report.Preview != "" {
		s.printf("%s\n", report.Preview)
	}
}

// DisplaySummary prints the per-type summary table or the failure.
func (s *SimpleUI) DisplaySummary(ctx context.Context, summary m.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderSummaryTable(summary))

	if summary.Err != nil {
		s.printf("migration failed: %v\n", summary.Err)
		return summary.Err
	}

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	out := s.out
	if out == nil {
		out = s.cmd.OutOrStdout()
	}

	_, _ = fmt.Fprintf(out, format, args...)
}

func formatRunInfo(info RunInfo) string {
	name := info.MigrationID
	if info.Title != "" {
		name = fmt.Sprintf("%s (%s)", info.MigrationID, info.Title)
	}

	mode := "apply"
	if info.DryRun {
		mode = "dry run"
	}

	return fmt.Sprintf("Running migration %s on [%s] from %s to %s, %s",
		name, strings.Join(info.DocumentTypes, ", "), info.Source, info.Target, mode)
}

func formatBatch(report m.BatchReport) string {
	return fmt.Sprintf("#%d %s (%s): %d mutation(s) %s",
		report.Sequence, report.DocumentID, report.DocumentType, report.Mutations, formatOperations(report.Operations))
}

func formatOperations(ops map[m.OperationType]int) string {
	if len(ops) == 0 {
		return "-"
	}

	names := make([]string, 0, len(ops))
	for op := range ops {
		names = append(names, string(op))
	}

	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, ops[m.OperationType(name)]))
	}

	return strings.Join(parts, " ")
}

func renderSummaryTable(summary m.RunSummary) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Type", "Documents", "Mutations", "Operations"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT,
	})

	types := make([]string, 0, len(summary.ByType))
	for name := range summary.ByType {
		types = append(types, name)
	}

	sort.Strings(types)

	for _, name := range types {
		stat := summary.ByType[name]
		table.Append([]string{
			name,
			fmt.Sprintf("%d", stat.Documents),
			fmt.Sprintf("%d", stat.Mutations),
			formatOperations(stat.Operations),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Read %d", summary.DocumentsRead),
		fmt.Sprintf("%d", summary.Batches),
		fmt.Sprintf("%d", summary.Mutations),
		"",
	})

	table.Render()

	return tableBuffer.String()
}
