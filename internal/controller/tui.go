package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	m "docmig.dev/pkg/docmig/internal/model"
)

// recentBatches is how many batch lines stay on screen while a run progresses.
const recentBatches = 8

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output  io.Writer
	mu      sync.Mutex
	program *tea.Program
	group   *errgroup.Group
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

type runInfoMsg RunInfo

type batchMsg m.BatchReport

type summaryMsg m.RunSummary

// Start launches the Bubble Tea program in the background.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return fmt.Errorf("ui already started")
	}

	config := newStartConfig(options)
	model := newRunModel(config)

	t.program = tea.NewProgram(model, tea.WithOutput(t.output), tea.WithContext(ctx))
	t.group = &errgroup.Group{}

	program := t.program
	t.group.Go(func() error {
		final, err := program.Run()
		if err != nil {
			slog.Debug("tui stopped", "error", err)
		}

		if rm, ok := final.(runModel); ok && rm.interrupted && config.interrupt != nil {
			config.interrupt()
		}

		return nil
	})

	return nil
}

// Close stops the program if it is still running.
func (t *TUI) Close(_ context.Context) {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program == nil {
		return
	}

	program.Quit()
	t.wait()
}

// Wait blocks until the program has rendered the summary and exited.
func (t *TUI) Wait(_ context.Context) {
	t.wait()
}

func (t *TUI) wait() {
	t.mu.Lock()
	group := t.group
	t.mu.Unlock()

	if group != nil {
		_ = group.Wait()
	}
}

// DisplayRunInfo shows the run header.
func (t *TUI) DisplayRunInfo(ctx context.Context, info RunInfo) {
	t.send(ctx, runInfoMsg(info))
}

// DisplayBatch records a batch in the progress view.
func (t *TUI) DisplayBatch(ctx context.Context, report m.BatchReport) {
	t.send(ctx, batchMsg(report))
}

// DisplaySummary renders the summary and lets the program exit.
func (t *TUI) DisplaySummary(ctx context.Context, summary m.RunSummary) error {
	t.send(ctx, summaryMsg(summary))

	return summary.Err
}

func (t *TUI) send(ctx context.Context, msg tea.Msg) {
	if ctx.Err() != nil {
		return
	}

	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

// runModel is the Bubble Tea model for a running migration.
type runModel struct {
	spinner     spinner.Model
	previews    bool
	info        *RunInfo
	recent      []m.BatchReport
	batches     int
	mutations   int
	summary     *m.RunSummary
	interrupted bool
}

func newRunModel(config StartConfig) runModel {
	return runModel{
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		previews: config.previews,
	}
}

func (rm runModel) Init() tea.Cmd {
	return rm.spinner.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			rm.interrupted = rm.summary == nil
			return rm, tea.Quit
		}

		return rm, nil

	case runInfoMsg:
		info := RunInfo(msg)
		rm.info = &info

		return rm, nil

	case batchMsg:
		rm.batches++
		rm.mutations += msg.Mutations

		rm.recent = append(rm.recent, m.BatchReport(msg))
		if len(rm.recent) > recentBatches {
			rm.recent = rm.recent[len(rm.recent)-recentBatches:]
		}

		return rm, nil

	case summaryMsg:
		summary := m.RunSummary(msg)
		rm.summary = &summary

		return rm, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd

		rm.spinner, cmd = rm.spinner.Update(msg)

		return rm, cmd
	}

	return rm, nil
}

func (rm runModel) View() string {
	var b strings.Builder

	if rm.info != nil {
		b.WriteString(titleStyle.Render(formatRunInfo(*rm.info)))
		b.WriteString("\n\n")
	}

	if rm.summary != nil {
		rm.renderSummary(&b)
		return b.String()
	}

	for _, report := range rm.recent {
		b.WriteString(mutedStyle.Render(formatBatch(report)))
		b.WriteString("\n")

		if rm.previews && report.Preview != "" {
			b.WriteString(report.Preview)
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n%s %d batch(es), %d mutation(s)  %s\n",
		rm.spinner.View(), rm.batches, rm.mutations, mutedStyle.Render("(q to abort)"))

	return b.String()
}

func (rm runModel) renderSummary(b *strings.Builder) {
	b.WriteString(renderSummaryTable(*rm.summary))
	b.WriteString("\n")

	if rm.summary.Err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("migration failed: %v", rm.summary.Err)))
	} else {
		b.WriteString(successStyle.Render(fmt.Sprintf("done: %d mutation(s) in %d batch(es)", rm.summary.Mutations, rm.summary.Batches)))
	}

	b.WriteString("\n")
}
