package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	adaptermocks "docmig.dev/pkg/docmig/internal/adapter/mocks"
	"docmig.dev/pkg/docmig/internal/controller"
	controllermocks "docmig.dev/pkg/docmig/internal/controller/mocks"
	"docmig.dev/pkg/docmig/internal/domain"
	m "docmig.dev/pkg/docmig/internal/model"
)

func expectUI(ui *controllermocks.MockUI, starts ...interface{}) *controllermocks.MockUI_DisplaySummary_Call {
	ui.EXPECT().Start(mock.Anything, starts...).Return(nil)
	ui.EXPECT().DisplayRunInfo(mock.Anything, mock.Anything).Return()
	ui.EXPECT().Wait(mock.Anything).Return()
	ui.EXPECT().Close(mock.Anything).Return()

	return ui.EXPECT().DisplaySummary(mock.Anything, mock.Anything)
}

func postMigration() domain.Migration {
	return domain.Migration{ID: "retitle", Title: "Retitle posts", DocumentTypes: []string{"post"}, Node: retitle()}
}

func TestWorkflow_Run_SubmitsBatchesInOrder(t *testing.T) {
	// Arrange
	ui := controllermocks.NewMockUI(t)
	source := adaptermocks.NewMockDocumentSource(t)
	sink := adaptermocks.NewMockMutationSink(t)

	docs := &docStream{docs: []m.Document{
		parseDoc(t, `{"_id":"a","_type":"post","title":"x"}`),
		parseDoc(t, `{"_id":"p","_type":"page","title":"x"}`),
		parseDoc(t, `{"_id":"b","_type":"post","title":"x"}`),
	}}
	source.EXPECT().Documents(mock.Anything).Return(docs.Seq())

	var submitted []string

	sink.EXPECT().Submit(mock.Anything, mock.Anything).
		Run(func(_ context.Context, batch m.MutationBatch) {
			submitted = append(submitted, batch[0].DocumentID())
		}).
		Return(nil).Times(2)
	sink.EXPECT().Close().Return(nil).Once()

	var reports []m.BatchReport

	ui.EXPECT().DisplayBatch(mock.Anything, mock.Anything).
		Run(func(_ context.Context, report m.BatchReport) { reports = append(reports, report) }).
		Return()

	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(nil)
	ui.EXPECT().DisplayRunInfo(mock.Anything, controller.RunInfo{
		MigrationID:   "retitle",
		Title:         "Retitle posts",
		DocumentTypes: []string{"post"},
		Source:        "in.ndjson",
		Target:        "stdout",
		DryRun:        true,
	}).Return()
	ui.EXPECT().DisplaySummary(mock.Anything, mock.Anything).Return(nil)
	ui.EXPECT().Wait(mock.Anything).Return()
	ui.EXPECT().Close(mock.Anything).Return()

	wf := domain.NewWorkflow(ui)

	// Act
	summary, err := wf.Run(context.Background(), domain.RunArgs{
		Migration:  postMigration(),
		Source:     source,
		Sink:       sink,
		Context:    m.MigrationContext{DryRun: true},
		SourceName: "in.ndjson",
		TargetName: "stdout",
		SpillDir:   t.TempDir(),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, submitted)
	assert.Equal(t, 3, summary.DocumentsRead)
	assert.Equal(t, 2, summary.Batches)
	assert.Equal(t, 2, summary.Mutations)
	assert.Equal(t, m.TypeSummary{Documents: 2, Mutations: 2, Operations: map[m.OperationType]int{m.OpSet: 2}}, summary.ByType["post"])
	assert.NoError(t, summary.Err)

	require.Len(t, reports, 2)
	assert.Equal(t, 1, reports[0].Sequence)
	assert.Equal(t, "a", reports[0].DocumentID)
	assert.Equal(t, 2, reports[1].Sequence)
	assert.Equal(t, "b", reports[1].DocumentID)
	assert.Contains(t, reports[1].Preview, `+"y"`)
}

func TestWorkflow_Run_PreviewsOption(t *testing.T) {
	ui := controllermocks.NewMockUI(t)
	source := adaptermocks.NewMockDocumentSource(t)
	sink := adaptermocks.NewMockMutationSink(t)

	docs := &docStream{}
	source.EXPECT().Documents(mock.Anything).Return(docs.Seq())
	sink.EXPECT().Close().Return(nil)
	expectUI(ui, mock.Anything, mock.Anything).Return(nil)

	summary, err := domain.NewWorkflow(ui).Run(context.Background(), domain.RunArgs{
		Migration: postMigration(),
		Source:    source,
		Sink:      sink,
		Previews:  true,
		SpillDir:  t.TempDir(),
	})

	require.NoError(t, err)
	assert.Zero(t, summary.Batches)
	assert.Zero(t, summary.DocumentsRead)
}

func TestWorkflow_Run_SinkErrorStopsRun(t *testing.T) {
	// Arrange
	ui := controllermocks.NewMockUI(t)
	source := adaptermocks.NewMockDocumentSource(t)
	sink := adaptermocks.NewMockMutationSink(t)
	rejected := errors.New("rejected")

	docs := &docStream{docs: []m.Document{
		parseDoc(t, `{"_id":"a","_type":"post","title":"x"}`),
		parseDoc(t, `{"_id":"b","_type":"post","title":"x"}`),
		parseDoc(t, `{"_id":"c","_type":"post","title":"x"}`),
	}}
	source.EXPECT().Documents(mock.Anything).Return(docs.Seq())
	sink.EXPECT().Submit(mock.Anything, mock.Anything).Return(rejected).Once()
	sink.EXPECT().Close().Return(nil).Once()

	var reported m.RunSummary

	expectUI(ui, mock.Anything).
		Run(func(_ context.Context, summary m.RunSummary) { reported = summary }).
		Return(rejected)

	// Act
	summary, err := domain.NewWorkflow(ui).Run(context.Background(), domain.RunArgs{
		Migration: postMigration(),
		Source:    source,
		Sink:      sink,
		SpillDir:  t.TempDir(),
	})

	// Assert
	require.ErrorIs(t, err, rejected)
	assert.Contains(t, err.Error(), `submit batch for "a"`)
	assert.ErrorIs(t, reported.Err, rejected)
	assert.Zero(t, summary.Batches)
	assert.True(t, docs.closed)
}

func TestWorkflow_Run_MigrationErrorIsReported(t *testing.T) {
	ui := controllermocks.NewMockUI(t)
	source := adaptermocks.NewMockDocumentSource(t)
	sink := adaptermocks.NewMockMutationSink(t)
	readErr := errors.New("truncated input")

	docs := &docStream{docs: []m.Document{parseDoc(t, `{"_id":"a","_type":"post","title":"x"}`)}, err: readErr}
	source.EXPECT().Documents(mock.Anything).Return(docs.Seq())
	sink.EXPECT().Submit(mock.Anything, mock.Anything).Return(nil).Once()
	sink.EXPECT().Close().Return(nil).Once()
	ui.EXPECT().DisplayBatch(mock.Anything, mock.Anything).Return()
	expectUI(ui, mock.Anything).Return(readErr)

	summary, err := domain.NewWorkflow(ui).Run(context.Background(), domain.RunArgs{
		Migration: postMigration(),
		Source:    source,
		Sink:      sink,
		SpillDir:  t.TempDir(),
	})

	require.ErrorIs(t, err, readErr)
	assert.Equal(t, 1, summary.Batches)
	assert.ErrorIs(t, summary.Err, readErr)
}

func TestWorkflow_Run_SinkCloseErrorIsJoined(t *testing.T) {
	ui := controllermocks.NewMockUI(t)
	source := adaptermocks.NewMockDocumentSource(t)
	sink := adaptermocks.NewMockMutationSink(t)
	closeErr := errors.New("flush failed")

	source.EXPECT().Documents(mock.Anything).Return((&docStream{}).Seq())
	sink.EXPECT().Close().Return(closeErr)
	expectUI(ui, mock.Anything).Return(closeErr)

	_, err := domain.NewWorkflow(ui).Run(context.Background(), domain.RunArgs{
		Migration: postMigration(),
		Source:    source,
		Sink:      sink,
		SpillDir:  t.TempDir(),
	})

	require.ErrorIs(t, err, closeErr)
	assert.Contains(t, err.Error(), "close sink")
}

func TestWorkflow_Run_CancelledContext(t *testing.T) {
	ui := controllermocks.NewMockUI(t)
	source := adaptermocks.NewMockDocumentSource(t)
	sink := adaptermocks.NewMockMutationSink(t)

	docs := &docStream{docs: []m.Document{parseDoc(t, `{"_id":"a","_type":"post","title":"x"}`)}}
	source.EXPECT().Documents(mock.Anything).Return(docs.Seq())
	sink.EXPECT().Submit(mock.Anything, mock.Anything).Return(nil).Maybe()
	sink.EXPECT().Close().Return(nil)
	ui.EXPECT().DisplayBatch(mock.Anything, mock.Anything).Return().Maybe()
	expectUI(ui, mock.Anything).Return(context.Canceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := domain.NewWorkflow(ui).Run(ctx, domain.RunArgs{
		Migration: postMigration(),
		Source:    source,
		Sink:      sink,
		SpillDir:  t.TempDir(),
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkflow_Run_CompileErrorSkipsUI(t *testing.T) {
	ui := controllermocks.NewMockUI(t)
	source := adaptermocks.NewMockDocumentSource(t)
	sink := adaptermocks.NewMockMutationSink(t)

	_, err := domain.NewWorkflow(ui).Run(context.Background(), domain.RunArgs{
		Migration: domain.Migration{ID: "empty"},
		Source:    source,
		Sink:      sink,
		SpillDir:  t.TempDir(),
	})

	assert.ErrorIs(t, err, domain.ErrEmptyMigration)
}

func TestWorkflow_Run_StartErrorAborts(t *testing.T) {
	ui := controllermocks.NewMockUI(t)
	source := adaptermocks.NewMockDocumentSource(t)
	sink := adaptermocks.NewMockMutationSink(t)
	startErr := errors.New("no terminal")

	ui.EXPECT().Start(mock.Anything, mock.Anything).Return(startErr)

	_, err := domain.NewWorkflow(ui).Run(context.Background(), domain.RunArgs{
		Migration: postMigration(),
		Source:    source,
		Sink:      sink,
		SpillDir:  t.TempDir(),
	})

	assert.ErrorIs(t, err, startErr)
}
