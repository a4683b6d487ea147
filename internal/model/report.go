package model

// BatchReport summarises one emitted batch; it is what progress displays and
// summaries consume instead of holding whole batches.
type BatchReport struct {
	Sequence     int
	DocumentID   string
	DocumentType string
	Mutations    int
	Operations   map[OperationType]int
	Kinds        map[MutationType]int
	Preview      string
}

// NewBatchReport counts the mutations and operations of batch.
func NewBatchReport(sequence int, doc Document, batch MutationBatch) BatchReport {
	report := BatchReport{
		Sequence:     sequence,
		DocumentID:   doc.ID(),
		DocumentType: doc.Type(),
		Mutations:    len(batch),
		Operations:   map[OperationType]int{},
		Kinds:        map[MutationType]int{},
	}

	for _, mutation := range batch {
		report.Kinds[mutation.MutationType()]++

		if patch, ok := mutation.(PatchMutation); ok {
			for _, np := range patch.Patches {
				report.Operations[np.Op.OperationType()]++
			}
		}
	}

	return report
}

// RunSummary holds totals for a finished run.
type RunSummary struct {
	DocumentsRead int
	Batches       int
	Mutations     int
	ByType        map[string]TypeSummary
	Err           error
}

// TypeSummary holds totals for one document type.
type TypeSummary struct {
	Documents  int
	Mutations  int
	Operations map[OperationType]int
}
