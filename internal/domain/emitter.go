package domain

import (
	"iter"
	"log/slog"

	m "docmig.dev/pkg/docmig/internal/model"
)

// documentFilter admits documents whose type is allowlisted and, when set,
// that satisfy the predicate.
type documentFilter struct {
	types     map[string]struct{}
	predicate func(doc m.Document) bool
}

func newDocumentFilter(documentTypes []string, predicate func(doc m.Document) bool) documentFilter {
	types := make(map[string]struct{}, len(documentTypes))
	for _, t := range documentTypes {
		types[t] = struct{}{}
	}

	return documentFilter{types: types, predicate: predicate}
}

func (f documentFilter) matches(doc m.Document) bool {
	if _, ok := f.types[doc.Type()]; !ok {
		return false
	}

	if f.predicate != nil && !f.predicate(doc) {
		return false
	}

	return true
}

// newBatchEmitter builds the producer for node-oriented migrations. Documents
// are pulled one at a time and the next document is only requested once the
// current batch has been handed to the consumer.
func newBatchEmitter(nm NodeMigration, filter documentFilter) StreamingMigration {
	return func(docs iter.Seq2[m.Document, error], mctx m.MigrationContext) iter.Seq2[m.MutationBatch, error] {
		return func(yield func(m.MutationBatch, error) bool) {
			for doc, err := range docs {
				if err != nil {
					yield(nil, err)
					return
				}

				if !filter.matches(doc) {
					slog.Debug("Skipping document", "id", doc.ID(), "type", doc.Type())
					continue
				}

				batch, err := collectDocumentMutations(nm, doc, mctx)
				if err != nil {
					slog.Error("Failed to migrate document", "id", doc.ID(), "error", err)
					yield(nil, err)

					return
				}

				if len(batch) == 0 {
					continue
				}

				slog.Debug("Emitting batch", "id", doc.ID(), "mutations", len(batch))

				if !yield(batch, nil) {
					return
				}
			}
		}
	}
}
