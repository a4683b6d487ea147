package domain

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	m "docmig.dev/pkg/docmig/internal/model"
)

// BuildPreview renders a unified diff of the values a batch sets or unsets
// on doc. Operations whose outcome depends on store state (inc, insert,
// diffMatchPatch and the like) are listed without a diff.
func BuildPreview(doc m.Document, batch m.MutationBatch) string {
	var b strings.Builder

	for _, mutation := range batch {
		patch, ok := mutation.(m.PatchMutation)
		if !ok {
			b.WriteString(string(mutation.MutationType()) + " " + mutation.DocumentID() + "\n")
			continue
		}

		for _, np := range patch.Patches {
			b.WriteString(previewPatch(doc, np))
		}
	}

	return b.String()
}

func previewPatch(doc m.Document, np m.NodePatch) string {
	before, exists := m.Lookup(doc.Root(), np.Path)

	var after m.Value

	afterExists := exists

	switch op := np.Op.(type) {
	case m.SetOp:
		after, afterExists = op.Value, true
	case m.SetIfMissingOp:
		if exists {
			return ""
		}

		after, afterExists = op.Value, true
	case m.UnsetOp:
		afterExists = false
	default:
		return string(np.Op.OperationType()) + " " + np.Path.String() + "\n"
	}

	diff := difflib.UnifiedDiff{
		A:        previewLines(before, exists),
		B:        previewLines(after, afterExists),
		FromFile: np.Path.String() + " (before)",
		ToFile:   np.Path.String() + " (after)",
		Context:  1,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		slog.Debug("Failed to render preview", "path", np.Path.String(), "error", err)
		return ""
	}

	return text
}

func previewLines(v m.Value, exists bool) []string {
	if !exists {
		return nil
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return []string{"<unprintable>\n"}
	}

	return difflib.SplitLines(string(data))
}
