package adapter

import (
	"errors"
	"fmt"
	"strconv"

	m "docmig.dev/pkg/docmig/internal/model"
)

// ErrUnsupportedOperation is returned for changes the store wire format cannot express.
var ErrUnsupportedOperation = errors.New("operation not supported by the mutate endpoint")

// EncodeWireMutations converts a batch to the mutate endpoint format. Each
// node patch becomes its own patch entry so operation order is kept.
func EncodeWireMutations(batch m.MutationBatch) ([]m.Object, error) {
	out := make([]m.Object, 0, len(batch))

	for _, mutation := range batch {
		encoded, err := encodeWireMutation(mutation)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", mutation.DocumentID(), err)
		}

		out = append(out, encoded...)
	}

	return out, nil
}

func encodeWireMutation(mutation m.Mutation) ([]m.Object, error) {
	switch mut := mutation.(type) {
	case m.PatchMutation:
		out := make([]m.Object, 0, len(mut.Patches))

		for _, np := range mut.Patches {
			patch, err := encodeWirePatch(mut.ID, mut.IfRevision, np)
			if err != nil {
				return nil, err
			}

			out = append(out, m.Object{{Key: "patch", Value: patch}})
		}

		return out, nil
	case m.CreateMutation:
		return []m.Object{{{Key: "create", Value: mut.Document}}}, nil
	case m.CreateIfNotExistsMutation:
		return []m.Object{{{Key: "createIfNotExists", Value: mut.Document}}}, nil
	case m.CreateOrReplaceMutation:
		return []m.Object{{{Key: "createOrReplace", Value: mut.Document}}}, nil
	case m.DeleteMutation:
		return []m.Object{{{Key: "delete", Value: m.Object{{Key: "id", Value: mut.ID}}}}}, nil
	case m.RawMutation:
		body := make(m.Object, 0, len(mut.Body))
		for _, member := range mut.Body {
			if member.Key != "type" {
				body = append(body, member)
			}
		}

		return []m.Object{{{Key: string(mut.Type), Value: body}}}, nil
	default:
		return nil, fmt.Errorf("unknown mutation %T", mutation)
	}
}

func encodeWirePatch(id, ifRevision string, np m.NodePatch) (m.Object, error) {
	patch := m.Object{{Key: "id", Value: id}}
	if ifRevision != "" {
		patch = append(patch, m.Member{Key: "ifRevisionID", Value: ifRevision})
	}

	if len(np.Path) == 0 {
		return nil, fmt.Errorf("%w: %s at document root", ErrUnsupportedOperation, np.Op.OperationType())
	}

	path := np.Path.String()

	switch op := np.Op.(type) {
	case m.SetOp:
		return append(patch, m.Member{Key: "set", Value: m.Object{{Key: path, Value: op.Value}}}), nil
	case m.SetIfMissingOp:
		return append(patch, m.Member{Key: "setIfMissing", Value: m.Object{{Key: path, Value: op.Value}}}), nil
	case m.UnsetOp:
		return append(patch, m.Member{Key: "unset", Value: m.Array{path}}), nil
	case m.IncOp:
		return append(patch, m.Member{Key: "inc", Value: m.Object{{Key: path, Value: op.Amount}}}), nil
	case m.DecOp:
		return append(patch, m.Member{Key: "dec", Value: m.Object{{Key: path, Value: op.Amount}}}), nil
	case m.DiffMatchPatchOp:
		return append(patch, m.Member{Key: "diffMatchPatch", Value: m.Object{{Key: path, Value: op.Patch}}}), nil
	case m.InsertOp:
		insert := m.Object{
			{Key: string(op.Position), Value: insertReference(np.Path, op)},
			{Key: "items", Value: op.Items},
		}

		return append(patch, m.Member{Key: "insert", Value: insert}), nil
	case m.UnassignOp:
		paths := make(m.Array, 0, len(op.Keys))
		for _, key := range op.Keys {
			paths = append(paths, np.Path.Append(m.Key(key)).String())
		}

		return append(patch, m.Member{Key: "unset", Value: paths}), nil
	case m.TruncateOp:
		end := ""
		if op.EndIndex != nil {
			end = strconv.Itoa(*op.EndIndex)
		}

		rng := fmt.Sprintf("%s[%d:%s]", path, op.StartIndex, end)

		return append(patch, m.Member{Key: "unset", Value: m.Array{rng}}), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, np.Op.OperationType())
	}
}

// insertReference resolves the element items are inserted relative to. With
// no reference, "before" targets the first element and anything else the last.
func insertReference(path m.Path, op m.InsertOp) string {
	ref := op.Reference
	if ref == nil {
		ref = m.Index(-1)
		if op.Position == m.Before {
			ref = m.Index(0)
		}
	}

	return path.Append(ref).String()
}
