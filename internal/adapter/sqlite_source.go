package adapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	m "docmig.dev/pkg/docmig/internal/model"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS documents (
	id   TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	body TEXT NOT NULL
)`

// SQLiteSource reads documents from a SQLite snapshot with a
// documents(id, type, body) table, in insertion order.
type SQLiteSource struct {
	db    *sql.DB
	types []string
}

// OpenSQLiteSource opens the snapshot at path and ensures the schema exists.
// Only documents whose type is in types are read; nil reads all.
func OpenSQLiteSource(ctx context.Context, path string, types []string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}

	// One connection keeps in-memory databases shared across queries.
	db.SetMaxOpenConns(1)

	source := NewSQLiteSource(db, types)
	if err := source.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return source, nil
}

// NewSQLiteSource wraps an open database.
func NewSQLiteSource(db *sql.DB, types []string) *SQLiteSource {
	return &SQLiteSource{db: db, types: types}
}

// EnsureSchema creates the documents table when missing.
func (s *SQLiteSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Put stores doc, replacing any document with the same id.
func (s *SQLiteSource) Put(ctx context.Context, doc m.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %q: %w", doc.ID(), err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, type, body) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET type = excluded.type, body = excluded.body`,
		doc.ID(), doc.Type(), string(body))
	if err != nil {
		return fmt.Errorf("store document %q: %w", doc.ID(), err)
	}

	return nil
}

// Documents implements DocumentSource. Rows are closed when iteration ends.
func (s *SQLiteSource) Documents(ctx context.Context) iter.Seq2[m.Document, error] {
	return func(yield func(m.Document, error) bool) {
		query, args := s.query()

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("query documents: %w", err))
			return
		}

		defer func() {
			if err := rows.Close(); err != nil {
				slog.Error("failed to close rows", "error", err)
			}
		}()

		for rows.Next() {
			var id, docType, body string
			if err := rows.Scan(&id, &docType, &body); err != nil {
				yield(nil, fmt.Errorf("scan document: %w", err))
				return
			}

			doc, err := m.ParseDocument([]byte(body))
			if err != nil {
				yield(nil, fmt.Errorf("decode document %q: %w", id, err))
				return
			}

			if !yield(withIdentity(doc, id, docType), nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("read documents: %w", err))
		}
	}
}

// Close closes the underlying database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) query() (string, []any) {
	if len(s.types) == 0 {
		return `SELECT id, type, body FROM documents ORDER BY rowid`, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(s.types)), ",")
	args := make([]any, 0, len(s.types))

	for _, t := range s.types {
		args = append(args, t)
	}

	return `SELECT id, type, body FROM documents WHERE type IN (` + placeholders + `) ORDER BY rowid`, args
}

// withIdentity fills in _id and _type from the row when the body lacks them.
func withIdentity(doc m.Document, id, docType string) m.Document {
	obj := m.Object(doc)

	if doc.ID() == "" {
		obj = obj.Set("_id", id)
	}

	if doc.Type() == "" {
		obj = obj.Set("_type", docType)
	}

	return m.Document(obj)
}
