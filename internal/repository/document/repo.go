// Package document persists documents and their embeddings in SQLite.
package document

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kailas-cloud/vecrag/internal/db"
	domdoc "github.com/kailas-cloud/vecrag/internal/domain/document"
	"github.com/kailas-cloud/vecrag/internal/domain/vector"
)

// conn is the consumer interface over *sql.DB (ISP).
type conn interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo implements the append-only vector store.
type Repo struct {
	conn conn
}

// New creates a document repository.
func New(c conn) *Repo {
	return &Repo{conn: c}
}

// Insert persists doc and returns the assigned id. The row is committed before returning.
func (r *Repo) Insert(ctx context.Context, doc *domdoc.Document) (int64, error) {
	blob := vector.Encode(doc.Embedding())

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, &db.Error{Op: db.OpInsert, Err: fmt.Errorf("begin: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "INSERT INTO documents (text, embedding) VALUES (?, ?)", doc.Text(), blob)
	if err != nil {
		return 0, &db.Error{Op: db.OpInsert, Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &db.Error{Op: db.OpInsert, Err: fmt.Errorf("last insert id: %w", err)}
	}
	if err := tx.Commit(); err != nil {
		return 0, &db.Error{Op: db.OpInsert, Err: fmt.Errorf("commit: %w", err)}
	}
	return id, nil
}

// All returns every stored document ordered by id. A row whose embedding
// cannot be decoded fails the whole scan.
func (r *Repo) All(ctx context.Context) ([]domdoc.Document, error) {
	rows, err := r.conn.QueryContext(ctx, "SELECT document_id, text, embedding FROM documents ORDER BY document_id")
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var docs []domdoc.Document
	for rows.Next() {
		var (
			id   int64
			text string
			blob []byte
		)
		if err := rows.Scan(&id, &text, &blob); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		vec, err := vector.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", id, err)
		}
		docs = append(docs, domdoc.Reconstruct(id, text, vec))
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return docs, nil
}

// Count returns the number of stored documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpSelect, Err: err}
	}
	return n, nil
}
