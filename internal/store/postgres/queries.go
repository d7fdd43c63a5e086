package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/tablefn/internal/store"
)

// scanLimit caps a Scan at one page, matching the single-page contract of
// the DynamoDB adapter.
const scanLimit = 1000

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryPut(ctx context.Context, db executor, tbl, pk string, item store.Item) error {
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO items (tbl, pk, doc) VALUES ($1, $2, $3)
		ON CONFLICT (tbl, pk) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		tbl, pk, doc,
	)
	if err != nil {
		return fmt.Errorf("put item into %s: %w", tbl, err)
	}
	return nil
}

func queryGet(ctx context.Context, db executor, tbl, pk string) (store.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT doc FROM items WHERE tbl = $1 AND pk = $2`, tbl, pk)
	item, err := scanDoc(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item from %s: %w", tbl, err)
	}
	return item, nil
}

// queryUpdate assigns value at path. jsonb_set leaves the document unchanged
// when an intermediate object is missing, which surfaces here as a NULL
// result and is reported as an invalid path.
func queryUpdate(ctx context.Context, db executor, tbl, pk, path string, value any) (store.Item, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	parts := store.SplitPath(path)

	var got []byte
	err = db.QueryRowContext(ctx, `
		UPDATE items SET doc = jsonb_set(doc, $3::text[], $4::jsonb, true), updated_at = now()
		WHERE tbl = $1 AND pk = $2
		RETURNING doc #> $3::text[]`,
		tbl, pk, pq.Array(parts), raw,
	).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update item in %s: %w", tbl, err)
	}
	if got == nil {
		return nil, fmt.Errorf("update item in %s: document path %q is not valid", tbl, path)
	}

	var v any
	if err := store.DecodeJSON(got, &v); err != nil {
		return nil, fmt.Errorf("decode updated value: %w", err)
	}
	return store.Nest(path, v), nil
}

func queryDelete(ctx context.Context, db executor, tbl, pk string) (store.Item, error) {
	row := db.QueryRowContext(ctx, `DELETE FROM items WHERE tbl = $1 AND pk = $2 RETURNING doc`, tbl, pk)
	item, err := scanDoc(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete item from %s: %w", tbl, err)
	}
	return item, nil
}

func queryScan(ctx context.Context, db executor, tbl string) ([]store.Item, error) {
	rows, err := db.QueryContext(ctx, `SELECT doc FROM items WHERE tbl = $1 ORDER BY pk LIMIT $2`, tbl, scanLimit)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", tbl, err)
	}
	return scanDocs(rows)
}

func queryByAttr(ctx context.Context, db executor, tbl, attr, value string) ([]store.Item, error) {
	rows, err := db.QueryContext(ctx, `SELECT doc FROM items WHERE tbl = $1 AND doc->>$2 = $3 ORDER BY pk`, tbl, attr, value)
	if err != nil {
		return nil, fmt.Errorf("query %s by %s: %w", tbl, attr, err)
	}
	return scanDocs(rows)
}

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanDoc(row scannable) (store.Item, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		return nil, err
	}
	var item store.Item
	if err := store.DecodeJSON(doc, &item); err != nil {
		return nil, fmt.Errorf("decode doc: %w", err)
	}
	return item, nil
}

func scanDocs(rows *sql.Rows) ([]store.Item, error) {
	defer rows.Close()
	items := []store.Item{}
	for rows.Next() {
		item, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
