package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/sandevgo/dialogkit/internal/core"
)

// ContentRepo reads and writes the knowledge-base rows. The dialog core
// only reads; the write side serves the ingestion loaders.
type ContentRepo struct {
	db dbtx
}

func NewContentRepo(db *sql.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

func (r *ContentRepo) Insert(ctx context.Context, item core.ContentItem) (int64, error) {
	blob, err := serializeVector(item.Embedding)
	if err != nil {
		return 0, err
	}

	var link any
	if item.Link != "" {
		link = item.Link
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO content_items (dataset, category, subcategory, question, content, embedding, link)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Dataset, item.Category, item.Subcategory, item.Question, item.Content, blob, link)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, fmt.Errorf("%w: %q", core.ErrDuplicate, item.Question)
		}
		return 0, &core.ConnError{Op: "insert content", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, &core.ConnError{Op: "insert content", Err: err}
	}
	return id, nil
}

// List returns content rows in insertion order, which doubles as the
// stable tie-breaker for equidistant search results.
func (r *ContentRepo) List(ctx context.Context, dataset string) ([]core.ContentItem, error) {
	query := `SELECT id, dataset, category, subcategory, question, content, embedding, link
		  FROM content_items`
	args := []any{}
	if dataset != "" {
		query += ` WHERE dataset = ?`
		args = append(args, dataset)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.ConnError{Op: "query content", Err: err}
	}
	defer rows.Close()

	var items []core.ContentItem
	for rows.Next() {
		var item core.ContentItem
		var dataset, category, subcategory, link sql.NullString
		var blob []byte

		if err := rows.Scan(&item.ID, &dataset, &category, &subcategory,
			&item.Question, &item.Content, &blob, &link); err != nil {
			return nil, &core.ConnError{Op: "scan content", Err: err}
		}
		item.Dataset = dataset.String
		item.Category = category.String
		item.Subcategory = subcategory.String
		item.Link = link.String

		if item.Embedding, err = deserializeVector(blob); err != nil {
			return nil, fmt.Errorf("content row %d: %w", item.ID, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, &core.ConnError{Op: "iterate content", Err: err}
	}
	return items, nil
}
