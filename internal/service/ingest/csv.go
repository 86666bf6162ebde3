package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sandevgo/dialogkit/internal/core"
	"github.com/sandevgo/dialogkit/pkg/log"
)

const (
	csvCategory    = "csv"
	csvSubcategory = "csv-content"
)

// Loader embeds knowledge-base documents and writes them into the
// content store. Rows that already exist verbatim are skipped, so
// re-running an import over the same file is safe.
type Loader struct {
	contents core.ContentRepository
	embedder core.Embedder
	// Dimension, when positive, rejects embeddings of any other length
	// before they reach the store.
	dimension int
}

func NewLoader(contents core.ContentRepository, embedder core.Embedder, dimension int) *Loader {
	return &Loader{contents: contents, embedder: embedder, dimension: dimension}
}

type Result struct {
	Inserted int
	Skipped  int
}

// LoadCSV imports question/content pairs from a CSV stream. The header
// row names the columns; "question" and "content" are required, any
// extra columns are ignored.
func (l *Loader) LoadCSV(ctx context.Context, r io.Reader, dataset string) (Result, error) {
	logger := log.FromCtx(ctx)

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read csv header: %w", err)
	}

	questionCol, contentCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "question":
			questionCol = i
		case "content":
			contentCol = i
		}
	}
	if questionCol < 0 || contentCol < 0 {
		return Result{}, &core.ValidationError{Field: "csv header", Reason: `must contain "question" and "content" columns`}
	}

	var items []core.ContentItem
	var texts []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("failed to read csv record: %w", err)
		}
		items = append(items, core.ContentItem{
			Dataset:     dataset,
			Category:    csvCategory,
			Subcategory: csvSubcategory,
			Question:    record[questionCol],
			Content:     record[contentCol],
		})
		texts = append(texts, record[questionCol]+"\n"+record[contentCol])
	}
	if len(items) == 0 {
		return Result{}, nil
	}

	vectors, err := l.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return Result{}, err
	}
	if len(vectors) != len(items) {
		return Result{}, fmt.Errorf("embedding batch returned %d vectors for %d rows", len(vectors), len(items))
	}

	var res Result
	for i, item := range items {
		if l.dimension > 0 && len(vectors[i]) != l.dimension {
			return res, fmt.Errorf("%w: row %d has %d dimensions, store expects %d",
				core.ErrDimension, i+1, len(vectors[i]), l.dimension)
		}
		item.Embedding = vectors[i]

		if _, err := l.contents.Insert(ctx, item); err != nil {
			if errors.Is(err, core.ErrDuplicate) {
				logger.Debug().Str("question", item.Question).Msg("skipping duplicate content row")
				res.Skipped++
				continue
			}
			return res, err
		}
		res.Inserted++
	}

	logger.Info().
		Str("dataset", dataset).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Msg("csv import finished")
	return res, nil
}
