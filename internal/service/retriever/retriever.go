package retriever

import (
	"context"
	"sort"

	"github.com/sandevgo/dialogkit/internal/core"
	"github.com/sandevgo/dialogkit/pkg/log"
)

type Config struct {
	// TopK bounds how many items a query returns.
	TopK int
	// Threshold is the strict upper bound on acceptable distance.
	Threshold float64
	// Distance defaults to CosineDistance.
	Distance DistanceFunc
}

// Retriever ranks knowledge-base rows by similarity to a query. An empty
// result is a normal outcome, not an error: it is the signal the answer
// pipeline uses to route to the fallback.
type Retriever struct {
	repo      core.ContentRepository
	embedder  core.Embedder
	topK      int
	threshold float64
	distance  DistanceFunc
}

func New(repo core.ContentRepository, embedder core.Embedder, cfg Config) (*Retriever, error) {
	if cfg.TopK <= 0 {
		return nil, &core.ValidationError{Field: "top_k", Reason: "must be positive"}
	}
	if cfg.Threshold <= 0 {
		return nil, &core.ValidationError{Field: "threshold", Reason: "must be positive"}
	}
	if cfg.Distance == nil {
		cfg.Distance = CosineDistance
	}
	return &Retriever{
		repo:      repo,
		embedder:  embedder,
		topK:      cfg.TopK,
		threshold: cfg.Threshold,
		distance:  cfg.Distance,
	}, nil
}

// Search embeds the text, keeps items strictly below the distance
// threshold (optionally restricted to one dataset), ranks them closest
// first and truncates to TopK. Equidistant items keep their insertion
// order, so an unchanged index always returns the same ranking.
func (r *Retriever) Search(ctx context.Context, text, dataset string) ([]core.ScoredContent, error) {
	queryVec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	items, err := r.repo.List(ctx, dataset)
	if err != nil {
		return nil, err
	}

	var scored []core.ScoredContent
	for _, item := range items {
		d, err := r.distance(queryVec, item.Embedding)
		if err != nil {
			return nil, err
		}
		if d < r.threshold {
			scored = append(scored, core.ScoredContent{ContentItem: item, Distance: d})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})

	if len(scored) > r.topK {
		scored = scored[:r.topK]
	}

	log.FromCtx(ctx).Debug().
		Int("candidates", len(items)).
		Int("matched", len(scored)).
		Str("dataset", dataset).
		Msg("content search")
	return scored, nil
}
