package retriever

import (
	"fmt"
	"math"

	"github.com/sandevgo/dialogkit/internal/core"
)

// DistanceFunc scores two vectors; lower means more similar. The metric
// is pluggable per deployment, cosine distance is the reference.
type DistanceFunc func(a, b []float32) (float64, error)

// CosineDistance returns 1 - cosine similarity, so identical directions
// score 0 and orthogonal ones score 1. A zero vector has no direction and
// scores the maximum distance.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", core.ErrDimension, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1, nil
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), nil
}
