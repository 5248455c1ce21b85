// Package vector holds the in-memory similarity index used for semantic
// search over session units.
package vector

import (
	"fmt"
	"math"

	"github.com/kontext-dev/kontext/internal/domain"
)

// CosineSimilarity returns the cosine similarity of a and b rescaled from
// [-1, 1] to [0, 1]. A zero-norm operand yields 0.0: zero vectors stand for
// "no embedding" and must never rank above real matches. Vectors of
// different lengths are a caller bug and return an error.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp before rescaling; float rounding can push |cos| past 1.
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return (cos + 1) / 2, nil
}
