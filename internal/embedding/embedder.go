package embedding

import (
	"fmt"
	"math"

	"reciperag/internal/domain"
)

// Normalize scales v to unit length in place. Zero vectors are left untouched.
func Normalize(v domain.Vector) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

// IsZero reports whether v has no direction, which makes cosine similarity
// undefined.
func IsZero(v domain.Vector) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// CheckDimension verifies that every vector has exactly dim components.
func CheckDimension(vectors []domain.Vector, dim int) error {
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has %d values, want %d: %w", i, len(v), dim, domain.ErrDimensionMismatch)
		}
	}
	return nil
}
