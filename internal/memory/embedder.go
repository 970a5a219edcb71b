// Package memory implements embedding-backed situation memory: past
// situations and the advice that followed them, retrievable by semantic
// similarity. Vectors come from a vendor embedding engine with an
// OpenAI-compatible fallback; when no engine is reachable the package keeps
// working in a degraded mode where every vector is a zero sentinel.
package memory

import (
	"context"
	"fmt"
	"math"
)

// SentinelDimensions is the vector size used when no embedding engine is
// available.
const SentinelDimensions = 1024

// Embedder generates vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Name() string
}

// Sentinel returns the zero vector standing in for an unembeddable text.
func Sentinel(dimensions int) []float32 {
	if dimensions <= 0 {
		dimensions = SentinelDimensions
	}
	return make([]float32, dimensions)
}

// IsSentinel reports whether vec is a zero vector.
func IsSentinel(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Zero-magnitude vectors yield 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}
