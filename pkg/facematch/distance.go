// Package facematch compares face embeddings. It has no I/O: callers load
// candidates from the store and hand the engine an in-memory snapshot.
package facematch

import "math"

// MaxCosineDistance is returned for pairs that cannot be compared under
// the cosine metric (empty, mismatched length or zero norm).
const MaxCosineDistance = 2.0

// Metric names a distance function between two embeddings
type Metric string

const (
	MetricCosine    Metric = "cosine"
	MetricEuclidean Metric = "euclidean"
)

func (m Metric) String() string {
	return string(m)
}

// Distance computes the distance between a and b under the metric.
func (m Metric) Distance(a, b []float32) float64 {
	if m == MetricCosine {
		return CosineDistance(a, b)
	}
	return EuclideanDistance(a, b)
}

// CosineDistance returns 1 - cos(a, b), in [0, 2].
func CosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return MaxCosineDistance
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return MaxCosineDistance
	}

	// sqrt(normA*normB) keeps d(a, a) exactly 0
	similarity := dot / math.Sqrt(normA*normB)
	if similarity > 1 {
		similarity = 1
	} else if similarity < -1 {
		similarity = -1
	}
	return 1 - similarity
}

// EuclideanDistance returns the L2 distance over the shorter of the two
// vectors. Callers that care about length must check it themselves.
func EuclideanDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
