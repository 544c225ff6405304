package facematch

import (
	"sort"

	"github.com/google/uuid"
)

// InsightFaceDimension is the vector length of the current embedding model.
// Any other length is treated as the legacy 128-d family.
const InsightFaceDimension = 512

const (
	DefaultCosineThreshold    = 0.4
	DefaultEuclideanThreshold = 0.9
)

// PhotoRef identifies the photo a stored embedding belongs to
type PhotoRef struct {
	ID          uuid.UUID
	EventID     uuid.UUID
	StoragePath string
	PublicURL   string
}

// Embedding is one stored face vector
type Embedding struct {
	Vector      []float32
	BoundingBox []float64
	Source      string
}

// Candidate is a photo together with every face embedding stored for it
type Candidate struct {
	Photo      PhotoRef
	Embeddings []Embedding
}

// Match is a single stored embedding that fell within the threshold
type Match struct {
	Photo          PhotoRef
	EmbeddingIndex int
	Distance       float64
	Confidence     float64
}

// Distribution buckets every compared distance for threshold tuning
type Distribution struct {
	Excellent int `json:"excellent"` // < 0.3
	Good      int `json:"good"`      // 0.3 - 0.5
	Fair      int `json:"fair"`      // 0.5 - 0.7
	Poor      int `json:"poor"`      // >= 0.7
}

// Stats describes one FindMatches run
type Stats struct {
	Metric              Metric       `json:"metric"`
	Dimension           int          `json:"dimension"`
	Threshold           float64      `json:"threshold"`
	Candidates          int          `json:"candidates"`
	Compared            int          `json:"compared"`
	Matched             int          `json:"matched"`
	DimensionMismatches int          `json:"dimension_mismatches"`
	MinDistance         float64      `json:"min_distance"`
	MaxDistance         float64      `json:"max_distance"`
	AvgDistance         float64      `json:"avg_distance"`
	Distribution        Distribution `json:"distribution"`
}

// Result is the ranked output of FindMatches
type Result struct {
	Matches []Match
	Stats   Stats
}

// Engine selects a metric by query length and ranks stored embeddings
type Engine struct {
	cosineThreshold    float64
	euclideanThreshold float64
}

// NewEngine creates an engine with the given per-family default thresholds
func NewEngine(cosineThreshold, euclideanThreshold float64) *Engine {
	return &Engine{
		cosineThreshold:    cosineThreshold,
		euclideanThreshold: euclideanThreshold,
	}
}

// DefaultEngine uses the 0.4 cosine / 0.9 euclidean defaults
func DefaultEngine() *Engine {
	return NewEngine(DefaultCosineThreshold, DefaultEuclideanThreshold)
}

// MetricFor returns the metric and default threshold for a vector length.
func (e *Engine) MetricFor(dimension int) (Metric, float64) {
	if dimension == InsightFaceDimension {
		return MetricCosine, e.cosineThreshold
	}
	return MetricEuclidean, e.euclideanThreshold
}

// FindMatches compares query against every stored embedding of every
// candidate. A nil threshold uses the family default; a non-nil one,
// including 0, is used as is. Embeddings whose length differs from the
// query are skipped and counted. Results are sorted by ascending distance,
// ties keep encounter order.
func (e *Engine) FindMatches(query []float32, candidates []Candidate, threshold *float64) Result {
	result := Result{Matches: []Match{}}
	if len(query) == 0 {
		return result
	}

	metric, limit := e.MetricFor(len(query))
	if threshold != nil {
		limit = *threshold
	}

	stats := Stats{
		Metric:     metric,
		Dimension:  len(query),
		Threshold:  limit,
		Candidates: len(candidates),
	}

	var total float64
	for _, candidate := range candidates {
		for i, stored := range candidate.Embeddings {
			if len(stored.Vector) != len(query) {
				stats.DimensionMismatches++
				continue
			}

			distance := metric.Distance(query, stored.Vector)
			stats.observe(distance)
			total += distance

			if distance <= limit {
				result.Matches = append(result.Matches, Match{
					Photo:          candidate.Photo,
					EmbeddingIndex: i,
					Distance:       distance,
					Confidence:     Confidence(distance),
				})
			}
		}
	}

	if stats.Compared > 0 {
		stats.AvgDistance = total / float64(stats.Compared)
	}
	stats.Matched = len(result.Matches)

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Distance < result.Matches[j].Distance
	})

	result.Stats = stats
	return result
}

// FindMatches runs the default engine
func FindMatches(query []float32, candidates []Candidate, threshold *float64) Result {
	return DefaultEngine().FindMatches(query, candidates, threshold)
}

// Confidence maps a distance to a 0-100 display score. Not a probability.
func Confidence(distance float64) float64 {
	c := (1 - distance) * 100
	if c < 0 {
		return 0
	}
	return c
}

func (s *Stats) observe(distance float64) {
	if s.Compared == 0 || distance < s.MinDistance {
		s.MinDistance = distance
	}
	if s.Compared == 0 || distance > s.MaxDistance {
		s.MaxDistance = distance
	}
	s.Compared++

	switch {
	case distance < 0.3:
		s.Distribution.Excellent++
	case distance < 0.5:
		s.Distribution.Good++
	case distance < 0.7:
		s.Distribution.Fair++
	default:
		s.Distribution.Poor++
	}
}
