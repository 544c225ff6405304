package facematch

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oneHot returns a dim-length vector with value at index 0. Against a zero
// query its euclidean distance is exactly value.
func oneHot(dim int, value float32) []float32 {
	v := make([]float32, dim)
	v[0] = value
	return v
}

func candidate(vectors ...[]float32) Candidate {
	c := Candidate{Photo: PhotoRef{
		ID:          uuid.New(),
		EventID:     uuid.New(),
		StoragePath: "event/uploader/photo.jpg",
	}}
	for _, v := range vectors {
		c.Embeddings = append(c.Embeddings, Embedding{Vector: v, Source: "test"})
	}
	return c
}

func ptr(f float64) *float64 {
	return &f
}

func TestFindMatches_EmptyQuery(t *testing.T) {
	result := FindMatches(nil, []Candidate{candidate(oneHot(128, 0))}, nil)

	require.NotNil(t, result.Matches)
	assert.Empty(t, result.Matches)
	assert.Zero(t, result.Stats.Compared)
}

func TestFindMatches_IdenticalInsightFace(t *testing.T) {
	query := seqVector(512, 0.3)
	stored := append([]float32(nil), query...)
	c := candidate(stored)

	result := FindMatches(query, []Candidate{c}, nil)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, c.Photo.ID, result.Matches[0].Photo.ID)
	assert.InDelta(t, 0, result.Matches[0].Distance, 1e-12)
	assert.InDelta(t, 100, result.Matches[0].Confidence, 1e-9)
	assert.Equal(t, MetricCosine, result.Stats.Metric)
	assert.Equal(t, DefaultCosineThreshold, result.Stats.Threshold)
}

func TestFindMatches_DimensionMismatchSkipped(t *testing.T) {
	query := seqVector(512, 0.3)
	legacy := candidate(seqVector(128, 0.3))

	result := FindMatches(query, []Candidate{legacy}, nil)

	assert.Empty(t, result.Matches)
	assert.Equal(t, 1, result.Stats.DimensionMismatches)
	assert.Zero(t, result.Stats.Compared)
}

func TestFindMatches_NeverComparesTruncated(t *testing.T) {
	query := oneHot(128, 0)
	// Same leading values, two extra components: truncated euclidean would be 0
	longer := append(oneHot(128, 0), 0, 0)

	result := FindMatches(query, []Candidate{candidate(longer)}, ptr(10))

	assert.Empty(t, result.Matches)
	assert.Equal(t, 1, result.Stats.DimensionMismatches)
}

func TestFindMatches_MultipleFacesOnOnePhoto(t *testing.T) {
	query := oneHot(128, 0)
	c := candidate(oneHot(128, 0.1), oneHot(128, 0.2))

	result := FindMatches(query, []Candidate{c}, nil)

	require.Len(t, result.Matches, 2)
	assert.Equal(t, c.Photo.ID, result.Matches[0].Photo.ID)
	assert.Equal(t, c.Photo.ID, result.Matches[1].Photo.ID)
	assert.Equal(t, 0, result.Matches[0].EmbeddingIndex)
	assert.Equal(t, 1, result.Matches[1].EmbeddingIndex)
}

func TestFindMatches_SortedAscending(t *testing.T) {
	query := oneHot(128, 0)
	candidates := []Candidate{
		candidate(oneHot(128, 0.5)),
		candidate(oneHot(128, 0.1)),
		candidate(oneHot(128, 0.95)),
		candidate(oneHot(128, 0.3)),
	}

	result := FindMatches(query, candidates, nil)

	require.Len(t, result.Matches, 3)
	for i := 0; i+1 < len(result.Matches); i++ {
		assert.LessOrEqual(t, result.Matches[i].Distance, result.Matches[i+1].Distance)
	}
	assert.Equal(t, candidates[1].Photo.ID, result.Matches[0].Photo.ID)
	assert.InDelta(t, 90, result.Matches[0].Confidence, 1e-4)
	assert.InDelta(t, 50, result.Matches[2].Confidence, 1e-4)

	stats := result.Stats
	assert.Equal(t, MetricEuclidean, stats.Metric)
	assert.Equal(t, 4, stats.Candidates)
	assert.Equal(t, 4, stats.Compared)
	assert.Equal(t, 3, stats.Matched)
	assert.InDelta(t, 0.1, stats.MinDistance, 1e-6)
	assert.InDelta(t, 0.95, stats.MaxDistance, 1e-6)
	assert.InDelta(t, 0.4625, stats.AvgDistance, 1e-6)
	assert.Equal(t, Distribution{Excellent: 1, Good: 1, Fair: 1, Poor: 1}, stats.Distribution)
}

func TestFindMatches_TiesKeepEncounterOrder(t *testing.T) {
	query := oneHot(128, 0)
	first := candidate(oneHot(128, 0.2))
	second := candidate(oneHot(128, 0.2))
	best := candidate(oneHot(128, 0.1))

	result := FindMatches(query, []Candidate{first, second, best}, nil)

	require.Len(t, result.Matches, 3)
	assert.Equal(t, best.Photo.ID, result.Matches[0].Photo.ID)
	assert.Equal(t, first.Photo.ID, result.Matches[1].Photo.ID)
	assert.Equal(t, second.Photo.ID, result.Matches[2].Photo.ID)
}

func TestFindMatches_ThresholdInclusive(t *testing.T) {
	query := oneHot(128, 0)

	result := FindMatches(query, []Candidate{candidate(oneHot(128, 0.5))}, ptr(0.5))

	require.Len(t, result.Matches, 1)
	assert.Equal(t, 0.5, result.Matches[0].Distance)
}

func TestFindMatches_ExplicitZeroThreshold(t *testing.T) {
	query := oneHot(128, 0)
	exact := candidate(oneHot(128, 0))
	near := candidate(oneHot(128, 0.01))

	result := FindMatches(query, []Candidate{near, exact}, ptr(0))

	require.Len(t, result.Matches, 1)
	assert.Equal(t, exact.Photo.ID, result.Matches[0].Photo.ID)
	assert.Equal(t, 0.0, result.Matches[0].Distance)
	assert.Equal(t, 0.0, result.Stats.Threshold)
}

func TestFindMatches_ThresholdOverridesCosineDefault(t *testing.T) {
	query := make([]float32, 512)
	query[0] = 1
	orthogonal := make([]float32, 512)
	orthogonal[1] = 1

	withDefault := FindMatches(query, []Candidate{candidate(orthogonal)}, nil)
	assert.Empty(t, withDefault.Matches)

	widened := FindMatches(query, []Candidate{candidate(orthogonal)}, ptr(1.0))
	require.Len(t, widened.Matches, 1)
	assert.InDelta(t, 1.0, widened.Matches[0].Distance, 1e-12)
	assert.InDelta(t, 0, widened.Matches[0].Confidence, 1e-9)
}

func TestEngine_CustomDefaults(t *testing.T) {
	engine := NewEngine(0.3, 0.5)

	metric, threshold := engine.MetricFor(512)
	assert.Equal(t, MetricCosine, metric)
	assert.Equal(t, 0.3, threshold)

	metric, threshold = engine.MetricFor(128)
	assert.Equal(t, MetricEuclidean, metric)
	assert.Equal(t, 0.5, threshold)

	result := engine.FindMatches(oneHot(128, 0), []Candidate{candidate(oneHot(128, 0.7))}, nil)
	assert.Empty(t, result.Matches)
}

func TestFindMatches_DoesNotMutateCandidates(t *testing.T) {
	stored := oneHot(128, 0.2)
	c := candidate(stored)

	FindMatches(oneHot(128, 0), []Candidate{c}, nil)

	assert.Equal(t, oneHot(128, 0.2), c.Embeddings[0].Vector)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 100.0, Confidence(0))
	assert.Equal(t, 75.0, Confidence(0.25))
	assert.Equal(t, 0.0, Confidence(1))
	assert.Equal(t, 0.0, Confidence(1.5))
}
