package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_Cosine(t *testing.T) {
	a := []float32{1, 0, 0}

	// Identical direction scores 1, orthogonal 0, opposite -1
	assert.InDelta(t, 1.0, score(MetricCosine, a, []float32{2, 0, 0}), 1e-9)
	assert.InDelta(t, 0.0, score(MetricCosine, a, []float32{0, 1, 0}), 1e-9)
	assert.InDelta(t, -1.0, score(MetricCosine, a, []float32{-1, 0, 0}), 1e-9)
}

func TestScore_CosineZeroVector(t *testing.T) {
	// Zero norm reads as maximally distant, not NaN
	s := score(MetricCosine, []float32{0, 0, 0}, []float32{1, 0, 0})
	assert.InDelta(t, 0.0, s, 1e-9)
}

func TestScore_Euclidean(t *testing.T) {
	a := []float32{0, 0}

	// Negated distance: closer vectors score higher
	near := score(MetricEuclidean, a, []float32{1, 0})
	far := score(MetricEuclidean, a, []float32{10, 0})
	assert.Greater(t, near, far)
	assert.InDelta(t, 0.0, score(MetricEuclidean, a, a), 1e-9)
}

func TestScore_Dot(t *testing.T) {
	assert.InDelta(t, 11.0, score(MetricDot, []float32{1, 2}, []float32{3, 4}), 1e-9)
	assert.InDelta(t, -3.0, score(MetricDot, []float32{1, -1}, []float32{-1, 2}), 1e-9)
}

func TestScore_HigherIsMoreSimilar(t *testing.T) {
	query := []float32{1, 1, 0}
	close := []float32{1, 0.9, 0}
	distant := []float32{-1, -1, 0}

	for _, metric := range []string{MetricCosine, MetricEuclidean, MetricDot} {
		assert.Greater(t, score(metric, query, close), score(metric, query, distant), metric)
	}
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "cv_768_climate_science", CollectionName("Climate Science", 768))
	assert.Equal(t, "cv_1536_vaccines", CollectionName("vaccines", 1536))
}
