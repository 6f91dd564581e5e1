package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeVectorRoundTrip(t *testing.T) {
	vec := []float32{0.1, 0.2, 0.3, 0.4}
	require.Equal(t, vec, DecodeVector(EncodeVector(vec)))
}

func TestUpsertVectorRejectsWrongDimension(t *testing.T) {
	idx := newTestIndex(t)
	mustInsert(t, idx, "dec-001", "decision")

	err := idx.UpsertVector("dec-001", []float32{0.1, 0.2})
	require.Error(t, err)
}

func TestUpsertVectorMissingEntryReturnsNotFound(t *testing.T) {
	idx := newTestIndex(t)
	err := idx.UpsertVector("dec-missing", []float32{1, 0, 0, 0})
	require.Error(t, err)
}

func TestHybridRanksExactVectorMatchFirst(t *testing.T) {
	idx := newTestIndex(t)
	mustInsert(t, idx, "dec-001", "decision")
	mustInsert(t, idx, "dec-002", "decision")

	require.NoError(t, idx.UpsertVector("dec-001", []float32{1, 0, 0, 0}))
	require.NoError(t, idx.UpsertVector("dec-002", []float32{0, 1, 0, 0}))

	opts := SearchOptions{Limit: 5, MinScore: 0.01, WeightFts: 0.3, WeightVector: 0.5, WeightRecency: 0.2, RrfK: 60}
	hits, err := idx.Hybrid("", []float32{1, 0, 0, 0}, opts)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "dec-001", hits[0].ID)
}

func TestHybridFtsMatchesContent(t *testing.T) {
	idx := newTestIndex(t)
	row := sampleRow("dec-001")
	row.Content = "the team decided to adopt sqlite for durable storage"
	require.NoError(t, idx.Insert(row))

	opts := SearchOptions{Limit: 5, MinScore: 0.01, WeightFts: 0.3, WeightVector: 0.5, WeightRecency: 0.2, RrfK: 60}
	hits, err := idx.Hybrid("sqlite", nil, opts)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "dec-001", hits[0].ID)
	require.True(t, hits[0].VectorOnly == false)
}

func TestHybridEmptyQueryVectorDegradesToFtsOnly(t *testing.T) {
	idx := newTestIndex(t)
	row := sampleRow("dec-001")
	row.Content = "notes about reciprocal rank fusion"
	require.NoError(t, idx.Insert(row))

	opts := SearchOptions{Limit: 5, MinScore: 0.01, WeightFts: 0.3, WeightVector: 0.5, WeightRecency: 0.2, RrfK: 60}
	hits, err := idx.Hybrid("fusion", nil, opts)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	v := []float32{0.3, 0.1, 0.2, 0.4}
	require.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-6)
}

func TestCosineSimilarityOrthogonalVectorsIsZero(t *testing.T) {
	require.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0, 0, 0}, []float32{0, 1, 0, 0}), 1e-6)
}
