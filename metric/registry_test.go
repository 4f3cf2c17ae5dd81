package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	v0 = []float32{9, 5, 6, 7, 3, 2, 1, 0, 8, -4}
	v1 = []float32{6, 8, -2, 3, 6, 5, 4, -9, 1, 0}
	v2 = []float32{-1, 3, 5, 1, 0, 0, -7, 6, 5, 0}
)

func TestEuclideanAndSquaredEuclidean(t *testing.T) {
	r := NewRegistry()

	sq, err := r.Lookup("sqeuclidean", Params{}, len(v0))
	require.NoError(t, err)
	assert.InDelta(t, float32(271), sq.Dense(v0, v1), 1e-3)

	eu, err := r.Lookup("euclidean", Params{}, len(v0))
	require.NoError(t, err)
	assert.InDelta(t, 16.4621, eu.Dense(v0, v1), 1e-3)

	// alternative/correction pair
	assert.InDelta(t, eu.Dense(v0, v1), eu.Correct(eu.Dist(v0, v1)), 1e-3)
}

func TestCosine(t *testing.T) {
	r := NewRegistry()
	k, err := r.Lookup("cosine", Params{}, len(v0))
	require.NoError(t, err)

	assert.InDelta(t, 0.6275, k.Dense(v0, v2), 1e-3)
	assert.InDelta(t, k.Dense(v0, v2), k.Correct(k.Dist(v0, v2)), 1e-3)
}

func TestHamming(t *testing.T) {
	r := NewRegistry()
	k, err := r.Lookup("hamming", Params{}, len(v0))
	require.NoError(t, err)

	assert.Equal(t, float32(1), k.Dense(v0, v1))
}

func TestJaccard(t *testing.T) {
	r := NewRegistry()
	k, err := r.Lookup("jaccard", Params{}, len(v0))
	require.NoError(t, err)

	assert.InDelta(t, 0.2, k.Dense(v0, v1), 1e-6)
	assert.InDelta(t, k.Dense(v0, v1), k.Correct(k.Dist(v0, v1)), 1e-3)
}

func TestUnknownMetric(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("does-not-exist", Params{}, 3)
	require.Error(t, err)
	var target *ErrUnknownMetric
	require.ErrorAs(t, err, &target)
}

func TestSymmetryAndSelfDistance(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"euclidean", "sqeuclidean", "manhattan", "chebyshev", "cosine", "canberra", "braycurtis"} {
		k, err := r.Lookup(name, Params{}, len(v0))
		require.NoError(t, err)

		assert.InDelta(t, k.Dense(v0, v1), k.Dense(v1, v0), 1e-4, name)
	}

	sq, _ := r.Lookup("sqeuclidean", Params{}, len(v0))
	assert.Equal(t, float32(0), sq.Dense(v0, v0))
}

func TestMinkowskiDefaultsToEuclidean(t *testing.T) {
	r := NewRegistry()
	k, err := r.Lookup("minkowski", Params{}, len(v0))
	require.NoError(t, err)

	eu, _ := r.Lookup("euclidean", Params{}, len(v0))
	assert.InDelta(t, eu.Dense(v0, v1), k.Dense(v0, v1), 1e-3)
}

func TestStandardisedEuclideanRejectsWrongWeightLength(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("standardised_euclidean", Params{Weights: []float32{1, 2}}, 10)
	require.Error(t, err)
	var target *ErrInvalidParams
	require.ErrorAs(t, err, &target)
}

func TestSparseMatchesDenseOnFullySparseVectors(t *testing.T) {
	ai := []int32{0, 1, 2, 3}
	av := []float32{1, 2, 3, 4}
	bi := []int32{0, 1, 2, 3}
	bv := []float32{4, 3, 2, 1}

	da := []float32{1, 2, 3, 4}
	db := []float32{4, 3, 2, 1}

	assert.InDelta(t, sqeuclideanKernel(da, db), sparseSqeuclidean(ai, av, bi, bv), 1e-4)
	assert.InDelta(t, manhattanKernel(da, db), sparseManhattan(ai, av, bi, bv), 1e-4)
	assert.InDelta(t, jaccardKernel(da, db), sparseJaccard(ai, av, bi, bv), 1e-4)
	assert.InDelta(t, cosineKernel(da, db), sparseCosine(ai, av, bi, bv), 1e-4)
}

func TestAlternativeHellingerCorrection(t *testing.T) {
	a := []float32{0.2, 0.3, 0.5}
	b := []float32{0.1, 0.4, 0.5}

	r := NewRegistry()
	k, err := r.Lookup("hellinger", Params{}, 3)
	require.NoError(t, err)

	assert.InDelta(t, k.Dense(a, b), k.Correct(k.Dist(a, b)), 1e-3)
}

func TestLog2Sanity(t *testing.T) {
	assert.InDelta(t, 1.0, log2(2), 1e-9)
	assert.InDelta(t, math.Log2(8), float64(log2(8)), 1e-6)
}
