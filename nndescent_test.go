package nndescent

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nndescent/matrix"
	"github.com/hupe1980/nndescent/metric"
)

func gaussianPoints(n, dim int, seed int64) *matrix.Matrix {
	r := rand.New(rand.NewSource(seed))
	rows := make([][]float32, n)
	for i := range rows {
		row := make([]float32, dim)
		for d := range row {
			row[d] = float32(r.NormFloat64())
		}
		rows[i] = row
	}

	return matrix.NewMatrixFromRows(rows, dim)
}

func TestBuildSucceedsAndStatsReflectIterations(t *testing.T) {
	points := gaussianPoints(200, 8, 1)

	idx, err := New(points, 8).K(10).NumTrees(4).MaxIters(5).Seed(1).Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, idx)

	assert.Greater(t, idx.Stats().Iterations, 0)
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	points := gaussianPoints(0, 8, 1)

	_, err := New(points, 8).Build(context.Background())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildRejectsZeroDim(t *testing.T) {
	points := gaussianPoints(50, 8, 1)

	_, err := New(points, 0).Build(context.Background())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildRejectsInvalidK(t *testing.T) {
	points := gaussianPoints(50, 8, 1)

	_, err := New(points, 8).K(0).Build(context.Background())
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = New(points, 8).K(50).Build(context.Background())
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestQueryRejectsDimensionMismatch(t *testing.T) {
	points := gaussianPoints(100, 8, 2)
	idx, err := New(points, 8).K(10).NumTrees(4).MaxIters(5).Seed(2).Build(context.Background())
	require.NoError(t, err)

	_, _, err = idx.Query(make([]float32, 5), 10, 20)
	require.Error(t, err)

	var target *ErrDimensionMismatch
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 8, target.Expected)
	assert.Equal(t, 5, target.Actual)
}

func TestQueryRejectsInvalidK(t *testing.T) {
	points := gaussianPoints(100, 8, 2)
	idx, err := New(points, 8).K(10).NumTrees(4).MaxIters(5).Seed(2).Build(context.Background())
	require.NoError(t, err)

	_, _, err = idx.Query(points.Row(0), 0, 20)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestQueryBatchMatchesIndividualQueries(t *testing.T) {
	points := gaussianPoints(150, 6, 3)
	idx, err := New(points, 6).K(10).NumTrees(4).MaxIters(5).Seed(3).Build(context.Background())
	require.NoError(t, err)

	queries := [][]float32{points.Row(0), points.Row(1), points.Row(2)}

	batchIDs, batchDists, err := idx.QueryBatch(context.Background(), queries, 10, 20)
	require.NoError(t, err)
	require.Len(t, batchIDs, len(queries))

	for i, q := range queries {
		ids, dists, err := idx.Query(q, 10, 20)
		require.NoError(t, err)
		assert.Equal(t, ids, batchIDs[i])
		assert.Equal(t, dists, batchDists[i])
	}
}

func TestBruteForceReturnsSortedCorrectedDistances(t *testing.T) {
	points := gaussianPoints(60, 5, 4)

	kernel, err := metric.NewRegistry().Lookup("euclidean", metric.Params{}, 5)
	require.NoError(t, err)

	ids, dists := BruteForce(points, kernel, 5)
	require.Len(t, ids, points.Len())

	for i := 0; i < points.Len(); i++ {
		require.Len(t, dists[i], 5)
		for c := 1; c < len(dists[i]); c++ {
			assert.LessOrEqual(t, dists[i][c-1], dists[i][c])
		}

		for c, j := range ids[i] {
			want := kernel.Dense(points.Row(i), points.Row(int(j)))
			assert.InDelta(t, want, dists[i][c], 1e-3)
		}
	}
}

func TestBuildWithCancellationReturnsPartial(t *testing.T) {
	points := gaussianPoints(300, 8, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx, err := New(points, 8).K(10).NumTrees(4).MaxIters(10).Seed(5).
		Options(WithCancellationReturnsPartial(true)).
		Build(ctx)
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, 0, idx.Stats().Iterations)
}

func TestBuildWithoutPartialOptionReturnsErrCancelled(t *testing.T) {
	points := gaussianPoints(300, 8, 6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(points, 8).K(10).NumTrees(4).MaxIters(10).Seed(6).Build(ctx)
	assert.ErrorIs(t, err, ErrCancelled)
}
