package query

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nndescent/descent"
	"github.com/hupe1980/nndescent/heaplist"
	"github.com/hupe1980/nndescent/internal/parallel"
	"github.com/hupe1980/nndescent/matrix"
	"github.com/hupe1980/nndescent/metric"
	"github.com/hupe1980/nndescent/rptree"
)

func buildIndex(t *testing.T, n, dim, k int, seed int64) (*matrix.Matrix, *metric.Kernel, *heaplist.HeapList, *rptree.Forest) {
	t.Helper()

	r := rand.New(rand.NewSource(seed))
	rows := make([][]float32, n)
	for i := range rows {
		row := make([]float32, dim)
		for d := range row {
			row[d] = float32(r.NormFloat64())
		}
		rows[i] = row
	}
	points := matrix.NewMatrixFromRows(rows, dim)

	reg := metric.NewRegistry()
	kernel, err := reg.Lookup("euclidean", metric.Params{}, dim)
	require.NoError(t, err)

	forest := rptree.Build(points, rptree.Config{NumTrees: 6, LeafSize: max(10, k), Seed: uint64(seed)})
	graph := heaplist.New(n, k)
	forest.Seed(kernel, graph)

	pool := parallel.NewPool(4)
	_, err = descent.Refine(context.Background(), points, kernel, graph, descent.Config{
		MaxCandidates: 30,
		MaxIters:      10,
		Delta:         0.001,
		Seed:          uint64(seed),
	}, pool, nil)
	require.NoError(t, err)

	return points, kernel, graph, forest
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func TestSearchSelfQueryReturnsSelfAtZeroDistance(t *testing.T) {
	points, kernel, graph, forest := buildIndex(t, 500, 16, 15, 42)
	engine := New(points, kernel, graph, forest, 42)

	for i := 0; i < 50; i++ {
		q := points.Row(i)
		ids, dists := engine.Search(q, 15, 30)

		require.NotEmpty(t, ids)
		assert.Equal(t, int32(i), ids[0], "nearest neighbor of point %d should be itself", i)
		assert.InDelta(t, 0, dists[0], 1e-4)
	}
}

func TestSearchReturnsKResultsSortedAscending(t *testing.T) {
	points, kernel, graph, forest := buildIndex(t, 300, 10, 10, 7)
	engine := New(points, kernel, graph, forest, 7)

	q := points.Row(0)
	ids, dists := engine.Search(q, 10, 25)

	assert.LessOrEqual(t, len(ids), 10)
	for i := 1; i < len(dists); i++ {
		assert.LessOrEqual(t, dists[i-1], dists[i])
	}

	seen := map[int32]bool{}
	for _, id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestSearchPadsWithRandomSeedsWhenForestEmpty(t *testing.T) {
	points, kernel, graph, _ := buildIndex(t, 100, 5, 8, 3)
	emptyForest := rptree.Build(points, rptree.Config{NumTrees: 0, LeafSize: 10, Seed: 3})
	engine := New(points, kernel, graph, emptyForest, 3)

	ids, _ := engine.Search(points.Row(0), 8, 20)
	assert.NotEmpty(t, ids)
}
