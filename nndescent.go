// Package nndescent builds approximate k-nearest-neighbor graphs with
// Nearest-Neighbor Descent, seeded by a randomized projection forest, and
// answers approximate k-NN queries against the resulting graph.
package nndescent

import (
	"context"
	"time"

	"github.com/hupe1980/nndescent/descent"
	"github.com/hupe1980/nndescent/heaplist"
	"github.com/hupe1980/nndescent/internal/parallel"
	"github.com/hupe1980/nndescent/matrix"
	"github.com/hupe1980/nndescent/metric"
	"github.com/hupe1980/nndescent/query"
	"github.com/hupe1980/nndescent/rptree"
)

// Index is a built k-NN graph over a fixed point set: a forest for
// query-time routing plus the refined neighbor heaps, both frozen after
// Build (spec.md §3).
type Index struct {
	points matrix.PointSet
	kernel *metric.Kernel
	graph  *heaplist.HeapList
	forest *rptree.Forest
	dim    int
	k      int
	seed   uint64

	pool    *parallel.Pool
	logger  *Logger
	metrics MetricsCollector

	stats descent.Stats
}

// build resolves and validates a Builder's configuration, constructs the
// projection forest, seeds the graph, and runs NN-Descent to convergence.
func build(ctx context.Context, b Builder) (*Index, error) {
	o := applyOptions(b.optFns)

	n := b.points.Len()
	if n == 0 || b.dim == 0 {
		return nil, ErrInvalidInput
	}
	if b.k <= 0 || b.k >= n {
		return nil, ErrInvalidK
	}

	kernel, err := metric.NewRegistry().Lookup(b.metricName, b.metricParams, b.dim)
	if err != nil {
		return nil, translateError(err)
	}

	start := time.Now()
	o.logger.WithN(n).WithK(b.k).LogBuildStart(ctx, n, b.dim, b.metricName)

	pool := parallel.NewPool(o.workers)

	forestCfg := rptree.Config{NumTrees: b.numTrees, LeafSize: b.leafSize, Seed: b.seed}
	forestStart := time.Now()
	forest := rptree.BuildParallel(b.points, forestCfg, pool)
	o.logger.LogForestBuilt(ctx, b.numTrees, time.Since(forestStart))

	graph := heaplist.New(n, b.k)
	forest.Seed(kernel, graph)

	descentCfg := descent.Config{
		MaxCandidates: b.maxCandidates,
		MaxIters:      b.maxIters,
		Delta:         b.delta,
		Seed:          b.seed,
		LowMemory:     b.lowMemory,
	}

	stats, err := descent.Refine(ctx, b.points, kernel, graph, descentCfg, pool, o.logger)
	if err != nil {
		o.metricsCollector.ObserveBuild(n, b.dim, time.Since(start), stats.Iterations, err)
		o.logger.LogBuildDone(ctx, stats.Iterations, time.Since(start), err)

		if err == context.Canceled || err == context.DeadlineExceeded {
			if o.cancellationReturnsPartial {
				// Fall through: graph is still a valid, if unrefined, max-heap
				// per Refine's contract, so return an Index over it.
			} else {
				return nil, ErrCancelled
			}
		} else {
			return nil, err
		}
	}

	o.metricsCollector.ObserveBuild(n, b.dim, time.Since(start), stats.Iterations, nil)
	o.logger.LogBuildDone(ctx, stats.Iterations, time.Since(start), nil)

	return &Index{
		points:  b.points,
		kernel:  kernel,
		graph:   graph,
		forest:  forest,
		dim:     b.dim,
		k:       b.k,
		seed:    b.seed,
		pool:    pool,
		logger:  o.logger,
		metrics: o.metricsCollector,
		stats:   stats,
	}, nil
}

// Stats returns the Refine loop's iteration/convergence summary for the
// most recent build.
func (idx *Index) Stats() descent.Stats { return idx.stats }

// Query returns the k approximate nearest neighbors of q, sorted ascending
// by distance. searchSize controls the frontier's breadth (spec.md §4.4);
// it is clamped up to k if smaller.
func (idx *Index) Query(q []float32, k, searchSize int) ([]int32, []float32, error) {
	if len(q) != idx.dim {
		err := &ErrDimensionMismatch{Expected: idx.dim, Actual: len(q)}
		idx.logger.LogQuery(context.Background(), k, 0, err)
		idx.metrics.ObserveQuery(k, 0, 0, err)

		return nil, nil, err
	}
	if k <= 0 {
		err := ErrInvalidK
		idx.logger.LogQuery(context.Background(), k, 0, err)
		idx.metrics.ObserveQuery(k, 0, 0, err)

		return nil, nil, err
	}

	start := time.Now()
	engine := query.New(idx.points, idx.kernel, idx.graph, idx.forest, idx.seed)
	ids, dists := engine.Search(q, k, searchSize)

	idx.logger.LogQuery(context.Background(), k, len(ids), nil)
	idx.metrics.ObserveQuery(k, time.Since(start), len(ids), nil)

	return ids, dists, nil
}

// QueryBatch runs Query over every row of queries concurrently, using the
// Index's worker pool (spec.md §5, "batch queries are one of the parallel
// phases").
func (idx *Index) QueryBatch(ctx context.Context, queries [][]float32, k, searchSize int) ([][]int32, [][]float32, error) {
	n := len(queries)
	ids := make([][]int32, n)
	dists := make([][]float32, n)
	errs := make([]error, n)

	err := idx.pool.ForEachIndex(ctx, n, func(i int) {
		ids[i], dists[i], errs[i] = idx.Query(queries[i], k, searchSize)
	})
	if err != nil {
		return nil, nil, err
	}

	for _, e := range errs {
		if e != nil {
			return nil, nil, e
		}
	}

	return ids, dists, nil
}

// BruteForce computes exact k-nearest-neighbors for every point in points
// against itself, for testing and recall measurement against an Index
// built over the same points (SPEC_FULL.md's supplemented debug helper).
func BruteForce(points matrix.PointSet, kernel *metric.Kernel, k int) ([][]int32, [][]float32) {
	n := points.Len()
	ids := make([][]int32, n)
	dists := make([][]float32, n)

	for i := 0; i < n; i++ {
		type cand struct {
			idx int32
			d   float32
		}

		cands := make([]cand, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			cands = append(cands, cand{idx: int32(j), d: points.Dist(kernel, i, j)})
		}

		for a := 1; a < len(cands); a++ {
			v := cands[a]
			b := a - 1
			for b >= 0 && cands[b].d > v.d {
				cands[b+1] = cands[b]
				b--
			}
			cands[b+1] = v
		}

		limit := k
		if limit > len(cands) {
			limit = len(cands)
		}

		rowIDs := make([]int32, limit)
		rowDists := make([]float32, limit)
		for c := 0; c < limit; c++ {
			rowIDs[c] = cands[c].idx
			rowDists[c] = kernel.Correct(cands[c].d)
		}

		ids[i] = rowIDs
		dists[i] = rowDists
	}

	return ids, dists
}
