package nndescent

import (
	"context"
	"math"

	"github.com/hupe1980/nndescent/matrix"
	"github.com/hupe1980/nndescent/metric"
)

// Builder configures and constructs an Index via an immutable fluent chain:
// every chained method returns a new Builder value with one field changed,
// the same pattern the teacher uses for its HNSW/Flat builders.
//
// Example:
//
//	idx, err := nndescent.New(points, dim).
//	    Metric("cosine").
//	    K(20).
//	    NumTrees(8).
//	    Build(ctx)
type Builder struct {
	points matrix.PointSet
	dim    int

	metricName   string
	metricParams metric.Params

	k             int
	numTrees      int
	leafSize      int
	maxCandidates int
	maxIters      int
	delta         float32
	seed          uint64
	lowMemory     bool

	optFns []Option
}

// New starts a Builder over points (dim columns, dense or sparse). Defaults
// follow spec.md §6: K=30, n_trees=5+N^0.25, leaf_size=max(10,K),
// max_candidates=min(60,K), n_iters=10, delta=0.001, metric=euclidean.
// leaf_size and max_candidates are computed here from the default K; a
// later call to K does not recompute them.
func New(points matrix.PointSet, dim int) Builder {
	n := points.Len()
	k := 30
	if k >= n {
		k = n - 1
	}
	if k < 1 {
		k = 1
	}

	return Builder{
		points:        points,
		dim:           dim,
		metricName:    "euclidean",
		k:             k,
		numTrees:      defaultNumTrees(n),
		leafSize:      maxInt(10, k),
		maxCandidates: minInt(60, k),
		maxIters:      10,
		delta:         0.001,
		seed:          0,
	}
}

func defaultNumTrees(n int) int {
	return 5 + int(math.Floor(math.Pow(float64(n), 0.25)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Metric selects the distance function by registry name. params is
// optional and only meaningful for parameterized metrics (minkowski,
// standardised_euclidean).
func (b Builder) Metric(name string, params ...metric.Params) Builder {
	b.metricName = name
	if len(params) > 0 {
		b.metricParams = params[0]
	}

	return b
}

// K sets the target neighbor count.
func (b Builder) K(k int) Builder {
	b.k = k
	return b
}

// NumTrees sets the projection forest size.
func (b Builder) NumTrees(n int) Builder {
	b.numTrees = n
	return b
}

// LeafSize sets the forest's leaf bucket size.
func (b Builder) LeafSize(n int) Builder {
	b.leafSize = n
	return b
}

// MaxCandidates sets the per-round new/old reservoir-sampling cap.
func (b Builder) MaxCandidates(n int) Builder {
	b.maxCandidates = n
	return b
}

// MaxIters sets the maximum number of NN-Descent rounds.
func (b Builder) MaxIters(n int) Builder {
	b.maxIters = n
	return b
}

// Delta sets the convergence threshold (fraction of K*N updates per round).
func (b Builder) Delta(d float32) Builder {
	b.delta = d
	return b
}

// Seed sets the build's deterministic random seed.
func (b Builder) Seed(seed uint64) Builder {
	b.seed = seed
	return b
}

// LowMemory toggles the staged-write update strategy in place of per-row
// striped locks (spec.md §5).
func (b Builder) LowMemory(enabled bool) Builder {
	b.lowMemory = enabled
	return b
}

// Options appends cross-cutting Option values (logger, metrics, workers,
// cancellation policy) applied at Build time.
func (b Builder) Options(optFns ...Option) Builder {
	b.optFns = append(append([]Option{}, b.optFns...), optFns...)
	return b
}

// Build validates the configuration, constructs the projection forest,
// seeds the neighbor graph, and runs NN-Descent refinement to convergence
// or MaxIters, whichever comes first.
func (b Builder) Build(ctx context.Context) (*Index, error) {
	return build(ctx, b)
}

// MustBuild panics on error. Convenience wrapper around Build for callers
// who've already validated their own inputs (tests, examples).
func (b Builder) MustBuild(ctx context.Context) *Index {
	idx, err := b.Build(ctx)
	if err != nil {
		panic(err)
	}

	return idx
}
