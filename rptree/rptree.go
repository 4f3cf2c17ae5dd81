// Package rptree builds the randomized projection forest used to seed the
// NN-Descent graph and to route queries to candidate entry points
// (spec.md §4.2). Grounded on the other_examples RP-tree reference
// (recursive pivot-pair hyperplane splits, degenerate-split shuffle
// fallback), reshaped around this module's PointSet/metric abstractions and
// a RoaringBitmap for cross-tree leaf-bucket dedup.
package rptree

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/nndescent/heaplist"
	"github.com/hupe1980/nndescent/internal/parallel"
	"github.com/hupe1980/nndescent/internal/rng"
	"github.com/hupe1980/nndescent/matrix"
	"github.com/hupe1980/nndescent/metric"
)

// node is one tree node: either a leaf holding point ids, or an internal
// node holding a dense hyperplane normal and offset.
type node struct {
	hyperplane []float32
	offset     float32
	left       *node
	right      *node

	indices []int32
	isLeaf  bool
}

// Tree is one randomized projection tree, immutable after Build.
type Tree struct {
	root *node
}

// Forest is the ensemble of trees retained for query-time routing
// (spec.md §3, "forest discarded after build unless queries need it").
type Forest struct {
	trees    []*Tree
	points   matrix.PointSet
	leafSize int
}

// Config controls forest construction.
type Config struct {
	NumTrees int
	LeafSize int
	Seed     uint64
}

// Build constructs NumTrees independent trees over points, each splitting
// buckets until they reach LeafSize (spec.md §4.2 steps 1-6).
func Build(points matrix.PointSet, cfg Config) *Forest {
	n := points.Len()
	trees := make([]*Tree, cfg.NumTrees)

	for t := 0; t < cfg.NumTrees; t++ {
		indices := make([]int32, n)
		for i := range indices {
			indices[i] = int32(i)
		}

		stream := rng.New(cfg.Seed, 0, t, rng.PurposeForestPivot)
		trees[t] = &Tree{root: buildNode(points, indices, cfg.LeafSize, stream)}
	}

	return &Forest{trees: trees, points: points, leafSize: cfg.LeafSize}
}

// BuildParallel is Build, but trees are constructed concurrently using pool
// (spec.md §5: RP-forest tree builds are one of the parallel phases).
func BuildParallel(points matrix.PointSet, cfg Config, pool *parallel.Pool) *Forest {
	n := points.Len()
	trees := make([]*Tree, cfg.NumTrees)

	pool.ForEachIndex(context.Background(), cfg.NumTrees, func(t int) { //nolint:errcheck // no cancellation in tree build
		indices := make([]int32, n)
		for i := range indices {
			indices[i] = int32(i)
		}

		stream := rng.New(cfg.Seed, 0, t, rng.PurposeForestPivot)
		trees[t] = &Tree{root: buildNode(points, indices, cfg.LeafSize, stream)}
	})

	return &Forest{trees: trees, points: points, leafSize: cfg.LeafSize}
}

func buildNode(points matrix.PointSet, indices []int32, leafSize int, stream *rng.Stream) *node {
	if len(indices) <= leafSize {
		leaf := make([]int32, len(indices))
		copy(leaf, indices)

		return &node{indices: leaf, isLeaf: true}
	}

	a := indices[stream.IntN(len(indices))]
	b := a
	for b == a {
		b = indices[stream.IntN(len(indices))]
	}

	pa := points.Dense(int(a))
	pb := points.Dense(int(b))
	dim := len(pa)

	hyperplane := make([]float32, dim)
	var midpointDot float32
	for d := 0; d < dim; d++ {
		hyperplane[d] = pa[d] - pb[d]
		midpointDot += (pa[d] + pb[d]) / 2 * hyperplane[d]
	}

	left := make([]int32, 0, len(indices)/2)
	right := make([]int32, 0, len(indices)/2)

	for _, idx := range indices {
		side := dot(points.Dense(int(idx)), hyperplane)
		switch {
		case side < midpointDot:
			left = append(left, idx)
		case side > midpointDot:
			right = append(right, idx)
		default:
			// Exact tie: break with a fair coin to avoid starving one side
			// on duplicate points (spec.md §4.2 step 5).
			if stream.Bool() {
				left = append(left, idx)
			} else {
				right = append(right, idx)
			}
		}
	}

	if len(left) == 0 || len(right) == 0 {
		perm := stream.Shuffle(len(indices))
		mid := len(indices) / 2
		left = left[:0]
		right = right[:0]
		for i, p := range perm {
			if i < mid {
				left = append(left, indices[p])
			} else {
				right = append(right, indices[p])
			}
		}
	}

	return &node{
		hyperplane: hyperplane,
		offset:     midpointDot,
		left:       buildNode(points, left, leafSize, stream),
		right:      buildNode(points, right, leafSize, stream),
	}
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}

	return s
}

// leaf descends the tree for a dense query vector and returns its bucket.
func (t *Tree) leaf(q []float32) []int32 {
	n := t.root
	for !n.isLeaf {
		if dot(q, n.hyperplane) < n.offset {
			n = n.left
		} else {
			n = n.right
		}
	}

	return n.indices
}

// Route descends every tree for q and returns the deduplicated union of
// leaf buckets (spec.md §4.2, "forest routing (query-time)").
func (f *Forest) Route(q []float32) []int32 {
	bm := roaring.New()
	for _, t := range f.trees {
		for _, idx := range t.leaf(q) {
			bm.Add(uint32(idx))
		}
	}

	out := make([]int32, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int32(it.Next()))
	}

	return out
}

// Seed pushes, for every leaf bucket of every tree, all-pairs candidate
// edges (i, j, d(i,j)) into heap row i (spec.md §4.2, "forest seeding").
// This runs once at build time over the already-constructed forest.
func (f *Forest) Seed(kernel *metric.Kernel, heap *heaplist.HeapList) {
	for _, t := range f.trees {
		seedFromNode(t.root, f.points, kernel, heap)
	}
}

func seedFromNode(n *node, points matrix.PointSet, kernel *metric.Kernel, heap *heaplist.HeapList) {
	if n.isLeaf {
		seedBucket(n.indices, points, kernel, heap)
		return
	}

	seedFromNode(n.left, points, kernel, heap)
	seedFromNode(n.right, points, kernel, heap)
}

func seedBucket(bucket []int32, points matrix.PointSet, kernel *metric.Kernel, heap *heaplist.HeapList) {
	for _, i := range bucket {
		for _, j := range bucket {
			if i == j {
				continue
			}

			d := points.Dist(kernel, int(i), int(j))
			heap.CheckedPush(int(i), j, d, 1)
		}
	}
}
