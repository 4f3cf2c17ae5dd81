// Package query implements the best-first graph search that answers k-NN
// queries against a built index (spec.md §4.4): forest-routed seeding, a
// min-heap candidate frontier, a bounded result heap, and a visited bitset
// to prevent re-expansion. The frontier is a container/heap.Interface over
// this package's own frontierNode, trimmed to the ascending-only shape
// Search actually needs (the teacher's queue.PriorityQueue also carried a
// descending mode and a Top method this search never calls); the visited
// set is github.com/bits-and-blooms/bitset, the same library the teacher's
// older hnsw package used for the identical purpose.
package query

import (
	"container/heap"

	"github.com/bits-and-blooms/bitset"

	internalheap "github.com/hupe1980/nndescent/heaplist"
	"github.com/hupe1980/nndescent/internal/rng"
	"github.com/hupe1980/nndescent/matrix"
	"github.com/hupe1980/nndescent/metric"
	"github.com/hupe1980/nndescent/rptree"
)

// frontierNode is one pending expansion candidate: a graph node not yet
// visited, ordered ascending by distance to the query.
type frontierNode struct {
	node     uint32
	distance float32
}

// frontier is a min-heap of frontierNode over distance, the best-first
// search's expansion queue (spec.md §4.4).
type frontier []*frontierNode

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return f[i].distance < f[j].distance }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)         { *f = append(*f, x.(*frontierNode)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]

	return node
}

// Engine answers queries against a frozen (post-build) neighbor graph.
type Engine struct {
	points matrix.PointSet
	kernel *metric.Kernel
	graph  *internalheap.HeapList
	forest *rptree.Forest
	seed   uint64
}

// New returns an Engine over a built index. graph must already be
// corrected and heap-sorted (the state NND leaves it in after Refine).
func New(points matrix.PointSet, kernel *metric.Kernel, graph *internalheap.HeapList, forest *rptree.Forest, seed uint64) *Engine {
	return &Engine{points: points, kernel: kernel, graph: graph, forest: forest, seed: seed}
}

// Search returns the top-k neighbors of q, sorted ascending by corrected
// distance, using a result heap of searchSize entries; only nodes accepted
// into that heap are added to the frontier (spec.md §4.4).
func (e *Engine) Search(q []float32, k, searchSize int) ([]int32, []float32) {
	if searchSize < k {
		searchSize = k
	}

	n := e.points.Len()
	visited := bitset.New(uint(n))
	result := internalheap.New(1, searchSize)

	front := &frontier{}
	heap.Init(front)

	seeds := e.forest.Route(q)
	if len(seeds) == 0 {
		seeds = e.randomSeeds(searchSize)
	}

	for _, s := range seeds {
		if visited.Test(uint(s)) {
			continue
		}
		visited.Set(uint(s))

		d := e.points.DistTo(e.kernel, int(s), q)
		result.CheckedPush(0, s, d, 0)
		heap.Push(front, &frontierNode{node: uint32(s), distance: d})
	}

	for front.Len() > 0 {
		c := heap.Pop(front).(*frontierNode)
		if c.distance > result.Max(0) {
			break
		}

		for _, nb := range e.graph.Indices(int(c.node)) {
			if nb == internalheap.None {
				continue
			}
			if visited.Test(uint(nb)) {
				continue
			}
			visited.Set(uint(nb))

			d := e.points.DistTo(e.kernel, int(nb), q)
			if result.CheckedPush(0, nb, d, 0) {
				heap.Push(front, &frontierNode{node: uint32(nb), distance: d})
			}
		}
	}

	result.ApplyCorrection(e.kernel.Correct)
	result.HeapSort()

	ids := make([]int32, 0, k)
	dists := make([]float32, 0, k)
	for c, idx := range result.Indices(0) {
		if idx == internalheap.None {
			continue
		}
		ids = append(ids, idx)
		dists = append(dists, result.Keys(0)[c])
		if len(ids) == k {
			break
		}
	}

	return ids, dists
}

// randomSeeds is the degenerate-input fallback (spec.md §4.4 "Failure
// modes"): the forest returned no seeds, so pad with uniformly random ids.
func (e *Engine) randomSeeds(count int) []int32 {
	n := e.points.Len()
	if count > n {
		count = n
	}

	stream := rng.New(e.seed, 0, 0, rng.PurposeQuerySeed)
	seen := make(map[int32]struct{}, count)
	out := make([]int32, 0, count)
	for len(out) < count {
		id := int32(stream.IntN(n))
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
