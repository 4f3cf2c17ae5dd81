// Package descent implements the NN-Descent local-join refinement loop
// (spec.md §4.3): new/old candidate sampling, reverse-neighbor
// incorporation, the local join itself, flag retirement, and the
// convergence test. Parallelized per spec.md §5 with a low-memory switch
// between per-row striped locks and staged per-worker update buffers,
// grounded on the other_examples NNDescent reference's new/old split and
// sampling shape, reworked around this module's HeapList/PointSet/metric
// types and a real mutex-striping / staged-buffer concurrency model (the
// reference ran its local join single-threaded per point with no shared
// writes across rows, which this spec's shared-graph model rules out).
package descent

import (
	"context"

	"github.com/hupe1980/nndescent/heaplist"
	"github.com/hupe1980/nndescent/internal/parallel"
	"github.com/hupe1980/nndescent/internal/rng"
	"github.com/hupe1980/nndescent/matrix"
	"github.com/hupe1980/nndescent/metric"
)

// numStripes is the lock-striping width for the non-low-memory update
// strategy: large relative to any realistic worker count to avoid false
// sharing between unrelated rows (spec.md §5).
const numStripes = 256

// Config controls the refinement loop. Callers populate this from the
// resolved, validated builder options.
type Config struct {
	MaxCandidates int
	MaxIters      int
	Delta         float32
	Seed          uint64
	LowMemory     bool
}

// Stats reports what happened during Refine, for logging.
type Stats struct {
	Iterations int
	Converged  bool
	LastRoundUpdates int
}

// ProgressLogger receives one throttled notification per completed round.
// Refine accepts this as a narrow interface (rather than importing the root
// package's *Logger directly) to avoid an import cycle; the root package's
// *Logger already satisfies it structurally.
type ProgressLogger interface {
	LogIterationProgress(ctx context.Context, iter, updates int, converged bool)
}

// update is one pending heap mutation: push idx into row.
type update struct {
	row int32
	idx int32
	key float32
}

// Refine iterates local-join rounds over heap, seeded beforehand (by
// rptree.Seed or otherwise), until convergence or cfg.MaxIters rounds. It
// returns after each inter-phase barrier if ctx is cancelled, leaving heap
// in its last fully-applied (still valid max-heap) state (spec.md §5,
// Cancellation).
func Refine(ctx context.Context, points matrix.PointSet, kernel *metric.Kernel, heap *heaplist.HeapList, cfg Config, pool *parallel.Pool, logger ProgressLogger) (Stats, error) {
	n := heap.Rows()
	k := heap.K()

	newCand := make([][]int32, n)
	oldCand := make([][]int32, n)
	revNew := make([][]int32, n)
	revOld := make([][]int32, n)

	stripes := make([]chan struct{}, numStripes)
	for i := range stripes {
		stripes[i] = make(chan struct{}, 1)
		stripes[i] <- struct{}{}
	}
	lock := func(row int32) {
		<-stripes[int(row)%numStripes]
	}
	unlock := func(row int32) {
		stripes[int(row)%numStripes] <- struct{}{}
	}

	var stats Stats

	for iter := 0; iter < cfg.MaxIters; iter++ {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		// Step 1: split current neighbors into new/old, subsample new.
		err := pool.ForEachIndex(ctx, n, func(i int) {
			splitAndSample(heap, i, iter, cfg, &newCand[i], &oldCand[i])
		})
		if err != nil {
			return stats, err
		}

		// Step 2: reverse-neighbor transpose, then subsample + union.
		for i := range revNew {
			revNew[i] = revNew[i][:0]
			revOld[i] = revOld[i][:0]
		}
		for i := 0; i < n; i++ {
			for _, j := range newCand[i] {
				revNew[j] = append(revNew[j], int32(i))
			}
			for _, j := range oldCand[i] {
				revOld[j] = append(revOld[j], int32(i))
			}
		}
		err = pool.ForEachIndex(ctx, n, func(i int) {
			stream := rng.New(cfg.Seed, i, iter, rng.PurposeSampleReverse)
			sampled := reservoirSample(revNew[i], cfg.MaxCandidates, stream)
			newCand[i] = unionDedup(newCand[i], sampled)

			sampledOld := reservoirSample(revOld[i], cfg.MaxCandidates, stream)
			oldCand[i] = unionDedup(oldCand[i], sampledOld)
		})
		if err != nil {
			return stats, err
		}

		// Step 3+4: retire flags, then run the local join writing fresh
		// pushes with flag=1.
		heap.RetireFlags()

		var updates int
		if cfg.LowMemory {
			updates, err = localJoinStaged(ctx, points, kernel, heap, newCand, oldCand, pool)
		} else {
			updates, err = localJoinStriped(ctx, points, kernel, heap, newCand, oldCand, pool, lock, unlock)
		}
		if err != nil {
			return stats, err
		}

		stats.Iterations = iter + 1
		stats.LastRoundUpdates = updates

		// Step 5: convergence test.
		converged := float32(updates) < cfg.Delta*float32(k)*float32(n)
		if logger != nil {
			logger.LogIterationProgress(ctx, iter, updates, converged)
		}
		if converged {
			stats.Converged = true
			break
		}
	}

	applyCorrection(heap, kernel)
	heap.HeapSort()

	return stats, nil
}

func splitAndSample(heap *heaplist.HeapList, i, iter int, cfg Config, newOut, oldOut *[]int32) {
	idxs := heap.Indices(i)
	flags := heap.Flags(i)

	var freshNew []int32
	var old []int32
	for c, idx := range idxs {
		if idx == heaplist.None {
			continue
		}
		if flags[c] == 1 {
			freshNew = append(freshNew, idx)
		} else {
			old = append(old, idx)
		}
	}

	stream := rng.New(cfg.Seed, i, iter, rng.PurposeSample)
	*newOut = reservoirSample(freshNew, cfg.MaxCandidates, stream)
	*oldOut = old
}

// reservoirSample returns a uniform sample of at most limit items from
// candidates, preserving all of them when len(candidates) <= limit.
// Deterministic given stream (spec.md §9, "counter-based RNG").
func reservoirSample(candidates []int32, limit int, stream *rng.Stream) []int32 {
	if limit <= 0 || len(candidates) <= limit {
		out := make([]int32, len(candidates))
		copy(out, candidates)
		return out
	}

	reservoir := make([]int32, limit)
	copy(reservoir, candidates[:limit])

	for t := limit; t < len(candidates); t++ {
		r := stream.IntN(t + 1)
		if r < limit {
			reservoir[r] = candidates[t]
		}
	}

	return reservoir
}

func unionDedup(a, b []int32) []int32 {
	if len(b) == 0 {
		return a
	}

	seen := make(map[int32]struct{}, len(a)+len(b))
	out := make([]int32, 0, len(a)+len(b))
	for _, v := range a {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}

	return out
}

func localJoinStriped(ctx context.Context, points matrix.PointSet, kernel *metric.Kernel, heap *heaplist.HeapList, newCand, oldCand [][]int32, pool *parallel.Pool, lock, unlock func(int32)) (int, error) {
	counts := make([]int, pool.Workers())

	err := pool.For(ctx, heap.Rows(), func(start, end, worker int) {
		for i := start; i < end; i++ {
			joinPairs(points, kernel, newCand[i], oldCand[i], func(p, q int32, d float32) {
				lock(p)
				if heap.CheckedPush(int(p), q, d, 1) {
					counts[worker]++
				}
				unlock(p)

				lock(q)
				if heap.CheckedPush(int(q), p, d, 1) {
					counts[worker]++
				}
				unlock(q)
			})
		}
	})

	total := 0
	for _, c := range counts {
		total += c
	}

	return total, err
}

// joinPairs iterates the local-join pairs for one point's candidate sets
// (spec.md §4.3 step 3: p in new, q in new ∪ old, p < q) and invokes push
// once per pair with the already-ordered (lo, hi) ids.
func joinPairs(points matrix.PointSet, kernel *metric.Kernel, newC, oldC []int32, push func(p, q int32, d float32)) {
	for _, p := range newC {
		for _, q := range newC {
			if p < q {
				d := points.Dist(kernel, int(p), int(q))
				push(p, q, d)
			}
		}
		for _, q := range oldC {
			if p == q {
				continue
			}
			lo, hi := p, q
			if lo > hi {
				lo, hi = hi, lo
			}
			d := points.Dist(kernel, int(lo), int(hi))
			push(lo, hi, d)
		}
	}
}

func localJoinStaged(ctx context.Context, points matrix.PointSet, kernel *metric.Kernel, heap *heaplist.HeapList, newCand, oldCand [][]int32, pool *parallel.Pool) (int, error) {
	n := heap.Rows()
	buffers := make([][]update, pool.Workers())

	err := pool.For(ctx, n, func(start, end, worker int) {
		var buf []update
		for i := start; i < end; i++ {
			joinPairs(points, kernel, newCand[i], oldCand[i], func(p, q int32, d float32) {
				buf = append(buf, update{row: p, idx: q, key: d})
				buf = append(buf, update{row: q, idx: p, key: d})
			})
		}
		buffers[worker] = buf
	})
	if err != nil {
		return 0, err
	}

	total := 0
	for _, buf := range buffers {
		for _, u := range buf {
			if heap.CheckedPush(int(u.row), u.idx, u.key, 1) {
				total++
			}
		}
	}

	return total, nil
}

// applyCorrection maps every key through the metric's correction function.
// Kernel.Correct is the identity when the metric has no alternative form,
// so this is always safe to call.
func applyCorrection(heap *heaplist.HeapList, kernel *metric.Kernel) {
	heap.ApplyCorrection(kernel.Correct)
}
