// Package parallel implements the data-parallel fan-out used by rptree
// (tree builds), descent (sampling/reverse/local-join phases), and batch
// queries: a pool of worker goroutines sized to hardware concurrency,
// range-partitioning point ids (spec.md §5). Adapted from the teacher's
// channel-based WorkerPool, gated by a golang.org/x/sync/semaphore.Weighted
// the way the teacher's resource.Controller gates background work.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of in-flight goroutines used by a single fan-out
// call. The zero value is invalid; use NewPool.
type Pool struct {
	sem *semaphore.Weighted
	n   int
}

// NewPool creates a Pool with workers goroutines of concurrency. workers<=0
// defaults to runtime.GOMAXPROCS(0), mirroring the teacher's WorkerPool
// auto-sizing.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Pool{sem: semaphore.NewWeighted(int64(workers)), n: workers}
}

// Workers returns the configured concurrency.
func (p *Pool) Workers() int { return p.n }

// For partitions [0, n) into contiguous ranges, one per worker, and invokes
// fn(start, end, workerID) for each range concurrently. It blocks until every
// range has run or ctx is cancelled, in which case it returns ctx.Err()
// after in-flight ranges complete (NND checks cancellation at phase barriers,
// never mid-range, per spec.md §5).
func (p *Pool) For(ctx context.Context, n int, fn func(start, end, workerID int)) error {
	if n <= 0 {
		return nil
	}

	workers := p.n
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers

	errCh := make(chan error, workers)
	started := 0

	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}

		if err := p.sem.Acquire(ctx, 1); err != nil {
			errCh <- err
			started++
			continue
		}

		started++
		go func(start, end, workerID int) {
			defer p.sem.Release(1)
			fn(start, end, workerID)
			errCh <- nil
		}(start, end, w)
	}

	var firstErr error
	for i := 0; i < started; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// ForEachIndex is a convenience wrapper over For that calls fn(i) once per
// index in [0, n), still partitioned into worker-sized ranges.
func (p *Pool) ForEachIndex(ctx context.Context, n int, fn func(i int)) error {
	return p.For(ctx, n, func(start, end, _ int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
