// Package nndescent builds approximate k-nearest-neighbor graphs over a
// fixed point set using Nearest-Neighbor Descent (NND), seeded by a
// randomized projection forest, and answers approximate k-NN queries
// against the resulting graph.
//
// # Quick Start
//
//	ctx := context.Background()
//	points := matrix.NewMatrix(data, n, dim)
//
//	idx, err := nndescent.New(points, dim).
//	    Metric("cosine").
//	    K(20).
//	    Build(ctx)
//
//	ids, dists, err := idx.Query(query, 10, 30)
//
// # Build Model
//
// Build runs in phases: a randomized projection forest seeds an initial
// candidate graph, then NN-Descent's local-join loop refines it round by
// round until the update count drops below Delta*K*N or MaxIters is
// reached. The forest is retained after Build to route query-time seeds
// without falling back to random sampling.
//
// # Metrics
//
// Metric selects a distance kernel from the registry (euclidean, cosine,
// manhattan, jaccard, hellinger, and others — see the metric package).
// Some metrics have a cheaper "alternative" form used internally during
// the build's hot loop, with a correction function mapping results back to
// true distances before they're returned to callers.
//
// # Concurrency
//
// Build and QueryBatch use a worker pool sized to WithWorkers (default
// runtime.GOMAXPROCS(0)). LowMemory trades the default per-row
// lock-striped graph updates for staged per-worker buffers drained at a
// barrier, at the cost of peak memory during each round.
package nndescent
