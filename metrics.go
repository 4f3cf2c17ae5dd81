package nndescent

import (
	"sync/atomic"
	"time"
)

// MetricsCollector observes build and query operations. Implementations
// must be safe for concurrent use: QueryBatch calls it from its worker
// goroutines, not just the caller's.
type MetricsCollector interface {
	ObserveBuild(n, dim int, duration time.Duration, iterations int, err error)
	ObserveQuery(k int, duration time.Duration, found int, err error)
}

// NoopMetricsCollector discards every observation. It is the default.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) ObserveBuild(n, dim int, duration time.Duration, iterations int, err error) {
}
func (NoopMetricsCollector) ObserveQuery(k int, duration time.Duration, found int, err error) {}

// BasicMetricsCollector accumulates simple counters and latency totals.
// Exposed for callers who want cheap built-in observability without
// wiring a full metrics backend.
type BasicMetricsCollector struct {
	BuildCount    atomic.Int64
	BuildErrors   atomic.Int64
	BuildNanos    atomic.Int64
	QueryCount    atomic.Int64
	QueryErrors   atomic.Int64
	QueryNanos    atomic.Int64
}

func (c *BasicMetricsCollector) ObserveBuild(n, dim int, duration time.Duration, iterations int, err error) {
	c.BuildCount.Add(1)
	c.BuildNanos.Add(duration.Nanoseconds())
	if err != nil {
		c.BuildErrors.Add(1)
	}
}

func (c *BasicMetricsCollector) ObserveQuery(k int, duration time.Duration, found int, err error) {
	c.QueryCount.Add(1)
	c.QueryNanos.Add(duration.Nanoseconds())
	if err != nil {
		c.QueryErrors.Add(1)
	}
}

// Stats is a point-in-time snapshot of BasicMetricsCollector's counters.
type Stats struct {
	BuildCount   int64
	BuildErrors  int64
	BuildAvgNanos int64
	QueryCount   int64
	QueryErrors  int64
	QueryAvgNanos int64
}

// GetStats returns a consistent-enough snapshot for monitoring/logging; it
// is not a transactional read across all counters.
func (c *BasicMetricsCollector) GetStats() Stats {
	s := Stats{
		BuildCount:  c.BuildCount.Load(),
		BuildErrors: c.BuildErrors.Load(),
		QueryCount:  c.QueryCount.Load(),
		QueryErrors: c.QueryErrors.Load(),
	}
	if s.BuildCount > 0 {
		s.BuildAvgNanos = c.BuildNanos.Load() / s.BuildCount
	}
	if s.QueryCount > 0 {
		s.QueryAvgNanos = c.QueryNanos.Load() / s.QueryCount
	}

	return s
}
