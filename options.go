package nndescent

import "log/slog"

// options carries the cross-cutting concerns configured via Option,
// separate from the algorithm parameters carried by Builder itself
// (spec.md's split between "what the index is" and "how it behaves
// operationally").
type options struct {
	logger                       *Logger
	metricsCollector             MetricsCollector
	workers                      int
	cancellationReturnsPartial   bool
}

// Option configures cross-cutting Builder.Build behavior.
type Option func(*options)

// WithLogger configures structured logging for Build/Search operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel is a convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for build/query
// observability. Pass nil to disable.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithWorkers sets the worker pool size used for forest construction,
// NN-Descent refinement, and batch queries. Zero or negative means
// runtime.GOMAXPROCS(0) (spec.md §5, "pool of worker threads sized to
// hardware concurrency").
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithCancellationReturnsPartial makes Build return the graph's current,
// still-valid state (instead of ErrCancelled) when ctx is cancelled at an
// inter-phase barrier (spec.md §5, Cancellation; spec.md §7, Cancelled).
func WithCancellationReturnsPartial(enabled bool) Option {
	return func(o *options) {
		o.cancellationReturnsPartial = enabled
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
