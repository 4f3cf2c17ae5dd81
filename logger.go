package nndescent

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// Logger wraps slog.Logger with nndescent-specific context, the same shape
// as the teacher's Logger: a thin embed plus domain-specific With*/Log*
// helpers instead of bare key-value pairs scattered through call sites.
type Logger struct {
	*slog.Logger

	// progress throttles per-iteration build logging so a large N/MaxIters
	// build doesn't emit once per round per worker.
	progress *rate.Limiter
}

// NewLogger creates a Logger with the given handler. A nil handler uses a
// text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return &Logger{Logger: slog.New(handler), progress: rate.NewLimiter(rate.Every(time.Second), 1)}
}

// NewJSONLogger creates a Logger that emits JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{
		Logger:   slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		progress: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// NewTextLogger creates a Logger that emits human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{
		Logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		progress: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// NoopLogger discards all log output. The default when no logger is
// configured.
func NoopLogger() *Logger {
	return &Logger{
		Logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)})),
		progress: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// WithN adds a point-count field to the logger.
func (l *Logger) WithN(n int) *Logger {
	return &Logger{Logger: l.Logger.With("n", n), progress: l.progress}
}

// WithK adds a neighbor-count field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k), progress: l.progress}
}

// LogBuildStart logs the start of an index build.
func (l *Logger) LogBuildStart(ctx context.Context, n, dim int, metricName string) {
	l.InfoContext(ctx, "build started", "n", n, "dim", dim, "metric", metricName)
}

// LogForestBuilt logs completion of the projection forest seeding phase.
func (l *Logger) LogForestBuilt(ctx context.Context, numTrees int, duration time.Duration) {
	l.DebugContext(ctx, "forest built", "num_trees", numTrees, "duration_ms", duration.Milliseconds())
}

// LogIterationProgress logs one NND round's update count, throttled so a
// long build doesn't spam stderr once per round.
func (l *Logger) LogIterationProgress(ctx context.Context, iter, updates int, converged bool) {
	if !l.progress.Allow() {
		return
	}

	l.DebugContext(ctx, "nn-descent round completed", "iteration", iter, "updates", updates, "converged", converged)
}

// LogBuildDone logs the end of an index build.
func (l *Logger) LogBuildDone(ctx context.Context, iterations int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed", "error", err, "duration_ms", duration.Milliseconds())
		return
	}

	l.InfoContext(ctx, "build completed", "iterations", iterations, "duration_ms", duration.Milliseconds())
}

// LogQuery logs a single Search call.
func (l *Logger) LogQuery(ctx context.Context, k, found int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed", "k", k, "error", err)
		return
	}

	l.DebugContext(ctx, "query completed", "k", k, "found", found)
}
