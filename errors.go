package nndescent

import (
	"errors"
	"fmt"

	"github.com/hupe1980/nndescent/metric"
)

var (
	// ErrInvalidK is returned when K is not positive or K >= N.
	ErrInvalidK = errors.New("nndescent: k must be positive and less than n")

	// ErrInvalidInput covers N = 0, D = 0, or other structurally invalid
	// constructor inputs (spec.md §7).
	ErrInvalidInput = errors.New("nndescent: invalid input")

	// ErrCancelled is returned by Build when the caller's context is
	// cancelled and WithCancellationReturnsPartial was not set.
	ErrCancelled = errors.New("nndescent: build cancelled")
)

// ErrDimensionMismatch indicates a query vector's dimension doesn't match
// the index's configured dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("nndescent: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// translateError normalizes errors surfaced by the metric registry into
// this package's own error types, the way the teacher's translateError
// unifies its engine/index error families at the package boundary.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var um *metric.ErrUnknownMetric
	if errors.As(err, &um) {
		return fmt.Errorf("nndescent: %w", err)
	}

	var ip *metric.ErrInvalidParams
	if errors.As(err, &ip) {
		return fmt.Errorf("nndescent: %w", err)
	}

	return err
}
