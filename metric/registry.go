// Package metric is the distance-function registry: a name maps to a dense
// kernel, an optional sparse kernel, an optional cheaper alternative kernel,
// and the correction function that maps the alternative key space back onto
// true distances. Exact numeric semantics follow original_source/distances.h;
// see DESIGN.md for the log2-based alternative family used for the
// similarity-style metrics (cosine, dot, jaccard, hellinger).
package metric

import (
	"fmt"
	"math"
)

func pow(base, exp float64) float64 { return math.Pow(base, exp) }
func log2(v float32) float32        { return float32(math.Log2(float64(v))) }

// DenseFunc computes a distance between two equal-length dense vectors.
type DenseFunc func(a, b []float32) float32

// SparseFunc computes a distance between two sparse rows given as sorted
// (index, value) pairs.
type SparseFunc func(ai []int32, av []float32, bi []int32, bv []float32) float32

// CorrectionFunc maps an alternative-form key back to the true distance.
type CorrectionFunc func(alt float32) float32

// Params carries optional per-metric parameters (spec.md §6).
type Params struct {
	// P is the Minkowski exponent. Zero means "use the metric default".
	P float64

	// Weights holds per-coordinate variances (standardised_euclidean).
	// When non-empty, its length must equal the point dimension.
	Weights []float32
}

// Kernel is one registry entry: the canonical dense/sparse functions plus
// the optional alternative/correction pair.
type Kernel struct {
	Name string

	Dense  DenseFunc
	Sparse SparseFunc // nil if this metric has no dedicated sparse path

	AltDense  DenseFunc  // nil if this metric has no cheaper alternative
	AltSparse SparseFunc // nil if the alternative has no sparse path

	Correction CorrectionFunc // nil iff AltDense is nil
}

// HasAlternative reports whether this kernel has an alternative/correction
// pair, i.e. whether NND's hot loop can skip the canonical form.
func (k *Kernel) HasAlternative() bool {
	return k.AltDense != nil
}

// Dist returns the alternative-form distance when available, otherwise the
// canonical distance — this is what the NND hot loop should call.
func (k *Kernel) Dist(a, b []float32) float32 {
	if k.AltDense != nil {
		return k.AltDense(a, b)
	}

	return k.Dense(a, b)
}

// Correct maps a key produced by Dist back to the user-facing distance.
func (k *Kernel) Correct(key float32) float32 {
	if k.Correction != nil {
		return k.Correction(key)
	}

	return key
}

// Registry is a name -> Kernel lookup table. The zero value is empty; use
// NewRegistry for the built-in catalog.
type Registry struct {
	kernels map[string]*Kernel
}

// NewRegistry returns a Registry pre-populated with every metric named in
// spec.md §6 except the parameterized ones (minkowski,
// standardised_euclidean), which Lookup builds on demand and Names does not
// list.
func NewRegistry() *Registry {
	r := &Registry{kernels: make(map[string]*Kernel, 17)}

	r.register(&Kernel{
		Name:       "sqeuclidean",
		Dense:      sqeuclideanKernel,
		Sparse:     sparseSqeuclidean,
		Correction: nil,
	})
	r.register(&Kernel{
		Name:      "euclidean",
		Dense:     euclideanKernel,
		AltDense:  sqeuclideanKernel,
		AltSparse: sparseSqeuclidean,

		Correction: sqeuclideanCorrection,
	})
	r.register(&Kernel{Name: "manhattan", Dense: manhattanKernel, Sparse: sparseManhattan})
	r.register(&Kernel{Name: "chebyshev", Dense: chebyshevKernel})
	r.register(&Kernel{Name: "correlation", Dense: correlationKernel})
	r.register(&Kernel{Name: "hamming", Dense: hammingKernel, Sparse: sparseHamming})
	r.register(&Kernel{Name: "canberra", Dense: canberraKernel})
	r.register(&Kernel{Name: "braycurtis", Dense: braycurtisKernel})
	r.register(&Kernel{Name: "jensen_shannon", Dense: jensenShannonKernel})
	r.register(&Kernel{Name: "symmetric_kl", Dense: symmetricKLKernel})
	r.register(&Kernel{Name: "wasserstein_1d", Dense: wasserstein1DKernel})

	r.register(&Kernel{
		Name:       "cosine",
		Dense:      cosineKernel,
		Sparse:     sparseCosine,
		AltDense:   alternativeCosineKernel,
		Correction: correctAlternativeCosine,
	})
	r.register(&Kernel{
		Name:       "dot",
		Dense:      dotKernel,
		AltDense:   alternativeDotKernel,
		Correction: correctAlternativeDot,
	})
	r.register(&Kernel{
		Name:       "jaccard",
		Dense:      jaccardKernel,
		Sparse:     sparseJaccard,
		AltDense:   alternativeJaccardKernel,
		Correction: correctAlternativeJaccard,
	})
	r.register(&Kernel{
		Name:       "hellinger",
		Dense:      hellingerKernel,
		AltDense:   alternativeHellingerKernel,
		Correction: correctAlternativeHellinger,
	})

	return r
}

func (r *Registry) register(k *Kernel) { r.kernels[k.Name] = k }

// Names returns the registered metric names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.kernels))
	for name := range r.kernels {
		names = append(names, name)
	}

	return names
}

// ErrUnknownMetric is returned by Lookup/Build for an unregistered name.
type ErrUnknownMetric struct {
	Name string
}

func (e *ErrUnknownMetric) Error() string {
	return fmt.Sprintf("metric: unknown metric %q", e.Name)
}

// ErrInvalidParams is returned when metric_params don't fit the chosen
// metric (e.g. standardised_euclidean weight vector of the wrong length).
type ErrInvalidParams struct {
	Reason string
}

func (e *ErrInvalidParams) Error() string {
	return fmt.Sprintf("metric: invalid params: %s", e.Reason)
}

// Lookup resolves name to a Kernel, instantiating parameterized kernels
// (minkowski, standardised_euclidean) against params. dim is the point
// dimension, used to validate Params.Weights length.
func (r *Registry) Lookup(name string, params Params, dim int) (*Kernel, error) {
	switch name {
	case "minkowski":
		return &Kernel{Name: name, Dense: minkowskiKernel(params.P)}, nil
	case "standardised_euclidean":
		if len(params.Weights) > 0 && len(params.Weights) != dim {
			return nil, &ErrInvalidParams{Reason: fmt.Sprintf("weights length %d != dimension %d", len(params.Weights), dim)}
		}

		return &Kernel{Name: name, Dense: standardisedEuclideanKernel(params.Weights)}, nil
	}

	k, ok := r.kernels[name]
	if !ok {
		return nil, &ErrUnknownMetric{Name: name}
	}

	return k, nil
}
