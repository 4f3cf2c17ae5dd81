// Package matrix holds the dense and sparse point containers shared by the
// forest, descent, and query packages. Both representations satisfy
// PointSet so the rest of the module distance-evaluates points without
// branching on how they're stored (spec.md §9, "dense/sparse duality").
package matrix

import "github.com/hupe1980/nndescent/metric"

// PointSet is the representation-agnostic surface the core algorithms are
// written against.
type PointSet interface {
	// Len returns the number of points (N).
	Len() int

	// Dim returns the point dimension (D). For Sparse, this is the logical
	// dimension, not the per-row nonzero count.
	Dim() int

	// Dist evaluates k against rows i and j, using the kernel's alternative
	// form when available.
	Dist(k *metric.Kernel, i, j int) float32

	// DistTo evaluates k between row i and an external query row q (dense).
	DistTo(k *metric.Kernel, i int, q []float32) float32

	// Dense returns row i as a dense []float32 of length Dim(). For Matrix
	// this borrows the backing row; for Sparse it densifies on each call.
	// rptree uses this once per hyperplane build/evaluation rather than
	// branching on representation inside its inner loops.
	Dense(i int) []float32
}

// Matrix is a row-major dense point set: N rows of D float32 columns.
type Matrix struct {
	data []float32
	n    int
	dim  int
}

// NewMatrix wraps a pre-allocated row-major buffer of length n*dim. It
// borrows data; the matrix never copies or mutates it.
func NewMatrix(data []float32, n, dim int) *Matrix {
	return &Matrix{data: data, n: n, dim: dim}
}

// NewMatrixFromRows copies rows (each of length dim) into a fresh backing
// array.
func NewMatrixFromRows(rows [][]float32, dim int) *Matrix {
	data := make([]float32, len(rows)*dim)
	for i, row := range rows {
		copy(data[i*dim:(i+1)*dim], row)
	}

	return &Matrix{data: data, n: len(rows), dim: dim}
}

// Len implements PointSet.
func (m *Matrix) Len() int { return m.n }

// Dim implements PointSet.
func (m *Matrix) Dim() int { return m.dim }

// Row returns the slice backing row i. Callers must not retain it past the
// matrix's lifetime or mutate it.
func (m *Matrix) Row(i int) []float32 {
	return m.data[i*m.dim : (i+1)*m.dim]
}

// Dist implements PointSet.
func (m *Matrix) Dist(k *metric.Kernel, i, j int) float32 {
	return k.Dist(m.Row(i), m.Row(j))
}

// DistTo implements PointSet.
func (m *Matrix) DistTo(k *metric.Kernel, i int, q []float32) float32 {
	return k.Dist(m.Row(i), q)
}

// Dense implements PointSet.
func (m *Matrix) Dense(i int) []float32 { return m.Row(i) }

// Sparse is a CSR-like point set: each row is a sorted list of (index,
// value) pairs.
type Sparse struct {
	indices [][]int32
	values  [][]float32
	dim     int
}

// NewSparse builds a Sparse point set. indices[i] must be sorted ascending
// and indices[i]/values[i] must have equal length.
func NewSparse(indices [][]int32, values [][]float32, dim int) *Sparse {
	return &Sparse{indices: indices, values: values, dim: dim}
}

// Len implements PointSet.
func (s *Sparse) Len() int { return len(s.indices) }

// Dim implements PointSet.
func (s *Sparse) Dim() int { return s.dim }

// Row returns the raw (index, value) pair slices for row i.
func (s *Sparse) Row(i int) ([]int32, []float32) {
	return s.indices[i], s.values[i]
}

// Dist implements PointSet. Falls back to densifying both rows when the
// kernel has no dedicated sparse path for the form Dist must return.
func (s *Sparse) Dist(k *metric.Kernel, i, j int) float32 {
	ai, av := s.Row(i)
	bi, bv := s.Row(j)

	if k.AltSparse != nil {
		return k.AltSparse(ai, av, bi, bv)
	}
	if k.Sparse != nil && !k.HasAlternative() {
		return k.Sparse(ai, av, bi, bv)
	}

	return k.Dist(s.Densify(i), s.Densify(j))
}

// DistTo implements PointSet against a dense query row by densifying row i.
// Query rows arrive dense (spec.md §6 constructor inputs describe dense
// query matrices); sparse x sparse is the hot path covered by Dist.
func (s *Sparse) DistTo(k *metric.Kernel, i int, q []float32) float32 {
	return k.Dist(s.Densify(i), q)
}

// Dense implements PointSet by densifying row i.
func (s *Sparse) Dense(i int) []float32 { return s.Densify(i) }

// Densify materializes row i as a dense []float32 of length Dim().
func (s *Sparse) Densify(i int) []float32 {
	row := make([]float32, s.dim)
	idx, val := s.Row(i)
	for p, ix := range idx {
		row[ix] = val[p]
	}

	return row
}
