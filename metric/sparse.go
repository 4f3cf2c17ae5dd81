package metric

import "github.com/hupe1980/nndescent/internal/math32"

// Sparse kernels walk two sorted (index, value) pair lists with a merged
// iteration, the same shape the teacher's dense-only distance.go lacks but
// which rptree's sparse hyperplane matching needs (spec.md §9, "dense/sparse
// duality": the inner loop never branches on representation beyond this
// merge step).

func sparseSqeuclidean(ai []int32, av []float32, bi []int32, bv []float32) float32 {
	var sum float32
	i, j := 0, 0
	for i < len(ai) && j < len(bi) {
		switch {
		case ai[i] == bi[j]:
			d := av[i] - bv[j]
			sum += d * d
			i++
			j++
		case ai[i] < bi[j]:
			sum += av[i] * av[i]
			i++
		default:
			sum += bv[j] * bv[j]
			j++
		}
	}
	for ; i < len(ai); i++ {
		sum += av[i] * av[i]
	}
	for ; j < len(bi); j++ {
		sum += bv[j] * bv[j]
	}

	return sum
}

func sparseManhattan(ai []int32, av []float32, bi []int32, bv []float32) float32 {
	var sum float32
	i, j := 0, 0
	for i < len(ai) && j < len(bi) {
		switch {
		case ai[i] == bi[j]:
			sum += abs32(av[i] - bv[j])
			i++
			j++
		case ai[i] < bi[j]:
			sum += abs32(av[i])
			i++
		default:
			sum += abs32(bv[j])
			j++
		}
	}
	for ; i < len(ai); i++ {
		sum += abs32(av[i])
	}
	for ; j < len(bi); j++ {
		sum += abs32(bv[j])
	}

	return sum
}

func sparseHamming(ai []int32, av []float32, bi []int32, bv []float32) float32 {
	dim := 0
	var diff float32
	i, j := 0, 0
	for i < len(ai) && j < len(bi) {
		switch {
		case ai[i] == bi[j]:
			if av[i] != bv[j] {
				diff++
			}
			i++
			j++
		case ai[i] < bi[j]:
			if av[i] != 0 {
				diff++
			}
			i++
		default:
			if bv[j] != 0 {
				diff++
			}
			j++
		}
		dim++
	}
	for ; i < len(ai); i++ {
		if av[i] != 0 {
			diff++
		}
		dim++
	}
	for ; j < len(bi); j++ {
		if bv[j] != 0 {
			diff++
		}
		dim++
	}

	if dim == 0 {
		return 0
	}

	return diff / float32(dim)
}

func sparseJaccardCounts(ai []int32, av []float32, bi []int32, bv []float32) (union, intersection float32) {
	i, j := 0, 0
	for i < len(ai) && j < len(bi) {
		switch {
		case ai[i] == bi[j]:
			if av[i] != 0 || bv[j] != 0 {
				union++
			}
			if av[i] != 0 && bv[j] != 0 {
				intersection++
			}
			i++
			j++
		case ai[i] < bi[j]:
			if av[i] != 0 {
				union++
			}
			i++
		default:
			if bv[j] != 0 {
				union++
			}
			j++
		}
	}
	for ; i < len(ai); i++ {
		if av[i] != 0 {
			union++
		}
	}
	for ; j < len(bi); j++ {
		if bv[j] != 0 {
			union++
		}
	}

	return union, intersection
}

func sparseJaccard(ai []int32, av []float32, bi []int32, bv []float32) float32 {
	union, intersection := sparseJaccardCounts(ai, av, bi, bv)
	if union == 0 {
		return 0
	}

	return (union - intersection) / union
}

func sparseCosine(ai []int32, av []float32, bi []int32, bv []float32) float32 {
	var dot, normA, normB float32
	i, j := 0, 0
	for i < len(ai) && j < len(bi) {
		switch {
		case ai[i] == bi[j]:
			dot += av[i] * bv[j]
			normA += av[i] * av[i]
			normB += bv[j] * bv[j]
			i++
			j++
		case ai[i] < bi[j]:
			normA += av[i] * av[i]
			i++
		default:
			normB += bv[j] * bv[j]
			j++
		}
	}
	for ; i < len(ai); i++ {
		normA += av[i] * av[i]
	}
	for ; j < len(bi); j++ {
		normB += bv[j] * bv[j]
	}

	if normA == 0 && normB == 0 {
		return 0
	}
	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dot/(math32.Sqrt(normA)*math32.Sqrt(normB))
}

func abs32(v float32) float32 {
	return math32.Abs(v)
}
