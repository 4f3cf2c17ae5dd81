package metric

import "github.com/hupe1980/nndescent/internal/math32"

// unreachable stands in for the source's FLOAT32_MAX sentinel: a large,
// finite key used when a similarity-style alternative kernel has no
// meaningful (positive) similarity to take a log of.
const unreachable float32 = 1e30

func euclideanKernel(a, b []float32) float32 {
	return math32.Sqrt(math32.SquaredL2(a, b))
}

func sqeuclideanKernel(a, b []float32) float32 {
	return math32.SquaredL2(a, b)
}

func sqeuclideanCorrection(d float32) float32 {
	return math32.Sqrt(d)
}

func manhattanKernel(a, b []float32) float32 {
	return math32.Manhattan(a, b)
}

func chebyshevKernel(a, b []float32) float32 {
	return math32.Chebyshev(a, b)
}

func minkowskiKernel(p float64) DenseFunc {
	if p <= 0 {
		p = 2
	}

	return func(a, b []float32) float32 {
		var sum float64
		for i := range a {
			d := float64(math32.Abs(a[i] - b[i]))
			sum += pow(d, p)
		}

		return float32(pow(sum, 1/p))
	}
}

func standardisedEuclideanKernel(weights []float32) DenseFunc {
	return func(a, b []float32) float32 {
		var sum float32
		for i := range a {
			d := a[i] - b[i]
			w := float32(1)
			if i < len(weights) && weights[i] != 0 {
				w = weights[i]
			}
			sum += d * d / w
		}

		return math32.Sqrt(sum)
	}
}

// cosineSimilarity returns dot(a,b)/(|a||b|). When either vector is zero it
// returns 0 and reports the case through bothZero/oneZero; the kernels map
// those to distance 0 and 1.
func cosineSimilarity(a, b []float32) (sim float32, bothZero, oneZero bool) {
	normA := math32.Dot(a, a)
	normB := math32.Dot(b, b)

	if normA == 0 && normB == 0 {
		return 0, true, false
	}

	if normA == 0 || normB == 0 {
		return 0, false, true
	}

	return math32.Dot(a, b) / (math32.Sqrt(normA) * math32.Sqrt(normB)), false, false
}

func cosineKernel(a, b []float32) float32 {
	sim, bothZero, oneZero := cosineSimilarity(a, b)
	switch {
	case bothZero:
		return 0
	case oneZero:
		return 1
	default:
		return 1 - sim
	}
}

func alternativeCosineKernel(a, b []float32) float32 {
	sim, bothZero, oneZero := cosineSimilarity(a, b)
	switch {
	case bothZero:
		return 0
	case oneZero || sim <= 0:
		return unreachable
	default:
		return -log2(sim)
	}
}

func correctAlternativeCosine(d float32) float32 {
	if d == 0 {
		return 0
	}

	if d >= unreachable {
		return 1
	}

	return 1 - math32.Pow2(-d)
}

func dotKernel(a, b []float32) float32 {
	return -math32.Dot(a, b)
}

func alternativeDotKernel(a, b []float32) float32 {
	dot := math32.Dot(a, b)
	if dot <= 0 {
		return unreachable
	}

	return -log2(dot)
}

func correctAlternativeDot(d float32) float32 {
	if d >= unreachable {
		return 0
	}

	return -math32.Pow2(-d)
}

func correlationKernel(a, b []float32) float32 {
	var meanA, meanB float32
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}

	n := float32(len(a))
	if n == 0 {
		return 0
	}

	meanA /= n
	meanB /= n

	var num, sumA, sumB float32
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		num += da * db
		sumA += da * da
		sumB += db * db
	}

	if sumA == 0 || sumB == 0 {
		return 1
	}

	return 1 - num/math32.Sqrt(sumA*sumB)
}

func hammingKernel(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}

	var diff float32
	for i := range a {
		if a[i] != b[i] {
			diff++
		}
	}

	return diff / float32(len(a))
}

// jaccardCounts returns the union size and the both-nonzero intersection
// size over dense coordinate vectors.
func jaccardCounts(a, b []float32) (union, intersection float32) {
	for i := range a {
		an := a[i] != 0
		bn := b[i] != 0
		if an || bn {
			union++
		}
		if an && bn {
			intersection++
		}
	}

	return union, intersection
}

func jaccardKernel(a, b []float32) float32 {
	union, intersection := jaccardCounts(a, b)
	if union == 0 {
		return 0
	}

	return (union - intersection) / union
}

func alternativeJaccardKernel(a, b []float32) float32 {
	union, intersection := jaccardCounts(a, b)
	if union == 0 {
		return 0
	}

	sim := intersection / union
	if sim <= 0 {
		return unreachable
	}

	return -log2(sim)
}

func correctAlternativeJaccard(d float32) float32 {
	if d == 0 {
		return 0
	}

	if d >= unreachable {
		return 1
	}

	return 1 - math32.Pow2(-d)
}

func canberraKernel(a, b []float32) float32 {
	var sum float32
	for i := range a {
		denom := math32.Abs(a[i]) + math32.Abs(b[i])
		if denom == 0 {
			continue
		}
		sum += math32.Abs(a[i]-b[i]) / denom
	}

	return sum
}

func braycurtisKernel(a, b []float32) float32 {
	var num, denom float32
	for i := range a {
		num += math32.Abs(a[i] - b[i])
		denom += math32.Abs(a[i] + b[i])
	}

	if denom == 0 {
		return 0
	}

	return num / denom
}

// bhattacharyyaCoefficient returns sum(sqrt(x_i*y_i)) over nonnegative
// coordinates, the similarity term shared by Hellinger and its alternative.
func bhattacharyyaCoefficient(a, b []float32) float32 {
	var bc float32
	for i := range a {
		p := a[i] * b[i]
		if p > 0 {
			bc += math32.Sqrt(p)
		}
	}

	return bc
}

func hellingerKernel(a, b []float32) float32 {
	bc := bhattacharyyaCoefficient(a, b)
	v := 1 - bc
	if v < 0 {
		v = 0
	}

	return math32.Sqrt(v)
}

func alternativeHellingerKernel(a, b []float32) float32 {
	bc := bhattacharyyaCoefficient(a, b)
	if bc <= 0 {
		return unreachable
	}

	return -log2(bc)
}

func correctAlternativeHellinger(d float32) float32 {
	if d == 0 {
		return 0
	}

	if d >= unreachable {
		return 1
	}

	v := 1 - math32.Pow2(-d)
	if v < 0 {
		v = 0
	}

	return math32.Sqrt(v)
}

// klTerm accumulates sum(x_i * log(x_i/y_i)) treating 0*log(0/y)=0 and
// skipping coordinates where y_i == 0 and x_i > 0 (undefined, contributes 0
// rather than +Inf so the kernel stays total).
func klTerm(x, y []float32) float32 {
	var sum float32
	for i := range x {
		if x[i] <= 0 {
			continue
		}
		if y[i] <= 0 {
			continue
		}
		sum += x[i] * log2(x[i]/y[i])
	}

	return sum
}

func symmetricKLKernel(a, b []float32) float32 {
	return klTerm(a, b) + klTerm(b, a)
}

func jensenShannonKernel(a, b []float32) float32 {
	m := make([]float32, len(a))
	for i := range a {
		m[i] = (a[i] + b[i]) / 2
	}

	return (klTerm(a, m) + klTerm(b, m)) / 2
}

// wasserstein1DKernel treats each coordinate as the value of a 1-D quantile
// function sampled at i/D, so the earth-mover distance reduces to the mean
// absolute difference between quantiles (see DESIGN.md).
func wasserstein1DKernel(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}

	var sum float32
	for i := range a {
		sum += math32.Abs(a[i] - b[i])
	}

	return sum / float32(len(a))
}
