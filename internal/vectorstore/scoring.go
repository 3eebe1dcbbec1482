package vectorstore

import "math"

// Distance metrics supported by the embedded backend.
const (
	MetricCosine    = "cosine"
	MetricEuclidean = "euclidean"
	MetricDot       = "dot"
)

// score computes a normalized similarity for the given metric: higher is
// always more similar. Cosine maps distance d to 1-d, euclidean negates,
// dot product passes through.
func score(metric string, a, b []float32) float64 {
	switch metric {
	case MetricEuclidean:
		return -euclidean(a, b)
	case MetricDot:
		return dot(a, b)
	default:
		return 1 - cosineDistance(a, b)
	}
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(a []float32) float64 {
	sum := 0.0
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func cosineDistance(a, b []float32) float64 {
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot(a, b)/(na*nb)
}

func euclidean(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
