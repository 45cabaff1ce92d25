package kmeans

import "math"

// Silhouette computes the mean silhouette coefficient of an assignment over
// Euclidean distances: for each point, (b-a)/max(a,b) where a is its mean
// distance to the rest of its own cluster and b the smallest mean distance to
// any other cluster. Points in singleton clusters contribute 0, as does
// everything when there is only one cluster. The score is advisory and lies
// in [-1, 1].
func Silhouette(X [][]float64, labels []int) float64 {
	n := len(X)
	if n == 0 {
		return 0
	}

	clusters := make(map[int][]int)
	for i, l := range labels {
		clusters[l] = append(clusters[l], i)
	}
	if len(clusters) < 2 {
		return 0
	}

	total := 0.0
	for i := 0; i < n; i++ {
		own := clusters[labels[i]]
		if len(own) == 1 {
			continue // singleton contributes 0
		}

		a := 0.0
		for _, j := range own {
			if j != i {
				a += dist(X[i], X[j])
			}
		}
		a /= float64(len(own) - 1)

		b := math.MaxFloat64
		for l, members := range clusters {
			if l == labels[i] {
				continue
			}
			sum := 0.0
			for _, j := range members {
				sum += dist(X[i], X[j])
			}
			if mean := sum / float64(len(members)); mean < b {
				b = mean
			}
		}

		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}

	return total / float64(n)
}

func dist(a, b []float64) float64 {
	return math.Sqrt(sqDist(a, b))
}
