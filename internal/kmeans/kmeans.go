// Package kmeans implements centroid-based partitioning with k-means++
// seeding, multiple restarts, and a fixed seed. Identical input and identical
// seed/restart configuration always produce identical assignments.
package kmeans

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// Config controls a fit. The same seed and restart count must be used for the
// elbow sweep and the final fit so the two stay comparable.
type Config struct {
	K        int
	MaxIter  int
	Restarts int
	Seed     int64
}

// Result holds the best restart of a fit.
type Result struct {
	Labels    []int       // one label per row, in row order, 0..K-1
	Centroids [][]float64 // indexed by label
	Inertia   float64     // sum of squared distances to assigned centroids
	Restart   int         // index of the winning restart
	Converged bool        // winning restart stopped before the iteration cap

	// Unconverged counts restarts that hit the iteration cap. Callers decide
	// whether to log it; nothing is suppressed here.
	Unconverged int
}

// ElbowPoint is one (k, inertia) sample of the cluster-count sweep.
type ElbowPoint struct {
	K       int
	Inertia float64
}

// Fit clusters X into cfg.K groups. Restarts run concurrently; each restart
// derives its own deterministic random stream from the seed and restart
// index, and the winner is chosen in restart order, so scheduling cannot
// change the outcome. Cost ties go to the lower restart index.
func Fit(X [][]float64, cfg Config) (*Result, error) {
	n := len(X)
	if n == 0 {
		return nil, fmt.Errorf("input data is empty")
	}
	if cfg.K < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", cfg.K)
	}
	if cfg.K > n {
		return nil, fmt.Errorf("k (%d) exceeds row count (%d)", cfg.K, n)
	}
	if cfg.MaxIter < 1 {
		return nil, fmt.Errorf("max iterations must be >= 1, got %d", cfg.MaxIter)
	}
	if cfg.Restarts < 1 {
		return nil, fmt.Errorf("restarts must be >= 1, got %d", cfg.Restarts)
	}

	runs := make([]*singleRun, cfg.Restarts)
	var wg sync.WaitGroup
	for r := 0; r < cfg.Restarts; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(cfg.Seed + int64(r)))
			runs[r] = lloyd(X, cfg.K, cfg.MaxIter, rng)
		}(r)
	}
	wg.Wait()

	best := 0
	unconverged := 0
	for r, run := range runs {
		if !run.converged {
			unconverged++
		}
		if run.inertia < runs[best].inertia {
			best = r
		}
	}

	win := runs[best]
	return &Result{
		Labels:      win.labels,
		Centroids:   win.centroids,
		Inertia:     win.inertia,
		Restart:     best,
		Converged:   win.converged,
		Unconverged: unconverged,
	}, nil
}

// Sweep runs Fit for every candidate count from 1 through kMax (capped at the
// row count) and reports the inertia curve for elbow inspection. It never
// picks a k; that decision stays with a human.
func Sweep(X [][]float64, kMax int, cfg Config) ([]ElbowPoint, error) {
	if kMax < 1 {
		return nil, fmt.Errorf("k_max must be >= 1, got %d", kMax)
	}
	if kMax > len(X) {
		kMax = len(X)
	}

	points := make([]ElbowPoint, 0, kMax)
	for k := 1; k <= kMax; k++ {
		c := cfg
		c.K = k
		res, err := Fit(X, c)
		if err != nil {
			return nil, fmt.Errorf("sweep at k=%d: %w", k, err)
		}
		points = append(points, ElbowPoint{K: k, Inertia: res.Inertia})
	}
	return points, nil
}

type singleRun struct {
	labels    []int
	centroids [][]float64
	inertia   float64
	converged bool
}

// lloyd runs one restart: k-means++ seeding, then reassign/recompute until
// assignments stop changing or maxIter is hit.
func lloyd(X [][]float64, k, maxIter int, rng *rand.Rand) *singleRun {
	n, dim := len(X), len(X[0])
	centroids := seedCentroids(X, k, rng)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	converged := false
	for it := 0; it < maxIter; it++ {
		changed := false
		for i := 0; i < n; i++ {
			best, bestDist := 0, math.MaxFloat64
			for c := 0; c < k; c++ {
				if d := sqDist(X[i], centroids[c]); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			converged = true
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := 0; c < k; c++ {
			sums[c] = make([]float64, dim)
		}
		for i := 0; i < n; i++ {
			counts[labels[i]]++
			for j := 0; j < dim; j++ {
				sums[labels[i]][j] += X[i][j]
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue // empty cluster keeps its previous centroid
			}
			for j := 0; j < dim; j++ {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	inertia := 0.0
	for i := 0; i < n; i++ {
		inertia += sqDist(X[i], centroids[labels[i]])
	}

	return &singleRun{labels: labels, centroids: centroids, inertia: inertia, converged: converged}
}

// seedCentroids picks initial centroids k-means++ style: the first uniformly,
// the rest weighted by squared distance to the nearest centroid so far.
func seedCentroids(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(X)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(X[rng.Intn(n)]))

	distSq := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, x := range X {
			nearest := math.MaxFloat64
			for _, c := range centroids {
				if d := sqDist(x, c); d < nearest {
					nearest = d
				}
			}
			distSq[i] = nearest
			total += nearest
		}

		if total == 0 {
			// All points coincide with existing centroids; fall back to a
			// uniform pick to keep the centroid count at k.
			centroids = append(centroids, clone(X[rng.Intn(n)]))
			continue
		}

		r := rng.Float64() * total
		cumulative := 0.0
		picked := n - 1
		for i, d := range distSq {
			cumulative += d
			if cumulative >= r {
				picked = i
				break
			}
		}
		centroids = append(centroids, clone(X[picked]))
	}
	return centroids
}

func sqDist(a, b []float64) float64 {
	var d float64
	for j := range a {
		diff := a[j] - b[j]
		d += diff * diff
	}
	return d
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
