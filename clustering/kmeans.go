package clustering

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type kmeansConfig struct {
	k       int
	nInit   int
	maxIter int
	tol     float64
	seed    int64
}

type kmeansResult struct {
	centroids  [][]float64
	labels     []int
	inertia    float64
	iterations int
}

// kmeans runs nInit seeded k-means++ initialisations followed by Lloyd
// iterations and keeps the run with the lowest inertia. A single rng drives
// every run, so the result depends only on X and cfg.
func kmeans(X [][]float64, cfg kmeansConfig) kmeansResult {
	rng := rand.New(rand.NewSource(cfg.seed))
	tol := scaledTolerance(X, cfg.tol)

	best := kmeansResult{inertia: math.Inf(1)}
	for run := 0; run < cfg.nInit; run++ {
		centers := kmeansPlusPlus(X, cfg.k, rng)
		res := lloyd(X, centers, cfg.maxIter, tol)
		if res.inertia < best.inertia {
			best = res
		}
	}
	return best
}

// scaledTolerance makes tol relative to the data spread: tol times the mean
// per-feature variance.
func scaledTolerance(X [][]float64, tol float64) float64 {
	if len(X) == 0 {
		return tol
	}
	d := len(X[0])
	col := make([]float64, len(X))
	var sum float64
	for j := 0; j < d; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean := stat.Mean(col, nil)
		var ss float64
		for _, v := range col {
			ss += (v - mean) * (v - mean)
		}
		sum += ss / float64(len(col))
	}
	return tol * sum / float64(d)
}

// kmeansPlusPlus picks k initial centres with greedy k-means++: each step
// samples 2+ln(k) candidates proportionally to squared distance and keeps
// the one that lowers the potential most.
func kmeansPlusPlus(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(X)
	trials := 2 + int(math.Log(float64(k)))

	centers := make([][]float64, 0, k)
	first := rng.Intn(n)
	centers = append(centers, clone(X[first]))

	closest := make([]float64, n)
	for i := range X {
		closest[i] = sqDist(X[i], centers[0])
	}
	pot := floats.Sum(closest)
	cum := make([]float64, n)

	for len(centers) < k {
		if pot == 0 {
			// Every point sits on a centre already; nothing left to spread.
			centers = append(centers, clone(X[rng.Intn(n)]))
			continue
		}
		floats.CumSum(cum, closest)

		bestCand, bestPot := -1, math.Inf(1)
		var bestClosest []float64
		for t := 0; t < trials; t++ {
			r := rng.Float64() * pot
			cand := sort.Search(n, func(i int) bool { return cum[i] > r })
			if cand >= n {
				cand = n - 1
			}
			candClosest := make([]float64, n)
			for i := range X {
				candClosest[i] = math.Min(closest[i], sqDist(X[i], X[cand]))
			}
			if p := floats.Sum(candClosest); p < bestPot {
				bestCand, bestPot, bestClosest = cand, p, candClosest
			}
		}

		centers = append(centers, clone(X[bestCand]))
		closest, pot = bestClosest, bestPot
	}
	return centers
}

func lloyd(X [][]float64, centers [][]float64, maxIter int, tol float64) kmeansResult {
	labels := make([]int, len(X))
	iterations := 0
	for it := 0; it < maxIter; it++ {
		assign(X, centers, labels)
		next := recomputeCenters(X, labels, centers)

		var shift float64
		for c := range centers {
			shift += sqDist(centers[c], next[c])
		}
		centers = next
		iterations = it + 1
		if shift <= tol {
			break
		}
	}
	inertia := assign(X, centers, labels)
	return kmeansResult{centroids: centers, labels: labels, inertia: inertia, iterations: iterations}
}

// assign labels every point with its nearest centre and returns the inertia.
func assign(X [][]float64, centers [][]float64, labels []int) float64 {
	var inertia float64
	for i, x := range X {
		c, d := nearest(x, centers)
		labels[i] = c
		inertia += d
	}
	return inertia
}

// recomputeCenters moves each centre to the mean of its points. An empty
// cluster takes over the point farthest from its current centre.
func recomputeCenters(X [][]float64, labels []int, old [][]float64) [][]float64 {
	k, d := len(old), len(old[0])
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, d)
	}
	counts := make([]int, k)
	for i, l := range labels {
		floats.Add(sums[l], X[i])
		counts[l]++
	}

	taken := make(map[int]bool)
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, x := range X {
			if taken[i] || counts[labels[i]] < 2 {
				continue
			}
			if dist := sqDist(x, old[labels[i]]); dist > farDist {
				far, farDist = i, dist
			}
		}
		if far < 0 {
			sums[c] = clone(old[c])
			counts[c] = 1
			continue
		}
		taken[far] = true
		from := labels[far]
		floats.Sub(sums[from], X[far])
		counts[from]--
		copy(sums[c], X[far])
		counts[c] = 1
		labels[far] = c
	}

	for c := range sums {
		floats.Scale(1/float64(counts[c]), sums[c])
	}
	return sums
}

// nearest returns the index of the closest centre and the squared distance
// to it. Ties go to the lower index.
func nearest(x []float64, centers [][]float64) (int, float64) {
	best, bestDist := 0, sqDist(x, centers[0])
	for c := 1; c < len(centers); c++ {
		if d := sqDist(x, centers[c]); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		diff := a[i] - b[i]
		s += diff * diff
	}
	return s
}

func clone(v []float64) []float64 { return append([]float64(nil), v...) }
