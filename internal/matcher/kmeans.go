package matcher

import (
	"math"
	"math/rand/v2"
)

// KMeans is a fitted partition of a vector batch. Centroids are dense.
type KMeans struct {
	centroids [][]float64
	norms     []float64
	labels    []int
}

type kmeansParams struct {
	k         int
	dims      int
	maxIter   int
	tolerance float64
	seed      uint64
}

// fitKMeans runs k-means++ seeding followed by Lloyd iterations.
// The same input and seed always yield the same partition.
func fitKMeans(points []Vector, p kmeansParams) *KMeans {
	if p.k < 1 {
		p.k = 1
	}
	if p.k > len(points) {
		p.k = len(points)
	}

	km := &KMeans{
		centroids: seedPlusPlus(points, p),
		labels:    make([]int, len(points)),
	}
	km.refreshNorms()

	for iter := 0; iter < p.maxIter; iter++ {
		for i, pt := range points {
			km.labels[i] = km.nearest(pt)
		}

		next := make([][]float64, p.k)
		counts := make([]int, p.k)
		for c := range next {
			next[c] = make([]float64, p.dims)
		}
		for i, pt := range points {
			c := km.labels[i]
			counts[c]++
			for j, idx := range pt.Indices {
				next[c][idx] += pt.Values[j]
			}
		}

		var shift float64
		for c := range next {
			if counts[c] == 0 {
				// empty cluster keeps its centroid
				copy(next[c], km.centroids[c])
				continue
			}
			for d := range next[c] {
				next[c][d] /= float64(counts[c])
				diff := next[c][d] - km.centroids[c][d]
				shift += diff * diff
			}
		}

		km.centroids = next
		km.refreshNorms()

		if shift <= p.tolerance {
			break
		}
	}

	for i, pt := range points {
		km.labels[i] = km.nearest(pt)
	}

	return km
}

// K returns the number of clusters.
func (km *KMeans) K() int {
	return len(km.centroids)
}

// Label returns the cluster of the i-th fitted point.
func (km *KMeans) Label(i int) int {
	return km.labels[i]
}

// Predict assigns v to the nearest centroid, the lowest index on ties.
func (km *KMeans) Predict(v Vector) int {
	return km.nearest(v)
}

func (km *KMeans) nearest(v Vector) int {
	vn := v.SquaredNorm()
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range km.centroids {
		d := km.norms[c] - 2*v.DotDense(centroid) + vn
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func (km *KMeans) refreshNorms() {
	km.norms = make([]float64, len(km.centroids))
	for c, centroid := range km.centroids {
		var sum float64
		for _, x := range centroid {
			sum += x * x
		}
		km.norms[c] = sum
	}
}

func seedPlusPlus(points []Vector, p kmeansParams) [][]float64 {
	rng := rand.New(rand.NewPCG(p.seed, p.seed))

	centroids := make([][]float64, 0, p.k)
	chosen := make(map[int]struct{}, p.k)

	pick := func(i int) {
		chosen[i] = struct{}{}
		c := make([]float64, p.dims)
		for j, idx := range points[i].Indices {
			c[idx] = points[i].Values[j]
		}
		centroids = append(centroids, c)
	}

	pick(rng.IntN(len(points)))

	dist := make([]float64, len(points))
	for len(centroids) < p.k {
		last := centroids[len(centroids)-1]
		var lastNorm float64
		for _, x := range last {
			lastNorm += x * x
		}

		var total float64
		for i, pt := range points {
			d := lastNorm - 2*pt.DotDense(last) + pt.SquaredNorm()
			if d < 0 {
				d = 0
			}
			if len(centroids) == 1 || d < dist[i] {
				dist[i] = d
			}
			total += dist[i]
		}

		if total == 0 {
			// every point already sits on a centroid
			for i := range points {
				if _, ok := chosen[i]; !ok {
					pick(i)
					break
				}
			}
			continue
		}

		target := rng.Float64() * total
		idx := -1
		var acc float64
		for i := range points {
			if dist[i] == 0 {
				continue
			}
			idx = i
			acc += dist[i]
			if acc >= target {
				break
			}
		}
		pick(idx)
	}

	return centroids
}
