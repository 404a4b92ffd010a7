package lsa

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/cognicore/songlex/pkg/songlex/internalerr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const maxKMeansIterations = 100

// Cluster is a group of terms close in the reduced space.
type Cluster struct {
	ID    int
	Terms []string // sorted by distance to the centroid
}

// Cluster groups terms with k-means++ over unit-length term vectors, so
// distance follows cosine similarity. The same seed yields the same
// clusters. Terms whose vector is zero are left out.
func (s *Space) Cluster(k int, seed int64) ([]Cluster, error) {
	if k < 1 {
		return nil, fmt.Errorf("lsa: cluster count %d: %w", k, internalerr.ErrInvalidInput)
	}

	var (
		points [][]float64
		names  []string
	)
	for i, term := range s.Terms {
		v := mat.Row(nil, i, s.termVecs)
		n := floats.Norm(v, 2)
		if n == 0 {
			continue
		}
		floats.Scale(1/n, v)
		points = append(points, v)
		names = append(names, term)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("lsa: no non-zero term vectors: %w", internalerr.ErrInvalidInput)
	}
	if k > len(points) {
		k = len(points)
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := seedCentroids(points, k, rng)
	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, p := range points {
			c := closest(p, centroids)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		sizes := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, len(points[0]))
		}
		for i, p := range points {
			floats.Add(next[assign[i]], p)
			sizes[assign[i]]++
		}
		for c := range next {
			if sizes[c] == 0 {
				// reseed an empty cluster on the worst-fitting point
				far := farthest(points, assign, centroids)
				copy(next[c], points[far])
				assign[far] = c
				continue
			}
			floats.Scale(1/float64(sizes[c]), next[c])
		}
		centroids = next
	}

	groups := make([][]int, k)
	for i, c := range assign {
		groups[c] = append(groups[c], i)
	}

	var out []Cluster
	for c, members := range groups {
		if len(members) == 0 {
			continue
		}
		sort.SliceStable(members, func(a, b int) bool {
			da := floats.Distance(points[members[a]], centroids[c], 2)
			db := floats.Distance(points[members[b]], centroids[c], 2)
			if da != db {
				return da < db
			}
			return names[members[a]] < names[members[b]]
		})
		terms := make([]string, len(members))
		for i, m := range members {
			terms[i] = names[m]
		}
		out = append(out, Cluster{Terms: terms})
	}

	sort.Slice(out, func(a, b int) bool {
		if len(out[a].Terms) != len(out[b].Terms) {
			return len(out[a].Terms) > len(out[b].Terms)
		}
		return out[a].Terms[0] < out[b].Terms[0]
	})
	for i := range out {
		out[i].ID = i
	}
	return out, nil
}

// seedCentroids picks k starting centroids with the k-means++ rule: each
// next centroid is drawn with probability proportional to its squared
// distance from the nearest chosen one.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := [][]float64{clone(points[rng.Intn(len(points))])}
	dist := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			d := floats.Distance(p, centroids[closest(p, centroids)], 2)
			dist[i] = d * d
			total += dist[i]
		}
		if total == 0 {
			// all remaining points coincide with a centroid
			centroids = append(centroids, clone(points[len(centroids)%len(points)]))
			continue
		}
		r := rng.Float64() * total
		pick := len(points) - 1
		for i, d := range dist {
			if r < d {
				pick = i
				break
			}
			r -= d
		}
		centroids = append(centroids, clone(points[pick]))
	}
	return centroids
}

func closest(p []float64, centroids [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := floats.Distance(p, centroid, 2); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func farthest(points [][]float64, assign []int, centroids [][]float64) int {
	best, bestD := 0, -1.0
	for i, p := range points {
		if d := floats.Distance(p, centroids[assign[i]], 2); d > bestD {
			best, bestD = i, d
		}
	}
	return best
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
