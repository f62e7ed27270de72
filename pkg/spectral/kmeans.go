package spectral

import (
	"context"
	"math"
	"math/rand"

	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/distance"
	"github.com/samcharles93/primkit/pkg/knn"
)

// kmeans clusters the n x dim row-major points into cfg.NClusters groups
// with k-means++ seeding and Lloyd iterations. The nearest centroid of
// every point comes from a 1-NN search over the centroids.
func kmeans(ctx context.Context, res *device.Resources, points []float32, n, dim int, cfg ClusterConfig, labels []int) (float64, int, error) {
	k := cfg.NClusters
	rng := rand.New(rand.NewSource(cfg.Seed))
	centroids := seed(rng, points, n, dim, k)

	dists := make([]float32, n)
	ids := make([]int, n)
	params := knn.Params{Metric: distance.L2Unexpanded}
	prev := math.Inf(1)
	var residual float64
	iter := 0
	for iter < cfg.MaxIter {
		iter++
		if err := knn.Search(res, centroids, points, k, n, dim, 1, params, dists, ids); err != nil {
			return 0, iter, err
		}
		if err := res.Sync(ctx); err != nil {
			return 0, iter, err
		}
		copy(labels, ids)
		residual = 0
		for _, d := range dists {
			residual += float64(d)
		}
		if iter > 1 && prev-residual <= cfg.Tol*prev {
			break
		}
		prev = residual
		update(points, n, dim, k, labels, dists, centroids)
	}
	res.Logger().Debug("kmeans done", "clusters", k, "iterations", iter, "residual", residual)
	return residual, iter, nil
}

// seed picks k initial centroids by k-means++: each next centroid is drawn
// with probability proportional to its squared distance from the nearest
// centroid chosen so far.
func seed(rng *rand.Rand, points []float32, n, dim, k int) []float32 {
	centroids := make([]float32, 0, k*dim)
	first := rng.Intn(n)
	centroids = append(centroids, points[first*dim:(first+1)*dim]...)

	nearest := make([]float64, n)
	for i := range nearest {
		nearest[i] = math.Inf(1)
	}
	for c := 1; c < k; c++ {
		last := centroids[(c-1)*dim : c*dim]
		var total float64
		for i := range n {
			nearest[i] = min(nearest[i], sqDist(points[i*dim:(i+1)*dim], last))
			total += nearest[i]
		}
		next := n - 1
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range nearest {
				target -= d
				if target < 0 {
					next = i
					break
				}
			}
		} else {
			next = rng.Intn(n)
		}
		centroids = append(centroids, points[next*dim:(next+1)*dim]...)
	}
	return centroids
}

// update moves every centroid to the mean of its points. A centroid left
// without points takes over the point farthest from its own centroid.
func update(points []float32, n, dim, k int, labels []int, dists []float32, centroids []float32) {
	sums := make([]float64, k*dim)
	counts := make([]int, k)
	for i := range n {
		c := labels[i]
		counts[c]++
		for j := range dim {
			sums[c*dim+j] += float64(points[i*dim+j])
		}
	}
	for c := range k {
		if counts[c] == 0 {
			far := 0
			for i, d := range dists {
				if d > dists[far] {
					far = i
				}
			}
			copy(centroids[c*dim:(c+1)*dim], points[far*dim:(far+1)*dim])
			dists[far] = 0
			continue
		}
		for j := range dim {
			centroids[c*dim+j] = float32(sums[c*dim+j] / float64(counts[c]))
		}
	}
}

func sqDist(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i] - b[i])
		s += d * d
	}
	return s
}
