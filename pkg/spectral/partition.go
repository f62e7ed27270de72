// Package spectral partitions graphs by clustering the eigenvectors of
// their Laplacian, and scores partitions by edge cut and ratio-cut cost.
package spectral

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/sparse"
)

var ErrInvalidArgument = errors.New("invalid argument")

// EigenConfig controls the eigensolver.
type EigenConfig struct {
	// NEigVecs is the number of smallest eigenpairs used as embedding.
	NEigVecs int
}

// ClusterConfig controls k-means on the embedding.
type ClusterConfig struct {
	NClusters int
	MaxIter   int
	// Tol stops Lloyd iterations once the residual improves by less than
	// this fraction.
	Tol  float64
	Seed int64
}

func (c ClusterConfig) withDefaults() ClusterConfig {
	if c.MaxIter <= 0 {
		c.MaxIter = 100
	}
	if c.Tol <= 0 {
		c.Tol = 1e-4
	}
	return c
}

// Stats reports solver effort.
type Stats struct {
	// EigenIters is 1: the dense symmetric solver is direct.
	EigenIters      int
	ClusterResidual float64
	ClusterIters    int
}

// Partition assigns each vertex of g to one of cl.NClusters parts. It
// writes the cluster id of vertex i to clusters[i], the NEigVecs smallest
// Laplacian eigenvalues ascending to eigVals, and the matching eigenvectors
// column by column to eigVecs (vector j occupies eigVecs[j*n:(j+1)*n]),
// whitened as used for clustering. Partition synchronizes res.
func Partition(ctx context.Context, res *device.Resources, g sparse.Matrix[float64], eig EigenConfig, cl ClusterConfig, clusters []int, eigVals, eigVecs []float64) (Stats, error) {
	n := g.Rows()
	nev := eig.NEigVecs
	if n < 1 {
		return Stats{}, fmt.Errorf("%w: empty graph", ErrInvalidArgument)
	}
	if nev < 1 || nev > n {
		return Stats{}, fmt.Errorf("%w: %d eigenvectors for %d vertices", ErrInvalidArgument, nev, n)
	}
	if cl.NClusters < 1 || cl.NClusters > n {
		return Stats{}, fmt.Errorf("%w: %d clusters for %d vertices", ErrInvalidArgument, cl.NClusters, n)
	}
	if len(clusters) != n {
		return Stats{}, fmt.Errorf("%w: clusters holds %d entries, want %d", ErrInvalidArgument, len(clusters), n)
	}
	if len(eigVals) != nev || len(eigVecs) != n*nev {
		return Stats{}, fmt.Errorf("%w: eigen outputs hold %d values and %d vector entries, want %d and %d", ErrInvalidArgument, len(eigVals), len(eigVecs), nev, n*nev)
	}
	lap, err := laplacian(g)
	if err != nil {
		return Stats{}, err
	}

	var es mat.EigenSym
	if ok := es.Factorize(lap, true); !ok {
		return Stats{}, errors.New("laplacian eigendecomposition did not converge")
	}
	values := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	copy(eigVals, values[:nev])
	for j := range nev {
		col := eigVecs[j*n : (j+1)*n]
		mat.Col(col, j, &vecs)
		whiten(col)
	}
	res.Logger().Debug("spectral embedding", "vertices", n, "eigvecs", nev, "lambda_min", values[0], "lambda_max", values[nev-1])

	points := make([]float32, n*nev)
	for i := range n {
		for j := range nev {
			points[i*nev+j] = float32(eigVecs[j*n+i])
		}
	}
	residual, iters, err := kmeans(ctx, res, points, n, nev, cl.withDefaults(), clusters)
	if err != nil {
		return Stats{}, fmt.Errorf("cluster embedding: %w", err)
	}
	return Stats{EigenIters: 1, ClusterResidual: residual, ClusterIters: iters}, nil
}

// whiten centers v and divides it by its population standard deviation. A
// vector that is constant up to rounding becomes zero.
func whiten(v []float64) {
	n := float64(len(v))
	var mean float64
	for _, x := range v {
		mean += x
	}
	mean /= n
	var ss float64
	for i := range v {
		v[i] -= mean
		ss += v[i] * v[i]
	}
	std := math.Sqrt(ss / n)
	if std < 1e-9 {
		clear(v)
		return
	}
	for i := range v {
		v[i] /= std
	}
}

// AnalyzePartition scores clusters on g: edgeCut is the total weight of
// edges between parts and cost is the sum over parts of cut / size. Parts
// with no vertices are logged and skipped.
func AnalyzePartition(res *device.Resources, g sparse.Matrix[float64], nClusters int, clusters []int) (edgeCut, cost float64, err error) {
	n := g.Rows()
	if nClusters < 1 {
		return 0, 0, fmt.Errorf("%w: %d clusters", ErrInvalidArgument, nClusters)
	}
	if len(clusters) != n {
		return 0, 0, fmt.Errorf("%w: clusters holds %d entries, want %d", ErrInvalidArgument, len(clusters), n)
	}
	for i, c := range clusters {
		if c < 0 || c >= nClusters {
			return 0, 0, fmt.Errorf("%w: vertex %d in cluster %d of %d", ErrInvalidArgument, i, c, nClusters)
		}
	}
	lap, err := laplacian(g)
	if err != nil {
		return 0, 0, err
	}

	x := mat.NewVecDense(n, nil)
	var lx mat.VecDense
	for c := range nClusters {
		var size float64
		for i, ci := range clusters {
			if ci == c {
				x.SetVec(i, 1)
				size++
			} else {
				x.SetVec(i, 0)
			}
		}
		if size == 0 {
			res.Logger().Warn("empty partition", "cluster", c)
			continue
		}
		lx.MulVec(lap, x)
		cut := mat.Dot(x, &lx)
		cost += cut / size
		edgeCut += cut / 2
	}
	return edgeCut, cost, nil
}
