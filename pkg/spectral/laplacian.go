package spectral

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/primkit/pkg/sparse"
)

// laplacian returns L = D - A for the graph g. Asymmetric adjacency is
// symmetrized as (A + A^T) / 2 first.
func laplacian(g sparse.Matrix[float64]) (*mat.SymDense, error) {
	n := g.Rows()
	if g.Cols() != n {
		return nil, fmt.Errorf("%w: adjacency is %dx%d, want square", ErrInvalidArgument, n, g.Cols())
	}
	offsets, cols, vals := g.RowOffsets(), g.ColIndices(), g.Values()
	adj := make([]float64, n*n)
	for i := range n {
		for p := offsets[i]; p < offsets[i+1]; p++ {
			j := cols[p]
			adj[i*n+j] += vals[p] / 2
			adj[j*n+i] += vals[p] / 2
		}
	}
	data := make([]float64, n*n)
	for i := range n {
		var deg float64
		for j := range n {
			deg += adj[i*n+j]
			data[i*n+j] = -adj[i*n+j]
		}
		data[i*n+i] += deg
	}
	return mat.NewSymDense(n, data), nil
}
