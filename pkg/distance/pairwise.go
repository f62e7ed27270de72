// Package distance computes dense pairwise distance matrices between two
// sets of row vectors. The results feed the select-k engine for
// nearest-neighbour queries.
package distance

import (
	"fmt"
	"math"

	"github.com/viterin/vek/vek32"

	"github.com/samcharles93/primkit/pkg/device"
)

// Pairwise writes the m x n matrix of distances between the rows of x
// (m x d) and the rows of y (n x d) into out, row-major. p is the exponent
// for LpUnexpanded and ignored otherwise. Arguments are checked before the
// work is submitted to res.
func Pairwise(res *device.Resources, x, y []float32, m, n, d int, metric Metric, p float32, out []float32) error {
	if !metric.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMetric, int(metric))
	}
	if m < 0 || n < 0 || d < 1 {
		return fmt.Errorf("%w: shape m=%d n=%d d=%d", ErrInvalidArgument, m, n, d)
	}
	if len(x) != m*d || len(y) != n*d {
		return fmt.Errorf("%w: x holds %d values, y holds %d, want %dx%d and %dx%d", ErrInvalidArgument, len(x), len(y), m, d, n, d)
	}
	if len(out) != m*n {
		return fmt.Errorf("%w: output holds %d values, want %dx%d", ErrInvalidArgument, len(out), m, n)
	}
	if metric == LpUnexpanded && !(p > 0) {
		return fmt.Errorf("%w: lp exponent %v must be positive", ErrInvalidArgument, p)
	}
	if m == 0 || n == 0 {
		return nil
	}

	var norms *device.Buffer[float32]
	if usesNorms(metric) {
		var err error
		norms, err = device.Make[float32](res.Allocator(), m+n)
		if err != nil {
			return fmt.Errorf("pairwise norms: %w", err)
		}
	}

	workers := res.Workers()
	err := res.Submit(func() error {
		var nx, ny []float32
		if norms != nil {
			nx, ny = norms.Data()[:m], norms.Data()[m:]
			workers.ForEach(m+n, func(i int) {
				if i < m {
					nx[i] = vek32.Dot(row(x, i, d), row(x, i, d))
				} else {
					j := i - m
					ny[j] = vek32.Dot(row(y, j, d), row(y, j, d))
				}
			})
		}
		fn := kernel(metric, p)
		workers.ForEach(m, func(i int) {
			xi := row(x, i, d)
			dst := out[i*n : (i+1)*n]
			for j := range n {
				var nxi, nyj float32
				if norms != nil {
					nxi, nyj = nx[i], ny[j]
				}
				dst[j] = fn(xi, row(y, j, d), nxi, nyj)
			}
		})
		return nil
	})
	if norms != nil {
		if err != nil {
			norms.Release()
			return err
		}
		device.Release(res, norms)
	}
	return err
}

func row(v []float32, i, d int) []float32 { return v[i*d : (i+1)*d] }

func usesNorms(m Metric) bool {
	return m == L2Expanded || m == L2SqrtExpanded || m == Cosine
}

// kernel returns the distance of two rows given their squared norms, which
// are zero for metrics that do not use them.
func kernel(m Metric, p float32) func(a, b []float32, na, nb float32) float32 {
	switch m {
	case L2Expanded:
		return func(a, b []float32, na, nb float32) float32 {
			return max(0, na+nb-2*vek32.Dot(a, b))
		}
	case L2SqrtExpanded:
		return func(a, b []float32, na, nb float32) float32 {
			return sqrt(max(0, na+nb-2*vek32.Dot(a, b)))
		}
	case L2Unexpanded:
		return func(a, b []float32, _, _ float32) float32 {
			return squaredDiff(a, b)
		}
	case L2SqrtUnexpanded:
		return func(a, b []float32, _, _ float32) float32 {
			return sqrt(squaredDiff(a, b))
		}
	case InnerProduct:
		return func(a, b []float32, _, _ float32) float32 {
			return vek32.Dot(a, b)
		}
	case Cosine:
		return func(a, b []float32, na, nb float32) float32 {
			if na == 0 || nb == 0 {
				return 1
			}
			return 1 - vek32.Dot(a, b)/sqrt(na*nb)
		}
	case L1:
		return func(a, b []float32, _, _ float32) float32 {
			var s float32
			for i := range a {
				s += abs(a[i] - b[i])
			}
			return s
		}
	case Linf:
		return func(a, b []float32, _, _ float32) float32 {
			var s float32
			for i := range a {
				s = max(s, abs(a[i]-b[i]))
			}
			return s
		}
	case Canberra:
		return func(a, b []float32, _, _ float32) float32 {
			var s float32
			for i := range a {
				if den := abs(a[i]) + abs(b[i]); den != 0 {
					s += abs(a[i]-b[i]) / den
				}
			}
			return s
		}
	case Hellinger:
		return func(a, b []float32, _, _ float32) float32 {
			var s float32
			for i := range a {
				s += sqrt(a[i] * b[i])
			}
			return sqrt(max(0, 1-s))
		}
	case Correlation:
		return correlation
	case LpUnexpanded:
		pp := float64(p)
		return func(a, b []float32, _, _ float32) float32 {
			var s float64
			for i := range a {
				s += math.Pow(float64(abs(a[i]-b[i])), pp)
			}
			return float32(math.Pow(s, 1/pp))
		}
	}
	panic(fmt.Sprintf("distance: no kernel for %v", m))
}

func correlation(a, b []float32, _, _ float32) float32 {
	n := float32(len(a))
	ma, mb := vek32.Sum(a)/n, vek32.Sum(b)/n
	var cov, va, vb float32
	for i := range a {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 1
	}
	return 1 - cov/sqrt(va*vb)
}

func sqrt(v float32) float32 { return float32(math.Sqrt(float64(v))) }
func abs(v float32) float32  { return float32(math.Abs(float64(v))) }

func squaredDiff(a, b []float32) float32 {
	var s float32
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
