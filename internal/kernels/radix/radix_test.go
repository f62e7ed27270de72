package radix

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samcharles93/primkit/pkg/device"
)

func runSelect(t *testing.T, p Params, in []float32) ([]float32, []int) {
	t.Helper()
	w := device.NewWorkers(3)
	t.Cleanup(w.Close)
	parts := Parts(p.Rows, w.Size())
	scratch := make([]uint64, ScratchWords(p, parts))
	vals := make([]float32, p.Rows*p.K)
	idx := make([]int, p.Rows*p.K)
	Select(w, parts, p, in, nil, vals, idx, scratch)
	return vals, idx
}

func checkRows(t *testing.T, p Params, in, vals []float32, idx []int) {
	t.Helper()
	for r := range p.Rows {
		row := in[r*p.Len : (r+1)*p.Len]
		want := slices.Clone(row)
		slices.Sort(want)
		if !p.SelectMin {
			slices.Reverse(want)
		}
		got := slices.Clone(vals[r*p.K : (r+1)*p.K])
		slices.Sort(got)
		exp := slices.Clone(want[:p.K])
		slices.Sort(exp)
		require.Equal(t, exp, got, "row %d", r)

		seen := map[int]bool{}
		for i := range p.K {
			j := idx[r*p.K+i]
			require.False(t, seen[j], "row %d: index %d selected twice", r, j)
			seen[j] = true
			require.Equal(t, row[j], vals[r*p.K+i], "row %d: index %d does not match value", r, j)
		}
	}
}

func TestSelectMatchesReference(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(1))
	for _, bits := range []int{8, 11} {
		for _, fused := range []bool{true, false} {
			for _, selectMin := range []bool{true, false} {
				p := Params{Rows: 7, Len: 300, K: 37, SelectMin: selectMin, BitsPerPass: bits, FusedLastFilter: fused}
				in := make([]float32, p.Rows*p.Len)
				for i := range in {
					// Few distinct values so ties cross the k-th boundary.
					in[i] = float32(rng.Intn(40) - 20)
				}
				vals, idx := runSelect(t, p, in)
				checkRows(t, p, in, vals, idx)
			}
		}
	}
}

func TestSelectWholeRow(t *testing.T) {
	t.Parallel()
	p := Params{Rows: 2, Len: 3, K: 3, SelectMin: true, BitsPerPass: 11, FusedLastFilter: false}
	in := []float32{3, 1, 2, -1, -2, -3}
	vals, idx := runSelect(t, p, in)
	require.Equal(t, in, vals)
	require.Equal(t, []int{0, 1, 2, 0, 1, 2}, idx)
}

func TestSelectExplicitIndices(t *testing.T) {
	t.Parallel()
	w := device.NewWorkers(1)
	defer w.Close()
	p := Params{Rows: 1, Len: 5, K: 2, SelectMin: true, BitsPerPass: 8, FusedLastFilter: true}
	in := []int64{50, 30, 10, 40, 20}
	inIdx := []int{100, 101, 102, 103, 104}
	vals := make([]int64, 2)
	idx := make([]int, 2)
	Select(w, 1, p, in, inIdx, vals, idx, make([]uint64, ScratchWords(p, 1)))

	got := map[int64]int{vals[0]: idx[0], vals[1]: idx[1]}
	require.Equal(t, map[int64]int{10: 102, 20: 104}, got)
}
