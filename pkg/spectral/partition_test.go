package spectral

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/primkit/internal/logger"
	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/sparse"
)

// twoCliques builds two 4-cliques joined by a single edge of weight bridge
// between vertices 3 and 4.
func twoCliques(t *testing.T, bridge float64) *sparse.CSR[float64] {
	t.Helper()
	b := sparse.NewBuilder[float64](8)
	for i := range 8 {
		var cols []int
		var vals []float64
		lo := (i / 4) * 4
		for j := lo; j < lo+4; j++ {
			if j != i {
				cols = append(cols, j)
				vals = append(vals, 1)
			}
		}
		if i == 3 {
			cols, vals = append(cols, 4), append(vals, bridge)
		}
		if i == 4 {
			cols, vals = append([]int{3}, cols...), append([]float64{bridge}, vals...)
		}
		b.AddRow(cols, vals)
	}
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func newResources(t *testing.T, log logger.Logger) *device.Resources {
	t.Helper()
	res := device.NewResources(device.Config{Allocator: device.NewHostAllocator(0), NumWorkers: 2, Logger: log})
	t.Cleanup(func() { _ = res.Close() })
	return res
}

func TestPartitionSeparatesCliques(t *testing.T) {
	t.Parallel()
	res := newResources(t, nil)
	g := twoCliques(t, 0.1)

	clusters := make([]int, 8)
	eigVals := make([]float64, 2)
	eigVecs := make([]float64, 16)
	stats, err := Partition(context.Background(), res, g, EigenConfig{NEigVecs: 2}, ClusterConfig{NClusters: 2, Seed: 1}, clusters, eigVals, eigVecs)
	require.NoError(t, err)

	for i := 1; i < 4; i++ {
		assert.Equal(t, clusters[0], clusters[i])
		assert.Equal(t, clusters[4], clusters[4+i])
	}
	assert.NotEqual(t, clusters[0], clusters[4])
	assert.InDelta(t, 0, eigVals[0], 1e-9)
	assert.Less(t, eigVals[1], 1.0)
	assert.Equal(t, 1, stats.EigenIters)
	assert.GreaterOrEqual(t, stats.ClusterIters, 1)

	edgeCut, cost, err := AnalyzePartition(res, g, 2, clusters)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, edgeCut, 1e-9)
	assert.InDelta(t, 0.05, cost, 1e-9)
}

func TestAnalyzePartitionSkipsEmptyParts(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	res := newResources(t, logger.JSON(&buf, slog.LevelDebug))
	g := twoCliques(t, 0.5)

	clusters := []int{0, 0, 0, 0, 2, 2, 2, 2}
	edgeCut, cost, err := AnalyzePartition(res, g, 3, clusters)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, edgeCut, 1e-9)
	assert.InDelta(t, 0.25, cost, 1e-9)
	assert.Contains(t, buf.String(), `"msg":"empty partition"`)
	assert.Contains(t, buf.String(), `"cluster":1`)
}

func TestAnalyzePartitionUnbalanced(t *testing.T) {
	t.Parallel()
	res := newResources(t, nil)
	g := twoCliques(t, 1)

	// Vertex 3 moves to the second part: it cuts its three clique edges
	// and keeps the bridge.
	clusters := []int{0, 0, 0, 1, 1, 1, 1, 1}
	edgeCut, cost, err := AnalyzePartition(res, g, 2, clusters)
	require.NoError(t, err)
	assert.InDelta(t, 3, edgeCut, 1e-9)
	assert.InDelta(t, 3.0/3+3.0/5, cost, 1e-9)
}

func TestPartitionValidates(t *testing.T) {
	t.Parallel()
	res := newResources(t, nil)
	g := twoCliques(t, 1)
	ctx := context.Background()

	_, err := Partition(ctx, res, g, EigenConfig{NEigVecs: 0}, ClusterConfig{NClusters: 2}, make([]int, 8), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Partition(ctx, res, g, EigenConfig{NEigVecs: 2}, ClusterConfig{NClusters: 9}, make([]int, 8), make([]float64, 2), make([]float64, 16))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Partition(ctx, res, g, EigenConfig{NEigVecs: 2}, ClusterConfig{NClusters: 2}, make([]int, 7), make([]float64, 2), make([]float64, 16))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = Partition(ctx, res, g, EigenConfig{NEigVecs: 2}, ClusterConfig{NClusters: 2}, make([]int, 8), make([]float64, 2), make([]float64, 15))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = AnalyzePartition(res, g, 2, []int{0, 0, 0, 0, 1, 1, 1, 5})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	rect, err := sparse.NewCSR(2, 3, []int{0, 1, 1}, []int{2}, []float64{1})
	require.NoError(t, err)
	_, _, err = AnalyzePartition(res, rect, 1, []int{0, 0})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWhitenStandardizesColumns(t *testing.T) {
	t.Parallel()
	v := []float64{0.5, 0.5, 0.5}
	whiten(v)
	assert.Equal(t, []float64{0, 0, 0}, v)

	w := []float64{1, 3}
	whiten(w)
	assert.InDeltaSlice(t, []float64{-1, 1}, w, 1e-12)

	u := []float64{2, 4, 6, 8}
	whiten(u)
	var mean, ss float64
	for _, x := range u {
		mean += x
		ss += x * x
	}
	assert.InDelta(t, 0, mean, 1e-12)
	assert.InDelta(t, float64(len(u)), ss, 1e-12)
}
