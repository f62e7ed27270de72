package knn

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/distance"
)

func newResources(t *testing.T) (*device.Resources, *device.HostAllocator) {
	t.Helper()
	alloc := device.NewHostAllocator(0)
	res := device.NewResources(device.Config{Allocator: alloc, NumWorkers: 4})
	t.Cleanup(func() { _ = res.Close() })
	return res, alloc
}

func TestSearchOnALine(t *testing.T) {
	t.Parallel()
	index := []float32{0, 10, 20, 30, 40, 50, 60}
	queries := []float32{12, 58}

	for _, tile := range []int{0, 2, 3} {
		res, alloc := newResources(t)
		dists := make([]float32, 6)
		ids := make([]int, 6)
		p := Params{Metric: distance.L1, TileRows: tile}
		require.NoError(t, Search(res, index, queries, 7, 2, 1, 3, p, dists, ids))
		require.NoError(t, res.Sync(context.Background()))

		assert.Equal(t, []int{1, 2, 0, 6, 5, 4}, ids, "tile=%d", tile)
		assert.Equal(t, []float32{2, 8, 12, 2, 8, 18}, dists, "tile=%d", tile)
		assert.EqualValues(t, 0, alloc.Live(), "tile=%d", tile)
	}
}

func TestSearchInnerProductPrefersLargest(t *testing.T) {
	t.Parallel()
	res, _ := newResources(t)
	index := []float32{1, 0, 0, 1, 3, 3, -1, -1}
	queries := []float32{1, 2}
	dists := make([]float32, 2)
	ids := make([]int, 2)

	require.NoError(t, Search(res, index, queries, 4, 1, 2, 2, Params{Metric: distance.InnerProduct, TileRows: 3}, dists, ids))
	require.NoError(t, res.Sync(context.Background()))

	assert.Equal(t, []int{2, 1}, ids)
	assert.Equal(t, []float32{9, 2}, dists)
}

func TestSearchTiledMatchesUntiled(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(5))
	const nIndex, nQueries, dim, k = 300, 7, 8, 10
	index := make([]float32, nIndex*dim)
	queries := make([]float32, nQueries*dim)
	for i := range index {
		index[i] = rng.Float32()
	}
	for i := range queries {
		queries[i] = rng.Float32()
	}

	run := func(tile int) ([]float32, []int) {
		res, _ := newResources(t)
		dists := make([]float32, nQueries*k)
		ids := make([]int, nQueries*k)
		p := Params{Metric: distance.L2SqrtUnexpanded, TileRows: tile}
		require.NoError(t, Search(res, index, queries, nIndex, nQueries, dim, k, p, dists, ids))
		require.NoError(t, res.Sync(context.Background()))
		return dists, ids
	}

	wantDists, wantIDs := run(0)
	for _, tile := range []int{7, 64, 299} {
		dists, ids := run(tile)
		assert.Equal(t, wantIDs, ids, "tile=%d", tile)
		assert.Equal(t, wantDists, dists, "tile=%d", tile)
	}
	for q := range nQueries {
		row := wantDists[q*k : (q+1)*k]
		for j := 1; j < k; j++ {
			assert.LessOrEqual(t, row[j-1], row[j])
		}
	}
}

func TestSearchValidates(t *testing.T) {
	t.Parallel()
	res, _ := newResources(t)
	index := make([]float32, 6)
	out := make([]float32, 2)
	ids := make([]int, 2)

	assert.ErrorIs(t, Search(res, index, index[:2], 3, 1, 2, 4, Params{}, out, ids), ErrInvalidArgument)
	assert.ErrorIs(t, Search(res, index, index[:2], 3, 1, 2, 0, Params{}, out, ids), ErrInvalidArgument)
	assert.ErrorIs(t, Search(res, index[:5], index[:2], 3, 1, 2, 2, Params{}, out, ids), ErrInvalidArgument)
	assert.ErrorIs(t, Search(res, index, index[:2], 3, 1, 2, 2, Params{}, out[:1], ids), ErrInvalidArgument)
	assert.Zero(t, res.Stream().Pending())
}

func TestMergePartsTranslatesIDs(t *testing.T) {
	t.Parallel()
	res, _ := newResources(t)
	parts := []Part{
		{Dists: []float32{0.5, 0.9, 0.1, 0.2}, IDs: []int{0, 1, 1, 0}, K: 2},
		{Dists: []float32{0.3, 0.05}, IDs: []int{0, 0}, K: 1, Offset: 10},
	}
	dists := make([]float32, 4)
	ids := make([]int, 4)

	require.NoError(t, MergeParts(res, parts, 2, 2, true, dists, ids))
	require.NoError(t, res.Sync(context.Background()))

	assert.Equal(t, []float32{0.3, 0.5, 0.05, 0.1}, dists)
	assert.Equal(t, []int{10, 0, 10, 1}, ids)

	assert.ErrorIs(t, MergeParts(res, parts, 2, 4, true, make([]float32, 8), make([]int, 8)), ErrInvalidArgument)
	parts[1].IDs = nil
	assert.ErrorIs(t, MergeParts(res, parts, 2, 2, true, dists, ids), ErrInvalidArgument)
}
