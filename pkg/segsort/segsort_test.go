package segsort

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/primkit/pkg/device"
)

func newResources(t *testing.T) (*device.Resources, *device.HostAllocator) {
	t.Helper()
	alloc := device.NewHostAllocator(0)
	res := device.NewResources(device.Config{Allocator: alloc, NumWorkers: 4})
	t.Cleanup(func() { _ = res.Close() })
	return res, alloc
}

func TestSortByKeySegments(t *testing.T) {
	t.Parallel()
	res, alloc := newResources(t)

	keys := []float32{3, 1, 2, 9, 7, 8, 5}
	vals := []int{0, 1, 2, 3, 4, 5, 6}
	offsets := []int{0, 3, 3, 6, 7}

	require.NoError(t, SortByKey(res, keys, vals, offsets, false))
	require.NoError(t, res.Sync(context.Background()))

	assert.Equal(t, []float32{1, 2, 3, 7, 8, 9, 5}, keys)
	assert.Equal(t, []int{1, 2, 0, 4, 5, 3, 6}, vals)
	assert.EqualValues(t, 0, alloc.Live())
}

func TestSortByKeyDescending(t *testing.T) {
	t.Parallel()
	res, _ := newResources(t)

	keys := []int32{-4, 10, 0, 10, 3}
	vals := []int{0, 1, 2, 3, 4}
	require.NoError(t, SortByKey(res, keys, vals, []int{0, 5}, true))
	require.NoError(t, res.Sync(context.Background()))

	assert.Equal(t, []int32{10, 10, 3, 0, -4}, keys)
	assert.Equal(t, []int{1, 3, 4, 2, 0}, vals, "equal keys keep their order")
}

func TestSortByKeyLargeSegmentsMatchReference(t *testing.T) {
	t.Parallel()
	res, _ := newResources(t)
	rng := rand.New(rand.NewSource(7))

	const n = 5000
	keys := make([]float64, n)
	vals := make([]int, n)
	for i := range keys {
		keys[i] = rng.NormFloat64() * 1000
		vals[i] = i
	}
	orig := append([]float64(nil), keys...)
	offsets := []int{0, 40, 1700, 1700, 4999, n}

	require.NoError(t, SortByKey(res, keys, vals, offsets, false))
	require.NoError(t, res.Sync(context.Background()))

	for s := 0; s+1 < len(offsets); s++ {
		lo, hi := offsets[s], offsets[s+1]
		assert.True(t, sort.Float64sAreSorted(keys[lo:hi]), "segment %d not sorted", s)
		for i := lo; i < hi; i++ {
			require.Equal(t, orig[vals[i]], keys[i], "pairing broken at %d", i)
			require.True(t, vals[i] >= lo && vals[i] < hi, "value escaped segment %d", s)
		}
	}
}

func TestSortPairsRejectsSizeMismatchBeforeSubmit(t *testing.T) {
	t.Parallel()
	res, _ := newResources(t)

	err := SortPairs(res, []uint32{1, 2, 3}, []int{0, 1}, []int{0, 3}, false, make([]byte, 1024))
	assert.ErrorIs(t, err, ErrSizeMismatch)
	assert.Zero(t, res.Stream().Pending())

	err = SortByKey(res, []uint32{1, 2, 3}, []int{0, 1}, []int{0, 3}, false)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestSortPairsScratchContract(t *testing.T) {
	t.Parallel()
	res, _ := newResources(t)

	keys := []int64{5, -1, 3}
	vals := []int{0, 1, 2}
	need := RequiredScratchBytes[int64](len(keys), 1)
	assert.Positive(t, need)
	assert.Zero(t, RequiredScratchBytes[int64](0, 0))

	err := SortPairs(res, keys, vals, []int{0, 3}, false, make([]byte, need-1))
	assert.ErrorIs(t, err, ErrInvalidScratch)

	scratch, err := device.Make[byte](device.NewHostAllocator(0), need)
	require.NoError(t, err)
	require.NoError(t, SortPairs(res, keys, vals, []int{0, 3}, false, scratch.Data()))
	require.NoError(t, res.Sync(context.Background()))
	assert.Equal(t, []int64{-1, 3, 5}, keys)
	assert.Equal(t, []int{1, 2, 0}, vals)
}

func TestValidateOffsets(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateOffsets([]int{0, 2, 2, 4}, 4))
	assert.ErrorIs(t, ValidateOffsets(nil, 4), ErrInvalidOffsets)
	assert.ErrorIs(t, ValidateOffsets([]int{0, 3, 2}, 4), ErrInvalidOffsets)
	assert.ErrorIs(t, ValidateOffsets([]int{0, 5}, 4), ErrInvalidOffsets)
	assert.Equal(t, []int{0, 3, 6, 9}, UniformOffsets(3, 3))
}
