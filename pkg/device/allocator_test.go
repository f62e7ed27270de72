package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostAllocatorLimit(t *testing.T) {
	t.Parallel()
	a := NewHostAllocator(1024)

	buf, err := a.Allocate(1000)
	require.NoError(t, err)
	assert.Len(t, buf, 1000)
	assert.EqualValues(t, 1000, a.Live())

	_, err = a.Allocate(100)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.EqualValues(t, 1000, a.Live())

	a.Release(buf)
	assert.EqualValues(t, 0, a.Live())
	assert.EqualValues(t, 1000, a.Peak())
}

func TestPoolAllocatorReuses(t *testing.T) {
	t.Parallel()
	up := NewHostAllocator(0)
	p := NewPoolAllocator(up, 0)

	b1, err := p.Allocate(100)
	require.NoError(t, err)
	assert.Len(t, b1, 100)
	p.Release(b1)

	b2, err := p.Allocate(120)
	require.NoError(t, err)
	assert.Len(t, b2, 120)

	st := p.Stats()
	assert.EqualValues(t, 1, st.Hits)
	assert.EqualValues(t, 1, st.Misses)
	assert.EqualValues(t, 128, st.Allocated)

	p.Release(b2)
	p.Trim()
	assert.EqualValues(t, 0, up.Live())
	assert.EqualValues(t, 0, p.Stats().Cached)
}

func TestPoolAllocatorCacheBound(t *testing.T) {
	t.Parallel()
	up := NewHostAllocator(0)
	p := NewPoolAllocator(up, 256)

	a, _ := p.Allocate(256)
	b, _ := p.Allocate(256)
	p.Release(a)
	p.Release(b)
	assert.EqualValues(t, 256, p.Stats().Cached)
	assert.EqualValues(t, 256, up.Live())
}

func TestBufferTypedView(t *testing.T) {
	t.Parallel()
	a := NewHostAllocator(0)
	b, err := Make[float64](a, 16)
	require.NoError(t, err)
	assert.Equal(t, 16, b.Len())
	assert.EqualValues(t, 128, a.Live())

	for i := range b.Data() {
		b.Data()[i] = float64(i)
	}
	assert.Equal(t, 15.0, b.Data()[15])

	b.Release()
	b.Release()
	assert.EqualValues(t, 0, a.Live())
}

func TestMakeFromCopies(t *testing.T) {
	t.Parallel()
	src := []int{3, 1, 2}
	b, err := MakeFrom(NewHostAllocator(0), src)
	require.NoError(t, err)
	b.Data()[0] = 9
	assert.Equal(t, 3, src[0])
}

func TestReleaseIsStreamOrdered(t *testing.T) {
	t.Parallel()
	a := NewHostAllocator(0)
	res := NewResources(Config{Allocator: a, NumWorkers: 2})
	defer res.Close()

	buf, err := Make[int32](a, 8)
	require.NoError(t, err)

	gate := make(chan struct{})
	require.NoError(t, res.Submit(func() error {
		<-gate
		return nil
	}))
	Release(res, buf)
	assert.EqualValues(t, 32, a.Live())

	close(gate)
	require.NoError(t, res.Sync(context.Background()))
	assert.EqualValues(t, 0, a.Live())
}

func TestDefaultAllocatorLifecycle(t *testing.T) {
	a := DefaultAllocator()
	assert.Same(t, a, DefaultAllocator())
	ShutdownDefault()
	assert.NotSame(t, a, DefaultAllocator())
}
