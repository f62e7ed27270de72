package device

import (
	"math/bits"
	"sync"
)

const (
	minPoolClass = 6  // 64 B
	maxPoolClass = 30 // 1 GiB
)

// PoolStats reports PoolAllocator activity.
type PoolStats struct {
	Hits      int64
	Misses    int64
	Cached    int64 // bytes parked in free lists
	Allocated int64 // bytes obtained from the upstream allocator
}

// PoolAllocator keeps released buffers in power-of-two size classes and
// hands them out again. It is a caller-supplied optimisation: results do not
// depend on whether one is in use.
type PoolAllocator struct {
	upstream Allocator
	maxCache int64

	mu    sync.Mutex
	free  [maxPoolClass + 1][][]byte
	stats PoolStats
}

// NewPoolAllocator wraps upstream (nil means DefaultAllocator). maxCache
// bounds the bytes parked in free lists; <= 0 means unbounded.
func NewPoolAllocator(upstream Allocator, maxCache int64) *PoolAllocator {
	if upstream == nil {
		upstream = DefaultAllocator()
	}
	return &PoolAllocator{upstream: upstream, maxCache: maxCache}
}

func sizeClass(n int) int {
	if n <= 1<<minPoolClass {
		return minPoolClass
	}
	return bits.Len(uint(n - 1))
}

func (p *PoolAllocator) Allocate(n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	class := sizeClass(n)
	if class > maxPoolClass {
		return p.upstream.Allocate(n)
	}

	p.mu.Lock()
	if list := p.free[class]; len(list) > 0 {
		buf := list[len(list)-1]
		p.free[class] = list[:len(list)-1]
		p.stats.Hits++
		p.stats.Cached -= int64(cap(buf))
		p.mu.Unlock()
		return buf[:n], nil
	}
	p.stats.Misses++
	p.mu.Unlock()

	buf, err := p.upstream.Allocate(1 << class)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.stats.Allocated += int64(len(buf))
	p.mu.Unlock()
	return buf[:n], nil
}

func (p *PoolAllocator) Release(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	class := sizeClass(cap(buf))
	if class > maxPoolClass || cap(buf) != 1<<class {
		p.upstream.Release(buf)
		return
	}
	full := buf[:cap(buf)]

	p.mu.Lock()
	if p.maxCache > 0 && p.stats.Cached+int64(len(full)) > p.maxCache {
		p.stats.Allocated -= int64(len(full))
		p.mu.Unlock()
		p.upstream.Release(full)
		return
	}
	p.free[class] = append(p.free[class], full)
	p.stats.Cached += int64(len(full))
	p.mu.Unlock()
}

// Stats returns a snapshot of pool counters.
func (p *PoolAllocator) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Trim returns every cached buffer to the upstream allocator.
func (p *PoolAllocator) Trim() {
	p.mu.Lock()
	var drained [][]byte
	for class := range p.free {
		drained = append(drained, p.free[class]...)
		p.free[class] = nil
	}
	for _, b := range drained {
		p.stats.Allocated -= int64(len(b))
	}
	p.stats.Cached = 0
	p.mu.Unlock()

	for _, b := range drained {
		p.upstream.Release(b)
	}
}
