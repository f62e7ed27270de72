package device

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Allocator hands out device memory. Buffers are released with Release once
// every operation that uses them has been submitted ahead of the release.
type Allocator interface {
	Allocate(bytes int) ([]byte, error)
	Release(buf []byte)
}

// HostAllocator allocates 8-byte aligned memory from the Go heap. A non-zero
// limit caps the bytes that may be live at once.
type HostAllocator struct {
	limit int64
	live  atomic.Int64
	peak  atomic.Int64
}

// NewHostAllocator returns a HostAllocator. limit <= 0 means unlimited.
func NewHostAllocator(limit int64) *HostAllocator {
	return &HostAllocator{limit: limit}
}

func (a *HostAllocator) Allocate(bytes int) ([]byte, error) {
	if bytes < 0 {
		return nil, fmt.Errorf("allocate %d bytes: negative size", bytes)
	}
	if bytes == 0 {
		return []byte{}, nil
	}
	live := a.live.Add(int64(bytes))
	if a.limit > 0 && live > a.limit {
		a.live.Add(-int64(bytes))
		return nil, fmt.Errorf("allocate %d bytes (%d live, limit %d): %w", bytes, live-int64(bytes), a.limit, ErrOutOfMemory)
	}
	for {
		peak := a.peak.Load()
		if live <= peak || a.peak.CompareAndSwap(peak, live) {
			break
		}
	}
	words := make([]uint64, (bytes+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), bytes), nil
}

func (a *HostAllocator) Release(buf []byte) {
	if len(buf) == 0 {
		return
	}
	a.live.Add(-int64(len(buf)))
}

// Live returns the bytes currently allocated.
func (a *HostAllocator) Live() int64 { return a.live.Load() }

// Peak returns the high-water mark of live bytes.
func (a *HostAllocator) Peak() int64 { return a.peak.Load() }

var (
	defaultMu    sync.Mutex
	defaultAlloc *HostAllocator
)

// DefaultAllocator returns the process-wide allocator used when a Resources
// is built without one. It is created on first use.
func DefaultAllocator() *HostAllocator {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultAlloc == nil {
		defaultAlloc = NewHostAllocator(0)
	}
	return defaultAlloc
}

// ShutdownDefault tears down the process-wide allocator and returns the
// number of bytes still live in it. A later DefaultAllocator call creates a
// fresh one.
func ShutdownDefault() int64 {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultAlloc == nil {
		return 0
	}
	leaked := defaultAlloc.Live()
	defaultAlloc = nil
	return leaked
}
