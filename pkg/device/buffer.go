package device

import (
	"fmt"
	"sync"
	"unsafe"
)

// Buffer is a typed view over memory obtained from an Allocator.
type Buffer[T any] struct {
	raw   []byte
	data  []T
	alloc Allocator
	once  sync.Once
}

// Make allocates room for n elements of T from a.
func Make[T any](a Allocator, n int) (*Buffer[T], error) {
	if n < 0 {
		return nil, fmt.Errorf("make buffer of %d elements: negative length", n)
	}
	b := &Buffer[T]{alloc: a}
	if n == 0 {
		b.data = []T{}
		return b, nil
	}
	var zero T
	raw, err := a.Allocate(n * int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, err
	}
	b.raw = raw
	b.data = unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), n)
	return b, nil
}

// MakeFrom allocates a buffer and copies src into it.
func MakeFrom[T any](a Allocator, src []T) (*Buffer[T], error) {
	b, err := Make[T](a, len(src))
	if err != nil {
		return nil, err
	}
	copy(b.data, src)
	return b, nil
}

// Data returns the element slice. It must not be used after Release.
func (b *Buffer[T]) Data() []T { return b.data }

// Len returns the number of elements.
func (b *Buffer[T]) Len() int { return len(b.data) }

// Release returns the memory to its allocator. Extra calls are no-ops.
func (b *Buffer[T]) Release() {
	b.once.Do(func() {
		if len(b.raw) > 0 {
			b.alloc.Release(b.raw)
		}
		b.raw, b.data = nil, nil
	})
}
