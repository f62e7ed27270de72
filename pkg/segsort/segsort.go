// Package segsort sorts key/value pairs independently within contiguous
// segments of a flat array.
//
// Sorting follows a two-phase contract: query RequiredScratchBytes, obtain a
// scratch buffer of at least that size, then call SortPairs. SortByKey does
// all three against a device.Resources.
package segsort

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/samcharles93/primkit/internal/ordkey"
	"github.com/samcharles93/primkit/pkg/device"
)

// Key is the set of supported key types.
type Key = ordkey.Key

var (
	ErrSizeMismatch   = errors.New("keys and values differ in length")
	ErrInvalidOffsets = errors.New("invalid segment offsets")
	ErrInvalidScratch = errors.New("invalid scratch buffer")
)

// Segments at or below this length are insertion sorted.
const insertionThreshold = 32

// scratchWords is the number of 8-byte words of scratch used per element:
// encoded keys, their ping-pong copy, and two permutation arrays.
const scratchWords = 4

// RequiredScratchBytes returns the scratch size SortPairs needs to sort n
// pairs split into the given number of segments.
func RequiredScratchBytes[K Key](n, segments int) int {
	if n <= 0 || segments <= 0 {
		return 0
	}
	return n * scratchWords * 8
}

// ValidateOffsets checks that offsets describes len(offsets)-1 segments
// inside [0, n).
func ValidateOffsets(offsets []int, n int) error {
	if len(offsets) == 0 {
		return fmt.Errorf("%w: empty offsets", ErrInvalidOffsets)
	}
	if offsets[0] < 0 {
		return fmt.Errorf("%w: first offset %d is negative", ErrInvalidOffsets, offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return fmt.Errorf("%w: offset %d (%d) below offset %d (%d)", ErrInvalidOffsets, i, offsets[i], i-1, offsets[i-1])
		}
	}
	if last := offsets[len(offsets)-1]; last > n {
		return fmt.Errorf("%w: last offset %d beyond %d elements", ErrInvalidOffsets, last, n)
	}
	return nil
}

func validate[K Key](keys []K, vals []int, offsets []int) error {
	if len(keys) != len(vals) {
		return fmt.Errorf("%w: %d keys, %d values", ErrSizeMismatch, len(keys), len(vals))
	}
	return ValidateOffsets(offsets, len(keys))
}

// SortPairs submits a segmented sort of keys, carrying vals along, to the
// resource stream. Segment i is [offsets[i], offsets[i+1]). Keys ascend
// unless descending is set; equal keys keep their relative order. All
// argument checks happen before submission.
func SortPairs[K Key](res *device.Resources, keys []K, vals []int, offsets []int, descending bool, scratch []byte) error {
	if err := validate(keys, vals, offsets); err != nil {
		return err
	}
	need := RequiredScratchBytes[K](len(keys), len(offsets)-1)
	if need == 0 {
		return nil
	}
	if len(scratch) < need {
		return fmt.Errorf("%w: %d bytes, need %d", ErrInvalidScratch, len(scratch), need)
	}
	if uintptr(unsafe.Pointer(&scratch[0]))%8 != 0 {
		return fmt.Errorf("%w: not 8-byte aligned", ErrInvalidScratch)
	}

	n := len(keys)
	words := unsafe.Slice((*uint64)(unsafe.Pointer(&scratch[0])), n*scratchWords)
	ws := workspace{
		enc:     words[:n],
		alt:     words[n : 2*n],
		perm:    unsafe.Slice((*int)(unsafe.Pointer(&words[2*n])), n),
		altPerm: unsafe.Slice((*int)(unsafe.Pointer(&words[3*n])), n),
	}
	workers := res.Workers()
	return res.Submit(func() error {
		workers.ForEach(len(offsets)-1, func(s int) {
			sortSegment(keys, vals, offsets[s], offsets[s+1], descending, ws)
		})
		return nil
	})
}

// SortByKey sizes, allocates and releases scratch around SortPairs. The
// scratch is released on the stream after the sort.
func SortByKey[K Key](res *device.Resources, keys []K, vals []int, offsets []int, descending bool) error {
	if err := validate(keys, vals, offsets); err != nil {
		return err
	}
	need := RequiredScratchBytes[K](len(keys), len(offsets)-1)
	if need == 0 {
		return nil
	}
	scratch, err := device.Make[byte](res.Allocator(), need)
	if err != nil {
		return fmt.Errorf("segmented sort scratch: %w", err)
	}
	if err := SortPairs(res, keys, vals, offsets, descending, scratch.Data()); err != nil {
		scratch.Release()
		return err
	}
	device.Release(res, scratch)
	return nil
}

// UniformOffsets returns the offsets of n segments of equal width.
func UniformOffsets(n, width int) []int {
	offsets := make([]int, n+1)
	for i := range offsets {
		offsets[i] = i * width
	}
	return offsets
}
