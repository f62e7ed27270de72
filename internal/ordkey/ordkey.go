// Package ordkey maps numeric keys onto unsigned integers whose natural
// order matches the numeric order of the keys, so radix passes can bucket
// any key type by plain digit extraction.
package ordkey

import "math"

// Key is the set of key types the selection and sorting primitives accept.
type Key interface {
	float32 | float64 | int32 | int64 | uint32 | uint64
}

// Bits returns the number of significant bits in the encoding of K.
func Bits[K Key]() int {
	var zero K
	switch any(zero).(type) {
	case float32, int32, uint32:
		return 32
	default:
		return 64
	}
}

// Encoder returns the order-preserving encoding for K.
//
// Floats: positive values get the sign bit set, negative values have every
// bit flipped. Signed integers: the sign bit is flipped.
func Encoder[K Key]() func(K) uint64 {
	var zero K
	var f any
	switch any(zero).(type) {
	case float32:
		f = func(v float32) uint64 { return uint64(float32Bits(v)) }
	case float64:
		f = func(v float64) uint64 { return float64Bits(v) }
	case int32:
		f = func(v int32) uint64 { return uint64(uint32(v) ^ 1<<31) }
	case int64:
		f = func(v int64) uint64 { return uint64(v) ^ 1<<63 }
	case uint32:
		f = func(v uint32) uint64 { return uint64(v) }
	case uint64:
		f = func(v uint64) uint64 { return v }
	}
	return f.(func(K) uint64)
}

// EncodeSlice writes the encoding of src into dst. If descending is set the
// encoding is inverted so an ascending pass over dst visits src in
// descending order.
func EncodeSlice[K Key](dst []uint64, src []K, descending bool) {
	if len(src) == 0 {
		return
	}
	_ = dst[len(src)-1]
	switch s := any(src).(type) {
	case []float32:
		for i, v := range s {
			dst[i] = uint64(float32Bits(v))
		}
	case []float64:
		for i, v := range s {
			dst[i] = float64Bits(v)
		}
	case []int32:
		for i, v := range s {
			dst[i] = uint64(uint32(v) ^ 1<<31)
		}
	case []int64:
		for i, v := range s {
			dst[i] = uint64(v) ^ 1<<63
		}
	case []uint32:
		for i, v := range s {
			dst[i] = uint64(v)
		}
	case []uint64:
		copy(dst, s)
	}
	if descending {
		mask := Mask[K]()
		for i := range src {
			dst[i] ^= mask
		}
	}
}

// Mask has the low Bits[K]() bits set.
func Mask[K Key]() uint64 {
	if Bits[K]() == 32 {
		return math.MaxUint32
	}
	return math.MaxUint64
}

// Worst returns the key that loses to every other key: the largest value
// when selecting minima, the lowest when selecting maxima.
func Worst[K Key](selectMin bool) K {
	var zero K
	var v any
	switch any(zero).(type) {
	case float32:
		v = float32(math.Inf(boolSign(selectMin)))
	case float64:
		v = math.Inf(boolSign(selectMin))
	case int32:
		v = pick[int32](selectMin, math.MaxInt32, math.MinInt32)
	case int64:
		v = pick[int64](selectMin, math.MaxInt64, math.MinInt64)
	case uint32:
		v = pick[uint32](selectMin, math.MaxUint32, 0)
	case uint64:
		v = pick[uint64](selectMin, math.MaxUint64, 0)
	}
	return v.(K)
}

func float32Bits(v float32) uint32 {
	b := math.Float32bits(v)
	if b&(1<<31) != 0 {
		return ^b
	}
	return b | 1<<31
}

func float64Bits(v float64) uint64 {
	b := math.Float64bits(v)
	if b&(1<<63) != 0 {
		return ^b
	}
	return b | 1<<63
}

func boolSign(positive bool) int {
	if positive {
		return 1
	}
	return -1
}

func pick[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
