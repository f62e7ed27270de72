package ordkey

import (
	"math"
	"sort"
	"testing"
)

func checkOrder[K Key](t *testing.T, vals []K) {
	t.Helper()
	enc := Encoder[K]()
	sorted := append([]K(nil), vals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i := 1; i < len(sorted); i++ {
		a, b := enc(sorted[i-1]), enc(sorted[i])
		if sorted[i-1] < sorted[i] && a >= b {
			t.Fatalf("encoding of %v (%#x) not below %v (%#x)", sorted[i-1], a, sorted[i], b)
		}
	}
}

func TestEncoderPreservesOrder(t *testing.T) {
	t.Parallel()
	checkOrder(t, []float32{-float32(math.Inf(1)), -3.5, -1e-30, 0, 1e-30, 2, 1e30, float32(math.Inf(1))})
	checkOrder(t, []float64{-1e300, -2, -0.5, 0, 0.25, 7, 1e300})
	checkOrder(t, []int32{math.MinInt32, -7, -1, 0, 1, 9, math.MaxInt32})
	checkOrder(t, []int64{math.MinInt64, -7, 0, 3, math.MaxInt64})
	checkOrder(t, []uint32{0, 1, 1 << 31, math.MaxUint32})
	checkOrder(t, []uint64{0, 5, math.MaxUint64})
}

func TestEncodeSliceDescending(t *testing.T) {
	t.Parallel()
	src := []int32{-5, 3, 0}
	asc := make([]uint64, 3)
	desc := make([]uint64, 3)
	EncodeSlice(asc, src, false)
	EncodeSlice(desc, src, true)
	if !(asc[0] < asc[2] && asc[2] < asc[1]) {
		t.Fatalf("ascending encoding out of order: %v", asc)
	}
	if !(desc[1] < desc[2] && desc[2] < desc[0]) {
		t.Fatalf("descending encoding out of order: %v", desc)
	}
	for _, d := range desc {
		if d > math.MaxUint32 {
			t.Fatalf("32-bit key encoded above 32 bits: %#x", d)
		}
	}
}

func TestWorst(t *testing.T) {
	t.Parallel()
	if !math.IsInf(float64(Worst[float32](true)), 1) {
		t.Fatal("float32 worst for min-select should be +Inf")
	}
	if Worst[int64](false) != math.MinInt64 {
		t.Fatal("int64 worst for max-select should be MinInt64")
	}
	if Worst[uint32](false) != 0 {
		t.Fatal("uint32 worst for max-select should be 0")
	}
	if Bits[float64]() != 64 || Bits[int32]() != 32 {
		t.Fatal("unexpected key widths")
	}
}
