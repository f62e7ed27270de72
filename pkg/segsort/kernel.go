package segsort

import (
	"unsafe"

	"github.com/samcharles93/primkit/internal/ordkey"
)

type workspace struct {
	enc, alt      []uint64
	perm, altPerm []int
}

func sortSegment[K Key](keys []K, vals []int, lo, hi int, descending bool, ws workspace) {
	m := hi - lo
	if m <= 1 {
		return
	}
	enc := ws.enc[lo:hi]
	ordkey.EncodeSlice(enc, keys[lo:hi], descending)

	if m <= insertionThreshold {
		insertionSort(enc, keys[lo:hi], vals[lo:hi])
		return
	}

	perm := ws.perm[lo:hi]
	for i := range perm {
		perm[i] = i
	}
	perm = radixSort(enc, ws.alt[lo:hi], perm, ws.altPerm[lo:hi], ordkey.Bits[K]())

	// The encoded keys are no longer needed, so their words hold the
	// gathered keys; the spare permutation array holds the gathered values.
	sortedVals := ws.altPerm[lo:hi]
	if &sortedVals[0] == &perm[0] {
		sortedVals = ws.perm[lo:hi]
	}
	sortedKeys := unsafe.Slice((*K)(unsafe.Pointer(&ws.alt[lo])), m)
	for j, p := range perm {
		sortedVals[j] = vals[lo+p]
		sortedKeys[j] = keys[lo+p]
	}
	copy(vals[lo:hi], sortedVals)
	copy(keys[lo:hi], sortedKeys)
}

// insertionSort orders enc ascending and moves keys and vals with it.
func insertionSort[K Key](enc []uint64, keys []K, vals []int) {
	for i := 1; i < len(enc); i++ {
		e, k, v := enc[i], keys[i], vals[i]
		j := i - 1
		for j >= 0 && enc[j] > e {
			enc[j+1], keys[j+1], vals[j+1] = enc[j], keys[j], vals[j]
			j--
		}
		enc[j+1], keys[j+1], vals[j+1] = e, k, v
	}
}

// radixSort is a stable LSD radix sort of enc with 8-bit digits, applying
// the same moves to perm. Digits on which every element agrees are skipped.
// It returns whichever of perm/altPerm holds the final permutation.
func radixSort(enc, alt []uint64, perm, altPerm []int, bits int) []int {
	var count [256]int
	for shift := 0; shift < bits; shift += 8 {
		clear(count[:])
		for _, e := range enc {
			count[(e>>shift)&0xFF]++
		}
		if count[(enc[0]>>shift)&0xFF] == len(enc) {
			continue
		}
		offset := 0
		for b := range count {
			c := count[b]
			count[b] = offset
			offset += c
		}
		for i, e := range enc {
			d := (e >> shift) & 0xFF
			alt[count[d]] = e
			altPerm[count[d]] = perm[i]
			count[d]++
		}
		enc, alt = alt, enc
		perm, altPerm = altPerm, perm
	}
	return perm
}
