// Package radix implements radix-based row-wise top-k selection.
//
// Each row is narrowed by most-significant-digit passes: a pass builds a
// histogram of the digit under the current prefix, finds the bucket holding
// the k-th element and extends the prefix with it. Once the prefix pins the
// k-th key, a filter pass emits every element below it plus enough equal
// elements to make k. Output rows are not sorted.
package radix

import (
	"github.com/samcharles93/primkit/internal/ordkey"
	"github.com/samcharles93/primkit/pkg/device"
)

// Params describes one batched selection.
type Params struct {
	Rows, Len, K int
	SelectMin    bool
	// BitsPerPass is the digit width of each pass (8 or 11).
	BitsPerPass int
	// FusedLastFilter runs the filter inside the per-row pass loop. When
	// false all rows finish their passes first and filtering runs as a
	// separate launch over the saved per-row state.
	FusedLastFilter bool
}

// rowState is what the filter needs from the passes: keys whose masked
// encoding is below prefix are taken, and need keys equal to it.
type rowState struct {
	prefix, mask uint64
	need         uint64
}

const stateWords = 3

// Parts returns how many rows are processed concurrently, which fixes the
// scratch footprint.
func Parts(rows, workers int) int {
	return max(1, min(rows, workers))
}

// ScratchWords returns the number of 8-byte words Select needs with the
// given concurrency: a histogram and an encoded row per part, plus saved
// row state when the last filter is not fused.
func ScratchWords(p Params, parts int) int {
	words := parts * ((1 << p.BitsPerPass) + p.Len)
	if !p.FusedLastFilter {
		words += p.Rows * stateWords
	}
	return words
}

// Select writes the k best entries of every row of in to outVals/outIdx.
// inIdx may be nil, in which case the position within the row is reported.
// scratch must hold ScratchWords(p, parts) words.
func Select[K ordkey.Key](w *device.Workers, parts int, p Params, in []K, inIdx []int, outVals []K, outIdx []int, scratch []uint64) {
	histLen := 1 << p.BitsPerPass
	perPart := histLen + p.Len
	var states []uint64
	if !p.FusedLastFilter {
		states = scratch[parts*perPart : parts*perPart+p.Rows*stateWords]
	}
	chunk := (p.Rows + parts - 1) / parts

	w.ForEach(parts, func(part int) {
		base := scratch[part*perPart : (part+1)*perPart]
		hist, enc := base[:histLen], base[histLen:]
		for r := part * chunk; r < min((part+1)*chunk, p.Rows); r++ {
			row := in[r*p.Len : (r+1)*p.Len]
			if p.K == p.Len {
				copyRow(p, r, row, inIdx, outVals, outIdx)
				continue
			}
			ordkey.EncodeSlice(enc, row, !p.SelectMin)
			st := narrow(enc, hist, p.K, p.BitsPerPass, ordkey.Bits[K]())
			if p.FusedLastFilter {
				filter(p, r, row, enc, st, inIdx, outVals, outIdx)
			} else {
				s := states[r*stateWords:]
				s[0], s[1], s[2] = st.prefix, st.mask, st.need
			}
		}
	})
	if p.FusedLastFilter {
		return
	}

	encode := ordkey.Encoder[K]()
	flip := uint64(0)
	if !p.SelectMin {
		flip = ordkey.Mask[K]()
	}
	w.ForEach(p.Rows, func(r int) {
		if p.K == p.Len {
			return
		}
		s := states[r*stateWords:]
		st := rowState{prefix: s[0], mask: s[1], need: s[2]}
		row := in[r*p.Len : (r+1)*p.Len]
		filterEncoding(p, r, row, func(j int) uint64 { return encode(row[j]) ^ flip }, st, inIdx, outVals, outIdx)
	})
}

// narrow runs the digit passes over one encoded row.
func narrow(enc, hist []uint64, k, bitsPerPass, totalBits int) rowState {
	var st rowState
	remaining := uint64(k)
	for shift := totalBits; shift > 0; {
		width := min(bitsPerPass, shift)
		shift -= width
		digitMask := uint64(1)<<width - 1
		buckets := hist[:1<<width]
		clear(buckets)
		for _, e := range enc {
			if e&st.mask == st.prefix {
				buckets[(e>>shift)&digitMask]++
			}
		}

		var below uint64
		target := 0
		for b, c := range buckets {
			if below+c >= remaining {
				target = b
				break
			}
			below += c
		}
		remaining -= below
		st.prefix |= uint64(target) << shift
		st.mask |= digitMask << shift
		if buckets[target] == remaining {
			break
		}
	}
	st.need = remaining
	return st
}

func filter[K ordkey.Key](p Params, r int, row []K, enc []uint64, st rowState, inIdx []int, outVals []K, outIdx []int) {
	filterEncoding(p, r, row, func(j int) uint64 { return enc[j] }, st, inIdx, outVals, outIdx)
}

func filterEncoding[K ordkey.Key](p Params, r int, row []K, enc func(int) uint64, st rowState, inIdx []int, outVals []K, outIdx []int) {
	dstVals := outVals[r*p.K : (r+1)*p.K]
	dstIdx := outIdx[r*p.K : (r+1)*p.K]
	n := 0
	equal := uint64(0)
	for j := range row {
		m := enc(j) & st.mask
		switch {
		case m < st.prefix:
		case m == st.prefix && equal < st.need:
			equal++
		default:
			continue
		}
		dstVals[n] = row[j]
		dstIdx[n] = sourceIndex(inIdx, r*p.Len, j)
		n++
	}
}

func copyRow[K ordkey.Key](p Params, r int, row []K, inIdx []int, outVals []K, outIdx []int) {
	copy(outVals[r*p.K:(r+1)*p.K], row)
	for j := range row {
		outIdx[r*p.K+j] = sourceIndex(inIdx, r*p.Len, j)
	}
}

func sourceIndex(inIdx []int, rowStart, j int) int {
	if inIdx == nil {
		return j
	}
	return inIdx[rowStart+j]
}
