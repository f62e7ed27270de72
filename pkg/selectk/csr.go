package selectk

import (
	"fmt"

	"github.com/samcharles93/primkit/internal/ordkey"
	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/segsort"
	"github.com/samcharles93/primkit/pkg/sparse"
)

// SelectKCSR selects up to k keys from every row of the CSR matrix m,
// writing m.Rows()*k values and indices to outVals and outIdx.
//
// Each row is sorted whole and its first k entries copied out, so rows with
// fewer than k nonzeros write only what they have; see
// Options.FillUnderfilled for the remaining slots. inIdx optionally replaces
// the column indices as the reported index of every nonzero. A matrix with
// no nonzeros leaves the outputs untouched. Options.Algo is ignored.
func SelectKCSR[K Key](res *device.Resources, m sparse.Matrix[K], inIdx []int, k int, outVals []K, outIdx []int, opts Options) error {
	if err := checkK(k); err != nil {
		return err
	}
	rows, nnz := m.Rows(), m.NNZ()
	if len(outVals) != len(outIdx) {
		return fmt.Errorf("%w: %d output values, %d output indices", ErrInvalidArgument, len(outVals), len(outIdx))
	}
	if len(outVals) != rows*k {
		return fmt.Errorf("%w: outputs hold %d entries, want %dx%d", ErrInvalidArgument, len(outVals), rows, k)
	}
	if inIdx != nil && len(inIdx) != nnz {
		return fmt.Errorf("%w: %d indices for %d nonzeros", ErrInvalidArgument, len(inIdx), nnz)
	}
	if nnz == 0 {
		return nil
	}
	srcOffsets := m.RowOffsets()
	if len(srcOffsets) != rows+1 || srcOffsets[0] != 0 {
		return fmt.Errorf("%w: %d row offsets for %d rows", ErrInvalidArgument, len(srcOffsets), rows)
	}
	if err := segsort.ValidateOffsets(srcOffsets, nnz); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	srcVals := m.Values()
	srcIdx := inIdx
	if srcIdx == nil {
		srcIdx = m.ColIndices()
	}
	res.Logger().Debug("select_k_csr", "rows", rows, "nnz", nnz, "k", k, "select_min", opts.SelectMin)

	alloc := res.Allocator()
	offsets, err := device.MakeFrom(alloc, srcOffsets)
	if err != nil {
		return fmt.Errorf("select_k_csr offsets: %w", err)
	}
	vals, err := device.Make[K](alloc, nnz)
	if err != nil {
		offsets.Release()
		return fmt.Errorf("select_k_csr values: %w", err)
	}
	idx, err := device.Make[int](alloc, nnz)
	if err != nil {
		offsets.Release()
		vals.Release()
		return fmt.Errorf("select_k_csr indices: %w", err)
	}
	defer device.Release(res, offsets, vals, idx)

	err = res.Submit(func() error {
		copy(vals.Data(), srcVals)
		copy(idx.Data(), srcIdx)
		return nil
	})
	if err != nil {
		return err
	}
	if err := segsort.SortByKey(res, vals.Data(), idx.Data(), offsets.Data(), !opts.SelectMin); err != nil {
		return fmt.Errorf("sort CSR rows: %w", err)
	}

	workers := res.Workers()
	return res.Submit(func() error {
		segmentedCopy(workers, offsets.Data(), vals.Data(), idx.Data(), k, outVals, outIdx, opts)
		return nil
	})
}

// segmentedCopy writes the first min(k, row length) entries of each sorted
// segment into the k-wide output rows.
func segmentedCopy[K Key](w *device.Workers, offsets []int, vals []K, idx []int, k int, outVals []K, outIdx []int, opts Options) {
	worst := ordkey.Worst[K](opts.SelectMin)
	w.ForEach(len(offsets)-1, func(r int) {
		lo, hi := offsets[r], offsets[r+1]
		n := min(k, hi-lo)
		copy(outVals[r*k:r*k+n], vals[lo:lo+n])
		copy(outIdx[r*k:r*k+n], idx[lo:lo+n])
		if !opts.FillUnderfilled {
			return
		}
		for i := r*k + n; i < (r+1)*k; i++ {
			outVals[i] = worst
			outIdx[i] = -1
		}
	})
}
