// Package selectk selects the k smallest or largest entries of every row of
// a batch, for dense row-major input and for CSR input.
//
// Several backends compete: radix selection with 8- or 11-bit digits and
// warp-sort queues in a few flavours. Algo picks one explicitly; Auto lets a
// Chooser decide from the batch shape. Calls validate on the caller's
// goroutine, then enqueue work on the resource stream and return; results
// are ready after the stream is synchronized.
package selectk

import (
	"fmt"

	"github.com/samcharles93/primkit/internal/ordkey"
	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/segsort"
)

// Key is the set of supported key types.
type Key = ordkey.Key

// Options controls a selection.
type Options struct {
	// SelectMin selects the smallest keys; otherwise the largest.
	SelectMin bool
	// Sorted orders every output row best first: ascending for SelectMin,
	// descending otherwise.
	Sorted bool
	Algo   Algo
	// Chooser resolves Auto. nil uses DefaultDecisionTable.
	Chooser Chooser
	// FillUnderfilled makes the CSR entry point write the worst key and
	// index -1 into output slots of rows holding fewer than k entries.
	// Without it those slots are left as they were.
	FillUnderfilled bool
}

func (o Options) resolve(rows, cols, k int) Algo {
	if o.Algo != Auto {
		return o.Algo
	}
	c := o.Chooser
	if c == nil {
		c = DefaultDecisionTable()
	}
	return c.Choose(rows, cols, k)
}

func checkK(k int) error {
	if k < 1 || k > MaxK {
		return fmt.Errorf("%w: k=%d outside [1, %d]", ErrInvalidArgument, k, MaxK)
	}
	return nil
}

// SelectK selects k keys from each of batch rows of length entries in the
// row-major in, writing batch*k values and source indices to outVals and
// outIdx. inIdx optionally supplies the index reported for every input
// entry; when nil the position within the row is reported.
func SelectK[K Key](res *device.Resources, in []K, inIdx []int, batch, length, k int, outVals []K, outIdx []int, opts Options) error {
	if err := checkK(k); err != nil {
		return err
	}
	if batch < 0 || length < k {
		return fmt.Errorf("%w: batch=%d len=%d k=%d, need len >= k", ErrInvalidArgument, batch, length, k)
	}
	if len(in) != batch*length {
		return fmt.Errorf("%w: input holds %d keys, want %dx%d", ErrInvalidArgument, len(in), batch, length)
	}
	if inIdx != nil && len(inIdx) != len(in) {
		return fmt.Errorf("%w: %d input indices for %d keys", ErrInvalidArgument, len(inIdx), len(in))
	}
	if len(outVals) != batch*k || len(outIdx) != batch*k {
		return fmt.Errorf("%w: outputs hold %d values and %d indices, want %dx%d", ErrInvalidArgument, len(outVals), len(outIdx), batch, k)
	}

	algo := opts.resolve(batch, length, k)
	be := BackendFor[K](algo)
	if !be.Supports(k) {
		return fmt.Errorf("%w: %v with k=%d (max %d)", ErrUnsupportedK, algo, k, maxWarpK)
	}
	res.Logger().Debug("select_k", "algo", algo, "requested", opts.Algo, "rows", batch, "cols", length, "k", k, "select_min", opts.SelectMin, "sorted", opts.Sorted)
	if batch == 0 {
		return nil
	}

	req := Request{Rows: batch, Len: length, K: k, SelectMin: opts.SelectMin}
	if err := launch(res, be, req, in, inIdx, outVals, outIdx); err != nil {
		return err
	}
	if opts.Sorted && !be.Sorted() {
		offsets := segsort.UniformOffsets(batch, k)
		if err := segsort.SortByKey(res, outVals, outIdx, offsets, !opts.SelectMin); err != nil {
			return fmt.Errorf("sort selected rows: %w", err)
		}
	}
	return nil
}

// launch allocates the backend's scratch, submits it and schedules the
// scratch release behind it.
func launch[K Key](res *device.Resources, be Backend[K], req Request, in []K, inIdx []int, outVals []K, outIdx []int) error {
	workers := res.Workers()
	parts := max(1, min(req.Rows, workers.Size()))
	scratch, err := device.Make[uint64](res.Allocator(), be.ScratchWords(req, parts))
	if err != nil {
		return fmt.Errorf("select_k scratch: %w", err)
	}
	err = res.Submit(func() error {
		be.Select(workers, parts, req, in, inIdx, outVals, outIdx, scratch.Data())
		return nil
	})
	if err != nil {
		scratch.Release()
		return err
	}
	device.Release(res, scratch)
	return nil
}
