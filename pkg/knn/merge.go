package knn

import (
	"fmt"

	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/selectk"
)

// Part is one partial result: K candidates per query, row-major.
type Part struct {
	Dists []float32
	IDs   []int
	K     int
	// Offset is added to every id of the part while merging.
	Offset int
}

// MergeParts combines partial results into the best k per query, nearest
// first. The parts' candidates are concatenated per query and reduced with
// a sorted select-k.
func MergeParts(res *device.Resources, parts []Part, nQueries, k int, selectMin bool, outDists []float32, outIDs []int) error {
	width := 0
	for i, p := range parts {
		if p.K < 0 || len(p.Dists) != nQueries*p.K || len(p.IDs) != nQueries*p.K {
			return fmt.Errorf("%w: part %d holds %d distances and %d ids, want %dx%d", ErrInvalidArgument, i, len(p.Dists), len(p.IDs), nQueries, p.K)
		}
		width += p.K
	}
	if k < 1 || k > width {
		return fmt.Errorf("%w: k=%d from %d candidates per query", ErrInvalidArgument, k, width)
	}
	if len(outDists) != nQueries*k || len(outIDs) != nQueries*k {
		return fmt.Errorf("%w: outputs hold %d distances and %d ids, want %dx%d", ErrInvalidArgument, len(outDists), len(outIDs), nQueries, k)
	}
	if nQueries == 0 {
		return nil
	}

	alloc := res.Allocator()
	dists, err := device.Make[float32](alloc, nQueries*width)
	if err != nil {
		return fmt.Errorf("merge candidates: %w", err)
	}
	ids, err := device.Make[int](alloc, nQueries*width)
	if err != nil {
		dists.Release()
		return fmt.Errorf("merge candidates: %w", err)
	}
	defer device.Release(res, dists, ids)

	workers := res.Workers()
	err = res.Submit(func() error {
		d, id := dists.Data(), ids.Data()
		workers.ForEach(nQueries, func(q int) {
			col := q * width
			for _, p := range parts {
				copy(d[col:col+p.K], p.Dists[q*p.K:(q+1)*p.K])
				for j, v := range p.IDs[q*p.K : (q+1)*p.K] {
					id[col+j] = v + p.Offset
				}
				col += p.K
			}
		})
		return nil
	})
	if err != nil {
		return err
	}
	opts := selectk.Options{SelectMin: selectMin, Sorted: true}
	return selectk.SelectK(res, dists.Data(), ids.Data(), nQueries, width, k, outDists, outIDs, opts)
}
