// Package knn answers brute-force k-nearest-neighbour queries. The index is
// processed in tiles of rows: each tile gets a distance matrix and a
// per-query select-k, and the per-tile winners are merged with one more
// select-k.
package knn

import (
	"errors"
	"fmt"

	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/distance"
	"github.com/samcharles93/primkit/pkg/selectk"
)

// DefaultTileRows bounds the index rows whose distances are held at once.
const DefaultTileRows = 4096

var ErrInvalidArgument = errors.New("invalid argument")

// Params tunes a search. The zero value searches by squared L2 distance.
type Params struct {
	Metric distance.Metric
	// P is the Minkowski exponent for distance.LpUnexpanded.
	P float32
	// TileRows is the number of index rows per tile; 0 means
	// DefaultTileRows.
	TileRows int
	// Algo is forwarded to every select-k call.
	Algo    selectk.Algo
	Chooser selectk.Chooser
}

func (p Params) tileRows() int {
	if p.TileRows > 0 {
		return p.TileRows
	}
	return DefaultTileRows
}

// Search finds, for each of the nQueries rows of queries, the k rows of
// index nearest under p.Metric. Distances and index row ids are written
// nearest first into outDists and outIDs, both nQueries*k long.
func Search(res *device.Resources, index, queries []float32, nIndex, nQueries, dim, k int, p Params, outDists []float32, outIDs []int) error {
	if dim < 1 || nIndex < 0 || nQueries < 0 {
		return fmt.Errorf("%w: index %dx%d, %d queries", ErrInvalidArgument, nIndex, dim, nQueries)
	}
	if k < 1 || k > nIndex {
		return fmt.Errorf("%w: k=%d with %d index rows", ErrInvalidArgument, k, nIndex)
	}
	if len(index) != nIndex*dim || len(queries) != nQueries*dim {
		return fmt.Errorf("%w: index holds %d values, queries %d, want %dx%d and %dx%d", ErrInvalidArgument, len(index), len(queries), nIndex, dim, nQueries, dim)
	}
	if len(outDists) != nQueries*k || len(outIDs) != nQueries*k {
		return fmt.Errorf("%w: outputs hold %d distances and %d ids, want %dx%d", ErrInvalidArgument, len(outDists), len(outIDs), nQueries, k)
	}
	if nQueries == 0 {
		return nil
	}

	tile := p.tileRows()
	selectMin := p.Metric.SelectMin()
	opts := selectk.Options{SelectMin: selectMin, Sorted: true, Algo: p.Algo, Chooser: p.Chooser}
	res.Logger().Debug("knn search", "index", nIndex, "queries", nQueries, "dim", dim, "k", k, "metric", p.Metric, "tile_rows", tile)

	if nIndex <= tile {
		return searchTile(res, index, queries, 0, nIndex, nQueries, dim, k, p, opts, outDists, outIDs)
	}

	var parts []Part
	var bufs []interface{ Release() }
	defer func() { device.Release(res, bufs...) }()
	alloc := res.Allocator()
	for start := 0; start < nIndex; start += tile {
		rows := min(tile, nIndex-start)
		kt := min(k, rows)
		dists, err := device.Make[float32](alloc, nQueries*kt)
		if err != nil {
			return fmt.Errorf("knn tile results: %w", err)
		}
		bufs = append(bufs, dists)
		ids, err := device.Make[int](alloc, nQueries*kt)
		if err != nil {
			return fmt.Errorf("knn tile results: %w", err)
		}
		bufs = append(bufs, ids)

		tileIndex := index[start*dim : (start+rows)*dim]
		if err := searchTile(res, tileIndex, queries, start, rows, nQueries, dim, kt, p, opts, dists.Data(), ids.Data()); err != nil {
			return err
		}
		parts = append(parts, Part{Dists: dists.Data(), IDs: ids.Data(), K: kt})
	}
	return MergeParts(res, parts, nQueries, k, selectMin, outDists, outIDs)
}

// searchTile computes distances against rows index rows and selects k per
// query, reporting ids offset by base.
func searchTile(res *device.Resources, index, queries []float32, base, rows, nQueries, dim, k int, p Params, opts selectk.Options, outDists []float32, outIDs []int) error {
	dists, err := device.Make[float32](res.Allocator(), nQueries*rows)
	if err != nil {
		return fmt.Errorf("knn distances: %w", err)
	}
	defer device.Release(res, dists)

	if err := distance.Pairwise(res, queries, index, nQueries, rows, dim, p.Metric, p.P, dists.Data()); err != nil {
		return err
	}
	if err := selectk.SelectK(res, dists.Data(), nil, nQueries, rows, k, outDists, outIDs, opts); err != nil {
		return err
	}
	if base == 0 {
		return nil
	}
	return res.Submit(func() error {
		for i := range outIDs {
			outIDs[i] += base
		}
		return nil
	})
}
