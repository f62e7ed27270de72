package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/distance"
	"github.com/samcharles93/primkit/pkg/knn"
	"github.com/samcharles93/primkit/pkg/selectk"
	"github.com/samcharles93/primkit/pkg/sparse"
)

func selectMin(v *bool) bool {
	return v == nil || *v
}

func (s *Server) handleSelect(c *echo.Context) error {
	req, err := decodeJSON[SelectRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	in, length, err := flatten("values", req.Values)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	var inIdx []int
	if req.Indices != nil {
		idx, width, err := flatten("indices", req.Indices)
		if err != nil {
			return writeBadRequest(c, err.Error())
		}
		if width != length || len(req.Indices) != len(req.Values) {
			return writeBadRequest(c, "indices must have the same shape as values")
		}
		inIdx = idx
	}

	batch := len(req.Values)
	opts := selectk.Options{
		SelectMin: selectMin(req.SelectMin),
		Sorted:    req.Sorted,
		Algo:      req.Algo,
		Chooser:   s.chooser,
	}
	if req.K < 1 || req.K > length {
		return writeBadRequest(c, fmt.Sprintf("k must be in [1, %d], got %d", length, req.K))
	}
	if err := checkOutputSize(batch, req.K); err != nil {
		return writeBadRequest(c, err.Error())
	}
	algo := req.Algo
	if algo == selectk.Auto {
		algo = s.chooser.Choose(batch, length, req.K)
	}
	vals := make([]float32, batch*req.K)
	idx := make([]int, batch*req.K)
	err = s.run(c.Request().Context(), func(res *device.Resources) error {
		return selectk.SelectK(res, in, inIdx, batch, length, req.K, vals, idx, opts)
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, SelectResponse{
		Algo:    algo.String(),
		Values:  unflatten(vals, req.K),
		Indices: unflatten(idx, req.K),
	})
}

func (s *Server) handleSelectCSR(c *echo.Context) error {
	req, err := decodeJSON[CSRSelectRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	m, err := sparse.NewCSR(req.Rows, req.Cols, req.Offsets, req.Columns, req.Values)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.K < 1 || req.K > min(req.Cols, selectk.MaxK) {
		return writeBadRequest(c, fmt.Sprintf("k must be in [1, %d], got %d", min(req.Cols, selectk.MaxK), req.K))
	}
	if err := checkOutputSize(req.Rows, req.K); err != nil {
		return writeBadRequest(c, err.Error())
	}
	opts := selectk.Options{SelectMin: selectMin(req.SelectMin), FillUnderfilled: req.FillUnderfilled}
	vals := make([]float32, req.Rows*req.K)
	idx := make([]int, req.Rows*req.K)
	for i := range idx {
		idx[i] = -1
	}
	err = s.run(c.Request().Context(), func(res *device.Resources) error {
		return selectk.SelectKCSR(res, m, req.Indices, req.K, vals, idx, opts)
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, SelectResponse{
		Algo:    "segmented_sort",
		Values:  unflatten(vals, req.K),
		Indices: unflatten(idx, req.K),
	})
}

func (s *Server) handleDistance(c *echo.Context) error {
	req, err := decodeJSON[DistanceRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	x, dx, err := flatten("x", req.X)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	y, dy, err := flatten("y", req.Y)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if dx != dy {
		return writeBadRequest(c, fmt.Sprintf("x has dimension %d, y has %d", dx, dy))
	}
	m, n := len(req.X), len(req.Y)
	if err := checkOutputSize(m, n); err != nil {
		return writeBadRequest(c, err.Error())
	}
	out := make([]float32, m*n)
	err = s.run(c.Request().Context(), func(res *device.Resources) error {
		return distance.Pairwise(res, x, y, m, n, dx, req.Metric, req.P, out)
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, DistanceResponse{
		Metric:    req.Metric.String(),
		Distances: unflatten(out, n),
	})
}

func (s *Server) handleKNN(c *echo.Context) error {
	req, err := decodeJSON[KNNRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	index, dim, err := flatten("index", req.Index)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	params := knn.Params{Metric: req.Metric, P: req.P, TileRows: req.TileRows, Chooser: s.chooser}
	return s.search(c, index, len(req.Index), dim, req.Queries, req.K, params)
}

func (s *Server) search(c *echo.Context, index []float32, nIndex, dim int, queryRows [][]float32, k int, params knn.Params) error {
	queries, qdim, err := flatten("queries", queryRows)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if qdim != dim {
		return writeBadRequest(c, fmt.Sprintf("queries have dimension %d, index has %d", qdim, dim))
	}
	if k < 1 || k > nIndex {
		return writeBadRequest(c, fmt.Sprintf("k must be in [1, %d], got %d", nIndex, k))
	}
	nq := len(queryRows)
	if err := checkOutputSize(nq, k); err != nil {
		return writeBadRequest(c, err.Error())
	}
	dists := make([]float32, nq*k)
	ids := make([]int, nq*k)
	err = s.run(c.Request().Context(), func(res *device.Resources) error {
		return knn.Search(res, index, queries, nIndex, nq, dim, k, params, dists, ids)
	})
	if err != nil {
		return writeFailure(c, err)
	}
	return writeJSON(c, http.StatusOK, KNNResponse{
		Distances: unflatten(dists, k),
		IDs:       unflatten(ids, k),
	})
}

func (s *Server) handleCreateDataset(c *echo.Context) error {
	req, err := decodeJSON[CreateDatasetRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	vectors, dim, err := flatten("vectors", req.Vectors)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if dim == 0 {
		return writeBadRequest(c, "vectors must have at least one dimension")
	}
	if req.Metric == distance.LpUnexpanded && !(req.P > 0) {
		return writeBadRequest(c, "metric lp_unexpanded needs a positive p")
	}
	info := s.store.Create(vectors, len(req.Vectors), dim, req.Metric, req.P, s.clock())
	s.log.Info("dataset created", "id", info.ID, "rows", info.Rows, "dim", info.Dim, "metric", info.Metric)
	return writeJSON(c, http.StatusCreated, info)
}

func (s *Server) handleListDatasets(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, DatasetList{Object: "list", Data: s.store.List()})
}

func (s *Server) handleGetDataset(c *echo.Context) error {
	id := c.Param("id")
	info, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, fmt.Sprintf("dataset %q not found", id))
	}
	return writeJSON(c, http.StatusOK, info)
}

func (s *Server) handleDeleteDataset(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, fmt.Sprintf("dataset %q not found", id))
	}
	return writeJSON(c, http.StatusOK, DeleteDatasetResp{ID: id, Object: "dataset.deleted", Deleted: true})
}

func (s *Server) handleDatasetKNN(c *echo.Context) error {
	id := c.Param("id")
	ds, ok := s.store.get(id)
	if !ok {
		return writeNotFound(c, fmt.Sprintf("dataset %q not found", id))
	}
	req, err := decodeJSON[DatasetKNNRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	params := knn.Params{Metric: ds.info.Metric, P: ds.p, TileRows: req.TileRows, Chooser: s.chooser}
	return s.search(c, ds.vectors, ds.info.Rows, ds.info.Dim, req.Queries, req.K, params)
}
