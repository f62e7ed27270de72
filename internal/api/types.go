package api

import (
	"time"

	"github.com/samcharles93/primkit/internal/version"
	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/distance"
	"github.com/samcharles93/primkit/pkg/selectk"
)

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type SelectRequest struct {
	Values  [][]float32 `json:"values"`
	Indices [][]int     `json:"indices,omitempty"`
	K       int         `json:"k"`
	// SelectMin defaults to true.
	SelectMin *bool        `json:"select_min,omitempty"`
	Sorted    bool         `json:"sorted,omitempty"`
	Algo      selectk.Algo `json:"algo,omitempty"`
}

type SelectResponse struct {
	Algo    string      `json:"algo"`
	Values  [][]float32 `json:"values"`
	Indices [][]int     `json:"indices"`
}

type CSRSelectRequest struct {
	Rows            int       `json:"rows"`
	Cols            int       `json:"cols"`
	Offsets         []int     `json:"offsets"`
	Columns         []int     `json:"columns"`
	Values          []float32 `json:"values"`
	Indices         []int     `json:"indices,omitempty"`
	K               int       `json:"k"`
	SelectMin       *bool     `json:"select_min,omitempty"`
	FillUnderfilled bool      `json:"fill_underfilled,omitempty"`
}

type DistanceRequest struct {
	X      [][]float32     `json:"x"`
	Y      [][]float32     `json:"y"`
	Metric distance.Metric `json:"metric"`
	P      float32         `json:"p,omitempty"`
}

type DistanceResponse struct {
	Metric    string      `json:"metric"`
	Distances [][]float32 `json:"distances"`
}

type KNNRequest struct {
	Index    [][]float32     `json:"index"`
	Queries  [][]float32     `json:"queries"`
	K        int             `json:"k"`
	Metric   distance.Metric `json:"metric"`
	P        float32         `json:"p,omitempty"`
	TileRows int             `json:"tile_rows,omitempty"`
}

type KNNResponse struct {
	Distances [][]float32 `json:"distances"`
	IDs       [][]int     `json:"ids"`
}

type CreateDatasetRequest struct {
	Vectors [][]float32     `json:"vectors"`
	Metric  distance.Metric `json:"metric"`
	P       float32         `json:"p,omitempty"`
}

type DatasetKNNRequest struct {
	Queries  [][]float32 `json:"queries"`
	K        int         `json:"k"`
	TileRows int         `json:"tile_rows,omitempty"`
}

// DatasetInfo describes a stored dataset without its vectors.
type DatasetInfo struct {
	ID        string          `json:"id"`
	Object    string          `json:"object"`
	Rows      int             `json:"rows"`
	Dim       int             `json:"dim"`
	Metric    distance.Metric `json:"metric"`
	CreatedAt int64           `json:"created_at"`
}

type DatasetList struct {
	Object string        `json:"object"`
	Data   []DatasetInfo `json:"data"`
}

type DeleteDatasetResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type AlgorithmList struct {
	Algorithms []string `json:"algorithms"`
	Metrics    []string `json:"metrics"`
}

type ChooseResponse struct {
	Rows int          `json:"rows"`
	Cols int          `json:"cols"`
	K    int          `json:"k"`
	Algo selectk.Algo `json:"algo"`
}

type InfoResponse struct {
	Version version.Info `json:"version"`
	Device  device.Info  `json:"device"`
	Time    time.Time    `json:"time"`
}
