// Package api serves the selection, distance and nearest-neighbour
// primitives over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/primkit/internal/logger"
	"github.com/samcharles93/primkit/internal/version"
	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/distance"
	"github.com/samcharles93/primkit/pkg/selectk"
)

type Config struct {
	Resources *device.Resources
	// Chooser resolves the auto algorithm. nil uses the default table.
	Chooser     selectk.Chooser
	MaxDatasets int
	Logger      logger.Logger
}

type Server struct {
	res     *device.Resources
	store   *DatasetStore
	chooser selectk.Chooser
	log     logger.Logger
	clock   func() time.Time
}

func NewServer(cfg Config) (*Server, error) {
	log := cfg.Logger
	if log == nil {
		log = cfg.Resources.Logger()
	}
	chooser := cfg.Chooser
	if chooser == nil {
		chooser = selectk.DefaultDecisionTable()
	}
	store, err := NewDatasetStore(cfg.MaxDatasets, log)
	if err != nil {
		return nil, err
	}
	return &Server{
		res:     cfg.Resources,
		store:   store,
		chooser: chooser,
		log:     log,
		clock:   time.Now,
	}, nil
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/info", s.handleInfo)
	e.GET("/v1/algorithms", s.handleAlgorithms)
	e.GET("/v1/choose", s.handleChoose)

	e.POST("/v1/select", s.handleSelect)
	e.POST("/v1/select/csr", s.handleSelectCSR)
	e.POST("/v1/distance", s.handleDistance)
	e.POST("/v1/knn", s.handleKNN)

	e.POST("/v1/datasets", s.handleCreateDataset)
	e.GET("/v1/datasets", s.handleListDatasets)
	e.GET("/v1/datasets/:id", s.handleGetDataset)
	e.DELETE("/v1/datasets/:id", s.handleDeleteDataset)
	e.POST("/v1/datasets/:id/knn", s.handleDatasetKNN)
}

// run executes fn on a fresh stream and waits for its work, so concurrent
// requests neither wait on nor see each other's errors.
func (s *Server) run(ctx context.Context, fn func(res *device.Resources) error) error {
	stream := device.NewStream()
	defer stream.Close()
	res := s.res.WithStream(stream)
	if err := fn(res); err != nil {
		return err
	}
	return res.Sync(ctx)
}

func (s *Server) handleInfo(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, InfoResponse{
		Version: version.Resolve(),
		Device:  device.Describe(),
		Time:    s.clock().UTC(),
	})
}

func (s *Server) handleAlgorithms(c *echo.Context) error {
	out := AlgorithmList{}
	for _, a := range selectk.Algos() {
		out.Algorithms = append(out.Algorithms, a.String())
	}
	for _, m := range distance.Metrics() {
		out.Metrics = append(out.Metrics, m.String())
	}
	return writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleChoose(c *echo.Context) error {
	var vals [3]int
	for i, name := range []string{"rows", "cols", "k"} {
		v, err := queryInt(c, name)
		if err != nil {
			return writeBadRequest(c, err.Error())
		}
		vals[i] = v
	}
	rows, cols, k := vals[0], vals[1], vals[2]
	return writeJSON(c, http.StatusOK, ChooseResponse{
		Rows: rows, Cols: cols, K: k,
		Algo: s.chooser.Choose(rows, cols, k),
	})
}
