package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/primkit/internal/logger"
	"github.com/samcharles93/primkit/pkg/distance"
	"github.com/samcharles93/primkit/pkg/knn"
	"github.com/samcharles93/primkit/pkg/selectk"
)

type knnResult struct {
	Metric    string      `json:"metric"`
	K         int         `json:"k"`
	Distances [][]float32 `json:"distances"`
	IDs       [][]int     `json:"ids"`
}

func knnCmd() *cli.Command {
	var (
		indexPath  string
		queryPath  string
		output     string
		metricName string
		p          float64
		k          int64
		tileRows   int64
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{Name: "index", Usage: "index vectors file", Required: true, Destination: &indexPath},
		&cli.StringFlag{Name: "queries", Aliases: []string{"q"}, Usage: "query vectors file (default stdin)", Destination: &queryPath},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the JSON result here instead of stdout", Destination: &output},
		&cli.StringFlag{Name: "metric", Usage: "distance metric", Value: "l2_expanded", Destination: &metricName},
		&cli.Float64Flag{Name: "p", Usage: "exponent for lp_unexpanded", Value: 2, Destination: &p},
		&cli.Int64Flag{Name: "k", Usage: "neighbours per query", Value: 10, Destination: &k},
		&cli.Int64Flag{Name: "tile-rows", Usage: "index rows per distance tile", Value: knn.DefaultTileRows, Destination: &tileRows},
	}, algoFlags()...)
	flags = append(flags, deviceFlags()...)

	return &cli.Command{
		Name:  "knn",
		Usage: "Brute-force k-nearest-neighbour search",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyDeviceConfig(cmd, activeConfig)

			metric, err := distance.ParseMetric(metricName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			algo, err := selectk.ParseAlgo(algoName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			table, err := loadChooser()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			index, err := readMatrix(indexPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read index: %v", err), 1)
			}
			queries, err := readMatrix(queryPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read queries: %v", err), 1)
			}
			if err := checkRange("k", k, len(index)); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			dim := len(index[0])
			if len(queries[0]) != dim {
				return cli.Exit(fmt.Sprintf("error: queries have dimension %d, index has %d", len(queries[0]), dim), 1)
			}

			res := newResources(ctx)
			defer res.Close()

			nq, kk := len(queries), int(k)
			dists := make([]float32, nq*kk)
			ids := make([]int, nq*kk)
			params := knn.Params{Metric: metric, P: float32(p), TileRows: int(tileRows), Algo: algo, Chooser: table}
			log.Info("knn search", "index", len(index), "queries", nq, "dim", dim, "k", kk, "metric", metric)
			if err := knn.Search(res, flattenRows(index), flattenRows(queries), len(index), nq, dim, kk, params, dists, ids); err != nil {
				return cli.Exit(fmt.Sprintf("error: knn: %v", err), 1)
			}
			if err := res.Sync(ctx); err != nil {
				return cli.Exit(fmt.Sprintf("error: knn: %v", err), 1)
			}

			result := knnResult{Metric: metric.String(), K: kk}
			for q := range nq {
				result.Distances = append(result.Distances, dists[q*kk:(q+1)*kk])
				result.IDs = append(result.IDs, ids[q*kk:(q+1)*kk])
			}
			return emit(output, result)
		},
	}
}
