package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/primkit/internal/logger"
	"github.com/samcharles93/primkit/pkg/sparse"
	"github.com/samcharles93/primkit/pkg/spectral"
)

type partitionResult struct {
	Clusters    []int     `json:"clusters"`
	EigenValues []float64 `json:"eigenvalues"`
	EdgeCut     float64   `json:"edge_cut"`
	Cost        float64   `json:"cost"`
	Residual    float64   `json:"kmeans_residual"`
	Iterations  int       `json:"kmeans_iterations"`
}

func partitionCmd() *cli.Command {
	var (
		graphPath string
		output    string
		clusters  int64
		eigVecs   int64
		maxIter   int64
		tol       float64
		seed      int64
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{Name: "graph", Aliases: []string{"g"}, Usage: "dense adjacency matrix file (default stdin)", Destination: &graphPath},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the JSON result here instead of stdout", Destination: &output},
		&cli.Int64Flag{Name: "clusters", Aliases: []string{"n"}, Usage: "number of parts", Value: 2, Destination: &clusters},
		&cli.Int64Flag{Name: "eigvecs", Usage: "eigenvectors used as embedding (0 = clusters)", Destination: &eigVecs},
		&cli.Int64Flag{Name: "max-iter", Usage: "k-means iteration limit", Value: 100, Destination: &maxIter},
		&cli.Float64Flag{Name: "tol", Usage: "k-means relative residual tolerance", Value: 1e-4, Destination: &tol},
		&cli.Int64Flag{Name: "seed", Usage: "k-means seeding RNG seed", Value: 1, Destination: &seed},
	}, deviceFlags()...)

	return &cli.Command{
		Name:  "partition",
		Usage: "Spectral graph partitioning",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyDeviceConfig(cmd, activeConfig)

			rows, err := readMatrix(graphPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read graph: %v", err), 1)
			}
			n := len(rows)
			if len(rows[0]) != n {
				return cli.Exit(fmt.Sprintf("error: adjacency is %dx%d, want square", n, len(rows[0])), 1)
			}
			dense := make([]float64, 0, n*n)
			for _, r := range rows {
				for _, v := range r {
					dense = append(dense, float64(v))
				}
			}
			g, err := sparse.FromDense(n, n, dense, nil)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			if err := checkRange("clusters", clusters, n); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if eigVecs == 0 {
				eigVecs = clusters
			}
			if err := checkRange("eigvecs", eigVecs, n); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			nev := int(eigVecs)
			res := newResources(ctx)
			defer res.Close()

			out := partitionResult{
				Clusters:    make([]int, n),
				EigenValues: make([]float64, nev),
			}
			vecs := make([]float64, n*nev)
			log.Info("partitioning", "vertices", n, "edges", g.NNZ(), "clusters", clusters, "eigvecs", nev)
			stats, err := spectral.Partition(ctx, res, g,
				spectral.EigenConfig{NEigVecs: nev},
				spectral.ClusterConfig{NClusters: int(clusters), MaxIter: int(maxIter), Tol: tol, Seed: seed},
				out.Clusters, out.EigenValues, vecs)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: partition: %v", err), 1)
			}
			out.Residual, out.Iterations = stats.ClusterResidual, stats.ClusterIters

			out.EdgeCut, out.Cost, err = spectral.AnalyzePartition(res, g, int(clusters), out.Clusters)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: analyze partition: %v", err), 1)
			}
			log.Info("partition done", "edge_cut", out.EdgeCut, "cost", out.Cost, "kmeans_iterations", out.Iterations)
			return emit(output, out)
		},
	}
}
