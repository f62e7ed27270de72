package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/primkit/internal/logger"
	"github.com/samcharles93/primkit/pkg/selectk"
	"github.com/samcharles93/primkit/pkg/sparse"
)

type selectResult struct {
	Algo    string      `json:"algo"`
	K       int         `json:"k"`
	Values  [][]float32 `json:"values"`
	Indices [][]int     `json:"indices"`
}

func selectCmd() *cli.Command {
	var (
		input     string
		output    string
		k         int64
		selectMax bool
		sorted    bool
		sparseIn  bool
		fill      bool
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "matrix file, JSON rows or delimited text (default stdin)",
			Destination: &input,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "write the JSON result here instead of stdout",
			Destination: &output,
		},
		&cli.Int64Flag{
			Name:        "k",
			Usage:       "entries to select per row",
			Value:       10,
			Destination: &k,
		},
		&cli.BoolFlag{
			Name:        "max",
			Usage:       "select the largest entries instead of the smallest",
			Destination: &selectMax,
		},
		&cli.BoolFlag{
			Name:        "sorted",
			Usage:       "order each output row best first",
			Destination: &sorted,
		},
		&cli.BoolFlag{
			Name:        "sparse",
			Usage:       "drop zeros and select through the CSR path",
			Destination: &sparseIn,
		},
		&cli.BoolFlag{
			Name:        "fill-underfilled",
			Usage:       "CSR path: pad short rows with the worst key and index -1",
			Destination: &fill,
		},
	}, algoFlags()...)
	flags = append(flags, deviceFlags()...)

	return &cli.Command{
		Name:  "select",
		Usage: "Select the k smallest or largest entries of every row",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyDeviceConfig(cmd, activeConfig)

			rows, err := readMatrix(input)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read input: %v", err), 1)
			}
			if err := checkRange("k", k, len(rows[0])); err != nil {
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

			res := newResources(ctx)
			defer res.Close()

			batch, length, kk := len(rows), len(rows[0]), int(k)
			opts := selectk.Options{
				SelectMin:       !selectMax,
				Sorted:          sorted,
				Algo:            algo,
				Chooser:         table,
				FillUnderfilled: fill,
			}
			vals := make([]float32, batch*kk)
			idx := make([]int, batch*kk)
			result := selectResult{K: kk}

			if sparseIn {
				m, err := sparse.FromDense(batch, length, flattenRows(rows), nil)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				for i := range idx {
					idx[i] = -1
				}
				log.Info("selecting from CSR", "rows", batch, "cols", length, "nnz", m.NNZ(), "k", kk)
				err = selectk.SelectKCSR(res, m, nil, kk, vals, idx, opts)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: select: %v", err), 1)
				}
				result.Algo = "segmented_sort"
			} else {
				if algo == selectk.Auto {
					result.Algo = table.Choose(batch, length, kk).String()
				} else {
					result.Algo = algo.String()
				}
				log.Info("selecting", "rows", batch, "cols", length, "k", kk, "algo", result.Algo)
				err = selectk.SelectK(res, flattenRows(rows), nil, batch, length, kk, vals, idx, opts)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: select: %v", err), 1)
				}
			}
			if err := res.Sync(ctx); err != nil {
				return cli.Exit(fmt.Sprintf("error: select: %v", err), 1)
			}

			for r := range batch {
				result.Values = append(result.Values, vals[r*kk:(r+1)*kk])
				result.Indices = append(result.Indices, idx[r*kk:(r+1)*kk])
			}
			return emit(output, result)
		},
	}
}

// emit writes v as JSON to path, or to stdout when path is empty.
func emit(path string, v any) error {
	if path == "" {
		return writeResult(os.Stdout, v)
	}
	outPath, _, err := resolveOutput(path, "")
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: resolve output: %v", err), 1)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: create output: %v", err), 1)
	}
	if err := writeResult(f, v); err != nil {
		_ = f.Close()
		return cli.Exit(fmt.Sprintf("error: write output: %v", err), 1)
	}
	return f.Close()
}
