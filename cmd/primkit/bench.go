package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/primkit/internal/logger"
	"github.com/samcharles93/primkit/pkg/selectk"
)

type benchReport struct {
	Repeats      int                   `json:"repeats"`
	Measurements []selectk.Measurement `json:"measurements"`
	// Default is what the built-in decision table picks for each shape.
	Default []selectk.Algo `json:"default"`
}

func benchCmd() *cli.Command {
	var (
		rowsList string
		colsList string
		kList    string
		repeats  int64
		seed     int64
		output   string
		selectMx bool
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{Name: "rows", Usage: "comma-separated batch sizes", Value: "1,64,1024", Destination: &rowsList},
		&cli.StringFlag{Name: "cols", Usage: "comma-separated row lengths", Value: "1024,32768", Destination: &colsList},
		&cli.StringFlag{Name: "k", Usage: "comma-separated k values", Value: "1,32,256,1024", Destination: &kList},
		&cli.Int64Flag{Name: "repeats", Aliases: []string{"r"}, Usage: "timed runs per algorithm, best kept", Value: 3, Destination: &repeats},
		&cli.Int64Flag{Name: "seed", Usage: "input RNG seed", Value: 42, Destination: &seed},
		&cli.BoolFlag{Name: "max", Usage: "benchmark largest-k selection", Destination: &selectMx},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "JSON report path (default $PRIMKIT_OUT_DIR or ./out)", Destination: &output},
	}, deviceFlags()...)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time every algorithm over a grid of shapes and report the fastest",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyDeviceConfig(cmd, activeConfig)

			rows, err := parseIntList("rows", rowsList)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			cols, err := parseIntList("cols", colsList)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			ks, err := parseIntList("k", kList)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			type shapeInput struct {
				rows, cols int
				data       []float32
			}
			var inputs []*shapeInput
			for _, r := range rows {
				for _, c := range cols {
					inputs = append(inputs, &shapeInput{rows: r, cols: c})
				}
			}
			g, _ := errgroup.WithContext(ctx)
			for i, in := range inputs {
				g.Go(func() error {
					rng := rand.New(rand.NewSource(seed + int64(i)))
					in.data = make([]float32, in.rows*in.cols)
					for j := range in.data {
						in.data[j] = rng.Float32()
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			res := newResources(ctx)
			defer res.Close()
			tuner := selectk.NewAutotuner(nil)
			report := benchReport{Repeats: int(repeats)}
			table := selectk.DefaultDecisionTable()

			start := time.Now()
			for _, in := range inputs {
				for _, k := range ks {
					if k > in.cols {
						continue
					}
					shape := selectk.Shape{Rows: in.rows, Cols: in.cols, K: k}
					best := tuner.Tune(shape, selectk.Candidates(k), func(a selectk.Algo) (time.Duration, error) {
						opts := selectk.Options{SelectMin: !selectMx, Algo: a}
						d, err := selectk.Measure(ctx, res, in.data, in.rows, in.cols, k, opts, int(repeats))
						if err != nil {
							log.Warn("benchmark run failed", "algo", a, "rows", in.rows, "cols", in.cols, "k", k, "error", err)
						}
						return d, err
					})
					log.Debug("shape tuned", "rows", in.rows, "cols", in.cols, "k", k, "best", best)
				}
			}
			report.Measurements = tuner.Measurements()
			for _, m := range report.Measurements {
				report.Default = append(report.Default, table.Choose(m.Shape.Rows, m.Shape.Cols, m.Shape.K))
			}
			log.Info("benchmark complete", "shapes", len(report.Measurements), "elapsed", time.Since(start))

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ROWS\tCOLS\tK\tFASTEST\tTIME\tAUTO")
			for i, m := range report.Measurements {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\n", m.Shape.Rows, m.Shape.Cols, m.Shape.K, m.Algo, m.Elapsed, report.Default[i])
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			outPath, _, err := resolveOutput(output, fmt.Sprintf("bench-%s.json", time.Now().UTC().Format("20060102T150405Z")))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: resolve output: %v", err), 1)
			}
			if err := emit(outPath, report); err != nil {
				return err
			}
			log.Info("wrote report", "path", outPath)
			return nil
		},
	}
}
