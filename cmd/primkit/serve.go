package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/primkit/internal/api"
	"github.com/samcharles93/primkit/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxDatasets int64
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:8080",
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read timeout",
			Value:       30 * time.Second,
			Destination: &readTimeout,
		},
		&cli.Int64Flag{
			Name:        "max-datasets",
			Usage:       "datasets kept for /v1/datasets before the least recently used is dropped",
			Value:       api.DefaultMaxDatasets,
			Destination: &maxDatasets,
		},
	}, algoFlags()...)
	flags = append(flags, deviceFlags()...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the primitives over a REST API",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, activeConfig, &addr, &maxDatasets)

			table, err := loadChooser()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			res := newResources(ctx)
			defer res.Close()

			server, err := api.NewServer(api.Config{
				Resources:   res,
				Chooser:     table,
				MaxDatasets: int(maxDatasets),
				Logger:      log,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
