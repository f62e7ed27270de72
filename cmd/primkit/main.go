package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/primkit/internal/logger"
)

func main() {
	app := &cli.Command{
		Name:  "primkit",
		Usage: "Batched top-k selection, segmented sort and nearest-neighbour primitives",
		Flags: append(loggingFlags(), configFlags()...),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := LoadConfig(configFile)
			if err != nil {
				return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			activeConfig = cfg
			applyLoggingConfig(cmd, cfg)
			level := logLevel
			if debug {
				level = "debug"
			}
			log := logger.ForFormat(os.Stderr, logFormat, level)
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			selectCmd(),
			chooseCmd(),
			knnCmd(),
			partitionCmd(),
			benchCmd(),
			serveCmd(),
			infoCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
