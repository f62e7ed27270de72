package main

import "github.com/urfave/cli/v3"

var (
	configFile    string
	logLevel      string
	logFormat     string
	debug         bool
	numWorkers    int64
	poolCacheMB   int64
	memLimitMB    int64
	decisionTable string
	algoName      string
)

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: $PRIMKIT_CONFIG or the user config dir)",
			Destination: &configFile,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func deviceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "workers",
			Aliases:     []string{"j"},
			Usage:       "compute workers (0 = GOMAXPROCS)",
			Destination: &numWorkers,
		},
		&cli.Int64Flag{
			Name:        "pool-cache-mb",
			Usage:       "cache freed scratch up to this many MiB (0 disables pooling)",
			Value:       64,
			Destination: &poolCacheMB,
		},
		&cli.Int64Flag{
			Name:        "mem-limit-mb",
			Usage:       "fail allocations beyond this many MiB of live scratch (0 = unlimited)",
			Destination: &memLimitMB,
		},
	}
}

func algoFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "algo",
			Aliases:     []string{"a"},
			Usage:       "selection algorithm (auto, radix_8bits, radix_11bits, radix_11bits_extra_pass, warpsort_*)",
			Value:       "auto",
			Destination: &algoName,
		},
		&cli.StringFlag{
			Name:        "decision-table",
			Usage:       "YAML decision table overriding the built-in auto thresholds",
			Destination: &decisionTable,
		},
	}
}
