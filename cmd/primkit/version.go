package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/primkit/internal/version"
	"github.com/samcharles93/primkit/pkg/device"
)

func versionCmd() *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			if asJSON {
				return writeResult(os.Stdout, info)
			}
			commit := info.Commit
			if info.Dirty {
				commit += " (modified)"
			}
			fmt.Printf("primkit %s\n", info.Version)
			if info.Commit != "" {
				fmt.Printf("  commit:   %s\n", commit)
			}
			if info.BuildTime != "" {
				fmt.Printf("  built:    %s\n", info.BuildTime)
			}
			dev := device.Describe()
			fmt.Printf("  runtime:  %s %s/%s, %d cpus\n", info.GoVersion, runtime.GOOS, dev.Arch, dev.CPUs)
			if len(dev.Features) > 0 {
				fmt.Printf("  features: %s\n", strings.Join(dev.Features, " "))
			}
			return nil
		},
	}
}
