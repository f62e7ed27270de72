package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func chooseCmd() *cli.Command {
	var rows, cols, k int64

	return &cli.Command{
		Name:  "choose",
		Usage: "Print the algorithm auto would pick for a batch shape",
		Flags: append([]cli.Flag{
			&cli.Int64Flag{Name: "rows", Usage: "batch size", Value: 1, Destination: &rows},
			&cli.Int64Flag{Name: "cols", Usage: "row length", Required: true, Destination: &cols},
			&cli.Int64Flag{Name: "k", Usage: "entries selected per row", Required: true, Destination: &k},
		}, algoFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyDeviceConfig(cmd, activeConfig)
			table, err := loadChooser()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			fmt.Println(table.Choose(int(rows), int(cols), int(k)))
			return nil
		},
	}
}
