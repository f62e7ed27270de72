package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/distance"
	"github.com/samcharles93/primkit/pkg/selectk"
)

type hostInfo struct {
	Device        device.Info           `yaml:"device"`
	DecisionTable selectk.DecisionTable `yaml:"decision_table"`
	Algorithms    []string              `yaml:"algorithms"`
	Metrics       []string              `yaml:"metrics"`
}

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Describe the host device, the active decision table and the available algorithms",
		Flags: algoFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyDeviceConfig(cmd, activeConfig)
			table, err := loadChooser()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			info := hostInfo{Device: device.Describe(), DecisionTable: table}
			for _, a := range selectk.Algos() {
				info.Algorithms = append(info.Algorithms, a.String())
			}
			for _, m := range distance.Metrics() {
				info.Metrics = append(info.Metrics, m.String())
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(info); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
