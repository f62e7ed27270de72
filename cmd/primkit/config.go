package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envPrimkitConfig = "PRIMKIT_CONFIG"

// Config represents the primkit configuration file
// (~/.config/primkit/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	// Device
	Workers     *int64 `yaml:"workers"`
	PoolCacheMB *int64 `yaml:"pool_cache_mb"`
	MemLimitMB  *int64 `yaml:"mem_limit_mb"`

	// Selection
	Algo          string `yaml:"algo"`
	DecisionTable string `yaml:"decision_table"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
	MaxDatasets   *int64 `yaml:"max_datasets"`
}

// activeConfig is the file config loaded by the root command.
var activeConfig Config

func configPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(envPrimkitConfig)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "primkit", "config.yaml")
}

// LoadConfig reads the config file. A missing file yields a zero Config;
// an unreadable or malformed one is an error.
func LoadConfig(explicit string) (Config, error) {
	path := configPath(explicit)
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && strings.TrimSpace(explicit) == "" {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyDeviceConfig applies config file defaults to the device and
// algorithm flags when they were not set on the command line.
func applyDeviceConfig(c *cli.Command, cfg Config) {
	if cfg.Workers != nil && !c.IsSet("workers") {
		numWorkers = *cfg.Workers
	}
	if cfg.PoolCacheMB != nil && !c.IsSet("pool-cache-mb") {
		poolCacheMB = *cfg.PoolCacheMB
	}
	if cfg.MemLimitMB != nil && !c.IsSet("mem-limit-mb") {
		memLimitMB = *cfg.MemLimitMB
	}
	if cfg.Algo != "" && !c.IsSet("algo") {
		algoName = cfg.Algo
	}
	if cfg.DecisionTable != "" && !c.IsSet("decision-table") {
		decisionTable = cfg.DecisionTable
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxDatasets *int64) {
	applyDeviceConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxDatasets != nil && !c.IsSet("max-datasets") {
		*maxDatasets = *cfg.MaxDatasets
	}
}
