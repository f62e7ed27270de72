package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing default file is empty config", func(t *testing.T) {
		t.Setenv(envPrimkitConfig, "")
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig returned error: %v", err)
		}
		if cfg.Workers != nil || cfg.Algo != "" {
			t.Fatalf("expected zero config, got %+v", cfg)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatalf("expected error for missing explicit config")
		}
	})

	t.Run("env path and pointer fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		body := "workers: 0\npool_cache_mb: 8\nalgo: radix_8bits\nlog_format: json\nserver_address: 0.0.0.0:9000\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		t.Setenv(envPrimkitConfig, path)

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig returned error: %v", err)
		}
		if cfg.Workers == nil || *cfg.Workers != 0 {
			t.Fatalf("workers: explicit zero must be kept, got %v", cfg.Workers)
		}
		if cfg.PoolCacheMB == nil || *cfg.PoolCacheMB != 8 {
			t.Fatalf("pool_cache_mb: got %v", cfg.PoolCacheMB)
		}
		if cfg.MemLimitMB != nil {
			t.Fatalf("mem_limit_mb should be unset")
		}
		if cfg.Algo != "radix_8bits" || cfg.LogFormat != "json" || cfg.ServerAddress != "0.0.0.0:9000" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("workers: [oops\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("expected parse error")
		}
	})
}
