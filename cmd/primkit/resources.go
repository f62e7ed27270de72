package main

import (
	"context"

	"github.com/samcharles93/primkit/internal/logger"
	"github.com/samcharles93/primkit/pkg/device"
	"github.com/samcharles93/primkit/pkg/selectk"
)

const mib = 1 << 20

// newResources builds the device resources described by the device flags.
func newResources(ctx context.Context) *device.Resources {
	log := logger.FromContext(ctx)
	var alloc device.Allocator = device.NewHostAllocator(memLimitMB * mib)
	if poolCacheMB > 0 {
		alloc = device.NewPoolAllocator(alloc, poolCacheMB*mib)
	}
	log.Debug("device resources", "workers", numWorkers, "pool_cache_mb", poolCacheMB, "mem_limit_mb", memLimitMB)
	return device.NewResources(device.Config{
		Allocator:  alloc,
		NumWorkers: int(numWorkers),
		Logger:     log,
	})
}

// loadChooser returns the decision table named by --decision-table, or the
// built-in one.
func loadChooser() (selectk.DecisionTable, error) {
	if decisionTable == "" {
		return selectk.DefaultDecisionTable(), nil
	}
	return selectk.LoadDecisionTable(decisionTable)
}
