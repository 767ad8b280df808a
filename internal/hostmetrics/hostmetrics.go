// Package hostmetrics samples host CPU/memory to pick a sane default
// worker pool size when the configuration leaves worker_count at 0
// (spec §6 "worker_count: 0 means default to available cores").
package hostmetrics

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a point-in-time read of host resource usage.
type Snapshot struct {
	LogicalCPUs   int
	CPUPercent    float64
	MemoryPercent float64
}

// Sample reads current CPU and memory utilization, bounded by ctx.
func Sample(ctx context.Context) (Snapshot, error) {
	percents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return Snapshot{}, err
	}
	var cpuPct float64
	if len(percents) > 0 {
		cpuPct = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		LogicalCPUs:   runtime.NumCPU(),
		CPUPercent:    cpuPct,
		MemoryPercent: vm.UsedPercent,
	}, nil
}

// DefaultWorkerCount picks a worker pool size from the host's logical CPU
// count, leaving one core free for the OS and I/O, with a floor of 1.
func DefaultWorkerCount(snap Snapshot) int {
	n := snap.LogicalCPUs - 1
	if n < 1 {
		n = 1
	}
	return n
}
