package telemetry

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/process"
)

const report_perf_stats = "perf-stats"

// ReportPerfStats reports a one-off snapshot of the process' resource usage,
// batch jobs call this once right before exiting.
func ReportPerfStats(ctx context.Context, tel API) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	tel.ReportDebug(
		report_perf_stats,
		"allocated_mb", int64(memStats.Alloc/1_000_000),
		"live_objects", int64(memStats.Mallocs)-int64(memStats.Frees),
	)

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		tel.ReportWarning(report_perf_stats, err)
		return
	}
	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		tel.ReportWarning(report_perf_stats, err)
		return
	}
	cpuPercent, err := proc.CPUPercentWithContext(ctx)
	if err != nil {
		tel.ReportWarning(report_perf_stats, err)
		return
	}
	tel.ReportDebug(
		report_perf_stats,
		"rss_mb", int64(mem.RSS/1_000_000),
		"cpu_percent", cpuPercent,
	)
}
