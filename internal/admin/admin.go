/*
Package admin reports host and process metrics for operators. The numbers
are read with gopsutil on every call; nothing is sampled in the background.
*/
package admin

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// StartTime is when the process started serving.
var StartTime = time.Now()

type RuntimeStats struct {
	Uptime     string `json:"uptime"`
	StartTime  string `json:"start_time"`
	OS         string `json:"os,omitempty"`
	Platform   string `json:"platform,omitempty"`
	Arch       string `json:"arch,omitempty"`
	Hostname   string `json:"hostname,omitempty"`
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
}

type CPUStats struct {
	UsagePercent string `json:"usage_percent"`
	Cores        int    `json:"cores"`
}

type UsageStats struct {
	TotalGB     string `json:"total_gb"`
	UsedGB      string `json:"used_gb"`
	UsedPercent string `json:"used_percent"`
}

type ServerHealth struct {
	Status  string       `json:"status"`
	Runtime RuntimeStats `json:"runtime"`
	CPU     CPUStats     `json:"cpu"`
	Memory  *UsageStats  `json:"memory,omitempty"`
	Disk    *UsageStats  `json:"disk,omitempty"`
}

// CollectServerHealth gathers a snapshot of the host. Metrics the platform
// cannot provide are left out rather than failing the whole report.
func CollectServerHealth(ctx context.Context) ServerHealth {
	health := ServerHealth{
		Status: "online",
		Runtime: RuntimeStats{
			Uptime:     time.Since(StartTime).Round(time.Second).String(),
			StartTime:  StartTime.Format(time.RFC3339),
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
		},
		CPU: CPUStats{UsagePercent: "n/a", Cores: runtime.NumCPU()},
	}

	// 1. Host
	if hInfo, err := host.InfoWithContext(ctx); err == nil {
		health.Runtime.OS = hInfo.OS
		health.Runtime.Platform = hInfo.Platform
		health.Runtime.Arch = hInfo.KernelArch
		health.Runtime.Hostname = hInfo.Hostname
	} else {
		log.Debug().Err(err).Msg("host info unavailable")
	}

	// 2. CPU (since the previous call)
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		health.CPU.UsagePercent = fmt.Sprintf("%.2f%%", pct[0])
	}

	// 3. Memory
	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		health.Memory = &UsageStats{
			TotalGB:     gigabytes(v.Total),
			UsedGB:      gigabytes(v.Used),
			UsedPercent: fmt.Sprintf("%.2f%%", v.UsedPercent),
		}
	}

	// 4. Disk (root partition)
	if d, err := disk.UsageWithContext(ctx, "/"); err == nil {
		health.Disk = &UsageStats{
			TotalGB:     gigabytes(d.Total),
			UsedGB:      gigabytes(d.Used),
			UsedPercent: fmt.Sprintf("%.2f%%", d.UsedPercent),
		}
	}

	return health
}

func gigabytes(b uint64) string {
	return fmt.Sprintf("%.2f GB", float64(b)/1024/1024/1024)
}
