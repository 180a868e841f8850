package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats: снимок состояния процесса для /api/status
type ProcessStats struct {
	Uptime     string  `json:"uptime"`
	RSSMB      float64 `json:"rss_mb"`
	CPUPercent float64 `json:"cpu_percent"`
	HeapMB     float64 `json:"heap_mb"`
	SysMB      float64 `json:"sys_mb"`
	NumGC      uint32  `json:"num_gc"`
	Goroutines int     `json:"goroutines"`
}

// ServerMetrics собирает метрики процесса через gopsutil
type ServerMetrics struct {
	StartTime time.Time
	proc      *process.Process // nil, если gopsutil не видит процесс
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	sm := &ServerMetrics{StartTime: time.Now()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		sm.proc = proc
	}
	return sm
}

// Snapshot собирает текущие значения. Ошибки gopsutil не фатальны:
// память берётся из рантайма Go, CPU остаётся нулём.
func (sm *ServerMetrics) Snapshot() ProcessStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := ProcessStats{
		Uptime:     formatUptime(time.Since(sm.StartTime)),
		RSSMB:      toMB(m.Sys),
		HeapMB:     toMB(m.HeapAlloc),
		SysMB:      toMB(m.Sys),
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}

	if sm.proc != nil {
		if info, err := sm.proc.MemoryInfo(); err == nil {
			stats.RSSMB = toMB(info.RSS)
		}
	}
	stats.CPUPercent = sm.cpuPercent()
	return stats
}

func (sm *ServerMetrics) cpuPercent() float64 {
	if sm.proc != nil {
		if percent, err := sm.proc.CPUPercent(); err == nil {
			return percent
		}
	}
	// Процесс недоступен: хотя бы загрузка системы
	percents, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(percents) == 0 {
		return 0
	}
	return percents[0]
}

func toMB(bytes uint64) float64 {
	return float64(bytes) / 1024 / 1024
}

func formatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}
