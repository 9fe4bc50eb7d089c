package common

import (
	"fmt"
	"runtime"
)

// MemoryStats holds the memory figures reported after a processing run.
type MemoryStats struct {
	HeapAlloc  uint64
	HeapInuse  uint64
	TotalAlloc uint64
	Sys        uint64
	NumGC      uint32
}

// GetMemoryStats samples the runtime allocator.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		HeapAlloc:  m.HeapAlloc,
		HeapInuse:  m.HeapInuse,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// String formats the stats in MiB for human-readable output.
func (m MemoryStats) String() string {
	const mib = 1024 * 1024
	return fmt.Sprintf("heap=%.1fMiB inuse=%.1fMiB total=%.1fMiB sys=%.1fMiB gc=%d",
		float64(m.HeapAlloc)/mib,
		float64(m.HeapInuse)/mib,
		float64(m.TotalAlloc)/mib,
		float64(m.Sys)/mib,
		m.NumGC)
}
