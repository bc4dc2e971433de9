package metrics

import (
	"runtime"
)

// SampleSystem reads runtime memory and scheduler stats into the system gauges.
func SampleSystem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	UpdateSystemMemoryUsage(ms.HeapAlloc)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if ms.NumGC > 0 {
		// PauseNs is a circular buffer; the latest pause sits at (NumGC+255)%256.
		last := ms.PauseNs[(ms.NumGC+255)%256]
		RecordSystemGCPauseTime(float64(last) / 1e6)
	}
}
