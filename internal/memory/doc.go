// Package memory sizes the Go soft memory limit from the container limit
// and turns heap usage into backpressure.
//
// Call [ConfigureFromEnv] at the top of main:
//
//   - GOMEMLIMIT takes precedence when set
//   - MEMORY_LIMIT is the container limit in bytes, usually from the
//     Kubernetes Downward API
//   - MEMORY_RATIO is the heap share of MEMORY_LIMIT (default 0.85)
//
// A [Monitor] samples heap allocation every CheckInterval. Above the high
// watermark ShouldThrottle reports true and the viewport prefetch scheduler
// skips speculative decoding. Above the critical watermark the monitor
// pauses background indexing until usage falls back under the high
// watermark:
//
//	mon := memory.NewMonitor(memory.DefaultConfig())
//	mon.Start()
//	defer mon.Stop()
//
// Usage is exported as photo_journal_memory_usage_ratio.
package memory
