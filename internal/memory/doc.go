// Package memory configures the Go memory limit for containers and pauses
// background work when the heap gets close to it.
//
// # Configuration
//
// Call [ConfigureFromEnv] early in main:
//
//   - GOMEMLIMIT: standard Go variable; when set it wins and nothing else is
//     changed.
//   - MEMORY_LIMIT: container memory limit in bytes, typically from the
//     Kubernetes Downward API.
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap (default 0.85).
//     The remainder is left for ffmpeg, libvips and other non-heap memory.
//
// # Backpressure
//
// A [Monitor] samples heap usage. Once it crosses the critical water mark the
// monitor pauses and [Monitor.WaitIfPaused] blocks until usage drops below
// the high water mark. Thumbnail generation waits on it before decoding:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	go monitor.Run(ctx)
//	generator.Throttle = monitor
package memory
