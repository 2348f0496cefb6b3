package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"video-shelf/internal/logging"
	"video-shelf/internal/metrics"
)

// Config tunes a Monitor.
type Config struct {
	// LimitBytes is the soft limit; zero uses GOMEMLIMIT.
	LimitBytes int64
	// Background work resumes below HighWaterMark and pauses at
	// CriticalWaterMark, both as ratios of the limit.
	HighWaterMark     float64
	CriticalWaterMark float64
	CheckInterval     time.Duration
}

// DefaultConfig returns the monitor defaults.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage and pauses background work, such as thumbnail
// generation, while usage is critical.
type Monitor struct {
	config Config
	limit  int64
	// readAlloc returns the current heap allocation.
	readAlloc func() uint64

	mu      sync.RWMutex
	current uint64
	paused  bool
	resume  chan struct{}
}

// NewMonitor creates a monitor. Without a limit it never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < 1<<62 {
			limit = l
		}
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultConfig().CheckInterval
	}
	return &Monitor{
		config: config,
		limit:  limit,
		readAlloc: func() uint64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return stats.Alloc
		},
		resume: make(chan struct{}),
	}
}

// Limit returns the limit the monitor compares against, zero when none.
func (m *Monitor) Limit() int64 { return m.limit }

// Run samples memory every CheckInterval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	if m.limit == 0 {
		logging.Debug("Memory monitor disabled: no memory limit")
		return
	}
	logging.Info("Memory monitor using limit %s", FormatBytes(m.limit))

	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()
	for {
		m.check()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) check() {
	alloc := m.readAlloc()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc

	switch {
	case usage >= m.config.CriticalWaterMark && !m.paused:
		logging.Warn("Memory critical (%.1f%% of limit), pausing thumbnail work", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPausesTotal.Inc()
		go runtime.GC()
	case usage < m.config.HighWaterMark && m.paused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming thumbnail work", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// Paused reports whether background work should wait.
func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// WaitIfPaused blocks while the monitor is paused. It returns ctx's error
// when ctx ends first.
func (m *Monitor) WaitIfPaused(ctx context.Context) error {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return nil
	}
	resume := m.resume
	m.mu.RUnlock()

	select {
	case <-resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Usage returns the last sampled allocation and its ratio of the limit.
func (m *Monitor) Usage() (current uint64, ratio float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.limit == 0 {
		return m.current, 0
	}
	return m.current, float64(m.current) / float64(m.limit)
}
