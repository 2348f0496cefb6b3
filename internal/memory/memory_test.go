package memory

import (
	"context"
	"errors"
	"math"
	"runtime/debug"
	"testing"
	"time"
)

func keepMemoryLimit(t *testing.T) {
	t.Helper()
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })
}

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		configured bool
		source     string
		limit      int64
		ratio      float64
	}{
		{"nothing set", nil, false, "none", 0, 0},
		{"bad limit", map[string]string{"MEMORY_LIMIT": "lots"}, false, "none", 0, 0},
		{"negative limit", map[string]string{"MEMORY_LIMIT": "-5"}, false, "none", 0, 0},
		{"default ratio", map[string]string{"MEMORY_LIMIT": "1000000000"}, true, "MEMORY_LIMIT", 850000000, 0.85},
		{"custom ratio", map[string]string{"MEMORY_LIMIT": "1000000000", "MEMORY_RATIO": "0.5"}, true, "MEMORY_LIMIT", 500000000, 0.5},
		{"ratio out of range", map[string]string{"MEMORY_LIMIT": "1000000000", "MEMORY_RATIO": "1.5"}, true, "MEMORY_LIMIT", 850000000, 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keepMemoryLimit(t)

			got := configure(envMap(tt.env))
			if got.Configured != tt.configured || got.Source != tt.source {
				t.Fatalf("configure() = %+v, want configured=%v source=%s", got, tt.configured, tt.source)
			}
			if got.GoMemLimit != tt.limit || got.Ratio != tt.ratio {
				t.Errorf("limit/ratio = %d/%v, want %d/%v", got.GoMemLimit, got.Ratio, tt.limit, tt.ratio)
			}
			if tt.configured {
				if current := debug.SetMemoryLimit(-1); current != tt.limit {
					t.Errorf("runtime limit = %d, want %d", current, tt.limit)
				}
			}
		})
	}
}

func TestConfigureRespectsGOMEMLIMIT(t *testing.T) {
	keepMemoryLimit(t)
	debug.SetMemoryLimit(256 << 20)

	got := configure(envMap(map[string]string{"GOMEMLIMIT": "256MiB", "MEMORY_LIMIT": "1000"}))
	if got.Source != "GOMEMLIMIT" || !got.Configured || got.GoMemLimit != 256<<20 {
		t.Errorf("configure() = %+v", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func newTestMonitor(limit int64, alloc *uint64) *Monitor {
	m := NewMonitor(Config{
		LimitBytes:        limit,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Millisecond,
	})
	m.readAlloc = func() uint64 { return *alloc }
	return m
}

func TestMonitorPauseAndResume(t *testing.T) {
	alloc := uint64(10)
	m := newTestMonitor(100, &alloc)

	m.check()
	if m.Paused() {
		t.Fatal("paused at 10% usage")
	}
	if err := m.WaitIfPaused(context.Background()); err != nil {
		t.Fatalf("WaitIfPaused() while running = %v", err)
	}

	alloc = 90
	m.check()
	if !m.Paused() {
		t.Fatal("not paused at 90% usage")
	}
	if current, ratio := m.Usage(); current != 90 || math.Abs(ratio-0.9) > 1e-9 {
		t.Errorf("Usage() = %d, %v", current, ratio)
	}

	// Between the marks the state holds.
	alloc = 80
	m.check()
	if !m.Paused() {
		t.Fatal("resumed above the high water mark")
	}

	done := make(chan error, 1)
	go func() { done <- m.WaitIfPaused(context.Background()) }()

	alloc = 50
	m.check()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitIfPaused() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitIfPaused did not return after resume")
	}
	if m.Paused() {
		t.Error("still paused at 50% usage")
	}
}

func TestMonitorWaitCancelled(t *testing.T) {
	alloc := uint64(99)
	m := newTestMonitor(100, &alloc)
	m.check()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.WaitIfPaused(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("WaitIfPaused() = %v, want context.Canceled", err)
	}
}

func TestMonitorRunWithoutLimitReturns(t *testing.T) {
	keepMemoryLimit(t)
	debug.SetMemoryLimit(math.MaxInt64)

	m := NewMonitor(DefaultConfig())
	if m.Limit() != 0 {
		t.Fatalf("Limit() = %d, want 0", m.Limit())
	}

	done := make(chan struct{})
	go func() {
		m.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run without a limit should return immediately")
	}
}

func TestMonitorRunStopsWithContext(t *testing.T) {
	alloc := uint64(1)
	m := newTestMonitor(100, &alloc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}
