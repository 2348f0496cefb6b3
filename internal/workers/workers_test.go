package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(OverrideEnv, "")
	cpus := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"one per cpu", 1.0, 0, cpus},
		{"two per cpu", 2.0, 0, cpus * 2},
		{"capped by limit", 2.0, 1, 1},
		{"never zero", 0.0001, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountPinned(t *testing.T) {
	cpus := runtime.GOMAXPROCS(0)

	tests := []struct {
		name  string
		env   string
		limit int
		want  int
	}{
		{"pinned", "8", 0, 8},
		{"pinned above limit", "20", 10, 10},
		{"pinned below limit", "5", 10, 5},
		{"garbage ignored", "lots", 0, cpus},
		{"zero ignored", "0", 0, cpus},
		{"negative ignored", "-3", 0, cpus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(OverrideEnv, tt.env)
			if got := Count(1.0, tt.limit); got != tt.want {
				t.Errorf("Count with %s=%q = %d, want %d", OverrideEnv, tt.env, got, tt.want)
			}
		})
	}
}

func TestPoolSizes(t *testing.T) {
	t.Setenv(OverrideEnv, "")

	if got := ForCPU(1); got != 1 {
		t.Errorf("ForCPU(1) = %d, want 1", got)
	}
	if got := ForIO(3); got > 3 {
		t.Errorf("ForIO(3) = %d, want <= 3", got)
	}
	if ForIO(0) < ForCPU(0) {
		t.Error("io pool smaller than compute pool")
	}
}
