package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv is the environment variable that pins the worker count.
const OverrideEnv = "WORKERS"

// Per-CPU multipliers for the two pools the server runs.
const (
	computePerCPU = 1.0 // recomputes, fuzzy filtering, image decode
	ioPerCPU      = 2.0 // playlist saves, thumbnail downloads
)

// Count sizes a pool at multiplier workers per usable CPU, never fewer
// than one and never more than limit (0 means unbounded). A positive
// WORKERS value replaces the computed size but is still capped by limit.
func Count(multiplier float64, limit int) int {
	n := pinned()
	if n == 0 {
		n = max(1, int(float64(runtime.GOMAXPROCS(0))*multiplier))
	}
	if limit > 0 {
		n = min(n, limit)
	}
	return n
}

func pinned() int {
	n, err := strconv.Atoi(os.Getenv(OverrideEnv))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// ForCPU sizes the compute pool.
func ForCPU(limit int) int { return Count(computePerCPU, limit) }

// ForIO sizes the io pool.
func ForIO(limit int) int { return Count(ioPerCPU, limit) }
