package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins the worker count.
const EnvOverride = "DECODE_WORKERS"

// Count returns a worker count of GOMAXPROCS scaled by multiplier, at least
// one and at most limit (0 = no limit). GOMAXPROCS follows the container CPU
// quota, unlike runtime.NumCPU.
//
// A positive integer in DECODE_WORKERS replaces the computed value; the limit
// still applies.
func Count(multiplier float64, limit int) int {
	if n, ok := override(); ok {
		return capAt(n, limit)
	}

	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if n < 1 {
		n = 1
	}
	return capAt(n, limit)
}

func override() (int, bool) {
	raw := os.Getenv(EnvOverride)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU returns one worker per CPU, for decode and resize work.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns two workers per CPU, for directory walks and stat calls.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed returns 1.5 workers per CPU, for read-then-decode pipelines such
// as thumbnail loading.
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
