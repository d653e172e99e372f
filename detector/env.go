package detector

import (
	"os"
	"strconv"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'segscan'.
func tracer() tracing.Trace {
	return tracing.Select("segscan")
}

const (
	envBudget  = "SEGSCAN_BUDGET_MB"
	envThreads = "SEGSCAN_THREADS"
	envWorkers = "SEGSCAN_WORKERS"
)

var envKeys = []string{envBudget, envThreads, envWorkers}

func budgetBytes() uint64 {
	budget := uint64(128 * 1024 * 1024)
	if mb, ok := envInt(envBudget); ok {
		budget = uint64(mb) * 1024 * 1024
	}
	return budget
}

// envThreadsOr returns def unless SEGSCAN_THREADS holds a power of two up to 1024.
func envThreadsOr(def uint32) uint32 {
	if t, ok := envInt(envThreads); ok && t&(t-1) == 0 && t <= 1024 {
		return uint32(t)
	}
	return def
}

func envInt(key string) (int, bool) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		tracer().Errorf("detector: ignoring %s=%q", key, s)
		return 0, false
	}
	return v, true
}

func pickEnv(keys []string) map[string]string {
	out := map[string]string{}
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
