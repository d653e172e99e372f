package detector

import (
	"encoding/json"
	"runtime"

	"golang.org/x/sys/cpu"
)

// CPUReport describes the host as a device for the CPU grid emulator.
type CPUReport struct {
	Runtime     string            `json:"runtime"`
	NumCPU      int               `json:"num_cpu"`
	MaxProcs    int               `json:"gomaxprocs"`
	Features    []string          `json:"features"`
	Recommended CPURecommendation `json:"recommended"`
	Env         map[string]string `json:"env,omitempty"`
}

// CPURecommendation is a block configuration for the CPU device.
type CPURecommendation struct {
	// Workers is the number of blocks executed concurrently.
	Workers int `json:"workers"`
	// Threads per block. Every block thread is a goroutine parked at each barrier,
	// so small blocks with many of them run best.
	Threads int `json:"threads"`
}

// DetectCPU reports the host CPU and a block configuration for it.
// SEGSCAN_WORKERS and SEGSCAN_THREADS override the recommendation.
func DetectCPU() *CPUReport {
	procs := runtime.GOMAXPROCS(0)
	rep := &CPUReport{
		Runtime:  runtime.GOOS + "/" + runtime.GOARCH,
		NumCPU:   runtime.NumCPU(),
		MaxProcs: procs,
		Features: cpuFeatures(),
		Recommended: CPURecommendation{
			Workers: procs,
			Threads: int(envThreadsOr(cpuThreads())),
		},
		Env: pickEnv(envKeys),
	}
	if w, ok := envInt(envWorkers); ok {
		rep.Recommended.Workers = w
	}
	tracer().Debugf("detector: cpu %s, %d procs, features %v", rep.Runtime, procs, rep.Features)
	return rep
}

// JSON renders the report.
func (r *CPUReport) JSON() (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// cpuThreads is the block size for wide-vector hosts and everything else.
func cpuThreads() uint32 {
	if cpu.X86.HasAVX512 || cpu.ARM64.HasSVE {
		return 256
	}
	return 128
}

func cpuFeatures() []string {
	var feats []string
	add := func(has bool, name string) {
		if has {
			feats = append(feats, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE2, "sse2")
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasPOPCNT, "popcnt")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasAVX512, "avx512")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasATOMICS, "atomics")
		add(cpu.ARM64.HasSVE, "sve")
	}
	return feats
}
