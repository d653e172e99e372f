package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	kernelLaunches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segscan_kernel_launches_total",
		Help: "Total number of kernel launches on the CPU device",
	}, []string{"kernel"})

	kernelBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segscan_kernel_blocks_total",
		Help: "Total number of blocks executed on the CPU device",
	}, []string{"kernel"})

	kernelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segscan_kernel_failures_total",
		Help: "Total number of kernel launches that ended in a panic",
	}, []string{"kernel"})

	kernelDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "segscan_kernel_duration_seconds",
		Help:    "Wall time of a kernel launch on the CPU device",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1.0},
	}, []string{"kernel"})
)
