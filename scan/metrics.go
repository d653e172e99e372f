package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	elementsScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segscan_elements_total",
		Help: "Elements processed by segmented scans",
	}, []string{"direction", "mode"})

	levelDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "segscan_levels",
		Help:    "Number of levels per segmented scan invocation",
		Buckets: prometheus.LinearBuckets(1, 1, 8),
	})
)
