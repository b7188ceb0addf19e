package chain

import "github.com/spacemeshos/go-evmbridge/metrics"

const (
	subsystem = "chain"

	applied  = "applied"
	rejected = "rejected"
)

var (
	submissionsCount = metrics.NewCounter(
		"submissions",
		subsystem,
		"Number of submissions by outcome",
		[]string{"outcome"},
	)
	blockDuration = metrics.NewHistogramWithBuckets(
		"block_duration_seconds",
		subsystem,
		"Duration of block production",
		[]string{},
		[]float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	).WithLabelValues()
	queuedGauge = metrics.NewGauge(
		"queued",
		subsystem,
		"Number of submissions waiting for the next block",
		[]string{},
	).WithLabelValues()
)
