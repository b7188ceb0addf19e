package blocks

import "github.com/spacemeshos/go-evmbridge/metrics"

const subsystem = "blocks"

var (
	assembledCount = metrics.NewCounter(
		"assembled",
		subsystem,
		"Number of assembled blocks",
		[]string{},
	).WithLabelValues()
	blockTxs = metrics.NewHistogramWithBuckets(
		"transactions",
		subsystem,
		"Number of transactions per block",
		[]string{},
		[]float64{0, 1, 2, 5, 10, 20, 50, 100, 200, 500},
	).WithLabelValues()
)
