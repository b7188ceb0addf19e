package params

import "github.com/spacemeshos/go-evmbridge/metrics"

const subsystem = "params"

var (
	versionGauge = metrics.NewGauge(
		"version",
		subsystem,
		"Active consensus version",
		[]string{},
	).WithLabelValues()
	gasPriceGauge = metrics.NewGauge(
		"gas_price",
		subsystem,
		"Active gas price in wei",
		[]string{},
	).WithLabelValues()
)
