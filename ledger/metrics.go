package ledger

import "github.com/spacemeshos/go-evmbridge/metrics"

const subsystem = "ledger"

var (
	depositsCount = metrics.NewCounter(
		"deposits",
		subsystem,
		"Number of deposits to evm accounts",
		[]string{},
	).WithLabelValues()
	withdrawalsCount = metrics.NewCounter(
		"withdrawals",
		subsystem,
		"Number of native transfers paid out by the bridge",
		[]string{},
	).WithLabelValues()
	gasFeesCount = metrics.NewCounter(
		"gas_fees_wei",
		subsystem,
		"Gas fees collected in wei by recipient",
		[]string{"recipient"},
	)
)
