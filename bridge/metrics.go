package bridge

import "github.com/spacemeshos/go-evmbridge/metrics"

const subsystem = "bridge"

var evmTxCount = metrics.NewCounter(
	"evm_transactions",
	subsystem,
	"Number of applied evm transactions by kind",
	[]string{"kind"},
)
