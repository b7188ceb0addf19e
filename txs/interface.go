package txs

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/spacemeshos/go-evmbridge/common/types"
)

//go:generate mockgen -typed -package=txs -destination=./mocks.go -source=./interface.go

// AccountState is the view of the EVM state a transaction is validated against.
type AccountState interface {
	// Account returns the account at address, or an empty account with zero balance.
	Account(common.Address) (types.Account, error)
	// GasPrice returns the minimal gas price currently active.
	GasPrice() (uint64, error)
}
