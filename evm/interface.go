package evm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/spacemeshos/go-evmbridge/common/types"
)

//go:generate mockgen -typed -package=evm -destination=./mocks.go -source=./interface.go

// State is the account state a message is applied to.
type State interface {
	// Account returns the account at address and whether it exists.
	Account(common.Address) (types.Account, bool, error)
	SetNonce(common.Address, uint64) error
	// CreateContract creates an empty account with nonce 1.
	CreateContract(common.Address) error
	// Transfer moves value, creating the recipient if needed. Value sent to
	// reserved or linked addresses leaves the EVM.
	Transfer(from, to common.Address, value *uint256.Int) error
}

// Executor applies messages to State.
type Executor interface {
	Execute(State, *Message, types.GasSchedule) (*Result, error)
}
