package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Account is an EVM account tracked by the bridge.
type Account struct {
	// ID is the row sequence number, assigned in creation order starting at 0.
	ID      uint64
	Address common.Address
	Nonce   uint64
	// Balance in wei.
	Balance *uint256.Int
}

// OpenBalance is a native account balance held inside the bridge.
// The row owned by the bridge account itself is the fee accumulator.
type OpenBalance struct {
	ID    uint64
	Owner Name
	// Balance in wei, whole minor units plus dust.
	Balance *uint256.Int
}

// FeeParams are the fee settings chosen at init and changed by setfeeparams.
type FeeParams struct {
	GasPrice         uint64
	MinerCut         uint64
	IngressBridgeFee Asset
}

// HundredPercent is the denominator of MinerCut.
const HundredPercent = 100_000
