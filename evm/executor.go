// Package evm applies the envelope of EVM messages: gas accounting, nonces and value moves.
// Bytecode is never interpreted.
package evm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-evmbridge/address"
	"github.com/spacemeshos/go-evmbridge/common/types"
)

var (
	ErrIntrinsicGas      = errors.New("intrinsic gas exceeds gas limit")
	ErrInsufficientFunds = errors.New("insufficient funds for value")
	ErrContractCollision = errors.New("contract address collision")
	ErrNonceOverflow     = errors.New("nonce overflow")
)

// Message is a transaction after sender recovery.
type Message struct {
	From     common.Address
	To       *common.Address
	Nonce    uint64
	Value    *uint256.Int
	GasLimit uint64
	GasPrice uint64
	Data     []byte
}

// IsCreate is true for contract creation.
func (m *Message) IsCreate() bool {
	return m.To == nil
}

// Result of an applied message.
type Result struct {
	GasUsed uint64
	// Created is set for contract creation.
	Created *common.Address
}

// IntrinsicGas returns the gas charged before any code runs.
func IntrinsicGas(data []byte, create bool, schedule types.GasSchedule) (uint64, error) {
	gas := params.TxGas
	if create {
		gas = params.TxGasContractCreation + schedule.TxCreate
	}
	var nonzero uint64
	for _, b := range data {
		if b != 0 {
			nonzero++
		}
	}
	zero := uint64(len(data)) - nonzero
	if nonzero > 0 && (1<<64-1-gas)/params.TxDataNonZeroGasEIP2028 < nonzero {
		return 0, fmt.Errorf("%w: calldata gas overflows", ErrIntrinsicGas)
	}
	gas += nonzero * params.TxDataNonZeroGasEIP2028
	if zero > 0 && (1<<64-1-gas)/params.TxDataZeroGas < zero {
		return 0, fmt.Errorf("%w: calldata gas overflows", ErrIntrinsicGas)
	}
	gas += zero * params.TxDataZeroGas
	return gas, nil
}

// Opt for configuring Intrinsic.
type Opt func(*Intrinsic)

// WithLogger sets logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(e *Intrinsic) {
		e.logger = logger
	}
}

// New creates the envelope executor.
func New(opts ...Opt) *Intrinsic {
	e := &Intrinsic{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Intrinsic charges intrinsic gas and moves value.
type Intrinsic struct {
	logger *zap.Logger
}

// Execute applies msg. On error state may be partially modified, callers roll back.
func (e *Intrinsic) Execute(state State, msg *Message, schedule types.GasSchedule) (*Result, error) {
	sender, _, err := state.Account(msg.From)
	if err != nil {
		return nil, err
	}
	gas, err := IntrinsicGas(msg.Data, msg.IsCreate(), schedule)
	if err != nil {
		return nil, err
	}
	if !msg.IsCreate() && schedule.TxNewAccount > 0 && !address.IsReserved(*msg.To) {
		_, exists, err := state.Account(*msg.To)
		if err != nil {
			return nil, err
		}
		if !exists {
			gas += schedule.TxNewAccount
		}
	}
	if gas > msg.GasLimit {
		return nil, fmt.Errorf("%w: %d > %d", ErrIntrinsicGas, gas, msg.GasLimit)
	}
	value := msg.Value
	if value == nil {
		value = new(uint256.Int)
	}
	if sender.Balance == nil || sender.Balance.Lt(value) {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientFunds, msg.From)
	}
	if sender.Nonce+1 < sender.Nonce {
		return nil, fmt.Errorf("%w: %v", ErrNonceOverflow, msg.From)
	}
	if err := state.SetNonce(msg.From, sender.Nonce+1); err != nil {
		return nil, err
	}
	result := &Result{GasUsed: gas}
	to := msg.To
	if msg.IsCreate() {
		created := address.DeriveContract(msg.From, sender.Nonce)
		if err := e.create(state, created); err != nil {
			return nil, err
		}
		result.Created = &created
		to = &created
	}
	if !value.IsZero() {
		if err := state.Transfer(msg.From, *to, value); err != nil {
			return nil, err
		}
	}
	e.logger.Debug("message applied",
		zap.Stringer("from", msg.From),
		zap.Uint64("nonce", sender.Nonce),
		zap.Uint64("gas", gas),
	)
	return result, nil
}

func (e *Intrinsic) create(state State, addr common.Address) error {
	existing, exists, err := state.Account(addr)
	if err != nil {
		return err
	}
	if exists && existing.Nonce != 0 {
		return fmt.Errorf("%w: %v", ErrContractCollision, addr)
	}
	return state.CreateContract(addr)
}
