package evm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/go-evmbridge/address"
	"github.com/spacemeshos/go-evmbridge/common/types"
)

var (
	sender    = common.HexToAddress("0x2787b98fc4e731d0456b3941f0b3fe2e01439961")
	recipient = common.HexToAddress("0x9edf022004846bc987799d552d1b8485b317b7ed")
	schedule  = types.GasSchedule{
		TxNewAccount: 36782,
		NewAccount:   36782,
		TxCreate:     64236,
		CodeDeposit:  106,
		Sset:         39576,
	}
)

func TestIntrinsicGas(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		data     []byte
		create   bool
		schedule types.GasSchedule
		gas      uint64
	}{
		{desc: "transfer", gas: 21000},
		{desc: "calldata", data: []byte{0, 1, 0, 2}, gas: 21000 + 2*4 + 2*16},
		{desc: "create", create: true, gas: 53000},
		{desc: "create with schedule", create: true, schedule: schedule, data: []byte{1}, gas: 53000 + 64236 + 16},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			gas, err := IntrinsicGas(tc.data, tc.create, tc.schedule)
			require.NoError(t, err)
			require.Equal(t, tc.gas, gas)
		})
	}
}

func newTestExecutor(tb testing.TB) (*Intrinsic, *MockState) {
	return New(WithLogger(zaptest.NewLogger(tb))), NewMockState(gomock.NewController(tb))
}

func TestExecuteTransfer(t *testing.T) {
	e, state := newTestExecutor(t)
	value := uint256.NewInt(1000)
	state.EXPECT().Account(sender).Return(types.Account{Address: sender, Nonce: 4, Balance: uint256.NewInt(5000)}, true, nil)
	state.EXPECT().SetNonce(sender, uint64(5)).Return(nil)
	state.EXPECT().Transfer(sender, recipient, value).Return(nil)

	result, err := e.Execute(state, &Message{From: sender, To: &recipient, Nonce: 4, Value: value, GasLimit: 21000}, types.GasSchedule{})
	require.NoError(t, err)
	require.EqualValues(t, 21000, result.GasUsed)
	require.Nil(t, result.Created)
}

func TestExecuteNewAccountGas(t *testing.T) {
	e, state := newTestExecutor(t)
	state.EXPECT().Account(sender).Return(types.Account{Address: sender, Balance: uint256.NewInt(5000)}, true, nil).Times(2)
	state.EXPECT().Account(recipient).Return(types.Account{}, false, nil).Times(2)

	msg := &Message{From: sender, To: &recipient, GasLimit: 21000}
	_, err := e.Execute(state, msg, schedule)
	require.ErrorIs(t, err, ErrIntrinsicGas)

	msg.GasLimit = 21000 + schedule.TxNewAccount
	state.EXPECT().SetNonce(sender, uint64(1)).Return(nil)
	result, err := e.Execute(state, msg, schedule)
	require.NoError(t, err)
	require.Equal(t, 21000+schedule.TxNewAccount, result.GasUsed)
}

func TestExecuteReservedSkipsNewAccountGas(t *testing.T) {
	e, state := newTestExecutor(t)
	reserved := address.DeriveReserved(types.MustName("alice"))
	state.EXPECT().Account(sender).Return(types.Account{Address: sender, Balance: uint256.NewInt(5000)}, true, nil)
	state.EXPECT().SetNonce(sender, uint64(1)).Return(nil)
	state.EXPECT().Transfer(sender, reserved, uint256.NewInt(10)).Return(nil)

	result, err := e.Execute(state, &Message{From: sender, To: &reserved, Value: uint256.NewInt(10), GasLimit: 21000}, schedule)
	require.NoError(t, err)
	require.EqualValues(t, 21000, result.GasUsed)
}

func TestExecuteCreate(t *testing.T) {
	e, state := newTestExecutor(t)
	created := crypto.CreateAddress(sender, 7)
	state.EXPECT().Account(sender).Return(types.Account{Address: sender, Nonce: 7, Balance: uint256.NewInt(5000)}, true, nil)
	state.EXPECT().SetNonce(sender, uint64(8)).Return(nil)
	state.EXPECT().Account(created).Return(types.Account{}, false, nil)
	state.EXPECT().CreateContract(created).Return(nil)
	state.EXPECT().Transfer(sender, created, uint256.NewInt(1)).Return(nil)

	result, err := e.Execute(state, &Message{From: sender, Nonce: 7, Value: uint256.NewInt(1), GasLimit: 100_000}, types.GasSchedule{})
	require.NoError(t, err)
	require.NotNil(t, result.Created)
	require.Equal(t, created, *result.Created)
	require.EqualValues(t, 53000, result.GasUsed)
}

func TestExecuteCollision(t *testing.T) {
	e, state := newTestExecutor(t)
	created := crypto.CreateAddress(sender, 0)
	state.EXPECT().Account(sender).Return(types.Account{Address: sender, Balance: new(uint256.Int)}, true, nil)
	state.EXPECT().SetNonce(sender, uint64(1)).Return(nil)
	state.EXPECT().Account(created).Return(types.Account{Address: created, Nonce: 1}, true, nil)

	_, err := e.Execute(state, &Message{From: sender, GasLimit: 100_000}, types.GasSchedule{})
	require.ErrorIs(t, err, ErrContractCollision)
}

func TestExecuteInsufficientFunds(t *testing.T) {
	e, state := newTestExecutor(t)
	state.EXPECT().Account(sender).Return(types.Account{Address: sender, Balance: uint256.NewInt(9)}, true, nil)
	_, err := e.Execute(state, &Message{From: sender, To: &recipient, Value: uint256.NewInt(10), GasLimit: 21000}, types.GasSchedule{})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}
