package blocks_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/blocks"
)

func TestAddGet(t *testing.T) {
	db := sql.InMemory()
	_, err := blocks.Latest(db)
	require.ErrorIs(t, err, sql.ErrNotFound)

	to := common.Address{0x9e}
	first := &types.Block{
		Number:    1,
		Timestamp: 1000,
		Transactions: []types.TxRecord{{
			Hash:     common.Hash{1},
			Kind:     types.TxPush,
			From:     common.Address{0xf3},
			To:       &to,
			Value:    uint256.NewInt(100),
			GasUsed:  21000,
			GasPrice: 10_000_000_000,
			Sequence: 7,
		}},
		GasUsed: 21000,
	}
	require.NoError(t, blocks.Add(db, first))
	require.NotEqual(t, common.Hash{}, first.Hash)

	second := &types.Block{
		Number:        2,
		Timestamp:     1001,
		ParentHash:    first.Hash,
		Nonce:         types.EncodeNonce(1),
		BaseFeePerGas: uint256.NewInt(10_000_000_000),
		ConsensusParameter: &types.GasSchedule{
			TxNewAccount: 36782, NewAccount: 36782, TxCreate: 64236, CodeDeposit: 106, Sset: 39576,
		},
	}
	require.NoError(t, blocks.Add(db, second))

	got, err := blocks.Get(db, 1)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(first, got, cmp.Comparer(func(a, b *uint256.Int) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Eq(b)
	})))
	require.Nil(t, got.BaseFeePerGas)
	require.Nil(t, got.ConsensusParameter)
	require.Zero(t, got.Version())

	latest, err := blocks.Latest(db)
	require.NoError(t, err)
	require.Equal(t, uint64(2), latest.Number)
	require.Equal(t, uint64(1), latest.Version())
	require.Equal(t, second.ConsensusParameter, latest.ConsensusParameter)
	require.Equal(t, second.Hash, latest.Hash)

	require.ErrorIs(t, blocks.Add(db, second), sql.ErrObjectExists)
	_, err = blocks.Get(db, 3)
	require.ErrorIs(t, err, sql.ErrNotFound)
}
