package token

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/scheduler"
	"github.com/spacemeshos/go-evmbridge/sql"
)

var (
	tokenAccount = types.MustName("eosio.token")
	symbol       = types.Symbol{Precision: 8, Code: "GAS"}
	alice        = types.MustName("alice")
	bob          = types.MustName("bob")
)

func newTestContract(tb testing.TB) (*Contract, *scheduler.Scheduler, *sql.Database) {
	tb.Helper()
	logger := zaptest.NewLogger(tb)
	c := New(tokenAccount, symbol, WithLogger(logger))
	s := scheduler.New(scheduler.WithLogger(logger))
	c.Register(s)
	db := sql.InMemory()
	_, err := s.Execute(context.Background(), db, c.IssueAction(Issue{To: alice, Quantity: types.MustAsset("100.00000000 GAS")}))
	require.NoError(tb, err)
	return c, s, db
}

func TestTransfer(t *testing.T) {
	c, s, db := newTestContract(t)
	var notified []types.Name
	for _, name := range []types.Name{alice, bob} {
		s.Register(name, tokenAccount, ActionTransfer, func(ctx *scheduler.Context) error {
			notified = append(notified, ctx.Receiver())
			return nil
		})
	}
	trace, err := s.Execute(context.Background(), db, c.TransferAction(Transfer{
		From:     alice,
		To:       bob,
		Quantity: types.MustAsset("1.50000000 GAS"),
		Memo:     "hello",
	}))
	require.NoError(t, err)
	require.Equal(t, []types.Name{alice, bob}, notified)
	require.Len(t, trace.Executed, 3)

	balance, err := c.Balance(db, alice)
	require.NoError(t, err)
	require.Equal(t, "98.50000000 GAS", balance.String())
	balance, err = c.Balance(db, bob)
	require.NoError(t, err)
	require.Equal(t, "1.50000000 GAS", balance.String())
}

func TestTransferErrors(t *testing.T) {
	c, s, db := newTestContract(t)
	for _, tc := range []struct {
		desc   string
		action scheduler.Action
		err    error
	}{
		{
			desc:   "overdrawn",
			action: c.TransferAction(Transfer{From: alice, To: bob, Quantity: types.MustAsset("100.00000001 GAS")}),
			err:    ErrOverdrawn,
		},
		{
			desc:   "self",
			action: c.TransferAction(Transfer{From: alice, To: alice, Quantity: types.MustAsset("1.00000000 GAS")}),
			err:    ErrSelfTransfer,
		},
		{
			desc:   "zero",
			action: c.TransferAction(Transfer{From: alice, To: bob, Quantity: types.MustAsset("0.00000000 GAS")}),
			err:    ErrInvalidQuantity,
		},
		{
			desc:   "symbol",
			action: c.TransferAction(Transfer{From: alice, To: bob, Quantity: types.MustAsset("1.0000 EOS")}),
			err:    ErrInvalidQuantity,
		},
		{
			desc: "authority",
			action: scheduler.Action{
				Account:       tokenAccount,
				Name:          ActionTransfer,
				Authorization: []types.Name{bob},
				Data:          Transfer{From: alice, To: bob, Quantity: types.MustAsset("1.00000000 GAS")},
			},
			err: scheduler.ErrMissingAuth,
		},
		{
			desc: "issue authority",
			action: scheduler.Action{
				Account:       tokenAccount,
				Name:          ActionIssue,
				Authorization: []types.Name{alice},
				Data:          Issue{To: alice, Quantity: types.MustAsset("1.00000000 GAS")},
			},
			err: scheduler.ErrMissingAuth,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := s.Execute(context.Background(), db, tc.action)
			require.ErrorIs(t, err, scheduler.ErrOrderingAborted)
			require.ErrorIs(t, err, tc.err)
		})
	}
}
