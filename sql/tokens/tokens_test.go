package tokens_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/tokens"
)

func TestSetGet(t *testing.T) {
	db := sql.InMemory()
	alice, bob := types.MustName("alice"), types.MustName("bob")

	amount, err := tokens.Get(db, alice)
	require.NoError(t, err)
	require.Zero(t, amount)

	require.NoError(t, tokens.Set(db, alice, 100))
	require.NoError(t, tokens.Set(db, bob, 20))
	require.NoError(t, tokens.Set(db, alice, 70))

	amount, err = tokens.Get(db, alice)
	require.NoError(t, err)
	require.Equal(t, uint64(70), amount)

	total, err := tokens.Total(db)
	require.NoError(t, err)
	require.Equal(t, uint64(90), total)
}

func TestAll(t *testing.T) {
	db := sql.InMemory()
	alice, bob, carol := types.MustName("alice"), types.MustName("bob"), types.MustName("carol")
	require.NoError(t, tokens.Set(db, bob, 20))
	require.NoError(t, tokens.Set(db, alice, 100))
	require.NoError(t, tokens.Set(db, carol, 0))

	all, err := tokens.All(db)
	require.NoError(t, err)
	require.Equal(t, []tokens.Holding{{Owner: alice, Amount: 100}, {Owner: bob, Amount: 20}}, all)
}
