package links_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/links"
)

func TestLinks(t *testing.T) {
	db := sql.InMemory()
	addr := common.HexToAddress("0x0290ffefa58ee84a3641770ab910c48d3441752d")

	_, err := links.Get(db, addr)
	require.ErrorIs(t, err, sql.ErrNotFound)

	require.NoError(t, links.Add(db, addr, types.MustName("alice")))
	require.ErrorIs(t, links.Add(db, addr, types.MustName("bob")), sql.ErrObjectExists)

	owner, err := links.Get(db, addr)
	require.NoError(t, err)
	require.Equal(t, types.MustName("alice"), owner)
}

func TestAll(t *testing.T) {
	db := sql.InMemory()
	all, err := links.All(db)
	require.NoError(t, err)
	require.Empty(t, all)

	first := common.HexToAddress("0x0100000000000000000000000000000000000000")
	second := common.HexToAddress("0x0200000000000000000000000000000000000000")
	require.NoError(t, links.Add(db, second, types.MustName("bob")))
	require.NoError(t, links.Add(db, first, types.MustName("alice")))

	all, err = links.All(db)
	require.NoError(t, err)
	require.Equal(t, []links.Link{
		{Address: first, Owner: types.MustName("alice")},
		{Address: second, Owner: types.MustName("bob")},
	}, all)
}
