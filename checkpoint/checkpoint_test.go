package checkpoint_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-evmbridge/checkpoint"
	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/log/logtest"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/accounts"
	"github.com/spacemeshos/go-evmbridge/sql/balances"
	"github.com/spacemeshos/go-evmbridge/sql/blocks"
	"github.com/spacemeshos/go-evmbridge/sql/kvstore"
	"github.com/spacemeshos/go-evmbridge/sql/links"
	"github.com/spacemeshos/go-evmbridge/sql/tokens"
)

const dataDir = "/data"

var (
	alice = types.MustName("alice")
	miner = types.MustName("miner")

	first  = common.HexToAddress("0x0290ffefa58ee84a3641770ab910c48d3441752d")
	second = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbb3500000000000000")
)

func populate(tb testing.TB, db sql.Executor, withBlocks bool) {
	tb.Helper()
	for i, addr := range []common.Address{first, second} {
		_, err := accounts.Create(db, addr)
		require.NoError(tb, err)
		balance, err := uint256.FromDecimal("97522100000000000000")
		require.NoError(tb, err)
		require.NoError(tb, accounts.Update(db, types.Account{
			Address: addr,
			Nonce:   uint64(i + 3),
			Balance: balance.Add(balance, uint256.NewInt(uint64(i))),
		}))
	}
	_, err := balances.Open(db, miner)
	require.NoError(tb, err)
	require.NoError(tb, balances.Set(db, miner, uint256.NewInt(1_000_000_000)))
	require.NoError(tb, tokens.Set(db, alice, 100_000_000))
	require.NoError(tb, tokens.Set(db, miner, 7))
	require.NoError(tb, links.Add(db, first, alice))
	require.NoError(tb, kvstore.SetBridgeConfig(db, kvstore.BridgeConfig{
		ChainID:       18888,
		TokenContract: types.MustName("gasgasgasgas"),
		Symbol:        types.Symbol{Precision: 8, Code: "GAS"},
		MinerCut:      10_000,
		IngressFee:    1_000_000,
	}))
	require.NoError(tb, kvstore.SetSequence(db, 42))
	if !withBlocks {
		return
	}
	b1 := &types.Block{Number: 1, Timestamp: 1000}
	require.NoError(tb, blocks.Add(db, b1))
	to := first
	b2 := &types.Block{
		Number:        2,
		Timestamp:     1001,
		ParentHash:    b1.Hash,
		Nonce:         types.EncodeNonce(1),
		BaseFeePerGas: uint256.NewInt(10_000_000_000),
		Transactions: []types.TxRecord{{
			Hash:     common.HexToHash("0x01"),
			Kind:     types.TxDeposit,
			From:     second,
			To:       &to,
			Value:    uint256.NewInt(5),
			Sequence: 41,
		}},
	}
	require.NoError(tb, blocks.Add(db, b2))
}

func requireSameState(tb testing.TB, expected, actual sql.Executor) {
	tb.Helper()
	for _, load := range []func(sql.Executor) (any, error){
		func(db sql.Executor) (any, error) { return accounts.All(db) },
		func(db sql.Executor) (any, error) { return balances.All(db) },
		func(db sql.Executor) (any, error) { return tokens.All(db) },
		func(db sql.Executor) (any, error) { return links.All(db) },
		func(db sql.Executor) (any, error) { return kvstore.All(db) },
	} {
		want, err := load(expected)
		require.NoError(tb, err)
		got, err := load(actual)
		require.NoError(tb, err)
		require.Equal(tb, want, got)
	}
}

func generate(tb testing.TB, fs afero.Fs, withBlocks bool) (string, *sql.Database) {
	tb.Helper()
	db := sql.InMemory()
	populate(tb, db, withBlocks)
	fname, err := checkpoint.Generate(context.Background(), fs, db, dataDir)
	require.NoError(tb, err)
	return fname, db
}

func TestGenerateRecover(t *testing.T) {
	fs := afero.NewMemMapFs()
	fname, src := generate(t, fs, true)
	require.Equal(t, checkpoint.SelfCheckpointFilename(dataDir, 2), fname)

	persisted, err := afero.ReadFile(fs, fname)
	require.NoError(t, err)
	require.NoError(t, checkpoint.ValidateSchema(persisted))

	dst := sql.InMemory()
	cp, err := checkpoint.RecoverFromFile(context.Background(), logtest.New(t), fs, dst, fname)
	require.NoError(t, err)
	require.Equal(t, "snapshot-2", cp.Data.CheckpointId)
	requireSameState(t, src, dst)

	want, err := blocks.Latest(src)
	require.NoError(t, err)
	got, err := blocks.Latest(dst)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestGenerateBeforeFirstBlock(t *testing.T) {
	fs := afero.NewMemMapFs()
	fname, src := generate(t, fs, false)
	require.Equal(t, checkpoint.SelfCheckpointFilename(dataDir, 0), fname)

	dst := sql.InMemory()
	cp, err := checkpoint.RecoverFromFile(context.Background(), logtest.New(t), fs, dst, fname)
	require.NoError(t, err)
	require.Nil(t, cp.Data.Block)
	requireSameState(t, src, dst)
	_, err = blocks.Latest(dst)
	require.ErrorIs(t, err, sql.ErrNotFound)
}

func TestRecoverNotEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	fname, src := generate(t, fs, true)
	_, err := checkpoint.RecoverFromFile(context.Background(), logtest.New(t), fs, src, fname)
	require.ErrorIs(t, err, checkpoint.ErrNotEmpty)

	cfg := checkpoint.DefaultConfig()
	cfg.Uri = fname
	_, err = checkpoint.Recover(context.Background(), logtest.New(t), fs, src, dataDir, cfg)
	require.ErrorIs(t, err, checkpoint.ErrNotEmpty)
}

func TestRecoverInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	fname, _ := generate(t, fs, true)
	persisted, err := afero.ReadFile(fs, fname)
	require.NoError(t, err)

	for _, tc := range []struct {
		desc   string
		modify func(*checkpoint.Checkpoint)
	}{
		{"version", func(cp *checkpoint.Checkpoint) { cp.Version = "https://spacemesh.io/checkpoint.schema.json.1.0" }},
		{"block hash", func(cp *checkpoint.Checkpoint) { cp.Data.Block.Hash[0] ^= 1 }},
		{"block number", func(cp *checkpoint.Checkpoint) { cp.Data.Block.Number = 3 }},
		{"block header", func(cp *checkpoint.Checkpoint) { cp.Data.Block.Header = []byte{0x01} }},
		{"bridge config", func(cp *checkpoint.Checkpoint) { delete(cp.Data.Store, "bridge_config") }},
		{"account ids", func(cp *checkpoint.Checkpoint) { cp.Data.Accounts[0].ID = 5 }},
		{"balance ids", func(cp *checkpoint.Checkpoint) { cp.Data.Balances[0].ID = 1 }},
		{"not a number", func(cp *checkpoint.Checkpoint) { cp.Data.Accounts[1].Balance = "1e18" }},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			var cp checkpoint.Checkpoint
			require.NoError(t, json.Unmarshal(persisted, &cp))
			tc.modify(&cp)
			data, err := json.Marshal(&cp)
			require.NoError(t, err)
			const modified = "/data/recovery/modified"
			require.NoError(t, afero.WriteFile(fs, modified, data, 0o600))

			dst := sql.InMemory()
			_, err = checkpoint.RecoverFromFile(context.Background(), logtest.New(t), fs, dst, modified)
			require.ErrorIs(t, err, checkpoint.ErrInvalid)

			all, err := accounts.All(dst)
			require.NoError(t, err)
			require.Empty(t, all)
		})
	}
}

func TestValidateSchema(t *testing.T) {
	fs := afero.NewMemMapFs()
	fname, _ := generate(t, fs, true)
	valid, err := afero.ReadFile(fs, fname)
	require.NoError(t, err)

	for _, tc := range []struct {
		desc string
		fail bool
		data string
	}{
		{desc: "valid", data: string(valid)},
		{desc: "not json", fail: true, data: "{"},
		{
			desc: "missing accounts",
			fail: true,
			data: `{"version":"v","data":{"id":"snapshot-0","balances":[],"tokens":[],"links":[],"store":{}}}`,
		},
		{
			desc: "short address",
			fail: true,
			data: `{"version":"v","data":{"id":"snapshot-0","accounts":[{"id":0,"address":"0x01","nonce":0,"balance":"1"}],"balances":[],"tokens":[],"links":[],"store":{}}}`,
		},
		{
			desc: "hex balance",
			fail: true,
			data: `{"version":"v","data":{"id":"snapshot-0","accounts":[],"balances":[{"id":0,"owner":"miner","balance":"0x10"}],"tokens":[],"links":[],"store":{}}}`,
		},
		{
			desc: "negative amount",
			fail: true,
			data: `{"version":"v","data":{"id":"snapshot-0","accounts":[],"balances":[],"tokens":[{"owner":"alice","amount":-1}],"links":[],"store":{}}}`,
		},
		{
			desc: "odd store value",
			fail: true,
			data: `{"version":"v","data":{"id":"snapshot-0","accounts":[],"balances":[],"tokens":[],"links":[],"store":{"k":"0x1"}}}`,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			err := checkpoint.ValidateSchema([]byte(tc.data))
			if tc.fail {
				require.ErrorIs(t, err, checkpoint.ErrInvalid)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRecoverFromURI(t *testing.T) {
	fs := afero.NewMemMapFs()
	fname, src := generate(t, fs, true)
	persisted, err := afero.ReadFile(fs, fname)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/snapshot-2" {
			http.NotFound(w, r)
			return
		}
		w.Write(persisted)
	}))
	t.Cleanup(srv.Close)

	for _, tc := range []struct {
		desc, uri, local string
	}{
		{"path", fname, checkpoint.RecoveryFilename(dataDir, "snapshot-2")},
		{"file", "file://" + fname, checkpoint.RecoveryFilename(dataDir, "snapshot-2")},
		{"http", srv.URL + "/snapshot-2", checkpoint.RecoveryFilename(dataDir, "snapshot-2")},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			require.NoError(t, fs.RemoveAll(checkpoint.RecoveryDir(dataDir)))
			cfg := checkpoint.DefaultConfig()
			cfg.Uri = tc.uri
			dst := sql.InMemory()
			_, err := checkpoint.Recover(context.Background(), logtest.New(t), fs, dst, dataDir, cfg)
			require.NoError(t, err)
			requireSameState(t, src, dst)

			exists, err := afero.Exists(fs, tc.local)
			require.NoError(t, err)
			require.True(t, exists)
		})
	}

	t.Run("not found", func(t *testing.T) {
		cfg := checkpoint.DefaultConfig()
		cfg.Uri = srv.URL + "/snapshot-3"
		cfg.RetryMax = 0
		_, err := checkpoint.Recover(context.Background(), logtest.New(t), fs, sql.InMemory(), dataDir, cfg)
		require.Error(t, err)
	})
	t.Run("unsupported scheme", func(t *testing.T) {
		cfg := checkpoint.DefaultConfig()
		cfg.Uri = "ftp://example.com/snapshot-2"
		_, err := checkpoint.Recover(context.Background(), logtest.New(t), fs, sql.InMemory(), dataDir, cfg)
		require.ErrorContains(t, err, "not supported")
	})
}
