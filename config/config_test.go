package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-evmbridge/common/types"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 180*time.Second, cfg.Params.ActivationDelay)
	require.Equal(t, types.Symbol{Precision: 4, Code: "EOS"}, cfg.Bridge.Symbol())
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		desc   string
		modify func(*Config)
	}{
		{"chain id", func(c *Config) { c.Bridge.ChainID = 0 }},
		{"bridge account", func(c *Config) { c.Bridge.Account = 0 }},
		{"token contract", func(c *Config) { c.Bridge.TokenContract = 0 }},
		{"same accounts", func(c *Config) { c.Bridge.TokenContract = c.Bridge.Account }},
		{"miner cut", func(c *Config) { c.Bridge.MinerCut = types.HundredPercent + 1 }},
		{"gas price", func(c *Config) { c.Bridge.GasPrice = 0 }},
		{"no symbol", func(c *Config) { c.Bridge.IngressBridgeFee = types.Asset{} }},
		{"precision", func(c *Config) {
			c.Bridge.IngressBridgeFee = types.Asset{Amount: 1, Symbol: types.Symbol{Precision: 19, Code: "EOS"}}
		}},
		{"activation delay", func(c *Config) { c.Params.ActivationDelay = 0 }},
		{"max version", func(c *Config) { c.Params.MaxVersion = 0 }},
		{"block interval", func(c *Config) { c.Chain.BlockInterval = -time.Second }},
		{"max submissions", func(c *Config) { c.Chain.MaxSubmissions = 0 }},
		{"recovery retries", func(c *Config) { c.Recovery.RetryMax = -1 }},
		{"genesis name", func(c *Config) { c.Genesis.Accounts["Alice"] = "1.0000 EOS" }},
		{"genesis symbol", func(c *Config) { c.Genesis.Accounts["alice"] = "1.00 EOS" }},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestAllocations(t *testing.T) {
	g := GenesisConfig{Accounts: map[string]string{
		"carol": "3.0000 EOS",
		"alice": "1.0000 EOS",
		"bob":   "2.0000 EOS",
	}}
	allocations, err := g.Allocations(types.Symbol{Precision: 4, Code: "EOS"})
	require.NoError(t, err)
	require.Equal(t, []Allocation{
		{Owner: types.MustName("alice"), Quantity: types.MustAsset("1.0000 EOS")},
		{Owner: types.MustName("bob"), Quantity: types.MustAsset("2.0000 EOS")},
		{Owner: types.MustName("carol"), Quantity: types.MustAsset("3.0000 EOS")},
	}, allocations)
}

const testConfig = `
[main]
data-folder = "/tmp/bridge"

[bridge]
account = "evm.bridge"
token-contract = "gasgasgasgas"
chain-id = 18888
gas-price = 10000000000
ingress-bridge-fee = "0.01000000 GAS"

[params]
activation-delay = "3m"

[chain]
block-interval = "500ms"

[recovery]
recovery-uri = "https://example.com/snapshot-10"
retry-delay = "2s"

[genesis]
miners = ["miner1", "miner2"]

[genesis.accounts]
alice = "1000.00000000 GAS"
`

func TestUnmarshal(t *testing.T) {
	vip := viper.New()
	vip.SetConfigType("toml")
	require.NoError(t, vip.ReadConfig(strings.NewReader(testConfig)))

	cfg := DefaultConfig()
	require.NoError(t, Unmarshal(vip, &cfg))
	require.NoError(t, cfg.Validate())

	expected := DefaultConfig()
	expected.DataDir = "/tmp/bridge"
	expected.Bridge.Account = types.MustName("evm.bridge")
	expected.Bridge.TokenContract = types.MustName("gasgasgasgas")
	expected.Bridge.ChainID = 18888
	expected.Bridge.GasPrice = 10_000_000_000
	expected.Bridge.IngressBridgeFee = types.MustAsset("0.01000000 GAS")
	expected.Params.ActivationDelay = 3 * time.Minute
	expected.Recovery.Uri = "https://example.com/snapshot-10"
	expected.Recovery.RetryDelay = 2 * time.Second
	expected.Chain.BlockInterval = 500 * time.Millisecond
	expected.Genesis.Miners = []types.Name{types.MustName("miner1"), types.MustName("miner2")}
	expected.Genesis.Accounts = map[string]string{"alice": "1000.00000000 GAS"}
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	for _, tc := range []struct {
		desc, config string
	}{
		{"unknown key", "[bridge]\nunknown = 1\n"},
		{"bad name", "[bridge]\naccount = \"Not.A.Name\"\n"},
		{"bad asset", "[bridge]\ningress-bridge-fee = \"1 gas\"\n"},
		{"bad duration", "[params]\nactivation-delay = \"soon\"\n"},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			vip := viper.New()
			vip.SetConfigType("toml")
			require.NoError(t, vip.ReadConfig(strings.NewReader(tc.config)))
			cfg := DefaultConfig()
			require.Error(t, Unmarshal(vip, &cfg))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	vip := viper.New()
	require.NoError(t, LoadConfig(path, vip))
	require.Equal(t, "evm.bridge", vip.GetString("bridge.account"))

	err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"), viper.New())
	require.ErrorContains(t, err, "failed to read config file")
}
