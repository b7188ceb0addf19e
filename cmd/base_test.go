package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/config"
)

func loadWithArgs(tb testing.TB, args ...string) (*config.Config, error) {
	tb.Helper()
	var (
		loaded  *config.Config
		loadErr error
	)
	root := &cobra.Command{
		Use:           "test",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaults := config.DefaultConfig()
	AddFlags(root, &defaults)
	root.AddCommand(&cobra.Command{
		Use: "run",
		Run: func(c *cobra.Command, _ []string) {
			loaded, loadErr = LoadConfig(c)
		},
	})
	root.SetArgs(append([]string{"run"}, args...))
	require.NoError(tb, root.Execute())
	return loaded, loadErr
}

func TestLoadConfigDefaults(t *testing.T) {
	conf, err := loadWithArgs(t)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfig().Bridge, conf.Bridge)
	require.Empty(t, conf.Preset)
}

func TestLoadConfigPreset(t *testing.T) {
	conf, err := loadWithArgs(t, "--preset", "standalone", "--chain-id", "7")
	require.NoError(t, err)
	require.Equal(t, "standalone", conf.Preset)
	require.EqualValues(t, 7, conf.Bridge.ChainID)
	require.Equal(t, types.MustName("gasgasgasgas"), conf.Bridge.TokenContract)
	// flag defaults do not overwrite the preset
	require.EqualValues(t, 10_000_000_000, conf.Bridge.GasPrice)
	require.Equal(t, 10*time.Second, conf.Params.ActivationDelay)
}

func TestLoadConfigUnknownPreset(t *testing.T) {
	_, err := loadWithArgs(t, "--preset", "nope")
	require.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
preset = "standalone"

[bridge]
chain-id = 1
miner-cut = 5000

[chain]
block-interval = "2s"
`), 0o600))

	conf, err := loadWithArgs(t, "-c", path, "--chain-id", "2", "--block-interval", "3s")
	require.NoError(t, err)
	require.Equal(t, path, conf.ConfigFile)
	require.Equal(t, "standalone", conf.Preset)
	require.EqualValues(t, 2, conf.Bridge.ChainID)
	require.EqualValues(t, 5000, conf.Bridge.MinerCut)
	require.Equal(t, 3*time.Second, conf.Chain.BlockInterval)
	require.Equal(t, types.MustName("gasgasgasgas"), conf.Bridge.TokenContract)
}

func TestLoadConfigInvalid(t *testing.T) {
	_, err := loadWithArgs(t, "--miner-cut", "100001")
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = loadWithArgs(t, "--bridge-account", "Not.A.Name")
	require.Error(t, err)
}
